package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribebot/scribe/pkg/todo"
)

const backupSuffix = ".migrated"

func setupMigration(t *testing.T) (*SQLiteBackend, *JSONBackend) {
	t.Helper()
	dir := t.TempDir()

	db, err := NewSQLiteBackend(filepath.Join(dir, "scribe.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	flat, err := NewJSONBackend(filepath.Join(dir, "todo_lists.json"))
	require.NoError(t, err)

	return db, flat
}

func TestMigrate_CopiesAndBacksUp(t *testing.T) {
	db, flat := setupMigration(t)
	ctx := context.Background()
	require.NoError(t, flat.Save(ctx, testSnapshot(t)))

	res, err := Migrate(ctx, db, flat, backupSuffix)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.False(t, res.NoSource)
	assert.Equal(t, 3, res.Lists)
	assert.Equal(t, 3, res.Items)
	assert.Equal(t, flat.Path()+backupSuffix, res.Backup)

	// Data landed in the database
	loaded, err := db.Load(ctx)
	require.NoError(t, err)
	lists, items := loaded.Counts()
	assert.Equal(t, 3, lists)
	assert.Equal(t, 3, items)

	// Source was renamed, not deleted
	assert.False(t, flat.Exists())
	_, err = os.Stat(flat.Path() + backupSuffix)
	assert.NoError(t, err)
}

func TestMigrate_Idempotent(t *testing.T) {
	db, flat := setupMigration(t)
	ctx := context.Background()
	require.NoError(t, flat.Save(ctx, testSnapshot(t)))

	res, err := Migrate(ctx, db, flat, backupSuffix)
	require.NoError(t, err)
	require.False(t, res.Skipped)

	// A second run must not duplicate or alter records, even when a new
	// flat file appears alongside the populated database
	require.NoError(t, flat.Save(ctx, todo.Snapshot{
		"guild-9": {todo.NewList("guild-9", "Sneaky", "mallory")},
	}))

	res, err = Migrate(ctx, db, flat, backupSuffix)
	require.NoError(t, err)
	assert.True(t, res.Skipped)

	loaded, err := db.Load(ctx)
	require.NoError(t, err)
	lists, items := loaded.Counts()
	assert.Equal(t, 3, lists)
	assert.Equal(t, 3, items)
	assert.NotContains(t, loaded, "guild-9")
}

func TestMigrate_NoSource(t *testing.T) {
	db, flat := setupMigration(t)

	res, err := Migrate(context.Background(), db, flat, backupSuffix)
	require.NoError(t, err)
	assert.True(t, res.NoSource)
	assert.Zero(t, res.Lists)

	hasData, err := db.HasData(context.Background())
	require.NoError(t, err)
	assert.False(t, hasData)
}

func TestMigrate_CorruptSourceLeavesFileIntact(t *testing.T) {
	db, flat := setupMigration(t)
	require.NoError(t, os.WriteFile(flat.Path(), []byte("{broken"), 0o644))

	_, err := Migrate(context.Background(), db, flat, backupSuffix)
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))

	// Failed migration never touches the source file
	assert.True(t, flat.Exists())
}
