package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/scribebot/scribe/pkg/todo"
)

// schema creates the two related tables. The unique index on
// (guild_id, lower(name)) enforces per-guild name uniqueness at the storage
// layer, a second line of defense behind the store's own check.
const schema = `
CREATE TABLE IF NOT EXISTS lists (
	id         TEXT PRIMARY KEY,
	guild_id   TEXT NOT NULL,
	name       TEXT NOT NULL,
	created_by TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_lists_guild_name
	ON lists (guild_id, lower(name));

CREATE TABLE IF NOT EXISTS items (
	id           TEXT PRIMARY KEY,
	list_id      TEXT NOT NULL REFERENCES lists(id) ON DELETE CASCADE,
	position     INTEGER NOT NULL,
	text         TEXT NOT NULL,
	completed    INTEGER NOT NULL DEFAULT 0,
	created_by   TEXT NOT NULL,
	created_at   TIMESTAMP NOT NULL,
	completed_by TEXT NOT NULL DEFAULT '',
	completed_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_items_list ON items (list_id, position);
`

// SQLiteBackend persists snapshots into an SQLite database with two related
// tables, lists and items. Saves replace the full contents inside a single
// transaction.
type SQLiteBackend struct {
	db   *sql.DB
	path string
}

// NewSQLiteBackend opens (creating if needed) the SQLite database at path
// and ensures the schema exists. Returns ErrBackendUnavailable if the file
// cannot be opened or the schema cannot be applied.
func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: create data dir: %v", ErrBackendUnavailable, err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %v", ErrBackendUnavailable, err)
	}

	// Single writer process; one connection avoids SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping database: %v", ErrBackendUnavailable, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: apply schema: %v", ErrBackendUnavailable, err)
	}

	return &SQLiteBackend{db: db, path: path}, nil
}

// Name identifies this backend in logs and status output.
func (b *SQLiteBackend) Name() string { return "sqlite" }

// Close closes the database handle. Implements io.Closer.
func (b *SQLiteBackend) Close() error { return b.db.Close() }

// Load reads the full snapshot from the lists and items tables.
// Returns ErrBackendUnavailable if rows cannot be read or fail validation.
func (b *SQLiteBackend) Load(ctx context.Context) (todo.Snapshot, error) {
	snap := todo.Snapshot{}
	byID := map[string]*todo.List{}

	rows, err := b.db.QueryContext(ctx, `
		SELECT id, guild_id, name, created_by, created_at
		FROM lists ORDER BY guild_id, created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("%w: query lists: %v", ErrBackendUnavailable, err)
	}
	defer rows.Close()

	for rows.Next() {
		l := &todo.List{Items: []todo.Item{}}
		if err := rows.Scan(&l.ID, &l.GuildID, &l.Name, &l.CreatedBy, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan list row: %v", ErrBackendUnavailable, err)
		}
		l.CreatedAt = l.CreatedAt.UTC()
		byID[l.ID] = l
		snap[l.GuildID] = append(snap[l.GuildID], l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read lists: %v", ErrBackendUnavailable, err)
	}

	itemRows, err := b.db.QueryContext(ctx, `
		SELECT id, list_id, text, completed, created_by, created_at, completed_by, completed_at
		FROM items ORDER BY list_id, position`)
	if err != nil {
		return nil, fmt.Errorf("%w: query items: %v", ErrBackendUnavailable, err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var (
			item        todo.Item
			listID      string
			completedAt sql.NullTime
		)
		if err := itemRows.Scan(&item.ID, &listID, &item.Text, &item.Completed,
			&item.CreatedBy, &item.CreatedAt, &item.CompletedBy, &completedAt); err != nil {
			return nil, fmt.Errorf("%w: scan item row: %v", ErrBackendUnavailable, err)
		}
		item.CreatedAt = item.CreatedAt.UTC()
		if completedAt.Valid {
			t := completedAt.Time.UTC()
			item.CompletedAt = &t
		}

		l, ok := byID[listID]
		if !ok {
			return nil, fmt.Errorf("%w: item %s references unknown list %s", ErrBackendUnavailable, item.ID, listID)
		}
		l.Items = append(l.Items, item)
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read items: %v", ErrBackendUnavailable, err)
	}

	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("%w: invalid persisted data: %v", ErrBackendUnavailable, err)
	}

	return snap, nil
}

// Save replaces the persisted snapshot inside a single transaction:
// the previous state stays intact unless the commit succeeds.
func (b *SQLiteBackend) Save(ctx context.Context, snap todo.Snapshot) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", ErrBackendUnavailable, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM items`); err != nil {
		return fmt.Errorf("%w: clear items: %v", ErrBackendUnavailable, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM lists`); err != nil {
		return fmt.Errorf("%w: clear lists: %v", ErrBackendUnavailable, err)
	}

	insertList, err := tx.PrepareContext(ctx, `
		INSERT INTO lists (id, guild_id, name, created_by, created_at)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%w: prepare list insert: %v", ErrBackendUnavailable, err)
	}
	defer insertList.Close()

	insertItem, err := tx.PrepareContext(ctx, `
		INSERT INTO items (id, list_id, position, text, completed, created_by, created_at, completed_by, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%w: prepare item insert: %v", ErrBackendUnavailable, err)
	}
	defer insertItem.Close()

	for _, lists := range snap {
		for _, l := range lists {
			if _, err := insertList.ExecContext(ctx, l.ID, l.GuildID, l.Name, l.CreatedBy, l.CreatedAt.UTC()); err != nil {
				return fmt.Errorf("%w: insert list %q: %v", ErrBackendUnavailable, l.Name, err)
			}
			for idx := range l.Items {
				item := &l.Items[idx]
				var completedAt sql.NullTime
				if item.CompletedAt != nil {
					completedAt = sql.NullTime{Time: item.CompletedAt.UTC(), Valid: true}
				}
				if _, err := insertItem.ExecContext(ctx, item.ID, l.ID, idx+1, item.Text,
					item.Completed, item.CreatedBy, item.CreatedAt.UTC(), item.CompletedBy, completedAt); err != nil {
					return fmt.Errorf("%w: insert item at position %d of %q: %v", ErrBackendUnavailable, idx+1, l.Name, err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrBackendUnavailable, err)
	}
	return nil
}

// HasData reports whether the database holds at least one list. The
// migration controller uses this to stay idempotent.
func (b *SQLiteBackend) HasData(ctx context.Context) (bool, error) {
	var count int
	if err := b.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM lists`).Scan(&count); err != nil {
		return false, fmt.Errorf("%w: count lists: %v", ErrBackendUnavailable, err)
	}
	return count > 0, nil
}

// Status reports file existence, size and record counts.
func (b *SQLiteBackend) Status(ctx context.Context) (Status, error) {
	st := Status{Backend: b.Name(), Path: b.path}

	info, err := os.Stat(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return st, nil
		}
		return st, fmt.Errorf("%w: stat database: %v", ErrBackendUnavailable, err)
	}
	st.Exists = true
	st.SizeBytes = info.Size()

	if err := b.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM lists`).Scan(&st.Lists); err != nil {
		return st, fmt.Errorf("%w: count lists: %v", ErrBackendUnavailable, err)
	}
	if err := b.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&st.Items); err != nil {
		return st, fmt.Errorf("%w: count items: %v", ErrBackendUnavailable, err)
	}
	return st, nil
}
