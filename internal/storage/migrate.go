package storage

import (
	"context"
	"fmt"
)

// MigrationResult reports what the migration controller did.
type MigrationResult struct {
	Skipped  bool   // Database already had records; nothing touched
	NoSource bool   // Flat file absent; database initialized empty
	Lists    int    // Lists copied into the database
	Items    int    // Items copied into the database
	Backup   string // Path the flat file was renamed to, when migrated
}

// Migrate performs the one-time transfer of the legacy flat-file snapshot
// into the SQLite database. It runs at startup before the store accepts any
// operation, and is idempotent:
//
//  1. If the database already has at least one list, skip - existing
//     structured data is never overwritten.
//  2. If the flat file is absent, there is nothing to migrate; the database
//     stays empty. Not an error.
//  3. Otherwise copy the full snapshot into the database, then rename the
//     flat file with the backup suffix. The source is never deleted.
//
// A failed copy leaves the flat file untouched. Callers treat any returned
// error as a warning only: a migration failure must not block startup.
func Migrate(ctx context.Context, db *SQLiteBackend, flat *JSONBackend, backupSuffix string) (MigrationResult, error) {
	var res MigrationResult

	hasData, err := db.HasData(ctx)
	if err != nil {
		return res, fmt.Errorf("check database state: %w", err)
	}
	if hasData {
		res.Skipped = true
		return res, nil
	}

	if !flat.Exists() {
		res.NoSource = true
		return res, nil
	}

	snap, err := flat.Load(ctx)
	if err != nil {
		return res, fmt.Errorf("load flat file: %w", err)
	}

	if err := db.Save(ctx, snap); err != nil {
		return res, fmt.Errorf("copy snapshot into database: %w", err)
	}
	res.Lists, res.Items = snap.Counts()

	if err := flat.Backup(backupSuffix); err != nil {
		// Data is safely in the database; a failed rename only means the
		// flat file will be re-checked (and skipped) on next startup.
		return res, fmt.Errorf("rename flat file after migration: %w", err)
	}
	res.Backup = flat.Path() + backupSuffix

	return res, nil
}
