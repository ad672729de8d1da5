package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/scribebot/scribe/pkg/todo"
)

// JSONBackend persists the full snapshot as a single JSON document mapping
// guild IDs to their lists, items embedded inline. Human-readable and
// portable; it is both the legacy format migrated into SQLite and the
// fallback target when the database cannot be written.
type JSONBackend struct {
	path string
}

// NewJSONBackend creates a flat-file backend for the given path. The file
// itself is created lazily on first save.
func NewJSONBackend(path string) (*JSONBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: create data dir: %v", ErrBackendUnavailable, err)
	}
	return &JSONBackend{path: path}, nil
}

// Name identifies this backend in logs and status output.
func (b *JSONBackend) Name() string { return "json" }

// Close is a no-op; the file handle is not held open between operations.
func (b *JSONBackend) Close() error { return nil }

// Path returns the flat file's location on disk.
func (b *JSONBackend) Path() string { return b.path }

// Exists reports whether the flat file is present on disk.
func (b *JSONBackend) Exists() bool {
	_, err := os.Stat(b.path)
	return err == nil
}

// Load reads the snapshot from the flat file. A missing file yields an
// empty snapshot; an unreadable or unparsable file yields
// ErrBackendUnavailable.
func (b *JSONBackend) Load(ctx context.Context) (todo.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return todo.Snapshot{}, nil
		}
		return nil, fmt.Errorf("%w: read flat file: %v", ErrBackendUnavailable, err)
	}

	var snap todo.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: parse flat file: %v", ErrBackendUnavailable, err)
	}
	if snap == nil {
		snap = todo.Snapshot{}
	}

	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("%w: invalid persisted data: %v", ErrBackendUnavailable, err)
	}

	return snap, nil
}

// Save writes the snapshot to a temp file in the same directory and renames
// it over the target, so a crash mid-write never corrupts the previous
// durable state.
func (b *JSONBackend) Save(ctx context.Context, snap todo.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal snapshot: %v", ErrBackendUnavailable, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(b.path), filepath.Base(b.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", ErrBackendUnavailable, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: write temp file: %v", ErrBackendUnavailable, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: sync temp file: %v", ErrBackendUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: close temp file: %v", ErrBackendUnavailable, err)
	}

	if err := os.Rename(tmpPath, b.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: rename temp file: %v", ErrBackendUnavailable, err)
	}
	return nil
}

// Backup renames the flat file by appending suffix, e.g. after a successful
// migration into SQLite. The source file is never deleted.
func (b *JSONBackend) Backup(suffix string) error {
	if err := os.Rename(b.path, b.path+suffix); err != nil {
		return fmt.Errorf("backup flat file: %w", err)
	}
	return nil
}

// Status reports file existence, size and record counts. Counting requires
// parsing the document; a corrupt file reports as unavailable.
func (b *JSONBackend) Status(ctx context.Context) (Status, error) {
	st := Status{Backend: b.Name(), Path: b.path}

	info, err := os.Stat(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return st, nil
		}
		return st, fmt.Errorf("%w: stat flat file: %v", ErrBackendUnavailable, err)
	}
	st.Exists = true
	st.SizeBytes = info.Size()

	snap, err := b.Load(ctx)
	if err != nil {
		return st, err
	}
	st.Lists, st.Items = snap.Counts()
	return st, nil
}
