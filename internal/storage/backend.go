// Package storage implements the persistence backends for the Scribe todo
// store: a structured SQLite backend and a flat JSON file backend, plus the
// one-time migration between them.
//
// Both backends load and save whole snapshots. Saves are atomic from the
// caller's perspective: either the entire snapshot is durably written or the
// previous durable state remains intact. The SQLite backend commits inside a
// single transaction; the JSON backend writes to a temp file and renames it
// over the old one.
package storage

import (
	"context"
	"errors"

	"github.com/scribebot/scribe/pkg/todo"
)

// ErrBackendUnavailable indicates the storage medium could not be opened,
// read or written: missing permissions, a corrupted file, a failed
// transaction. Callers fall back to the secondary backend or continue from
// memory; this error never surfaces to chat users.
var ErrBackendUnavailable = errors.New("storage backend unavailable")

// IsUnavailable returns true if the error indicates an unusable backend.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrBackendUnavailable)
}

// Status describes a backend's persisted artifact for diagnostics.
type Status struct {
	Backend   string `json:"backend"`    // "sqlite" or "json"
	Path      string `json:"path"`       // Filesystem path of the artifact
	Exists    bool   `json:"exists"`     // Whether the file exists on disk
	SizeBytes int64  `json:"size_bytes"` // File size (0 when absent)
	Lists     int    `json:"lists"`      // Persisted list count (0 when absent)
	Items     int    `json:"items"`      // Persisted item count (0 when absent)
}

// Backend is the capability contract shared by both storage variants.
// Implementations own their storage handle exclusively: it is opened once
// at startup and never touched by callers directly.
type Backend interface {
	// Name identifies the backend ("sqlite" or "json") in logs and status output.
	Name() string

	// Load reads the full persisted snapshot. A backend whose artifact does
	// not exist yet returns an empty snapshot, not an error. An unreadable
	// or corrupted artifact returns ErrBackendUnavailable.
	Load(ctx context.Context) (todo.Snapshot, error)

	// Save durably writes the full snapshot, atomically.
	Save(ctx context.Context, snap todo.Snapshot) error

	// Status reports existence, size and record counts for diagnostics.
	Status(ctx context.Context) (Status, error)

	// Close releases the storage handle. Implements io.Closer.
	Close() error
}
