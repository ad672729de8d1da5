package store

import (
	"context"
	"fmt"
	"log"

	"github.com/scribebot/scribe/internal/storage"
)

// SnapshotInfo is a read-only digest of the in-memory state for the
// operator-facing debug command.
type SnapshotInfo struct {
	Guilds int  `json:"guilds"`
	Lists  int  `json:"lists"`
	Items  int  `json:"items"`
	Dirty  bool `json:"dirty"` // Unsaved mutations exist
}

// SnapshotInfo reports guild/list/item counts and the dirty flag.
func (s *Store) SnapshotInfo() SnapshotInfo {
	s.mu.RLock()
	guilds := len(s.snap)
	lists, items := s.snap.Counts()
	s.mu.RUnlock()

	return SnapshotInfo{
		Guilds: guilds,
		Lists:  lists,
		Items:  items,
		Dirty:  s.sched.Dirty(),
	}
}

// BackendStatus reports existence, size and record counts for every
// configured backend, active first.
func (s *Store) BackendStatus(ctx context.Context) []storage.Status {
	backends := []storage.Backend{s.active}
	if s.fallback != nil {
		backends = append(backends, s.fallback)
	}

	statuses := make([]storage.Status, 0, len(backends))
	for _, b := range backends {
		st, err := b.Status(ctx)
		if err != nil {
			log.Printf("[Store] Status check for %s backend failed: %v", b.Name(), err)
		}
		statuses = append(statuses, st)
	}
	return statuses
}

// ForceSave persists the current state immediately, bypassing the
// scheduler's debounce. Blocks until the write is durable.
func (s *Store) ForceSave(ctx context.Context) error {
	return s.sched.ForceSave(ctx)
}

// Reload discards the in-memory state, including unsaved mutations, and
// re-reads the active backend. Used to recover from suspected divergence
// between memory and storage.
func (s *Store) Reload(ctx context.Context) error {
	snap, err := s.active.Load(ctx)
	if err != nil {
		return fmt.Errorf("reload from %s backend: %w", s.active.Name(), err)
	}

	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
	s.sched.markClean()

	lists, items := snap.Counts()
	log.Printf("[Store] Reloaded %d lists / %d items from %s backend", lists, items, s.active.Name())
	return nil
}
