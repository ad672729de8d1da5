package store

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/scribebot/scribe/internal/storage"
	"github.com/scribebot/scribe/pkg/todo"
)

// maxSaveAttempts bounds a forced save: attempts cycle through the backend
// chain, so with two backends the active one is tried twice. Forced saves
// fail fast rather than hang.
const maxSaveAttempts = 3

// Scheduler decouples mutation latency from disk-write latency. Mutations
// mark the state dirty; the scheduler owns a re-armable timer that
// coalesces bursts of mutations within the save interval into a single
// write. Saves walk an ordered chain of backends, falling back to the next
// on failure. A failed save never rolls back in-memory state - the dirty
// flag stays set and the next save retries.
type Scheduler struct {
	interval time.Duration
	backends []storage.Backend
	snapshot func() todo.Snapshot // deep copy of the current in-memory state

	mu      sync.Mutex
	timer   *time.Timer
	pending bool // a timer is armed
	dirty   bool // unsaved mutations exist
	stopped bool

	// Serializes actual writes so a timer-fired flush and a forced save
	// never interleave.
	flushMu sync.Mutex
}

func newScheduler(interval time.Duration, backends []storage.Backend, snapshot func() todo.Snapshot) *Scheduler {
	return &Scheduler{
		interval: interval,
		backends: backends,
		snapshot: snapshot,
	}
}

// MarkDirty records that in-memory state changed and arms the save timer
// if none is pending. Mutations within the interval coalesce into one save.
func (s *Scheduler) MarkDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dirty = true
	if s.pending || s.stopped {
		return
	}
	s.pending = true
	s.timer = time.AfterFunc(s.interval, func() {
		if err := s.flush(context.Background()); err != nil {
			log.Printf("[Scheduler] Background save failed, will retry on next mutation: %v", err)
		}
	})
}

// Dirty reports whether unsaved mutations exist.
func (s *Scheduler) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// markClean clears the dirty flag, e.g. after a forced reload replaced the
// in-memory state with what storage holds.
func (s *Scheduler) markClean() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = false
	s.disarmLocked()
}

// ForceSave bypasses coalescing and persists immediately, returning only
// once the write is durably committed (or all attempts are exhausted).
func (s *Scheduler) ForceSave(ctx context.Context) error {
	s.mu.Lock()
	s.disarmLocked()
	s.mu.Unlock()
	return s.flush(ctx)
}

// Stop disarms the timer and issues a deterministic final flush if dirty.
// The scheduler accepts no further timer arms afterwards.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.stopped = true
	s.disarmLocked()
	wasDirty := s.dirty
	s.mu.Unlock()

	// Taking flushMu also waits out any in-flight timer-fired save.
	if !wasDirty {
		s.flushMu.Lock()
		s.flushMu.Unlock()
		return nil
	}
	return s.flush(ctx)
}

// disarmLocked stops and clears a pending timer. Callers must hold s.mu.
func (s *Scheduler) disarmLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = false
}

// flush snapshots the state and writes it through the backend chain.
func (s *Scheduler) flush(ctx context.Context) error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	s.mu.Lock()
	s.pending = false
	s.dirty = false
	s.mu.Unlock()

	snap := s.snapshot()

	if err := s.save(ctx, snap); err != nil {
		// Memory is never rolled back; the state stays dirty for retry.
		s.mu.Lock()
		s.dirty = true
		s.mu.Unlock()
		return err
	}
	return nil
}

// save walks the backend chain, cycling on failure up to maxSaveAttempts.
func (s *Scheduler) save(ctx context.Context, snap todo.Snapshot) error {
	var lastErr error
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		backend := s.backends[attempt%len(s.backends)]
		if err := backend.Save(ctx, snap); err != nil {
			lastErr = err
			log.Printf("[Scheduler] Save via %s backend failed (attempt %d/%d): %v",
				backend.Name(), attempt+1, maxSaveAttempts, err)
			continue
		}
		if attempt > 0 {
			log.Printf("[Scheduler] Degraded: saved via %s backend after %d failed attempt(s)",
				backend.Name(), attempt)
		}
		return nil
	}
	return fmt.Errorf("all %d save attempts exhausted: %w", maxSaveAttempts, lastErr)
}
