// Package store holds the in-memory authoritative state of the Scribe todo
// system: guild-scoped lists with CRUD operations, the durability scheduler
// that persists dirty state, and the diagnostic surface consumed by
// operator commands.
//
// All reads are served from memory; the backends are only touched at
// startup, by the scheduler, and by the forced diagnostic operations. A
// single mutex serializes mutations across all guilds (guilds are
// independent partitions, so per-guild locking would be a valid
// optimization, but one guard keeps the model simple). Mutations commit in
// memory synchronously and never block on storage I/O.
package store

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/scribebot/scribe/internal/config"
	"github.com/scribebot/scribe/internal/storage"
	"github.com/scribebot/scribe/pkg/todo"
)

// Store is the single source of truth for todo state during the process
// lifetime.
type Store struct {
	mu   sync.RWMutex
	snap todo.Snapshot

	active   storage.Backend
	fallback storage.Backend
	sched    *Scheduler
}

// Open builds both backends from the configuration, runs the one-time
// migration, loads the snapshot into memory and starts the durability
// scheduler. Storage failures during startup degrade to warnings and an
// empty in-memory store; they never prevent the process from starting.
func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	var db *storage.SQLiteBackend
	var flat *storage.JSONBackend
	var err error

	db, err = storage.NewSQLiteBackend(cfg.DatabasePath())
	if err != nil {
		log.Printf("[Store] Warning: sqlite backend unavailable: %v", err)
		db = nil
	}

	flat, err = storage.NewJSONBackend(cfg.FlatFilePath())
	if err != nil {
		log.Printf("[Store] Warning: json backend unavailable: %v", err)
		flat = nil
	}

	// One-time migration of the legacy flat file into the database, before
	// any operation is accepted. Only runs when the database is the active
	// backend: with backend=json the flat file stays the source of truth.
	// Failures are diagnostic warnings only.
	if cfg.Backend == config.BackendSQLite && db != nil && flat != nil {
		res, err := storage.Migrate(ctx, db, flat, config.BackupSuffix)
		switch {
		case err != nil:
			log.Printf("[Migration] Warning: %v", err)
		case res.Skipped:
			log.Printf("[Migration] Database already populated, skipping")
		case res.NoSource:
			log.Printf("[Migration] No flat file found, starting fresh")
		default:
			log.Printf("[Migration] Migrated %d lists / %d items, flat file renamed to %s",
				res.Lists, res.Items, res.Backup)
		}
	}

	active, fallback := orderBackends(cfg.Backend, db, flat)
	if active == nil {
		return nil, fmt.Errorf("no storage backend could be opened")
	}

	s := &Store{
		snap:     todo.Snapshot{},
		active:   active,
		fallback: fallback,
	}

	snap, err := active.Load(ctx)
	if err != nil {
		// Degraded start: serve from an empty store rather than refusing
		// to run. The scheduler will persist whatever happens next.
		log.Printf("[Store] Warning: load from %s failed, starting empty: %v", active.Name(), err)
		snap = todo.Snapshot{}
	}
	s.snap = snap

	chain := []storage.Backend{active}
	if fallback != nil {
		chain = append(chain, fallback)
	}
	s.sched = newScheduler(cfg.SaveIntervalDuration(), chain, s.cloneSnapshot)

	lists, items := snap.Counts()
	log.Printf("[Store] Ready: %d lists / %d items loaded from %s backend", lists, items, active.Name())
	return s, nil
}

// orderBackends picks the active backend per configuration and the other
// variant as the save fallback. A nil backend (failed to open) drops out of
// the ordering.
func orderBackends(configured string, db *storage.SQLiteBackend, flat *storage.JSONBackend) (active, fallback storage.Backend) {
	// Typed nils must not escape into the interface values.
	var d, f storage.Backend
	if db != nil {
		d = db
	}
	if flat != nil {
		f = flat
	}

	if configured == config.BackendJSON {
		if f != nil {
			return f, d
		}
		return d, nil
	}
	if d != nil {
		return d, f
	}
	return f, nil
}

// Close performs a graceful shutdown: a final forced save if the state is
// dirty, then releases the storage handles.
func (s *Store) Close(ctx context.Context) error {
	var firstErr error
	if err := s.sched.Stop(ctx); err != nil {
		firstErr = err
	}
	if err := s.active.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if s.fallback != nil {
		if err := s.fallback.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// cloneSnapshot hands the scheduler a deep copy of the current state so
// saves run without holding the store lock.
func (s *Store) cloneSnapshot() todo.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Clone()
}

// findList returns the list with the given name in the guild, or nil.
// Callers must hold s.mu.
func (s *Store) findList(guildID, name string) *todo.List {
	for _, l := range s.snap[guildID] {
		if todo.NameEqual(l.Name, name) {
			return l
		}
	}
	return nil
}

// CreateList creates a new, empty list in the guild. Fails with
// ErrDuplicateName if a case-insensitive name match already exists there.
func (s *Store) CreateList(guildID, name, createdBy string) (*todo.List, error) {
	name = strings.TrimSpace(name)
	if guildID == "" {
		return nil, fmt.Errorf("guild id cannot be empty")
	}
	if name == "" {
		return nil, fmt.Errorf("list name cannot be empty")
	}
	if createdBy == "" {
		return nil, fmt.Errorf("creator cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing := s.findList(guildID, name); existing != nil {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateName, existing.Name)
	}

	l := todo.NewList(guildID, name, createdBy)
	s.snap[guildID] = append(s.snap[guildID], l)
	s.sched.MarkDirty()

	return l.Clone(), nil
}

// AddItem appends an item to the named list and returns its 1-based
// position. Fails with ErrListNotFound if the guild has no such list.
func (s *Store) AddItem(guildID, listName, text, createdBy string) (int, error) {
	positions, err := s.AddItems(guildID, listName, []string{text}, createdBy)
	if err != nil {
		return 0, err
	}
	return positions[0], nil
}

// AddItems appends several items in order (chat commands accept bulk adds)
// and returns their positions. Either all items are added or none.
func (s *Store) AddItems(guildID, listName string, texts []string, createdBy string) ([]int, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("no items given")
	}
	cleaned := make([]string, 0, len(texts))
	for _, text := range texts {
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, fmt.Errorf("item text cannot be empty")
		}
		cleaned = append(cleaned, text)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.findList(guildID, listName)
	if l == nil {
		return nil, fmt.Errorf("%w: %q", ErrListNotFound, listName)
	}

	positions := make([]int, 0, len(cleaned))
	for _, text := range cleaned {
		l.Items = append(l.Items, todo.NewItem(text, createdBy))
		positions = append(positions, len(l.Items))
	}
	s.sched.MarkDirty()

	return positions, nil
}

// RemoveItem deletes the item at the given 1-based position and returns it.
// Later items shift down by one, keeping positions dense. Fails with
// ErrItemNotFound when the position is outside 1..len(items).
func (s *Store) RemoveItem(guildID, listName string, position int) (todo.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.findList(guildID, listName)
	if l == nil {
		return todo.Item{}, fmt.Errorf("%w: %q", ErrListNotFound, listName)
	}
	if position < 1 || position > len(l.Items) {
		return todo.Item{}, fmt.Errorf("%w: position %d of %d", ErrItemNotFound, position, len(l.Items))
	}

	removed := l.Items[position-1]
	l.Items = append(l.Items[:position-1], l.Items[position:]...)
	s.sched.MarkDirty()

	return removed, nil
}

// ToggleItem flips the completion state of the item at the given position
// and returns the new state. Toggling on stamps the completion audit
// fields; toggling off clears them.
func (s *Store) ToggleItem(guildID, listName string, position int, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.findList(guildID, listName)
	if l == nil {
		return false, fmt.Errorf("%w: %q", ErrListNotFound, listName)
	}
	if position < 1 || position > len(l.Items) {
		return false, fmt.Errorf("%w: position %d of %d", ErrItemNotFound, position, len(l.Items))
	}

	item := &l.Items[position-1]
	if item.Completed {
		item.Completed = false
		item.CompletedBy = ""
		item.CompletedAt = nil
	} else {
		now := time.Now().UTC()
		item.Completed = true
		item.CompletedBy = userID
		item.CompletedAt = &now
	}
	s.sched.MarkDirty()

	return item.Completed, nil
}

// Lists returns display summaries of every list in the guild, ordered by
// creation time.
func (s *Store) Lists(guildID string) ([]todo.Summary, error) {
	if guildID == "" {
		return nil, fmt.Errorf("guild id cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]todo.Summary, 0, len(s.snap[guildID]))
	for _, l := range s.snap[guildID] {
		summaries = append(summaries, l.Summary())
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.Before(summaries[j].CreatedAt)
	})
	return summaries, nil
}

// GetList returns a deep copy of the named list for rendering.
func (s *Store) GetList(guildID, listName string) (*todo.List, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l := s.findList(guildID, listName)
	if l == nil {
		return nil, fmt.Errorf("%w: %q", ErrListNotFound, listName)
	}
	return l.Clone(), nil
}

// DeleteList removes the named list. Only the creator may delete a list;
// anyone else gets ErrNotAuthorized.
func (s *Store) DeleteList(guildID, listName, requestedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lists := s.snap[guildID]
	for i, l := range lists {
		if !todo.NameEqual(l.Name, listName) {
			continue
		}
		if l.CreatedBy != requestedBy {
			return fmt.Errorf("%w: list %q was created by someone else", ErrNotAuthorized, l.Name)
		}
		s.snap[guildID] = append(lists[:i], lists[i+1:]...)
		if len(s.snap[guildID]) == 0 {
			delete(s.snap, guildID)
		}
		s.sched.MarkDirty()
		return nil
	}
	return fmt.Errorf("%w: %q", ErrListNotFound, listName)
}
