package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribebot/scribe/internal/storage"
	"github.com/scribebot/scribe/pkg/todo"
)

// flakyBackend is an in-memory Backend whose saves can be made to fail,
// for exercising the fallback chain without a real broken disk.
type flakyBackend struct {
	name string

	mu    sync.Mutex
	fail  bool
	saves int
	last  todo.Snapshot
}

func (f *flakyBackend) Name() string { return f.name }
func (f *flakyBackend) Close() error { return nil }

func (f *flakyBackend) Load(ctx context.Context) (todo.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.last == nil {
		return todo.Snapshot{}, nil
	}
	return f.last.Clone(), nil
}

func (f *flakyBackend) Save(ctx context.Context, snap todo.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return storage.ErrBackendUnavailable
	}
	f.saves++
	f.last = snap.Clone()
	return nil
}

func (f *flakyBackend) Status(ctx context.Context) (storage.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lists, items := f.last.Counts()
	return storage.Status{Backend: f.name, Exists: f.last != nil, Lists: lists, Items: items}, nil
}

func (f *flakyBackend) setFail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fail
}

func (f *flakyBackend) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

func emptySnapshot() todo.Snapshot { return todo.Snapshot{} }

func TestScheduler_CoalescesBursts(t *testing.T) {
	b := &flakyBackend{name: "fake"}
	sched := newScheduler(30*time.Millisecond, []storage.Backend{b}, emptySnapshot)

	// A burst of mutations within the interval produces a single save
	for i := 0; i < 20; i++ {
		sched.MarkDirty()
	}
	assert.True(t, sched.Dirty())

	require.Eventually(t, func() bool { return b.saveCount() == 1 },
		time.Second, 5*time.Millisecond)

	// No further saves without further mutations
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, b.saveCount())
	assert.False(t, sched.Dirty())
}

func TestScheduler_ForceSaveBypassesDebounce(t *testing.T) {
	b := &flakyBackend{name: "fake"}
	sched := newScheduler(time.Hour, []storage.Backend{b}, emptySnapshot)

	sched.MarkDirty()
	require.NoError(t, sched.ForceSave(context.Background()))

	// Saved immediately despite the hour-long interval
	assert.Equal(t, 1, b.saveCount())
	assert.False(t, sched.Dirty())

	// The pending timer was disarmed; no second save fires later
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, b.saveCount())
}

func TestScheduler_FallsBackOnFailure(t *testing.T) {
	primary := &flakyBackend{name: "primary", fail: true}
	secondary := &flakyBackend{name: "secondary"}
	sched := newScheduler(time.Hour, []storage.Backend{primary, secondary}, emptySnapshot)

	sched.MarkDirty()
	require.NoError(t, sched.ForceSave(context.Background()))

	assert.Equal(t, 0, primary.saveCount())
	assert.Equal(t, 1, secondary.saveCount())
}

func TestScheduler_ExhaustedAttempts(t *testing.T) {
	primary := &flakyBackend{name: "primary", fail: true}
	secondary := &flakyBackend{name: "secondary", fail: true}
	sched := newScheduler(time.Hour, []storage.Backend{primary, secondary}, emptySnapshot)

	sched.MarkDirty()
	err := sched.ForceSave(context.Background())
	require.Error(t, err)
	assert.True(t, storage.IsUnavailable(err))

	// A failed save leaves the state dirty for retry
	assert.True(t, sched.Dirty())

	// Once a backend recovers, the retry succeeds and the flag clears
	secondary.setFail(false)
	require.NoError(t, sched.ForceSave(context.Background()))
	assert.False(t, sched.Dirty())
	assert.Equal(t, 1, secondary.saveCount())
}

func TestScheduler_StopFlushesDirtyState(t *testing.T) {
	b := &flakyBackend{name: "fake"}
	sched := newScheduler(time.Hour, []storage.Backend{b}, emptySnapshot)

	sched.MarkDirty()
	require.NoError(t, sched.Stop(context.Background()))
	assert.Equal(t, 1, b.saveCount())

	// After Stop, mutations no longer arm the timer
	sched.MarkDirty()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, b.saveCount())
}

func TestScheduler_StopCleanIsNoop(t *testing.T) {
	b := &flakyBackend{name: "fake"}
	sched := newScheduler(time.Hour, []storage.Backend{b}, emptySnapshot)

	require.NoError(t, sched.Stop(context.Background()))
	assert.Equal(t, 0, b.saveCount())
}

func TestScheduler_SavesLatestState(t *testing.T) {
	// The flush snapshots state at save time: mutations after MarkDirty
	// but before the timer fires are included in the coalesced save
	var mu sync.Mutex
	items := 0
	snapshot := func() todo.Snapshot {
		mu.Lock()
		defer mu.Unlock()
		l := todo.NewList("G", "L", "alice")
		for i := 0; i < items; i++ {
			l.Items = append(l.Items, todo.NewItem("x", "alice"))
		}
		return todo.Snapshot{"G": {l}}
	}

	b := &flakyBackend{name: "fake"}
	sched := newScheduler(30*time.Millisecond, []storage.Backend{b}, snapshot)

	mu.Lock()
	items = 1
	mu.Unlock()
	sched.MarkDirty()

	mu.Lock()
	items = 3
	mu.Unlock()
	sched.MarkDirty()

	require.Eventually(t, func() bool { return b.saveCount() == 1 },
		time.Second, 5*time.Millisecond)

	_, saved := b.last.Counts()
	assert.Equal(t, 3, saved)
}
