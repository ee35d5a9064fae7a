package store

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/alimasry/roadmap-planner/roadmap"
)

// dirtyState tracks what needs flushing for a single roadmap.
type dirtyState struct {
	contentDirty bool // content/version needs writing to backing store
	created      bool // created locally but not yet in backing store
	seq          uint64
}

// CachedStore wraps a backing RoadmapStore with an in-memory cache.
// All reads and writes are served from the cache. Dirty roadmaps are
// flushed to the backing store periodically in the background.
type CachedStore struct {
	cache         *MemoryStore
	backing       RoadmapStore
	logger        *slog.Logger
	mu            sync.Mutex
	dirty         map[string]*dirtyState
	seq           uint64
	flushInterval time.Duration
	stop          chan struct{}
	done          chan struct{}
}

// NewCachedStore creates a CachedStore that caches in memory and flushes
// dirty roadmaps to the backing store every flushInterval.
func NewCachedStore(backing RoadmapStore, flushInterval time.Duration, logger *slog.Logger) *CachedStore {
	if logger == nil {
		logger = slog.Default()
	}
	cs := &CachedStore{
		cache:         NewMemoryStore(),
		backing:       backing,
		logger:        logger,
		dirty:         make(map[string]*dirtyState),
		flushInterval: flushInterval,
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	go cs.flushLoop()
	return cs
}

func (cs *CachedStore) Create(ctx context.Context, id string, doc roadmap.Roadmap) error {
	if _, err := cs.backing.Get(ctx, id); err == nil {
		return fmt.Errorf("roadmap %q: %w", id, ErrExists)
	}
	if err := cs.cache.Create(ctx, id, doc); err != nil {
		return err
	}
	cs.markDirty(id, true)
	return nil
}

func (cs *CachedStore) Get(ctx context.Context, id string) (*Record, error) {
	rec, err := cs.cache.Get(ctx, id)
	if err == nil {
		return rec, nil
	}
	// Cache miss, load from backing store.
	rec, err = cs.backing.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	cs.cache.put(*rec)
	return cs.cache.Get(ctx, id)
}

// List merges the backing store's roadmaps with cached ones that may not
// have been flushed yet. Cached records win.
func (cs *CachedStore) List(ctx context.Context) ([]Record, error) {
	persisted, err := cs.backing.List(ctx)
	if err != nil {
		return nil, err
	}
	cached, _ := cs.cache.List(ctx)

	byID := make(map[string]Record, len(persisted)+len(cached))
	for _, r := range persisted {
		byID[r.ID] = r
	}
	for _, r := range cached {
		byID[r.ID] = r
	}
	result := make([]Record, 0, len(byID))
	for _, r := range byID {
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (cs *CachedStore) Update(ctx context.Context, id string, doc roadmap.Roadmap, version int) error {
	// Ensure roadmap is in cache.
	if _, err := cs.Get(ctx, id); err != nil {
		return err
	}
	if err := cs.cache.Update(ctx, id, doc, version); err != nil {
		return err
	}
	cs.markDirty(id, false)
	return nil
}

func (cs *CachedStore) markDirty(id string, created bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.seq++
	ds := cs.dirty[id]
	if ds == nil {
		ds = &dirtyState{}
		cs.dirty[id] = ds
	}
	ds.contentDirty = true
	ds.created = ds.created || created
	ds.seq = cs.seq
}

func (cs *CachedStore) flushLoop() {
	ticker := time.NewTicker(cs.flushInterval)
	defer ticker.Stop()
	defer close(cs.done)

	for {
		select {
		case <-ticker.C:
			cs.flush()
		case <-cs.stop:
			cs.flush()
			return
		}
	}
}

// flush writes all dirty roadmaps to the backing store.
func (cs *CachedStore) flush() {
	cs.mu.Lock()
	// Snapshot the dirty map and work on a copy.
	snapshot := make(map[string]dirtyState, len(cs.dirty))
	for id, ds := range cs.dirty {
		snapshot[id] = *ds
	}
	cs.mu.Unlock()

	ctx := context.Background()

	for id, ds := range snapshot {
		rec, err := cs.cache.Get(ctx, id)
		if err != nil {
			continue
		}

		if ds.created {
			if err := cs.backing.Create(ctx, id, rec.Roadmap); err != nil {
				cs.logger.Error("cached store: create in backing store failed", "doc", id, "error", err)
				continue
			}
			if rec.Version != 0 {
				if err := cs.backing.Update(ctx, id, rec.Roadmap, rec.Version); err != nil {
					cs.logger.Error("cached store: flush failed", "doc", id, "error", err)
					cs.clearCreated(id)
					continue
				}
			}
		} else if ds.contentDirty {
			if err := cs.backing.Update(ctx, id, rec.Roadmap, rec.Version); err != nil {
				cs.logger.Error("cached store: flush failed", "doc", id, "error", err)
				continue
			}
		}

		// Only clear the entry if no new writes happened since the snapshot.
		cs.mu.Lock()
		if cur := cs.dirty[id]; cur != nil {
			if cur.seq == ds.seq {
				delete(cs.dirty, id)
			} else {
				cur.created = false
			}
		}
		cs.mu.Unlock()
		cs.logger.Debug("cached store: flushed", "doc", id, "version", rec.Version)
	}
}

func (cs *CachedStore) clearCreated(id string) {
	cs.mu.Lock()
	if cur := cs.dirty[id]; cur != nil {
		cur.created = false
	}
	cs.mu.Unlock()
}

// Close signals the flush loop to perform a final flush and waits for it
// to complete.
func (cs *CachedStore) Close() {
	close(cs.stop)
	<-cs.done
}
