package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/alimasry/roadmap-planner/roadmap"
)

// MemoryStore is an in-memory implementation of RoadmapStore.
// Stored and returned roadmaps are copies.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]*Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]*Record)}
}

func (s *MemoryStore) Create(_ context.Context, id string, doc roadmap.Roadmap) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.docs[id]; exists {
		return fmt.Errorf("roadmap %q: %w", id, ErrExists)
	}
	now := time.Now()
	s.docs[id] = &Record{
		ID:        id,
		Roadmap:   doc.Clone(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("roadmap %q: %w", id, ErrNotFound)
	}
	out := *rec
	out.Roadmap = rec.Roadmap.Clone()
	return &out, nil
}

func (s *MemoryStore) List(_ context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Record, 0, len(s.docs))
	for _, rec := range s.docs {
		out := *rec
		out.Roadmap = rec.Roadmap.Clone()
		result = append(result, out)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *MemoryStore) Update(_ context.Context, id string, doc roadmap.Roadmap, version int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.docs[id]
	if !ok {
		return fmt.Errorf("roadmap %q: %w", id, ErrNotFound)
	}
	rec.Roadmap = doc.Clone()
	rec.Version = version
	rec.UpdatedAt = time.Now()
	return nil
}

// put inserts rec unless the id is already present. Used by CachedStore to fill
// the cache from a backing store.
func (s *MemoryStore) put(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.docs[rec.ID]; exists {
		return
	}
	rec.Roadmap = rec.Roadmap.Clone()
	s.docs[rec.ID] = &rec
}
