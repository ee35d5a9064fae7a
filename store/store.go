package store

import (
	"context"
	"errors"
	"time"

	"github.com/alimasry/roadmap-planner/roadmap"
)

var (
	ErrNotFound = errors.New("roadmap not found")
	ErrExists   = errors.New("roadmap already exists")
)

// Record holds a roadmap's live content and metadata. Undo history is
// never part of a record.
type Record struct {
	ID        string
	Roadmap   roadmap.Roadmap
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RoadmapStore abstracts persistence of the live roadmap document.
// Implementations: MemoryStore, CachedStore, SQLiteStore, FirestoreStore.
type RoadmapStore interface {
	Create(ctx context.Context, id string, doc roadmap.Roadmap) error
	Get(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context) ([]Record, error)
	Update(ctx context.Context, id string, doc roadmap.Roadmap, version int) error
}
