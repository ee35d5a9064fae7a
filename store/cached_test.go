package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alimasry/roadmap-planner/roadmap"
)

func TestCachedStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) RoadmapStore {
		cs := NewCachedStore(NewMemoryStore(), time.Hour, nil)
		t.Cleanup(cs.Close)
		return cs
	}, "")
}

func TestCachedStore_ReadThrough(t *testing.T) {
	backing := NewMemoryStore()
	ctx := context.Background()

	// Pre-populate backing store.
	if err := backing.Create(ctx, "doc1", sampleRoadmap()); err != nil {
		t.Fatal(err)
	}
	if err := backing.Update(ctx, "doc1", roadmap.Refine(sampleRoadmap()), 1); err != nil {
		t.Fatal(err)
	}

	cs := NewCachedStore(backing, time.Hour, nil) // long interval, no auto flush
	defer cs.Close()

	// Get should load from backing.
	rec, err := cs.Get(ctx, "doc1")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Version != 1 || !rec.Roadmap.Equal(roadmap.Refine(sampleRoadmap())) {
		t.Errorf("unexpected record: %+v", rec)
	}

	// Creating over a persisted roadmap must fail even on a cold cache.
	cold := NewCachedStore(backing, time.Hour, nil)
	defer cold.Close()
	if err := cold.Create(ctx, "doc1", roadmap.Roadmap{}); !errors.Is(err, ErrExists) {
		t.Errorf("err = %v, want ErrExists", err)
	}
}

func TestCachedStore_WriteBehind(t *testing.T) {
	backing := NewMemoryStore()
	ctx := context.Background()

	cs := NewCachedStore(backing, 50*time.Millisecond, nil)
	defer cs.Close()

	// Create roadmap in cache.
	if err := cs.Create(ctx, "doc1", sampleRoadmap()); err != nil {
		t.Fatal(err)
	}

	// Backing should NOT have it yet.
	if _, err := backing.Get(ctx, "doc1"); err == nil {
		t.Error("expected backing to not have roadmap yet")
	}

	// Wait for flush.
	time.Sleep(150 * time.Millisecond)

	// Now backing should have it.
	rec, err := backing.Get(ctx, "doc1")
	if err != nil {
		t.Fatal(err)
	}
	if rec.ID != "doc1" || !rec.Roadmap.Equal(sampleRoadmap()) {
		t.Errorf("unexpected record: %+v", rec)
	}
}

func TestCachedStore_RepeatedUpdatesFlushLatest(t *testing.T) {
	backing := NewMemoryStore()
	ctx := context.Background()

	cs := NewCachedStore(backing, 50*time.Millisecond, nil)
	defer cs.Close()

	if err := cs.Create(ctx, "doc1", roadmap.Roadmap{}); err != nil {
		t.Fatal(err)
	}
	time.Sleep(150 * time.Millisecond)

	m := &roadmap.TreeMutator{}
	doc := roadmap.Roadmap{}
	for v := 1; v <= 3; v++ {
		var err error
		doc, err = m.Apply(doc, roadmap.NewAddTopic("topic"))
		if err != nil {
			t.Fatal(err)
		}
		if err := cs.Update(ctx, "doc1", doc, v); err != nil {
			t.Fatal(err)
		}
	}

	time.Sleep(150 * time.Millisecond)

	rec, err := backing.Get(ctx, "doc1")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Version != 3 || len(rec.Roadmap.Topics) != 3 {
		t.Errorf("after flush: version=%d topics=%d", rec.Version, len(rec.Roadmap.Topics))
	}
}

func TestCachedStore_CloseFlushes(t *testing.T) {
	backing := NewMemoryStore()
	ctx := context.Background()

	cs := NewCachedStore(backing, time.Hour, nil) // very long interval

	if err := cs.Create(ctx, "doc1", sampleRoadmap()); err != nil {
		t.Fatal(err)
	}
	refined := roadmap.Refine(sampleRoadmap())
	if err := cs.Update(ctx, "doc1", refined, 1); err != nil {
		t.Fatal(err)
	}

	// Close triggers final flush.
	cs.Close()

	// Backing should have everything.
	rec, err := backing.Get(ctx, "doc1")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Version != 1 || !rec.Roadmap.Equal(refined) {
		t.Errorf("unexpected record: version=%d", rec.Version)
	}
}

func TestCachedStore_ListIncludesUnflushed(t *testing.T) {
	backing := NewMemoryStore()
	ctx := context.Background()
	backing.Create(ctx, "persisted", roadmap.Roadmap{})

	cs := NewCachedStore(backing, time.Hour, nil)
	defer cs.Close()
	cs.Create(ctx, "fresh", roadmap.Roadmap{})

	recs, err := cs.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 || recs[0].ID != "fresh" || recs[1].ID != "persisted" {
		t.Errorf("unexpected list: %+v", recs)
	}
}
