package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/alimasry/roadmap-planner/roadmap"
)

func sampleRoadmap() roadmap.Roadmap {
	return roadmap.Template("fastapi")
}

// runStoreSuite exercises the RoadmapStore contract. idPrefix keeps ids
// unique for shared backends.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) RoadmapStore, idPrefix string) {
	ctx := context.Background()
	id := func(name string) string { return idPrefix + name }

	t.Run("CreateAndGet", func(t *testing.T) {
		s := newStore(t)
		doc := sampleRoadmap()
		if err := s.Create(ctx, id("doc1"), doc); err != nil {
			t.Fatal(err)
		}
		rec, err := s.Get(ctx, id("doc1"))
		if err != nil {
			t.Fatal(err)
		}
		if rec.ID != id("doc1") || rec.Version != 0 || !rec.Roadmap.Equal(doc) {
			t.Errorf("unexpected record: %+v", rec)
		}
	})

	t.Run("CreateDuplicate", func(t *testing.T) {
		s := newStore(t)
		s.Create(ctx, id("dup"), roadmap.Roadmap{})
		err := s.Create(ctx, id("dup"), roadmap.Roadmap{})
		if !errors.Is(err, ErrExists) {
			t.Errorf("err = %v, want ErrExists", err)
		}
	})

	t.Run("GetNotFound", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, id("nope"))
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("Update", func(t *testing.T) {
		s := newStore(t)
		s.Create(ctx, id("upd"), sampleRoadmap())
		next := roadmap.Refine(sampleRoadmap())
		if err := s.Update(ctx, id("upd"), next, 3); err != nil {
			t.Fatal(err)
		}
		rec, err := s.Get(ctx, id("upd"))
		if err != nil {
			t.Fatal(err)
		}
		if rec.Version != 3 || !rec.Roadmap.Equal(next) {
			t.Errorf("unexpected: version=%d roadmap=%v", rec.Version, rec.Roadmap)
		}
	})

	t.Run("UpdateNotFound", func(t *testing.T) {
		s := newStore(t)
		err := s.Update(ctx, id("missing"), roadmap.Roadmap{}, 1)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		s := newStore(t)
		ids := make([]string, 3)
		for i := range ids {
			ids[i] = id(fmt.Sprintf("list-%d", i))
			s.Create(ctx, ids[i], sampleRoadmap())
		}
		recs, err := s.List(ctx)
		if err != nil {
			t.Fatal(err)
		}
		found := 0
		for _, r := range recs {
			for _, want := range ids {
				if r.ID == want {
					found++
				}
			}
		}
		if found != 3 {
			t.Errorf("found %d of our 3 roadmaps in list", found)
		}
	})
}
