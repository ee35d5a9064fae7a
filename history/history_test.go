package history

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alimasry/roadmap-planner/roadmap"
)

func doc(names ...string) roadmap.Roadmap {
	r := roadmap.Roadmap{Topics: []roadmap.Topic{}}
	for _, n := range names {
		r.Topics = append(r.Topics, roadmap.Topic{
			ID:        n,
			Name:      n,
			Subtopics: []roadmap.Subtopic{{ID: n + ".1", Name: n + " basics"}},
		})
	}
	return r
}

func numbered(i int) roadmap.Roadmap { return doc(fmt.Sprintf("T%d", i)) }

func assertState(t *testing.T, m *Manager[roadmap.Roadmap], length, cursor int) {
	t.Helper()
	assert.Equal(t, length, m.Len(), "len")
	assert.Equal(t, cursor, m.Cursor(), "cursor")
	assert.Equal(t, cursor > 0, m.CanUndo(), "canUndo")
	assert.Equal(t, cursor < length-1, m.CanRedo(), "canRedo")
}

func TestManager_Empty(t *testing.T) {
	m := NewRoadmapManager()
	assertState(t, m, 0, -1)
	assert.Equal(t, DefaultCapacity, m.Capacity())

	_, ok := m.Current()
	assert.False(t, ok)
}

func TestManager_FirstAdd(t *testing.T) {
	m := NewRoadmapManager()
	m.AddState(doc("A"))
	assertState(t, m, 1, 0)

	cur, ok := m.Current()
	require.True(t, ok)
	assert.True(t, cur.Equal(doc("A")))
}

func TestManager_UndoRedoScenario(t *testing.T) {
	m := NewRoadmapManager()
	m.AddState(doc("A"))
	m.AddState(doc("A", "B"))
	m.AddState(doc("A", "B", "C"))
	assertState(t, m, 3, 2)

	got, ok := m.Undo()
	require.True(t, ok)
	assert.True(t, got.Equal(doc("A", "B")))

	got, ok = m.Undo()
	require.True(t, ok)
	assert.True(t, got.Equal(doc("A")))
	assert.False(t, m.CanUndo())

	got, ok = m.Redo()
	require.True(t, ok)
	assert.True(t, got.Equal(doc("A", "B")))
	assertState(t, m, 3, 1)
}

func TestManager_UndoRedoAreInverses(t *testing.T) {
	m := NewRoadmapManager()
	s0, s1, s2 := numbered(0), numbered(1), numbered(2)
	m.AddState(s0)
	m.AddState(s1)
	m.AddState(s2)

	got, ok := m.Undo()
	require.True(t, ok)
	assert.True(t, got.Equal(s1))
	assertState(t, m, 3, 1)

	got, ok = m.Redo()
	require.True(t, ok)
	assert.True(t, got.Equal(s2))
	assertState(t, m, 3, 2)
}

func TestManager_AddAfterUndoDiscardsRedoBranch(t *testing.T) {
	m := NewRoadmapManager()
	s0, s1, s2, s3 := numbered(0), numbered(1), numbered(2), numbered(3)
	m.AddState(s0)
	m.AddState(s1)
	m.AddState(s2)

	_, ok := m.Undo()
	require.True(t, ok)
	m.AddState(s3)
	assertState(t, m, 3, 2)
	assert.False(t, m.CanRedo())

	// S2 is gone: walking back yields S1 then S0, never S2.
	got, _ := m.Undo()
	assert.True(t, got.Equal(s1))
	got, _ = m.Redo()
	assert.True(t, got.Equal(s3))
	_, ok = m.Redo()
	assert.False(t, ok)
}

func TestManager_AddAfterMultipleUndosDiscardsWholeSuffix(t *testing.T) {
	m := NewRoadmapManager()
	for i := 0; i < 6; i++ {
		m.AddState(numbered(i))
	}
	for i := 0; i < 4; i++ {
		_, ok := m.Undo()
		require.True(t, ok)
	}
	assertState(t, m, 6, 1)

	m.AddState(numbered(99))
	assertState(t, m, 3, 2)

	cur, _ := m.Current()
	assert.True(t, cur.Equal(numbered(99)))
	prev, _ := m.Undo()
	assert.True(t, prev.Equal(numbered(1)))
}

func TestManager_CapacityEviction(t *testing.T) {
	for _, k := range []int{1, 5, 20, 37} {
		t.Run(fmt.Sprintf("over by %d", k), func(t *testing.T) {
			m := NewRoadmapManager()
			total := DefaultCapacity + k
			for i := 0; i < total; i++ {
				m.AddState(numbered(i))
			}
			assertState(t, m, DefaultCapacity, DefaultCapacity-1)

			var oldest roadmap.Roadmap
			undos := 0
			for {
				got, ok := m.Undo()
				if !ok {
					break
				}
				oldest = got
				undos++
			}
			assert.Equal(t, DefaultCapacity-1, undos)
			assert.True(t, oldest.Equal(numbered(k)), "oldest reachable is the first survivor")
			assertState(t, m, DefaultCapacity, 0)
		})
	}
}

func TestManager_EvictionAfterUndoKeepsCursorArithmetic(t *testing.T) {
	m := NewRoadmapManager(WithCapacity(3))
	for i := 0; i < 3; i++ {
		m.AddState(numbered(i))
	}
	_, _ = m.Undo()
	m.AddState(numbered(10)) // discards T2, no eviction needed
	assertState(t, m, 3, 2)

	m.AddState(numbered(11)) // evicts T0
	assertState(t, m, 3, 2)

	got, _ := m.Undo()
	assert.True(t, got.Equal(numbered(10)))
	got, _ = m.Undo()
	assert.True(t, got.Equal(numbered(1)))
	_, ok := m.Undo()
	assert.False(t, ok)
}

func TestManager_WithCapacity(t *testing.T) {
	assert.Equal(t, 5, NewRoadmapManager(WithCapacity(5)).Capacity())
	assert.Equal(t, DefaultCapacity, NewRoadmapManager(WithCapacity(0)).Capacity())
	assert.Equal(t, DefaultCapacity, NewRoadmapManager(WithCapacity(-3)).Capacity())

	m := NewRoadmapManager(WithCapacity(1))
	m.AddState(doc("A"))
	m.AddState(doc("B"))
	assertState(t, m, 1, 0)
	cur, _ := m.Current()
	assert.True(t, cur.Equal(doc("B")))
}

func TestManager_InvalidTransitionsAreNoops(t *testing.T) {
	m := NewRoadmapManager()

	got, ok := m.Undo()
	assert.False(t, ok)
	assert.Nil(t, got.Topics)
	_, ok = m.Redo()
	assert.False(t, ok)
	assertState(t, m, 0, -1)

	m.AddState(doc("A"))
	m.AddState(doc("B"))
	_, ok = m.Redo()
	assert.False(t, ok)
	assertState(t, m, 2, 1)

	_, _ = m.Undo()
	_, ok = m.Undo()
	assert.False(t, ok)
	assertState(t, m, 2, 0)
}

func TestManager_Clear(t *testing.T) {
	m := NewRoadmapManager()
	m.AddState(doc("A"))
	m.AddState(doc("B"))
	m.AddState(doc("C"))
	_, _ = m.Undo()

	m.Clear()
	assertState(t, m, 0, -1)
	assert.False(t, m.CanUndo())
	assert.False(t, m.CanRedo())

	m.AddState(doc("D"))
	assertState(t, m, 1, 0)

	m.Clear()
	m.Clear()
	assertState(t, m, 0, -1)
}

func TestManager_SnapshotIsolatedFromCaller(t *testing.T) {
	m := NewRoadmapManager()
	live := doc("A", "B")
	m.AddState(live)

	live.Topics[0].Name = "mutated"
	live.Topics[1].Subtopics[0].Name = "mutated"
	live.Topics = append(live.Topics, roadmap.Topic{ID: "X", Name: "X"})
	m.AddState(live)

	got, ok := m.Undo()
	require.True(t, ok)
	assert.True(t, got.Equal(doc("A", "B")))
}

func TestManager_ReturnedSnapshotIsolatedFromHistory(t *testing.T) {
	m := NewRoadmapManager()
	m.AddState(doc("A"))
	m.AddState(doc("A", "B"))

	got, _ := m.Undo()
	got.Topics[0].Name = "mutated"
	got.Topics[0].Subtopics[0].Name = "mutated"

	again, _ := m.Current()
	assert.True(t, again.Equal(doc("A")))

	redone, _ := m.Redo()
	redone.Topics = nil
	back, _ := m.Undo()
	assert.True(t, back.Equal(doc("A")))
	fwd, _ := m.Redo()
	assert.True(t, fwd.Equal(doc("A", "B")))
}

func TestManager_AddThenUndoReturnsPriorState(t *testing.T) {
	m := NewRoadmapManager()
	mutator := &roadmap.TreeMutator{}

	live := doc("A")
	m.AddState(live)
	prior := live.Clone()

	next, err := mutator.Apply(live, roadmap.NewAddTopic("B"))
	require.NoError(t, err)
	m.AddState(next)
	live = next

	got, ok := m.Undo()
	require.True(t, ok)
	assert.True(t, got.Equal(prior))

	live.Topics[0].Name = "edited after undo"
	cur, _ := m.Current()
	assert.True(t, cur.Equal(prior))
}

func TestJSONCodec(t *testing.T) {
	type note struct {
		Tags map[string][]string `json:"tags"`
	}
	m := New[note](JSONCodec[note]{})
	live := note{Tags: map[string][]string{"go": {"a"}}}
	m.AddState(live)
	live.Tags["go"][0] = "mutated"
	live.Tags["new"] = nil
	m.AddState(live)

	got, ok := m.Undo()
	require.True(t, ok)
	assert.Equal(t, map[string][]string{"go": {"a"}}, got.Tags)
}

func TestJSONCodec_PanicsOnNonCopyable(t *testing.T) {
	m := New[chan int](JSONCodec[chan int]{})
	assert.Panics(t, func() { m.AddState(make(chan int)) })
	assert.Equal(t, 0, m.Len())
}

func TestCodecFunc(t *testing.T) {
	calls := 0
	m := New[[]int](CodecFunc[[]int](func(s []int) []int {
		calls++
		return append([]int(nil), s...)
	}))
	m.AddState([]int{1})
	m.AddState([]int{1, 2})
	got, _ := m.Undo()
	assert.Equal(t, []int{1}, got)
	assert.Equal(t, 3, calls)
}

type recorder struct {
	added, evicted, discarded, undone, redone, cleared int
}

func (r *recorder) Added()          { r.added++ }
func (r *recorder) Evicted()        { r.evicted++ }
func (r *recorder) Discarded(n int) { r.discarded += n }
func (r *recorder) Undone()         { r.undone++ }
func (r *recorder) Redone()         { r.redone++ }
func (r *recorder) Cleared()        { r.cleared++ }

func TestManager_Observer(t *testing.T) {
	rec := &recorder{}
	m := NewRoadmapManager(WithCapacity(2), WithObserver(rec))

	m.AddState(numbered(0))
	m.AddState(numbered(1))
	m.AddState(numbered(2)) // evict
	_, _ = m.Undo()
	_, _ = m.Undo() // no-op
	_, _ = m.Redo()
	_, _ = m.Undo()
	m.AddState(numbered(3)) // discards one
	m.Clear()

	assert.Equal(t, recorder{added: 4, evicted: 1, discarded: 1, undone: 2, redone: 1, cleared: 1}, *rec)
}

func TestPromObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := NewPromObserver(reg)
	m := NewRoadmapManager(WithCapacity(2), WithObserver(obs))

	m.AddState(numbered(0))
	m.AddState(numbered(1))
	m.AddState(numbered(2))
	_, _ = m.Undo()
	m.AddState(numbered(3))

	assert.Equal(t, 4.0, testutil.ToFloat64(obs.transitions.WithLabelValues("add")))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.transitions.WithLabelValues("undo")))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.evicted))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.discarded))
}
