package history

import "github.com/alimasry/roadmap-planner/roadmap"

// DefaultCapacity is the number of snapshots kept when no capacity is set.
const DefaultCapacity = 20

// Observer is notified of every history transition.
type Observer interface {
	Added()
	Evicted()
	Discarded(n int)
	Undone()
	Redone()
	Cleared()
}

// Option configures a Manager.
type Option func(*options)

type options struct {
	capacity int
	observer Observer
}

// WithCapacity sets the maximum number of snapshots. Values below 1 fall
// back to DefaultCapacity.
func WithCapacity(n int) Option {
	return func(o *options) { o.capacity = n }
}

// WithObserver attaches an observer for transition events.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// Manager is a capacity-bounded snapshot timeline with a cursor.
type Manager[T any] struct {
	codec    Codec[T]
	observer Observer
	capacity int

	states []T
	cursor int // -1 when states is empty
}

// New creates an empty Manager that isolates snapshots with codec.
func New[T any](codec Codec[T], opts ...Option) *Manager[T] {
	o := options{capacity: DefaultCapacity}
	for _, opt := range opts {
		opt(&o)
	}
	if o.capacity < 1 {
		o.capacity = DefaultCapacity
	}
	if o.observer == nil {
		o.observer = nopObserver{}
	}
	return &Manager[T]{
		codec:    codec,
		observer: o.observer,
		capacity: o.capacity,
		states:   make([]T, 0, o.capacity+1),
		cursor:   -1,
	}
}

// NewRoadmapManager creates a Manager for roadmap documents.
func NewRoadmapManager(opts ...Option) *Manager[roadmap.Roadmap] {
	return New[roadmap.Roadmap](RoadmapCodec{}, opts...)
}

// AddState records doc as the newest snapshot. Any redo branch beyond the
// cursor is dropped first, then the oldest snapshot is evicted if the
// timeline is over capacity. The cursor ends on the new snapshot.
func (m *Manager[T]) AddState(doc T) {
	snap := m.codec.Copy(doc)

	if future := len(m.states) - 1 - m.cursor; future > 0 {
		var zero T
		for i := m.cursor + 1; i < len(m.states); i++ {
			m.states[i] = zero
		}
		m.states = m.states[:m.cursor+1]
		m.observer.Discarded(future)
	}

	m.states = append(m.states, snap)
	if len(m.states) > m.capacity {
		// Shift in place so the backing array never grows past capacity+1.
		copy(m.states, m.states[1:])
		var zero T
		m.states[len(m.states)-1] = zero
		m.states = m.states[:len(m.states)-1]
		m.observer.Evicted()
	}
	m.cursor = len(m.states) - 1
	m.observer.Added()
}

// Undo moves the cursor back one step and returns a copy of the snapshot
// now under it. When there is nothing to undo it returns the zero value and
// false, and the timeline is left untouched.
func (m *Manager[T]) Undo() (T, bool) {
	if !m.CanUndo() {
		var zero T
		return zero, false
	}
	m.cursor--
	m.observer.Undone()
	return m.codec.Copy(m.states[m.cursor]), true
}

// Redo moves the cursor forward one step and returns a copy of the
// snapshot now under it. When there is nothing to redo it returns the zero
// value and false, and the timeline is left untouched.
func (m *Manager[T]) Redo() (T, bool) {
	if !m.CanRedo() {
		var zero T
		return zero, false
	}
	m.cursor++
	m.observer.Redone()
	return m.codec.Copy(m.states[m.cursor]), true
}

// Clear empties the timeline.
func (m *Manager[T]) Clear() {
	clear(m.states)
	m.states = m.states[:0]
	m.cursor = -1
	m.observer.Cleared()
}

// CanUndo reports whether a snapshot exists before the cursor.
func (m *Manager[T]) CanUndo() bool { return m.cursor > 0 }

// CanRedo reports whether a snapshot exists after the cursor.
func (m *Manager[T]) CanRedo() bool { return m.cursor < len(m.states)-1 }

// Current returns a copy of the snapshot under the cursor.
func (m *Manager[T]) Current() (T, bool) {
	if m.cursor < 0 {
		var zero T
		return zero, false
	}
	return m.codec.Copy(m.states[m.cursor]), true
}

// Len returns the number of stored snapshots.
func (m *Manager[T]) Len() int { return len(m.states) }

// Cursor returns the index of the active snapshot, or -1 when empty.
func (m *Manager[T]) Cursor() int { return m.cursor }

// Capacity returns the maximum number of snapshots kept.
func (m *Manager[T]) Capacity() int { return m.capacity }

type nopObserver struct{}

func (nopObserver) Added()        {}
func (nopObserver) Evicted()      {}
func (nopObserver) Discarded(int) {}
func (nopObserver) Undone()       {}
func (nopObserver) Redone()       {}
func (nopObserver) Cleared()      {}
