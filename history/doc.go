// Package history keeps a bounded, linear undo/redo timeline of document
// snapshots.
//
// A Manager holds at most Capacity snapshots and a cursor pointing at the
// active one:
//
//	h := history.NewRoadmapManager()
//	h.AddState(doc)            // after every committed edit
//	if prev, ok := h.Undo(); ok {
//		doc = prev
//	}
//
// Every snapshot is copied on the way in and on the way out, so neither the
// caller's live document nor a returned snapshot ever aliases stored
// history. Adding a state after an undo discards the whole redo branch.
// When the timeline is full the oldest snapshot is evicted.
//
// A Manager is not safe for concurrent use; it belongs to exactly one
// editing session, which serialises access to it.
package history
