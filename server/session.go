package server

import (
	"context"
	"log/slog"

	"github.com/alimasry/roadmap-planner/history"
	"github.com/alimasry/roadmap-planner/roadmap"
	"github.com/alimasry/roadmap-planner/store"
)

type clientMessage struct {
	client *Client
	msg    ClientMessage
}

// membership is a join or leave. Both share one channel so a session sees
// them in the order they were sent.
type membership struct {
	client *Client
	join   bool
}

// Session manages editing of a single roadmap.
// All edits, undo/redo and history resets are serialized through a single
// goroutine, which is the only writer of doc and history.
type Session struct {
	docID   string
	doc     roadmap.Roadmap
	version int
	// unsaved is set while the live version has not reached the store.
	unsaved bool
	history *history.Manager[roadmap.Roadmap]
	mutator roadmap.Mutator
	store   store.RoadmapStore
	logger  *slog.Logger
	clients map[*Client]bool

	incoming chan clientMessage
	members  chan membership
	query    chan chan HistoryInfo
	stop     chan struct{}
}

func newSession(rec *store.Record, hist *history.Manager[roadmap.Roadmap], mutator roadmap.Mutator, st store.RoadmapStore, logger *slog.Logger) *Session {
	s := &Session{
		docID:    rec.ID,
		doc:      rec.Roadmap.Clone(),
		version:  rec.Version,
		history:  hist,
		mutator:  mutator,
		store:    st,
		logger:   logger.With("doc", rec.ID),
		clients:  make(map[*Client]bool),
		incoming: make(chan clientMessage, 64),
		members:  make(chan membership, 32),
		query:    make(chan chan HistoryInfo),
		stop:     make(chan struct{}),
	}
	// The loaded document is the first state of the timeline.
	s.history.AddState(s.doc)
	return s
}

// Run is the session's main loop. It serializes all operations.
func (s *Session) Run() {
	for {
		select {
		case m := <-s.members:
			if m.join {
				s.handleJoin(m.client)
			} else {
				s.handleLeave(m.client)
			}
		case cm := <-s.incoming:
			s.handleMessage(cm)
		case reply := <-s.query:
			reply <- s.historyInfo()
		case <-s.stop:
			return
		}
	}
}

// enqueue hands a client message to the run loop. It reports false once the
// session has stopped.
func (s *Session) enqueue(cm clientMessage) bool {
	select {
	case s.incoming <- cm:
		return true
	case <-s.stop:
		return false
	}
}

// attach adds c to the session unless the session has stopped.
func (s *Session) attach(c *Client) bool {
	select {
	case s.members <- membership{client: c, join: true}:
		return true
	case <-s.stop:
		return false
	}
}

// detach removes c from the session. It never blocks on a stopped session.
func (s *Session) detach(c *Client) {
	select {
	case s.members <- membership{client: c}:
	case <-s.stop:
	}
}

// History reports the session's timeline state. It is answered by the run
// loop, so it never observes a half-applied change.
func (s *Session) History(ctx context.Context) (HistoryInfo, error) {
	reply := make(chan HistoryInfo, 1)
	select {
	case s.query <- reply:
	case <-ctx.Done():
		return HistoryInfo{}, ctx.Err()
	}
	select {
	case info := <-reply:
		return info, nil
	case <-ctx.Done():
		return HistoryInfo{}, ctx.Err()
	}
}

func (s *Session) historyInfo() HistoryInfo {
	return HistoryInfo{
		DocID:    s.docID,
		Version:  s.version,
		Length:   s.history.Len(),
		Cursor:   s.history.Cursor(),
		Capacity: s.history.Capacity(),
		CanUndo:  s.history.CanUndo(),
		CanRedo:  s.history.CanRedo(),
		Unsaved:  s.unsaved,
	}
}

func (s *Session) handleJoin(c *Client) {
	if !c.enter(s) {
		return
	}
	s.clients[c] = true

	// Send current roadmap state to the joining client.
	doc := s.doc.Clone()
	c.sendMsg(ServerMessage{
		Type:    MsgDoc,
		DocID:   s.docID,
		Roadmap: &doc,
		Version: s.version,
		CanUndo: s.history.CanUndo(),
		CanRedo: s.history.CanRedo(),
		Unsaved: s.unsaved,
		Clients: s.clientInfos(),
	})

	// Notify other clients about the new user.
	for other := range s.clients {
		if other != c {
			other.sendMsg(ServerMessage{
				Type:     MsgJoin,
				ClientID: c.ID,
				Name:     c.Name,
				Color:    c.Color,
			})
		}
	}
}

func (s *Session) handleLeave(c *Client) {
	if _, ok := s.clients[c]; !ok {
		return
	}
	delete(s.clients, c)
	// The client may already have moved on to another roadmap.
	c.exit(s)

	// Notify others.
	for other := range s.clients {
		other.sendMsg(ServerMessage{
			Type:     MsgLeave,
			ClientID: c.ID,
		})
	}
}

func (s *Session) handleMessage(cm clientMessage) {
	if !s.clients[cm.client] {
		// Queued before the client moved to another roadmap.
		cm.client.sendError("not joined to " + s.docID)
		return
	}
	switch cm.msg.Type {
	case MsgEdit:
		if cm.msg.Edit == nil {
			cm.client.sendError("edit message without edit")
			return
		}
		s.applyEdit(cm.client, *cm.msg.Edit)

	case MsgRegenerate:
		if cm.msg.Topic == "" {
			cm.client.sendError("regenerate requires a topic")
			return
		}
		s.applyEdit(cm.client, roadmap.NewReplace(roadmap.Template(cm.msg.Topic)))

	case MsgUndo:
		prev, ok := s.history.Undo()
		if !ok {
			s.sendNoop(cm.client, "nothing to undo")
			return
		}
		s.commit(cm.client, prev)

	case MsgRedo:
		next, ok := s.history.Redo()
		if !ok {
			s.sendNoop(cm.client, "nothing to redo")
			return
		}
		s.commit(cm.client, next)

	case MsgClear:
		// Restart the timeline from the live roadmap.
		s.history.Clear()
		s.history.AddState(s.doc)
		s.logger.Info("session: history cleared")
		s.broadcastState(cm.client)

	default:
		cm.client.sendError("unknown message type: " + cm.msg.Type)
	}
}

// applyEdit runs an edit through the mutator and records the result as a
// new history state.
func (s *Session) applyEdit(c *Client, e roadmap.Edit) {
	next, err := s.mutator.Apply(s.doc, e)
	if err != nil {
		s.logger.Warn("session: edit rejected", "kind", e.Kind, "error", err)
		c.sendError("edit rejected: " + err.Error())
		return
	}
	s.history.AddState(next)
	s.commit(c, next)
}

// commit makes doc the live roadmap, persists it, and tells every client.
// The version numbers live states, so it advances even when the store
// rejects the write; the broadcast is then flagged unsaved until a later
// commit (which writes the whole roadmap) succeeds.
func (s *Session) commit(from *Client, doc roadmap.Roadmap) {
	s.doc = doc
	s.version++

	err := s.store.Update(context.Background(), s.docID, s.doc, s.version)
	if err != nil {
		s.logger.Error("session: persist failed", "version", s.version, "error", err)
	}
	s.unsaved = err != nil
	s.broadcastState(from)
}

func (s *Session) broadcastState(from *Client) {
	fromID := ""
	if from != nil {
		fromID = from.ID
	}
	doc := s.doc.Clone()
	msg := ServerMessage{
		Type:     MsgState,
		DocID:    s.docID,
		Roadmap:  &doc,
		Version:  s.version,
		CanUndo:  s.history.CanUndo(),
		CanRedo:  s.history.CanRedo(),
		ClientID: fromID,
		Unsaved:  s.unsaved,
	}
	for c := range s.clients {
		c.sendMsg(msg)
	}
}

func (s *Session) sendNoop(c *Client, reason string) {
	c.sendMsg(ServerMessage{
		Type:    MsgNoop,
		DocID:   s.docID,
		Version: s.version,
		CanUndo: s.history.CanUndo(),
		CanRedo: s.history.CanRedo(),
		Message: reason,
	})
}

func (s *Session) clientInfos() []ClientInfo {
	infos := make([]ClientInfo, 0, len(s.clients))
	for c := range s.clients {
		infos = append(infos, c.Info())
	}
	return infos
}
