package server

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/alimasry/roadmap-planner/history"
	"github.com/alimasry/roadmap-planner/roadmap"
	"github.com/alimasry/roadmap-planner/store"
)

type joinRequest struct {
	client *Client
	docID  string
	topic  string
}

// HubOptions configures a Hub. Zero values select defaults.
type HubOptions struct {
	HistoryCapacity int
	Observer        history.Observer
	Logger          *slog.Logger
}

// Hub manages roadmap sessions and routes clients to the right session.
type Hub struct {
	store    store.RoadmapStore
	mutator  roadmap.Mutator
	opts     HubOptions
	logger   *slog.Logger
	sessions map[string]*Session
	mu       sync.RWMutex

	joinDoc chan joinRequest
	stop    chan struct{}
	once    sync.Once
}

func NewHub(st store.RoadmapStore, mutator roadmap.Mutator, opts HubOptions) *Hub {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		store:    st,
		mutator:  mutator,
		opts:     opts,
		logger:   logger,
		sessions: make(map[string]*Session),
		joinDoc:  make(chan joinRequest, 64),
		stop:     make(chan struct{}),
	}
}

// Run is the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case req := <-h.joinDoc:
			h.handleJoinDoc(req)
		case <-h.stop:
			return
		}
	}
}

// Close stops the hub loop and every active session.
func (h *Hub) Close() {
	h.once.Do(func() {
		close(h.stop)
		h.mu.Lock()
		defer h.mu.Unlock()
		for id, s := range h.sessions {
			close(s.stop)
			delete(h.sessions, id)
		}
	})
}

func (h *Hub) newHistory() *history.Manager[roadmap.Roadmap] {
	opts := []history.Option{history.WithCapacity(h.opts.HistoryCapacity)}
	if h.opts.Observer != nil {
		opts = append(opts, history.WithObserver(h.opts.Observer))
	}
	return history.NewRoadmapManager(opts...)
}

// load fetches a roadmap, creating it when missing. A topic seeds the new
// roadmap from the matching template.
func (h *Hub) load(ctx context.Context, docID, topic string) (*store.Record, error) {
	rec, err := h.store.Get(ctx, docID)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	doc := roadmap.Roadmap{Topics: []roadmap.Topic{}}
	if topic != "" {
		doc = roadmap.Template(topic)
	}
	if err := h.store.Create(ctx, docID, doc); err != nil && !errors.Is(err, store.ErrExists) {
		return nil, err
	}
	return h.store.Get(ctx, docID)
}

func (h *Hub) handleJoinDoc(req joinRequest) {
	if req.docID == "" {
		req.client.sendError("join requires a docId")
		return
	}

	s, err := h.session(req.docID, req.topic)
	if err != nil {
		h.logger.Error("hub: failed to load roadmap", "doc", req.docID, "error", err)
		req.client.sendError("failed to load roadmap")
		return
	}

	// A client edits one roadmap at a time.
	if prev := req.client.retarget(s); prev != nil && prev != s {
		prev.detach(req.client)
	}
	if !s.attach(req.client) {
		req.client.sendError(errShuttingDown.Error())
	}
}

// session returns the running session for docID, starting one if needed.
// The store is read without holding mu so lookups are not held up by a
// slow backend.
func (h *Hub) session(docID, topic string) (*Session, error) {
	if s := h.GetSession(docID); s != nil {
		return s, nil
	}
	rec, err := h.load(context.Background(), docID, topic)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.sessions[docID]; ok {
		return s, nil
	}
	select {
	case <-h.stop:
		return nil, errShuttingDown
	default:
	}
	s := newSession(rec, h.newHistory(), h.mutator, h.store, h.logger)
	h.sessions[docID] = s
	go s.Run()
	h.logger.Info("hub: session started", "doc", docID, "version", rec.Version)
	return s, nil
}

// GetSession returns the session for a roadmap, if active.
func (h *Hub) GetSession(docID string) *Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sessions[docID]
}

// Store returns the store backing the hub's sessions.
func (h *Hub) Store() store.RoadmapStore {
	return h.store
}
