package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/alimasry/roadmap-planner/roadmap"
	"github.com/alimasry/roadmap-planner/store"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandlerOptions configures optional routes.
type HandlerOptions struct {
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
	// StaticDir is served at / when set.
	StaticDir string
}

// NewHandler creates the HTTP handler with all routes.
func NewHandler(hub *Hub, opts HandlerOptions) http.Handler {
	r := chi.NewRouter()

	// WebSocket endpoint.
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			hub.logger.Warn("websocket upgrade error", "error", err)
			return
		}
		go newClient(hub, conn).serve()
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/roadmaps", hub.handleList)
		r.Get("/roadmaps/{id}", hub.handleGet)
		r.Get("/roadmaps/{id}/history", hub.handleHistory)
		r.Get("/templates/{topic}", handleTemplate)
	})

	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	// Serve static files.
	if opts.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(opts.StaticDir)))
	}

	return r
}

type roadmapResponse struct {
	ID        string          `json:"id"`
	Roadmap   roadmap.Roadmap `json:"roadmap"`
	Version   int             `json:"version"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func toResponse(rec store.Record) roadmapResponse {
	return roadmapResponse{
		ID:        rec.ID,
		Roadmap:   rec.Roadmap,
		Version:   rec.Version,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}

func (h *Hub) handleList(w http.ResponseWriter, r *http.Request) {
	recs, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("list roadmaps failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list roadmaps")
		return
	}
	out := make([]roadmapResponse, len(recs))
	for i, rec := range recs {
		out[i] = toResponse(rec)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Hub) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := h.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("get roadmap failed", "doc", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load roadmap")
		return
	}
	writeJSON(w, http.StatusOK, toResponse(*rec))
}

func (h *Hub) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s := h.GetSession(id)
	if s == nil {
		writeError(w, http.StatusNotFound, "no active session for "+id)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	info, err := s.History(ctx)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func handleTemplate(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, roadmap.Template(chi.URLParam(r, "topic")))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
