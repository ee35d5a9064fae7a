package server

import (
	"encoding/json"

	"github.com/alimasry/roadmap-planner/roadmap"
)

// Message types exchanged over WebSocket.
const (
	MsgJoin       = "join"
	MsgLeave      = "leave"
	MsgEdit       = "edit"
	MsgUndo       = "undo"
	MsgRedo       = "redo"
	MsgClear      = "clear"
	MsgRegenerate = "regenerate"
	MsgDoc        = "doc"
	MsgState      = "state"
	MsgNoop       = "noop"
	MsgError      = "error"
)

// ClientMessage is a message from client to server.
type ClientMessage struct {
	Type  string        `json:"type"`
	DocID string        `json:"docId,omitempty"`
	Topic string        `json:"topic,omitempty"` // join and regenerate
	Edit  *roadmap.Edit `json:"edit,omitempty"`
}

// ServerMessage is a message from server to client.
type ServerMessage struct {
	Type     string           `json:"type"`
	DocID    string           `json:"docId,omitempty"`
	Roadmap  *roadmap.Roadmap `json:"roadmap,omitempty"`
	Version  int              `json:"version"`
	CanUndo  bool             `json:"canUndo"`
	CanRedo  bool             `json:"canRedo"`
	ClientID string           `json:"clientId,omitempty"`
	Name     string           `json:"name,omitempty"`
	Color    string           `json:"color,omitempty"`
	Message  string           `json:"message,omitempty"`
	Unsaved  bool             `json:"unsaved,omitempty"` // live version not yet persisted
	Clients  []ClientInfo     `json:"clients,omitempty"`
}

// ClientInfo describes a connected user.
type ClientInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// HistoryInfo summarises a session's undo timeline.
type HistoryInfo struct {
	DocID    string `json:"docId"`
	Version  int    `json:"version"`
	Length   int    `json:"length"`
	Cursor   int    `json:"cursor"`
	Capacity int    `json:"capacity"`
	CanUndo  bool   `json:"canUndo"`
	CanRedo  bool   `json:"canRedo"`
	Unsaved  bool   `json:"unsaved"`
}

// Encode serializes a ServerMessage to JSON bytes.
func (m ServerMessage) Encode() []byte {
	b, _ := json.Marshal(m)
	return b
}
