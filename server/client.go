package server

import (
	"encoding/json"
	"errors"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeTimeout  = 10 * time.Second
	idleTimeout   = 60 * time.Second
	pingInterval  = idleTimeout * 9 / 10
	maxFrameBytes = 256 * 1024 // a full replace carries the whole roadmap
	sendBuffer    = 64
)

var (
	errNotJoined    = errors.New("not joined to a roadmap")
	errShuttingDown = errors.New("server shutting down")
)

// Client is one editor connected over a WebSocket.
type Client struct {
	ID    string
	Name  string
	Color string

	hub  *Hub
	conn *websocket.Conn
	// send is never closed; writeLoop stops when done is closed.
	send chan []byte
	done chan struct{}
	once sync.Once

	// session is read lock-free by dispatch. Writes to session and target
	// hold mu.
	mu      sync.Mutex
	session atomic.Pointer[Session]
	target  *Session // last session the hub attached this client to
}

var (
	nameStyles = []string{"Curious", "Patient", "Eager", "Focused", "Bold", "Steady", "Bright", "Quiet"}
	nameRoles  = []string{"Learner", "Scholar", "Mentor", "Reader", "Builder", "Explorer", "Student", "Tutor"}
	palette    = []string{"#2563eb", "#16a34a", "#db2777", "#ea580c", "#7c3aed", "#0891b2", "#ca8a04", "#dc2626"}
)

func pick(xs []string) string { return xs[rand.IntN(len(xs))] }

func newClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		ID:    uuid.NewString(),
		Name:  pick(nameStyles) + " " + pick(nameRoles),
		Color: pick(palette),
		hub:   hub,
		conn:  conn,
		send:  make(chan []byte, sendBuffer),
		done:  make(chan struct{}),
	}
}

// serve runs the connection until the peer goes away. Writes happen on a
// separate goroutine so a slow reader never blocks the session.
func (c *Client) serve() {
	go c.writeLoop()
	c.readLoop()
}

// disconnect marks the client gone and detaches it from its session.
func (c *Client) disconnect() {
	c.once.Do(func() { close(c.done) })
	c.mu.Lock()
	s := c.session.Load()
	c.mu.Unlock()
	if s != nil {
		s.detach(c)
	}
}

// retarget records s as the session the client is moving to and returns
// the previous one.
func (c *Client) retarget(s *Session) *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.target
	c.target = s
	return prev
}

// enter makes s the client's session. It refuses once the client has
// disconnected or the hub has since moved it to another session.
func (c *Client) enter(s *Session) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gone() || (c.target != nil && c.target != s) {
		return false
	}
	c.session.Store(s)
	return true
}

// exit clears the client's session if it is still s.
func (c *Client) exit(s *Session) {
	c.mu.Lock()
	c.session.CompareAndSwap(s, nil)
	c.mu.Unlock()
}

func (c *Client) gone() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *Client) readLoop() {
	defer func() {
		c.disconnect()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxFrameBytes)
	c.conn.SetReadDeadline(time.Now().Add(idleTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(idleTimeout))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("client: read failed", "client", c.ID, "error", err)
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendError("invalid message format")
			continue
		}
		if err := c.dispatch(msg); err != nil {
			c.sendError(err.Error())
		}
	}
}

// dispatch hands a message to the hub (join) or to the client's session.
func (c *Client) dispatch(msg ClientMessage) error {
	switch msg.Type {
	case MsgJoin:
		select {
		case c.hub.joinDoc <- joinRequest{client: c, docID: msg.DocID, topic: msg.Topic}:
			return nil
		case <-c.hub.stop:
			return errShuttingDown
		}
	case MsgEdit, MsgUndo, MsgRedo, MsgClear, MsgRegenerate:
		s := c.session.Load()
		if s == nil {
			return errNotJoined
		}
		if !s.enqueue(clientMessage{client: c, msg: msg}) {
			return errShuttingDown
		}
		return nil
	default:
		return errors.New("unknown message type: " + msg.Type)
	}
}

func (c *Client) writeLoop() {
	ping := time.NewTicker(pingInterval)
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()

	for {
		kind := websocket.TextMessage
		var data []byte
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			c.conn.WriteMessage(websocket.CloseMessage, nil)
			return
		case data = <-c.send:
		case <-ping.C:
			kind = websocket.PingMessage
		}
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(kind, data); err != nil {
			return
		}
	}
}

// sendMsg queues msg without blocking; a client whose buffer is full misses
// it and catches up on the next state broadcast. send is never closed, so
// this is safe from any session.
func (c *Client) sendMsg(msg ServerMessage) {
	select {
	case c.send <- msg.Encode():
	default:
	}
}

func (c *Client) sendError(message string) {
	c.sendMsg(ServerMessage{Type: MsgError, Message: message})
}

func (c *Client) Info() ClientInfo {
	return ClientInfo{ID: c.ID, Name: c.Name, Color: c.Color}
}
