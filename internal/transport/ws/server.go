package ws

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/deckforge/collab-service/internal/collab"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var errConnClosed = errors.New("connection closed")

type Server struct {
	upgrader websocket.Upgrader
	relay    *collab.Relay

	pingEvery  time.Duration
	sendBuffer int
}

func NewServer(relay *collab.Relay, sendBuffer int, pingEvery time.Duration) *Server {
	if sendBuffer <= 0 {
		sendBuffer = 256
	}
	if pingEvery <= 0 {
		pingEvery = 15 * time.Second
	}
	return &Server{
		relay: relay,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery:  pingEvery,
		sendBuffer: sendBuffer,
	}
}

// WS endpoint: GET /ws. Session membership is negotiated over the socket
// itself (join-session / leave-session), one connection can sit in any
// number of sessions.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "err", err)
		return
	}

	c := newWsConn(uuid.New().String(), conn, s.sendBuffer)
	s.relay.Register(c)

	go s.writeLoop(c)
	s.readLoop(c)

	// read loop ended: network drop, tab close and a clean close frame
	// all take the same cleanup path.
	s.relay.Disconnect(c.ID())
	_ = c.Close()
}

func (s *Server) readLoop(c *wsConn) {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(1 << 20)
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				slog.Warn("ws read failed", "conn", c.ID(), "err", err)
			}
			return
		}
		s.handleMessage(c, data)
	}
}

// handleMessage dispatches one client frame. Malformed frames and unknown
// types are dropped without a reply.
func (s *Server) handleMessage(c collab.Conn, data []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}

	switch msg.Type {
	case TypeJoinSession:
		var p sessionRef
		if json.Unmarshal(msg.Payload, &p) == nil && p.SessionID != "" {
			s.relay.Join(p.SessionID, c)
		}
	case TypeLeaveSession:
		var p sessionRef
		if json.Unmarshal(msg.Payload, &p) == nil && p.SessionID != "" {
			s.relay.Leave(p.SessionID, c.ID())
		}
	case TypeSlideUpdate, TypeSlideAdd:
		var p slidePayload
		if json.Unmarshal(msg.Payload, &p) == nil && p.SessionID != "" {
			s.relay.Relay(p.SessionID, c.ID(), collab.EventKind(msg.Type), p.Slide)
		}
	case TypeSlideDelete:
		var p slideRefPayload
		if json.Unmarshal(msg.Payload, &p) == nil && p.SessionID != "" {
			s.relay.Relay(p.SessionID, c.ID(), collab.EventSlideDelete, p.SlideID)
		}
	case TypePresentationUpdate:
		var p presentationPayload
		if json.Unmarshal(msg.Payload, &p) == nil && p.SessionID != "" {
			s.relay.Relay(p.SessionID, c.ID(), collab.EventPresentationUpdate, p.Presentation)
		}
	case TypeCursorMove:
		var p cursorPayload
		if json.Unmarshal(msg.Payload, &p) == nil && p.SessionID != "" {
			s.relay.Relay(p.SessionID, c.ID(), collab.EventCursorMove, p.Position)
		}
	case TypeTypingStart, TypeTypingStop:
		var p slideRefPayload
		if json.Unmarshal(msg.Payload, &p) == nil && p.SessionID != "" {
			s.relay.Relay(p.SessionID, c.ID(), collab.EventKind(msg.Type), p.SlideID)
		}
	default:
		// ignore
	}
}

func (s *Server) writeLoop(c *wsConn) {
	ticker := time.NewTicker(s.pingEvery)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.closed:
			return
		}
	}
}

// --- connection ---

type wsConn struct {
	id   string
	conn *websocket.Conn
	send chan []byte

	closeOnce sync.Once
	closed    chan struct{}
}

func newWsConn(id string, conn *websocket.Conn, sendBuffer int) *wsConn {
	return &wsConn{
		id:     id,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		closed: make(chan struct{}),
	}
}

func (c *wsConn) ID() string { return c.id }

// Send queues the message for the write loop. It never blocks: a consumer
// that stops draining gets its messages dropped, and the pong deadline
// eventually reaps the connection.
func (c *wsConn) Send(msg collab.Envelope) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	select {
	case <-c.closed:
		return errConnClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	default:
		slog.Warn("ws send queue full, dropping message", "conn", c.id, "type", msg.Type)
		return nil
	}
}

func (c *wsConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return c.conn.Close()
}
