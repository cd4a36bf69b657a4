package collab

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Relay owns the live collaboration state: which connections exist and which
// session rooms they belong to. One instance per process, constructed in main
// and injected into the transports. Nothing here is persisted; a restart
// starts from an empty directory.
type Relay struct {
	mu       sync.RWMutex
	conns    map[string]Conn            // connID -> conn
	rooms    map[string]map[string]Conn // sessionID -> connID -> conn
	sessions map[string]map[string]bool // connID -> joined sessionIDs
}

func NewRelay() *Relay {
	return &Relay{
		conns:    make(map[string]Conn),
		rooms:    make(map[string]map[string]Conn),
		sessions: make(map[string]map[string]bool),
	}
}

// Register tracks a freshly upgraded connection. It belongs to no room yet.
func (r *Relay) Register(c Conn) {
	r.mu.Lock()
	r.conns[c.ID()] = c
	total := len(r.conns)
	r.mu.Unlock()

	slog.Info("client connected", "conn", c.ID(), "clients", total)
}

// Join adds the connection to the session's room, creating the room if
// absent. Re-joining is a no-op for membership but still re-sends the ack and
// a fresh roster, so a reconnecting client converges without special cases.
// The joiner is included in the user-joined broadcast.
func (r *Relay) Join(sessionID string, c Conn) {
	r.mu.Lock()
	room, ok := r.rooms[sessionID]
	if !ok {
		room = make(map[string]Conn)
		r.rooms[sessionID] = room
	}
	room[c.ID()] = c

	joined, ok := r.sessions[c.ID()]
	if !ok {
		joined = make(map[string]bool)
		r.sessions[c.ID()] = joined
	}
	joined[sessionID] = true

	members, roster := snapshot(room)
	r.mu.Unlock()

	_ = c.Send(Envelope{Type: TypeJoinedSession, Payload: sessionID})

	notice := Envelope{Type: TypeUserJoined, Payload: PresencePayload{
		ConnectionID: c.ID(),
		ActiveUsers:  roster,
	}}
	for _, m := range members {
		_ = m.Send(notice)
	}

	slog.Debug("joined session", "session", sessionID, "conn", c.ID(), "members", len(roster))
}

// Leave removes the connection from the session's room and tells the
// remaining members. Leaving a room it never joined is a no-op. The last
// leaver deletes the room.
func (r *Relay) Leave(sessionID, connID string) {
	r.mu.Lock()
	room, ok := r.rooms[sessionID]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(room, connID)
	if joined, ok := r.sessions[connID]; ok {
		delete(joined, sessionID)
		if len(joined) == 0 {
			delete(r.sessions, connID)
		}
	}
	if len(room) == 0 {
		delete(r.rooms, sessionID)
		r.mu.Unlock()
		slog.Debug("room removed", "session", sessionID)
		return
	}
	members, roster := snapshot(room)
	r.mu.Unlock()

	notice := Envelope{Type: TypeUserLeft, Payload: PresencePayload{
		ConnectionID: connID,
		ActiveUsers:  roster,
	}}
	for _, m := range members {
		_ = m.Send(notice)
	}
}

// Disconnect reconciles an abruptly dropped connection: it leaves every room
// it belonged to, exactly as if it had sent explicit leaves, and is forgotten.
func (r *Relay) Disconnect(connID string) {
	r.mu.Lock()
	joined := r.sessions[connID]
	delete(r.sessions, connID)
	delete(r.conns, connID)

	type farewell struct {
		members []Conn
		roster  []string
	}
	notices := make(map[string]farewell, len(joined))
	for sessionID := range joined {
		room, ok := r.rooms[sessionID]
		if !ok {
			continue
		}
		delete(room, connID)
		if len(room) == 0 {
			delete(r.rooms, sessionID)
			continue
		}
		members, roster := snapshot(room)
		notices[sessionID] = farewell{members: members, roster: roster}
	}
	total := len(r.conns)
	r.mu.Unlock()

	for _, f := range notices {
		notice := Envelope{Type: TypeUserLeft, Payload: PresencePayload{
			ConnectionID: connID,
			ActiveUsers:  f.roster,
		}}
		for _, m := range f.members {
			_ = m.Send(notice)
		}
	}

	slog.Info("client disconnected", "conn", connID, "rooms", len(joined), "clients", total)
}

// Relay forwards a client event to every member of the session except the
// origin. The payload stays opaque, except cursor and typing events, which
// get the sender's connection id stamped in so recipients know whose state
// it is. Unknown kinds and empty rooms are silently ignored.
func (r *Relay) Relay(sessionID, originID string, kind EventKind, payload json.RawMessage) {
	outType, ok := outbound[kind]
	if !ok {
		return
	}

	r.mu.RLock()
	room := r.rooms[sessionID]
	recipients := make([]Conn, 0, len(room))
	for id, c := range room {
		if id != originID {
			recipients = append(recipients, c)
		}
	}
	r.mu.RUnlock()

	if len(recipients) == 0 {
		return
	}

	var body any = payload
	switch kind {
	case EventCursorMove:
		body = CursorMovedPayload{ConnectionID: originID, Position: payload}
	case EventTypingStart:
		body = UserTypingPayload{ConnectionID: originID, SlideID: payload, IsTyping: true}
	case EventTypingStop:
		body = UserTypingPayload{ConnectionID: originID, SlideID: payload, IsTyping: false}
	}

	msg := Envelope{Type: outType, Payload: body}
	for _, c := range recipients {
		_ = c.Send(msg) // best-effort
	}
}

// Roster returns the current member ids of a session, empty if the room
// does not exist.
func (r *Relay) Roster(sessionID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room := r.rooms[sessionID]
	ids := make([]string, 0, len(room))
	for id := range room {
		ids = append(ids, id)
	}
	return ids
}

// Stats reports live room and connection counts.
func (r *Relay) Stats() (rooms, clients int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms), len(r.conns)
}

func snapshot(room map[string]Conn) ([]Conn, []string) {
	members := make([]Conn, 0, len(room))
	roster := make([]string, 0, len(room))
	for id, c := range room {
		members = append(members, c)
		roster = append(roster, id)
	}
	return members, roster
}
