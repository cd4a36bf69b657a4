package collab

import "encoding/json"

// EventKind names a client-originated event the relay knows how to forward.
type EventKind string

const (
	EventSlideUpdate        EventKind = "slide-update"
	EventSlideAdd           EventKind = "slide-add"
	EventSlideDelete        EventKind = "slide-delete"
	EventPresentationUpdate EventKind = "presentation-update"
	EventCursorMove         EventKind = "cursor-move"
	EventTypingStart        EventKind = "typing-start"
	EventTypingStop         EventKind = "typing-stop"
)

// Server-to-client message types.
const (
	TypeJoinedSession       = "joined-session"
	TypeUserJoined          = "user-joined"
	TypeUserLeft            = "user-left"
	TypeSlideUpdated        = "slide-updated"
	TypeSlideAdded          = "slide-added"
	TypeSlideDeleted        = "slide-deleted"
	TypePresentationUpdated = "presentation-updated"
	TypeCursorMoved         = "cursor-moved"
	TypeUserTyping          = "user-typing"
)

// outbound maps a client event kind to the type broadcast to the room.
// Kinds not listed here are dropped.
var outbound = map[EventKind]string{
	EventSlideUpdate:        TypeSlideUpdated,
	EventSlideAdd:           TypeSlideAdded,
	EventSlideDelete:        TypeSlideDeleted,
	EventPresentationUpdate: TypePresentationUpdated,
	EventCursorMove:         TypeCursorMoved,
	EventTypingStart:        TypeUserTyping,
	EventTypingStop:         TypeUserTyping,
}

type Envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// PresencePayload carries the full roster, not a delta, so client
// reconciliation stays idempotent against missed or reordered messages.
type PresencePayload struct {
	ConnectionID string   `json:"connectionId"`
	ActiveUsers  []string `json:"activeUsers"`
}

type CursorMovedPayload struct {
	ConnectionID string          `json:"connectionId"`
	Position     json.RawMessage `json:"position"`
}

type UserTypingPayload struct {
	ConnectionID string          `json:"connectionId"`
	SlideID      json.RawMessage `json:"slideId"`
	IsTyping     bool            `json:"isTyping"`
}
