package ws

import "encoding/json"

// Client message types accepted on the socket. Payloads stay opaque except
// for the session routing fields; the relay forwards them as-is.
const (
	TypeJoinSession        = "join-session"
	TypeLeaveSession       = "leave-session"
	TypeSlideUpdate        = "slide-update"
	TypeSlideAdd           = "slide-add"
	TypeSlideDelete        = "slide-delete"
	TypePresentationUpdate = "presentation-update"
	TypeCursorMove         = "cursor-move"
	TypeTypingStart        = "typing-start"
	TypeTypingStop         = "typing-stop"
)

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type sessionRef struct {
	SessionID string `json:"sessionId"`
}

type slidePayload struct {
	SessionID string          `json:"sessionId"`
	Slide     json.RawMessage `json:"slide"`
}

type slideRefPayload struct {
	SessionID string          `json:"sessionId"`
	SlideID   json.RawMessage `json:"slideId"`
}

type presentationPayload struct {
	SessionID    string          `json:"sessionId"`
	Presentation json.RawMessage `json:"presentation"`
}

type cursorPayload struct {
	SessionID string          `json:"sessionId"`
	Position  json.RawMessage `json:"position"`
}
