package collab

// Conn is one client's live channel to the server.
// Send must not block; transport implementations queue and drop on overflow.
type Conn interface {
	ID() string
	Send(msg Envelope) error
	Close() error
}
