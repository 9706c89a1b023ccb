package peer

import "errors"

var (
	ErrNotReady = errors.New("endpoint not ready")
	ErrClosed   = errors.New("connection closed")
	ErrSelf     = errors.New("cannot connect to own id")
)

// Handlers receive a connection's lifecycle events. Any of them may be nil.
// OnOpen fires at most once; OnClose fires only after OnOpen. A connection
// that fails before opening reports OnError and nothing else.
type Handlers struct {
	OnOpen  func(Conn)
	OnData  func(Conn, []byte)
	OnClose func(Conn)
	OnError func(Conn, error)
}

// Conn is one data channel to a remote peer.
type Conn interface {
	RemoteID() string
	// Attach installs the event handlers. Events are held until Attach is called.
	Attach(h Handlers)
	Send(data []byte) error
	Close() error
}
