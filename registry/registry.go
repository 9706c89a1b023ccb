// Package registry tracks the local peer identifier and the set of open
// remote connections, and routes deck commands in and out.
package registry

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/deemkeen/deckhand/domain"
	"github.com/deemkeen/deckhand/eventlog"
	"github.com/deemkeen/deckhand/notify"
	"github.com/deemkeen/deckhand/peer"
)

// Dialer opens outbound connections.
type Dialer interface {
	Connect(target string) (peer.Conn, error)
}

type ButtonSource interface {
	Find(id string) (domain.ButtonConfig, bool)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, msg domain.BroadcastMessage) notify.Result
}

// QREncoder renders the local identifier for out-of-band sharing.
type QREncoder func(id string) ([]byte, error)

// Connection is a snapshot of one registered peer.
type Connection struct {
	RemoteID string    `json:"remoteId"`
	Open     bool      `json:"open"`
	Since    time.Time `json:"since"`
}

type entry struct {
	conn  peer.Conn
	since time.Time
}

type Registry struct {
	mu       sync.Mutex
	localID  string
	ready    bool
	qr       []byte
	conns    map[string]*entry
	closed   bool
	onChange func()

	dialer     Dialer
	buttons    ButtonSource
	dispatcher Dispatcher
	log        *eventlog.Log
	encodeQR   QREncoder
	now        func() time.Time
}

func New(dialer Dialer, buttons ButtonSource, dispatcher Dispatcher, logs *eventlog.Log, encodeQR QREncoder) *Registry {
	return &Registry{
		conns:      make(map[string]*entry),
		dialer:     dialer,
		buttons:    buttons,
		dispatcher: dispatcher,
		log:        logs,
		encodeQR:   encodeQR,
		now:        time.Now,
	}
}

// SetOnChange installs a callback fired after every membership change.
func (r *Registry) SetOnChange(fn func()) {
	r.mu.Lock()
	r.onChange = fn
	r.mu.Unlock()
}

// OnLocalID stores the identifier assigned by the endpoint and marks the
// registry ready. A QR failure is logged; the registry is ready regardless.
func (r *Registry) OnLocalID(id string) error {
	var qr []byte
	var err error
	if r.encodeQR != nil {
		qr, err = r.encodeQR(id)
	}

	r.mu.Lock()
	r.localID = id
	r.ready = true
	r.qr = qr
	r.mu.Unlock()

	r.log.Info("Ready as %s", id)
	if err != nil {
		r.log.Error("Failed to render pairing code: %v", err)
		return err
	}
	return nil
}

func (r *Registry) LocalID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.localID
}

func (r *Registry) Ready() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ready && !r.closed
}

// QRCode returns the pairing image derived in OnLocalID.
func (r *Registry) QRCode() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.qr
}

// OnInbound attaches handlers to a connection requested by a remote peer.
// It joins the registry only once it opens.
func (r *Registry) OnInbound(c peer.Conn) {
	c.Attach(r.handlers())
}

// Connect dials target. Empty targets, our own id, and dialing before the
// endpoint is ready are silently ignored.
func (r *Registry) Connect(target string) error {
	target = strings.TrimSpace(target)

	r.mu.Lock()
	skip := target == "" || target == r.localID || !r.ready || r.closed
	_, exists := r.conns[target]
	r.mu.Unlock()

	if skip {
		return nil
	}
	if exists {
		r.log.Info("Already connected to %s", target)
		return nil
	}

	c, err := r.dialer.Connect(target)
	if err != nil {
		r.log.Error("Failed to connect to %s: %v", target, err)
		return err
	}
	r.log.Info("Connecting to %s", target)
	c.Attach(r.handlers())
	return nil
}

// Disconnect closes the connection to remoteID; its close event removes it.
func (r *Registry) Disconnect(remoteID string) bool {
	r.mu.Lock()
	e, ok := r.conns[remoteID]
	r.mu.Unlock()

	if !ok {
		return false
	}
	e.conn.Close()
	return true
}

// Broadcast sends a press of buttonID to every open connection. It reports
// false when the button does not exist. Send failures are only logged.
func (r *Registry) Broadcast(buttonID string) (domain.BroadcastMessage, bool) {
	b, ok := r.buttons.Find(buttonID)
	if !ok {
		return domain.BroadcastMessage{}, false
	}

	msg := domain.NewButtonPress(b, r.now())
	data, err := msg.Encode()
	if err != nil {
		r.log.Error("Failed to encode press of %s: %v", b.ID, err)
		return msg, true
	}

	r.mu.Lock()
	targets := make([]peer.Conn, 0, len(r.conns))
	for _, e := range r.conns {
		targets = append(targets, e.conn)
	}
	r.mu.Unlock()

	r.log.Broadcast("Sent %s to %d peer(s)", b.Label, len(targets))

	for _, c := range targets {
		if err := c.Send(data); err != nil {
			log.Printf("[registry] Send to %s failed: %v", c.RemoteID(), err)
		}
	}
	return msg, true
}

// Peers returns the open connections sorted by remote id.
func (r *Registry) Peers() []Connection {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Connection, 0, len(r.conns))
	for id, e := range r.conns {
		out = append(out, Connection{RemoteID: id, Open: true, Since: e.since})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RemoteID < out[j].RemoteID })
	return out
}

func (r *Registry) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

// Close closes every registered connection once and refuses new ones.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.ready = false
	conns := make([]peer.Conn, 0, len(r.conns))
	for _, e := range r.conns {
		conns = append(conns, e.conn)
	}
	r.conns = make(map[string]*entry)
	onChange := r.onChange
	r.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
	if onChange != nil && len(conns) > 0 {
		onChange()
	}
}

func (r *Registry) handlers() peer.Handlers {
	return peer.Handlers{
		OnOpen:  r.handleOpen,
		OnData:  r.handleData,
		OnClose: r.handleClose,
		OnError: r.handleError,
	}
}

func (r *Registry) handleOpen(c peer.Conn) {
	id := c.RemoteID()

	r.mu.Lock()
	_, dup := r.conns[id]
	closed := r.closed
	if !dup && !closed {
		r.conns[id] = &entry{conn: c, since: r.now()}
	}
	onChange := r.onChange
	r.mu.Unlock()

	if closed {
		c.Close()
		return
	}
	if dup {
		log.Printf("[registry] Duplicate connection from %s, closing it", id)
		c.Close()
		return
	}

	r.log.Info("Connected to %s", id)
	if onChange != nil {
		onChange()
	}
}

func (r *Registry) handleData(c peer.Conn, data []byte) {
	msg, err := domain.DecodeMessage(data)
	if err != nil {
		r.log.Error("Dropped message from %s: %v", c.RemoteID(), err)
		return
	}

	r.log.Info("Received %s from %s", msg.ButtonID, c.RemoteID())
	if r.dispatcher != nil {
		r.dispatcher.Dispatch(context.Background(), msg)
	}
}

// handleClose removes the entry only when it still belongs to c, so the
// close of a rejected duplicate cannot evict the live connection.
func (r *Registry) handleClose(c peer.Conn) {
	id := c.RemoteID()

	r.mu.Lock()
	e, ok := r.conns[id]
	removed := ok && e.conn == c
	if removed {
		delete(r.conns, id)
	}
	onChange := r.onChange
	r.mu.Unlock()

	if !removed {
		return
	}
	r.log.Info("Disconnected from %s", id)
	if onChange != nil {
		onChange()
	}
}

func (r *Registry) handleError(c peer.Conn, err error) {
	log.Printf("[registry] Connection error with %s: %v", c.RemoteID(), err)
	r.log.Error("Connection to %s failed: %v", c.RemoteID(), err)
}
