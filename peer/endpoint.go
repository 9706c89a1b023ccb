package peer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/net/websocket"
)

// Path is where the data channel is mounted on the node's HTTP server.
const Path = "/peer"

const DefaultDialTimeout = 10 * time.Second

// Endpoint is the local side of the peer network: it owns the local
// identifier, accepts inbound data channels and dials outbound ones. Exactly
// one component owns an Endpoint and must Close it.
type Endpoint struct {
	mu          sync.Mutex
	id          string
	token       string
	addr        string
	inbound     func(Conn)
	conns       map[*wsConn]struct{}
	closed      bool
	ctx         context.Context
	cancel      context.CancelFunc
	DialTimeout time.Duration
}

func NewEndpoint() *Endpoint {
	ctx, cancel := context.WithCancel(context.Background())
	return &Endpoint{
		conns:       make(map[*wsConn]struct{}),
		ctx:         ctx,
		cancel:      cancel,
		DialTimeout: DefaultDialTimeout,
	}
}

// Announce assigns the local identifier once the HTTP listener at addr is
// serving. Later calls return the identifier already assigned.
func (e *Endpoint) Announce(addr string) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.id == "" {
		e.id = NewID(addr)
		e.token, e.addr, _ = ParseID(e.id)
		log.Printf("[peer] Local endpoint ready as %s", e.id)
	}
	return e.id
}

// ID is empty until Announce.
func (e *Endpoint) ID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.id
}

// SetInbound installs the callback that receives each inbound connection
// before any of its events are delivered.
func (e *Endpoint) SetInbound(fn func(Conn)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.inbound = fn
}

// Handler serves the websocket data channel.
func (e *Endpoint) Handler() http.Handler {
	return websocket.Server{
		Handshake: e.handshake,
		Handler:   e.serve,
	}
}

func (e *Endpoint) handshake(_ *websocket.Config, r *http.Request) error {
	e.mu.Lock()
	token, closed := e.token, e.closed
	e.mu.Unlock()

	if closed || token == "" {
		return ErrNotReady
	}
	if r.URL.Query().Get("to") != token {
		return fmt.Errorf("connection addressed to another peer")
	}
	from, _, err := ParseID(r.URL.Query().Get("from"))
	if err != nil {
		return err
	}
	if from == token {
		return ErrSelf
	}
	return nil
}

func (e *Endpoint) serve(ws *websocket.Conn) {
	from, err := CanonicalID(ws.Request().URL.Query().Get("from"))
	if err != nil {
		ws.Close()
		return
	}

	e.mu.Lock()
	inbound := e.inbound
	e.mu.Unlock()

	c := newConn(e, from)
	if inbound == nil || !e.track(c) || !c.setSocket(ws) {
		e.untrack(c)
		ws.Close()
		return
	}

	inbound(c)
	c.run()
}

// Connect starts dialing target and returns immediately. The connection opens
// asynchronously once handlers are attached; a failed dial only reports
// OnError.
func (e *Endpoint) Connect(target string) (Conn, error) {
	e.mu.Lock()
	local, closed := e.id, e.closed
	e.mu.Unlock()

	if closed || local == "" {
		return nil, ErrNotReady
	}
	target, err := CanonicalID(target)
	if err != nil {
		return nil, err
	}
	if target == local {
		return nil, ErrSelf
	}
	token, addr, _ := ParseID(target)

	c := newConn(e, target)
	go c.dial(local, token, addr)
	return c, nil
}

// Close shuts every live connection and refuses new ones.
func (e *Endpoint) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	conns := make([]*wsConn, 0, len(e.conns))
	for c := range e.conns {
		conns = append(conns, c)
	}
	e.mu.Unlock()

	e.cancel()
	for _, c := range conns {
		c.Close()
	}
	log.Printf("[peer] Endpoint closed (%d connections released)", len(conns))
	return nil
}

func (e *Endpoint) track(c *wsConn) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	e.conns[c] = struct{}{}
	return true
}

func (e *Endpoint) untrack(c *wsConn) {
	e.mu.Lock()
	delete(e.conns, c)
	e.mu.Unlock()
}

func dialURL(local, token, addr string) string {
	q := url.Values{}
	q.Set("from", local)
	q.Set("to", token)
	return fmt.Sprintf("ws://%s%s?%s", addr, Path, q.Encode())
}

type wsConn struct {
	endpoint *Endpoint
	remoteID string

	mu       sync.Mutex
	ws       *websocket.Conn
	handlers Handlers

	attachOnce sync.Once
	attached   chan struct{}
	closeOnce  sync.Once
	closed     chan struct{}
}

func newConn(e *Endpoint, remoteID string) *wsConn {
	return &wsConn{
		endpoint: e,
		remoteID: remoteID,
		attached: make(chan struct{}),
		closed:   make(chan struct{}),
	}
}

func (c *wsConn) RemoteID() string {
	return c.remoteID
}

func (c *wsConn) Attach(h Handlers) {
	c.mu.Lock()
	c.handlers = h
	c.mu.Unlock()
	c.attachOnce.Do(func() { close(c.attached) })
}

func (c *wsConn) Send(data []byte) error {
	c.mu.Lock()
	ws := c.ws
	c.mu.Unlock()

	if ws == nil {
		return ErrNotReady
	}
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}
	if err := websocket.Message.Send(ws, string(data)); err != nil {
		return fmt.Errorf("send to %s: %w", c.remoteID, err)
	}
	return nil
}

func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.mu.Lock()
		ws := c.ws
		c.mu.Unlock()
		if ws != nil {
			ws.Close()
		}
	})
	return nil
}

// setSocket installs ws unless Close already ran. Close marks closed before
// it reads the socket under mu, so one of the two always closes ws.
func (c *wsConn) setSocket(ws *websocket.Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.closed:
		return false
	default:
	}
	c.ws = ws
	return true
}

func (c *wsConn) events() Handlers {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handlers
}

func (c *wsConn) waitAttached() bool {
	select {
	case <-c.attached:
		return true
	case <-c.closed:
		return false
	}
}

func (c *wsConn) dial(local, token, addr string) {
	if !c.waitAttached() {
		return
	}

	cfg, err := websocket.NewConfig(dialURL(local, token, addr), "http://"+addr)
	if err != nil {
		c.fail(err)
		return
	}

	ctx, cancel := context.WithTimeout(c.endpoint.ctx, c.endpoint.DialTimeout)
	defer cancel()

	ws, err := cfg.DialContext(ctx)
	if err != nil {
		c.fail(fmt.Errorf("dial %s: %w", c.remoteID, err))
		return
	}

	if !c.endpoint.track(c) {
		ws.Close()
		return
	}
	if !c.setSocket(ws) {
		c.endpoint.untrack(c)
		ws.Close()
		return
	}
	c.run()
}

func (c *wsConn) fail(err error) {
	if h := c.events(); h.OnError != nil {
		h.OnError(c, err)
	}
}

// run delivers open, every inbound frame, then close. It blocks until the
// socket ends.
func (c *wsConn) run() {
	defer c.endpoint.untrack(c)

	if !c.waitAttached() {
		c.Close()
		return
	}

	h := c.events()
	if h.OnOpen != nil {
		h.OnOpen(c)
	}

	c.mu.Lock()
	ws := c.ws
	c.mu.Unlock()

	for {
		var msg string
		if err := websocket.Message.Receive(ws, &msg); err != nil {
			select {
			case <-c.closed:
			default:
				if !errors.Is(err, io.EOF) && h.OnError != nil {
					h.OnError(c, err)
				}
			}
			break
		}
		if h.OnData != nil {
			h.OnData(c, []byte(msg))
		}
	}

	c.Close()
	if h.OnClose != nil {
		h.OnClose(c)
	}
}
