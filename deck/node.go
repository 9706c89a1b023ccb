// Package deck wires one deckhand node together. A Node owns the peer
// endpoint, the connection registry, the notification chain and the
// database, and releases each of them once in Close.
package deck

import (
	"context"
	"fmt"
	"image"
	"log"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/deemkeen/deckhand/assist"
	"github.com/deemkeen/deckhand/db"
	"github.com/deemkeen/deckhand/domain"
	"github.com/deemkeen/deckhand/eventlog"
	"github.com/deemkeen/deckhand/notify"
	"github.com/deemkeen/deckhand/pairing"
	"github.com/deemkeen/deckhand/peer"
	"github.com/deemkeen/deckhand/registry"
	"github.com/deemkeen/deckhand/util"
)

type Node struct {
	conf       *util.AppConfig
	db         *db.DB
	buttons    *db.ButtonStore
	log        *eventlog.Log
	endpoint   *peer.Endpoint
	registry   *registry.Registry
	terminal   *notify.TerminalChannel
	push       *notify.PushChannel
	dispatcher *notify.Dispatcher
	assist     *assist.Client

	alerts    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// NewNode takes ownership of database.
func NewNode(conf *util.AppConfig, database *db.DB) *Node {
	n := &Node{
		conf:     conf,
		db:       database,
		buttons:  db.LoadButtons(database),
		log:      eventlog.New(conf.Conf.LogCapacity),
		endpoint: peer.NewEndpoint(),
		terminal: notify.NewTerminalChannel(),
	}
	n.alerts.Store(database.ReadBool(db.AlertsKey, conf.Conf.AlertsEnabled))

	n.push = notify.NewPushChannel(conf.Conf.PushURL, conf.Conf.PushToken, conf.Conf.PushRate, database)
	n.dispatcher = notify.NewDispatcher(notify.Config{
		Primary:  n.push,
		Fallback: n.terminal,
		Timeout:  conf.Conf.NotifyTimeout,
		Alerts:   n,
		Log:      n.log,
	})

	n.registry = registry.New(n.endpoint, n.buttons, n.dispatcher, n.log, func(id string) ([]byte, error) {
		return pairing.EncodePNG(id, pairing.DefaultPNGSize)
	})
	n.registry.SetOnChange(func() {
		util.NotifyStatus("%d peer(s) connected", n.registry.Size())
	})
	n.endpoint.SetInbound(n.registry.OnInbound)

	n.assist = assist.NewClient(assist.Config{
		APIKey:  conf.Conf.OpenAIAPIKey,
		Model:   conf.Conf.OpenAIModel,
		BaseURL: conf.Conf.OpenAIBaseURL,
	})

	if !n.push.Configured() {
		log.Printf("[deck] No push URL configured, notifications only reach attached terminals")
	}
	return n
}

// PeerHandler serves the data channel; mount it at peer.Path.
func (n *Node) PeerHandler() http.Handler {
	return n.endpoint.Handler()
}

// Start announces the endpoint once the HTTP listener is up and returns the
// local peer id.
func (n *Node) Start() string {
	id := n.endpoint.Announce(n.conf.AdvertisedAddr())
	n.registry.OnLocalID(id)
	return id
}

// Close releases the registry, endpoint and database once.
func (n *Node) Close() error {
	n.closeOnce.Do(func() {
		n.registry.Close()
		n.endpoint.Close()
		n.closeErr = n.db.Close()
		log.Printf("[deck] Node closed")
	})
	return n.closeErr
}

func (n *Node) LocalID() string { return n.registry.LocalID() }

func (n *Node) Ready() bool { return n.registry.Ready() }

func (n *Node) Log() *eventlog.Log { return n.log }

func (n *Node) Entries(limit int) []domain.LogEntry { return n.log.Latest(limit) }

func (n *Node) Buttons() []domain.ButtonConfig { return n.buttons.List() }

func (n *Node) Button(id string) (domain.ButtonConfig, bool) { return n.buttons.Find(id) }

func (n *Node) CreateButton(b domain.ButtonConfig) (domain.ButtonConfig, error) {
	b = normalize(b)
	saved, err := n.buttons.Create(b)
	if err != nil {
		return saved, err
	}
	n.log.Info("Added button %s", saved.Label)
	return saved, nil
}

func (n *Node) UpdateButton(b domain.ButtonConfig) (domain.ButtonConfig, error) {
	b = normalize(b)
	saved, err := n.buttons.Update(b)
	if err != nil {
		return saved, err
	}
	n.log.Info("Updated button %s", saved.Label)
	return saved, nil
}

// SaveButton is the edit form's submit: create when new, update otherwise.
func (n *Node) SaveButton(b domain.ButtonConfig) (domain.ButtonConfig, error) {
	if b.ID != "" {
		if _, ok := n.buttons.Find(b.ID); ok {
			return n.UpdateButton(b)
		}
	}
	return n.CreateButton(b)
}

func (n *Node) DeleteButton(id string) error {
	b, _ := n.buttons.Find(id)
	if err := n.buttons.Delete(id); err != nil {
		return err
	}
	n.log.Info("Removed button %s", b.Label)
	return nil
}

func (n *Node) ResetButtons() error {
	if err := n.buttons.Reset(); err != nil {
		return err
	}
	n.log.Info("Restored default buttons")
	return nil
}

// Press broadcasts buttonID to every open peer.
func (n *Node) Press(buttonID string) (domain.BroadcastMessage, error) {
	msg, ok := n.registry.Broadcast(buttonID)
	if !ok {
		return msg, fmt.Errorf("%w: %s", domain.ErrButtonNotFound, buttonID)
	}
	return msg, nil
}

func (n *Node) Connect(target string) error {
	target = strings.TrimSpace(target)
	if !n.registry.Ready() {
		return peer.ErrNotReady
	}
	if target == n.registry.LocalID() {
		return peer.ErrSelf
	}
	if _, _, err := peer.ParseID(target); err != nil {
		return err
	}
	return n.registry.Connect(target)
}

func (n *Node) Disconnect(remoteID string) bool { return n.registry.Disconnect(remoteID) }

func (n *Node) Peers() []registry.Connection { return n.registry.Peers() }

// QRPNG is the pairing image for the local id, nil before Start.
func (n *Node) QRPNG() []byte { return n.registry.QRCode() }

func (n *Node) QRTerminal() (string, error) {
	id := n.registry.LocalID()
	if id == "" {
		return "", peer.ErrNotReady
	}
	return pairing.Terminal(id)
}

// ScanAndConnect decodes a peer id from a QR image and dials it.
func (n *Node) ScanAndConnect(img image.Image) (string, error) {
	scanner := pairing.NewScanner()
	defer scanner.Close()

	id, err := scanner.ScanImage(img)
	if err != nil {
		return "", err
	}
	return id, n.Connect(id)
}

func (n *Node) AlertsEnabled() bool { return n.alerts.Load() }

// SetAlerts flips the alerts flag and persists it.
func (n *Node) SetAlerts(on bool) error {
	if err := n.db.WriteBool(db.AlertsKey, on); err != nil {
		return err
	}
	n.alerts.Store(on)
	if on {
		n.log.Info("Alerts enabled")
	} else {
		n.log.Info("Alerts disabled")
	}
	return nil
}

func (n *Node) TestNotify(ctx context.Context) notify.Result {
	return n.dispatcher.Test(ctx)
}

// TestNotifyOn sends the test notification for a client on p.
func (n *Node) TestNotifyOn(ctx context.Context, p notify.Platform) notify.Result {
	return n.dispatcher.TestOn(ctx, p)
}

// ResetPushPermission forgets the push decision so the next dispatch asks.
func (n *Node) ResetPushPermission() error {
	return n.push.Reset()
}

// AttachTerminal registers a session as a foreground notification sink.
func (n *Node) AttachTerminal(fn func(notify.Notification)) func() {
	return n.terminal.Attach(fn)
}

func (n *Node) AssistEnabled() bool { return n.assist.Enabled() }

func (n *Node) Suggest(ctx context.Context, description string) (assist.Suggestion, error) {
	s, err := n.assist.Generate(ctx, description)
	if err != nil {
		log.Printf("[deck] Suggestion failed: %v", err)
		return s, err
	}
	return s, nil
}

// normalize coerces icon and color onto the known sets.
func normalize(b domain.ButtonConfig) domain.ButtonConfig {
	b.Icon = domain.NormalizeIcon(b.Icon)
	b.Color = domain.NormalizeColor(b.Color)
	return b
}
