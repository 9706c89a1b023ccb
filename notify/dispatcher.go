package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/deemkeen/deckhand/domain"
	"github.com/deemkeen/deckhand/eventlog"
)

const DefaultTimeout = 2 * time.Second

// AlertsFlag is the user-toggled switch consulted on every dispatch.
type AlertsFlag interface {
	AlertsEnabled() bool
}

type Config struct {
	Primary  Channel
	Fallback Channel
	// Timeout bounds the whole primary attempt, permission included.
	Timeout  time.Duration
	Alerts   AlertsFlag
	Log      *eventlog.Log
}

// Dispatcher runs the fallback chain: one attempt on the primary channel
// under Timeout, then one on the fallback.
type Dispatcher struct {
	cfg Config
}

func NewDispatcher(cfg Config) *Dispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Log == nil {
		cfg.Log = eventlog.New(eventlog.DefaultCapacity)
	}
	return &Dispatcher{cfg: cfg}
}

// Dispatch surfaces an inbound broadcast.
func (d *Dispatcher) Dispatch(ctx context.Context, msg domain.BroadcastMessage) Result {
	return d.Notify(ctx, FromMessage(msg))
}

// Test sends the fixed debug notification through the same chain.
func (d *Dispatcher) Test(ctx context.Context) Result {
	return d.Notify(ctx, TestNotification())
}

// TestOn is Test on behalf of a client running on p.
func (d *Dispatcher) TestOn(ctx context.Context, p Platform) Result {
	return d.NotifyOn(ctx, TestNotification(), p)
}

// Notify runs the chain for a node-side event, where no client platform
// is involved.
func (d *Dispatcher) Notify(ctx context.Context, n Notification) Result {
	return d.NotifyOn(ctx, n, Platform{})
}

// NotifyOn runs the chain for a client on p. A platform that cannot show
// notifications gets guidance and no channel is touched.
func (d *Dispatcher) NotifyOn(ctx context.Context, n Notification, p Platform) Result {
	cfg := d.cfg

	if n.Time.IsZero() {
		n.Time = time.Now()
	}

	if !p.Supported() {
		res := Result{Outcome: OutcomeUnsupported, Guidance: p.Guidance()}
		cfg.Log.Info("Notifications unsupported here: %s", res.Guidance)
		return res
	}

	if cfg.Alerts != nil && !cfg.Alerts.AlertsEnabled() {
		cfg.Log.Info("Notification skipped: alerts are off")
		return Result{Outcome: OutcomeSkipped}
	}

	var lastErr error
	if cfg.Primary != nil {
		err := d.attempt(ctx, cfg.Primary, n, cfg.Timeout)
		if err == nil {
			cfg.Log.Info("Notified via %s: %s", cfg.Primary.Name(), n.Title)
			return Result{Outcome: OutcomePrimary, Channel: cfg.Primary.Name()}
		}
		log.Printf("[notify] %s unavailable: %v", cfg.Primary.Name(), err)
		lastErr = err
	}

	if cfg.Fallback != nil {
		err := deliverVia(ctx, cfg.Fallback, n)
		if err == nil {
			cfg.Log.Info("Notified via %s: %s", cfg.Fallback.Name(), n.Title)
			return Result{Outcome: OutcomeFallback, Channel: cfg.Fallback.Name(), Err: lastErr}
		}
		log.Printf("[notify] %s unavailable: %v", cfg.Fallback.Name(), err)
		lastErr = err
	}

	if lastErr == nil {
		lastErr = ErrUnavailable
	}
	cfg.Log.Error("Notification failed: %v", lastErr)
	return Result{Outcome: OutcomeFailed, Err: lastErr}
}

// attempt runs deliverVia under timeout. A channel that ignores its context
// is abandoned; its eventual result lands in a buffered channel nobody reads.
func (d *Dispatcher) attempt(ctx context.Context, ch Channel, n Notification, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- deliverVia(ctx, ch, n)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%s: %w", ch.Name(), ErrTimeout)
		}
		return ctx.Err()
	}
}

// deliverVia checks permission, asks once when it is still undecided, and
// delivers only when granted.
func deliverVia(ctx context.Context, ch Channel, n Notification) error {
	perm, err := ch.Status(ctx)
	if err != nil {
		return fmt.Errorf("%s status: %w", ch.Name(), err)
	}
	if perm == PermissionDefault {
		perm, err = ch.RequestPermission(ctx)
		if err != nil {
			return fmt.Errorf("%s permission: %w", ch.Name(), err)
		}
	}
	if perm != PermissionGranted {
		return fmt.Errorf("%s permission %s: %w", ch.Name(), perm, ErrUnavailable)
	}
	return ch.Deliver(ctx, n)
}
