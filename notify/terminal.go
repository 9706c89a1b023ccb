package notify

import (
	"context"
	"sync"
)

// TerminalChannel shows notifications as toasts inside attached SSH
// sessions. It only works while someone is looking.
type TerminalChannel struct {
	mu    sync.Mutex
	sinks map[int]func(Notification)
	next  int
}

func NewTerminalChannel() *TerminalChannel {
	return &TerminalChannel{sinks: make(map[int]func(Notification))}
}

func (t *TerminalChannel) Name() string { return "terminal" }

// Attach registers a session's sink and returns the func that detaches it.
func (t *TerminalChannel) Attach(fn func(Notification)) func() {
	t.mu.Lock()
	id := t.next
	t.next++
	t.sinks[id] = fn
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.sinks, id)
			t.mu.Unlock()
		})
	}
}

func (t *TerminalChannel) Sessions() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sinks)
}

func (t *TerminalChannel) Status(context.Context) (Permission, error) {
	return PermissionGranted, nil
}

func (t *TerminalChannel) RequestPermission(context.Context) (Permission, error) {
	return PermissionGranted, nil
}

func (t *TerminalChannel) Deliver(ctx context.Context, n Notification) error {
	t.mu.Lock()
	sinks := make([]func(Notification), 0, len(t.sinks))
	for _, fn := range t.sinks {
		sinks = append(sinks, fn)
	}
	t.mu.Unlock()

	if len(sinks) == 0 {
		return ErrNoForeground
	}
	for _, fn := range sinks {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(n)
	}
	return nil
}
