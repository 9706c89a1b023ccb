package notify

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// PermissionKey is where the push permission decision is persisted.
const PermissionKey = "notify.permission"

// HTTPClient interface for dependency injection in tests
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// PermissionStore persists the push permission between runs.
type PermissionStore interface {
	ReadString(key, def string) string
	Put(key, value string) error
}

// PushChannel posts notifications to an ntfy-style topic URL so they reach
// a device even when no terminal session is attached.
type PushChannel struct {
	url     string
	token   string
	client  HTTPClient
	limiter *rate.Limiter
	store   PermissionStore
}

// NewPushChannel allows perSecond deliveries with a burst of one per second
// of rate.
func NewPushChannel(url, token string, perSecond float64, store PermissionStore) *PushChannel {
	if perSecond <= 0 {
		perSecond = 1
	}
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	client := &http.Client{Timeout: 10 * time.Second}
	return NewPushChannelWithDeps(url, token, rate.NewLimiter(rate.Limit(perSecond), burst), store, client)
}

func NewPushChannelWithDeps(url, token string, limiter *rate.Limiter, store PermissionStore, client HTTPClient) *PushChannel {
	return &PushChannel{
		url:     strings.TrimRight(url, "/"),
		token:   token,
		client:  client,
		limiter: limiter,
		store:   store,
	}
}

func (p *PushChannel) Name() string { return "push" }

func (p *PushChannel) Configured() bool { return p.url != "" }

// Status reports the stored decision. An unconfigured channel is unavailable.
func (p *PushChannel) Status(ctx context.Context) (Permission, error) {
	if !p.Configured() {
		return PermissionDenied, ErrUnavailable
	}
	if p.store == nil {
		return PermissionDefault, nil
	}
	return ParsePermission(p.store.ReadString(PermissionKey, string(PermissionDefault))), nil
}

// RequestPermission probes the topic with the configured credentials and
// stores the answer: 2xx grants, 401/403 denies.
func (p *PushChannel) RequestPermission(ctx context.Context) (Permission, error) {
	if !p.Configured() {
		return PermissionDenied, ErrUnavailable
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return PermissionDefault, err
	}
	p.authorize(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return PermissionDefault, fmt.Errorf("push probe failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	var perm Permission
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		perm = PermissionGranted
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		perm = PermissionDenied
	default:
		return PermissionDefault, fmt.Errorf("push probe returned status %d", resp.StatusCode)
	}

	p.remember(perm)
	log.Printf("[notify] Push permission %s", perm)
	return perm, nil
}

func (p *PushChannel) Deliver(ctx context.Context, n Notification) error {
	if !p.Configured() {
		return ErrUnavailable
	}
	if !p.limiter.Allow() {
		return ErrRateLimited
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, strings.NewReader(n.Body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("Title", n.Title)
	if n.Tag != "" {
		req.Header.Set("Tags", n.Tag)
	}
	p.authorize(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("push delivery failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		p.remember(PermissionDenied)
		return fmt.Errorf("push rejected with status %d: %w", resp.StatusCode, ErrUnavailable)
	default:
		return fmt.Errorf("push returned status %d", resp.StatusCode)
	}
}

// Reset forgets the stored decision so the next dispatch asks again.
func (p *PushChannel) Reset() error {
	if p.store == nil {
		return nil
	}
	return p.store.Put(PermissionKey, string(PermissionDefault))
}

func (p *PushChannel) authorize(req *http.Request) {
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}
}

func (p *PushChannel) remember(perm Permission) {
	if p.store == nil {
		return
	}
	if err := p.store.Put(PermissionKey, string(perm)); err != nil {
		log.Printf("[notify] Failed to store push permission: %v", err)
	}
}
