// Package notify surfaces inbound deck commands as local notifications. A
// Dispatcher tries a background-capable Channel first and falls back to a
// foreground one.
package notify

import (
	"context"
	"errors"
	"time"
)

type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// ParsePermission maps stored text back to a Permission; unknown values read
// as PermissionDefault.
func ParsePermission(s string) Permission {
	switch Permission(s) {
	case PermissionGranted:
		return PermissionGranted
	case PermissionDenied:
		return PermissionDenied
	default:
		return PermissionDefault
	}
}

var (
	ErrUnavailable  = errors.New("notification channel unavailable")
	ErrTimeout      = errors.New("notification channel timed out")
	ErrNoForeground = errors.New("no foreground session attached")
	ErrRateLimited  = errors.New("notification rate limit exceeded")
)

// Notification is what a Channel shows to the user.
type Notification struct {
	Title string
	Body  string
	Tag   string
	Time  time.Time
}

// Channel is one way of showing a notification.
type Channel interface {
	Name() string
	Status(ctx context.Context) (Permission, error)
	RequestPermission(ctx context.Context) (Permission, error)
	Deliver(ctx context.Context, n Notification) error
}

type Outcome string

const (
	OutcomePrimary     Outcome = "primary"
	OutcomeFallback    Outcome = "fallback"
	OutcomeFailed      Outcome = "failed"
	OutcomeSkipped     Outcome = "skipped"
	OutcomeUnsupported Outcome = "unsupported"
)

// Result records how one dispatch ended. Channel names the channel that
// delivered; Err holds the last failure seen, if any.
type Result struct {
	Outcome  Outcome
	Channel  string
	Err      error
	Guidance string
}

func (r Result) Delivered() bool {
	return r.Outcome == OutcomePrimary || r.Outcome == OutcomeFallback
}
