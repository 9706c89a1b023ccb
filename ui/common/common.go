package common

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/deemkeen/deckhand/domain"
	"github.com/deemkeen/deckhand/notify"
)

const (
	COLOR_ACCENT    = "205"
	COLOR_SECONDARY = "248"
	COLOR_DIM       = "241"
	COLOR_WHITE     = "255"
	COLOR_HELP      = "245"
	COLOR_SUCCESS   = "42"
	COLOR_ERROR     = "196"
	COLOR_CRITICAL  = "160"
	COLOR_BROADCAST = "39"
	COLOR_TOAST     = "220"
)

// ButtonColors maps palette tokens onto ANSI256 backgrounds.
var ButtonColors = map[string]string{
	"slate":  "240",
	"red":    "160",
	"orange": "208",
	"amber":  "214",
	"green":  "34",
	"teal":   "30",
	"blue":   "33",
	"indigo": "61",
	"purple": "92",
	"pink":   "205",
}

// ButtonColor returns the background for a palette token.
func ButtonColor(token string) lipgloss.Color {
	if c, ok := ButtonColors[domain.NormalizeColor(token)]; ok {
		return lipgloss.Color(c)
	}
	return lipgloss.Color(ButtonColors[domain.DefaultColor])
}

// SessionState is the view that owns the keyboard.
type SessionState uint

const (
	DeckView SessionState = iota
	EditView
	PairView
)

const (
	MinWidth  = 60
	MinHeight = 20

	GridColumns  = 3
	CellWidth    = 18
	CellHeight   = 3
	LogPanelRows = 8
	FooterHeight = 1
)

func DefaultWindowWidth(width int) int {
	if width <= 0 {
		return 80
	}
	return width
}

func DefaultWindowHeight(height int) int {
	if height <= 0 {
		return 24
	}
	return height
}

// LogEntryMsg is sent into a session when the activity log grows.
type LogEntryMsg struct {
	Entry domain.LogEntry
}

// NotificationMsg is a foreground notification for the session.
type NotificationMsg struct {
	Notification notify.Notification
}
