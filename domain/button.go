package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var ErrButtonNotFound = errors.New("button not found")

// ButtonConfig is one user-authored cell of the deck grid.
type ButtonConfig struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Icon    string `json:"icon"`
	Color   string `json:"color"`
	Payload string `json:"payload"` // free-form, usually JSON
}

// Icons is the closed set of icon names a button may use. The AI assistant is
// told to pick from it and its answers are coerced into it.
var Icons = []string{
	"zap", "bell", "mic", "mic-off", "video", "video-off",
	"play", "pause", "stop", "skip", "volume", "volume-off",
	"monitor", "camera", "message", "coffee", "heart", "star",
	"flag", "home", "lock", "unlock", "sun", "moon",
}

// Colors is the palette tokens buttons are rendered with.
var Colors = []string{"slate", "red", "orange", "amber", "green", "teal", "blue", "indigo", "purple", "pink"}

const (
	DefaultIcon  = "zap"
	DefaultColor = "slate"
)

// DefaultButtons is the deck a fresh node starts with, and the fallback when
// the persisted list can't be read.
func DefaultButtons() []ButtonConfig {
	return []ButtonConfig{
		{ID: "btn-1", Label: "Start Stream", Icon: "video", Color: "red", Payload: `{"action":"start_stream"}`},
		{ID: "btn-2", Label: "Mute Mic", Icon: "mic-off", Color: "slate", Payload: `{"action":"mute_mic"}`},
		{ID: "btn-3", Label: "BRB", Icon: "coffee", Color: "amber", Payload: `{"message":"Be right back"}`},
		{ID: "btn-4", Label: "Scene 1", Icon: "monitor", Color: "blue", Payload: `{"action":"scene","scene":1}`},
		{ID: "btn-5", Label: "Applause", Icon: "heart", Color: "pink", Payload: `{"sound":"applause"}`},
		{ID: "btn-6", Label: "Ping", Icon: "bell", Color: "green", Payload: `{"message":"Ping!"}`},
	}
}

func NewButtonID() string {
	return "btn-" + uuid.New().String()[:8]
}

// Validate checks the fields the edit form requires.
func (b ButtonConfig) Validate() error {
	if strings.TrimSpace(b.ID) == "" {
		return fmt.Errorf("button id is required")
	}
	if strings.TrimSpace(b.Label) == "" {
		return fmt.Errorf("button label is required")
	}
	return nil
}

func IsIcon(name string) bool {
	for _, icon := range Icons {
		if icon == name {
			return true
		}
	}
	return false
}

// NormalizeIcon maps anything outside Icons to DefaultIcon.
func NormalizeIcon(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if IsIcon(name) {
		return name
	}
	return DefaultIcon
}

// NormalizeColor accepts palette tokens case-insensitively, also in
// "bg-red-500" style, and falls back to DefaultColor.
func NormalizeColor(token string) string {
	token = strings.ToLower(strings.TrimSpace(token))
	token = strings.TrimPrefix(token, "bg-")
	if i := strings.IndexByte(token, '-'); i > 0 {
		token = token[:i]
	}
	for _, c := range Colors {
		if c == token {
			return c
		}
	}
	return DefaultColor
}

// FindButton returns the button with the given id.
func FindButton(buttons []ButtonConfig, id string) (ButtonConfig, bool) {
	for _, b := range buttons {
		if b.ID == id {
			return b, true
		}
	}
	return ButtonConfig{}, false
}
