package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Output handles formatting responses in text or JSON format
type Output struct {
	writer   io.Writer
	jsonMode bool
}

// NewOutput creates a new output handler
func NewOutput(w io.Writer, jsonMode bool) *Output {
	return &Output{
		writer:   w,
		jsonMode: jsonMode,
	}
}

// IsJSON returns true if output is in JSON mode
func (o *Output) IsJSON() bool {
	return o.jsonMode
}

// Error outputs an error message
func (o *Output) Error(err error) {
	if o.jsonMode {
		o.writeJSON(map[string]any{
			"error": err.Error(),
		})
	} else {
		fmt.Fprintf(o.writer, "Error: %v\n", err)
	}
}

// Success outputs a success message (text mode only, JSON uses specific methods)
func (o *Output) Success(format string, args ...any) {
	if !o.jsonMode {
		fmt.Fprintf(o.writer, format, args...)
	}
}

// Print outputs a line (text mode only)
func (o *Output) Print(format string, args ...any) {
	if !o.jsonMode {
		fmt.Fprintf(o.writer, format, args...)
	}
}

// Println outputs a line with newline (text mode only)
func (o *Output) Println(text string) {
	if !o.jsonMode {
		fmt.Fprintln(o.writer, text)
	}
}

// JSON outputs any value as JSON
func (o *Output) JSON(v any) {
	if o.jsonMode {
		o.writeJSON(v)
	}
}

// writeJSON marshals and writes JSON to the output
func (o *Output) writeJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		// Fallback to error JSON if marshaling fails
		fmt.Fprintf(o.writer, `{"error":"failed to marshal JSON: %s"}`+"\n", err.Error())
		return
	}
	fmt.Fprintln(o.writer, string(data))
}

// ButtonItem is a button in output
type ButtonItem struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Icon    string `json:"icon"`
	Color   string `json:"color"`
	Payload string `json:"payload"`
}

// ButtonsResponse represents the buttons output
type ButtonsResponse struct {
	Buttons []ButtonItem `json:"buttons"`
	Count   int          `json:"count"`
}

// PressResponse represents the press output
type PressResponse struct {
	ButtonID  string          `json:"button_id"`
	Payload   json.RawMessage `json:"payload"`
	Peers     int             `json:"peers"`
	Timestamp time.Time       `json:"timestamp"`
}

// PeerItem is a connected peer in output
type PeerItem struct {
	ID    string    `json:"id"`
	Open  bool      `json:"open"`
	Since time.Time `json:"since"`
}

// PeersResponse represents the peers output
type PeersResponse struct {
	LocalID string     `json:"local_id"`
	Peers   []PeerItem `json:"peers"`
	Count   int        `json:"count"`
}

// StatusResponse is the output of commands that only change state
type StatusResponse struct {
	Status string `json:"status"`
	PeerID string `json:"peer_id,omitempty"`
}

// WhoamiResponse represents the whoami output
type WhoamiResponse struct {
	PeerID string `json:"peer_id"`
	Ready  bool   `json:"ready"`
}

// LogItem is an activity log entry in output
type LogItem struct {
	Message   string    `json:"message"`
	Severity  string    `json:"severity"`
	CreatedAt time.Time `json:"created_at"`
}

// LogResponse represents the log output
type LogResponse struct {
	Entries []LogItem `json:"entries"`
	Count   int       `json:"count"`
}

// AlertsResponse represents the alerts output
type AlertsResponse struct {
	Enabled bool `json:"enabled"`
}

// NotifyResponse represents the test-notify output
type NotifyResponse struct {
	Outcome  string `json:"outcome"`
	Channel  string `json:"channel,omitempty"`
	Error    string `json:"error,omitempty"`
	Guidance string `json:"guidance,omitempty"`
}

// HelpCommand represents a command in help output
type HelpCommand struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Usage       string   `json:"usage"`
	Flags       []string `json:"flags,omitempty"`
}

// HelpResponse represents the help output
type HelpResponse struct {
	Version     string        `json:"version"`
	Commands    []HelpCommand `json:"commands"`
	GlobalFlags []string      `json:"global_flags"`
}

// FormatTimeAgo returns a human-readable time difference
func FormatTimeAgo(t time.Time) string {
	duration := time.Since(t)

	if duration < time.Minute {
		return "just now"
	} else if duration < time.Hour {
		mins := int(duration.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	} else if duration < 24*time.Hour {
		hours := int(duration.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	} else {
		days := int(duration.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}
}
