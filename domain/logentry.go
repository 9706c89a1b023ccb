package domain

import "time"

type Severity string

const (
	SeverityInfo      Severity = "info"
	SeverityError     Severity = "error"
	SeverityBroadcast Severity = "broadcast"
)

// LogEntry is one line of the activity log shown to the user.
type LogEntry struct {
	Message  string    `json:"message"`
	Severity Severity  `json:"severity"`
	Time     time.Time `json:"timestamp"`
}

func (e LogEntry) Icon() string {
	switch e.Severity {
	case SeverityError:
		return "✗"
	case SeverityBroadcast:
		return "➤"
	default:
		return "•"
	}
}
