package logpanel

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/deemkeen/deckhand/domain"
	"github.com/deemkeen/deckhand/ui/common"
)

func entry(msg string, sev domain.Severity) domain.LogEntry {
	return domain.LogEntry{Message: msg, Severity: sev, Time: time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)}
}

func TestNewestFirstAndCapped(t *testing.T) {
	m := New(nil, 3, 80, 8)
	for i := 0; i < 5; i++ {
		m, _ = m.Update(common.LogEntryMsg{Entry: entry(fmt.Sprintf("e%d", i), domain.SeverityInfo)})
	}

	if len(m.Entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(m.Entries))
	}
	for i, want := range []string{"e4", "e3", "e2"} {
		if m.Entries[i].Message != want {
			t.Errorf("Entries[%d] = %s, want %s", i, m.Entries[i].Message, want)
		}
	}
}

func TestViewRows(t *testing.T) {
	m := New([]domain.LogEntry{
		entry("Received BUTTON_PRESS btn-6", domain.SeverityInfo),
		entry("Connection failed", domain.SeverityError),
		entry("Sent btn-1 to 2 peer(s)", domain.SeverityBroadcast),
	}, 50, 80, 2)

	v := m.View()
	if !strings.Contains(v, "15:04:05") || !strings.Contains(v, "Received BUTTON_PRESS btn-6") {
		t.Errorf("Unexpected view: %s", v)
	}
	if !strings.Contains(v, "✗ Connection failed") {
		t.Errorf("Expected error icon: %s", v)
	}
	if strings.Contains(v, "Sent btn-1") {
		t.Error("Expected only 2 rows")
	}
}

func TestViewEmpty(t *testing.T) {
	if v := New(nil, 50, 80, 8).View(); !strings.Contains(v, "Nothing yet.") {
		t.Errorf("Unexpected view: %s", v)
	}
}
