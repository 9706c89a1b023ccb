package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/deemkeen/deckhand/domain"
	"github.com/deemkeen/deckhand/notify"
	"github.com/deemkeen/deckhand/registry"
)

// mockSession implements cli.Session for testing
type mockSession struct {
	reader io.Reader
	writer *bytes.Buffer
}

func newMockSession(input string) *mockSession {
	return &mockSession{
		reader: strings.NewReader(input),
		writer: &bytes.Buffer{},
	}
}

func (m *mockSession) Write(p []byte) (n int, err error) {
	return m.writer.Write(p)
}

func (m *mockSession) Read(p []byte) (n int, err error) {
	return m.reader.Read(p)
}

// mockDeck implements cli.Deck for testing
type mockDeck struct {
	localID    string
	buttons    []domain.ButtonConfig
	peers      []registry.Connection
	entries    []domain.LogEntry
	alerts     bool
	setErr     error
	connectErr error
	connected  []string
	pressed    []string
	result     notify.Result
	notified   int
}

func (m *mockDeck) LocalID() string                { return m.localID }
func (m *mockDeck) Ready() bool                    { return m.localID != "" }
func (m *mockDeck) Buttons() []domain.ButtonConfig { return m.buttons }

func (m *mockDeck) Press(buttonID string) (domain.BroadcastMessage, error) {
	b, ok := domain.FindButton(m.buttons, buttonID)
	if !ok {
		return domain.BroadcastMessage{}, domain.ErrButtonNotFound
	}
	m.pressed = append(m.pressed, buttonID)
	return domain.NewButtonPress(b, time.UnixMilli(1700000000000)), nil
}

func (m *mockDeck) Peers() []registry.Connection { return m.peers }

func (m *mockDeck) Connect(target string) error {
	if m.connectErr != nil {
		return m.connectErr
	}
	m.connected = append(m.connected, target)
	return nil
}

func (m *mockDeck) Disconnect(remoteID string) bool {
	for i, p := range m.peers {
		if p.RemoteID == remoteID {
			m.peers = append(m.peers[:i], m.peers[i+1:]...)
			return true
		}
	}
	return false
}

func (m *mockDeck) Entries(limit int) []domain.LogEntry {
	if limit > len(m.entries) {
		limit = len(m.entries)
	}
	return m.entries[:limit]
}

func (m *mockDeck) AlertsEnabled() bool { return m.alerts }

func (m *mockDeck) SetAlerts(on bool) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.alerts = on
	return nil
}

func (m *mockDeck) TestNotify(ctx context.Context) notify.Result {
	m.notified++
	return m.result
}

func newTestHandler(input string) (*Handler, *mockDeck, *bytes.Buffer) {
	session := newMockSession(input)
	deck := &mockDeck{
		localID: "0b7d5c3e-8f1a-4c2b-9d6e-5a4f3b2c1d0e@10.0.0.5:9797",
		buttons: domain.DefaultButtons(),
		alerts:  true,
	}
	return NewHandler(context.Background(), session, deck), deck, session.writer
}

func TestExecute_Help(t *testing.T) {
	handler, _, output := newTestHandler("")

	if err := handler.Execute([]string{"--help"}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	result := output.String()
	for _, want := range []string{"deckhand CLI", "press <buttonId>", "connect <peerId>", "test-notify"} {
		if !strings.Contains(result, want) {
			t.Errorf("Expected help output to contain %q, got: %s", want, result)
		}
	}
}

func TestExecute_HelpJSON(t *testing.T) {
	handler, _, output := newTestHandler("")

	if err := handler.Execute([]string{"--help", "--json"}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	var helpResp HelpResponse
	if err := json.Unmarshal(output.Bytes(), &helpResp); err != nil {
		t.Fatalf("Expected valid JSON, got error: %v, output: %s", err, output.String())
	}
	if len(helpResp.Commands) != len(commands) {
		t.Errorf("Expected %d commands, got %d", len(commands), len(helpResp.Commands))
	}
}

func TestExecute_UnknownCommand(t *testing.T) {
	handler, _, _ := newTestHandler("")

	err := handler.Execute([]string{"unknowncommand"})
	if err == nil {
		t.Fatal("Expected error for unknown command")
	}
	if !strings.Contains(err.Error(), "unknown command") {
		t.Errorf("Expected 'unknown command' error, got: %v", err)
	}
}

func TestExecute_NoCommand(t *testing.T) {
	handler, _, output := newTestHandler("")

	if err := handler.Execute([]string{}); err != nil {
		t.Fatalf("Expected no error (should show help), got: %v", err)
	}
	if !strings.Contains(output.String(), "deckhand CLI") {
		t.Errorf("Expected help output when no command given, got: %s", output.String())
	}
}

func TestParseGlobalFlags(t *testing.T) {
	tests := []struct {
		name         string
		input        []string
		wantArgs     []string
		wantJSONMode bool
	}{
		{"no flags", []string{"press", "btn-1"}, []string{"press", "btn-1"}, false},
		{"json flag at end", []string{"press", "btn-1", "--json"}, []string{"press", "btn-1"}, true},
		{"json flag at start", []string{"--json", "log", "-n", "3"}, []string{"log", "-n", "3"}, true},
		{"short json flag", []string{"peers", "-j"}, []string{"peers"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotArgs, gotJSON := parseGlobalFlags(tt.input)

			if gotJSON != tt.wantJSONMode {
				t.Errorf("parseGlobalFlags() jsonMode = %v, want %v", gotJSON, tt.wantJSONMode)
			}
			if strings.Join(gotArgs, " ") != strings.Join(tt.wantArgs, " ") {
				t.Errorf("parseGlobalFlags() args = %v, want %v", gotArgs, tt.wantArgs)
			}
		})
	}
}

func TestButtons(t *testing.T) {
	handler, _, output := newTestHandler("")

	if err := handler.Execute([]string{"buttons", "-j"}); err != nil {
		t.Fatal(err)
	}

	var resp ButtonsResponse
	if err := json.Unmarshal(output.Bytes(), &resp); err != nil {
		t.Fatalf("Expected valid JSON: %v", err)
	}
	if resp.Count != 6 || resp.Buttons[5].ID != "btn-6" {
		t.Errorf("Unexpected buttons: %+v", resp)
	}
}

func TestButtonsEmpty(t *testing.T) {
	handler, deck, output := newTestHandler("")
	deck.buttons = nil

	if err := handler.Execute([]string{"buttons"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(output.String(), "No buttons") {
		t.Errorf("Unexpected output: %s", output.String())
	}
}

func TestPress(t *testing.T) {
	t.Run("known button", func(t *testing.T) {
		handler, deck, output := newTestHandler("")
		deck.peers = []registry.Connection{{RemoteID: "a@h:1", Open: true}, {RemoteID: "b@h:2", Open: true}}

		if err := handler.Execute([]string{"press", "btn-6"}); err != nil {
			t.Fatal(err)
		}
		if len(deck.pressed) != 1 || deck.pressed[0] != "btn-6" {
			t.Errorf("Expected btn-6 pressed, got %v", deck.pressed)
		}
		if !strings.Contains(output.String(), "Sent btn-6 to 2 peer(s)") {
			t.Errorf("Unexpected output: %s", output.String())
		}
	})

	t.Run("json carries payload", func(t *testing.T) {
		handler, _, output := newTestHandler("")

		if err := handler.Execute([]string{"press", "btn-6", "--json"}); err != nil {
			t.Fatal(err)
		}
		var resp PressResponse
		if err := json.Unmarshal(output.Bytes(), &resp); err != nil {
			t.Fatalf("Expected valid JSON: %v", err)
		}
		var payload map[string]string
		if err := json.Unmarshal(resp.Payload, &payload); err != nil {
			t.Fatal(err)
		}
		if payload["message"] != "Ping!" || resp.Peers != 0 {
			t.Errorf("Unexpected response: %+v", resp)
		}
	})

	t.Run("unknown button", func(t *testing.T) {
		handler, _, output := newTestHandler("")

		err := handler.Execute([]string{"press", "nope"})
		if err == nil {
			t.Fatal("Expected error for unknown button")
		}
		if !strings.Contains(output.String(), "no button with id nope") {
			t.Errorf("Unexpected output: %s", output.String())
		}
	})

	t.Run("missing id", func(t *testing.T) {
		handler, _, _ := newTestHandler("")
		if err := handler.Execute([]string{"press"}); err == nil {
			t.Error("Expected usage error")
		}
	})
}

func TestPeers(t *testing.T) {
	handler, deck, output := newTestHandler("")
	deck.peers = []registry.Connection{{RemoteID: "a@h:1", Open: true, Since: time.Now()}}

	if err := handler.Execute([]string{"peers", "-j"}); err != nil {
		t.Fatal(err)
	}

	var resp PeersResponse
	if err := json.Unmarshal(output.Bytes(), &resp); err != nil {
		t.Fatalf("Expected valid JSON: %v", err)
	}
	if resp.LocalID != deck.localID || resp.Count != 1 || resp.Peers[0].ID != "a@h:1" {
		t.Errorf("Unexpected response: %+v", resp)
	}
}

func TestConnect(t *testing.T) {
	t.Run("dials", func(t *testing.T) {
		handler, deck, output := newTestHandler("")

		if err := handler.Execute([]string{"connect", "a@h:1"}); err != nil {
			t.Fatal(err)
		}
		if len(deck.connected) != 1 || deck.connected[0] != "a@h:1" {
			t.Errorf("Expected dial to a@h:1, got %v", deck.connected)
		}
		if !strings.Contains(output.String(), "Connecting to a@h:1") {
			t.Errorf("Unexpected output: %s", output.String())
		}
	})

	t.Run("error is reported", func(t *testing.T) {
		handler, deck, output := newTestHandler("")
		deck.connectErr = errors.New("peer not ready")

		err := handler.Execute([]string{"connect", "a@h:1", "-j"})
		if err == nil {
			t.Fatal("Expected error")
		}
		var resp map[string]string
		if err := json.Unmarshal(output.Bytes(), &resp); err != nil {
			t.Fatalf("Expected JSON error: %v", err)
		}
		if !strings.Contains(resp["error"], "peer not ready") {
			t.Errorf("Unexpected error body: %v", resp)
		}
	})
}

func TestDisconnect(t *testing.T) {
	handler, deck, _ := newTestHandler("")
	deck.peers = []registry.Connection{{RemoteID: "a@h:1", Open: true}}

	if err := handler.Execute([]string{"disconnect", "a@h:1"}); err != nil {
		t.Fatal(err)
	}
	if len(deck.peers) != 0 {
		t.Errorf("Expected peer removed, got %v", deck.peers)
	}
	if err := handler.Execute([]string{"disconnect", "a@h:1"}); err == nil {
		t.Error("Expected error for a peer that is not connected")
	}
}

func TestWhoami(t *testing.T) {
	handler, deck, output := newTestHandler("")

	if err := handler.Execute([]string{"whoami"}); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(output.String()) != deck.localID {
		t.Errorf("Expected %s, got %q", deck.localID, output.String())
	}

	output.Reset()
	deck.localID = ""
	if err := handler.Execute([]string{"whoami", "-j"}); err != nil {
		t.Fatal(err)
	}
	var resp WhoamiResponse
	if err := json.Unmarshal(output.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Ready {
		t.Error("Expected not ready without a local id")
	}
}

func TestLog(t *testing.T) {
	handler, deck, output := newTestHandler("")
	for i := 0; i < 30; i++ {
		deck.entries = append(deck.entries, domain.LogEntry{Message: "entry", Severity: domain.SeverityInfo, Time: time.Now()})
	}

	tests := []struct {
		name      string
		args      []string
		wantCount int
		wantErr   bool
	}{
		{"default limit", []string{"log", "-j"}, defaultLogLimit, false},
		{"explicit limit", []string{"log", "-n", "5", "-j"}, 5, false},
		{"zero", []string{"log", "-n", "0", "-j"}, 0, true},
		{"not a number", []string{"log", "-n", "many", "-j"}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output.Reset()
			err := handler.Execute(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Execute() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			var resp LogResponse
			if err := json.Unmarshal(output.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.Count != tt.wantCount {
				t.Errorf("Expected %d entries, got %d", tt.wantCount, resp.Count)
			}
		})
	}
}

func TestLogText(t *testing.T) {
	handler, deck, output := newTestHandler("")

	if err := handler.Execute([]string{"log"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(output.String(), "No activity yet.") {
		t.Errorf("Unexpected output: %s", output.String())
	}

	output.Reset()
	deck.entries = []domain.LogEntry{{Message: "Connection failed", Severity: domain.SeverityError, Time: time.Now()}}
	if err := handler.Execute([]string{"log"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(output.String(), "✗ Connection failed (just now)") {
		t.Errorf("Unexpected output: %s", output.String())
	}
}

func TestAlerts(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    bool
		wantErr bool
	}{
		{"show", []string{"alerts"}, true, false},
		{"off", []string{"alerts", "off"}, false, false},
		{"on", []string{"alerts", "ON"}, true, false},
		{"garbage", []string{"alerts", "maybe"}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, deck, _ := newTestHandler("")
			err := handler.Execute(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Execute() error = %v, wantErr %v", err, tt.wantErr)
			}
			if deck.alerts != tt.want {
				t.Errorf("alerts = %v, want %v", deck.alerts, tt.want)
			}
		})
	}
}

func TestAlertsPersistError(t *testing.T) {
	handler, deck, _ := newTestHandler("")
	deck.setErr = errors.New("disk full")

	if err := handler.Execute([]string{"alerts", "off"}); err == nil {
		t.Fatal("Expected error")
	}
	if !deck.alerts {
		t.Error("Flag must not change when it cannot be saved")
	}
}

func TestTestNotify(t *testing.T) {
	tests := []struct {
		name     string
		result   notify.Result
		wantText string
		wantErr  bool
	}{
		{"primary", notify.Result{Outcome: notify.OutcomePrimary, Channel: "push"}, "Delivered via push.", false},
		{"fallback", notify.Result{Outcome: notify.OutcomeFallback, Channel: "terminal", Err: errors.New("push: timeout")}, "fallback: push: timeout", false},
		{"skipped", notify.Result{Outcome: notify.OutcomeSkipped}, "Alerts are off", false},
		{"failed", notify.Result{Outcome: notify.OutcomeFailed, Err: notify.ErrNoForeground}, "Notification failed", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, deck, output := newTestHandler("")
			deck.result = tt.result

			err := handler.Execute([]string{"test-notify"})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Execute() error = %v, wantErr %v", err, tt.wantErr)
			}
			if deck.notified != 1 {
				t.Errorf("Expected one dispatch, got %d", deck.notified)
			}
			if !strings.Contains(output.String(), tt.wantText) {
				t.Errorf("Expected %q in output, got: %s", tt.wantText, output.String())
			}
		})
	}
}

func TestTestNotifyJSON(t *testing.T) {
	handler, deck, output := newTestHandler("")
	deck.result = notify.Result{Outcome: notify.OutcomeFallback, Channel: "terminal", Err: notify.ErrTimeout}

	if err := handler.Execute([]string{"test-notify", "--json"}); err != nil {
		t.Fatal(err)
	}
	var resp NotifyResponse
	if err := json.Unmarshal(output.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Outcome != "fallback" || resp.Channel != "terminal" || resp.Error == "" {
		t.Errorf("Unexpected response: %+v", resp)
	}
}

func TestFormatTimeAgo(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		want     string
	}{
		{"just now", 30 * time.Second, "just now"},
		{"1 minute", 1 * time.Minute, "1 minute ago"},
		{"5 minutes", 5 * time.Minute, "5 minutes ago"},
		{"1 hour", 1 * time.Hour, "1 hour ago"},
		{"1 day", 24 * time.Hour, "1 day ago"},
		{"3 days", 72 * time.Hour, "3 days ago"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatTimeAgo(time.Now().Add(-tt.duration)); got != tt.want {
				t.Errorf("FormatTimeAgo() = %s, want %s", got, tt.want)
			}
		})
	}
}
