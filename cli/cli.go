package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/deemkeen/deckhand/domain"
	"github.com/deemkeen/deckhand/notify"
	"github.com/deemkeen/deckhand/registry"
	"github.com/deemkeen/deckhand/util"
)

// Session interface represents the minimal session requirements for CLI operations
type Session interface {
	io.Reader
	io.Writer
}

// Deck is the node surface the CLI drives
type Deck interface {
	LocalID() string
	Ready() bool
	Buttons() []domain.ButtonConfig
	Press(buttonID string) (domain.BroadcastMessage, error)
	Peers() []registry.Connection
	Connect(target string) error
	Disconnect(remoteID string) bool
	Entries(limit int) []domain.LogEntry
	AlertsEnabled() bool
	SetAlerts(on bool) error
	TestNotify(ctx context.Context) notify.Result
}

// Handler processes CLI commands
type Handler struct {
	ctx      context.Context
	session  Session
	deck     Deck
	output   *Output
	jsonMode bool
}

// NewHandler creates a new CLI handler. ctx bounds blocking commands such as
// test-notify, usually the SSH session's context.
func NewHandler(ctx context.Context, s Session, d Deck) *Handler {
	return &Handler{
		ctx:     ctx,
		session: s,
		deck:    d,
	}
}

// Execute parses and executes a CLI command
func (h *Handler) Execute(args []string) error {
	args, h.jsonMode = parseGlobalFlags(args)
	h.output = NewOutput(h.session, h.jsonMode)

	if len(args) == 0 {
		return h.showHelp()
	}

	cmd := strings.ToLower(args[0])
	cmdArgs := args[1:]

	switch cmd {
	case "buttons":
		return h.handleButtons(cmdArgs)
	case "press":
		return h.handlePress(cmdArgs)
	case "peers":
		return h.handlePeers(cmdArgs)
	case "connect":
		return h.handleConnect(cmdArgs)
	case "disconnect":
		return h.handleDisconnect(cmdArgs)
	case "whoami":
		return h.handleWhoami(cmdArgs)
	case "log":
		return h.handleLog(cmdArgs)
	case "alerts":
		return h.handleAlerts(cmdArgs)
	case "test-notify":
		return h.handleTestNotify(cmdArgs)
	case "--help", "-h", "help":
		return h.showHelp()
	default:
		return h.fail(fmt.Errorf("unknown command: %s", cmd))
	}
}

func (h *Handler) fail(err error) error {
	h.output.Error(err)
	return err
}

// parseGlobalFlags extracts global flags like --json from args
func parseGlobalFlags(args []string) ([]string, bool) {
	jsonMode := false
	var filtered []string

	for _, arg := range args {
		switch arg {
		case "--json", "-j":
			jsonMode = true
		default:
			filtered = append(filtered, arg)
		}
	}

	return filtered, jsonMode
}

var commands = []HelpCommand{
	{Name: "buttons", Description: "List the deck's buttons", Usage: "buttons"},
	{Name: "press", Description: "Press a button and broadcast it to all peers", Usage: "press <buttonId>"},
	{Name: "peers", Description: "List connected peers", Usage: "peers"},
	{Name: "connect", Description: "Connect to a peer", Usage: "connect <peerId>"},
	{Name: "disconnect", Description: "Drop the connection to a peer", Usage: "disconnect <peerId>"},
	{Name: "whoami", Description: "Show this node's peer id", Usage: "whoami"},
	{
		Name:        "log",
		Description: "Show the activity log, newest first",
		Usage:       "log [-n <count>]",
		Flags:       []string{"-n <count>: limit number of entries (default 20)"},
	},
	{Name: "alerts", Description: "Show or switch incoming alerts", Usage: "alerts [on|off]"},
	{Name: "test-notify", Description: "Send a test notification through the alert chain", Usage: "test-notify"},
	{Name: "help", Description: "Show this help message", Usage: "help"},
}

// showHelp displays help information
func (h *Handler) showHelp() error {
	if h.output.IsJSON() {
		h.output.JSON(HelpResponse{
			Version:     util.GetVersion(),
			Commands:    commands,
			GlobalFlags: []string{"--json, -j: output in JSON format"},
		})
		return nil
	}

	h.output.Println("deckhand CLI - peer-to-peer button deck")
	h.output.Println("")
	h.output.Println("Usage: ssh -p <port> <server> <command> [options]")
	h.output.Println("")
	h.output.Println("Commands:")
	for _, c := range commands {
		h.output.Print("  %-22s%s\n", c.Usage, c.Description)
	}
	h.output.Println("")
	h.output.Println("Global flags:")
	h.output.Println("  --json, -j            Output in JSON format")
	h.output.Println("")
	h.output.Println("Examples:")
	h.output.Println("  ssh -p 23235 localhost press btn-6")
	h.output.Println("  ssh -p 23235 localhost log -n 5 -j")
	return nil
}
