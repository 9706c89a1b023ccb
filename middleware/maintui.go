package middleware

import (
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	bm "github.com/charmbracelet/wish/bubbletea"
	"github.com/deemkeen/deckhand/cli"
	"github.com/deemkeen/deckhand/domain"
	"github.com/deemkeen/deckhand/eventlog"
	"github.com/deemkeen/deckhand/notify"
	"github.com/deemkeen/deckhand/ui"
	"github.com/deemkeen/deckhand/ui/common"
	"github.com/muesli/termenv"
)

// Node is what an SSH session needs from the running deck.
type Node interface {
	ui.Deck
	cli.Deck
	Log() *eventlog.Log
	AttachTerminal(fn func(notify.Notification)) func()
}

func MainTui(node Node) wish.Middleware {
	teaHandler := func(s ssh.Session) *tea.Program {
		// Check for CLI command first (non-interactive mode)
		if cmd := s.Command(); len(cmd) > 0 {
			handleCLI(s, node, cmd)
			return nil
		}

		pty, _, active := s.Pty()
		if !active {
			wish.Println(s, "no active terminal, skipping")
			return nil
		}

		// Set the global color profile to ANSI256 for Docker compatibility
		lipgloss.SetColorProfile(termenv.ANSI256)

		m := ui.NewModel(node, pty.Window.Width, pty.Window.Height)
		p := tea.NewProgram(m, tea.WithFPS(60), tea.WithInput(s), tea.WithOutput(s), tea.WithAltScreen())
		attachSession(s, p, node)
		return p
	}
	return bm.MiddlewareWithProgramHandler(teaHandler, termenv.ANSI256)
}

const sessionBacklog = 64

// attachSession feeds the activity log and foreground notifications into the
// program, in order, until the session ends. A session that falls behind by
// more than sessionBacklog events drops the newest ones.
func attachSession(s ssh.Session, p *tea.Program, node Node) {
	events := make(chan tea.Msg, sessionBacklog)
	forward := func(msg tea.Msg) {
		select {
		case events <- msg:
		default:
		}
	}

	unsubscribe := node.Log().Subscribe(func(e domain.LogEntry) {
		forward(common.LogEntryMsg{Entry: e})
	})
	detach := node.AttachTerminal(func(n notify.Notification) {
		forward(common.NotificationMsg{Notification: n})
	})

	go func() {
		defer func() {
			detach()
			unsubscribe()
			log.Printf("%s@%s closed the deck", s.User(), s.RemoteAddr())
		}()
		for {
			select {
			case <-s.Context().Done():
				return
			case msg := <-events:
				p.Send(msg)
			}
		}
	}()
}

// handleCLI processes CLI commands in non-interactive mode
func handleCLI(s ssh.Session, node Node, cmd []string) {
	handler := cli.NewHandler(s.Context(), s, node)
	if err := handler.Execute(cmd); err != nil {
		// Error already printed by handler
		s.Exit(1)
	}
}
