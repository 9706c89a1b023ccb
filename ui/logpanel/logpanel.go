package logpanel

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/deemkeen/deckhand/domain"
	"github.com/deemkeen/deckhand/ui/common"
	"github.com/deemkeen/deckhand/util"
)

var (
	timeStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color(common.COLOR_DIM))
	infoStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color(common.COLOR_SECONDARY))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color(common.COLOR_ERROR))
	broadcastStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(common.COLOR_BROADCAST))
	titleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color(common.COLOR_HELP)).Bold(true)
)

// Model mirrors the node's activity log, newest first.
type Model struct {
	Entries  []domain.LogEntry
	Capacity int
	Width    int
	Rows     int
}

func New(entries []domain.LogEntry, capacity, width, rows int) Model {
	return Model{Entries: entries, Capacity: capacity, Width: width, Rows: rows}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case common.LogEntryMsg:
		entries := make([]domain.LogEntry, 0, len(m.Entries)+1)
		entries = append(entries, msg.Entry)
		entries = append(entries, m.Entries...)
		if m.Capacity > 0 && len(entries) > m.Capacity {
			entries = entries[:m.Capacity]
		}
		m.Entries = entries
	case tea.WindowSizeMsg:
		m.Width = msg.Width
	}
	return m, nil
}

func styleFor(s domain.Severity) lipgloss.Style {
	switch s {
	case domain.SeverityError:
		return errorStyle
	case domain.SeverityBroadcast:
		return broadcastStyle
	default:
		return infoStyle
	}
}

func (m Model) View() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("Activity"))

	if len(m.Entries) == 0 {
		s.WriteString("\n")
		s.WriteString(timeStyle.Render("Nothing yet."))
		return s.String()
	}

	rows := min(m.Rows, len(m.Entries))
	width := max(m.Width-12, 10)
	for _, e := range m.Entries[:rows] {
		s.WriteString("\n")
		s.WriteString(timeStyle.Render(e.Time.Format("15:04:05")))
		s.WriteString(" ")
		s.WriteString(styleFor(e.Severity).Render(e.Icon() + " " + util.TruncateWidth(e.Message, width)))
	}
	return s.String()
}
