package pairmodal

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/deemkeen/deckhand/ui/common"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(common.COLOR_ACCENT)).
			Bold(true)

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(common.COLOR_WHITE))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(common.COLOR_DIM))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(common.COLOR_ERROR)).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(common.COLOR_SUCCESS))
)

// ConnectMsg asks the deck to dial a pasted peer id.
type ConnectMsg struct {
	Target string
}

// CloseMsg closes the modal.
type CloseMsg struct{}

// Model shows the local id as a terminal QR code next to a field for pasting
// the other device's id.
type Model struct {
	LocalID string
	QR      string
	Status  string
	Error   string

	input textinput.Model
}

// New builds the modal. qr is the rendered terminal code, or empty while the
// node has no id yet.
func New(localID, qr string) Model {
	in := textinput.New()
	in.Placeholder = "paste a peer id"
	in.CharLimit = 200
	in.Width = 56
	in.Focus()

	return Model{LocalID: localID, QR: qr, input: in}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// SetResult reports how the last connect attempt went.
func (m Model) SetResult(target string, err error) Model {
	if err != nil {
		m.Error = err.Error()
		m.Status = ""
		return m
	}
	m.Error = ""
	m.Status = "Connecting to " + target
	m.input.Reset()
	return m
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "esc":
			return m, func() tea.Msg { return CloseMsg{} }
		case "enter":
			target := strings.TrimSpace(m.input.Value())
			if target == "" {
				return m, nil
			}
			return m, func() tea.Msg { return ConnectMsg{Target: target} }
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("Pair a device"))
	s.WriteString("\n\n")

	if m.LocalID == "" {
		s.WriteString(dimStyle.Render("Waiting for this node's id..."))
		s.WriteString("\n\n")
	} else {
		if m.QR != "" {
			s.WriteString(m.QR)
			s.WriteString("\n")
		}
		s.WriteString(dimStyle.Render("This node: "))
		s.WriteString(idStyle.Render(m.LocalID))
		s.WriteString("\n\n")
	}

	s.WriteString(m.input.View())
	s.WriteString("\n")

	switch {
	case m.Error != "":
		s.WriteString(errorStyle.Render(m.Error))
	case m.Status != "":
		s.WriteString(successStyle.Render(m.Status))
	}
	s.WriteString("\n")
	s.WriteString(dimStyle.Render("enter: connect • esc: close"))
	return s.String()
}
