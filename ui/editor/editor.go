package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/deemkeen/deckhand/assist"
	"github.com/deemkeen/deckhand/domain"
	"github.com/deemkeen/deckhand/ui/common"
)

const suggestTimeout = 30 * time.Second

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(common.COLOR_ACCENT)).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(common.COLOR_SECONDARY)).
			Width(10)

	focusedLabelStyle = labelStyle.
				Foreground(lipgloss.Color(common.COLOR_ACCENT)).
				Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(common.COLOR_DIM))

	bannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(common.COLOR_WHITE)).
			Background(lipgloss.Color(common.COLOR_ERROR)).
			Bold(true).
			Padding(0, 1)
)

// Field is one input of the form.
type Field int

const (
	FieldLabel Field = iota
	FieldIcon
	FieldColor
	FieldPayload
	FieldDescribe
	fieldCount
)

var fieldNames = [fieldCount]string{"Label", "Icon", "Color", "Payload", "Describe"}

// SuggestFunc asks the assistant for a button matching a description.
type SuggestFunc func(ctx context.Context, description string) (assist.Suggestion, error)

// SaveMsg carries the edited button back to the deck.
type SaveMsg struct {
	Button domain.ButtonConfig
	IsNew  bool
}

// CancelMsg closes the editor without saving.
type CancelMsg struct{}

type suggestionMsg struct {
	suggestion assist.Suggestion
	err        error
}

type Model struct {
	Button     domain.ButtonConfig
	IsNew      bool
	Focus      Field
	Error      string // blocking banner, dismissed with enter or esc
	Generating bool
	Width      int

	inputs  [fieldCount]textinput.Model
	suggest SuggestFunc
}

// New opens the form on b. suggest may be nil when no assistant is configured.
func New(b domain.ButtonConfig, isNew bool, suggest SuggestFunc, width int) Model {
	m := Model{
		Button:  b,
		IsNew:   isNew,
		Width:   width,
		suggest: suggest,
	}

	limits := [fieldCount]int{40, 16, 16, 500, 200}
	placeholders := [fieldCount]string{
		"Button label",
		domain.DefaultIcon,
		domain.DefaultColor,
		`{"message":"Hello"}`,
		"e.g. a button that tells the room I'm live",
	}
	for i := range m.inputs {
		in := textinput.New()
		in.CharLimit = limits[i]
		in.Placeholder = placeholders[i]
		in.Width = common.CellWidth * 2
		m.inputs[i] = in
	}
	m.fill(b)
	m.inputs[FieldLabel].Focus()
	return m
}

func (m *Model) fill(b domain.ButtonConfig) {
	m.inputs[FieldLabel].SetValue(b.Label)
	m.inputs[FieldIcon].SetValue(b.Icon)
	m.inputs[FieldColor].SetValue(b.Color)
	m.inputs[FieldPayload].SetValue(b.Payload)
}

// Current is the button as the form currently describes it.
func (m Model) Current() domain.ButtonConfig {
	b := m.Button
	b.Label = strings.TrimSpace(m.inputs[FieldLabel].Value())
	b.Icon = strings.TrimSpace(m.inputs[FieldIcon].Value())
	b.Color = strings.TrimSpace(m.inputs[FieldColor].Value())
	b.Payload = strings.TrimSpace(m.inputs[FieldPayload].Value())
	return b
}

func (m Model) Value(f Field) string {
	return m.inputs[f].Value()
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case suggestionMsg:
		m.Generating = false
		if msg.err != nil {
			m.Error = suggestionError(msg.err)
			return m, nil
		}
		m.fill(msg.suggestion.Apply(m.Current()))
		return m, nil

	case tea.KeyMsg:
		if m.Error != "" {
			switch msg.String() {
			case "enter", "esc":
				m.Error = ""
			}
			return m, nil
		}

		switch msg.String() {
		case "esc":
			return m, func() tea.Msg { return CancelMsg{} }
		case "tab", "down":
			m.setFocus((m.Focus + 1) % fieldCount)
			return m, nil
		case "shift+tab", "up":
			m.setFocus((m.Focus + fieldCount - 1) % fieldCount)
			return m, nil
		case "ctrl+s":
			b := m.Current()
			if err := b.Validate(); err != nil {
				m.Error = err.Error()
				return m, nil
			}
			isNew := m.IsNew
			return m, func() tea.Msg { return SaveMsg{Button: b, IsNew: isNew} }
		case "ctrl+g":
			return m.generate()
		}
	}

	var cmd tea.Cmd
	m.inputs[m.Focus], cmd = m.inputs[m.Focus].Update(msg)
	return m, cmd
}

func (m *Model) setFocus(f Field) {
	m.inputs[m.Focus].Blur()
	m.Focus = f
	m.inputs[m.Focus].Focus()
}

func (m Model) generate() (Model, tea.Cmd) {
	if m.Generating {
		return m, nil
	}
	if m.suggest == nil {
		m.Error = assist.ErrMissingCredential.Error()
		return m, nil
	}
	description := strings.TrimSpace(m.inputs[FieldDescribe].Value())
	if description == "" {
		m.Error = "Describe the button first"
		m.setFocus(FieldDescribe)
		return m, nil
	}

	m.Generating = true
	suggest := m.suggest
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), suggestTimeout)
		defer cancel()
		s, err := suggest(ctx, description)
		return suggestionMsg{suggestion: s, err: err}
	}
}

func suggestionError(err error) string {
	switch {
	case errors.Is(err, assist.ErrMissingCredential):
		return err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return "Suggestion timed out"
	default:
		return fmt.Sprintf("Suggestion failed: %v", err)
	}
}

func (m Model) View() string {
	var s strings.Builder

	title := "Edit button"
	if m.IsNew {
		title = "New button"
	}
	s.WriteString(titleStyle.Render(title))
	s.WriteString("\n\n")

	for f := Field(0); f < fieldCount; f++ {
		style := labelStyle
		if f == m.Focus {
			style = focusedLabelStyle
		}
		s.WriteString(style.Render(fieldNames[f]))
		s.WriteString(m.inputs[f].View())
		s.WriteString("\n")

		switch f {
		case FieldIcon:
			s.WriteString(hintStyle.Render(wrap(domain.Icons, m.Width-2)))
			s.WriteString("\n")
		case FieldColor:
			s.WriteString(hintStyle.Render(strings.Join(domain.Colors, " ")))
			s.WriteString("\n")
		case FieldPayload:
			s.WriteString("\n")
		}
	}

	s.WriteString("\n")
	switch {
	case m.Error != "":
		s.WriteString(bannerStyle.Render(m.Error))
		s.WriteString("\n")
		s.WriteString(hintStyle.Render("enter: dismiss"))
	case m.Generating:
		s.WriteString(hintStyle.Render("Asking the assistant..."))
	default:
		s.WriteString(hintStyle.Render("tab: next • ctrl+s: save • ctrl+g: generate from description • esc: cancel"))
	}
	return s.String()
}

func wrap(words []string, width int) string {
	if width <= 0 {
		width = 60
	}
	var lines []string
	line := ""
	for _, w := range words {
		if line != "" && len(line)+1+len(w) > width {
			lines = append(lines, line)
			line = ""
		}
		if line != "" {
			line += " "
		}
		line += w
	}
	if line != "" {
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
