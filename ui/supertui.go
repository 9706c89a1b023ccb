package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/deemkeen/deckhand/assist"
	"github.com/deemkeen/deckhand/domain"
	"github.com/deemkeen/deckhand/notify"
	"github.com/deemkeen/deckhand/registry"
	"github.com/deemkeen/deckhand/ui/common"
	"github.com/deemkeen/deckhand/ui/editor"
	"github.com/deemkeen/deckhand/ui/logpanel"
	"github.com/deemkeen/deckhand/ui/pairmodal"
	"github.com/deemkeen/deckhand/util"
)

const toastDuration = 4 * time.Second

var (
	cellStyle = lipgloss.NewStyle().
			Width(common.CellWidth).
			Height(common.CellHeight).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(lipgloss.Color(common.COLOR_WHITE)).
			BorderStyle(lipgloss.HiddenBorder())

	selectedCellStyle = cellStyle.
				BorderStyle(lipgloss.ThickBorder()).
				BorderForeground(lipgloss.Color(common.COLOR_ACCENT)).
				Bold(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(common.COLOR_ACCENT)).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(common.COLOR_DIM))

	toastStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color(common.COLOR_TOAST)).
			Padding(0, 1)

	toastErrorStyle = toastStyle.
			Foreground(lipgloss.Color(common.COLOR_WHITE)).
			Background(lipgloss.Color(common.COLOR_ERROR))

	modalStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(common.COLOR_ACCENT)).
			Padding(1, 2)
)

// Deck is the node surface a terminal session drives.
type Deck interface {
	LocalID() string
	Buttons() []domain.ButtonConfig
	CreateButton(b domain.ButtonConfig) (domain.ButtonConfig, error)
	UpdateButton(b domain.ButtonConfig) (domain.ButtonConfig, error)
	DeleteButton(id string) error
	Press(buttonID string) (domain.BroadcastMessage, error)
	Peers() []registry.Connection
	Connect(target string) error
	QRTerminal() (string, error)
	Entries(limit int) []domain.LogEntry
	AlertsEnabled() bool
	SetAlerts(on bool) error
	TestNotify(ctx context.Context) notify.Result
	AssistEnabled() bool
	Suggest(ctx context.Context, description string) (assist.Suggestion, error)
}

type MainModel struct {
	deck   Deck
	width  int
	height int
	state  common.SessionState

	buttons       []domain.ButtonConfig
	selected      int
	confirmDelete bool

	toast    string
	toastErr bool
	toastID  int

	editorModel editor.Model
	pairModel   pairmodal.Model
	logModel    logpanel.Model
}

type clearToastMsg struct {
	id int
}

type notifyResultMsg struct {
	result notify.Result
}

func NewModel(d Deck, width int, height int) MainModel {
	width = common.DefaultWindowWidth(width)
	height = common.DefaultWindowHeight(height)

	entries := d.Entries(util.MaxLogCapacity)
	return MainModel{
		deck:     d,
		width:    width,
		height:   height,
		state:    common.DeckView,
		buttons:  d.Buttons(),
		logModel: logpanel.New(entries, util.MaxLogCapacity, width, common.LogPanelRows),
	}
}

func (m MainModel) Init() tea.Cmd {
	return nil
}

func (m MainModel) Selected() (domain.ButtonConfig, bool) {
	if m.selected < 0 || m.selected >= len(m.buttons) {
		return domain.ButtonConfig{}, false
	}
	return m.buttons[m.selected], true
}

func (m MainModel) State() common.SessionState {
	return m.state
}

func (m MainModel) Toast() string {
	return m.toast
}

func (m *MainModel) showToast(text string, isErr bool) tea.Cmd {
	m.toastID++
	m.toast = text
	m.toastErr = isErr
	id := m.toastID
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return clearToastMsg{id: id}
	})
}

func (m *MainModel) reload() {
	m.buttons = m.deck.Buttons()
	if m.selected >= len(m.buttons) {
		m.selected = max(len(m.buttons)-1, 0)
	}
}

func (m MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.logModel, _ = m.logModel.Update(msg)
		return m, nil

	case common.LogEntryMsg:
		m.logModel, _ = m.logModel.Update(msg)
		return m, nil

	case common.NotificationMsg:
		n := msg.Notification
		return m, m.showToast(fmt.Sprintf("%s: %s", n.Title, n.Body), false)

	case clearToastMsg:
		if msg.id == m.toastID {
			m.toast = ""
		}
		return m, nil

	case notifyResultMsg:
		return m, m.showResult(msg.result)

	case editor.SaveMsg:
		return m.save(msg)

	case editor.CancelMsg:
		m.state = common.DeckView
		return m, nil

	case pairmodal.ConnectMsg:
		err := m.deck.Connect(msg.Target)
		m.pairModel = m.pairModel.SetResult(msg.Target, err)
		return m, nil

	case pairmodal.CloseMsg:
		m.state = common.DeckView
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	switch m.state {
	case common.EditView:
		m.editorModel, cmd = m.editorModel.Update(msg)
	case common.PairView:
		m.pairModel, cmd = m.pairModel.Update(msg)
	default:
		if key, ok := msg.(tea.KeyMsg); ok {
			return m.handleDeckKey(key)
		}
	}
	return m, cmd
}

func (m MainModel) handleDeckKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirmDelete {
		m.confirmDelete = false
		if msg.String() != "y" {
			return m, nil
		}
		b, ok := m.Selected()
		if !ok {
			return m, nil
		}
		if err := m.deck.DeleteButton(b.ID); err != nil {
			return m, m.showToast(err.Error(), true)
		}
		m.reload()
		return m, m.showToast("Deleted "+b.Label, false)
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "left", "h":
		m.move(-1)
	case "right", "l":
		m.move(1)
	case "up", "k":
		m.move(-common.GridColumns)
	case "down", "j":
		m.move(common.GridColumns)
	case "enter", " ":
		return m.press()
	case "e":
		if b, ok := m.Selected(); ok {
			return m.openEditor(b, false)
		}
	case "n":
		return m.openEditor(domain.ButtonConfig{
			Icon:  domain.DefaultIcon,
			Color: domain.DefaultColor,
		}, true)
	case "d":
		if _, ok := m.Selected(); ok {
			m.confirmDelete = true
		}
	case "p":
		qr, _ := m.deck.QRTerminal()
		m.pairModel = pairmodal.New(m.deck.LocalID(), qr)
		m.state = common.PairView
		return m, m.pairModel.Init()
	case "t":
		d := m.deck
		return m, func() tea.Msg {
			return notifyResultMsg{result: d.TestNotify(context.Background())}
		}
	case "a":
		on := !m.deck.AlertsEnabled()
		if err := m.deck.SetAlerts(on); err != nil {
			return m, m.showToast(err.Error(), true)
		}
		if on {
			return m, m.showToast("Alerts on", false)
		}
		return m, m.showToast("Alerts off", false)
	}
	return m, nil
}

func (m *MainModel) move(delta int) {
	next := m.selected + delta
	if next >= 0 && next < len(m.buttons) {
		m.selected = next
	}
}

func (m MainModel) press() (tea.Model, tea.Cmd) {
	b, ok := m.Selected()
	if !ok {
		return m, nil
	}
	if _, err := m.deck.Press(b.ID); err != nil {
		return m, m.showToast(err.Error(), true)
	}
	return m, m.showToast(fmt.Sprintf("Sent %s to %d peer(s)", b.Label, len(m.deck.Peers())), false)
}

func (m MainModel) openEditor(b domain.ButtonConfig, isNew bool) (tea.Model, tea.Cmd) {
	var suggest editor.SuggestFunc
	if m.deck.AssistEnabled() {
		suggest = m.deck.Suggest
	}
	m.editorModel = editor.New(b, isNew, suggest, m.width-8)
	m.state = common.EditView
	return m, m.editorModel.Init()
}

func (m MainModel) save(msg editor.SaveMsg) (tea.Model, tea.Cmd) {
	var saved domain.ButtonConfig
	var err error
	if msg.IsNew {
		saved, err = m.deck.CreateButton(msg.Button)
	} else {
		saved, err = m.deck.UpdateButton(msg.Button)
	}
	if err != nil {
		m.editorModel.Error = err.Error()
		return m, nil
	}

	m.state = common.DeckView
	m.reload()
	for i, b := range m.buttons {
		if b.ID == saved.ID {
			m.selected = i
		}
	}
	return m, m.showToast("Saved "+saved.Label, false)
}

func (m *MainModel) showResult(r notify.Result) tea.Cmd {
	switch r.Outcome {
	case notify.OutcomePrimary:
		return m.showToast("Test sent via "+r.Channel, false)
	case notify.OutcomeFallback:
		// The terminal channel already raised its own toast.
		if r.Channel == "terminal" {
			return nil
		}
		return m.showToast("Test sent via "+r.Channel, false)
	case notify.OutcomeSkipped:
		return m.showToast("Alerts are off", false)
	case notify.OutcomeUnsupported:
		return m.showToast(r.Guidance, true)
	default:
		text := "Test notification failed"
		if r.Err != nil && !errors.Is(r.Err, notify.ErrNoForeground) {
			text += ": " + r.Err.Error()
		}
		return m.showToast(text, true)
	}
}

func (m MainModel) View() string {
	if m.width < common.MinWidth || m.height < common.MinHeight {
		message := fmt.Sprintf(
			"Terminal too small!\n\nMinimum required: %dx%d\nCurrent size: %dx%d\n\nPlease resize your terminal.",
			common.MinWidth, common.MinHeight, m.width, m.height,
		)
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(lipgloss.Color(common.COLOR_CRITICAL)).
			Bold(true).
			Render(message)
	}

	switch m.state {
	case common.EditView:
		return m.modal(m.editorModel.View())
	case common.PairView:
		return m.modal(m.pairModel.View())
	}

	var s strings.Builder
	s.WriteString(m.header())
	s.WriteString("\n\n")
	s.WriteString(m.grid())
	s.WriteString("\n\n")
	s.WriteString(m.logModel.View())
	s.WriteString("\n\n")

	switch {
	case m.confirmDelete:
		b, _ := m.Selected()
		s.WriteString(toastErrorStyle.Render(fmt.Sprintf("Delete %s? y: yes • any key: no", b.Label)))
	case m.toast != "":
		style := toastStyle
		if m.toastErr {
			style = toastErrorStyle
		}
		s.WriteString(style.Render(util.TruncateWidth(m.toast, m.width-4)))
	}
	s.WriteString("\n")

	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(common.COLOR_HELP)).
		Width(m.width).
		Align(lipgloss.Center)
	s.WriteString(helpStyle.Render("←↑↓→ • enter: press • e: edit • n: new • d: delete • p: pair • t: test • a: alerts • q: quit"))
	return s.String()
}

func (m MainModel) header() string {
	id := m.deck.LocalID()
	if id == "" {
		id = "starting..."
	}
	alerts := "alerts off"
	if m.deck.AlertsEnabled() {
		alerts = "alerts on"
	}
	return headerStyle.Render(util.Name) + dimStyle.Render(fmt.Sprintf(" • %s • %d peer(s) • %s",
		util.TruncateWidth(id, max(m.width-40, 12)), len(m.deck.Peers()), alerts))
}

func (m MainModel) grid() string {
	if len(m.buttons) == 0 {
		return dimStyle.Render("No buttons. Press n to add one.")
	}

	var rows []string
	for start := 0; start < len(m.buttons); start += common.GridColumns {
		end := min(start+common.GridColumns, len(m.buttons))
		var cells []string
		for i := start; i < end; i++ {
			cells = append(cells, m.cell(i))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m MainModel) cell(i int) string {
	b := m.buttons[i]
	style := cellStyle
	if i == m.selected {
		style = selectedCellStyle
	}
	label := util.TruncateWidth(b.Label, common.CellWidth-2)
	return style.Background(common.ButtonColor(b.Color)).Render(label + "\n" + b.Icon)
}

func (m MainModel) modal(content string) string {
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modalStyle.Render(content))
}
