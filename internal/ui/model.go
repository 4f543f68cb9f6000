// Package ui is the interactive mode list.
package ui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"outmode/internal/controller"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Underline(true)
	cursorStyle   = lipgloss.NewStyle().Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	subtitleStyle = lipgloss.NewStyle().Faint(true)
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failureStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	helpStyle     = lipgloss.NewStyle().Faint(true)
)

type fetchedMsg struct{ err error }

type switchedMsg struct{ err error }

// Model renders the controller's items and feeds key presses back to it.
// The controller must notify into rec so the status line can show the
// latest notification.
type Model struct {
	ctx    context.Context
	ctrl   *controller.Controller
	rec    *controller.Recorder
	cursor int
	busy   bool
}

// New returns a model over ctrl.
func New(ctx context.Context, ctrl *controller.Controller, rec *controller.Recorder) *Model {
	return &Model{ctx: ctx, ctrl: ctrl, rec: rec, busy: true}
}

func (m *Model) Init() tea.Cmd {
	return m.activate()
}

func (m *Model) activate() tea.Cmd {
	return func() tea.Msg {
		return fetchedMsg{err: m.ctrl.Activate(m.ctx)}
	}
}

func (m *Model) switchTo(item controller.Item) tea.Cmd {
	return func() tea.Msg {
		return switchedMsg{err: m.ctrl.Switch(m.ctx, item.Mode)}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case fetchedMsg:
		m.busy = false
		if msg.err == nil {
			m.focusSelected()
		}
	case switchedMsg:
		m.busy = false
	}
	return m, nil
}

func (m *Model) handleKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.ctrl.Items()
	switch k.String() {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(items)-1 {
			m.cursor++
		}
	case "enter", " ":
		// one call in flight at a time
		if m.busy {
			return m, nil
		}
		m.busy = true
		return m, m.switchTo(items[m.cursor])
	case "r":
		if m.busy {
			return m, nil
		}
		m.busy = true
		return m, m.activate()
	}
	return m, nil
}

func (m *Model) focusSelected() {
	for i, it := range m.ctrl.Items() {
		if it.Selected {
			m.cursor = i
			return
		}
	}
}

// Cursor is the highlighted row.
func (m *Model) Cursor() int { return m.cursor }

// Busy reports whether a daemon call is in flight.
func (m *Model) Busy() bool { return m.busy }

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Outbound Mode"))
	b.WriteString("\n\n")

	for i, it := range m.ctrl.Items() {
		pointer := "  "
		if i == m.cursor {
			pointer = cursorStyle.Render("> ")
		}
		glyph := it.Glyph
		check := ""
		if it.Selected {
			glyph = selectedStyle.Render(glyph)
			check = " " + selectedStyle.Render("✓")
		}
		fmt.Fprintf(&b, "%s%s %s%s\n", pointer, glyph, it.Title, check)
		fmt.Fprintf(&b, "     %s\n", subtitleStyle.Render(it.Subtitle))
	}

	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("[↑/↓] move  [enter] switch  [r] refresh  [q] quit"))
	return b.String()
}

func (m *Model) statusLine() string {
	if m.busy {
		return subtitleStyle.Render("working…")
	}
	n, ok := m.rec.Last()
	if !ok {
		return ""
	}
	if n.Kind == controller.KindFailure {
		return failureStyle.Render(n.Title) + " " + n.Message
	}
	return successStyle.Render(n.Title)
}

// Run starts the full-screen list and blocks until the user quits.
func Run(ctx context.Context, ctrl *controller.Controller, rec *controller.Recorder) error {
	p := tea.NewProgram(New(ctx, ctrl, rec), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
