package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/modforge/gffkit/diff"
	"github.com/modforge/gffkit/gff"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	pathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	kindStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	oldValStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	newValStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type browserModel struct {
	err      error
	oldPath  string
	newPath  string
	ignore   bool
	result   *diff.Result
	viewport viewport.Model
	selected int
	ready    bool
}

type comparedMsg struct {
	err error
	res *diff.Result
}

func newBrowserModel(oldPath, newPath string, ignoreDefaults bool) *browserModel {
	return &browserModel{oldPath: oldPath, newPath: newPath, ignore: ignoreDefaults}
}

func (m *browserModel) Init() tea.Cmd {
	return m.compare
}

func (m *browserModel) compare() tea.Msg {
	oldTree, newTree, err := loadPair(m.oldPath, m.newPath)
	if err != nil {
		return comparedMsg{err: err}
	}
	res := diff.Compare(oldTree, newTree, diff.Options{IgnoreDefaultAdditions: m.ignore})
	return comparedMsg{res: res}
}

func (m *browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.selected > 0 {
				m.selected--
				m.syncViewport()
			}

		case "down", "j":
			if m.result != nil && m.selected < len(m.result.Entries)-1 {
				m.selected++
				m.syncViewport()
			}

		case "g":
			m.selected = 0
			m.syncViewport()

		case "G":
			if m.result != nil && len(m.result.Entries) > 0 {
				m.selected = len(m.result.Entries) - 1
				m.syncViewport()
			}
		}

	case tea.WindowSizeMsg:
		headerHeight := 2
		footerHeight := 5
		m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
		m.ready = true
		m.syncViewport()

	case comparedMsg:
		m.err = msg.err
		m.result = msg.res
		m.syncViewport()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *browserModel) syncViewport() {
	if !m.ready || m.result == nil {
		return
	}
	var b strings.Builder
	for i, e := range m.result.Entries {
		line := pathStyle.Render(e.Path.String()) + " " + kindStyle.Render(e.Kind.String())
		if i == m.selected {
			line = selectedStyle.Render("> " + e.Path.String() + " " + e.Kind.String())
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	m.viewport.SetContent(b.String())

	// Keep the selection visible.
	if m.selected < m.viewport.YOffset {
		m.viewport.SetYOffset(m.selected)
	} else if m.selected >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(m.selected - m.viewport.Height + 1)
	}
}

func (m *browserModel) View() string {
	if m.err != nil {
		return oldValStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if m.result == nil || !m.ready {
		return "Comparing trees..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("GFF Diff"))
	b.WriteString(fmt.Sprintf(" %s vs %s  [%s]\n\n", m.oldPath, m.newPath, m.result.Status))

	if len(m.result.Entries) == 0 {
		b.WriteString("No differences.\n\n")
		b.WriteString(helpStyle.Render("q quit"))
		return b.String()
	}

	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.detail())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/↓ select • g/G first/last • q quit"))
	return b.String()
}

func (m *browserModel) detail() string {
	e := m.result.Entries[m.selected]
	var b strings.Builder
	b.WriteString(pathStyle.Render(e.Path.String()))
	b.WriteString("\n")
	switch e.Kind {
	case diff.ValueChanged:
		b.WriteString(fmt.Sprintf("%s: %s -> %s\n", e.Type,
			oldValStyle.Render(e.Old.String()),
			newValStyle.Render(e.New.String())))
	case diff.FieldAdded:
		b.WriteString(fmt.Sprintf("added %s = %s\n", e.Type, newValStyle.Render(renderValue(e.New))))
	case diff.FieldMissing:
		b.WriteString(fmt.Sprintf("removed %s = %s\n", e.Type, oldValStyle.Render(renderValue(e.Old))))
	default:
		b.WriteString(e.Detail)
		b.WriteString("\n")
	}
	return b.String()
}

func renderValue(v gff.Value) string {
	switch v.Type() {
	case gff.FieldStruct:
		s, _ := v.AsStruct()
		return fmt.Sprintf("struct{id=%d, %d fields}", s.ID(), s.Len())
	case gff.FieldList:
		l, _ := v.AsList()
		return fmt.Sprintf("list{%d elements}", l.Len())
	default:
		return v.String()
	}
}

func runInteractive(oldPath, newPath string, ignoreDefaults bool) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("interactive mode needs a terminal; use -old/-new without -i")
	}
	p := tea.NewProgram(newBrowserModel(oldPath, newPath, ignoreDefaults), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
