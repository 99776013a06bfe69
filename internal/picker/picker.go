// Package picker is the interactive component selector: a terminal list of
// the catalogue with checkboxes, kind shortcuts and a name filter.
package picker

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/damischa1/plcopen2flow/internal/catalog"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("24")).Padding(0, 1)
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	checkStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	kindStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	filterStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("24")).Padding(0, 1)
)

const help = "↑/↓ move • space toggle • a all • n none • p programs • f FBs • / filter • enter convert • q quit"

// Model is the bubbletea model of the picker.
type Model struct {
	items     []catalog.Component
	selected  []bool
	visible   []int // indexes into items that pass the filter
	cursor    int   // index into visible
	filter    textinput.Model
	filtering bool
	height    int
	done      bool
	cancelled bool
}

// New returns a picker over items with every item selected.
func New(items []catalog.Component) Model {
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "name"
	ti.CharLimit = 128

	m := Model{
		items:    items,
		selected: make([]bool, len(items)),
		filter:   ti,
		height:   20,
	}
	for i := range m.selected {
		m.selected[i] = true
	}
	m.applyFilter()
	return m
}

// Run shows the picker and returns the chosen components. ok is false when
// the user quit without confirming.
func Run(items []catalog.Component) (chosen []catalog.Component, ok bool, err error) {
	final, err := tea.NewProgram(New(items), tea.WithAltScreen()).Run()
	if err != nil {
		return nil, false, err
	}
	m := final.(Model)
	if m.cancelled || !m.done {
		return nil, false, nil
	}
	return m.Selected(), true, nil
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height - 4
		if m.height < 1 {
			m.height = 1
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.cancelled = true
			return m, tea.Quit
		}
		if m.filtering {
			return m.updateFilter(msg)
		}

		switch msg.String() {
		case "q", "esc":
			m.cancelled = true
			return m, tea.Quit
		case "enter":
			m.done = true
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.visible)-1 {
				m.cursor++
			}
		case " ", "space", "x":
			if len(m.visible) > 0 {
				i := m.visible[m.cursor]
				m.selected[i] = !m.selected[i]
			}
		case "a":
			m.selectVisible(func(catalog.Component) bool { return true })
		case "n":
			m.selectVisible(func(catalog.Component) bool { return false })
		case "p":
			m.selectVisible(func(c catalog.Component) bool { return c.Kind == catalog.KindProgram })
		case "f":
			m.selectVisible(func(c catalog.Component) bool { return c.Kind == catalog.KindFunctionBlock })
		case "/":
			m.filtering = true
			return m, m.filter.Focus()
		}
	}
	return m, nil
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.filtering = false
		m.filter.Blur()
		return m, nil
	case "esc":
		m.filtering = false
		m.filter.Blur()
		m.filter.SetValue("")
		m.applyFilter()
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

// selectVisible sets the selection of every visible item to pick(item);
// hidden items keep their state.
func (m *Model) selectVisible(pick func(catalog.Component) bool) {
	for _, i := range m.visible {
		m.selected[i] = pick(m.items[i])
	}
}

func (m *Model) applyFilter() {
	q := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	visible := make([]int, 0, len(m.items))
	for i, c := range m.items {
		if q == "" || strings.Contains(strings.ToLower(c.Name), q) {
			visible = append(visible, i)
		}
	}
	m.visible = visible
	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// Selected returns the selected components in catalogue order.
func (m Model) Selected() []catalog.Component {
	var out []catalog.Component
	for i, c := range m.items {
		if m.selected[i] {
			out = append(out, c)
		}
	}
	return out
}

func (m Model) View() string {
	var sb strings.Builder
	n := 0
	for _, s := range m.selected {
		if s {
			n++
		}
	}
	sb.WriteString(titleStyle.Render(fmt.Sprintf("plcopen2flow: %d of %d selected", n, len(m.items))))
	sb.WriteString("\n")
	if m.filtering || m.filter.Value() != "" {
		sb.WriteString(filterStyle.Render(m.filter.View()))
		sb.WriteString("\n")
	}

	// keep the cursor inside the window
	start := 0
	if m.cursor >= m.height {
		start = m.cursor - m.height + 1
	}
	end := start + m.height
	if end > len(m.visible) {
		end = len(m.visible)
	}
	for vi := start; vi < end; vi++ {
		c := m.items[m.visible[vi]]
		pointer := "  "
		if vi == m.cursor {
			pointer = cursorStyle.Render("> ")
		}
		box := "[ ]"
		if m.selected[m.visible[vi]] {
			box = checkStyle.Render("[x]")
		}
		calls := ""
		if len(c.SubCalls) > 0 {
			calls = helpStyle.Render(" → " + strings.Join(c.SubCalls, ", "))
		}
		fmt.Fprintf(&sb, "%s%s %s %s%s\n", pointer, box, kindStyle.Render(fmt.Sprintf("%-8s", c.Kind.Label())), c.Name, calls)
	}
	if len(m.visible) == 0 {
		sb.WriteString(helpStyle.Render("  no component matches the filter"))
		sb.WriteString("\n")
	}
	sb.WriteString(helpStyle.Render(help))
	return sb.String()
}
