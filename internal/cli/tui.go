package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// FlowPickerModel is the bubbletea model for interactive flow selection.
type FlowPickerModel struct {
	Flows    []string
	Cursor   int
	Selected string // Chosen flow, empty until enter is pressed
	Height   int    // Visible rows
	Offset   int    // First visible row
}

// NewFlowPickerModel creates a picker over flows.
func NewFlowPickerModel(flows []string) FlowPickerModel {
	return FlowPickerModel{Flows: flows, Height: 15}
}

func (m FlowPickerModel) Init() tea.Cmd {
	return nil
}

func (m FlowPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Flows)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Flows) == 0 {
				return m, tea.Quit
			}
			m.Selected = m.Flows[m.Cursor]
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m FlowPickerModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Flow"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Flows))
	for i := m.Offset; i < end; i++ {
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render("▸ " + m.Flows[i]))
		} else {
			b.WriteString(listNormalStyle.Render("  " + m.Flows[i]))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Flows))))
	return b.String()
}
