package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	modeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	selectedItemStyle = lipgloss.NewStyle().
				PaddingLeft(1).
				Foreground(lipgloss.Color("205")).
				Bold(true)

	itemStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("208"))
)

// View renders the prompt line followed by the rows that fit the window.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(modeStyle.Render(m.view.Mode().String()))
	b.WriteString(" ")
	b.WriteString(m.input.View())
	b.WriteString("\n")

	rows := m.view.Rows()
	limit := len(rows)
	if m.height > 3 && limit > m.height-3 {
		limit = m.height - 3
	}

	// Keep the selected row visible
	first := 0
	if m.view.Selected >= limit {
		first = m.view.Selected - limit + 1
	}

	for i := first; i < first+limit && i < len(rows); i++ {
		if i == m.view.Selected {
			b.WriteString(selectedItemStyle.Render("> " + rows[i]))
		} else {
			b.WriteString(itemStyle.Render(rows[i]))
		}
		b.WriteString("\n")
	}

	if len(rows) == 0 {
		b.WriteString(dimStyle.Render("  no matches"))
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("  %v", m.err)))
		b.WriteString("\n")
	}

	b.WriteString(dimStyle.Render("  tab: mode  enter: run  esc: quit"))
	return b.String()
}
