package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"taskboard/internal/query"
	"taskboard/internal/task"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).Padding(0, 1)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("237"))
	doneStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Strikethrough(true)
	overdueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("124")).Padding(0, 1)
	activeTab     = lipgloss.NewStyle().Bold(true).Underline(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	promptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("62"))

	priorityStyles = map[task.Priority]lipgloss.Style{
		task.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		task.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		task.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("108")),
	}
)

// View renders the screen.
func (m Model) View() string {
	var b strings.Builder
	today := m.store.Today()

	b.WriteString(titleStyle.Render("taskboard"))
	b.WriteString("  ")
	b.WriteString(m.renderFilters())
	if m.search != "" {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  search: %q", m.search)))
	}
	if m.loading {
		b.WriteString(dimStyle.Render("  loading..."))
	}
	b.WriteString("\n\n")

	if m.errMsg != "" {
		b.WriteString(errorStyle.Render(m.errMsg))
		b.WriteString(dimStyle.Render("  (c to dismiss)"))
		b.WriteString("\n\n")
	}

	visible := m.visible()
	if len(visible) == 0 {
		b.WriteString(dimStyle.Render("  No tasks"))
		b.WriteString("\n")
	}
	for i, t := range visible {
		b.WriteString(m.renderTask(t, i == m.cursor, today))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(renderStats(query.ComputeStats(m.tasks, today)))
	b.WriteString("\n")

	if m.mode != modeList {
		b.WriteString("\n")
		b.WriteString(m.modeLabel())
		b.WriteString("\n")
		b.WriteString(m.input.View())
		b.WriteString("\n")
		if m.inputErr != "" {
			b.WriteString(overdueStyle.Render(m.inputErr))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.helpLine()))
	return b.String()
}

func (m Model) renderFilters() string {
	parts := make([]string, len(task.Filters))
	for i, f := range task.Filters {
		if f == m.filter {
			parts[i] = activeTab.Render(string(f))
		} else {
			parts[i] = dimStyle.Render(string(f))
		}
	}
	return strings.Join(parts, " ")
}

func (m Model) renderTask(t task.Task, selected bool, today task.Date) string {
	check := "[ ]"
	if t.Completed {
		check = "[x]"
	}
	text := t.Text
	if t.Completed {
		text = doneStyle.Render(text)
	}

	p := t.Priority.OrDefault()
	line := fmt.Sprintf("%s %s %s", check, text, priorityStyles[p].Render(string(p)))
	if !t.DueDate.IsZero() {
		due := "due " + t.DueDate.String()
		if query.IsOverdue(t, today) {
			due = overdueStyle.Render(due + " overdue")
		} else {
			due = dimStyle.Render(due)
		}
		line += " " + due
	}

	if selected {
		return selectedStyle.Render("> " + line)
	}
	return "  " + line
}

func renderStats(s task.Stats) string {
	line := fmt.Sprintf("%d total  %d completed  %d pending", s.Total, s.Completed, s.Pending)
	if s.Overdue > 0 {
		return dimStyle.Render(line+"  ") + overdueStyle.Render(fmt.Sprintf("%d overdue", s.Overdue))
	}
	return dimStyle.Render(line + "  0 overdue")
}

func (m Model) modeLabel() string {
	switch m.mode {
	case modeAdd:
		return "Add task"
	case modeEdit:
		return "Edit task"
	case modeSearch:
		return "Search"
	}
	return ""
}

func (m Model) helpLine() string {
	if m.mode != modeList {
		return "enter: confirm  esc: cancel"
	}
	return "j/k: move  space: toggle  a: add  e: edit  d: delete  /: search  f: filter  r: reload  c: clear error  q: quit"
}
