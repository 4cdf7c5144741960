// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"taskboard/internal/query"
	"taskboard/internal/task"
)

// FormatTask formats a task line for the list command.
// Format: "{N:>4}  [x] {TEXT} ({PRIORITY})[ due:{DATE}][ overdue]  #{ID}\n"
func FormatTask(w io.Writer, num int, t task.Task, today task.Date) {
	box := "[ ]"
	if t.Completed {
		box = "[x]"
	}
	fmt.Fprintf(w, "%4d  %s %s (%s)", num, box, normalizeText(t.Text), t.Priority.OrDefault())
	if !t.DueDate.IsZero() {
		fmt.Fprintf(w, " due:%s", t.DueDate)
	}
	if query.IsOverdue(t, today) {
		fmt.Fprint(w, " overdue")
	}
	fmt.Fprintf(w, "  #%s\n", t.ID)
}

// FormatStats formats statistics for the stats command.
func FormatStats(w io.Writer, s task.Stats) {
	fmt.Fprintf(w, "total:     %d\n", s.Total)
	fmt.Fprintf(w, "completed: %d\n", s.Completed)
	fmt.Fprintf(w, "pending:   %d\n", s.Pending)
	fmt.Fprintf(w, "overdue:   %d\n", s.Overdue)
	fmt.Fprintf(w, "priority:  high %d, medium %d, low %d\n",
		s.ByPriority.High, s.ByPriority.Medium, s.ByPriority.Low)
}

// normalizeText normalizes task text for display.
// - Empty or whitespace-only text becomes "(untitled)"
// - Newlines are replaced with spaces
func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r", " ")
	text = strings.ReplaceAll(text, "\n", " ")

	if strings.TrimSpace(text) == "" {
		return "(untitled)"
	}
	return text
}
