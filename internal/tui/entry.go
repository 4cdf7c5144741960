package tui

import (
	"strings"

	"taskboard/internal/task"
)

const duePrefix = "due:"

// entry is a task typed into the input line, e.g. "Pay rent !high due:2026-11-01".
type entry struct {
	text     string
	priority task.Priority
	due      task.Date
}

// parseEntry splits s into text, a "!priority" marker, and a "due:YYYY-MM-DD"
// marker. Words that look like markers but are not valid stay in the text,
// except for a malformed due date, which is an error.
func parseEntry(s string) (entry, error) {
	e := entry{priority: task.PriorityMedium}
	var words []string
	for _, word := range strings.Fields(s) {
		if p, ok := strings.CutPrefix(word, "!"); ok && task.Priority(strings.ToLower(p)).Valid() {
			e.priority = task.Priority(strings.ToLower(p))
			continue
		}
		if d, ok := strings.CutPrefix(strings.ToLower(word), duePrefix); ok && d != "" {
			due, err := task.ParseDate(d)
			if err != nil {
				return entry{}, err
			}
			e.due = due
			continue
		}
		words = append(words, word)
	}
	e.text = strings.Join(words, " ")
	return e, nil
}

// formatEntry renders t so that parseEntry gives back the same fields.
func formatEntry(t task.Task) string {
	var b strings.Builder
	b.WriteString(t.Text)
	b.WriteString(" !")
	b.WriteString(string(t.Priority.OrDefault()))
	if !t.DueDate.IsZero() {
		b.WriteString(" " + duePrefix + t.DueDate.String())
	}
	return b.String()
}
