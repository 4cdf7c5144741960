package googletasks

import (
	"strings"
	"time"

	"taskboard/internal/task"
)

// Google Tasks has no priority or creation fields, so both are kept as
// "key: value" lines in the task notes.
const (
	priorityPrefix = "priority:"
	createdPrefix  = "created:"
)

// noteValue returns the trimmed value of the first line starting with prefix.
func noteValue(notes, prefix string) (string, bool) {
	for _, line := range strings.Split(notes, "\n") {
		line = strings.TrimSpace(line)
		if len(line) >= len(prefix) && strings.EqualFold(line[:len(prefix)], prefix) {
			return strings.TrimSpace(line[len(prefix):]), true
		}
	}
	return "", false
}

// priorityFromNotes reads the "priority: <p>" line. Tasks created outside
// taskboard have none and default to medium.
func priorityFromNotes(notes string) task.Priority {
	if v, ok := noteValue(notes, priorityPrefix); ok {
		if p, err := task.ParsePriority(strings.ToLower(v)); err == nil {
			return p
		}
	}
	return task.PriorityMedium
}

// createdFromNotes reads the "created: <RFC 3339>" line written by Create.
func createdFromNotes(notes string) (task.Timestamp, bool) {
	v, ok := noteValue(notes, createdPrefix)
	if !ok {
		return task.Timestamp{}, false
	}
	ts, err := task.ParseTimestamp(v)
	return ts, err == nil
}

// setPriority replaces the priority line in notes, keeping any other text.
func setPriority(notes string, p task.Priority) string {
	line := priorityPrefix + " " + string(p.OrDefault())
	if notes == "" {
		return line
	}
	lines := strings.Split(notes, "\n")
	for i, l := range lines {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(l)), priorityPrefix) {
			lines[i] = line
			return strings.Join(lines, "\n")
		}
	}
	return line + "\n" + notes
}

// newNotes builds the notes for a task created at created.
func newNotes(p task.Priority, created time.Time) string {
	return setPriority("", p) + "\n" + createdPrefix + " " + created.UTC().Format(time.RFC3339)
}
