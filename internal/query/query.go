// Package query derives filtered views and statistics from a task list.
// All functions are pure and never reorder their input.
package query

import (
	"strings"

	"taskboard/internal/task"
)

// FilterAndSearch keeps the tasks that pass filter and whose text contains
// term, case-insensitively. Relative order is preserved.
func FilterAndSearch(tasks []task.Task, filter task.Filter, term string) []task.Task {
	needle := strings.ToLower(term)
	result := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if !filter.Matches(t) {
			continue
		}
		if !strings.Contains(strings.ToLower(t.Text), needle) {
			continue
		}
		result = append(result, t)
	}
	return result
}

// ByPriority keeps the tasks with priority p. An empty p keeps everything.
func ByPriority(tasks []task.Task, p task.Priority) []task.Task {
	if p == "" {
		return tasks
	}
	result := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Priority.OrDefault() == p {
			result = append(result, t)
		}
	}
	return result
}

// IsOverdue reports whether t has a due date before today and is not completed.
func IsOverdue(t task.Task, today task.Date) bool {
	if t.DueDate.IsZero() || t.Completed {
		return false
	}
	return t.DueDate.Before(today)
}

// ComputeStats aggregates tasks relative to today.
func ComputeStats(tasks []task.Task, today task.Date) task.Stats {
	var s task.Stats
	for _, t := range tasks {
		s.Total++
		if t.Completed {
			s.Completed++
		}
		if IsOverdue(t, today) {
			s.Overdue++
		}
		s.ByPriority.Add(t.Priority)
	}
	s.Pending = s.Total - s.Completed
	return s
}
