// Package task defines the task model shared by the store, backends, and server.
package task

import (
	"fmt"
	"strings"
)

// Task represents a single to-do item.
type Task struct {
	ID        ID        `json:"id" yaml:"id"`
	Text      string    `json:"text" yaml:"text"`
	Completed bool      `json:"completed" yaml:"completed"`
	Priority  Priority  `json:"priority" yaml:"priority"`
	DueDate   Date      `json:"dueDate" yaml:"dueDate"`
	CreatedAt Timestamp `json:"createdAt" yaml:"createdAt"`
	UpdatedAt Timestamp `json:"updatedAt,omitzero" yaml:"updatedAt,omitempty"`
}

// Draft holds the fields sent when creating a task.
type Draft struct {
	Text     string   `json:"text"`
	Priority Priority `json:"priority"`
	DueDate  Date     `json:"dueDate"`
}

// Patch holds a partial update. Nil fields are left untouched.
// A non-nil DueDate pointing at the zero Date clears the due date.
type Patch struct {
	Text      *string   `json:"text,omitempty"`
	Completed *bool     `json:"completed,omitempty"`
	Priority  *Priority `json:"priority,omitempty"`
	DueDate   *Date     `json:"dueDate,omitempty"`
}

// Apply returns a copy of t with the patch fields applied.
func (t Task) Apply(p Patch) Task {
	if p.Text != nil {
		t.Text = *p.Text
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	return t
}

// NormalizeText trims s and reports whether anything is left.
func NormalizeText(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != ""
}

// Priority is the urgency of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists the valid priorities from most to least urgent.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// ParsePriority parses a priority name (case-insensitive, trimmed).
// An empty string yields PriorityMedium.
func ParsePriority(s string) (Priority, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return PriorityMedium, nil
	}
	p := Priority(s)
	if !p.Valid() {
		return "", fmt.Errorf("invalid priority: %s (must be low, medium, or high)", s)
	}
	return p, nil
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// OrDefault returns p, or PriorityMedium if p is not valid.
func (p Priority) OrDefault() Priority {
	if p.Valid() {
		return p
	}
	return PriorityMedium
}

// Filter selects tasks by completion state.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

// Filters lists the filters in display order.
var Filters = []Filter{FilterAll, FilterActive, FilterCompleted}

// ParseFilter parses a filter name. An empty string yields FilterAll.
func ParseFilter(s string) (Filter, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch Filter(s) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterActive, FilterCompleted:
		return Filter(s), nil
	}
	return "", fmt.Errorf("invalid filter: %s (must be all, active, or completed)", s)
}

// Matches reports whether t passes the completion filter.
func (f Filter) Matches(t Task) bool {
	switch f {
	case FilterActive:
		return !t.Completed
	case FilterCompleted:
		return t.Completed
	default:
		return true
	}
}

// Next returns the filter that follows f in Filters, wrapping around.
func (f Filter) Next() Filter {
	for i, candidate := range Filters {
		if candidate == f {
			return Filters[(i+1)%len(Filters)]
		}
	}
	return FilterAll
}

// Stats is an aggregate over a task list.
type Stats struct {
	Total      int            `json:"total" yaml:"total"`
	Completed  int            `json:"completed" yaml:"completed"`
	Pending    int            `json:"pending" yaml:"pending"`
	Overdue    int            `json:"overdue" yaml:"overdue"`
	ByPriority PriorityCounts `json:"by_priority" yaml:"by_priority"`
}

// PriorityCounts counts tasks per priority.
type PriorityCounts struct {
	High   int `json:"high" yaml:"high"`
	Medium int `json:"medium" yaml:"medium"`
	Low    int `json:"low" yaml:"low"`
}

// Add increments the counter for p. Unknown priorities count as medium.
func (c *PriorityCounts) Add(p Priority) {
	switch p.OrDefault() {
	case PriorityHigh:
		c.High++
	case PriorityLow:
		c.Low++
	default:
		c.Medium++
	}
}
