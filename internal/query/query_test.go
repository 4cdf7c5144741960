package query

import (
	"testing"

	"taskboard/internal/task"
)

var today = task.NewDate(2026, 10, 19)

func sample() []task.Task {
	return []task.Task{
		{ID: "1", Text: "Buy MILK", Completed: true, Priority: task.PriorityLow},
		{ID: "2", Text: "Write report", Priority: task.PriorityHigh, DueDate: today.AddDays(-1)},
		{ID: "3", Text: "Call plumber", Completed: true, Priority: task.PriorityHigh},
		{ID: "4", Text: "buy bread", Priority: task.PriorityMedium, DueDate: today},
	}
}

func ids(tasks []task.Task) string {
	s := ""
	for _, t := range tasks {
		s += string(t.ID)
	}
	return s
}

func TestFilterAndSearch_CompletedKeepsOrder(t *testing.T) {
	got := FilterAndSearch(sample(), task.FilterCompleted, "")
	if ids(got) != "13" {
		t.Errorf("expected tasks 1,3 in order, got %s", ids(got))
	}
}

func TestFilterAndSearch_ActiveAndAll(t *testing.T) {
	if got := FilterAndSearch(sample(), task.FilterActive, ""); ids(got) != "24" {
		t.Errorf("expected tasks 2,4, got %s", ids(got))
	}
	if got := FilterAndSearch(sample(), task.FilterAll, ""); ids(got) != "1234" {
		t.Errorf("expected all tasks, got %s", ids(got))
	}
}

func TestFilterAndSearch_CaseInsensitive(t *testing.T) {
	got := FilterAndSearch(sample(), task.FilterAll, "BuY")
	if ids(got) != "14" {
		t.Errorf("expected tasks 1,4, got %s", ids(got))
	}
	got = FilterAndSearch(sample(), task.FilterActive, "buy")
	if ids(got) != "4" {
		t.Errorf("expected task 4, got %s", ids(got))
	}
	if got := FilterAndSearch(nil, task.FilterAll, "x"); len(got) != 0 {
		t.Errorf("expected empty result, got %d", len(got))
	}
}

func TestByPriority(t *testing.T) {
	if got := ByPriority(sample(), task.PriorityHigh); ids(got) != "23" {
		t.Errorf("expected tasks 2,3, got %s", ids(got))
	}
	if got := ByPriority(sample(), ""); len(got) != 4 {
		t.Errorf("expected all tasks, got %d", len(got))
	}
}

func TestIsOverdue(t *testing.T) {
	past := today.AddDays(-3)
	cases := []struct {
		name string
		t    task.Task
		want bool
	}{
		{"past due, open", task.Task{DueDate: past}, true},
		{"past due, completed", task.Task{DueDate: past, Completed: true}, false},
		{"due today", task.Task{DueDate: today}, false},
		{"no due date", task.Task{}, false},
	}
	for _, tc := range cases {
		if got := IsOverdue(tc.t, today); got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestComputeStats_CompletedAndYesterday(t *testing.T) {
	tasks := []task.Task{
		{Completed: true},
		{Completed: false, DueDate: today.AddDays(-1)},
	}
	got := ComputeStats(tasks, today)
	if got.Total != 2 || got.Completed != 1 || got.Pending != 1 || got.Overdue != 1 {
		t.Errorf("unexpected stats: %+v", got)
	}
	// Missing priorities count as medium.
	if got.ByPriority.Medium != 2 {
		t.Errorf("expected 2 medium, got %+v", got.ByPriority)
	}
}

func TestComputeStats_Breakdown(t *testing.T) {
	got := ComputeStats(sample(), today)
	want := task.Stats{
		Total: 4, Completed: 2, Pending: 2, Overdue: 1,
		ByPriority: task.PriorityCounts{High: 2, Medium: 1, Low: 1},
	}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}
