package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"taskboard/internal/store"
	"taskboard/internal/task"
)

// TaskRef represents a parsed task reference.
type TaskRef struct {
	Num int     // 1-based position in the full list, 0 when ID is set
	ID  task.ID // explicit id from a "#<id>" reference
}

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task reference required")

// ParseTaskRef parses the task reference in args[0].
//
// Parsing rules:
// 1. All digits → position in the full task list (as printed by list)
// 2. "#" followed by an id → that id, e.g. #12 or #local-0192...
// 3. Otherwise → error: invalid task reference: <ref>
func ParseTaskRef(args []string) (TaskRef, error) {
	if len(args) == 0 {
		return TaskRef{}, ErrTaskRefRequired
	}

	arg := args[0]

	if isAllDigits(arg) {
		num, err := strconv.Atoi(arg)
		if err != nil {
			return TaskRef{}, fmt.Errorf("invalid task reference: %s", arg)
		}
		return TaskRef{Num: num}, nil
	}

	if id, ok := strings.CutPrefix(arg, "#"); ok {
		if strings.TrimSpace(id) == "" {
			return TaskRef{}, ErrTaskRefRequired
		}
		return TaskRef{ID: task.ID(id)}, nil
	}

	return TaskRef{}, fmt.Errorf("invalid task reference: %s", arg)
}

// Resolve finds the referenced task in the store's current list.
func (r TaskRef) Resolve(st *store.Store) (task.Task, error) {
	if r.ID != "" {
		t, ok := st.Find(r.ID)
		if !ok {
			return task.Task{}, fmt.Errorf("task not found: #%s", r.ID)
		}
		return t, nil
	}
	tasks := st.Tasks()
	if r.Num < 1 || r.Num > len(tasks) {
		return task.Task{}, fmt.Errorf("task number out of range: %d", r.Num)
	}
	return tasks[r.Num-1], nil
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
