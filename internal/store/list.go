package store

import "taskboard/internal/task"

func cloneTasks(tasks []task.Task) []task.Task {
	out := make([]task.Task, len(tasks))
	copy(out, tasks)
	return out
}

// prepend puts t at the head. Newest tasks always come first.
func prepend(tasks []task.Task, t task.Task) []task.Task {
	out := make([]task.Task, 0, len(tasks)+1)
	out = append(out, t)
	return append(out, tasks...)
}

// replace swaps the task with id for fn(task), keeping its position.
func replace(tasks []task.Task, id task.ID, fn func(task.Task) task.Task) []task.Task {
	out := cloneTasks(tasks)
	for i, t := range out {
		if t.ID == id {
			out[i] = fn(t)
		}
	}
	return out
}

func without(tasks []task.Task, id task.ID) []task.Task {
	out := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}
