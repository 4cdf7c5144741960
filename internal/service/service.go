// Package service defines the backend-agnostic interface to a remote task service.
package service

import (
	"context"

	"taskboard/internal/task"
)

// Service defines the remote task operations.
// The store talks to every backend through this interface;
// nothing outside internal/backend imports an HTTP or SDK client directly.
type Service interface {
	// List returns tasks matching filter and search, newest first.
	List(ctx context.Context, filter task.Filter, search string) ([]task.Task, error)

	// Stats returns aggregate counts computed by the service.
	Stats(ctx context.Context) (task.Stats, error)

	// Create creates a task and returns it with its assigned id.
	Create(ctx context.Context, draft task.Draft) (task.Task, error)

	// Update applies a partial update and returns the full updated task.
	Update(ctx context.Context, id task.ID, patch task.Patch) (task.Task, error)

	// Delete removes a task.
	Delete(ctx context.Context, id task.ID) error
}

// Offline is a Service whose every call fails immediately.
// It forces the store onto its local cache.
type Offline struct{}

func (Offline) List(ctx context.Context, filter task.Filter, search string) ([]task.Task, error) {
	return nil, offlineError("list tasks")
}

func (Offline) Stats(ctx context.Context) (task.Stats, error) {
	return task.Stats{}, offlineError("get stats")
}

func (Offline) Create(ctx context.Context, draft task.Draft) (task.Task, error) {
	return task.Task{}, offlineError("create task")
}

func (Offline) Update(ctx context.Context, id task.ID, patch task.Patch) (task.Task, error) {
	return task.Task{}, offlineError("update task")
}

func (Offline) Delete(ctx context.Context, id task.ID) error {
	return offlineError("delete task")
}

func offlineError(op string) error {
	return &Error{Op: op, Message: "offline mode"}
}
