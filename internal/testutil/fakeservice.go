// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"taskboard/internal/query"
	"taskboard/internal/service"
	"taskboard/internal/task"
)

// FakeService is an in-memory implementation of service.Service for testing.
// It behaves like the REST task service: ids are sequential integers and the
// newest task comes first.
type FakeService struct {
	mu     sync.RWMutex
	tasks  []task.Task
	nextID int64
	now    func() time.Time

	// Error injection for testing
	ListErr   error
	StatsErr  error
	CreateErr error
	UpdateErr error
	DeleteErr error

	// Calls counts invocations per method name.
	Calls map[string]int
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{
		nextID: 1,
		now:    time.Now,
		Calls:  make(map[string]int),
	}
}

// SetClock sets the time used for createdAt and overdue stats.
func (f *FakeService) SetClock(now func() time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = now
}

// AddTask seeds a task and returns it. The newest seeded task is listed first.
func (f *FakeService) AddTask(text string, priority task.Priority, due task.Date, completed bool) task.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.newTaskLocked(text, priority, due)
	t.Completed = completed
	f.tasks = append([]task.Task{t}, f.tasks...)
	return t
}

// Tasks returns the service's current tasks.
func (f *FakeService) Tasks() []task.Task {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]task.Task, len(f.tasks))
	copy(out, f.tasks)
	return out
}

// CallCount returns how many times method was called.
func (f *FakeService) CallCount(method string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.Calls[method]
}

// List implements service.Service.
func (f *FakeService) List(ctx context.Context, filter task.Filter, search string) ([]task.Task, error) {
	f.record("List")
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return query.FilterAndSearch(f.tasks, filter, search), nil
}

// Stats implements service.Service.
func (f *FakeService) Stats(ctx context.Context) (task.Stats, error) {
	f.record("Stats")
	if f.StatsErr != nil {
		return task.Stats{}, f.StatsErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return query.ComputeStats(f.tasks, task.Today(f.now())), nil
}

// Create implements service.Service.
func (f *FakeService) Create(ctx context.Context, draft task.Draft) (task.Task, error) {
	f.record("Create")
	if f.CreateErr != nil {
		return task.Task{}, f.CreateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.newTaskLocked(draft.Text, draft.Priority, draft.DueDate)
	f.tasks = append([]task.Task{t}, f.tasks...)
	return t, nil
}

// Update implements service.Service.
func (f *FakeService) Update(ctx context.Context, id task.ID, patch task.Patch) (task.Task, error) {
	f.record("Update")
	if f.UpdateErr != nil {
		return task.Task{}, f.UpdateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tasks {
		if t.ID == id {
			updated := t.Apply(patch)
			updated.UpdatedAt = task.Timestamp{Time: f.now()}
			f.tasks[i] = updated
			return updated, nil
		}
	}
	return task.Task{}, notFound("update task")
}

// Delete implements service.Service.
func (f *FakeService) Delete(ctx context.Context, id task.ID) error {
	f.record("Delete")
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return notFound("delete task")
}

func (f *FakeService) newTaskLocked(text string, priority task.Priority, due task.Date) task.Task {
	id := f.nextID
	f.nextID++
	now := f.now()
	return task.Task{
		ID:        task.IDFromInt(id),
		Text:      text,
		Priority:  priority.OrDefault(),
		DueDate:   due,
		CreatedAt: task.Timestamp{Time: now.Add(time.Duration(id) * time.Millisecond)},
	}
}

func (f *FakeService) record(method string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls[method]++
}

func notFound(op string) error {
	return &service.Error{Op: op, Status: 404, Message: "Task not found"}
}

// ServerError returns the error a REST client reports for a 500 response
// carrying {"error": msg}.
func ServerError(op, msg string) error {
	return &service.Error{Op: op, Status: 500, Message: msg}
}

// Unreachable returns the error a REST client reports when the connection fails.
func Unreachable(op string) error {
	return &service.Error{Op: op, Err: errors.New("dial tcp 127.0.0.1:5000: connect: connection refused")}
}

var _ service.Service = (*FakeService)(nil)
