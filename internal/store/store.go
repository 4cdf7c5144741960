// Package store holds the session's authoritative task list.
//
// Every mutation is attempted against the remote service first. When the
// remote call fails the store applies an equivalent local mutation, writes
// the whole list to the local cache, and records a non-fatal error message.
// Callers never receive a fault they must handle: the outcome of each
// operation is described by a Result, and the list is always usable.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"taskboard/internal/cache"
	"taskboard/internal/logging"
	"taskboard/internal/query"
	"taskboard/internal/service"
	"taskboard/internal/task"
)

// Error messages recorded when a remote call fails.
const (
	MsgOffline      = "Failed to fetch tasks. Using offline mode."
	msgAddFailed    = "Failed to add task: "
	msgUpdateFailed = "Failed to update task: "
	msgDeleteFailed = "Failed to delete task: "
)

// Result describes the outcome of a store operation.
type Result[T any] struct {
	// Value is the task (or list) the operation produced.
	Value T

	// Applied is false when the operation was skipped: blank text or an unknown id.
	Applied bool

	// Offline is true when the local fallback mutation was used.
	Offline bool

	// Err is the remote failure, if any. It has already been recorded on the store.
	Err error
}

// Snapshot is a consistent view of the store's state.
type Snapshot struct {
	Tasks   []task.Task
	Err     string
	Loading bool
}

// Store owns the in-memory task list for a session.
type Store struct {
	remote service.Service
	cache  cache.Cache
	logger *log.Logger
	now    func() time.Time
	newID  func() task.ID

	// op serializes operations so fallback snapshots never interleave.
	op sync.Mutex

	mu      sync.Mutex
	tasks   []task.Task
	errMsg  string
	loading bool
	subs    map[int]func(Snapshot)
	nextSub int
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock sets the time source used for createdAt and overdue checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator sets the generator for locally created task ids.
func WithIDGenerator(gen func() task.ID) Option {
	return func(s *Store) { s.newID = gen }
}

// New creates a store over remote with c as the offline fallback.
func New(remote service.Service, c cache.Cache, opts ...Option) *Store {
	s := &Store{
		remote: remote,
		cache:  c,
		logger: logging.Discard(),
		now:    time.Now,
		newID:  task.NewLocalID,
		tasks:  []task.Task{},
		subs:   make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close releases the cache.
func (s *Store) Close() error {
	return s.cache.Close()
}

// Load replaces the list with the remote tasks matching filter and search.
// On failure it falls back to the cached list (unfiltered) and records the
// offline message. Without a cached list the current list is kept.
func (s *Store) Load(ctx context.Context, filter task.Filter, search string) Result[[]task.Task] {
	s.op.Lock()
	defer s.op.Unlock()

	s.update(func() {
		s.loading = true
		s.errMsg = ""
	})

	tasks, err := s.remote.List(ctx, filter, search)
	if err == nil {
		if tasks == nil {
			tasks = []task.Task{}
		}
		s.logger.Debug("loaded tasks", "count", len(tasks), "filter", filter, "search", search)
		s.update(func() {
			s.tasks = cloneTasks(tasks)
			s.errMsg = ""
			s.loading = false
		})
		return Result[[]task.Task]{Value: cloneTasks(tasks), Applied: true}
	}

	s.logger.Warn("fetch tasks failed", "err", err)
	cached, ok, cerr := cache.LoadTasks(ctx, s.cache)
	if cerr != nil {
		s.logger.Warn("read cache failed", "err", cerr)
	}
	s.update(func() {
		if ok {
			s.tasks = cached
		}
		s.errMsg = MsgOffline
		s.loading = false
	})
	return Result[[]task.Task]{Value: s.Tasks(), Applied: ok, Offline: true, Err: err}
}

// Add creates a task and puts it at the head of the list.
// Text that trims to empty is ignored without contacting the remote service.
func (s *Store) Add(ctx context.Context, text string, priority task.Priority, due task.Date) Result[task.Task] {
	text, ok := task.NormalizeText(text)
	if !ok {
		return Result[task.Task]{}
	}
	priority = priority.OrDefault()

	s.op.Lock()
	defer s.op.Unlock()

	s.setLoading(true)
	created, err := s.remote.Create(ctx, task.Draft{Text: text, Priority: priority, DueDate: due})
	if err == nil {
		s.update(func() {
			s.tasks = prepend(s.tasks, created)
			s.errMsg = ""
			s.loading = false
		})
		return Result[task.Task]{Value: created, Applied: true}
	}

	local := task.Task{
		ID:        s.newID(),
		Text:      text,
		Priority:  priority,
		DueDate:   due,
		CreatedAt: task.Timestamp{Time: s.now()},
	}
	s.logger.Warn("add task failed, created locally", "id", local.ID, "err", err)
	s.fallback(ctx, msgAddFailed+err.Error(), func() {
		s.tasks = prepend(s.tasks, local)
	})
	return Result[task.Task]{Value: local, Applied: true, Offline: true, Err: err}
}

// Toggle flips the completion state of the task with id.
// Unknown ids are ignored.
func (s *Store) Toggle(ctx context.Context, id task.ID) Result[task.Task] {
	s.op.Lock()
	defer s.op.Unlock()

	current, ok := s.Find(id)
	if !ok {
		return Result[task.Task]{}
	}
	completed := !current.Completed
	return s.patch(ctx, id, task.Patch{Completed: &completed})
}

// Edit replaces the text, priority, and due date of the task with id.
// Blank text and unknown ids are ignored.
func (s *Store) Edit(ctx context.Context, id task.ID, text string, priority task.Priority, due task.Date) Result[task.Task] {
	text, ok := task.NormalizeText(text)
	if !ok {
		return Result[task.Task]{}
	}
	priority = priority.OrDefault()

	s.op.Lock()
	defer s.op.Unlock()

	if _, ok := s.Find(id); !ok {
		return Result[task.Task]{}
	}
	return s.patch(ctx, id, task.Patch{Text: &text, Priority: &priority, DueDate: &due})
}

// patch sends p for id and replaces the task in place with the server's
// record, or with the locally patched record when the call fails.
// The caller holds s.op.
func (s *Store) patch(ctx context.Context, id task.ID, p task.Patch) Result[task.Task] {
	s.setLoading(true)
	updated, err := s.remote.Update(ctx, id, p)
	if err == nil {
		s.update(func() {
			s.tasks = replace(s.tasks, id, func(prev task.Task) task.Task {
				updated = keepCreatedAt(prev, updated)
				return updated
			})
			s.errMsg = ""
			s.loading = false
		})
		return Result[task.Task]{Value: updated, Applied: true}
	}

	s.logger.Warn("update task failed, applied locally", "id", id, "err", err)
	var local task.Task
	s.fallback(ctx, msgUpdateFailed+err.Error(), func() {
		s.tasks = replace(s.tasks, id, func(t task.Task) task.Task {
			local = t.Apply(p)
			return local
		})
	})
	return Result[task.Task]{Value: local, Applied: true, Offline: true, Err: err}
}

// keepCreatedAt carries prev's creation time over to updated.
// Creation time never changes once a task exists, even when a backend
// reports a different one.
func keepCreatedAt(prev, updated task.Task) task.Task {
	if !prev.CreatedAt.IsZero() {
		updated.CreatedAt = prev.CreatedAt
	}
	return updated
}

// Remove deletes the task with id. The remote delete is always attempted;
// the local list drops the task whether or not it succeeds.
// Applied reports whether the id was in the list.
func (s *Store) Remove(ctx context.Context, id task.ID) Result[task.ID] {
	s.op.Lock()
	defer s.op.Unlock()

	_, present := s.Find(id)

	s.setLoading(true)
	err := s.remote.Delete(ctx, id)
	if err == nil {
		s.update(func() {
			s.tasks = without(s.tasks, id)
			s.errMsg = ""
			s.loading = false
		})
		return Result[task.ID]{Value: id, Applied: present}
	}

	s.logger.Warn("delete task failed, removed locally", "id", id, "err", err)
	s.fallback(ctx, msgDeleteFailed+err.Error(), func() {
		s.tasks = without(s.tasks, id)
	})
	return Result[task.ID]{Value: id, Applied: present, Offline: true, Err: err}
}

// ClearError resets the error message.
func (s *Store) ClearError() {
	s.update(func() { s.errMsg = "" })
}

// Tasks returns a copy of the current list.
func (s *Store) Tasks() []task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneTasks(s.tasks)
}

// Find returns the task with id.
func (s *Store) Find(id task.ID) (task.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return task.Task{}, false
}

// Error returns the current error message, or "".
func (s *Store) Error() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// Loading reports whether a remote call is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Today returns the current calendar day according to the store's clock.
func (s *Store) Today() task.Date {
	return task.Today(s.now())
}

// Stats derives statistics from the current list.
func (s *Store) Stats() task.Stats {
	return query.ComputeStats(s.Tasks(), s.Today())
}

// RemoteStats asks the remote service for statistics and falls back to
// Stats when it is unreachable. ok is false when the fallback was used.
func (s *Store) RemoteStats(ctx context.Context) (stats task.Stats, ok bool) {
	s.op.Lock()
	defer s.op.Unlock()

	s.setLoading(true)
	remote, err := s.remote.Stats(ctx)
	s.setLoading(false)
	if err != nil {
		s.logger.Debug("remote stats unavailable, using local list", "err", err)
		return s.Stats(), false
	}
	return remote, true
}

// Subscribe registers fn to receive a snapshot after every state change.
// fn runs on the goroutine that changed the state and must not call back
// into the store's mutating methods. The returned function unsubscribes.
func (s *Store) Subscribe(fn func(Snapshot)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// fallback applies mutate, records msg, and persists the whole list.
func (s *Store) fallback(ctx context.Context, msg string, mutate func()) {
	var snapshot []task.Task
	s.update(func() {
		mutate()
		s.errMsg = msg
		s.loading = false
		snapshot = cloneTasks(s.tasks)
	})
	if err := cache.SaveTasks(ctx, s.cache, snapshot); err != nil {
		s.logger.Error("write cache failed", "err", err)
		return
	}
	s.logger.Debug("cached task list", "count", len(snapshot))
}

func (s *Store) setLoading(v bool) {
	s.update(func() { s.loading = v })
}

// update runs fn under the state lock, then notifies subscribers.
func (s *Store) update(fn func()) {
	s.mu.Lock()
	fn()
	snap := s.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub(snap)
	}
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Tasks:   cloneTasks(s.tasks),
		Err:     s.errMsg,
		Loading: s.loading,
	}
}
