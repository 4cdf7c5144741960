// Package cache provides the local key-value snapshot store used when the
// remote task service is unreachable.
package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"taskboard/internal/task"
)

// TasksKey holds the JSON-encoded task list.
const TasksKey = "tasks"

// Drivers accepted by Open.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Cache is a persisted key-value store. Set replaces the whole value.
type Cache interface {
	// Get returns the value for key. ok is false when the key was never set.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Close releases resources held by the cache.
	Close() error
}

// Open creates a cache for driver rooted at path.
// For the file driver path is a directory; for sqlite it is the database file.
func Open(driver, path string) (Cache, error) {
	switch driver {
	case "", DriverFile:
		return NewFile(path)
	case DriverSQLite:
		return NewSQLite(path)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown cache driver: %s", driver)
	}
}

// LoadTasks reads the cached task list.
func LoadTasks(ctx context.Context, c Cache) ([]task.Task, bool, error) {
	data, ok, err := c.Get(ctx, TasksKey)
	if err != nil || !ok {
		return nil, false, err
	}
	var tasks []task.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, false, fmt.Errorf("decoding cached tasks: %w", err)
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	return tasks, true, nil
}

// SaveTasks overwrites the cached task list with tasks.
func SaveTasks(ctx context.Context, c Cache, tasks []task.Task) error {
	if tasks == nil {
		tasks = []task.Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("encoding tasks: %w", err)
	}
	return c.Set(ctx, TasksKey, data)
}
