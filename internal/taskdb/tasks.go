package taskdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskboard/internal/task"
)

// Query selects tasks for List.
type Query struct {
	Filter   task.Filter
	Search   string
	Priority task.Priority
}

const selectColumns = `SELECT id, text, completed, priority, due_date, created_at, updated_at FROM tasks`

// List returns tasks matching q, newest first.
func (d *DB) List(ctx context.Context, q Query) ([]task.Task, error) {
	var where []string
	var args []any

	switch q.Filter {
	case task.FilterActive:
		where = append(where, "completed = ?")
		args = append(args, false)
	case task.FilterCompleted:
		where = append(where, "completed = ?")
		args = append(args, true)
	}
	if q.Search != "" {
		where = append(where, "LOWER(text) LIKE ? ESCAPE '!'")
		args = append(args, "%"+escapeLike(strings.ToLower(q.Search))+"%")
	}
	if q.Priority != "" {
		where = append(where, "priority = ?")
		args = append(args, string(q.Priority))
	}

	stmt := selectColumns
	if len(where) > 0 {
		stmt += " WHERE " + strings.Join(where, " AND ")
	}
	stmt += " ORDER BY created_at DESC, id DESC"

	rows, err := d.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Get returns the task with id.
func (d *DB) Get(ctx context.Context, id int64) (task.Task, error) {
	return d.get(ctx, d.db, id)
}

// Create inserts a task built from draft.
func (d *DB) Create(ctx context.Context, draft task.Draft) (task.Task, error) {
	now := formatTime(d.now())
	res, err := d.db.ExecContext(ctx,
		`INSERT INTO tasks (text, completed, priority, due_date, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		draft.Text, false, string(draft.Priority.OrDefault()), nullDate(draft.DueDate), now, now)
	if err != nil {
		return task.Task{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return task.Task{}, err
	}
	return d.Get(ctx, id)
}

// Update applies patch to the task with id and returns the result.
func (d *DB) Update(ctx context.Context, id int64, patch task.Patch) (task.Task, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return task.Task{}, err
	}
	defer tx.Rollback()

	if _, err := d.get(ctx, tx, id); err != nil {
		return task.Task{}, err
	}
	if err := d.patch(ctx, tx, id, patch); err != nil {
		return task.Task{}, err
	}
	updated, err := d.get(ctx, tx, id)
	if err != nil {
		return task.Task{}, err
	}
	return updated, tx.Commit()
}

// BulkUpdate applies patch to every id. Nothing changes unless all ids exist.
func (d *DB) BulkUpdate(ctx context.Context, ids []int64, patch task.Patch) ([]task.Task, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	for _, id := range ids {
		if _, err := d.get(ctx, tx, id); err != nil {
			return nil, err
		}
	}
	updated := make([]task.Task, 0, len(ids))
	for _, id := range ids {
		if err := d.patch(ctx, tx, id, patch); err != nil {
			return nil, err
		}
		t, err := d.get(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		updated = append(updated, t)
	}
	return updated, tx.Commit()
}

// Delete removes the task with id.
func (d *DB) Delete(ctx context.Context, id int64) error {
	res, err := d.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats aggregates all tasks relative to today.
func (d *DB) Stats(ctx context.Context, today task.Date) (task.Stats, error) {
	var s task.Stats
	err := d.db.QueryRowContext(ctx, `SELECT
		COUNT(*),
		COALESCE(SUM(CASE WHEN completed THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN NOT completed AND due_date IS NOT NULL AND due_date < ? THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN priority = 'high' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN priority = 'medium' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN priority = 'low' THEN 1 ELSE 0 END), 0)
		FROM tasks`, today.String()).
		Scan(&s.Total, &s.Completed, &s.Overdue, &s.ByPriority.High, &s.ByPriority.Medium, &s.ByPriority.Low)
	if err != nil {
		return task.Stats{}, err
	}
	s.Pending = s.Total - s.Completed
	return s, nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (d *DB) get(ctx context.Context, q querier, id int64) (task.Task, error) {
	row := q.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return task.Task{}, ErrNotFound
	}
	return t, err
}

func (d *DB) patch(ctx context.Context, q querier, id int64, p task.Patch) error {
	sets := []string{"updated_at = ?"}
	args := []any{formatTime(d.now())}
	if p.Text != nil {
		sets = append(sets, "text = ?")
		args = append(args, *p.Text)
	}
	if p.Completed != nil {
		sets = append(sets, "completed = ?")
		args = append(args, *p.Completed)
	}
	if p.Priority != nil {
		sets = append(sets, "priority = ?")
		args = append(args, string(*p.Priority))
	}
	if p.DueDate != nil {
		sets = append(sets, "due_date = ?")
		args = append(args, nullDate(*p.DueDate))
	}
	args = append(args, id)
	_, err := q.ExecContext(ctx, `UPDATE tasks SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (task.Task, error) {
	var (
		id               int64
		t                task.Task
		priority         string
		due              sql.NullString
		created, updated string
	)
	if err := s.Scan(&id, &t.Text, &t.Completed, &priority, &due, &created, &updated); err != nil {
		return task.Task{}, err
	}
	t.ID = task.IDFromInt(id)
	t.Priority = task.Priority(priority).OrDefault()
	if due.Valid && due.String != "" {
		d, err := task.ParseDate(due.String)
		if err != nil {
			return task.Task{}, fmt.Errorf("task %d: %w", id, err)
		}
		t.DueDate = d
	}
	var err error
	if t.CreatedAt, err = task.ParseTimestamp(created); err != nil {
		return task.Task{}, fmt.Errorf("task %d: %w", id, err)
	}
	if t.UpdatedAt, err = task.ParseTimestamp(updated); err != nil {
		return task.Task{}, fmt.Errorf("task %d: %w", id, err)
	}
	return t, nil
}

func nullDate(d task.Date) sql.NullString {
	if d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// escapeLike escapes LIKE wildcards using '!' as the escape character.
func escapeLike(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(s)
}
