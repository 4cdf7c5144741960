package taskdb

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"taskboard/internal/task"
)

func openTestDB(t *testing.T) (*DB, *time.Time) {
	t.Helper()
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	db, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "tasks.db"), WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, &now
}

func mustCreate(t *testing.T, db *DB, now *time.Time, text string, p task.Priority, due task.Date) task.Task {
	t.Helper()
	*now = now.Add(time.Second)
	created, err := db.Create(context.Background(), task.Draft{Text: text, Priority: p, DueDate: due})
	if err != nil {
		t.Fatalf("create %q: %v", text, err)
	}
	return created
}

func TestCreateAndGet(t *testing.T) {
	db, now := openTestDB(t)
	due := task.NewDate(2026, 10, 25)

	created := mustCreate(t, db, now, "Write report", task.PriorityHigh, due)

	if created.ID != "1" || created.Completed || created.Priority != task.PriorityHigh {
		t.Errorf("unexpected task %+v", created)
	}
	if !created.DueDate.Equal(due) || !created.CreatedAt.Equal(*now) {
		t.Errorf("unexpected dates %+v", created)
	}

	got, err := db.Get(context.Background(), 1)
	if err != nil || got.Text != "Write report" {
		t.Errorf("unexpected get %+v %v", got, err)
	}
	if _, err := db.Get(context.Background(), 99); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestList_NewestFirstWithFilters(t *testing.T) {
	db, now := openTestDB(t)
	ctx := context.Background()
	mustCreate(t, db, now, "Buy milk", task.PriorityLow, task.Date{})
	bread := mustCreate(t, db, now, "buy bread 100%", task.PriorityHigh, task.Date{})
	mustCreate(t, db, now, "walk dog", task.PriorityHigh, task.Date{})
	done := true
	db.Update(ctx, 2, task.Patch{Completed: &done})

	all, err := db.List(ctx, Query{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].Text != "walk dog" || all[2].Text != "Buy milk" {
		t.Errorf("expected newest first, got %+v", all)
	}

	active, _ := db.List(ctx, Query{Filter: task.FilterActive, Search: "BUY"})
	if len(active) != 1 || active[0].Text != "Buy milk" {
		t.Errorf("unexpected active search %+v", active)
	}
	completed, _ := db.List(ctx, Query{Filter: task.FilterCompleted})
	if len(completed) != 1 || completed[0].ID != bread.ID {
		t.Errorf("unexpected completed %+v", completed)
	}
	high, _ := db.List(ctx, Query{Priority: task.PriorityHigh})
	if len(high) != 2 {
		t.Errorf("expected two high priority tasks, got %d", len(high))
	}
	// Wildcards in the search term are literal.
	pct, _ := db.List(ctx, Query{Search: "100%"})
	if len(pct) != 1 {
		t.Errorf("expected literal %% match, got %+v", pct)
	}
	under, _ := db.List(ctx, Query{Search: "_"})
	if len(under) != 0 {
		t.Errorf("underscore should not match any character, got %+v", under)
	}
}

func TestUpdate_Partial(t *testing.T) {
	db, now := openTestDB(t)
	mustCreate(t, db, now, "draft", task.PriorityLow, task.NewDate(2026, 10, 1))
	*now = now.Add(time.Minute)

	text := "final"
	none := task.Date{}
	updated, err := db.Update(context.Background(), 1, task.Patch{Text: &text, DueDate: &none})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Text != "final" || !updated.DueDate.IsZero() || updated.Priority != task.PriorityLow {
		t.Errorf("unexpected update %+v", updated)
	}
	if !updated.UpdatedAt.Equal(*now) || updated.CreatedAt.Equal(*now) {
		t.Errorf("expected only updatedAt to move: %+v", updated)
	}

	if _, err := db.Update(context.Background(), 42, task.Patch{Text: &text}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestBulkUpdate_AllOrNothing(t *testing.T) {
	db, now := openTestDB(t)
	ctx := context.Background()
	mustCreate(t, db, now, "a", task.PriorityLow, task.Date{})
	mustCreate(t, db, now, "b", task.PriorityLow, task.Date{})

	high := task.PriorityHigh
	if _, err := db.BulkUpdate(ctx, []int64{1, 7}, task.Patch{Priority: &high}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if got, _ := db.Get(ctx, 1); got.Priority != task.PriorityLow {
		t.Error("failed bulk update must not change any task")
	}

	updated, err := db.BulkUpdate(ctx, []int64{1, 2}, task.Patch{Priority: &high})
	if err != nil || len(updated) != 2 {
		t.Fatalf("unexpected result %v %v", updated, err)
	}
	for _, u := range updated {
		if u.Priority != task.PriorityHigh {
			t.Errorf("expected high priority, got %+v", u)
		}
	}
}

func TestDelete(t *testing.T) {
	db, now := openTestDB(t)
	mustCreate(t, db, now, "gone", task.PriorityLow, task.Date{})

	if err := db.Delete(context.Background(), 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := db.Delete(context.Background(), 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStats(t *testing.T) {
	db, now := openTestDB(t)
	ctx := context.Background()
	today := task.NewDate(2026, 10, 19)

	empty, err := db.Stats(ctx, today)
	if err != nil || empty != (task.Stats{}) {
		t.Fatalf("expected zero stats, got %+v %v", empty, err)
	}

	mustCreate(t, db, now, "late", task.PriorityHigh, today.AddDays(-1))
	mustCreate(t, db, now, "due today", task.PriorityMedium, today)
	mustCreate(t, db, now, "late but done", task.PriorityLow, today.AddDays(-3))
	done := true
	db.Update(ctx, 3, task.Patch{Completed: &done})

	s, err := db.Stats(ctx, today)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	want := task.Stats{Total: 3, Completed: 1, Pending: 2, Overdue: 1,
		ByPriority: task.PriorityCounts{High: 1, Medium: 1, Low: 1}}
	if s != want {
		t.Errorf("expected %+v, got %+v", want, s)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open("postgres", "x"); err == nil {
		t.Error("expected error")
	}
}
