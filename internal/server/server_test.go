package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"taskboard/internal/backend/restapi"
	"taskboard/internal/task"
	"taskboard/internal/taskdb"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testNow = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*Server, *taskdb.DB) {
	t.Helper()
	clock := testNow
	now := func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	db, err := taskdb.Open(taskdb.DriverSQLite, filepath.Join(t.TempDir(), "tasks.db"), taskdb.WithClock(now))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db, WithClock(func() time.Time { return testNow })), db
}

func doJSON(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return body.Error
}

func decodeTask(t *testing.T, w *httptest.ResponseRecorder) task.Task {
	t.Helper()
	var got task.Task
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode task %q: %v", w.Body.String(), err)
	}
	return got
}

func createTask(t *testing.T, s *Server, body string) task.Task {
	t.Helper()
	w := doJSON(t, s, http.MethodPost, "/api/tasks", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create %s: status %d body %s", body, w.Code, w.Body.String())
	}
	return decodeTask(t, w)
}

func TestIndex(t *testing.T) {
	s, _ := newTestServer(t)
	w := doJSON(t, s, http.MethodGet, "/", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Task Management API") {
		t.Errorf("unexpected index %s", w.Body.String())
	}
}

func TestCreate(t *testing.T) {
	s, _ := newTestServer(t)

	got := createTask(t, s, `{"text":"  Write report  ","priority":"high","dueDate":"2026-10-25"}`)
	if got.ID != "1" || got.Text != "Write report" || got.Priority != task.PriorityHigh {
		t.Errorf("unexpected task %+v", got)
	}
	if got.DueDate.String() != "2026-10-25" || got.Completed {
		t.Errorf("unexpected task %+v", got)
	}

	defaults := createTask(t, s, `{"text":"Buy milk","dueDate":null}`)
	if defaults.Priority != task.PriorityMedium || !defaults.DueDate.IsZero() {
		t.Errorf("expected medium priority and no due date, got %+v", defaults)
	}

	done := createTask(t, s, `{"text":"Already done","completed":true}`)
	if !done.Completed {
		t.Errorf("expected completed task, got %+v", done)
	}
}

func TestCreate_Validation(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
		code int
		msg  string
	}{
		{"missing text", `{"priority":"high"}`, 400, msgTextRequired},
		{"blank text", `{"text":"   "}`, 400, msgTextRequired},
		{"text wrong type", `{"text":5}`, 400, msgTextRequired},
		{"text too long", `{"text":"` + strings.Repeat("x", 501) + `"}`, 400, msgTextTooLong},
		{"bad priority", `{"text":"a","priority":"urgent"}`, 400, msgBadPriority},
		{"bad date format", `{"text":"a","dueDate":"25/10/2026"}`, 400, msgBadDueDate},
		{"impossible date", `{"text":"a","dueDate":"2026-02-30"}`, 400, msgBadDueDate},
		{"array body", `[]`, 400, msgTextRequired},
		{"malformed json", `{"text":`, 400, msgBadRequest},
		{"empty body", ``, 400, msgBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, s, http.MethodPost, "/api/tasks", tt.body)
			if w.Code != tt.code {
				t.Fatalf("expected %d, got %d (%s)", tt.code, w.Code, w.Body.String())
			}
			if msg := errorMessage(t, w); msg != tt.msg {
				t.Errorf("expected %q, got %q", tt.msg, msg)
			}
		})
	}
}

func TestList(t *testing.T) {
	s, _ := newTestServer(t)
	createTask(t, s, `{"text":"Buy milk","priority":"low"}`)
	createTask(t, s, `{"text":"Buy bread","priority":"high","completed":true}`)
	createTask(t, s, `{"text":"Walk dog","priority":"high"}`)

	list := func(query string) []task.Task {
		t.Helper()
		w := doJSON(t, s, http.MethodGet, "/api/tasks"+query, "")
		if w.Code != http.StatusOK {
			t.Fatalf("list %s: %d %s", query, w.Code, w.Body.String())
		}
		var tasks []task.Task
		if err := json.Unmarshal(w.Body.Bytes(), &tasks); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return tasks
	}

	all := list("")
	if len(all) != 3 || all[0].Text != "Walk dog" || all[2].Text != "Buy milk" {
		t.Errorf("expected newest first, got %+v", all)
	}
	if got := list("?filter=active&search=buy"); len(got) != 1 || got[0].Text != "Buy milk" {
		t.Errorf("unexpected active search %+v", got)
	}
	if got := list("?filter=completed"); len(got) != 1 || got[0].Text != "Buy bread" {
		t.Errorf("unexpected completed %+v", got)
	}
	if got := list("?priority=high"); len(got) != 2 {
		t.Errorf("unexpected priority filter %+v", got)
	}
	if got := list("?filter=bogus"); len(got) != 3 {
		t.Errorf("unknown filter should list everything, got %d", len(got))
	}
}

func TestGet(t *testing.T) {
	s, _ := newTestServer(t)
	created := createTask(t, s, `{"text":"Write report"}`)

	w := doJSON(t, s, http.MethodGet, "/api/tasks/"+created.ID.String(), "")
	if w.Code != http.StatusOK || decodeTask(t, w).Text != "Write report" {
		t.Errorf("unexpected get %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, s, http.MethodGet, "/api/tasks/42", "")
	if w.Code != http.StatusNotFound || errorMessage(t, w) != msgTaskNotFound {
		t.Errorf("expected task not found, got %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, s, http.MethodGet, "/api/tasks/abc", "")
	if w.Code != http.StatusNotFound || errorMessage(t, w) != msgNotFound {
		t.Errorf("expected resource not found, got %d %s", w.Code, w.Body.String())
	}
}

func TestUpdate(t *testing.T) {
	s, _ := newTestServer(t)
	created := createTask(t, s, `{"text":"Write report","dueDate":"2026-10-25"}`)
	path := "/api/tasks/" + created.ID.String()

	w := doJSON(t, s, http.MethodPut, path, `{"completed":true,"priority":"low"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("update: %d %s", w.Code, w.Body.String())
	}
	got := decodeTask(t, w)
	if !got.Completed || got.Priority != task.PriorityLow || got.Text != "Write report" {
		t.Errorf("unexpected update %+v", got)
	}
	if got.DueDate.String() != "2026-10-25" {
		t.Errorf("absent dueDate should be kept, got %v", got.DueDate)
	}
	if !got.UpdatedAt.After(created.CreatedAt.Time) {
		t.Errorf("expected updatedAt to advance, got %v", got.UpdatedAt)
	}

	w = doJSON(t, s, http.MethodPut, path, `{"text":" Final report ","dueDate":null}`)
	got = decodeTask(t, w)
	if got.Text != "Final report" || !got.DueDate.IsZero() {
		t.Errorf("expected text change and cleared due date, got %+v", got)
	}

	w = doJSON(t, s, http.MethodPut, path, `{"dueDate":""}`)
	if got = decodeTask(t, w); !got.DueDate.IsZero() {
		t.Errorf("empty dueDate should clear, got %+v", got)
	}
}

func TestUpdate_Validation(t *testing.T) {
	s, _ := newTestServer(t)
	created := createTask(t, s, `{"text":"Write report"}`)
	path := "/api/tasks/" + created.ID.String()

	tests := []struct {
		name string
		path string
		body string
		code int
		msg  string
	}{
		{"empty object", path, `{}`, 400, msgNoData},
		{"null body", path, `null`, 400, msgNoData},
		{"blank text", path, `{"text":"  "}`, 400, msgTextEmpty},
		{"bad priority", path, `{"priority":"HIGH"}`, 400, msgBadPriority},
		{"bad date", path, `{"dueDate":"tomorrow"}`, 400, msgBadDueDate},
		{"bad completed", path, `{"completed":"yes"}`, 400, msgBadCompleted},
		{"text too long", path, `{"text":"` + strings.Repeat("y", 501) + `"}`, 400, msgTextTooLong},
		{"unknown id", "/api/tasks/99", `{"completed":true}`, 404, msgTaskNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, s, http.MethodPut, tt.path, tt.body)
			if w.Code != tt.code {
				t.Fatalf("expected %d, got %d (%s)", tt.code, w.Code, w.Body.String())
			}
			if msg := errorMessage(t, w); msg != tt.msg {
				t.Errorf("expected %q, got %q", tt.msg, msg)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	s, _ := newTestServer(t)
	created := createTask(t, s, `{"text":"Write report"}`)
	path := "/api/tasks/" + created.ID.String()

	w := doJSON(t, s, http.MethodDelete, path, "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), msgDeleted) {
		t.Errorf("unexpected delete %d %s", w.Code, w.Body.String())
	}
	w = doJSON(t, s, http.MethodDelete, path, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 on second delete, got %d", w.Code)
	}
}

func TestStats(t *testing.T) {
	s, _ := newTestServer(t)
	createTask(t, s, `{"text":"late","priority":"high","dueDate":"2026-10-01"}`)
	createTask(t, s, `{"text":"today","dueDate":"2026-10-19"}`)
	createTask(t, s, `{"text":"late but done","priority":"low","dueDate":"2026-10-01","completed":true}`)

	w := doJSON(t, s, http.MethodGet, "/api/tasks/stats", "")
	if w.Code != http.StatusOK {
		t.Fatalf("stats: %d %s", w.Code, w.Body.String())
	}
	var got task.Stats
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := task.Stats{Total: 3, Completed: 1, Pending: 2, Overdue: 1,
		ByPriority: task.PriorityCounts{High: 1, Medium: 1, Low: 1}}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestBulkUpdate(t *testing.T) {
	s, _ := newTestServer(t)
	a := createTask(t, s, `{"text":"a"}`)
	b := createTask(t, s, `{"text":"b"}`)

	body := `{"task_ids":[` + a.ID.String() + `,` + b.ID.String() + `,` + a.ID.String() + `],"updates":{"completed":true,"priority":"high"}}`
	w := doJSON(t, s, http.MethodPut, "/api/tasks/bulk", body)
	if w.Code != http.StatusOK {
		t.Fatalf("bulk: %d %s", w.Code, w.Body.String())
	}
	var resp struct {
		Message string      `json:"message"`
		Updated []task.Task `json:"updated_tasks"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Message != "Updated 2 tasks successfully" || len(resp.Updated) != 2 {
		t.Errorf("unexpected response %+v", resp)
	}
	for _, u := range resp.Updated {
		if !u.Completed || u.Priority != task.PriorityHigh {
			t.Errorf("task not updated: %+v", u)
		}
	}
}

func TestBulkUpdate_Validation(t *testing.T) {
	s, db := newTestServer(t)
	createTask(t, s, `{"text":"a"}`)

	tests := []struct {
		name string
		body string
		code int
		msg  string
	}{
		{"missing updates", `{"task_ids":[1]}`, 400, msgBulkRequired},
		{"missing ids", `{"updates":{}}`, 400, msgBulkRequired},
		{"empty ids", `{"task_ids":[],"updates":{}}`, 400, msgBulkIDs},
		{"ids not a list", `{"task_ids":"1","updates":{}}`, 400, msgBulkIDs},
		{"bad priority", `{"task_ids":[1],"updates":{"priority":"urgent"}}`, 400, msgBadPriority},
		{"updates not an object", `{"task_ids":[1],"updates":[]}`, 400, msgBulkUpdates},
		{"unknown id", `{"task_ids":[1,7],"updates":{"completed":true}}`, 404, msgBulkNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, s, http.MethodPut, "/api/tasks/bulk", tt.body)
			if w.Code != tt.code {
				t.Fatalf("expected %d, got %d (%s)", tt.code, w.Code, w.Body.String())
			}
			if msg := errorMessage(t, w); msg != tt.msg {
				t.Errorf("expected %q, got %q", tt.msg, msg)
			}
		})
	}

	got, err := db.Get(context.Background(), 1)
	if err != nil || got.Completed {
		t.Errorf("failed bulk update must not change tasks, got %+v %v", got, err)
	}
}

func TestUnknownRoute(t *testing.T) {
	s, _ := newTestServer(t)
	w := doJSON(t, s, http.MethodGet, "/api/nothing", "")
	if w.Code != http.StatusNotFound || errorMessage(t, w) != msgNotFound {
		t.Errorf("expected resource not found, got %d %s", w.Code, w.Body.String())
	}
}

type brokenRepo struct{ Repository }

func (brokenRepo) List(context.Context, taskdb.Query) ([]task.Task, error) {
	return nil, errors.New("db down")
}

func TestRepositoryFailure(t *testing.T) {
	s := New(brokenRepo{})
	w := doJSON(t, s, http.MethodGet, "/api/tasks", "")
	if w.Code != http.StatusInternalServerError || errorMessage(t, w) != "db down" {
		t.Errorf("expected 500 db down, got %d %s", w.Code, w.Body.String())
	}
}

func TestRESTClientRoundTrip(t *testing.T) {
	s, _ := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	client, err := restapi.New(restapi.Options{BaseURL: ts.URL + "/api", Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	ctx := context.Background()

	created, err := client.Create(ctx, task.Draft{Text: "Write report", Priority: task.PriorityHigh})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	done := true
	updated, err := client.Update(ctx, created.ID, task.Patch{Completed: &done})
	if err != nil || !updated.Completed {
		t.Fatalf("update: %+v %v", updated, err)
	}
	tasks, err := client.List(ctx, task.FilterCompleted, "report")
	if err != nil || len(tasks) != 1 || tasks[0].ID != created.ID {
		t.Fatalf("list: %+v %v", tasks, err)
	}
	stats, err := client.Stats(ctx)
	if err != nil || stats.Completed != 1 {
		t.Fatalf("stats: %+v %v", stats, err)
	}
	if err := client.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	_, err = client.Create(ctx, task.Draft{Text: "x", Priority: "urgent"})
	if err == nil || !strings.Contains(err.Error(), msgBadPriority) {
		t.Errorf("expected server message in error, got %v", err)
	}
}
