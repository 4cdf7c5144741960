// Package googletasks implements the service.Service interface using Google Tasks API.
//
// A single task list backs the service. Google Tasks has no priority field,
// so priority is kept as a "priority: <p>" line in the task notes.
package googletasks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"taskboard/internal/config"
	"taskboard/internal/logging"
	"taskboard/internal/query"
	"taskboard/internal/service"
	"taskboard/internal/task"
)

const (
	// DefaultListID is the special ID for the default list.
	DefaultListID = "@default"

	// PageSize is the number of tasks per page.
	PageSize = 100

	// APITimeout is the timeout for API calls.
	APITimeout = 5 * time.Second

	// Scope is the OAuth scope for Google Tasks.
	Scope = "https://www.googleapis.com/auth/tasks"

	statusCompleted   = "completed"
	statusNeedsAction = "needsAction"
)

// Client implements service.Service using Google Tasks API.
type Client struct {
	svc     *tasks.Service
	listID  string
	timeout time.Duration
	logger  *log.Logger
	now     func() time.Time
}

// New creates a new Google Tasks client.
// Requires oauth_client.json and token.json to exist.
func New(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Client, error) {
	oauthConfig, err := LoadOAuthConfig(cfg.OAuthClientPath())
	if err != nil {
		return nil, err
	}
	token, err := LoadToken(cfg.TokenPath())
	if err != nil {
		return nil, err
	}

	// Create HTTP client with a token source that auto-refreshes
	httpClient := oauth2.NewClient(ctx, oauthConfig.TokenSource(ctx, token))

	svc, err := tasks.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks service: %w", err)
	}

	c := newClient(svc, cfg.Settings.Google.TaskList, logger)
	if d := cfg.Settings.API.Timeout.Duration; d > 0 {
		c.timeout = d
	}
	return c, nil
}

// NewWithHTTPClient creates a client against endpoint with a custom HTTP client (for testing).
func NewWithHTTPClient(ctx context.Context, httpClient *http.Client, endpoint, listID string) (*Client, error) {
	svc, err := tasks.NewService(ctx, option.WithHTTPClient(httpClient), option.WithEndpoint(endpoint))
	if err != nil {
		return nil, err
	}
	return newClient(svc, listID, nil), nil
}

func newClient(svc *tasks.Service, listID string, logger *log.Logger) *Client {
	if listID == "" {
		listID = DefaultListID
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Client{svc: svc, listID: listID, timeout: APITimeout, logger: logger, now: time.Now}
}

// List returns the list's tasks in API order, filtered client-side.
func (c *Client) List(ctx context.Context, filter task.Filter, search string) ([]task.Task, error) {
	all, err := c.all(ctx, "list tasks")
	if err != nil {
		return nil, err
	}
	return query.FilterAndSearch(all, filter, search), nil
}

// Stats computes statistics over the whole list.
func (c *Client) Stats(ctx context.Context) (task.Stats, error) {
	all, err := c.all(ctx, "get stats")
	if err != nil {
		return task.Stats{}, err
	}
	return query.ComputeStats(all, task.Today(c.now())), nil
}

// Create inserts a task at the top of the list.
func (c *Client) Create(ctx context.Context, draft task.Draft) (task.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	in := &tasks.Task{
		Title:  draft.Text,
		Notes:  newNotes(draft.Priority, c.now()),
		Status: statusNeedsAction,
		Due:    formatDue(draft.DueDate),
	}
	out, err := c.svc.Tasks.Insert(c.listID, in).Context(ctx).Do()
	if err != nil {
		return task.Task{}, wrapError("create task", err)
	}
	c.logger.Debug("created task", "id", out.Id)
	return fromAPI(out), nil
}

// Update patches the fields set in p.
func (c *Client) Update(ctx context.Context, id task.ID, p task.Patch) (task.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	patch := &tasks.Task{}
	if p.Text != nil {
		patch.Title = *p.Text
	}
	if p.Completed != nil {
		if *p.Completed {
			patch.Status = statusCompleted
		} else {
			// Reopening requires clearing the completion time.
			patch.Status = statusNeedsAction
			patch.NullFields = append(patch.NullFields, "Completed")
		}
	}
	if p.DueDate != nil {
		if p.DueDate.IsZero() {
			patch.NullFields = append(patch.NullFields, "Due")
		} else {
			patch.Due = formatDue(*p.DueDate)
		}
	}
	if p.Priority != nil {
		current, err := c.svc.Tasks.Get(c.listID, id.String()).Context(ctx).Do()
		if err != nil {
			return task.Task{}, wrapError("update task", err)
		}
		patch.Notes = setPriority(current.Notes, *p.Priority)
	}

	out, err := c.svc.Tasks.Patch(c.listID, id.String(), patch).Context(ctx).Do()
	if err != nil {
		return task.Task{}, wrapError("update task", err)
	}
	return fromAPI(out), nil
}

// Delete deletes a task.
func (c *Client) Delete(ctx context.Context, id task.ID) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.svc.Tasks.Delete(c.listID, id.String()).Context(ctx).Do(); err != nil {
		return wrapError("delete task", err)
	}
	return nil
}

// all fetches every task in the list, following page tokens.
func (c *Client) all(ctx context.Context, op string) ([]task.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result := []task.Task{}
	err := c.svc.Tasks.List(c.listID).
		MaxResults(PageSize).
		ShowCompleted(true).
		ShowHidden(true).
		ShowDeleted(false).
		Pages(ctx, func(resp *tasks.Tasks) error {
			for _, t := range resp.Items {
				result = append(result, fromAPI(t))
			}
			return nil
		})
	if err != nil {
		return nil, wrapError(op, err)
	}
	// The API returns manual position order; the list is newest first.
	slices.SortStableFunc(result, func(a, b task.Task) int {
		return b.CreatedAt.Compare(a.CreatedAt.Time)
	})
	c.logger.Debug("fetched tasks", "list", c.listID, "count", len(result))
	return result, nil
}

func fromAPI(t *tasks.Task) task.Task {
	out := task.Task{
		ID:        task.ID(t.Id),
		Text:      t.Title,
		Completed: t.Status == statusCompleted,
		Priority:  priorityFromNotes(t.Notes),
	}
	if due, err := time.Parse(time.RFC3339, t.Due); err == nil {
		out.DueDate = task.Today(due.UTC())
	}
	if ts, err := task.ParseTimestamp(t.Updated); err == nil {
		out.CreatedAt = ts
		out.UpdatedAt = ts
	}
	// Tasks made outside taskboard have no creation line; their last
	// update time stands in for it.
	if ts, ok := createdFromNotes(t.Notes); ok {
		out.CreatedAt = ts
	}
	return out
}

func formatDue(d task.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.Time().Format(time.RFC3339)
}

// wrapError wraps API errors with user-friendly messages.
func wrapError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &service.Error{Op: op, Message: "request timed out", Err: err}
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return &service.Error{Op: op, Status: gerr.Code, Message: "token expired or revoked (run: taskboard login)", Err: err}
		case http.StatusNotFound:
			return &service.Error{Op: op, Status: gerr.Code, Message: "not found", Err: err}
		}
		return &service.Error{Op: op, Status: gerr.Code, Message: gerr.Message, Err: err}
	}

	return &service.Error{Op: op, Err: err}
}

var _ service.Service = (*Client)(nil)
