// Package restapi implements the service.Service interface over the task
// service's JSON REST API.
package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"taskboard/internal/logging"
	"taskboard/internal/service"
	"taskboard/internal/task"
)

const (
	// DefaultBaseURL is used when no base URL is configured.
	DefaultBaseURL = "http://localhost:5000/api"

	// APITimeout is the default timeout for API calls.
	APITimeout = 5 * time.Second

	// maxErrorBody caps how much of an error response is read.
	maxErrorBody = 64 << 10
)

// Options configures a Client.
type Options struct {
	// BaseURL is the API root, e.g. http://localhost:5000/api.
	BaseURL string

	// Timeout bounds each call. Zero means APITimeout.
	Timeout time.Duration

	// Token, when set, is sent as a bearer token.
	Token string

	// HTTPClient is the base transport. Nil means http.DefaultClient.
	HTTPClient *http.Client

	Logger *log.Logger
}

// Client implements service.Service against the REST API.
type Client struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration
	logger  *log.Logger
}

// New creates a REST client.
func New(opts Options) (*Client, error) {
	raw := opts.BaseURL
	if raw == "" {
		raw = DefaultBaseURL
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid API base URL: %s (must be http or https)", raw)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if opts.Token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: opts.Token,
			TokenType:   "Bearer",
		}))
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = APITimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	return &Client{base: base, http: httpClient, timeout: timeout, logger: logger}, nil
}

// List returns tasks matching filter and search, newest first.
func (c *Client) List(ctx context.Context, filter task.Filter, search string) ([]task.Task, error) {
	q := url.Values{}
	if filter != "" && filter != task.FilterAll {
		q.Set("filter", string(filter))
	}
	if search != "" {
		q.Set("search", search)
	}
	var tasks []task.Task
	if err := c.do(ctx, "list tasks", http.MethodGet, "/tasks", q, nil, &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	return tasks, nil
}

// Stats returns the service's aggregate counts.
func (c *Client) Stats(ctx context.Context) (task.Stats, error) {
	var stats task.Stats
	if err := c.do(ctx, "get stats", http.MethodGet, "/tasks/stats", nil, nil, &stats); err != nil {
		return task.Stats{}, err
	}
	return stats, nil
}

// Create creates a task.
func (c *Client) Create(ctx context.Context, draft task.Draft) (task.Task, error) {
	var created task.Task
	if err := c.do(ctx, "create task", http.MethodPost, "/tasks", nil, draft, &created); err != nil {
		return task.Task{}, err
	}
	return created, nil
}

// Update sends a partial update and returns the updated task.
func (c *Client) Update(ctx context.Context, id task.ID, patch task.Patch) (task.Task, error) {
	var updated task.Task
	if err := c.do(ctx, "update task", http.MethodPut, taskPath(id), nil, patch, &updated); err != nil {
		return task.Task{}, err
	}
	return updated, nil
}

// Delete removes a task. The response body is ignored.
func (c *Client) Delete(ctx context.Context, id task.ID) error {
	return c.do(ctx, "delete task", http.MethodDelete, taskPath(id), nil, nil, nil)
}

func taskPath(id task.ID) string {
	return "/tasks/" + url.PathEscape(id.String())
}

// do performs one request. Every failure is returned as a *service.Error.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.base.JoinPath(path)
	u.RawQuery = query.Encode()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &service.Error{Op: op, Err: fmt.Errorf("encoding request: %w", err)}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return &service.Error{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "op", op, "method", method, "url", u.String(), "err", err)
		return wrapError(op, err)
	}
	defer resp.Body.Close()
	c.logger.Debug("request", "op", op, "method", method, "url", u.String(),
		"status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(op, resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &service.Error{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("malformed response: %w", err)}
	}
	return nil
}

// statusError builds the error for a non-2xx response. The message comes
// from the body's "error" field when there is one.
func statusError(op string, resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body struct {
		Error string `json:"error"`
	}
	msg := service.StatusMessage(resp.StatusCode)
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		msg = body.Error
	}
	return &service.Error{Op: op, Status: resp.StatusCode, Message: msg}
}

// wrapError wraps transport errors with user-friendly messages.
func wrapError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &service.Error{Op: op, Message: "request timed out", Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &service.Error{Op: op, Message: "request canceled", Err: err}
	}
	return &service.Error{Op: op, Err: err}
}

var _ service.Service = (*Client)(nil)
