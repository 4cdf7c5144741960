// Package server exposes the task repository as the JSON REST API the
// rest backend talks to.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"taskboard/internal/logging"
	"taskboard/internal/task"
	"taskboard/internal/taskdb"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = ":5000"

// Version is reported by the index document.
const Version = "1.0.0"

// Error messages returned to clients.
const (
	msgNotFound       = "Resource not found"
	msgTaskNotFound   = "Task not found"
	msgBadRequest     = "Bad request"
	msgInternal       = "Internal server error"
	msgTextRequired   = "Task text is required"
	msgTextEmpty      = "Task text cannot be empty"
	msgTextTooLong    = "Task text must be at most 500 characters"
	msgNoData         = "No data provided"
	msgBadPriority    = "Invalid priority. Must be low, medium, or high"
	msgBadDueDate     = "Invalid due date format. Use YYYY-MM-DD"
	msgBadCompleted   = "completed must be true or false"
	msgBulkRequired   = "task_ids and updates are required"
	msgBulkIDs        = "task_ids must be a non-empty list"
	msgBulkUpdates    = "updates must be an object"
	msgBulkNotFound   = "Some task IDs were not found"
	msgDeleted        = "Task deleted successfully"
	shutdownGraceTime = 5 * time.Second
)

// Repository is the storage the server needs. *taskdb.DB implements it.
type Repository interface {
	List(ctx context.Context, q taskdb.Query) ([]task.Task, error)
	Get(ctx context.Context, id int64) (task.Task, error)
	Create(ctx context.Context, draft task.Draft) (task.Task, error)
	Update(ctx context.Context, id int64, patch task.Patch) (task.Task, error)
	BulkUpdate(ctx context.Context, ids []int64, patch task.Patch) ([]task.Task, error)
	Delete(ctx context.Context, id int64) error
	Stats(ctx context.Context, today task.Date) (task.Stats, error)
}

// Server is the REST API server.
type Server struct {
	repo   Repository
	router *gin.Engine
	logger *log.Logger
	now    func() time.Time

	create *validator
	update *validator
	bulk   *validator
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for requests and lifecycle events.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithClock sets the time source used to decide which tasks are overdue.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates a server over repo.
func New(repo Repository, opts ...Option) *Server {
	s := &Server{
		repo:   repo,
		router: gin.New(),
		logger: logging.Discard(),
		now:    time.Now,
		create: mustValidator("create.json",
			[]string{"text", "priority", "dueDate", "completed"},
			map[string]string{
				"":          msgTextRequired,
				"text":      msgTextRequired,
				"priority":  msgBadPriority,
				"dueDate":   msgBadDueDate,
				"completed": msgBadCompleted,
			}),
		update: mustValidator("update.json",
			[]string{"text", "completed", "priority", "dueDate"},
			map[string]string{
				"":          msgNoData,
				"text":      msgTextEmpty,
				"priority":  msgBadPriority,
				"dueDate":   msgBadDueDate,
				"completed": msgBadCompleted,
			}),
		bulk: mustValidator("bulk.json",
			[]string{"task_ids", "updates/completed", "updates/priority", "updates"},
			map[string]string{
				"":                  msgBulkRequired,
				"task_ids":          msgBulkIDs,
				"updates/completed": msgBadCompleted,
				"updates/priority":  msgBadPriority,
				"updates":           msgBulkUpdates,
			}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.router.Use(s.requestLogger(), gin.CustomRecovery(s.recover))
	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": msgNotFound})
	})
	s.router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": msgBadRequest})
	})

	s.router.GET("/", s.handleIndex)

	api := s.router.Group("/api")
	{
		api.GET("/tasks", s.handleList)
		api.POST("/tasks", s.handleCreate)
		api.GET("/tasks/stats", s.handleStats)
		api.PUT("/tasks/bulk", s.handleBulkUpdate)
		api.GET("/tasks/:id", s.handleGet)
		api.PUT("/tasks/:id", s.handleUpdate)
		api.DELETE("/tasks/:id", s.handleDelete)
	}

	return s
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGraceTime)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := s.now()
		c.Next()
		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", s.now().Sub(start),
		)
	}
}

func (s *Server) recover(c *gin.Context, recovered any) {
	s.logger.Error("handler panic", "path", c.Request.URL.Path, "panic", recovered)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
}
