package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"taskboard/internal/task"
	"taskboard/internal/taskdb"
)

// taskFields is the request body of create and update.
type taskFields struct {
	Text      *string `json:"text"`
	Completed *bool   `json:"completed"`
	Priority  *string `json:"priority"`
	DueDate   *string `json:"dueDate"`
}

type bulkRequest struct {
	TaskIDs []int64 `json:"task_ids"`
	Updates struct {
		Completed *bool   `json:"completed"`
		Priority  *string `json:"priority"`
	} `json:"updates"`
}

func (s *Server) handleIndex(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Task Management API",
		"version": Version,
		"endpoints": gin.H{
			"GET /api/tasks":         "Get all tasks",
			"POST /api/tasks":        "Create a new task",
			"GET /api/tasks/<id>":    "Get a specific task",
			"PUT /api/tasks/<id>":    "Update a task",
			"DELETE /api/tasks/<id>": "Delete a task",
			"GET /api/tasks/stats":   "Get task statistics",
			"PUT /api/tasks/bulk":    "Update several tasks at once",
		},
	})
}

func (s *Server) handleList(c *gin.Context) {
	q := taskdb.Query{Search: c.Query("search")}

	// Unknown filter values list everything.
	if filter, err := task.ParseFilter(c.DefaultQuery("filter", "all")); err == nil {
		q.Filter = filter
	} else {
		q.Filter = task.FilterAll
	}
	if p := c.Query("priority"); p != "" {
		q.Priority = task.Priority(p)
	}

	tasks, err := s.repo.List(c.Request.Context(), q)
	if err != nil {
		s.fail(c, "list", err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (s *Server) handleCreate(c *gin.Context) {
	var req taskFields
	if !s.bind(c, s.create, &req, nil) {
		return
	}

	text, ok := task.NormalizeText(*req.Text)
	if !ok {
		badRequest(c, msgTextRequired)
		return
	}
	if utf8.RuneCountInString(text) > taskdb.MaxTextLength {
		badRequest(c, msgTextTooLong)
		return
	}
	draft := task.Draft{Text: text, Priority: task.PriorityMedium}
	if req.Priority != nil {
		draft.Priority = task.Priority(*req.Priority)
	}
	if req.DueDate != nil {
		due, err := task.ParseOptionalDate(*req.DueDate)
		if err != nil {
			badRequest(c, msgBadDueDate)
			return
		}
		draft.DueDate = due
	}

	ctx := c.Request.Context()
	created, err := s.repo.Create(ctx, draft)
	if err != nil {
		s.fail(c, "create", err)
		return
	}
	if req.Completed != nil && *req.Completed {
		id, _ := created.ID.Int()
		if created, err = s.repo.Update(ctx, id, task.Patch{Completed: req.Completed}); err != nil {
			s.fail(c, "create", err)
			return
		}
	}
	s.logger.Debug("created task", "id", created.ID)
	c.JSON(http.StatusCreated, created)
}

func (s *Server) handleGet(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}
	t, err := s.repo.Get(c.Request.Context(), id)
	if err != nil {
		s.fail(c, "get", err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) handleUpdate(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}
	var req taskFields
	var raw map[string]json.RawMessage
	if !s.bind(c, s.update, &req, &raw) {
		return
	}

	var patch task.Patch
	if req.Text != nil {
		text, ok := task.NormalizeText(*req.Text)
		if !ok {
			badRequest(c, msgTextEmpty)
			return
		}
		if utf8.RuneCountInString(text) > taskdb.MaxTextLength {
			badRequest(c, msgTextTooLong)
			return
		}
		patch.Text = &text
	}
	patch.Completed = req.Completed
	if req.Priority != nil {
		p := task.Priority(*req.Priority)
		patch.Priority = &p
	}
	if _, present := raw["dueDate"]; present {
		var due task.Date
		if req.DueDate != nil {
			parsed, err := task.ParseOptionalDate(*req.DueDate)
			if err != nil {
				badRequest(c, msgBadDueDate)
				return
			}
			due = parsed
		}
		patch.DueDate = &due
	}

	updated, err := s.repo.Update(c.Request.Context(), id, patch)
	if err != nil {
		s.fail(c, "update", err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) handleDelete(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}
	if err := s.repo.Delete(c.Request.Context(), id); err != nil {
		s.fail(c, "delete", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msgDeleted})
}

func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.repo.Stats(c.Request.Context(), task.Today(s.now()))
	if err != nil {
		s.fail(c, "stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleBulkUpdate(c *gin.Context) {
	var req bulkRequest
	if !s.bind(c, s.bulk, &req, nil) {
		return
	}

	var patch task.Patch
	patch.Completed = req.Updates.Completed
	if req.Updates.Priority != nil {
		p := task.Priority(*req.Updates.Priority)
		patch.Priority = &p
	}

	updated, err := s.repo.BulkUpdate(c.Request.Context(), dedupe(req.TaskIDs), patch)
	if errors.Is(err, taskdb.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": msgBulkNotFound})
		return
	}
	if err != nil {
		s.fail(c, "bulk update", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":       fmt.Sprintf("Updated %d tasks successfully", len(updated)),
		"updated_tasks": updated,
	})
}

// bind reads the body, validates it with v, and decodes it into dst.
// When raw is non-nil the top-level object is also decoded into it.
// It writes the error response and returns false on failure.
func (s *Server) bind(c *gin.Context, v *validator, dst any, raw *map[string]json.RawMessage) bool {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		badRequest(c, msgBadRequest)
		return false
	}
	doc, err := decodeDocument(body)
	if err != nil {
		s.logger.Debug("malformed request body", "path", c.Request.URL.Path, "err", err)
		badRequest(c, msgBadRequest)
		return false
	}
	if msg := v.check(doc); msg != "" {
		badRequest(c, msg)
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		badRequest(c, msgBadRequest)
		return false
	}
	if raw != nil {
		if err := json.Unmarshal(body, raw); err != nil {
			badRequest(c, msgBadRequest)
			return false
		}
	}
	return true
}

// taskID parses the :id parameter. Non-numeric ids are unknown routes.
func taskID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusNotFound, gin.H{"error": msgNotFound})
		return 0, false
	}
	return id, true
}

func (s *Server) fail(c *gin.Context, op string, err error) {
	if errors.Is(err, taskdb.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": msgTaskNotFound})
		return
	}
	s.logger.Error(op+" failed", "err", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
