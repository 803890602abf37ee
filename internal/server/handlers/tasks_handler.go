package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/herdsense/internal/domain/models"
	"github.com/mamadbah2/herdsense/internal/service/tasks"
)

// TasksHandler serves the task calendar endpoints.
type TasksHandler struct {
	svc    *tasks.Service
	logger *zap.Logger
}

// NewTasksHandler constructs the HTTP handler adapter.
func NewTasksHandler(svc *tasks.Service, logger *zap.Logger) *TasksHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TasksHandler{svc: svc, logger: logger}
}

// ByDate returns all occurrences due on ?date=YYYY-MM-DD (default today).
func (h *TasksHandler) ByDate(c *gin.Context) {
	date := time.Now().UTC()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		date = parsed
	}

	occurrences, err := h.svc.ForDate(c.Request.Context(), date)
	if err != nil {
		h.logger.Error("failed loading tasks for date", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load tasks"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": occurrences})
}

// Window returns pending occurrences due within ?days=N from ?from=YYYY-MM-DD
// (defaults: 7 days from today).
func (h *TasksHandler) Window(c *gin.Context) {
	from := time.Now().UTC()
	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be YYYY-MM-DD"})
			return
		}
		from = parsed
	}

	days := 7
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
			return
		}
		days = parsed
	}

	occurrences, err := h.svc.Window(c.Request.Context(), from, days)
	if err != nil {
		h.logger.Error("failed loading task window", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load tasks"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": occurrences})
}

// adHocRequest is the creation payload for a one-off task.
type adHocRequest struct {
	Title      string                 `json:"title"`
	Category   string                 `json:"category"`
	DueDate    string                 `json:"due_date"`
	DueTime    string                 `json:"due_time"`
	AssignedTo string                 `json:"assigned_to"`
	Notes      string                 `json:"notes"`
	Recurrence *models.RecurrenceRule `json:"recurrence"`
}

// Create adds an ad hoc task occurrence.
func (h *TasksHandler) Create(c *gin.Context) {
	var req adHocRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid task payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	dueDate, err := time.Parse(dateLayout, req.DueDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "due_date must be YYYY-MM-DD"})
		return
	}

	occurrence, err := h.svc.CreateAdHoc(c.Request.Context(), tasks.AdHocParams{
		Title:      req.Title,
		Category:   req.Category,
		DueDate:    dueDate,
		DueTime:    req.DueTime,
		AssignedTo: req.AssignedTo,
		Notes:      req.Notes,
		Recurrence: req.Recurrence,
	})
	if err != nil {
		h.logger.Warn("task creation rejected", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, occurrence)
}

// MarkDone completes a pending occurrence.
func (h *TasksHandler) MarkDone(c *gin.Context) {
	err := h.svc.MarkDone(c.Request.Context(), c.Param("id"), time.Now().UTC())
	if errors.Is(err, tasks.ErrNotPending) {
		c.JSON(http.StatusConflict, gin.H{"error": "occurrence not found or not pending"})
		return
	}
	if err != nil {
		h.logger.Error("failed marking task done", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update task"})
		return
	}
	c.Status(http.StatusNoContent)
}

// MarkSkipped skips a pending occurrence.
func (h *TasksHandler) MarkSkipped(c *gin.Context) {
	err := h.svc.MarkSkipped(c.Request.Context(), c.Param("id"), time.Now().UTC())
	if errors.Is(err, tasks.ErrNotPending) {
		c.JSON(http.StatusConflict, gin.H{"error": "occurrence not found or not pending"})
		return
	}
	if err != nil {
		h.logger.Error("failed skipping task", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update task"})
		return
	}
	c.Status(http.StatusNoContent)
}
