package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/herdsense/internal/domain/models"
	"github.com/mamadbah2/herdsense/internal/service/herd"
)

const dateLayout = "2006-01-02"

// AnimalsHandler serves the animal registry and signal ingestion endpoints.
type AnimalsHandler struct {
	svc    *herd.Service
	logger *zap.Logger
}

// NewAnimalsHandler constructs the HTTP handler adapter.
func NewAnimalsHandler(svc *herd.Service, logger *zap.Logger) *AnimalsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnimalsHandler{svc: svc, logger: logger}
}

// List returns the herd. Pass ?include_archived=true to include archived
// animals.
func (h *AnimalsHandler) List(c *gin.Context) {
	includeArchived := c.Query("include_archived") == "true"

	animals, err := h.svc.List(c.Request.Context(), includeArchived)
	if err != nil {
		h.logger.Error("failed listing animals", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list animals"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"animals": animals})
}

// Get returns one animal by ID.
func (h *AnimalsHandler) Get(c *gin.Context) {
	animal, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, herd.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "animal not found"})
		return
	}
	if err != nil {
		h.logger.Error("failed loading animal", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load animal"})
		return
	}
	c.JSON(http.StatusOK, animal)
}

// Create registers a new animal.
func (h *AnimalsHandler) Create(c *gin.Context) {
	var animal models.Animal
	if err := c.ShouldBindJSON(&animal); err != nil {
		h.logger.Warn("invalid animal payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	created, err := h.svc.Create(c.Request.Context(), animal)
	if errors.Is(err, herd.ErrDuplicateTag) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.Warn("animal creation rejected", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, created)
}

// Update replaces an animal's editable fields.
func (h *AnimalsHandler) Update(c *gin.Context) {
	var animal models.Animal
	if err := c.ShouldBindJSON(&animal); err != nil {
		h.logger.Warn("invalid animal payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	updated, err := h.svc.Update(c.Request.Context(), c.Param("id"), animal)
	switch {
	case errors.Is(err, herd.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "animal not found"})
		return
	case errors.Is(err, herd.ErrDuplicateTag):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		h.logger.Warn("animal update rejected", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Archive deactivates an animal while keeping its history and tag reserved.
func (h *AnimalsHandler) Archive(c *gin.Context) {
	if err := h.svc.Archive(c.Request.Context(), c.Param("id")); err != nil {
		h.logger.Warn("animal archive failed", zap.Error(err))
		c.JSON(http.StatusNotFound, gin.H{"error": "animal not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// IngestSignal accepts one daily behavioral snapshot for an animal.
func (h *AnimalsHandler) IngestSignal(c *gin.Context) {
	var signal models.DailySignal
	if err := c.ShouldBindJSON(&signal); err != nil {
		h.logger.Warn("invalid signal payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	warnings, err := h.svc.IngestSignal(c.Request.Context(), signal)
	if errors.Is(err, herd.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no animal with this tag"})
		return
	}
	if err != nil {
		h.logger.Warn("signal ingest rejected", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"warnings": warnings})
}

// SignalHistory returns an animal's snapshots since ?since=YYYY-MM-DD
// (default: the last 30 days).
func (h *AnimalsHandler) SignalHistory(c *gin.Context) {
	since := time.Now().UTC().AddDate(0, 0, -30)
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be YYYY-MM-DD"})
			return
		}
		since = parsed
	}

	history, err := h.svc.SignalHistory(c.Request.Context(), c.Param("tag"), since)
	if err != nil {
		h.logger.Error("failed loading signal history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"signals": history})
}
