package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/herdsense/internal/domain/models"
	"github.com/mamadbah2/herdsense/internal/service/demo"
	"github.com/mamadbah2/herdsense/internal/service/herd"
)

// SettingsHandler serves the farm settings and demo seeding endpoints.
type SettingsHandler struct {
	svc     *herd.Service
	demoSvc *demo.Service
	logger  *zap.Logger
}

// NewSettingsHandler constructs the HTTP handler adapter. The demo service
// may be nil, which disables the seed endpoint.
func NewSettingsHandler(svc *herd.Service, demoSvc *demo.Service, logger *zap.Logger) *SettingsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsHandler{svc: svc, demoSvc: demoSvc, logger: logger}
}

// Get returns the effective farm settings.
func (h *SettingsHandler) Get(c *gin.Context) {
	settings, err := h.svc.Settings(c.Request.Context())
	if err != nil {
		h.logger.Error("failed loading settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load settings"})
		return
	}
	c.JSON(http.StatusOK, settings)
}

// Update replaces the farm settings.
func (h *SettingsHandler) Update(c *gin.Context) {
	var settings models.Settings
	if err := c.ShouldBindJSON(&settings); err != nil {
		h.logger.Warn("invalid settings payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	saved, err := h.svc.UpdateSettings(c.Request.Context(), settings)
	if err != nil {
		h.logger.Warn("settings update rejected", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, saved)
}

// SeedDemo populates the deterministic demo herd and its history.
func (h *SettingsHandler) SeedDemo(c *gin.Context) {
	if h.demoSvc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "demo seeding is disabled"})
		return
	}

	settings, err := h.svc.Settings(c.Request.Context())
	if err != nil {
		h.logger.Error("failed loading settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load settings"})
		return
	}

	if err := h.demoSvc.Seed(c.Request.Context(), settings.Timezone); err != nil {
		h.logger.Error("demo seeding failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "demo seeding failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "seeded"})
}
