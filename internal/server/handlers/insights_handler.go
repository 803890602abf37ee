package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/herdsense/internal/repository/mongodb"
	"github.com/mamadbah2/herdsense/internal/service/evaluation"
)

// InsightsHandler serves the evaluation snapshot endpoints.
type InsightsHandler struct {
	svc    *evaluation.Service
	logger *zap.Logger
}

// NewInsightsHandler constructs the HTTP handler adapter.
func NewInsightsHandler(svc *evaluation.Service, logger *zap.Logger) *InsightsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InsightsHandler{svc: svc, logger: logger}
}

// Today returns the latest evaluation's per-animal insights.
func (h *InsightsHandler) Today(c *gin.Context) {
	snapshot, err := h.svc.LatestSnapshot(c.Request.Context())
	if err != nil {
		h.logger.Error("failed loading latest evaluation", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load insights"})
		return
	}
	if snapshot == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no evaluation has run yet"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":     snapshot.Date.Format("2006-01-02"),
		"insights": snapshot.Insights,
	})
}

// Optimization returns the latest evaluation's optimization outputs.
func (h *InsightsHandler) Optimization(c *gin.Context) {
	snapshot, err := h.svc.LatestSnapshot(c.Request.Context())
	if err != nil {
		h.logger.Error("failed loading latest evaluation", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load optimization snapshot"})
		return
	}
	if snapshot == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no evaluation has run yet"})
		return
	}

	c.JSON(http.StatusOK, snapshot.Optimization)
}

// MoneyReport returns the latest weekly money report.
func (h *InsightsHandler) MoneyReport(c *gin.Context) {
	h.snapshotView(c, func(snapshot *mongodb.EvaluationSnapshot) interface{} {
		return snapshot.Optimization.MoneyReport
	})
}

// Forecasts returns the latest inventory plan with sale forecasts.
func (h *InsightsHandler) Forecasts(c *gin.Context) {
	h.snapshotView(c, func(snapshot *mongodb.EvaluationSnapshot) interface{} {
		return snapshot.Optimization.Inventory
	})
}

// Congestion returns the latest feeder/water congestion analysis.
func (h *InsightsHandler) Congestion(c *gin.Context) {
	h.snapshotView(c, func(snapshot *mongodb.EvaluationSnapshot) interface{} {
		return snapshot.Optimization.Congestion
	})
}

// MilkingSchedule returns the latest derived milking plan.
func (h *InsightsHandler) MilkingSchedule(c *gin.Context) {
	h.snapshotView(c, func(snapshot *mongodb.EvaluationSnapshot) interface{} {
		return snapshot.Optimization.Milking
	})
}

func (h *InsightsHandler) snapshotView(c *gin.Context, view func(*mongodb.EvaluationSnapshot) interface{}) {
	snapshot, err := h.svc.LatestSnapshot(c.Request.Context())
	if err != nil {
		h.logger.Error("failed loading latest evaluation", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load evaluation snapshot"})
		return
	}
	if snapshot == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no evaluation has run yet"})
		return
	}

	c.JSON(http.StatusOK, view(snapshot))
}

// RunEvaluation triggers a full evaluation cycle immediately.
func (h *InsightsHandler) RunEvaluation(c *gin.Context) {
	snapshot, err := h.svc.RunDailyCycle(c.Request.Context())
	if err != nil {
		h.logger.Error("on-demand evaluation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "evaluation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":            snapshot.Date.Format("2006-01-02"),
		"insight_count":   len(snapshot.Insights),
		"signal_warnings": snapshot.WarningCount,
	})
}
