package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/herdsense/internal/server/handlers"
)

// Handlers groups the HTTP adapters the router wires up.
type Handlers struct {
	Insights *handlers.InsightsHandler
	Animals  *handlers.AnimalsHandler
	Tasks    *handlers.TasksHandler
	Settings *handlers.SettingsHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.GET("/insights/today", h.Insights.Today)
		api.GET("/optimization", h.Insights.Optimization)
		api.GET("/reports/money", h.Insights.MoneyReport)
		api.GET("/forecasts", h.Insights.Forecasts)
		api.GET("/congestion", h.Insights.Congestion)
		api.GET("/milking-schedule", h.Insights.MilkingSchedule)
		api.POST("/evaluations/run", h.Insights.RunEvaluation)

		api.GET("/animals", h.Animals.List)
		api.POST("/animals", h.Animals.Create)
		api.GET("/animals/:id", h.Animals.Get)
		api.PUT("/animals/:id", h.Animals.Update)
		api.DELETE("/animals/:id", h.Animals.Archive)

		api.POST("/signals", h.Animals.IngestSignal)
		api.GET("/signals/:tag", h.Animals.SignalHistory)

		api.GET("/tasks", h.Tasks.ByDate)
		api.GET("/tasks/window", h.Tasks.Window)
		api.POST("/tasks", h.Tasks.Create)
		api.POST("/tasks/:id/done", h.Tasks.MarkDone)
		api.POST("/tasks/:id/skip", h.Tasks.MarkSkipped)

		api.GET("/settings", h.Settings.Get)
		api.PUT("/settings", h.Settings.Update)
		api.POST("/demo/seed", h.Settings.SeedDemo)
	}

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
