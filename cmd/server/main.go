package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/herdsense/internal/config"
	"github.com/mamadbah2/herdsense/internal/repository/mongodb"
	"github.com/mamadbah2/herdsense/internal/repository/sheets"
	"github.com/mamadbah2/herdsense/internal/sanitize"
	"github.com/mamadbah2/herdsense/internal/scheduler"
	"github.com/mamadbah2/herdsense/internal/server/handlers"
	"github.com/mamadbah2/herdsense/internal/server/router"
	demosvc "github.com/mamadbah2/herdsense/internal/service/demo"
	evaluationsvc "github.com/mamadbah2/herdsense/internal/service/evaluation"
	herdsvc "github.com/mamadbah2/herdsense/internal/service/herd"
	taskssvc "github.com/mamadbah2/herdsense/internal/service/tasks"
	"github.com/mamadbah2/herdsense/pkg/clients/webhook"
	"github.com/mamadbah2/herdsense/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Development))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	store, err := mongodb.NewMongoStore(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
	if err != nil {
		baseLogger.Fatal("failed to init mongodb store", zap.Error(err))
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	// Sheet export is optional; leave the exporter nil when no spreadsheet
	// is configured.
	var exporter sheets.Repository
	if cfg.Sheets.SpreadsheetID != "" {
		exporter, err = sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
	} else {
		baseLogger.Info("sheet export disabled, no spreadsheet configured")
	}

	var alerts webhook.Client
	if cfg.Webhook.URL != "" {
		alerts = webhook.NewClient(cfg.Webhook)
		baseLogger.Info("alert webhook enabled")
	} else {
		baseLogger.Info("alert webhook disabled, no url configured")
	}

	sanitizer := sanitize.New(baseLogger.Named("sanitize"))

	evaluationSvc := evaluationsvc.NewService(store, sanitizer, alerts, exporter, cfg.Farm, baseLogger.Named("svc.evaluation"))
	herdSvc := herdsvc.NewService(store, sanitizer, cfg.Farm, baseLogger.Named("svc.herd"))
	tasksSvc := taskssvc.NewService(store, baseLogger.Named("svc.tasks"))

	var demoSvc *demosvc.Service
	if cfg.Farm.DemoMode {
		demoSvc = demosvc.NewService(store, sanitizer, baseLogger.Named("svc.demo"))
		baseLogger.Info("demo mode enabled")
	}

	engine := router.New(router.Handlers{
		Insights: handlers.NewInsightsHandler(evaluationSvc, baseLogger.Named("handlers.insights")),
		Animals:  handlers.NewAnimalsHandler(herdSvc, baseLogger.Named("handlers.animals")),
		Tasks:    handlers.NewTasksHandler(tasksSvc, baseLogger.Named("handlers.tasks")),
		Settings: handlers.NewSettingsHandler(herdSvc, demoSvc, baseLogger.Named("handlers.settings")),
	}, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(cfg.Scheduler, evaluationSvc, baseLogger.Named("scheduler"))
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
