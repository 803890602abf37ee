package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/herdsense/internal/config"
	"github.com/mamadbah2/herdsense/internal/service/evaluation"
)

// Scheduler manages the recurring jobs: the daily evaluation cycle and the
// weekly report export.
type Scheduler struct {
	cron          *cron.Cron
	evaluationSvc *evaluation.Service
	cfg           config.SchedulerConfig
	logger        *zap.Logger
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(cfg config.SchedulerConfig, evaluationSvc *evaluation.Service, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	// robfig/cron/v3 default parser is standard cron (5 fields: min, hour, dom, month, dow).
	c := cron.New()

	return &Scheduler{
		cron:          c,
		evaluationSvc: evaluationSvc,
		cfg:           cfg,
		logger:        logger,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler",
		zap.String("evaluation_cron", s.cfg.EvaluationCron),
		zap.String("weekly_export_cron", s.cfg.WeeklyExportCron))

	if _, err := s.cron.AddFunc(s.cfg.EvaluationCron, s.runDailyEvaluation); err != nil {
		s.logger.Error("failed to schedule daily evaluation", zap.Error(err))
	}
	if _, err := s.cron.AddFunc(s.cfg.WeeklyExportCron, s.runWeeklyExport); err != nil {
		s.logger.Error("failed to schedule weekly export", zap.Error(err))
	}

	s.cron.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) runDailyEvaluation() {
	s.logger.Info("running scheduled evaluation cycle")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	snapshot, err := s.evaluationSvc.RunDailyCycle(ctx)
	if err != nil {
		s.logger.Error("scheduled evaluation failed", zap.Error(err))
		return
	}
	s.logger.Info("scheduled evaluation finished", zap.Int("insights", len(snapshot.Insights)))
}

func (s *Scheduler) runWeeklyExport() {
	s.logger.Info("running weekly report export")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := s.evaluationSvc.ExportWeeklyReport(ctx); err != nil {
		s.logger.Error("weekly export failed", zap.Error(err))
		return
	}
	s.logger.Info("weekly export finished")
}
