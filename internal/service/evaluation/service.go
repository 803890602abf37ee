// Package evaluation orchestrates the daily scoring cycle: load herd state,
// sanitize signals, score insights, advance risk bands, run the optimization
// pass, persist the snapshot, and notify on elevated animals.
package evaluation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/herdsense/internal/domain/models"
	"github.com/mamadbah2/herdsense/internal/engine/calendar"
	"github.com/mamadbah2/herdsense/internal/engine/insights"
	"github.com/mamadbah2/herdsense/internal/engine/optimization"
	"github.com/mamadbah2/herdsense/internal/repository/mongodb"
	"github.com/mamadbah2/herdsense/internal/repository/sheets"
	"github.com/mamadbah2/herdsense/internal/sanitize"
	"github.com/mamadbah2/herdsense/pkg/clients/webhook"
)

const (
	// historyWindowDays covers the 21-day baseline window plus slack for
	// gaps in the signal feed.
	historyWindowDays = 30

	// projectionHorizonDays is how far ahead recurring templates are
	// materialized on each cycle.
	projectionHorizonDays = 30
)

// Service runs evaluation cycles and the weekly export.
type Service struct {
	store     mongodb.Store
	sanitizer *sanitize.Sanitizer
	alerts    webhook.Client
	exporter  sheets.Repository
	defaults  models.Settings
	logger    *zap.Logger
}

// NewService wires an evaluation service. Alerts and exporter may be nil,
// which disables the corresponding side effects.
func NewService(store mongodb.Store, sanitizer *sanitize.Sanitizer, alerts webhook.Client, exporter sheets.Repository, defaults models.Settings, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sanitizer == nil {
		sanitizer = sanitize.New(logger.Named("sanitize"))
	}
	return &Service{
		store:     store,
		sanitizer: sanitizer,
		alerts:    alerts,
		exporter:  exporter,
		defaults:  defaults,
		logger:    logger,
	}
}

// EffectiveSettings returns the stored farm settings when present, the
// environment defaults otherwise.
func (s *Service) EffectiveSettings(ctx context.Context) (models.Settings, error) {
	stored, err := s.store.LoadFarmSettings(ctx)
	if err != nil {
		return models.Settings{}, err
	}
	if stored != nil {
		return *stored, nil
	}
	return s.defaults, nil
}

// RunDailyCycle executes one full evaluation for today and returns the
// persisted snapshot.
func (s *Service) RunDailyCycle(ctx context.Context) (*mongodb.EvaluationSnapshot, error) {
	settings, err := s.EffectiveSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	today := calendar.Today(settings.Timezone)
	dayKey := calendar.FormatDate(today)

	animals, err := s.store.ListAnimals(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("load herd: %w", err)
	}

	rawSignals, err := s.store.SignalsForDate(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("load today's signals: %w", err)
	}

	warningCount := 0
	signals := make(map[string]models.DailySignal, len(rawSignals))
	for tag, signal := range rawSignals {
		clean, warnings := s.sanitizer.Signal(signal, "today-"+tag)
		signals[tag] = clean
		warningCount += len(warnings)
	}

	since := today.AddDate(0, 0, -historyWindowDays)
	baselines := make(map[string]models.Baseline, len(animals))
	historyByTag := make(map[string][]models.DailySignal, len(animals))
	for _, animal := range animals {
		tag := models.NormalizeTag(animal.Tag)
		history, err := s.store.SignalHistory(ctx, tag, since)
		if err != nil {
			return nil, fmt.Errorf("load history for %s: %w", tag, err)
		}
		clean, warnings := s.sanitizer.Series(history, "history-"+tag)
		warningCount += len(warnings)
		historyByTag[tag] = clean
		baselines[tag] = insights.BuildBaseline(tag, clean, today)
	}

	scored := insights.ScoreHerd(animals, signals, baselines, insights.Options{
		DayKey:                      dayKey,
		BaselineRecalibrationActive: settings.BaselineRecalibrationActive,
	})

	scored, nextStreaks, err := s.advanceBands(ctx, scored, today)
	if err != nil {
		return nil, err
	}

	occurrences, err := s.projectTasks(ctx, settings, today)
	if err != nil {
		return nil, err
	}

	result := optimization.Compute(optimization.Input{
		Animals:        animals,
		SignalsByTag:   signals,
		HistoryByTag:   historyByTag,
		BaselinesByTag: baselines,
		Settings:       settings,
		Insights:       scored,
		Occurrences:    occurrences,
		Reference:      today,
	})

	snapshot := mongodb.EvaluationSnapshot{
		ID:           "eval-" + dayKey,
		Date:         today,
		GeneratedAt:  time.Now().UTC(),
		Insights:     scored,
		Optimization: result,
		WarningCount: warningCount,
	}
	if err := s.store.SaveEvaluation(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("persist evaluation: %w", err)
	}
	if err := s.store.SaveStreaks(ctx, nextStreaks); err != nil {
		return nil, fmt.Errorf("persist risk streaks: %w", err)
	}

	s.notifyElevated(ctx, animals, scored, dayKey)

	s.logger.Info("evaluation cycle complete",
		zap.String("date", dayKey),
		zap.Int("animals", len(animals)),
		zap.Int("insights", len(scored)),
		zap.Int("signal_warnings", warningCount))

	return &snapshot, nil
}

// advanceBands feeds yesterday's streak state into today's scores and stamps
// the display band on each insight.
func (s *Service) advanceBands(ctx context.Context, scored []models.Insight, today time.Time) ([]models.Insight, []models.RiskStreakState, error) {
	streaks, err := s.store.ListStreaks(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load risk streaks: %w", err)
	}

	next := make([]models.RiskStreakState, 0, len(scored))
	for i := range scored {
		tag := models.NormalizeTag(scored[i].Tag)
		band := insights.NextBand(streaks[tag], scored[i], today)
		insights.ApplyBand(&scored[i], band)
		next = append(next, band.Next)
	}
	return scored, next, nil
}

// projectTasks seeds default templates on first run, then materializes any
// missing occurrences within the horizon.
func (s *Service) projectTasks(ctx context.Context, settings models.Settings, today time.Time) ([]models.TaskOccurrence, error) {
	templates, err := s.store.ListTaskTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("load task templates: %w", err)
	}
	if len(templates) == 0 {
		templates = DefaultTemplates(settings, today)
		if err := s.store.UpsertTaskTemplates(ctx, templates); err != nil {
			return nil, fmt.Errorf("seed task templates: %w", err)
		}
		s.logger.Info("seeded default task templates", zap.Int("count", len(templates)))
	}

	existing, err := s.store.ListOccurrences(ctx)
	if err != nil {
		return nil, fmt.Errorf("load occurrences: %w", err)
	}

	generated := calendar.ProjectOccurrences(templates, existing, projectionHorizonDays, today)
	if len(generated) > 0 {
		if err := s.store.UpsertOccurrences(ctx, generated); err != nil {
			return nil, fmt.Errorf("persist projected occurrences: %w", err)
		}
		s.logger.Debug("projected occurrences", zap.Int("new", len(generated)))
	}

	return append(existing, generated...), nil
}

// notifyElevated posts a webhook alert listing the animals whose display
// band resolved to high. Delivery failure is logged, never fatal.
func (s *Service) notifyElevated(ctx context.Context, animals []models.Animal, scored []models.Insight, dayKey string) {
	if s.alerts == nil {
		return
	}

	nameByTag := make(map[string]string, len(animals))
	for _, animal := range animals {
		nameByTag[models.NormalizeTag(animal.Tag)] = animal.Name
	}

	var entries []webhook.AlertEntry
	for _, insight := range scored {
		if insight.DisplayRiskBandKey != models.BandHigh {
			continue
		}
		entries = append(entries, webhook.AlertEntry{
			Tag:       insight.Tag,
			Name:      nameByTag[models.NormalizeTag(insight.Tag)],
			RiskPct:   insight.OverallRiskPct,
			RiskBand:  insight.DisplayRiskBand,
			TopFactor: insight.TopFactorLabel,
			Note:      insight.BandNote,
		})
	}
	if len(entries) == 0 {
		return
	}

	if err := s.alerts.SendAlert(ctx, webhook.Alert{Date: dayKey, Animals: entries}); err != nil {
		s.logger.Error("alert delivery failed", zap.Error(err), zap.Int("animals", len(entries)))
		return
	}
	s.logger.Info("risk alert delivered", zap.Int("animals", len(entries)))
}

// ExportWeeklyReport pushes the latest evaluation's money report and sale
// forecasts to the configured spreadsheet and posts a digest to the alert
// webhook.
func (s *Service) ExportWeeklyReport(ctx context.Context) error {
	if s.exporter == nil && s.alerts == nil {
		s.logger.Debug("weekly export disabled, skipping")
		return nil
	}

	snapshot, err := s.store.LatestEvaluation(ctx)
	if err != nil {
		return fmt.Errorf("load latest evaluation: %w", err)
	}
	if snapshot == nil {
		s.logger.Warn("no evaluation to export yet")
		return nil
	}

	if s.exporter != nil {
		if err := s.exporter.ExportMoneyReport(ctx, snapshot.Date, snapshot.Optimization.MoneyReport, snapshot.Optimization.Inventory); err != nil {
			return fmt.Errorf("export money report: %w", err)
		}
	}

	if s.alerts != nil {
		digest := moneyDigest(snapshot.Date, snapshot.Optimization.MoneyReport)
		if err := s.alerts.SendMoneyReport(ctx, digest); err != nil {
			s.logger.Error("money report delivery failed", zap.Error(err))
		}
	}
	return nil
}

func moneyDigest(reportDate time.Time, report models.MoneyReport) webhook.MoneyDigest {
	digest := webhook.MoneyDigest{Date: reportDate.Format("2006-01-02")}
	for _, leak := range report.Leaks {
		digest.TotalImpactLow += leak.ImpactLow
		digest.TotalImpactHigh += leak.ImpactHigh
		digest.Leaks = append(digest.Leaks, webhook.LeakEntry{
			ID:          leak.ID,
			Title:       leak.Title,
			Severity:    leak.Severity,
			ImpactRange: leak.ImpactRange,
		})
	}
	return digest
}

// LatestSnapshot returns the most recent persisted evaluation, or nil when
// none exists.
func (s *Service) LatestSnapshot(ctx context.Context) (*mongodb.EvaluationSnapshot, error) {
	return s.store.LatestEvaluation(ctx)
}
