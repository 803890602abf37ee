// Package tasks exposes the occurrence-level operations behind the task
// endpoints: day and window queries, done/skip transitions, and ad hoc
// creation. All recurrence math lives in the calendar engine; this service
// owns loading and persisting the occurrence set around it.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/herdsense/internal/domain/models"
	"github.com/mamadbah2/herdsense/internal/engine/calendar"
	"github.com/mamadbah2/herdsense/internal/repository/mongodb"
)

// ErrNotPending is returned when a done/skip transition targets an
// occurrence that does not exist or is no longer pending.
var ErrNotPending = errors.New("occurrence not found or not pending")

// Service manages task occurrences.
type Service struct {
	store  mongodb.Store
	logger *zap.Logger
}

// NewService wires a task service instance.
func NewService(store mongodb.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// ForDate returns all occurrences due on the given day.
func (s *Service) ForDate(ctx context.Context, date time.Time) ([]models.TaskOccurrence, error) {
	occurrences, err := s.store.ListOccurrences(ctx)
	if err != nil {
		return nil, fmt.Errorf("load occurrences: %w", err)
	}
	return calendar.TasksByDate(occurrences, date), nil
}

// Window returns pending occurrences due within [from, from+days-1].
func (s *Service) Window(ctx context.Context, from time.Time, days int) ([]models.TaskOccurrence, error) {
	occurrences, err := s.store.ListOccurrences(ctx)
	if err != nil {
		return nil, fmt.Errorf("load occurrences: %w", err)
	}
	return calendar.TasksInWindow(occurrences, from, days), nil
}

// MarkDone completes a pending occurrence, recording the transition and
// persisting any regenerated next instance.
func (s *Service) MarkDone(ctx context.Context, occurrenceID string, completedAt time.Time) error {
	occurrences, err := s.store.ListOccurrences(ctx)
	if err != nil {
		return fmt.Errorf("load occurrences: %w", err)
	}

	updated, records := calendar.MarkDone(occurrences, nil, occurrenceID, completedAt)
	if len(records) == 0 {
		return ErrNotPending
	}

	if err := s.store.UpsertOccurrences(ctx, updated); err != nil {
		return fmt.Errorf("persist occurrences: %w", err)
	}
	if err := s.store.AppendCompletionRecords(ctx, records); err != nil {
		return fmt.Errorf("persist completion record: %w", err)
	}

	s.logger.Info("occurrence marked done", zap.String("occurrence_id", occurrenceID))
	return nil
}

// MarkSkipped skips a pending occurrence.
func (s *Service) MarkSkipped(ctx context.Context, occurrenceID string, skippedAt time.Time) error {
	occurrences, err := s.store.ListOccurrences(ctx)
	if err != nil {
		return fmt.Errorf("load occurrences: %w", err)
	}

	updated, records := calendar.MarkSkipped(occurrences, nil, occurrenceID, skippedAt)
	if len(records) == 0 {
		return ErrNotPending
	}

	if err := s.store.UpsertOccurrences(ctx, updated); err != nil {
		return fmt.Errorf("persist occurrences: %w", err)
	}
	if err := s.store.AppendCompletionRecords(ctx, records); err != nil {
		return fmt.Errorf("persist completion record: %w", err)
	}

	s.logger.Info("occurrence skipped", zap.String("occurrence_id", occurrenceID))
	return nil
}

// AdHocParams describes a one-off task to create.
type AdHocParams struct {
	Title      string
	Category   string
	DueDate    time.Time
	DueTime    string
	AssignedTo string
	Notes      string
	Recurrence *models.RecurrenceRule
}

// CreateAdHoc materializes and stores a one-off occurrence.
func (s *Service) CreateAdHoc(ctx context.Context, params AdHocParams) (models.TaskOccurrence, error) {
	if params.Title == "" {
		return models.TaskOccurrence{}, errors.New("title is required")
	}
	if params.DueDate.IsZero() {
		return models.TaskOccurrence{}, errors.New("due date is required")
	}

	occurrence := calendar.NewAdHoc(params.Title, params.Category, params.DueDate,
		params.DueTime, params.AssignedTo, params.Notes, params.Recurrence, time.Now().UTC())

	if err := s.store.UpsertOccurrences(ctx, []models.TaskOccurrence{occurrence}); err != nil {
		return models.TaskOccurrence{}, fmt.Errorf("persist occurrence: %w", err)
	}

	s.logger.Info("ad hoc task created",
		zap.String("occurrence_id", occurrence.ID),
		zap.String("due", calendar.FormatDate(occurrence.DueDate)))
	return occurrence, nil
}
