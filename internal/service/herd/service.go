// Package herd manages the animal registry, signal ingestion, and farm
// settings updates.
package herd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/herdsense/internal/domain/models"
	"github.com/mamadbah2/herdsense/internal/repository/mongodb"
	"github.com/mamadbah2/herdsense/internal/sanitize"
)

// Errors surfaced to the transport layer.
var (
	ErrDuplicateTag = errors.New("an animal with this tag already exists")
	ErrNotFound     = errors.New("animal not found")
)

// Service manages herd membership and per-animal data.
type Service struct {
	store     mongodb.Store
	sanitizer *sanitize.Sanitizer
	defaults  models.Settings
	logger    *zap.Logger
}

// NewService wires a herd service instance.
func NewService(store mongodb.Store, sanitizer *sanitize.Sanitizer, defaults models.Settings, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sanitizer == nil {
		sanitizer = sanitize.New(logger.Named("sanitize"))
	}
	return &Service{store: store, sanitizer: sanitizer, defaults: defaults, logger: logger}
}

// List returns the herd, optionally including archived animals.
func (s *Service) List(ctx context.Context, includeArchived bool) ([]models.Animal, error) {
	return s.store.ListAnimals(ctx, includeArchived)
}

// Get returns one animal by ID.
func (s *Service) Get(ctx context.Context, id string) (*models.Animal, error) {
	animal, err := s.store.GetAnimal(ctx, id)
	if err != nil {
		return nil, err
	}
	if animal == nil {
		return nil, ErrNotFound
	}
	return animal, nil
}

// Create registers a new animal. The tag must be unique across the whole
// registry, archived animals included.
func (s *Service) Create(ctx context.Context, animal models.Animal) (models.Animal, error) {
	if err := validateAnimal(&animal); err != nil {
		return models.Animal{}, err
	}

	existing, err := s.store.FindAnimalByTag(ctx, animal.Tag)
	if err != nil {
		return models.Animal{}, err
	}
	if existing != nil {
		return models.Animal{}, ErrDuplicateTag
	}

	if animal.ID == "" {
		animal.ID = "animal-" + strings.ToLower(models.NormalizeTag(animal.Tag))
	}
	animal.Active = true

	if err := s.store.UpsertAnimal(ctx, animal); err != nil {
		return models.Animal{}, err
	}
	s.logger.Info("animal registered", zap.String("id", animal.ID), zap.String("tag", animal.Tag))
	return animal, nil
}

// Update replaces an existing animal's editable fields. A tag change is
// checked against the registry for uniqueness.
func (s *Service) Update(ctx context.Context, id string, updated models.Animal) (models.Animal, error) {
	current, err := s.store.GetAnimal(ctx, id)
	if err != nil {
		return models.Animal{}, err
	}
	if current == nil {
		return models.Animal{}, ErrNotFound
	}

	updated.ID = id
	updated.Active = current.Active
	if err := validateAnimal(&updated); err != nil {
		return models.Animal{}, err
	}

	if models.NormalizeTag(updated.Tag) != models.NormalizeTag(current.Tag) {
		holder, err := s.store.FindAnimalByTag(ctx, updated.Tag)
		if err != nil {
			return models.Animal{}, err
		}
		if holder != nil && holder.ID != id {
			return models.Animal{}, ErrDuplicateTag
		}
	}

	if err := s.store.UpsertAnimal(ctx, updated); err != nil {
		return models.Animal{}, err
	}
	s.logger.Info("animal updated", zap.String("id", id))
	return updated, nil
}

// Archive deactivates an animal. History stays; the tag stays reserved.
func (s *Service) Archive(ctx context.Context, id string) error {
	if err := s.store.ArchiveAnimal(ctx, id); err != nil {
		return err
	}
	s.logger.Info("animal archived", zap.String("id", id))
	return nil
}

// IngestSignal sanitizes and stores one daily snapshot, returning the
// corrections applied. The animal must exist.
func (s *Service) IngestSignal(ctx context.Context, signal models.DailySignal) ([]sanitize.Warning, error) {
	if signal.Tag == "" {
		return nil, errors.New("tag is required")
	}
	if signal.Date.IsZero() {
		return nil, errors.New("date is required")
	}

	animal, err := s.store.FindAnimalByTag(ctx, signal.Tag)
	if err != nil {
		return nil, err
	}
	if animal == nil {
		return nil, ErrNotFound
	}

	clean, warnings := s.sanitizer.Signal(signal, "ingest-"+models.NormalizeTag(signal.Tag))
	if err := s.store.UpsertDailySignal(ctx, clean); err != nil {
		return nil, err
	}

	s.logger.Debug("signal ingested",
		zap.String("tag", signal.Tag),
		zap.Time("date", signal.Date),
		zap.Int("warnings", len(warnings)))
	return warnings, nil
}

// SignalHistory returns one animal's snapshots since the given date.
func (s *Service) SignalHistory(ctx context.Context, tag string, since time.Time) ([]models.DailySignal, error) {
	return s.store.SignalHistory(ctx, tag, since)
}

// Settings returns the effective farm settings: the stored document when
// present, the environment defaults otherwise.
func (s *Service) Settings(ctx context.Context) (models.Settings, error) {
	stored, err := s.store.LoadFarmSettings(ctx)
	if err != nil {
		return models.Settings{}, err
	}
	if stored != nil {
		return *stored, nil
	}
	return s.defaults, nil
}

// UpdateSettings validates and persists the farm settings.
func (s *Service) UpdateSettings(ctx context.Context, settings models.Settings) (models.Settings, error) {
	if settings.FeedCostPerKg < 0 {
		return models.Settings{}, errors.New("feed cost per kg must not be negative")
	}
	if settings.Timezone == "" {
		settings.Timezone = s.defaults.Timezone
	}

	if err := s.store.SaveFarmSettings(ctx, settings); err != nil {
		return models.Settings{}, err
	}
	s.logger.Info("farm settings updated")
	return settings, nil
}

func validateAnimal(animal *models.Animal) error {
	if strings.TrimSpace(animal.Tag) == "" {
		return errors.New("tag is required")
	}
	animal.Tag = models.NormalizeTag(animal.Tag)

	switch animal.ProductionType {
	case models.ProductionDairy, models.ProductionBeef:
	default:
		return fmt.Errorf("unknown production type %q", animal.ProductionType)
	}

	switch animal.FeedIntakeMode {
	case models.FeedModeManual, models.FeedModeEstimated, models.FeedModeHybrid, models.FeedModeInherit:
	case "":
		animal.FeedIntakeMode = models.FeedModeInherit
	default:
		return fmt.Errorf("unknown feed intake mode %q", animal.FeedIntakeMode)
	}

	if animal.ManualFeedKgDay != nil && *animal.ManualFeedKgDay < 0 {
		return errors.New("manual feed must not be negative")
	}
	return nil
}
