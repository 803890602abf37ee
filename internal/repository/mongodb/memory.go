package mongodb

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mamadbah2/herdsense/internal/domain/models"
)

// MemoryStore is an in-memory Store used by service tests and local runs
// without a database. All methods are safe for concurrent use.
type MemoryStore struct {
	mu          sync.RWMutex
	animals     map[string]models.Animal
	signals     map[string]models.DailySignal
	templates   map[string]models.TaskTemplate
	occurrences map[string]models.TaskOccurrence
	history     []models.CompletionRecord
	streaks     map[string]models.RiskStreakState
	settings    *models.Settings
	evaluations map[string]EvaluationSnapshot
}

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		animals:     make(map[string]models.Animal),
		signals:     make(map[string]models.DailySignal),
		templates:   make(map[string]models.TaskTemplate),
		occurrences: make(map[string]models.TaskOccurrence),
		streaks:     make(map[string]models.RiskStreakState),
		evaluations: make(map[string]EvaluationSnapshot),
	}
}

func (s *MemoryStore) ListAnimals(_ context.Context, includeArchived bool) ([]models.Animal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Animal
	for _, animal := range s.animals {
		if !includeArchived && !animal.Active {
			continue
		}
		out = append(out, animal)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tag < out[j].Tag })
	return out, nil
}

func (s *MemoryStore) GetAnimal(_ context.Context, id string) (*models.Animal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	animal, ok := s.animals[id]
	if !ok {
		return nil, nil
	}
	return &animal, nil
}

func (s *MemoryStore) FindAnimalByTag(_ context.Context, tag string) (*models.Animal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	normalized := models.NormalizeTag(tag)
	for _, animal := range s.animals {
		if models.NormalizeTag(animal.Tag) == normalized {
			found := animal
			return &found, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) UpsertAnimal(_ context.Context, animal models.Animal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	animal.Tag = models.NormalizeTag(animal.Tag)
	s.animals[animal.ID] = animal
	return nil
}

func (s *MemoryStore) ArchiveAnimal(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	animal, ok := s.animals[id]
	if !ok {
		return fmt.Errorf("animal %s not found", id)
	}
	animal.Active = false
	s.animals[id] = animal
	return nil
}

func (s *MemoryStore) UpsertDailySignal(_ context.Context, signal models.DailySignal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	signal.Tag = models.NormalizeTag(signal.Tag)
	s.signals[signalDocID(signal.Tag, signal.Date)] = signal
	return nil
}

func (s *MemoryStore) SignalsForDate(_ context.Context, date time.Time) (map[string]models.DailySignal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	day := date.UTC().Format("2006-01-02")
	out := make(map[string]models.DailySignal)
	for _, signal := range s.signals {
		if signal.Date.UTC().Format("2006-01-02") == day {
			out[models.NormalizeTag(signal.Tag)] = signal
		}
	}
	return out, nil
}

func (s *MemoryStore) SignalHistory(_ context.Context, tag string, since time.Time) ([]models.DailySignal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	normalized := models.NormalizeTag(tag)
	var out []models.DailySignal
	for _, signal := range s.signals {
		if models.NormalizeTag(signal.Tag) == normalized && !signal.Date.Before(since) {
			out = append(out, signal)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *MemoryStore) ListTaskTemplates(_ context.Context) ([]models.TaskTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.TaskTemplate
	for _, template := range s.templates {
		out = append(out, template)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) UpsertTaskTemplates(_ context.Context, templates []models.TaskTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, template := range templates {
		s.templates[template.ID] = template
	}
	return nil
}

func (s *MemoryStore) ListOccurrences(_ context.Context) ([]models.TaskOccurrence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.TaskOccurrence
	for _, occ := range s.occurrences {
		out = append(out, occ)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) UpsertOccurrences(_ context.Context, occurrences []models.TaskOccurrence) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, occ := range occurrences {
		s.occurrences[occ.ID] = occ
	}
	return nil
}

func (s *MemoryStore) AppendCompletionRecords(_ context.Context, records []models.CompletionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, records...)
	return nil
}

// CompletionHistory returns the recorded transitions, oldest first.
func (s *MemoryStore) CompletionHistory() []models.CompletionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]models.CompletionRecord{}, s.history...)
}

func (s *MemoryStore) ListStreaks(_ context.Context) (map[string]models.RiskStreakState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]models.RiskStreakState, len(s.streaks))
	for tag, streak := range s.streaks {
		out[tag] = streak
	}
	return out, nil
}

func (s *MemoryStore) SaveStreaks(_ context.Context, streaks []models.RiskStreakState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, streak := range streaks {
		s.streaks[models.NormalizeTag(streak.Tag)] = streak
	}
	return nil
}

func (s *MemoryStore) LoadFarmSettings(_ context.Context) (*models.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.settings == nil {
		return nil, nil
	}
	copied := *s.settings
	return &copied, nil
}

func (s *MemoryStore) SaveFarmSettings(_ context.Context, settings models.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings = &settings
	return nil
}

func (s *MemoryStore) SaveEvaluation(_ context.Context, snapshot EvaluationSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evaluations[snapshot.ID] = snapshot
	return nil
}

func (s *MemoryStore) LatestEvaluation(_ context.Context) (*EvaluationSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *EvaluationSnapshot
	for id := range s.evaluations {
		snapshot := s.evaluations[id]
		if latest == nil || snapshot.Date.After(latest.Date) {
			latest = &snapshot
		}
	}
	return latest, nil
}
