// Package mongodb persists herd state: animals, daily signals, task
// templates and occurrences, completion history, risk streaks, farm
// settings, and evaluation snapshots.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/herdsense/internal/domain/models"
	"github.com/mamadbah2/herdsense/internal/engine/optimization"
)

// Collection names.
const (
	collAnimals     = "animals"
	collSignals     = "daily_signals"
	collTemplates   = "task_templates"
	collOccurrences = "task_occurrences"
	collHistory     = "completion_history"
	collStreaks     = "risk_streaks"
	collSettings    = "farm_settings"
	collEvaluations = "evaluations"
)

const settingsDocID = "farm"

// EvaluationSnapshot is one persisted daily evaluation: the scored insights
// plus the optimization outputs computed from the same inputs.
type EvaluationSnapshot struct {
	ID           string              `bson:"_id"`
	Date         time.Time           `bson:"date"`
	GeneratedAt  time.Time           `bson:"generated_at"`
	Insights     []models.Insight    `bson:"insights"`
	Optimization optimization.Result `bson:"optimization"`
	WarningCount int                 `bson:"warning_count"`
}

// Store defines the persistence surface the services depend on.
type Store interface {
	ListAnimals(ctx context.Context, includeArchived bool) ([]models.Animal, error)
	GetAnimal(ctx context.Context, id string) (*models.Animal, error)
	FindAnimalByTag(ctx context.Context, tag string) (*models.Animal, error)
	UpsertAnimal(ctx context.Context, animal models.Animal) error
	ArchiveAnimal(ctx context.Context, id string) error

	UpsertDailySignal(ctx context.Context, signal models.DailySignal) error
	SignalsForDate(ctx context.Context, date time.Time) (map[string]models.DailySignal, error)
	SignalHistory(ctx context.Context, tag string, since time.Time) ([]models.DailySignal, error)

	ListTaskTemplates(ctx context.Context) ([]models.TaskTemplate, error)
	UpsertTaskTemplates(ctx context.Context, templates []models.TaskTemplate) error

	ListOccurrences(ctx context.Context) ([]models.TaskOccurrence, error)
	UpsertOccurrences(ctx context.Context, occurrences []models.TaskOccurrence) error
	AppendCompletionRecords(ctx context.Context, records []models.CompletionRecord) error

	ListStreaks(ctx context.Context) (map[string]models.RiskStreakState, error)
	SaveStreaks(ctx context.Context, streaks []models.RiskStreakState) error

	LoadFarmSettings(ctx context.Context) (*models.Settings, error)
	SaveFarmSettings(ctx context.Context, settings models.Settings) error

	SaveEvaluation(ctx context.Context, snapshot EvaluationSnapshot) error
	LatestEvaluation(ctx context.Context) (*EvaluationSnapshot, error)
}

// MongoStore implements Store on a MongoDB database.
type MongoStore struct {
	client *mongo.Client
	dbName string
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, uri string, dbName string) (*MongoStore, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoStore{client: client, dbName: dbName}, nil
}

func (s *MongoStore) collection(name string) *mongo.Collection {
	return s.client.Database(s.dbName).Collection(name)
}

// ListAnimals returns the herd, optionally including archived animals.
func (s *MongoStore) ListAnimals(ctx context.Context, includeArchived bool) ([]models.Animal, error) {
	filter := bson.M{}
	if !includeArchived {
		filter["active"] = true
	}

	cursor, err := s.collection(collAnimals).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list animals: %w", err)
	}
	defer cursor.Close(ctx)

	var animals []models.Animal
	if err := cursor.All(ctx, &animals); err != nil {
		return nil, fmt.Errorf("failed to decode animals: %w", err)
	}
	return animals, nil
}

// GetAnimal looks up one animal by ID. Returns nil when it does not exist.
func (s *MongoStore) GetAnimal(ctx context.Context, id string) (*models.Animal, error) {
	var animal models.Animal
	err := s.collection(collAnimals).FindOne(ctx, bson.M{"_id": id}).Decode(&animal)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get animal %s: %w", id, err)
	}
	return &animal, nil
}

// FindAnimalByTag looks up one animal by normalized tag, archived included.
// Returns nil when no animal carries the tag.
func (s *MongoStore) FindAnimalByTag(ctx context.Context, tag string) (*models.Animal, error) {
	var animal models.Animal
	err := s.collection(collAnimals).FindOne(ctx, bson.M{"tag": models.NormalizeTag(tag)}).Decode(&animal)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find animal by tag: %w", err)
	}
	return &animal, nil
}

// UpsertAnimal inserts or replaces an animal by ID.
func (s *MongoStore) UpsertAnimal(ctx context.Context, animal models.Animal) error {
	animal.Tag = models.NormalizeTag(animal.Tag)
	opts := options.Replace().SetUpsert(true)
	if _, err := s.collection(collAnimals).ReplaceOne(ctx, bson.M{"_id": animal.ID}, animal, opts); err != nil {
		return fmt.Errorf("failed to upsert animal %s: %w", animal.ID, err)
	}
	return nil
}

// ArchiveAnimal marks an animal inactive. Its signal history stays in place.
func (s *MongoStore) ArchiveAnimal(ctx context.Context, id string) error {
	result, err := s.collection(collAnimals).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"active": false}})
	if err != nil {
		return fmt.Errorf("failed to archive animal %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("animal %s not found", id)
	}
	return nil
}

func signalDocID(tag string, date time.Time) string {
	return models.NormalizeTag(tag) + "|" + date.UTC().Format("2006-01-02")
}

// UpsertDailySignal stores one snapshot, replacing any earlier reading for
// the same animal and day.
func (s *MongoStore) UpsertDailySignal(ctx context.Context, signal models.DailySignal) error {
	signal.Tag = models.NormalizeTag(signal.Tag)
	doc := bson.M{"$set": signal}
	opts := options.Update().SetUpsert(true)
	if _, err := s.collection(collSignals).UpdateOne(ctx, bson.M{"_id": signalDocID(signal.Tag, signal.Date)}, doc, opts); err != nil {
		return fmt.Errorf("failed to upsert daily signal for %s: %w", signal.Tag, err)
	}
	return nil
}

// SignalsForDate returns that day's snapshot for every animal that has one,
// keyed by normalized tag.
func (s *MongoStore) SignalsForDate(ctx context.Context, date time.Time) (map[string]models.DailySignal, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)

	cursor, err := s.collection(collSignals).Find(ctx, bson.M{
		"date": bson.M{"$gte": dayStart, "$lt": dayEnd},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query signals for date: %w", err)
	}
	defer cursor.Close(ctx)

	var signals []models.DailySignal
	if err := cursor.All(ctx, &signals); err != nil {
		return nil, fmt.Errorf("failed to decode signals: %w", err)
	}

	byTag := make(map[string]models.DailySignal, len(signals))
	for _, signal := range signals {
		byTag[models.NormalizeTag(signal.Tag)] = signal
	}
	return byTag, nil
}

// SignalHistory returns the snapshots for one animal since the given date,
// oldest first.
func (s *MongoStore) SignalHistory(ctx context.Context, tag string, since time.Time) ([]models.DailySignal, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
	cursor, err := s.collection(collSignals).Find(ctx, bson.M{
		"tag":  models.NormalizeTag(tag),
		"date": bson.M{"$gte": since},
	}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query signal history for %s: %w", tag, err)
	}
	defer cursor.Close(ctx)

	var history []models.DailySignal
	if err := cursor.All(ctx, &history); err != nil {
		return nil, fmt.Errorf("failed to decode signal history: %w", err)
	}
	return history, nil
}

// ListTaskTemplates returns all recurring task templates.
func (s *MongoStore) ListTaskTemplates(ctx context.Context) ([]models.TaskTemplate, error) {
	cursor, err := s.collection(collTemplates).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list task templates: %w", err)
	}
	defer cursor.Close(ctx)

	var templates []models.TaskTemplate
	if err := cursor.All(ctx, &templates); err != nil {
		return nil, fmt.Errorf("failed to decode task templates: %w", err)
	}
	return templates, nil
}

// UpsertTaskTemplates inserts or replaces templates by ID.
func (s *MongoStore) UpsertTaskTemplates(ctx context.Context, templates []models.TaskTemplate) error {
	if len(templates) == 0 {
		return nil
	}
	writes := make([]mongo.WriteModel, 0, len(templates))
	for _, template := range templates {
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": template.ID}).
			SetReplacement(template).
			SetUpsert(true))
	}
	if _, err := s.collection(collTemplates).BulkWrite(ctx, writes); err != nil {
		return fmt.Errorf("failed to upsert task templates: %w", err)
	}
	return nil
}

// ListOccurrences returns every stored task occurrence.
func (s *MongoStore) ListOccurrences(ctx context.Context) ([]models.TaskOccurrence, error) {
	cursor, err := s.collection(collOccurrences).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list occurrences: %w", err)
	}
	defer cursor.Close(ctx)

	var occurrences []models.TaskOccurrence
	if err := cursor.All(ctx, &occurrences); err != nil {
		return nil, fmt.Errorf("failed to decode occurrences: %w", err)
	}
	return occurrences, nil
}

// UpsertOccurrences inserts or replaces occurrences by ID.
func (s *MongoStore) UpsertOccurrences(ctx context.Context, occurrences []models.TaskOccurrence) error {
	if len(occurrences) == 0 {
		return nil
	}
	writes := make([]mongo.WriteModel, 0, len(occurrences))
	for _, occ := range occurrences {
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": occ.ID}).
			SetReplacement(occ).
			SetUpsert(true))
	}
	if _, err := s.collection(collOccurrences).BulkWrite(ctx, writes); err != nil {
		return fmt.Errorf("failed to upsert occurrences: %w", err)
	}
	return nil
}

// AppendCompletionRecords appends audit entries for done/skip transitions.
func (s *MongoStore) AppendCompletionRecords(ctx context.Context, records []models.CompletionRecord) error {
	if len(records) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(records))
	for _, record := range records {
		docs = append(docs, record)
	}
	if _, err := s.collection(collHistory).InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to append completion records: %w", err)
	}
	return nil
}

// ListStreaks returns the per-animal risk streak states keyed by tag.
func (s *MongoStore) ListStreaks(ctx context.Context) (map[string]models.RiskStreakState, error) {
	cursor, err := s.collection(collStreaks).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list risk streaks: %w", err)
	}
	defer cursor.Close(ctx)

	var streaks []models.RiskStreakState
	if err := cursor.All(ctx, &streaks); err != nil {
		return nil, fmt.Errorf("failed to decode risk streaks: %w", err)
	}

	byTag := make(map[string]models.RiskStreakState, len(streaks))
	for _, streak := range streaks {
		byTag[models.NormalizeTag(streak.Tag)] = streak
	}
	return byTag, nil
}

// SaveStreaks upserts streak states by tag.
func (s *MongoStore) SaveStreaks(ctx context.Context, streaks []models.RiskStreakState) error {
	if len(streaks) == 0 {
		return nil
	}
	writes := make([]mongo.WriteModel, 0, len(streaks))
	for _, streak := range streaks {
		streak.Tag = models.NormalizeTag(streak.Tag)
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"tag": streak.Tag}).
			SetReplacement(streak).
			SetUpsert(true))
	}
	if _, err := s.collection(collStreaks).BulkWrite(ctx, writes); err != nil {
		return fmt.Errorf("failed to save risk streaks: %w", err)
	}
	return nil
}

type settingsDoc struct {
	ID       string          `bson:"_id"`
	Settings models.Settings `bson:"settings"`
}

// LoadFarmSettings returns the stored farm settings, or nil when none have
// been saved yet.
func (s *MongoStore) LoadFarmSettings(ctx context.Context) (*models.Settings, error) {
	var doc settingsDoc
	err := s.collection(collSettings).FindOne(ctx, bson.M{"_id": settingsDocID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load farm settings: %w", err)
	}
	return &doc.Settings, nil
}

// SaveFarmSettings replaces the stored farm settings.
func (s *MongoStore) SaveFarmSettings(ctx context.Context, settings models.Settings) error {
	opts := options.Replace().SetUpsert(true)
	doc := settingsDoc{ID: settingsDocID, Settings: settings}
	if _, err := s.collection(collSettings).ReplaceOne(ctx, bson.M{"_id": settingsDocID}, doc, opts); err != nil {
		return fmt.Errorf("failed to save farm settings: %w", err)
	}
	return nil
}

// SaveEvaluation stores one evaluation snapshot, replacing any earlier run
// for the same day.
func (s *MongoStore) SaveEvaluation(ctx context.Context, snapshot EvaluationSnapshot) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := s.collection(collEvaluations).ReplaceOne(ctx, bson.M{"_id": snapshot.ID}, snapshot, opts); err != nil {
		return fmt.Errorf("failed to save evaluation snapshot: %w", err)
	}
	return nil
}

// LatestEvaluation returns the most recent evaluation snapshot, or nil when
// no evaluation has run yet.
func (s *MongoStore) LatestEvaluation(ctx context.Context) (*EvaluationSnapshot, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "date", Value: -1}})
	var snapshot EvaluationSnapshot
	err := s.collection(collEvaluations).FindOne(ctx, bson.M{}, opts).Decode(&snapshot)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest evaluation: %w", err)
	}
	return &snapshot, nil
}

// Close closes the MongoDB connection.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
