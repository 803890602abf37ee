package herd

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/herdsense/internal/domain/models"
	"github.com/mamadbah2/herdsense/internal/repository/mongodb"
)

func newTestService() (*Service, *mongodb.MemoryStore) {
	store := mongodb.NewMemoryStore()
	defaults := models.Settings{FeedCostPerKg: 0.32, Timezone: "UTC"}
	return NewService(store, nil, defaults, nil), store
}

func TestCreateNormalizesTagAndActivates(t *testing.T) {
	svc, _ := newTestService()

	created, err := svc.Create(context.Background(), models.Animal{
		Tag:            " ea-1001 ",
		Name:           "Willow",
		ProductionType: models.ProductionDairy,
	})
	require.NoError(t, err)
	assert.Equal(t, "EA-1001", created.Tag)
	assert.Equal(t, "animal-ea-1001", created.ID)
	assert.True(t, created.Active)
	assert.Equal(t, models.FeedModeInherit, created.FeedIntakeMode)
}

func TestCreateRejectsDuplicateTagEvenWhenArchived(t *testing.T) {
	svc, _ := newTestService()

	first, err := svc.Create(context.Background(), models.Animal{
		Tag:            "EA-1001",
		ProductionType: models.ProductionBeef,
	})
	require.NoError(t, err)
	require.NoError(t, svc.Archive(context.Background(), first.ID))

	// The tag stays reserved by the archived animal.
	_, err = svc.Create(context.Background(), models.Animal{
		Tag:            "ea-1001",
		ProductionType: models.ProductionDairy,
	})
	assert.ErrorIs(t, err, ErrDuplicateTag)
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), models.Animal{ProductionType: models.ProductionDairy})
	assert.Error(t, err, "missing tag")

	_, err = svc.Create(context.Background(), models.Animal{Tag: "EA-1", ProductionType: "poultry"})
	assert.Error(t, err, "unknown production type")

	_, err = svc.Create(context.Background(), models.Animal{
		Tag:             "EA-1",
		ProductionType:  models.ProductionBeef,
		ManualFeedKgDay: models.Float(-2),
	})
	assert.Error(t, err, "negative manual feed")
}

func TestUpdateTagConflict(t *testing.T) {
	svc, _ := newTestService()

	a, err := svc.Create(context.Background(), models.Animal{Tag: "EA-1001", ProductionType: models.ProductionDairy})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), models.Animal{Tag: "EA-1002", ProductionType: models.ProductionDairy})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), a.ID, models.Animal{Tag: "EA-1002", ProductionType: models.ProductionDairy})
	assert.ErrorIs(t, err, ErrDuplicateTag)

	_, err = svc.Update(context.Background(), "animal-missing", models.Animal{Tag: "EA-1003", ProductionType: models.ProductionDairy})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIngestSignalSanitizesAndStores(t *testing.T) {
	svc, store := newTestService()

	_, err := svc.Create(context.Background(), models.Animal{Tag: "EA-1001", ProductionType: models.ProductionDairy})
	require.NoError(t, err)

	day := time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)
	warnings, err := svc.IngestSignal(context.Background(), models.DailySignal{
		Tag:           "ea-1001",
		Date:          day,
		TroughMinutes: models.Float(9000), // seconds, not minutes
	})
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, "trough_minutes", warnings[0].Field)

	stored, err := store.SignalsForDate(context.Background(), day)
	require.NoError(t, err)
	require.Contains(t, stored, "EA-1001")
	require.NotNil(t, stored["EA-1001"].TroughMinutes)
	assert.Equal(t, 150.0, *stored["EA-1001"].TroughMinutes)
}

func TestIngestSignalUnknownTag(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.IngestSignal(context.Background(), models.DailySignal{
		Tag:  "EA-9999",
		Date: time.Now(),
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSettingsFallBackToDefaultsUntilSaved(t *testing.T) {
	svc, _ := newTestService()

	settings, err := svc.Settings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.32, settings.FeedCostPerKg)

	updated, err := svc.UpdateSettings(context.Background(), models.Settings{FeedCostPerKg: 0.4})
	require.NoError(t, err)
	assert.Equal(t, "UTC", updated.Timezone, "empty timezone falls back to default")

	settings, err = svc.Settings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.4, settings.FeedCostPerKg)

	_, err = svc.UpdateSettings(context.Background(), models.Settings{FeedCostPerKg: -1})
	assert.Error(t, err)
}
