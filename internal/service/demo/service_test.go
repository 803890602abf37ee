package demo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/herdsense/internal/domain/models"
	"github.com/mamadbah2/herdsense/internal/engine/calendar"
	"github.com/mamadbah2/herdsense/internal/repository/mongodb"
)

func TestSeedCreatesDeterministicHerd(t *testing.T) {
	store := mongodb.NewMemoryStore()
	svc := NewService(store, nil, nil)

	require.NoError(t, svc.Seed(context.Background(), "UTC"))

	animals, err := store.ListAnimals(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, animals, herdSize)

	tags := make(map[string]bool, len(animals))
	dairy := 0
	for _, animal := range animals {
		tags[animal.Tag] = true
		assert.True(t, animal.Active)
		assert.NotEmpty(t, animal.Name)
		if animal.ProductionType == models.ProductionDairy {
			dairy++
		}
	}
	assert.True(t, tags["EA-1001"])
	assert.True(t, tags["EA-1010"])
	assert.Equal(t, 7, dairy, "first 62% of the herd is dairy")

	history, err := store.SignalHistory(context.Background(), "EA-1001",
		calendar.Today("UTC").AddDate(0, 0, -historyDays))
	require.NoError(t, err)
	assert.Len(t, history, historyDays)

	for _, signal := range history {
		require.NotNil(t, signal.TroughMinutes)
		assert.Greater(t, *signal.TroughMinutes, 0.0)
		assert.NotEmpty(t, signal.MealTimestamps)
		assert.NotEmpty(t, signal.WaterTimestamps)
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	store := mongodb.NewMemoryStore()
	svc := NewService(store, nil, nil)

	require.NoError(t, svc.Seed(context.Background(), "UTC"))
	first, err := store.ListAnimals(context.Background(), true)
	require.NoError(t, err)

	require.NoError(t, svc.Seed(context.Background(), "UTC"))
	second, err := store.ListAnimals(context.Background(), true)
	require.NoError(t, err)

	assert.Equal(t, len(first), len(second))
	assert.Equal(t, first, second, "reseeding yields the identical herd")
}

func TestBuildAnimalStagedSaleDates(t *testing.T) {
	today := calendar.Today("UTC")

	// First two beef animals always carry near and mid-horizon sale dates.
	dairyCount := 7
	first := buildAnimal(dairyCount, today)
	second := buildAnimal(dairyCount+1, today)

	require.Equal(t, models.ProductionBeef, first.ProductionType)
	require.NotNil(t, first.PlannedSaleDate)
	assert.Equal(t, 22, calendar.DaysBetween(today, *first.PlannedSaleDate))
	require.NotNil(t, first.ExpectedSaleValue)

	require.NotNil(t, second.PlannedSaleDate)
	assert.Equal(t, 88, calendar.DaysBetween(today, *second.PlannedSaleDate))
}

func TestDairyAnimalsCarryMilkSignals(t *testing.T) {
	today := calendar.Today("UTC")
	animal := buildAnimal(0, today)
	require.Equal(t, models.ProductionDairy, animal.ProductionType)

	profile := restingProfileFor(animal)
	signal := buildSignal(animal, profile, today)
	require.NotNil(t, signal.MilkLiters)
	assert.Greater(t, *signal.MilkLiters, 0.0)

	beef := buildAnimal(9, today)
	require.Equal(t, models.ProductionBeef, beef.ProductionType)
	assert.Nil(t, buildSignal(beef, restingProfileFor(beef), today).MilkLiters)
}
