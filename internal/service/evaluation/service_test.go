package evaluation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/herdsense/internal/domain/models"
	"github.com/mamadbah2/herdsense/internal/engine/calendar"
	"github.com/mamadbah2/herdsense/internal/repository/mongodb"
	"github.com/mamadbah2/herdsense/pkg/clients/webhook"
)

type capturingAlerts struct {
	sent    []webhook.Alert
	digests []webhook.MoneyDigest
}

func (c *capturingAlerts) SendAlert(_ context.Context, alert webhook.Alert) error {
	c.sent = append(c.sent, alert)
	return nil
}

func (c *capturingAlerts) SendMoneyReport(_ context.Context, digest webhook.MoneyDigest) error {
	c.digests = append(c.digests, digest)
	return nil
}

func defaultSettings() models.Settings {
	return models.Settings{
		FeedCostPerKg:    0.32,
		Timezone:         "UTC",
		MilkingFrequency: "2x/day",
	}
}

func steadySignal(tag string, date time.Time) models.DailySignal {
	return models.DailySignal{
		Tag:            tag,
		Date:           date,
		TroughMinutes:  models.Float(120),
		MealsCount:     models.Float(10),
		ActivityIndex:  models.Float(0.8),
		AloneMinutes:   models.Float(30),
		WaterVisits:    models.Float(8),
		LyingMinutes:   models.Float(500),
		TempC:          models.Float(28),
		HumidityPct:    models.Float(62),
	}
}

func seedSickHerd(t *testing.T, store *mongodb.MemoryStore, today time.Time) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, store.UpsertAnimal(ctx, models.Animal{
		ID:             "animal-1",
		Tag:            "EA-1001",
		Name:           "Willow",
		ProductionType: models.ProductionDairy,
		FeedIntakeMode: models.FeedModeEstimated,
		Active:         true,
	}))

	for offset := -14; offset < 0; offset++ {
		require.NoError(t, store.UpsertDailySignal(ctx, steadySignal("EA-1001", today.AddDate(0, 0, offset))))
	}

	// Today deviates hard from baseline on every tracked metric.
	require.NoError(t, store.UpsertDailySignal(ctx, models.DailySignal{
		Tag:           "EA-1001",
		Date:          today,
		TroughMinutes: models.Float(90),
		MealsCount:    models.Float(8.4),
		ActivityIndex: models.Float(0.632),
		AloneMinutes:  models.Float(34),
		WaterVisits:   models.Float(6.5),
		LyingMinutes:  models.Float(565),
		TempC:         models.Float(33.5),
		HumidityPct:   models.Float(74),
	}))
}

func TestRunDailyCyclePersistsSnapshotAndStreaks(t *testing.T) {
	store := mongodb.NewMemoryStore()
	today := calendar.Today("UTC")
	seedSickHerd(t, store, today)

	svc := NewService(store, nil, nil, nil, defaultSettings(), nil)

	snapshot, err := svc.RunDailyCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, snapshot.Insights, 1)

	insight := snapshot.Insights[0]
	assert.Equal(t, "EA-1001", insight.Tag)
	assert.InDelta(t, 72.0, insight.OverallRiskPct, 2.5)
	assert.GreaterOrEqual(t, insight.StrongSignalCount, 3)
	// A single elevated day is displayed as moderate pending confirmation.
	assert.Equal(t, models.BandModerate, insight.DisplayRiskBandKey)

	stored, err := store.LatestEvaluation(context.Background())
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, snapshot.ID, stored.ID)
	assert.NotEmpty(t, stored.Optimization.FeedRows)

	streaks, err := store.ListStreaks(context.Background())
	require.NoError(t, err)
	require.Contains(t, streaks, "EA-1001")
	assert.Equal(t, 1, streaks["EA-1001"].StreakDays)
}

func TestRunDailyCycleSeedsTemplatesAndProjectsOccurrences(t *testing.T) {
	store := mongodb.NewMemoryStore()
	today := calendar.Today("UTC")
	seedSickHerd(t, store, today)

	svc := NewService(store, nil, nil, nil, defaultSettings(), nil)
	_, err := svc.RunDailyCycle(context.Background())
	require.NoError(t, err)

	templates, err := store.ListTaskTemplates(context.Background())
	require.NoError(t, err)

	ids := make(map[string]bool, len(templates))
	for _, template := range templates {
		ids[template.ID] = true
	}
	assert.True(t, ids["tmpl-hoof-check"])
	assert.True(t, ids["tmpl-water-clean"])
	assert.True(t, ids["tmpl-milking-am"])
	assert.True(t, ids["tmpl-milking-pm"])
	assert.False(t, ids["tmpl-milking-mid"], "midday session only at 3x/day")

	occurrences, err := store.ListOccurrences(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, occurrences)

	// A second cycle must not duplicate projected occurrences.
	_, err = svc.RunDailyCycle(context.Background())
	require.NoError(t, err)
	again, err := store.ListOccurrences(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(occurrences), len(again))
}

func TestRunDailyCycleAlertsOnPersistentHigh(t *testing.T) {
	store := mongodb.NewMemoryStore()
	today := calendar.Today("UTC")
	seedSickHerd(t, store, today)

	// Yesterday already closed with an elevated streak, so today's elevated
	// score confirms as high.
	require.NoError(t, store.SaveStreaks(context.Background(), []models.RiskStreakState{{
		Tag:           "EA-1001",
		StreakDays:    1,
		LastScore:     55,
		LastBandKey:   models.BandModerate,
		LastEvaluated: today.AddDate(0, 0, -1),
	}}))

	alerts := &capturingAlerts{}
	svc := NewService(store, nil, alerts, nil, defaultSettings(), nil)

	snapshot, err := svc.RunDailyCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, snapshot.Insights, 1)
	assert.Equal(t, models.BandHigh, snapshot.Insights[0].DisplayRiskBandKey)

	require.Len(t, alerts.sent, 1)
	require.Len(t, alerts.sent[0].Animals, 1)
	entry := alerts.sent[0].Animals[0]
	assert.Equal(t, "EA-1001", entry.Tag)
	assert.Equal(t, "Willow", entry.Name)
	assert.Equal(t, "high (persistent)", entry.RiskBand)
}

func TestExportWeeklyReportPostsDigest(t *testing.T) {
	store := mongodb.NewMemoryStore()
	today := calendar.Today("UTC")
	seedSickHerd(t, store, today)

	alerts := &capturingAlerts{}
	svc := NewService(store, nil, alerts, nil, defaultSettings(), nil)

	_, err := svc.RunDailyCycle(context.Background())
	require.NoError(t, err)

	require.NoError(t, svc.ExportWeeklyReport(context.Background()))
	require.Len(t, alerts.digests, 1)
	assert.Equal(t, today.Format("2006-01-02"), alerts.digests[0].Date)
	assert.GreaterOrEqual(t, alerts.digests[0].TotalImpactHigh, alerts.digests[0].TotalImpactLow)
}

func TestDefaultTemplatesClampIntervals(t *testing.T) {
	today := time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)

	settings := defaultSettings()
	settings.HoofTrimIntervalWeeks = models.Int(20)
	settings.WaterCleanIntervalDays = models.Int(1)

	templates := DefaultTemplates(settings, today)
	byID := make(map[string]models.TaskTemplate, len(templates))
	for _, template := range templates {
		byID[template.ID] = template
	}

	require.Contains(t, byID, "tmpl-hoof-trim")
	assert.Equal(t, 10, byID["tmpl-hoof-trim"].Recurrence.Every)
	assert.Equal(t, models.UnitWeeks, byID["tmpl-hoof-trim"].Recurrence.Unit)

	require.Contains(t, byID, "tmpl-water-clean")
	assert.Equal(t, 2, byID["tmpl-water-clean"].Recurrence.Every)
}

func TestDefaultTemplatesMilkingFrequencies(t *testing.T) {
	today := time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)

	settings := defaultSettings()
	settings.MilkingFrequency = "3x/day"
	settings.MorningWindowStart = "05:30"

	templates := milkingTemplates(settings, today)
	require.Len(t, templates, 3)
	assert.Equal(t, "05:30", templates[0].DefaultTime)

	settings.MilkingFrequency = "1x/day"
	assert.Len(t, milkingTemplates(settings, today), 1)

	settings.MilkingScheduleMode = "per_animal"
	assert.Empty(t, milkingTemplates(settings, today))
}
