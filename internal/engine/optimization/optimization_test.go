package optimization

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/herdsense/internal/domain/models"
)

func TestAnalyzeCongestionNeedsEnoughData(t *testing.T) {
	animals := []models.Animal{{ID: "a1", Tag: "EA-1001", Active: true}}
	signals := map[string]models.DailySignal{
		"EA-1001": {MealTimestamps: []int{360, 720, 1080, 400, 800, 1100}},
	}

	// One active animal is never enough, regardless of samples.
	report := AnalyzeCongestion(animals, signals, settingsFixture())
	assert.False(t, report.HasFeedingData)
	assert.Equal(t, "unknown", report.Level)
	assert.Nil(t, report.CongestionScore)

	// Two animals but under six feeding samples total.
	animals = append(animals, models.Animal{ID: "a2", Tag: "EA-1002", Active: true})
	signals = map[string]models.DailySignal{
		"EA-1001": {MealTimestamps: []int{360, 720}},
		"EA-1002": {MealTimestamps: []int{400}},
	}
	report = AnalyzeCongestion(animals, signals, settingsFixture())
	assert.False(t, report.HasFeedingData)
}

func TestAnalyzeCongestionFullOverlapIsHigh(t *testing.T) {
	animals := []models.Animal{
		{ID: "a1", Tag: "EA-1001", Active: true},
		{ID: "a2", Tag: "EA-1002", Active: true},
		{ID: "a3", Tag: "EA-1003", Active: true},
	}
	// All three animals feed at the same three times.
	shared := []int{360, 720, 1080}
	signals := map[string]models.DailySignal{
		"EA-1001": {MealTimestamps: shared},
		"EA-1002": {MealTimestamps: shared},
		"EA-1003": {MealTimestamps: shared},
	}

	report := AnalyzeCongestion(animals, signals, settingsFixture())
	require.True(t, report.HasFeedingData)
	require.NotNil(t, report.CongestionScore)
	assert.Equal(t, 1.0, *report.CongestionScore)
	assert.Equal(t, "high", report.Level)
	require.NotEmpty(t, report.PeakWindows)
	assert.Contains(t, report.PeakWindows[0], "3 animals")
	require.NotNil(t, report.AvgAnimalsSimultaneous)
	assert.Equal(t, 3.0, *report.AvgAnimalsSimultaneous)
}

func TestAnalyzeCongestionSynthesizesWaterFromVisits(t *testing.T) {
	animals := []models.Animal{
		{ID: "a1", Tag: "EA-1001", Active: true},
		{ID: "a2", Tag: "EA-1002", Active: true},
	}
	signals := map[string]models.DailySignal{
		"EA-1001": {MealTimestamps: []int{360, 500, 700}, WaterVisits: models.Float(4)},
		"EA-1002": {MealTimestamps: []int{360, 500, 700}, WaterVisits: models.Float(4)},
	}

	report := AnalyzeCongestion(animals, signals, settingsFixture())
	require.True(t, report.HasFeedingData)
	// Synthesized water visits land on the same spread for both animals,
	// so every water bin overlaps.
	require.NotNil(t, report.WaterCongestionScore)
	assert.Equal(t, 1.0, *report.WaterCongestionScore)
	assert.Equal(t, "high", report.WaterLevel)
}

func moneyReportFixture(t *testing.T, lastWeekKg, prevWeekKg float64, occurrences []models.TaskOccurrence) models.MoneyReport {
	t.Helper()
	reference := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	animals := []models.Animal{
		{ID: "a1", Tag: "EA-1001", ProductionType: models.ProductionDairy, FeedIntakeMode: models.FeedModeEstimated, Active: true},
	}
	feeds := make([]float64, 14)
	for i := 0; i < 7; i++ {
		feeds[i] = prevWeekKg
		feeds[i+7] = lastWeekKg
	}
	history := map[string][]models.DailySignal{
		"EA-1001": historyDays("EA-1001", reference.AddDate(0, 0, -14), feeds, nil),
	}
	congestion := models.CongestionReport{HasFeedingData: false, Level: "unknown", WaterLevel: "unknown"}
	return WeeklyMoneyReport(animals, history, settingsFixture(), nil, congestion, reference, occurrences)
}

func TestWeeklyMoneyReportFeedSpendRising(t *testing.T) {
	report := moneyReportFixture(t, 12, 10, nil)

	assert.InDelta(t, 12*7*0.3, report.FeedSpendWeek, 0.001)
	require.NotNil(t, report.FeedSpendChangePct)
	assert.InDelta(t, 20.0, *report.FeedSpendChangePct, 0.1)
	assert.Equal(t, "feed_spend", report.ChangeBasis)

	require.NotEmpty(t, report.Leaks)
	found := false
	for _, leak := range report.Leaks {
		if leak.TemplateID == "feed_spend_rising" {
			found = true
			assert.NotEmpty(t, leak.Evidence)
			assert.Len(t, leak.DoNext, 2)
			assert.Greater(t, leak.ImpactHigh, leak.ImpactLow)
		}
	}
	assert.True(t, found, "expected feed_spend_rising leak")
}

func TestWeeklyMoneyReportStableWeekFallback(t *testing.T) {
	report := moneyReportFixture(t, 10, 10, nil)

	require.Len(t, report.Leaks, 1)
	assert.Equal(t, "leak-tasks_overdue-stable-week", report.Leaks[0].ID)
	assert.Equal(t, "No major money leaks found", report.Leaks[0].Title)
	assert.Equal(t, 20.0, report.Leaks[0].Severity)
}

func TestWeeklyMoneyReportOverdueTasks(t *testing.T) {
	overdue := []models.TaskOccurrence{
		{ID: "occ-1", Title: "Hoof check (light)", DueDate: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), Status: models.StatusPending},
		{ID: "occ-2", Title: "Water trough clean", DueDate: time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC), Status: models.StatusPending},
		{ID: "occ-3", Title: "Old done task", DueDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), Status: models.StatusDone},
	}

	report := moneyReportFixture(t, 10, 10, overdue)

	require.Len(t, report.Leaks, 1)
	leak := report.Leaks[0]
	assert.Equal(t, "tasks_overdue", leak.TemplateID)
	assert.Equal(t, "1 task(s) overdue", leak.Title)
	assert.Contains(t, leak.Evidence, "Hoof check (light)")
}

func TestWeeklyMoneyReportLeaksSortedBySeverity(t *testing.T) {
	overdue := []models.TaskOccurrence{
		{ID: "occ-1", Title: "Hoof check", DueDate: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), Status: models.StatusPending},
	}
	report := moneyReportFixture(t, 13, 10, overdue)

	require.GreaterOrEqual(t, len(report.Leaks), 2)
	for i := 1; i < len(report.Leaks); i++ {
		assert.GreaterOrEqual(t, report.Leaks[i-1].Severity, report.Leaks[i].Severity)
	}
}

func TestMilkingScheduleDefaultsAndHeatShift(t *testing.T) {
	reference := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	settings := settingsFixture()
	settings.MorningWindowStart, settings.MorningWindowEnd = "05:30", "08:00"
	settings.EveningWindowStart, settings.EveningWindowEnd = "16:30", "19:00"

	animals := []models.Animal{
		{ID: "a1", Tag: "EA-1001", ProductionType: models.ProductionDairy, Active: true},
	}

	schedule := MilkingSchedule(animals, settings, nil, reference)
	assert.Equal(t, "2x/day", schedule.Frequency)
	assert.Equal(t, []string{"06:45", "17:45"}, schedule.Times)
	assert.Len(t, schedule.Reminders, 14) // 2 per day over 7 days
	assert.Len(t, schedule.Today, 2)
	assert.Len(t, schedule.Next7Days, 7)

	// Elevated herd heat moves the schedule one hour earlier.
	hot := []models.Insight{{Tag: "EA-1001", ContributingScores: map[string]float64{models.FactorHeat: 40}}}
	shifted := MilkingSchedule(animals, settings, hot, reference)
	assert.Equal(t, []string{"05:45", "16:45"}, shifted.Times)
	assert.Contains(t, shifted.Notes[0], "earlier by 1 hour")
}

func TestMilkingSchedulePerAnimalOverrides(t *testing.T) {
	reference := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	settings := settingsFixture()
	settings.MilkingScheduleMode = "per_animal"
	settings.MilkingFrequency = "2x/day"

	animals := []models.Animal{
		{ID: "a1", Tag: "EA-1001", Name: "Bella", ProductionType: models.ProductionDairy, TargetMilkingFrequency: "3x/day", Active: true},
		{ID: "a2", Tag: "EA-1002", Name: "Nala", ProductionType: models.ProductionDairy, Active: true},
	}

	schedule := MilkingSchedule(animals, settings, nil, reference)
	// 3 + 2 reminders per day over 7 days.
	assert.Len(t, schedule.Reminders, 35)
	assert.Len(t, schedule.Today, 5)
}

func TestMilkingScheduleEarlyLactationPrompt(t *testing.T) {
	reference := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	animals := []models.Animal{
		{ID: "a1", Tag: "EA-1001", Name: "Bella", ProductionType: models.ProductionDairy, LactationStage: "early", Active: true},
	}

	schedule := MilkingSchedule(animals, settingsFixture(), nil, reference)
	require.NotEmpty(t, schedule.Prompts)
	assert.Contains(t, schedule.Prompts[0], "early lactation")
}

func TestProfitCardsStatusFromTrends(t *testing.T) {
	reference := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	animal := models.Animal{ID: "a1", Tag: "EA-1001", ProductionType: models.ProductionDairy, FeedIntakeMode: models.FeedModeEstimated, Active: true}

	feeds := make([]float64, 14)
	milk := make([]*float64, 14)
	for i := 0; i < 14; i++ {
		feeds[i] = 10
		if i < 7 {
			milk[i] = models.Float(22)
		} else {
			milk[i] = models.Float(18) // output falls while feed holds
		}
	}
	history := map[string][]models.DailySignal{
		"EA-1001": historyDays("EA-1001", reference.AddDate(0, 0, -14), feeds, milk),
	}

	cards := ProfitCards([]models.Animal{animal}, history, nil, settingsFixture(), nil, reference)
	require.Len(t, cards, 1)
	assert.Equal(t, "Declining", cards[0].Status)
	assert.Equal(t, "Investigate", cards[0].Recommendation)
	assert.Equal(t, "Status based on 7-day output and feed trend.", cards[0].Note)
	require.NotNil(t, cards[0].TrendDeltaPct)
	assert.Negative(t, *cards[0].TrendDeltaPct)
}

func TestProfitCardsBehaviorFallback(t *testing.T) {
	reference := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	animal := models.Animal{ID: "a1", Tag: "EA-1001", ProductionType: models.ProductionBeef, ManualFeedKgDay: models.Float(15), Active: true}
	history := map[string][]models.DailySignal{
		"EA-1001": flatHistory("EA-1001", reference.AddDate(0, 0, -14), 14, 15),
	}
	insights := []models.Insight{{Tag: "EA-1001", OverallRiskPct: 40}}

	cards := ProfitCards([]models.Animal{animal}, history, nil, settingsFixture(), insights, reference)
	require.Len(t, cards, 1)
	assert.Equal(t, "Declining", cards[0].Status)
	assert.Equal(t, "Status based on behavior signals.", cards[0].Note)
}

func TestComputeAggregatesAndDueSoonWindow(t *testing.T) {
	reference := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	animals := []models.Animal{
		{ID: "a1", Tag: "EA-1001", ProductionType: models.ProductionDairy, FeedIntakeMode: models.FeedModeEstimated, Active: true},
	}
	occurrences := []models.TaskOccurrence{
		{ID: "soon", Title: "Soon", DueDate: reference.AddDate(0, 0, 3), Status: models.StatusPending},
		{ID: "later", Title: "Later", DueDate: reference.AddDate(0, 0, 20), Status: models.StatusPending},
		{ID: "past", Title: "Past", DueDate: reference.AddDate(0, 0, -1), Status: models.StatusPending},
		{ID: "done", Title: "Done", DueDate: reference.AddDate(0, 0, 2), Status: models.StatusDone},
	}

	result := Compute(Input{
		Animals: animals,
		SignalsByTag: map[string]models.DailySignal{
			"EA-1001": {FeedIntakeEstKg: models.Float(10)},
		},
		HistoryByTag: map[string][]models.DailySignal{
			"EA-1001": flatHistory("EA-1001", reference.AddDate(0, 0, -14), 14, 10),
		},
		Settings:    settingsFixture(),
		Occurrences: occurrences,
		Reference:   reference,
	})

	require.Len(t, result.FeedRows, 1)
	require.Len(t, result.TasksDueSoon, 1)
	assert.Equal(t, "soon", result.TasksDueSoon[0].ID)
	assert.NotEmpty(t, result.MoneyReport.Leaks)
	assert.Len(t, result.Series.Dates, 7)
}
