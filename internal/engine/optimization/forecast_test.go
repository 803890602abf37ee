package optimization

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/herdsense/internal/domain/models"
)

func flatHistory(tag string, start time.Time, days int, feedKg float64) []models.DailySignal {
	feeds := make([]float64, days)
	for i := range feeds {
		feeds[i] = feedKg
	}
	return historyDays(tag, start, feeds, nil)
}

func TestForecastDairyHealthElevatedMaintains(t *testing.T) {
	reference := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	sale := reference.AddDate(0, 0, 40)
	animal := models.Animal{
		ID:              "a1",
		Tag:             "EA-1001",
		ProductionType:  models.ProductionDairy,
		FeedIntakeMode:  models.FeedModeEstimated,
		PlannedSaleDate: &sale,
		Active:          true,
	}
	history := map[string][]models.DailySignal{
		"EA-1001": flatHistory("EA-1001", reference.AddDate(0, 0, -14), 14, 12),
	}
	insights := []models.Insight{{Tag: "EA-1001", DisplayRiskBandKey: models.BandHigh, OverallRiskPct: 62}}

	plan := InventoryPlanning([]models.Animal{animal}, history, settingsFixture(), reference, insights)
	require.Len(t, plan.Forecasts, 1)

	forecast := plan.Forecasts[0]
	assert.Equal(t, models.StrategyMaintainHealth, forecast.StrategyMode)
	assert.Equal(t, models.PlanMaintain, forecast.PlanLabel)
	assert.Zero(t, forecast.SuggestedChangePct)
	assert.Equal(t, models.BandHigh, forecast.RiskBand)

	// Maintain impact prices avoided escalation: 0.15 * (120 vet + 8*5 loss).
	assert.InDelta(t, 12.0, forecast.MonthlyImpactLow, 0.01)
	assert.InDelta(t, 28.8, forecast.MonthlyImpactHigh, 0.01)
	assert.Equal(t, "Estimated avoided loss per month", forecast.MonthlyImpactLabel)
}

func TestForecastBeefNearSaleIncreasesFinish(t *testing.T) {
	reference := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	sale := reference.AddDate(0, 0, 20)
	animal := models.Animal{
		ID:                "a1",
		Tag:               "EA-1001",
		ProductionType:    models.ProductionBeef,
		ManualFeedKgDay:   models.Float(20),
		PlannedSaleDate:   &sale,
		ExpectedSaleValue: models.Float(900),
		Active:            true,
	}
	history := map[string][]models.DailySignal{
		"EA-1001": flatHistory("EA-1001", reference.AddDate(0, 0, -14), 14, 20),
	}

	plan := InventoryPlanning([]models.Animal{animal}, history, settingsFixture(), reference, nil)
	require.Len(t, plan.Forecasts, 1)

	forecast := plan.Forecasts[0]
	assert.Equal(t, models.StrategyIncreaseFinish, forecast.StrategyMode)
	assert.Equal(t, models.PlanIncrease, forecast.PlanLabel)
	assert.Equal(t, 5.0, forecast.SuggestedChangePct)
	assert.Equal(t, 21.0, forecast.SuggestedFeedKgDay)
	assert.Equal(t, 20, forecast.DaysToSale)
	// Suggested plan costs more until sale than the current plan.
	assert.Greater(t, forecast.ProjectedCostSuggested, forecast.ProjectedCostCurrent)
}

func TestForecastBeefGuardrailBacksOffToMaintain(t *testing.T) {
	reference := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	sale := reference.AddDate(0, 0, 20)
	// No expected sale value: the increase has feed cost but no modeled
	// upside, so its midpoint is negative and the guardrail reverts it.
	animal := models.Animal{
		ID:              "a1",
		Tag:             "EA-1001",
		ProductionType:  models.ProductionBeef,
		ManualFeedKgDay: models.Float(20),
		PlannedSaleDate: &sale,
		Active:          true,
	}
	history := map[string][]models.DailySignal{
		"EA-1001": flatHistory("EA-1001", reference.AddDate(0, 0, -14), 14, 20),
	}

	plan := InventoryPlanning([]models.Animal{animal}, history, settingsFixture(), reference, nil)
	require.Len(t, plan.Forecasts, 1)

	forecast := plan.Forecasts[0]
	assert.Equal(t, models.StrategyMaintainGuardrail, forecast.StrategyMode)
	assert.Equal(t, models.PlanMaintain, forecast.PlanLabel)
	assert.Zero(t, forecast.SuggestedChangePct)
	assert.Equal(t, forecast.CurrentFeedKgDay, forecast.SuggestedFeedKgDay)
}

func TestForecastDemoWhitelistStagedDates(t *testing.T) {
	reference := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	settings := settingsFixture()
	settings.DemoMode = true

	sale := reference.AddDate(0, 0, 10)
	animals := []models.Animal{
		{ID: "a1", Tag: "EA-1001", ProductionType: models.ProductionBeef, ManualFeedKgDay: models.Float(15), Active: true},
		{ID: "a2", Tag: "EA-1002", ProductionType: models.ProductionDairy, FeedIntakeMode: models.FeedModeEstimated, Active: true},
		// Has a real sale date but is not whitelisted: excluded in demo mode.
		{ID: "a3", Tag: "EA-1003", ProductionType: models.ProductionBeef, PlannedSaleDate: &sale, Active: true},
	}
	history := map[string][]models.DailySignal{
		"EA-1001": flatHistory("EA-1001", reference.AddDate(0, 0, -14), 14, 15),
		"EA-1002": flatHistory("EA-1002", reference.AddDate(0, 0, -14), 14, 12),
		"EA-1003": flatHistory("EA-1003", reference.AddDate(0, 0, -14), 14, 15),
	}

	plan := InventoryPlanning(animals, history, settings, reference, nil)
	require.Len(t, plan.Forecasts, 2)

	// Sorted by days-to-sale: the second whitelist slot gets the nearer
	// 21-day horizon, the first the 52-day one.
	assert.Equal(t, "EA-1002", plan.Forecasts[0].Tag)
	assert.Equal(t, 21, plan.Forecasts[0].DaysToSale)
	assert.Equal(t, "EA-1001", plan.Forecasts[1].Tag)
	assert.Equal(t, 52, plan.Forecasts[1].DaysToSale)

	for _, forecast := range plan.Forecasts {
		assert.True(t, strings.HasPrefix(forecast.MonthlyImpactRange, "+$"), forecast.MonthlyImpactRange)
		assert.GreaterOrEqual(t, forecast.MonthlyImpactLow, 0.0)
	}
}

func TestForecastChangePctNeverExceedsClamp(t *testing.T) {
	reference := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	sale := reference.AddDate(0, 0, 200)
	lowFeed := models.Float(50)
	animal := models.Animal{
		ID:              "a1",
		Tag:             "EA-1001",
		ProductionType:  models.ProductionBeef,
		ManualFeedKgDay: lowFeed,
		PlannedSaleDate: &sale,
		Active:          true,
	}
	settings := settingsFixture()
	settings.AvailableFeedKg = models.Float(10) // forces inventory pressure
	history := map[string][]models.DailySignal{
		"EA-1001": flatHistory("EA-1001", reference.AddDate(0, 0, -14), 14, 25),
	}

	plan := InventoryPlanning([]models.Animal{animal}, history, settings, reference, nil)
	require.Len(t, plan.Forecasts, 1)

	forecast := plan.Forecasts[0]
	assert.Equal(t, models.StrategyReduceLongHorizon, forecast.StrategyMode)
	assert.GreaterOrEqual(t, forecast.SuggestedChangePct, -10.0)
	assert.LessOrEqual(t, forecast.SuggestedChangePct, 10.0)
}

func TestInventoryRunwayAndBurnRate(t *testing.T) {
	reference := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	settings := settingsFixture()
	settings.AvailableFeedKg = models.Float(300)

	animals := []models.Animal{
		{ID: "a1", Tag: "EA-1001", ProductionType: models.ProductionDairy, FeedIntakeMode: models.FeedModeEstimated, Active: true},
	}
	history := map[string][]models.DailySignal{
		"EA-1001": flatHistory("EA-1001", reference.AddDate(0, 0, -10), 10, 10),
	}

	plan := InventoryPlanning(animals, history, settings, reference, nil)
	assert.Equal(t, 10.0, plan.BurnRateKgDay)
	require.NotNil(t, plan.DaysOfFeedRemaining)
	assert.Equal(t, 30.0, *plan.DaysOfFeedRemaining)
	assert.InDelta(t, 90.0, plan.ProjectedMonthlyFeedCost, 0.001)
}

func TestMonthlyRangeStrings(t *testing.T) {
	assert.Equal(t, "+$5 to +$12/month", monthlyRangeString(5, 12))
	assert.Equal(t, "-$12 to -$5/month", monthlyRangeString(-5, -12))
	// Both near zero fall back to the default window.
	assert.Equal(t, "+$2 to +$8/month", monthlyRangeString(0.1, 0.2))
	assert.Equal(t, "+$5 to +$12 per month", monthlyRangeStringDemoPositive(5, 12))
	assert.Equal(t, "+$1 to +$1 per month", monthlyRangeStringDemoPositive(-3, 0.2))
}
