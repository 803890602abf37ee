package sheets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/herdsense/internal/domain/models"
)

func TestMoneyLeakRows(t *testing.T) {
	reportDate := time.Date(2025, 3, 21, 0, 0, 0, 0, time.UTC)
	report := models.MoneyReport{
		Leaks: []models.MoneyLeakCard{
			{
				ID:          "leak-feed_spend_rising",
				Title:       "Feed spend is rising",
				Severity:    64.5,
				ImpactLow:   12,
				ImpactHigh:  30,
				ImpactRange: "$12-$30/week",
			},
		},
	}

	rows := MoneyLeakRows(reportDate, report)
	require.Len(t, rows, 1)
	assert.Equal(t, "2025-03-21", rows[0][0])
	assert.Equal(t, "leak-feed_spend_rising", rows[0][1])
	assert.Equal(t, 64.5, rows[0][3])
	assert.Equal(t, "$12-$30/week", rows[0][6])
}

func TestForecastRows(t *testing.T) {
	reportDate := time.Date(2025, 3, 21, 0, 0, 0, 0, time.UTC)
	plan := models.InventoryPlan{
		Forecasts: []models.SaleForecast{
			{
				Tag:                "EA-1008",
				StrategyMode:       models.StrategyIncreaseFinish,
				PlanLabel:          models.PlanIncrease,
				SuggestedChangePct: 5,
				SuggestedFeedKgDay: 21,
				DaysToSale:         20,
				MonthlyImpactRange: "+$8 to +$24/month",
			},
		},
	}

	rows := ForecastRows(reportDate, plan)
	require.Len(t, rows, 1)
	assert.Equal(t, "EA-1008", rows[0][1])
	assert.Equal(t, "increase_finish", rows[0][2])
	assert.Equal(t, "Increase", rows[0][3])
	assert.Equal(t, 20, rows[0][6])
}
