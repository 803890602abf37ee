package optimization

import (
	"time"

	"github.com/mamadbah2/herdsense/internal/domain/models"
)

// ProfitCards summarizes each active animal's weekly economics into a coarse
// status and recommendation. Animals without milk data are judged on
// behavior risk instead of output trend.
func ProfitCards(animals []models.Animal, historyByTag map[string][]models.DailySignal, signalsByTag map[string]models.DailySignal, settings models.Settings, insights []models.Insight, reference time.Time) []models.ProfitCard {
	active := activeOnly(animals)

	insightByTag := make(map[string]*models.Insight, len(insights))
	for i := range insights {
		insightByTag[models.NormalizeTag(insights[i].Tag)] = &insights[i]
	}

	weekly := make([]models.WeeklyRollup, 0, len(active))
	for _, animal := range active {
		weekly = append(weekly, BuildWeeklyRollup(animal, historyByTag[models.NormalizeTag(animal.Tag)], reference, settings))
	}

	herdCostSum, herdCostCount := 0.0, 0
	for _, row := range weekly {
		if row.LastFeedAvgKg != nil {
			herdCostSum += *row.LastFeedAvgKg * settings.FeedCostPerKg
			herdCostCount++
		}
	}
	herdAvgCost := 0.0
	if herdCostCount > 0 {
		herdAvgCost = herdCostSum / float64(herdCostCount)
	}

	cards := make([]models.ProfitCard, 0, len(weekly))
	for _, row := range weekly {
		tag := models.NormalizeTag(row.Tag)
		insight := insightByTag[tag]
		signal := signalsByTag[tag]

		costDay := 0.0
		if row.LastFeedAvgKg != nil {
			costDay = *row.LastFeedAvgKg * settings.FeedCostPerKg
		}

		efficiencyDelta := percentDelta(row.Efficiency7, row.EfficiencyPrev7)
		milkDelta := percentDelta(row.LastMilkAvg, row.PrevMilkAvg)

		behaviorRisk := 0.0
		if insight != nil {
			behaviorRisk = insight.OverallRiskPct / 100
		}

		val := func(p *float64) float64 {
			if p == nil {
				return 0
			}
			return *p
		}

		status := "Stable"
		if row.Efficiency7 != nil && row.EfficiencyPrev7 != nil {
			if val(efficiencyDelta) <= -5 || val(milkDelta) <= -6 {
				status = "Declining"
			} else if val(efficiencyDelta) >= 5 || val(milkDelta) >= 6 {
				status = "Improving"
			}
		} else if behaviorRisk >= 0.35 {
			status = "Declining"
		} else if behaviorRisk > 0.18 {
			status = "Watch"
		}

		recommendation := "Watch"
		switch {
		case status == "Improving":
			recommendation = "Keep"
		case status == "Declining" && costDay >= herdAvgCost*1.05:
			recommendation = "Investigate"
		case status == "Stable" && row.DaysToSale != nil && *row.DaysToSale >= 0 && *row.DaysToSale <= 45:
			recommendation = "Consider sale timing"
		case row.LastMilkAvg == nil && signal.ActivityIndex == nil:
			recommendation = "Watch"
		case status == "Stable":
			recommendation = "Keep"
		}
		if status == "Declining" && recommendation != "Consider sale timing" {
			recommendation = "Investigate"
		}

		// "Watch" is an internal distinction; the card shows it as Stable.
		statusLabel := status
		if statusLabel == "Watch" {
			statusLabel = "Stable"
		}

		note := "Status based on 7-day output and feed trend."
		if row.LastMilkAvg == nil {
			note = "Status based on behavior signals."
		}

		trend := milkDelta
		if row.Efficiency7 != nil {
			trend = efficiencyDelta
		}
		if trend != nil {
			rounded := round1(*trend)
			trend = &rounded
		}

		cards = append(cards, models.ProfitCard{
			AnimalID:        row.AnimalID,
			Tag:             row.Tag,
			Name:            row.Name,
			CostDay:         round2(costDay),
			OutputDay:       row.LastMilkAvg,
			Efficiency7:     row.Efficiency7,
			EfficiencyPrev7: row.EfficiencyPrev7,
			Status:          statusLabel,
			Recommendation:  recommendation,
			Note:            note,
			TrendDeltaPct:   trend,
			DaysToSale:      row.DaysToSale,
			FeedSourceLabel: row.FeedSourceLabel,
		})
	}
	return cards
}
