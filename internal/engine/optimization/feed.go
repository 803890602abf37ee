// Package optimization turns daily signals and per-animal history into feed
// economics: resolved intake, weekly rollups, money leaks, sale/cull feeding
// forecasts, congestion analysis and milking schedules. Like the insight
// engine it is pure computation; all state arrives as arguments.
package optimization

import (
	"math"

	"github.com/mamadbah2/herdsense/internal/domain/models"
)

// Estimation defaults used when settings leave the rates unconfigured.
const (
	defaultKgPerTroughMinute = 0.12
	defaultKgPerMealOffset   = 0.5
	minFeedFloorKg           = 0.5
)

// Plausible daily intake bounds per production type.
var feedBounds = map[models.ProductionType][2]float64{
	models.ProductionDairy: {5, 35},
	models.ProductionBeef:  {5, 30},
}

func boundsFor(animal models.Animal) (float64, float64) {
	if b, ok := feedBounds[animal.ProductionType]; ok {
		return b[0], b[1]
	}
	return 5, 35
}

func clampFeedKg(animal models.Animal, kg float64) float64 {
	min, max := boundsFor(animal)
	return round2(math.Max(min, math.Min(max, kg)))
}

func resolvedFeedMode(animal models.Animal, settings models.Settings) models.FeedIntakeMode {
	mode := animal.FeedIntakeMode
	if mode == "" || mode == models.FeedModeInherit {
		mode = settings.DefaultFeedIntakeMode
	}
	switch mode {
	case models.FeedModeManual, models.FeedModeEstimated, models.FeedModeHybrid:
		return mode
	default:
		return models.FeedModeHybrid
	}
}

func hasManualFeed(animal models.Animal) bool {
	return animal.ManualFeedKgDay != nil && *animal.ManualFeedKgDay > 0
}

func estimateFromSignal(signal models.DailySignal, animal models.Animal, settings models.Settings) models.FeedResolution {
	if signal.FeedIntakeEstKg != nil {
		return models.FeedResolution{
			Kg:     clampFeedKg(animal, *signal.FeedIntakeEstKg),
			Source: "estimated",
			Method: "sensor_estimate",
		}
	}

	kgPerMinute := defaultKgPerTroughMinute
	if settings.KgPerTroughMinute != nil {
		kgPerMinute = *settings.KgPerTroughMinute
	}
	kgPerMeal := defaultKgPerMealOffset
	if settings.KgPerMealOffset != nil {
		kgPerMeal = *settings.KgPerMealOffset
	}

	trough, meals := 0.0, 0.0
	if signal.TroughMinutes != nil {
		trough = *signal.TroughMinutes
	}
	if signal.MealsCount != nil {
		meals = *signal.MealsCount
	}
	return models.FeedResolution{
		Kg:     clampFeedKg(animal, trough*kgPerMinute+meals*kgPerMeal),
		Source: "estimated",
		Method: "camera_formula",
	}
}

// ResolveFeed resolves one animal's effective feed intake for one day from
// its feed mode, manual entry and sensor signal. Manual entries win in
// manual and hybrid modes; estimation covers the rest, always clamped to
// the production-type bounds.
func ResolveFeed(animal models.Animal, signal models.DailySignal, settings models.Settings) models.FeedResolution {
	mode := resolvedFeedMode(animal, settings)
	estimated := estimateFromSignal(signal, animal, settings)

	var manual models.FeedResolution
	if hasManualFeed(animal) {
		manual = models.FeedResolution{Kg: clampFeedKg(animal, *animal.ManualFeedKgDay), Source: "manual"}
	}

	switch mode {
	case models.FeedModeManual:
		if hasManualFeed(animal) {
			manual.ModeApplied = "manual"
			return manual
		}
		estimated.ModeApplied = "manual_fallback_estimated"
		return estimated
	case models.FeedModeEstimated:
		estimated.ModeApplied = "estimated"
		return estimated
	default:
		if hasManualFeed(animal) {
			manual.ModeApplied = "hybrid_manual"
			return manual
		}
		estimated.ModeApplied = "hybrid_estimated"
		return estimated
	}
}

// FeedRows computes today's feed economics for every active animal.
func FeedRows(animals []models.Animal, signalsByTag map[string]models.DailySignal, baselinesByTag map[string]models.Baseline, settings models.Settings) []models.FeedRow {
	baselineRate := defaultKgPerTroughMinute
	if settings.KgPerTroughMinute != nil {
		baselineRate = *settings.KgPerTroughMinute
	}

	var rows []models.FeedRow
	for _, animal := range activeOnly(animals) {
		tag := models.NormalizeTag(animal.Tag)
		signal := signalsByTag[tag]
		baseline := baselinesByTag[tag]
		feed := ResolveFeed(animal, signal, settings)

		row := models.FeedRow{
			AnimalID:        animal.ID,
			Tag:             animal.Tag,
			Name:            animal.DisplayName(),
			ProductionType:  animal.ProductionType,
			FeedKgDay:       round2(feed.Kg),
			FeedSource:      feed.Source,
			CostDay:         round2(feed.Kg * settings.FeedCostPerKg),
			PlannedSaleDate: animal.PlannedSaleDate,
		}

		if signal.MilkLiters != nil {
			output := round2(*signal.MilkLiters)
			row.OutputLiters = &output
			if feed.Kg > 0 {
				eff := round3(output / feed.Kg)
				row.Efficiency = &eff
			}
		}

		switch {
		case baseline.FeedIntakeEstKg != nil:
			row.BaselineFeedKg = *baseline.FeedIntakeEstKg
		case baseline.TroughMinutes != nil:
			row.BaselineFeedKg = *baseline.TroughMinutes * baselineRate
		}

		rows = append(rows, row)
	}
	return rows
}

func activeOnly(animals []models.Animal) []models.Animal {
	var out []models.Animal
	for _, animal := range animals {
		if animal.Active {
			out = append(out, animal)
		}
	}
	return out
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
