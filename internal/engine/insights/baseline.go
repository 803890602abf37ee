package insights

import (
	"time"

	"github.com/mamadbah2/herdsense/internal/domain/models"
)

// BaselineWindowDays is the trailing window the rolling baseline averages
// over. Three weeks smooths weekday/weekend routine differences without
// going stale.
const BaselineWindowDays = 21

// BuildBaseline computes per-metric rolling means for one animal from its
// signal history. Only signals strictly before asOf and within the window
// participate; metrics with no samples at all stay nil.
func BuildBaseline(tag string, history []models.DailySignal, asOf time.Time) models.Baseline {
	cutoff := asOf.AddDate(0, 0, -BaselineWindowDays)

	baseline := models.Baseline{
		Tag:        models.NormalizeTag(tag),
		WindowDays: BaselineWindowDays,
	}

	type accumulator struct {
		sum   float64
		count int
	}
	accs := make([]accumulator, 11)

	pick := func(s models.DailySignal) []*float64 {
		return []*float64{
			s.TroughMinutes, s.MealsCount, s.AvgMealMinutes, s.ActivityIndex,
			s.LyingMinutes, s.AloneMinutes, s.WaterVisits, s.TempC,
			s.HumidityPct, s.MilkLiters, s.FeedIntakeEstKg,
		}
	}

	for _, signal := range history {
		if !signal.Date.Before(asOf) || signal.Date.Before(cutoff) {
			continue
		}
		baseline.SampleCount++
		for i, metric := range pick(signal) {
			if metric != nil {
				accs[i].sum += *metric
				accs[i].count++
			}
		}
	}

	mean := func(i int) *float64 {
		if accs[i].count == 0 {
			return nil
		}
		m := accs[i].sum / float64(accs[i].count)
		return &m
	}

	baseline.TroughMinutes = mean(0)
	baseline.MealsCount = mean(1)
	baseline.AvgMealMinutes = mean(2)
	baseline.ActivityIndex = mean(3)
	baseline.LyingMinutes = mean(4)
	baseline.AloneMinutes = mean(5)
	baseline.WaterVisits = mean(6)
	baseline.TempC = mean(7)
	baseline.HumidityPct = mean(8)
	baseline.MilkLiters = mean(9)
	baseline.FeedIntakeEstKg = mean(10)
	return baseline
}
