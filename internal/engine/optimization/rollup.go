package optimization

import (
	"time"

	"github.com/mamadbah2/herdsense/internal/engine/calendar"
	"github.com/mamadbah2/herdsense/internal/domain/models"
)

// effectiveDay is one history day with the feed resolution already applied,
// so weekly aggregates compare like with like across feed modes.
type effectiveDay struct {
	models.DailySignal
	FeedKg     float64
	FeedSource string
}

func historyWithFeed(animal models.Animal, history []models.DailySignal, settings models.Settings) []effectiveDay {
	out := make([]effectiveDay, 0, len(history))
	for _, day := range history {
		feed := ResolveFeed(animal, day, settings)
		out = append(out, effectiveDay{DailySignal: day, FeedKg: feed.Kg, FeedSource: feed.Source})
	}
	return out
}

func sliceLast(series []effectiveDay, days int) []effectiveDay {
	if len(series) <= days {
		return series
	}
	return series[len(series)-days:]
}

func slicePrev(series []effectiveDay, days int) []effectiveDay {
	end := len(series) - days
	if end < 0 {
		end = 0
	}
	start := end - days
	if start < 0 {
		start = 0
	}
	return series[start:end]
}

// percentDelta returns the percentage change between two values, or nil when
// either is missing or the previous value is zero.
func percentDelta(current, previous *float64) *float64 {
	if current == nil || previous == nil || *previous == 0 {
		return nil
	}
	delta := (*current - *previous) / *previous * 100
	return &delta
}

func daysUntil(date *time.Time, reference time.Time) *int {
	if date == nil {
		return nil
	}
	days := calendar.DaysBetween(reference, *date)
	return &days
}

// BuildWeeklyRollup aggregates one animal's last-7 and prior-7 day feed and
// milk totals from its signal history, oldest first.
func BuildWeeklyRollup(animal models.Animal, history []models.DailySignal, reference time.Time, settings models.Settings) models.WeeklyRollup {
	series := historyWithFeed(animal, history, settings)
	last7 := sliceLast(series, 7)
	prev7 := slicePrev(series, 7)

	sumFeed := func(days []effectiveDay) float64 {
		total := 0.0
		for _, day := range days {
			total += day.FeedKg
		}
		return total
	}
	avgFeed := func(days []effectiveDay) *float64 {
		if len(days) == 0 {
			return nil
		}
		mean := sumFeed(days) / float64(len(days))
		return &mean
	}
	sumMilk := func(days []effectiveDay) (total float64, entries int) {
		for _, day := range days {
			if day.MilkLiters != nil {
				total += *day.MilkLiters
				entries++
			}
		}
		return total, entries
	}

	lastFeed, prevFeed := sumFeed(last7), sumFeed(prev7)
	lastMilk, lastMilkEntries := sumMilk(last7)
	prevMilk, prevMilkEntries := sumMilk(prev7)

	rollup := models.WeeklyRollup{
		AnimalID:          animal.ID,
		Tag:               animal.Tag,
		Name:              animal.DisplayName(),
		ProductionType:    animal.ProductionType,
		LastFeedKg:        round2(lastFeed),
		PrevFeedKg:        round2(prevFeed),
		LastMilkLiters:    round2(lastMilk),
		PrevMilkLiters:    round2(prevMilk),
		DaysToSale:        daysUntil(animal.PlannedSaleDate, reference),
		PlannedSaleDate:   animal.PlannedSaleDate,
		ExpectedSaleValue: animal.ExpectedSaleValue,
		ResolvedFeedMode:  resolvedFeedMode(animal, settings),
	}

	if mean := avgFeed(last7); mean != nil {
		rounded := round2(*mean)
		rollup.LastFeedAvgKg = &rounded
	}
	if mean := avgFeed(prev7); mean != nil {
		rounded := round2(*mean)
		rollup.PrevFeedAvgKg = &rounded
	}
	if lastMilkEntries > 0 {
		mean := round2(lastMilk / float64(lastMilkEntries))
		rollup.LastMilkAvg = &mean
	}
	if prevMilkEntries > 0 {
		mean := round2(prevMilk / float64(prevMilkEntries))
		rollup.PrevMilkAvg = &mean
	}
	if lastMilk > 0 && lastFeed > 0 {
		eff := round3(lastMilk / lastFeed)
		rollup.Efficiency7 = &eff
	}
	if prevMilk > 0 && prevFeed > 0 {
		eff := round3(prevMilk / prevFeed)
		rollup.EfficiencyPrev7 = &eff
	}

	manualDays := 0
	for _, day := range last7 {
		if day.FeedSource == "manual" {
			manualDays++
		}
	}
	half := (max(1, len(last7)) + 1) / 2
	rollup.FeedSourceLabel = "estimated"
	if manualDays >= half {
		rollup.FeedSourceLabel = "manual"
	}

	return rollup
}

// HerdSeries builds the trailing 7-day herd-level feed/milk/efficiency
// series for charting. Histories are assumed aligned by index, oldest first.
func HerdSeries(animals []models.Animal, historyByTag map[string][]models.DailySignal, settings models.Settings) models.HerdSeries {
	herd := activeOnly(animals)
	series := models.HerdSeries{}
	if len(herd) == 0 {
		return series
	}

	length := len(historyByTag[models.NormalizeTag(herd[0].Tag)])
	start := length - 7
	if start < 0 {
		start = 0
	}

	for i := start; i < length; i++ {
		feedTotal, milkTotal := 0.0, 0.0
		label := ""
		for _, animal := range herd {
			history := historyByTag[models.NormalizeTag(animal.Tag)]
			if i >= len(history) {
				continue
			}
			day := history[i]
			feedTotal += ResolveFeed(animal, day, settings).Kg
			if day.MilkLiters != nil {
				milkTotal += *day.MilkLiters
			}
			if label == "" && !day.Date.IsZero() {
				label = day.Date.Format("01-02")
			}
		}
		series.Dates = append(series.Dates, label)
		series.Feed = append(series.Feed, round2(feedTotal))
		series.Milk = append(series.Milk, round2(milkTotal))
		if feedTotal > 0 {
			series.Efficiency = append(series.Efficiency, round2(milkTotal/feedTotal))
		} else {
			series.Efficiency = append(series.Efficiency, 0)
		}
	}
	return series
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
