package optimization

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/mamadbah2/herdsense/internal/engine/calendar"
	"github.com/mamadbah2/herdsense/internal/domain/models"
)

const maxLeakCards = 12

type leakTemplate struct {
	ID       string
	Title    string
	Category string
}

var moneyLeakTemplates = []leakTemplate{
	{"feed_spend_rising", "Feed spend rising week-over-week", "feed"},
	{"milk_revenue_falling", "Milk revenue falling week-over-week", "revenue"},
	{"animal_output_declining", "Animal output falling with steady feed", "animal"},
	{"animal_intake_declining", "Animal intake dropping", "animal"},
	{"feeder_congestion", "Feeding congestion at peak times", "operations"},
	{"heat_window_loss", "Heat window reducing intake", "environment"},
	{"water_access_risk", "Water access risk", "water"},
	{"tasks_overdue", "Overdue tasks", "maintenance"},
	{"inventory_low", "Feed inventory running low", "inventory"},
	{"sale_plan_inefficient", "Sale-date feeding may be inefficient", "planning"},
}

func templateByID(id string) *leakTemplate {
	for i := range moneyLeakTemplates {
		if moneyLeakTemplates[i].ID == id {
			return &moneyLeakTemplates[i]
		}
	}
	return nil
}

type leakInput struct {
	templateID string
	suffix     string
	title      string
	why        string
	doNext     []string
	evidence   string
	severity   float64
	impactLow  float64
	impactHigh float64
}

type leakCollector struct {
	cards []models.MoneyLeakCard
}

func (c *leakCollector) push(in leakInput) {
	meta := templateByID(in.templateID)
	if meta == nil {
		return
	}
	id := "leak-" + in.templateID + in.suffix
	for _, existing := range c.cards {
		if existing.ID == id {
			return
		}
	}

	title := in.title
	if title == "" {
		title = meta.Title
	}
	doNext := in.doNext
	if len(doNext) > 2 {
		doNext = doNext[:2]
	}
	action := ""
	if len(doNext) > 0 {
		action = doNext[0]
	}

	low := math.Max(0, in.impactLow)
	high := math.Max(low, in.impactHigh)
	c.cards = append(c.cards, models.MoneyLeakCard{
		ID:          id,
		TemplateID:  in.templateID,
		Category:    meta.Category,
		Title:       title,
		Why:         in.why,
		Action:      action,
		DoNext:      doNext,
		Evidence:    in.evidence,
		Severity:    round1(math.Max(1, math.Min(99, in.severity))),
		ImpactLow:   round2(low),
		ImpactHigh:  round2(high),
		ImpactRange: fmt.Sprintf("$%.0f-$%.0f/week", low, high),
	})
}

// WeeklyMoneyReport aggregates the last two weeks of feed and milk economics
// and runs the money-leak rule catalogue against them. Every trigger carries
// its evidence and a conservative weekly impact range; a quiet week yields a
// single "no major leaks" card rather than an empty list.
func WeeklyMoneyReport(animals []models.Animal, historyByTag map[string][]models.DailySignal, settings models.Settings, insights []models.Insight, congestion models.CongestionReport, reference time.Time, occurrences []models.TaskOccurrence) models.MoneyReport {
	active := activeOnly(animals)
	weekly := make([]models.WeeklyRollup, 0, len(active))
	for _, animal := range active {
		weekly = append(weekly, BuildWeeklyRollup(animal, historyByTag[models.NormalizeTag(animal.Tag)], reference, settings))
	}

	feedKgWeek, feedKgPrevWeek := 0.0, 0.0
	milkLitersWeek, prevMilkLiters := 0.0, 0.0
	feedEstimated := false
	for _, row := range weekly {
		feedKgWeek += row.LastFeedKg
		feedKgPrevWeek += row.PrevFeedKg
		milkLitersWeek += row.LastMilkLiters
		prevMilkLiters += row.PrevMilkLiters
		if row.FeedSourceLabel != "manual" {
			feedEstimated = true
		}
	}

	feedSpendWeek := feedKgWeek * settings.FeedCostPerKg
	feedSpendPrevWeek := feedKgPrevWeek * settings.FeedCostPerKg

	var milkRevenueWeek, milkRevenuePrevWeek *float64
	if settings.MilkPricePerLiter != nil {
		if milkLitersWeek > 0 {
			rev := milkLitersWeek * *settings.MilkPricePerLiter
			milkRevenueWeek = &rev
		}
		prevRev := prevMilkLiters * *settings.MilkPricePerLiter
		milkRevenuePrevWeek = &prevRev
	}

	milkTrendPct := percentDelta(&milkLitersWeek, &prevMilkLiters)

	var weeklyProfit, previousProfit *float64
	if milkRevenueWeek != nil {
		profit := *milkRevenueWeek - feedSpendWeek
		weeklyProfit = &profit
	}
	if milkRevenuePrevWeek != nil {
		profit := *milkRevenuePrevWeek - feedSpendPrevWeek
		previousProfit = &profit
	}
	profitChangePct := percentDelta(weeklyProfit, previousProfit)
	feedSpendDeltaPct := percentDelta(&feedSpendWeek, &feedSpendPrevWeek)
	milkRevenueChangePct := percentDelta(milkRevenueWeek, milkRevenuePrevWeek)

	changeBasis := "feed_spend"
	changeVsLastWeek := feedSpendDeltaPct
	if profitChangePct != nil {
		changeBasis = "profit"
		changeVsLastWeek = profitChangePct
	}

	var overdue []models.TaskOccurrence
	today := calendar.DateOnly(reference)
	for _, task := range occurrences {
		if task.Status == models.StatusPending && calendar.DateOnly(task.DueDate).Before(today) {
			overdue = append(overdue, task)
		}
	}

	var daysInventory *float64
	if settings.AvailableFeedKg != nil && feedKgWeek > 0 {
		burnRate := feedKgWeek / 7
		days := *settings.AvailableFeedKg / burnRate
		daysInventory = &days
	}

	collector := &leakCollector{}

	if feedSpendDeltaPct != nil && *feedSpendDeltaPct >= 6 {
		collector.push(leakInput{
			templateID: "feed_spend_rising",
			title:      "Feed spend rising week-over-week",
			why:        "Feed spend is climbing faster than normal this week.",
			doNext:     []string{"Check ration amounts at each feeding.", "Reduce waste at peak feeding times."},
			evidence:   fmt.Sprintf("Feed spend this week: $%.0f (%.1f%% vs last week).", feedSpendWeek, *feedSpendDeltaPct),
			severity:   54 + math.Min(20, *feedSpendDeltaPct),
			impactLow:  feedSpendWeek * 0.03,
			impactHigh: feedSpendWeek * 0.08,
		})
	}

	if milkRevenueWeek != nil && milkRevenuePrevWeek != nil && milkRevenueChangePct != nil && *milkRevenueChangePct <= -5 {
		collector.push(leakInput{
			templateID: "milk_revenue_falling",
			title:      "Milk revenue is down this week",
			why:        "Revenue dropped compared with last week.",
			doNext:     []string{"Review lower-output animals first.", "Check milking schedule consistency."},
			evidence:   fmt.Sprintf("Milk revenue: $%.0f (%.1f%% vs last week).", *milkRevenueWeek, *milkRevenueChangePct),
			severity:   56 + math.Min(25, math.Abs(*milkRevenueChangePct)),
			impactLow:  math.Abs(*milkRevenueWeek-*milkRevenuePrevWeek) * 0.5,
			impactHigh: math.Abs(*milkRevenueWeek - *milkRevenuePrevWeek),
		})
	}

	// Worst output decline with feed holding steady.
	var decliningOutput *models.WeeklyRollup
	var decliningMilkDelta, decliningFeedDelta *float64
	for i := range weekly {
		row := &weekly[i]
		milkDelta := percentDelta(row.LastMilkAvg, row.PrevMilkAvg)
		feedDelta := percentDelta(row.LastFeedAvgKg, row.PrevFeedAvgKg)
		if milkDelta == nil || *milkDelta > -8 {
			continue
		}
		if feedDelta != nil && *feedDelta < -2 {
			continue
		}
		if decliningMilkDelta == nil || *milkDelta < *decliningMilkDelta {
			decliningOutput = row
			decliningMilkDelta = milkDelta
			decliningFeedDelta = feedDelta
		}
	}
	if decliningOutput != nil {
		avgKg := 0.0
		if decliningOutput.LastFeedAvgKg != nil {
			avgKg = *decliningOutput.LastFeedAvgKg
		}
		spend := avgKg * 7 * settings.FeedCostPerKg
		feedTrend := "N/A"
		if decliningFeedDelta != nil {
			feedTrend = fmt.Sprintf("%.1f%%", *decliningFeedDelta)
		}
		collector.push(leakInput{
			templateID: "animal_output_declining",
			suffix:     "-" + decliningOutput.AnimalID,
			title:      decliningOutput.Name + ": output down while feed stays high",
			why:        "Output dropped but feed cost did not drop with it.",
			doNext:     []string{"Observe eating consistency for 24-48h.", "Adjust ration by about 5% and re-check trend."},
			evidence:   fmt.Sprintf("%s milk trend: %.1f%%; feed trend: %s.", decliningOutput.Name, *decliningMilkDelta, feedTrend),
			severity:   60 + math.Min(20, math.Abs(*decliningMilkDelta)),
			impactLow:  spend * 0.06,
			impactHigh: spend * 0.16,
		})
	}

	// Steepest intake decline.
	var reducedIntake *models.WeeklyRollup
	var reducedFeedDelta *float64
	for i := range weekly {
		row := &weekly[i]
		feedDelta := percentDelta(row.LastFeedAvgKg, row.PrevFeedAvgKg)
		if feedDelta == nil || *feedDelta > -10 {
			continue
		}
		if reducedFeedDelta == nil || *feedDelta < *reducedFeedDelta {
			reducedIntake = row
			reducedFeedDelta = feedDelta
		}
	}
	if reducedIntake != nil {
		avgKg := 0.0
		if reducedIntake.LastFeedAvgKg != nil {
			avgKg = *reducedIntake.LastFeedAvgKg
		}
		weekCost := avgKg * 7 * settings.FeedCostPerKg
		collector.push(leakInput{
			templateID: "animal_intake_declining",
			suffix:     "-" + reducedIntake.AnimalID,
			title:      reducedIntake.Name + ": intake trend is down",
			why:        "Lower intake can reduce output and raise future health costs.",
			doNext:     []string{"Check feeder access and fresh feed availability.", "Watch the next feeding and confirm recovery."},
			evidence:   fmt.Sprintf("%s intake trend: %.1f%% vs prior week.", reducedIntake.Name, *reducedFeedDelta),
			severity:   52 + math.Min(22, math.Abs(*reducedFeedDelta)),
			impactLow:  weekCost * 0.04,
			impactHigh: weekCost * 0.12,
		})
	}

	if congestion.HasFeedingData && (congestion.Level == "high" || congestion.Level == "moderate") {
		low, high := 0.008, 0.02
		severity := 56.0
		if congestion.Level == "high" {
			low, high = 0.015, 0.04
			severity = 74
		}
		score := 0.0
		if congestion.CongestionScore != nil {
			score = *congestion.CongestionScore
		}
		peak := "N/A"
		if len(congestion.PeakWindows) > 0 {
			peak = congestion.PeakWindows[0]
		}
		collector.push(leakInput{
			templateID: "feeder_congestion",
			title:      "Feeder congestion: " + strings.ToUpper(congestion.Level),
			why:        "Crowding can push lower-ranking animals away from feed.",
			doNext:     []string{"Split feeding into two waves.", "Add feeding space during peak windows."},
			evidence:   fmt.Sprintf("Overlap at feeder: %.0f%%; peak: %s.", score*100, peak),
			severity:   severity,
			impactLow:  feedSpendWeek * low,
			impactHigh: feedSpendWeek * high,
		})
	}

	hotRiskCount := 0
	waterRiskCount := 0
	for _, insight := range insights {
		if insight.ContributingScores[models.FactorHeat] >= 60 {
			hotRiskCount++
		}
		if insight.ContributingScores[models.FactorWater] >= 55 {
			waterRiskCount++
		}
	}

	if hotRiskCount > 0 {
		collector.push(leakInput{
			templateID: "heat_window_loss",
			title:      "Heat window may be cutting intake",
			why:        "Heat can reduce feeding time and hurt output consistency.",
			doNext:     []string{"Shift feeding to cooler hours.", "Keep water and shade ready before heat peaks."},
			evidence:   fmt.Sprintf("%d animal(s) showed higher heat contribution this week.", hotRiskCount),
			severity:   50 + math.Min(20, float64(hotRiskCount)*6),
			impactLow:  feedSpendWeek * 0.01,
			impactHigh: feedSpendWeek * 0.035,
		})
	}

	if waterRiskCount > 0 || congestion.WaterLevel == "high" {
		severityBase := 52.0
		if congestion.WaterLevel == "high" {
			severityBase = 68
		}
		collector.push(leakInput{
			templateID: "water_access_risk",
			title:      "Water access may be limiting intake",
			why:        "Water access issues can quickly lower feeding and output.",
			doNext:     []string{"Check flow and cleanliness at water points.", "Add a second water point near shade if possible."},
			evidence:   fmt.Sprintf("Water risk flags: %d animal(s); water congestion: %s.", waterRiskCount, strings.ToUpper(congestion.WaterLevel)),
			severity:   severityBase + math.Min(14, float64(waterRiskCount)*4),
			impactLow:  feedSpendWeek * 0.01,
			impactHigh: feedSpendWeek * 0.03,
		})
	}

	if len(overdue) > 0 {
		titles := make([]string, 0, 2)
		for i := 0; i < len(overdue) && i < 2; i++ {
			titles = append(titles, overdue[i].Title)
		}
		named := strings.Join(titles, ", ")
		if named == "" {
			named = "scheduled tasks"
		}
		collector.push(leakInput{
			templateID: "tasks_overdue",
			title:      fmt.Sprintf("%d task(s) overdue", len(overdue)),
			why:        "Late maintenance and care tasks can lead to costly disruptions.",
			doNext:     []string{"Complete overdue hoof/vaccine/maintenance tasks first.", "Set reminders for the next 2 weeks."},
			evidence:   "Overdue tasks include: " + named + ".",
			severity:   45 + math.Min(20, float64(len(overdue))*4),
			impactLow:  float64(len(overdue)) * 5,
			impactHigh: float64(len(overdue)) * 25,
		})
	}

	if daysInventory != nil && *daysInventory <= 21 {
		severity := 62.0
		if *daysInventory <= 10 {
			severity = 80
		}
		available := 0.0
		if settings.AvailableFeedKg != nil {
			available = *settings.AvailableFeedKg
		}
		collector.push(leakInput{
			templateID: "inventory_low",
			title:      fmt.Sprintf("Feed inventory low (%.1f days left)", *daysInventory),
			why:        "Low feed stock can force expensive emergency purchases.",
			doNext:     []string{"Plan feed purchase now.", "Cut avoidable waste this week."},
			evidence:   fmt.Sprintf("Current inventory: %.0f kg, burn rate about %.1f kg/day.", available, feedKgWeek/7),
			severity:   severity,
			impactLow:  feedSpendWeek * 0.04,
			impactHigh: feedSpendWeek * 0.1,
		})
	}

	// Nearest sale candidate within 45 days.
	var saleCandidate *models.WeeklyRollup
	for i := range weekly {
		row := &weekly[i]
		if row.DaysToSale == nil || *row.DaysToSale < 0 || *row.DaysToSale > 45 {
			continue
		}
		if saleCandidate == nil || *row.DaysToSale < *saleCandidate.DaysToSale {
			saleCandidate = row
		}
	}
	if saleCandidate != nil {
		avgKg := 0.0
		if saleCandidate.LastFeedAvgKg != nil {
			avgKg = *saleCandidate.LastFeedAvgKg
		}
		spendWeek := avgKg * 7 * settings.FeedCostPerKg
		efficiencyLow := saleCandidate.Efficiency7 != nil && *saleCandidate.Efficiency7 < 1
		if efficiencyLow || avgKg > 0 {
			severity := 58.0
			if efficiencyLow {
				severity += 8
			}
			collector.push(leakInput{
				templateID: "sale_plan_inefficient",
				suffix:     "-" + saleCandidate.AnimalID,
				title:      saleCandidate.Name + ": sale date near, review feeding plan",
				why:        "A simple feeding adjustment before sale may improve net return.",
				doNext:     []string{"Choose maintain, taper, or max-gain plan in Inventory.", "Recheck feed spend every 3 days until sale."},
				evidence:   fmt.Sprintf("Sale in %d day(s); estimated feed spend $%.0f/week.", *saleCandidate.DaysToSale, spendWeek),
				severity:   severity,
				impactLow:  spendWeek * 0.05,
				impactHigh: spendWeek * 0.14,
			})
		}
	}

	if len(collector.cards) == 0 {
		collector.push(leakInput{
			templateID: "tasks_overdue",
			suffix:     "-stable-week",
			title:      "No major money leaks found",
			why:        "This week looks stable with current data.",
			doNext:     []string{"Keep feed logs consistent.", "Keep up recurring maintenance tasks."},
			evidence:   "No large week-over-week cost or output shifts were detected.",
			severity:   20,
			impactLow:  0,
			impactHigh: 10,
		})
	}

	cards := collector.cards
	sort.SliceStable(cards, func(i, j int) bool {
		if cards[i].Severity != cards[j].Severity {
			return cards[i].Severity > cards[j].Severity
		}
		return cards[i].ImpactHigh > cards[j].ImpactHigh
	})
	if len(cards) > maxLeakCards {
		cards = cards[:maxLeakCards]
	}

	report := models.MoneyReport{
		FeedSpendWeek:      round2(feedSpendWeek),
		FeedSpendPrevWeek:  round2(feedSpendPrevWeek),
		FeedSpendEstimated: feedEstimated,
		ChangeBasis:        changeBasis,
		FeedKgWeek:         round2(feedKgWeek),
		MilkLitersWeek:     round2(milkLitersWeek),
		Leaks:              cards,
	}
	if feedSpendDeltaPct != nil {
		v := round1(*feedSpendDeltaPct)
		report.FeedSpendChangePct = &v
	}
	if milkRevenueWeek != nil {
		v := round2(*milkRevenueWeek)
		report.MilkRevenueWeek = &v
	}
	if milkRevenueChangePct != nil {
		v := round1(*milkRevenueChangePct)
		report.MilkRevenueChangePct = &v
	}
	if weeklyProfit != nil {
		v := round2(*weeklyProfit)
		report.WeeklyProfit = &v
	}
	if profitChangePct != nil {
		v := round1(*profitChangePct)
		report.WeeklyProfitChangePct = &v
	}
	if changeVsLastWeek != nil {
		v := round1(*changeVsLastWeek)
		report.ChangeVsLastWeekPct = &v
	}
	if milkTrendPct != nil {
		v := round1(*milkTrendPct)
		report.MilkTrendPct = &v
	}
	return report
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
