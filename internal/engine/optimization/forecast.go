package optimization

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/mamadbah2/herdsense/internal/domain/models"
)

// Escalation probabilities per displayed risk band, used to price the
// avoided downside of maintaining feed on an at-risk animal.
var riskEscalationProb = map[string]float64{
	models.BandLow:      0.03,
	models.BandModerate: 0.08,
	models.BandHigh:     0.15,
}

const (
	defaultVetVisitCost      = 120.0
	defaultDairyDailyLoss    = 8.0
	defaultImpactDays        = 5.0
	suggestedChangeClampPct  = 10.0
)

// DefaultDemoWhitelist are the tags shown in sale planning when demo mode
// is on and no explicit whitelist is configured.
var DefaultDemoWhitelist = []string{"EA-1001", "EA-1002"}

func normalizeNonZeroRange(low, high, fallbackLow, fallbackHigh float64) (float64, float64) {
	minValue, maxValue := low, high
	if math.IsNaN(minValue) || math.IsInf(minValue, 0) {
		minValue = fallbackLow
	}
	if math.IsNaN(maxValue) || math.IsInf(maxValue, 0) {
		maxValue = fallbackHigh
	}
	if minValue > maxValue {
		minValue, maxValue = maxValue, minValue
	}
	if math.Abs(minValue) < 0.5 && math.Abs(maxValue) < 0.5 {
		minValue, maxValue = fallbackLow, fallbackHigh
	}
	if math.Abs(maxValue-minValue) < 0.5 {
		expand := math.Max(1, math.Abs(maxValue)*0.2)
		minValue -= expand
		maxValue += expand
	}
	return minValue, maxValue
}

func roundedNonZero(value float64) int {
	rounded := int(math.Round(value))
	if rounded == 0 {
		if value >= 0 {
			return 1
		}
		return -1
	}
	return rounded
}

func signedDollar(value int) string {
	switch {
	case value > 0:
		return fmt.Sprintf("+$%d", value)
	case value < 0:
		return fmt.Sprintf("-$%d", -value)
	default:
		return "$0"
	}
}

func monthlyRangeString(low, high float64) string {
	minValue, maxValue := normalizeNonZeroRange(low, high, 2, 8)
	return fmt.Sprintf("%s to %s/month", signedDollar(roundedNonZero(minValue)), signedDollar(roundedNonZero(maxValue)))
}

func monthlyRangeStringDemoPositive(low, high float64) string {
	minValue, maxValue := normalizeNonZeroRange(low, high, 1, 4)
	minValue = math.Max(0, minValue)
	maxValue = math.Max(minValue, maxValue)
	lowRounded := roundedNonZero(minValue)
	highRounded := roundedNonZero(maxValue)
	return fmt.Sprintf("+$%d to +$%d per month", abs(lowRounded), abs(highRounded))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func riskBandFromInsight(insight *models.Insight) string {
	if insight == nil {
		return models.BandLow
	}
	switch insight.DisplayRiskBandKey {
	case models.BandHigh, models.BandModerate, models.BandLow:
		return insight.DisplayRiskBandKey
	}
	switch {
	case insight.OverallRiskPct >= 50:
		return models.BandHigh
	case insight.OverallRiskPct >= 25:
		return models.BandModerate
	default:
		return models.BandLow
	}
}

// maintainAvoidedDownsideMonthly prices the expected monthly cost avoided by
// keeping feed steady on an animal whose risk might otherwise escalate:
// escalation probability times vet visit plus output loss over the impact
// window, spread over a conservative range.
func maintainAvoidedDownsideMonthly(animal models.Animal, settings models.Settings, riskBand string) (float64, float64) {
	probability, ok := riskEscalationProb[riskBand]
	if !ok {
		probability = riskEscalationProb[models.BandLow]
	}

	vetCost := defaultVetVisitCost
	if settings.VetVisitCostEstimate != nil {
		vetCost = *settings.VetVisitCostEstimate
	}

	dailyLoss := 0.0
	if animal.ProductionType == models.ProductionDairy {
		dailyLoss = defaultDairyDailyLoss
		if settings.MilkLossCostPerDayDairy != nil {
			dailyLoss = *settings.MilkLossCostPerDayDairy
		}
	} else if settings.MilkLossCostPerDayBeef != nil {
		dailyLoss = *settings.MilkLossCostPerDayBeef
	}

	impactDays := defaultImpactDays
	if settings.DaysOfImpactIfEscalates != nil {
		impactDays = math.Max(1, *settings.DaysOfImpactIfEscalates)
	}

	expected := probability * (vetCost + dailyLoss*impactDays)
	return normalizeNonZeroRange(expected*0.5, expected*1.2, 5, 20)
}

type forecastContext struct {
	settings          models.Settings
	feedCostPerKg     float64
	daysRemaining     *float64
	budgetPressure    bool
	herdAvgEfficiency *float64
	herdAvgBeefFeed   *float64
	demoMode          bool
}

func planLabelFor(changePct float64) string {
	switch {
	case changePct > 0:
		return models.PlanIncrease
	case changePct < 0:
		return models.PlanReduce
	default:
		return models.PlanMaintain
	}
}

// InventoryPlanning computes the herd burn rate, feed runway and a per-animal
// feeding forecast for every animal with a planned sale or cull date. In demo
// mode the whitelist is the single source of truth for which animals appear.
func InventoryPlanning(animals []models.Animal, historyByTag map[string][]models.DailySignal, settings models.Settings, reference time.Time, insights []models.Insight) models.InventoryPlan {
	active := activeOnly(animals)

	insightByTag := make(map[string]*models.Insight, len(insights))
	for i := range insights {
		insightByTag[models.NormalizeTag(insights[i].Tag)] = &insights[i]
	}

	// Burn rate: average of the last 7 daily herd totals that have data.
	var dailyTotals []float64
	for d := 0; d < 7; d++ {
		total := 0.0
		for _, animal := range active {
			series := historyByTag[models.NormalizeTag(animal.Tag)]
			idx := len(series) - 1 - d
			if idx < 0 {
				continue
			}
			total += ResolveFeed(animal, series[idx], settings).Kg
		}
		if total > 0 {
			dailyTotals = append(dailyTotals, total)
		}
	}
	burnRate := 0.0
	if len(dailyTotals) > 0 {
		for _, t := range dailyTotals {
			burnRate += t
		}
		burnRate /= float64(len(dailyTotals))
	}

	var daysRemaining *float64
	if settings.AvailableFeedKg != nil && burnRate > 0 {
		days := *settings.AvailableFeedKg / burnRate
		daysRemaining = &days
	}

	budgetPressure := settings.DailyFeedBudgetCap != nil && burnRate*settings.FeedCostPerKg > *settings.DailyFeedBudgetCap

	weekly := make([]models.WeeklyRollup, 0, len(active))
	weeklyByTag := make(map[string]models.WeeklyRollup, len(active))
	for _, animal := range active {
		rollup := BuildWeeklyRollup(animal, historyByTag[models.NormalizeTag(animal.Tag)], reference, settings)
		weekly = append(weekly, rollup)
		weeklyByTag[models.NormalizeTag(animal.Tag)] = rollup
	}

	ctx := forecastContext{
		settings:       settings,
		feedCostPerKg:  settings.FeedCostPerKg,
		daysRemaining:  daysRemaining,
		budgetPressure: budgetPressure,
		demoMode:       settings.DemoMode,
	}

	dairySum, dairyCount := 0.0, 0
	beefSum, beefCount := 0.0, 0
	for _, row := range weekly {
		if row.ProductionType == models.ProductionDairy && row.Efficiency7 != nil {
			dairySum += *row.Efficiency7
			dairyCount++
		}
		if row.ProductionType == models.ProductionBeef && row.LastFeedAvgKg != nil {
			beefSum += *row.LastFeedAvgKg
			beefCount++
		}
	}
	if dairyCount > 0 {
		mean := dairySum / float64(dairyCount)
		ctx.herdAvgEfficiency = &mean
	}
	if beefCount > 0 {
		mean := beefSum / float64(beefCount)
		ctx.herdAvgBeefFeed = &mean
	}

	whitelist := settings.DemoSalePlanningWhitelist
	if len(whitelist) == 0 {
		whitelist = DefaultDemoWhitelist
	}
	whitelisted := make(map[string]int, len(whitelist))
	for i, tag := range whitelist {
		whitelisted[models.NormalizeTag(tag)] = i
	}

	var candidates []models.Animal
	for _, animal := range active {
		if settings.DemoMode {
			if _, ok := whitelisted[models.NormalizeTag(animal.Tag)]; ok {
				candidates = append(candidates, animal)
			}
		} else if animal.PlannedSaleDate != nil {
			candidates = append(candidates, animal)
		}
	}

	var forecasts []models.SaleForecast
	for _, candidate := range candidates {
		animal := candidate
		if animal.PlannedSaleDate == nil && settings.DemoMode {
			// Demo animals without an explicit date get staged horizons.
			var offset int
			switch whitelisted[models.NormalizeTag(animal.Tag)] {
			case 0:
				offset = 52
			case 1:
				offset = 21
			default:
				continue
			}
			date := reference.AddDate(0, 0, offset)
			animal.PlannedSaleDate = &date
		}
		if animal.PlannedSaleDate == nil {
			continue
		}

		rollup := BuildWeeklyRollup(animal, historyByTag[models.NormalizeTag(animal.Tag)], reference, settings)
		if rollup.DaysToSale == nil || *rollup.DaysToSale < 0 {
			continue
		}

		forecast := buildForecast(animal, rollup, insightByTag[models.NormalizeTag(animal.Tag)], ctx)
		forecasts = append(forecasts, forecast)
	}

	sort.SliceStable(forecasts, func(i, j int) bool {
		return forecasts[i].DaysToSale < forecasts[j].DaysToSale
	})

	plan := models.InventoryPlan{
		BurnRateKgDay:            round2(burnRate),
		ProjectedMonthlyFeedCost: round2(burnRate * settings.FeedCostPerKg * 30),
		DailyFeedBudgetCap:       settings.DailyFeedBudgetCap,
		Forecasts:                forecasts,
		Assumptions: []string{
			"Current feed/day uses manual input when selected, otherwise a 7-day estimated average.",
			"Sale plan impact is a conservative estimate, not a market guarantee.",
		},
	}
	if daysRemaining != nil {
		v := round1(*daysRemaining)
		plan.DaysOfFeedRemaining = &v
	}
	return plan
}

func buildForecast(animal models.Animal, rollup models.WeeklyRollup, insight *models.Insight, ctx forecastContext) models.SaleForecast {
	daysToSale := *rollup.DaysToSale
	currentFeed := 0.5
	if rollup.LastFeedAvgKg != nil && *rollup.LastFeedAvgKg > 0.5 {
		currentFeed = *rollup.LastFeedAvgKg
	}

	milkTrend := percentDelta(rollup.LastMilkAvg, rollup.PrevMilkAvg)
	feedTrend := percentDelta(rollup.LastFeedAvgKg, rollup.PrevFeedAvgKg)
	effTrend := percentDelta(rollup.Efficiency7, rollup.EfficiencyPrev7)

	hasMilkData := ctx.settings.MilkPricePerLiter != nil && rollup.LastMilkAvg != nil
	riskBand := riskBandFromInsight(insight)
	healthElevated := riskBand == models.BandModerate || riskBand == models.BandHigh
	inventoryLow := ctx.daysRemaining != nil && *ctx.daysRemaining < 14

	lowEfficiencyDairy := rollup.ProductionType == models.ProductionDairy &&
		rollup.Efficiency7 != nil && ctx.herdAvgEfficiency != nil &&
		*rollup.Efficiency7 < *ctx.herdAvgEfficiency*0.9
	lowEfficiencyBeef := rollup.ProductionType == models.ProductionBeef &&
		ctx.herdAvgBeefFeed != nil && rollup.LastFeedAvgKg != nil &&
		*rollup.LastFeedAvgKg > *ctx.herdAvgBeefFeed*1.12

	mode := models.StrategyMaintain
	changePct := 0.0
	note := "Goal: maximize money saved per month."

	val := func(p *float64) float64 {
		if p == nil {
			return 0
		}
		return *p
	}

	if rollup.ProductionType == models.ProductionDairy {
		switch {
		case healthElevated:
			mode = models.StrategyMaintainHealth
			note = "Health risk is elevated, so stable feeding protects milk consistency."
		case inventoryLow && lowEfficiencyDairy:
			mode = models.StrategyReduceInventory
			changePct = -4
			note = "Inventory is tight. Small reduction on low-efficiency animals can save feed cost."
		case (rollup.Efficiency7 != nil && rollup.EfficiencyPrev7 != nil && val(effTrend) <= -4) ||
			(val(milkTrend) <= -6 && val(feedTrend) <= -3):
			if val(feedTrend) <= -3 {
				mode = models.StrategyIncreaseStabilize
				changePct = 4
				note = "Intake and output are both slipping. A small increase can stabilize production."
			} else {
				mode = models.StrategyReduceEfficiency
				changePct = -4
				note = "Efficiency is declining. A small reduction can improve feed margin."
			}
		default:
			note = "Current dairy feeding looks balanced for monthly savings."
		}
	} else if healthElevated {
		mode = models.StrategyMaintainCheck
		note = "Health risk is elevated. Stable feeding helps reduce downside risk."
	} else if daysToSale <= 30 {
		if !inventoryLow && !ctx.budgetPressure {
			mode = models.StrategyIncreaseFinish
			changePct = 5
			note = "Sale is near. A small finish increase can support net sale return."
		} else {
			note = "Sale is near but feed pressure is high. Maintain and avoid aggressive changes."
		}
	} else if daysToSale > 120 {
		if lowEfficiencyBeef || inventoryLow || ctx.budgetPressure {
			mode = models.StrategyReduceLongHorizon
			changePct = -5
			note = "Long sale horizon with pressure/low efficiency: tapering can save money."
		} else {
			note = "Long horizon and stable signals: maintain current feeding."
		}
	} else {
		if lowEfficiencyBeef && (inventoryLow || ctx.budgetPressure) {
			mode = models.StrategyReduceMidHorizon
			changePct = -4
			note = "Mid-horizon and low efficiency: small taper improves monthly cost control."
		} else {
			note = "Current beef feeding is acceptable for monthly savings."
		}
	}

	clampPct := func(pct float64) float64 {
		return math.Max(-suggestedChangeClampPct, math.Min(suggestedChangeClampPct, pct))
	}

	changePct = clampPct(changePct)
	planLabel := planLabelFor(changePct)
	suggestedFeed := math.Max(minFeedFloorKg, round2(currentFeed*(1+changePct/100)))
	projectedCostCurrent := currentFeed * float64(daysToSale) * ctx.feedCostPerKg
	projectedCostSuggested := suggestedFeed * float64(daysToSale) * ctx.feedCostPerKg
	feedSavingsMonthly := -(suggestedFeed - currentFeed) * ctx.feedCostPerKg * 30

	var monthlyLow, monthlyHigh float64
	impactNote := ""

	computeImpact := func() {
		monthlyLow, monthlyHigh = feedSavingsMonthly, feedSavingsMonthly
		impactNote = ""

		if planLabel == models.PlanMaintain {
			monthlyLow, monthlyHigh = maintainAvoidedDownsideMonthly(animal, ctx.settings, riskBand)
			impactNote = "Assumption: avoided escalation risk using conservative vet/output loss costs."
			return
		}

		if rollup.ProductionType == models.ProductionDairy && hasMilkData {
			monthlyRevenueBase := *rollup.LastMilkAvg * *ctx.settings.MilkPricePerLiter * 30
			responsePct := math.Min(3, math.Abs(changePct)*(3.0/5.0))
			if changePct > 0 {
				monthlyHigh = feedSavingsMonthly + monthlyRevenueBase*responsePct/100
			} else {
				monthlyLow = feedSavingsMonthly - monthlyRevenueBase*responsePct/100
			}
			impactNote = "Assumption: milk response capped at 0-3% for a +/-5% feed change."
			return
		}

		if rollup.ProductionType == models.ProductionBeef && animal.ExpectedSaleValue != nil {
			expectedValue := *animal.ExpectedSaleValue
			saleScale := math.Max(0.5, math.Min(1.5, math.Abs(changePct)/5))
			monthlyize := 30 / math.Max(10, math.Min(180, float64(daysToSale)))
			if changePct > 0 {
				monthlyLow = feedSavingsMonthly + expectedValue*0.003*saleScale*monthlyize
				monthlyHigh = feedSavingsMonthly + expectedValue*0.012*saleScale*monthlyize
			} else {
				monthlyLow = feedSavingsMonthly - expectedValue*0.004*saleScale*monthlyize
				monthlyHigh = feedSavingsMonthly
			}
			impactNote = "Assumption: includes conservative expected sale value sensitivity."
			return
		}

		impactNote = "Assumption: feed cost change only; sale value change not estimated."
	}

	computeImpact()

	apply := func(nextPct float64) {
		changePct = clampPct(nextPct)
		planLabel = planLabelFor(changePct)
		suggestedFeed = math.Max(minFeedFloorKg, round2(currentFeed*(1+changePct/100)))
		projectedCostSuggested = suggestedFeed * float64(daysToSale) * ctx.feedCostPerKg
		feedSavingsMonthly = -(suggestedFeed - currentFeed) * ctx.feedCostPerKg * 30
		computeImpact()
	}

	// Beef Increase guardrail: back off when the projected midpoint goes
	// non-positive, first to +3% then all the way to maintain.
	if planLabel == models.PlanIncrease && rollup.ProductionType == models.ProductionBeef {
		guardrail := func() {
			apply(0)
			mode = models.StrategyMaintainGuardrail
			note = "Health and margin guardrail: keep feed steady and reassess next week."
		}
		midpoint := (monthlyLow + monthlyHigh) / 2
		if ctx.demoMode {
			if midpoint <= 0 {
				guardrail()
			} else if math.Min(monthlyLow, monthlyHigh) < 0 {
				apply(3)
				if math.Min(monthlyLow, monthlyHigh) < 0 {
					guardrail()
				}
			}
		} else if midpoint <= 0 {
			apply(3)
			if (monthlyLow+monthlyHigh)/2 <= 0 {
				guardrail()
			}
		}
	}

	suggestion := "Maintain current feeding"
	switch planLabel {
	case models.PlanIncrease:
		suggestion = "Increase intake carefully"
	case models.PlanReduce:
		suggestion = "Reduce intake and monitor"
	}
	if planLabel == models.PlanMaintain && healthElevated {
		note = "Health risk elevated - keep feed steady; reassess after recovery."
	}

	finalLow, finalHigh := normalizeNonZeroRange(monthlyLow, monthlyHigh, 3, 12)
	if ctx.demoMode {
		if (finalLow+finalHigh)/2 > 0 && finalLow < 0 {
			finalLow = 0
		}
		if finalLow < 0 {
			finalLow = 0
		}
		if finalHigh < finalLow {
			finalHigh = finalLow
		}
	}

	impactLabel := "Estimated avoided loss per month"
	switch planLabel {
	case models.PlanIncrease:
		impactLabel = "Estimated net return change per month"
	case models.PlanReduce:
		impactLabel = "Estimated feed savings per month"
	}

	impactRange := monthlyRangeString(finalLow, finalHigh)
	if ctx.demoMode {
		impactRange = monthlyRangeStringDemoPositive(finalLow, finalHigh)
	}

	forecast := models.SaleForecast{
		AnimalID:               animal.ID,
		Tag:                    animal.Tag,
		Name:                   animal.DisplayName(),
		PlannedSaleDate:        animal.PlannedSaleDate,
		DaysToSale:             daysToSale,
		CurrentFeedKgDay:       round2(currentFeed),
		CurrentFeedSource:      rollup.FeedSourceLabel,
		SuggestedFeedKgDay:     round2(suggestedFeed),
		SuggestedChangePct:     changePct,
		PlanLabel:              planLabel,
		StrategyMode:           mode,
		ProjectedCostSuggested: round2(projectedCostSuggested),
		ProjectedCostCurrent:   round2(projectedCostCurrent),
		MonthlyImpactRange:     impactRange,
		MonthlyImpactLabel:     impactLabel,
		MonthlyImpactLow:       round2(math.Min(finalLow, finalHigh)),
		MonthlyImpactHigh:      round2(math.Max(finalLow, finalHigh)),
		Note:                   note,
		ImpactNote:             impactNote,
		Suggestion:             suggestion,
		RiskBand:               riskBand,
	}
	if hasMilkData {
		revenue := round2(*rollup.LastMilkAvg * float64(daysToSale) * *ctx.settings.MilkPricePerLiter)
		forecast.ProjectedRevenue = &revenue
	}
	return forecast
}
