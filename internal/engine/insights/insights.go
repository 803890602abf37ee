// Package insights scores each animal's daily behavior against its rolling
// baseline and produces an explainable multi-factor health-risk assessment.
// Scoring is rule-based and fully deterministic given identical inputs; the
// only variance is a small reproducible jitter keyed by animal and day.
package insights

import (
	"fmt"
	"math"
	"sort"

	"github.com/mamadbah2/herdsense/pkg/seed"

	"github.com/mamadbah2/herdsense/internal/domain/models"
)

// JitterFunc maps a stable key to a small score perturbation. Tests inject
// a zero function to pin exact scores.
type JitterFunc func(key string) float64

// DefaultJitter reproduces the seeded jitter in [-2.4, 2.4).
func DefaultJitter(key string) float64 {
	return seed.Between(seed.Hash(key)+18, -jitterSpread, jitterSpread)
}

// HerdContext carries herd-level values that feed individual scores.
type HerdContext struct {
	// CongestionScore is the fraction of active animals with recorded
	// feeding events today, a cheap proxy for shared-resource pressure.
	CongestionScore float64
}

// Options tunes one scoring pass.
type Options struct {
	// DayKey identifies the evaluation day (YYYY-MM-DD) for jitter keying.
	DayKey string
	// BaselineRecalibrationActive reduces confidence while baselines are
	// resettling, for example after a sensor relocation.
	BaselineRecalibrationActive bool
	// Jitter overrides DefaultJitter when non-nil.
	Jitter JitterFunc
}

func (o Options) jitter(key string) float64 {
	if o.Jitter != nil {
		return o.Jitter(key)
	}
	return DefaultJitter(key)
}

// deviations holds the directional percentage deviations and flags derived
// from one signal/baseline pair.
type deviations struct {
	intakeDrop   float64
	mealsDrop    float64
	activityDrop float64
	lyingRise    float64
	waterDrop    float64
	aloneRise    float64

	hotHumid       bool
	illnessPattern bool

	heatScore    float64
	illnessScore float64
	socialScore  float64
	waterScore   float64

	strongSignals int

	preCalvingActive bool
	preCalvingBoost  float64
	dueDays          *int
}

// pctChange returns the relative change of value vs baseline, or nil when
// either side is missing or the baseline is zero.
func pctChange(value, baseline *float64) *float64 {
	if value == nil || baseline == nil || *baseline == 0 {
		return nil
	}
	change := (*value - *baseline) / *baseline
	if math.IsNaN(change) || math.IsInf(change, 0) {
		return nil
	}
	return &change
}

func dropOf(value, baseline *float64) float64 {
	if change := pctChange(value, baseline); change != nil {
		return math.Max(0, -*change)
	}
	return 0
}

func riseOf(value, baseline *float64) float64 {
	if change := pctChange(value, baseline); change != nil {
		return math.Max(0, *change)
	}
	return 0
}

func coalesce(primary, fallback *float64) *float64 {
	if primary != nil {
		return primary
	}
	return fallback
}

func computeDeviations(animal models.Animal, signal models.DailySignal, baseline models.Baseline, herd HerdContext) deviations {
	d := deviations{
		intakeDrop:   dropOf(signal.TroughMinutes, baseline.TroughMinutes),
		mealsDrop:    dropOf(signal.MealsCount, baseline.MealsCount),
		activityDrop: dropOf(signal.ActivityIndex, baseline.ActivityIndex),
		lyingRise:    riseOf(signal.LyingMinutes, baseline.LyingMinutes),
		waterDrop:    dropOf(signal.WaterVisits, baseline.WaterVisits),
		aloneRise:    riseOf(signal.AloneMinutes, baseline.AloneMinutes),
	}

	temp := coalesce(signal.TempC, baseline.TempC)
	humidity := coalesce(signal.HumidityPct, baseline.HumidityPct)
	d.hotHumid = temp != nil && humidity != nil && *temp >= heatTempThreshold && *humidity >= heatHumidityThreshold

	d.illnessPattern = d.intakeDrop >= illnessIntakeDrop &&
		d.mealsDrop >= illnessMealsDrop &&
		d.activityDrop >= illnessActivityDrop &&
		d.lyingRise >= illnessLyingRise

	heatFlag, illnessFlag := 0.0, 0.0
	if d.hotHumid {
		heatFlag = heatFlagWeight
	}
	if d.illnessPattern {
		illnessFlag = illnessFlagWeight
	}

	d.heatScore = clamp(heatFlag+d.intakeDrop*heatIntakeWeight+d.activityDrop*heatActivityWeight+d.waterDrop*heatWaterWeight, 0, 100)
	d.illnessScore = clamp(illnessFlag+d.intakeDrop*illnessIntakeWeight+d.mealsDrop*illnessMealsWeight+d.activityDrop*illnessActivityWeight+d.lyingRise*illnessLyingWeight, 0, 100)
	d.socialScore = clamp(d.aloneRise*socialAloneWeight+d.mealsDrop*socialMealsWeight+herd.CongestionScore*socialCongestionWeight+d.intakeDrop*socialIntakeWeight, 0, 100)
	waterHeat := 0.0
	if d.hotHumid {
		waterHeat = waterHeatWeight
	}
	d.waterScore = clamp(d.waterDrop*waterDropWeight+waterHeat+d.intakeDrop*waterIntakeWeight, 0, 100)

	for _, strong := range []bool{
		d.intakeDrop >= strongIntakeDrop,
		d.mealsDrop >= strongMealsDrop,
		d.activityDrop >= strongActivityDrop,
		d.lyingRise >= strongLyingRise,
		d.waterDrop >= strongWaterDrop,
		d.hotHumid,
	} {
		if strong {
			d.strongSignals++
		}
	}

	if animal.Sex == "female" && animal.PregnancyDueDays != nil {
		due := *animal.PregnancyDueDays
		d.dueDays = &due
		if due <= preCalvingWindowDays {
			d.preCalvingActive = true
			switch {
			case due <= 7:
				d.preCalvingBoost = preCalvingBoostNear
			case due <= 14:
				d.preCalvingBoost = preCalvingBoostMid
			default:
				d.preCalvingBoost = preCalvingBoostFar
			}
		}
	}

	return d
}

func metricDeltas(signal models.DailySignal, baseline models.Baseline) []models.MetricDelta {
	rows := []struct {
		key, label string
		current    *float64
		base       *float64
	}{
		{"trough_minutes", "Eating time", signal.TroughMinutes, baseline.TroughMinutes},
		{"meals_count", "Meals count", signal.MealsCount, baseline.MealsCount},
		{"activity_index", "Activity", signal.ActivityIndex, baseline.ActivityIndex},
		{"lying_minutes", "Lying time", signal.LyingMinutes, baseline.LyingMinutes},
		{"water_visits", "Water visits", signal.WaterVisits, baseline.WaterVisits},
		{"alone_minutes", "Alone time", signal.AloneMinutes, baseline.AloneMinutes},
	}

	var out []models.MetricDelta
	for _, row := range rows {
		change := pctChange(row.current, row.base)
		if change == nil {
			continue
		}
		out = append(out, models.MetricDelta{
			Key:      row.key,
			Label:    row.label,
			Current:  row.current,
			Baseline: row.base,
			Change:   *change,
		})
	}
	return out
}

func confidenceScore(signal models.DailySignal, deltas []models.MetricDelta) float64 {
	tracked := []*float64{
		signal.TroughMinutes,
		signal.MealsCount,
		signal.ActivityIndex,
		signal.LyingMinutes,
		signal.WaterVisits,
		signal.TempC,
		signal.HumidityPct,
	}
	present := 0
	for _, metric := range tracked {
		if metric != nil {
			present++
		}
	}
	available := float64(present) / float64(len(tracked))

	avgMagnitude := 0.0
	if len(deltas) > 0 {
		total := 0.0
		for _, row := range deltas {
			total += math.Min(1, math.Abs(row.Change))
		}
		avgMagnitude = total / float64(len(deltas))
	}

	return clamp(available*confidenceAvailabilityWeight+avgMagnitude*confidenceMagnitudeWeight, confidenceMin, confidenceMax)
}

func overallRisk(d deviations, confidence float64, jitter float64) float64 {
	weighted := d.intakeDrop*riskIntakeWeight +
		d.mealsDrop*riskMealsWeight +
		d.activityDrop*riskActivityWeight +
		d.lyingRise*riskLyingWeight +
		d.waterDrop*riskWaterWeight +
		d.aloneRise*riskAloneWeight +
		d.preCalvingBoost
	if d.hotHumid {
		weighted += riskHeatBonus
	}

	risk := riskBase + weighted*riskSpan
	if d.preCalvingActive && (d.aloneRise >= 0.2 || d.activityDrop >= 0.1) {
		risk += 6
	}
	risk *= riskConfidenceBase + confidence*riskConfidenceSpan

	if d.strongSignals == 0 && d.preCalvingBoost == 0 {
		risk = math.Min(risk, riskCapNoSignals)
	}
	if d.strongSignals >= 3 {
		risk = math.Max(risk, riskFloorThree)
	}
	if d.strongSignals >= 4 {
		risk = math.Max(risk, riskFloorFour)
	}
	if d.strongSignals >= 5 {
		risk = math.Max(risk, riskFloorFive)
	}
	if d.strongSignals < 2 && d.preCalvingBoost < 0.1 {
		risk = math.Min(risk, riskCapUnderTwo)
	}
	if d.strongSignals < 4 {
		risk = math.Min(risk, riskCapUnderFour)
	}

	risk += jitter
	return clamp(round1(risk), riskMin, riskMax)
}

func levelFromScore(score float64) string {
	switch {
	case score >= 60:
		return "High"
	case score >= 30:
		return "Moderate"
	default:
		return "Low"
	}
}

func overallLevel(riskPct float64) string {
	switch {
	case riskPct >= highThreshold:
		return "HIGH"
	case riskPct >= moderateThreshold:
		return "MODERATE"
	default:
		return "LOW"
	}
}

func whyBullets(d deviations) []string {
	var bullets []string
	add := func(condition bool, text string) {
		if condition {
			bullets = append(bullets, text)
		}
	}
	add(d.intakeDrop > 0.05, fmt.Sprintf("Eating time -%d%% vs baseline", int(math.Round(d.intakeDrop*100))))
	add(d.mealsDrop > 0.05, fmt.Sprintf("Meals -%d%% vs baseline", int(math.Round(d.mealsDrop*100))))
	add(d.activityDrop > 0.05, fmt.Sprintf("Activity -%d%% vs baseline", int(math.Round(d.activityDrop*100))))
	add(d.lyingRise > 0.05, fmt.Sprintf("Lying time +%d%% vs baseline", int(math.Round(d.lyingRise*100))))
	add(d.waterDrop > 0.05, fmt.Sprintf("Water visits -%d%% vs baseline", int(math.Round(d.waterDrop*100))))
	add(d.hotHumid, "Hot and humid conditions today")
	if d.dueDays != nil && *d.dueDays <= preCalvingWindowDays {
		days := *d.dueDays
		if days < 0 {
			days = 0
		}
		bullets = append(bullets, fmt.Sprintf("Late pregnancy window: due in about %d day(s)", days))
	}
	if len(bullets) > 4 {
		bullets = bullets[:4]
	}
	return bullets
}

// ScoreAnimal evaluates one animal's daily signal against its baseline and
// returns the derived insight. The display band fields stay empty here;
// ApplyBand fills them from the caller-held streak state.
func ScoreAnimal(animal models.Animal, signal models.DailySignal, baseline models.Baseline, herd HerdContext, opts Options) models.Insight {
	deltas := metricDeltas(signal, baseline)
	confidence := confidenceScore(signal, deltas)
	if opts.BaselineRecalibrationActive {
		confidence = clamp(confidence*recalibrationFactor, recalibrationMin, recalibrationMax)
	}

	d := computeDeviations(animal, signal, baseline, herd)
	jitter := opts.jitter(models.NormalizeTag(animal.Tag) + "-" + opts.DayKey)
	riskPct := overallRisk(d, confidence, jitter)

	contributions := []models.FactorContribution{
		{Key: models.FactorHeat, Label: factorLabels["heat"], Score: round1(d.heatScore)},
		{Key: models.FactorIllness, Label: factorLabels["illness"], Score: round1(d.illnessScore)},
		{Key: models.FactorSocial, Label: factorLabels["social"], Score: round1(d.socialScore)},
		{Key: models.FactorWater, Label: factorLabels["water"], Score: round1(d.waterScore)},
	}
	scores := make(map[string]float64, len(contributions))
	for i := range contributions {
		contributions[i].Level = levelFromScore(contributions[i].Score)
		scores[contributions[i].Key] = contributions[i].Score
	}

	top := contributions[0]
	for _, row := range contributions[1:] {
		if row.Score > top.Score {
			top = row
		}
	}

	preCalvingPriority := d.preCalvingActive && riskPct >= moderateThreshold
	severity := severityDefault
	if weight, ok := severityWeights[top.Key]; ok {
		severity = weight
	}
	if preCalvingPriority {
		severity = severityPreCalving
	}
	urgency := round2(riskPct * confidence * severity)

	actions := actionLists[top.Key]
	if actions == nil || riskPct < normalRiskCutoff {
		actions = normalActions
	}
	if d.preCalvingActive {
		combined := append(append([]string{}, preCalvingActions...), actions...)
		if len(combined) > 4 {
			combined = combined[:4]
		}
		actions = combined
	} else {
		actions = append([]string{}, actions...)
	}

	topRiskLabel := top.Label
	switch {
	case riskPct < normalRiskCutoff:
		topRiskLabel = "Normal/Low risk"
	case preCalvingPriority:
		topRiskLabel = "Pre-calving risk"
	}

	possibleReasons := ""
	switch {
	case top.Key == models.FactorIllness && riskPct >= moderateThreshold:
		possibleReasons = "Possible reasons: lameness/injury, early illness, heat-related fatigue"
	case preCalvingPriority:
		possibleReasons = "Possible reason: late pregnancy behavior shift"
	}

	return models.Insight{
		AnimalID:           animal.ID,
		Tag:                animal.Tag,
		Confidence:         confidence,
		OverallRiskPct:     riskPct,
		OverallRiskLevel:   overallLevel(riskPct),
		UrgencyScore:       urgency,
		TopFactorKey:       top.Key,
		TopFactorLabel:     top.Label,
		TopFactorLevel:     top.Level,
		TopRiskLabel:       topRiskLabel,
		Contributions:      contributions,
		ContributingScores: scores,
		WhyBullets:         whyBullets(d),
		PossibleReasons:    possibleReasons,
		Actions:            actions,
		Deltas:             deltas,
		StrongSignalCount:  d.strongSignals,
		PreCalvingActive:   d.preCalvingActive,
		DueDays:            d.dueDays,
	}
}

// ScoreHerd batches ScoreAnimal over active animals only, sorted descending
// by urgency score. Signals and baselines are keyed by normalized tag.
func ScoreHerd(animals []models.Animal, signals map[string]models.DailySignal, baselines map[string]models.Baseline, opts Options) []models.Insight {
	var active []models.Animal
	for _, animal := range animals {
		if animal.Active {
			active = append(active, animal)
		}
	}

	herd := HerdContext{}
	if len(active) > 0 {
		withMeals := 0
		for _, animal := range active {
			if len(signals[models.NormalizeTag(animal.Tag)].MealTimestamps) > 0 {
				withMeals++
			}
		}
		herd.CongestionScore = float64(withMeals) / float64(len(active))
	}

	insights := make([]models.Insight, 0, len(active))
	for _, animal := range active {
		tag := models.NormalizeTag(animal.Tag)
		insights = append(insights, ScoreAnimal(animal, signals[tag], baselines[tag], herd, opts))
	}

	sort.SliceStable(insights, func(i, j int) bool {
		return insights[i].UrgencyScore > insights[j].UrgencyScore
	})
	return insights
}

func clamp(value, min, max float64) float64 {
	return math.Max(min, math.Min(max, value))
}

func round1(value float64) float64 {
	return math.Round(value*10) / 10
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
