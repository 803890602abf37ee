package insights

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/herdsense/internal/domain/models"
)

func zeroJitter(string) float64 { return 0 }

func testOptions() Options {
	return Options{DayKey: "2025-03-14", Jitter: zeroJitter}
}

func referenceBaseline() models.Baseline {
	return models.Baseline{
		Tag:           "B-12",
		TroughMinutes: models.Float(120),
		MealsCount:    models.Float(10),
		ActivityIndex: models.Float(0.8),
		AloneMinutes:  models.Float(30),
		WaterVisits:   models.Float(8),
		LyingMinutes:  models.Float(500),
		TempC:         models.Float(28),
		HumidityPct:   models.Float(62),
	}
}

func sickSignal() models.DailySignal {
	return models.DailySignal{
		Tag:           "B-12",
		TroughMinutes: models.Float(90),
		MealsCount:    models.Float(8.4),
		ActivityIndex: models.Float(0.632),
		AloneMinutes:  models.Float(34),
		WaterVisits:   models.Float(6.5),
		LyingMinutes:  models.Float(565),
		TempC:         models.Float(33.5),
		HumidityPct:   models.Float(74),
	}
}

func TestScoreAnimalSickHotDay(t *testing.T) {
	animal := models.Animal{ID: "a1", Tag: "B-12", Sex: "female", Active: true}

	insight := ScoreAnimal(animal, sickSignal(), referenceBaseline(), HerdContext{}, testOptions())

	// Illness pattern co-occurs (intake -25%, meals -16%, activity -21%,
	// lying +13%) and the day is hot and humid.
	assert.GreaterOrEqual(t, insight.ContributingScores[models.FactorIllness], 30.0)
	assert.GreaterOrEqual(t, insight.ContributingScores[models.FactorHeat], 30.0)

	// Five strong signals lift the score onto the five-signal floor.
	assert.Equal(t, 5, insight.StrongSignalCount)
	assert.Equal(t, 72.0, insight.OverallRiskPct)
	assert.Equal(t, "HIGH", insight.OverallRiskLevel)

	// Heat outscores illness here, so the top factor and its checklist are
	// heat-related.
	assert.Equal(t, models.FactorHeat, insight.TopFactorKey)
	require.NotEmpty(t, insight.Actions)
	assert.Contains(t, insight.Actions[0], "water")

	assert.NotEmpty(t, insight.WhyBullets)
	assert.LessOrEqual(t, len(insight.WhyBullets), 4)
	assert.Positive(t, insight.UrgencyScore)
}

func TestScoreAnimalHealthyDayStaysLow(t *testing.T) {
	animal := models.Animal{ID: "a1", Tag: "B-12", Active: true}
	baseline := referenceBaseline()
	signal := models.DailySignal{
		Tag:           "B-12",
		TroughMinutes: models.Float(121),
		MealsCount:    models.Float(10),
		ActivityIndex: models.Float(0.81),
		AloneMinutes:  models.Float(29),
		WaterVisits:   models.Float(8),
		LyingMinutes:  models.Float(495),
		TempC:         models.Float(24),
		HumidityPct:   models.Float(55),
	}

	insight := ScoreAnimal(animal, signal, baseline, HerdContext{}, testOptions())

	assert.Zero(t, insight.StrongSignalCount)
	assert.LessOrEqual(t, insight.OverallRiskPct, 22.0)
	assert.Equal(t, "LOW", insight.OverallRiskLevel)
	assert.Equal(t, "Normal/Low risk", insight.TopRiskLabel)
	assert.Equal(t, normalActions, insight.Actions)
}

func TestScoreAnimalWorseSignalsScoreHigher(t *testing.T) {
	animal := models.Animal{ID: "a1", Tag: "B-12", Active: true}
	baseline := referenceBaseline()

	mild := models.DailySignal{
		Tag:           "B-12",
		TroughMinutes: models.Float(108),
		MealsCount:    models.Float(9.5),
		ActivityIndex: models.Float(0.75),
		AloneMinutes:  models.Float(31),
		WaterVisits:   models.Float(7.8),
		LyingMinutes:  models.Float(510),
		TempC:         models.Float(26),
		HumidityPct:   models.Float(58),
	}

	mildScore := ScoreAnimal(animal, mild, baseline, HerdContext{}, testOptions()).OverallRiskPct
	severeScore := ScoreAnimal(animal, sickSignal(), baseline, HerdContext{}, testOptions()).OverallRiskPct
	assert.Greater(t, severeScore, mildScore)
}

func TestScoreAnimalMissingMetricsDegradeConfidenceNotError(t *testing.T) {
	animal := models.Animal{ID: "a1", Tag: "B-12", Active: true}

	full := ScoreAnimal(animal, sickSignal(), referenceBaseline(), HerdContext{}, testOptions())

	sparse := models.DailySignal{Tag: "B-12", TroughMinutes: models.Float(90)}
	partial := ScoreAnimal(animal, sparse, referenceBaseline(), HerdContext{}, testOptions())

	assert.Less(t, partial.Confidence, full.Confidence)
	assert.GreaterOrEqual(t, partial.Confidence, confidenceMin)

	empty := ScoreAnimal(animal, models.DailySignal{Tag: "B-12"}, models.Baseline{}, HerdContext{}, testOptions())
	assert.Equal(t, confidenceMin, empty.Confidence)
	assert.Empty(t, empty.Deltas)
	assert.GreaterOrEqual(t, empty.OverallRiskPct, riskMin)
}

func TestScoreAnimalRecalibrationLowersConfidence(t *testing.T) {
	animal := models.Animal{ID: "a1", Tag: "B-12", Active: true}

	opts := testOptions()
	normal := ScoreAnimal(animal, sickSignal(), referenceBaseline(), HerdContext{}, opts)

	opts.BaselineRecalibrationActive = true
	recal := ScoreAnimal(animal, sickSignal(), referenceBaseline(), HerdContext{}, opts)

	assert.InDelta(t, normal.Confidence*recalibrationFactor, recal.Confidence, 0.001)
}

func TestScoreAnimalPreCalvingBoost(t *testing.T) {
	baseline := referenceBaseline()
	signal := models.DailySignal{
		Tag:           "B-12",
		TroughMinutes: models.Float(112),
		MealsCount:    models.Float(9.6),
		ActivityIndex: models.Float(0.7),
		AloneMinutes:  models.Float(40),
		WaterVisits:   models.Float(7.5),
		LyingMinutes:  models.Float(520),
		TempC:         models.Float(25),
		HumidityPct:   models.Float(55),
	}

	open := models.Animal{ID: "a1", Tag: "B-12", Sex: "female", Active: true}
	due := models.Animal{ID: "a1", Tag: "B-12", Sex: "female", Active: true, PregnancyDueDays: models.Int(5)}

	openScore := ScoreAnimal(open, signal, baseline, HerdContext{}, testOptions())
	dueScore := ScoreAnimal(due, signal, baseline, HerdContext{}, testOptions())

	assert.Greater(t, dueScore.OverallRiskPct, openScore.OverallRiskPct)
	assert.True(t, dueScore.PreCalvingActive)
	require.NotNil(t, dueScore.DueDays)
	assert.Equal(t, 5, *dueScore.DueDays)
	assert.Contains(t, dueScore.Actions[0], "calving")
}

func TestScoreBoundsHoldUnderExtremeInput(t *testing.T) {
	animal := models.Animal{ID: "a1", Tag: "B-12", Sex: "female", Active: true, PregnancyDueDays: models.Int(2)}
	baseline := referenceBaseline()
	signal := models.DailySignal{
		Tag:           "B-12",
		TroughMinutes: models.Float(1),
		MealsCount:    models.Float(0.5),
		ActivityIndex: models.Float(0.01),
		AloneMinutes:  models.Float(900),
		WaterVisits:   models.Float(0.1),
		LyingMinutes:  models.Float(1400),
		TempC:         models.Float(41),
		HumidityPct:   models.Float(95),
	}

	insight := ScoreAnimal(animal, signal, baseline, HerdContext{CongestionScore: 1}, testOptions())

	assert.LessOrEqual(t, insight.OverallRiskPct, riskMax)
	assert.GreaterOrEqual(t, insight.OverallRiskPct, riskMin)
	assert.LessOrEqual(t, insight.Confidence, confidenceMax)
	for _, c := range insight.Contributions {
		assert.GreaterOrEqual(t, c.Score, 0.0)
		assert.LessOrEqual(t, c.Score, 100.0)
	}
}

func TestDefaultJitterDeterministicAndBounded(t *testing.T) {
	a := DefaultJitter("B-12-2025-03-14")
	b := DefaultJitter("B-12-2025-03-14")
	assert.Equal(t, a, b)

	for _, key := range []string{"B-12-2025-03-14", "B-12-2025-03-15", "G-07-2025-03-14", "X-99-2024-01-01"} {
		j := DefaultJitter(key)
		assert.GreaterOrEqual(t, j, -jitterSpread)
		assert.Less(t, j, jitterSpread)
	}
}

func TestScoreHerdFiltersAndSorts(t *testing.T) {
	animals := []models.Animal{
		{ID: "a1", Tag: "B-12", Active: true},
		{ID: "a2", Tag: "G-07", Active: true},
		{ID: "a3", Tag: "R-01", Active: false},
	}
	signals := map[string]models.DailySignal{
		"B-12": sickSignal(),
		"G-07": {Tag: "G-07", TroughMinutes: models.Float(118), MealsCount: models.Float(10)},
		"R-01": sickSignal(),
	}
	baselines := map[string]models.Baseline{
		"B-12": referenceBaseline(),
		"G-07": referenceBaseline(),
		"R-01": referenceBaseline(),
	}

	insights := ScoreHerd(animals, signals, baselines, testOptions())

	require.Len(t, insights, 2) // inactive animal excluded
	assert.Equal(t, "B-12", insights[0].Tag)
	assert.GreaterOrEqual(t, insights[0].UrgencyScore, insights[1].UrgencyScore)
}

func TestNextBandRequiresPersistenceForHigh(t *testing.T) {
	now := time.Date(2025, 3, 14, 6, 0, 0, 0, time.UTC)
	insight := models.Insight{Tag: "B-12", OverallRiskPct: 58, StrongSignalCount: 2}

	// Day one at a high raw score displays as moderate pending confirmation.
	day1 := NextBand(models.RiskStreakState{}, insight, now)
	assert.Equal(t, models.BandModerate, day1.Key)
	assert.Equal(t, "moderate (recheck)", day1.Label)
	assert.Equal(t, 1, day1.Next.StreakDays)

	// Day two still elevated with corroboration escalates.
	day2 := NextBand(day1.Next, insight, now.AddDate(0, 0, 1))
	assert.Equal(t, models.BandHigh, day2.Key)
	assert.Equal(t, "high (persistent)", day2.Label)
	assert.Equal(t, 2, day2.Next.StreakDays)
	assert.NotEmpty(t, day2.Note)
}

func TestNextBandExtremeSkipsPersistence(t *testing.T) {
	insight := models.Insight{Tag: "B-12", OverallRiskPct: 85, StrongSignalCount: 4}
	band := NextBand(models.RiskStreakState{}, insight, time.Now())
	assert.Equal(t, models.BandHigh, band.Key)
	assert.Equal(t, "high (extreme today)", band.Label)
}

func TestNextBandResetAndBackToNormalNote(t *testing.T) {
	prev := models.RiskStreakState{Tag: "B-12", StreakDays: 3, LastBandKey: models.BandHigh}
	insight := models.Insight{Tag: "B-12", OverallRiskPct: 9, StrongSignalCount: 0}

	band := NextBand(prev, insight, time.Now())
	assert.Equal(t, models.BandLow, band.Key)
	assert.Equal(t, "Back to normal behavior.", band.Note)
	assert.Zero(t, band.Next.StreakDays)
}

func TestBuildBaselineWindowAndMissingMetrics(t *testing.T) {
	asOf := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

	history := []models.DailySignal{
		{Date: asOf.AddDate(0, 0, -1), TroughMinutes: models.Float(110), MealsCount: models.Float(9)},
		{Date: asOf.AddDate(0, 0, -2), TroughMinutes: models.Float(130)},
		// Outside the window and on the asOf day itself: both excluded.
		{Date: asOf.AddDate(0, 0, -30), TroughMinutes: models.Float(500)},
		{Date: asOf, TroughMinutes: models.Float(500)},
	}

	baseline := BuildBaseline("b-12", history, asOf)

	assert.Equal(t, "B-12", baseline.Tag)
	assert.Equal(t, 2, baseline.SampleCount)
	require.NotNil(t, baseline.TroughMinutes)
	assert.InDelta(t, 120, *baseline.TroughMinutes, 0.001)
	require.NotNil(t, baseline.MealsCount)
	assert.InDelta(t, 9, *baseline.MealsCount, 0.001)
	assert.Nil(t, baseline.ActivityIndex)
	assert.Nil(t, baseline.MilkLiters)
}
