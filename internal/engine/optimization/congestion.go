package optimization

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/mamadbah2/herdsense/internal/domain/models"
)

const slotCount = 48 // 30-minute bins over one day

func slotLabel(slot int) string {
	start := slot * 30
	end := start + 30
	return fmt.Sprintf("%02d:%02d-%02d:%02d", start/60, start%60, (end/60)%24, end%60)
}

func congestionLevel(score *float64) string {
	switch {
	case score == nil:
		return "unknown"
	case *score >= 0.65:
		return "high"
	case *score >= 0.35:
		return "moderate"
	default:
		return "low"
	}
}

func buildSlotCounts(animals []models.Animal, signalsByTag map[string]models.DailySignal, timestamps func(models.DailySignal) []int, durationSlots func(models.DailySignal) int) []int {
	counts := make([]int, slotCount)
	for _, animal := range animals {
		signal := signalsByTag[models.NormalizeTag(animal.Tag)]
		duration := durationSlots(signal)
		if duration < 1 {
			duration = 1
		}
		for _, minute := range timestamps(signal) {
			start := minute / 30
			if start < 0 {
				start = 0
			}
			for slot := start; slot < start+duration && slot < slotCount; slot++ {
				counts[slot]++
			}
		}
	}
	return counts
}

func mealTimestamps(signal models.DailySignal) []int { return signal.MealTimestamps }

// waterTimestamps synthesizes evenly spread visit times from the visit count
// when no explicit timestamps were captured.
func waterTimestamps(signal models.DailySignal) []int {
	if len(signal.WaterTimestamps) > 0 {
		return signal.WaterTimestamps
	}
	if signal.WaterVisits == nil {
		return nil
	}
	visits := int(math.Round(*signal.WaterVisits))
	if visits < 1 {
		visits = 1
	}
	times := make([]int, visits)
	for i := range times {
		times[i] = 6*60 + i*(12*60/visits)
	}
	return times
}

// AnalyzeCongestion estimates shared feeder and water-point crowding from
// today's event timestamps bucketed into 30-minute bins. With fewer than two
// active animals or under six feeding samples the result is explicitly
// unknown instead of a misleading score.
func AnalyzeCongestion(animals []models.Animal, signalsByTag map[string]models.DailySignal, settings models.Settings) models.CongestionReport {
	active := activeOnly(animals)

	timezone := settings.Timezone
	if timezone == "" {
		timezone = "local"
	}

	feedingSamples := 0
	for _, animal := range active {
		feedingSamples += len(signalsByTag[models.NormalizeTag(animal.Tag)].MealTimestamps)
	}

	if len(active) < 2 || feedingSamples < 6 {
		return models.CongestionReport{
			HasFeedingData: false,
			Level:          "unknown",
			PeakWindows:    []string{},
			Interpretation: "Not enough data to estimate feeding station congestion. Capture more feeding timestamps for multiple animals.",
			Actions:        []string{"Collect more feeding-station observations before making changes."},
			Explanation:    "Congestion score = fraction of feeding 30-minute bins where 2 or more animals overlap.",
			Timezone:       timezone,
			WaterLevel:     "unknown",
			WaterInterpretation: "Not enough data to estimate water congestion.",
			HowCalculated: []string{
				"Split the day into 30-minute bins.",
				"Count animals present in each bin.",
				"Congestion = bins with 2+ animals divided by bins with any activity.",
			},
		}
	}

	feedingCounts := buildSlotCounts(active, signalsByTag, mealTimestamps, func(signal models.DailySignal) int {
		avgMeal := 15.0
		if signal.AvgMealMinutes != nil {
			avgMeal = *signal.AvgMealMinutes
		}
		return int(math.Round(avgMeal / 30))
	})
	waterCounts := buildSlotCounts(active, signalsByTag, waterTimestamps, func(models.DailySignal) int { return 1 })

	activeSlots, overlapSlots, occupancy := 0, 0, 0
	for _, count := range feedingCounts {
		if count > 0 {
			activeSlots++
			occupancy += count
		}
		if count >= 2 {
			overlapSlots++
		}
	}

	score := 0.0
	avgSimultaneous := 0.0
	if activeSlots > 0 {
		score = float64(overlapSlots) / float64(activeSlots)
		avgSimultaneous = float64(occupancy) / float64(activeSlots)
	}
	roundedScore := round2(score)
	level := congestionLevel(&roundedScore)

	type slotRank struct{ slot, count int }
	var ranked []slotRank
	for slot, count := range feedingCounts {
		if count > 0 {
			ranked = append(ranked, slotRank{slot, count})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].count > ranked[j].count })
	var peaks []string
	for i := 0; i < len(ranked) && i < 3; i++ {
		peaks = append(peaks, fmt.Sprintf("%s (%d animals)", slotLabel(ranked[i].slot), ranked[i].count))
	}

	waterActive, waterOverlap := 0, 0
	for _, count := range waterCounts {
		if count > 0 {
			waterActive++
		}
		if count >= 2 {
			waterOverlap++
		}
	}
	var waterScore *float64
	if waterActive > 0 {
		ws := round2(float64(waterOverlap) / float64(waterActive))
		waterScore = &ws
	}
	waterLevel := congestionLevel(waterScore)

	interpretations := map[string]string{
		"high":     fmt.Sprintf("Congestion is HIGH: animals overlap during %.0f%% of feeding minutes.", score*100),
		"moderate": fmt.Sprintf("Congestion is MODERATE: overlap happens during %.0f%% of feeding minutes.", score*100),
		"low":      fmt.Sprintf("Congestion is LOW: overlap happens during %.0f%% of feeding minutes.", score*100),
	}

	var actions []string
	switch level {
	case "high":
		actions = []string{
			"Add a second feeding spot during peak times.",
			"Stagger feeding in two waves to reduce crowding.",
			"Increase trough length or split groups during feeding.",
		}
	case "moderate":
		actions = []string{
			"Monitor under-eaters and consider slight staggering.",
			"Watch peak windows for displacement behavior.",
		}
	default:
		actions = []string{"No immediate change needed; keep weekly monitoring."}
	}

	waterInterpretation := "Not enough data to estimate water congestion."
	if waterScore != nil {
		waterInterpretation = fmt.Sprintf("Water overlap is %s: %.0f%% of water bins have 2+ animals.", strings.ToUpper(waterLevel), *waterScore*100)
	}

	avgRounded := round2(avgSimultaneous)
	return models.CongestionReport{
		HasFeedingData:  true,
		CongestionScore: &roundedScore,
		Level:           level,
		PeakWindows:     peaks,
		Interpretation:  interpretations[level] + " This can affect intake for lower-ranking animals.",
		Actions:         actions,
		Explanation:     "Congestion score = fraction of feeding 30-minute bins where 2 or more animals overlap.",
		Timezone:        timezone,
		WaterCongestionScore: waterScore,
		WaterLevel:           waterLevel,
		WaterInterpretation:  waterInterpretation,
		HowCalculated: []string{
			"Split the day into 30-minute bins.",
			"Count animals present in each bin from feeding and water timestamps.",
			"Compute overlap share for feeding and water separately.",
		},
		AvgAnimalsSimultaneous: &avgRounded,
	}
}
