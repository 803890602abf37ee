package optimization

import (
	"fmt"
	"time"

	"github.com/mamadbah2/herdsense/internal/engine/calendar"
	"github.com/mamadbah2/herdsense/internal/domain/models"
)

// heatShiftMinutes moves milking earlier when the herd heat factor is
// elevated.
const heatShiftMinutes = 60

func parseTimeToMinutes(value string) (int, bool) {
	var h, m int
	if _, err := fmt.Sscanf(value, "%d:%d", &h, &m); err != nil {
		return 0, false
	}
	return h*60 + m, true
}

func minutesToTime(minutes int) string {
	value := ((minutes % 1440) + 1440) % 1440
	return fmt.Sprintf("%02d:%02d", value/60, value%60)
}

func windowMidpoint(start, end string, fallback int) int {
	s, okStart := parseTimeToMinutes(start)
	e, okEnd := parseTimeToMinutes(end)
	if !okStart || !okEnd {
		return fallback
	}
	return (s + e) / 2
}

// MilkingSchedule derives suggested milking times from the configured
// windows and frequency, shifted earlier on hot spells, and projects a
// 7-day reminder window. Reminders share the task occurrence shape but are
// regenerated each call, never persisted as tasks.
func MilkingSchedule(animals []models.Animal, settings models.Settings, insights []models.Insight, reference time.Time) models.MilkingSchedule {
	var dairy []models.Animal
	for _, animal := range activeOnly(animals) {
		if animal.ProductionType == models.ProductionDairy {
			dairy = append(dairy, animal)
		}
	}

	frequency := settings.MilkingFrequency
	if frequency == "" {
		frequency = "2x/day"
	}
	mode := settings.MilkingScheduleMode
	if mode == "" {
		mode = "same_for_all"
	}

	heatTotal := 0.0
	for _, insight := range insights {
		heatTotal += insight.ContributingScores[models.FactorHeat]
	}
	heatScore := 0.0
	if len(insights) > 0 {
		heatScore = heatTotal / float64(len(insights)) / 100
	}
	heatShift := 0
	if heatScore >= 0.35 {
		heatShift = -heatShiftMinutes
	}

	morningMid := windowMidpoint(settings.MorningWindowStart, settings.MorningWindowEnd, 6*60+30) + heatShift
	middayMid := windowMidpoint(settings.MiddayWindowStart, settings.MiddayWindowEnd, 12*60) + heatShift
	eveningMid := windowMidpoint(settings.EveningWindowStart, settings.EveningWindowEnd, 17*60+30) + heatShift

	timesFor := func(freq string) []string {
		switch freq {
		case "1x/day":
			return []string{minutesToTime(morningMid)}
		case "3x/day":
			return []string{minutesToTime(morningMid), minutesToTime(middayMid), minutesToTime(eveningMid)}
		default:
			return []string{minutesToTime(morningMid), minutesToTime(eveningMid)}
		}
	}

	defaultTimes := timesFor(frequency)

	var notes []string
	if heatShift < 0 {
		notes = append(notes, "Heat risk is elevated; schedule moved earlier by 1 hour.")
	}
	notes = append(notes, "Keep times consistent day-to-day to stabilize output.")

	var reminders []models.TaskOccurrence
	var todayEvents []models.MilkingEvent
	var next7 []models.MilkingDay

	for offset := 0; offset < 7; offset++ {
		day := calendar.DateOnly(reference).AddDate(0, 0, offset)
		var events []models.MilkingEvent

		if mode == "same_for_all" {
			for i, at := range defaultTimes {
				reminders = append(reminders, models.TaskOccurrence{
					ID:        fmt.Sprintf("milk-%s-%d", calendar.FormatDate(day), i+1),
					Title:     fmt.Sprintf("Milking reminder %d", i+1),
					Category:  "milking",
					DueDate:   day,
					DueTime:   at,
					Status:    models.StatusPending,
					Source:    "milking",
					CreatedAt: reference,
					Notes:     fmt.Sprintf("Farm-level reminder for %d dairy animals.", len(dairy)),
				})
				events = append(events, models.MilkingEvent{Label: fmt.Sprintf("Farm milking #%d", i+1), Time: at})
			}
		} else {
			for _, animal := range dairy {
				perAnimal := frequency
				if override, ok := settings.MilkingOverrides[animal.ID]; ok && override != "" {
					perAnimal = override
				} else if animal.TargetMilkingFrequency != "" {
					perAnimal = animal.TargetMilkingFrequency
				}
				for i, at := range timesFor(perAnimal) {
					reminders = append(reminders, models.TaskOccurrence{
						ID:         fmt.Sprintf("milk-%s-%s-%d", animal.ID, calendar.FormatDate(day), i+1),
						Title:      fmt.Sprintf("Milking %s #%d", animal.DisplayName(), i+1),
						Category:   "milking",
						DueDate:    day,
						DueTime:    at,
						AssignedTo: animal.ID,
						Status:     models.StatusPending,
						Source:     "milking",
						CreatedAt:  reference,
						Notes:      "Per-animal override reminder.",
					})
					events = append(events, models.MilkingEvent{Label: fmt.Sprintf("%s #%d", animal.DisplayName(), i+1), Time: at})
				}
			}
		}

		if offset == 0 {
			todayEvents = events
		}
		next7 = append(next7, models.MilkingDay{Date: day, Events: events})
	}

	var prompts []string
	for _, animal := range dairy {
		daysToSale := daysUntil(animal.PlannedSaleDate, reference)
		if animal.LactationStage == "early" && (daysToSale == nil || *daysToSale > 45) {
			prompts = append(prompts, fmt.Sprintf("%s: early lactation; consider 3x/day milking if labor allows.", animal.DisplayName()))
		}
		if daysToSale != nil && *daysToSale >= 0 && *daysToSale <= 45 {
			prompts = append(prompts, fmt.Sprintf("%s: planned sale/cull soon; consider a lower frequency if appropriate to reduce labor.", animal.DisplayName()))
		}
	}

	if len(notes) > 4 {
		notes = notes[:4]
	}
	if len(prompts) > 6 {
		prompts = prompts[:6]
	}

	return models.MilkingSchedule{
		Mode:      mode,
		Frequency: frequency,
		Times:     defaultTimes,
		Notes:     notes,
		Prompts:   prompts,
		Reminders: reminders,
		Today:     todayEvents,
		Next7Days: next7,
	}
}
