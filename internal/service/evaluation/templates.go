package evaluation

import (
	"time"

	"github.com/mamadbah2/herdsense/internal/domain/models"
)

// DefaultTemplates builds the starter chore templates for a farm that has
// none yet: hoof care, equipment upkeep, water hygiene, and the milking
// sessions implied by the farm-wide schedule settings.
func DefaultTemplates(settings models.Settings, today time.Time) []models.TaskTemplate {
	hoofTrimWeeks := 8
	if settings.HoofTrimIntervalWeeks != nil {
		hoofTrimWeeks = *settings.HoofTrimIntervalWeeks
	}
	if hoofTrimWeeks < 6 {
		hoofTrimWeeks = 6
	}
	if hoofTrimWeeks > 10 {
		hoofTrimWeeks = 10
	}

	waterDays := 3
	if settings.WaterCleanIntervalDays != nil {
		waterDays = *settings.WaterCleanIntervalDays
	}
	if waterDays < 2 {
		waterDays = 2
	}
	if waterDays > 3 {
		waterDays = 3
	}

	templates := []models.TaskTemplate{
		{
			ID:          "tmpl-hoof-check",
			Title:       "Hoof check (light)",
			Category:    "hoof",
			StartDate:   today.AddDate(0, 0, 1),
			Recurrence:  &models.RecurrenceRule{Every: 14, Unit: models.UnitDays},
			DefaultTime: "09:00",
			Notes:       "Quick gait and hoof condition pass.",
		},
		{
			ID:          "tmpl-hoof-trim",
			Title:       "Hoof trimming cycle",
			Category:    "hoof",
			StartDate:   today.AddDate(0, 0, 10),
			Recurrence:  &models.RecurrenceRule{Every: hoofTrimWeeks, Unit: models.UnitWeeks},
			DefaultTime: "10:00",
			Notes:       "Configurable between 6-12 weeks by herd condition.",
		},
		{
			ID:          "tmpl-camera-clean",
			Title:       "Clean feeder camera lens",
			Category:    "equipment",
			StartDate:   today.AddDate(0, 0, 1),
			Recurrence:  &models.RecurrenceRule{Every: 7, Unit: models.UnitDays},
			DefaultTime: "07:30",
		},
		{
			ID:          "tmpl-water-clean",
			Title:       "Check and clean water trough",
			Category:    "water",
			StartDate:   today.AddDate(0, 0, 1),
			Recurrence:  &models.RecurrenceRule{Every: waterDays, Unit: models.UnitDays},
			DefaultTime: "06:45",
		},
		{
			ID:          "tmpl-feeder-check",
			Title:       "Check feeder condition",
			Category:    "feeding",
			StartDate:   today.AddDate(0, 0, 1),
			Recurrence:  &models.RecurrenceRule{Every: 7, Unit: models.UnitDays},
			DefaultTime: "08:00",
			Notes:       "Check feeder wear, blockages, and access space.",
		},
	}

	return append(templates, milkingTemplates(settings, today)...)
}

// milkingTemplates derives daily milking-session templates from the farm
// schedule. Per-animal override mode manages sessions through the milking
// plan instead, so it produces no templates.
func milkingTemplates(settings models.Settings, today time.Time) []models.TaskTemplate {
	mode := settings.MilkingScheduleMode
	if mode != "" && mode != "same_for_all" {
		return nil
	}

	frequency := settings.MilkingFrequency
	if frequency == "" {
		frequency = "2x/day"
	}

	session := func(id, title, fallbackTime, configured string) models.TaskTemplate {
		at := configured
		if at == "" {
			at = fallbackTime
		}
		return models.TaskTemplate{
			ID:          id,
			Title:       title,
			Category:    "milking",
			StartDate:   today,
			Recurrence:  &models.RecurrenceRule{Every: 1, Unit: models.UnitDays},
			DefaultTime: at,
			Notes:       "Generated from milking schedule settings.",
		}
	}

	templates := []models.TaskTemplate{
		session("tmpl-milking-am", "Milking - Morning session", "06:00", settings.MorningWindowStart),
	}
	switch frequency {
	case "3x/day":
		templates = append(templates,
			session("tmpl-milking-mid", "Milking - Midday session", "12:00", settings.MiddayWindowStart),
			session("tmpl-milking-pm", "Milking - Evening session", "17:00", settings.EveningWindowStart))
	case "1x/day":
		// Morning only.
	default:
		templates = append(templates,
			session("tmpl-milking-pm", "Milking - Evening session", "17:00", settings.EveningWindowStart))
	}
	return templates
}
