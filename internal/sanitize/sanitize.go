// Package sanitize normalizes raw daily signal snapshots before any
// computation touches them: unit recoveries, range clamps, and event-time
// ordering.
package sanitize

import (
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/mamadbah2/herdsense/internal/domain/models"
)

const minutesPerDay = 1440

// Warning severities. Converted values are recovered unit mismatches and
// logged quietly; clamped values are true out-of-bounds readings surfaced
// for operator visibility.
const (
	SeverityConverted = "converted"
	SeverityClamped   = "clamped"
)

// Warning records one correction applied to a signal field.
type Warning struct {
	Context  string  `json:"context"`
	Field    string  `json:"field"`
	Raw      float64 `json:"raw"`
	Severity string  `json:"severity"`
	Detail   string  `json:"detail"`
}

// Sanitizer validates and normalizes signal snapshots.
type Sanitizer struct {
	logger *zap.Logger
}

// New builds a Sanitizer. A nil logger is replaced with a no-op.
func New(logger *zap.Logger) *Sanitizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sanitizer{logger: logger}
}

// Signal returns a sanitized copy of the snapshot plus any corrections made.
// The input is never mutated.
func (s *Sanitizer) Signal(signal models.DailySignal, contextLabel string) (models.DailySignal, []Warning) {
	if contextLabel == "" {
		contextLabel = "signal"
	}

	var warnings []Warning
	next := signal

	next.TroughMinutes = s.minuteField(signal.TroughMinutes, contextLabel, "trough_minutes", &warnings)
	next.LyingMinutes = s.minuteField(signal.LyingMinutes, contextLabel, "lying_minutes", &warnings)
	next.AloneMinutes = s.minuteField(signal.AloneMinutes, contextLabel, "alone_minutes", &warnings)
	next.AvgMealMinutes = s.minuteField(signal.AvgMealMinutes, contextLabel, "avg_meal_minutes", &warnings)

	next.MealTimestamps = s.timestampList(signal.MealTimestamps, contextLabel, "meal_timestamps", &warnings)
	next.WaterTimestamps = s.timestampList(signal.WaterTimestamps, contextLabel, "water_timestamps", &warnings)

	next.ActivityIndex = s.activityIndex(signal.ActivityIndex, contextLabel, &warnings)

	return next, warnings
}

// Series sanitizes a trailing history slice, labelling each entry by index.
func (s *Sanitizer) Series(series []models.DailySignal, contextPrefix string) ([]models.DailySignal, []Warning) {
	if contextPrefix == "" {
		contextPrefix = "history"
	}
	out := make([]models.DailySignal, 0, len(series))
	var all []Warning
	for idx, signal := range series {
		clean, warnings := s.Signal(signal, fmt.Sprintf("%s[%d]", contextPrefix, idx))
		out = append(out, clean)
		all = append(all, warnings...)
	}
	return out, all
}

func (s *Sanitizer) minuteField(input *float64, contextLabel, field string, warnings *[]Warning) *float64 {
	if input == nil {
		return nil
	}

	raw := *input
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return nil
	}

	value := raw
	conversion := ""
	if value > minutesPerDay {
		switch {
		case value > 100000:
			value /= 60000
			conversion = "milliseconds to minutes"
		case value > minutesPerDay*3:
			value /= 60
			conversion = "seconds to minutes"
		}
	}

	if conversion != "" {
		s.logger.Warn("oversized minute value converted",
			zap.String("context", contextLabel),
			zap.String("field", field),
			zap.Float64("raw", raw),
			zap.String("conversion", conversion))
		*warnings = append(*warnings, Warning{
			Context: contextLabel, Field: field, Raw: raw,
			Severity: SeverityConverted, Detail: "converted from " + conversion,
		})
	}

	if value < 0 || value > minutesPerDay {
		s.logger.Error("minute value out of range, clamped",
			zap.String("context", contextLabel),
			zap.String("field", field),
			zap.Float64("raw", raw))
		*warnings = append(*warnings, Warning{
			Context: contextLabel, Field: field, Raw: raw,
			Severity: SeverityClamped, Detail: fmt.Sprintf("clamped to 0-%d", minutesPerDay),
		})
		value = clamp(value, 0, minutesPerDay)
	}

	value = math.Round(value*100) / 100
	return &value
}

func (s *Sanitizer) timestampList(input []int, contextLabel, field string, warnings *[]Warning) []int {
	if input == nil {
		return nil
	}

	out := make([]int, 0, len(input))
	for _, minute := range input {
		if minute < 0 || minute > minutesPerDay {
			s.logger.Error("event time out of range, clamped",
				zap.String("context", contextLabel),
				zap.String("field", field),
				zap.Int("raw", minute))
			*warnings = append(*warnings, Warning{
				Context: contextLabel, Field: field, Raw: float64(minute),
				Severity: SeverityClamped, Detail: fmt.Sprintf("clamped to 0-%d", minutesPerDay),
			})
			minute = int(clamp(float64(minute), 0, minutesPerDay))
		}
		out = append(out, minute)
	}
	sort.Ints(out)
	return out
}

func (s *Sanitizer) activityIndex(input *float64, contextLabel string, warnings *[]Warning) *float64 {
	if input == nil {
		return nil
	}

	raw := *input
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return nil
	}

	if raw < 0 || raw > 2 {
		s.logger.Error("activity index out of range, clamped",
			zap.String("context", contextLabel),
			zap.Float64("raw", raw))
		*warnings = append(*warnings, Warning{
			Context: contextLabel, Field: "activity_index", Raw: raw,
			Severity: SeverityClamped, Detail: "clamped to 0-2",
		})
	}
	value := math.Round(clamp(raw, 0, 2)*100) / 100
	return &value
}

func clamp(value, min, max float64) float64 {
	return math.Max(min, math.Min(max, value))
}
