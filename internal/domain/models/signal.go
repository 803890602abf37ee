package models

import "time"

// DailySignal is one behavioral sensor snapshot for one animal on one day.
// Nullable metrics are pointers: a nil value means the sensor produced no
// reading, which is not an error and simply degrades scoring confidence.
type DailySignal struct {
	Tag             string     `bson:"tag" json:"tag"`
	Date            time.Time  `bson:"date" json:"date"`
	TroughMinutes   *float64   `bson:"trough_minutes,omitempty" json:"trough_minutes,omitempty"`
	MealsCount      *float64   `bson:"meals_count,omitempty" json:"meals_count,omitempty"`
	AvgMealMinutes  *float64   `bson:"avg_meal_minutes,omitempty" json:"avg_meal_minutes,omitempty"`
	ActivityIndex   *float64   `bson:"activity_index,omitempty" json:"activity_index,omitempty"`
	LyingMinutes    *float64   `bson:"lying_minutes,omitempty" json:"lying_minutes,omitempty"`
	AloneMinutes    *float64   `bson:"alone_minutes,omitempty" json:"alone_minutes,omitempty"`
	WaterVisits     *float64   `bson:"water_visits,omitempty" json:"water_visits,omitempty"`
	TempC           *float64   `bson:"temp_c,omitempty" json:"temp_c,omitempty"`
	HumidityPct     *float64   `bson:"humidity_pct,omitempty" json:"humidity_pct,omitempty"`
	MilkLiters      *float64   `bson:"milk_liters,omitempty" json:"milk_liters,omitempty"`
	FeedIntakeEstKg *float64   `bson:"feed_intake_est_kg,omitempty" json:"feed_intake_est_kg,omitempty"`
	MealTimestamps  []int      `bson:"meal_timestamps,omitempty" json:"meal_timestamps,omitempty"`
	WaterTimestamps []int      `bson:"water_timestamps,omitempty" json:"water_timestamps,omitempty"`
}

// Baseline is the rolling mean of each DailySignal metric over a trailing
// window. A metric with no samples stays nil rather than zero.
type Baseline struct {
	Tag             string   `bson:"tag" json:"tag"`
	WindowDays      int      `bson:"window_days" json:"window_days"`
	SampleCount     int      `bson:"sample_count" json:"sample_count"`
	TroughMinutes   *float64 `bson:"trough_minutes,omitempty" json:"trough_minutes,omitempty"`
	MealsCount      *float64 `bson:"meals_count,omitempty" json:"meals_count,omitempty"`
	AvgMealMinutes  *float64 `bson:"avg_meal_minutes,omitempty" json:"avg_meal_minutes,omitempty"`
	ActivityIndex   *float64 `bson:"activity_index,omitempty" json:"activity_index,omitempty"`
	LyingMinutes    *float64 `bson:"lying_minutes,omitempty" json:"lying_minutes,omitempty"`
	AloneMinutes    *float64 `bson:"alone_minutes,omitempty" json:"alone_minutes,omitempty"`
	WaterVisits     *float64 `bson:"water_visits,omitempty" json:"water_visits,omitempty"`
	TempC           *float64 `bson:"temp_c,omitempty" json:"temp_c,omitempty"`
	HumidityPct     *float64 `bson:"humidity_pct,omitempty" json:"humidity_pct,omitempty"`
	MilkLiters      *float64 `bson:"milk_liters,omitempty" json:"milk_liters,omitempty"`
	FeedIntakeEstKg *float64 `bson:"feed_intake_est_kg,omitempty" json:"feed_intake_est_kg,omitempty"`
}

// Float returns a pointer to v. Convenience for building signals in callers
// and tests.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
