package models

// Settings is the farm-level configuration consumed by the engines. It is
// passed explicitly into every computation; nothing reads it from ambient
// state. Nil pointer fields mean "not configured" and engines fall back to
// their own defaults.
type Settings struct {
	FeedCostPerKg       float64  `json:"feed_cost_per_kg"`
	MilkPricePerLiter   *float64 `json:"milk_price_per_liter,omitempty"`
	KgPerTroughMinute   *float64 `json:"kg_per_trough_minute,omitempty"`
	KgPerMealOffset     *float64 `json:"kg_per_meal_offset,omitempty"`
	AvailableFeedKg     *float64 `json:"available_feed_kg_current,omitempty"`
	DailyFeedBudgetCap  *float64 `json:"daily_feed_budget_cap,omitempty"`
	DefaultFeedIntakeMode FeedIntakeMode `json:"default_feed_intake_mode,omitempty"`

	VetVisitCostEstimate    *float64 `json:"vet_visit_cost_estimate,omitempty"`
	MilkLossCostPerDayDairy *float64 `json:"milk_loss_cost_per_day_estimate_dairy,omitempty"`
	MilkLossCostPerDayBeef  *float64 `json:"milk_loss_cost_per_day_estimate_beef,omitempty"`
	DaysOfImpactIfEscalates *float64 `json:"days_of_impact_if_escalates,omitempty"`

	MilkingFrequency    string            `json:"milking_frequency,omitempty"`
	MilkingScheduleMode string            `json:"milking_schedule_mode,omitempty"`
	MilkingOverrides    map[string]string `json:"milking_overrides,omitempty"`
	MorningWindowStart  string            `json:"morning_window_start,omitempty"`
	MorningWindowEnd    string            `json:"morning_window_end,omitempty"`
	MiddayWindowStart   string            `json:"midday_window_start,omitempty"`
	MiddayWindowEnd     string            `json:"midday_window_end,omitempty"`
	EveningWindowStart  string            `json:"evening_window_start,omitempty"`
	EveningWindowEnd    string            `json:"evening_window_end,omitempty"`

	HoofTrimIntervalWeeks  *int `json:"hoof_trim_interval_weeks,omitempty"`
	WaterCleanIntervalDays *int `json:"water_clean_interval_days,omitempty"`

	Timezone                    string   `json:"timezone,omitempty"`
	DemoMode                    bool     `json:"demo_mode,omitempty"`
	DemoSalePlanningWhitelist   []string `json:"demo_sale_planning_whitelist,omitempty"`
	BaselineRecalibrationActive bool     `json:"baseline_recalibration_active,omitempty"`
}
