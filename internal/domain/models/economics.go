package models

import "time"

// StrategyMode tags the branch the sale/cull feeding decision table chose,
// so each branch stays independently testable.
type StrategyMode string

const (
	StrategyMaintain           StrategyMode = "maintain"
	StrategyMaintainHealth     StrategyMode = "maintain_health"
	StrategyMaintainCheck      StrategyMode = "maintain_check"
	StrategyMaintainGuardrail  StrategyMode = "maintain_after_guardrail"
	StrategyIncreaseFinish     StrategyMode = "increase_finish"
	StrategyIncreaseStabilize  StrategyMode = "increase_stabilize"
	StrategyReduceInventory    StrategyMode = "reduce_inventory"
	StrategyReduceEfficiency   StrategyMode = "reduce_efficiency"
	StrategyReduceLongHorizon  StrategyMode = "reduce_long_horizon"
	StrategyReduceMidHorizon   StrategyMode = "reduce_mid_horizon"
)

// Plan labels shown to the operator.
const (
	PlanIncrease = "Increase"
	PlanReduce   = "Reduce"
	PlanMaintain = "Maintain"
)

// FeedResolution is the resolved daily feed intake for one animal, with the
// mode and source that produced it.
type FeedResolution struct {
	Kg          float64 `json:"kg"`
	Source      string  `json:"source"`
	Method      string  `json:"method,omitempty"`
	ModeApplied string  `json:"mode_applied"`
}

// FeedRow is today's feed economics for one animal.
type FeedRow struct {
	AnimalID       string         `json:"animal_id"`
	Tag            string         `json:"tag"`
	Name           string         `json:"name"`
	ProductionType ProductionType `json:"production_type"`
	FeedKgDay      float64        `json:"estimated_feed_kg_day"`
	FeedSource     string         `json:"feed_source"`
	CostDay        float64        `json:"estimated_cost_day"`
	OutputLiters   *float64       `json:"output_day_liters,omitempty"`
	Efficiency     *float64       `json:"efficiency,omitempty"`
	BaselineFeedKg float64        `json:"baseline_feed_kg"`
	PlannedSaleDate *time.Time    `json:"planned_sale_or_cull_date,omitempty"`
}

// WeeklyRollup holds last-7/prior-7 day aggregates for one animal.
type WeeklyRollup struct {
	AnimalID        string         `json:"animal_id"`
	Tag             string         `json:"tag"`
	Name            string         `json:"name"`
	ProductionType  ProductionType `json:"production_type"`
	LastFeedKg      float64        `json:"last_feed_kg"`
	PrevFeedKg      float64        `json:"prev_feed_kg"`
	LastFeedAvgKg   *float64       `json:"last_feed_avg_kg,omitempty"`
	PrevFeedAvgKg   *float64       `json:"prev_feed_avg_kg,omitempty"`
	LastMilkLiters  float64        `json:"last_milk_liters"`
	PrevMilkLiters  float64        `json:"prev_milk_liters"`
	LastMilkAvg     *float64       `json:"last_milk_avg_liters,omitempty"`
	PrevMilkAvg     *float64       `json:"prev_milk_avg_liters,omitempty"`
	Efficiency7     *float64       `json:"efficiency_7,omitempty"`
	EfficiencyPrev7 *float64       `json:"efficiency_prev_7,omitempty"`
	FeedSourceLabel string         `json:"feed_source_label"`
	DaysToSale      *int           `json:"days_to_sale,omitempty"`
	PlannedSaleDate *time.Time     `json:"planned_sale_or_cull_date,omitempty"`
	ExpectedSaleValue *float64     `json:"expected_sale_value,omitempty"`
	ResolvedFeedMode FeedIntakeMode `json:"resolved_feed_mode"`
}

// ProfitCard is the weekly per-animal economics summary with a coarse
// status and recommendation.
type ProfitCard struct {
	AnimalID        string   `json:"animal_id"`
	Tag             string   `json:"tag"`
	Name            string   `json:"name"`
	CostDay         float64  `json:"estimated_cost_day"`
	OutputDay       *float64 `json:"estimated_output_day,omitempty"`
	Efficiency7     *float64 `json:"efficiency_7,omitempty"`
	EfficiencyPrev7 *float64 `json:"efficiency_prev_7,omitempty"`
	Status          string   `json:"status"`
	Recommendation  string   `json:"recommendation"`
	Note            string   `json:"note"`
	TrendDeltaPct   *float64 `json:"trend_delta_pct,omitempty"`
	DaysToSale      *int     `json:"days_to_sale,omitempty"`
	FeedSourceLabel string   `json:"feed_source_label"`
}

// MoneyLeakCard is one triggered money-leak rule with its evidence and
// estimated weekly impact range.
type MoneyLeakCard struct {
	ID          string   `json:"id"`
	TemplateID  string   `json:"template_id"`
	Category    string   `json:"category"`
	Title       string   `json:"title"`
	Why         string   `json:"why"`
	Action      string   `json:"action"`
	DoNext      []string `json:"do_next"`
	Evidence    string   `json:"evidence"`
	Severity    float64  `json:"severity"`
	ImpactLow   float64  `json:"impact_low"`
	ImpactHigh  float64  `json:"impact_high"`
	ImpactRange string   `json:"impact_range,omitempty"`
}

// MoneyReport is the weekly farm-level money summary plus triggered leaks.
type MoneyReport struct {
	FeedSpendWeek        float64         `json:"feed_spend_week"`
	FeedSpendPrevWeek    float64         `json:"feed_spend_prev_week"`
	FeedSpendChangePct   *float64        `json:"feed_spend_change_pct,omitempty"`
	FeedSpendEstimated   bool            `json:"feed_spend_estimated"`
	MilkRevenueWeek      *float64        `json:"milk_revenue_week,omitempty"`
	MilkRevenueChangePct *float64        `json:"milk_revenue_change_pct,omitempty"`
	WeeklyProfit         *float64        `json:"weekly_profit,omitempty"`
	WeeklyProfitChangePct *float64       `json:"weekly_profit_change_pct,omitempty"`
	ChangeVsLastWeekPct  *float64        `json:"change_vs_last_week_pct,omitempty"`
	ChangeBasis          string          `json:"change_basis"`
	FeedKgWeek           float64         `json:"feed_kg_week"`
	MilkLitersWeek       float64         `json:"milk_liters_week"`
	MilkTrendPct         *float64        `json:"milk_trend_pct,omitempty"`
	Leaks                []MoneyLeakCard `json:"money_leaks"`
}

// SaleForecast is the feeding plan suggestion for one animal with a planned
// sale or cull date.
type SaleForecast struct {
	AnimalID            string       `json:"animal_id"`
	Tag                 string       `json:"tag"`
	Name                string       `json:"name"`
	PlannedSaleDate     *time.Time   `json:"planned_sale_or_cull_date,omitempty"`
	DaysToSale          int          `json:"days_to_sale"`
	CurrentFeedKgDay    float64      `json:"current_estimated_feed_kg_day"`
	CurrentFeedSource   string       `json:"current_feed_source"`
	SuggestedFeedKgDay  float64      `json:"suggested_feed_kg_day"`
	SuggestedChangePct  float64      `json:"suggested_change_pct"`
	PlanLabel           string       `json:"plan_label"`
	StrategyMode        StrategyMode `json:"strategy_mode"`
	ProjectedCostSuggested float64   `json:"projected_feed_cost_until_sale"`
	ProjectedCostCurrent   float64   `json:"projected_feed_cost_current_plan"`
	ProjectedRevenue    *float64     `json:"projected_revenue_until_sale,omitempty"`
	MonthlyImpactRange  string       `json:"monthly_money_saved_range"`
	MonthlyImpactLabel  string       `json:"monthly_impact_label"`
	MonthlyImpactLow    float64      `json:"monthly_money_saved_low"`
	MonthlyImpactHigh   float64      `json:"monthly_money_saved_high"`
	Note                string       `json:"note"`
	ImpactNote          string       `json:"impact_note"`
	Suggestion          string       `json:"suggestion"`
	RiskBand            string       `json:"risk_band"`
}

// InventoryPlan is the farm-level feed inventory outlook plus per-animal
// sale forecasts.
type InventoryPlan struct {
	BurnRateKgDay            float64        `json:"burn_rate_kg_day"`
	DaysOfFeedRemaining      *float64       `json:"days_of_feed_remaining,omitempty"`
	ProjectedMonthlyFeedCost float64        `json:"projected_monthly_feed_cost"`
	DailyFeedBudgetCap       *float64       `json:"daily_feed_budget_cap,omitempty"`
	Forecasts                []SaleForecast `json:"forecasts"`
	Assumptions              []string       `json:"assumptions"`
}

// CongestionReport describes shared feeder/water crowding over 48 half-hour
// bins of the day.
type CongestionReport struct {
	HasFeedingData        bool     `json:"has_feeding_data"`
	CongestionScore       *float64 `json:"congestion_score,omitempty"`
	Level                 string   `json:"level"`
	PeakWindows           []string `json:"peak_windows"`
	Interpretation        string   `json:"interpretation"`
	Actions               []string `json:"actions"`
	Explanation           string   `json:"explanation"`
	Timezone              string   `json:"timezone"`
	WaterCongestionScore  *float64 `json:"water_congestion_score,omitempty"`
	WaterLevel            string   `json:"water_level"`
	WaterInterpretation   string   `json:"water_interpretation"`
	HowCalculated         []string `json:"how_calculated"`
	AvgAnimalsSimultaneous *float64 `json:"avg_animals_simultaneous,omitempty"`
}

// MilkingEvent is one suggested milking session time.
type MilkingEvent struct {
	Label string `json:"label"`
	Time  string `json:"time"`
}

// MilkingDay groups one calendar day's milking events.
type MilkingDay struct {
	Date   time.Time      `json:"date"`
	Events []MilkingEvent `json:"events"`
}

// MilkingSchedule is the derived milking plan plus a 7-day reminder window
// whose reminders share the TaskOccurrence shape.
type MilkingSchedule struct {
	Mode      string           `json:"mode"`
	Frequency string           `json:"frequency"`
	Times     []string         `json:"times"`
	Notes     []string         `json:"notes"`
	Prompts   []string         `json:"prompts"`
	Reminders []TaskOccurrence `json:"reminders"`
	Today     []MilkingEvent   `json:"today"`
	Next7Days []MilkingDay     `json:"next_7_days"`
}

// HerdSeries is the trailing 7-day herd-level feed/output series.
type HerdSeries struct {
	Dates      []string  `json:"dates"`
	Feed       []float64 `json:"feed"`
	Milk       []float64 `json:"milk"`
	Efficiency []float64 `json:"efficiency"`
}
