package models

import "time"

// Factor keys for contributing risk factors.
const (
	FactorHeat    = "heat"
	FactorIllness = "illness"
	FactorSocial  = "social"
	FactorWater   = "water"
)

// Risk band keys surfaced to the operator.
const (
	BandLow      = "low"
	BandModerate = "moderate"
	BandHigh     = "high"
)

// FactorContribution is one scored risk factor for an animal.
type FactorContribution struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Score float64 `json:"score"`
	Level string  `json:"level"`
}

// MetricDelta is the percentage deviation of one metric against baseline,
// kept on the insight so the operator can see why a score moved.
type MetricDelta struct {
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	Current  *float64 `json:"current"`
	Baseline *float64 `json:"baseline"`
	Change   float64  `json:"change"`
}

// Insight is the derived per-animal health assessment for one evaluation.
// It is ephemeral: recomputed fresh each cycle, never authoritative state.
type Insight struct {
	AnimalID           string               `json:"animal_id"`
	Tag                string               `json:"tag"`
	Confidence         float64              `json:"confidence"`
	OverallRiskPct     float64              `json:"overall_risk_pct"`
	OverallRiskLevel   string               `json:"overall_risk_level"`
	UrgencyScore       float64              `json:"urgency_score"`
	TopFactorKey       string               `json:"top_factor_key"`
	TopFactorLabel     string               `json:"top_factor_label"`
	TopFactorLevel     string               `json:"top_factor_level"`
	TopRiskLabel       string               `json:"top_risk_label"`
	Contributions      []FactorContribution `json:"contributing_factors"`
	ContributingScores map[string]float64   `json:"contributing_scores"`
	WhyBullets         []string             `json:"why_bullets"`
	PossibleReasons    string               `json:"possible_reasons,omitempty"`
	Actions            []string             `json:"action_checklist"`
	Deltas             []MetricDelta        `json:"deltas"`
	StrongSignalCount  int                  `json:"strong_signal_count"`
	PreCalvingActive   bool                 `json:"pre_calving_active"`
	DueDays            *int                 `json:"due_days,omitempty"`

	// Display band fields are filled in by the risk-band persistence step,
	// which needs yesterday's streak state in addition to today's score.
	DisplayRiskBandKey string `json:"display_risk_band_key,omitempty"`
	DisplayRiskBand    string `json:"display_risk_band,omitempty"`
	BandNote           string `json:"band_note,omitempty"`
}

// RiskStreakState tracks, per animal, how many consecutive days the risk
// score has stayed at or above the moderate threshold. It is caller-held
// state: the insight engine reads it and returns the next value, it never
// mutates it in place.
type RiskStreakState struct {
	Tag           string    `bson:"tag" json:"tag"`
	StreakDays    int       `bson:"streak_days" json:"streak_days"`
	LastScore     float64   `bson:"last_score" json:"last_score"`
	LastBandKey   string    `bson:"last_band_key" json:"last_band_key"`
	LastEvaluated time.Time `bson:"last_evaluated" json:"last_evaluated"`
}
