package models

import (
	"strings"
	"time"
)

// ProductionType classifies what an animal is raised for.
type ProductionType string

const (
	ProductionDairy ProductionType = "dairy"
	ProductionBeef  ProductionType = "beef"
)

// FeedIntakeMode selects how daily feed intake is resolved for an animal.
type FeedIntakeMode string

const (
	FeedModeManual    FeedIntakeMode = "manual"
	FeedModeEstimated FeedIntakeMode = "estimated"
	FeedModeHybrid    FeedIntakeMode = "hybrid"
	FeedModeInherit   FeedIntakeMode = "inherit"
)

// Animal is one tracked herd member. Tag is the unique join key to all
// signal data; no two animals, active or archived, may share a normalized tag.
type Animal struct {
	ID               string         `bson:"_id" json:"id"`
	Tag              string         `bson:"tag" json:"tag"`
	Name             string         `bson:"name" json:"name"`
	ProductionType   ProductionType `bson:"production_type" json:"production_type"`
	Sex              string         `bson:"sex" json:"sex"`
	BirthDate        *time.Time     `bson:"birth_date,omitempty" json:"birth_date,omitempty"`
	AgeYears         *float64       `bson:"age_years,omitempty" json:"age_years,omitempty"`
	LactationStage   string         `bson:"lactation_stage,omitempty" json:"lactation_stage,omitempty"`
	PregnancyDueDays *int           `bson:"pregnancy_due_days,omitempty" json:"pregnancy_due_days,omitempty"`
	FeedIntakeMode   FeedIntakeMode `bson:"feed_intake_mode" json:"feed_intake_mode"`
	ManualFeedKgDay  *float64       `bson:"manual_feed_kg_per_day,omitempty" json:"manual_feed_kg_per_day,omitempty"`
	ExpectedSaleValue *float64      `bson:"expected_sale_value,omitempty" json:"expected_sale_value,omitempty"`
	PlannedSaleDate  *time.Time     `bson:"planned_sale_or_cull_date,omitempty" json:"planned_sale_or_cull_date,omitempty"`
	TargetMilkingFrequency string   `bson:"target_milking_frequency,omitempty" json:"target_milking_frequency,omitempty"`
	Active           bool           `bson:"active" json:"active"`
}

// NormalizeTag canonicalizes an ear tag for uniqueness checks and map keys.
func NormalizeTag(tag string) string {
	return strings.ToUpper(strings.TrimSpace(tag))
}

// DisplayName falls back to the tag when no name is recorded.
func (a Animal) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	return a.Tag
}
