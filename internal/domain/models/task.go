package models

import "time"

// Recurrence units.
const (
	UnitDays   = "days"
	UnitWeeks  = "weeks"
	UnitMonths = "months"
)

// Occurrence statuses. Pending transitions to done or skipped; both are
// terminal. A done transition on a recurring occurrence may additionally
// spawn one new pending occurrence for the next cycle.
const (
	StatusPending = "pending"
	StatusDone    = "done"
	StatusSkipped = "skipped"
)

// Anchor modes for regenerating the next occurrence when one is marked done.
const (
	AnchorCompletion = "completion"
	AnchorDueDate    = "due_date"
)

// RecurrenceRule describes how often a template repeats.
type RecurrenceRule struct {
	Every int    `bson:"every" json:"every"`
	Unit  string `bson:"unit" json:"unit"`
}

// TaskTemplate is a recurring chore blueprint from which concrete
// occurrences are projected.
type TaskTemplate struct {
	ID          string          `bson:"_id" json:"template_id"`
	Title       string          `bson:"title" json:"title"`
	Category    string          `bson:"category" json:"category"`
	StartDate   time.Time       `bson:"start_date" json:"start_date"`
	Recurrence  *RecurrenceRule `bson:"recurrence,omitempty" json:"recurrence,omitempty"`
	DefaultTime string          `bson:"default_time,omitempty" json:"default_time,omitempty"`
	AssignedTo  string          `bson:"assigned_to,omitempty" json:"assigned_to,omitempty"`
	Notes       string          `bson:"notes,omitempty" json:"notes,omitempty"`
}

// TaskOccurrence is one concrete scheduled task instance. TemplateID is
// empty for ad hoc tasks. For a given template and due date at most one
// occurrence may exist.
type TaskOccurrence struct {
	ID               string          `bson:"_id" json:"occurrence_id"`
	TemplateID       string          `bson:"template_id,omitempty" json:"template_id,omitempty"`
	Title            string          `bson:"title" json:"title"`
	Category         string          `bson:"category" json:"category"`
	DueDate          time.Time       `bson:"due_date" json:"due_date"`
	DueTime          string          `bson:"due_time,omitempty" json:"due_time,omitempty"`
	AssignedTo       string          `bson:"assigned_to,omitempty" json:"assigned_to,omitempty"`
	Status           string          `bson:"status" json:"status"`
	Recurrence       *RecurrenceRule `bson:"recurrence,omitempty" json:"recurrence,omitempty"`
	RecurrenceAnchor string          `bson:"recurrence_anchor,omitempty" json:"recurrence_anchor,omitempty"`
	Source           string          `bson:"source" json:"source"`
	CreatedAt        time.Time       `bson:"created_at" json:"created_at"`
	CompletedAt      *time.Time      `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	Notes            string          `bson:"notes,omitempty" json:"notes,omitempty"`
}

// CompletionRecord is the audit trail entry appended when an occurrence is
// marked done or skipped.
type CompletionRecord struct {
	ID           string    `bson:"_id" json:"history_id"`
	OccurrenceID string    `bson:"occurrence_id" json:"occurrence_id"`
	Action       string    `bson:"action" json:"action"`
	Timestamp    time.Time `bson:"timestamp" json:"timestamp"`
}
