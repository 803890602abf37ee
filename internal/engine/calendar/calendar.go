// Package calendar implements date arithmetic, recurring-template projection
// and occurrence state transitions for the task scheduler. Every function is
// a pure computation over its inputs: callers own the occurrence set and
// persist whatever is returned.
package calendar

import (
	"fmt"
	"sort"
	"time"

	"github.com/mamadbah2/herdsense/pkg/seed"

	"github.com/mamadbah2/herdsense/internal/domain/models"
)

// projectionGuard bounds the projection walk per template. A horizon that
// would need more steps is treated as a miscalculation and cut off rather
// than looped forever.
const projectionGuard = 400

const dateLayout = "2006-01-02"

// Today returns the current calendar date at day granularity in the given
// timezone, falling back to the local clock when the zone cannot be
// resolved.
func Today(timezone string) time.Time {
	now := time.Now()
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err == nil {
			now = now.In(loc)
		}
	}
	return DateOnly(now)
}

// DateOnly truncates a time to its calendar date. All occurrence dates are
// compared at this granularity.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a date-only value as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return DateOnly(t).Format(dateLayout)
}

// DaysBetween returns the whole-day offset from one date to another.
func DaysBetween(from, to time.Time) int {
	return int(DateOnly(to).Sub(DateOnly(from)).Hours() / 24)
}

// AddInterval advances a date by one recurrence step. Days and weeks add
// calendar days; months add calendar months and clamp the day-of-month to
// the target month's last valid day (31st rolling over to the 30th/28th).
func AddInterval(date time.Time, rule models.RecurrenceRule) time.Time {
	d := DateOnly(date)
	every := rule.Every
	if every < 1 {
		every = 1
	}

	switch rule.Unit {
	case models.UnitWeeks:
		return d.AddDate(0, 0, every*7)
	case models.UnitMonths:
		day := d.Day()
		firstOfTarget := time.Date(d.Year(), d.Month()+time.Month(every), 1, 0, 0, 0, 0, time.UTC)
		lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
		if day > lastDay {
			day = lastDay
		}
		return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, 0, 0, 0, 0, time.UTC)
	default:
		return d.AddDate(0, 0, every)
	}
}

func occurrenceKey(templateID string, due time.Time) string {
	if templateID == "" {
		templateID = "custom"
	}
	return templateID + "|" + FormatDate(due)
}

// NewFromTemplate materializes a pending occurrence for a template on the
// given due date.
func NewFromTemplate(template models.TaskTemplate, dueDate, createdAt time.Time) models.TaskOccurrence {
	due := DateOnly(dueDate)
	id := fmt.Sprintf("occ-%s-%s-%d", template.ID, FormatDate(due), seed.Hash(template.ID+"-"+FormatDate(due)))
	return models.TaskOccurrence{
		ID:         id,
		TemplateID: template.ID,
		Title:      template.Title,
		Category:   template.Category,
		DueDate:    due,
		DueTime:    template.DefaultTime,
		AssignedTo: template.AssignedTo,
		Status:     models.StatusPending,
		Recurrence: cloneRule(template.Recurrence),
		Source:     "template",
		CreatedAt:  createdAt,
		Notes:      template.Notes,
	}
}

// NewAdHoc materializes a pending one-off occurrence not derived from any
// template. It may still carry a recurrence rule, in which case completion
// regenerates the next instance.
func NewAdHoc(title, category string, dueDate time.Time, dueTime, assignedTo, notes string, rule *models.RecurrenceRule, createdAt time.Time) models.TaskOccurrence {
	due := DateOnly(dueDate)
	id := fmt.Sprintf("occ-custom-%d", seed.Hash(title+"-"+FormatDate(due)+"-"+createdAt.UTC().Format(time.RFC3339Nano)))
	if category == "" {
		category = "custom"
	}
	return models.TaskOccurrence{
		ID:         id,
		Title:      title,
		Category:   category,
		DueDate:    due,
		DueTime:    dueTime,
		AssignedTo: assignedTo,
		Status:     models.StatusPending,
		Recurrence: cloneRule(rule),
		Source:     "custom",
		CreatedAt:  createdAt,
		Notes:      notes,
	}
}

// ProjectOccurrences walks each recurring template forward from its start
// date in rule-sized steps and returns the occurrences that do not yet
// exist within the horizon. Folding the output back into the existing set
// and calling again never creates duplicates, so projection is safe to run
// on every settings change.
func ProjectOccurrences(templates []models.TaskTemplate, existing []models.TaskOccurrence, horizonDays int, fromDate time.Time) []models.TaskOccurrence {
	from := DateOnly(fromDate)
	horizonEnd := from.AddDate(0, 0, horizonDays)

	seen := make(map[string]struct{}, len(existing))
	for _, occ := range existing {
		seen[occurrenceKey(occ.TemplateID, occ.DueDate)] = struct{}{}
	}

	var generated []models.TaskOccurrence
	for _, template := range templates {
		if template.Recurrence == nil {
			continue
		}

		cursor := DateOnly(template.StartDate)
		if template.StartDate.IsZero() {
			cursor = from
		}

		for guard := 0; guard < projectionGuard; guard++ {
			if cursor.After(horizonEnd) {
				break
			}
			if !cursor.Before(from) {
				key := occurrenceKey(template.ID, cursor)
				if _, ok := seen[key]; !ok {
					generated = append(generated, NewFromTemplate(template, cursor, fromDate))
					seen[key] = struct{}{}
				}
			}
			cursor = AddInterval(cursor, *template.Recurrence)
		}
	}

	return generated
}

// MarkDone transitions a pending occurrence to done, appends a completion
// record, and, when the occurrence carries a recurrence rule, generates
// exactly one next pending occurrence unless that (template, date) pair
// already exists. The next due date is anchored on the completion date or
// the original due date per the occurrence's anchor flag. Calling MarkDone
// on an occurrence that is no longer pending is a no-op.
func MarkDone(occurrences []models.TaskOccurrence, history []models.CompletionRecord, occurrenceID string, completedAt time.Time) ([]models.TaskOccurrence, []models.CompletionRecord) {
	seen := make(map[string]struct{}, len(occurrences))
	for _, occ := range occurrences {
		seen[occurrenceKey(occ.TemplateID, occ.DueDate)] = struct{}{}
	}

	updated := make([]models.TaskOccurrence, 0, len(occurrences)+1)
	var spawned []models.TaskOccurrence
	transitioned := false

	for _, occ := range occurrences {
		if occ.ID != occurrenceID || occ.Status != models.StatusPending {
			updated = append(updated, occ)
			continue
		}

		transitioned = true
		done := occ
		done.Status = models.StatusDone
		completed := completedAt
		done.CompletedAt = &completed
		updated = append(updated, done)

		if occ.Recurrence == nil {
			continue
		}

		anchor := DateOnly(completedAt)
		if occ.RecurrenceAnchor == models.AnchorDueDate && !occ.DueDate.IsZero() {
			anchor = DateOnly(occ.DueDate)
		}
		nextDue := AddInterval(anchor, *occ.Recurrence)
		key := occurrenceKey(occ.TemplateID, nextDue)
		if _, exists := seen[key]; exists {
			continue
		}

		next := occ
		next.ID = fmt.Sprintf("occ-%s-%s-%d", keyOrCustom(occ.TemplateID), FormatDate(nextDue), seed.Hash(occ.ID+"-"+FormatDate(nextDue)))
		next.DueDate = nextDue
		next.Status = models.StatusPending
		next.CompletedAt = nil
		next.CreatedAt = completedAt
		spawned = append(spawned, next)
		seen[key] = struct{}{}
	}

	if !transitioned {
		return occurrences, history
	}

	updated = append(updated, spawned...)
	record := models.CompletionRecord{
		ID:           fmt.Sprintf("hist-%s-%d", occurrenceID, completedAt.UnixMilli()),
		OccurrenceID: occurrenceID,
		Action:       models.StatusDone,
		Timestamp:    completedAt,
	}
	return updated, append(append([]models.CompletionRecord{}, history...), record)
}

// MarkSkipped transitions a pending occurrence to skipped. No regeneration
// happens; future instances arrive through normal projection.
func MarkSkipped(occurrences []models.TaskOccurrence, history []models.CompletionRecord, occurrenceID string, skippedAt time.Time) ([]models.TaskOccurrence, []models.CompletionRecord) {
	updated := make([]models.TaskOccurrence, 0, len(occurrences))
	transitioned := false

	for _, occ := range occurrences {
		if occ.ID == occurrenceID && occ.Status == models.StatusPending {
			transitioned = true
			skipped := occ
			skipped.Status = models.StatusSkipped
			at := skippedAt
			skipped.CompletedAt = &at
			updated = append(updated, skipped)
			continue
		}
		updated = append(updated, occ)
	}

	if !transitioned {
		return occurrences, history
	}

	record := models.CompletionRecord{
		ID:           fmt.Sprintf("hist-skip-%s-%d", occurrenceID, skippedAt.UnixMilli()),
		OccurrenceID: occurrenceID,
		Action:       models.StatusSkipped,
		Timestamp:    skippedAt,
	}
	return updated, append(append([]models.CompletionRecord{}, history...), record)
}

// TasksByDate returns all occurrences due on the given day, sorted by due
// time then title.
func TasksByDate(occurrences []models.TaskOccurrence, date time.Time) []models.TaskOccurrence {
	day := DateOnly(date)
	var out []models.TaskOccurrence
	for _, occ := range occurrences {
		if DateOnly(occ.DueDate).Equal(day) {
			out = append(out, occ)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DueTime != out[j].DueTime {
			return out[i].DueTime < out[j].DueTime
		}
		return out[i].Title < out[j].Title
	})
	return out
}

// TasksInWindow returns pending occurrences due within [fromDate,
// fromDate+days-1], sorted by due date.
func TasksInWindow(occurrences []models.TaskOccurrence, fromDate time.Time, days int) []models.TaskOccurrence {
	start := DateOnly(fromDate)
	span := days - 1
	if span < 0 {
		span = 0
	}
	end := start.AddDate(0, 0, span)

	var out []models.TaskOccurrence
	for _, occ := range occurrences {
		if occ.Status != models.StatusPending {
			continue
		}
		due := DateOnly(occ.DueDate)
		if !due.Before(start) && !due.After(end) {
			out = append(out, occ)
		}
	}
	sortByDue(out)
	return out
}

// TasksByOffsetRange returns pending occurrences whose due date falls
// between minOffsetDays and maxOffsetDays (inclusive) from fromDate.
func TasksByOffsetRange(occurrences []models.TaskOccurrence, fromDate time.Time, minOffsetDays, maxOffsetDays int) []models.TaskOccurrence {
	origin := DateOnly(fromDate)

	var out []models.TaskOccurrence
	for _, occ := range occurrences {
		if occ.Status != models.StatusPending {
			continue
		}
		offset := DaysBetween(origin, occ.DueDate)
		if offset >= minOffsetDays && offset <= maxOffsetDays {
			out = append(out, occ)
		}
	}
	sortByDue(out)
	return out
}

func sortByDue(occurrences []models.TaskOccurrence) {
	sort.SliceStable(occurrences, func(i, j int) bool {
		if !occurrences[i].DueDate.Equal(occurrences[j].DueDate) {
			return occurrences[i].DueDate.Before(occurrences[j].DueDate)
		}
		if occurrences[i].DueTime != occurrences[j].DueTime {
			return occurrences[i].DueTime < occurrences[j].DueTime
		}
		return occurrences[i].Title < occurrences[j].Title
	})
}

func keyOrCustom(templateID string) string {
	if templateID == "" {
		return "custom"
	}
	return templateID
}

func cloneRule(rule *models.RecurrenceRule) *models.RecurrenceRule {
	if rule == nil {
		return nil
	}
	copied := *rule
	return &copied
}
