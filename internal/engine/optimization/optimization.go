package optimization

import (
	"sort"
	"time"

	"github.com/mamadbah2/herdsense/internal/domain/models"
	"github.com/mamadbah2/herdsense/internal/engine/calendar"
)

// Input bundles everything one optimization pass reads. History series are
// ordered oldest first; maps are keyed by normalized tag.
type Input struct {
	Animals        []models.Animal
	SignalsByTag   map[string]models.DailySignal
	HistoryByTag   map[string][]models.DailySignal
	BaselinesByTag map[string]models.Baseline
	Settings       models.Settings
	Insights       []models.Insight
	Occurrences    []models.TaskOccurrence
	Reference      time.Time
}

// Result is the full optimization snapshot for one day.
type Result struct {
	FeedRows     []models.FeedRow        `json:"feed_rows"`
	MoneyReport  models.MoneyReport      `json:"weekly_money_report"`
	ProfitCards  []models.ProfitCard     `json:"profit_cards"`
	Milking      models.MilkingSchedule  `json:"milking"`
	Inventory    models.InventoryPlan    `json:"inventory_planning"`
	Congestion   models.CongestionReport `json:"resource_planning"`
	Series       models.HerdSeries       `json:"herd_series"`
	TasksDueSoon []models.TaskOccurrence `json:"tasks_due_soon"`
}

// Compute runs the whole optimization pipeline for one reference day.
func Compute(in Input) Result {
	reference := in.Reference
	if reference.IsZero() {
		reference = calendar.Today(in.Settings.Timezone)
	}

	congestion := AnalyzeCongestion(in.Animals, in.SignalsByTag, in.Settings)

	return Result{
		FeedRows:     FeedRows(in.Animals, in.SignalsByTag, in.BaselinesByTag, in.Settings),
		MoneyReport:  WeeklyMoneyReport(in.Animals, in.HistoryByTag, in.Settings, in.Insights, congestion, reference, in.Occurrences),
		ProfitCards:  ProfitCards(in.Animals, in.HistoryByTag, in.SignalsByTag, in.Settings, in.Insights, reference),
		Milking:      MilkingSchedule(in.Animals, in.Settings, in.Insights, reference),
		Inventory:    InventoryPlanning(in.Animals, in.HistoryByTag, in.Settings, reference, in.Insights),
		Congestion:   congestion,
		Series:       HerdSeries(in.Animals, in.HistoryByTag, in.Settings),
		TasksDueSoon: tasksDueSoon(in.Occurrences, reference),
	}
}

// tasksDueSoon returns pending tasks due within the next 14 days.
func tasksDueSoon(occurrences []models.TaskOccurrence, reference time.Time) []models.TaskOccurrence {
	var out []models.TaskOccurrence
	for _, task := range occurrences {
		if task.Status != models.StatusPending {
			continue
		}
		offset := calendar.DaysBetween(reference, task.DueDate)
		if offset >= 0 && offset <= 14 {
			out = append(out, task)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DueDate.Before(out[j].DueDate)
	})
	return out
}
