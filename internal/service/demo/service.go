// Package demo seeds a deterministic sample herd with a month of behavioral
// history, so the pipeline can be exercised without live sensor feeds. The
// same seed always yields the same herd.
package demo

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/herdsense/internal/domain/models"
	"github.com/mamadbah2/herdsense/internal/engine/calendar"
	"github.com/mamadbah2/herdsense/internal/repository/mongodb"
	"github.com/mamadbah2/herdsense/internal/sanitize"
	"github.com/mamadbah2/herdsense/pkg/seed"
)

const (
	historyDays = 30
	herdSize    = 10
)

var animalNames = []string{
	"Willow", "Maple", "Clover", "Ivy", "Hazel",
	"Daisy", "Juniper", "Fern", "Luna", "Rosie",
}

// Service seeds demo herd data.
type Service struct {
	store     mongodb.Store
	sanitizer *sanitize.Sanitizer
	logger    *zap.Logger
}

// NewService wires a demo service instance.
func NewService(store mongodb.Store, sanitizer *sanitize.Sanitizer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sanitizer == nil {
		sanitizer = sanitize.New(logger.Named("sanitize"))
	}
	return &Service{store: store, sanitizer: sanitizer, logger: logger}
}

// Seed creates the demo herd and a trailing month of signals. Existing
// animals with the same IDs are replaced, so reseeding is idempotent.
func (s *Service) Seed(ctx context.Context, timezone string) error {
	today := calendar.Today(timezone)

	for index := 0; index < herdSize; index++ {
		animal := buildAnimal(index, today)
		if err := s.store.UpsertAnimal(ctx, animal); err != nil {
			return fmt.Errorf("seed animal %s: %w", animal.Tag, err)
		}

		base := restingProfileFor(animal)
		for offset := -(historyDays - 1); offset <= 0; offset++ {
			day := today.AddDate(0, 0, offset)
			signal := buildSignal(animal, base, day)
			clean, _ := s.sanitizer.Signal(signal, "demo-"+animal.Tag)
			if err := s.store.UpsertDailySignal(ctx, clean); err != nil {
				return fmt.Errorf("seed signal %s %s: %w", animal.Tag, calendar.FormatDate(day), err)
			}
		}
	}

	s.logger.Info("demo herd seeded",
		zap.Int("animals", herdSize),
		zap.Int("history_days", historyDays))
	return nil
}

// buildAnimal derives one deterministic herd member. The first ~62% of the
// herd is dairy, the rest beef; the first two beef animals carry staged
// sale dates so the planning views always have content.
func buildAnimal(index int, today time.Time) models.Animal {
	key := seed.Hash(fmt.Sprintf("cow-%d", index))
	dairyCount := int(math.Ceil(herdSize * 0.62))
	production := models.ProductionDairy
	if index >= dairyCount {
		production = models.ProductionBeef
	}

	sex := "female"
	if index%5 == 4 {
		sex = "male"
	}

	lactation := ""
	if production == models.ProductionDairy && sex == "female" {
		lactation = seed.Choice([]string{"early", "mid", "late", "dry"}, key+8)
	}

	age := round1(seed.Between(key+9, 2.1, 8.7))

	var dueDays *int
	if sex == "female" && seed.Unit(key+12) > 0.35 {
		dueDays = models.Int(int(math.Round(seed.Between(key+13, 8, 240))))
	}

	var plannedSale *time.Time
	if production == models.ProductionBeef {
		switch index - dairyCount {
		case 0:
			plannedSale = datePtr(today.AddDate(0, 0, 22))
		case 1:
			plannedSale = datePtr(today.AddDate(0, 0, 88))
		default:
			if seed.Unit(key+21) > 0.45 {
				plannedSale = datePtr(today.AddDate(0, 0, int(math.Round(seed.Between(key+22, 125, 210)))))
			}
		}
	} else if index == 1 {
		plannedSale = datePtr(today.AddDate(0, 0, 60))
	}

	modeRoll := seed.Unit(key + 70)
	mode := models.FeedModeInherit
	if modeRoll > 0.72 {
		mode = models.FeedModeManual
	} else if modeRoll > 0.44 {
		mode = models.FeedModeHybrid
	}

	var manualFeed *float64
	if mode == models.FeedModeManual || (mode == models.FeedModeHybrid && seed.Unit(key+71) > 0.5) {
		low, high := 10.6, 15.4
		if production == models.ProductionDairy {
			low, high = 17.2, 24.8
		}
		manualFeed = models.Float(round1(seed.Between(key+72, low, high)))
	}

	var saleValue *float64
	if production == models.ProductionBeef && plannedSale != nil {
		saleValue = models.Float(math.Round(seed.Between(key+73, 880, 1460)))
	}

	return models.Animal{
		ID:                fmt.Sprintf("animal-%d", index+1),
		Tag:               fmt.Sprintf("EA-%d", 1001+index),
		Name:              animalNames[index%len(animalNames)],
		ProductionType:    production,
		Sex:               sex,
		AgeYears:          models.Float(age),
		LactationStage:    lactation,
		PregnancyDueDays:  dueDays,
		FeedIntakeMode:    mode,
		ManualFeedKgDay:   manualFeed,
		ExpectedSaleValue: saleValue,
		PlannedSaleDate:   plannedSale,
		Active:            true,
	}
}

// restingProfile is the animal's typical day, from which each generated
// signal varies by a few percent.
type restingProfile struct {
	trough, meals, mealMinutes  float64
	feedKg, activity, alone     float64
	water, lying, temp, humidity float64
	milk                        float64
	hasFeedEst, hasMilk         bool
}

func restingProfileFor(animal models.Animal) restingProfile {
	key := seed.Hash(animal.Tag)
	dairy := animal.ProductionType == models.ProductionDairy

	troughLow, troughHigh := 96.0, 146.0
	mealsLow, mealsHigh := 5.8, 9.1
	feedLow, feedHigh := 10.4, 16.2
	if dairy {
		troughLow, troughHigh = 128, 186
		mealsLow, mealsHigh = 7.1, 11.6
		feedLow, feedHigh = 16.8, 24.4
	}

	profile := restingProfile{
		trough:      seed.Between(key+1, troughLow, troughHigh),
		meals:       seed.Between(key+2, mealsLow, mealsHigh),
		mealMinutes: seed.Between(key+3, 12.1, 20.8),
		feedKg:      seed.Between(key+4, feedLow, feedHigh),
		activity:    seed.Between(key+8, 0.58, 0.93),
		alone:       seed.Between(key+7, 10.2, 41.6),
		water:       seed.Between(key+10, 5.2, 12.5),
		lying:       seed.Between(key+9, 392, 622),
		temp:        seed.Between(key+5, 23.5, 30.1),
		humidity:    seed.Between(key+6, 49.5, 71.5),
		hasFeedEst:  seed.Unit(key+4) > 0.22,
		hasMilk:     dairy,
	}
	if dairy {
		profile.milk = seed.Between(seed.Hash(animal.Tag+"-milk"), 16.5, 30.2)
	}
	return profile
}

func buildSignal(animal models.Animal, base restingProfile, day time.Time) models.DailySignal {
	dayKey := seed.Hash(animal.Tag + "-day-" + calendar.FormatDate(day))
	vary := func(value float64, offset int64, spread float64) float64 {
		return value * seed.Between(dayKey+offset, 1-spread, 1+spread)
	}

	trough := vary(base.trough, 11, 0.16)
	meals := vary(base.meals, 12, 0.12)
	if meals < 1 {
		meals = 1
	}

	signal := models.DailySignal{
		Tag:            animal.Tag,
		Date:           day,
		TroughMinutes:  models.Float(round1(trough)),
		MealsCount:     models.Float(round1(meals)),
		AvgMealMinutes: models.Float(round2(trough / meals)),
		ActivityIndex:  models.Float(round2(clampF(vary(base.activity, 14, 0.15), 0.1, 1.1))),
		AloneMinutes:   models.Float(round1(vary(base.alone, 15, 0.24))),
		WaterVisits:    models.Float(round1(vary(base.water, 16, 0.2))),
		LyingMinutes:   models.Float(round1(vary(base.lying, 17, 0.16))),
		TempC:          models.Float(round1(base.temp + seed.Between(dayKey+302, -2.3, 3.1))),
		HumidityPct:    models.Float(round1(base.humidity + seed.Between(dayKey+305, -7.5, 8.2))),
	}
	if base.hasFeedEst {
		signal.FeedIntakeEstKg = models.Float(round2(vary(base.feedKg, 13, 0.15)))
	}
	if base.hasMilk {
		signal.MilkLiters = models.Float(round1(vary(base.milk, 18, 0.14)))
	}

	signal.MealTimestamps = mealTimestamps(meals, dayKey+410)
	signal.WaterTimestamps = waterTimestamps(*signal.WaterVisits, signal.MealTimestamps, dayKey+530)
	return signal
}

// mealTimestamps spreads meals across three feeding windows with seeded
// scatter, clamped inside the barn's active hours.
func mealTimestamps(mealsCount float64, dayKey int64) []int {
	windows := []struct {
		center, spread float64
	}{
		{6.5 * 60, 55},
		{11.8 * 60, 72},
		{17.6 * 60, 78},
	}

	total := int(math.Round(mealsCount))
	if total < 1 {
		total = 1
	}

	times := make([]int, 0, total)
	for i := 0; i < total; i++ {
		w := windows[i%len(windows)]
		value := w.center + seed.Between(dayKey+int64(i)*19, -w.spread, w.spread)
		times = append(times, int(math.Round(clampF(value, 5*60, 21*60+45))))
	}
	sort.Ints(times)
	return times
}

// waterTimestamps places water visits near meal times with seeded drift.
func waterTimestamps(waterVisits float64, mealTimes []int, dayKey int64) []int {
	visits := int(math.Round(waterVisits))
	if visits < 1 {
		visits = len(mealTimes)
	}
	if visits < 1 {
		visits = 1
	}

	times := make([]int, 0, visits)
	for i := 0; i < visits; i++ {
		base := 7*60 + i*40
		if len(mealTimes) > 0 {
			base = mealTimes[i%len(mealTimes)]
		}
		value := float64(base) + seed.Between(dayKey+int64(i)*11, -45, 65)
		times = append(times, int(math.Round(clampF(value, 5*60, 22*60))))
	}
	sort.Ints(times)
	return times
}

func datePtr(t time.Time) *time.Time {
	d := calendar.DateOnly(t)
	return &d
}

func clampF(value, min, max float64) float64 {
	return math.Max(min, math.Min(max, value))
}

func round1(value float64) float64 { return math.Round(value*10) / 10 }

func round2(value float64) float64 { return math.Round(value*100) / 100 }
