package insights

// Scoring thresholds and weights. These are calibration targets tuned
// against observed herd behavior, not derived physics; change them only
// together with the tests that pin them.
const (
	// Environmental flag thresholds.
	heatTempThreshold     = 30.0
	heatHumidityThreshold = 65.0

	// Composite illness-pattern thresholds (all must co-occur).
	illnessIntakeDrop   = 0.20
	illnessMealsDrop    = 0.10
	illnessActivityDrop = 0.15
	illnessLyingRise    = 0.10

	// Strong-signal thresholds: a deviation crossing its threshold counts
	// as one independent corroborating signal.
	strongIntakeDrop   = 0.20
	strongMealsDrop    = 0.12
	strongActivityDrop = 0.18
	strongLyingRise    = 0.10
	strongWaterDrop    = 0.20

	// Factor score weights.
	heatFlagWeight       = 58.0
	heatIntakeWeight     = 22.0
	heatActivityWeight   = 18.0
	heatWaterWeight      = 20.0
	illnessFlagWeight    = 28.0
	illnessIntakeWeight  = 42.0
	illnessMealsWeight   = 26.0
	illnessActivityWeight = 36.0
	illnessLyingWeight   = 26.0
	socialAloneWeight    = 45.0
	socialMealsWeight    = 14.0
	socialCongestionWeight = 35.0
	socialIntakeWeight   = 10.0
	waterDropWeight      = 60.0
	waterHeatWeight      = 22.0
	waterIntakeWeight    = 12.0

	// Overall risk blend weights.
	riskIntakeWeight   = 0.34
	riskMealsWeight    = 0.16
	riskActivityWeight = 0.24
	riskLyingWeight    = 0.12
	riskWaterWeight    = 0.10
	riskAloneWeight    = 0.06
	riskHeatBonus      = 0.11

	// Late-pregnancy bonuses graduated by days until due.
	preCalvingWindowDays = 30
	preCalvingBoostNear  = 0.16 // due within 7 days
	preCalvingBoostMid   = 0.10 // due within 14 days
	preCalvingBoostFar   = 0.06 // due within 30 days

	// Risk scaling, floors and ceilings keyed on strong-signal counts.
	riskBase           = 4.0
	riskSpan           = 88.0
	riskConfidenceBase = 0.76
	riskConfidenceSpan = 0.24
	riskCapNoSignals   = 22.0
	riskFloorThree     = 38.0
	riskFloorFour      = 54.0
	riskFloorFive      = 72.0
	riskCapUnderTwo    = 48.0
	riskCapUnderFour   = 84.0
	riskMin            = 3.0
	riskMax            = 92.0
	jitterSpread       = 2.4

	// Confidence blend.
	confidenceAvailabilityWeight = 0.72
	confidenceMagnitudeWeight    = 0.28
	confidenceMin                = 0.10
	confidenceMax                = 0.98
	recalibrationFactor          = 0.8
	recalibrationMin             = 0.08
	recalibrationMax             = 0.95

	// Risk band thresholds.
	moderateThreshold = 25.0
	highThreshold     = 50.0
	extremeScore      = 80.0
	normalRiskCutoff  = 15.0
)

// Urgency severity weights per top contributing factor.
var severityWeights = map[string]float64{
	"illness": 1.0,
	"water":   0.85,
	"heat":    0.8,
	"social":  0.6,
}

const (
	severityDefault    = 0.7
	severityPreCalving = 0.95
)

// Human-readable factor labels.
var factorLabels = map[string]string{
	"heat":    "Heat-related",
	"illness": "Illness-related",
	"social":  "Social/resource-related",
	"water":   "Water-related",
}

// Static action checklists per top factor.
var actionLists = map[string][]string{
	"illness": {
		"Observe walking for limping.",
		"Check appetite next feeding.",
		"Check manure/hydration.",
		"If not improving within 24h, contact vet/experienced handler.",
	},
	"heat": {
		"Move feeding earlier/later and ensure water is full/clean.",
		"Add shade near water if possible.",
		"Watch for fast breathing/open-mouth breathing.",
	},
	"water": {
		"Check trough flow and cleanliness now.",
		"Confirm all animals can access water without crowding.",
		"If needed, add a second water point near shade.",
	},
	"social": {
		"Watch feeding time and check if this animal is being pushed away.",
		"Split feeding into two waves if crowding is high.",
		"Increase feeding space where possible.",
	},
}

var normalActions = []string{
	"No urgent action needed today; continue normal checks.",
	"Recheck tomorrow to confirm trend stays stable.",
}

var preCalvingActions = []string{
	"If due date is close, prepare calving area and increase monitoring.",
	"Look for repeated isolation + restlessness.",
	"If she seems distressed or pushes without progress, contact help immediately.",
}
