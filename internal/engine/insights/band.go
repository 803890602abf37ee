package insights

import (
	"fmt"
	"time"

	"github.com/mamadbah2/herdsense/internal/domain/models"
)

// BandResult is the displayed risk band plus the next streak state for the
// caller to persist.
type BandResult struct {
	Key   string
	Label string
	Note  string
	Next  models.RiskStreakState
}

// NextBand resolves today's displayed risk band from today's insight and the
// caller-held streak state from the previous evaluation. A raw high score is
// only displayed as high when it is extreme today or has persisted across
// days with corroboration, which keeps single-day sensor wobbles from paging
// the operator.
func NextBand(prev models.RiskStreakState, insight models.Insight, evaluatedAt time.Time) BandResult {
	score := insight.OverallRiskPct
	strong := insight.StrongSignalCount

	streak := 0
	if score >= moderateThreshold {
		streak = prev.StreakDays + 1
	}

	next := models.RiskStreakState{
		Tag:           models.NormalizeTag(insight.Tag),
		StreakDays:    streak,
		LastScore:     score,
		LastEvaluated: evaluatedAt,
	}

	var result BandResult
	switch {
	case score >= highThreshold && score >= extremeScore && strong >= 3:
		result = BandResult{Key: models.BandHigh, Label: "high (extreme today)"}
	case score >= highThreshold && streak >= 2 && strong >= 2:
		result = BandResult{
			Key:   models.BandHigh,
			Label: "high (persistent)",
			Note:  fmt.Sprintf("Elevated for %d consecutive day(s).", streak),
		}
	case score >= highThreshold:
		result = BandResult{
			Key:   models.BandModerate,
			Label: "moderate (recheck)",
			Note:  "Score is high today but not yet confirmed; recheck at next feeding.",
		}
	case score >= moderateThreshold:
		result = BandResult{Key: models.BandModerate, Label: "moderate"}
	default:
		result = BandResult{Key: models.BandLow, Label: "low"}
		if prev.LastBandKey == models.BandHigh || prev.LastBandKey == models.BandModerate {
			if score < normalRiskCutoff {
				result.Note = "Back to normal behavior."
			}
		}
	}

	next.LastBandKey = result.Key
	result.Next = next
	return result
}

// ApplyBand stamps the band result onto the insight's display fields.
func ApplyBand(insight *models.Insight, band BandResult) {
	insight.DisplayRiskBandKey = band.Key
	insight.DisplayRiskBand = band.Label
	insight.BandNote = band.Note
}
