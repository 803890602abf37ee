package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/herdsense/internal/domain/models"
)

func TestSignalMillisecondRecovery(t *testing.T) {
	s := New(nil)

	// 120 minutes mistakenly reported as milliseconds.
	in := models.DailySignal{TroughMinutes: models.Float(7200000)}
	out, warnings := s.Signal(in, "t1")

	require.NotNil(t, out.TroughMinutes)
	assert.InDelta(t, 120, *out.TroughMinutes, 0.001)
	require.Len(t, warnings, 1)
	assert.Equal(t, SeverityConverted, warnings[0].Severity)
}

func TestSignalSecondRecovery(t *testing.T) {
	s := New(nil)

	in := models.DailySignal{LyingMinutes: models.Float(30000)} // 500 min as seconds
	out, warnings := s.Signal(in, "t2")

	require.NotNil(t, out.LyingMinutes)
	assert.InDelta(t, 500, *out.LyingMinutes, 0.001)
	require.Len(t, warnings, 1)
	assert.Equal(t, SeverityConverted, warnings[0].Severity)
}

func TestSignalClampsOutOfRange(t *testing.T) {
	s := New(nil)

	in := models.DailySignal{
		AloneMinutes:  models.Float(-25),
		ActivityIndex: models.Float(3.4),
	}
	out, warnings := s.Signal(in, "t3")

	require.NotNil(t, out.AloneMinutes)
	assert.Equal(t, 0.0, *out.AloneMinutes)
	require.NotNil(t, out.ActivityIndex)
	assert.Equal(t, 2.0, *out.ActivityIndex)

	require.Len(t, warnings, 2)
	for _, w := range warnings {
		assert.Equal(t, SeverityClamped, w.Severity)
	}
}

func TestSignalSortsAndClampsTimestamps(t *testing.T) {
	s := New(nil)

	in := models.DailySignal{MealTimestamps: []int{900, 300, 2000, 450}}
	out, warnings := s.Signal(in, "t4")

	assert.Equal(t, []int{300, 450, 900, 1440}, out.MealTimestamps)
	require.Len(t, warnings, 1)
	assert.Equal(t, SeverityClamped, warnings[0].Severity)
}

func TestSignalKeepsNilMetrics(t *testing.T) {
	s := New(nil)

	out, warnings := s.Signal(models.DailySignal{}, "")
	assert.Nil(t, out.TroughMinutes)
	assert.Nil(t, out.ActivityIndex)
	assert.Empty(t, warnings)
}

func TestSeriesLabelsByIndex(t *testing.T) {
	s := New(nil)

	series := []models.DailySignal{
		{TroughMinutes: models.Float(130)},
		{TroughMinutes: models.Float(-5)},
	}
	out, warnings := s.Series(series, "hist")

	require.Len(t, out, 2)
	require.Len(t, warnings, 1)
	assert.Equal(t, "hist[1]", warnings[0].Context)
}
