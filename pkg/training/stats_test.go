package training

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thealphakenya/Alphaai/pkg/common/models"
)

func TestSummarize(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	runs := []models.TrainingRun{
		{ModelName: "a", Success: true, Duration: 2, StartTime: t0},
		{ModelName: "a", Success: false, Duration: 4, StartTime: t0.Add(time.Hour)},
		{ModelName: "b", Success: true, Duration: 6, StartTime: t0.Add(2 * time.Hour)},
	}

	tests := map[string]struct {
		model  string
		exp    Stats
		expAt  time.Time
		expNil bool
	}{
		"All models should be summarised together.": {
			exp:   Stats{TotalRuns: 3, SuccessfulRuns: 2, FailedRuns: 1, AvgDurationSeconds: 4, Health: "degraded"},
			expAt: t0.Add(2 * time.Hour),
		},
		"A single model should only count its own runs.": {
			model: "b",
			exp:   Stats{TotalRuns: 1, SuccessfulRuns: 1, AvgDurationSeconds: 6, Health: "healthy"},
			expAt: t0.Add(2 * time.Hour),
		},
		"An unknown model should be idle.": {
			model:  "c",
			exp:    Stats{Health: "idle"},
			expNil: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got := Summarize(runs, test.model)
			if test.expNil {
				assert.Nil(t, got.LastRunAt)
			} else {
				require.NotNil(t, got.LastRunAt)
				assert.Equal(t, test.expAt, *got.LastRunAt)
			}
			got.LastRunAt = nil
			assert.Equal(t, test.exp, got)
		})
	}
}

func TestDeriveHealth(t *testing.T) {
	assert.Equal(t, "failing", deriveHealth(Stats{TotalRuns: 4, SuccessfulRuns: 1}))
	assert.Equal(t, "degraded", deriveHealth(Stats{TotalRuns: 2, SuccessfulRuns: 1}))
	assert.Equal(t, "healthy", deriveHealth(Stats{TotalRuns: 10, SuccessfulRuns: 9}))
}
