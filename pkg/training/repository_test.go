package training

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thealphakenya/Alphaai/pkg/common/models"
)

func TestRunRowRoundTrip(t *testing.T) {
	started := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	var stages models.Stages
	stages.Set("training", models.StageResult{"accuracy": 0.9})
	stages.Set("testing", models.StageResult{"accuracy": 0.8})
	stages.Set("retesting", models.StageResult{"accuracy": 0.86})

	run := models.TrainingRun{
		RunID:       uuid.NewString(),
		ModelName:   "m",
		DatasetPath: "data/m",
		Params:      map[string]interface{}{"lr": 0.01},
		Stages:      stages,
		StartTime:   started,
		EndTime:     started.Add(3 * time.Second),
		Duration:    3,
		Success:     true,
	}

	row, err := toRow(run)
	require.NoError(t, err)
	assert.Equal(t, run.RunID, row.ID.String())
	assert.Equal(t, 3.0, row.Duration)

	got, err := fromRow(row)
	require.NoError(t, err)
	assert.Equal(t, run, got)

	names := make([]string, 0, len(got.Stages))
	for _, entry := range got.Stages {
		names = append(names, entry.Name)
	}
	assert.Equal(t, []string{"training", "testing", "retesting"}, names)
}

func TestToRowRejectsInvalidRunID(t *testing.T) {
	_, err := toRow(models.TrainingRun{RunID: "not-a-uuid"})
	assert.Error(t, err)
}

func TestFromRowRejectsCorruptStages(t *testing.T) {
	_, err := fromRow(&RunModel{ID: uuid.New(), Stages: []byte("{")})
	assert.Error(t, err)
}
