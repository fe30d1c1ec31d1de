package training

import (
	"context"
	"errors"

	"github.com/thealphakenya/Alphaai/pkg/common/models"
)

type Stage string

const (
	StageIdle      Stage = "idle"
	StageTraining  Stage = "training_model"
	StageTesting   Stage = "testing_model"
	StageFixing    Stage = "fixing_model"
	StageRetesting Stage = "retesting_model"
	StageReady     Stage = "getting_ready"
	StageInUse     Stage = "in_use"
)

// Keys under which stage results are stored in a run record.
const (
	ResultTraining  = "training"
	ResultTesting   = "testing"
	ResultFixing    = "fixing"
	ResultRetesting = "retesting"
)

const (
	EventStarted   = "training.started"
	EventStage     = "training.stage"
	EventCompleted = "training.completed"
	EventFailed    = "training.failed"
	EventRejected  = "training.rejected"
)

var (
	ErrTrainingInProgress = errors.New("training already in progress")
	ErrModelNotInUse      = errors.New("model must be in use to start continuous learning")
	ErrClosed             = errors.New("training coordinator closed")
)

// Evaluator scores a trained model. The test and retest stages call it once
// each, after their progress steps.
type Evaluator interface {
	Evaluate(ctx context.Context, modelName string) (models.StageResult, error)
}

type EvaluatorFunc func(ctx context.Context, modelName string) (models.StageResult, error)

func (f EvaluatorFunc) Evaluate(ctx context.Context, modelName string) (models.StageResult, error) {
	return f(ctx, modelName)
}

// StaticEvaluator always reports the same scores.
type StaticEvaluator struct {
	Result models.StageResult
}

func DefaultEvaluator() StaticEvaluator {
	return StaticEvaluator{Result: models.StageResult{
		"accuracy":  0.82,
		"precision": 0.85,
		"recall":    0.80,
		"f1_score":  0.82,
	}}
}

func (e StaticEvaluator) Evaluate(ctx context.Context, modelName string) (models.StageResult, error) {
	result := make(models.StageResult, len(e.Result))
	for k, v := range e.Result {
		result[k] = v
	}
	return result, nil
}

// Recorder mirrors finished runs into secondary storage.
type Recorder interface {
	Record(ctx context.Context, run models.TrainingRun) error
}

// Publisher emits lifecycle events for a run.
type Publisher interface {
	Publish(ctx context.Context, eventType string, data map[string]interface{}) error
}
