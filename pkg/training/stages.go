package training

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"time"

	"github.com/thealphakenya/Alphaai/pkg/common/logger"
	"github.com/thealphakenya/Alphaai/pkg/common/models"
)

// Nominal per-step delays.
const (
	epochDelay    = 500 * time.Millisecond
	testStepDelay = 200 * time.Millisecond
	rebuildDelay  = 300 * time.Millisecond
	tuneStepDelay = 200 * time.Millisecond
	readyDelay    = 100 * time.Millisecond
)

// train runs one progress step per epoch and writes the model artifact.
func (c *Coordinator) train(ctx context.Context, modelName string, params map[string]interface{}) (models.StageResult, error) {
	total := epochsFrom(params, c.opts.DefaultEpochs)
	result := models.StageResult{"accuracy": 0, "loss": 0}

	for epoch := 1; epoch <= total; epoch++ {
		c.state.setProgress(StageTraining, int(math.Round(100*float64(epoch)/float64(total))))
		if err := c.opts.Pacer.Pace(ctx, Step{Stage: StageTraining, Index: epoch, Total: total, Delay: epochDelay}); err != nil {
			return nil, err
		}
		result["accuracy"] = float64(epoch) / float64(total) * 0.9
		result["loss"] = 1 - result["accuracy"]
	}

	path, err := writeArtifact(c.opts.ModelDir, modelName, params)
	if err != nil {
		logger.Log.WithError(err).WithField("model_name", modelName).Error("Failed to write model artifact")
	} else {
		logger.Log.WithFields(map[string]interface{}{
			"model_name": modelName,
			"path":       path,
			"epochs":     total,
		}).Debug("Model artifact written")
	}

	return result, nil
}

// test reports ten equal steps on stage, then asks the evaluator once.
func (c *Coordinator) test(ctx context.Context, modelName string, stage Stage) (models.StageResult, error) {
	if err := c.steps(ctx, stage, 10, testStepDelay); err != nil {
		return nil, err
	}
	return c.opts.Evaluator.Evaluate(ctx, modelName)
}

// fix retrains with the larger epoch budget when accuracy is poor and
// fine-tunes otherwise.
func (c *Coordinator) fix(ctx context.Context, modelName string, tested models.StageResult) (models.StageResult, error) {
	if tested["accuracy"] < c.opts.RetrainThreshold {
		if err := c.steps(ctx, StageFixing, 20, rebuildDelay); err != nil {
			return nil, err
		}
		return c.train(ctx, modelName, map[string]interface{}{"epochs": c.opts.RetrainEpochs})
	}

	if err := c.steps(ctx, StageFixing, 10, tuneStepDelay); err != nil {
		return nil, err
	}
	return models.StageResult{"accuracy": 0.88, "loss": 0.12}, nil
}

func (c *Coordinator) prepare(ctx context.Context) error {
	return c.steps(ctx, StageReady, 10, readyDelay)
}

// steps reports n equal increments on stage, pacing each one.
func (c *Coordinator) steps(ctx context.Context, stage Stage, n int, delay time.Duration) error {
	for i := 1; i <= n; i++ {
		c.state.setProgress(stage, i*100/n)
		if err := c.opts.Pacer.Pace(ctx, Step{Stage: stage, Index: i, Total: n, Delay: delay}); err != nil {
			return err
		}
	}
	return nil
}

// epochsFrom reads params["epochs"], falling back to def for missing or
// non-positive values.
func epochsFrom(params map[string]interface{}, def int) int {
	raw, ok := params["epochs"]
	if !ok {
		return def
	}
	var epochs int
	switch v := raw.(type) {
	case int:
		epochs = v
	case int64:
		epochs = int(v)
	case float64:
		epochs = int(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return def
		}
		epochs = int(n)
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return def
		}
		epochs = n
	default:
		return def
	}
	if epochs <= 0 {
		return def
	}
	return epochs
}
