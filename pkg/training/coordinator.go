package training

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/thealphakenya/Alphaai/pkg/common/logger"
	"github.com/thealphakenya/Alphaai/pkg/common/models"
	"github.com/thealphakenya/Alphaai/pkg/observability/metrics"
)

// Options configures a Coordinator. Zero values get the defaults below.
type Options struct {
	ModelDir string
	LogsDir  string

	// AcceptThreshold is the test accuracy at or above which fixing is skipped.
	AcceptThreshold float64
	// RetrainThreshold is the accuracy below which fixing retrains from scratch.
	RetrainThreshold float64
	DefaultEpochs    int
	RetrainEpochs    int
	LearningInterval time.Duration

	Pacer     Pacer
	Evaluator Evaluator
	History   HistoryStore
	Recorder  Recorder
	Publisher Publisher
	Now       func() time.Time
}

func (o *Options) defaults() error {
	if o.ModelDir == "" {
		o.ModelDir = "models"
	}
	if o.LogsDir == "" {
		o.LogsDir = "logs"
	}
	if o.AcceptThreshold == 0 {
		o.AcceptThreshold = 0.85
	}
	if o.RetrainThreshold == 0 {
		o.RetrainThreshold = 0.70
	}
	if o.RetrainThreshold > o.AcceptThreshold {
		return fmt.Errorf("retrain threshold %.2f above accept threshold %.2f", o.RetrainThreshold, o.AcceptThreshold)
	}
	if o.DefaultEpochs <= 0 {
		o.DefaultEpochs = 10
	}
	if o.RetrainEpochs <= 0 {
		o.RetrainEpochs = 15
	}
	if o.LearningInterval <= 0 {
		o.LearningInterval = 5 * time.Second
	}
	if o.Pacer == nil {
		o.Pacer = SleepPacer{Scale: 1}
	}
	if o.Evaluator == nil {
		o.Evaluator = DefaultEvaluator()
	}
	if o.History == nil {
		o.History = NewFileHistory(o.LogsDir)
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return nil
}

// Coordinator runs the training pipeline for one model at a time and keeps
// the progress that pollers read.
type Coordinator struct {
	opts  Options
	state *progressState

	historyMu sync.Mutex
	history   []models.TrainingRun

	// lifecycle serialises Start*/Close so WaitGroup.Add never races the
	// Wait in Close. Wait itself blocks on runDone instead.
	lifecycle sync.Mutex
	closed    bool
	ctx       context.Context
	cancel    context.CancelFunc
	runWG     sync.WaitGroup
	runDone   chan struct{}
	loopWG    sync.WaitGroup
	learning  atomic.Bool
}

func NewCoordinator(opts Options) (*Coordinator, error) {
	if err := opts.defaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	for _, dir := range []string{opts.ModelDir, opts.LogsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	history, err := opts.History.Load()
	if err != nil {
		logger.Log.WithError(err).Error("Failed to load training history")
		history = nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		opts:    opts,
		state:   newProgressState(),
		history: history,
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// StartTraining launches a run in the background and returns its run ID
// immediately. It fails with ErrTrainingInProgress while another run is
// active.
func (c *Coordinator) StartTraining(modelName, datasetPath string, params map[string]interface{}) (string, error) {
	runID, err := c.launch(modelName, datasetPath, params)
	if errors.Is(err, ErrTrainingInProgress) {
		metrics.TrainingRejected()
		c.publish(EventRejected, map[string]interface{}{"model_name": modelName})
	}
	return runID, err
}

func (c *Coordinator) launch(modelName, datasetPath string, params map[string]interface{}) (string, error) {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	if c.closed {
		return "", ErrClosed
	}
	if !c.state.acquire() {
		return "", ErrTrainingInProgress
	}
	c.state.begin()
	metrics.TrainingStarted()

	run := models.TrainingRun{
		RunID:       uuid.New().String(),
		ModelName:   modelName,
		DatasetPath: datasetPath,
		Params:      params,
	}

	logger.Log.WithFields(map[string]interface{}{
		"run_id":       run.RunID,
		"model_name":   modelName,
		"dataset_path": datasetPath,
	}).Info("Starting training run")

	done := make(chan struct{})
	c.runDone = done
	c.runWG.Add(1)
	go c.pipeline(run, done)

	return run.RunID, nil
}

func (c *Coordinator) GetProgress() models.ProgressSnapshot {
	return c.state.snapshot()
}

// History returns a copy of every recorded run, oldest first.
func (c *Coordinator) History() []models.TrainingRun {
	c.historyMu.Lock()
	defer c.historyMu.Unlock()
	out := make([]models.TrainingRun, len(c.history))
	copy(out, c.history)
	return out
}

// StartContinuousLearning starts the background learning loop. The model
// must be in use; starting while a loop already runs is a no-op.
func (c *Coordinator) StartContinuousLearning(modelName string) error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	if c.closed {
		return ErrClosed
	}
	if !c.state.inUse() {
		return ErrModelNotInUse
	}
	if !c.learning.CompareAndSwap(false, true) {
		return nil
	}

	c.loopWG.Add(1)
	go c.learn(modelName)
	return nil
}

// Wait blocks until the most recently started run has finished. It returns
// at once when no run was started.
func (c *Coordinator) Wait() {
	c.lifecycle.Lock()
	done := c.runDone
	c.lifecycle.Unlock()
	if done != nil {
		<-done
	}
}

// Close aborts the active run, stops the learning loop and waits for both.
func (c *Coordinator) Close() error {
	c.lifecycle.Lock()
	if c.closed {
		c.lifecycle.Unlock()
		return nil
	}
	c.closed = true
	c.cancel()
	c.state.setInUse(false)
	c.lifecycle.Unlock()

	c.runWG.Wait()
	c.loopWG.Wait()
	return nil
}

func (c *Coordinator) pipeline(run models.TrainingRun, done chan struct{}) {
	defer c.runWG.Done()
	defer close(done)
	defer func() {
		c.state.setStage(StageIdle)
		c.state.release()
	}()

	start := c.opts.Now()
	run.StartTime = start.UTC()
	c.publish(EventStarted, map[string]interface{}{
		"run_id":     run.RunID,
		"model_name": run.ModelName,
	})

	err := c.execute(c.ctx, &run)

	end := c.opts.Now()
	run.EndTime = end.UTC()
	run.Duration = end.Sub(start).Seconds()
	run.Success = err == nil

	fields := map[string]interface{}{
		"run_id":     run.RunID,
		"model_name": run.ModelName,
		"duration":   run.Duration,
	}
	if err != nil {
		run.Error = err.Error()
		logger.Log.WithError(err).WithFields(fields).Error("Training run failed")
		c.publish(EventFailed, map[string]interface{}{"run_id": run.RunID, "model_name": run.ModelName, "error": run.Error})
	} else {
		logger.Log.WithFields(fields).Info("Training run completed")
		c.publish(EventCompleted, map[string]interface{}{"run_id": run.RunID, "model_name": run.ModelName, "duration": run.Duration})
	}

	c.appendHistory(run)
	metrics.TrainingFinished(run.Success)
}

// execute walks the stages in order. Panics inside a stage are reported as
// errors so the run is still recorded.
func (c *Coordinator) execute(ctx context.Context, run *models.TrainingRun) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stage %s panicked: %v", c.state.currentStage(), r)
		}
	}()

	c.enter(run, StageTraining)
	trained, err := c.train(ctx, run.ModelName, run.Params)
	if err != nil {
		return fmt.Errorf("training: %w", err)
	}
	run.Stages.Set(ResultTraining, trained)

	c.enter(run, StageTesting)
	tested, err := c.test(ctx, run.ModelName, StageTesting)
	if err != nil {
		return fmt.Errorf("testing: %w", err)
	}
	run.Stages.Set(ResultTesting, tested)

	if tested["accuracy"] < c.opts.AcceptThreshold {
		c.enter(run, StageFixing)
		fixed, err := c.fix(ctx, run.ModelName, tested)
		if err != nil {
			return fmt.Errorf("fixing: %w", err)
		}
		run.Stages.Set(ResultFixing, fixed)

		c.enter(run, StageRetesting)
		retested, err := c.test(ctx, run.ModelName, StageRetesting)
		if err != nil {
			return fmt.Errorf("retesting: %w", err)
		}
		run.Stages.Set(ResultRetesting, retested)
	}

	c.enter(run, StageReady)
	if err := c.prepare(ctx); err != nil {
		return fmt.Errorf("getting ready: %w", err)
	}

	c.enter(run, StageInUse)
	c.state.setInUse(true)
	return nil
}

func (c *Coordinator) enter(run *models.TrainingRun, stage Stage) {
	c.state.setStage(stage)
	logger.Log.WithFields(map[string]interface{}{
		"run_id": run.RunID,
		"stage":  stage,
	}).Debug("Training stage entered")
	c.publish(EventStage, map[string]interface{}{
		"run_id":     run.RunID,
		"model_name": run.ModelName,
		"stage":      string(stage),
	})
}

// appendHistory adds run and persists the whole list. Persistence errors
// are logged; memory stays authoritative.
func (c *Coordinator) appendHistory(run models.TrainingRun) {
	c.historyMu.Lock()
	c.history = append(c.history, run)
	snapshot := make([]models.TrainingRun, len(c.history))
	copy(snapshot, c.history)
	if err := c.opts.History.Save(snapshot); err != nil {
		logger.Log.WithError(err).Error("Failed to save training history")
	}
	c.historyMu.Unlock()

	if c.opts.Recorder != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.opts.Recorder.Record(ctx, run); err != nil {
			logger.Log.WithError(err).WithField("run_id", run.RunID).Error("Failed to record training run")
		}
	}
}

func (c *Coordinator) publish(eventType string, data map[string]interface{}) {
	if c.opts.Publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.opts.Publisher.Publish(ctx, eventType, data); err != nil {
		logger.Log.WithError(err).WithField("event_type", eventType).Warn("Failed to publish training event")
	}
}

func (c *Coordinator) learn(modelName string) {
	defer c.loopWG.Done()
	defer c.learning.Store(false)
	metrics.LearningLoopStarted()
	defer metrics.LearningLoopStopped()

	logger.Log.WithField("model_name", modelName).Info("Continuous learning started")

	ticker := time.NewTicker(c.opts.LearningInterval)
	defer ticker.Stop()
	for {
		if _, ok := c.state.advanceLearning(); !ok {
			break
		}
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
		}
	}

	logger.Log.WithField("model_name", modelName).Info("Continuous learning stopped")
}
