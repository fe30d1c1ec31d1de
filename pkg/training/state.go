package training

import (
	"sync"
	"sync/atomic"

	"github.com/thealphakenya/Alphaai/pkg/common/models"
)

// progressState is written by the pipeline goroutine and read by pollers.
// Nothing outside this file touches its fields.
type progressState struct {
	mu       sync.RWMutex
	stage    Stage
	progress models.Progress
	running  atomic.Bool
}

func newProgressState() *progressState {
	return &progressState{stage: StageIdle}
}

// acquire claims the single run slot.
func (s *progressState) acquire() bool {
	return s.running.CompareAndSwap(false, true)
}

func (s *progressState) release() {
	s.running.Store(false)
}

func (s *progressState) isRunning() bool {
	return s.running.Load()
}

// begin zeroes progress and enters the training stage. The learning
// counter and in_use flag are cleared too, which stops any learning loop.
func (s *progressState) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = models.Progress{}
	s.stage = StageTraining
}

func (s *progressState) setStage(stage Stage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stage = stage
}

func (s *progressState) currentStage() Stage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stage
}

// setProgress clamps percent to [0,100].
func (s *progressState) setProgress(stage Stage, percent int) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	switch stage {
	case StageTraining:
		s.progress.TrainingModel = percent
	case StageTesting:
		s.progress.TestingModel = percent
	case StageFixing:
		s.progress.FixingModel = percent
	case StageRetesting:
		s.progress.RetestingModel = percent
	case StageReady:
		s.progress.GettingReady = percent
	}
}

func (s *progressState) setInUse(inUse bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress.InUse = inUse
}

func (s *progressState) inUse() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.progress.InUse
}

// advanceLearning bumps the rolling 0-99 counter and returns the new value.
// It reports false and leaves the counter alone once the model is no longer
// in use, so a run that has just reset progress is never touched.
func (s *progressState) advanceLearning() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.progress.InUse {
		return s.progress.ContinuousLearning, false
	}
	s.progress.ContinuousLearning = (s.progress.ContinuousLearning + 1) % 100
	return s.progress.ContinuousLearning, true
}

func (s *progressState) snapshot() models.ProgressSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.ProgressSnapshot{
		Stage:      string(s.stage),
		Progress:   s.progress,
		IsTraining: s.running.Load(),
	}
}
