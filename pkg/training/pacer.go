package training

import (
	"context"
	"time"
)

// Step describes one progress increment of a stage.
type Step struct {
	Stage Stage
	Index int // 1-based
	Total int
	// Delay is the nominal time the step simulates.
	Delay time.Duration
}

// Pacer is called before every progress increment. Returning an error
// aborts the stage.
type Pacer interface {
	Pace(ctx context.Context, step Step) error
}

// SleepPacer waits Delay*Scale for every step. A zero Scale sleeps the
// nominal delay.
type SleepPacer struct {
	Scale float64
}

func (p SleepPacer) Pace(ctx context.Context, step Step) error {
	scale := p.Scale
	if scale == 0 {
		scale = 1
	}
	delay := time.Duration(float64(step.Delay) * scale)
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NoopPacer never waits.
type NoopPacer struct{}

func (NoopPacer) Pace(ctx context.Context, step Step) error {
	return ctx.Err()
}
