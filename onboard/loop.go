package onboard

import (
	"context"
	"time"
)

const DEFAULT_LOOP_PERIOD = 20 * time.Millisecond

// InputSource supplies one input snapshot per cycle.
type InputSource interface {
	Snapshot() InputSnapshot
}

// Loop drives a Shooter at a fixed period.
type Loop struct {
	shooter *Shooter
	input   InputSource
	period  time.Duration
}

func NewLoop(shooter *Shooter, input InputSource, period time.Duration) *Loop {
	if period <= 0 {
		period = DEFAULT_LOOP_PERIOD
	}

	return &Loop{
		shooter: shooter,
		input:   input,
		period:  period,
	}
}

func (l *Loop) Period() time.Duration {
	return l.period
}

// Run ticks the shooter until ctx is done, then stops the motors.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.shooter.Shutdown()
			return ctx.Err()

		case <-ticker.C:
			l.shooter.Tick(l.input.Snapshot())
		}
	}
}
