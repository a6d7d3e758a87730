package ecs

import (
	"context"
	"fmt"
	"time"
)

// DefaultMaxSteps bounds the updates one Advance call may run to catch up.
const DefaultMaxSteps = 5

// Loop drives a world with a fixed simulation step: each Advance runs as many
// whole steps of Update as the elapsed time covers, then one Paint whose Alpha
// is the leftover fraction of a step.
type Loop struct {
	world *World
	step  time.Duration
	acc   time.Duration
	clock Clock

	// MaxSteps caps the updates per Advance; time beyond the cap is dropped
	// so a long stall does not snowball. Zero or less means no cap.
	MaxSteps int
}

// NewLoop creates a loop advancing w by step per update.
func NewLoop(w *World, step time.Duration) *Loop {
	if step <= 0 {
		panic(fmt.Sprintf("ecs: invalid loop step %v", step))
	}
	return &Loop{
		world:    w,
		step:     step,
		MaxSteps: DefaultMaxSteps,
	}
}

// Step returns the simulated duration of one update.
func (l *Loop) Step() time.Duration { return l.step }

// Clock returns the clock passed to the most recent update.
func (l *Loop) Clock() Clock { return l.clock }

// Advance accounts for elapsed wall time, running zero or more updates and
// then a paint. It returns the number of updates run.
func (l *Loop) Advance(elapsed time.Duration) int {
	l.acc += elapsed
	steps := 0
	for l.acc >= l.step {
		if l.MaxSteps > 0 && steps == l.MaxSteps {
			l.acc %= l.step
			break
		}
		l.clock.Tick++
		l.clock.DT = l.step
		l.clock.Elapsed += l.step
		l.world.Update(l.clock)
		l.acc -= l.step
		steps++
	}
	l.world.Paint(PaintClock{
		Clock: l.clock,
		Alpha: float64(l.acc) / float64(l.step),
	})
	return steps
}

// Run calls Advance every frameInterval until ctx is done, returning ctx.Err().
func (l *Loop) Run(ctx context.Context, frameInterval time.Duration) error {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	lastTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			l.Advance(now.Sub(lastTime))
			lastTime = now
		}
	}
}
