package ecs

import "time"

// Clock describes one simulation tick.
type Clock struct {
	// Tick counts updates since the clock source started.
	Tick int64
	// DT is the simulated time covered by this tick.
	DT time.Duration
	// Elapsed is the total simulated time including this tick.
	Elapsed time.Duration
}

// Seconds returns DT in seconds.
func (c Clock) Seconds() float64 { return c.DT.Seconds() }

// PaintClock describes one render frame.
type PaintClock struct {
	Clock
	// Alpha is the fraction of a tick that has elapsed since the last update,
	// in [0, 1). Painters interpolate between the previous and current state by it.
	Alpha float64
}
