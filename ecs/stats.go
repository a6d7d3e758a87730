package ecs

import "time"

// WorldStats is a snapshot of a world's population and system timings.
type WorldStats struct {
	Entities       int
	FreeIDs        int
	PendingAdd     int
	PendingChange  int
	PendingRemove  int
	ComponentCount int
	Updates        int64
	Components     []ComponentStats
	Systems        []SystemStats
}

// ComponentStats describes one component store.
type ComponentStats struct {
	Name   string
	Index  int
	Kind   Kind
	Blocks int
}

// SystemStats provides execution statistics for a single system.
type SystemStats struct {
	Name          string
	Index         int
	Priority      int
	Enabled       bool
	ActiveCount   int
	UpdateCount   int64
	MinDuration   time.Duration
	MaxDuration   time.Duration
	AvgDuration   time.Duration
	LastDuration  time.Duration
	TotalDuration time.Duration
	LastPaint     time.Duration
}

type systemStatsInternal struct {
	updateCount   int64
	minDuration   time.Duration
	maxDuration   time.Duration
	totalDuration time.Duration
	lastDuration  time.Duration
	lastPaint     time.Duration
}

func newSystemStats() systemStatsInternal {
	return systemStatsInternal{minDuration: time.Duration(1<<63 - 1)}
}

func (s *systemStatsInternal) recordUpdate(d time.Duration) {
	s.updateCount++
	s.lastDuration = d
	s.totalDuration += d
	if d < s.minDuration {
		s.minDuration = d
	}
	if d > s.maxDuration {
		s.maxDuration = d
	}
}

// Stats collects statistics about the world's entities, components and systems.
// Systems are listed in processing order.
func (w *World) Stats() WorldStats {
	stats := WorldStats{
		FreeIDs:        w.free.Len(),
		PendingAdd:     w.toAdd.Len(),
		PendingChange:  w.toChange.Len(),
		PendingRemove:  w.toRemove.Len(),
		ComponentCount: len(w.comps),
		Updates:        w.updates,
		Components:     make([]ComponentStats, len(w.comps)),
		Systems:        make([]SystemStats, len(w.systems)),
	}

	for _, e := range w.entities {
		if e != nil && !e.IsDisposed() {
			stats.Entities++
		}
	}

	for i, c := range w.comps {
		stats.Components[i] = ComponentStats{
			Name:   c.Name(),
			Index:  c.ID(),
			Kind:   c.Kind(),
			Blocks: c.allocatedBlocks(),
		}
	}

	for i, r := range w.systems {
		internal := r.stats
		avg := time.Duration(0)
		minDuration := time.Duration(0)
		if internal.updateCount > 0 {
			avg = internal.totalDuration / time.Duration(internal.updateCount)
			minDuration = internal.minDuration
		}
		stats.Systems[i] = SystemStats{
			Name:          r.name,
			Index:         r.index,
			Priority:      r.priority,
			Enabled:       r.enabled,
			ActiveCount:   r.active.ids.Len(),
			UpdateCount:   internal.updateCount,
			MinDuration:   minDuration,
			MaxDuration:   internal.maxDuration,
			AvgDuration:   avg,
			LastDuration:  internal.lastDuration,
			TotalDuration: internal.totalDuration,
			LastPaint:     internal.lastPaint,
		}
	}

	return stats
}
