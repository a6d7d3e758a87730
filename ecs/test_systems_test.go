package ecs_test

import (
	"slices"
	"time"

	"github.com/plus3/klayecs/ecs"
)

// probe records every callback the world makes into it.
type probe struct {
	label   string
	match   func(e *ecs.Entity) bool
	order   *[]string
	checks  map[int]int
	added   []int
	removed []int
	indices []int
	updates int
	paints  int
	active  []int
	alpha   float64
}

func newProbe(label string, match func(e *ecs.Entity) bool) *probe {
	return &probe{
		label:  label,
		match:  match,
		checks: make(map[int]int),
	}
}

func (p *probe) Name() string { return p.label }

func (p *probe) Interested(e *ecs.Entity) bool {
	p.checks[e.ID()]++
	return p.match(e)
}

func (p *probe) WasAdded(e *ecs.Entity) {
	p.added = append(p.added, e.ID())
}

func (p *probe) WasRemoved(e *ecs.Entity, index int) {
	p.removed = append(p.removed, e.ID())
	p.indices = append(p.indices, index)
}

func (p *probe) Update(clock ecs.Clock, active ecs.Entities) {
	p.updates++
	if p.order != nil {
		*p.order = append(*p.order, p.label)
	}
	p.active = ids(active)
}

func (p *probe) Paint(clock ecs.PaintClock, active ecs.Entities) {
	p.paints++
	p.alpha = clock.Alpha
}

func (p *probe) reset() {
	clear(p.checks)
	p.added = nil
	p.removed = nil
	p.indices = nil
}

// hasAll matches entities possessing every one of comps.
func hasAll(comps ...ecs.Component) func(e *ecs.Entity) bool {
	return func(e *ecs.Entity) bool {
		for _, c := range comps {
			if !e.Has(c) {
				return false
			}
		}
		return true
	}
}

func ids(active ecs.Entities) []int {
	out := make([]int, active.Len())
	for i := range out {
		out[i] = active.Get(i)
	}
	slices.Sort(out)
	return out
}

const frame = 16 * time.Millisecond

func tick(n int64) ecs.Clock {
	return ecs.Clock{Tick: n, DT: frame, Elapsed: frame * time.Duration(n)}
}
