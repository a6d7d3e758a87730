package main

import (
	"fmt"
	"math/rand/v2"

	"github.com/plus3/klayecs/ecs"
	"go.uber.org/zap"
)

// harness is a synthetic world: cfg.World.Components stores cycling through
// every kind, cfg.World.Systems systems each interested in a pair of them, and
// a churn system mutating cfg.Run.Churn random entities per tick.
type harness struct {
	world *ecs.World
	comps []ecs.Component
	rng   *rand.Rand
	log   *zap.Logger

	live []*ecs.Entity

	created  int64
	disposed int64
	mutated  int64
	toggled  int64
}

func newHarness(cfg *Config, log *zap.Logger) *harness {
	h := &harness{
		world: ecs.NewWorld(
			ecs.WithLogger(log),
			ecs.WithEntityCapacity(cfg.Run.Entities+1),
			ecs.WithStats(cfg.World.Stats),
		),
		rng: rand.New(rand.NewPCG(cfg.Run.Seed, cfg.Run.Seed^0x9e3779b97f4a7c15)),
		log: log,
	}

	for i := range cfg.World.Components {
		name := fmt.Sprintf("c%03d", i)
		var c ecs.Component
		switch i % 5 {
		case 0:
			c = ecs.NewIntScalar(h.world, name)
		case 1:
			c = ecs.NewFloatScalar(h.world, name)
		case 2:
			c = ecs.NewIntPair(h.world, name)
		case 3:
			c = ecs.NewFloatPair(h.world, name)
		default:
			c = ecs.NewMask(h.world, name)
		}
		h.comps = append(h.comps, c)
	}

	n := len(h.comps)
	for i := range cfg.World.Systems {
		a, b := h.comps[i%n], h.comps[(i*7+3)%n]
		h.world.Register(&ecs.SystemFuncs{
			Label:        fmt.Sprintf("s%03d", i),
			InterestedFn: func(e *ecs.Entity) bool { return e.Has(a) && e.Has(b) },
			UpdateFn: func(_ ecs.Clock, active ecs.Entities) {
				for j := 0; j < active.Len(); j++ {
					touch(a, active.Get(j))
				}
			},
		}, i%4)
	}

	churn := cfg.Run.Churn
	h.world.Register(&ecs.SystemFuncs{
		Label:    "churn",
		UpdateFn: func(ecs.Clock, ecs.Entities) { h.churn(churn) },
	}, 100)

	for range cfg.Run.Entities {
		h.spawn()
	}
	return h
}

// spawn creates an enabled entity with 1 to 5 random components.
func (h *harness) spawn() *ecs.Entity {
	e := h.world.Create(true)
	comps := make([]ecs.Component, h.rng.IntN(5)+1)
	for i := range comps {
		comps[i] = h.comps[h.rng.IntN(len(h.comps))]
	}
	if err := e.Add(comps...); err != nil {
		h.log.Error("add components", zap.Int("entity", e.ID()), zap.Error(err))
	}
	h.live = append(h.live, e)
	h.created++
	return e
}

// churn applies n random mutations: creates, disposals, component toggles
// and enable toggles in equal measure.
func (h *harness) churn(n int) {
	for range n {
		if len(h.live) == 0 {
			h.spawn()
			continue
		}
		i := h.rng.IntN(len(h.live))
		e := h.live[i]
		switch h.rng.IntN(4) {
		case 0:
			h.spawn()
		case 1:
			h.live[i] = h.live[len(h.live)-1]
			h.live = h.live[:len(h.live)-1]
			e.Dispose()
			h.disposed++
		case 2:
			c := h.comps[h.rng.IntN(len(h.comps))]
			var err error
			if e.Has(c) {
				err = e.Remove(c)
			} else {
				err = e.Add(c)
			}
			if err != nil {
				h.log.Error("mutate components", zap.Int("entity", e.ID()), zap.Error(err))
			}
			h.mutated++
		default:
			if err := e.SetEnabled(!e.IsEnabled()); err != nil {
				h.log.Error("toggle entity", zap.Int("entity", e.ID()), zap.Error(err))
			}
			h.toggled++
		}
	}
}

func touch(c ecs.Component, id int) {
	switch s := c.(type) {
	case *ecs.IntScalar:
		s.Add(id, 1)
	case *ecs.FloatScalar:
		s.Add(id, 0.5)
	case *ecs.IntPair:
		s.Add(id, 1, -1)
	case *ecs.FloatPair:
		s.Add(id, 0.25, -0.25)
	case *ecs.Mask:
		s.Or(id, 1<<uint(id%32))
	}
}
