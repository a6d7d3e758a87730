package ecs

import (
	"reflect"
	"time"

	"github.com/kamstrup/intmap"
)

// System handles a single concern, processing every entity it is interested in
// each tick. Interested must be a pure function of entity state: its answer may
// only change after a component add/remove or an Entity.DidChange call.
//
// A system may additionally implement Updater, Painter, AddHook and RemoveHook.
type System interface {
	Interested(e *Entity) bool
}

// Updater is implemented by systems that advance simulation state each tick.
type Updater interface {
	Update(clock Clock, active Entities)
}

// Painter is implemented by systems that interpolate simulation state into
// render-facing values. Paint must not add, change or remove entities.
type Painter interface {
	Paint(clock PaintClock, active Entities)
}

// AddHook is notified when an entity enters a system's active set.
type AddHook interface {
	WasAdded(e *Entity)
}

// RemoveHook is notified when an entity leaves a system's active set. index is
// the position it was removed from; the last active entity now occupies it,
// so a parallel slice can mirror the removal with the same swap.
type RemoveHook interface {
	WasRemoved(e *Entity, index int)
}

// Namer lets a system report its name for stats and debugging.
type Namer interface {
	Name() string
}

// SystemFuncs builds a system from closures. Nil functions are skipped.
type SystemFuncs struct {
	Label        string
	InterestedFn func(e *Entity) bool
	UpdateFn     func(clock Clock, active Entities)
	PaintFn      func(clock PaintClock, active Entities)
	AddedFn      func(e *Entity)
	RemovedFn    func(e *Entity, index int)
}

func (s *SystemFuncs) Name() string { return s.Label }

func (s *SystemFuncs) Interested(e *Entity) bool {
	return s.InterestedFn != nil && s.InterestedFn(e)
}

func (s *SystemFuncs) Update(clock Clock, active Entities) {
	if s.UpdateFn != nil {
		s.UpdateFn(clock, active)
	}
}

func (s *SystemFuncs) Paint(clock PaintClock, active Entities) {
	if s.PaintFn != nil {
		s.PaintFn(clock, active)
	}
}

func (s *SystemFuncs) WasAdded(e *Entity) {
	if s.AddedFn != nil {
		s.AddedFn(e)
	}
}

func (s *SystemFuncs) WasRemoved(e *Entity, index int) {
	if s.RemovedFn != nil {
		s.RemovedFn(e, index)
	}
}

// Registration is a system's membership in a world: its priority, bit index,
// enabled state and active entity set.
type Registration struct {
	world    *World
	system   System
	name     string
	index    int
	priority int
	enabled  bool
	active   activeSet

	updater Updater
	painter Painter
	added   AddHook
	removed RemoveHook

	stats systemStatsInternal
}

func newRegistration(w *World, sys System, priority, index int) *Registration {
	r := &Registration{
		world:    w,
		system:   sys,
		name:     systemName(sys),
		index:    index,
		priority: priority,
		enabled:  true,
		active:   newActiveSet(),
		stats:    newSystemStats(),
	}
	r.updater, _ = sys.(Updater)
	r.painter, _ = sys.(Painter)
	r.added, _ = sys.(AddHook)
	r.removed, _ = sys.(RemoveHook)
	return r
}

func systemName(sys System) string {
	if n, ok := sys.(Namer); ok && n.Name() != "" {
		return n.Name()
	}
	t := reflect.TypeOf(sys)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// System returns the registered system.
func (r *Registration) System() System { return r.system }

// Name returns the system's display name.
func (r *Registration) Name() string { return r.name }

// Index returns the system's bit position in every entity's system set.
func (r *Registration) Index() int { return r.index }

// Priority returns the system's priority. Higher priorities run first.
func (r *Registration) Priority() int { return r.priority }

// Enabled reports whether the system is processed each frame.
func (r *Registration) Enabled() bool { return r.enabled }

// SetEnabled enables or disables per-frame processing. A disabled system still
// tracks entity interest so its active set is current when re-enabled.
func (r *Registration) SetEnabled(enabled bool) { r.enabled = enabled }

// EntityCount returns the number of active entities.
func (r *Registration) EntityCount() int { return r.active.ids.Len() }

// EntityID returns the id of the i-th active entity.
func (r *Registration) EntityID(i int) int { return r.active.ids.Get(i) }

// Active returns a read-only view of the active entity ids.
func (r *Registration) Active() Entities { return &r.active.ids }

// Has reports whether e is in the active set.
func (r *Registration) Has(e *Entity) bool { return e.systems.IsSet(r.index) }

func (r *Registration) entityAdded(e *Entity) {
	if !e.systems.IsSet(r.index) && r.system.Interested(e) {
		r.addEntity(e)
	}
}

func (r *Registration) entityChanged(e *Entity) {
	wasAdded := e.systems.IsSet(r.index)
	interested := r.system.Interested(e)
	switch {
	case interested && !wasAdded:
		r.addEntity(e)
	case !interested && wasAdded:
		r.removeEntity(e)
	}
}

func (r *Registration) entityRemoved(e *Entity) {
	if e.systems.IsSet(r.index) {
		r.removeEntity(e)
	}
}

func (r *Registration) update(clock Clock, timed bool) {
	if !r.enabled || r.updater == nil {
		return
	}
	if !timed {
		r.updater.Update(clock, &r.active.ids)
		return
	}
	start := time.Now()
	r.updater.Update(clock, &r.active.ids)
	r.stats.recordUpdate(time.Since(start))
}

func (r *Registration) paint(clock PaintClock, timed bool) {
	if !r.enabled || r.painter == nil {
		return
	}
	if !timed {
		r.painter.Paint(clock, &r.active.ids)
		return
	}
	start := time.Now()
	r.painter.Paint(clock, &r.active.ids)
	r.stats.lastPaint = time.Since(start)
}

func (r *Registration) addEntity(e *Entity) {
	r.active.add(e.id)
	e.systems.Set(r.index)
	if r.added != nil {
		r.added.WasAdded(e)
	}
}

func (r *Registration) removeEntity(e *Entity) {
	idx := r.active.remove(e.id)
	e.systems.Clear(r.index)
	if r.removed != nil {
		r.removed.WasRemoved(e, idx)
	}
}

// activeSet is an IntBag of entity ids plus an index of each id's position,
// so removal by id is O(1) while keeping the bag's swap-with-last order.
type activeSet struct {
	ids IntBag
	pos *intmap.Map[int, int]
}

func newActiveSet() activeSet {
	return activeSet{
		ids: IntBag{elems: make([]int, 16)},
		pos: intmap.New[int, int](16),
	}
}

func (s *activeSet) add(id int) {
	s.pos.Put(id, s.ids.Len())
	s.ids.Add(id)
}

func (s *activeSet) remove(id int) int {
	idx, ok := s.pos.Get(id)
	if !ok {
		return NotFound
	}
	s.ids.RemoveAt(idx)
	s.pos.Del(id)
	if idx < s.ids.Len() {
		s.pos.Put(s.ids.Get(idx), idx)
	}
	return idx
}
