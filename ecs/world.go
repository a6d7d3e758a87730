package ecs

import (
	"fmt"
	"iter"
	"slices"

	"go.uber.org/zap"
)

// World owns a set of entities, the component stores describing them and the
// systems processing them. Entity mutations are queued and applied at the start
// of the next Update, in a fixed order: newly registered systems are told about
// existing entities, then queued additions, changes and removals are delivered
// to every system, and finally every enabled system is updated.
//
// A World is not safe for concurrent use.
type World struct {
	log   *zap.Logger
	timed bool

	entities []*Entity
	free     IntBag
	nextID   int

	comps       []Component
	compsByName map[string]Component

	// systems is kept in processing order and replaced, never edited in place,
	// so registration during a frame does not disturb the loop in progress.
	systems []*Registration
	toInit  []*Registration

	toAdd    IntBag
	toChange IntBag
	toRemove IntBag
	batch    IntBag

	onAdded   signal
	onChanged signal
	onRemoved signal

	updates int64
}

// Option configures a World.
type Option func(*World)

// WithLogger sets the logger used for registration and rejected operations.
func WithLogger(log *zap.Logger) Option {
	return func(w *World) {
		if log != nil {
			w.log = log
		}
	}
}

// WithEntityCapacity sets the initial size of the entity table.
func WithEntityCapacity(n int) Option {
	return func(w *World) {
		if n > 0 {
			w.entities = make([]*Entity, n)
		}
	}
}

// WithStats enables or disables per-system timing. It is enabled by default.
func WithStats(enabled bool) Option {
	return func(w *World) {
		w.timed = enabled
	}
}

// NewWorld creates an empty world.
func NewWorld(opts ...Option) *World {
	w := &World{
		log:         zap.NewNop(),
		timed:       true,
		entities:    make([]*Entity, 64),
		nextID:      1,
		compsByName: make(map[string]Component),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Create returns a new entity, reusing a recycled id when one is available.
// An enabled entity is queued for addition on the next update; a disabled one
// stays dormant until Entity.SetEnabled enables it.
func (w *World) Create(enabled bool) *Entity {
	var e *Entity
	if !w.free.IsEmpty() {
		id := w.free.RemoveLast()
		if e = w.entities[id]; e != nil {
			e.reset()
		} else {
			e = w.put(id)
		}
	} else {
		e = w.put(w.nextID)
		w.nextID++
	}
	if enabled {
		e.flags |= flagEnabled
		w.queueAdd(e)
	}
	return e
}

// Restore creates a disabled entity with an externally supplied id and attaches
// the components whose bits are set in components, without queuing any change.
// It is meant for rebuilding persisted entities before systems observe them;
// enable the entity afterwards to add it to the world.
//
// Restore panics if id is not positive or is held by an entity that has not
// been disposed and removed.
func (w *World) Restore(id int, components *BitVec) *Entity {
	if id <= 0 {
		panic(fmt.Sprintf("ecs: invalid entity id %d", id))
	}
	if id < w.nextID {
		if w.free.Remove(id) == NotFound {
			panic(fmt.Sprintf("ecs: entity already exists with id %d", id))
		}
	} else {
		for gap := w.nextID; gap < id; gap++ {
			w.free.Add(gap)
		}
		w.nextID = id + 1
	}

	w.ensureCapacity(id)
	e := w.entities[id]
	if e != nil {
		e.reset()
	} else {
		e = w.put(id)
	}
	for bit := range components.Bits() {
		if bit < len(w.comps) {
			e.attach(w.comps[bit])
		}
	}
	w.log.Debug("restored entity", zap.Int("entity", id), zap.Stringer("components", &e.comps))
	return e
}

// Available reports whether Restore would accept id: it is positive and not
// held by a live entity or one awaiting removal.
func (w *World) Available(id int) bool {
	if id <= 0 {
		return false
	}
	return id >= w.nextID || w.free.Contains(id)
}

// Entity returns the entity with the given id. It does not validate id: an id
// never issued by this world may panic or return a disposed entity.
func (w *World) Entity(id int) *Entity {
	return w.entities[id]
}

// Lookup returns the live entity with the given id, or false if id was never
// issued or its entity has been disposed.
func (w *World) Lookup(id int) (*Entity, bool) {
	if id <= 0 || id >= len(w.entities) {
		return nil, false
	}
	e := w.entities[id]
	if e == nil || e.IsDisposed() {
		return nil, false
	}
	return e, true
}

// Resolve returns the entity ref points to, or false if that entity has been
// disposed or its id recycled.
func (w *World) Resolve(ref Ref) (*Entity, bool) {
	if ref.ID <= 0 || ref.ID >= len(w.entities) {
		return nil, false
	}
	e := w.entities[ref.ID]
	if e == nil || e.gen != ref.Gen || e.IsDisposed() {
		return nil, false
	}
	return e, true
}

// Entities iterates every entity that exists and is not disposed.
func (w *World) Entities() iter.Seq[*Entity] {
	return func(yield func(*Entity) bool) {
		for _, e := range w.entities {
			if e == nil || e.IsDisposed() {
				continue
			}
			if !yield(e) {
				return
			}
		}
	}
}

// Register adds sys to the world with the given priority. Systems with higher
// priority are notified and processed first; systems with equal priority run
// in registration order. The system learns about existing entities on the
// next update.
func (w *World) Register(sys System, priority int) *Registration {
	if sys == nil {
		panic("ecs: cannot register nil system")
	}

	pos := 0
	for i := len(w.systems) - 1; i >= 0; i-- {
		if w.systems[i].priority >= priority {
			pos = i + 1
			break
		}
	}

	r := newRegistration(w, sys, priority, len(w.systems))
	systems := make([]*Registration, 0, len(w.systems)+1)
	systems = append(systems, w.systems[:pos]...)
	systems = append(systems, r)
	systems = append(systems, w.systems[pos:]...)
	w.systems = systems
	w.toInit = append(w.toInit, r)

	w.log.Debug("registered system",
		zap.String("system", r.name),
		zap.Int("index", r.index),
		zap.Int("priority", priority),
	)
	return r
}

// Logger returns the logger the world was built with.
func (w *World) Logger() *zap.Logger { return w.log }

// Systems returns the registered systems in processing order.
func (w *World) Systems() []*Registration {
	return slices.Clone(w.systems)
}

// Component returns the component registered at index.
func (w *World) Component(index int) (Component, bool) {
	if index < 0 || index >= len(w.comps) {
		return nil, false
	}
	return w.comps[index], true
}

// ComponentByName returns the component registered under name.
func (w *World) ComponentByName(name string) (Component, bool) {
	c, ok := w.compsByName[name]
	return c, ok
}

// Components returns every component in registration order.
func (w *World) Components() []Component {
	return slices.Clone(w.comps)
}

// OnAdded calls fn after each entity addition is delivered to the systems.
// The returned function disconnects fn.
func (w *World) OnAdded(fn func(*Entity)) (disconnect func()) { return w.onAdded.connect(fn) }

// OnChanged calls fn after each entity change is delivered to the systems.
func (w *World) OnChanged(fn func(*Entity)) (disconnect func()) { return w.onChanged.connect(fn) }

// OnRemoved calls fn after each entity removal is delivered to the systems,
// for disabled as well as disposed entities.
func (w *World) OnRemoved(fn func(*Entity)) (disconnect func()) { return w.onRemoved.connect(fn) }

// Update applies every queued entity mutation and then updates each enabled
// system in priority order. Mutations made while a queue is being drained are
// applied by a later phase of this update or by the next update, never by the
// phase that caused them.
func (w *World) Update(clock Clock) {
	w.updates++

	if len(w.toInit) > 0 {
		pending := w.toInit
		w.toInit = nil
		for i := len(pending) - 1; i >= 0; i-- {
			r := pending[i]
			for _, e := range w.entities {
				// entities still in toAdd reach every system below
				if e == nil || !e.IsEnabled() || !e.IsAdded() {
					continue
				}
				r.entityAdded(e)
			}
		}
	}

	batch := w.takeQueue(&w.toAdd)
	for !batch.IsEmpty() {
		e := w.entities[batch.RemoveLast()]
		if e.flags&flagPendingAdd == 0 {
			continue
		}
		// mark added first so changes made by systems below queue a recheck
		e.flags = e.flags&^flagPendingAdd | flagAdded
		for _, r := range w.systems {
			r.entityAdded(e)
		}
		w.onAdded.emit(e)
	}

	batch = w.takeQueue(&w.toChange)
	for !batch.IsEmpty() {
		e := w.entities[batch.RemoveLast()]
		if e.flags&flagChanging == 0 {
			continue
		}
		e.flags &^= flagChanging
		for _, r := range w.systems {
			r.entityChanged(e)
		}
		w.onChanged.emit(e)
	}

	batch = w.takeQueue(&w.toRemove)
	for !batch.IsEmpty() {
		e := w.entities[batch.RemoveLast()]
		if e.flags&flagPendingRemove == 0 {
			continue
		}
		e.flags &^= flagPendingRemove
		// a dispose issued by the callbacks below queues another removal
		disposed := e.IsDisposed()
		for _, r := range w.systems {
			r.entityRemoved(e)
		}
		w.onRemoved.emit(e)
		e.flags &^= flagAdded
		if disposed {
			for bit := range e.comps.Bits() {
				e.detach(w.comps[bit])
			}
			e.gen++
			w.free.Add(e.id)
		}
	}

	for _, r := range w.systems {
		r.update(clock, w.timed)
	}
}

// Paint paints each enabled system in priority order.
func (w *World) Paint(clock PaintClock) {
	for _, r := range w.systems {
		r.paint(clock, w.timed)
	}
}

// takeQueue swaps the contents of q into the drain batch and returns it, so
// entries queued while draining land in q for a later pass.
func (w *World) takeQueue(q *IntBag) *IntBag {
	w.batch, *q = *q, w.batch
	return &w.batch
}

func (w *World) queueAdd(e *Entity) {
	if e.flags&flagPendingRemove != 0 {
		// still known to its systems: cancel the removal and recheck instead
		w.toRemove.Remove(e.id)
		e.flags &^= flagPendingRemove
		e.queueChange()
		return
	}
	e.flags |= flagPendingAdd
	w.toAdd.Add(e.id)
}

func (w *World) queueRemove(e *Entity) {
	if e.flags&flagPendingAdd != 0 {
		w.toAdd.Remove(e.id)
		e.flags &^= flagPendingAdd
		if e.flags&flagDisposed == 0 {
			return
		}
	}
	if e.flags&flagChanging != 0 {
		w.toChange.Remove(e.id)
		e.flags &^= flagChanging
	}
	if e.flags&flagPendingRemove != 0 {
		return
	}
	e.flags |= flagPendingRemove
	w.toRemove.Add(e.id)
}

func (w *World) registerComponent(c Component) int {
	name := c.Name()
	if name == "" {
		panic("ecs: component name must not be empty")
	}
	if _, exists := w.compsByName[name]; exists {
		panic("ecs: component " + name + " already registered")
	}
	w.comps = append(w.comps, c)
	w.compsByName[name] = c
	index := len(w.comps) - 1
	w.log.Debug("registered component",
		zap.String("component", name),
		zap.Int("index", index),
		zap.Stringer("kind", c.Kind()),
	)
	return index
}

func (w *World) ensureCapacity(id int) {
	if id < len(w.entities) {
		return
	}
	n := max(len(w.entities)*2, 1)
	for n <= id {
		n *= 2
	}
	grown := make([]*Entity, n)
	copy(grown, w.entities)
	w.entities = grown
}

func (w *World) put(id int) *Entity {
	w.ensureCapacity(id)
	e := newEntity(w, id)
	w.entities[id] = e
	return e
}

type slot struct {
	fn func(*Entity)
}

// signal is a list of entity listeners. Connecting and disconnecting replace
// the list so emission in progress sees a stable set.
type signal struct {
	slots []*slot
}

func (s *signal) connect(fn func(*Entity)) func() {
	sl := &slot{fn: fn}
	s.slots = append(slices.Clip(s.slots), sl)
	return func() {
		s.slots = slices.DeleteFunc(slices.Clone(s.slots), func(other *slot) bool {
			return other == sl
		})
	}
}

func (s *signal) emit(e *Entity) {
	for _, sl := range s.slots {
		sl.fn(e)
	}
}
