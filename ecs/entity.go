package ecs

import (
	"fmt"
	"iter"

	"go.uber.org/zap"
)

type entityFlags uint8

const (
	flagEnabled entityFlags = 1 << iota
	flagDisposed
	flagAdded
	flagChanging
	flagPendingAdd
	flagPendingRemove
)

// Ref is a generation-checked reference to an entity. Unlike a bare id it
// stops resolving once the entity is disposed and its id recycled.
type Ref struct {
	ID  int
	Gen uint32
}

// Entity is an identity plus the set of components it possesses and the set
// of systems currently processing it. Entities are created and owned by a World.
type Entity struct {
	world   *World
	id      int
	gen     uint32
	flags   entityFlags
	comps   BitVec
	systems BitVec
}

func newEntity(w *World, id int) *Entity {
	return &Entity{
		world:   w,
		id:      id,
		comps:   BitVec{words: make([]uint64, 1)},
		systems: BitVec{words: make([]uint64, 1)},
	}
}

// ID returns the entity's id. It is stable until the entity is disposed and
// may then be handed to a new entity.
func (e *Entity) ID() int { return e.id }

// World returns the world owning this entity.
func (e *Entity) World() *World { return e.world }

// Generation counts how many times this entity's id has been recycled.
func (e *Entity) Generation() uint32 { return e.gen }

// Ref returns a generation-checked reference to this entity.
func (e *Entity) Ref() Ref { return Ref{ID: e.id, Gen: e.gen} }

// IsEnabled reports whether the entity is enabled and not disposed.
func (e *Entity) IsEnabled() bool {
	return e.flags&(flagEnabled|flagDisposed) == flagEnabled
}

// IsDisposed reports whether Dispose has been called.
func (e *Entity) IsDisposed() bool { return e.flags&flagDisposed != 0 }

// IsAdded reports whether the world has processed the entity's addition and
// not yet processed a removal.
func (e *Entity) IsAdded() bool { return e.flags&flagAdded != 0 }

// SetEnabled enables or disables the entity. Disabling removes it from every
// system on the next update; enabling adds it back to every interested system.
func (e *Entity) SetEnabled(enabled bool) error {
	if e.flags&flagDisposed != 0 {
		return e.reject("enable", ErrDisposed)
	}
	wasEnabled := e.flags&flagEnabled != 0
	switch {
	case wasEnabled && !enabled:
		e.flags &^= flagEnabled
		e.world.queueRemove(e)
	case !wasEnabled && enabled:
		e.flags |= flagEnabled
		e.world.queueAdd(e)
	}
	return nil
}

// Has reports whether the entity possesses comp.
func (e *Entity) Has(comp Component) bool {
	return e.comps.IsSet(comp.ID())
}

// Add attaches the given components and queues the entity to be rechecked by
// every system on the next update.
func (e *Entity) Add(comps ...Component) error {
	if e.flags&flagDisposed != 0 {
		return e.reject("add components to", ErrDisposed)
	}
	for _, c := range comps {
		if c.World() != e.world {
			return e.reject("add "+c.Name()+" to", ErrForeignComponent)
		}
	}
	changed := false
	for _, c := range comps {
		if !e.comps.IsSet(c.ID()) {
			e.attach(c)
			changed = true
		}
	}
	if changed {
		e.queueChange()
	}
	return nil
}

// Remove detaches comp and queues the entity to be rechecked by every system
// on the next update. Removing a component the entity lacks is a no-op.
func (e *Entity) Remove(comp Component) error {
	if e.flags&flagDisposed != 0 {
		return e.reject("remove components from", ErrDisposed)
	}
	if comp.World() != e.world {
		return e.reject("remove "+comp.Name()+" from", ErrForeignComponent)
	}
	if !e.comps.IsSet(comp.ID()) {
		return nil
	}
	e.detach(comp)
	e.queueChange()
	return nil
}

// DidChange queues the entity to be rechecked by every system on the next
// update. Call it when something other than its component set changes a
// system's interest in it.
func (e *Entity) DidChange() error {
	if e.flags&flagDisposed != 0 {
		return e.reject("change", ErrDisposed)
	}
	e.queueChange()
	return nil
}

// Dispose removes the entity from the world on the next update, after which
// its components are detached and its id recycled. Repeated calls are no-ops.
func (e *Entity) Dispose() {
	if e.flags&flagDisposed != 0 {
		return
	}
	e.flags |= flagDisposed
	e.world.queueRemove(e)
}

// Close is an alias for Dispose so entities satisfy io.Closer.
func (e *Entity) Close() error {
	e.Dispose()
	return nil
}

// Components iterates the registration indices of the entity's components.
func (e *Entity) Components() iter.Seq[int] { return e.comps.Bits() }

// Systems iterates the registration indices of the systems processing the entity.
func (e *Entity) Systems() iter.Seq[int] { return e.systems.Bits() }

func (e *Entity) String() string {
	return fmt.Sprintf("[id=%d, sys=%v, comps=%v, flags=%b]", e.id, &e.systems, &e.comps, e.flags)
}

// queueChange marks the entity for a system interest recheck. Entities not
// yet added or currently disabled are skipped because they are rechecked
// when added, and entities already queued anywhere need no second entry.
func (e *Entity) queueChange() {
	if e.flags&(flagAdded|flagEnabled) != flagAdded|flagEnabled {
		return
	}
	if e.flags&(flagChanging|flagPendingAdd|flagPendingRemove) != 0 {
		return
	}
	e.flags |= flagChanging
	e.world.toChange.Add(e.id)
}

func (e *Entity) attach(c Component) {
	e.comps.Set(c.ID())
	c.init(e.id)
}

func (e *Entity) detach(c Component) {
	e.comps.Clear(c.ID())
	c.clear(e.id)
}

func (e *Entity) reset() {
	e.flags = 0
	e.comps.Reset()
	e.systems.Reset()
}

func (e *Entity) reject(op string, err error) error {
	e.world.log.Warn("rejected entity operation",
		zap.Int("entity", e.id),
		zap.String("op", op),
		zap.Error(err),
	)
	return &StateError{Entity: e.id, Op: op, Err: err}
}
