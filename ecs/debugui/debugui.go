// Package debugui renders Dear ImGui inspection panels for an ecs.World.
// Widgets live on entities as Item components and are drawn by a paint-phase
// system, so the backend frame must be open while the world paints.
//
// Paint must not mutate the world, so widgets record edits with
// Overlay.Defer and the overlay applies them on its next update.
package debugui

import (
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/klayecs/ecs"
	"go.uber.org/zap"
)

// ItemComponent is the name the Item store is registered under.
const ItemComponent = "debugui.item"

// Item holds a Dear ImGui render function.
// Attach it to entities that should render ImGui widgets each frame.
type Item struct {
	Render func()
}

// InputState records whether Dear ImGui is consuming mouse or keyboard input.
type InputState struct {
	WantCaptureMouse    bool
	WantCaptureKeyboard bool
}

// Overlay is the system that calls every Item's render function during Paint.
type Overlay struct {
	world *ecs.World
	items *ecs.Generic[Item]
	reg   *ecs.Registration
	input InputState
	clock ecs.PaintClock
	log   *zap.Logger

	pending      []func()
	captureInput func() InputState
}

// Install registers the Item component and the overlay system with w.
func Install(w *ecs.World, priority int) *Overlay {
	o := &Overlay{
		world:        w,
		items:        ecs.NewGeneric[Item](w, ItemComponent),
		log:          w.Logger().Named("debugui"),
		captureInput: currentInput,
	}
	o.reg = w.Register(o, priority)
	return o
}

func currentInput() InputState {
	io := imgui.CurrentIO()
	return InputState{
		WantCaptureMouse:    io.WantCaptureMouse(),
		WantCaptureKeyboard: io.WantCaptureKeyboard(),
	}
}

func (o *Overlay) Name() string { return "debugui" }

func (o *Overlay) Interested(e *ecs.Entity) bool { return e.Has(o.items) }

// Paint updates the input state and renders every item.
func (o *Overlay) Paint(clock ecs.PaintClock, active ecs.Entities) {
	o.clock = clock
	o.input = o.captureInput()
	for i := range active.Len() {
		if render := o.items.Get(active.Get(i)).Render; render != nil {
			render()
		}
	}
}

// Update applies the edits deferred since the previous update.
func (o *Overlay) Update(clock ecs.Clock, active ecs.Entities) {
	pending := o.pending
	o.pending = nil
	for _, fn := range pending {
		fn()
	}
}

// Defer queues fn to run on the overlay's next update. Widgets call it from
// their render functions instead of changing the world during Paint.
func (o *Overlay) Defer(fn func()) {
	o.pending = append(o.pending, fn)
}

// Pending returns the number of deferred edits waiting for an update.
func (o *Overlay) Pending() int { return len(o.pending) }

// Spawn creates an enabled entity rendering fn each frame.
func (o *Overlay) Spawn(fn func()) *ecs.Entity {
	e := o.world.Create(true)
	if err := e.Add(o.items); err != nil {
		o.log.Warn("attach item", zap.Int("entity", e.ID()), zap.Error(err))
		return e
	}
	o.items.Set(e.ID(), Item{Render: fn})
	return e
}

// Input returns the capture state read at the most recent paint.
func (o *Overlay) Input() InputState { return o.input }

// Items returns the Item component store.
func (o *Overlay) Items() *ecs.Generic[Item] { return o.items }

// Registration returns the overlay's system registration, for toggling it.
func (o *Overlay) Registration() *ecs.Registration { return o.reg }

// World returns the inspected world.
func (o *Overlay) World() *ecs.World { return o.world }
