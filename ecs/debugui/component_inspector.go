package debugui

import (
	"fmt"
	"reflect"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/klayecs/ecs"
	"go.uber.org/zap"
)

// valueStore is satisfied by every ecs.Generic instantiation.
type valueStore interface {
	Any(entityID int) any
	ValueType() reflect.Type
}

// ComponentInspector shows and edits the component values of one entity.
// Edits go to deferEdit and take effect when it runs them, normally from
// Overlay.Defer.
type ComponentInspector struct {
	world     *ecs.World
	deferEdit func(func())
	log       *zap.Logger
}

func NewComponentInspector(w *ecs.World, deferEdit func(func())) *ComponentInspector {
	return &ComponentInspector{
		world:     w,
		deferEdit: deferEdit,
		log:       w.Logger().Named("debugui"),
	}
}

func (ci *ComponentInspector) Render(entityID int) {
	if !imgui.BeginV("Component Inspector", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	e := ci.lookup(entityID)
	if e == nil {
		if entityID == 0 {
			imgui.Text("No entity selected")
		} else {
			imgui.Text(fmt.Sprintf("Entity %d not found", entityID))
		}
		imgui.End()
		return
	}

	ref := e.Ref()
	imgui.Text(fmt.Sprintf("Entity ID: %d (gen %d)", e.ID(), e.Generation()))
	enabled := e.IsEnabled()
	if imgui.Checkbox("Enabled", &enabled) {
		ci.edit(ref, nil, func(e *ecs.Entity) { ci.setEnabled(e, enabled) })
	}
	imgui.SameLine()
	if imgui.Button("Dispose") {
		ci.edit(ref, nil, (*ecs.Entity).Dispose)
	}
	imgui.Separator()

	for idx := range e.Components() {
		c, ok := ci.world.Component(idx)
		if !ok {
			continue
		}
		if imgui.TreeNodeStr(fmt.Sprintf("%s (%s)", c.Name(), c.Kind())) {
			ci.renderComponent(c, e.ID(), func(fn func()) {
				ci.edit(ref, c, func(*ecs.Entity) { fn() })
			})
			imgui.TreePop()
		}
	}

	imgui.End()
}

// lookup resolves entityID to a live entity without panicking on stale ids.
func (ci *ComponentInspector) lookup(entityID int) *ecs.Entity {
	e, ok := ci.world.Lookup(entityID)
	if !ok {
		return nil
	}
	return e
}

// edit defers fn until the overlay updates. fn is dropped if the entity has
// been disposed by then, or if comp is non-nil and has been removed from it.
func (ci *ComponentInspector) edit(ref ecs.Ref, comp ecs.Component, fn func(*ecs.Entity)) {
	ci.deferEdit(func() {
		e, ok := ci.world.Resolve(ref)
		if !ok || (comp != nil && !e.Has(comp)) {
			return
		}
		fn(e)
	})
}

func (ci *ComponentInspector) setEnabled(e *ecs.Entity, enabled bool) {
	if err := e.SetEnabled(enabled); err != nil {
		ci.log.Warn("set enabled", zap.Int("entity", e.ID()), zap.Bool("enabled", enabled), zap.Error(err))
	}
}

func (ci *ComponentInspector) renderComponent(c ecs.Component, id int, set func(func())) {
	switch store := c.(type) {
	case *ecs.IntScalar:
		v := store.Get(id)
		if inputInt("value", &v) {
			set(func() { store.Set(id, v) })
		}
	case *ecs.FloatScalar:
		v := store.Get(id)
		if inputFloat("value", &v) {
			set(func() { store.Set(id, v) })
		}
	case *ecs.IntPair:
		x, y := store.Get(id)
		if inputInt("x", &x) {
			set(func() { store.SetX(id, x) })
		}
		if inputInt("y", &y) {
			set(func() { store.SetY(id, y) })
		}
	case *ecs.FloatPair:
		x, y := store.Get(id)
		if inputFloat("x", &x) {
			set(func() { store.SetX(id, x) })
		}
		if inputFloat("y", &y) {
			set(func() { store.SetY(id, y) })
		}
	case *ecs.Mask:
		bits := store.Get(id)
		imgui.Text(fmt.Sprintf("bits: %032b", bits))
		v := int32(bits)
		if inputInt("value", &v) {
			set(func() { store.Set(id, uint32(v)) })
		}
	case valueStore:
		val := reflect.ValueOf(store.Any(id)).Elem()
		renderValue("value", val, set)
	default:
		imgui.Text(fmt.Sprintf("%T", c))
	}
}

func inputInt(name string, v *int32) bool {
	imgui.Text(name + ":")
	imgui.SameLine()
	imgui.SetNextItemWidth(150)
	return imgui.InputInt("##"+name, v)
}

func inputFloat(name string, v *float32) bool {
	imgui.Text(name + ":")
	imgui.SameLine()
	imgui.SetNextItemWidth(150)
	return imgui.InputFloat("##"+name, v)
}

// renderValue draws val and passes edits to set, which writes them back
// through val later. val is addressable because it comes from a pointer into
// the component store.
func renderValue(name string, val reflect.Value, set func(func())) {
	if !val.IsValid() {
		imgui.Text(fmt.Sprintf("%s: <invalid>", name))
		return
	}

	switch val.Kind() {
	case reflect.Pointer, reflect.Interface:
		if val.IsNil() {
			imgui.Text(fmt.Sprintf("%s: nil", name))
			return
		}
		renderValue(name, val.Elem(), set)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v := int32(val.Int())
		if inputInt(name, &v) {
			set(func() { assignInt(val, int64(v)) })
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v := int32(val.Uint())
		if inputInt(name, &v) && v >= 0 {
			set(func() { assignUint(val, uint64(v)) })
		}

	case reflect.Float32, reflect.Float64:
		v := float32(val.Float())
		if inputFloat(name, &v) {
			set(func() { assignFloat(val, float64(v)) })
		}

	case reflect.Bool:
		v := val.Bool()
		if imgui.Checkbox(name, &v) && val.CanSet() {
			set(func() { val.SetBool(v) })
		}

	case reflect.String:
		v := val.String()
		imgui.Text(name + ":")
		imgui.SameLine()
		imgui.SetNextItemWidth(200)
		if imgui.InputTextWithHint("##"+name, "", &v, imgui.InputTextFlagsNone, nil) && val.CanSet() {
			set(func() { val.SetString(v) })
		}

	case reflect.Struct:
		if imgui.TreeNodeStr(name) {
			for _, field := range globalReflectionCache.GetFields(val.Type()) {
				if field.ReadOnly {
					imgui.Text(fmt.Sprintf("%s: %v", field.Name, val.Field(field.Index).Interface()))
					continue
				}
				renderValue(field.Name, val.Field(field.Index), set)
			}
			imgui.TreePop()
		}

	case reflect.Slice, reflect.Array:
		imgui.Text(fmt.Sprintf("%s: [%d items]", name, val.Len()))

	case reflect.Map:
		imgui.Text(fmt.Sprintf("%s: map[%d items]", name, val.Len()))

	case reflect.Func:
		imgui.Text(fmt.Sprintf("%s: func", name))

	default:
		imgui.Text(fmt.Sprintf("%s: %v", name, val.Interface()))
	}
}

// assignInt stores n into an addressable signed integer value. It reports
// false and leaves val untouched if val is read-only or n overflows it.
func assignInt(val reflect.Value, n int64) bool {
	if !val.CanSet() || val.OverflowInt(n) {
		return false
	}
	val.SetInt(n)
	return true
}

func assignUint(val reflect.Value, n uint64) bool {
	if !val.CanSet() || val.OverflowUint(n) {
		return false
	}
	val.SetUint(n)
	return true
}

func assignFloat(val reflect.Value, f float64) bool {
	if !val.CanSet() || val.OverflowFloat(f) {
		return false
	}
	val.SetFloat(f)
	return true
}
