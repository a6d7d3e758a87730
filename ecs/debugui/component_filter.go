package debugui

import (
	"fmt"
	"strconv"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/klayecs/ecs"
)

const maxFilterRows = 200

// ComponentFilter lists the entities possessing every selected component.
type ComponentFilter struct {
	world    *ecs.World
	selected map[string]bool
}

func NewComponentFilter(w *ecs.World) *ComponentFilter {
	return &ComponentFilter{
		world:    w,
		selected: make(map[string]bool),
	}
}

// Render draws the filter and reports an entity the user clicked this frame.
func (cf *ComponentFilter) Render() (int, bool) {
	if !imgui.BeginV("Component Filter", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return 0, false
	}

	imgui.Text("Select Components:")
	imgui.Separator()

	if imgui.Button("Clear All") {
		clear(cf.selected)
	}

	for _, c := range cf.world.Components() {
		name := c.Name()
		selected := cf.selected[name]
		if imgui.Checkbox(name, &selected) {
			cf.Toggle(name, selected)
		}
	}

	imgui.Separator()

	required := cf.Required()
	if len(required) == 0 {
		imgui.Text("No components selected")
		imgui.End()
		return 0, false
	}

	matching := MatchEntities(cf.world, required)
	imgui.Text(fmt.Sprintf("Matching Entities: %d", len(matching)))

	clicked := 0
	if imgui.TreeNodeStr("Entities") {
		const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg
		if imgui.BeginTableV("FilterTable", 2, tableFlags, imgui.NewVec2(0, 0), 0) {
			imgui.TableSetupColumn("Entity ID")
			imgui.TableSetupColumn("Systems")
			imgui.TableHeadersRow()

			for _, e := range matching[:min(len(matching), maxFilterRows)] {
				imgui.TableNextRow()

				imgui.TableSetColumnIndex(0)
				if imgui.SelectableBoolV(strconv.Itoa(e.ID()), false, imgui.SelectableFlagsNone, imgui.NewVec2(0, 0)) {
					clicked = e.ID()
				}

				imgui.TableSetColumnIndex(1)
				n := 0
				for range e.Systems() {
					n++
				}
				imgui.Text(strconv.Itoa(n))
			}

			imgui.EndTable()
		}
		if len(matching) > maxFilterRows {
			imgui.Text(fmt.Sprintf("... and %d more", len(matching)-maxFilterRows))
		}
		imgui.TreePop()
	}

	imgui.End()
	return clicked, clicked != 0
}

func (cf *ComponentFilter) Toggle(name string, selected bool) {
	if selected {
		cf.selected[name] = true
	} else {
		delete(cf.selected, name)
	}
}

// Required returns the selected components in registration order.
func (cf *ComponentFilter) Required() []ecs.Component {
	var required []ecs.Component
	for _, c := range cf.world.Components() {
		if cf.selected[c.Name()] {
			required = append(required, c)
		}
	}
	return required
}

// MatchEntities returns the live entities possessing every component in required.
func MatchEntities(w *ecs.World, required []ecs.Component) []*ecs.Entity {
	var matching []*ecs.Entity
	for e := range w.Entities() {
		if hasAll(e, required) {
			matching = append(matching, e)
		}
	}
	return matching
}

func hasAll(e *ecs.Entity, required []ecs.Component) bool {
	for _, c := range required {
		if !e.Has(c) {
			return false
		}
	}
	return true
}
