package debugui

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/klayecs/ecs"
)

type SystemInfo struct {
	Index       int
	Name        string
	Priority    int
	Enabled     bool
	ActiveCount int
	AvgMillis   float64
}

// SystemViewer tables the world's systems with their active entity counts and
// update timings, and lets each system be switched on and off.
type SystemViewer struct {
	world         *ecs.World
	rows          []SystemInfo
	selected      int
	sortColumn    int
	sortAscending bool
}

func NewSystemViewer(w *ecs.World) *SystemViewer {
	return &SystemViewer{
		world:      w,
		selected:   ecs.NotFound,
		sortColumn: -1,
	}
}

// Render draws the viewer and reports the registration index of a system the
// user clicked this frame.
func (sv *SystemViewer) Render() (int, bool) {
	if !imgui.BeginV("System Viewer", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return 0, false
	}

	sv.refresh()

	maxActive := 0
	for _, sys := range sv.rows {
		maxActive = max(maxActive, sys.ActiveCount)
	}

	clicked := ecs.NotFound
	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsSortable | imgui.TableFlagsScrollY
	if imgui.BeginTableV("SystemTable", 5, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("System")
		imgui.TableSetupColumn("Priority")
		imgui.TableSetupColumn("Enabled")
		imgui.TableSetupColumn("Avg (ms)")
		imgui.TableSetupColumn("Entities")
		imgui.TableHeadersRow()

		sortSpecs := imgui.TableGetSortSpecs()
		if sortSpecs.SpecsDirty() && sortSpecs.SpecsCount() > 0 {
			spec := sortSpecs.Specs()
			sv.SortBy(int(spec.ColumnIndex()), spec.SortDirection() == imgui.SortDirectionAscending)
			sortSpecs.SetSpecsDirty(false)
		}

		regs := sv.world.Systems()
		for _, sys := range sv.rows {
			imgui.TableNextRow()

			imgui.TableNextColumn()
			if imgui.SelectableBoolV(fmt.Sprintf("%s##%d", sys.Name, sys.Index), sv.selected == sys.Index, imgui.SelectableFlagsNone, imgui.NewVec2(0, 0)) {
				sv.selected = sys.Index
				clicked = sys.Index
			}

			imgui.TableNextColumn()
			imgui.Text(strconv.Itoa(sys.Priority))

			imgui.TableNextColumn()
			enabled := sys.Enabled
			if imgui.Checkbox(fmt.Sprintf("##enabled%d", sys.Index), &enabled) {
				if r := findRegistration(regs, sys.Index); r != nil {
					r.SetEnabled(enabled)
				}
			}

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%.3f", sys.AvgMillis))

			imgui.TableNextColumn()
			imgui.Text(strconv.Itoa(sys.ActiveCount))

			if maxActive > 0 {
				barWidth := float32(sys.ActiveCount) / float32(maxActive) * 80.0
				imgui.SameLine()
				drawList := imgui.WindowDrawList()
				pos := imgui.CursorScreenPos()
				color := imgui.ColorU32Vec4(imgui.NewVec4(0.2, 0.6, 0.8, 0.6))
				drawList.AddRectFilled(pos, imgui.NewVec2(pos.X+barWidth, pos.Y+10), color)
			}
		}

		imgui.EndTable()
	}

	imgui.End()
	return clicked, clicked != ecs.NotFound
}

func findRegistration(regs []*ecs.Registration, index int) *ecs.Registration {
	for _, r := range regs {
		if r.Index() == index {
			return r
		}
	}
	return nil
}

// refresh rebuilds the rows from the world's stats, keeping the chosen order.
func (sv *SystemViewer) refresh() {
	stats := sv.world.Stats()
	sv.rows = sv.rows[:0]
	for _, s := range stats.Systems {
		sv.rows = append(sv.rows, SystemInfo{
			Index:       s.Index,
			Name:        s.Name,
			Priority:    s.Priority,
			Enabled:     s.Enabled,
			ActiveCount: s.ActiveCount,
			AvgMillis:   float64(s.AvgDuration.Microseconds()) / 1000,
		})
	}
	sv.sortRows()
}

// SortBy orders the rows by the given table column. A negative column keeps
// processing order.
func (sv *SystemViewer) SortBy(column int, ascending bool) {
	sv.sortColumn = column
	sv.sortAscending = ascending
	sv.sortRows()
}

func (sv *SystemViewer) sortRows() {
	if sv.sortColumn < 0 {
		return
	}
	less := func(a, b SystemInfo) bool {
		switch sv.sortColumn {
		case 0:
			return a.Name < b.Name
		case 1:
			return a.Priority < b.Priority
		case 2:
			return !a.Enabled && b.Enabled
		case 3:
			return a.AvgMillis < b.AvgMillis
		default:
			return a.ActiveCount < b.ActiveCount
		}
	}
	sort.SliceStable(sv.rows, func(i, j int) bool {
		if sv.sortAscending {
			return less(sv.rows[i], sv.rows[j])
		}
		return less(sv.rows[j], sv.rows[i])
	})
}

// Rows returns the rows built by the most recent render or Refresh.
func (sv *SystemViewer) Rows() []SystemInfo { return sv.rows }

// Refresh rebuilds the rows without rendering.
func (sv *SystemViewer) Refresh() { sv.refresh() }
