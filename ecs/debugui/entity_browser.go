package debugui

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/klayecs/ecs"
)

type EntityInfo struct {
	ID         int
	Generation uint32
	Enabled    bool
	Added      bool
	Components []string
	Systems    []int
}

func (info EntityInfo) state() string {
	switch {
	case info.Added && info.Enabled:
		return "active"
	case info.Added:
		return "leaving"
	case info.Enabled:
		return "pending"
	default:
		return "disabled"
	}
}

// EntityBrowser lists the world's entities in a sortable, filterable,
// paginated table. The listing is rebuilt after the world reports additions,
// changes or removals, or when Refresh is called.
type EntityBrowser struct {
	world      *ecs.World
	rows       []EntityInfo
	dirty      bool
	disconnect []func()

	selected           int
	filterText         string
	filterSystem       int
	maxEntitiesPerPage int
	currentPage        int
	sortColumn         int
	sortAscending      bool
}

func NewEntityBrowser(w *ecs.World, maxEntitiesPerPage int) *EntityBrowser {
	eb := &EntityBrowser{
		world:              w,
		dirty:              true,
		filterSystem:       ecs.NotFound,
		maxEntitiesPerPage: max(maxEntitiesPerPage, 1),
		sortAscending:      true,
	}
	mark := func(*ecs.Entity) { eb.dirty = true }
	eb.disconnect = []func(){
		w.OnAdded(mark),
		w.OnChanged(mark),
		w.OnRemoved(mark),
	}
	return eb
}

func (eb *EntityBrowser) Render() {
	if !imgui.BeginV("Entity Browser", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	eb.rebuildIfNeeded()

	imgui.InputTextWithHint("##search", "Search...", &eb.filterText, imgui.InputTextFlagsNone, nil)
	imgui.SameLine()
	if imgui.Button("Clear Filter") {
		eb.filterText = ""
		eb.filterSystem = ecs.NotFound
		eb.currentPage = 0
	}
	imgui.SameLine()
	if imgui.Button("Refresh") {
		eb.Refresh()
	}
	if eb.filterSystem != ecs.NotFound {
		imgui.Text(fmt.Sprintf("Showing entities of system #%d", eb.filterSystem))
	}

	filtered := eb.Filtered()

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsSortable | imgui.TableFlagsScrollY
	if imgui.BeginTableV("EntityTable", 5, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("Entity ID")
		imgui.TableSetupColumn("Gen")
		imgui.TableSetupColumn("State")
		imgui.TableSetupColumn("Components")
		imgui.TableSetupColumn("Systems")
		imgui.TableHeadersRow()

		sortSpecs := imgui.TableGetSortSpecs()
		if sortSpecs.SpecsDirty() && sortSpecs.SpecsCount() > 0 {
			spec := sortSpecs.Specs()
			eb.SortBy(int(spec.ColumnIndex()), spec.SortDirection() == imgui.SortDirectionAscending)
			filtered = eb.Filtered()
			sortSpecs.SetSpecsDirty(false)
		}

		startIdx := min(eb.currentPage*eb.maxEntitiesPerPage, len(filtered))
		endIdx := min(startIdx+eb.maxEntitiesPerPage, len(filtered))

		for _, entity := range filtered[startIdx:endIdx] {
			imgui.TableNextRow()

			imgui.TableNextColumn()
			if imgui.SelectableBoolV(strconv.Itoa(entity.ID), eb.selected == entity.ID, imgui.SelectableFlagsSpanAllColumns, imgui.NewVec2(0, 0)) {
				eb.selected = entity.ID
			}

			imgui.TableNextColumn()
			imgui.Text(strconv.FormatUint(uint64(entity.Generation), 10))

			imgui.TableNextColumn()
			imgui.Text(entity.state())

			imgui.TableNextColumn()
			imgui.Text(strings.Join(entity.Components, ", "))

			imgui.TableNextColumn()
			imgui.Text(strconv.Itoa(len(entity.Systems)))
		}

		imgui.EndTable()
	}

	if len(filtered) > eb.maxEntitiesPerPage {
		totalPages := (len(filtered) + eb.maxEntitiesPerPage - 1) / eb.maxEntitiesPerPage
		imgui.Text(fmt.Sprintf("Page %d / %d (%d entities)", eb.currentPage+1, totalPages, len(filtered)))
		imgui.SameLine()
		if imgui.Button("Prev") && eb.currentPage > 0 {
			eb.currentPage--
		}
		imgui.SameLine()
		if imgui.Button("Next") && eb.currentPage < totalPages-1 {
			eb.currentPage++
		}
	} else {
		imgui.Text(fmt.Sprintf("Total: %d entities", len(filtered)))
	}

	imgui.End()
}

// Refresh forces the listing to be rebuilt on the next render.
func (eb *EntityBrowser) Refresh() { eb.dirty = true }

// Selected returns the selected entity id, or 0 if none is selected.
func (eb *EntityBrowser) Selected() int { return eb.selected }

func (eb *EntityBrowser) Select(id int) { eb.selected = id }

// FilterSystem limits the listing to entities processed by the system with the
// given registration index. ecs.NotFound clears the limit.
func (eb *EntityBrowser) FilterSystem(index int) {
	eb.filterSystem = index
	eb.currentPage = 0
}

// SetFilterText limits the listing to entities whose id or component names
// contain text.
func (eb *EntityBrowser) SetFilterText(text string) {
	eb.filterText = text
	eb.currentPage = 0
}

// Close disconnects the browser from the world's signals.
func (eb *EntityBrowser) Close() {
	for _, fn := range eb.disconnect {
		fn()
	}
	eb.disconnect = nil
}

func (eb *EntityBrowser) rebuildIfNeeded() {
	if eb.dirty {
		eb.rebuild()
	}
}

func (eb *EntityBrowser) rebuild() {
	eb.rows = eb.rows[:0]
	for e := range eb.world.Entities() {
		info := EntityInfo{
			ID:         e.ID(),
			Generation: e.Generation(),
			Enabled:    e.IsEnabled(),
			Added:      e.IsAdded(),
			Systems:    slices.Collect(e.Systems()),
		}
		for idx := range e.Components() {
			if c, ok := eb.world.Component(idx); ok {
				info.Components = append(info.Components, c.Name())
			}
		}
		eb.rows = append(eb.rows, info)
	}
	eb.dirty = false
	eb.sortRows()
}

// SortBy orders the listing by the given table column.
func (eb *EntityBrowser) SortBy(column int, ascending bool) {
	eb.sortColumn = column
	eb.sortAscending = ascending
	eb.sortRows()
}

func (eb *EntityBrowser) sortRows() {
	less := func(a, b EntityInfo) bool {
		switch eb.sortColumn {
		case 1:
			return a.Generation < b.Generation
		case 2:
			return a.state() < b.state()
		case 3:
			return strings.Join(a.Components, ",") < strings.Join(b.Components, ",")
		case 4:
			return len(a.Systems) < len(b.Systems)
		default:
			return a.ID < b.ID
		}
	}
	sort.SliceStable(eb.rows, func(i, j int) bool {
		if eb.sortAscending {
			return less(eb.rows[i], eb.rows[j])
		}
		return less(eb.rows[j], eb.rows[i])
	})
}

// Filtered returns the rows matching the current filters, rebuilding the
// listing first if the world changed.
func (eb *EntityBrowser) Filtered() []EntityInfo {
	eb.rebuildIfNeeded()
	if eb.filterText == "" && eb.filterSystem == ecs.NotFound {
		return eb.rows
	}

	filtered := make([]EntityInfo, 0, len(eb.rows))
	filterLower := strings.ToLower(eb.filterText)

	for _, entity := range eb.rows {
		if eb.filterSystem != ecs.NotFound && !slices.Contains(entity.Systems, eb.filterSystem) {
			continue
		}

		if eb.filterText != "" {
			idStr := strconv.Itoa(entity.ID)
			componentsStr := strings.ToLower(strings.Join(entity.Components, " "))

			if !strings.Contains(idStr, filterLower) && !strings.Contains(componentsStr, filterLower) {
				continue
			}
		}

		filtered = append(filtered, entity)
	}

	return filtered
}
