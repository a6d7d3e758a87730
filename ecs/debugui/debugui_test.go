package debugui

import (
	"reflect"
	"testing"

	"github.com/plus3/klayecs/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type inspected struct {
	Name   string
	Level  int8
	Speed  float32
	hidden int
	Nested struct{ On bool }
	Secret string  `debug:"-"`
	Serial int     `debug:"serial no,readonly"`
	Boost  float32 `debug:",readonly"`
}

type testWorld struct {
	w    *ecs.World
	pos  *ecs.FloatPair
	hp   *ecs.IntScalar
	tag  *ecs.Generic[string]
	tick int64
}

func newTestWorld() *testWorld {
	w := ecs.NewWorld()
	return &testWorld{
		w:   w,
		pos: ecs.NewFloatPair(w, "pos"),
		hp:  ecs.NewIntScalar(w, "hp"),
		tag: ecs.NewGeneric[string](w, "tag"),
	}
}

func (tw *testWorld) update() {
	tw.tick++
	tw.w.Update(ecs.Clock{Tick: tw.tick})
}

func (tw *testWorld) spawn(comps ...ecs.Component) *ecs.Entity {
	e := tw.w.Create(true)
	if err := e.Add(comps...); err != nil {
		panic(err)
	}
	return e
}

func TestOverlayPaintsItems(t *testing.T) {
	tw := newTestWorld()
	o := Install(tw.w, 0)
	o.captureInput = func() InputState { return InputState{WantCaptureMouse: true} }

	rendered := 0
	o.Spawn(func() { rendered++ })
	o.Spawn(nil)
	tw.update()

	tw.w.Paint(ecs.PaintClock{Alpha: 0.25})
	assert.Equal(t, 1, rendered)
	assert.True(t, o.Input().WantCaptureMouse)
	assert.Equal(t, 2, o.Registration().EntityCount())

	_, ok := tw.w.ComponentByName(ItemComponent)
	assert.True(t, ok)

	o.Registration().SetEnabled(false)
	tw.w.Paint(ecs.PaintClock{})
	assert.Equal(t, 1, rendered)
}

func TestEntityBrowserListing(t *testing.T) {
	tw := newTestWorld()
	movers := tw.w.Register(&ecs.SystemFuncs{
		Label:        "movers",
		InterestedFn: func(e *ecs.Entity) bool { return e.Has(tw.pos) },
	}, 0)

	a := tw.spawn(tw.pos)
	b := tw.spawn(tw.hp, tw.tag)
	c := tw.spawn(tw.pos, tw.hp)
	tw.update()

	eb := NewEntityBrowser(tw.w, 10)
	defer eb.Close()

	rows := eb.Filtered()
	require.Len(t, rows, 3)
	assert.Equal(t, a.ID(), rows[0].ID)
	assert.Equal(t, []string{"hp", "tag"}, rows[1].Components)
	assert.Equal(t, "active", rows[2].state())

	eb.SetFilterText("TAG")
	rows = eb.Filtered()
	require.Len(t, rows, 1)
	assert.Equal(t, b.ID(), rows[0].ID)

	eb.SetFilterText("")
	eb.FilterSystem(movers.Index())
	rows = eb.Filtered()
	require.Len(t, rows, 2)
	assert.Equal(t, []int{a.ID(), c.ID()}, []int{rows[0].ID, rows[1].ID})

	eb.FilterSystem(ecs.NotFound)
	eb.SortBy(3, false)
	rows = eb.Filtered()
	assert.Equal(t, []string{"pos", "hp"}, rows[0].Components)
	assert.Equal(t, []string{"hp", "tag"}, rows[2].Components)

	eb.SortBy(0, true)
	b.Dispose()
	tw.update()
	rows = eb.Filtered()
	require.Len(t, rows, 2, "removal marks the listing dirty")

	eb.Select(c.ID())
	assert.Equal(t, c.ID(), eb.Selected())
}

func TestEntityBrowserCloseStopsTracking(t *testing.T) {
	tw := newTestWorld()
	tw.spawn(tw.pos)
	tw.update()

	eb := NewEntityBrowser(tw.w, 10)
	require.Len(t, eb.Filtered(), 1)
	eb.Close()

	tw.spawn(tw.pos)
	tw.update()
	assert.Len(t, eb.Filtered(), 1)

	eb.Refresh()
	assert.Len(t, eb.Filtered(), 2)
}

func TestSystemViewerRows(t *testing.T) {
	tw := newTestWorld()
	tw.w.Register(&ecs.SystemFuncs{
		Label:        "physics",
		InterestedFn: func(e *ecs.Entity) bool { return e.Has(tw.pos) },
	}, 10)
	tw.w.Register(&ecs.SystemFuncs{Label: "audio"}, 0)
	tw.spawn(tw.pos)
	tw.spawn(tw.pos)
	tw.update()

	sv := NewSystemViewer(tw.w)
	sv.Refresh()
	rows := sv.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "physics", rows[0].Name)
	assert.Equal(t, 2, rows[0].ActiveCount)

	sv.SortBy(0, true)
	assert.Equal(t, "audio", sv.Rows()[0].Name)

	sv.SortBy(4, false)
	sv.Refresh()
	assert.Equal(t, "physics", sv.Rows()[0].Name)

	regs := tw.w.Systems()
	assert.Same(t, regs[1], findRegistration(regs, 1))
	assert.Nil(t, findRegistration(regs, 7))
}

func TestComponentFilterMatches(t *testing.T) {
	tw := newTestWorld()
	a := tw.spawn(tw.pos, tw.hp)
	tw.spawn(tw.pos)
	tw.spawn(tw.hp)

	cf := NewComponentFilter(tw.w)
	assert.Empty(t, cf.Required())

	cf.Toggle("hp", true)
	cf.Toggle("pos", true)
	required := cf.Required()
	require.Len(t, required, 2)
	assert.Equal(t, "pos", required[0].Name())

	matching := MatchEntities(tw.w, required)
	require.Len(t, matching, 1)
	assert.Same(t, a, matching[0])

	cf.Toggle("pos", false)
	assert.Len(t, MatchEntities(tw.w, cf.Required()), 2)
}

func TestPerformanceStatsHistory(t *testing.T) {
	ps := NewPerformanceStats(ecs.NewWorld(), 3)
	assert.Zero(t, ps.Average())

	ps.Record(0.010)
	ps.Record(0.020)
	assert.InDelta(t, 15, ps.Average(), 1e-4)

	ps.Record(0.030)
	ps.Record(0.040)
	assert.InDelta(t, 30, ps.Average(), 1e-4)
}

func TestReflectionCache(t *testing.T) {
	rc := NewReflectionCache()
	fields := rc.GetFields(reflect.TypeFor[inspected]())

	var names []string
	for _, f := range fields {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"Name", "Level", "Speed", "Nested", "serial no", "Boost"}, names)
	assert.Equal(t, 4, fields[3].Index)
	assert.False(t, fields[3].ReadOnly)
	assert.Equal(t, 6, fields[4].Index)
	assert.True(t, fields[4].ReadOnly)
	assert.True(t, fields[5].ReadOnly)

	again := rc.GetFields(reflect.TypeFor[inspected]())
	assert.Same(t, &fields[0], &again[0])
	assert.Nil(t, rc.GetFields(reflect.TypeFor[int]()))
}

func TestAssignHelpers(t *testing.T) {
	var v inspected
	val := reflect.ValueOf(&v).Elem()

	assert.True(t, assignInt(val.Field(1), 100))
	assert.False(t, assignInt(val.Field(1), 300), "overflows int8")
	assert.Equal(t, int8(100), v.Level)

	assert.True(t, assignFloat(val.Field(2), 2.5))
	assert.Equal(t, float32(2.5), v.Speed)

	assert.False(t, assignInt(val.Field(3), 1), "unexported fields are read-only")
	assert.False(t, assignInt(reflect.ValueOf(v).Field(1), 1), "copies are read-only")

	var u uint8
	assert.True(t, assignUint(reflect.ValueOf(&u).Elem(), 200))
	assert.False(t, assignUint(reflect.ValueOf(&u).Elem(), 256))
	assert.Equal(t, uint8(200), u)
}

func TestInspectorLookup(t *testing.T) {
	tw := newTestWorld()
	e := tw.spawn(tw.tag)
	ci := NewComponentInspector(tw.w, nil)

	assert.Same(t, e, ci.lookup(e.ID()))
	assert.Nil(t, ci.lookup(0))
	assert.Nil(t, ci.lookup(-1))
	assert.Nil(t, ci.lookup(99))

	e.Dispose()
	assert.Nil(t, ci.lookup(e.ID()))
}

func TestOverlayAppliesPaintEditsOnUpdate(t *testing.T) {
	tw := newTestWorld()
	o := Install(tw.w, 0)
	o.captureInput = func() InputState { return InputState{} }

	e := tw.spawn(tw.hp)
	o.Spawn(func() {
		o.Defer(func() { tw.hp.Set(e.ID(), tw.hp.Get(e.ID())+1) })
	})
	tw.update()

	tw.w.Paint(ecs.PaintClock{})
	assert.Equal(t, 1, o.Pending())
	assert.Zero(t, tw.hp.Get(e.ID()), "paint leaves the world alone")

	tw.update()
	assert.Zero(t, o.Pending())
	assert.Equal(t, int32(1), tw.hp.Get(e.ID()))
}

func TestInspectorEditsWaitForDeferredRun(t *testing.T) {
	tw := newTestWorld()
	var queued []func()
	ci := NewComponentInspector(tw.w, func(fn func()) { queued = append(queued, fn) })
	run := func() {
		pending := queued
		queued = nil
		for _, fn := range pending {
			fn()
		}
	}

	e := tw.spawn(tw.hp, tw.pos)
	tw.update()
	ci.edit(e.Ref(), tw.hp, func(*ecs.Entity) { tw.hp.Set(e.ID(), 5) })
	ci.edit(e.Ref(), nil, func(e *ecs.Entity) { ci.setEnabled(e, false) })
	require.Len(t, queued, 2)
	assert.Zero(t, tw.hp.Get(e.ID()))
	assert.True(t, e.IsEnabled())

	run()
	assert.Equal(t, int32(5), tw.hp.Get(e.ID()))
	assert.False(t, e.IsEnabled())

	ci.edit(e.Ref(), tw.pos, func(*ecs.Entity) { tw.pos.Set(e.ID(), 1, 2) })
	require.NoError(t, e.Remove(tw.pos))
	run()
	x, y := tw.pos.Get(e.ID())
	assert.Zero(t, x, "edit dropped once the component is removed")
	assert.Zero(t, y)

	ci.edit(e.Ref(), nil, (*ecs.Entity).Dispose)
	ci.edit(e.Ref(), tw.hp, func(*ecs.Entity) { tw.hp.Set(e.ID(), 9) })
	run()
	assert.True(t, e.IsDisposed())
	assert.Equal(t, int32(5), tw.hp.Get(e.ID()), "edits after dispose are dropped")
}

func TestInspectorLogsRejectedEnable(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	w := ecs.NewWorld(ecs.WithLogger(zap.New(core)))
	e := w.Create(true)
	e.Dispose()

	ci := NewComponentInspector(w, func(fn func()) { fn() })
	ci.setEnabled(e, true)

	entries := logs.FilterMessage("set enabled").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "debugui", entries[0].LoggerName)
	assert.Equal(t, int64(e.ID()), entries[0].ContextMap()["entity"])
	assert.Contains(t, entries[0].ContextMap()["error"], "disposed")
}
