package debugui

import "github.com/plus3/klayecs/ecs"

// Panels groups the built-in inspection windows spawned by SpawnPanels.
type Panels struct {
	Browser     *EntityBrowser
	Inspector   *ComponentInspector
	Systems     *SystemViewer
	Filter      *ComponentFilter
	Performance *PerformanceStats

	entities []*ecs.Entity
}

// SpawnPanels creates one item entity per built-in window. Selecting an entity
// in the browser or the filter shows it in the inspector; selecting a system
// narrows the browser to that system's entities.
func (o *Overlay) SpawnPanels() *Panels {
	w := o.world
	p := &Panels{
		Browser:     NewEntityBrowser(w, 100),
		Inspector:   NewComponentInspector(w, o.Defer),
		Systems:     NewSystemViewer(w),
		Filter:      NewComponentFilter(w),
		Performance: NewPerformanceStats(w, 120),
	}
	timer := NewFrameTimer()

	p.entities = []*ecs.Entity{
		o.Spawn(func() {
			p.Browser.Render()
		}),
		o.Spawn(func() {
			if id, ok := p.Filter.Render(); ok {
				p.Browser.Select(id)
			}
		}),
		o.Spawn(func() {
			p.Inspector.Render(p.Browser.Selected())
		}),
		o.Spawn(func() {
			if idx, ok := p.Systems.Render(); ok {
				p.Browser.FilterSystem(idx)
			}
		}),
		o.Spawn(func() {
			p.Performance.Render(timer.DeltaTime())
		}),
	}
	return p
}

// Close disposes the panel entities and detaches the browser from the world.
func (p *Panels) Close() {
	for _, e := range p.entities {
		e.Dispose()
	}
	p.Browser.Close()
}
