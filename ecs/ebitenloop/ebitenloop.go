// Package ebitenloop runs an ecs.Loop as an Ebiten game.
//
// Each Ebiten tick advances the loop by the wall time since the previous tick,
// running fixed-step world updates followed by one paint. Painters should
// sync render-facing state; drawing to the screen happens in OnDraw hooks.
package ebitenloop

import (
	"errors"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/plus3/klayecs/ecs"
)

// Game implements ebiten.Game around a fixed-step loop.
type Game struct {
	loop   *ecs.Loop
	width  int
	height int

	now  func() time.Time
	last time.Time

	begin   []func()
	end     []func()
	draws   []func(screen *ebiten.Image)
	layouts []func(width, height int)

	stopped bool
	err     error
}

// New creates a game advancing loop with a logical screen of width by height.
// A zero size follows the window size.
func New(loop *ecs.Loop, width, height int) *Game {
	return &Game{
		loop:   loop,
		width:  width,
		height: height,
		now:    time.Now,
	}
}

// Loop returns the driven loop.
func (g *Game) Loop() *ecs.Loop { return g.loop }

// OnFrame registers functions called immediately before and after the loop
// advances each tick. Either may be nil.
func (g *Game) OnFrame(begin, end func()) {
	if begin != nil {
		g.begin = append(g.begin, begin)
	}
	if end != nil {
		g.end = append(g.end, end)
	}
}

// OnDraw registers a function drawing to the screen, called in registration order.
func (g *Game) OnDraw(fn func(screen *ebiten.Image)) {
	g.draws = append(g.draws, fn)
}

// OnLayout registers a function told about each new outside size.
func (g *Game) OnLayout(fn func(width, height int)) {
	g.layouts = append(g.layouts, fn)
}

// Stop ends the game after the current tick.
func (g *Game) Stop() { g.stopped = true }

// Fail ends the game after the current tick, making Run return err.
func (g *Game) Fail(err error) {
	if g.err == nil {
		g.err = err
	}
	g.stopped = true
}

func (g *Game) Update() error {
	if g.err != nil {
		return g.err
	}
	if g.stopped {
		return ebiten.Termination
	}

	now := g.now()
	elapsed := g.loop.Step()
	if !g.last.IsZero() {
		elapsed = now.Sub(g.last)
	}
	g.last = now

	for _, fn := range g.begin {
		fn()
	}
	g.loop.Advance(elapsed)
	for _, fn := range g.end {
		fn()
	}
	return g.err
}

func (g *Game) Draw(screen *ebiten.Image) {
	for _, fn := range g.draws {
		fn(screen)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	for _, fn := range g.layouts {
		fn(outsideWidth, outsideHeight)
	}
	if g.width > 0 && g.height > 0 {
		return g.width, g.height
	}
	return outsideWidth, outsideHeight
}

// Run opens a window titled title and blocks until the game stops.
func (g *Game) Run(title string) error {
	if g.width > 0 && g.height > 0 {
		ebiten.SetWindowSize(g.width, g.height)
	}
	ebiten.SetWindowTitle(title)
	err := ebiten.RunGame(g)
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}
