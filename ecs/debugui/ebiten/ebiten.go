// Package ebiten provides Dear ImGui backend integration for the Ebiten game engine.
package ebiten

import (
	ebitenbackend "github.com/AllenDang/cimgui-go/backend/ebiten-backend"
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/plus3/klayecs/ecs/ebitenloop"
)

// ImguiBackend wraps the Ebiten-specific Dear ImGui backend implementation.
type ImguiBackend struct {
	*ebitenbackend.EbitenBackend
}

// NewImguiBackend creates the backend and its window. The imgui.ini file is
// disabled so layouts do not leak between runs.
func NewImguiBackend(title string, width, height int) *ImguiBackend {
	backend := ebitenbackend.NewEbitenBackend()
	backend.CreateWindow(title, width, height)
	imgui.CurrentIO().SetIniFilename("")
	return &ImguiBackend{EbitenBackend: backend}
}

// Attach opens an ImGui frame around every loop advance, so the debugui
// overlay paints inside it, and draws the frame over the game.
func (b *ImguiBackend) Attach(g *ebitenloop.Game) {
	g.OnFrame(b.BeginFrame, b.EndFrame)
	g.OnLayout(func(width, height int) {
		b.Layout(width, height)
	})
	g.OnDraw(func(screen *ebiten.Image) {
		b.Draw(screen)
	})
}
