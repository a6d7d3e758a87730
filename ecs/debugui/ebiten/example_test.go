package ebiten_test

import (
	"time"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/klayecs/ecs"
	"github.com/plus3/klayecs/ecs/debugui"
	debugui_ebiten "github.com/plus3/klayecs/ecs/debugui/ebiten"
	"github.com/plus3/klayecs/ecs/ebitenloop"
)

func Example() {
	// Create the Ebiten window and ImGui backend
	backend := debugui_ebiten.NewImguiBackend("ECS ImGui Example", 1280, 720)

	w := ecs.NewWorld()

	// Install the overlay system and the built-in inspection windows
	overlay := debugui.Install(w, -100)
	overlay.SpawnPanels()

	// Spawn an entity with its own ImGui window
	overlay.Spawn(func() {
		imgui.Begin("Debug Window")
		imgui.Text("Hello from ECS!")
		imgui.End()
	})

	game := ebitenloop.New(ecs.NewLoop(w, time.Second/60), 1280, 720)
	backend.Attach(game)

	if err := game.Run("ECS ImGui Example"); err != nil {
		panic(err)
	}
}
