package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/entropycube/renderer"
	"github.com/pthm-cable/entropycube/ui"
)

const controlsLegend = "Drag: orbit | Wheel: zoom | Space: pause | R: reset view | Up/Down: particles | Left/Right: speed | Tab: controls"

var background = rl.Color{R: 8, G: 10, B: 14, A: 255}

// Draw renders the frame.
func (g *Game) Draw() {
	g.sim.Perf().RecordFrame()

	screenW := int32(rl.GetScreenWidth())
	screenH := int32(rl.GetScreenHeight())

	rl.BeginDrawing()
	rl.ClearBackground(background)

	cam := g.camera3D()
	rl.BeginMode3D(cam)
	g.scene.Draw(g.snap, renderer.SceneOptions{
		Cells:      g.overlays.IsEnabled(ui.OverlayCells),
		Particles:  g.overlays.IsEnabled(ui.OverlayParticles),
		Wireframe:  g.overlays.IsEnabled(ui.OverlayWireframe),
		Velocities: g.overlays.IsEnabled(ui.OverlayVelocities),
	})
	rl.EndMode3D()

	ui.DrawCellLabels(g.snap, cam, g.overlays)

	g.drawPanels(screenW, screenH)

	rl.EndDrawing()
}

// drawPanels draws the controls, HUD and enabled panels, and applies any
// control changes to the simulation.
func (g *Game) drawPanels(screenW, screenH int32) {
	result := g.controls.Draw(ui.ControlsState{
		Particles: g.sim.PendingParticleCount(),
		Speed:     g.sim.Speed(),
		Paused:    g.paused,
	}, g.overlays)
	if result.ParticlesChanged {
		g.sim.SetParticleCount(result.Particles)
	}
	if result.SpeedChanged {
		g.sim.SetSpeed(result.Speed)
	}
	if result.TogglePause {
		g.paused = !g.paused
	}
	if result.ResetCamera {
		g.camera.Reset()
	}

	hudX := int32(10)
	if g.controls.IsVisible() {
		hudX += controlsWidth + 10
	}
	g.hud.Draw(hudX, ui.HUDData{
		Title:     Title,
		Particles: g.sim.ParticleCount(),
		Tick:      g.sim.TickCount(),
		SimTime:   g.simTime(),
		Speed:     g.sim.Speed(),
		FPS:       rl.GetFPS(),
		Paused:    g.paused,
	})
	g.hud.DrawControls(screenW, screenH, controlsLegend)

	statsBottom := int32(0)
	if g.overlays.IsEnabled(ui.OverlayStats) {
		bounds := g.statsPanel.Draw(ui.StatsData{
			Snap:      g.snap,
			Window:    g.lastWindow,
			HasWindow: g.hasWindow,
		}, screenW, screenH)
		statsBottom = int32(bounds.Y + bounds.Height)
	}

	if g.overlays.IsEnabled(ui.OverlayPerf) {
		g.perfPanel.SetPosition(screenW-260, statsBottom+10)
		g.perfPanel.Draw(g.sim.Perf().Stats())
	}
}

// camera3D builds the raylib camera from the orbit camera.
func (g *Game) camera3D() rl.Camera3D {
	eye := g.camera.Eye()
	up := g.camera.Up()
	target := g.camera.Target()
	return rl.NewCamera3D(
		rl.NewVector3(float32(eye.X), float32(eye.Y), float32(eye.Z)),
		rl.NewVector3(float32(target.X), float32(target.Y), float32(target.Z)),
		rl.NewVector3(float32(up.X), float32(up.Y), float32(up.Z)),
		float32(g.camera.FOV),
		rl.CameraPerspective,
	)
}
