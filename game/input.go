package game

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/entropycube/ui"
)

// Keyboard step sizes
const (
	particleStep = 10
	speedStep    = 5.0 / ui.SpeedSliderScale
)

// handleInput processes keyboard and mouse input.
func (g *Game) handleInput() {
	if rl.IsKeyPressed(rl.KeySpace) {
		g.paused = !g.paused
	}

	if rl.IsKeyPressed(rl.KeyTab) {
		g.controls.Toggle()
	}

	// Particle count and speed
	if rl.IsKeyPressed(rl.KeyUp) {
		g.sim.SetParticleCount(g.sim.PendingParticleCount() + particleStep)
	}
	if rl.IsKeyPressed(rl.KeyDown) {
		g.sim.SetParticleCount(g.sim.PendingParticleCount() - particleStep)
	}
	if rl.IsKeyPressed(rl.KeyRight) {
		g.sim.SetSpeed(g.sim.Speed() + speedStep)
	}
	if rl.IsKeyPressed(rl.KeyLeft) {
		g.sim.SetSpeed(g.sim.Speed() - speedStep)
	}

	g.handleOverlayKeys()
	g.handleCameraInput()
}

// handleOverlayKeys drains this frame's key queue into the overlay toggles.
func (g *Game) handleOverlayKeys() {
	for key := rl.GetKeyPressed(); key != 0; key = rl.GetKeyPressed() {
		if id, on, ok := g.overlays.HandleKeyPress(key); ok {
			slog.Debug("overlay toggled", "overlay", id, "enabled", on)
		}
	}
}

// handleCameraInput processes orbit drag and zoom controls.
func (g *Game) handleCameraInput() {
	// Drags that start on the controls panel belong to the sliders
	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		g.dragging = !g.controls.Contains(rl.GetMousePosition(), g.overlays)
	}
	if rl.IsMouseButtonReleased(rl.MouseButtonLeft) {
		g.dragging = false
	}
	if g.dragging && rl.IsMouseButtonDown(rl.MouseButtonLeft) {
		delta := rl.GetMouseDelta()
		g.camera.Drag(float64(delta.X), float64(delta.Y))
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		g.camera.ZoomBy(float64(wheel))
	}

	if rl.IsKeyPressed(rl.KeyR) || rl.IsKeyPressed(rl.KeyHome) {
		g.camera.Reset()
	}
}
