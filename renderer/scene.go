// Package renderer draws the cube scene from a simulation snapshot.
package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/entropycube/config"
	"github.com/pthm-cable/entropycube/sim"
	"github.com/pthm-cable/entropycube/systems"
)

const (
	sphereRings  = 16
	sphereSlices = 16
)

var (
	particleColor = rl.Color{R: 255, G: 77, B: 26, A: 255}
	wireColor     = rl.Color{R: 128, G: 179, B: 255, A: 255}
	velocityColor = rl.Color{R: 255, G: 230, B: 120, A: 200}
	emptyCellRGB  = systems.RGB{R: 0.2, G: 0.2, B: 0.8}
)

// SceneOptions toggles optional scene layers.
type SceneOptions struct {
	Cells      bool
	Particles  bool
	Wireframe  bool
	Velocities bool
}

// SceneRenderer draws particles, the cube wireframe and the entropy cells.
type SceneRenderer struct {
	sphere      rl.Model
	cellAlpha   float32
	emptyAlpha  float32
	initialized bool
}

// NewSceneRenderer creates a scene renderer.
func NewSceneRenderer(cfg config.EntropyConfig) *SceneRenderer {
	return &SceneRenderer{
		cellAlpha:  float32(cfg.CellAlpha),
		emptyAlpha: float32(cfg.EmptyAlpha),
	}
}

// Init uploads the unit sphere mesh (must be called after raylib window is created).
func (s *SceneRenderer) Init() {
	if s.initialized {
		return
	}
	s.sphere = rl.LoadModelFromMesh(rl.GenMeshSphere(1, sphereRings, sphereSlices))
	s.initialized = true
}

// Draw renders the snapshot in 3D. Must be called inside BeginMode3D.
// Opaque geometry goes first; the cells are drawn last with depth writes off
// so they tint what is behind them without hiding it.
func (s *SceneRenderer) Draw(snap *sim.Snapshot, opts SceneOptions) {
	if !s.initialized {
		s.Init()
	}

	if opts.Particles {
		for i := range snap.Particles {
			p := &snap.Particles[i]
			rl.DrawModel(s.sphere, vec3(p.Position), float32(p.Radius), particleColor)
		}
	}

	if opts.Velocities {
		s.drawVelocities(snap)
	}

	if opts.Wireframe {
		edge := float32(2 * snap.CubeSize)
		rl.DrawCubeWires(rl.Vector3{}, edge, edge, edge, wireColor)
	}

	if opts.Cells {
		rl.BeginBlendMode(rl.BlendAlpha)
		rl.DisableDepthMask()
		s.drawCells(snap)
		rl.EnableDepthMask()
		rl.EndBlendMode()
	}
}

// drawCells paints one translucent cube per grid cell in its entropy color.
// With no particles the cells are a faint blue so the grid stays visible.
func (s *SceneRenderer) drawCells(snap *sim.Snapshot) {
	size := float32(snap.CellSize)
	half := snap.CellSize / 2
	empty := snap.Empty()

	for i := range snap.Cells {
		c := &snap.Cells[i]
		rgb, alpha := c.Color, s.cellAlpha
		if empty {
			rgb, alpha = emptyCellRGB, s.emptyAlpha
		}
		center := r3.Add(c.Origin, r3.Vec{X: half, Y: half, Z: half})
		rl.DrawCube(vec3(center), size, size, size, ToColor(rgb, alpha))
	}
}

// drawVelocities draws each particle's velocity scaled to a visible length.
func (s *SceneRenderer) drawVelocities(snap *sim.Snapshot) {
	for i := range snap.Particles {
		p := &snap.Particles[i]
		speed := r3.Norm(p.Velocity)
		if speed == 0 {
			continue
		}
		tip := r3.Add(p.Position, r3.Scale(4*p.Radius/speed, p.Velocity))
		rl.DrawLine3D(vec3(p.Position), vec3(tip), velocityColor)
	}
}

// Unload frees resources.
func (s *SceneRenderer) Unload() {
	if s.initialized {
		rl.UnloadModel(s.sphere)
		s.initialized = false
	}
}

// ToColor converts a [0,1] RGB and alpha to a raylib color.
func ToColor(c systems.RGB, alpha float32) rl.Color {
	return rl.Color{
		R: channel(c.R),
		G: channel(c.G),
		B: channel(c.B),
		A: channel(float64(alpha)),
	}
}

func channel(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

func vec3(v r3.Vec) rl.Vector3 {
	return rl.Vector3{X: float32(v.X), Y: float32(v.Y), Z: float32(v.Z)}
}
