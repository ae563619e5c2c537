// Package game wires the simulation to a raylib window: fixed-rate ticking,
// orbit camera input, scene rendering and the UI panels.
package game

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/entropycube/camera"
	"github.com/pthm-cable/entropycube/config"
	"github.com/pthm-cable/entropycube/renderer"
	"github.com/pthm-cable/entropycube/sim"
	"github.com/pthm-cable/entropycube/telemetry"
	"github.com/pthm-cable/entropycube/ui"
)

// Title is shown in the window title bar and the HUD.
const Title = "Entropy Cube"

const controlsWidth = 220

// Options configures a Game.
type Options struct {
	Sim      sim.Options
	Headless bool // skip every raylib resource
}

// Game holds the simulation and everything needed to show it.
type Game struct {
	cfg     *config.Config
	sim     *sim.Simulation
	snap    *sim.Snapshot
	stepper *sim.Stepper

	// Rendering
	camera     *camera.Camera
	scene      *renderer.SceneRenderer
	hud        *ui.HUD
	controls   *ui.ControlsPanel
	statsPanel *ui.StatsPanel
	perfPanel  *ui.PerfPanel
	overlays   *ui.OverlayRegistry

	// Latest flushed stats window, for the stats panel
	lastWindow telemetry.WindowStats
	hasWindow  bool

	// State
	paused   bool
	dragging bool
	headless bool
}

// NewGameWithOptions creates a game. In headless mode no raylib call is made.
func NewGameWithOptions(cfg *config.Config, opts Options) (*Game, error) {
	g := &Game{
		cfg:      cfg,
		snap:     &sim.Snapshot{},
		stepper:  sim.NewStepper(cfg.Derived.TickInterval, cfg.Physics.MaxTicksPerFrame),
		headless: opts.Headless,
	}

	userCallback := opts.Sim.StatsCallback
	opts.Sim.StatsCallback = func(ws telemetry.WindowStats) {
		g.lastWindow = ws
		g.hasWindow = true
		if userCallback != nil {
			userCallback(ws)
		}
	}

	s, err := sim.New(cfg, opts.Sim)
	if err != nil {
		return nil, fmt.Errorf("creating simulation: %w", err)
	}
	g.sim = s
	g.sim.SnapshotInto(g.snap)

	if !g.headless {
		g.camera = camera.New(cfg.Camera)
		g.scene = renderer.NewSceneRenderer(cfg.Entropy)
		g.scene.Init()
		g.hud = ui.NewHUD()
		g.controls = ui.NewControlsPanel(10, 10, controlsWidth, max(cfg.Particles.Min, 1), cfg.Particles.Max)
		g.statsPanel = ui.NewStatsPanel(cfg.Entropy.BlueGreen)
		g.perfPanel = ui.NewPerfPanel(10, 10)
		g.overlays = ui.NewOverlayRegistry()
	}

	return g, nil
}

// Sim returns the underlying simulation.
func (g *Game) Sim() *sim.Simulation {
	return g.sim
}

// Update handles input and runs the ticks due since the last frame.
func (g *Game) Update() {
	g.handleInput()

	if g.paused {
		g.stepper.Reset()
		return
	}

	elapsed := time.Duration(float64(rl.GetFrameTime()) * float64(time.Second))
	n := g.stepper.Advance(elapsed)
	for i := 0; i < n; i++ {
		g.sim.Tick()
	}
	if n > 0 {
		g.sim.SnapshotInto(g.snap)
	}
}

// UpdateHeadless runs a single tick without any rendering.
func (g *Game) UpdateHeadless() {
	g.sim.Tick()
}

// Unload releases rendering resources and closes telemetry output.
func (g *Game) Unload() error {
	if g.scene != nil {
		g.scene.Unload()
	}
	return g.sim.Close()
}

// Tick returns the current simulation tick.
func (g *Game) Tick() int32 {
	return g.sim.TickCount()
}

// simTime returns the simulated seconds elapsed.
func (g *Game) simTime() float64 {
	return float64(g.sim.TickCount()) * g.cfg.Derived.DT
}
