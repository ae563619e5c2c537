// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Cube      CubeConfig      `yaml:"cube"`
	Particles ParticlesConfig `yaml:"particles"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Entropy   EntropyConfig   `yaml:"entropy"`
	Camera    CameraConfig    `yaml:"camera"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// CubeConfig holds the bounding cube geometry. Fixed for the lifetime of a run.
type CubeConfig struct {
	Size          float64 `yaml:"size"`           // Half-extent of the cube
	GridDivisions int     `yaml:"grid_divisions"` // Cells per axis
}

// ParticlesConfig holds particle creation parameters.
type ParticlesConfig struct {
	Initial       int     `yaml:"initial"`
	Min           int     `yaml:"min"`
	Max           int     `yaml:"max"`
	RadiusDivisor float64 `yaml:"radius_divisor"` // radius = cube size / this
	MinSpeed      float64 `yaml:"min_speed"`      // Initial speed of every particle
}

// PhysicsConfig holds tick timing and speed multiplier bounds.
type PhysicsConfig struct {
	TickIntervalMS   float64 `yaml:"tick_interval_ms"`
	Speed            float64 `yaml:"speed"`
	SpeedMin         float64 `yaml:"speed_min"`
	SpeedMax         float64 `yaml:"speed_max"`
	MaxTicksPerFrame int     `yaml:"max_ticks_per_frame"` // Cap on catch-up ticks per rendered frame
}

// EntropyConfig holds entropy field and color mapping parameters.
type EntropyConfig struct {
	K          float64 `yaml:"k"`           // Scale factor for -k p ln p (Boltzmann constant)
	BlueGreen  float64 `yaml:"blue_green"`  // Green component at t=0
	CellAlpha  float64 `yaml:"cell_alpha"`  // Opacity of colored cells
	EmptyAlpha float64 `yaml:"empty_alpha"` // Opacity of cells when there are no particles
}

// CameraConfig holds orbit camera parameters. Angles are in degrees.
type CameraConfig struct {
	RotX            float64 `yaml:"rot_x"`
	RotY            float64 `yaml:"rot_y"`
	Distance        float64 `yaml:"distance"`
	MinDistance     float64 `yaml:"min_distance"`
	MaxDistance     float64 `yaml:"max_distance"`
	FOV             float64 `yaml:"fov"`
	DragSensitivity float64 `yaml:"drag_sensitivity"` // Degrees per pixel of drag
	ZoomStep        float64 `yaml:"zoom_step"`        // Distance change per wheel notch
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"` // Seconds of simulated time per window
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	CellSize       float64       // 2*Cube.Size / Cube.GridDivisions
	ParticleRadius float64       // Cube.Size / Particles.RadiusDivisor
	TickInterval   time.Duration // Physics.TickIntervalMS as a duration
	DT             float64       // Tick interval in seconds
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// validate rejects geometry that would make the grid or radius meaningless.
func (c *Config) validate() error {
	if c.Cube.Size <= 0 {
		return fmt.Errorf("cube.size must be positive, got %v", c.Cube.Size)
	}
	if c.Cube.GridDivisions < 1 {
		return fmt.Errorf("cube.grid_divisions must be at least 1, got %d", c.Cube.GridDivisions)
	}
	if c.Particles.RadiusDivisor <= 0 {
		return fmt.Errorf("particles.radius_divisor must be positive, got %v", c.Particles.RadiusDivisor)
	}
	if c.Particles.Min < 0 || c.Particles.Max < c.Particles.Min {
		return fmt.Errorf("particles range [%d, %d] is invalid", c.Particles.Min, c.Particles.Max)
	}
	if c.Physics.TickIntervalMS <= 0 {
		return fmt.Errorf("physics.tick_interval_ms must be positive, got %v", c.Physics.TickIntervalMS)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.CellSize = 2 * c.Cube.Size / float64(c.Cube.GridDivisions)
	c.Derived.ParticleRadius = c.Cube.Size / c.Particles.RadiusDivisor
	c.Derived.TickInterval = time.Duration(c.Physics.TickIntervalMS * float64(time.Millisecond))
	c.Derived.DT = c.Physics.TickIntervalMS / 1000

	if c.Physics.MaxTicksPerFrame < 1 {
		c.Physics.MaxTicksPerFrame = 1
	}
	if c.Telemetry.PerfCollectorWindow < 1 {
		c.Telemetry.PerfCollectorWindow = 125
	}
}

// ClampParticles restricts a requested particle count to the configured range.
func (c *Config) ClampParticles(n int) int {
	if n < c.Particles.Min {
		return c.Particles.Min
	}
	if n > c.Particles.Max {
		return c.Particles.Max
	}
	return n
}

// ClampSpeed restricts a speed multiplier to the configured range.
func (c *Config) ClampSpeed(s float64) float64 {
	if s < c.Physics.SpeedMin {
		return c.Physics.SpeedMin
	}
	if s > c.Physics.SpeedMax {
		return c.Physics.SpeedMax
	}
	return s
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
