// Package sim owns the particle world and runs the tick pipeline:
// pending replacement, integration, collision resolution, entropy binning
// and telemetry.
package sim

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/entropycube/components"
	"github.com/pthm-cable/entropycube/config"
	"github.com/pthm-cable/entropycube/systems"
	"github.com/pthm-cable/entropycube/telemetry"
)

// Options configures a Simulation.
type Options struct {
	Seed           int64   // RNG seed for particle placement
	LogStats       bool    // Log window stats and perf via slog
	StatsWindowSec float64 // Stats window in simulated seconds (0 = use config)
	OutputDir      string  // Directory for CSV output (empty = disabled)
	FieldDump      bool    // Also write per-cell field samples to field.csv

	// StatsCallback is called with each flushed stats window.
	StatsCallback func(telemetry.WindowStats)
}

// Particle is the externally visible state of one particle.
type Particle struct {
	Position r3.Vec
	Velocity r3.Vec
	Radius   float64
}

// replacement is a queued particle set change. A nil particles slice means
// count random particles.
type replacement struct {
	count     int
	particles []Particle
}

// Simulation is the explicit simulation context.
//
// Tick, Snapshot, SnapshotInto and Close must be called from one goroutine.
// SetParticleCount, SetParticles and SetSpeed may be called from any
// goroutine; they take effect at the start of the next Tick.
type Simulation struct {
	cfg *config.Config
	rng *rand.Rand

	world  *ecs.World
	mapper *ecs.Map3[components.Position, components.Velocity, components.Body]
	filter *ecs.Filter3[components.Position, components.Velocity, components.Body]

	movement  *systems.MovementSystem
	collision *systems.CollisionSystem
	entropy   *systems.EntropySystem
	field     *systems.EntropyField

	mu      sync.Mutex
	pending *replacement
	speed   float64

	tick         int32
	count        int
	tickSpeed    float64 // speed used by the last tick
	lastBounces  int
	lastContacts int
	entities     []ecs.Entity // scratch for removal

	perf          *telemetry.PerfCollector
	collector     *telemetry.Collector
	bookmarks     *telemetry.BookmarkDetector
	output        *telemetry.OutputManager
	logStats      bool
	fieldDump     bool
	statsCallback func(telemetry.WindowStats)
}

// New creates a simulation populated with the configured initial particle
// count. The entropy field is computed once so the first Snapshot is valid.
func New(cfg *config.Config, opts Options) (*Simulation, error) {
	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("creating output manager: %w", err)
	}
	if err := output.WriteConfig(cfg); err != nil {
		output.Close()
		return nil, fmt.Errorf("writing config: %w", err)
	}

	statsWindow := cfg.Telemetry.StatsWindow
	if opts.StatsWindowSec > 0 {
		statsWindow = opts.StatsWindowSec
	}

	world := ecs.NewWorld()
	field := systems.NewEntropyField(cfg.Cube.Size, cfg.Cube.GridDivisions, cfg.Entropy.K, cfg.Entropy.BlueGreen)

	s := &Simulation{
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(opts.Seed)),
		world:  world,
		mapper: ecs.NewMap3[components.Position, components.Velocity, components.Body](world),
		filter: ecs.NewFilter3[components.Position, components.Velocity, components.Body](world),

		movement:  systems.NewMovementSystem(world, cfg.Cube.Size),
		collision: systems.NewCollisionSystem(world),
		entropy:   systems.NewEntropySystem(world, field),
		field:     field,

		speed: cfg.ClampSpeed(cfg.Physics.Speed),

		perf:          telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		collector:     telemetry.NewCollector(statsWindow, cfg.Derived.DT),
		bookmarks:     telemetry.NewBookmarkDetector(10),
		output:        output,
		logStats:      opts.LogStats,
		fieldDump:     opts.FieldDump,
		statsCallback: opts.StatsCallback,
	}
	s.tickSpeed = s.speed

	s.replace(replacement{count: cfg.ClampParticles(cfg.Particles.Initial)})
	s.entropy.Update()

	return s, nil
}

// SetParticleCount queues a replacement of all particles with n new random
// ones. n is clamped to the configured range.
func (s *Simulation) SetParticleCount(n int) {
	n = s.cfg.ClampParticles(n)
	s.mu.Lock()
	s.pending = &replacement{count: n}
	s.mu.Unlock()
}

// SetParticles queues a replacement of all particles with the given ones.
// Radius values of zero are replaced with the configured radius.
func (s *Simulation) SetParticles(particles []Particle) {
	cp := make([]Particle, len(particles))
	copy(cp, particles)
	s.mu.Lock()
	s.pending = &replacement{count: len(cp), particles: cp}
	s.mu.Unlock()
}

// SetSpeed sets the speed multiplier used by the integrator, clamped to the
// configured range.
func (s *Simulation) SetSpeed(speed float64) {
	speed = s.cfg.ClampSpeed(speed)
	s.mu.Lock()
	s.speed = speed
	s.mu.Unlock()
}

// Speed returns the speed multiplier that the next tick will use.
func (s *Simulation) Speed() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speed
}

// ParticleCount returns the number of particles currently in the world.
func (s *Simulation) ParticleCount() int {
	return s.count
}

// PendingParticleCount returns the particle count the next tick will have:
// the queued count if a replacement is pending, otherwise the current count.
func (s *Simulation) PendingParticleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != nil {
		return s.pending.count
	}
	return s.count
}

// TickCount returns the number of completed ticks.
func (s *Simulation) TickCount() int32 {
	return s.tick
}

// Field returns the entropy field computed by the last tick.
func (s *Simulation) Field() *systems.EntropyField {
	return s.field
}

// Perf returns the performance collector.
func (s *Simulation) Perf() *telemetry.PerfCollector {
	return s.perf
}

// OutputDir returns the telemetry output directory, or "" if disabled.
func (s *Simulation) OutputDir() string {
	return s.output.Dir()
}

// Tick advances the simulation by one step.
func (s *Simulation) Tick() {
	s.perf.StartTick()

	s.perf.StartPhase(telemetry.PhaseApply)
	speed := s.applyPending()

	s.perf.StartPhase(telemetry.PhaseIntegrate)
	bounces := s.movement.Update(speed)

	s.perf.StartPhase(telemetry.PhaseCollide)
	contacts := s.collision.Update()

	s.perf.StartPhase(telemetry.PhaseEntropy)
	s.entropy.Update()

	s.tick++
	s.tickSpeed = speed
	s.lastBounces = bounces
	s.lastContacts = contacts

	s.perf.StartPhase(telemetry.PhaseTelemetry)
	s.collector.RecordTick(bounces, contacts, s.field.Shannon())
	s.flushTelemetry()

	s.perf.EndTick()
}

// applyPending swaps in any queued particle set and returns the speed for
// this tick.
func (s *Simulation) applyPending() float64 {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	speed := s.speed
	s.mu.Unlock()

	if pending != nil {
		s.replace(*pending)
	}
	return speed
}

// replace removes every particle and creates the new set.
func (s *Simulation) replace(r replacement) {
	s.entities = s.entities[:0]
	query := s.filter.Query()
	for query.Next() {
		s.entities = append(s.entities, query.Entity())
	}
	for _, e := range s.entities {
		s.world.RemoveEntity(e)
	}

	half := s.cfg.Cube.Size
	radius := s.cfg.Derived.ParticleRadius

	if r.particles == nil {
		for i := 0; i < r.count; i++ {
			pos, vel, body := systems.RandomParticle(s.rng, half, radius, s.cfg.Particles.MinSpeed)
			s.mapper.NewEntity(&pos, &vel, &body)
		}
	} else {
		for _, p := range r.particles {
			pos := components.Position{Vec: p.Position}
			vel := components.Velocity{Vec: p.Velocity}
			body := components.Body{Radius: p.Radius}
			if body.Radius <= 0 {
				body.Radius = radius
			}
			s.mapper.NewEntity(&pos, &vel, &body)
		}
	}

	slog.Debug("particles replaced", "tick", s.tick, "removed", len(s.entities), "count", r.count)
	s.count = r.count
}

// Close flushes and closes telemetry output.
func (s *Simulation) Close() error {
	return s.output.Close()
}
