// Package systems provides ECS systems and the numeric core of the simulation.
package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/entropycube/components"
)

// Advance moves a particle by vel*speed and keeps it inside the cube of
// half-extent half. Each axis is handled independently: a particle past a
// wall is clamped onto it and its velocity component is pointed back inward.
// Only the sign changes, so speed is preserved.
// Returns the number of axes on which a wall was hit.
func Advance(pos *components.Position, vel *components.Velocity, radius, speed, half float64) int {
	pos.Vec = r3.Add(pos.Vec, r3.Scale(speed, vel.Vec))

	lo := -half + radius
	hi := half - radius

	bounces := 0
	if reflectAxis(&pos.X, &vel.X, lo, hi) {
		bounces++
	}
	if reflectAxis(&pos.Y, &vel.Y, lo, hi) {
		bounces++
	}
	if reflectAxis(&pos.Z, &vel.Z, lo, hi) {
		bounces++
	}
	return bounces
}

// reflectAxis clamps p to [lo, hi] and forces v to point away from the wall hit.
func reflectAxis(p, v *float64, lo, hi float64) bool {
	if *p < lo {
		*p = lo
		*v = math.Abs(*v)
		return true
	}
	if *p > hi {
		*p = hi
		*v = -math.Abs(*v)
		return true
	}
	return false
}

// MovementSystem integrates every particle in the world.
type MovementSystem struct {
	filter *ecs.Filter3[components.Position, components.Velocity, components.Body]
	half   float64
}

// NewMovementSystem creates a movement system for a cube of half-extent half.
func NewMovementSystem(w *ecs.World, half float64) *MovementSystem {
	return &MovementSystem{
		filter: ecs.NewFilter3[components.Position, components.Velocity, components.Body](w),
		half:   half,
	}
}

// Update advances all particles by one tick. Returns the total wall bounces.
func (s *MovementSystem) Update(speed float64) int {
	bounces := 0
	query := s.filter.Query()
	for query.Next() {
		pos, vel, body := query.Get()
		bounces += Advance(pos, vel, body.Radius, speed, s.half)
	}
	return bounces
}
