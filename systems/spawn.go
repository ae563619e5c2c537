package systems

import (
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/entropycube/components"
)

// RandomParticle returns the state of a new particle placed uniformly in
// [-half, half]³ and moving in a random direction at minSpeed.
// A zero-length direction sample yields a stationary particle.
func RandomParticle(rng *rand.Rand, half, radius, minSpeed float64) (components.Position, components.Velocity, components.Body) {
	pos := components.Position{Vec: r3.Vec{
		X: uniform(rng, -half, half),
		Y: uniform(rng, -half, half),
		Z: uniform(rng, -half, half),
	}}

	dir := r3.Vec{
		X: uniform(rng, -1, 1),
		Y: uniform(rng, -1, 1),
		Z: uniform(rng, -1, 1),
	}
	vel := components.Velocity{Vec: UnitOrZero(dir)}
	vel.Vec = r3.Scale(minSpeed, vel.Vec)

	return pos, vel, components.Body{Radius: radius}
}

// UnitOrZero normalizes v, returning the zero vector when |v| is zero.
func UnitOrZero(v r3.Vec) r3.Vec {
	n := r3.Norm(v)
	if n == 0 {
		return r3.Vec{}
	}
	return r3.Scale(1/n, v)
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
