package systems

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/entropycube/components"
)

// BodyRef points at the mutable state of one particle for pairwise resolution.
type BodyRef struct {
	Pos    *components.Position
	Vel    *components.Velocity
	Radius float64
}

// ResolvePair separates two overlapping particles and exchanges the normal
// component of their velocities. Both new velocities are computed from the
// velocities as they were before the call, so the result does not depend on
// argument order beyond the sign of the normal.
// Coincident particles (zero distance) are left untouched.
// Returns true if the pair was in contact.
func ResolvePair(a, b BodyRef) bool {
	diff := r3.Sub(a.Pos.Vec, b.Pos.Vec)
	dist := r3.Norm(diff)
	minDist := a.Radius + b.Radius

	if dist <= 0 || dist >= minDist {
		return false
	}

	normal := r3.Scale(1/dist, diff)

	// Snapshot before writing either particle
	v1 := a.Vel.Vec
	v2 := b.Vel.Vec
	d := r3.Dot(r3.Sub(v1, v2), normal)

	a.Vel.Vec = r3.Sub(v1, r3.Scale(d, normal))
	b.Vel.Vec = r3.Add(v2, r3.Scale(d, normal))

	push := 0.5 * (minDist - dist)
	a.Pos.Vec = r3.Add(a.Pos.Vec, r3.Scale(push, normal))
	b.Pos.Vec = r3.Sub(b.Pos.Vec, r3.Scale(push, normal))

	return true
}

// ResolveCollisions runs a single pass over every unordered pair (i < j).
// Each pair sees the positions left by earlier pairs in the same pass; no
// attempt is made to resolve simultaneous contacts jointly.
// Returns the number of contacts resolved.
func ResolveCollisions(bodies []BodyRef) int {
	contacts := 0
	n := len(bodies)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if ResolvePair(bodies[i], bodies[j]) {
				contacts++
			}
		}
	}
	return contacts
}

// CollisionSystem resolves pairwise contacts between all particles.
type CollisionSystem struct {
	filter *ecs.Filter3[components.Position, components.Velocity, components.Body]
	bodies []BodyRef // reused across ticks
}

// NewCollisionSystem creates a collision system.
func NewCollisionSystem(w *ecs.World) *CollisionSystem {
	return &CollisionSystem{
		filter: ecs.NewFilter3[components.Position, components.Velocity, components.Body](w),
		bodies: make([]BodyRef, 0, 256),
	}
}

// Update resolves all contacts for this tick. Returns the number of contacts.
func (s *CollisionSystem) Update() int {
	// Gather first: component pointers stay valid until the next structural change
	s.bodies = s.bodies[:0]
	query := s.filter.Query()
	for query.Next() {
		pos, vel, body := query.Get()
		s.bodies = append(s.bodies, BodyRef{Pos: pos, Vel: vel, Radius: body.Radius})
	}

	return ResolveCollisions(s.bodies)
}
