package systems

import (
	"math"
	"math/rand"
	"testing"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/entropycube/components"
)

func newRef(pos, vel r3.Vec, radius float64) BodyRef {
	return BodyRef{
		Pos:    &components.Position{Vec: pos},
		Vel:    &components.Velocity{Vec: vel},
		Radius: radius,
	}
}

// TestResolvePairOverlapAlongZ places two particles at half the contact
// distance with opposite x velocities. The contact normal is z, so only the
// separation changes; the tangential x velocities pass through untouched.
func TestResolvePairOverlapAlongZ(t *testing.T) {
	sum := 2 * testRadius
	a := newRef(r3.Vec{}, r3.Vec{X: 0.01}, testRadius)
	b := newRef(r3.Vec{Z: 0.5 * sum}, r3.Vec{X: -0.01}, testRadius)

	if !ResolvePair(a, b) {
		t.Fatal("expected contact")
	}

	dist := r3.Norm(r3.Sub(a.Pos.Vec, b.Pos.Vec))
	if dist < sum-1e-12 {
		t.Errorf("separation %f < radius sum %f", dist, sum)
	}
	if a.Vel.X != 0.01 || b.Vel.X != -0.01 {
		t.Errorf("tangential velocities changed: a=%v b=%v", a.Vel.Vec, b.Vel.Vec)
	}
	// Pushed apart symmetrically along z
	if math.Abs(a.Pos.Z+b.Pos.Z-0.5*sum) > 1e-12 {
		t.Errorf("center of mass moved: a.z=%f b.z=%f", a.Pos.Z, b.Pos.Z)
	}
	if a.Pos.Z >= b.Pos.Z {
		t.Errorf("particles swapped sides: a.z=%f b.z=%f", a.Pos.Z, b.Pos.Z)
	}
}

// TestResolvePairHeadOn checks that a head-on approach swaps the x velocities.
func TestResolvePairHeadOn(t *testing.T) {
	sum := 2 * testRadius
	a := newRef(r3.Vec{}, r3.Vec{X: 0.01}, testRadius)
	b := newRef(r3.Vec{X: 0.5 * sum}, r3.Vec{X: -0.01}, testRadius)

	if !ResolvePair(a, b) {
		t.Fatal("expected contact")
	}

	if math.Abs(a.Vel.X-(-0.01)) > 1e-12 || math.Abs(b.Vel.X-0.01) > 1e-12 {
		t.Errorf("expected exchanged x velocities, got a=%f b=%f", a.Vel.X, b.Vel.X)
	}
	if a.Vel.X*0.01 >= 0 || b.Vel.X*-0.01 >= 0 {
		t.Errorf("x velocities did not change sign: a=%f b=%f", a.Vel.X, b.Vel.X)
	}
	dist := r3.Norm(r3.Sub(a.Pos.Vec, b.Pos.Vec))
	if dist < sum-1e-12 {
		t.Errorf("separation %f < radius sum %f", dist, sum)
	}
}

func TestResolvePairMomentumConserved(t *testing.T) {
	a := newRef(r3.Vec{X: 0.01, Y: 0.005}, r3.Vec{X: 0.3, Y: -0.1, Z: 0.2}, testRadius)
	b := newRef(r3.Vec{X: 0.02, Y: -0.01, Z: 0.01}, r3.Vec{X: -0.2, Y: 0.4, Z: 0.05}, testRadius)

	before := r3.Add(a.Vel.Vec, b.Vel.Vec)
	energyBefore := r3.Norm2(a.Vel.Vec) + r3.Norm2(b.Vel.Vec)

	if !ResolvePair(a, b) {
		t.Fatal("expected contact")
	}

	after := r3.Add(a.Vel.Vec, b.Vel.Vec)
	if r3.Norm(r3.Sub(before, after)) > 1e-12 {
		t.Errorf("momentum changed: %v -> %v", before, after)
	}
	energyAfter := r3.Norm2(a.Vel.Vec) + r3.Norm2(b.Vel.Vec)
	if math.Abs(energyBefore-energyAfter) > 1e-12 {
		t.Errorf("kinetic energy changed: %f -> %f", energyBefore, energyAfter)
	}
}

func TestResolvePairSkipsDegenerate(t *testing.T) {
	tests := []struct {
		name string
		posB r3.Vec
	}{
		{"coincident", r3.Vec{}},
		{"exactly touching", r3.Vec{Y: 2 * testRadius}},
		{"apart", r3.Vec{Y: 0.5}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := newRef(r3.Vec{}, r3.Vec{X: 0.01}, testRadius)
			b := newRef(tc.posB, r3.Vec{X: -0.01}, testRadius)

			if ResolvePair(a, b) {
				t.Error("expected no contact")
			}
			if a.Pos.Vec != (r3.Vec{}) || b.Pos.Vec != tc.posB {
				t.Errorf("positions changed: a=%v b=%v", a.Pos.Vec, b.Pos.Vec)
			}
			if a.Vel.X != 0.01 || b.Vel.X != -0.01 {
				t.Errorf("velocities changed: a=%v b=%v", a.Vel.Vec, b.Vel.Vec)
			}
			for _, v := range []float64{a.Pos.X, a.Pos.Y, a.Pos.Z, a.Vel.X, b.Vel.X} {
				if math.IsNaN(v) {
					t.Fatal("NaN produced")
				}
			}
		})
	}
}

func TestResolveCollisionsCountsContacts(t *testing.T) {
	bodies := []BodyRef{
		newRef(r3.Vec{X: -0.5}, r3.Vec{}, testRadius),
		newRef(r3.Vec{X: -0.5 + testRadius}, r3.Vec{}, testRadius),
		newRef(r3.Vec{X: 0.5}, r3.Vec{}, testRadius),
		newRef(r3.Vec{X: 0.5, Y: testRadius}, r3.Vec{}, testRadius),
		newRef(r3.Vec{Z: 0.9}, r3.Vec{}, testRadius),
	}

	if got := ResolveCollisions(bodies); got != 2 {
		t.Errorf("expected 2 contacts, got %d", got)
	}

	// Isolated pairs end exactly at contact distance
	for _, pair := range [][2]int{{0, 1}, {2, 3}} {
		a, b := bodies[pair[0]], bodies[pair[1]]
		dist := r3.Norm(r3.Sub(a.Pos.Vec, b.Pos.Vec))
		if dist < a.Radius+b.Radius-1e-9 {
			t.Errorf("pair %v still overlapping: %f", pair, dist)
		}
	}
}

// TestResolveCollisionsSparse checks that sparse random clouds are left
// without interpenetration after one pass.
func TestResolveCollisionsSparse(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	// Scatter pairs far apart, each pair overlapping by a random amount
	var bodies []BodyRef
	for i := 0; i < 10; i++ {
		center := r3.Vec{X: -0.9 + float64(i)*0.18, Y: rng.Float64()*0.1 - 0.05}
		offset := r3.Scale(rng.Float64()*1.5*testRadius+1e-6, UnitOrZero(r3.Vec{X: rng.Float64() - 0.5, Y: rng.Float64() - 0.5, Z: rng.Float64() - 0.5}))
		bodies = append(bodies,
			newRef(center, r3.Vec{X: rng.Float64() - 0.5}, testRadius),
			newRef(r3.Add(center, offset), r3.Vec{Y: rng.Float64() - 0.5}, testRadius),
		)
	}

	ResolveCollisions(bodies)

	for i := 0; i < len(bodies); i++ {
		for j := i + 1; j < len(bodies); j++ {
			dist := r3.Norm(r3.Sub(bodies[i].Pos.Vec, bodies[j].Pos.Vec))
			if dist < bodies[i].Radius+bodies[j].Radius-1e-9 {
				t.Errorf("pair (%d,%d) overlapping after pass: %f", i, j, dist)
			}
		}
	}
}

func TestCollisionSystemUpdate(t *testing.T) {
	world := ecs.NewWorld()
	mapper := ecs.NewMap3[components.Position, components.Velocity, components.Body](world)

	body := components.Body{Radius: testRadius}
	p1 := components.Position{}
	v1 := components.Velocity{Vec: r3.Vec{X: 0.01}}
	p2 := components.Position{Vec: r3.Vec{X: testRadius}}
	v2 := components.Velocity{Vec: r3.Vec{X: -0.01}}
	e1 := mapper.NewEntity(&p1, &v1, &body)
	e2 := mapper.NewEntity(&p2, &v2, &body)

	sys := NewCollisionSystem(world)
	if got := sys.Update(); got != 1 {
		t.Fatalf("expected 1 contact, got %d", got)
	}

	posMap := ecs.NewMap[components.Position](world)
	dist := r3.Norm(r3.Sub(posMap.Get(e1).Vec, posMap.Get(e2).Vec))
	if dist < 2*testRadius-1e-12 {
		t.Errorf("entities still overlapping: %f", dist)
	}

	velMap := ecs.NewMap[components.Velocity](world)
	if velMap.Get(e1).X >= 0 || velMap.Get(e2).X <= 0 {
		t.Errorf("expected velocities to reverse: %v %v", velMap.Get(e1).Vec, velMap.Get(e2).Vec)
	}
}
