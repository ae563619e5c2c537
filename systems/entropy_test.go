package systems

import (
	"math"
	"math/rand"
	"testing"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/entropycube/components"
)

const boltzmann = 1.380649e-23

func newTestField() *EntropyField {
	return NewEntropyField(testHalf, 4, boltzmann, 0.2)
}

func TestEntropyFieldCellOf(t *testing.T) {
	f := newTestField()

	tests := []struct {
		name    string
		pos     r3.Vec
		i, j, k int
		ok      bool
	}{
		{"center", r3.Vec{}, 2, 2, 2, true},
		{"lower corner", r3.Vec{X: -1, Y: -1, Z: -1}, 0, 0, 0, true},
		{"just inside upper", r3.Vec{X: 0.99, Y: 0.99, Z: 0.99}, 3, 3, 3, true},
		{"mixed", r3.Vec{X: -0.6, Y: 0.1, Z: 0.6}, 0, 2, 3, true},
		{"upper boundary excluded", r3.Vec{X: 1}, 4, 2, 2, false},
		{"below grid", r3.Vec{Y: -1.2}, 2, -1, 2, false},
		{"far away", r3.Vec{Z: 1e30}, 2, 2, 4, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			i, j, k, ok := f.CellOf(tc.pos)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if i != tc.i || j != tc.j || k != tc.k {
				t.Errorf("cell = (%d,%d,%d), want (%d,%d,%d)", i, j, k, tc.i, tc.j, tc.k)
			}
		})
	}
}

func TestEntropyFieldZeroParticles(t *testing.T) {
	f := newTestField()
	f.Compute(nil)

	for c, v := range f.NormalizedValues() {
		if v != 0 {
			t.Errorf("cell %d: expected 0, got %f", c, v)
		}
	}
	for c, n := range f.Counts() {
		if n != 0 {
			t.Errorf("cell %d: expected empty, got %d", c, n)
		}
	}
	if f.Shannon() != 0 || f.Occupied() != 0 || f.MaxEntropy() != 0 {
		t.Errorf("expected zero aggregates, got shannon=%f occupied=%d max=%g", f.Shannon(), f.Occupied(), f.MaxEntropy())
	}
}

func TestEntropyFieldSingleCell(t *testing.T) {
	// All particles in one cell: p = 1, ln p = 0, so every s is 0 and the
	// normalization guard kicks in.
	f := newTestField()
	f.Compute([]r3.Vec{{X: 0.1}, {X: 0.2}, {X: 0.3, Y: 0.1}})

	if f.Count(2, 2, 2) != 3 {
		t.Errorf("expected 3 particles in center cell, got %d", f.Count(2, 2, 2))
	}
	for c, v := range f.NormalizedValues() {
		if v != 0 {
			t.Errorf("cell %d: expected t=0, got %f", c, v)
		}
	}
	if f.Occupied() != 1 {
		t.Errorf("expected 1 occupied cell, got %d", f.Occupied())
	}
}

func TestEntropyFieldValues(t *testing.T) {
	f := newTestField()
	// 1 particle in cell A, 3 in cell B: pA = 1/4, pB = 3/4
	f.Compute([]r3.Vec{
		{X: -0.9, Y: -0.9, Z: -0.9},
		{X: 0.9, Y: 0.9, Z: 0.9},
		{X: 0.8, Y: 0.8, Z: 0.8},
		{X: 0.7, Y: 0.6, Z: 0.9},
	})

	sA := -boltzmann * 0.25 * math.Log(0.25)
	sB := -boltzmann * 0.75 * math.Log(0.75)

	if math.Abs(f.Entropy(0, 0, 0)-sA) > 1e-35 {
		t.Errorf("cell A entropy = %g, want %g", f.Entropy(0, 0, 0), sA)
	}
	if math.Abs(f.Entropy(3, 3, 3)-sB) > 1e-35 {
		t.Errorf("cell B entropy = %g, want %g", f.Entropy(3, 3, 3), sB)
	}

	// sA > sB, so A normalizes to 1
	if f.Normalized(0, 0, 0) != 1 {
		t.Errorf("expected t=1 for max cell, got %f", f.Normalized(0, 0, 0))
	}
	if math.Abs(f.Normalized(3, 3, 3)-sB/sA) > 1e-12 {
		t.Errorf("t = %f, want %f", f.Normalized(3, 3, 3), sB/sA)
	}
	if f.Normalized(1, 1, 1) != 0 {
		t.Errorf("expected t=0 for empty cell, got %f", f.Normalized(1, 1, 1))
	}

	wantShannon := -(0.25*math.Log(0.25) + 0.75*math.Log(0.75))
	if math.Abs(f.Shannon()-wantShannon) > 1e-12 {
		t.Errorf("Shannon = %f, want %f", f.Shannon(), wantShannon)
	}
	if f.Occupied() != 2 {
		t.Errorf("expected 2 occupied cells, got %d", f.Occupied())
	}
}

func TestEntropyFieldOutOfGridExcluded(t *testing.T) {
	f := newTestField()
	f.Compute([]r3.Vec{{X: -0.9}, {X: 0.9}, {X: 5}})

	sum := 0
	for _, n := range f.Counts() {
		sum += n
	}
	if sum != 2 {
		t.Errorf("expected 2 binned particles, got %d", sum)
	}
	if f.Total() != 3 || f.Binned() != 2 {
		t.Errorf("total=%d binned=%d, want 3 and 2", f.Total(), f.Binned())
	}
	// Probabilities use the full count: p = 1/3 each
	want := -boltzmann * (1.0 / 3) * math.Log(1.0/3)
	if math.Abs(f.Entropy(0, 2, 2)-want) > 1e-35 {
		t.Errorf("entropy = %g, want %g", f.Entropy(0, 2, 2), want)
	}
}

// TestEntropyFieldInvariants checks conservation and bounds on random clouds.
func TestEntropyFieldInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	f := newTestField()

	for trial := 0; trial < 50; trial++ {
		n := rng.Intn(201)
		positions := make([]r3.Vec, n)
		for i := range positions {
			pos, _, _ := RandomParticle(rng, testHalf-testRadius, testRadius, 0.01)
			positions[i] = pos.Vec
		}

		f.Compute(positions)

		sum := 0
		for _, c := range f.Counts() {
			sum += c
		}
		if sum != n {
			t.Fatalf("trial %d: counts sum %d != %d particles", trial, sum, n)
		}
		for c, v := range f.NormalizedValues() {
			if v < 0 || v > 1 || math.IsNaN(v) {
				t.Fatalf("trial %d cell %d: t=%f out of [0,1]", trial, c, v)
			}
		}
		if h := f.Shannon(); h > math.Log(64)+1e-12 {
			t.Fatalf("trial %d: Shannon %f exceeds ln(64)", trial, h)
		}
	}
}

func TestEntropyFieldCellOrigin(t *testing.T) {
	f := newTestField()
	if f.CellSize() != 0.5 {
		t.Fatalf("cell size = %f, want 0.5", f.CellSize())
	}
	got := f.CellOrigin(1, 2, 3)
	want := r3.Vec{X: -0.5, Y: 0, Z: 0.5}
	if got != want {
		t.Errorf("origin = %v, want %v", got, want)
	}
}

func TestEntropyFieldRecomputesFromScratch(t *testing.T) {
	f := newTestField()
	f.Compute([]r3.Vec{{X: -0.9}, {X: 0.9}})
	f.Compute([]r3.Vec{{Y: 0.9}})

	if f.Count(0, 2, 2) != 0 || f.Count(3, 2, 2) != 0 {
		t.Error("counts from previous compute leaked")
	}
	if f.Count(2, 3, 2) != 1 {
		t.Errorf("expected new particle binned, got %d", f.Count(2, 3, 2))
	}
}

func TestEntropySystemUpdate(t *testing.T) {
	world := ecs.NewWorld()
	mapper := ecs.NewMap3[components.Position, components.Velocity, components.Body](world)
	rng := rand.New(rand.NewSource(5))

	for i := 0; i < 40; i++ {
		pos, vel, body := RandomParticle(rng, testHalf-testRadius, testRadius, 0.01)
		mapper.NewEntity(&pos, &vel, &body)
	}

	sys := NewEntropySystem(world, newTestField())
	sys.Update()

	if sys.Field().Total() != 40 || sys.Field().Binned() != 40 {
		t.Errorf("expected 40 particles binned, got total=%d binned=%d", sys.Field().Total(), sys.Field().Binned())
	}
}
