package sim

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/entropycube/systems"
)

// Cell is one grid cell of the entropy field.
type Cell struct {
	I, J, K int
	Origin  r3.Vec // minimum corner
	Count   int
	T       float64 // normalized entropy in [0, 1]
	Color   systems.RGB
}

// Snapshot is a read-only copy of the state a renderer needs.
type Snapshot struct {
	Tick          int32
	CubeSize      float64 // half-extent
	GridDivisions int
	CellSize      float64

	Particles []Particle
	Cells     []Cell // indexed like EntropyField.Counts

	Speed    float64
	Shannon  float64
	Occupied int
	Bounces  int // wall bounces in the last tick
	Contacts int // pair contacts in the last tick
}

// Snapshot returns a fresh copy of the current state.
func (s *Simulation) Snapshot() *Snapshot {
	snap := &Snapshot{}
	s.SnapshotInto(snap)
	return snap
}

// SnapshotInto fills snap with the current state, reusing its slices.
func (s *Simulation) SnapshotInto(snap *Snapshot) {
	f := s.field
	d := f.Divisions()

	snap.Tick = s.tick
	snap.CubeSize = s.cfg.Cube.Size
	snap.GridDivisions = d
	snap.CellSize = f.CellSize()
	snap.Speed = s.tickSpeed
	snap.Shannon = f.Shannon()
	snap.Occupied = f.Occupied()
	snap.Bounces = s.lastBounces
	snap.Contacts = s.lastContacts

	snap.Particles = snap.Particles[:0]
	query := s.filter.Query()
	for query.Next() {
		pos, vel, body := query.Get()
		snap.Particles = append(snap.Particles, Particle{
			Position: pos.Vec,
			Velocity: vel.Vec,
			Radius:   body.Radius,
		})
	}

	snap.Cells = snap.Cells[:0]
	for i := 0; i < d; i++ {
		for j := 0; j < d; j++ {
			for k := 0; k < d; k++ {
				snap.Cells = append(snap.Cells, Cell{
					I:      i,
					J:      j,
					K:      k,
					Origin: f.CellOrigin(i, j, k),
					Count:  f.Count(i, j, k),
					T:      f.Normalized(i, j, k),
					Color:  f.Color(i, j, k),
				})
			}
		}
	}
}

// Empty reports whether the snapshot has no particles.
func (snap *Snapshot) Empty() bool {
	return len(snap.Particles) == 0
}
