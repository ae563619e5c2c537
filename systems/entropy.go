package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/entropycube/components"
)

// EntropyField bins particles into a divisions³ grid over the cube and
// derives a per-cell entropy contribution s = -k p ln p from the occupancy.
// Everything is recomputed from scratch on each Compute call.
type EntropyField struct {
	divisions int
	half      float64
	cellSize  float64
	k         float64
	blueGreen float64

	counts     []int
	entropy    []float64 // s per cell
	normalized []float64 // t = s / s_max per cell
	probs      []float64 // scratch for Shannon entropy

	total    int     // particles passed to the last Compute
	binned   int     // particles that fell inside the grid
	occupied int     // cells with count > 0
	maxS     float64 // largest s before the zero guard
	shannon  float64 // -sum p ln p over cells
}

// NewEntropyField creates a field for a cube of half-extent half split into
// divisions cells per axis. k scales the entropy contribution; blueGreen is
// the green component of the color at t=0.
func NewEntropyField(half float64, divisions int, k, blueGreen float64) *EntropyField {
	if divisions < 1 {
		divisions = 1
	}
	n := divisions * divisions * divisions
	return &EntropyField{
		divisions:  divisions,
		half:       half,
		cellSize:   2 * half / float64(divisions),
		k:          k,
		blueGreen:  blueGreen,
		counts:     make([]int, n),
		entropy:    make([]float64, n),
		normalized: make([]float64, n),
		probs:      make([]float64, n),
	}
}

// CellOf returns the grid coordinates of a position.
// ok is false when the position lies outside the grid.
func (f *EntropyField) CellOf(p r3.Vec) (i, j, k int, ok bool) {
	i = f.axisIndex(p.X)
	j = f.axisIndex(p.Y)
	k = f.axisIndex(p.Z)
	ok = i >= 0 && i < f.divisions && j >= 0 && j < f.divisions && k >= 0 && k < f.divisions
	return i, j, k, ok
}

func (f *EntropyField) axisIndex(v float64) int {
	c := math.Floor((v - (-f.half)) / f.cellSize)
	// Keep far-out values from overflowing int conversion
	if c < -1 {
		return -1
	}
	if c > float64(f.divisions) {
		return f.divisions
	}
	return int(c)
}

// index returns the flat index for cell (i, j, k).
func (f *EntropyField) index(i, j, k int) int {
	return (i*f.divisions+j)*f.divisions + k
}

// Compute rebuilds counts, entropy and normalized values from positions.
// Positions outside the grid are excluded from the counts but still count
// towards the total used for probabilities.
func (f *EntropyField) Compute(positions []r3.Vec) {
	for c := range f.counts {
		f.counts[c] = 0
		f.entropy[c] = 0
		f.normalized[c] = 0
		f.probs[c] = 0
	}
	f.total = len(positions)
	f.binned = 0
	f.occupied = 0
	f.maxS = 0
	f.shannon = 0

	for _, p := range positions {
		i, j, k, ok := f.CellOf(p)
		if !ok {
			continue
		}
		f.counts[f.index(i, j, k)]++
		f.binned++
	}

	if f.total == 0 {
		return
	}

	n := float64(f.total)
	for c, count := range f.counts {
		if count == 0 {
			continue
		}
		p := float64(count) / n
		f.probs[c] = p
		f.entropy[c] = -f.k * p * math.Log(p)
		f.occupied++
	}

	f.maxS = floats.Max(f.entropy)
	sMax := f.maxS
	if sMax <= 0 {
		sMax = 1
	}
	for c, s := range f.entropy {
		f.normalized[c] = clamp01(s / sMax)
	}

	f.shannon = stat.Entropy(f.probs)
}

// Divisions returns the number of cells per axis.
func (f *EntropyField) Divisions() int { return f.divisions }

// CellSize returns the edge length of one cell.
func (f *EntropyField) CellSize() float64 { return f.cellSize }

// Count returns the occupancy of cell (i, j, k).
func (f *EntropyField) Count(i, j, k int) int { return f.counts[f.index(i, j, k)] }

// Entropy returns the raw entropy contribution of cell (i, j, k).
func (f *EntropyField) Entropy(i, j, k int) float64 { return f.entropy[f.index(i, j, k)] }

// Normalized returns t in [0, 1] for cell (i, j, k).
func (f *EntropyField) Normalized(i, j, k int) float64 { return f.normalized[f.index(i, j, k)] }

// Color returns the display color of cell (i, j, k).
func (f *EntropyField) Color(i, j, k int) RGB {
	return BlueToRed(f.Normalized(i, j, k), f.blueGreen)
}

// CellOrigin returns the minimum corner of cell (i, j, k).
func (f *EntropyField) CellOrigin(i, j, k int) r3.Vec {
	return r3.Vec{
		X: -f.half + float64(i)*f.cellSize,
		Y: -f.half + float64(j)*f.cellSize,
		Z: -f.half + float64(k)*f.cellSize,
	}
}

// Counts returns the flat occupancy array, indexed (i*d+j)*d+k. Read-only.
func (f *EntropyField) Counts() []int { return f.counts }

// NormalizedValues returns the flat normalized array, indexed like Counts. Read-only.
func (f *EntropyField) NormalizedValues() []float64 { return f.normalized }

// Total returns the number of particles passed to the last Compute.
func (f *EntropyField) Total() int { return f.total }

// Binned returns the number of particles that landed inside the grid.
func (f *EntropyField) Binned() int { return f.binned }

// Occupied returns the number of non-empty cells.
func (f *EntropyField) Occupied() int { return f.occupied }

// MaxEntropy returns the largest cell contribution from the last Compute.
func (f *EntropyField) MaxEntropy() float64 { return f.maxS }

// Shannon returns -sum p ln p over all cells (unscaled by k).
func (f *EntropyField) Shannon() float64 { return f.shannon }

// EntropySystem feeds particle positions from the world into an EntropyField.
type EntropySystem struct {
	filter    *ecs.Filter1[components.Position]
	field     *EntropyField
	positions []r3.Vec // reused across ticks
}

// NewEntropySystem creates an entropy system writing into field.
func NewEntropySystem(w *ecs.World, field *EntropyField) *EntropySystem {
	return &EntropySystem{
		filter:    ecs.NewFilter1[components.Position](w),
		field:     field,
		positions: make([]r3.Vec, 0, 256),
	}
}

// Update recomputes the field from current positions.
func (s *EntropySystem) Update() {
	s.positions = s.positions[:0]
	query := s.filter.Query()
	for query.Next() {
		pos := query.Get()
		s.positions = append(s.positions, pos.Vec)
	}
	s.field.Compute(s.positions)
}

// Field returns the underlying entropy field.
func (s *EntropySystem) Field() *EntropyField {
	return s.field
}
