package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// State at window end
	Particles int     `csv:"particles"`
	Speed     float64 `csv:"speed"`

	// Events during window
	Ticks           int     `csv:"ticks"`
	WallBounces     int     `csv:"wall_bounces"`
	Contacts        int     `csv:"contacts"`
	BouncesPerTick  float64 `csv:"bounces_per_tick"`
	ContactsPerTick float64 `csv:"contacts_per_tick"`

	// Motion (sampled at window end)
	KineticEnergy float64 `csv:"kinetic_energy"` // sum of |v|²/2 over particles, unit mass
	MeanSpeed     float64 `csv:"mean_speed"`

	// Occupancy (sampled at window end)
	OccupiedCells int     `csv:"occupied_cells"`
	OutOfGrid     int     `csv:"out_of_grid"`
	Shannon       float64 `csv:"shannon"`

	// Shannon entropy over all ticks of the window
	ShannonMean float64 `csv:"shannon_mean"`
	ShannonStd  float64 `csv:"shannon_std"`

	// Normalized field distribution (sampled at window end)
	FieldMean float64 `csv:"field_mean"`
	FieldStd  float64 `csv:"field_std"`
	FieldP10  float64 `csv:"field_p10"`
	FieldP50  float64 `csv:"field_p50"`
	FieldP90  float64 `csv:"field_p90"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation between closest ranks
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// MeanStd returns the mean and population standard deviation of values.
func MeanStd(values []float64) (mean, std float64) {
	if len(values) == 0 {
		return 0, 0
	}
	mean, variance := stat.PopMeanVariance(values, nil)
	return mean, math.Sqrt(variance)
}

// ComputeFieldStats calculates mean, std, and percentiles from normalized cell values.
func ComputeFieldStats(values []float64) (mean, std, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}

	mean, std = MeanStd(values)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, std, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("particles", s.Particles),
		slog.Float64("speed", s.Speed),
		slog.Int("ticks", s.Ticks),
		slog.Int("wall_bounces", s.WallBounces),
		slog.Int("contacts", s.Contacts),
		slog.Float64("bounces_per_tick", s.BouncesPerTick),
		slog.Float64("contacts_per_tick", s.ContactsPerTick),
		slog.Float64("kinetic_energy", s.KineticEnergy),
		slog.Float64("mean_speed", s.MeanSpeed),
		slog.Int("occupied_cells", s.OccupiedCells),
		slog.Int("out_of_grid", s.OutOfGrid),
		slog.Float64("shannon", s.Shannon),
		slog.Float64("shannon_mean", s.ShannonMean),
		slog.Float64("shannon_std", s.ShannonStd),
		slog.Float64("field_mean", s.FieldMean),
		slog.Float64("field_std", s.FieldStd),
		slog.Float64("field_p10", s.FieldP10),
		slog.Float64("field_p50", s.FieldP50),
		slog.Float64("field_p90", s.FieldP90),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"particles", s.Particles,
		"speed", s.Speed,
		"wall_bounces", s.WallBounces,
		"contacts", s.Contacts,
		"kinetic_energy", s.KineticEnergy,
		"mean_speed", s.MeanSpeed,
		"occupied_cells", s.OccupiedCells,
		"out_of_grid", s.OutOfGrid,
		"shannon", s.Shannon,
		"shannon_mean", s.ShannonMean,
		"shannon_std", s.ShannonStd,
		"field_mean", s.FieldMean,
		"field_p50", s.FieldP50,
	)
}
