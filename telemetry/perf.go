package telemetry

import (
	"log/slog"
	"sort"
	"time"
)

// Phase is one stage of the tick pipeline.
type Phase int

// Tick phases in pipeline order.
const (
	PhaseApply Phase = iota
	PhaseIntegrate
	PhaseCollide
	PhaseEntropy
	PhaseTelemetry

	numPhases
)

var phaseNames = [numPhases]string{
	PhaseApply:     "apply",
	PhaseIntegrate: "integrate",
	PhaseCollide:   "collide",
	PhaseEntropy:   "entropy",
	PhaseTelemetry: "telemetry",
}

func (p Phase) String() string {
	if p < 0 || p >= numPhases {
		return "unknown"
	}
	return phaseNames[p]
}

// PhaseOrder returns the phases in pipeline order.
func PhaseOrder() []Phase {
	order := make([]Phase, numPhases)
	for i := range order {
		order[i] = Phase(i)
	}
	return order
}

// PhaseDurations holds one duration per phase, indexed by Phase.
type PhaseDurations [numPhases]time.Duration

// PhasePercents holds one share of tick time per phase, indexed by Phase.
type PhasePercents [numPhases]float64

// PerfSample is the timing of a single tick.
type PerfSample struct {
	TickDuration time.Duration
	Phases       PhaseDurations
}

// PerfCollector keeps the last windowSize tick samples in a ring.
type PerfCollector struct {
	ring  []PerfSample
	next  int
	count int

	current    PerfSample
	tickStart  time.Time
	phaseStart time.Time
	phase      Phase
	inPhase    bool

	// Frame timing (graphics mode)
	lastFrame     time.Time
	frameDuration time.Duration
}

// NewPerfCollector creates a collector averaging over windowSize ticks
// (125 is one second at 8ms ticks).
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 125
	}
	return &PerfCollector{ring: make([]PerfSample, windowSize)}
}

// StartTick begins timing a tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	p.current = PerfSample{}
	p.inPhase = false
}

// StartPhase closes the running phase, if any, and starts timing phase.
func (p *PerfCollector) StartPhase(phase Phase) {
	now := time.Now()
	p.closePhase(now)
	p.phase = phase
	p.phaseStart = now
	p.inPhase = phase >= 0 && phase < numPhases
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.inPhase {
		p.current.Phases[p.phase] += now.Sub(p.phaseStart)
		p.inPhase = false
	}
}

// EndTick closes the running phase and stores the tick in the ring.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.closePhase(now)
	p.current.TickDuration = now.Sub(p.tickStart)

	p.ring[p.next] = p.current
	p.next = (p.next + 1) % len(p.ring)
	if p.count < len(p.ring) {
		p.count++
	}
}

// RecordFrame marks the end of a rendered frame.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrame.IsZero() {
		p.frameDuration = now.Sub(p.lastFrame)
	}
	p.lastFrame = now
}

// PerfStats aggregates the samples currently in the ring.
type PerfStats struct {
	Samples int

	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration
	P95TickDuration time.Duration

	PhaseAvg PhaseDurations
	PhasePct PhasePercents // share of the average tick, 0..100

	TicksPerSecond float64

	FrameDuration time.Duration
	FPS           float64
}

// Stats aggregates the current window. Frame timing is reported even when
// no tick has run yet.
func (p *PerfCollector) Stats() PerfStats {
	ps := PerfStats{Samples: p.count, FrameDuration: p.frameDuration}
	if p.frameDuration > 0 {
		ps.FPS = float64(time.Second) / float64(p.frameDuration)
	}
	if p.count == 0 {
		return ps
	}

	ticks := make([]time.Duration, p.count)
	var total time.Duration
	var phaseSum PhaseDurations
	for i, s := range p.ring[:p.count] {
		ticks[i] = s.TickDuration
		total += s.TickDuration
		for ph, d := range s.Phases {
			phaseSum[ph] += d
		}
	}
	sort.Slice(ticks, func(i, j int) bool { return ticks[i] < ticks[j] })

	n := time.Duration(p.count)
	ps.AvgTickDuration = total / n
	ps.MinTickDuration = ticks[0]
	ps.MaxTickDuration = ticks[len(ticks)-1]
	ps.P95TickDuration = ticks[(95*p.count+99)/100-1] // nearest rank

	for ph := range phaseSum {
		ps.PhaseAvg[ph] = phaseSum[ph] / n
		if ps.AvgTickDuration > 0 {
			ps.PhasePct[ph] = float64(ps.PhaseAvg[ph]) / float64(ps.AvgTickDuration) * 100
		}
	}
	if ps.AvgTickDuration > 0 {
		ps.TicksPerSecond = float64(time.Second) / float64(ps.AvgTickDuration)
	}
	return ps
}

// LogStats logs the performance summary.
func (s PerfStats) LogStats() {
	slog.Info("perf", "perf", s)
}

// LogValue implements slog.LogValuer. Phases below 0.1% are omitted.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("p95_tick_us", s.P95TickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Int("ticks_per_sec", int(s.TicksPerSecond)),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Int("fps", int(s.FPS)))
	}
	for _, ph := range PhaseOrder() {
		if pct := s.PhasePct[ph]; pct > 0.1 {
			attrs = append(attrs, slog.Float64(ph.String()+"_pct", float64(int(pct*10))/10))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one perf.csv row.
type PerfStatsCSV struct {
	WindowEnd    int32   `csv:"window_end"`
	AvgTickUS    int64   `csv:"avg_tick_us"`
	MinTickUS    int64   `csv:"min_tick_us"`
	MaxTickUS    int64   `csv:"max_tick_us"`
	P95TickUS    int64   `csv:"p95_tick_us"`
	TicksPerSec  float64 `csv:"ticks_per_sec"`
	FPS          float64 `csv:"fps"`
	ApplyPct     float64 `csv:"apply_pct"`
	IntegratePct float64 `csv:"integrate_pct"`
	CollidePct   float64 `csv:"collide_pct"`
	EntropyPct   float64 `csv:"entropy_pct"`
	TelemetryPct float64 `csv:"telemetry_pct"`
}

// ToCSV flattens the stats for perf.csv.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:    windowEnd,
		AvgTickUS:    s.AvgTickDuration.Microseconds(),
		MinTickUS:    s.MinTickDuration.Microseconds(),
		MaxTickUS:    s.MaxTickDuration.Microseconds(),
		P95TickUS:    s.P95TickDuration.Microseconds(),
		TicksPerSec:  s.TicksPerSecond,
		FPS:          s.FPS,
		ApplyPct:     s.PhasePct[PhaseApply],
		IntegratePct: s.PhasePct[PhaseIntegrate],
		CollidePct:   s.PhasePct[PhaseCollide],
		EntropyPct:   s.PhasePct[PhaseEntropy],
		TelemetryPct: s.PhasePct[PhaseTelemetry],
	}
}
