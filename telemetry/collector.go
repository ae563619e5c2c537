package telemetry

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float64

	// Current window tracking
	windowStartTick int32

	// Event counters for current window
	ticks       int
	wallBounces int
	contacts    int

	// Per-tick Shannon entropy samples for current window
	shannon []float64
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec float64, dt float64) *Collector {
	ticksPerWindow := int32(windowDurationSec / dt)
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
		shannon:             make([]float64, 0, ticksPerWindow),
	}
}

// RecordTick records the events of one completed tick.
func (c *Collector) RecordTick(wallBounces, contacts int, shannon float64) {
	c.ticks++
	c.wallBounces += wallBounces
	c.contacts += contacts
	c.shannon = append(c.shannon, shannon)
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// FieldSample holds the state sampled at the end of a window.
type FieldSample struct {
	Particles     int
	Speed         float64
	Speeds        []float64 // |v| per particle
	OccupiedCells int
	OutOfGrid     int
	Shannon       float64
	Normalized    []float64 // t per cell
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int32, sample FieldSample) WindowStats {
	var bouncesPerTick, contactsPerTick float64
	if c.ticks > 0 {
		bouncesPerTick = float64(c.wallBounces) / float64(c.ticks)
		contactsPerTick = float64(c.contacts) / float64(c.ticks)
	}

	var ke, speedSum float64
	for _, v := range sample.Speeds {
		ke += 0.5 * v * v
		speedSum += v
	}
	var meanSpeed float64
	if len(sample.Speeds) > 0 {
		meanSpeed = speedSum / float64(len(sample.Speeds))
	}

	shMean, shStd := MeanStd(c.shannon)
	fMean, fStd, fP10, fP50, fP90 := ComputeFieldStats(sample.Normalized)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,

		Particles: sample.Particles,
		Speed:     sample.Speed,

		Ticks:           c.ticks,
		WallBounces:     c.wallBounces,
		Contacts:        c.contacts,
		BouncesPerTick:  bouncesPerTick,
		ContactsPerTick: contactsPerTick,

		KineticEnergy: ke,
		MeanSpeed:     meanSpeed,

		OccupiedCells: sample.OccupiedCells,
		OutOfGrid:     sample.OutOfGrid,
		Shannon:       sample.Shannon,

		ShannonMean: shMean,
		ShannonStd:  shStd,

		FieldMean: fMean,
		FieldStd:  fStd,
		FieldP10:  fP10,
		FieldP50:  fP50,
		FieldP90:  fP90,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.ticks = 0
	c.wallBounces = 0
	c.contacts = 0
	c.shannon = c.shannon[:0]

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
