package sim

import (
	"log/slog"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/entropycube/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (s *Simulation) flushTelemetry() {
	if !s.collector.ShouldFlush(s.tick) {
		return
	}

	stats := s.collector.Flush(s.tick, s.sampleField())
	perfStats := s.perf.Stats()

	if s.statsCallback != nil {
		s.statsCallback(stats)
	}

	if s.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := s.output.WriteTelemetry(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if err := s.output.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		slog.Error("failed to write perf", "error", err)
	}
	if s.fieldDump {
		if err := s.output.WriteField(s.cellRecords()); err != nil {
			slog.Error("failed to write field", "error", err)
		}
	}

	for _, bm := range s.bookmarks.Check(stats) {
		if s.logStats {
			bm.LogBookmark()
		}
		if err := s.output.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
	}
}

// sampleField collects the end-of-window state for the collector.
func (s *Simulation) sampleField() telemetry.FieldSample {
	speeds := make([]float64, 0, s.count)
	query := s.filter.Query()
	for query.Next() {
		_, vel, _ := query.Get()
		speeds = append(speeds, r3.Norm(vel.Vec))
	}

	f := s.field
	return telemetry.FieldSample{
		Particles:     s.count,
		Speed:         s.tickSpeed,
		Speeds:        speeds,
		OccupiedCells: f.Occupied(),
		OutOfGrid:     f.Total() - f.Binned(),
		Shannon:       f.Shannon(),
		Normalized:    f.NormalizedValues(),
	}
}

// cellRecords flattens the current field for field.csv.
func (s *Simulation) cellRecords() []telemetry.CellRecord {
	f := s.field
	d := f.Divisions()
	records := make([]telemetry.CellRecord, 0, d*d*d)
	for i := 0; i < d; i++ {
		for j := 0; j < d; j++ {
			for k := 0; k < d; k++ {
				records = append(records, telemetry.CellRecord{
					Tick:    s.tick,
					I:       i,
					J:       j,
					K:       k,
					Count:   f.Count(i, j, k),
					Entropy: f.Entropy(i, j, k),
					T:       f.Normalized(i, j, k),
				})
			}
		}
	}
	return records
}
