package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseCollide)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhaseEntropy)
		time.Sleep(200 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()

	if stats.Samples != 5 {
		t.Errorf("expected 5 samples, got %d", stats.Samples)
	}
	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration")
	}
	if stats.PhaseAvg[PhaseCollide] < 100*time.Microsecond {
		t.Errorf("collide avg = %v, want >= 100us", stats.PhaseAvg[PhaseCollide])
	}
	if stats.PhaseAvg[PhaseEntropy] < 200*time.Microsecond {
		t.Errorf("entropy avg = %v, want >= 200us", stats.PhaseAvg[PhaseEntropy])
	}
	if stats.PhaseAvg[PhaseApply] != 0 {
		t.Errorf("apply never ran, got %v", stats.PhaseAvg[PhaseApply])
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5)

	for i := 0; i < 10; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseCollide)
		pc.EndTick()
	}

	stats := pc.Stats()

	if stats.Samples != 5 {
		t.Errorf("expected window of 5 samples, got %d", stats.Samples)
	}
	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration after window filled")
	}
	if stats.TicksPerSecond <= 0 {
		t.Error("expected positive ticks per second")
	}
}

func TestPerfCollector_TickOrdering(t *testing.T) {
	pc := NewPerfCollector(20)

	for i := 0; i < 20; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseIntegrate)
		if i == 7 {
			time.Sleep(2 * time.Millisecond)
		}
		pc.EndTick()
	}

	stats := pc.Stats()

	if stats.MinTickDuration > stats.AvgTickDuration {
		t.Errorf("min %v > avg %v", stats.MinTickDuration, stats.AvgTickDuration)
	}
	if stats.P95TickDuration > stats.MaxTickDuration {
		t.Errorf("p95 %v > max %v", stats.P95TickDuration, stats.MaxTickDuration)
	}
	if stats.MaxTickDuration < 2*time.Millisecond {
		t.Errorf("max %v should include the slow tick", stats.MaxTickDuration)
	}
	// One slow tick in 20 is the max but not the 95th percentile
	if stats.P95TickDuration >= stats.MaxTickDuration {
		t.Errorf("p95 %v should fall below the single slow tick %v", stats.P95TickDuration, stats.MaxTickDuration)
	}
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseIntegrate)
		time.Sleep(10 * time.Microsecond)
		pc.StartPhase(PhaseCollide)
		time.Sleep(time.Millisecond)
		pc.EndTick()
	}

	stats := pc.Stats()

	if stats.PhasePct[PhaseCollide] <= stats.PhasePct[PhaseIntegrate] {
		t.Errorf("expected collide (%v%%) > integrate (%v%%)",
			stats.PhasePct[PhaseCollide], stats.PhasePct[PhaseIntegrate])
	}
	var sum float64
	for _, pct := range stats.PhasePct {
		sum += pct
	}
	if sum > 100.0001 {
		t.Errorf("phase shares sum to %v, want <= 100", sum)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	pc := NewPerfCollector(10)

	stats := pc.Stats()

	if stats.Samples != 0 || stats.AvgTickDuration != 0 || stats.TicksPerSecond != 0 {
		t.Errorf("expected zero stats for empty collector, got %+v", stats)
	}
}

func TestPerfCollector_FrameTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	pc.RecordFrame()
	time.Sleep(16 * time.Millisecond)
	pc.RecordFrame()

	stats := pc.Stats()

	if stats.FrameDuration < 15*time.Millisecond {
		t.Errorf("expected frame duration >= 15ms, got %v", stats.FrameDuration)
	}
	if stats.FPS <= 0 {
		t.Error("expected positive FPS")
	}
	// Sleep guarantees at least 16ms, so FPS can't exceed 62.5
	if stats.FPS > 62.5 {
		t.Errorf("expected FPS <= 62.5 with 16ms frame time, got %v", stats.FPS)
	}
}

func TestPerfStatsToCSV(t *testing.T) {
	stats := PerfStats{
		AvgTickDuration: 120 * time.Microsecond,
		P95TickDuration: 180 * time.Microsecond,
	}
	stats.PhasePct[PhaseApply] = 1
	stats.PhasePct[PhaseIntegrate] = 9
	stats.PhasePct[PhaseCollide] = 70
	stats.PhasePct[PhaseEntropy] = 15
	stats.PhasePct[PhaseTelemetry] = 5

	row := stats.ToCSV(1250)

	if row.WindowEnd != 1250 || row.AvgTickUS != 120 || row.P95TickUS != 180 {
		t.Errorf("unexpected header fields: %+v", row)
	}
	if row.CollidePct != 70 || row.EntropyPct != 15 || row.IntegratePct != 9 {
		t.Errorf("phase percentages not mapped: %+v", row)
	}
	if row.ApplyPct+row.IntegratePct+row.CollidePct+row.EntropyPct+row.TelemetryPct != 100 {
		t.Errorf("phase percentages should sum to 100: %+v", row)
	}
}

func TestPhaseOrder(t *testing.T) {
	tests := []struct {
		phase Phase
		name  string
	}{
		{PhaseApply, "apply"},
		{PhaseIntegrate, "integrate"},
		{PhaseCollide, "collide"},
		{PhaseEntropy, "entropy"},
		{PhaseTelemetry, "telemetry"},
	}

	order := PhaseOrder()
	if len(order) != len(tests) {
		t.Fatalf("expected %d phases, got %d", len(tests), len(order))
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if order[i] != tt.phase {
				t.Errorf("phase %d = %v, want %v", i, order[i], tt.phase)
			}
			if tt.phase.String() != tt.name {
				t.Errorf("String() = %q, want %q", tt.phase.String(), tt.name)
			}
		})
	}

	if Phase(99).String() != "unknown" {
		t.Errorf("out of range phase should print as unknown")
	}
}
