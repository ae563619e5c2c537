package main

import (
	"fmt"
	"math"
	"runtime"
	"slices"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/entropycube/config"
	"github.com/pthm-cable/entropycube/sim"
	"github.com/pthm-cable/entropycube/telemetry"
)

// equilibriumTolerance is the relative Shannon band around the final value
// that counts as settled.
const equilibriumTolerance = 0.02

// RunResult is one headless run at a fixed particle count, speed and seed.
type RunResult struct {
	Particles       int     `csv:"particles"`
	Speed           float64 `csv:"speed"`
	Seed            int64   `csv:"seed"`
	Ticks           int32   `csv:"ticks"`
	Windows         int     `csv:"windows"`
	FinalShannon    float64 `csv:"final_shannon"`
	ShannonMean     float64 `csv:"shannon_mean"`
	ShannonStd      float64 `csv:"shannon_std"`
	BouncesPerTick  float64 `csv:"bounces_per_tick"`
	ContactsPerTick float64 `csv:"contacts_per_tick"`
	MeanSpeed       float64 `csv:"mean_speed"`
	OccupiedCells   float64 `csv:"occupied_cells"`
	FieldP50        float64 `csv:"field_p50"`
	EquilibriumTick int32   `csv:"equilibrium_tick"` // -1 if never settled
	EquilibriumSecs float64 `csv:"equilibrium_sec"`
}

// Summary aggregates the runs at one particle count.
type Summary struct {
	Particles           int     `csv:"particles"`
	Runs                int     `csv:"runs"`
	ShannonMean         float64 `csv:"shannon_mean"`
	ShannonStd          float64 `csv:"shannon_std"`
	ContactsPerTickMean float64 `csv:"contacts_per_tick_mean"`
	ContactsPerTickStd  float64 `csv:"contacts_per_tick_std"`
	BouncesPerTickMean  float64 `csv:"bounces_per_tick_mean"`
	EquilibriumSecMean  float64 `csv:"equilibrium_sec_mean"`
	Settled             int     `csv:"settled"`
}

// runJob is one point of the sweep grid.
type runJob struct {
	particles int
	speed     float64
	seed      int64
}

// runSimulation runs one headless simulation and reduces its stats windows.
func runSimulation(base *config.Config, job runJob, ticks int32, statsWindow float64) (RunResult, error) {
	cfg := *base
	cfg.Particles.Initial = cfg.ClampParticles(job.particles)
	cfg.Physics.Speed = cfg.ClampSpeed(job.speed)

	var windows []telemetry.WindowStats
	s, err := sim.New(&cfg, sim.Options{
		Seed:           job.seed,
		StatsWindowSec: statsWindow,
		StatsCallback: func(ws telemetry.WindowStats) {
			windows = append(windows, ws)
		},
	})
	if err != nil {
		return RunResult{}, fmt.Errorf("particles=%d seed=%d: %w", job.particles, job.seed, err)
	}
	defer s.Close()

	for s.TickCount() < ticks {
		s.Tick()
	}

	res := reduceWindows(windows, cfg.Derived.DT)
	res.Particles = cfg.Particles.Initial
	res.Speed = cfg.Physics.Speed
	res.Seed = job.seed
	res.Ticks = s.TickCount()
	return res, nil
}

// reduceWindows turns a run's stats windows into a RunResult. Rates are
// averaged over every window; the equilibrium tick is the end of the first
// window from which Shannon entropy stays within equilibriumTolerance of the
// final window's mean.
func reduceWindows(windows []telemetry.WindowStats, dt float64) RunResult {
	res := RunResult{Windows: len(windows), EquilibriumTick: -1, EquilibriumSecs: -1}
	if len(windows) == 0 {
		return res
	}

	shannon := make([]float64, len(windows))
	var bounces, contacts, occupied float64
	for i, w := range windows {
		shannon[i] = w.ShannonMean
		bounces += w.BouncesPerTick
		contacts += w.ContactsPerTick
		occupied += float64(w.OccupiedCells)
	}
	n := float64(len(windows))
	last := windows[len(windows)-1]

	res.FinalShannon = last.Shannon
	res.ShannonMean, res.ShannonStd = stat.PopMeanStdDev(shannon, nil)
	res.BouncesPerTick = bounces / n
	res.ContactsPerTick = contacts / n
	res.OccupiedCells = occupied / n
	res.MeanSpeed = last.MeanSpeed
	res.FieldP50 = last.FieldP50

	if idx := settledFrom(shannon, equilibriumTolerance); idx >= 0 {
		res.EquilibriumTick = windows[idx].WindowEndTick
		res.EquilibriumSecs = float64(res.EquilibriumTick) * dt
	}
	return res
}

// settledFrom returns the first index from which every value stays within
// tol (relative) of the last value, or -1 if the last value is zero.
func settledFrom(values []float64, tol float64) int {
	if len(values) == 0 {
		return -1
	}
	final := values[len(values)-1]
	if final == 0 {
		return -1
	}
	idx := len(values) - 1
	for i := len(values) - 1; i >= 0; i-- {
		if math.Abs(values[i]-final) > tol*math.Abs(final) {
			break
		}
		idx = i
	}
	return idx
}

// summarize groups results by particle count in ascending order.
func summarize(results []RunResult) []Summary {
	groups := make(map[int][]RunResult)
	var order []int
	for _, r := range results {
		if _, ok := groups[r.Particles]; !ok {
			order = append(order, r.Particles)
		}
		groups[r.Particles] = append(groups[r.Particles], r)
	}
	slices.Sort(order)

	summaries := make([]Summary, 0, len(order))
	for _, p := range order {
		runs := groups[p]
		shannon := make([]float64, len(runs))
		contacts := make([]float64, len(runs))
		var bounces, eqSum float64
		settled := 0
		for i, r := range runs {
			shannon[i] = r.ShannonMean
			contacts[i] = r.ContactsPerTick
			bounces += r.BouncesPerTick
			if r.EquilibriumTick >= 0 {
				eqSum += r.EquilibriumSecs
				settled++
			}
		}

		s := Summary{Particles: p, Runs: len(runs), Settled: settled, EquilibriumSecMean: -1}
		s.ShannonMean, s.ShannonStd = stat.PopMeanStdDev(shannon, nil)
		s.ContactsPerTickMean, s.ContactsPerTickStd = stat.PopMeanStdDev(contacts, nil)
		s.BouncesPerTickMean = bounces / float64(len(runs))
		if settled > 0 {
			s.EquilibriumSecMean = eqSum / float64(settled)
		}
		summaries = append(summaries, s)
	}
	return summaries
}

// runAll runs every job on a bounded pool of goroutines. Results keep job order.
func runAll(base *config.Config, jobs []runJob, ticks int32, statsWindow float64, progress func(done int, r RunResult)) ([]RunResult, error) {
	results := make([]RunResult, len(jobs))
	errs := make([]error, len(jobs))

	workers := runtime.NumCPU()
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	var mu sync.Mutex
	done := 0

	for i, job := range jobs {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, j runJob) {
			defer wg.Done()
			defer func() { <-sem }()

			r, err := runSimulation(base, j, ticks, statsWindow)
			results[idx] = r
			errs[idx] = err

			if err == nil && progress != nil {
				mu.Lock()
				done++
				progress(done, r)
				mu.Unlock()
			}
		}(i, job)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
