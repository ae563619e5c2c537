package main

import (
	"fmt"
	"sync"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/entropycube/config"
)

// FitEval is one objective evaluation logged during a speed fit.
type FitEval struct {
	Eval            int     `csv:"eval"`
	Speed           float64 `csv:"speed"`
	ContactsPerTick float64 `csv:"contacts_per_tick"`
	Loss            float64 `csv:"loss"`
}

// SpeedFitter searches for the speed multiplier at which a fixed particle
// count produces a target mean contact rate.
type SpeedFitter struct {
	base        *config.Config
	particles   int
	target      float64
	seeds       []int64
	ticks       int32
	statsWindow float64

	mu    sync.Mutex
	evals []FitEval
}

// NewSpeedFitter creates a fitter.
func NewSpeedFitter(base *config.Config, particles int, target float64, seeds []int64, ticks int32, statsWindow float64) *SpeedFitter {
	return &SpeedFitter{
		base:        base,
		particles:   particles,
		target:      target,
		seeds:       seeds,
		ticks:       ticks,
		statsWindow: statsWindow,
	}
}

// Evaluate returns the squared error between the seed-averaged contact rate
// at speed x[0] and the target. Lower is better.
func (f *SpeedFitter) Evaluate(x []float64) (float64, error) {
	speed := f.base.ClampSpeed(x[0])

	jobs := make([]runJob, len(f.seeds))
	for i, seed := range f.seeds {
		jobs[i] = runJob{particles: f.particles, speed: speed, seed: seed}
	}
	results, err := runAll(f.base, jobs, f.ticks, f.statsWindow, nil)
	if err != nil {
		return 0, err
	}

	var contacts float64
	for _, r := range results {
		contacts += r.ContactsPerTick
	}
	contacts /= float64(len(results))
	diff := contacts - f.target
	loss := diff * diff

	f.mu.Lock()
	f.evals = append(f.evals, FitEval{
		Eval:            len(f.evals) + 1,
		Speed:           speed,
		ContactsPerTick: contacts,
		Loss:            loss,
	})
	f.mu.Unlock()

	return loss, nil
}

// Evals returns the logged evaluations in order.
func (f *SpeedFitter) Evals() []FitEval {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FitEval(nil), f.evals...)
}

// Fit runs a Nelder-Mead search starting from the configured speed and
// returns the best speed found.
func (f *SpeedFitter) Fit(maxEvals int) (float64, error) {
	var evalErr error
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			loss, err := f.Evaluate(x)
			if err != nil && evalErr == nil {
				evalErr = err
			}
			return loss
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: maxEvals,
		Concurrent:      0, // runs already fan out across seeds
	}
	method := &optimize.NelderMead{SimplexSize: 0.25}

	result, err := optimize.Minimize(problem, []float64{f.base.Physics.Speed}, settings, method)
	if evalErr != nil {
		return 0, fmt.Errorf("evaluating speed: %w", evalErr)
	}
	if err != nil && result == nil {
		return 0, fmt.Errorf("minimizing: %w", err)
	}
	return f.base.ClampSpeed(result.X[0]), nil
}
