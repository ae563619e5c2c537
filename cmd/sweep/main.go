// Package main sweeps headless simulations across particle counts and seeds
// and records how the entropy field settles. With -fit-contacts it instead
// searches for the speed multiplier that yields a target contact rate.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/entropycube/config"
)

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	minParticles := flag.Int("min", 10, "Smallest particle count")
	maxParticles := flag.Int("max", 200, "Largest particle count")
	step := flag.Int("step", 10, "Particle count step")
	seeds := flag.Int("seeds", 3, "Number of seeds per particle count")
	ticks := flag.Int("ticks", 12500, "Ticks per run")
	statsWindow := flag.Float64("stats-window", 5, "Stats window in simulated seconds")
	fitContacts := flag.Float64("fit-contacts", 0, "Fit speed to this mean contacts per tick (0 = sweep mode)")
	fitParticles := flag.Int("fit-particles", 100, "Particle count used by -fit-contacts")
	maxEvals := flag.Int("max-evals", 30, "Maximum objective evaluations for -fit-contacts")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}
	if *step < 1 || *minParticles > *maxParticles {
		log.Fatalf("invalid particle range %d..%d step %d", *minParticles, *maxParticles, *step)
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	// Load base config
	if err := config.Init(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	baseCfg := config.Cfg()

	evalSeeds := make([]int64, *seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}

	if *fitContacts > 0 {
		runFit(baseCfg, *fitParticles, *fitContacts, evalSeeds, int32(*ticks), *statsWindow, *maxEvals, *outputDir)
		return
	}
	runSweep(baseCfg, *minParticles, *maxParticles, *step, evalSeeds, int32(*ticks), *statsWindow, *outputDir)
}

// runSweep runs the particle count by seed grid and writes per-run and
// per-count CSVs.
func runSweep(cfg *config.Config, minP, maxP, step int, seeds []int64, ticks int32, statsWindow float64, outDir string) {
	var jobs []runJob
	for p := minP; p <= maxP; p += step {
		for _, seed := range seeds {
			jobs = append(jobs, runJob{particles: p, speed: cfg.Physics.Speed, seed: seed})
		}
	}

	fmt.Printf("Sweeping %d runs (%d..%d step %d, %d seeds), %d ticks each\n",
		len(jobs), minP, maxP, step, len(seeds), ticks)

	startTime := time.Now()
	results, err := runAll(cfg, jobs, ticks, statsWindow, func(done int, r RunResult) {
		elapsed := time.Since(startTime)
		remaining := time.Duration(len(jobs)-done) * (elapsed / time.Duration(done))
		fmt.Printf("Run %d/%d: particles=%d seed=%d shannon=%.3f contacts/tick=%.2f | elapsed: %s, ETA: %s\n",
			done, len(jobs), r.Particles, r.Seed, r.ShannonMean, r.ContactsPerTick,
			formatDuration(elapsed), formatDuration(remaining))
	})
	if err != nil {
		log.Fatalf("sweep failed: %v", err)
	}

	if err := writeCSV(filepath.Join(outDir, "sweep_runs.csv"), &results); err != nil {
		log.Fatalf("failed to write runs: %v", err)
	}
	summaries := summarize(results)
	if err := writeCSV(filepath.Join(outDir, "sweep_summary.csv"), &summaries); err != nil {
		log.Fatalf("failed to write summary: %v", err)
	}

	fmt.Printf("\nSweep complete in %s\n", formatDuration(time.Since(startTime)))
	for _, s := range summaries {
		fmt.Printf("  %4d particles: shannon=%.3f±%.3f contacts/tick=%.2f settled=%d/%d\n",
			s.Particles, s.ShannonMean, s.ShannonStd, s.ContactsPerTickMean, s.Settled, s.Runs)
	}
	fmt.Printf("\nResults saved to: %s\n", outDir)
}

// runFit searches for a speed multiplier and writes the evaluation log and
// a config with the best speed.
func runFit(cfg *config.Config, particles int, target float64, seeds []int64, ticks int32, statsWindow float64, maxEvals int, outDir string) {
	fmt.Printf("Fitting speed for %d particles to %.2f contacts/tick, max_evals=%d\n", particles, target, maxEvals)

	startTime := time.Now()
	fitter := NewSpeedFitter(cfg, particles, target, seeds, ticks, statsWindow)
	best, err := fitter.Fit(maxEvals)
	if err != nil {
		log.Fatalf("fit failed: %v", err)
	}

	evals := fitter.Evals()
	for _, e := range evals {
		fmt.Printf("Eval %d: speed=%.4f contacts/tick=%.3f loss=%.5f\n", e.Eval, e.Speed, e.ContactsPerTick, e.Loss)
	}
	if err := writeCSV(filepath.Join(outDir, "fit_log.csv"), &evals); err != nil {
		log.Fatalf("failed to write fit log: %v", err)
	}

	bestCfg := *cfg
	bestCfg.Physics.Speed = best
	bestCfg.Particles.Initial = bestCfg.ClampParticles(particles)
	configOutPath := filepath.Join(outDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		log.Printf("failed to write best config: %v", err)
	} else {
		fmt.Printf("\nBest config saved to: %s\n", configOutPath)
	}

	fmt.Printf("Best speed: %.4f after %d evaluations in %s\n", best, len(evals), formatDuration(time.Since(startTime)))
}

// writeCSV writes records to a new file with a header row.
func writeCSV(path string, records any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gocsv.MarshalFile(records, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
