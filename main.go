package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/entropycube/config"
	"github.com/pthm-cable/entropycube/game"
	"github.com/pthm-cable/entropycube/sim"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	fieldDump := flag.Bool("field-dump", false, "Write per-cell entropy samples to field.csv at each stats window")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	particles := flag.Int("particles", -1, "Initial particle count (-1 = use config)")
	speed := flag.Float64("speed", 0, "Initial speed multiplier (0 = use config)")
	verbose := flag.Bool("v", false, "Enable debug logging")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *particles >= 0 {
		cfg.Particles.Initial = cfg.ClampParticles(*particles)
	}
	if *speed > 0 {
		cfg.Physics.Speed = cfg.ClampSpeed(*speed)
	}

	// Set up seed
	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	opts := game.Options{
		Sim: sim.Options{
			Seed:           rngSeed,
			LogStats:       *logStats,
			StatsWindowSec: *statsWindow,
			OutputDir:      *outputDir,
			FieldDump:      *fieldDump,
		},
		Headless: *headless,
	}

	if *headless {
		if err := runHeadless(cfg, opts, *maxTicks); err != nil {
			slog.Error("simulation failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := runWindowed(cfg, opts, *maxTicks); err != nil {
		slog.Error("simulation failed", "error", err)
		os.Exit(1)
	}
}

// runHeadless ticks as fast as possible with no raylib calls.
func runHeadless(cfg *config.Config, opts game.Options, maxTicks int) error {
	g, err := game.NewGameWithOptions(cfg, opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := g.Unload(); err != nil {
			slog.Error("failed to close output", "error", err)
		}
	}()

	slog.Info("starting headless simulation",
		"seed", opts.Sim.Seed,
		"particles", g.Sim().ParticleCount(),
		"speed", g.Sim().Speed(),
		"max_ticks", maxTicks,
		"output_dir", g.Sim().OutputDir(),
	)

	for {
		g.UpdateHeadless()

		if maxTicks > 0 && int(g.Tick()) >= maxTicks {
			slog.Info("max ticks reached", "tick", g.Tick())
			return nil
		}
	}
}

// runWindowed opens the window and runs the frame loop until it is closed.
func runWindowed(cfg *config.Config, opts game.Options, maxTicks int) error {
	rl.SetConfigFlags(rl.FlagMsaa4xHint | rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), game.Title)
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	g, err := game.NewGameWithOptions(cfg, opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := g.Unload(); err != nil {
			slog.Error("failed to close output", "error", err)
		}
	}()

	for !rl.WindowShouldClose() {
		g.Update()
		g.Draw()

		if maxTicks > 0 && int(g.Tick()) >= maxTicks {
			break
		}
	}
	return nil
}
