package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/tilechase/internal/ai"
	"github.com/udisondev/tilechase/internal/config"
	"github.com/udisondev/tilechase/internal/db"
	"github.com/udisondev/tilechase/internal/sim"
	"github.com/udisondev/tilechase/internal/world"
)

const SimConfigPath = "config/sim.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load config FIRST to determine log level
	cfgPath := SimConfigPath
	if p := os.Getenv("TILECHASE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadSim(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := parseLogLevel(cfg.LogLevel)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	ai.EnableDebugLogging(logLevel == slog.LevelDebug)

	slog.Info("tilechase starting", "log_level", cfg.LogLevel, "config", cfgPath)

	level, err := world.LoadLevel(cfg.LevelPath)
	if err != nil {
		return fmt.Errorf("loading level: %w", err)
	}
	layout, err := level.Build()
	if err != nil {
		return fmt.Errorf("building level %s: %w", cfg.LevelPath, err)
	}
	slog.Info("level loaded",
		"name", level.Name,
		"tiles", layout.Tiles,
		"walls", layout.Walls,
		"scalar", layout.TileScalar)

	g, gctx := errgroup.WithContext(ctx)

	var observer ai.ScanObserver
	if cfg.Database.Enabled {
		database, err := db.Open(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()
		slog.Info("database connected")

		if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		slog.Info("database migrations applied")

		recorder := db.NewScanRecorder(db.NewScanRepository(database.Pool()), cfg.RecorderQueue)
		observer = func(e ai.ScanEvent) {
			recorder.Record(e.AgentID, e.Stats)
		}

		// the recorder outlives the simulation so its last records get flushed
		recCtx, stopRecorder := context.WithCancel(context.WithoutCancel(gctx))
		defer stopRecorder()
		g.Go(func() error {
			<-gctx.Done()
			stopRecorder()
			return nil
		})
		g.Go(func() error {
			slog.Info("starting scan recorder", "queue", cfg.RecorderQueue)
			return recorder.Run(recCtx)
		})
	}

	simulation, err := sim.New(cfg, layout, observer)
	if err != nil {
		return fmt.Errorf("creating simulation: %w", err)
	}

	g.Go(func() error {
		slog.Info("starting simulation",
			"tick_rate", cfg.TickRate,
			"duration", cfg.Duration,
			"agents", len(simulation.Agents()))
		if err := simulation.Run(gctx); err != nil {
			return fmt.Errorf("simulation: %w", err)
		}
		// a finished run stops the recorder too
		return errSimulationDone
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errSimulationDone) {
		return fmt.Errorf("simulation error: %w", err)
	}
	return nil
}

// errSimulationDone cancels the group once the simulation returns cleanly.
var errSimulationDone = errors.New("simulation done")

// parseLogLevel converts string log level to slog.Level.
// Defaults to Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
