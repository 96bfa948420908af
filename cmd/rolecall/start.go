package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/rolecall/rolecall/internal/scheduler"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the digest daemon",
	Long:  "Runs the scheduler loop; sends at the configured time each day and blocks until SIGINT/SIGTERM.",
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	gate, err := scheduler.NewGate(cfg.Schedule.SendAt, cfg.Schedule.Window, cfg.Schedule.Timezone, cfg.Schedule.CatchUp)
	if err != nil {
		logger.Error("invalid schedule", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"sources", cfg.Sources.SourceCount(),
		"send_at", cfg.Schedule.SendAt,
		"timezone", cfg.Schedule.Timezone,
		"tick", cfg.Schedule.Tick.String(),
		"catch_up", cfg.Schedule.CatchUp,
	)

	if err := os.MkdirAll(cfg.State.Dir, 0o755); err != nil {
		logger.Error("failed to create state dir", "error", err)
		os.Exit(1)
	}
	// The daemon holds the lock for its whole life so overlapping cron
	// runs exit cleanly instead of racing it.
	lock := flock.New(filepath.Join(cfg.State.Dir, "rolecall.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		logger.Error("failed to acquire state lock", "error", err)
		os.Exit(1)
	}
	if !locked {
		logger.Error("another rolecall process holds the state lock")
		os.Exit(1)
	}
	defer lock.Unlock()

	cache, state, err := openStores(cfg, logger)
	if err != nil {
		logger.Error("failed to open state", "error", err)
		os.Exit(1)
	}

	runner, cleanup, err := buildRunner(cfg, cache, state, gate.Location(), logger)
	if err != nil {
		logger.Error("failed to build digest pipeline", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.NewScheduler(gate, state, runner, cfg.Schedule.Tick, logger)
	if err := sched.Run(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}
