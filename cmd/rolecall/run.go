package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/rolecall/rolecall/internal/scheduler"
)

var forceSend bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one gate-checked digest pass",
	Long:  "Fetches, filters, and sends today's digest if the schedule allows it. Intended for cron and systemd timers; exits quietly when the gate is closed.",
	RunE:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&forceSend, "force", false, "send even if outside the window or already sent today")
}

func runRun(cmd *cobra.Command, args []string) error {
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
		"window", cfg.Profile.Window.String(),
		"min_score", cfg.Profile.MinScore,
	)

	// The lock file lives in the state dir, so the dir must exist
	// before we can try the lock.
	if err := os.MkdirAll(cfg.State.Dir, 0o755); err != nil {
		logger.Error("failed to create state dir", "error", err)
		os.Exit(1)
	}
	lock := flock.New(filepath.Join(cfg.State.Dir, "rolecall.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		logger.Error("failed to acquire state lock", "error", err)
		os.Exit(1)
	}
	if !locked {
		logger.Info("another rolecall process holds the state lock, exiting")
		return nil
	}
	defer lock.Unlock()

	cache, state, err := openStores(cfg, logger)
	if err != nil {
		logger.Error("failed to open state", "error", err)
		os.Exit(1)
	}

	if forceSend {
		logger.Info("gate bypassed with --force")
	} else if d := gate.Evaluate(time.Now(), state.LastSentDate()); d != scheduler.Send {
		logger.Info("digest gate closed", "decision", d.String(), "last_sent", state.LastSentDate())
		return nil
	}

	runner, cleanup, err := buildRunner(cfg, cache, state, gate.Location(), logger)
	if err != nil {
		logger.Error("failed to build digest pipeline", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runner.Run(ctx); err != nil {
		logger.Error("digest run failed", "error", err)
		os.Exit(1)
	}
	return nil
}
