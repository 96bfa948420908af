package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/rolecall/rolecall/internal/model"
)

// DigestRunner runs one end-to-end digest cycle.
type DigestRunner interface {
	Run(ctx context.Context) error
}

// Scheduler owns the daemon loop: ticks on an interval, evaluates the
// gate, and hands off to the runner on the one tick per day that may
// send. Every other tick is a cheap clock check.
type Scheduler struct {
	gate   *Gate
	state  model.DigestState
	runner DigestRunner
	tick   time.Duration
	logger *slog.Logger
}

// NewScheduler creates a scheduler ticking at the given interval. The
// runner is expected to mark the digest state on a successful send; the
// scheduler only reads it.
func NewScheduler(gate *Gate, state model.DigestState, runner DigestRunner, tick time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		gate:   gate,
		state:  state,
		runner: runner,
		tick:   tick,
		logger: logger,
	}
}

// Run starts the loop. It evaluates once immediately, then on every
// tick. It returns nil when ctx is cancelled (graceful shutdown).
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting scheduler",
		"tick", s.tick.String(),
		"timezone", s.gate.Location().String(),
	)

	s.evaluate(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down scheduler")
			return nil
		case <-time.After(s.tick):
			s.evaluate(ctx)
		}
	}
}

// evaluate checks the gate and runs the digest when it is open. Runner
// failures are logged, not fatal: the next tick gets another chance as
// long as the day's window is still open.
func (s *Scheduler) evaluate(ctx context.Context) {
	decision := s.gate.Evaluate(time.Now(), s.state.LastSentDate())
	if decision != Send {
		s.logger.Debug("digest gate closed", "decision", decision.String())
		return
	}

	s.logger.Info("digest gate open, running")
	if err := s.runner.Run(ctx); err != nil {
		s.logger.Error("digest run failed", "error", err)
	}
}
