package retry

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/notifylab/notify-agent/internal/netcheck"
	"go.uber.org/zap"
)

// DefaultSweepInterval is the periodic sweep cadence.
const DefaultSweepInterval = 15 * time.Minute

// Scheduler owns the two sweep triggers: a fixed-interval periodic sweep
// gated on connectivity, and a one-shot backoff sweep scheduled after any
// pass that leaves failures behind. Starting twice is a no-op; requesting a
// new one-shot replaces the pending one, so at most one is ever outstanding.
type Scheduler struct {
	sweeper  *Sweeper
	network  netcheck.Checker
	backoff  *Backoff
	logger   *zap.Logger
	interval time.Duration

	started  atomic.Bool
	requests chan time.Duration
}

func NewScheduler(
	sweeper *Sweeper,
	network netcheck.Checker,
	backoff *Backoff,
	interval time.Duration,
	logger *zap.Logger,
) (*Scheduler, error) {
	if sweeper == nil {
		return nil, fmt.Errorf("sweeper is required")
	}
	if network == nil {
		return nil, fmt.Errorf("network checker is required")
	}
	if backoff == nil {
		backoff = DefaultBackoff()
	}
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scheduler{
		sweeper:  sweeper,
		network:  network,
		backoff:  backoff,
		logger:   logger,
		interval: interval,
		requests: make(chan time.Duration, 1),
	}, nil
}

// RequestSweep asks for an opportunistic one-shot sweep after the given
// delay, replacing any pending one-shot request.
func (s *Scheduler) RequestSweep(delay time.Duration) {
	if delay < 0 {
		delay = 0
	}

	// Drain-then-send keeps at most one request outstanding; the newest wins.
	select {
	case <-s.requests:
	default:
	}
	s.requests <- delay
}

// Start runs the trigger loop until context cancellation. Subsequent calls
// while a loop is active return immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if !s.started.CompareAndSwap(false, true) {
		return nil
	}
	defer s.started.Store(false)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	oneShot := time.NewTimer(s.interval)
	stopTimer(oneShot)
	defer oneShot.Stop()

	consecutiveBackoffs := 0

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-ticker.C:
			// Connectivity is a precondition for the periodic sweep.
			if !s.network.Online(ctx) {
				s.logger.Debug("periodic sweep skipped, offline")
				continue
			}
			s.runSweep(ctx, oneShot, &consecutiveBackoffs)

		case <-oneShot.C:
			s.runSweep(ctx, oneShot, &consecutiveBackoffs)

		case delay := <-s.requests:
			stopTimer(oneShot)
			oneShot.Reset(delay)
		}
	}
}

func (s *Scheduler) runSweep(ctx context.Context, oneShot *time.Timer, consecutiveBackoffs *int) {
	result, err := s.sweeper.Sweep(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Error("sweep failed", zap.Error(err))
		return
	}

	if result.Failed == 0 && !result.Aborted {
		*consecutiveBackoffs = 0
		return
	}

	delay := s.backoff.NextDelay(*consecutiveBackoffs)
	*consecutiveBackoffs++
	stopTimer(oneShot)
	oneShot.Reset(delay)
	s.logger.Info("scheduled backoff sweep",
		zap.Duration("delay", delay),
		zap.Int("failed", result.Failed),
		zap.Bool("aborted", result.Aborted),
	)
}

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}
