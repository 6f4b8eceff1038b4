package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/notifylab/notify-agent/internal/domain"
	"github.com/notifylab/notify-agent/internal/netcheck"
	"github.com/notifylab/notify-agent/internal/observability"
	"github.com/notifylab/notify-agent/internal/repository"
	"go.uber.org/zap"
)

// Resender replays a queued entry against its stored destination.
type Resender interface {
	Resend(ctx context.Context, entry domain.PendingDelivery) error
}

// Result summarizes one sweep pass.
type Result struct {
	Processed int
	Succeeded int
	Failed    int
	Evicted   int
	// Aborted is set when connectivity disappeared mid-pass; remaining
	// entries were left untouched.
	Aborted bool
}

// Sweeper drains the pending queue through the resend path, one entry at a
// time in FIFO order. Each entry commits independently, so re-running after
// a crash is safe: success deletes, failure only increments a counter.
type Sweeper struct {
	queue   repository.PendingRepository
	logs    repository.LogRepository
	sender  Resender
	network netcheck.Checker
	logger  *zap.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

func NewSweeper(
	queue repository.PendingRepository,
	logs repository.LogRepository,
	sender Resender,
	network netcheck.Checker,
	logger *zap.Logger,
) (*Sweeper, error) {
	if queue == nil {
		return nil, fmt.Errorf("pending repository is required")
	}
	if logs == nil {
		return nil, fmt.Errorf("log repository is required")
	}
	if sender == nil {
		return nil, fmt.Errorf("resender is required")
	}
	if network == nil {
		return nil, fmt.Errorf("network checker is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Sweeper{
		queue:   queue,
		logs:    logs,
		sender:  sender,
		network: network,
		logger:  logger,
		now:     time.Now,
	}, nil
}

func (s *Sweeper) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

// Sweep runs one pass over the queue.
func (s *Sweeper) Sweep(ctx context.Context) (Result, error) {
	var result Result

	entries, err := s.queue.ListOrdered(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to list pending deliveries: %w", err)
	}

	for i := range entries {
		entry := entries[i]

		if entry.Exhausted() {
			if err := s.evict(ctx, entry); err != nil {
				s.logger.Error("failed to evict exhausted entry",
					zap.Int64("pendingId", entry.ID),
					zap.Error(err),
				)
				continue
			}
			result.Evicted++
			continue
		}

		if !s.network.Online(ctx) {
			result.Aborted = true
			break
		}

		result.Processed++
		sendErr := s.sender.Resend(ctx, entry)
		if sendErr == nil {
			if err := s.queue.DeleteByID(ctx, entry.ID); err != nil {
				s.logger.Error("failed to delete delivered entry",
					zap.Int64("pendingId", entry.ID),
					zap.Error(err),
				)
			}
			result.Succeeded++
			s.metrics.IncRetried("success")
			s.insertLog(ctx, fmt.Sprintf("Retry delivered pending entry %d", entry.ID), domain.LogSuccess)
			continue
		}

		if ctx.Err() != nil {
			// Torn down mid-delivery: no commit for this entry, it will be
			// re-attempted on the next sweep.
			result.Aborted = true
			break
		}

		if err := s.queue.IncrementRetry(ctx, entry.ID, sendErr.Error()); err != nil {
			s.logger.Error("failed to record retry failure",
				zap.Int64("pendingId", entry.ID),
				zap.Error(err),
			)
		}
		result.Failed++
		s.metrics.IncRetried("failure")
		s.logger.Warn("retry attempt failed",
			zap.Int64("pendingId", entry.ID),
			zap.Int("retryCount", entry.RetryCount+1),
			zap.Error(sendErr),
		)
	}

	if depth, err := s.queue.Count(ctx); err == nil {
		s.metrics.SetQueueDepth(depth)
	}

	s.logger.Info("sweep finished",
		zap.Int("processed", result.Processed),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
		zap.Int("evicted", result.Evicted),
		zap.Bool("aborted", result.Aborted),
	)

	return result, nil
}

func (s *Sweeper) evict(ctx context.Context, entry domain.PendingDelivery) error {
	if err := s.queue.DeleteByID(ctx, entry.ID); err != nil {
		return err
	}
	s.metrics.IncEvicted()
	s.insertLog(ctx,
		fmt.Sprintf("Dropped pending entry %d after %d attempts", entry.ID, entry.RetryCount),
		domain.LogError)
	return nil
}

func (s *Sweeper) insertLog(ctx context.Context, message string, logType domain.LogType) {
	entry := &domain.LogEntry{
		Timestamp: s.now().UTC(),
		Message:   message,
		Type:      logType,
	}
	if err := s.logs.Insert(ctx, entry); err != nil {
		s.logger.Warn("failed to write log entry", zap.Error(err))
	}
}
