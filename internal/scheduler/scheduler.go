// Package scheduler wires up the cron job that periodically drains the
// pending notification queue.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/schoolhire/match-api/internal/models"
)

type queueProcessor interface {
	ProcessQueue(ctx context.Context, batchSize int) (models.QueueStats, error)
}

// Scheduler wraps robfig/cron and manages the queue-processing loop. A single
// instance per deployment is assumed; overlapping passes are tolerated by the
// store's per-row claiming but waste work.
type Scheduler struct {
	cron      *cron.Cron
	processor queueProcessor
	batchSize int
	spec      string
	logger    *zap.Logger
}

// New creates a Scheduler firing every interval.
func New(processor queueProcessor, interval time.Duration, batchSize int, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:      cron.New(),
		processor: processor,
		batchSize: batchSize,
		spec:      fmt.Sprintf("@every %s", interval),
		logger:    logger,
	}
}

// Start registers the job and starts the scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runPass(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.logger.Info("notification scheduler started", zap.String("spec", s.spec))
	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("notification scheduler stopped")
}

func (s *Scheduler) runPass(ctx context.Context) {
	stats, err := s.processor.ProcessQueue(ctx, s.batchSize)
	if err != nil {
		s.logger.Warn("queue pass failed", zap.Error(err))
		return
	}
	if stats.Processed > 0 {
		s.logger.Info("queue pass complete",
			zap.Int("processed", stats.Processed),
			zap.Int("succeeded", stats.Succeeded),
			zap.Int("failed", stats.Failed))
	}
}
