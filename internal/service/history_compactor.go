package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"appbuilder/internal/domain"
)

// HistoryCompactor periodically removes canvas snapshots older than the
// retention window.
type HistoryCompactor struct {
	history   domain.HistoryStore
	retention time.Duration
	emitter   EventEmitter
	log       *zap.Logger
	now       func() time.Time

	guard keyedGuard
	cron  *cron.Cron
}

// NewHistoryCompactor creates a compactor. A non-positive retention makes
// Compact a no-op.
func NewHistoryCompactor(history domain.HistoryStore, retention time.Duration, emitter EventEmitter, log *zap.Logger) *HistoryCompactor {
	if emitter == nil {
		emitter = NoopEmitter{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &HistoryCompactor{
		history:   history,
		retention: retention,
		emitter:   emitter,
		log:       log.Named("history"),
		now:       time.Now,
	}
}

// Compact prunes once. Overlapping calls skip and report zero.
func (c *HistoryCompactor) Compact(ctx context.Context) (int64, error) {
	if c.retention <= 0 {
		return 0, nil
	}
	if !c.guard.TryLock("compact") {
		c.log.Debug("compaction already running, skipped")
		return 0, nil
	}
	defer c.guard.Unlock("compact")

	cutoff := c.now().Add(-c.retention)
	removed, err := c.history.PruneBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("compact history: %w", err)
	}
	if removed > 0 {
		c.log.Info("history compacted", zap.Int64("removed", removed), zap.Time("cutoff", cutoff))
		c.emitter.Emit(ctx, EventHistoryCompacted, removed)
	}
	return removed, nil
}

// Start schedules Compact with a cron expression (standard syntax or
// descriptors such as "@every 10m").
func (c *HistoryCompactor) Start(ctx context.Context, schedule string) error {
	sched := cron.New()
	_, err := sched.AddFunc(schedule, func() {
		if _, err := c.Compact(ctx); err != nil {
			c.log.Error("scheduled compaction failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid compaction schedule %q: %w", schedule, err)
	}
	sched.Start()
	c.cron = sched
	c.log.Info("history compaction scheduled", zap.String("schedule", schedule), zap.Duration("retention", c.retention))
	return nil
}

// Stop halts the schedule and waits for an in-flight run, bounded by ctx.
func (c *HistoryCompactor) Stop(ctx context.Context) {
	if c.cron != nil {
		select {
		case <-c.cron.Stop().Done():
		case <-ctx.Done():
		}
	}
	c.guard.WaitAll(ctx)
}
