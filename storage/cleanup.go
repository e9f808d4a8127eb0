package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeper removes reservations that are over.
type Sweeper interface {
	DeleteBefore(ctx context.Context, t time.Time) (int64, error)
}

// Cleanup deletes every reservation that ended before now.
func Cleanup(ctx context.Context, s Sweeper, now time.Time, logger *zap.Logger) (int64, error) {
	n, err := s.DeleteBefore(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("cleanup: %w", err)
	}
	if logger != nil && n > 0 {
		logger.Info("past reservations removed", zap.Int64("count", n), zap.Time("before", now))
	}
	return n, nil
}

// ScheduleCleanup runs Cleanup on a cron schedule (standard five-field spec
// or descriptors like "@hourly") until ctx is done. clock defaults to
// LocalNow.
func ScheduleCleanup(ctx context.Context, s Sweeper, spec string, clock func() time.Time, logger *zap.Logger) (*cron.Cron, error) {
	if clock == nil {
		clock = LocalNow
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if _, err := Cleanup(ctx, s, clock(), logger); err != nil {
			logger.Error("scheduled cleanup failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid cleanup schedule %q: %w", spec, err)
	}
	c.Start()

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	return c, nil
}
