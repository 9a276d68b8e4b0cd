// Package scheduler runs the background standards resolver. Resolution is idempotent, so the
// resolver only ever shortens the time a finished vote stays in voting status.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/localnerve/bigstone-community/internal/metrics"
	"github.com/localnerve/bigstone-community/internal/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Resolver periodically resolves standards whose voting window has elapsed
type Resolver struct {
	DB       *gorm.DB
	Interval time.Duration
	Log      *zap.Logger
	Now      func() time.Time
}

// NewResolver builds a resolver ticking every interval
func NewResolver(db *gorm.DB, interval time.Duration, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{DB: db, Interval: interval, Log: log, Now: time.Now}
}

// RunOnce resolves every elapsed standard and returns how many changed status
func (r *Resolver) RunOnce(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n, err := services.ResolveElapsedStandards(r.DB.WithContext(ctx), r.Now())
	if err != nil {
		metrics.ResolverRuns.WithLabelValues("error").Inc()
		return n, err
	}
	metrics.ResolverRuns.WithLabelValues("ok").Inc()
	return n, nil
}

// Run ticks until ctx is done. A failed pass is logged and retried on the next tick.
func (r *Resolver) Run(ctx context.Context) error {
	if r.Interval <= 0 {
		return errors.New("resolver interval must be positive")
	}

	r.Log.Info("standards resolver started", zap.Duration("interval", r.Interval))
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.Log.Info("standards resolver stopped")
			return nil
		case <-ticker.C:
			n, err := r.RunOnce(ctx)
			switch {
			case err != nil && ctx.Err() != nil:
				return nil
			case err != nil:
				r.Log.Warn("standards resolver pass failed", zap.Error(err))
			case n > 0:
				r.Log.Info("resolved standards", zap.Int("count", n))
			}
		}
	}
}
