package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/yourorg/roomstay/internal/domain"
	"github.com/yourorg/roomstay/internal/observability/metrics"
	"github.com/yourorg/roomstay/internal/reliability/retry"
)

// OrphanReaper periodically drains the orphan queue, deleting media assets
// whose owning room write already committed. Deletions are retried with
// backoff; an asset that still fails stays queued for the next sweep.
type OrphanReaper struct {
	orphans  domain.OrphanQueue
	media    domain.MediaStore
	logger   *slog.Logger
	interval time.Duration
	retryCfg *retry.Config
}

// NewOrphanReaper creates an orphan reaper
func NewOrphanReaper(orphans domain.OrphanQueue, media domain.MediaStore, logger *slog.Logger, interval time.Duration) *OrphanReaper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OrphanReaper{
		orphans:  orphans,
		media:    media,
		logger:   logger,
		interval: interval,
		retryCfg: retry.DefaultConfig(),
	}
}

// Run sweeps until ctx is cancelled. It blocks; run it in a goroutine.
func (r *OrphanReaper) Run(ctx context.Context) {
	r.logger.Info("orphan reaper started", slog.Duration("interval", r.interval))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("orphan reaper stopped")
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep reaps every currently queued orphan once
func (r *OrphanReaper) Sweep(ctx context.Context) {
	pending, err := r.orphans.Pending(ctx)
	if err != nil {
		r.logger.Error("listing orphaned assets failed", slog.String("error", err.Error()))
		return
	}
	metrics.SetOrphanQueueDepth(len(pending))
	if len(pending) == 0 {
		return
	}

	r.logger.Info("sweeping orphaned media assets", slog.Int("pending", len(pending)))

	reaped := 0
	for _, assetID := range pending {
		if ctx.Err() != nil {
			return
		}
		if err := r.reap(ctx, assetID); err != nil {
			metrics.ObserveOrphanReap("error")
			r.logger.Warn("orphan reap failed, will retry next sweep",
				slog.String("asset_id", assetID),
				slog.String("error", err.Error()),
			)
			continue
		}
		metrics.ObserveOrphanReap("success")
		reaped++
	}

	metrics.SetOrphanQueueDepth(len(pending) - reaped)
	r.logger.Info("orphan sweep finished",
		slog.Int("reaped", reaped),
		slog.Int("remaining", len(pending)-reaped),
	)
}

func (r *OrphanReaper) reap(ctx context.Context, assetID string) error {
	err := retry.Do(ctx, r.retryCfg, r.logger, "media delete", func(ctx context.Context) error {
		return r.media.Delete(ctx, assetID)
	})
	if err != nil {
		return err
	}
	return r.orphans.Remove(ctx, assetID)
}
