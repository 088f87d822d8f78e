package workers

import (
	"context"
	"time"

	"go.uber.org/zap"

	"illusion-arcade/services"
)

// LiveGamesRefresher is satisfied by services.LiveTracker.
type LiveGamesRefresher interface {
	Get(ctx context.Context, force bool) *services.LiveSnapshot
}

// LiveGamesWorker keeps the live-games cache warm so that player requests
// rarely pay for the query.
type LiveGamesWorker struct {
	tracker  LiveGamesRefresher
	interval time.Duration
	logger   *zap.Logger
}

func NewLiveGamesWorker(tracker LiveGamesRefresher, interval time.Duration, logger *zap.Logger) *LiveGamesWorker {
	if interval <= 0 {
		interval = services.DefaultLiveRefresh
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LiveGamesWorker{tracker: tracker, interval: interval, logger: logger.Named("live-games-worker")}
}

func (w *LiveGamesWorker) Start(ctx context.Context) {
	w.logger.Info("starting live games worker", zap.Duration("interval", w.interval))
	go w.run(ctx)
}

func (w *LiveGamesWorker) run(ctx context.Context) {
	w.tick(ctx, true)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.tick(ctx, false)
		case <-ctx.Done():
			w.logger.Info("live games worker stopped")
			return
		}
	}
}

func (w *LiveGamesWorker) tick(ctx context.Context, force bool) {
	snap := w.tracker.Get(ctx, force)
	if snap.Stale {
		w.logger.Warn("serving stale live games", zap.Int("rows", len(snap.Rows)))
		return
	}
	w.logger.Debug("live games refreshed", zap.Int("rows", len(snap.Rows)))
}
