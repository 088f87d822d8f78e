package services

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// TournamentTicker is the part of TournamentService the scheduler drives.
type TournamentTicker interface {
	SyncStatuses(ctx context.Context) (int, error)
	FinalizeDue(ctx context.Context) (int, error)
}

// Snapshotter is satisfied by SnapshotService.
type Snapshotter interface {
	ComputeDaily(ctx context.Context, runDate time.Time) (*SnapshotResult, error)
	ComputeWeekly(ctx context.Context, weekStart time.Time) (*SnapshotResult, error)
}

// Scheduler runs the periodic jobs: status sync and finalization every minute,
// the daily snapshot at 00:05 UTC and the weekly one on Saturday 00:10 UTC.
type Scheduler struct {
	sched       gocron.Scheduler
	tournaments TournamentTicker
	snapshots   Snapshotter
	logger      *zap.Logger
	ctx         context.Context
	cancel      context.CancelFunc
}

func NewScheduler(tournaments TournamentTicker, snapshots Snapshotter, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		sched:       sched,
		tournaments: tournaments,
		snapshots:   snapshots,
		logger:      logger.Named("scheduler"),
		ctx:         ctx,
		cancel:      cancel,
	}
	if err := s.register(); err != nil {
		cancel()
		_ = sched.Shutdown()
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) register() error {
	singleton := gocron.WithSingletonMode(gocron.LimitModeReschedule)

	if s.tournaments != nil {
		_, err := s.sched.NewJob(
			gocron.DurationJob(time.Minute),
			gocron.NewTask(func() { s.Tick(s.ctx) }),
			gocron.WithName("tournament-tick"),
			singleton,
		)
		if err != nil {
			return err
		}
	}
	if s.snapshots == nil {
		return nil
	}

	_, err := s.sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 5, 0))),
		gocron.NewTask(func() {
			if _, err := s.snapshots.ComputeDaily(s.ctx, time.Time{}); err != nil {
				s.logger.Error("daily snapshot failed", zap.Error(err))
			}
		}),
		gocron.WithName("leaderboard-daily"),
		singleton,
	)
	if err != nil {
		return err
	}

	_, err = s.sched.NewJob(
		gocron.WeeklyJob(1, gocron.NewWeekdays(time.Saturday), gocron.NewAtTimes(gocron.NewAtTime(0, 10, 0))),
		gocron.NewTask(func() {
			if _, err := s.snapshots.ComputeWeekly(s.ctx, time.Time{}); err != nil {
				s.logger.Error("weekly snapshot failed", zap.Error(err))
			}
		}),
		gocron.WithName("leaderboard-weekly"),
		singleton,
	)
	return err
}

// Tick writes derived statuses back and finalizes ended tournaments.
func (s *Scheduler) Tick(ctx context.Context) {
	if n, err := s.tournaments.SyncStatuses(ctx); err != nil {
		s.logger.Error("status sync failed", zap.Error(err))
	} else if n > 0 {
		s.logger.Info("tournament statuses synced", zap.Int("updated", n))
	}

	if n, err := s.tournaments.FinalizeDue(ctx); err != nil {
		s.logger.Error("finalize due failed", zap.Error(err))
	} else if n > 0 {
		s.logger.Info("tournaments finalized", zap.Int("count", n))
	}
}

func (s *Scheduler) Start() {
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.sched.Jobs())))
	s.sched.Start()
}

func (s *Scheduler) Shutdown() error {
	s.cancel()
	return s.sched.Shutdown()
}
