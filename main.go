package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"illusion-arcade/cache"
	"illusion-arcade/config"
	"illusion-arcade/handlers"
	"illusion-arcade/leaderboard"
	"illusion-arcade/logging"
	"illusion-arcade/metrics"
	"illusion-arcade/middleware"
	"illusion-arcade/models"
	"illusion-arcade/repositories"
	"illusion-arcade/services"
	"illusion-arcade/utils"
	"illusion-arcade/workers"
)

const (
	submitRate  = 2
	submitBurst = 5
	uploadDir   = "./uploads"
)

func main() {
	app := &cli.App{
		Name:  "arcade",
		Usage: "arcade tournaments and leaderboards",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "config.yaml", Usage: "path to the YAML config file"},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP server and scheduler",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "create tables and seed plans and games",
				Action: migrate,
			},
			{
				Name:  "finalize",
				Usage: "compute and store the podium of an ended tournament",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "tournament", Required: true, Usage: "tournament id"},
					&cli.BoolFlag{Name: "force", Usage: "recompute an already finalized podium"},
				},
				Action: finalize,
			},
			{
				Name:  "snapshot",
				Usage: "compute leaderboard best-score snapshots",
				Subcommands: []*cli.Command{
					{
						Name:  "daily",
						Usage: "snapshot one UTC day (default yesterday)",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "date", Usage: "YYYY-MM-DD"},
						},
						Action: snapshotDaily,
					},
					{
						Name:  "weekly",
						Usage: "snapshot one Saturday-based week (default the previous one)",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "week-start", Usage: "YYYY-MM-DD, a Saturday"},
						},
						Action: snapshotWeekly,
					},
				},
			},
			{
				Name:  "token",
				Usage: "issue a session token for local testing",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user", Required: true, Usage: "user id (token subject)"},
					&cli.DurationFlag{Name: "ttl", Value: time.Hour},
				},
				Action: issueToken,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// env is what every command needs: config, logger and, when configured, the database.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
}

func setup(c *cli.Context, needDB bool) (*env, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Logger)
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg, logger: logger}
	if !cfg.HasBackend() {
		if needDB {
			return nil, errors.New("DATABASE_URL is required for this command")
		}
		return e, nil
	}
	e.db, err = repositories.Open(cfg.Postgres.DSN, logger)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (e *env) close() {
	if e.db != nil {
		if sqlDB, err := e.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	_ = e.logger.Sync()
}

func migrate(c *cli.Context) error {
	e, err := setup(c, true)
	if err != nil {
		return err
	}
	defer e.close()

	if err := repositories.AutoMigrate(e.db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	if err := repositories.NewSubscriptionRepository(e.db).SeedPlans(c.Context, models.DefaultPlans); err != nil {
		return fmt.Errorf("failed to seed plans: %w", err)
	}
	if err := repositories.NewContentRepository(e.db).SeedGames(c.Context, models.DefaultGames); err != nil {
		return fmt.Errorf("failed to seed games: %w", err)
	}
	e.logger.Info("migration complete")
	return nil
}

func finalize(c *cli.Context) error {
	e, err := setup(c, true)
	if err != nil {
		return err
	}
	defer e.close()

	svc := services.NewTournamentService(services.TournamentDeps{
		Store:  repositories.NewTournamentRepository(e.db),
		Logger: e.logger.Named("tournaments"),
	})
	res, err := svc.Finalize(c.Context, c.String("tournament"), c.Bool("force"))
	switch {
	case errors.Is(err, services.ErrAlreadyFinalized):
		fmt.Println("already finalized; pass --force to recompute")
	case err != nil:
		return err
	}
	for _, w := range res.Winners {
		fmt.Printf("#%d %s (%s) %.0f %s\n", w.Rank, w.PlayerName, w.UserID, w.Score, w.Prize)
	}
	if res.Message != "" {
		fmt.Println(res.Message)
	}
	return nil
}

func snapshotDaily(c *cli.Context) error {
	return runSnapshot(c, c.String("date"), func(s *services.SnapshotService, d time.Time) (*services.SnapshotResult, error) {
		return s.ComputeDaily(c.Context, d)
	})
}

func snapshotWeekly(c *cli.Context) error {
	return runSnapshot(c, c.String("week-start"), func(s *services.SnapshotService, d time.Time) (*services.SnapshotResult, error) {
		return s.ComputeWeekly(c.Context, d)
	})
}

func runSnapshot(c *cli.Context, date string, run func(*services.SnapshotService, time.Time) (*services.SnapshotResult, error)) error {
	var day time.Time
	if date != "" {
		var err error
		if day, err = services.ParseSnapshotDate(date); err != nil {
			return err
		}
	}
	e, err := setup(c, true)
	if err != nil {
		return err
	}
	defer e.close()

	res, err := run(services.NewSnapshotService(repositories.NewLeaderboardRepository(e.db), e.logger.Named("snapshots"), nil), day)
	if err != nil {
		return err
	}
	fmt.Printf("ok run_date=%s week_start=%s rows=%d\n", res.RunDate, res.WeekStart, res.Rows)
	return nil
}

func issueToken(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if cfg.Auth.JWTSecret == "" {
		return errors.New("SUPABASE_JWT_SECRET is not set")
	}
	tok, err := middleware.SignToken([]byte(cfg.Auth.JWTSecret), c.String("user"), c.Duration("ttl"))
	if err != nil {
		return err
	}
	fmt.Println(tok)
	return nil
}

func serve(c *cli.Context) error {
	e, err := setup(c, false)
	if err != nil {
		return err
	}
	defer e.close()
	cfg, logger := e.cfg, e.logger

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	fallback, err := leaderboard.NewStore(cfg.Leaderboard.FallbackMaxKeep, cfg.Leaderboard.FallbackFile)
	if err != nil {
		return err
	}

	app := fiber.New(fiber.Config{
		BodyLimit:    8 * 1024 * 1024,
		ErrorHandler: handlers.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(middleware.RequestLogger(logger.Named("http"), m))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.HTTP.AllowedOrigins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Cron-Secret",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	secret := []byte(cfg.Auth.JWTSecret)
	guards := handlers.Guards{
		Optional: middleware.Session(secret, false),
		Required: middleware.Session(secret, true),
		Submit:   middleware.RateLimit(middleware.NewKeyedRateLimiter(rate.Limit(submitRate), submitBurst)),
		Cron:     middleware.CronSecret(cfg.Cron.Secret),
	}

	handlers.SetupPublicRoutes(app, cfg.Auth, !cfg.HasBackend())
	if m != nil {
		app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))
	}

	var byteCache services.ByteCache
	if cfg.Redis.URL != "" {
		rc, err := cache.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			logger.Warn("redis unavailable, leaderboard cache disabled", zap.Error(err))
		} else {
			defer rc.Close()
			byteCache = rc
		}
	}

	if !cfg.HasBackend() {
		logger.Warn("DATABASE_URL not set, serving the fallback leaderboard only")
		boards := services.NewLeaderboardService(services.LeaderboardDeps{
			Fallback: fallback,
			Metrics:  m,
			Logger:   logger.Named("leaderboard"),
		})
		handlers.SetupLeaderboardRoutes(app, guards, boards, logger.Named("leaderboard"))
		handlers.SetupContentRoutes(app, guards, services.NewContentService(nil, logger.Named("content")))
		return listen(ctx, app, cfg.HTTP.Addr, logger)
	}

	media, err := newUploader(ctx, cfg, app)
	if err != nil {
		return err
	}

	profiles := services.NewProfileService(repositories.NewProfileRepository(e.db), logger.Named("profiles"))
	subs := services.NewSubscriptionService(repositories.NewSubscriptionRepository(e.db), logger.Named("subscriptions"), nil)
	leaderboardRepo := repositories.NewLeaderboardRepository(e.db)
	tournaments := services.NewTournamentService(services.TournamentDeps{
		Store:   repositories.NewTournamentRepository(e.db),
		Access:  subs,
		Players: profiles,
		Admins:  profiles,
		Media:   media,
		Metrics: m,
		Logger:  logger.Named("tournaments"),
	})
	boards := services.NewLeaderboardService(services.LeaderboardDeps{
		Store:    leaderboardRepo,
		Fallback: fallback,
		Cache:    byteCache,
		Players:  profiles,
		Metrics:  m,
		Logger:   logger.Named("leaderboard"),
	})
	snapshots := services.NewSnapshotService(leaderboardRepo, logger.Named("snapshots"), nil)
	content := services.NewContentService(repositories.NewContentRepository(e.db), logger.Named("content"))
	live := services.NewLiveTracker(tournaments, services.DefaultLiveRefresh, logger.Named("live"), nil)

	guards.Admin = middleware.RequireAdmin(profiles, logger.Named("admin"))

	handlers.SetupTournamentRoutes(app, guards, tournaments, live)
	handlers.SetupAdminTournamentRoutes(app, guards, tournaments)
	handlers.SetupLeaderboardRoutes(app, guards, boards, logger.Named("leaderboard"))
	handlers.SetupSubscriptionRoutes(app, guards, subs)
	handlers.SetupAuthRoutes(app, guards, profiles)
	handlers.SetupContentRoutes(app, guards, content)
	handlers.SetupCronRoutes(app, guards, snapshots)

	workers.NewLiveGamesWorker(live, services.DefaultLiveRefresh, logger).Start(ctx)

	if cfg.Scheduler.Enabled {
		sched, err := services.NewScheduler(tournaments, snapshots, logger.Named("scheduler"))
		if err != nil {
			return err
		}
		sched.Start()
		defer func() {
			if err := sched.Shutdown(); err != nil {
				logger.Warn("scheduler shutdown", zap.Error(err))
			}
		}()
	}

	return listen(ctx, app, cfg.HTTP.Addr, logger)
}

// newUploader prefers R2 and falls back to files served from /uploads.
func newUploader(ctx context.Context, cfg *config.Config, app *fiber.App) (services.ObjectUploader, error) {
	if cfg.R2.Enabled() {
		r2, err := utils.NewR2Uploader(ctx, cfg.R2)
		if err != nil {
			return nil, err
		}
		return r2, nil
	}
	local, err := utils.NewLocalUploader(uploadDir, "/uploads")
	if err != nil {
		return nil, err
	}
	app.Static("/uploads", local.Root())
	return local, nil
}

func listen(ctx context.Context, app *fiber.App, addr string, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", addr))
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	return app.ShutdownWithTimeout(10 * time.Second)
}
