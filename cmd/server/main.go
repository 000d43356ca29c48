// Command supermock-admin starts the admin dashboard HTTP API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/and161185/supermock-admin/internal/authadmin"
	"github.com/and161185/supermock-admin/internal/config"
	"github.com/and161185/supermock-admin/internal/grading"
	"github.com/and161185/supermock-admin/internal/limiter"
	"github.com/and161185/supermock-admin/internal/metrics"
	"github.com/and161185/supermock-admin/internal/migrate"
	"github.com/and161185/supermock-admin/internal/repository/postgres"
	httpserver "github.com/and161185/supermock-admin/internal/server/http"
	"github.com/and161185/supermock-admin/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, wires dependencies and serves HTTP until SIGINT/SIGTERM.
func main() {
	cfg, err := config.Load(os.Args[1:], ".env")
	if err != nil {
		_, _ = os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(2)
	}

	logger := newLogger(cfg.Dev)
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.HTTPAddr),
		zap.String("rateStore", cfg.RateStore),
	)

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Migrate {
		if _, err := migrate.Up(ctx, cfg.DatabaseURL, logger); err != nil {
			logger.Fatal("migrate up", zap.Error(err))
		}
	}

	// DB pool
	db, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("postgres.New", zap.Error(err))
	}
	defer db.Close()

	m := metrics.New()

	g, gctx := errgroup.WithContext(ctx)

	lim, err := newLimiter(gctx, g, cfg, db, logger)
	if err != nil {
		logger.Fatal("rate limiter", zap.Error(err))
	}

	authClient, err := authadmin.New(cfg.SupabaseURL, cfg.ServiceRoleKey, &http.Client{Timeout: 10 * time.Second}, cfg.AuthAdminRPS)
	if err != nil {
		logger.Fatal("auth admin client", zap.Error(err))
	}

	// Repositories
	profiles := postgres.NewProfileRepo(db)
	centers := postgres.NewCenterRepo(db)
	students := postgres.NewStudentRepo(db)
	reviews := postgres.NewReviewRepo(db)

	// Services
	opts := service.ProvisioningOptions{
		Timeout:                cfg.WorkflowTimeout,
		RollbackTimeout:        cfg.RollbackTimeout,
		LinkUnconfirmedOrphans: cfg.LinkUnconfirmed,
		Metrics:                m,
	}
	memberSvc := service.NewMemberService(authClient, profiles, centers, logger.Named("members"), opts)
	studentSvc := service.NewStudentService(authClient, centers, students, logger.Named("students"), opts)
	drafts := grading.NewDrafts(cfg.DraftTTL)
	reviewSvc := service.NewReviewService(reviews, drafts, logger.Named("reviews"))

	api := httpserver.New(memberSvc, studentSvc, reviewSvc, lim, logger.Named("http"), httpserver.Options{
		JWTSecret:    []byte(cfg.JWTSecret),
		MaxBodyBytes: cfg.MaxBodyBytes,
		CORSOrigins:  cfg.CORSOrigins,
		Metrics:      m,
		Ready:        db.Ping,
		Public: httpserver.PublicConfig{
			SupabaseURL:      cfg.SupabaseURL,
			SupabaseAnonKey:  cfg.SupabaseAnonKey,
			TurnstileSiteKey: cfg.TurnstileSiteKey,
		},
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.WorkflowTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g.Go(func() error {
		drafts.RunSweeper(gctx, cfg.SweepInterval)
		return nil
	})
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		// graceful shutdown
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			logger.Warn("forced shutdown", zap.Error(err))
			return srv.Close()
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func newLogger(dev bool) *zap.Logger {
	var (
		l   *zap.Logger
		err error
	)
	if dev {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// newLimiter builds the configured store and starts its expiry sweeper on g.
func newLimiter(ctx context.Context, g *errgroup.Group, cfg *config.Config, db *postgres.DB, log *zap.Logger) (*limiter.FixedWindow, error) {
	var store limiter.Store
	switch cfg.RateStore {
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, err
		}
		g.Go(func() error {
			<-ctx.Done()
			return client.Close()
		})
		// keys expire on their own
		store = limiter.NewRedisStore(client, "")
	case config.StorePostgres:
		pg := limiter.NewPG(db.Pool)
		g.Go(func() error {
			t := time.NewTicker(cfg.SweepInterval)
			defer t.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case now := <-t.C:
					if n, err := pg.Sweep(ctx, now); err != nil {
						log.Warn("rate bucket sweep", zap.Error(err))
					} else if n > 0 {
						log.Debug("rate bucket sweep", zap.Int64("removed", n))
					}
				}
			}
		})
		store = pg
	default:
		mem := limiter.NewMemoryStore()
		g.Go(func() error {
			mem.RunSweeper(ctx, cfg.SweepInterval)
			return nil
		})
		store = mem
	}
	return limiter.NewFixedWindow(store, cfg.RateLimit, cfg.RateWindow), nil
}
