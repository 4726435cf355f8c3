package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/d60-Lab/networkqy/config"
	"github.com/d60-Lab/networkqy/internal/api"
	"github.com/d60-Lab/networkqy/internal/repository"
	"github.com/d60-Lab/networkqy/internal/service"
	"github.com/d60-Lab/networkqy/pkg/database"
	"github.com/d60-Lab/networkqy/pkg/logger"
	"github.com/d60-Lab/networkqy/pkg/metrics"
	"github.com/d60-Lab/networkqy/pkg/tracing"
)

func main() {
	var (
		configDir string
		seed      bool
	)
	cmd := &cobra.Command{
		Use:           "server",
		Short:         "networkqy feed API server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var paths []string
			if configDir != "" {
				paths = append(paths, configDir)
			}
			cfg, err := config.Load(paths...)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, seed)
		},
	}
	cmd.Flags().StringVar(&configDir, "config", "", "directory containing config.yaml")
	cmd.Flags().BoolVar(&seed, "seed", false, "create demo users and posts on startup")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, seed bool) error {
	if err := logger.Init(cfg.Log.Level, cfg.Log.File); err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN, Environment: cfg.Sentry.Environment}); err != nil {
			return fmt.Errorf("sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("tracing shutdown", zap.Error(err))
		}
	}()

	db, err := database.InitDB(cfg)
	if err != nil {
		return err
	}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		logger.Info("feed cache enabled", zap.String("addr", cfg.Redis.Addr), zap.Duration("ttl", cfg.Redis.TTL))
	}
	cache := service.NewFeedCache(rdb, cfg.Redis.TTL)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	m.RegisterCacheCounters(
		func() int64 { return cache.Counters().Hits },
		func() int64 { return cache.Counters().Misses },
	)

	feed := service.NewFeedService(
		repository.NewPostRepository(db),
		repository.NewCommentRepository(db),
		repository.NewLikeRepository(db),
		cache,
	)
	auth := service.NewAuthService(repository.NewUserRepository(db), cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if seed {
		if err := service.Seed(ctx, auth, feed); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	router, err := api.NewRouter(api.Deps{Config: cfg, Feed: feed, Auth: auth, Metrics: m, Gatherer: reg})
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr), zap.String("mode", cfg.Server.Mode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(sctx)
}
