package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/backend-commission/internal/app"
	"github.com/noah-isme/backend-commission/internal/commission"
	"github.com/noah-isme/backend-commission/internal/config"
	"github.com/noah-isme/backend-commission/internal/db/migrations"
	"github.com/noah-isme/backend-commission/internal/health"
	"github.com/noah-isme/backend-commission/internal/obs"
	"github.com/noah-isme/backend-commission/internal/queue"
	"github.com/noah-isme/backend-commission/internal/ratelimit"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := app.NewLogger(cfg, "api")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := app.InitTelemetry(ctx, cfg, "commission-api", nil)
	if err != nil {
		logger.Error().Err(err).Msg("initialise tracing")
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error().Err(err).Msg("shutdown tracer")
		}
	}()

	if cfg.DBAutoMigrate {
		if err := migrations.Up(cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("apply migrations")
		}
		logger.Info().Msg("migrations applied")
	}

	deps, err := app.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open dependencies")
	}
	defer deps.Close()

	redisOpt, err := app.AsynqRedisOpt(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("configure queue")
	}
	taskClient := asynq.NewClient(redisOpt)
	defer func() {
		if err := taskClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close queue client")
		}
	}()

	var limiter ratelimit.Limiter
	store, err := ratelimit.NewRedisStore(deps.Redis, "commission:ratelimit")
	if err != nil {
		logger.Error().Err(err).Msg("rate limit store unavailable; requests are not limited")
	} else if l, err := ratelimit.NewULule(cfg.HTTP.RateLimit, store); err != nil {
		logger.Fatal().Err(err).Msg("configure rate limit")
	} else {
		limiter = l
	}

	var httpMetrics *obs.HTTPMetrics
	if cfg.Obs.EnablePrometheus {
		httpMetrics = obs.NewHTTPMetrics(cfg.Obs.MetricsNamespace, obs.ParseBucketsCSV(cfg.Obs.MetricsBuckets), nil)
	}

	router := newRouter(routerDeps{
		Config:  cfg,
		Logger:  logger,
		Metrics: httpMetrics,
		Health: health.Handler{
			Checker:      health.Deps{DB: deps.DB, Redis: deps.Redis},
			DBTimeout:    cfg.Health.DBTimeout,
			RedisTimeout: cfg.Health.RedisTimeout,
		},
		Commission: &commission.Handler{
			Svc: deps.Service,
			Queue: queue.Enqueuer{
				Client:   taskClient,
				Queue:    cfg.Queue.Name,
				MaxRetry: cfg.Queue.MaxRetry,
			},
		},
		Limiter: limiter,
		Idem:    deps.Redis,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           obs.Traced(router, "commission-api"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		health.SetReady(false)
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server exited unexpectedly")
		return
	}
	logger.Info().Msg("server stopped")
}
