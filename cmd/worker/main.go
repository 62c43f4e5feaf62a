package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/backend-commission/internal/app"
	"github.com/noah-isme/backend-commission/internal/config"
	"github.com/noah-isme/backend-commission/internal/queue"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := app.NewLogger(cfg, "worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := app.InitTelemetry(ctx, cfg, "commission-worker", nil)
	if err != nil {
		logger.Error().Err(err).Msg("initialise tracing")
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error().Err(err).Msg("shutdown tracer")
		}
	}()

	deps, err := app.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open dependencies")
	}
	defer deps.Close()

	redisOpt, err := app.AsynqRedisOpt(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("configure queue")
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency:     cfg.Queue.Concurrency,
		Queues:          map[string]int{cfg.Queue.Name: 1},
		ShutdownTimeout: cfg.ShutdownTimeout,
		Logger:          asynqLogger{l: logger},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			logger.Warn().Err(err).
				Str("type", task.Type()).
				Int("retry", retried).
				Int("max_retry", maxRetry).
				Msg("task failed")
		}),
	})
	mux := queue.NewServeMux(queue.Handler{Calc: deps.Service, Logger: &logger})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("queue", cfg.Queue.Name).Int("concurrency", cfg.Queue.Concurrency).Msg("worker starting")
		if err := srv.Start(mux); err != nil {
			return err
		}
		<-gctx.Done()
		srv.Shutdown()
		return nil
	})

	if cfg.Obs.EnablePrometheus && cfg.Obs.MetricsAddr != "" {
		metricsSrv := &http.Server{
			Addr:              cfg.Obs.MetricsAddr,
			Handler:           promhttp.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info().Str("addr", metricsSrv.Addr).Msg("worker metrics listening")
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return metricsSrv.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("worker exited unexpectedly")
		return
	}
	logger.Info().Msg("worker stopped")
}

// asynqLogger routes asynq's internal logging through zerolog.
type asynqLogger struct {
	l zerolog.Logger
}

func (a asynqLogger) Debug(args ...any) { a.l.Debug().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Info(args ...any)  { a.l.Info().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Warn(args ...any)  { a.l.Warn().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Error(args ...any) { a.l.Error().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Fatal(args ...any) { a.l.Fatal().Msg(fmt.Sprint(args...)) }
