// Package app wires the shared infrastructure used by the API and the worker.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-commission/internal/commission"
	"github.com/noah-isme/backend-commission/internal/config"
	dbgen "github.com/noah-isme/backend-commission/internal/db/gen"
	"github.com/noah-isme/backend-commission/internal/lock"
	"github.com/noah-isme/backend-commission/internal/obs"
	"github.com/noah-isme/backend-commission/internal/repo"
	"github.com/noah-isme/backend-commission/internal/resilience"
)

// Dependencies enumerates the services shared by every entrypoint.
type Dependencies struct {
	Config  *config.Config
	Logger  zerolog.Logger
	DB      *pgxpool.Pool
	Redis   *redis.Client
	Service *commission.Service
}

// NewLogger builds the process logger from configuration.
func NewLogger(cfg *config.Config, component string) zerolog.Logger {
	return obs.NewLogger(obs.LogOptions{
		Format:        cfg.Obs.LogFormat,
		Level:         cfg.Obs.LogLevel,
		File:          cfg.Obs.LogFile,
		FileMaxSizeMB: cfg.Obs.LogFileMaxMB,
		FileBackups:   cfg.Obs.LogFileBackups,
		FileMaxAgeDay: cfg.Obs.LogFileMaxAge,
	}).With().Str("component", component).Str("env", cfg.AppEnv).Logger()
}

// InitTelemetry registers domain metrics and, when enabled, the tracer
// provider. The returned shutdown func is never nil.
func InitTelemetry(ctx context.Context, cfg *config.Config, service string, reg prometheus.Registerer) (func(context.Context) error, error) {
	obs.MustRegisterDomainMetrics(cfg.Obs.MetricsNamespace, reg)
	exporter := "none"
	if cfg.Obs.EnableTracing {
		exporter = "otlp"
	}
	shutdown, err := obs.InitTracer(ctx, obs.TracingConfig{
		ServiceName:   service,
		Endpoint:      cfg.Obs.OTLPEndpoint,
		Exporter:      exporter,
		SamplingRatio: cfg.Obs.SamplingRatio,
		Environment:   cfg.AppEnv,
	})
	if err != nil {
		return func(context.Context) error { return nil }, err
	}
	return shutdown, nil
}

// OpenDatabase connects a traced pgx pool and verifies it.
func OpenDatabase(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// OpenRedis connects a traced redis client and verifies it.
func OpenRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// AsynqRedisOpt reuses REDIS_URL for the task queue.
func AsynqRedisOpt(cfg *config.Config) (asynq.RedisConnOpt, error) {
	opt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url for queue: %w", err)
	}
	return opt, nil
}

// NewCommissionService assembles the engine over Postgres with a Redis lock
// and a breaker around the store.
func NewCommissionService(cfg *config.Config, pool *pgxpool.Pool, rdb *redis.Client, logger zerolog.Logger) *commission.Service {
	breaker := resilience.NewBreaker(5, 0.5, 15*time.Second).
		WithTarget("postgres").
		WithLogger(logger)
	store := repo.Guarded{
		Next:    repo.CommissionRepo{Q: dbgen.New(pool)},
		Breaker: breaker,
	}
	return &commission.Service{
		Repo:       store,
		Dispatcher: commission.NewDispatcher(),
		Locker:     lock.Locker{R: rdb, RetryBackoff: cfg.Commission.LockRetryBackoff, MaxWait: cfg.Commission.LockTTL},
		LockTTL:    cfg.Commission.LockTTL,
		Logger:     &logger,
	}
}

// Open builds every shared dependency. Callers own Close.
func Open(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Dependencies, error) {
	pool, err := OpenDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}
	rdb, err := OpenRedis(ctx, cfg, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return &Dependencies{
		Config:  cfg,
		Logger:  logger,
		DB:      pool,
		Redis:   rdb,
		Service: NewCommissionService(cfg, pool, rdb, logger),
	}, nil
}

// Close releases connections.
func (d *Dependencies) Close() {
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error().Err(err).Msg("close redis")
		}
	}
	if d.DB != nil {
		d.DB.Close()
	}
}
