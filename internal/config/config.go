package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string `validate:"required"`
	Port               string `validate:"required"`
	DatabaseURL        string `validate:"required"`
	RedisURL           string `validate:"required"`
	CORSAllowedOrigins []string
	DBAutoMigrate      bool
	ShutdownTimeout    time.Duration `validate:"gt=0"`

	Obs        ObsConfig
	HTTP       HTTPConfig
	Commission CommissionConfig
	Queue      QueueConfig
	Health     HealthConfig
}

// ObsConfig groups logging, metrics and tracing settings.
type ObsConfig struct {
	LogFormat        string `validate:"oneof=json console text"`
	LogLevel         string
	LogFile          string
	LogFileMaxMB     int `validate:"gte=0"`
	LogFileBackups   int `validate:"gte=0"`
	LogFileMaxAge    int `validate:"gte=0"`
	MetricsNamespace string
	EnablePrometheus bool
	MetricsBuckets   string
	EnableTracing    bool
	OTLPEndpoint     string
	SamplingRatio    float64 `validate:"gte=0,lte=1"`
	EnablePprof      bool
	PprofUser        string
	PprofPass        string
	MetricsAddr      string
}

// HTTPConfig groups edge protections for the API.
type HTTPConfig struct {
	RateLimit              string `validate:"required"`
	BodyLimitBytes         int64  `validate:"gt=0"`
	SecurityHeadersEnabled bool
	IdempotencyTTL         time.Duration `validate:"gt=0"`
}

// CommissionConfig tunes the per-invoice calculation lock.
type CommissionConfig struct {
	LockTTL          time.Duration `validate:"gt=0"`
	LockRetryBackoff time.Duration `validate:"gt=0"`
}

// HealthConfig bounds the readiness probes.
type HealthConfig struct {
	DBTimeout    time.Duration `validate:"gt=0"`
	RedisTimeout time.Duration `validate:"gt=0"`
}

// QueueConfig controls background recalculation.
type QueueConfig struct {
	Name        string `validate:"required"`
	Concurrency int    `validate:"gt=0"`
	MaxRetry    int    `validate:"gte=0"`
}

var validate = validator.New()

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        strings.TrimSpace(k.String("DATABASE_URL")),
		RedisURL:           strings.TrimSpace(k.String("REDIS_URL")),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		DBAutoMigrate:      parseBool(k.String("DB_AUTO_MIGRATE")),
		ShutdownTimeout:    parseDuration(k.String("SHUTDOWN_TIMEOUT"), "15s"),
		Obs: ObsConfig{
			LogFormat:        strings.ToLower(valueOrDefault(k.String("OBS_LOG_FORMAT"), "json")),
			LogLevel:         valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
			LogFile:          strings.TrimSpace(k.String("OBS_LOG_FILE")),
			LogFileMaxMB:     parseInt(k.String("OBS_LOG_FILE_MAX_MB"), 100),
			LogFileBackups:   parseInt(k.String("OBS_LOG_FILE_MAX_BACKUPS"), 5),
			LogFileMaxAge:    parseInt(k.String("OBS_LOG_FILE_MAX_AGE_DAYS"), 28),
			MetricsNamespace: valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "commission"),
			EnablePrometheus: parseBoolDefault(k.String("OBS_ENABLE_PROMETHEUS"), true),
			MetricsBuckets:   k.String("OBS_METRICS_BUCKETS_MS"),
			EnableTracing:    parseBool(k.String("OBS_ENABLE_TRACING")),
			OTLPEndpoint:     strings.TrimSpace(k.String("OBS_OTLP_ENDPOINT")),
			SamplingRatio:    parseFloat(k.String("OBS_TRACING_SAMPLING_RATIO"), 1),
			EnablePprof:      parseBool(k.String("OBS_ENABLE_PPROF")),
			PprofUser:        strings.TrimSpace(k.String("SECURE_PPROF_BASIC_AUTH_USER")),
			PprofPass:        strings.TrimSpace(k.String("SECURE_PPROF_BASIC_AUTH_PASS")),
			MetricsAddr:      strings.TrimSpace(k.String("WORKER_METRICS_ADDR")),
		},
		HTTP: HTTPConfig{
			RateLimit:              valueOrDefault(k.String("RATE_LIMIT"), "120-M"),
			BodyLimitBytes:         int64(parseInt(k.String("HTTP_BODY_LIMIT_BYTES"), 1<<20)),
			SecurityHeadersEnabled: parseBoolDefault(k.String("SECURITY_HEADERS_ENABLED"), true),
			IdempotencyTTL:         parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		},
		Commission: CommissionConfig{
			LockTTL:          parseDuration(k.String("COMMISSION_LOCK_TTL"), "30s"),
			LockRetryBackoff: parseDuration(k.String("COMMISSION_LOCK_RETRY_BACKOFF"), "50ms"),
		},
		Queue: QueueConfig{
			Name:        valueOrDefault(k.String("QUEUE_NAME"), "commission"),
			Concurrency: parseInt(k.String("QUEUE_CONCURRENCY"), 10),
			MaxRetry:    parseInt(k.String("QUEUE_MAX_RETRY"), 5),
		},
		Health: HealthConfig{
			DBTimeout:    parseDuration(k.String("HEALTH_READY_DB_TIMEOUT"), "500ms"),
			RedisTimeout: parseDuration(k.String("HEALTH_READY_REDIS_TIMEOUT"), "300ms"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the struct tags and reports the first invalid fields.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// IsProduction reports whether APP_ENV names a production deployment.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.AppEnv))
	return env == "production" || env == "prod"
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string) bool {
	return parseBoolDefault(value, false)
}

func parseBoolDefault(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func parseInt(value string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return v
}

func parseFloat(value string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return v
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
