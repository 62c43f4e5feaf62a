package main

import (
	"crypto/subtle"
	"net/http"
	"net/http/pprof"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-commission/internal/commission"
	"github.com/noah-isme/backend-commission/internal/common"
	"github.com/noah-isme/backend-commission/internal/config"
	"github.com/noah-isme/backend-commission/internal/health"
	"github.com/noah-isme/backend-commission/internal/obs"
	"github.com/noah-isme/backend-commission/internal/ratelimit"
	"github.com/noah-isme/backend-commission/internal/security"
)

type routerDeps struct {
	Config     *config.Config
	Logger     zerolog.Logger
	Metrics    *obs.HTTPMetrics
	Health     health.Handler
	Commission *commission.Handler
	Limiter    ratelimit.Limiter
	Idem       redis.Cmdable
}

func newRouter(d routerDeps) http.Handler {
	cfg := d.Config
	logger := d.Logger

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.SpanRouteMiddleware)
	if d.Metrics != nil {
		r.Use(obs.HTTPObs{Metrics: d.Metrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", common.IdempotencyHeader},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(security.Headers{Enable: cfg.HTTP.SecurityHeadersEnabled, EnableHSTS: cfg.IsProduction()}.Middleware)

	if d.Metrics != nil {
		r.Handle("/metrics", promhttp.Handler())
	}
	if cfg.Obs.EnablePprof {
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), cfg.Obs.PprofUser, cfg.Obs.PprofPass))
	}

	r.Get("/health/live", d.Health.Live)
	r.Get("/health/ready", d.Health.Ready)

	r.Route("/api", func(api chi.Router) {
		api.Use(security.BodyLimit{Max: cfg.HTTP.BodyLimitBytes}.Middleware)
		if d.Limiter != nil {
			limit := ratelimit.Handler{
				Limiter: d.Limiter,
				Config:  ratelimit.Config{Key: ratelimit.ClientIPKey},
				OnError: func(err error) {
					logger.Warn().Err(err).Msg("rate limiter unavailable")
				},
			}
			api.Use(limit.Middleware)
		}
		api.Use(common.Idem{R: d.Idem, TTL: cfg.HTTP.IdempotencyTTL}.Middleware)
		d.Commission.Routes(api)
	})

	return r
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

// newPprofMux serves full /debug/pprof paths; chi Mount keeps URL.Path intact.
func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/debug/pprof/allocs", pprof.Handler("allocs"))
	mux.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/debug/pprof/heap", pprof.Handler("heap"))
	mux.Handle("/debug/pprof/mutex", pprof.Handler("mutex"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
