package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CommissionCalculationsTotal counts calculation outcomes (ok, not_found, invalid_rule, error).
	CommissionCalculationsTotal *prometheus.CounterVec
	// CommissionCalculationDuration records end-to-end calculation latency in milliseconds.
	CommissionCalculationDuration *prometheus.HistogramVec
	// CommissionRuleEvaluationsTotal counts calculator invocations by rule type and level.
	CommissionRuleEvaluationsTotal *prometheus.CounterVec
	// CommissionCapsAppliedTotal counts caps that lowered a total, by cap kind.
	CommissionCapsAppliedTotal *prometheus.CounterVec
	// CommissionTasksTotal counts background recalculation task outcomes.
	CommissionTasksTotal *prometheus.CounterVec
	// StoreBreakerState reports breaker state per dependency: 0 closed, 1 open, 2 half-open.
	StoreBreakerState *prometheus.GaugeVec
	// StoreBreakerTransitions counts breaker state changes.
	StoreBreakerTransitions *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers the commission collectors.
// Repeated calls are no-ops; collectors already present in reg are reused.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CommissionCalculationsTotal = registerCounterVec(reg, prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commission_calculations_total",
			Help:      "Count of commission calculations by outcome.",
		}, "result")
		CommissionCalculationDuration = registerHistogramVec(reg, prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "commission_calculation_duration_ms",
			Help:      "Latency of commission calculations in milliseconds.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}, "result")
		CommissionRuleEvaluationsTotal = registerCounterVec(reg, prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commission_rule_evaluations_total",
			Help:      "Count of calculator invocations by rule type and level.",
		}, "type", "level")
		CommissionCapsAppliedTotal = registerCounterVec(reg, prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commission_caps_applied_total",
			Help:      "Count of caps that lowered an aggregated commission.",
		}, "kind")
		CommissionTasksTotal = registerCounterVec(reg, prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commission_tasks_total",
			Help:      "Count of background recalculation tasks by outcome.",
		}, "result")
		StoreBreakerState = registerGaugeVec(reg, prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "store_breaker_state",
			Help:      "Circuit breaker state per dependency: 0=closed, 1=open, 2=half-open.",
		}, "target")
		StoreBreakerTransitions = registerCounterVec(reg, prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_breaker_transitions_total",
			Help:      "Count of circuit breaker state transitions.",
		}, "target", "from", "to")
	})
}

func registerCounterVec(reg prometheus.Registerer, opts prometheus.CounterOpts, labels ...string) *prometheus.CounterVec {
	vec := prometheus.NewCounterVec(opts, labels)
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
		panic(fmt.Errorf("register domain metric %s: %w", opts.Name, err))
	}
	return vec
}

func registerHistogramVec(reg prometheus.Registerer, opts prometheus.HistogramOpts, labels ...string) *prometheus.HistogramVec {
	vec := prometheus.NewHistogramVec(opts, labels)
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing
			}
		}
		panic(fmt.Errorf("register domain metric %s: %w", opts.Name, err))
	}
	return vec
}

func registerGaugeVec(reg prometheus.Registerer, opts prometheus.GaugeOpts, labels ...string) *prometheus.GaugeVec {
	vec := prometheus.NewGaugeVec(opts, labels)
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing
			}
		}
		panic(fmt.Errorf("register domain metric %s: %w", opts.Name, err))
	}
	return vec
}
