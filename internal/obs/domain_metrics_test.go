package obs_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-commission/internal/obs"
)

func TestMustRegisterDomainMetricsIsIdempotent(t *testing.T) {
	registry := prometheus.NewRegistry()
	obs.MustRegisterDomainMetrics("commission_test", registry)
	first := obs.CommissionCalculationsTotal
	require.NotNil(t, first)

	obs.MustRegisterDomainMetrics("commission_test", registry)
	require.Same(t, first, obs.CommissionCalculationsTotal)

	before := testutil.ToFloat64(obs.CommissionCapsAppliedTotal.WithLabelValues("amount"))
	obs.CommissionCapsAppliedTotal.WithLabelValues("amount").Inc()
	require.Equal(t, before+1, testutil.ToFloat64(obs.CommissionCapsAppliedTotal.WithLabelValues("amount")))
}
