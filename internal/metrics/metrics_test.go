package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.AccessDecision("allow")
	m.AccessDecision("allow")
	m.AccessDecision("deny_subscription")
	m.Payment("monthly", "created")
	m.Webhook("payment.updated", "activated")
	m.Expired(3)
	m.Expired(0)
	m.ObserveHTTP("GET", "/api/v1/content", "200", 0.01)

	assert.InDelta(t, 2, testutil.ToFloat64(m.accessDecisions.WithLabelValues("allow")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.accessDecisions.WithLabelValues("deny_subscription")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.payments.WithLabelValues("monthly", "created")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.webhooks.WithLabelValues("payment.updated", "activated")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(m.expired), 0)

	count, err := testutil.GatherAndCount(reg, "paywall_http_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.AccessDecision("allow")
		m.Payment("monthly", "created")
		m.Webhook("payment.updated", "ignored")
		m.Expired(1)
		m.ObserveHTTP("GET", "/", "200", 1)
	})
}
