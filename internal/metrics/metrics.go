// Package metrics содержит prometheus-метрики сервиса.
// Все методы безопасны для вызова на nil *Metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "paywall"

// Metrics набор коллекторов сервиса.
type Metrics struct {
	accessDecisions *prometheus.CounterVec
	payments        *prometheus.CounterVec
	webhooks        *prometheus.CounterVec
	expired         prometheus.Counter
	httpDuration    *prometheus.HistogramVec
}

// New регистрирует коллекторы в reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		accessDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "access_decisions_total",
			Help:      "Access decisions by outcome.",
		}, []string{"outcome"}),
		payments: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pix_payments_total",
			Help:      "Pix payment creation attempts by plan and result.",
		}, []string{"plan", "result"}),
		webhooks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhooks_total",
			Help:      "Payment webhooks by action and outcome.",
		}, []string{"action", "outcome"}),
		expired: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscriptions_expired_total",
			Help:      "Subscriptions marked expired by the sweep job.",
		}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// AccessDecision учитывает решение о доступе.
func (m *Metrics) AccessDecision(outcome string) {
	if m == nil {
		return
	}
	m.accessDecisions.WithLabelValues(outcome).Inc()
}

// Payment учитывает попытку создания платежа.
func (m *Metrics) Payment(plan, result string) {
	if m == nil {
		return
	}
	m.payments.WithLabelValues(plan, result).Inc()
}

// Webhook учитывает обработанный вебхук.
func (m *Metrics) Webhook(action, outcome string) {
	if m == nil {
		return
	}
	m.webhooks.WithLabelValues(action, outcome).Inc()
}

// Expired учитывает подписки, помеченные истёкшими.
func (m *Metrics) Expired(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.expired.Add(float64(n))
}

// ObserveHTTP записывает длительность HTTP-запроса в секундах.
func (m *Metrics) ObserveHTTP(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, status).Observe(seconds)
}
