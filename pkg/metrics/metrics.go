// Package metrics exposes the ledger and session counters on a dedicated
// Prometheus registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "subtrack"

// Collector holds the pre-registered counter vectors. A nil *Collector is
// valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	Reconciles          *prometheus.CounterVec
	SessionRefreshes    *prometheus.CounterVec
	SuggestionDecisions *prometheus.CounterVec
	LapseTransitions    *prometheus.CounterVec
	HTTPRequests        *prometheus.CounterVec
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		registry: reg,
		Reconciles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_total",
			Help:      "Charges folded into the ledger, by outcome",
		}, []string{"outcome"}),
		SessionRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_refresh_total",
			Help:      "Refresh-credential rotations, by result",
		}, []string{"result"}),
		SuggestionDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suggestion_decisions_total",
			Help:      "User decisions on pending suggestions",
		}, []string{"decision"}),
		LapseTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lapse_transitions_total",
			Help:      "Subscriptions moved by the lapse sweeper, by target status",
		}, []string{"to"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by route and status code",
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(
		c.Reconciles,
		c.SessionRefreshes,
		c.SuggestionDecisions,
		c.LapseTransitions,
		c.HTTPRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) ReconcileOutcome(outcome string) {
	if c == nil {
		return
	}
	c.Reconciles.WithLabelValues(outcome).Inc()
}

func (c *Collector) SessionRefresh(result string) {
	if c == nil {
		return
	}
	c.SessionRefreshes.WithLabelValues(result).Inc()
}

func (c *Collector) SuggestionDecision(decision string) {
	if c == nil {
		return
	}
	c.SuggestionDecisions.WithLabelValues(decision).Inc()
}

func (c *Collector) LapseTransition(to string) {
	if c == nil {
		return
	}
	c.LapseTransitions.WithLabelValues(to).Inc()
}

func (c *Collector) HTTPRequest(method, route, status string) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, status).Inc()
}
