// Package metrics provides Prometheus instrumentation for the theory forum.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "forum"

// Operation results.
const (
	ResultOK           = "ok"
	ResultNotFound     = "not_found"
	ResultUnauthorized = "unauthorized"
	ResultInvalid      = "invalid"
	ResultError        = "error"
)

// Metrics holds all collectors of the service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// OperationsTotal counts service operations by operation and result.
	OperationsTotal *prometheus.CounterVec

	// QueryDuration observes theory listing latency.
	QueryDuration prometheus.Histogram

	// QueryResults observes the number of matches per listing before pagination.
	QueryResults prometheus.Histogram

	// TokensIssued counts issued bearer tokens.
	TokensIssued prometheus.Counter

	// TokenResolutions counts token resolutions by result.
	TokenResolutions *prometheus.CounterVec

	// HTTPRequestsTotal counts HTTP requests by method, route and status.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration observes HTTP request latency by method and route.
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them on a fresh registry
// together with the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		OperationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Total number of service operations by operation and result.",
		}, []string{"operation", "result"}),
		QueryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Latency of theory listing queries.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		QueryResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_matches",
			Help:      "Number of theories matching a listing query before pagination.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		TokensIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_issued_total",
			Help:      "Total number of bearer tokens issued.",
		}),
		TokenResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_resolutions_total",
			Help:      "Total number of bearer token resolutions by result.",
		}, []string{"result"}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.OperationsTotal,
		m.QueryDuration,
		m.QueryResults,
		m.TokensIssued,
		m.TokenResolutions,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)

	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the HTTP handler that exposes the metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// EntityCounter reports the number of stored entities of each kind.
type EntityCounter func(ctx context.Context) (users, theories, comments int64, err error)

// RegisterEntityGauges exposes entity counts as gauges read at scrape time.
func (m *Metrics) RegisterEntityGauges(count EntityCounter) {
	if m == nil {
		return
	}

	gauge := func(kind string, pick func(u, t, c int64) int64) prometheus.GaugeFunc {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "entities",
			Help:        "Number of stored entities by kind.",
			ConstLabels: prometheus.Labels{"kind": kind},
		}, func() float64 {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			u, t, c, err := count(ctx)
			if err != nil {
				return -1
			}
			return float64(pick(u, t, c))
		})
	}

	m.registry.MustRegister(
		gauge("user", func(u, _, _ int64) int64 { return u }),
		gauge("theory", func(_, t, _ int64) int64 { return t }),
		gauge("comment", func(_, _, c int64) int64 { return c }),
	)
}

// RecordOperation counts one service operation.
func (m *Metrics) RecordOperation(operation, result string) {
	if m == nil {
		return
	}
	m.OperationsTotal.WithLabelValues(operation, result).Inc()
}

// RecordQuery observes one theory listing.
func (m *Metrics) RecordQuery(duration time.Duration, matches int) {
	if m == nil {
		return
	}
	m.QueryDuration.Observe(duration.Seconds())
	m.QueryResults.Observe(float64(matches))
}

// RecordTokenIssued counts one issued token.
func (m *Metrics) RecordTokenIssued() {
	if m == nil {
		return
	}
	m.TokensIssued.Inc()
}

// RecordTokenResolution counts one token resolution.
func (m *Metrics) RecordTokenResolution(resolved bool) {
	if m == nil {
		return
	}
	result := "anonymous"
	if resolved {
		result = "resolved"
	}
	m.TokenResolutions.WithLabelValues(result).Inc()
}

// RecordHTTPRequest observes one HTTP request.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
