// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package metrics exposes the server's request, connection and drain state
// as Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/MKhiriev/go-http-frame/internal/response"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "httpframe"

// Collector owns the server metrics. A nil *Collector records nothing.
type Collector struct {
	registry *prometheus.Registry

	openRequests    prometheus.Gauge
	openConnections prometheus.Gauge
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	draining        prometheus.Gauge
	certReloads     *prometheus.CounterVec
}

// NewCollector registers the server metrics with registry, or with a fresh
// registry when registry is nil.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		registry: registry,
		openRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_requests",
			Help:      "Requests currently being served",
		}),
		openConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_connections",
			Help:      "Client connections currently tracked",
		}),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Completed requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		draining: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "draining",
			Help:      "1 while the server drains, 0 otherwise",
		}),
		certReloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tls_cert_reloads_total",
				Help:      "TLS certificate reloads by result",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(
		c.openRequests,
		c.openConnections,
		c.requestsTotal,
		c.requestDuration,
		c.draining,
		c.certReloads,
	)

	return c
}

// Registry returns the registry the collector writes to.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RequestOpened increments the open request gauge.
func (c *Collector) RequestOpened() {
	if c == nil {
		return
	}
	c.openRequests.Inc()
}

// RequestFinished decrements the open request gauge.
func (c *Collector) RequestFinished() {
	if c == nil {
		return
	}
	c.openRequests.Dec()
}

// SetOpenConnections sets the tracked connection gauge.
func (c *Collector) SetOpenConnections(n int) {
	if c == nil {
		return
	}
	c.openConnections.Set(float64(n))
}

// SetDraining flips the draining gauge.
func (c *Collector) SetDraining(draining bool) {
	if c == nil {
		return
	}
	if draining {
		c.draining.Set(1)
		return
	}
	c.draining.Set(0)
}

// CertReloaded counts a TLS certificate reload attempt.
func (c *Collector) CertReloaded(err error) {
	if c == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	c.certReloads.WithLabelValues(result).Inc()
}

// Middleware records request count, status and duration. The route label is
// the chi route pattern so that path parameters do not explode cardinality.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	if c == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := response.NewWriter(w)

		next.ServeHTTP(rw, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := rw.Status()
		if status == 0 {
			status = http.StatusOK
		}

		c.requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		c.requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}
