package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Gauges(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.RequestOpened()
	c.RequestOpened()
	c.RequestFinished()
	assert.Equal(t, 1.0, testutil.ToFloat64(c.openRequests))

	c.SetOpenConnections(4)
	assert.Equal(t, 4.0, testutil.ToFloat64(c.openConnections))

	c.SetDraining(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.draining))
	c.SetDraining(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(c.draining))

	c.CertReloaded(nil)
	c.CertReloaded(errors.New("bad pem"))
	c.CertReloaded(errors.New("bad pem"))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.certReloads.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.certReloads.WithLabelValues("failure")))
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector

	assert.NotPanics(t, func() {
		c.RequestOpened()
		c.RequestFinished()
		c.SetOpenConnections(1)
		c.SetDraining(true)
		c.CertReloaded(nil)
	})

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	assert.NotNil(t, c.Middleware(next))
}

func TestCollector_Middleware(t *testing.T) {
	c := NewCollector(nil)

	router := chi.NewRouter()
	router.Use(c.Middleware)
	router.Get("/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	router.Get("/plain", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	for _, path := range []string{"/users/1", "/users/2", "/plain"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(c.requestsTotal.WithLabelValues(http.MethodGet, "/users/{id}", "202")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requestsTotal.WithLabelValues(http.MethodGet, "/plain", "200")))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector(nil)
	c.RequestOpened()

	rr := httptest.NewRecorder()
	c.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.Contains(rr.Body.String(), "httpframe_open_requests 1"))
}
