package http

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MKhiriev/go-http-frame/internal/logger"
	"github.com/stretchr/testify/assert"
)

// makeRequest creates a test request carrying a logger that writes to buf,
// the way the request tracker attaches one.
func makeRequest(method, path string, buf *bytes.Buffer) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	l := logger.NewWithWriter(buf, "test")
	return req.WithContext(l.WithContext(req.Context()))
}

func TestWithLogging(t *testing.T) {
	tests := []struct {
		name             string
		method           string
		path             string
		handlerStatus    int
		handlerResponse  string
		checkLogContains []string
	}{
		{
			name:            "GET 200",
			method:          http.MethodGet,
			path:            "/test",
			handlerStatus:   http.StatusOK,
			handlerResponse: "OK",
			checkLogContains: []string{
				`"method":"GET"`,
				`"uri":"/test"`,
				`"status":200`,
				`"duration":`,
				`"size":2`,
			},
		},
		{
			name:          "PUT 204 no body",
			method:        http.MethodPut,
			path:          "/update",
			handlerStatus: http.StatusNoContent,
			checkLogContains: []string{
				`"method":"PUT"`,
				`"status":204`,
				`"size":0`,
			},
		},
		{
			name:            "query parameters preserved in uri",
			method:          http.MethodGet,
			path:            "/search?q=test&limit=10",
			handlerStatus:   http.StatusOK,
			handlerResponse: "Results",
			checkLogContains: []string{
				`"uri":"/search?q=test&limit=10"`,
			},
		},
		{
			name:            "GET 500",
			method:          http.MethodGet,
			path:            "/error",
			handlerStatus:   http.StatusInternalServerError,
			handlerResponse: strings.Repeat("a", 1024),
			checkLogContains: []string{
				`"status":500`,
				`"size":1024`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logBuf bytes.Buffer

			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.handlerStatus)
				if tt.handlerResponse != "" {
					_, _ = w.Write([]byte(tt.handlerResponse))
				}
			})

			req := makeRequest(tt.method, tt.path, &logBuf)
			rr := httptest.NewRecorder()
			WithLogging(next).ServeHTTP(rr, req)

			assert.Equal(t, tt.handlerStatus, rr.Code)
			for _, expected := range tt.checkLogContains {
				assert.Contains(t, logBuf.String(), expected)
			}
		})
	}
}

func TestWithLogging_NoStatusWritten(t *testing.T) {
	var logBuf bytes.Buffer

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("implicit 200"))
	})

	rr := httptest.NewRecorder()
	WithLogging(next).ServeHTTP(rr, makeRequest(http.MethodGet, "/test", &logBuf))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, logBuf.String(), `"status":200`)
}

func TestWithLogging_PanicNotSuppressed(t *testing.T) {
	var logBuf bytes.Buffer

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("test panic")
	})

	assert.Panics(t, func() {
		WithLogging(next).ServeHTTP(httptest.NewRecorder(), makeRequest(http.MethodGet, "/panic", &logBuf))
	})
}

func TestWithLogging_WithoutRequestLogger(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		WithLogging(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nop", nil))
	})
	assert.Equal(t, http.StatusOK, rr.Code)
}
