package http

import (
	"net/http"
	"time"

	"github.com/MKhiriev/go-http-frame/internal/logger"
	"github.com/MKhiriev/go-http-frame/internal/response"
)

// WithLogging writes one access log line per request to the request logger.
func WithLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(r)

		start := time.Now()

		uri := r.RequestURI
		method := r.Method

		lw := response.NewWriter(w)

		next.ServeHTTP(lw, r)

		duration := time.Since(start)

		log.Info().
			Str("uri", uri).
			Str("method", method).
			Int("status", lw.Status()).
			Dur("duration", duration).
			Int("size", lw.Size()).
			Send()
	})
}
