package http

import (
	"net/http"
	"sync/atomic"

	"github.com/MKhiriev/go-http-frame/internal/codes"
	"github.com/MKhiriev/go-http-frame/internal/response"
)

// ReadyGate holds requests off until the application marks itself ready.
type ReadyGate struct {
	ready atomic.Bool
}

// MarkReady opens the gate. Calling it again has no effect.
func (g *ReadyGate) MarkReady() {
	g.ready.Store(true)
}

// Ready reports whether the gate is open.
func (g *ReadyGate) Ready() bool {
	return g.ready.Load()
}

// Middleware answers server.not_ready (503) while the gate is closed.
func (g *ReadyGate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.ready.Load() {
			_ = response.FromRequest(r).Fail(w, http.StatusServiceUnavailable, response.Code(codes.NotReady), nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
