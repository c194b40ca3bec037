// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package response

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"sync"

	"github.com/MKhiriev/go-http-frame/internal/codes"
	"github.com/MKhiriev/go-http-frame/internal/logger"
)

type contextKey string

const (
	responderCtxKey contextKey = "responder"
	writerCtxKey    contextKey = "response_writer"
)

var defaultResponder = sync.OnceValue(func() *Responder {
	return NewResponder(codes.NewRegistry(), logger.NewLogger("response"))
})

// Default returns the process-wide responder used when no responder has been
// installed on a request.
func Default() *Responder {
	return defaultResponder()
}

// Install is a middleware that attaches rs to every request and wraps the
// response writer in a [*Writer] so later stages can tell whether the
// response has already been committed.
func Install(rs *Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := NewWriter(w)
			ctx := context.WithValue(r.Context(), responderCtxKey, rs)
			ctx = context.WithValue(ctx, writerCtxKey, rw)
			next.ServeHTTP(rw, r.WithContext(ctx))
		})
	}
}

// FromRequest returns the responder installed on r, or [Default].
func FromRequest(r *http.Request) *Responder {
	if rs, ok := r.Context().Value(responderCtxKey).(*Responder); ok && rs != nil {
		return rs
	}
	return Default()
}

// Committed reports whether the response for r has already sent its header.
func Committed(w http.ResponseWriter, r *http.Request) bool {
	if rw, ok := w.(*Writer); ok && rw.Written() {
		return true
	}
	if rw, ok := r.Context().Value(writerCtxKey).(*Writer); ok && rw.Written() {
		return true
	}
	return false
}

// HandleError is the terminal error handler. It turns err into a failure
// envelope, forcing status 500 for anything that is not a [*DomainFailure]
// unless a status was attached with [WithStatus].
//
// Unexpected failures answered with a 5xx status are logged with a stack
// trace. When the response is already committed it only logs a warning.
func (rs *Responder) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	log := logger.FromRequest(r)
	if Committed(w, r) {
		log.Warn().Err(err).Msg("error after response headers were sent")
		return
	}

	status := StatusOf(err)
	f := FromError(err)
	if _, expected := f.(*DomainFailure); !expected {
		if status == 0 {
			status = http.StatusInternalServerError
		}
		if status >= http.StatusInternalServerError {
			log.Err(err).
				Int("status", status).
				Bytes("stack", debug.Stack()).
				Msg("request failed")
		}
	}

	_ = rs.Fail(w, status, f, nil)
}

// HandlerFunc is an HTTP handler that may fail. A returned error goes through
// [Responder.HandleError].
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// ServeHTTP implements [http.Handler].
func (h HandlerFunc) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h(w, r); err != nil {
		FromRequest(r).HandleError(w, r, err)
	}
}

// Recover is a middleware that converts handler panics into the error
// handler's 500 envelope.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			err, ok := rec.(error)
			if !ok {
				err = fmt.Errorf("%v", rec)
			}
			logger.FromRequest(r).Error().
				Str("panic", err.Error()).
				Bytes("stack", debug.Stack()).
				Msg("recovered from panic")

			FromRequest(r).HandleError(w, r, fmt.Errorf("panic: %w", err))
		}()

		next.ServeHTTP(w, r)
	})
}

// NotFound writes the not-found envelope with HTTP 404.
func NotFound(w http.ResponseWriter, r *http.Request) {
	_ = FromRequest(r).Fail(w, http.StatusNotFound, Code(codes.NotFound), nil)
}

// IsFailure reports whether err carries a [*DomainFailure].
func IsFailure(err error) bool {
	var f *DomainFailure
	return errors.As(err, &f)
}
