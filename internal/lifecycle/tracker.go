// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package lifecycle

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/MKhiriev/go-http-frame/internal/logger"
	"github.com/MKhiriev/go-http-frame/internal/utils"
	"github.com/MKhiriev/go-http-frame/models"
	"github.com/rs/zerolog"
)

// RequestIDHeader carries the request id back to the client.
const RequestIDHeader = "X-Request-ID"

type contextKey string

const requestIDCtxKey contextKey = "request_id"

// Callback receives the request and its record.
type Callback func(r *http.Request, record models.RequestRecord)

// Options control the tracker's request log line.
type Options struct {
	Debug       bool
	LogRequests bool
}

// Tracker records open requests. It is safe for concurrent use.
type Tracker struct {
	mu         sync.Mutex
	open       map[string]models.RequestRecord
	onOpened   []Callback
	onFinished []Callback

	ids     *utils.UUIDGenerator
	logger  *logger.Logger
	options Options
}

// NewTracker returns an empty Tracker.
func NewTracker(logger *logger.Logger, options Options) *Tracker {
	return &Tracker{
		open:    make(map[string]models.RequestRecord),
		ids:     utils.NewUUIDGenerator(),
		logger:  logger,
		options: options,
	}
}

// OnOpened registers cb to run when a request is recorded. Callbacks are
// registered before serving starts.
func (t *Tracker) OnOpened(cb Callback) {
	t.mu.Lock()
	t.onOpened = append(t.onOpened, cb)
	t.mu.Unlock()
}

// OnFinished registers cb to run once when a request is removed.
func (t *Tracker) OnFinished(cb Callback) {
	t.mu.Lock()
	t.onFinished = append(t.onFinished, cb)
	t.mu.Unlock()
}

// OpenCount returns the number of open requests.
func (t *Tracker) OpenCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.open)
}

// Open returns a snapshot of the open requests.
func (t *Tracker) Open() []models.RequestRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	records := make([]models.RequestRecord, 0, len(t.open))
	for _, record := range t.open {
		records = append(records, record)
	}
	return records
}

// Middleware records the request, attaches a request-scoped logger carrying
// request_id and removes the record when the handler returns or the request
// context ends.
func (t *Tracker) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.RequestURI()
		record := models.RequestRecord{
			ID:       t.ids.Token() + "-" + path,
			Method:   r.Method,
			Path:     path,
			OpenedAt: time.Now(),
		}

		l := t.logger.GetChildLogger()
		l.UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("request_id", record.ID)
		})
		ctx := context.WithValue(l.WithContext(r.Context()), requestIDCtxKey, record.ID)
		r = r.WithContext(ctx)
		w.Header().Set(RequestIDHeader, record.ID)

		t.mu.Lock()
		t.open[record.ID] = record
		opened := t.onOpened
		t.mu.Unlock()

		for _, cb := range opened {
			cb(r, record)
		}

		if t.options.Debug && t.options.LogRequests {
			l.Info().Msgf("> %s: %s", r.Method, path)
		}

		finish := func() { t.Finish(r, record.ID) }
		stop := context.AfterFunc(r.Context(), finish)
		defer func() {
			stop()
			finish()
		}()

		next.ServeHTTP(w, r)
	})
}

// Finish removes the record with id and runs the finished callbacks. Calling
// it for an id that is no longer open does nothing.
func (t *Tracker) Finish(r *http.Request, id string) {
	t.mu.Lock()
	record, ok := t.open[id]
	if ok {
		delete(t.open, id)
	}
	finished := t.onFinished
	t.mu.Unlock()

	if !ok {
		return
	}
	for _, cb := range finished {
		cb(r, record)
	}
}

// RequestID returns the id the tracker assigned to the request behind ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDCtxKey).(string)
	return id
}
