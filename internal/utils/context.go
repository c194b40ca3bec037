// Package utils provides general-purpose helper utilities
// used across different parts of the server.
// Includes tools for working with context, type-safe keys, request-scoped
// data sections, identifier generation and HTTP response writing.
package utils

import (
	"context"
	"net/http"
	"net/url"
	"sync"
)

// contextKey is a private type for context keys.
// Using a dedicated type instead of a plain string prevents key collisions
// with other packages that may use string-based keys in the context.
type contextKey string

// String returns the string representation of the context key.
// Implements the fmt.Stringer interface.
func (c contextKey) String() string {
	return string(c)
}

// RequestDataCtxKey is the key under which the request's [RequestData] is
// stored in the context.
var RequestDataCtxKey = contextKey("requestData")

// RequestData holds the named data sections of one request ("body", "query",
// "params", ...). The body parser fills "body"; the validation middleware
// replaces sections with their normalized values.
//
// RequestData is safe for concurrent use.
type RequestData struct {
	mu       sync.RWMutex
	sections map[string]any
}

// Set stores value under section, replacing any previous value.
func (d *RequestData) Set(section string, value any) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.sections == nil {
		d.sections = make(map[string]any)
	}
	d.sections[section] = value
}

// Get returns the value stored under section.
func (d *RequestData) Get(section string) (any, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	value, ok := d.sections[section]
	return value, ok
}

// GetRequestDataFromContext retrieves the [RequestData] from the context.
//
// Returns the data holder and an ok flag:
//   - ok == true  — a holder is attached to ctx
//   - ok == false — no holder was attached
func GetRequestDataFromContext(ctx context.Context) (*RequestData, bool) {
	data, ok := ctx.Value(RequestDataCtxKey).(*RequestData)
	return data, ok
}

// WithRequestData returns r with a [RequestData] attached, reusing the one
// already present in r's context.
func WithRequestData(r *http.Request) (*http.Request, *RequestData) {
	if data, ok := GetRequestDataFromContext(r.Context()); ok {
		return r, data
	}

	data := &RequestData{}
	return r.WithContext(context.WithValue(r.Context(), RequestDataCtxKey, data)), data
}

// Section returns the named section of r's request data as an object. It
// returns nil when the section is missing or is not an object.
func Section(r *http.Request, name string) map[string]any {
	data, ok := GetRequestDataFromContext(r.Context())
	if !ok {
		return nil
	}

	value, _ := data.Get(name)
	object, _ := value.(map[string]any)
	return object
}

// ValuesSection converts url.Values into a section object: single values
// become strings, repeated values become lists.
func ValuesSection(values url.Values) map[string]any {
	section := make(map[string]any, len(values))
	for key, vals := range values {
		switch len(vals) {
		case 0:
		case 1:
			section[key] = vals[0]
		default:
			list := make([]any, len(vals))
			for i, val := range vals {
				list[i] = val
			}
			section[key] = list
		}
	}
	return section
}
