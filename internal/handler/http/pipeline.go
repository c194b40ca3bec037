// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Middleware is a request processing step.
type Middleware = func(http.Handler) http.Handler

// Pipeline collects middlewares, routes and static mounts in registration
// order and assembles them into a chi router on first use.
//
// Everything has to be registered before [Pipeline.Handler] is called for the
// first time; later registrations panic, like chi does for middlewares added
// after routes.
type Pipeline struct {
	mu          sync.Mutex
	middlewares []Middleware
	routes      []func(chi.Router)
	static      []staticMount
	notFound    http.HandlerFunc
	methodCheck bool

	once   sync.Once
	router *chi.Mux
}

type staticMount struct {
	prefix string
	dir    string
}

// NewPipeline returns an empty Pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// Use appends middlewares that run for every request.
func (p *Pipeline) Use(mws ...Middleware) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mustBeOpen()

	p.middlewares = append(p.middlewares, mws...)
}

// UseAt appends middlewares that run only for requests whose path is prefix
// or lies below it. Requests elsewhere skip them.
func (p *Pipeline) UseAt(prefix string, mws ...Middleware) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mustBeOpen()

	for _, mw := range mws {
		p.middlewares = append(p.middlewares, scoped(prefix, mw))
	}
}

// Route registers handlers on the router.
func (p *Pipeline) Route(fn func(r chi.Router)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mustBeOpen()

	p.routes = append(p.routes, fn)
}

// Static serves the files below dir under prefix.
func (p *Pipeline) Static(prefix, dir string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mustBeOpen()

	p.static = append(p.static, staticMount{prefix: prefix, dir: dir})
}

// NotFound installs the handler for unmatched paths. Together with it, method
// mismatches on known paths are answered the same way (see
// [CheckHTTPMethod]).
func (p *Pipeline) NotFound(h http.HandlerFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mustBeOpen()

	p.notFound = h
	p.methodCheck = true
}

// Handler builds the router on first call and returns it.
func (p *Pipeline) Handler() http.Handler {
	p.once.Do(func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.router = p.build()
	})
	return p.router
}

// Built reports whether the router has been assembled.
func (p *Pipeline) Built() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.router != nil
}

func (p *Pipeline) mustBeOpen() {
	if p.router != nil {
		panic("http: pipeline is already built, register middlewares and routes before serving")
	}
}

func (p *Pipeline) build() *chi.Mux {
	router := chi.NewRouter()
	router.Use(p.middlewares...)

	for _, mount := range p.static {
		prefix := strings.TrimSuffix(mount.prefix, "/")
		fs := http.StripPrefix(prefix, http.FileServer(http.Dir(mount.dir)))
		router.Handle(prefix+"/*", fs)
	}

	for _, fn := range p.routes {
		fn(router)
	}

	if p.notFound != nil {
		router.NotFound(p.notFound)
	}
	if p.methodCheck {
		router.MethodNotAllowed(CheckHTTPMethod(router, p.notFound))
	}

	return router
}

func scoped(prefix string, mw Middleware) Middleware {
	return func(next http.Handler) http.Handler {
		wrapped := mw(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if underPrefix(r.URL.Path, prefix) {
				wrapped.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// underPrefix matches whole path segments: "/api" covers "/api" and
// "/api/users" but not "/apiary".
func underPrefix(path, prefix string) bool {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return true
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
