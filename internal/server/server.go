// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/MKhiriev/go-http-frame/internal/codes"
	"github.com/MKhiriev/go-http-frame/internal/config"
	"github.com/MKhiriev/go-http-frame/internal/drain"
	httphandler "github.com/MKhiriev/go-http-frame/internal/handler/http"
	"github.com/MKhiriev/go-http-frame/internal/lifecycle"
	"github.com/MKhiriev/go-http-frame/internal/logger"
	"github.com/MKhiriev/go-http-frame/internal/metrics"
	"github.com/MKhiriev/go-http-frame/internal/response"
	"github.com/MKhiriev/go-http-frame/internal/validation"
	"github.com/MKhiriev/go-http-frame/models"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// Options carry the collaborators a [Server] does not build from
// configuration. Every field is optional.
type Options struct {
	// Registry resolves response codes. A fresh [codes.NewRegistry] is used
	// when nil.
	Registry *codes.Registry

	// Engine compiles validation schemas. The JSON Schema engine is used
	// when nil.
	Engine validation.Engine

	// Metrics receives the server metrics when metrics are enabled. A private
	// registry is used when nil.
	Metrics *prometheus.Registry
}

// Server owns one listener and everything needed to drain it.
type Server struct {
	cfg    config.StructuredConfig
	logger *logger.Logger

	registry    *codes.Registry
	responder   *response.Responder
	validator   *validation.Validator
	tracker     *lifecycle.Tracker
	coordinator *drain.Coordinator
	metrics     *metrics.Collector
	pipeline    *httphandler.Pipeline
	gate        *httphandler.ReadyGate
	certs       *certStore

	mu           sync.Mutex
	listener     net.Listener
	onRegistered []func()
}

// New builds a server from cfg. Nothing is bound until [Server.Listen].
func New(cfg config.StructuredConfig, logger *logger.Logger, opts Options) (*Server, error) {
	registry := opts.Registry
	if registry == nil {
		registry = codes.NewRegistry()
	}
	if cfg.App.CodesFile != "" {
		if err := registry.LoadFile(cfg.App.CodesFile); err != nil {
			return nil, fmt.Errorf("loading response codes: %w", err)
		}
	}

	engine := opts.Engine
	if engine == nil {
		engine = validation.NewJSONSchemaEngine()
	}

	var collector *metrics.Collector
	if cfg.Server.Metrics.Enabled {
		collector = metrics.NewCollector(opts.Metrics)
	}

	tracker := lifecycle.NewTracker(logger, lifecycle.Options{
		Debug:       cfg.App.Debug,
		LogRequests: cfg.App.LogRequests,
	})

	s := &Server{
		cfg:       cfg,
		logger:    logger,
		registry:  registry,
		responder: response.NewResponder(registry, logger.Named("response")),
		validator: validation.NewValidator(engine, cfg.Server.Validation.Sections, validation.Options{
			AbortEarly:   cfg.Server.Validation.AbortEarly,
			StripUnknown: cfg.Server.Validation.StripUnknown,
			NoDefaults:   cfg.Server.Validation.NoDefaults,
			NoCoerce:     cfg.Server.Validation.NoCoerce,
		}, logger.Named("validation")),
		tracker:     tracker,
		coordinator: drain.NewCoordinator(tracker, logger.Named("drain")),
		metrics:     collector,
		pipeline:    httphandler.NewPipeline(),
		gate:        &httphandler.ReadyGate{},
		certs:       newCertStore(collector, logger.Named("tls")),
	}

	tracker.OnOpened(func(*http.Request, models.RequestRecord) { collector.RequestOpened() })
	tracker.OnFinished(func(*http.Request, models.RequestRecord) { collector.RequestFinished() })
	s.coordinator.OnConnectionChange(collector.SetOpenConnections)
	s.coordinator.OnDeregistered(func() { collector.SetDraining(false) })

	s.assemble()
	return s, nil
}

// assemble registers the built-in middlewares in the order they run.
func (s *Server) assemble() {
	srv := s.cfg.Server

	if s.metrics != nil {
		s.pipeline.Use(s.metrics.Middleware)
	}
	s.pipeline.Use(s.tracker.Middleware, response.Install(s.responder))
	if srv.HandleErrors {
		s.pipeline.Use(response.Recover)
	}
	if srv.WaitForReady {
		s.pipeline.Use(s.gate.Middleware)
	}
	if srv.Security.Enabled {
		s.pipeline.Use(httphandler.WithSecurity(httphandler.SecuritySettings{
			FrameDeny:          srv.Security.FrameDeny,
			ContentTypeNosniff: srv.Security.ContentTypeNosniff,
			BrowserXSSFilter:   srv.Security.BrowserXSSFilter,
			HSTSSeconds:        srv.Security.HSTSSeconds,
			ReferrerPolicy:     srv.Security.ReferrerPolicy,
			CSP:                srv.Security.CSP.Directives,
			Nonces:             srv.Security.CSP.GenerateNonces,
		}))
	}
	if srv.Compression.Enabled {
		s.pipeline.Use(httphandler.WithCompression(srv.Compression.Level))
	}
	if len(srv.BodyParser.Kinds) > 0 {
		s.pipeline.Use(httphandler.WithBodyParser(httphandler.BodyParserSettings{
			JSON:       srv.BodyParser.Has(config.BodyJSON),
			JSONLimit:  srv.BodyParser.JSONLimit,
			URLEncoded: srv.BodyParser.Has(config.BodyURLEncoded),
			FormLimit:  srv.BodyParser.FormLimit,
		}))
	}
	if s.cfg.App.LogRequests {
		s.pipeline.Use(httphandler.WithLogging)
	}

	for prefix, dir := range srv.Static {
		s.pipeline.Static(prefix, dir)
	}
	if s.metrics != nil {
		handler := s.metrics.Handler()
		s.pipeline.Route(func(r chi.Router) {
			r.Method(http.MethodGet, srv.Metrics.Path, handler)
		})
	}
}

// Use appends middlewares that run for every request, after the built-in
// ones.
func (s *Server) Use(mws ...func(http.Handler) http.Handler) {
	s.pipeline.Use(mws...)
}

// UseAt appends middlewares that run only for requests under prefix.
func (s *Server) UseAt(prefix string, mws ...func(http.Handler) http.Handler) {
	s.pipeline.UseAt(prefix, mws...)
}

// Route registers handlers.
func (s *Server) Route(fn func(r chi.Router)) {
	s.pipeline.Route(fn)
}

// Static serves the files below dir under prefix.
func (s *Server) Static(prefix, dir string) {
	s.pipeline.Static(prefix, dir)
}

// Validator returns the validator configured for this server.
func (s *Server) Validator() *validation.Validator {
	return s.validator
}

// Validate compiles schema into a validation middleware.
func (s *Server) Validate(schema validation.Schema, opts ...validation.Options) (func(http.Handler) http.Handler, error) {
	return s.validator.Validate(schema, opts...)
}

// Responder returns the responder installed on every request.
func (s *Server) Responder() *response.Responder {
	return s.responder
}

// Registry returns the response code registry.
func (s *Server) Registry() *codes.Registry {
	return s.registry
}

// Metrics returns the metrics collector, nil when metrics are disabled.
func (s *Server) Metrics() *metrics.Collector {
	return s.metrics
}

// MarkReady lets requests through when the server waits for readiness.
func (s *Server) MarkReady() {
	s.gate.MarkReady()
}

// Ready reports whether requests are served.
func (s *Server) Ready() bool {
	return !s.cfg.Server.WaitForReady || s.gate.Ready()
}

// OnRegistered registers fn to run once the server is listening.
func (s *Server) OnRegistered(fn func()) {
	s.mu.Lock()
	s.onRegistered = append(s.onRegistered, fn)
	s.mu.Unlock()
}

// OnOpened registers cb to run when a request starts.
func (s *Server) OnOpened(cb lifecycle.Callback) {
	s.tracker.OnOpened(cb)
}

// OnFinished registers cb to run once when a request completes or its
// connection goes away.
func (s *Server) OnFinished(cb lifecycle.Callback) {
	s.tracker.OnFinished(cb)
}

// OnDeregistered registers fn to run once the drain has completed.
func (s *Server) OnDeregistered(fn func()) {
	s.coordinator.OnDeregistered(fn)
}

// SetCerts swaps the TLS credential on the running listener. A missing half
// keeps the current one. On failure the current credential stays in use.
func (s *Server) SetCerts(certs Certs) error {
	if !s.cfg.Server.TLS.Enabled {
		return ErrTLSDisabled
	}
	return s.certs.SetCerts(certs)
}

// Addr returns the bound address, nil before [Server.Listen].
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Listen binds the configured target and starts serving in the background.
// Routes and middlewares have to be registered before it is called.
func (s *Server) Listen() error {
	s.mu.Lock()
	if s.listener != nil {
		s.mu.Unlock()
		return ErrAlreadyListening
	}
	if err := s.bind(); err != nil {
		s.mu.Unlock()
		return err
	}
	hooks := s.onRegistered
	s.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
	return nil
}

// bind is called with s.mu held.
func (s *Server) bind() error {
	target, err := resolveBind(s.cfg.Server)
	if err != nil {
		return err
	}

	tlsConfig := s.cfg.Server.TLS
	if tlsConfig.Enabled {
		if err := s.certs.load(tlsConfig.CertFile, tlsConfig.KeyFile); err != nil {
			return err
		}
	}

	ln, err := listen(target)
	if err != nil {
		s.logger.Err(err).Str("bind", target.String()).Msg("bind failed")
		return err
	}

	if s.cfg.Server.HandleErrors {
		s.pipeline.NotFound(response.NotFound)
	}
	s.tracker.OnFinished(func(*http.Request, models.RequestRecord) { s.coordinator.RequestFinished() })

	srv := newHTTPServer(s.pipeline.Handler(), s.coordinator.ConnState, s.cfg.Server.ReadHeaderTimeout, s.logger)
	if tlsConfig.Enabled {
		srv.withTLS(s.certs.GetCertificate)
	}

	s.listener = ln
	s.coordinator.SetListenerCloser(ln.Close)

	go func() {
		if err := srv.serve(ln); err != nil {
			s.logger.Err(err).Msg("serving stopped")
			s.Close()
		}
	}()

	if tlsConfig.Enabled && tlsConfig.Watch {
		watcher, err := newCertWatcher(tlsConfig.CertFile, tlsConfig.KeyFile, s.certs, s.logger.Named("tls"))
		if err != nil {
			s.logger.Warn().Err(err).Msg("certificate files are not watched")
		} else {
			ctx, cancel := context.WithCancel(context.Background())
			s.coordinator.OnDeregistered(cancel)
			go watcher.run(ctx)
		}
	}

	if target.network == "unix" {
		s.logger.Info().Msgf("Server online via %s", target.address)
	} else {
		s.logger.Info().Msgf("Server online at %s", ln.Addr())
	}
	return nil
}

// Close starts draining: the listener stops accepting, in-flight requests
// finish, then every connection is closed. It does not wait; see
// [Server.Done].
func (s *Server) Close() {
	if s.coordinator.State() == drain.Accepting {
		s.metrics.SetDraining(true)
	}
	s.coordinator.Drain()
}

// Done is closed once the drain has completed.
func (s *Server) Done() <-chan struct{} {
	return s.coordinator.Done()
}

// State returns the drain state.
func (s *Server) State() drain.State {
	return s.coordinator.State()
}

// Shutdown drains the server and waits for the drain or for ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Close()

	select {
	case <-s.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunServer listens (unless already listening) and blocks until ctx is done
// or a termination signal arrives, then drains. With App.ForceExitAfter set
// the drain is abandoned after that long and [ErrForcedExit] is returned.
func (s *Server) RunServer(ctx context.Context) error {
	if s.Addr() == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	select {
	case <-ctx.Done():
		s.logger.Info().Msg("shutdown requested")
	case <-s.Done():
		return nil
	}

	s.Close()

	var forceExit <-chan time.Time
	if limit := s.cfg.App.ForceExitAfter; limit > 0 {
		timer := time.NewTimer(limit)
		defer timer.Stop()
		forceExit = timer.C
	}

	select {
	case <-s.Done():
		s.logger.Info().Msg("server stopped gracefully")
		return nil
	case <-forceExit:
		s.logger.Warn().Int("open_requests", s.tracker.OpenCount()).Msg("forcing exit before the drain completed")
		return ErrForcedExit
	}
}
