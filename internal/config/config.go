// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container of the server.
// It is populated by merging environment variables, command-line flags and an
// optional JSON or YAML file, with [Defaults] filling whatever is still unset.
//
// Struct tags:
//   - envPrefix — prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       — direct environment variable name for scalar fields.
//   - yaml      — key in the configuration file (JSON files use the same keys).
type StructuredConfig struct {
	// App holds process-level settings: naming, logging and the codes file.
	App App `envPrefix:"APP_" yaml:"app"`

	// Server holds the bind target and the request pipeline settings.
	Server Server `envPrefix:"SERVER_" yaml:"server"`

	// ConfigFile is the optional path to a JSON or YAML configuration file.
	// Populated via the CONFIG environment variable or the -c / --config flag.
	ConfigFile string `env:"CONFIG" yaml:"-"`
}

// App holds application-level settings.
type App struct {
	// Name is used in log lines.
	// Env: APP_NAME
	Name string `env:"NAME" yaml:"name"`

	// Debug lowers the log level to debug.
	// Env: APP_DEBUG
	Debug bool `env:"DEBUG" yaml:"debug"`

	// LogRequests logs every incoming request line. Only effective together
	// with Debug.
	// Env: APP_LOG_REQUESTS
	LogRequests bool `env:"LOG_REQUESTS" yaml:"log_requests"`

	// CodesFile is a JSON or YAML file of code → message pairs registered on
	// top of the built-in server.* codes.
	// Env: APP_CODES_FILE
	CodesFile string `env:"CODES_FILE" yaml:"codes_file"`

	// ForceExitAfter bounds the graceful shutdown. Zero waits for the drain
	// without a limit.
	// Env: APP_FORCE_EXIT_AFTER
	ForceExitAfter time.Duration `env:"FORCE_EXIT_AFTER" yaml:"force_exit_after"`
}

// Server holds the bind target and the request pipeline settings.
//
// Exactly one bind target is used: Host+Port, Port alone or File (a Unix
// socket path), in that order.
type Server struct {
	// Env: SERVER_PORT
	Port int `env:"PORT" yaml:"port"`

	// Env: SERVER_HOST
	Host string `env:"HOST" yaml:"host"`

	// File is a Unix socket path.
	// Env: SERVER_FILE
	File string `env:"FILE" yaml:"file"`

	TLS         TLS         `envPrefix:"TLS_" yaml:"tls"`
	BodyParser  BodyParser  `envPrefix:"BODY_" yaml:"body_parser"`
	Security    Security    `envPrefix:"SECURITY_" yaml:"security"`
	Compression Compression `envPrefix:"COMPRESSION_" yaml:"compression"`
	Validation  Validation  `envPrefix:"VALIDATION_" yaml:"validation"`
	Metrics     Metrics     `envPrefix:"METRICS_" yaml:"metrics"`

	// Static maps URL prefixes to directories served as is.
	// Env: SERVER_STATIC="/assets:./public,/docs:./docs"
	Static map[string]string `env:"STATIC" yaml:"static"`

	// WaitForReady answers every request with server.not_ready until the
	// application marks the server ready.
	// Env: SERVER_WAIT_FOR_READY
	WaitForReady bool `env:"WAIT_FOR_READY" yaml:"wait_for_ready"`

	// HandleErrors installs the error handler and the not-found envelope.
	// Env: SERVER_HANDLE_ERRORS
	HandleErrors bool `env:"HANDLE_ERRORS" yaml:"handle_errors"`

	// Env: SERVER_READ_HEADER_TIMEOUT
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" yaml:"read_header_timeout"`
}

// TLS holds the certificate settings. Files are read once at startup; with
// Watch set they are read again whenever they change on disk.
type TLS struct {
	Enabled  bool   `env:"ENABLED" yaml:"enabled"`
	CertFile string `env:"CERT_FILE" yaml:"cert_file"`
	KeyFile  string `env:"KEY_FILE" yaml:"key_file"`
	Watch    bool   `env:"WATCH" yaml:"watch"`
}

// Body parser kinds understood by [BodyParser].
const (
	BodyJSON       = "json"
	BodyURLEncoded = "urlencoded"
)

// BodyParser selects the request body parsers and their size limits in
// bytes.
type BodyParser struct {
	Kinds     []string `env:"KINDS" yaml:"kinds"`
	JSONLimit int64    `env:"JSON_LIMIT" yaml:"json_limit"`
	FormLimit int64    `env:"FORM_LIMIT" yaml:"form_limit"`
}

// Has reports whether kind is enabled.
func (b BodyParser) Has(kind string) bool {
	for _, k := range b.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Security configures the security headers and the Content-Security-Policy.
type Security struct {
	Enabled            bool   `env:"ENABLED" yaml:"enabled"`
	FrameDeny          bool   `env:"FRAME_DENY" yaml:"frame_deny"`
	ContentTypeNosniff bool   `env:"CONTENT_TYPE_NOSNIFF" yaml:"content_type_nosniff"`
	BrowserXSSFilter   bool   `env:"BROWSER_XSS_FILTER" yaml:"browser_xss_filter"`
	HSTSSeconds        int64  `env:"HSTS_SECONDS" yaml:"hsts_seconds"`
	ReferrerPolicy     string `env:"REFERRER_POLICY" yaml:"referrer_policy"`
	CSP                CSP    `envPrefix:"CSP_" yaml:"csp"`
}

// CSP lists the policy directives with their static sources. GenerateNonces
// nonces are generated per request and added to every directive.
type CSP struct {
	Directives     map[string][]string `yaml:"directives"`
	GenerateNonces int                 `env:"GENERATE_NONCES" yaml:"generate_nonces"`
}

// Compression enables gzip responses. Level follows compress/gzip, zero
// meaning the default level.
type Compression struct {
	Enabled bool `env:"ENABLED" yaml:"enabled"`
	Level   int  `env:"LEVEL" yaml:"level"`
}

// Validation holds the validator defaults.
type Validation struct {
	Sections     []string `env:"SECTIONS" yaml:"sections"`
	AbortEarly   bool     `env:"ABORT_EARLY" yaml:"abort_early"`
	StripUnknown bool     `env:"STRIP_UNKNOWN" yaml:"strip_unknown"`
	NoDefaults   bool     `env:"NO_DEFAULTS" yaml:"no_defaults"`
	NoCoerce     bool     `env:"NO_COERCE" yaml:"no_coerce"`
}

// Metrics exposes the prometheus collectors at Path.
type Metrics struct {
	Enabled bool   `env:"ENABLED" yaml:"enabled"`
	Path    string `env:"PATH" yaml:"path"`
}

// Defaults returns the values used for every setting no source provides.
func Defaults() *StructuredConfig {
	return &StructuredConfig{
		App: App{
			Name: "go-http-frame",
		},
		Server: Server{
			BodyParser: BodyParser{
				Kinds:     []string{BodyJSON},
				JSONLimit: 1 << 20,
				FormLimit: 1 << 20,
			},
			Security: Security{
				FrameDeny:          true,
				ContentTypeNosniff: true,
				ReferrerPolicy:     "no-referrer",
			},
			Metrics: Metrics{
				Path: "/metrics",
			},
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// GetStructuredConfig loads, merges, and validates the configuration from
// all available sources. Earlier sources win for non-zero fields:
//  1. Environment variables
//  2. Command-line flags
//  3. JSON or YAML file (path resolved from sources 1 and 2)
//  4. [Defaults]
func GetStructuredConfig(args []string) (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags(args).
		withFile().
		withDefaults().
		build()
}
