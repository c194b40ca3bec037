package config

import "errors"

// Validation errors returned by [StructuredConfig.validate].
var (
	// ErrNoBindTarget indicates that neither a port nor a socket file is
	// configured. The server cannot start without one.
	ErrNoBindTarget = errors.New("no bind target: set a port or a socket file")
	// ErrInvalidPort indicates a port outside 1..65535.
	ErrInvalidPort = errors.New("invalid port")
	// ErrInvalidTLSConfigs indicates TLS enabled without both a certificate
	// and a key file.
	ErrInvalidTLSConfigs = errors.New("invalid TLS configuration")
	// ErrInvalidBodyParser indicates an unknown body parser kind.
	ErrInvalidBodyParser = errors.New("invalid body parser kind")
	// ErrInvalidCompressionLevel indicates a gzip level outside -2..9.
	ErrInvalidCompressionLevel = errors.New("invalid compression level")
)
