// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package server

import (
	"errors"

	"github.com/MKhiriev/go-http-frame/internal/config"
)

var (
	// ErrNoBindTarget is returned when neither a port nor a socket file is
	// configured.
	ErrNoBindTarget = config.ErrNoBindTarget

	// ErrAlreadyListening is returned by a second call to [Server.Listen].
	ErrAlreadyListening = errors.New("server is already listening")

	// ErrTLSDisabled is returned by [Server.SetCerts] on a plain server.
	ErrTLSDisabled = errors.New("TLS is not enabled")

	// ErrInvalidCertificate wraps credentials that do not form a valid key
	// pair.
	ErrInvalidCertificate = errors.New("invalid TLS certificate")

	// ErrForcedExit is returned by [Server.RunServer] when the drain did not
	// finish within the configured limit.
	ErrForcedExit = errors.New("drain did not finish in time")

	errNoCertificate = errors.New("no TLS certificate loaded")
)
