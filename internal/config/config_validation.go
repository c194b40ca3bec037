// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/gzip"
)

// validate checks that the final merged [StructuredConfig] satisfies all
// invariants before it is used at startup. Every failing rule is reported.
func (cfg *StructuredConfig) validate() error {
	var errs []error

	s := cfg.Server
	if s.Port == 0 && s.File == "" {
		errs = append(errs, ErrNoBindTarget)
	}
	if s.Port < 0 || s.Port > 65535 {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidPort, s.Port))
	}

	if s.TLS.Enabled && (s.TLS.CertFile == "" || s.TLS.KeyFile == "") {
		errs = append(errs, fmt.Errorf("%w: both cert_file and key_file are required", ErrInvalidTLSConfigs))
	}

	for _, kind := range s.BodyParser.Kinds {
		if kind != BodyJSON && kind != BodyURLEncoded {
			errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidBodyParser, kind))
		}
	}

	if s.Compression.Level < gzip.HuffmanOnly || s.Compression.Level > gzip.BestCompression {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidCompressionLevel, s.Compression.Level))
	}

	return errors.Join(errs...)
}
