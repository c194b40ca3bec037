// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package codes

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/MKhiriev/go-http-frame/models"
	"gopkg.in/yaml.v3"
)

// mask maps every error accepted by match onto code.
type mask struct {
	match func(error) bool
	code  string
}

// Registry resolves response codes to envelopes and library errors to codes.
// It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	messages map[string]string
	masks    []mask
}

// NewRegistry returns a registry pre-populated with the server.* codes and
// the default error masks:
//   - [*http.MaxBytesError] → [PayloadTooLarge]
//   - [*json.SyntaxError], [*json.UnmarshalTypeError], [io.ErrUnexpectedEOF] → [InvalidBody]
func NewRegistry() *Registry {
	r := &Registry{
		messages: make(map[string]string, len(defaultMessages)),
	}
	for code, message := range defaultMessages {
		r.messages[code] = message
	}

	MaskType[*http.MaxBytesError](r, PayloadTooLarge)
	MaskType[*json.SyntaxError](r, InvalidBody)
	MaskType[*json.UnmarshalTypeError](r, InvalidBody)
	r.Mask(io.ErrUnexpectedEOF, InvalidBody)

	return r
}

// Register adds or replaces the message for code.
func (r *Registry) Register(code, message string) error {
	if code == "" {
		return ErrEmptyCode
	}

	r.mu.Lock()
	r.messages[code] = message
	r.mu.Unlock()
	return nil
}

// RegisterAll registers every code → message pair of messages.
func (r *Registry) RegisterAll(messages map[string]string) error {
	for code, message := range messages {
		if err := r.Register(code, message); err != nil {
			return err
		}
	}
	return nil
}

// Lookup returns the envelope registered for code. The returned envelope has
// only Code and Message set.
func (r *Registry) Lookup(code string) (models.Envelope, bool) {
	r.mu.RLock()
	message, ok := r.messages[code]
	r.mu.RUnlock()

	if !ok {
		return models.Envelope{}, false
	}
	return models.Envelope{Code: code, Message: message}, true
}

// Envelope is like [Registry.Lookup] but never fails: an unknown code yields
// an envelope carrying just the code.
func (r *Registry) Envelope(code string) models.Envelope {
	if env, ok := r.Lookup(code); ok {
		return env
	}
	return models.Envelope{Code: code}
}

// Mask maps every error matching target (via [errors.Is]) onto code.
func (r *Registry) Mask(target error, code string) {
	r.MaskFunc(func(err error) bool {
		return errors.Is(err, target)
	}, code)
}

// MaskFunc maps every error accepted by match onto code.
func (r *Registry) MaskFunc(match func(error) bool, code string) {
	r.mu.Lock()
	r.masks = append(r.masks, mask{match: match, code: code})
	r.mu.Unlock()
}

// MaskType maps every error that has a T in its chain (via [errors.As]) onto
// code.
func MaskType[T error](r *Registry, code string) {
	r.MaskFunc(func(err error) bool {
		var target T
		return errors.As(err, &target)
	}, code)
}

// MaskError returns the envelope of the first mask accepting err.
func (r *Registry) MaskError(err error) (models.Envelope, bool) {
	if err == nil {
		return models.Envelope{}, false
	}

	r.mu.RLock()
	masks := r.masks
	r.mu.RUnlock()

	for _, m := range masks {
		if m.match(err) {
			return r.Envelope(m.code), true
		}
	}
	return models.Envelope{}, false
}

// LoadFile registers the code → message pairs found in a YAML or JSON file.
//
// The file is a flat mapping:
//
//	server.validation: "Validation failed"
//	user.not_found: "User not found"
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrReadingCodesFile, path, err)
	}

	// YAML is a superset of JSON, so one decoder serves both formats.
	var messages map[string]string
	if err := yaml.Unmarshal(data, &messages); err != nil {
		return fmt.Errorf("%w %s: %w", ErrReadingCodesFile, path, err)
	}

	return r.RegisterAll(messages)
}
