// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package response

import (
	"errors"

	"github.com/MKhiriev/go-http-frame/models"
)

// Failure is the closed set of values that [Responder.Fail] knows how to
// turn into an envelope.
type Failure interface {
	failure()
}

// Code is a registry code used as a failure, e.g. "server.validation".
type Code string

// Coded is a generic value that only carries a registry code.
type Coded struct {
	Code string
}

// Prebuilt is a complete envelope that is written unchanged.
type Prebuilt models.Envelope

// Err wraps an arbitrary error. It resolves through the registry masks, a
// Code() method on the error, or the generic error code.
type Err struct {
	Err error
}

// Coder is implemented by errors that know their own registry code.
type Coder interface {
	Code() string
}

// DomainFailure is an expected, client-caused failure. Its code, message and
// data reach the client verbatim and the response status is left alone.
type DomainFailure struct {
	Code    string
	Message string
	Data    any
}

// NewFailure returns a [*DomainFailure].
func NewFailure(code, message string, data any) *DomainFailure {
	return &DomainFailure{Code: code, Message: message, Data: data}
}

func (e *DomainFailure) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return e.Code + ": " + e.Message
}

// DomainError is an unexpected, server-caused failure. It forces status 500
// when the status is still the default and marks the envelope with error=true.
type DomainError struct {
	Code    string
	Message string
	Data    any
	Cause   error
}

// NewError returns a [*DomainError].
func NewError(code, message string, data any, cause error) *DomainError {
	return &DomainError{Code: code, Message: message, Data: data, Cause: cause}
}

func (e *DomainError) Error() string {
	msg := e.Code
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

func (Code) failure()           {}
func (Coded) failure()          {}
func (Prebuilt) failure()       {}
func (Err) failure()            {}
func (*DomainFailure) failure() {}
func (*DomainError) failure()   {}

// FromError picks the [Failure] variant for err: the first [*DomainFailure]
// or [*DomainError] in its chain, otherwise [Err].
func FromError(err error) Failure {
	var failure *DomainFailure
	if errors.As(err, &failure) {
		return failure
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}

	return Err{Err: err}
}

// errorOf returns the error carried by f, if any.
func errorOf(f Failure) error {
	switch v := f.(type) {
	case Err:
		return v.Err
	case *DomainFailure:
		return v
	case *DomainError:
		return v
	default:
		return nil
	}
}

type statusError struct {
	err    error
	status int
}

func (e *statusError) Error() string { return e.err.Error() }
func (e *statusError) Unwrap() error { return e.err }

// WithStatus attaches the HTTP status a handler wants for err when the error
// reaches [Responder.HandleError].
func WithStatus(err error, status int) error {
	if err == nil {
		return nil
	}
	return &statusError{err: err, status: status}
}

// StatusOf returns the status attached with [WithStatus], or 0.
func StatusOf(err error) int {
	var se *statusError
	if errors.As(err, &se) {
		return se.status
	}
	return 0
}
