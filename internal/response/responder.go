// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package response

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"

	"github.com/MKhiriev/go-http-frame/internal/codes"
	"github.com/MKhiriev/go-http-frame/internal/logger"
	"github.com/MKhiriev/go-http-frame/internal/utils"
	"github.com/MKhiriev/go-http-frame/models"
)

// CustomMessageType is the field error type used by [Responder.Invalid].
const CustomMessageType = "custom_message"

// Responder writes envelopes resolved against a code registry.
type Responder struct {
	codes  *codes.Registry
	logger *logger.Logger
}

// NewResponder returns a Responder backed by registry.
func NewResponder(registry *codes.Registry, logger *logger.Logger) *Responder {
	return &Responder{
		codes:  registry,
		logger: logger,
	}
}

// Codes returns the registry the responder resolves codes against.
func (rs *Responder) Codes() *codes.Registry {
	return rs.codes
}

// Success writes HTTP 200 with the envelope registered for code, marked as
// successful. data is included only when non-nil.
func (rs *Responder) Success(w http.ResponseWriter, code string, data any) error {
	env := rs.codes.Envelope(code)
	env.Success = true
	env.Error = false
	if data != nil {
		env.Data = data
	}

	return rs.write(w, env, http.StatusOK)
}

// Fail classifies f, writes the failure envelope and returns any write error.
//
// status is the HTTP status chosen by the caller; 0 means "default" and is
// written as 200. The classifier may replace a default status with 500 (see
// [Responder.Classify]). fields is attached only when non-nil.
func (rs *Responder) Fail(w http.ResponseWriter, status int, f Failure, fields map[string]models.FieldError) error {
	env, status, prebuilt := rs.Classify(status, f)
	if !prebuilt && fields != nil {
		env.Fields = fields
	}

	return rs.write(w, env, status)
}

// Classify resolves f into a failure envelope and the status to write.
// prebuilt is true when f was a [Prebuilt] envelope that must be written as
// is.
//
// Resolution order:
//  1. an error carried by f that matches a registry mask → that code;
//     otherwise an [Err] wrapping a domain failure or error is unwrapped
//     with [FromError] and resolved as that;
//  2. [Code] → registry lookup;
//  3. [*DomainFailure] → its code, message and data, status untouched;
//  4. [*DomainError] → its code, message and data, error=true and status 500
//     when still default;
//  5. [Prebuilt] → unchanged;
//  6. [Coded] or an error implementing [Coder] → registry lookup;
//  7. anything else → [codes.GenericError].
func (rs *Responder) Classify(status int, f Failure) (env models.Envelope, outStatus int, prebuilt bool) {
	if status == 0 {
		status = http.StatusOK
	}

	if masked, ok := rs.codes.MaskError(errorOf(f)); ok {
		env = masked
	} else {
		if e, ok := f.(Err); ok {
			f = FromError(e.Err)
		}
		switch v := f.(type) {
		case Code:
			env = rs.codes.Envelope(string(v))
		case *DomainFailure:
			env = models.Envelope{Code: v.Code, Message: v.Message, Data: v.Data}
		case *DomainError:
			if status == http.StatusOK {
				status = http.StatusInternalServerError
			}
			env = models.Envelope{Code: v.Code, Message: v.Message, Data: v.Data, Error: true}
		case Prebuilt:
			return models.Envelope(v), status, true
		case Coded:
			env = rs.codes.Envelope(v.Code)
		case Err:
			var coder Coder
			if errors.As(v.Err, &coder) && coder.Code() != "" {
				env = rs.codes.Envelope(coder.Code())
			} else {
				env = rs.codes.Envelope(codes.GenericError)
			}
		default:
			env = rs.codes.Envelope(codes.GenericError)
		}
	}

	env.Success = false
	return env, status, false
}

// Invalid writes HTTP 400 with the validation envelope built from fields,
// bypassing the validation engine. Each value may be a string, a
// [models.FieldError], a FieldMessage() string implementation, an error, a
// map carrying a "message" key, a [fmt.Stringer], or a struct with an
// exported string Message field.
func (rs *Responder) Invalid(w http.ResponseWriter, fields map[string]any) error {
	errs := make(map[string]models.FieldError, len(fields))
	for field, message := range fields {
		errs[field] = models.FieldError{
			Message: fieldMessage(message),
			Type:    CustomMessageType,
		}
	}

	return rs.Fail(w, http.StatusBadRequest, Code(codes.Validation), errs)
}

func fieldMessage(v any) string {
	switch m := v.(type) {
	case string:
		return m
	case models.FieldError:
		return m.Message
	case interface{ FieldMessage() string }:
		return m.FieldMessage()
	case error:
		return m.Error()
	case map[string]any:
		if s, ok := m["message"].(string); ok {
			return s
		}
	case map[string]string:
		return m["message"]
	case fmt.Stringer:
		return m.String()
	}
	if s, ok := messageField(v); ok {
		return s
	}
	return fmt.Sprint(v)
}

// messageField reads an exported string Message field of a struct or a
// pointer to one.
func messageField(v any) (string, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return "", false
	}
	field, ok := rv.Type().FieldByName("Message")
	if !ok || !field.IsExported() || field.Type.Kind() != reflect.String {
		return "", false
	}
	return rv.FieldByIndex(field.Index).String(), true
}

func (rs *Responder) write(w http.ResponseWriter, env models.Envelope, status int) error {
	if _, err := utils.WriteJSON(w, env, status); err != nil {
		rs.logger.Err(err).Str("code", env.Code).Msg("error writing response envelope")
		return err
	}
	return nil
}
