// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// Envelope is the fixed JSON shape of every response written by the
// response package.
//
// Success and Error are never both true. Fields is set only on validation
// failures and is omitted from the JSON body otherwise.
type Envelope struct {
	// Success reports whether the request was served successfully.
	Success bool `json:"success"`

	// Error is true only for unexpected, server-caused failures.
	Error bool `json:"error"`

	// Data carries the payload. It is omitted when nil.
	Data any `json:"data,omitempty"`

	// Code is the stable, machine-readable code from the code registry
	// (e.g. "server.validation").
	Code string `json:"code,omitempty"`

	// Message is the human-readable text registered for Code.
	Message string `json:"message,omitempty"`

	// Fields maps a request field name to the reason it was rejected.
	// A nil map is omitted; an empty one is sent as {} so clients can tell
	// a schema rejection with no attributable field from other failures.
	Fields map[string]FieldError `json:"fields,omitzero"`
}

// FieldError describes why a single request field was rejected.
type FieldError struct {
	// Message is the human-readable reason.
	Message string `json:"message"`

	// Type is the violation type reported by the validation engine
	// (e.g. "required", "minLength") or "custom_message" for errors
	// reported by handler code.
	Type string `json:"type"`
}
