// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package codes

// Codes registered by [NewRegistry].
const (
	Success         = "server.success"
	GenericError    = "server.generic_error"
	Validation      = "server.validation"
	NotFound        = "server.status_404"
	NotReady        = "server.not_ready"
	InvalidBody     = "server.invalid_body"
	PayloadTooLarge = "server.payload_too_large"
	Version         = "server.version"
)

var defaultMessages = map[string]string{
	Success:         "Success",
	GenericError:    "An unexpected server error occurred",
	Validation:      "Validation failed",
	NotFound:        "Not found",
	NotReady:        "Server is not ready yet",
	InvalidBody:     "Request body could not be parsed",
	PayloadTooLarge: "Request body is too large",
	Version:         "Build information",
}
