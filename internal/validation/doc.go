// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package validation compiles request schemas once and validates the named
// data sections of every request ("body", "query", "params", ...) against
// them.
//
// A [Validator] turns a [Schema] into a chi-compatible middleware. Violations
// are mapped back to field names with the regular expression
// (section1|section2|...)\.(.*) and answered with the 400 server.validation
// envelope. Paths that do not have the section.field shape are dropped.
//
// The schema engine itself sits behind the [Engine] interface; the default
// implementation is backed by JSON Schema (see [NewJSONSchemaEngine]).
package validation
