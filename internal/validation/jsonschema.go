// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const schemaURL = "schema.json"

// Violation types produced by the JSON Schema engine in addition to the
// keyword names ("type", "minLength", "pattern", ...).
const (
	TypeRequired   = "required"
	TypeNotAllowed = "additionalProperties"
	TypeInvalid    = "invalid"
)

// JSONSchemaEngine is the default [Engine]. A [Schema] is compiled as the
// "properties" of an object schema, so every section is validated by its own
// JSON Schema.
type JSONSchemaEngine struct {
	lang language.Tag
}

// NewJSONSchemaEngine returns an engine with English messages.
func NewJSONSchemaEngine() *JSONSchemaEngine {
	return &JSONSchemaEngine{lang: language.English}
}

// Compile implements [Engine].
func (e *JSONSchemaEngine) Compile(schema Schema) (CompiledSchema, error) {
	doc, err := toJSONValue(map[string]any{
		"type":       "object",
		"properties": map[string]any(schema),
	})
	if err != nil {
		return nil, err
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, err
	}
	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return nil, err
	}

	return &jsonSchema{
		doc:    doc,
		schema: compiled,
		lang:   e.lang,
	}, nil
}

type jsonSchema struct {
	doc    any
	schema *jsonschema.Schema
	lang   language.Tag
}

// Validate implements [CompiledSchema].
func (s *jsonSchema) Validate(data map[string]any, opts Options) (map[string]any, error) {
	inst, err := toJSONValue(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInstance, err)
	}
	inst = normalize(s.doc, inst, opts)

	if err := s.schema.Validate(inst); err != nil {
		var schemaErr *jsonschema.ValidationError
		if !errors.As(err, &schemaErr) {
			return nil, err
		}

		violations := collectViolations(schemaErr, message.NewPrinter(s.lang), nil)
		if opts.AbortEarly && len(violations) > 1 {
			violations = violations[:1]
		}
		return nil, &ValidationError{Violations: violations}
	}

	out, ok := inst.(map[string]any)
	if !ok {
		return nil, ErrInvalidInstance
	}
	return out, nil
}

// collectViolations flattens the error tree into its leaves. "required" and
// "additionalProperties" leaves are expanded to one violation per property so
// that they carry a field path.
func collectViolations(err *jsonschema.ValidationError, p *message.Printer, out []Violation) []Violation {
	if len(err.Causes) > 0 {
		for _, cause := range err.Causes {
			out = collectViolations(cause, p, out)
		}
		return out
	}

	switch k := err.ErrorKind.(type) {
	case *kind.Required:
		for _, name := range k.Missing {
			out = append(out, Violation{
				Path:    joinPath(err.InstanceLocation, name),
				Message: fmt.Sprintf("%q is required", name),
				Type:    TypeRequired,
			})
		}
		return out
	case *kind.AdditionalProperties:
		for _, name := range k.Properties {
			out = append(out, Violation{
				Path:    joinPath(err.InstanceLocation, name),
				Message: fmt.Sprintf("%q is not allowed", name),
				Type:    TypeNotAllowed,
			})
		}
		return out
	}

	return append(out, Violation{
		Path:    joinPath(err.InstanceLocation),
		Message: err.ErrorKind.LocalizedString(p),
		Type:    keyword(err.ErrorKind),
	})
}

func keyword(k jsonschema.ErrorKind) string {
	path := k.KeywordPath()
	if len(path) == 0 {
		return TypeInvalid
	}
	return path[len(path)-1]
}

func joinPath(location []string, extra ...string) string {
	return strings.Join(append(slices.Clone(location), extra...), ".")
}

// toJSONValue converts v to the generic form the engine works on: maps,
// slices, strings, bools, nil and json.Number.
func toJSONValue(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(raw))
}
