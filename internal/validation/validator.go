// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package validation

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/MKhiriev/go-http-frame/internal/codes"
	"github.com/MKhiriev/go-http-frame/internal/logger"
	"github.com/MKhiriev/go-http-frame/internal/response"
	"github.com/MKhiriev/go-http-frame/internal/utils"
	"github.com/MKhiriev/go-http-frame/models"
	"github.com/go-chi/chi/v5"
)

// Section names understood without further setup.
const (
	SectionBody   = "body"
	SectionQuery  = "query"
	SectionParams = "params"
)

// DefaultSections is used when a [Validator] is built without sections.
var DefaultSections = []string{SectionBody, SectionQuery, SectionParams}

// SectionFunc extracts one data section from a request.
type SectionFunc func(r *http.Request) map[string]any

// Validator builds validation middlewares bound to compiled schemas.
//
// Sections and their sources are set up before the first call to
// [Validator.Validate] and are read-only afterwards.
type Validator struct {
	engine   Engine
	defaults Options
	sections []string
	sources  map[string]SectionFunc
	logger   *logger.Logger
}

// NewValidator returns a Validator reading sections (DefaultSections when
// empty) and merging per-route options over defaults.
func NewValidator(engine Engine, sections []string, defaults Options, logger *logger.Logger) *Validator {
	if len(sections) == 0 {
		sections = DefaultSections
	}

	return &Validator{
		engine:   engine,
		defaults: defaults,
		sections: slices.Clone(sections),
		sources: map[string]SectionFunc{
			SectionBody:   bodySection,
			SectionQuery:  querySection,
			SectionParams: paramsSection,
		},
		logger: logger,
	}
}

// WithSection registers (or replaces) the source of a named section and adds
// the name to the configured sections.
func (v *Validator) WithSection(name string, fn SectionFunc) *Validator {
	v.sources[name] = fn
	if !slices.Contains(v.sections, name) {
		v.sections = append(v.sections, name)
	}
	return v
}

// Sections returns the configured section names.
func (v *Validator) Sections() []string {
	return slices.Clone(v.sections)
}

// Validate compiles schema once and returns a middleware validating every
// request against it.
//
// A passing request continues with its sections replaced by their normalized
// values (see [utils.Section]). A failing request is answered with HTTP 400
// and the server.validation envelope.
func (v *Validator) Validate(schema Schema, opts ...Options) (func(http.Handler) http.Handler, error) {
	options, err := mergeOptions(v.defaults, opts...)
	if err != nil {
		return nil, err
	}

	compiled, err := v.engine.Compile(schema)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompileSchema, err)
	}

	keys := make([]string, 0, len(schema))
	for key := range schema {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fieldRegex := sectionRegex(v.sections)
	sections := slices.Clone(v.sections)
	v.logger.Debug().Strs("keys", keys).Str("field_regex", fieldRegex.String()).Msg("validation schema compiled")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data := make(map[string]any, len(keys)+len(sections))
			for _, key := range keys {
				data[key] = map[string]any{}
			}
			for _, name := range sections {
				if section := v.section(r, name); len(section) > 0 {
					data[name] = section
				}
			}

			result, err := compiled.Validate(data, options)
			if err != nil {
				rs := response.FromRequest(r)

				var validationErr *ValidationError
				if !errors.As(err, &validationErr) {
					logger.FromRequest(r).Err(err).Msg("validation engine failed")
					_ = rs.Fail(w, http.StatusBadRequest, response.Code(codes.Validation), nil)
					return
				}

				_ = rs.Fail(w, http.StatusBadRequest, response.Code(codes.Validation), fieldErrors(fieldRegex, validationErr))
				return
			}

			r, store := utils.WithRequestData(r)
			for key, value := range result {
				store.Set(key, value)
			}

			next.ServeHTTP(w, r)
		})
	}, nil
}

// MustValidate is like [Validator.Validate] but panics on a schema that
// cannot be compiled. It is meant for route tables built at startup.
func (v *Validator) MustValidate(schema Schema, opts ...Options) func(http.Handler) http.Handler {
	mw, err := v.Validate(schema, opts...)
	if err != nil {
		panic(err)
	}
	return mw
}

func (v *Validator) section(r *http.Request, name string) map[string]any {
	if fn, ok := v.sources[name]; ok {
		return fn(r)
	}
	return utils.Section(r, name)
}

func sectionRegex(sections []string) *regexp.Regexp {
	quoted := make([]string, 0, len(sections))
	for _, name := range sections {
		quoted = append(quoted, regexp.QuoteMeta(name))
	}
	return regexp.MustCompile(`(` + strings.Join(quoted, "|") + `)\.(.*)`)
}

// fieldErrors keeps the violations whose path looks like section.field and
// keys them by field. Later violations for the same field win.
func fieldErrors(re *regexp.Regexp, err *ValidationError) map[string]models.FieldError {
	fields := make(map[string]models.FieldError, len(err.Violations))
	for _, violation := range err.Violations {
		match := re.FindStringSubmatch(violation.Path)
		if len(match) < 3 || match[1] == "" || match[2] == "" {
			continue
		}
		fields[match[2]] = models.FieldError{
			Message: violation.Message,
			Type:    violation.Type,
		}
	}
	return fields
}

func bodySection(r *http.Request) map[string]any {
	return utils.Section(r, SectionBody)
}

// querySection returns single values as strings and repeated values as
// lists.
func querySection(r *http.Request) map[string]any {
	return utils.ValuesSection(r.URL.Query())
}

func paramsSection(r *http.Request) map[string]any {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return nil
	}

	section := make(map[string]any, len(rctx.URLParams.Keys))
	for i, key := range rctx.URLParams.Keys {
		if key == "*" || i >= len(rctx.URLParams.Values) {
			continue
		}
		section[key] = rctx.URLParams.Values[i]
	}
	return section
}
