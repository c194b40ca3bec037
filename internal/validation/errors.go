package validation

import (
	"errors"
	"strings"
)

var (
	ErrCompileSchema   = errors.New("error compiling validation schema")
	ErrInvalidInstance = errors.New("request data cannot be validated")
	ErrMergeOptions    = errors.New("error merging validation options")
)

// Violation is one failed rule. Path is dotted, e.g. "body.address.city".
type Violation struct {
	Path    string
	Message string
	Type    string
}

// ValidationError is the structured failure returned by [CompiledSchema].
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return "validation failed"
	}

	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Path+": "+v.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
