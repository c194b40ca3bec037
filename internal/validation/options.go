package validation

import (
	"fmt"

	"dario.cat/mergo"
)

// Schema maps request data sections to their JSON Schema, e.g.
//
//	validation.Schema{
//		"body": map[string]any{
//			"type":     "object",
//			"required": []string{"name"},
//			"properties": map[string]any{
//				"name": map[string]any{"type": "string", "minLength": 1},
//			},
//		},
//	}
type Schema map[string]any

// Options tune a single validation run. The zero value reports every
// violation, coerces strings to the declared scalar types, applies schema
// defaults and keeps unknown keys.
type Options struct {
	// AbortEarly stops at the first violation.
	AbortEarly bool `json:"abort_early" yaml:"abort_early" env:"ABORT_EARLY"`

	// StripUnknown removes object keys the schema does not declare.
	StripUnknown bool `json:"strip_unknown" yaml:"strip_unknown" env:"STRIP_UNKNOWN"`

	// NoDefaults disables "default" keywords.
	NoDefaults bool `json:"no_defaults" yaml:"no_defaults" env:"NO_DEFAULTS"`

	// NoCoerce disables string to integer/number/boolean conversion.
	NoCoerce bool `json:"no_coerce" yaml:"no_coerce" env:"NO_COERCE"`
}

// mergeOptions fills the unset fields of opts from defaults. Options are
// plain flags, so a per-route value can switch a behavior on but not off.
func mergeOptions(defaults Options, opts ...Options) (Options, error) {
	var merged Options
	for _, o := range opts {
		if err := mergo.Merge(&merged, o, mergo.WithOverride); err != nil {
			return Options{}, fmt.Errorf("%w: %w", ErrMergeOptions, err)
		}
	}
	if err := mergo.Merge(&merged, defaults); err != nil {
		return Options{}, fmt.Errorf("%w: %w", ErrMergeOptions, err)
	}
	return merged, nil
}
