package validation

import (
	"encoding/json"
	"regexp"
	"slices"
	"strings"
)

var numberRegex = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

// normalize walks value alongside its schema node, coercing scalars, filling
// in defaults and stripping unknown keys according to opts. Maps and slices
// are modified in place.
func normalize(schema, value any, opts Options) any {
	node, ok := schema.(map[string]any)
	if !ok {
		return value
	}

	if !opts.NoCoerce {
		value = coerce(node["type"], value)
	}

	switch v := value.(type) {
	case map[string]any:
		props, _ := node["properties"].(map[string]any)
		for name, propSchema := range props {
			current, present := v[name]
			if !present {
				if opts.NoDefaults {
					continue
				}
				def, ok := defaultOf(propSchema)
				if !ok {
					continue
				}
				current = def
			}
			v[name] = normalize(propSchema, current, opts)
		}

		if opts.StripUnknown && props != nil && !allowsAdditional(node) {
			for name := range v {
				if _, known := props[name]; !known {
					delete(v, name)
				}
			}
		}
	case []any:
		if items, ok := node["items"].(map[string]any); ok {
			for i := range v {
				v[i] = normalize(items, v[i], opts)
			}
		}
	}

	return value
}

func defaultOf(schema any) (any, bool) {
	node, ok := schema.(map[string]any)
	if !ok {
		return nil, false
	}
	def, ok := node["default"]
	if !ok {
		return nil, false
	}
	return deepCopy(def), true
}

func allowsAdditional(node map[string]any) bool {
	switch additional := node["additionalProperties"].(type) {
	case bool:
		return additional
	case map[string]any:
		return true
	}
	return false
}

// coerce converts a string to the first declared scalar type it parses as.
// Strings are left alone when "string" is one of the declared types.
func coerce(declared, value any) any {
	s, ok := value.(string)
	if !ok {
		return value
	}

	types := declaredTypes(declared)
	if slices.Contains(types, "string") {
		return value
	}

	trimmed := strings.TrimSpace(s)
	for _, t := range types {
		switch t {
		case "integer", "number":
			if numberRegex.MatchString(trimmed) {
				return json.Number(trimmed)
			}
		case "boolean":
			switch strings.ToLower(trimmed) {
			case "true":
				return true
			case "false":
				return false
			}
		}
	}
	return value
}

func declaredTypes(declared any) []string {
	switch t := declared.(type) {
	case string:
		return []string{t}
	case []any:
		types := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				types = append(types, s)
			}
		}
		return types
	}
	return nil
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for key, value := range t {
			out[key] = deepCopy(value)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, value := range t {
			out[i] = deepCopy(value)
		}
		return out
	}
	return v
}
