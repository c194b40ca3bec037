package validation

//go:generate mockgen -source=interfaces.go -destination=../mock/validation_engine_mock.go -package=mock

// Engine compiles raw schemas.
type Engine interface {
	// Compile prepares schema for repeated use. It is called once per rule
	// set, at middleware registration time.
	Compile(schema Schema) (CompiledSchema, error)
}

// CompiledSchema is a compiled rule set. It is shared read-only by every
// request using it.
type CompiledSchema interface {
	// Validate checks data and returns its normalized form (coerced values,
	// defaults applied). A failed check returns a [*ValidationError]; any
	// other error means the engine itself failed.
	Validate(data map[string]any, opts Options) (map[string]any, error)
}
