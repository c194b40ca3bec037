package http

import (
	"github.com/MKhiriev/go-http-frame/internal/response"
	"github.com/MKhiriev/go-http-frame/internal/validation"
	"github.com/go-chi/chi/v5"
)

// echoSchema validates POST /api/echo/{name}.
var echoSchema = validation.Schema{
	"body": map[string]any{
		"type":     "object",
		"required": []any{"message"},
		"properties": map[string]any{
			"message": map[string]any{"type": "string", "minLength": 1, "maxLength": 256},
		},
	},
	"params": map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name": map[string]any{"type": "string", "pattern": "^[a-z0-9-]{1,32}$"},
		},
	},
	"query": map[string]any{
		"type": "object",
		"properties": map[string]any{
			"repeat": map[string]any{"type": "integer", "minimum": 1, "maximum": 5, "default": 1},
		},
	},
}

// Init returns the route registration of the built-in API.
func (h *Handler) Init() (func(r chi.Router), error) {
	validateEcho, err := h.validator.Validate(echoSchema)
	if err != nil {
		return nil, err
	}

	return func(router chi.Router) {
		router.Method("GET", "/api/version", response.HandlerFunc(h.getServerVersion))

		router.Group(func(r chi.Router) {
			r.Use(validateEcho)
			r.Method("POST", "/api/echo/{name}", response.HandlerFunc(h.echo))
		})
	}, nil
}
