package http

import (
	"github.com/MKhiriev/go-http-frame/internal/logger"
	"github.com/MKhiriev/go-http-frame/internal/validation"
	"github.com/MKhiriev/go-http-frame/models"
)

// Handler serves the built-in API.
type Handler struct {
	buildInfo models.AppBuildInfo
	validator *validation.Validator

	logger *logger.Logger
}

func NewHandler(buildInfo models.AppBuildInfo, validator *validation.Validator, logger *logger.Logger) *Handler {
	logger.Info().Msg("http handler created")
	return &Handler{
		buildInfo: buildInfo,
		validator: validator,
		logger:    logger,
	}
}
