package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/MKhiriev/go-http-frame/internal/config"
	httphandler "github.com/MKhiriev/go-http-frame/internal/handler/http"
	"github.com/MKhiriev/go-http-frame/internal/logger"
	"github.com/MKhiriev/go-http-frame/internal/server"
	"github.com/MKhiriev/go-http-frame/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	cfg, err := config.GetStructuredConfig(os.Args[1:])
	if err != nil {
		log := logger.NewLogger("go-http-frame")
		log.Fatal().Err(err).Msg("error getting configs")
	}

	log := logger.NewLogger(cfg.App.Name)
	log.SetDebug(cfg.App.Debug)
	log.Debug().Any("config", cfg).Msg("received configs")

	srv, err := server.New(*cfg, log, server.Options{})
	if err != nil {
		log.Fatal().Err(err).Msg("error creating server")
	}

	handler := httphandler.NewHandler(
		models.NewAppBuildInfo(buildVersion, buildDate, buildCommit),
		srv.Validator(),
		log.Named("handler"),
	)
	routes, err := handler.Init()
	if err != nil {
		log.Fatal().Err(err).Msg("error registering routes")
	}
	srv.Route(routes)

	srv.OnRegistered(srv.MarkReady)
	srv.OnDeregistered(func() { log.Info().Msg("server deregistered") })

	if err := srv.RunServer(context.Background()); err != nil {
		if errors.Is(err, server.ErrForcedExit) {
			log.Error().Err(err).Msg("forced exit")
			os.Exit(1)
		}
		log.Fatal().Err(err).Msg("error running server")
	}
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}

	if buildDate == "" {
		buildDate = "N/A"
	}

	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
