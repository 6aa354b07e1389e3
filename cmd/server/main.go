package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	httpadapter "github.com/wanderplan/places-discovery/internal/adapter/http"
	kafkaadapter "github.com/wanderplan/places-discovery/internal/adapter/kafka"
	"github.com/wanderplan/places-discovery/internal/adapter/nominatim"
	"github.com/wanderplan/places-discovery/internal/adapter/overpass"
	"github.com/wanderplan/places-discovery/internal/config"
	"github.com/wanderplan/places-discovery/internal/discovery"
	"github.com/wanderplan/places-discovery/internal/observability"
	"github.com/wanderplan/places-discovery/internal/schedule"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	// One scheduler serializes every outbound provider call.
	scheduler := schedule.New(cfg.RequestInterval, clock, metrics, logger)

	geocodeClient := nominatim.NewClient(cfg.NominatimURL, cfg.UserAgent, cfg.NominatimTimeout, metrics, logger)
	resolver := nominatim.NewResolver(geocodeClient, scheduler, cfg.GeocodeCacheSize, metrics, logger)

	placesClient := overpass.NewClient(cfg.OverpassURL, cfg.UserAgent, cfg.OverpassTimeout, metrics, logger)
	pacedPlaces := overpass.NewPacedSearcher(placesClient, scheduler)

	// Telemetry is feature-flagged via KAFKA_BROKERS / EVENTS_ENABLED.
	var events discovery.EventPublisher
	var writer *kafkaadapter.Writer
	if cfg.EventsEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		events = writer
		logger.Info("event publishing enabled", "topic", cfg.KafkaEventsTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("event publishing disabled")
	}

	svc := discovery.New(resolver, pacedPlaces, cfg.CategoryInterval, events, clock, metrics, logger)

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
