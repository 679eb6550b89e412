package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/marine-risk-service/internal/adapter/forecastapi"
	"github.com/couchcryptid/marine-risk-service/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/marine-risk-service/internal/adapter/kafka"
	"github.com/couchcryptid/marine-risk-service/internal/adapter/landmask"
	"github.com/couchcryptid/marine-risk-service/internal/adapter/openmeteo"
	"github.com/couchcryptid/marine-risk-service/internal/adapter/ws"
	"github.com/couchcryptid/marine-risk-service/internal/config"
	"github.com/couchcryptid/marine-risk-service/internal/domain"
	"github.com/couchcryptid/marine-risk-service/internal/observability"
	"github.com/couchcryptid/marine-risk-service/internal/weather"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	var source domain.MarineSource = openmeteo.NewClient(cfg.MarineAPIURL, cfg.MarineTimeout, cfg.MarineRetries, metrics, logger)
	if cfg.MarineCacheSize > 0 {
		source = openmeteo.NewCachedSource(source, cfg.MarineCacheSize, cfg.MarineCacheTTL, clockwork.NewRealClock(), metrics)
		logger.Info("marine cache enabled", "size", cfg.MarineCacheSize, "ttl", cfg.MarineCacheTTL)
	}

	var opts []weather.Option
	if cfg.LandMaskEnabled {
		mask, err := landmask.New(cfg.LandMaskPath)
		if err != nil {
			logger.Error("failed to load land mask", "path", cfg.LandMaskPath, "error", err)
			os.Exit(1)
		}
		opts = append(opts, weather.WithLandMask(mask))
		if mask.Polygons() == 0 {
			logger.Warn("no land polygons configured, land clicks are left to the upstream")
		}
		logger.Info("land mask enabled", "polygons", mask.Polygons())
	} else {
		logger.Info("land mask disabled, land clicks are left to the upstream")
	}

	// Initialize publisher (feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS).
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		opts = append(opts, weather.WithPublisher(writer))
		logger.Info("forecast publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	svc := weather.New(source, logger, metrics, opts...)

	fetcher := forecastapi.NewClient(cfg.ForecastAPIURL, cfg.ForecastTimeout, logger)
	sessions := ws.NewHandler(fetcher, metrics, logger)

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, svc, sessions, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
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
