// Package main provides the entrypoint for the WayPlan API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/wayplan/wayplan/internal/api"
	"github.com/wayplan/wayplan/internal/api/handler"
	"github.com/wayplan/wayplan/internal/api/middleware"
	"github.com/wayplan/wayplan/internal/database"
	"github.com/wayplan/wayplan/internal/matrix"
	"github.com/wayplan/wayplan/internal/matrix/openrouteservice"
	"github.com/wayplan/wayplan/internal/planner"
	"github.com/wayplan/wayplan/internal/provider/resilience"
	"github.com/wayplan/wayplan/internal/telemetry"
	"github.com/wayplan/wayplan/internal/trip"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "wayplan-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting WayPlan API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Connect to database. The planner works without one; trips then live in
	// memory and do not survive a restart.
	var (
		tripRepo trip.Repository
		opsCfg   handler.OpsConfig
	)
	if os.Getenv("DB_DISABLED") == "true" {
		log.Warn().Msg("database disabled; trips are stored in memory")
		tripRepo = trip.NewInMemoryRepository()
	} else {
		dbConfig := database.ConfigFromEnv()
		pool, err := database.Connect(ctx, dbConfig)
		if err != nil {
			log.Warn().Err(err).Msg("database unavailable; trips are stored in memory")
			tripRepo = trip.NewInMemoryRepository()
		} else {
			defer pool.Close()
			log.Info().
				Str("host", dbConfig.Host).
				Int("port", dbConfig.Port).
				Str("database", dbConfig.Database).
				Msg("database connected")
			tripRepo = trip.NewPostgresRepository(pool)
			opsCfg.DB = pool
		}
	}

	// Initialize the matrix provider. Without an API key every travel cost
	// is a great-circle estimate.
	var provider matrix.Provider
	if apiKey := os.Getenv("ORS_API_KEY"); apiKey != "" {
		resilientClient := resilience.NewClient(resilience.DefaultClientConfig(openrouteservice.ProviderName))
		provider = openrouteservice.NewClient(openrouteservice.ClientConfig{
			APIKey:     apiKey,
			BaseURL:    os.Getenv("ORS_BASE_URL"),
			HTTPClient: resilientClient,
			Logger:     log,
		})
		opsCfg.MatrixBreakerState = func() string {
			return resilientClient.CircuitBreakerState().String()
		}
		log.Info().Str("provider", openrouteservice.ProviderName).Msg("matrix provider initialized")
	} else {
		log.Warn().Msg("ORS_API_KEY not set; travel costs use great-circle estimates")
	}

	providerMetrics, err := middleware.NewProviderMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize provider metrics")
		os.Exit(1)
	}

	matrixService := matrix.NewService(matrix.ServiceConfig{
		Provider: provider,
		Logger:   log,
		Metrics:  providerMetrics,
	})
	opsCfg.MatrixProvider = matrixService.ProviderName()

	plannerService := planner.NewService(planner.ServiceConfig{
		Matrices: matrixService,
		Logger:   log,
	})
	log.Info().Msg("planner service initialized")

	tripService := trip.NewService(tripRepo)
	log.Info().Msg("trip service initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:        Version,
		BuildTime:      BuildTime,
		Logger:         log,
		ServiceName:    serviceName,
		Metrics:        metrics,
		PlannerService: plannerService,
		TripService:    tripService,
		Ops:            opsCfg,
	})

	// Create HTTP server. The write timeout leaves room for a solve that
	// runs up to its full optimization budget.
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
