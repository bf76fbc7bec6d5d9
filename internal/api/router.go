// Package api provides the HTTP API for WayPlan.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/wayplan/wayplan/internal/api/handler"
	"github.com/wayplan/wayplan/internal/api/middleware"
	"github.com/wayplan/wayplan/internal/planner"
	"github.com/wayplan/wayplan/internal/trip"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	PlannerService *planner.Service
	TripService    *trip.Service

	Ops handler.OpsConfig
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "wayplan-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	opsCfg := cfg.Ops
	opsCfg.Version = cfg.Version
	opsCfg.BuildTime = cfg.BuildTime

	opsHandler := handler.NewOpsHandler(opsCfg)
	planHandler := handler.NewPlanHandler(cfg.PlannerService, cfg.TripService, cfg.Logger)
	tripHandler := handler.NewTripHandler(cfg.TripService)

	// Rate limits per endpoint category: plan computation runs the solver and
	// may call the matrix provider, so it gets the strict limit.
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 20 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		// Plan computation - expensive, strict rate limiting
		r.With(expensiveRateLimit).Post("/plans:compute", planHandler.ComputePlan)

		// Saved trips
		r.Route("/trips", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/", tripHandler.ListTrips)
			r.Post("/", tripHandler.CreateTrip)
			r.Route("/{tripId}", func(r chi.Router) {
				r.Get("/", tripHandler.GetTrip)
				r.Put("/", tripHandler.UpdateTrip)
				r.Delete("/", tripHandler.DeleteTrip)
				r.With(expensiveRateLimit).Post("/plans:compute", planHandler.ComputeTripPlan)
			})
		})
	})

	return r
}
