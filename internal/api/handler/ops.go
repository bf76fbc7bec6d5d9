// Package handler provides HTTP handlers for the WayPlan API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wayplan/wayplan/internal/api/models"
	"github.com/wayplan/wayplan/internal/api/response"
)

// OpsConfig holds dependencies for the operational endpoints.
type OpsConfig struct {
	Version   string
	BuildTime string

	// DB is the connection pool to include in readiness checks. Optional;
	// the service can run with the in-memory trip store.
	DB *pgxpool.Pool

	// MatrixProvider is the name of the configured matrix provider.
	MatrixProvider string

	// MatrixBreakerState reports the circuit breaker state of the matrix
	// provider client. Optional.
	MatrixBreakerState func() string
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	cfg OpsConfig
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	return &OpsHandler{cfg: cfg}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.cfg.Version,
			"buildTime": h.cfg.BuildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	}

	if h.cfg.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.cfg.DB.Ping(ctx); err != nil {
			health.Status = models.HealthStatusFail
			health.Details = map[string]interface{}{"database": err.Error()}
			response.JSON(w, r, http.StatusServiceUnavailable, health)
			return
		}
	}

	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - provider and subsystem status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	now := models.Timestamp(time.Now())
	status := models.SystemStatus{
		Status: models.HealthStatusOK,
		Time:   now,
	}

	if h.cfg.DB != nil {
		sub := models.SubsystemStatus{Name: "postgres", Status: models.HealthStatusOK}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		if err := h.cfg.DB.Ping(ctx); err != nil {
			detail := err.Error()
			sub.Status = models.HealthStatusFail
			sub.Detail = &detail
		}
		cancel()
		status.Subsystems = append(status.Subsystems, sub)
	} else {
		detail := "running with in-memory storage"
		status.Subsystems = append(status.Subsystems, models.SubsystemStatus{
			Name:   "postgres",
			Status: models.HealthStatusDegraded,
			Detail: &detail,
		})
	}

	provider := models.ProviderStatus{
		Provider: h.cfg.MatrixProvider,
		Status:   models.HealthStatusOK,
	}
	if h.cfg.MatrixBreakerState != nil {
		provider.CircuitState = h.cfg.MatrixBreakerState()
		if provider.CircuitState == "open" {
			provider.Status = models.HealthStatusDegraded
			msg := "circuit breaker open; travel costs fall back to great-circle estimates"
			provider.Message = &msg
		}
	}
	status.Providers = append(status.Providers, provider)

	for _, sub := range status.Subsystems {
		if sub.Status != models.HealthStatusOK {
			status.Status = worstOf(status.Status, sub.Status)
		}
	}
	for _, p := range status.Providers {
		if p.Status != models.HealthStatusOK {
			status.Status = worstOf(status.Status, p.Status)
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

// worstOf returns the more severe of two health states.
func worstOf(a, b models.HealthStatus) models.HealthStatus {
	if a == models.HealthStatusFail || b == models.HealthStatusFail {
		return models.HealthStatusFail
	}
	if a == models.HealthStatusDegraded || b == models.HealthStatusDegraded {
		return models.HealthStatusDegraded
	}
	return models.HealthStatusOK
}
