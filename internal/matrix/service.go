package matrix

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// MetricsRecorder records provider call and cache outcomes.
// *middleware.ProviderMetrics satisfies it.
type MetricsRecorder interface {
	RecordRequest(provider, operation string, duration time.Duration, err error)
	RecordCacheHit(provider, operation string)
	RecordCacheMiss(provider, operation string)
}

// ServiceConfig holds configuration for the matrix service.
type ServiceConfig struct {
	// Provider is the external matrix provider. Optional; when nil every
	// matrix is built by the fallback estimator.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// Metrics records request durations and cache outcomes. Optional.
	Metrics MetricsRecorder

	// CacheTTL is how long to cache fetched matrices (default: 5 minutes).
	CacheTTL time.Duration

	// CacheGridSize is the size of cache grid cells in degrees (default: 0.001 ~ 110m).
	// Location sets quantized to the same grid cells share cached data.
	CacheGridSize float64

	// StaleIfErrorTTL allows serving stale data on provider errors (default: 15 minutes).
	StaleIfErrorTTL time.Duration
}

// Service fetches cost matrices with caching and transparent fallback.
// Callers always receive a complete matrix; provider failures degrade accuracy,
// never availability.
type Service struct {
	provider        Provider
	fallback        *FallbackEstimator
	logger          zerolog.Logger
	metrics         MetricsRecorder
	cacheTTL        time.Duration
	cacheGridSize   float64
	staleIfErrorTTL time.Duration

	mu    sync.RWMutex
	cache map[string]*cachedMatrix
}

type cachedMatrix struct {
	matrix    *Matrix
	fetchedAt time.Time
	expiresAt time.Time
}

// NewService creates a new matrix service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 5 * time.Minute
	}

	cacheGridSize := cfg.CacheGridSize
	if cacheGridSize == 0 {
		cacheGridSize = 0.001 // ~110m at equator
	}

	staleIfErrorTTL := cfg.StaleIfErrorTTL
	if staleIfErrorTTL == 0 {
		staleIfErrorTTL = 15 * time.Minute
	}

	return &Service{
		provider:        cfg.Provider,
		fallback:        NewFallbackEstimator(),
		logger:          cfg.Logger,
		metrics:         cfg.Metrics,
		cacheTTL:        cacheTTL,
		cacheGridSize:   cacheGridSize,
		staleIfErrorTTL: staleIfErrorTTL,
		cache:           make(map[string]*cachedMatrix),
	}
}

// Matrix returns a complete cost matrix for the given locations.
// Provider errors and unresolved cells are backfilled by the fallback
// estimator; the only errors returned are for invalid input.
func (s *Service) Matrix(ctx context.Context, req Request) (*Matrix, error) {
	if len(req.Locations) < 2 {
		return nil, ErrTooFewLocations
	}
	for _, loc := range req.Locations {
		if err := ValidateCoordinate(loc); err != nil {
			return nil, err
		}
	}
	if req.Mode == "" {
		req.Mode = ModeDriving
	}

	cacheKey := s.cacheKey(req)

	s.mu.RLock()
	if cached, ok := s.cache[cacheKey]; ok && time.Now().Before(cached.expiresAt) {
		s.mu.RUnlock()
		s.logger.Debug().
			Str("cache_key", cacheKey).
			Msg("cache hit for cost matrix")
		if s.metrics != nil {
			s.metrics.RecordCacheHit(s.ProviderName(), "matrix")
		}
		return cached.matrix, nil
	}
	s.mu.RUnlock()

	return s.fetchMatrix(ctx, req, cacheKey)
}

// fetchMatrix fetches a matrix from the provider and updates the cache.
func (s *Service) fetchMatrix(ctx context.Context, req Request, cacheKey string) (*Matrix, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check cache (prevents thundering herd)
	if cached, ok := s.cache[cacheKey]; ok && time.Now().Before(cached.expiresAt) {
		if s.metrics != nil {
			s.metrics.RecordCacheHit(s.ProviderName(), "matrix")
		}
		return cached.matrix, nil
	}
	if s.metrics != nil {
		s.metrics.RecordCacheMiss(s.ProviderName(), "matrix")
	}

	m := s.resolveMatrix(ctx, req, cacheKey)

	now := time.Now()
	s.cache[cacheKey] = &cachedMatrix{
		matrix:    m,
		fetchedAt: now,
		expiresAt: now.Add(s.cacheTTL),
	}
	return m, nil
}

// resolveMatrix obtains a complete matrix: provider first, fallback for
// whatever the provider could not deliver.
func (s *Service) resolveMatrix(ctx context.Context, req Request, cacheKey string) *Matrix {
	if s.provider == nil {
		m, _ := s.fallback.Matrix(ctx, req)
		return m
	}

	s.logger.Debug().
		Int("locations", len(req.Locations)).
		Str("mode", string(req.Mode)).
		Str("provider", s.provider.Name()).
		Msg("fetching cost matrix from provider")

	start := time.Now()
	m, err := s.provider.Matrix(ctx, req)
	if s.metrics != nil {
		s.metrics.RecordRequest(s.provider.Name(), "matrix", time.Since(start), err)
	}
	if err != nil {
		s.logger.Warn().Err(err).
			Str("provider", s.provider.Name()).
			Msg("matrix provider failed; using great-circle estimates")

		// Stale data beats a pure estimate (stale-if-error pattern).
		if cached, ok := s.cache[cacheKey]; ok {
			if time.Now().Before(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
				s.logger.Warn().
					Time("fetched_at", cached.fetchedAt).
					Str("cache_key", cacheKey).
					Msg("serving stale cost matrix due to provider error")
				return cached.matrix
			}
		}

		fb, _ := s.fallback.Matrix(ctx, req)
		return fb
	}

	if filled := s.fallback.Backfill(m, req.Locations); filled > 0 {
		s.logger.Warn().
			Int("cells", filled).
			Str("provider", s.provider.Name()).
			Msg("backfilled unresolved matrix cells with great-circle estimates")
	}
	return m
}

// cacheKey generates a cache key for a matrix request.
// Locations are quantized to a grid so that tiny coordinate jitter between
// requests still hits the cache.
func (s *Service) cacheKey(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:%t:%t", req.Mode, req.AvoidTolls, req.AvoidHighways)
	for _, loc := range req.Locations {
		gridLat := math.Floor(loc.Lat/s.cacheGridSize) * s.cacheGridSize
		gridLon := math.Floor(loc.Lon/s.cacheGridSize) * s.cacheGridSize
		fmt.Fprintf(&b, ":%.3f,%.3f", gridLat, gridLon)
	}
	return b.String()
}

// InvalidateCache clears all cached matrices.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]*cachedMatrix)
}

// ProviderName returns the name of the configured provider, or the fallback
// estimator's name when no provider is configured.
func (s *Service) ProviderName() string {
	if s.provider == nil {
		return s.fallback.Name()
	}
	return s.provider.Name()
}
