// Package openrouteservice provides a client for the OpenRouteService matrix API.
package openrouteservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/wayplan/wayplan/internal/matrix"
	"github.com/wayplan/wayplan/internal/provider/resilience"
)

const (
	// ProviderName identifies this matrix provider.
	ProviderName = "openrouteservice"

	// DefaultBaseURL is the OpenRouteService API base URL.
	DefaultBaseURL = "https://api.openrouteservice.org"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the OpenRouteService client.
type ClientConfig struct {
	// APIKey is the ORS API key (required).
	APIKey string

	// BaseURL is the API base URL (optional, defaults to ORS API).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient HTTPDoer

	// Timeout is the request timeout (optional, defaults to 10s).
	Timeout time.Duration

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an OpenRouteService matrix API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a new OpenRouteService client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Timeout = timeout
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Matrix retrieves the pairwise cost matrix for the given locations.
// Pairs the routing engine could not resolve come back as invalid cells;
// the caller is expected to backfill them.
func (c *Client) Matrix(ctx context.Context, req matrix.Request) (*matrix.Matrix, error) {
	if len(req.Locations) < 2 {
		return nil, matrix.ErrTooFewLocations
	}
	for _, loc := range req.Locations {
		if err := matrix.ValidateCoordinate(loc); err != nil {
			return nil, &matrix.Error{
				Provider: ProviderName,
				Code:     "INVALID_LOCATION",
				Message:  "invalid location coordinates",
				Err:      matrix.ErrInvalidCoordinates,
			}
		}
	}

	coords := make([][]float64, 0, len(req.Locations))
	for _, loc := range req.Locations {
		coords = append(coords, []float64{loc.Lon, loc.Lat})
	}

	orsReq := orsMatrixRequest{
		Locations: coords,
		Metrics:   []string{"distance", "duration"},
		Units:     "m",
	}
	if avoid := avoidFeatures(req); len(avoid) > 0 {
		orsReq.Options = &orsRouteOptions{AvoidFeatures: avoid}
	}

	body, err := json.Marshal(orsReq)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/v2/matrix/%s", c.baseURL, req.Mode)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", c.apiKey)
	httpReq.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("mode", string(req.Mode)).
		Int("locations", len(req.Locations)).
		Msg("requesting cost matrix from ORS")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &matrix.Error{
			Provider: ProviderName,
			Code:     "REQUEST_FAILED",
			Message:  "failed to reach matrix provider",
			Err:      matrix.ErrProviderUnavailable,
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleErrorResponse(resp.StatusCode, respBody)
	}

	var orsResp orsMatrixResponse
	if err := json.Unmarshal(respBody, &orsResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return c.toMatrix(req, &orsResp)
}

// avoidFeatures maps request flags to ORS avoid_features values.
func avoidFeatures(req matrix.Request) []string {
	var avoid []string
	if req.AvoidTolls {
		avoid = append(avoid, "tollways")
	}
	if req.AvoidHighways {
		avoid = append(avoid, "highways")
	}
	return avoid
}

// toMatrix converts an ORS matrix response to the domain model.
// Null cells are left invalid so the fallback estimator can substitute them.
func (c *Client) toMatrix(req matrix.Request, resp *orsMatrixResponse) (*matrix.Matrix, error) {
	n := len(req.Locations)
	if len(resp.Distances) != n || len(resp.Durations) != n {
		return nil, &matrix.Error{
			Provider: ProviderName,
			Code:     "BAD_SHAPE",
			Message:  fmt.Sprintf("expected %d matrix rows, got distances=%d durations=%d", n, len(resp.Distances), len(resp.Durations)),
			Err:      matrix.ErrProviderUnavailable,
		}
	}

	m := matrix.New(n, req.Mode)
	m.Provider = ProviderName
	m.FetchedAt = time.Now()

	missing := 0
	for i := 0; i < n; i++ {
		if len(resp.Distances[i]) != n || len(resp.Durations[i]) != n {
			return nil, &matrix.Error{
				Provider: ProviderName,
				Code:     "BAD_SHAPE",
				Message:  fmt.Sprintf("row %d has wrong length", i),
				Err:      matrix.ErrProviderUnavailable,
			}
		}
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			distPtr := resp.Distances[i][j]
			durPtr := resp.Durations[i][j]
			if distPtr == nil || durPtr == nil {
				missing++
				continue
			}
			m.Cells[i][j] = matrix.Cell{
				DistanceMeters:  *distPtr,
				DurationSeconds: *durPtr,
				Valid:           true,
			}
		}
	}

	c.logger.Debug().
		Int("locations", n).
		Int("missing_cells", missing).
		Msg("received cost matrix from ORS")

	return m, nil
}

// handleErrorResponse maps ORS error responses to domain errors.
func (c *Client) handleErrorResponse(statusCode int, body []byte) error {
	var orsErr orsErrorResponse
	if err := json.Unmarshal(body, &orsErr); err != nil {
		return &matrix.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("HTTP_%d", statusCode),
			Message:  fmt.Sprintf("matrix provider returned status %d", statusCode),
			Err:      matrix.ErrProviderUnavailable,
		}
	}

	switch statusCode {
	case http.StatusTooManyRequests:
		return &matrix.Error{
			Provider: ProviderName,
			Code:     "RATE_LIMIT",
			Message:  "API rate limit exceeded, please try again later",
			Err:      matrix.ErrRateLimitExceeded,
		}
	case http.StatusForbidden:
		return &matrix.Error{
			Provider: ProviderName,
			Code:     "FORBIDDEN",
			Message:  "API access denied - check API key configuration",
			Err:      matrix.ErrProviderUnavailable,
		}
	case http.StatusBadRequest:
		if orsErr.Error.Code == orsErrorCodeNotFound {
			return &matrix.Error{
				Provider: ProviderName,
				Code:     "NO_ROUTE",
				Message:  orsErr.Error.Message,
				Err:      matrix.ErrProviderUnavailable,
			}
		}
		return &matrix.Error{
			Provider: ProviderName,
			Code:     "BAD_REQUEST",
			Message:  orsErr.Error.Message,
			Err:      matrix.ErrInvalidCoordinates,
		}
	default:
		if statusCode >= 500 {
			return &matrix.Error{
				Provider: ProviderName,
				Code:     fmt.Sprintf("SERVER_%d", statusCode),
				Message:  "matrix provider is temporarily unavailable",
				Err:      matrix.ErrProviderUnavailable,
			}
		}
		return &matrix.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("HTTP_%d", statusCode),
			Message:  orsErr.Error.Message,
			Err:      matrix.ErrProviderUnavailable,
		}
	}
}
