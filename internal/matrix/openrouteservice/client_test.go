package openrouteservice

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/rs/zerolog"

	"github.com/wayplan/wayplan/internal/matrix"
)

func testLocations() []matrix.Coordinate {
	return []matrix.Coordinate{
		{Lat: 52.37, Lon: 4.89},
		{Lat: 52.38, Lon: 4.90},
		{Lat: 52.36, Lon: 4.88},
	}
}

func TestClient_Matrix_Success(t *testing.T) {
	respBody, err := os.ReadFile("testdata/matrix_response.json")
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.Header.Get("Authorization") != "mock123" {
			t.Errorf("expected Authorization header 'mock123', got '%s'", r.Header.Get("Authorization"))
		}
		if r.URL.Path != "/v2/matrix/driving-car" {
			t.Errorf("expected path /v2/matrix/driving-car, got %s", r.URL.Path)
		}

		body, _ := io.ReadAll(r.Body)
		var req orsMatrixRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		if len(req.Locations) != 3 {
			t.Errorf("expected 3 locations, got %d", len(req.Locations))
		}
		// ORS wants [lon, lat].
		if len(req.Locations) > 0 && req.Locations[0][0] != 4.89 {
			t.Errorf("expected lon-first coordinates, got %v", req.Locations[0])
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(respBody)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		APIKey:     "mock123",
		BaseURL:    server.URL,
		HTTPClient: &mockHTTPClient{client: server.Client()},
		Logger:     zerolog.Nop(),
	})

	m, err := client.Matrix(context.Background(), matrix.Request{
		Locations: testLocations(),
		Mode:      matrix.ModeDriving,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if m.Provider != ProviderName {
		t.Errorf("expected provider %s, got %s", ProviderName, m.Provider)
	}
	if m.Size() != 3 {
		t.Fatalf("expected 3x3 matrix, got %d", m.Size())
	}
	if m.Distance(0, 1) != 1520.5 {
		t.Errorf("expected distance 1520.5, got %v", m.Distance(0, 1))
	}
	if m.Duration(1, 2) != 180.9 {
		t.Errorf("expected duration 180.9, got %v", m.Duration(1, 2))
	}
	if missing := m.MissingCells(); len(missing) != 0 {
		t.Errorf("expected complete matrix, got %d missing cells", len(missing))
	}
	if m.Degraded {
		t.Error("complete response must not be degraded")
	}
}

func TestClient_Matrix_PartialResponseLeavesCellsInvalid(t *testing.T) {
	respBody, err := os.ReadFile("testdata/matrix_partial_response.json")
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(respBody)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		APIKey:     "mock123",
		BaseURL:    server.URL,
		HTTPClient: &mockHTTPClient{client: server.Client()},
		Logger:     zerolog.Nop(),
	})

	m, err := client.Matrix(context.Background(), matrix.Request{
		Locations: testLocations(),
		Mode:      matrix.ModeDriving,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if missing := m.MissingCells(); len(missing) != 2 {
		t.Errorf("expected 2 missing cells, got %d", len(missing))
	}
	if m.Cells[0][2].Valid || m.Cells[2][0].Valid {
		t.Error("null cells should be left invalid")
	}
	if !m.Cells[0][1].Valid {
		t.Error("resolved cells should be valid")
	}
}

func TestClient_Matrix_AvoidFeatures(t *testing.T) {
	var captured orsMatrixRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &captured)

		respBody, _ := os.ReadFile("testdata/matrix_response.json")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(respBody)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		APIKey:     "mock123",
		BaseURL:    server.URL,
		HTTPClient: &mockHTTPClient{client: server.Client()},
		Logger:     zerolog.Nop(),
	})

	_, err := client.Matrix(context.Background(), matrix.Request{
		Locations:     testLocations(),
		Mode:          matrix.ModeDriving,
		AvoidTolls:    true,
		AvoidHighways: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if captured.Options == nil {
		t.Fatal("expected options with avoid_features")
	}
	want := []string{"tollways", "highways"}
	if len(captured.Options.AvoidFeatures) != len(want) {
		t.Fatalf("avoid_features = %v, want %v", captured.Options.AvoidFeatures, want)
	}
	for i := range want {
		if captured.Options.AvoidFeatures[i] != want[i] {
			t.Errorf("avoid_features = %v, want %v", captured.Options.AvoidFeatures, want)
		}
	}
}

func TestClient_Matrix_NoRouteFound(t *testing.T) {
	respBody, err := os.ReadFile("testdata/error_response.json")
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write(respBody)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		APIKey:     "mock123",
		BaseURL:    server.URL,
		HTTPClient: &mockHTTPClient{client: server.Client()},
		Logger:     zerolog.Nop(),
	})

	_, err = client.Matrix(context.Background(), matrix.Request{
		Locations: testLocations(),
		Mode:      matrix.ModeDriving,
	})

	var merr *matrix.Error
	if !errors.As(err, &merr) {
		t.Fatalf("expected *matrix.Error, got %T (%v)", err, err)
	}
	if merr.Code != "NO_ROUTE" {
		t.Errorf("expected code NO_ROUTE, got %s", merr.Code)
	}
	if !errors.Is(err, matrix.ErrProviderUnavailable) {
		t.Error("expected error to unwrap to ErrProviderUnavailable")
	}
}

func TestClient_Matrix_RateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"code": 0, "message": "Quota exceeded"}}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		APIKey:     "mock123",
		BaseURL:    server.URL,
		HTTPClient: &mockHTTPClient{client: server.Client()},
		Logger:     zerolog.Nop(),
	})

	_, err := client.Matrix(context.Background(), matrix.Request{
		Locations: testLocations(),
		Mode:      matrix.ModeDriving,
	})

	if !errors.Is(err, matrix.ErrRateLimitExceeded) {
		t.Errorf("expected ErrRateLimitExceeded, got %v", err)
	}
	var merr *matrix.Error
	if errors.As(err, &merr) && !merr.IsRetryable() {
		t.Error("rate limit errors should be retryable")
	}
}

func TestClient_Matrix_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": {"code": 0, "message": "internal error"}}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		APIKey:     "mock123",
		BaseURL:    server.URL,
		HTTPClient: &mockHTTPClient{client: server.Client()},
		Logger:     zerolog.Nop(),
	})

	_, err := client.Matrix(context.Background(), matrix.Request{
		Locations: testLocations(),
		Mode:      matrix.ModeDriving,
	})

	if !errors.Is(err, matrix.ErrProviderUnavailable) {
		t.Errorf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestClient_Matrix_TooFewLocations(t *testing.T) {
	client := NewClient(ClientConfig{APIKey: "mock123", Logger: zerolog.Nop()})

	_, err := client.Matrix(context.Background(), matrix.Request{
		Locations: testLocations()[:1],
		Mode:      matrix.ModeDriving,
	})
	if !errors.Is(err, matrix.ErrTooFewLocations) {
		t.Errorf("expected ErrTooFewLocations, got %v", err)
	}
}

func TestClient_Matrix_InvalidCoordinates(t *testing.T) {
	client := NewClient(ClientConfig{APIKey: "mock123", Logger: zerolog.Nop()})

	_, err := client.Matrix(context.Background(), matrix.Request{
		Locations: []matrix.Coordinate{{Lat: 95, Lon: 0}, {Lat: 0, Lon: 0}},
		Mode:      matrix.ModeDriving,
	})
	if !errors.Is(err, matrix.ErrInvalidCoordinates) {
		t.Errorf("expected ErrInvalidCoordinates, got %v", err)
	}
}

// mockHTTPClient wraps the httptest server's client behind the HTTPDoer
// interface.
type mockHTTPClient struct {
	client *http.Client
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return m.client.Do(req)
}
