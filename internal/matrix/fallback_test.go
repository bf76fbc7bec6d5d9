package matrix

import (
	"context"
	"math"
	"testing"
)

func TestHaversineMeters(t *testing.T) {
	// Amsterdam Centraal to Utrecht Centraal, roughly 35 km.
	amsterdam := Coordinate{Lat: 52.3791, Lon: 4.9003}
	utrecht := Coordinate{Lat: 52.0894, Lon: 5.1101}

	got := HaversineMeters(amsterdam, utrecht)
	if got < 34000 || got > 37000 {
		t.Errorf("HaversineMeters = %v, want roughly 35km", got)
	}

	if d := HaversineMeters(amsterdam, amsterdam); d != 0 {
		t.Errorf("distance to self = %v, want 0", d)
	}
}

func TestFallbackSpeedKph(t *testing.T) {
	tests := []struct {
		mode Mode
		want float64
	}{
		{ModeDriving, 45},
		{ModeCycling, 15},
		{ModeWalking, 5},
		{Mode("unknown"), 45},
	}
	for _, tt := range tests {
		if got := tt.mode.FallbackSpeedKph(); got != tt.want {
			t.Errorf("FallbackSpeedKph(%s) = %v, want %v", tt.mode, got, tt.want)
		}
	}
}

func TestFallbackEstimator_Matrix(t *testing.T) {
	est := NewFallbackEstimator()
	locs := []Coordinate{
		{Lat: 52.37, Lon: 4.89},
		{Lat: 52.38, Lon: 4.90},
		{Lat: 52.36, Lon: 4.88},
	}

	m, err := est.Matrix(context.Background(), Request{Locations: locs, Mode: ModeCycling})
	if err != nil {
		t.Fatalf("Matrix: %v", err)
	}

	if !m.Degraded {
		t.Error("estimated matrix should be degraded")
	}
	if m.Provider != FallbackProviderName {
		t.Errorf("provider = %q, want %q", m.Provider, FallbackProviderName)
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			cell := m.Cells[i][j]
			if !cell.Valid {
				t.Errorf("cell (%d,%d) invalid", i, j)
			}
			if i == j {
				continue
			}
			if !cell.Estimated {
				t.Errorf("cell (%d,%d) not marked estimated", i, j)
			}
			// Duration must be distance at 15 km/h.
			wantDur := cell.DistanceMeters / (15.0 / 3.6)
			if math.Abs(cell.DurationSeconds-wantDur) > 1e-6 {
				t.Errorf("cell (%d,%d) duration = %v, want %v", i, j, cell.DurationSeconds, wantDur)
			}
		}
	}
}

func TestFallbackEstimator_Backfill(t *testing.T) {
	est := NewFallbackEstimator()
	locs := []Coordinate{
		{Lat: 52.37, Lon: 4.89},
		{Lat: 52.38, Lon: 4.90},
		{Lat: 52.36, Lon: 4.88},
	}

	m := New(3, ModeDriving)
	for i := range m.Cells {
		for j := range m.Cells[i] {
			if i == j {
				continue
			}
			m.Cells[i][j] = Cell{DistanceMeters: 1500, DurationSeconds: 180, Valid: true}
		}
	}
	// Simulate two unresolved cells.
	m.Cells[0][2] = Cell{}
	m.Cells[2][0] = Cell{}

	filled := est.Backfill(m, locs)

	if filled != 2 {
		t.Errorf("Backfill filled %d cells, want 2", filled)
	}
	if !m.Degraded {
		t.Error("backfilled matrix should be degraded")
	}
	if missing := m.MissingCells(); len(missing) != 0 {
		t.Errorf("matrix still has %d missing cells", len(missing))
	}
	if !m.Cells[0][2].Estimated {
		t.Error("backfilled cell should be marked estimated")
	}
	if m.Cells[0][1].Estimated {
		t.Error("provider cell must not be overwritten")
	}
}

func TestValidateCoordinate(t *testing.T) {
	valid := []Coordinate{
		{Lat: 0, Lon: 0},
		{Lat: 90, Lon: 180},
		{Lat: -90, Lon: -180},
	}
	for _, c := range valid {
		if err := ValidateCoordinate(c); err != nil {
			t.Errorf("ValidateCoordinate(%+v) = %v, want nil", c, err)
		}
	}

	invalid := []Coordinate{
		{Lat: 90.1, Lon: 0},
		{Lat: -91, Lon: 0},
		{Lat: 0, Lon: 180.5},
		{Lat: 0, Lon: -181},
	}
	for _, c := range invalid {
		if err := ValidateCoordinate(c); err != ErrInvalidCoordinates {
			t.Errorf("ValidateCoordinate(%+v) = %v, want ErrInvalidCoordinates", c, err)
		}
	}
}
