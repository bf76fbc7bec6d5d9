package openrouteservice

// orsMatrixRequest is the request body for the ORS matrix endpoint.
// ORS expects coordinates in [lon, lat] order (GeoJSON).
type orsMatrixRequest struct {
	Locations [][]float64      `json:"locations"`
	Metrics   []string         `json:"metrics"`
	Units     string           `json:"units,omitempty"`
	Options   *orsRouteOptions `json:"options,omitempty"`
}

// orsRouteOptions carries pass-through routing preferences.
type orsRouteOptions struct {
	AvoidFeatures []string `json:"avoid_features,omitempty"`
}

// orsMatrixResponse is the response from the ORS matrix endpoint.
// Cells the engine could not resolve are null.
type orsMatrixResponse struct {
	Distances [][]*float64 `json:"distances"`
	Durations [][]*float64 `json:"durations"`
}

// orsErrorResponse is the error body returned by ORS.
type orsErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ORS matrix error code for unresolvable points.
const orsErrorCodeNotFound = 6010
