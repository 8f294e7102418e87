package dto

import (
	"facility-route-service/internal/domain"

	"github.com/paulmach/orb/geojson"
)

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (c Coordinate) Domain() domain.Coordinate {
	return domain.Coordinate{Lat: c.Lat, Lon: c.Lon}
}

// RouteRequest targets either an explicit destination or a facility from
// the session's latest search.
type RouteRequest struct {
	Origin      *Coordinate `json:"origin"`
	Destination *Coordinate `json:"destination"`
	FacilityID  string      `json:"facility_id"`
}

type RouteResponse struct {
	Geometry         *geojson.Geometry `json:"geometry"`
	DistanceMeters   float64           `json:"distance_meters"`
	DurationSeconds  float64           `json:"duration_seconds"`
	AnimationSeconds float64           `json:"animation_seconds"`
	Facility         *FacilityResponse `json:"facility,omitempty"`
}

type AnimationRequest struct {
	RouteRequest
	// Number of evenly spaced frames to return, including both ends.
	Frames int `json:"frames"`
}

type FrameResponse struct {
	ElapsedSeconds  float64           `json:"elapsed_seconds"`
	ElapsedFraction float64           `json:"elapsed_fraction"`
	Path            *geojson.Geometry `json:"path"`
}

type AnimationResponse struct {
	DurationSeconds float64                    `json:"duration_seconds"`
	Frames          []FrameResponse            `json:"frames"`
	Scene           *geojson.FeatureCollection `json:"scene"`
}

type EstimatesRequest struct {
	Origin      *Coordinate `json:"origin"`
	FacilityIDs []string    `json:"facility_ids"`
}

type EstimateResponse struct {
	Facility        FacilityResponse `json:"facility"`
	DistanceMeters  float64          `json:"distance_meters,omitempty"`
	DurationSeconds float64          `json:"duration_seconds,omitempty"`
	Error           *ErrorResponse   `json:"error,omitempty"`
}

type ListEstimatesResponse struct {
	Estimates []EstimateResponse `json:"estimates"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Retryable bool   `json:"retryable"`
}
