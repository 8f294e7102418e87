package domain

import (
	"errors"
	"fmt"
	"math"
)

// SearchRequest describes one radius-expanding facility search.
// Attempt i queries InitialRadiusMeters * RadiusMultiplier^i.
type SearchRequest struct {
	Center              Coordinate
	InitialRadiusMeters float64
	MaxAttempts         int
	RadiusMultiplier    float64
	Types               []FacilityType
}

func (r SearchRequest) Validate() error {
	if err := r.Center.Validate(); err != nil {
		return fmt.Errorf("search request: center: %w", err)
	}
	if r.InitialRadiusMeters <= 0 || math.IsNaN(r.InitialRadiusMeters) || math.IsInf(r.InitialRadiusMeters, 0) {
		return errors.New("search request: initial radius must be positive")
	}
	if r.MaxAttempts < 1 {
		return fmt.Errorf("search request: max attempts must be at least 1, got %d", r.MaxAttempts)
	}
	if !(r.RadiusMultiplier > 1) || math.IsInf(r.RadiusMultiplier, 0) {
		return fmt.Errorf("search request: radius multiplier must be greater than 1, got %v", r.RadiusMultiplier)
	}
	return nil
}

// RadiusForAttempt returns the query radius of the 0-based attempt i.
func (r SearchRequest) RadiusForAttempt(i int) float64 {
	return r.InitialRadiusMeters * math.Pow(r.RadiusMultiplier, float64(i))
}

// SearchTypes returns the requested types, or all types when none were given.
func (r SearchRequest) SearchTypes() []FacilityType {
	if len(r.Types) == 0 {
		return AllFacilityTypes()
	}
	return r.Types
}
