// Package mock provides scripted port implementations for tests.
package mock

import (
	"context"
	"sync"

	"facility-route-service/internal/domain"
)

// Response is one scripted FetchFacilities answer.
type Response struct {
	Facilities []domain.Facility
	Err        error
}

// FetchCall records the arguments of one FetchFacilities call.
type FetchCall struct {
	Center       domain.Coordinate
	RadiusMeters float64
	Types        []domain.FacilityType
}

// FacilitySource answers FetchFacilities with scripted responses in order.
// Calls past the script get an empty result.
type FacilitySource struct {
	mu        sync.Mutex
	responses []Response
	calls     []FetchCall
	// Hook runs before each answer; tests use it to block or cancel.
	Hook func(ctx context.Context, call int)
}

func NewFacilitySource(responses ...Response) *FacilitySource {
	return &FacilitySource{responses: responses}
}

func (s *FacilitySource) FetchFacilities(
	ctx context.Context,
	center domain.Coordinate,
	radiusMeters float64,
	types []domain.FacilityType,
) ([]domain.Facility, error) {
	s.mu.Lock()
	n := len(s.calls)
	s.calls = append(s.calls, FetchCall{
		Center:       center,
		RadiusMeters: radiusMeters,
		Types:        append([]domain.FacilityType(nil), types...),
	})
	hook := s.Hook
	s.mu.Unlock()

	if hook != nil {
		hook(ctx, n)
	}

	if n >= len(s.responses) {
		return []domain.Facility{}, nil
	}
	r := s.responses[n]
	if r.Err != nil {
		return nil, r.Err
	}
	return append([]domain.Facility(nil), r.Facilities...), nil
}

func (s *FacilitySource) Calls() []FetchCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]FetchCall(nil), s.calls...)
}
