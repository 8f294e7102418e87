package ports

import (
	"context"

	"facility-route-service/internal/domain"
)

// Contract for one bounded-radius facility query against a POI service.
// Implementations issue a single upstream call per invocation and do not retry.
type FacilitySource interface {
	// Return normalized facilities of the given types within radiusMeters of center.
	FetchFacilities(ctx context.Context, center domain.Coordinate, radiusMeters float64, types []domain.FacilityType) ([]domain.Facility, error)
}
