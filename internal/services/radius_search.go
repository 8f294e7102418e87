package services

import (
	"context"
	"fmt"

	"facility-route-service/internal/domain"
	"facility-route-service/internal/platform/obs"
	"facility-route-service/internal/ports"
)

// SearchPolicy holds the radius expansion tuning shared by every search.
type SearchPolicy struct {
	InitialRadiusMeters float64
	MaxAttempts         int
	RadiusMultiplier    float64
}

// DefaultSearchPolicy doubles from 50 km over at most 4 attempts.
var DefaultSearchPolicy = SearchPolicy{
	InitialRadiusMeters: 50000,
	MaxAttempts:         4,
	RadiusMultiplier:    2,
}

func (p SearchPolicy) Request(center domain.Coordinate, types []domain.FacilityType) domain.SearchRequest {
	return domain.SearchRequest{
		Center:              center,
		InitialRadiusMeters: p.InitialRadiusMeters,
		MaxAttempts:         p.MaxAttempts,
		RadiusMultiplier:    p.RadiusMultiplier,
		Types:               types,
	}
}

// SearchOutcome is the terminal state of a radius search.
type SearchOutcome struct {
	Facilities []domain.Facility
	// Attempts is the number of upstream calls issued.
	Attempts int
	// RadiusMeters is the radius of the last attempt.
	RadiusMeters float64
}

// Empty reports the "nothing found nearby" outcome, which is not an error.
func (o *SearchOutcome) Empty() bool { return len(o.Facilities) == 0 }

// RadiusSearch widens the query radius until something is found or the
// attempt budget runs out.
type RadiusSearch struct {
	source ports.FacilitySource
}

func NewRadiusSearch(source ports.FacilitySource) *RadiusSearch {
	return &RadiusSearch{source: source}
}

// Search issues attempts strictly one after another. A fetch error aborts
// the search and is returned as is, without partial results.
func (s *RadiusSearch) Search(ctx context.Context, req domain.SearchRequest) (_ *SearchOutcome, err error) {
	defer obs.Time(ctx, "search.RadiusSearch")(&err)

	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("radius search: %w", err)
	}

	types := req.SearchTypes()
	outcome := &SearchOutcome{Facilities: []domain.Facility{}}
	defer func() {
		if err == nil {
			obs.SearchAttempts.Observe(float64(outcome.Attempts))
		}
	}()

	for i := 0; i < req.MaxAttempts; i++ {
		// Stop between attempts if the caller gave up.
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		radius := req.RadiusForAttempt(i)
		found, err := s.source.FetchFacilities(ctx, req.Center, radius, types)
		if err != nil {
			return nil, err
		}

		outcome.Attempts = i + 1
		outcome.RadiusMeters = radius

		obs.Logger(ctx).Debug().
			Int("attempt", i+1).
			Float64("radius_m", radius).
			Int("found", len(found)).
			Msg("radius search attempt")

		if len(found) > 0 {
			outcome.Facilities = found
			return outcome, nil
		}
	}

	obs.EmptySearches.Inc()
	return outcome, nil
}
