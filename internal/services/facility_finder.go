package services

import (
	"context"

	"facility-route-service/internal/domain"
	"facility-route-service/internal/platform/obs"
)

// FindResult is a ranked search result.
type FindResult struct {
	Facilities   []domain.Facility
	Attempts     int
	RadiusMeters float64
	// Superseded is set when a newer search on the same session began while
	// this one ran; the result was not committed.
	Superseded bool
}

func (r *FindResult) Empty() bool { return len(r.Facilities) == 0 }

// FacilityFinder runs the whole nearby flow: radius search, aggregation
// and, when a session is given, a last-write-wins commit.
type FacilityFinder struct {
	search *RadiusSearch
	policy SearchPolicy
}

func NewFacilityFinder(search *RadiusSearch, policy SearchPolicy) *FacilityFinder {
	return &FacilityFinder{search: search, policy: policy}
}

func (f *FacilityFinder) Find(
	ctx context.Context,
	session *SearchSession,
	center domain.Coordinate,
	types []domain.FacilityType,
) (*FindResult, error) {
	var generation uint64
	if session != nil {
		generation = session.Begin()
	}

	outcome, err := f.search.Search(ctx, f.policy.Request(center, types))
	if err != nil {
		return nil, err
	}

	result := &FindResult{
		Facilities:   Aggregate(outcome.Facilities, center),
		Attempts:     outcome.Attempts,
		RadiusMeters: outcome.RadiusMeters,
	}

	if session != nil && !session.Commit(generation, center, result.Facilities) {
		result.Superseded = true
		obs.Logger(ctx).Info().Uint64("generation", generation).Msg("discarding superseded search result")
	}

	return result, nil
}
