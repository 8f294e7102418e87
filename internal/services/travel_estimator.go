package services

import (
	"context"
	"sort"
	"sync"

	"facility-route-service/internal/domain"
	"facility-route-service/internal/platform/obs"
)

const DefaultEstimateConcurrency = 4

// TravelEstimate is the driving distance and time to one facility.
// Err is set instead when that facility could not be routed.
type TravelEstimate struct {
	Facility        domain.Facility
	DistanceMeters  float64
	DurationSeconds float64
	Err             error
}

// TravelEstimator plans routes from one origin to several facilities with
// bounded concurrency. A failure for one facility does not affect the others.
type TravelEstimator struct {
	planner     *RoutePlanner
	concurrency int
}

func NewTravelEstimator(planner *RoutePlanner, concurrency int) *TravelEstimator {
	if concurrency <= 0 {
		concurrency = DefaultEstimateConcurrency
	}
	return &TravelEstimator{planner: planner, concurrency: concurrency}
}

// Estimate returns one entry per facility, sorted by travel duration.
// Unroutable facilities come last in their input order.
func (e *TravelEstimator) Estimate(ctx context.Context, origin domain.Coordinate, facilities []domain.Facility) []TravelEstimate {
	defer obs.Time(ctx, "routes.Estimate")(nil)

	out := make([]TravelEstimate, len(facilities))
	sem := make(chan struct{}, e.concurrency)
	var wg sync.WaitGroup

	for i, f := range facilities {
		wg.Add(1)
		go func(i int, f domain.Facility) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				out[i] = TravelEstimate{Facility: f, Err: ctx.Err()}
				return
			}
			defer func() { <-sem }()

			plan, err := e.planner.PlanRoute(ctx, domain.RouteRequest{Origin: origin, Destination: f.Location})
			if err != nil {
				out[i] = TravelEstimate{Facility: f, Err: err}
				return
			}
			out[i] = TravelEstimate{
				Facility:        f,
				DistanceMeters:  plan.DistanceMeters,
				DurationSeconds: plan.DurationSeconds,
			}
		}(i, f)
	}

	wg.Wait()

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if (a.Err == nil) != (b.Err == nil) {
			return a.Err == nil
		}
		if a.Err != nil {
			return false
		}
		return a.DurationSeconds < b.DurationSeconds
	})
	return out
}
