package ports

import (
	"context"

	"facility-route-service/internal/domain"
)

// Contract for retrieving a drivable path between two coordinates.
type RouteProvider interface {
	// Return full path geometry, distance and duration for the request.
	Route(ctx context.Context, req domain.RouteRequest) (domain.RoutePlan, error)
}

// Optional persistent cache in front of a RouteProvider.
type RouteCache interface {
	// Return the cached plan and whether it was found.
	Get(ctx context.Context, req domain.RouteRequest) (domain.RoutePlan, bool, error)
	Put(ctx context.Context, req domain.RouteRequest, plan domain.RoutePlan) error
}
