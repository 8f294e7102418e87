package ports

import (
	"context"

	"facility-route-service/internal/domain"
)

// MapBackend is the rendering boundary. The core never depends on a
// concrete map library; any renderer able to draw markers and a polyline
// and move its camera implements it.
type MapBackend interface {
	RenderMarkers(ctx context.Context, facilities []domain.Facility) error
	RenderPath(ctx context.Context, path []domain.Coordinate) error
	FlyTo(ctx context.Context, target domain.Coordinate, zoom float64) error
}
