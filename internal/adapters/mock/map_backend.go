package mock

import (
	"context"
	"sync"

	"facility-route-service/internal/domain"
)

// MapBackend records every call it receives.
type MapBackend struct {
	mu      sync.Mutex
	Markers [][]domain.Facility
	Paths   [][]domain.Coordinate
	Flights []domain.Coordinate
	Err     error
}

func (b *MapBackend) RenderMarkers(ctx context.Context, facilities []domain.Facility) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Markers = append(b.Markers, append([]domain.Facility(nil), facilities...))
	return b.Err
}

func (b *MapBackend) RenderPath(ctx context.Context, path []domain.Coordinate) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Paths = append(b.Paths, append([]domain.Coordinate(nil), path...))
	return b.Err
}

func (b *MapBackend) FlyTo(ctx context.Context, target domain.Coordinate, zoom float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Flights = append(b.Flights, target)
	return b.Err
}

func (b *MapBackend) PathsRendered() [][]domain.Coordinate {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([][]domain.Coordinate(nil), b.Paths...)
}
