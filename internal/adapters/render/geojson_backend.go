// Package render implements ports.MapBackend for headless consumers.
package render

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"facility-route-service/internal/domain"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Camera is the last FlyTo target.
type Camera struct {
	Center domain.Coordinate `json:"center"`
	Zoom   float64           `json:"zoom"`
}

// GeoJSONBackend keeps the current map scene as GeoJSON. When a sink is
// set, every change writes the whole scene to it as one JSON line.
type GeoJSONBackend struct {
	mu      sync.Mutex
	markers []domain.Facility
	path    []domain.Coordinate
	camera  *Camera
	sink    io.Writer
}

func NewGeoJSONBackend(sink io.Writer) *GeoJSONBackend {
	return &GeoJSONBackend{sink: sink}
}

func (b *GeoJSONBackend) RenderMarkers(ctx context.Context, facilities []domain.Facility) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.markers = append([]domain.Facility(nil), facilities...)
	return b.flushLocked()
}

func (b *GeoJSONBackend) RenderPath(ctx context.Context, path []domain.Coordinate) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.path = append([]domain.Coordinate(nil), path...)
	return b.flushLocked()
}

func (b *GeoJSONBackend) FlyTo(ctx context.Context, target domain.Coordinate, zoom float64) error {
	if err := target.Validate(); err != nil {
		return fmt.Errorf("fly to: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.camera = &Camera{Center: target, Zoom: zoom}
	return b.flushLocked()
}

// Scene returns the current markers and path as a FeatureCollection.
// Markers come first in render order, the path (if any) last.
func (b *GeoJSONBackend) Scene() *geojson.FeatureCollection {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sceneLocked()
}

func (b *GeoJSONBackend) Camera() (Camera, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.camera == nil {
		return Camera{}, false
	}
	return *b.camera, true
}

func (b *GeoJSONBackend) sceneLocked() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, f := range b.markers {
		feat := geojson.NewFeature(orb.Point{f.Location.Lon, f.Location.Lat})
		feat.ID = f.ID
		feat.Properties["name"] = f.Name
		feat.Properties["type"] = string(f.Type)
		if f.DistanceKm != nil {
			feat.Properties["distance_km"] = *f.DistanceKm
		}
		fc.Append(feat)
	}

	if len(b.path) > 0 {
		fc.Append(geojson.NewFeature(LineString(b.path)))
	}

	if b.camera != nil {
		fc.ExtraMembers = geojson.Properties{"camera": *b.camera}
	}

	return fc
}

func (b *GeoJSONBackend) flushLocked() error {
	if b.sink == nil {
		return nil
	}

	data, err := json.Marshal(b.sceneLocked())
	if err != nil {
		return fmt.Errorf("render geojson: marshal scene: %w", err)
	}
	data = append(data, '\n')
	if _, err := b.sink.Write(data); err != nil {
		return fmt.Errorf("render geojson: write scene: %w", err)
	}
	return nil
}

// LineString converts a path to orb's [lon, lat] order.
func LineString(path []domain.Coordinate) orb.LineString {
	ls := make(orb.LineString, len(path))
	for i, c := range path {
		ls[i] = orb.Point{c.Lon, c.Lat}
	}
	return ls
}
