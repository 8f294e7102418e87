package geo

import (
	"errors"
	"math"

	"facility-route-service/internal/domain"
)

type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Around returns a box enclosing a circle of radiusMeters around c.
func Around(c domain.Coordinate, radiusMeters float64) BoundingBox {
	latDelta := radiusMeters / 111320.0
	lonDelta := 180.0
	if cos := math.Cos(toRad(c.Lat)); cos > 1e-9 {
		lonDelta = math.Min(180, radiusMeters/(111320.0*cos))
	}

	return BoundingBox{
		MinLat: math.Max(-90, c.Lat-latDelta),
		MinLon: math.Max(-180, c.Lon-lonDelta),
		MaxLat: math.Min(90, c.Lat+latDelta),
		MaxLon: math.Min(180, c.Lon+lonDelta),
	}
}

func (b BoundingBox) Validate() error {
	if err := (domain.Coordinate{Lat: b.MinLat, Lon: b.MinLon}).Validate(); err != nil {
		return err
	}
	if err := (domain.Coordinate{Lat: b.MaxLat, Lon: b.MaxLon}).Validate(); err != nil {
		return err
	}
	if b.MinLat > b.MaxLat || b.MinLon > b.MaxLon {
		return errors.New("bounding box: min corner must be south-west of max corner")
	}
	return nil
}

func (b BoundingBox) Contains(c domain.Coordinate) bool {
	return c.Lat >= b.MinLat && c.Lat <= b.MaxLat && c.Lon >= b.MinLon && c.Lon <= b.MaxLon
}
