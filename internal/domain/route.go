package domain

import (
	"errors"
	"fmt"
)

type RouteRequest struct {
	Origin      Coordinate `json:"origin"`
	Destination Coordinate `json:"destination"`
}

func (r RouteRequest) Validate() error {
	if err := r.Origin.Validate(); err != nil {
		return fmt.Errorf("route request: origin: %w", err)
	}
	if err := r.Destination.Validate(); err != nil {
		return fmt.Errorf("route request: destination: %w", err)
	}
	return nil
}

// Represents a drivable path between two coordinates as returned by the
// routing service. Geometry holds at least two points; its endpoints match
// the request within the service's snapping tolerance.
// It is immutable planning data scoped to a single user interaction.
type RoutePlan struct {
	Geometry        []Coordinate `json:"geometry"`
	DistanceMeters  float64      `json:"distance_meters"`
	DurationSeconds float64      `json:"duration_seconds"`
}

func (p RoutePlan) Validate() error {
	if len(p.Geometry) < 2 {
		return errors.New("route plan: geometry must contain at least 2 points")
	}
	for i, c := range p.Geometry {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("route plan: geometry[%d]: %w", i, err)
		}
	}
	if p.DistanceMeters < 0 || p.DurationSeconds < 0 {
		return errors.New("route plan: distance and duration must be non-negative")
	}
	return nil
}

// AnimationFrame is the visible part of a route at one instant.
type AnimationFrame struct {
	ElapsedFraction float64      `json:"elapsed_fraction"`
	VisiblePrefix   []Coordinate `json:"visible_prefix"`
}

// Done reports whether the frame shows the whole path.
func (f AnimationFrame) Done() bool { return f.ElapsedFraction >= 1 }
