package services

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"facility-route-service/internal/domain"
	"facility-route-service/internal/geo"
)

// DurationBounds clamps the animation length.
type DurationBounds struct {
	Min time.Duration
	Max time.Duration
}

var DefaultDurationBounds = DurationBounds{Min: 4 * time.Second, Max: 12 * time.Second}

func (b DurationBounds) Validate() error {
	if b.Min <= 0 {
		return errors.New("duration bounds: min must be positive")
	}
	if b.Max < b.Min {
		return fmt.Errorf("duration bounds: max %s is below min %s", b.Max, b.Min)
	}
	return nil
}

func (b DurationBounds) Clamp(d time.Duration) time.Duration {
	if d < b.Min {
		return b.Min
	}
	if d > b.Max {
		return b.Max
	}
	return d
}

// SuggestedDuration proposes one second of animation per kilometre of route.
// The animator clamps it.
func SuggestedDuration(plan domain.RoutePlan) time.Duration {
	return time.Duration(plan.DistanceMeters/1000*float64(time.Second))
}

// PathAnimator maps elapsed time to the visible prefix of a path. It holds
// no clock, so one animator can be replayed or sampled from anywhere.
type PathAnimator struct {
	geometry   []domain.Coordinate
	cumulative []float64
	total      float64
	duration   time.Duration
}

func NewPathAnimator(geometry []domain.Coordinate, suggested time.Duration, bounds DurationBounds) (*PathAnimator, error) {
	if len(geometry) == 0 {
		return nil, errors.New("path animator: geometry is empty")
	}
	if err := bounds.Validate(); err != nil {
		return nil, fmt.Errorf("path animator: %w", err)
	}

	g := append([]domain.Coordinate(nil), geometry...)
	cum := geo.PathLengthsMeters(g)

	return &PathAnimator{
		geometry:   g,
		cumulative: cum,
		total:      cum[len(cum)-1],
		duration:   bounds.Clamp(suggested),
	}, nil
}

// Duration is the clamped time after which the whole path is visible.
func (a *PathAnimator) Duration() time.Duration { return a.duration }

// Progress returns the frame at elapsed. The prefix holds every vertex up to
// the start of the active segment plus one point placed on that segment by
// length fraction. Prefix length never decreases as elapsed grows.
func (a *PathAnimator) Progress(elapsed time.Duration) domain.AnimationFrame {
	if elapsed <= 0 {
		return domain.AnimationFrame{ElapsedFraction: 0, VisiblePrefix: a.prefix(0)}
	}
	if elapsed >= a.duration {
		return domain.AnimationFrame{ElapsedFraction: 1, VisiblePrefix: a.prefix(len(a.geometry) - 1)}
	}

	fraction := float64(elapsed) / float64(a.duration)
	frame := domain.AnimationFrame{ElapsedFraction: fraction}

	// A path of coincident points has nothing to grow along.
	if a.total == 0 {
		frame.VisiblePrefix = a.prefix(0)
		return frame
	}

	target := fraction * a.total

	// First vertex strictly beyond target; the active segment starts just before it.
	next := sort.SearchFloat64s(a.cumulative, target)
	for next < len(a.cumulative) && a.cumulative[next] <= target {
		next++
	}
	if next >= len(a.cumulative) {
		frame.VisiblePrefix = a.prefix(len(a.geometry) - 1)
		return frame
	}
	start := next - 1

	visible := a.prefix(start)
	segLen := a.cumulative[next] - a.cumulative[start]
	if t := (target - a.cumulative[start]) / segLen; t > 0 {
		visible = append(visible, geo.Interpolate(a.geometry[start], a.geometry[next], t))
	}
	frame.VisiblePrefix = visible
	return frame
}

// prefix copies geometry[0..last].
func (a *PathAnimator) prefix(last int) []domain.Coordinate {
	out := make([]domain.Coordinate, last+1, last+2)
	copy(out, a.geometry[:last+1])
	return out
}
