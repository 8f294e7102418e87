package render

import (
	"context"
	"fmt"
	"io"
	"sync"

	"facility-route-service/internal/domain"
)

// TextBackend prints map updates as plain lines. Used by the CLI.
type TextBackend struct {
	mu sync.Mutex
	w  io.Writer
}

func NewTextBackend(w io.Writer) *TextBackend {
	return &TextBackend{w: w}
}

func (t *TextBackend) RenderMarkers(ctx context.Context, facilities []domain.Facility) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(facilities) == 0 {
		_, err := fmt.Fprintln(t.w, "no facilities found")
		return err
	}

	for i, f := range facilities {
		dist := "?"
		if f.DistanceKm != nil {
			dist = fmt.Sprintf("%.2f km", *f.DistanceKm)
		}
		if _, err := fmt.Fprintf(t.w, "%2d. %-9s %-40s %10s  %s\n", i+1, f.Type, f.Name, dist, f.Address); err != nil {
			return err
		}
	}
	return nil
}

func (t *TextBackend) RenderPath(ctx context.Context, path []domain.Coordinate) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(path) == 0 {
		_, err := fmt.Fprintln(t.w, "path: empty")
		return err
	}
	head := path[len(path)-1]
	_, err := fmt.Fprintf(t.w, "path: %d points, head at %s\n", len(path), head)
	return err
}

func (t *TextBackend) FlyTo(ctx context.Context, target domain.Coordinate, zoom float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, err := fmt.Fprintf(t.w, "camera: %s zoom %.1f\n", target, zoom)
	return err
}
