package services

import (
	"context"
	"fmt"
	"time"

	"facility-route-service/internal/ports"
)

// PlayAnimation renders animator frames to backend on every tick until the
// whole path is shown. It returns ctx.Err() if cancelled first.
func PlayAnimation(ctx context.Context, animator *PathAnimator, backend ports.MapBackend, tick time.Duration) error {
	if tick <= 0 {
		return fmt.Errorf("play animation: tick must be positive, got %s", tick)
	}

	start := time.Now()
	render := func(elapsed time.Duration) (bool, error) {
		frame := animator.Progress(elapsed)
		if err := backend.RenderPath(ctx, frame.VisiblePrefix); err != nil {
			return false, fmt.Errorf("play animation: render path: %w", err)
		}
		return frame.Done(), nil
	}

	if done, err := render(0); err != nil || done {
		return err
	}

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			done, err := render(time.Since(start))
			if err != nil || done {
				return err
			}
		}
	}
}
