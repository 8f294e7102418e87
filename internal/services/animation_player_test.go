package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"facility-route-service/internal/adapters/mock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastBounds = DurationBounds{Min: 40 * time.Millisecond, Max: 40 * time.Millisecond}

func TestPlayAnimationRendersUntilDone(t *testing.T) {
	a, err := NewPathAnimator(equatorPath, 0, fastBounds)
	require.NoError(t, err)

	backend := &mock.MapBackend{}
	require.NoError(t, PlayAnimation(context.Background(), a, backend, 5*time.Millisecond))

	paths := backend.PathsRendered()
	require.GreaterOrEqual(t, len(paths), 2)
	assert.Len(t, paths[0], 1)
	assert.Equal(t, equatorPath, paths[len(paths)-1])
	for i := 1; i < len(paths); i++ {
		assert.GreaterOrEqual(t, len(paths[i]), len(paths[i-1]))
	}
}

func TestPlayAnimationCancelled(t *testing.T) {
	a, err := NewPathAnimator(equatorPath, time.Hour, DefaultDurationBounds)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err = PlayAnimation(ctx, a, &mock.MapBackend{}, 5*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPlayAnimationBackendError(t *testing.T) {
	a, err := NewPathAnimator(equatorPath, 0, fastBounds)
	require.NoError(t, err)

	boom := errors.New("canvas gone")
	err = PlayAnimation(context.Background(), a, &mock.MapBackend{Err: boom}, 5*time.Millisecond)
	assert.ErrorIs(t, err, boom)

	assert.Error(t, PlayAnimation(context.Background(), a, &mock.MapBackend{}, 0))
}
