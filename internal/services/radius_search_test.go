package services

import (
	"context"
	"errors"
	"testing"

	"facility-route-service/internal/adapters/mock"
	"facility-route-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var astana = domain.Coordinate{Lat: 51.1283, Lon: 71.4306}

func pharmacy(id string, lat, lon float64) domain.Facility {
	return domain.Facility{
		ID:         domain.FacilityID("node", id),
		SourceType: "node",
		SourceID:   id,
		Name:       "Pharmacy " + id,
		Type:       domain.Pharmacy,
		Location:   domain.Coordinate{Lat: lat, Lon: lon},
	}
}

func astanaRequest() domain.SearchRequest {
	return DefaultSearchPolicy.Request(astana, nil)
}

func TestRadiusSearchExpandsUntilFound(t *testing.T) {
	found := []domain.Facility{
		pharmacy("1", 52.0, 71.4),
		pharmacy("2", 52.1, 71.5),
		pharmacy("3", 50.3, 71.2),
	}
	src := mock.NewFacilitySource(
		mock.Response{},
		mock.Response{},
		mock.Response{Facilities: found},
		mock.Response{Facilities: []domain.Facility{pharmacy("4", 51, 71)}},
	)

	outcome, err := NewRadiusSearch(src).Search(context.Background(), astanaRequest())
	require.NoError(t, err)

	assert.Equal(t, found, outcome.Facilities)
	assert.Equal(t, 3, outcome.Attempts)
	assert.Equal(t, 200000.0, outcome.RadiusMeters)
	assert.False(t, outcome.Empty())

	calls := src.Calls()
	require.Len(t, calls, 3, "no fourth call once results arrive")
	assert.Equal(t, 50000.0, calls[0].RadiusMeters)
	assert.Equal(t, 100000.0, calls[1].RadiusMeters)
	assert.Equal(t, 200000.0, calls[2].RadiusMeters)
	for _, c := range calls {
		assert.Equal(t, astana, c.Center)
		assert.Equal(t, domain.AllFacilityTypes(), c.Types)
	}
}

func TestRadiusSearchRadiiAreExactPowers(t *testing.T) {
	src := mock.NewFacilitySource()
	req := domain.SearchRequest{
		Center:              astana,
		InitialRadiusMeters: 1500,
		MaxAttempts:         6,
		RadiusMultiplier:    1.5,
	}

	outcome, err := NewRadiusSearch(src).Search(context.Background(), req)
	require.NoError(t, err)

	calls := src.Calls()
	require.Len(t, calls, 6)
	for i, c := range calls {
		assert.Equal(t, req.RadiusForAttempt(i), c.RadiusMeters)
	}
	assert.Equal(t, 6, outcome.Attempts)
}

func TestRadiusSearchExhaustedIsEmptySuccess(t *testing.T) {
	src := mock.NewFacilitySource()

	outcome, err := NewRadiusSearch(src).Search(context.Background(), astanaRequest())
	require.NoError(t, err)

	assert.True(t, outcome.Empty())
	assert.NotNil(t, outcome.Facilities)
	assert.Equal(t, 4, outcome.Attempts)
	assert.Len(t, src.Calls(), 4)
	assert.Equal(t, 400000.0, outcome.RadiusMeters)
}

func TestRadiusSearchErrorAborts(t *testing.T) {
	upstream := &domain.UpstreamError{Service: "overpass", Status: 429}
	src := mock.NewFacilitySource(
		mock.Response{},
		mock.Response{Err: upstream},
		mock.Response{Facilities: []domain.Facility{pharmacy("1", 51, 71)}},
	)

	outcome, err := NewRadiusSearch(src).Search(context.Background(), astanaRequest())
	assert.Nil(t, outcome)
	assert.Same(t, upstream, err)
	assert.Len(t, src.Calls(), 2)
}

func TestRadiusSearchParseErrorAborts(t *testing.T) {
	src := mock.NewFacilitySource(mock.Response{Err: &domain.ParseError{Service: "overpass", Err: errors.New("eof")}})

	_, err := NewRadiusSearch(src).Search(context.Background(), astanaRequest())
	var pe *domain.ParseError
	assert.True(t, errors.As(err, &pe))
	assert.Len(t, src.Calls(), 1)
}

func TestRadiusSearchStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := mock.NewFacilitySource()
	src.Hook = func(ctx context.Context, call int) {
		if call == 1 {
			cancel()
		}
	}

	_, err := NewRadiusSearch(src).Search(ctx, astanaRequest())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, src.Calls(), 2)
}

func TestRadiusSearchRejectsInvalidRequest(t *testing.T) {
	src := mock.NewFacilitySource()
	req := astanaRequest()
	req.MaxAttempts = 0

	_, err := NewRadiusSearch(src).Search(context.Background(), req)
	assert.Error(t, err)
	assert.Empty(t, src.Calls())
}
