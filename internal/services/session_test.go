package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"facility-route-service/internal/adapters/mock"
	"facility-route-service/internal/adapters/spatial"
	"facility-route-service/internal/domain"
	"facility-route-service/internal/geo"
	"facility-route-service/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIndex() ports.FacilityIndex { return spatial.NewRTreeIndex() }

func TestSearchSessionLastWriteWins(t *testing.T) {
	s := NewSearchSession(newIndex())

	first := s.Begin()
	second := s.Begin()

	newer := []domain.Facility{pharmacy("new", 51.13, 71.43)}
	older := []domain.Facility{pharmacy("old", 51.2, 71.5)}

	require.True(t, s.Commit(second, astana, newer))
	assert.False(t, s.Commit(first, astana, older), "stale generation must be dropped")

	got, center, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, astana, center)
	assert.Equal(t, newer, got)

	_, found := s.Lookup("node/old")
	assert.False(t, found)
}

func TestSearchSessionViewportAndNearest(t *testing.T) {
	s := NewSearchSession(newIndex())
	ranked := Aggregate([]domain.Facility{
		pharmacy("a", 51.13, 71.43),
		pharmacy("b", 51.20, 71.50),
		pharmacy("c", 53.00, 73.00),
	}, astana)
	require.True(t, s.Commit(s.Begin(), astana, ranked))

	inView := s.InViewport(geo.Around(astana, 15000))
	assert.Len(t, inView, 2)
	assert.Equal(t, "node/a", inView[0].ID)

	nearest := s.Nearest(domain.Coordinate{Lat: 53, Lon: 73}, 1)
	require.Len(t, nearest, 1)
	assert.Equal(t, "node/c", nearest[0].ID)

	f, ok := s.Lookup("node/b")
	require.True(t, ok)
	require.NotNil(t, f.DistanceKm)
}

func TestSearchSessionBeforeCommit(t *testing.T) {
	s := NewSearchSession(nil)
	_, _, ok := s.Latest()
	assert.False(t, ok)
	assert.Empty(t, s.InViewport(geo.Around(astana, 1000)))
}

func TestSessionStoreSweep(t *testing.T) {
	st := NewSessionStore(newIndex, time.Minute)
	st.Get("a")
	st.Get("b")
	assert.Same(t, st.Get("a"), st.Get("a"))
	require.Equal(t, 2, st.Len())

	assert.Equal(t, 0, st.Sweep(time.Now()))
	assert.Equal(t, 2, st.Sweep(time.Now().Add(2*time.Minute)))
	_, ok := st.Peek("a")
	assert.False(t, ok)
}

func TestFacilityFinderSupersededSearch(t *testing.T) {
	session := NewSearchSession(newIndex())

	slowStarted := make(chan struct{})
	releaseSlow := make(chan struct{})

	slowSrc := mock.NewFacilitySource(mock.Response{Facilities: []domain.Facility{pharmacy("slow", 51.2, 71.5)}})
	slowSrc.Hook = func(ctx context.Context, call int) {
		close(slowStarted)
		<-releaseSlow
	}
	fastSrc := mock.NewFacilitySource(mock.Response{Facilities: []domain.Facility{pharmacy("fast", 51.13, 71.43)}})

	slow := NewFacilityFinder(NewRadiusSearch(slowSrc), DefaultSearchPolicy)
	fast := NewFacilityFinder(NewRadiusSearch(fastSrc), DefaultSearchPolicy)

	var wg sync.WaitGroup
	var slowResult *FindResult
	wg.Add(1)
	go func() {
		defer wg.Done()
		var err error
		slowResult, err = slow.Find(context.Background(), session, astana, nil)
		assert.NoError(t, err)
	}()

	<-slowStarted
	fastResult, err := fast.Find(context.Background(), session, astana, nil)
	require.NoError(t, err)
	assert.False(t, fastResult.Superseded)

	close(releaseSlow)
	wg.Wait()

	require.NotNil(t, slowResult)
	assert.True(t, slowResult.Superseded)

	latest, _, ok := session.Latest()
	require.True(t, ok)
	require.Len(t, latest, 1)
	assert.Equal(t, "node/fast", latest[0].ID)
}

func TestFacilityFinderEmptyIsNotAnError(t *testing.T) {
	finder := NewFacilityFinder(NewRadiusSearch(mock.NewFacilitySource()), DefaultSearchPolicy)

	res, err := finder.Find(context.Background(), nil, astana, []domain.FacilityType{domain.Hospital})
	require.NoError(t, err)
	assert.True(t, res.Empty())
	assert.Equal(t, 4, res.Attempts)
}
