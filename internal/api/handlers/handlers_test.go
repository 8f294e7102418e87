package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"facility-route-service/internal/adapters/mock"
	"facility-route-service/internal/adapters/spatial"
	"facility-route-service/internal/api/dto"
	"facility-route-service/internal/domain"
	"facility-route-service/internal/ports"
	"facility-route-service/internal/services"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	astana  = domain.Coordinate{Lat: 51.1283, Lon: 71.4306}
	clinic  = domain.Coordinate{Lat: 51.1300, Lon: 71.4400}
	farAway = domain.Coordinate{Lat: 51.2000, Lon: 71.5000}
)

func facility(id string, typ domain.FacilityType, c domain.Coordinate) domain.Facility {
	return domain.Facility{
		ID:              domain.FacilityID("node", id),
		SourceType:      "node",
		SourceID:        id,
		Name:            "Facility " + id,
		Type:            typ,
		Location:        c,
		Specializations: []string{},
	}
}

func routePlan(from, to domain.Coordinate) domain.RoutePlan {
	mid := domain.Coordinate{Lat: (from.Lat + to.Lat) / 2, Lon: (from.Lon + to.Lon) / 2}
	return domain.RoutePlan{
		Geometry:        []domain.Coordinate{from, mid, to},
		DistanceMeters:  6000,
		DurationSeconds: 540,
	}
}

type testEnv struct {
	router   *mux.Router
	source   *mock.FacilitySource
	provider *mock.RouteProvider
	sessions *services.SessionStore
}

func newTestEnv(t *testing.T, responses []mock.Response, pairs ...mock.RoutePair) *testEnv {
	t.Helper()

	source := mock.NewFacilitySource(responses...)
	provider := mock.NewRouteProvider(pairs...)
	sessions := services.NewSessionStore(func() ports.FacilityIndex { return spatial.NewRTreeIndex() }, time.Hour)
	planner := services.NewRoutePlanner(provider, mock.NewRouteCache())

	facilities := &FacilityHandler{
		Finder:   services.NewFacilityFinder(services.NewRadiusSearch(source), services.DefaultSearchPolicy),
		Sessions: sessions,
	}
	routes := &RouteHandler{
		Planner:   planner,
		Estimator: services.NewTravelEstimator(planner, 2),
		Sessions:  sessions,
		Bounds:    services.DefaultDurationBounds,
	}

	r := mux.NewRouter()
	r.HandleFunc("/health", Health).Methods(http.MethodGet)
	r.HandleFunc("/facilities/nearby", facilities.Nearby).Methods(http.MethodGet)
	r.HandleFunc("/facilities/viewport", facilities.Viewport).Methods(http.MethodGet)
	r.HandleFunc("/facilities/nearest", facilities.Nearest).Methods(http.MethodGet)
	r.HandleFunc("/facilities/{source_type}/{source_id}", facilities.Get).Methods(http.MethodGet)
	r.HandleFunc("/routes", routes.Plan).Methods(http.MethodPost)
	r.HandleFunc("/routes/animation", routes.Animation).Methods(http.MethodPost)
	r.HandleFunc("/routes/estimates", routes.Estimates).Methods(http.MethodPost)

	return &testEnv{router: r, source: source, provider: provider, sessions: sessions}
}

func (e *testEnv) do(t *testing.T, method, target, session string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if session != "" {
		req.Header.Set(SessionHeader, session)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// search seeds a session with one nearby search and returns its id.
func (e *testEnv) search(t *testing.T) string {
	t.Helper()
	rec := e.do(t, http.MethodGet, "/facilities/nearby?lat=51.1283&lon=71.4306&types=clinic,hospital", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	id := rec.Header().Get(SessionHeader)
	require.NotEmpty(t, id)
	return id
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestNearbyRanksAndMintsSession(t *testing.T) {
	env := newTestEnv(t, []mock.Response{{Facilities: []domain.Facility{
		facility("2", domain.Hospital, farAway),
		facility("1", domain.Clinic, clinic),
		facility("1", domain.Clinic, clinic),
	}}})

	rec := env.do(t, http.MethodGet, "/facilities/nearby?lat=51.1283&lon=71.4306&types=clinic,hospital", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(SessionHeader))

	res := decode[dto.NearbyResponse](t, rec)
	require.Len(t, res.Facilities, 2)
	assert.Equal(t, "node/1", res.Facilities[0].ID)
	assert.Equal(t, "node/2", res.Facilities[1].ID)
	assert.LessOrEqual(t, *res.Facilities[0].DistanceKm, *res.Facilities[1].DistanceKm)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, 50000.0, res.RadiusMeters)
	assert.Empty(t, res.Message)

	calls := env.source.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, []domain.FacilityType{domain.Clinic, domain.Hospital}, calls[0].Types)
}

func TestNearbyEmptyAfterAllAttempts(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/facilities/nearby?lat=51.1283&lon=71.4306", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	res := decode[dto.NearbyResponse](t, rec)
	assert.Empty(t, res.Facilities)
	assert.NotNil(t, res.Facilities)
	assert.Equal(t, 4, res.Attempts)
	assert.Equal(t, nothingNearby, res.Message)
}

func TestNearbyRejectsBadInput(t *testing.T) {
	env := newTestEnv(t, nil)

	cases := map[string]string{
		"missing lat":  "/facilities/nearby?lon=71.43",
		"bad lon":      "/facilities/nearby?lat=51.1&lon=abc",
		"out of range": "/facilities/nearby?lat=95&lon=71.43",
		"unknown type": "/facilities/nearby?lat=51.1&lon=71.43&types=dentist",
	}
	for name, target := range cases {
		t.Run(name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, target, "", nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, env.source.Calls())
		})
	}
}

func TestNearbyUpstreamFailure(t *testing.T) {
	env := newTestEnv(t, []mock.Response{{Err: &domain.UpstreamError{Service: "overpass", Status: 504}}})

	rec := env.do(t, http.MethodGet, "/facilities/nearby?lat=51.1283&lon=71.4306", "", nil)
	require.Equal(t, http.StatusBadGateway, rec.Code)

	res := decode[dto.ErrorResponse](t, rec)
	assert.Equal(t, "upstream_error", res.Code)
	assert.True(t, res.Retryable)
}

func TestFacilityLookupUsesLatestSearch(t *testing.T) {
	env := newTestEnv(t, []mock.Response{{Facilities: []domain.Facility{facility("1", domain.Clinic, clinic)}}})
	session := env.search(t)

	rec := env.do(t, http.MethodGet, "/facilities/node/1", session, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Facility 1", decode[dto.FacilityResponse](t, rec).Name)

	rec = env.do(t, http.MethodGet, "/facilities/node/404", session, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/facilities/node/1", "other-session", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestViewportAndNearest(t *testing.T) {
	env := newTestEnv(t, []mock.Response{{Facilities: []domain.Facility{
		facility("1", domain.Clinic, clinic),
		facility("2", domain.Hospital, farAway),
	}}})
	session := env.search(t)

	rec := env.do(t, http.MethodGet, "/facilities/viewport?min_lat=51.12&min_lon=71.42&max_lat=51.14&max_lon=71.45", session, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	inView := decode[dto.ListFacilitiesResponse](t, rec)
	require.Len(t, inView.Facilities, 1)
	assert.Equal(t, "node/1", inView.Facilities[0].ID)

	rec = env.do(t, http.MethodGet, "/facilities/nearest?lat=51.2&lon=71.5&k=1", session, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	nearest := decode[dto.ListFacilitiesResponse](t, rec)
	require.Len(t, nearest.Facilities, 1)
	assert.Equal(t, "node/2", nearest.Facilities[0].ID)

	rec = env.do(t, http.MethodGet, "/facilities/viewport?min_lat=51.14&min_lon=71.42&max_lat=51.12&max_lon=71.45", session, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/facilities/nearest?lat=51.2&lon=71.5", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	none := decode[dto.ListFacilitiesResponse](t, rec)
	assert.Empty(t, none.Facilities)
	assert.NotEmpty(t, none.Message)
}

func TestPlanRouteToFacility(t *testing.T) {
	env := newTestEnv(t,
		[]mock.Response{{Facilities: []domain.Facility{facility("1", domain.Clinic, clinic)}}},
		mock.RoutePair{From: astana, To: clinic, Plan: routePlan(astana, clinic)},
	)
	session := env.search(t)

	rec := env.do(t, http.MethodPost, "/routes", session, dto.RouteRequest{
		Origin:     &dto.Coordinate{Lat: astana.Lat, Lon: astana.Lon},
		FacilityID: "node/1",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := decode[dto.RouteResponse](t, rec)
	assert.Equal(t, 6000.0, res.DistanceMeters)
	assert.Equal(t, 540.0, res.DurationSeconds)
	assert.Equal(t, 6.0, res.AnimationSeconds)
	require.NotNil(t, res.Facility)
	assert.Equal(t, "node/1", res.Facility.ID)
	require.NotNil(t, res.Geometry)
	assert.Equal(t, "LineString", res.Geometry.Type)
}

func TestPlanRouteErrors(t *testing.T) {
	island := domain.Coordinate{Lat: 45, Lon: 50}
	env := newTestEnv(t, nil,
		mock.RoutePair{From: astana, To: island, Err: domain.ErrNoRouteFound},
		mock.RoutePair{From: astana, To: farAway, Err: &domain.NetworkError{Service: "osrm"}},
	)
	origin := &dto.Coordinate{Lat: astana.Lat, Lon: astana.Lon}

	cases := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"no route", dto.RouteRequest{Origin: origin, Destination: &dto.Coordinate{Lat: 45, Lon: 50}}, http.StatusNotFound, "no_route"},
		{"routing down", dto.RouteRequest{Origin: origin, Destination: &dto.Coordinate{Lat: farAway.Lat, Lon: farAway.Lon}}, http.StatusServiceUnavailable, "routing_unavailable"},
		{"missing origin", dto.RouteRequest{Destination: origin}, http.StatusBadRequest, ""},
		{"missing destination", dto.RouteRequest{Origin: origin}, http.StatusBadRequest, ""},
		{"unknown facility", dto.RouteRequest{Origin: origin, FacilityID: "node/9"}, http.StatusBadRequest, ""},
		{"bad coordinate", dto.RouteRequest{Origin: origin, Destination: &dto.Coordinate{Lat: 91}}, http.StatusBadRequest, ""},
		{"unknown field", map[string]any{"origin": origin, "to": "x"}, http.StatusBadRequest, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/routes", "", tc.body)
			require.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.Equal(t, tc.code, decode[dto.ErrorResponse](t, rec).Code)
		})
	}
}

func TestRouteAnimationFrames(t *testing.T) {
	env := newTestEnv(t, nil, mock.RoutePair{From: astana, To: clinic, Plan: routePlan(astana, clinic)})

	rec := env.do(t, http.MethodPost, "/routes/animation", "", dto.AnimationRequest{
		RouteRequest: dto.RouteRequest{
			Origin:      &dto.Coordinate{Lat: astana.Lat, Lon: astana.Lon},
			Destination: &dto.Coordinate{Lat: clinic.Lat, Lon: clinic.Lon},
		},
		Frames: 5,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := decode[dto.AnimationResponse](t, rec)
	assert.Equal(t, 6.0, res.DurationSeconds)
	require.Len(t, res.Frames, 5)
	assert.Equal(t, 0.0, res.Frames[0].ElapsedFraction)
	assert.Equal(t, "Point", res.Frames[0].Path.Type)
	assert.Equal(t, 1.0, res.Frames[4].ElapsedFraction)
	assert.Equal(t, "LineString", res.Frames[4].Path.Type)
	for i := 1; i < len(res.Frames); i++ {
		assert.GreaterOrEqual(t, res.Frames[i].ElapsedFraction, res.Frames[i-1].ElapsedFraction)
	}

	require.NotNil(t, res.Scene)
	require.Len(t, res.Scene.Features, 1)
	assert.Equal(t, "LineString", res.Scene.Features[0].Geometry.GeoJSONType())
	assert.Contains(t, res.Scene.ExtraMembers, "camera")
}

func TestRouteAnimationRejectsFrameCount(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodPost, "/routes/animation", "", dto.AnimationRequest{
		RouteRequest: dto.RouteRequest{
			Origin:      &dto.Coordinate{Lat: astana.Lat, Lon: astana.Lon},
			Destination: &dto.Coordinate{Lat: clinic.Lat, Lon: clinic.Lon},
		},
		Frames: 500,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, env.provider.Calls())
}

func TestEstimatesOrderedByDuration(t *testing.T) {
	slow := routePlan(astana, farAway)
	slow.DurationSeconds = 1200
	env := newTestEnv(t,
		[]mock.Response{{Facilities: []domain.Facility{
			facility("1", domain.Clinic, clinic),
			facility("2", domain.Hospital, farAway),
			facility("3", domain.Hospital, domain.Coordinate{Lat: 45, Lon: 50}),
		}}},
		mock.RoutePair{From: astana, To: clinic, Plan: routePlan(astana, clinic)},
		mock.RoutePair{From: astana, To: farAway, Plan: slow},
		mock.RoutePair{From: astana, To: domain.Coordinate{Lat: 45, Lon: 50}, Err: domain.ErrNoRouteFound},
	)
	session := env.search(t)

	rec := env.do(t, http.MethodPost, "/routes/estimates", session, dto.EstimatesRequest{
		Origin:      &dto.Coordinate{Lat: astana.Lat, Lon: astana.Lon},
		FacilityIDs: []string{"node/3", "node/2", "node/1"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := decode[dto.ListEstimatesResponse](t, rec)
	require.Len(t, res.Estimates, 3)
	assert.Equal(t, "node/1", res.Estimates[0].Facility.ID)
	assert.Equal(t, "node/2", res.Estimates[1].Facility.ID)
	assert.Equal(t, "node/3", res.Estimates[2].Facility.ID)
	require.NotNil(t, res.Estimates[2].Error)
	assert.Equal(t, "no_route", res.Estimates[2].Error.Code)
}

func TestEstimatesValidation(t *testing.T) {
	env := newTestEnv(t, []mock.Response{{Facilities: []domain.Facility{facility("1", domain.Clinic, clinic)}}})
	session := env.search(t)
	origin := &dto.Coordinate{Lat: astana.Lat, Lon: astana.Lon}

	tooMany := make([]string, 11)
	for i := range tooMany {
		tooMany[i] = "node/1"
	}

	cases := map[string]dto.EstimatesRequest{
		"no ids":     {Origin: origin},
		"too many":   {Origin: origin, FacilityIDs: tooMany},
		"unknown id": {Origin: origin, FacilityIDs: []string{"node/2"}},
		"no origin":  {FacilityIDs: []string{"node/1"}},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/routes/estimates", session, body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}
