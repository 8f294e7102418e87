package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"facility-route-service/internal/domain"
	"facility-route-service/internal/platform/obs"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// SQLRouteCache is a SQL-backed cache of planned routes keyed by rounded
// origin and destination. Geometry is stored as a GeoJSON LineString.
type SQLRouteCache struct {
	DB *sql.DB
	// Entries older than MaxAge are ignored. Zero keeps entries forever.
	MaxAge time.Duration
	now    func() time.Time
}

func NewSQLRouteCache(db *sql.DB, maxAge time.Duration) *SQLRouteCache {
	return &SQLRouteCache{DB: db, MaxAge: maxAge, now: time.Now}
}

// routeKey rounds to 5 decimals (about 1 m) so repeated taps on the same
// spot share an entry.
func routeKey(c domain.Coordinate) string {
	return fmt.Sprintf("%.5f,%.5f", c.Lat, c.Lon)
}

func (s *SQLRouteCache) cutoff() time.Time {
	if s.MaxAge <= 0 {
		return time.Unix(0, 0).UTC()
	}
	return s.now().Add(-s.MaxAge).UTC()
}

// Fetch a cached plan. A miss is (zero, false, nil).
func (s *SQLRouteCache) Get(ctx context.Context, req domain.RouteRequest) (_ domain.RoutePlan, _ bool, err error) {
	defer obs.Time(ctx, "route.cache.Get")(&err)

	if s.DB == nil {
		return domain.RoutePlan{}, false, errors.New("route cache: db is nil")
	}

	q := `
	SELECT geometry, distance_meters, duration_seconds
	FROM route_cache
	WHERE origin = $1
		AND destination = $2
		AND created_at > $3;
	`

	var (
		raw     string
		meters  float64
		seconds float64
	)
	err = s.DB.QueryRowContext(ctx, q, routeKey(req.Origin), routeKey(req.Destination), s.cutoff()).
		Scan(&raw, &meters, &seconds)
	if errors.Is(err, sql.ErrNoRows) {
		obs.CacheLookups.WithLabelValues("route", "miss").Inc()
		return domain.RoutePlan{}, false, nil
	}
	if err != nil {
		return domain.RoutePlan{}, false, fmt.Errorf("get route cache: query route_cache table: %w", err)
	}

	geometry, err := decodeGeometry(raw)
	if err != nil {
		return domain.RoutePlan{}, false, fmt.Errorf("get route cache: %w", err)
	}

	obs.CacheLookups.WithLabelValues("route", "hit").Inc()
	return domain.RoutePlan{
		Geometry:        geometry,
		DistanceMeters:  meters,
		DurationSeconds: seconds,
	}, true, nil
}

// Store or refresh a plan.
func (s *SQLRouteCache) Put(ctx context.Context, req domain.RouteRequest, plan domain.RoutePlan) error {
	if s.DB == nil {
		return errors.New("route cache: db is nil")
	}
	if err := plan.Validate(); err != nil {
		return fmt.Errorf("insert route cache: %w", err)
	}

	raw, err := encodeGeometry(plan.Geometry)
	if err != nil {
		return fmt.Errorf("insert route cache: %w", err)
	}

	q := `
	INSERT INTO route_cache (origin, destination, geometry, distance_meters, duration_seconds, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (origin, destination) DO UPDATE
	SET geometry = EXCLUDED.geometry,
		distance_meters = EXCLUDED.distance_meters,
		duration_seconds = EXCLUDED.duration_seconds,
		created_at = EXCLUDED.created_at;
	`
	if _, err := s.DB.ExecContext(ctx, q,
		routeKey(req.Origin), routeKey(req.Destination),
		raw, plan.DistanceMeters, plan.DurationSeconds, s.now().UTC(),
	); err != nil {
		return fmt.Errorf("insert route cache %s -> %s: %w", routeKey(req.Origin), routeKey(req.Destination), err)
	}

	return nil
}

func encodeGeometry(path []domain.Coordinate) (string, error) {
	ls := make(orb.LineString, 0, len(path))
	for _, c := range path {
		ls = append(ls, orb.Point{c.Lon, c.Lat})
	}

	b, err := geojson.NewGeometry(ls).MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("encode geometry: %w", err)
	}
	return string(b), nil
}

func decodeGeometry(raw string) ([]domain.Coordinate, error) {
	g, err := geojson.UnmarshalGeometry([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("decode geometry: %w", err)
	}
	ls, ok := g.Coordinates.(orb.LineString)
	if !ok {
		return nil, fmt.Errorf("decode geometry: got %s, want LineString", g.Type)
	}

	out := make([]domain.Coordinate, len(ls))
	for i, p := range ls {
		out[i] = domain.Coordinate{Lat: p.Lat(), Lon: p.Lon()}
	}
	return out, nil
}
