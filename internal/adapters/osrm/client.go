package osrm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"facility-route-service/internal/adapters/upstream"
	"facility-route-service/internal/domain"
	"facility-route-service/internal/platform/obs"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

const (
	DefaultBaseURL = "https://router.project-osrm.org"
	DefaultProfile = "driving"

	serviceName = "osrm"
)

// Response codes that mean the graph has no path, as opposed to a failure.
var noRouteCodes = map[string]struct{}{
	"NoRoute":   {},
	"NoSegment": {},
}

type Options struct {
	BaseURL    string
	Profile    string
	UserAgent  string
	HTTPClient *http.Client
}

// Client implements ports.RouteProvider using the OSRM route service.
//
// Errors are returned as the upstream package produced them, plus
// domain.ErrNoRouteFound. Mapping to routing availability happens in the
// planner.
// The client is safe for concurrent use.
type Client struct {
	http    *upstream.Client
	baseURL string
	profile string
}

func NewClient(opts Options) *Client {
	if strings.TrimSpace(opts.BaseURL) == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if strings.TrimSpace(opts.Profile) == "" {
		opts.Profile = DefaultProfile
	}

	return &Client{
		http:    upstream.New(serviceName, opts.UserAgent, opts.HTTPClient),
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		profile: opts.Profile,
	}
}

type routeResponse struct {
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Routes  []route `json:"routes"`
}

type route struct {
	Geometry json.RawMessage `json:"geometry"`
	Distance float64         `json:"distance"`
	Duration float64         `json:"duration"`
}

func (c *Client) routeURL(req domain.RouteRequest) string {
	return fmt.Sprintf(
		"%s/route/v1/%s/%.6f,%.6f;%.6f,%.6f?overview=full&geometries=geojson",
		c.baseURL, c.profile,
		req.Origin.Lon, req.Origin.Lat,
		req.Destination.Lon, req.Destination.Lat,
	)
}

func (c *Client) Route(ctx context.Context, req domain.RouteRequest) (_ domain.RoutePlan, err error) {
	defer obs.Time(ctx, "osrm.Route")(&err)

	if err := req.Validate(); err != nil {
		return domain.RoutePlan{}, err
	}

	httpReq, err := c.http.NewRequest(ctx, http.MethodGet, c.routeURL(req), nil, "")
	if err != nil {
		return domain.RoutePlan{}, err
	}

	body, err := c.http.Do(httpReq)
	if err != nil {
		// OSRM reports unroutable input with a 400 and a JSON code.
		var ue *domain.UpstreamError
		if errors.As(err, &ue) && ue.Status == http.StatusBadRequest && isNoRouteBody([]byte(ue.Body)) {
			return domain.RoutePlan{}, domain.ErrNoRouteFound
		}
		return domain.RoutePlan{}, err
	}

	var decoded routeResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return domain.RoutePlan{}, &domain.ParseError{Service: serviceName, Err: err}
	}

	if _, ok := noRouteCodes[decoded.Code]; ok {
		return domain.RoutePlan{}, domain.ErrNoRouteFound
	}
	if decoded.Code != "Ok" {
		return domain.RoutePlan{}, &domain.ParseError{
			Service: serviceName,
			Err:     fmt.Errorf("unexpected code %q: %s", decoded.Code, decoded.Message),
		}
	}
	if len(decoded.Routes) == 0 {
		return domain.RoutePlan{}, domain.ErrNoRouteFound
	}

	best := decoded.Routes[0]
	geometry, err := decodeLineString(best.Geometry)
	if err != nil {
		return domain.RoutePlan{}, &domain.ParseError{Service: serviceName, Err: err}
	}

	plan := domain.RoutePlan{
		Geometry:        geometry,
		DistanceMeters:  best.Distance,
		DurationSeconds: best.Duration,
	}
	if err := plan.Validate(); err != nil {
		return domain.RoutePlan{}, &domain.ParseError{Service: serviceName, Err: err}
	}

	return plan, nil
}

// decodeLineString turns a GeoJSON LineString ([lon, lat] pairs) into
// ordered coordinates.
func decodeLineString(raw json.RawMessage) ([]domain.Coordinate, error) {
	if len(raw) == 0 {
		return nil, errors.New("route has no geometry")
	}

	g, err := geojson.UnmarshalGeometry(raw)
	if err != nil {
		return nil, fmt.Errorf("decode geometry: %w", err)
	}

	ls, ok := g.Coordinates.(orb.LineString)
	if !ok {
		return nil, fmt.Errorf("geometry is %s, want LineString", g.Type)
	}

	out := make([]domain.Coordinate, 0, len(ls))
	for _, p := range ls {
		out = append(out, domain.Coordinate{Lat: p.Lat(), Lon: p.Lon()})
	}
	return out, nil
}

func isNoRouteBody(body []byte) bool {
	var decoded routeResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return false
	}
	_, ok := noRouteCodes[decoded.Code]
	return ok
}
