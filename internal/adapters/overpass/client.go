package overpass

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"facility-route-service/internal/adapters/upstream"
	"facility-route-service/internal/domain"
	"facility-route-service/internal/platform/obs"
)

const (
	DefaultBaseURL         = "https://overpass-api.de/api/interpreter"
	DefaultMaxRadiusMeters = 200000
	DefaultQueryTimeout    = 25

	serviceName = "overpass"
)

type Options struct {
	BaseURL string
	// Upper bound applied to every query radius.
	MaxRadiusMeters float64
	// Server-side query timeout in seconds.
	QueryTimeoutSeconds int
	UserAgent           string
	HTTPClient          *http.Client
}

// Client implements ports.FacilitySource against an Overpass interpreter.
//
// One FetchFacilities call is one POST. Retrying a fruitless or failed query
// belongs to the caller.
// The client is safe for concurrent use.
type Client struct {
	http            *upstream.Client
	baseURL         string
	maxRadiusMeters float64
	queryTimeout    int
}

func NewClient(opts Options) *Client {
	if strings.TrimSpace(opts.BaseURL) == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.MaxRadiusMeters <= 0 {
		opts.MaxRadiusMeters = DefaultMaxRadiusMeters
	}
	if opts.QueryTimeoutSeconds <= 0 {
		opts.QueryTimeoutSeconds = DefaultQueryTimeout
	}

	return &Client{
		http:            upstream.New(serviceName, opts.UserAgent, opts.HTTPClient),
		baseURL:         opts.BaseURL,
		maxRadiusMeters: opts.MaxRadiusMeters,
		queryTimeout:    opts.QueryTimeoutSeconds,
	}
}

// ClampRadius bounds radiusMeters to the configured service ceiling.
func (c *Client) ClampRadius(radiusMeters float64) float64 {
	if radiusMeters > c.maxRadiusMeters {
		return c.maxRadiusMeters
	}
	return radiusMeters
}

func (c *Client) FetchFacilities(
	ctx context.Context,
	center domain.Coordinate,
	radiusMeters float64,
	types []domain.FacilityType,
) (_ []domain.Facility, err error) {
	defer obs.Time(ctx, "overpass.FetchFacilities")(&err)

	if err := center.Validate(); err != nil {
		return nil, err
	}
	if radiusMeters <= 0 {
		return nil, errors.New("fetch facilities: radius must be positive")
	}
	if len(types) == 0 {
		types = domain.AllFacilityTypes()
	}

	query := buildQuery(center, c.ClampRadius(radiusMeters), types, c.queryTimeout)

	form := url.Values{}
	form.Set("data", query)

	req, err := c.http.NewRequest(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return nil, err
	}

	body, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}

	var decoded response
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, &domain.ParseError{Service: serviceName, Err: err}
	}
	if decoded.Elements == nil {
		return nil, &domain.ParseError{Service: serviceName, Err: errors.New("missing elements array")}
	}

	return normalizeElements(decoded.Elements, types), nil
}
