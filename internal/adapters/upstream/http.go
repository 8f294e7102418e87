// Package upstream is the shared HTTP boundary for external geodata services.
// It maps transport outcomes onto the domain error taxonomy and never retries.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"facility-route-service/internal/domain"
	"facility-route-service/internal/platform/obs"
)

const (
	DefaultTimeout = 30 * time.Second

	maxBodyBytes  = 16 << 20
	maxErrorBytes = 2048
)

type Client struct {
	session   *http.Client
	service   string
	userAgent string
}

// New builds a client for service. A nil httpClient gets DefaultTimeout.
func New(service, userAgent string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		session:   httpClient,
		service:   service,
		userAgent: userAgent,
	}
}

func (c *Client) Service() string { return c.service }

func (c *Client) NewRequest(
	ctx context.Context,
	method string,
	url string,
	body io.Reader,
	contentType string,
) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if body != nil && contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	return req, nil
}

// Do sends req once and returns the 2xx response body.
// Failures come back as *domain.NetworkError or *domain.UpstreamError.
func (c *Client) Do(req *http.Request) ([]byte, error) {
	ctx, span := obs.StartSpan(req.Context(), c.service+".http")
	defer span.End()

	resp, err := c.session.Do(req.WithContext(ctx))
	if err != nil {
		obs.UpstreamRequests.WithLabelValues(c.service, "network_error").Inc()
		span.RecordError(err)
		return nil, &domain.NetworkError{Service: c.service, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBytes))
		obs.UpstreamRequests.WithLabelValues(c.service, "status_error").Inc()
		upErr := &domain.UpstreamError{
			Service: c.service,
			Status:  resp.StatusCode,
			Body:    strings.TrimSpace(string(b)),
		}
		span.RecordError(upErr)
		return nil, upErr
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		obs.UpstreamRequests.WithLabelValues(c.service, "network_error").Inc()
		return nil, &domain.NetworkError{Service: c.service, Err: fmt.Errorf("read body: %w", err)}
	}
	if len(body) > maxBodyBytes {
		obs.UpstreamRequests.WithLabelValues(c.service, "parse_error").Inc()
		return nil, &domain.ParseError{Service: c.service, Err: errors.New("response body too large")}
	}

	obs.UpstreamRequests.WithLabelValues(c.service, "ok").Inc()
	return body, nil
}
