package domain

import (
	"errors"
	"fmt"
)

// ErrNoRouteFound is an expected routing outcome (islands, closed borders),
// distinct from the service being unreachable.
var ErrNoRouteFound = errors.New("no route found between origin and destination")

// ErrRoutingUnavailable matches any *RoutingUnavailableError via errors.Is.
var ErrRoutingUnavailable = errors.New("routing unavailable")

// NetworkError means the upstream never produced a response.
type NetworkError struct {
	Service string
	Err     error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Service, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// UpstreamError means the upstream answered with a non-2xx status.
type UpstreamError struct {
	Service string
	Status  int
	Body    string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: upstream status %d", e.Service, e.Status)
	}
	return fmt.Sprintf("%s: upstream status %d: %s", e.Service, e.Status, e.Body)
}

// ParseError means the upstream answered 2xx with a payload we could not decode.
type ParseError struct {
	Service string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: parse response: %v", e.Service, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// RoutingUnavailableError wraps the transport, upstream or parse failure that
// kept the route planner from getting an answer.
type RoutingUnavailableError struct {
	Err error
}

func (e *RoutingUnavailableError) Error() string {
	return fmt.Sprintf("routing unavailable: %v", e.Err)
}

func (e *RoutingUnavailableError) Unwrap() error { return e.Err }

func (e *RoutingUnavailableError) Is(target error) bool { return target == ErrRoutingUnavailable }

// Retryable reports whether a user-triggered retry may succeed.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, ErrNoRouteFound) {
		return false
	}

	var ne *NetworkError
	if errors.As(err, &ne) {
		return true
	}

	var ue *UpstreamError
	if errors.As(err, &ue) {
		switch ue.Status {
		case 408, 429, 500, 502, 503, 504:
			return true
		}
		return false
	}

	return errors.Is(err, ErrRoutingUnavailable)
}
