package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"facility-route-service/internal/api/dto"
	"facility-route-service/internal/domain"
	"facility-route-service/internal/platform/obs"
	"facility-route-service/internal/services"

	"github.com/google/uuid"
)

const SessionHeader = "X-Session-ID"

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		obs.Logger(r.Context()).Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("encode failed")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, dto.ErrorResponse{Error: msg})
}

// errorResponse maps domain failures onto status, code and user message.
// No-route and outages get different codes so clients can tell them apart.
func errorResponse(err error) (int, dto.ErrorResponse) {
	retryable := domain.Retryable(err)

	var (
		ne *domain.NetworkError
		ue *domain.UpstreamError
		pe *domain.ParseError
	)
	switch {
	case errors.Is(err, domain.ErrNoRouteFound):
		return http.StatusNotFound, dto.ErrorResponse{
			Error: "no drivable route to this destination",
			Code:  "no_route",
		}
	case errors.Is(err, domain.ErrRoutingUnavailable):
		return http.StatusServiceUnavailable, dto.ErrorResponse{
			Error:     "routing is unavailable, try again",
			Code:      "routing_unavailable",
			Retryable: retryable,
		}
	case errors.As(err, &ne):
		return http.StatusServiceUnavailable, dto.ErrorResponse{
			Error:     fmt.Sprintf("%s is unreachable, try again", ne.Service),
			Code:      "upstream_unreachable",
			Retryable: retryable,
		}
	case errors.As(err, &ue):
		return http.StatusBadGateway, dto.ErrorResponse{
			Error:     fmt.Sprintf("%s answered with status %d", ue.Service, ue.Status),
			Code:      "upstream_error",
			Retryable: retryable,
		}
	case errors.As(err, &pe):
		return http.StatusBadGateway, dto.ErrorResponse{
			Error:     fmt.Sprintf("%s sent an unreadable response", pe.Service),
			Code:      "upstream_bad_response",
			Retryable: retryable,
		}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, dto.ErrorResponse{
			Error:     "request cancelled",
			Code:      "cancelled",
			Retryable: true,
		}
	}
	return http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"}
}

func writeDomainError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, body := errorResponse(err)

	ev := obs.Logger(r.Context()).Warn()
	if status == http.StatusInternalServerError {
		ev = obs.Logger(r.Context()).Error()
	}
	ev.Err(err).Str("op", op).Int("status", status).Msg("request failed")

	writeJSON(w, r, status, body)
}

// decodeJSON reads exactly one JSON object from the body.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return errors.New("invalid json body")
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("body must contain only one JSON object")
	}
	return nil
}

// sessionFor returns the caller's session, minting an id if none was sent.
// The id is echoed back so the client can reuse it.
func sessionFor(w http.ResponseWriter, r *http.Request, store *services.SessionStore) *services.SearchSession {
	id := strings.TrimSpace(r.Header.Get(SessionHeader))
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set(SessionHeader, id)
	return store.Get(id)
}

// existingSession never creates a session.
func existingSession(r *http.Request, store *services.SessionStore) (*services.SearchSession, bool) {
	id := strings.TrimSpace(r.Header.Get(SessionHeader))
	if id == "" {
		return nil, false
	}
	return store.Peek(id)
}

func queryFloat(r *http.Request, name string) (float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", name)
	}
	return v, nil
}

func queryCoordinate(r *http.Request) (domain.Coordinate, error) {
	lat, err := queryFloat(r, "lat")
	if err != nil {
		return domain.Coordinate{}, err
	}
	lon, err := queryFloat(r, "lon")
	if err != nil {
		return domain.Coordinate{}, err
	}
	c := domain.Coordinate{Lat: lat, Lon: lon}
	if err := c.Validate(); err != nil {
		return domain.Coordinate{}, err
	}
	return c, nil
}

func queryInt(r *http.Request, name string, fallback, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < min || v > max {
		return 0, fmt.Errorf("%s must be an integer between %d and %d", name, min, max)
	}
	return v, nil
}
