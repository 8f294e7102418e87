package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"facility-route-service/internal/adapters/render"
	"facility-route-service/internal/api/dto"
	"facility-route-service/internal/domain"
	"facility-route-service/internal/services"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

const (
	defaultFrames = 10
	maxFrames     = 200
	maxEstimates  = 10
	arrivalZoom   = 15
)

type RouteHandler struct {
	Planner   *services.RoutePlanner
	Estimator *services.TravelEstimator
	Sessions  *services.SessionStore
	Bounds    services.DurationBounds
}

var errUnknownFacility = errors.New("facility_id is not part of the latest search")

// resolve turns a route body into a domain request. The destination may be
// given directly or as a facility id from the caller's latest search.
func (h *RouteHandler) resolve(r *http.Request, body dto.RouteRequest) (domain.RouteRequest, *domain.Facility, error) {
	if body.Origin == nil {
		return domain.RouteRequest{}, nil, errors.New("origin is required")
	}
	req := domain.RouteRequest{Origin: body.Origin.Domain()}

	var target *domain.Facility
	switch {
	case body.Destination != nil && strings.TrimSpace(body.FacilityID) != "":
		return domain.RouteRequest{}, nil, errors.New("give either destination or facility_id, not both")
	case body.Destination != nil:
		req.Destination = body.Destination.Domain()
	case strings.TrimSpace(body.FacilityID) != "":
		session, ok := existingSession(r, h.Sessions)
		if !ok {
			return domain.RouteRequest{}, nil, errUnknownFacility
		}
		f, ok := session.Lookup(strings.TrimSpace(body.FacilityID))
		if !ok {
			return domain.RouteRequest{}, nil, errUnknownFacility
		}
		req.Destination = f.Location
		target = &f
	default:
		return domain.RouteRequest{}, nil, errors.New("destination or facility_id is required")
	}

	if err := req.Validate(); err != nil {
		return domain.RouteRequest{}, nil, err
	}
	return req, target, nil
}

// Plan computes a route to a coordinate or to a facility of the latest search.
func (h *RouteHandler) Plan(w http.ResponseWriter, r *http.Request) {
	var body dto.RouteRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	req, target, err := h.resolve(r, body)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	plan, err := h.Planner.PlanRoute(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, "routes.plan", err)
		return
	}

	res := dto.RouteResponse{
		Geometry:         geojson.NewGeometry(render.LineString(plan.Geometry)),
		DistanceMeters:   plan.DistanceMeters,
		DurationSeconds:  plan.DurationSeconds,
		AnimationSeconds: h.Bounds.Clamp(services.SuggestedDuration(plan)).Seconds(),
	}
	if target != nil {
		f := dto.NewFacilityResponse(*target)
		res.Facility = &f
	}
	writeJSON(w, r, http.StatusOK, res)
}

// Animation plans a route and samples evenly spaced animation frames, along
// with the final map scene.
func (h *RouteHandler) Animation(w http.ResponseWriter, r *http.Request) {
	var body dto.AnimationRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	frames := body.Frames
	if frames == 0 {
		frames = defaultFrames
	}
	if frames < 2 || frames > maxFrames {
		writeError(w, r, http.StatusBadRequest, "frames must be between 2 and 200")
		return
	}

	req, target, err := h.resolve(r, body.RouteRequest)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	plan, err := h.Planner.PlanRoute(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, "routes.animation", err)
		return
	}

	animator, err := services.NewPathAnimator(plan.Geometry, services.SuggestedDuration(plan), h.Bounds)
	if err != nil {
		writeDomainError(w, r, "routes.animation", err)
		return
	}

	total := animator.Duration()
	res := dto.AnimationResponse{
		DurationSeconds: total.Seconds(),
		Frames:          make([]dto.FrameResponse, 0, frames),
	}
	for i := 0; i < frames; i++ {
		elapsed := time.Duration(float64(total) * float64(i) / float64(frames-1))
		frame := animator.Progress(elapsed)
		res.Frames = append(res.Frames, dto.FrameResponse{
			ElapsedSeconds:  elapsed.Seconds(),
			ElapsedFraction: frame.ElapsedFraction,
			Path:            pathGeometry(frame.VisiblePrefix),
		})
	}

	scene, err := finalScene(r.Context(), req, target, plan)
	if err != nil {
		writeDomainError(w, r, "routes.animation", err)
		return
	}
	res.Scene = scene

	writeJSON(w, r, http.StatusOK, res)
}

// Estimates plans routes to several facilities of the latest search and
// returns them fastest first.
func (h *RouteHandler) Estimates(w http.ResponseWriter, r *http.Request) {
	var body dto.EstimatesRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if body.Origin == nil {
		writeError(w, r, http.StatusBadRequest, "origin is required")
		return
	}
	origin := body.Origin.Domain()
	if err := origin.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if len(body.FacilityIDs) == 0 || len(body.FacilityIDs) > maxEstimates {
		writeError(w, r, http.StatusBadRequest, "facility_ids must hold between 1 and 10 ids")
		return
	}

	session, ok := existingSession(r, h.Sessions)
	if !ok {
		writeError(w, r, http.StatusBadRequest, errUnknownFacility.Error())
		return
	}

	facilities := make([]domain.Facility, 0, len(body.FacilityIDs))
	for _, id := range body.FacilityIDs {
		f, ok := session.Lookup(strings.TrimSpace(id))
		if !ok {
			writeError(w, r, http.StatusBadRequest, errUnknownFacility.Error()+": "+id)
			return
		}
		facilities = append(facilities, f)
	}

	estimates := h.Estimator.Estimate(r.Context(), origin, facilities)

	res := dto.ListEstimatesResponse{Estimates: make([]dto.EstimateResponse, 0, len(estimates))}
	for _, e := range estimates {
		item := dto.EstimateResponse{
			Facility:        dto.NewFacilityResponse(e.Facility),
			DistanceMeters:  e.DistanceMeters,
			DurationSeconds: e.DurationSeconds,
		}
		if e.Err != nil {
			_, body := errorResponse(e.Err)
			item.Error = &body
		}
		res.Estimates = append(res.Estimates, item)
	}
	writeJSON(w, r, http.StatusOK, res)
}

func pathGeometry(path []domain.Coordinate) *geojson.Geometry {
	if len(path) == 1 {
		return geojson.NewGeometry(orb.Point{path[0].Lon, path[0].Lat})
	}
	return geojson.NewGeometry(render.LineString(path))
}

// finalScene renders the end state of the animation through the GeoJSON
// map backend.
func finalScene(ctx context.Context, req domain.RouteRequest, target *domain.Facility, plan domain.RoutePlan) (*geojson.FeatureCollection, error) {
	backend := render.NewGeoJSONBackend(nil)

	if target != nil {
		if err := backend.RenderMarkers(ctx, []domain.Facility{*target}); err != nil {
			return nil, err
		}
	}
	if err := backend.RenderPath(ctx, plan.Geometry); err != nil {
		return nil, err
	}
	if err := backend.FlyTo(ctx, req.Destination, arrivalZoom); err != nil {
		return nil, err
	}
	return backend.Scene(), nil
}
