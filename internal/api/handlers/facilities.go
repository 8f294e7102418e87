package handlers

import (
	"net/http"

	"facility-route-service/internal/api/dto"
	"facility-route-service/internal/domain"
	"facility-route-service/internal/geo"
	"facility-route-service/internal/services"

	"github.com/gorilla/mux"
)

const nothingNearby = "nothing found nearby"

type FacilityHandler struct {
	Finder   *services.FacilityFinder
	Sessions *services.SessionStore
}

// Nearby runs a radius-expanding search around lat/lon and commits the
// ranked result to the caller's session.
func (h *FacilityHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	center, err := queryCoordinate(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	types, err := domain.ParseFacilityTypes(r.URL.Query().Get("types"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	session := sessionFor(w, r, h.Sessions)

	res, err := h.Finder.Find(r.Context(), session, center, types)
	if err != nil {
		writeDomainError(w, r, "facilities.nearby", err)
		return
	}

	body := dto.NearbyResponse{
		Facilities:   dto.NewFacilityList(res.Facilities),
		Attempts:     res.Attempts,
		RadiusMeters: res.RadiusMeters,
		Superseded:   res.Superseded,
	}
	if res.Empty() {
		body.Message = nothingNearby
	}
	writeJSON(w, r, http.StatusOK, body)
}

// Viewport lists facilities of the latest search inside a bounding box.
func (h *FacilityHandler) Viewport(w http.ResponseWriter, r *http.Request) {
	var box geo.BoundingBox
	fields := []struct {
		name string
		dst  *float64
	}{
		{"min_lat", &box.MinLat},
		{"min_lon", &box.MinLon},
		{"max_lat", &box.MaxLat},
		{"max_lon", &box.MaxLon},
	}
	for _, f := range fields {
		v, err := queryFloat(r, f.name)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		*f.dst = v
	}
	if err := box.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	session, ok := existingSession(r, h.Sessions)
	if !ok {
		writeJSON(w, r, http.StatusOK, dto.ListFacilitiesResponse{
			Facilities: []dto.FacilityResponse{},
			Message:    "no search in this session yet",
		})
		return
	}

	writeJSON(w, r, http.StatusOK, dto.ListFacilitiesResponse{
		Facilities: dto.NewFacilityList(session.InViewport(box)),
	})
}

// Nearest returns the k facilities of the latest search closest to lat/lon.
func (h *FacilityHandler) Nearest(w http.ResponseWriter, r *http.Request) {
	c, err := queryCoordinate(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	k, err := queryInt(r, "k", 5, 1, 50)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	session, ok := existingSession(r, h.Sessions)
	if !ok {
		writeJSON(w, r, http.StatusOK, dto.ListFacilitiesResponse{
			Facilities: []dto.FacilityResponse{},
			Message:    "no search in this session yet",
		})
		return
	}

	writeJSON(w, r, http.StatusOK, dto.ListFacilitiesResponse{
		Facilities: dto.NewFacilityList(session.Nearest(c, k)),
	})
}

// Get looks up one facility of the latest search by element kind and id.
func (h *FacilityHandler) Get(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := domain.FacilityID(vars["source_type"], vars["source_id"])

	session, ok := existingSession(r, h.Sessions)
	if !ok {
		writeError(w, r, http.StatusNotFound, "facility not found")
		return
	}

	f, ok := session.Lookup(id)
	if !ok {
		writeError(w, r, http.StatusNotFound, "facility not found")
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewFacilityResponse(f))
}
