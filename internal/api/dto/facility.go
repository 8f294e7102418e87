package dto

import "facility-route-service/internal/domain"

type FacilityResponse struct {
	ID              string   `json:"id"`
	SourceType      string   `json:"source_type"`
	SourceID        string   `json:"source_id"`
	Name            string   `json:"name"`
	Type            string   `json:"type"`
	Lat             float64  `json:"lat"`
	Lon             float64  `json:"lon"`
	Address         string   `json:"address,omitempty"`
	Phone           string   `json:"phone,omitempty"`
	Hours           string   `json:"hours,omitempty"`
	Website         *string  `json:"website,omitempty"`
	Specializations []string `json:"specializations"`
	DistanceKm      *float64 `json:"distance_km,omitempty"`
}

func NewFacilityResponse(f domain.Facility) FacilityResponse {
	specs := f.Specializations
	if specs == nil {
		specs = []string{}
	}
	return FacilityResponse{
		ID:              f.ID,
		SourceType:      f.SourceType,
		SourceID:        f.SourceID,
		Name:            f.Name,
		Type:            string(f.Type),
		Lat:             f.Location.Lat,
		Lon:             f.Location.Lon,
		Address:         f.Address,
		Phone:           f.Phone,
		Hours:           f.Hours,
		Website:         f.Website,
		Specializations: specs,
		DistanceKm:      f.DistanceKm,
	}
}

func NewFacilityList(fs []domain.Facility) []FacilityResponse {
	out := make([]FacilityResponse, 0, len(fs))
	for _, f := range fs {
		out = append(out, NewFacilityResponse(f))
	}
	return out
}

type NearbyResponse struct {
	Facilities   []FacilityResponse `json:"facilities"`
	Attempts     int                `json:"attempts"`
	RadiusMeters float64            `json:"radius_meters"`
	// Message is set for the empty outcome.
	Message    string `json:"message,omitempty"`
	Superseded bool   `json:"superseded,omitempty"`
}

type ListFacilitiesResponse struct {
	Facilities []FacilityResponse `json:"facilities"`
	Message    string             `json:"message,omitempty"`
}
