package domain

import (
	"fmt"
	"strings"
)

type FacilityType string

const (
	Pharmacy FacilityType = "pharmacy"
	Hospital FacilityType = "hospital"
	Clinic   FacilityType = "clinic"
)

// AllFacilityTypes returns every supported type in a stable order.
func AllFacilityTypes() []FacilityType {
	return []FacilityType{Pharmacy, Hospital, Clinic}
}

// ParseFacilityType accepts the lower-case tag value used by the POI service.
func ParseFacilityType(s string) (FacilityType, error) {
	switch FacilityType(strings.ToLower(strings.TrimSpace(s))) {
	case Pharmacy:
		return Pharmacy, nil
	case Hospital:
		return Hospital, nil
	case Clinic:
		return Clinic, nil
	}
	return "", fmt.Errorf("unknown facility type %q", s)
}

// ParseFacilityTypes parses a comma separated list. An empty list means all types.
func ParseFacilityTypes(s string) ([]FacilityType, error) {
	if strings.TrimSpace(s) == "" {
		return AllFacilityTypes(), nil
	}

	seen := make(map[FacilityType]struct{})
	out := make([]FacilityType, 0, 3)
	for _, part := range strings.Split(s, ",") {
		t, err := ParseFacilityType(part)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out, nil
}

// FacilityKey identifies a facility by the upstream element kind and id.
// Upstream ids are only unique within one element kind.
type FacilityKey struct {
	SourceType string
	SourceID   string
}

// Represents a medical facility normalized from a POI payload.
// DistanceKm stays nil until the facility has been ranked against a
// reference coordinate.
type Facility struct {
	ID              string       `json:"id"`
	SourceType      string       `json:"source_type"`
	SourceID        string       `json:"source_id"`
	Name            string       `json:"name"`
	Type            FacilityType `json:"type"`
	Location        Coordinate   `json:"location"`
	Address         string       `json:"address"`
	Phone           string       `json:"phone"`
	Hours           string       `json:"hours"`
	Website         *string      `json:"website,omitempty"`
	Specializations []string     `json:"specializations"`
	DistanceKm      *float64     `json:"distance_km,omitempty"`
}

func FacilityID(sourceType, sourceID string) string {
	return sourceType + "/" + sourceID
}

func (f Facility) Key() FacilityKey {
	return FacilityKey{SourceType: f.SourceType, SourceID: f.SourceID}
}

// WithDistance returns a copy of f carrying the given distance.
func (f Facility) WithDistance(km float64) Facility {
	d := km
	f.DistanceKm = &d
	if f.Specializations != nil {
		f.Specializations = append([]string(nil), f.Specializations...)
	}
	return f
}
