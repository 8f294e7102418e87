package overpass

import (
	"strconv"
	"strings"

	"facility-route-service/internal/domain"
)

type response struct {
	Elements []element `json:"elements"`
}

type latLon struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

type element struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    *float64          `json:"lat"`
	Lon    *float64          `json:"lon"`
	Center *latLon           `json:"center"`
	Tags   map[string]string `json:"tags"`
}

// location prefers the element's own point and falls back to the centroid
// the server computed for ways and relations.
func (e element) location() (domain.Coordinate, bool) {
	if e.Lat != nil && e.Lon != nil {
		return domain.Coordinate{Lat: *e.Lat, Lon: *e.Lon}, true
	}
	if e.Center != nil && e.Center.Lat != nil && e.Center.Lon != nil {
		return domain.Coordinate{Lat: *e.Center.Lat, Lon: *e.Center.Lon}, true
	}
	return domain.Coordinate{}, false
}

func normalizeElements(elements []element, types []domain.FacilityType) []domain.Facility {
	wanted := make(map[domain.FacilityType]struct{}, len(types))
	for _, t := range types {
		wanted[t] = struct{}{}
	}

	out := make([]domain.Facility, 0, len(elements))
	for _, e := range elements {
		f, ok := normalizeElement(e)
		if !ok {
			continue
		}
		if _, ok := wanted[f.Type]; !ok {
			continue
		}
		out = append(out, f)
	}
	return out
}

func normalizeElement(e element) (domain.Facility, bool) {
	if e.Type == "" {
		return domain.Facility{}, false
	}

	loc, ok := e.location()
	if !ok || loc.Validate() != nil {
		return domain.Facility{}, false
	}

	ft, ok := facilityType(e.Tags)
	if !ok {
		return domain.Facility{}, false
	}

	sourceID := strconv.FormatInt(e.ID, 10)
	tags := e.Tags

	f := domain.Facility{
		ID:              domain.FacilityID(e.Type, sourceID),
		SourceType:      e.Type,
		SourceID:        sourceID,
		Name:            name(tags, ft),
		Type:            ft,
		Location:        loc,
		Address:         address(tags),
		Phone:           firstTag(tags, "phone", "contact:phone"),
		Hours:           tags["opening_hours"],
		Specializations: splitList(tags["healthcare:speciality"]),
	}
	if site := firstTag(tags, "website", "contact:website"); site != "" {
		f.Website = &site
	}

	return f, true
}

func facilityType(tags map[string]string) (domain.FacilityType, bool) {
	for _, key := range []string{"amenity", "healthcare"} {
		if t, err := domain.ParseFacilityType(tags[key]); err == nil {
			return t, true
		}
	}
	return "", false
}

func name(tags map[string]string, ft domain.FacilityType) string {
	if n := firstTag(tags, "name", "name:en", "official_name"); n != "" {
		return n
	}
	return "Unnamed " + string(ft)
}

func address(tags map[string]string) string {
	if full := strings.TrimSpace(tags["addr:full"]); full != "" {
		return full
	}

	street := strings.TrimSpace(strings.Join(nonEmpty(tags["addr:street"], tags["addr:housenumber"]), " "))
	return strings.Join(nonEmpty(street, tags["addr:city"], tags["addr:postcode"]), ", ")
}

func firstTag(tags map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(tags[k]); v != "" {
			return v
		}
	}
	return ""
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ";") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func nonEmpty(parts ...string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
