package services

import (
	"math"
	"sort"

	"facility-route-service/internal/domain"
	"facility-route-service/internal/geo"
)

// Aggregate reconciles raw facilities from one search into a ranked list.
//
// Duplicates by (source type, source id) are dropped, first occurrence wins.
// Distances to reference are rounded to whole meters; the list is sorted by
// that distance, then by name, then by id, so equal inputs give equal output.
// The input is not modified.
func Aggregate(raw []domain.Facility, reference domain.Coordinate) []domain.Facility {
	type ranked struct {
		facility domain.Facility
		meters   float64
	}

	seen := make(map[domain.FacilityKey]struct{}, len(raw))
	out := make([]ranked, 0, len(raw))
	for _, f := range raw {
		key := f.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		meters := math.Round(geo.DistanceMeters(reference, f.Location))
		out = append(out, ranked{
			facility: f.WithDistance(meters / 1000),
			meters:   meters,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.meters != b.meters {
			return a.meters < b.meters
		}
		if a.facility.Name != b.facility.Name {
			return a.facility.Name < b.facility.Name
		}
		return a.facility.ID < b.facility.ID
	})

	facilities := make([]domain.Facility, len(out))
	for i, r := range out {
		facilities[i] = r.facility
	}
	return facilities
}
