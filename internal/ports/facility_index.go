package ports

import (
	"facility-route-service/internal/domain"
	"facility-route-service/internal/geo"
)

// FacilityIndex answers spatial lookups over an already ranked result set.
type FacilityIndex interface {
	// Replace drops the current contents and indexes facilities.
	Replace(facilities []domain.Facility)
	Within(box geo.BoundingBox) []domain.Facility
	Nearest(c domain.Coordinate, k int) []domain.Facility
	Len() int
}
