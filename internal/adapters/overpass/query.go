package overpass

import (
	"fmt"
	"strings"

	"facility-route-service/internal/domain"
)

var elementKinds = []string{"node", "way", "relation"}

// buildQuery renders an Overpass QL union of every element kind for every
// requested amenity, restricted to a circle around center.
// "out center" makes the server attach a centroid to ways and relations.
func buildQuery(center domain.Coordinate, radiusMeters float64, types []domain.FacilityType, timeoutSeconds int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "[out:json][timeout:%d];\n(\n", timeoutSeconds)
	for _, t := range types {
		for _, kind := range elementKinds {
			fmt.Fprintf(&b, "  %s[\"amenity\"=\"%s\"](around:%.0f,%.6f,%.6f);\n",
				kind, t, radiusMeters, center.Lat, center.Lon)
		}
	}
	b.WriteString(");\nout center tags;\n")

	return b.String()
}
