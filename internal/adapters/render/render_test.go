package render

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"facility-route-service/internal/domain"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFacilities() []domain.Facility {
	return []domain.Facility{
		domain.Facility{
			ID: "node/1", SourceType: "node", SourceID: "1",
			Name: "Europharma", Type: domain.Pharmacy,
			Location: domain.Coordinate{Lat: 51.13, Lon: 71.43},
			Address:  "Kabanbay Batyr 15",
		}.WithDistance(0.42),
		{
			ID: "way/2", SourceType: "way", SourceID: "2",
			Name: "City Hospital", Type: domain.Hospital,
			Location: domain.Coordinate{Lat: 51.16, Lon: 71.47},
		},
	}
}

func TestGeoJSONBackendScene(t *testing.T) {
	var sink bytes.Buffer
	b := NewGeoJSONBackend(&sink)
	ctx := context.Background()

	require.NoError(t, b.RenderMarkers(ctx, sampleFacilities()))
	require.NoError(t, b.RenderPath(ctx, []domain.Coordinate{{Lat: 51.13, Lon: 71.43}, {Lat: 51.16, Lon: 71.47}}))
	require.NoError(t, b.FlyTo(ctx, domain.Coordinate{Lat: 51.13, Lon: 71.43}, 14))

	scene := b.Scene()
	require.Len(t, scene.Features, 3)
	assert.Equal(t, orb.Point{71.43, 51.13}, scene.Features[0].Geometry)
	assert.Equal(t, "node/1", scene.Features[0].ID)
	assert.Equal(t, 0.42, scene.Features[0].Properties["distance_km"])
	_, hasDist := scene.Features[1].Properties["distance_km"]
	assert.False(t, hasDist)
	assert.Equal(t, orb.LineString{{71.43, 51.13}, {71.47, 51.16}}, scene.Features[2].Geometry)

	cam, ok := b.Camera()
	require.True(t, ok)
	assert.Equal(t, 14.0, cam.Zoom)

	lines := strings.Split(strings.TrimSpace(sink.String()), "\n")
	require.Len(t, lines, 3)

	decoded, err := geojson.UnmarshalFeatureCollection([]byte(lines[2]))
	require.NoError(t, err)
	assert.Len(t, decoded.Features, 3)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &raw))
	assert.Contains(t, raw, "camera")
}

func TestGeoJSONBackendRejectsBadCamera(t *testing.T) {
	b := NewGeoJSONBackend(nil)
	assert.Error(t, b.FlyTo(context.Background(), domain.Coordinate{Lat: 120}, 10))

	_, ok := b.Camera()
	assert.False(t, ok)
}

func TestGeoJSONBackendCopiesInput(t *testing.T) {
	b := NewGeoJSONBackend(nil)
	path := []domain.Coordinate{{Lat: 1, Lon: 1}, {Lat: 2, Lon: 2}}
	require.NoError(t, b.RenderPath(context.Background(), path))

	path[0].Lat = 50
	ls, ok := b.Scene().Features[0].Geometry.(orb.LineString)
	require.True(t, ok)
	assert.Equal(t, 1.0, ls[0].Lat())
}

func TestTextBackend(t *testing.T) {
	var out bytes.Buffer
	b := NewTextBackend(&out)
	ctx := context.Background()

	require.NoError(t, b.RenderMarkers(ctx, sampleFacilities()))
	require.NoError(t, b.RenderPath(ctx, []domain.Coordinate{{Lat: 1, Lon: 2}, {Lat: 3, Lon: 4}}))
	require.NoError(t, b.RenderMarkers(ctx, nil))

	text := out.String()
	assert.Contains(t, text, "Europharma")
	assert.Contains(t, text, "0.42 km")
	assert.Contains(t, text, "path: 2 points")
	assert.Contains(t, text, "no facilities found")
}
