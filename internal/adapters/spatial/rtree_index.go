// Package spatial holds an in-memory R-tree over the facilities of the latest
// committed search.
package spatial

import (
	"sort"
	"sync"

	"facility-route-service/internal/domain"
	"facility-route-service/internal/geo"

	"github.com/dhconnelly/rtreego"
)

const (
	tolerance   = 1e-7
	minChildren = 25
	maxChildren = 50
	dimensions  = 2

	// Euclidean candidates fetched per requested neighbour before re-ranking
	// by great-circle distance.
	nearestOverfetch = 3
)

// entry keeps the rank of the facility so lookups return ranked order.
type entry struct {
	facility domain.Facility
	rank     int
	rect     *rtreego.Rect
}

func (e *entry) Bounds() *rtreego.Rect {
	return e.rect
}

// RTreeIndex implements ports.FacilityIndex. It is safe for concurrent use.
type RTreeIndex struct {
	mu   sync.RWMutex
	tree *rtreego.Rtree
	size int
}

func NewRTreeIndex() *RTreeIndex {
	return &RTreeIndex{tree: rtreego.NewTree(dimensions, minChildren, maxChildren)}
}

func (x *RTreeIndex) Replace(facilities []domain.Facility) {
	// Build outside the lock so readers keep the old tree meanwhile.
	tree := rtreego.NewTree(dimensions, minChildren, maxChildren)
	for i, f := range facilities {
		p := rtreego.Point{f.Location.Lat, f.Location.Lon}
		tree.Insert(&entry{facility: f, rank: i, rect: p.ToRect(tolerance)})
	}

	x.mu.Lock()
	x.tree = tree
	x.size = len(facilities)
	x.mu.Unlock()
}

func (x *RTreeIndex) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.size
}

// Within returns the facilities inside box in their original rank order.
// An invalid box matches nothing.
func (x *RTreeIndex) Within(box geo.BoundingBox) []domain.Facility {
	if box.Validate() != nil {
		return []domain.Facility{}
	}

	// NewRect rejects zero-length sides.
	latLen := box.MaxLat - box.MinLat
	lonLen := box.MaxLon - box.MinLon
	if latLen <= 0 {
		latLen = tolerance
	}
	if lonLen <= 0 {
		lonLen = tolerance
	}
	bounds, err := rtreego.NewRect(rtreego.Point{box.MinLat, box.MinLon}, []float64{latLen, lonLen})
	if err != nil {
		return []domain.Facility{}
	}

	x.mu.RLock()
	results := x.tree.SearchIntersect(bounds)
	x.mu.RUnlock()

	hits := make([]*entry, 0, len(results))
	for _, r := range results {
		e, ok := r.(*entry)
		if !ok || !box.Contains(e.facility.Location) {
			continue
		}
		hits = append(hits, e)
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].rank < hits[j].rank })

	out := make([]domain.Facility, len(hits))
	for i, e := range hits {
		out[i] = e.facility
	}
	return out
}

// Nearest returns up to k facilities closest to c by great-circle distance.
// Ties keep rank order.
func (x *RTreeIndex) Nearest(c domain.Coordinate, k int) []domain.Facility {
	if k <= 0 {
		return []domain.Facility{}
	}

	x.mu.RLock()
	want := k * nearestOverfetch
	if want > x.size {
		want = x.size
	}
	var results []rtreego.Spatial
	if want > 0 {
		results = x.tree.NearestNeighbors(want, rtreego.Point{c.Lat, c.Lon})
	}
	x.mu.RUnlock()

	type ranked struct {
		e    *entry
		dist float64
	}
	cands := make([]ranked, 0, len(results))
	for _, r := range results {
		e, ok := r.(*entry)
		if !ok || e == nil {
			continue
		}
		cands = append(cands, ranked{e: e, dist: geo.DistanceKm(c, e.facility.Location)})
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].dist != cands[j].dist {
			return cands[i].dist < cands[j].dist
		}
		return cands[i].e.rank < cands[j].e.rank
	})

	if len(cands) > k {
		cands = cands[:k]
	}
	out := make([]domain.Facility, len(cands))
	for i, r := range cands {
		out[i] = r.e.facility
	}
	return out
}
