package services

import (
	"context"
	"sync"
	"time"

	"facility-route-service/internal/domain"
	"facility-route-service/internal/geo"
	"facility-route-service/internal/ports"
)

// SearchSession keeps the last committed search of one client.
//
// Every search takes a generation from Begin. Commit only accepts the most
// recent generation, so an older search that finishes late is dropped
// instead of overwriting newer results. In-flight requests are not aborted.
type SearchSession struct {
	mu         sync.Mutex
	generation uint64
	committed  uint64
	center     domain.Coordinate
	facilities []domain.Facility
	byID       map[string]domain.Facility
	index      ports.FacilityIndex
	lastUsed   time.Time
}

func NewSearchSession(index ports.FacilityIndex) *SearchSession {
	return &SearchSession{index: index, lastUsed: time.Now()}
}

// Begin starts a new search and supersedes any search still running.
func (s *SearchSession) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.lastUsed = time.Now()
	return s.generation
}

// Commit stores ranked facilities for generation. It returns false, and
// changes nothing, when a newer search has begun since.
func (s *SearchSession) Commit(generation uint64, center domain.Coordinate, ranked []domain.Facility) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation {
		return false
	}

	byID := make(map[string]domain.Facility, len(ranked))
	for _, f := range ranked {
		byID[f.ID] = f
	}

	s.committed = generation
	s.center = center
	s.facilities = append([]domain.Facility(nil), ranked...)
	s.byID = byID
	s.lastUsed = time.Now()
	if s.index != nil {
		s.index.Replace(s.facilities)
	}
	return true
}

// Latest returns the committed facilities and the search center.
// ok is false before the first commit.
func (s *SearchSession) Latest() (facilities []domain.Facility, center domain.Coordinate, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.committed == 0 {
		return nil, domain.Coordinate{}, false
	}
	return append([]domain.Facility(nil), s.facilities...), s.center, true
}

func (s *SearchSession) Lookup(id string) (domain.Facility, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.byID[id]
	return f, ok
}

// InViewport returns the committed facilities inside box, in rank order.
func (s *SearchSession) InViewport(box geo.BoundingBox) []domain.Facility {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index == nil {
		out := []domain.Facility{}
		for _, f := range s.facilities {
			if box.Contains(f.Location) {
				out = append(out, f)
			}
		}
		return out
	}
	return s.index.Within(box)
}

// Nearest returns up to k committed facilities closest to c.
func (s *SearchSession) Nearest(c domain.Coordinate, k int) []domain.Facility {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index == nil {
		return []domain.Facility{}
	}
	return s.index.Nearest(c, k)
}

func (s *SearchSession) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// SessionStore maps client session ids to sessions and forgets idle ones.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*SearchSession
	newIndex func() ports.FacilityIndex
	idleTTL  time.Duration
}

func NewSessionStore(newIndex func() ports.FacilityIndex, idleTTL time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*SearchSession),
		newIndex: newIndex,
		idleTTL:  idleTTL,
	}
}

// Get returns the session for id, creating it on first use.
func (st *SessionStore) Get(id string) *SearchSession {
	st.mu.Lock()
	defer st.mu.Unlock()

	if s, ok := st.sessions[id]; ok {
		return s
	}

	var idx ports.FacilityIndex
	if st.newIndex != nil {
		idx = st.newIndex()
	}
	s := NewSearchSession(idx)
	st.sessions[id] = s
	return s
}

// Peek returns the session for id without creating one.
func (st *SessionStore) Peek(id string) (*SearchSession, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	return s, ok
}

func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Sweep drops sessions unused since before now minus the idle TTL and
// returns how many were removed.
func (st *SessionStore) Sweep(now time.Time) int {
	if st.idleTTL <= 0 {
		return 0
	}
	cutoff := now.Add(-st.idleTTL)

	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for id, s := range st.sessions {
		if s.idleSince().Before(cutoff) {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (st *SessionStore) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			st.Sweep(now)
		}
	}
}
