package store

import (
	"sort"
	"sync"
	"time"

	"github.com/SSTengNic/DL-Project/internal/datamall"
)

// IncidentStore is a concurrency-safe in-memory history of traffic
// incidents observed across polling runs. It deduplicates repeated
// observations and enforces optional retention limits.
type IncidentStore struct {
	mu sync.RWMutex

	// key: incident identity, value: incident
	data map[incidentKey]datamall.Incident

	// retention configuration
	maxHistory int           // max number of incidents retained
	maxAge     time.Duration // optional max age for incidents
}

type incidentKey struct {
	dateTime  time.Time
	kind      string
	latitude  float64
	longitude float64
}

func keyOf(in datamall.Incident) incidentKey {
	return incidentKey{
		dateTime:  in.DateTime,
		kind:      in.Type,
		latitude:  in.Latitude,
		longitude: in.Longitude,
	}
}

// NewIncidentStore creates a new IncidentStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewIncidentStore(maxHistory int, maxAge time.Duration) *IncidentStore {
	return &IncidentStore{
		data:       make(map[incidentKey]datamall.Incident),
		maxHistory: maxHistory,
		maxAge:     maxAge,
	}
}

// Merge records a batch of observed incidents and returns how many of
// them had not been seen before.
func (s *IncidentStore) Merge(batch []datamall.Incident) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, in := range batch {
		k := keyOf(in)
		if _, ok := s.data[k]; !ok {
			added++
		}
		s.data[k] = in
	}
	s.enforceRetention()
	return added
}

// All returns every retained incident, most recent first.
func (s *IncidentStore) All() []datamall.Incident {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]datamall.Incident, 0, len(s.data))
	for _, in := range s.data {
		out = append(out, in)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DateTime.After(out[j].DateTime)
	})
	return out
}

// Len returns the number of retained incidents.
func (s *IncidentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// enforceRetention drops incidents past the age or count limits.
// Callers must hold the write lock.
func (s *IncidentStore) enforceRetention() {
	if s.maxAge > 0 {
		cutoff := time.Now().Add(-s.maxAge)
		for k := range s.data {
			if k.dateTime.Before(cutoff) {
				delete(s.data, k)
			}
		}
	}

	if s.maxHistory > 0 && len(s.data) > s.maxHistory {
		keys := make([]incidentKey, 0, len(s.data))
		for k := range s.data {
			keys = append(keys, k)
		}
		// Oldest first so the overflow slice is the set to drop.
		sort.Slice(keys, func(i, j int) bool {
			return keys[i].dateTime.Before(keys[j].dateTime)
		})
		for _, k := range keys[:len(s.data)-s.maxHistory] {
			delete(s.data, k)
		}
	}
}
