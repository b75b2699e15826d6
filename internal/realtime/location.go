package realtime

import (
	"sync"

	"kirana/internal/domain"
)

// LocationStore keeps the last reported position per delivery partner.
// Last write wins; no history.
type LocationStore struct {
	mu        sync.RWMutex
	locations map[uint64]domain.PartnerLocation
}

func NewLocationStore() *LocationStore {
	return &LocationStore{locations: make(map[uint64]domain.PartnerLocation)}
}

func (s *LocationStore) Set(loc domain.PartnerLocation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations[loc.PartnerID] = loc
}

func (s *LocationStore) Get(partnerID uint64) (domain.PartnerLocation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	loc, ok := s.locations[partnerID]
	return loc, ok
}
