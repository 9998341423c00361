package store

import (
	"sync"

	"github.com/punchamoorthee/rewardledger/internal/domain"
)

type referralEntry struct {
	mu  sync.Mutex
	ref domain.Referral
}

// ReferralStore keeps referral records keyed by vendor id.
type ReferralStore struct {
	mu      sync.RWMutex
	entries map[string]*referralEntry
}

func NewReferralStore() *ReferralStore {
	return &ReferralStore{entries: make(map[string]*referralEntry)}
}

// CreateReferral stores a new referral. The vendor id must be unused.
func (s *ReferralStore) CreateReferral(r domain.Referral) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[r.VendorID]; ok {
		return domain.ErrConflict
	}
	s.entries[r.VendorID] = &referralEntry{ref: r}
	return nil
}

// Referral returns a copy of the referral for vendorID.
func (s *ReferralStore) Referral(vendorID string) (domain.Referral, error) {
	e := s.lookup(vendorID)
	if e == nil {
		return domain.Referral{}, domain.ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ref, nil
}

// Mutate runs fn on a copy of the referral while holding that referral's lock.
// The copy replaces the stored record only when fn returns nil.
func (s *ReferralStore) Mutate(vendorID string, fn func(*domain.Referral) error) (domain.Referral, error) {
	e := s.lookup(vendorID)
	if e == nil {
		return domain.Referral{}, domain.ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	draft := e.ref
	if err := fn(&draft); err != nil {
		return e.ref, err
	}
	e.ref = draft
	return draft, nil
}

func (s *ReferralStore) lookup(vendorID string) *referralEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[vendorID]
}
