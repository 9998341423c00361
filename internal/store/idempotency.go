package store

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/punchamoorthee/rewardledger/internal/domain"
)

const (
	idempotencyInProgress = "in_progress"
	idempotencyCompleted  = "completed"

	// IdempotencyTTL bounds how long a key is remembered after it was reserved.
	IdempotencyTTL = 24 * time.Hour
	pruneInterval  = time.Minute
)

// IdempotencyRecord holds the state of a request key.
type IdempotencyRecord struct {
	Key            string
	RequestHash    string
	Status         string
	ResponseBody   json.RawMessage
	ResponseStatus int
	CreatedAt      time.Time
}

// IdempotencyStore remembers the outcome of keyed requests for replay.
type IdempotencyStore struct {
	mu        sync.Mutex
	records   map[string]*IdempotencyRecord
	now       func() time.Time
	lastPrune time.Time
}

func NewIdempotencyStore(now func() time.Time) *IdempotencyStore {
	if now == nil {
		now = time.Now
	}
	return &IdempotencyStore{records: make(map[string]*IdempotencyRecord), now: now}
}

// Reserve claims key for a new request. If the key was already completed with the same
// payload hash the stored record is returned for replay.
func (s *IdempotencyStore) Reserve(key, reqHash string) (*IdempotencyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.pruneLocked(now)

	if rec, ok := s.records[key]; ok && !expired(rec, now) {
		if rec.RequestHash != reqHash {
			return nil, domain.ErrIdempotencyMismatch
		}
		if rec.Status == idempotencyInProgress {
			return nil, domain.ErrIdempotencyConflict
		}
		replay := *rec
		return &replay, nil
	}

	s.records[key] = &IdempotencyRecord{
		Key:         key,
		RequestHash: reqHash,
		Status:      idempotencyInProgress,
		CreatedAt:   now,
	}
	return nil, nil
}

// Complete stores the response for a reserved key.
func (s *IdempotencyStore) Complete(key string, status int, body json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if !ok {
		return
	}
	rec.Status = idempotencyCompleted
	rec.ResponseStatus = status
	rec.ResponseBody = body
}

// Release drops a reservation whose request failed, so the key can be retried.
func (s *IdempotencyStore) Release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[key]; ok && rec.Status == idempotencyInProgress {
		delete(s.records, key)
	}
}

// Len reports how many keys are currently remembered.
func (s *IdempotencyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *IdempotencyStore) pruneLocked(now time.Time) {
	if now.Sub(s.lastPrune) < pruneInterval {
		return
	}
	for key, rec := range s.records {
		if expired(rec, now) {
			delete(s.records, key)
		}
	}
	s.lastPrune = now
}

func expired(rec *IdempotencyRecord, now time.Time) bool {
	return now.Sub(rec.CreatedAt) >= IdempotencyTTL
}
