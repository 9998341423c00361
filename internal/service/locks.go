package service

import (
	"sort"
	"sync"
)

// UserLocks hands out one mutex per user id. Withdrawals, sweeps and referral
// completion take these before touching a user's wallet or withdrawal log.
type UserLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewUserLocks() *UserLocks {
	return &UserLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutexes for ids in sorted order and returns a func releasing them.
func (l *UserLocks) Lock(ids ...string) func() {
	keys := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		keys = append(keys, id)
	}
	// Deterministic ordering prevents deadlocks between multi-user callers.
	sort.Strings(keys)

	held := make([]*sync.Mutex, 0, len(keys))
	for _, k := range keys {
		m := l.get(k)
		m.Lock()
		held = append(held, m)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

func (l *UserLocks) get(id string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	return m
}
