package store

import (
	"sync"
	"time"
)

// CodeEntry is a stored verification code.
type CodeEntry struct {
	Code      string
	Channel   string
	ExpiresAt time.Time
	Failures  int
}

// CodeStore is a concurrency-safe key/value store of verification codes with expiry.
type CodeStore struct {
	mu   sync.Mutex
	data map[string]CodeEntry
	now  func() time.Time
}

// NewCodeStore creates an empty CodeStore.
func NewCodeStore() *CodeStore {
	return &CodeStore{
		data: make(map[string]CodeEntry),
		now:  time.Now,
	}
}

// Put stores entry under key, replacing any previous code.
func (s *CodeStore) Put(key string, entry CodeEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = entry
}

// Get returns the entry stored under key. Expired entries are still
// returned so callers can tell "expired" from "never sent".
func (s *CodeStore) Get(key string) (CodeEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.data[key]
	return e, ok
}

// Delete removes key.
func (s *CodeStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

// Fail records a failed check against key and returns the new failure
// count. It reports false when key is not stored.
func (s *CodeStore) Fail(key string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.data[key]
	if !ok {
		return 0, false
	}
	e.Failures++
	s.data[key] = e
	return e.Failures, true
}

// Purge drops every expired entry and returns how many were removed.
func (s *CodeStore) Purge() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for k, e := range s.data {
		if now.After(e.ExpiresAt) {
			delete(s.data, k)
			n++
		}
	}
	return n
}

// Len returns the number of stored entries.
func (s *CodeStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}
