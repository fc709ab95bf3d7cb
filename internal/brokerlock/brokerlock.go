// Package brokerlock provides a set of named mutexes keyed by broker ID.
// Connect, disconnect, and stream-start for the same broker are serialized
// through the same lock so a disconnect can never race a connect.
package brokerlock

import "sync"

// Set holds one mutex per broker ID, created lazily
type Set struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewSet creates an empty lock set
func NewSet() *Set {
	return &Set{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for the broker and returns its unlock function
func (s *Set) Lock(brokerID string) func() {
	s.mu.Lock()
	lock, ok := s.locks[brokerID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[brokerID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
