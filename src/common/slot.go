package common

import "sync"

// Slot holds a value that goes from absent to present exactly once. It is
// safe for concurrent use.
type Slot[T any] struct {
	mu      sync.RWMutex
	value   T
	present bool
}

// Set stores v. It returns false, leaving the slot untouched, if a value is
// already present.
func (s *Slot[T]) Set(v T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.present {
		return false
	}
	s.value = v
	s.present = true
	return true
}

// Get returns the value and whether it is present.
func (s *Slot[T]) Get() (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value, s.present
}

// Present ...
func (s *Slot[T]) Present() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.present
}
