// Package viewstate provides the last-write-wins snapshot cell the
// pollers publish into and the HTTP layer reads from.
package viewstate

import (
	"sync"
	"time"
)

// Snapshot holds the most recent successfully fetched value. Readers get
// whatever landed last; a failed fetch leaves the previous value in
// place.
type Snapshot[T any] struct {
	mu        sync.RWMutex
	value     T
	updatedAt time.Time
	ok        bool
}

// Set publishes a new value.
func (s *Snapshot[T]) Set(value T) {
	s.mu.Lock()
	s.value = value
	s.updatedAt = time.Now()
	s.ok = true
	s.mu.Unlock()
}

// Get returns the current value and whether one has ever been published.
func (s *Snapshot[T]) Get() (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value, s.ok
}

// UpdatedAt returns when the value last changed.
func (s *Snapshot[T]) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}
