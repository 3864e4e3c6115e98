package state

import "sync"

// StatusStore owns transient UI flags. It holds no business rules.
type StatusStore struct {
	notifier

	mu           sync.RWMutex
	isLoading    bool
	err          string
	isSubmitting bool
}

// NewStatusStore returns a store with all flags cleared.
func NewStatusStore() *StatusStore {
	return &StatusStore{}
}

// StatusSnapshot is a consistent copy of the status flags.
type StatusSnapshot struct {
	IsLoading    bool
	Error        string
	IsSubmitting bool
}

// Snapshot returns all flags under one lock.
func (s *StatusStore) Snapshot() StatusSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StatusSnapshot{IsLoading: s.isLoading, Error: s.err, IsSubmitting: s.isSubmitting}
}

func (s *StatusStore) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isLoading
}

func (s *StatusStore) SetIsLoading(v bool) {
	s.mu.Lock()
	s.isLoading = v
	s.mu.Unlock()
	notify(s.bump())
}

// ErrorMessage returns the last human-readable error message, or "".
func (s *StatusStore) ErrorMessage() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// SetError stores msg as the current error. An empty msg clears it.
func (s *StatusStore) SetError(msg string) {
	s.mu.Lock()
	s.err = msg
	s.mu.Unlock()
	notify(s.bump())
}

func (s *StatusStore) ClearError() {
	s.SetError("")
}

func (s *StatusStore) IsSubmitting() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isSubmitting
}

func (s *StatusStore) SetIsSubmitting(v bool) {
	s.mu.Lock()
	s.isSubmitting = v
	s.mu.Unlock()
	notify(s.bump())
}

// Reset clears every flag.
func (s *StatusStore) Reset() {
	s.mu.Lock()
	s.isLoading = false
	s.err = ""
	s.isSubmitting = false
	s.mu.Unlock()
	notify(s.bump())
}
