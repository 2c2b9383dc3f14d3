package utils

import "sync"

// RowSet remembers which row texts have been seen.
type RowSet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewRowSet creates an empty RowSet.
func NewRowSet() *RowSet {
	return &RowSet{seen: make(map[string]struct{})}
}

// Add returns true if text was newly added, false if already present.
func (s *RowSet) Add(text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[text]; exists {
		return false
	}
	s.seen[text] = struct{}{}
	return true
}
