package ledger

import (
	"sync"

	"github.com/google/uuid"
)

// Session holds the current budget selection. It is owned by the
// composition root and handed to the Store, which is its only writer and
// keeps it pointing at an existing budget.
type Session struct {
	mu      sync.RWMutex
	current uuid.UUID
}

func NewSession() *Session {
	return &Session{}
}

// Current returns the selected budget id and whether one is selected.
func (s *Session) Current() (uuid.UUID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.current != uuid.Nil
}

// set stores id and reports whether the selection changed.
func (s *Session) set(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == id {
		return false
	}
	s.current = id
	return true
}
