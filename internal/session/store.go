// Package session holds the in-memory conversation history for a widget
// instance. The log is session-scoped: it does not survive a restart, and a
// reset empties it. There is intentionally no persistence layer behind it.
package session

import (
	"sync"

	"github.com/floatchat/floatchat/internal/models"
)

// Store is an ordered, append-only (until cleared) log of conversation turns.
// It accepts any content; validating input is the submit handler's job, not
// the store's. The store does not enforce role alternation either, a caller
// may append two user turns in a row.
type Store struct {
	mu    sync.RWMutex
	turns []models.Turn
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		turns: make([]models.Turn, 0, 16),
	}
}

// Append adds a turn to the end of the log.
func (s *Store) Append(turn models.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, turn)
}

// Turns returns a snapshot of the log in insertion order. The returned slice
// is a copy, so callers cannot mutate the history through it.
func (s *Store) Turns() []models.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len returns the number of turns in the log.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// Clear empties the log.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = s.turns[:0]
}
