package state

import "sync"

// Store keeps at most one session value per user. Starting a new session for
// a user silently replaces the previous one.
type Store[S any] struct {
	mu       sync.RWMutex
	sessions map[int64]S
}

// NewStore constructs an empty in-memory session store.
func NewStore[S any]() *Store[S] {
	return &Store[S]{sessions: make(map[int64]S)}
}

// Get returns the session for a user if one exists.
func (s *Store[S]) Get(userID int64) (S, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[userID]
	return sess, ok
}

// Put stores the session for a user, replacing any existing one.
func (s *Store[S]) Put(userID int64, session S) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = session
}

// Delete removes the session for a user.
func (s *Store[S]) Delete(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// InProgress reports whether the user currently has an active session.
func (s *Store[S]) InProgress(userID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[userID]
	return ok
}

// Len returns the number of active sessions.
func (s *Store[S]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
