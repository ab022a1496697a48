package auth

import (
	"context"
	"sync"
)

// NewInMemorySessionStore returns a SessionStore backed by an in-memory map.
func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{sessions: make(map[string]Session)}
}

// InMemorySessionStore implements SessionStore for tests and local development.
type InMemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]Session
}

// Save creates or replaces the session record for the user.
func (s *InMemorySessionStore) Save(_ context.Context, session Session) error {
	s.mu.Lock()
	s.sessions[session.UserID] = session
	s.mu.Unlock()
	return nil
}

// Find retrieves the session recorded for the user.
func (s *InMemorySessionStore) Find(_ context.Context, userID string) (Session, error) {
	s.mu.Lock()
	session, ok := s.sessions[userID]
	s.mu.Unlock()
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return session, nil
}

// Rotate swaps the record for next only while the stored refresh token still
// equals current. The check and the swap happen under one lock so concurrent
// rotations of the same token produce exactly one winner.
func (s *InMemorySessionStore) Rotate(_ context.Context, userID, current string, next Session) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[userID]
	if !ok || session.RefreshToken != current {
		return false, nil
	}
	s.sessions[userID] = next
	return true, nil
}

// Delete removes the session recorded for the user.
func (s *InMemorySessionStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[userID]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, userID)
	return nil
}

// Has reports whether a session exists for the user. Useful for tests.
func (s *InMemorySessionStore) Has(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[userID]
	return ok
}
