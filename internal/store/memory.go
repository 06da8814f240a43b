// Package store holds authenticated session tokens server-side, keyed by the
// opaque session id carried in the browser cookie.
package store

import (
	"sync"
	"time"
)

// DefaultSessionTTL is used when the provider token carries no usable expiry.
const DefaultSessionTTL = 1 * time.Hour

// CleanupInterval is how often expired sessions are removed from memory.
const CleanupInterval = 1 * time.Minute

// TokenSet is the session state persisted after a successful exchange.
type TokenSet struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	UserID       string    `json:"user_id,omitempty"`
	Email        string    `json:"email,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// SessionStore defines the interface for server-side session token storage.
type SessionStore interface {
	// Store saves a token set under the given session id with a TTL.
	Store(id string, data *TokenSet, ttl time.Duration) error

	// Get retrieves the token set for a session id.
	// Returns nil if the session doesn't exist or has expired.
	Get(id string) (*TokenSet, error)

	// Delete removes a session.
	Delete(id string) error
}

// MemorySessionStore is an in-memory implementation of SessionStore.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*TokenSet
	stopCh   chan struct{}
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	store := &MemorySessionStore{
		sessions: make(map[string]*TokenSet),
		stopCh:   make(chan struct{}),
	}

	// Start cleanup goroutine
	go store.cleanup()

	return store
}

// Close stops the cleanup goroutine.
func (s *MemorySessionStore) Close() error {
	close(s.stopCh)
	return nil
}

// Store saves a token set under the given session id.
func (s *MemorySessionStore) Store(id string, data *TokenSet, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	data.ExpiresAt = time.Now().Add(ttl)
	s.sessions[id] = data

	return nil
}

// Get retrieves the token set for a session id.
// Returns nil if the session doesn't exist or has expired.
func (s *MemorySessionStore) Get(id string) (*TokenSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, exists := s.sessions[id]
	if !exists {
		return nil, nil
	}
	if time.Now().After(data.ExpiresAt) {
		return nil, nil
	}

	return data, nil
}

// Delete removes a session.
func (s *MemorySessionStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

// cleanup periodically removes expired sessions.
func (s *MemorySessionStore) cleanup() {
	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.mu.Lock()
			now := time.Now()
			for id, data := range s.sessions {
				if now.After(data.ExpiresAt) {
					delete(s.sessions, id)
				}
			}
			s.mu.Unlock()
		}
	}
}
