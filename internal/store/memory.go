package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/route-weather-bot/internal/session"
)

var (
	// ErrNotFound is returned when the user has no active session.
	ErrNotFound = errors.New("no active session")
)

// MemoryStore is a concurrency-safe in-memory session store keyed by user ID.
// Sessions are lost on restart.
type MemoryStore struct {
	mu sync.RWMutex

	// key: user id
	data map[int64]*session.Session
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[int64]*session.Session),
	}
}

// Get returns a copy of the user's session.
func (s *MemoryStore) Get(userID int64) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.data[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return sess.Clone(), nil
}

// Save stores a copy of sess, replacing any session the user already had.
func (s *MemoryStore) Save(sess *session.Session) {
	if sess == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[sess.UserID] = sess.Clone()
}

// Delete discards the user's session. It reports whether one existed.
func (s *MemoryStore) Delete(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.data[userID]
	delete(s.data, userID)
	return ok
}

// ExpireIdle removes sessions not updated since now-ttl and returns how many
// were removed.
func (s *MemoryStore) ExpireIdle(now time.Time, ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	cutoff := now.Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for userID, sess := range s.data {
		if sess.UpdatedAt.Before(cutoff) {
			delete(s.data, userID)
			removed++
		}
	}
	return removed
}

// Len returns the number of active sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
