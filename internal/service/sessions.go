package service

import (
	"sync"

	"montos-inversion-backend/internal/domain"
)

// sessionStore owns the in-progress dialogue sessions. Created on /start,
// cleared when the dialogue terminates; never shared as ambient state.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[int64]*domain.Session
	locks    map[int64]*sync.Mutex
}

func newSessionStore() *sessionStore {
	return &sessionStore{
		sessions: make(map[int64]*domain.Session),
		locks:    make(map[int64]*sync.Mutex),
	}
}

// acquire returns the participant's dialogue lock, creating it on first
// use. Handlers hold it for a whole step: webhook mode serves each update
// on its own goroutine, and two quick messages from one participant must
// not interleave session reads and writes.
func (s *sessionStore) acquire(userID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	return l
}

func (s *sessionStore) get(userID int64) (*domain.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	return sess, ok
}

func (s *sessionStore) put(sess *domain.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.UserID] = sess
}

func (s *sessionStore) remove(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}
