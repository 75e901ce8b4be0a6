package web

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/LiboWorks/promptlab/internal/chain"
	"github.com/LiboWorks/promptlab/internal/panel"
)

// Session is one browser's panel sequence. Requests for the same session
// are serialized on its mutex.
type Session struct {
	ID     string
	State  *chain.State
	Inputs []panel.Input

	mu       sync.Mutex
	lastSeen time.Time
}

// SessionStore keeps sessions in memory and drops those idle longer than
// ttl.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionStore creates an empty store.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Acquire returns the session for id, creating a new one when id is empty
// or unknown, and locks it. The caller must call Release.
func (s *SessionStore) Acquire(id string) *Session {
	for {
		s.mu.Lock()
		sess, ok := s.sessions[id]
		if !ok {
			sess = &Session{
				ID:     uuid.NewString(),
				State:  chain.New(),
				Inputs: []panel.Input{panel.NewInput()},
			}
			s.sessions[sess.ID] = sess
		}
		s.mu.Unlock()

		sess.mu.Lock()
		// Sweep may have dropped the session before it was locked.
		s.mu.Lock()
		live := s.sessions[sess.ID] == sess
		s.mu.Unlock()
		if live {
			sess.lastSeen = s.now()
			return sess
		}
		sess.mu.Unlock()
	}
}

// Release unlocks a session obtained from Acquire.
func (s *SessionStore) Release(sess *Session) {
	sess.lastSeen = s.now()
	sess.mu.Unlock()
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep removes idle sessions and returns how many were dropped. Sessions
// busy with a request are kept.
func (s *SessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	dropped := 0
	for id, sess := range s.sessions {
		if !sess.mu.TryLock() {
			continue
		}
		if sess.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			dropped++
		}
		sess.mu.Unlock()
	}
	return dropped
}
