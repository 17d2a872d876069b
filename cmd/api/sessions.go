package main

import (
	"sync"

	"github.com/blacx/annotator/internal/pipeline"
)

// sessionStore tracks the live annotation sessions of this API instance.
// Sessions are process-local: the query context handle they carry is only
// meaningful to the backend that created it.
type sessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*pipeline.Session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*pipeline.Session)}
}

func (s *sessionStore) Create() *pipeline.Session {
	session := pipeline.NewSession()
	s.mu.Lock()
	s.sessions[session.ID()] = session
	s.mu.Unlock()
	return session
}

func (s *sessionStore) Get(id string) (*pipeline.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	return session, ok
}

func (s *sessionStore) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}
