package session

import "sync"

// Store maps user ids to their live Session. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Put stores sess for its user and returns the session it replaced, if any.
func (s *Store) Put(sess *Session) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.sessions[sess.UserID]
	s.sessions[sess.UserID] = sess
	return old
}

// Get returns the live session of userID, or nil.
func (s *Store) Get(userID string) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[userID]
}

// Current reports whether sess is still the live session of its user.
func (s *Store) Current(sess *Session) bool {
	if sess == nil {
		return false
	}
	return s.Get(sess.UserID) == sess
}

// Remove detaches and returns the live session of userID, or nil.
func (s *Store) Remove(userID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return nil
	}
	delete(s.sessions, userID)
	return sess
}

// RemoveIf detaches sess only if it is still the live session of its user.
func (s *Store) RemoveIf(sess *Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sessions[sess.UserID] != sess {
		return false
	}
	delete(s.sessions, sess.UserID)
	return true
}

// RemoveAll detaches and returns every live session.
func (s *Store) RemoveAll() []*Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	s.sessions = make(map[string]*Session)
	return out
}

// All returns a snapshot of the live sessions.
func (s *Store) All() []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
