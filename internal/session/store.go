package session

func NewStore() *Store {
	return &Store{
		sessions: make(map[int64]*Session),
		authed:   make(map[int64]struct{}),
	}
}

// Get returns the session for userID, creating a fresh first-contact
// record when none exists.
func (s *Store) Get(userID int64) *Session {
	s.mu.RLock()

	sess, ok := s.sessions[userID]
	s.mu.RUnlock()

	if ok {
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok = s.sessions[userID]; ok {
		return sess
	}

	sess = &Session{UserID: userID}
	s.sessions[userID] = sess

	return sess
}

// Reset drops the user back to awaiting-login and removes them from the
// authenticated set. It returns the draft that was pending, if any, so the
// caller can release the photo file. Must be called with the session's
// handling lock held.
func (s *Store) Reset(userID int64) *Submission {
	sess := s.Get(userID)

	prev := sess.Pending
	sess.State = StateAwaitingLogin
	sess.PendingLogin = ""
	sess.Pending = nil

	s.mu.Lock()
	delete(s.authed, userID)
	s.mu.Unlock()

	return prev
}

// Authenticate marks the user as having passed the credential challenge.
func (s *Store) Authenticate(userID int64) {
	s.mu.Lock()
	s.authed[userID] = struct{}{}
	s.mu.Unlock()
}

// ReferencedPhotos returns the photo paths every live draft still points
// at. Used by the upload sweeper to avoid deleting files under a draft.
func (s *Store) ReferencedPhotos() map[string]bool {
	s.mu.RLock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.RUnlock()

	paths := make(map[string]bool)
	for _, sess := range sessions {
		sess.Lock()
		if sess.Pending != nil {
			paths[sess.Pending.PhotoPath] = true
		}
		sess.Unlock()
	}

	return paths
}

// IsAuthenticated is the sole gate for all content handling.
func (s *Store) IsAuthenticated(userID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.authed[userID]
	return ok
}
