package session

import "sync"

type AuthState int

const (
	// StateNew is the zero value: the user has no conversation yet. The
	// first event prompts for the login and is never consumed as one.
	StateNew AuthState = iota
	StateAwaitingLogin
	StateAwaitingPassword
	StateAuthenticated
)

func (s AuthState) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateAwaitingLogin:
		return "awaiting_login"
	case StateAwaitingPassword:
		return "awaiting_password"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Submission is the operator's unpublished draft: a downloaded photo, the
// caption they sent with it, and the generated copy awaiting approval.
type Submission struct {
	PhotoPath     string
	Caption       string
	GeneratedText string
}

// Session is the per-operator conversation record. All field access happens
// while holding the session's handling lock; events for the same user are
// serialized, events for different users interleave freely.
type Session struct {
	UserID int64
	ChatID int64

	State        AuthState
	PendingLogin string
	Pending      *Submission

	mu sync.Mutex
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// Store owns every session plus the authenticated set. Keyed by Telegram
// user ID.
type Store struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
	authed   map[int64]struct{}
}
