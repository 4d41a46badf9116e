package ui

import (
	"context"
	"sync"

	"pinboard/models"
)

// authAPI is the identity-provider surface the session depends on.
type authAPI interface {
	Login(ctx context.Context, email, password string) (string, models.SessionUser, error)
	Logout(ctx context.Context, token string) error
}

// SessionChange is delivered to subscribers whenever the current user
// changes.
type SessionChange struct {
	User     models.SessionUser
	SignedIn bool
}

// Session is the session-scoped current-user cell. It is mutated only by
// Login and Logout; readers observe it through Current or Subscribe.
type Session struct {
	api authAPI

	mu       sync.Mutex
	user     models.SessionUser
	token    string
	signedIn bool
	subs     map[int]chan SessionChange
	nextSub  int
}

func NewSession(api authAPI) *Session {
	return &Session{
		api:  api,
		subs: make(map[int]chan SessionChange),
	}
}

// Current returns the signed-in user, if any.
func (s *Session) Current() (models.SessionUser, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user, s.signedIn
}

// Token returns the bearer token of the live session, or "".
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *Session) Login(ctx context.Context, email, password string) error {
	token, user, err := s.api.Login(ctx, email, password)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.token = token
	s.user = user
	s.signedIn = true
	s.notifyLocked()
	s.mu.Unlock()
	return nil
}

// Logout ends the session. The local state is cleared even if the server
// call fails; the token has left the client either way.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	token := s.token
	s.token = ""
	s.user = models.SessionUser{}
	s.signedIn = false
	s.notifyLocked()
	s.mu.Unlock()

	if token == "" {
		return nil
	}
	return s.api.Logout(ctx, token)
}

// Subscribe registers for session changes. The returned cancel func must
// be called on teardown.
func (s *Session) Subscribe() (<-chan SessionChange, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan SessionChange, 4)
	s.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// notifyLocked pushes the current state to all subscribers. Slow
// subscribers drop updates rather than block login/logout.
func (s *Session) notifyLocked() {
	change := SessionChange{User: s.user, SignedIn: s.signedIn}
	for _, ch := range s.subs {
		select {
		case ch <- change:
		default:
		}
	}
}
