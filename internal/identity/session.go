package identity

import (
	"context"
	"sync"

	"github.com/sanu276140-eng/examsk24/internal/model"
)

// Authenticator verifies credentials. Satisfied by *Service.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*model.Identity, error)
}

// Gateway is the observable per-client session contract consumed by the
// session controller. State-change callbacks fire immediately with the
// current state on registration and again on every future change.
type Gateway interface {
	SignIn(ctx context.Context, email, password string) (*model.Identity, error)
	SignOut(ctx context.Context) error
	Current() *model.Identity
	OnStateChange(fn func(*model.Identity)) (unsubscribe func())
}

// Session tracks the authentication state of a single admin console
// connection. One Session per connection; never shared.
type Session struct {
	auth Authenticator

	mu        sync.Mutex
	current   *model.Identity
	listeners map[int]func(*model.Identity)
	nextID    int
}

var _ Gateway = (*Session)(nil)

// NewSession creates a signed-out session backed by the given authenticator.
func NewSession(auth Authenticator) *Session {
	return &Session{
		auth:      auth,
		listeners: make(map[int]func(*model.Identity)),
	}
}

// SignIn authenticates and, on success, flips the session state and notifies
// listeners. On failure the state is untouched.
func (s *Session) SignIn(ctx context.Context, email, password string) (*model.Identity, error) {
	ident, err := s.auth.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	s.setState(ident)
	return ident, nil
}

// SignOut clears the session state and notifies listeners with nil. The
// state change happens here, not at the caller: UIs must wait for the
// callback rather than assume the transition.
func (s *Session) SignOut(ctx context.Context) error {
	_ = ctx
	s.setState(nil)
	return nil
}

// Current returns the identity currently signed in, or nil.
func (s *Session) Current() *model.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// OnStateChange registers a listener. It fires synchronously with the current
// state before returning, then again on every change, matching the gateway
// contract. The returned function unsubscribes.
func (s *Session) OnStateChange(fn func(*model.Identity)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	current := s.current
	s.mu.Unlock()

	fn(current)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Session) setState(ident *model.Identity) {
	s.mu.Lock()
	s.current = ident
	fns := make([]func(*model.Identity), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(ident)
	}
}
