package authmocks

// Hand-written test doubles for the auth ports. Function fields override
// behavior per test; unset fields fall back to inert defaults.

import (
	"context"
	"net/http"
	"sync"
	"time"

	domainauth "github.com/ssopoc/authgate/internal/domain/auth"
	"github.com/ssopoc/authgate/internal/ports"
)

// SessionStore is an in-memory ports.SessionStore.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]domainauth.Session

	SaveErr   error
	GetErr    error
	DeleteErr error
}

var _ ports.SessionStore = (*SessionStore)(nil)

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]domainauth.Session)}
}

func (s *SessionStore) Save(_ context.Context, sess domainauth.Session) error {
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return nil
}

func (s *SessionStore) Get(_ context.Context, id string) (domainauth.Session, error) {
	if s.GetErr != nil {
		return domainauth.Session{}, s.GetErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || sess.Expired(time.Now()) {
		return domainauth.Session{}, ports.ErrSessionNotFound
	}
	return sess, nil
}

func (s *SessionStore) Delete(_ context.Context, id string) error {
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// Len reports the number of stored sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// SAMLProvider is a configurable ports.SAMLProvider.
type SAMLProvider struct {
	LoginURLFn              func(relayState string) (string, error)
	ParseCallbackFn         func(r *http.Request) (domainauth.Identity, error)
	LogoutURLFn             func(ref domainauth.ProtocolSessionRef, relayState string) (string, error)
	ConsumeLogoutCallbackFn func(r *http.Request) error
}

var _ ports.SAMLProvider = (*SAMLProvider)(nil)

func (p *SAMLProvider) LoginURL(relayState string) (string, error) {
	if p.LoginURLFn == nil {
		return "https://idp.example.com/sso?RelayState=" + relayState, nil
	}
	return p.LoginURLFn(relayState)
}

func (p *SAMLProvider) ParseCallback(r *http.Request) (domainauth.Identity, error) {
	if p.ParseCallbackFn == nil {
		return domainauth.Identity{}, nil
	}
	return p.ParseCallbackFn(r)
}

func (p *SAMLProvider) LogoutURL(ref domainauth.ProtocolSessionRef, relayState string) (string, error) {
	if p.LogoutURLFn == nil {
		return "https://idp.example.com/slo", nil
	}
	return p.LogoutURLFn(ref, relayState)
}

func (p *SAMLProvider) ConsumeLogoutCallback(r *http.Request) error {
	if p.ConsumeLogoutCallbackFn == nil {
		return nil
	}
	return p.ConsumeLogoutCallbackFn(r)
}

// OIDCProvider is a configurable ports.OIDCProvider.
type OIDCProvider struct {
	AuthCodeURLFn  func(state, nonce string) string
	AuthenticateFn func(ctx context.Context, code string) (domainauth.Identity, map[string]any, error)
	LogoutURLFn    func(idToken string) string
}

var _ ports.OIDCProvider = (*OIDCProvider)(nil)

func (p *OIDCProvider) AuthCodeURL(state, nonce string) string {
	if p.AuthCodeURLFn == nil {
		return "https://idp.example.com/auth?state=" + state + "&nonce=" + nonce
	}
	return p.AuthCodeURLFn(state, nonce)
}

func (p *OIDCProvider) Authenticate(ctx context.Context, code string) (domainauth.Identity, map[string]any, error) {
	if p.AuthenticateFn == nil {
		return domainauth.Identity{}, nil, nil
	}
	return p.AuthenticateFn(ctx, code)
}

func (p *OIDCProvider) LogoutURL(idToken string) string {
	if p.LogoutURLFn == nil {
		return ""
	}
	return p.LogoutURLFn(idToken)
}
