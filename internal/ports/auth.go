package ports

// Package ports defines interfaces (hexagonal ports) for auth-related
// behavior. Implementations live in internal/adapters; orchestration in
// internal/service.

import (
	"context"
	"errors"
	"net/http"

	domainauth "github.com/ssopoc/authgate/internal/domain/auth"
)

// ErrSessionNotFound is returned by SessionStore.Get when no live session
// exists for the given ID.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore persists and retrieves user sessions. TTL enforcement is the
// store's responsibility; Get must not return expired records.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

// SAMLProvider fronts the SAML toolkit for the Web Browser SSO profile.
type SAMLProvider interface {
	// LoginURL builds the IdP redirect that initiates authentication.
	LoginURL(relayState string) (string, error)

	// ParseCallback validates the posted SAML response and returns the
	// authenticated identity. Request metadata (forwarded proto/host) is
	// taken from the request itself.
	ParseCallback(r *http.Request) (domainauth.Identity, error)

	// LogoutURL builds the IdP Single Logout redirect for the session
	// identified by ref.
	LogoutURL(ref domainauth.ProtocolSessionRef, relayState string) (string, error)

	// ConsumeLogoutCallback processes an SLS callback carrying a logout
	// response. It reports a protocol error when validation fails; callers
	// must clear the local session regardless.
	ConsumeLogoutCallback(r *http.Request) error
}

// OIDCProvider fronts the OAuth/OIDC client for the Authorization Code flow.
type OIDCProvider interface {
	// AuthCodeURL builds the IdP authorization redirect.
	AuthCodeURL(state, nonce string) string

	// Authenticate exchanges the authorization code, validates the ID
	// token, and returns the authenticated identity plus its raw claims.
	Authenticate(ctx context.Context, code string) (domainauth.Identity, map[string]any, error)

	// LogoutURL builds the IdP end-session redirect using the stored ID
	// token as logout hint.
	LogoutURL(idToken string) string
}
