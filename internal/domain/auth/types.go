package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import "time"

// DefaultSessionTTL is the session lifetime applied when no explicit TTL is
// configured.
const DefaultSessionTTL = time.Hour

// ProtocolSessionRef identifies the IdP-side session so Single Logout can
// reference it later. SAML populates the NameID fields; OIDC keeps the raw
// tokens, with the ID token doubling as the logout hint.
type ProtocolSessionRef struct {
	NameID          string `json:"name_id,omitempty"`
	SessionIndex    string `json:"session_index,omitempty"`
	NameIDFormat    string `json:"name_id_format,omitempty"`
	NameQualifier   string `json:"name_qualifier,omitempty"`
	SPNameQualifier string `json:"sp_name_qualifier,omitempty"`
	IDToken         string `json:"id_token,omitempty"`
	AccessToken     string `json:"access_token,omitempty"`
	RefreshToken    string `json:"refresh_token,omitempty"`
}

// IsZero reports whether the ref carries nothing usable for IdP logout.
func (r ProtocolSessionRef) IsZero() bool {
	return r.NameID == "" && r.IDToken == ""
}

// Identity represents the authenticated principal produced by processing one
// IdP response or token. Adapters map provider-specific attribute/claim
// shapes into this form; it is immutable once created.
type Identity struct {
	// SubjectID is the IdP-assigned identifier (SAML NameID or OIDC sub).
	SubjectID string
	// Username may be empty when the IdP does not release one.
	Username string
	Email    string
	// Roles is the normalized role list derived from attributes or claims.
	Roles []string
	// Attributes preserves multi-valued attributes in IdP order.
	Attributes map[string][]string
	// Ref carries the IdP session handle needed for Single Logout.
	Ref ProtocolSessionRef
}

// Session is the server-side record persisted for an authenticated user,
// keyed by an opaque session ID carried in the cookie. A new login fully
// replaces the record; roles are never merged across logins.
type Session struct {
	ID            string              `json:"id"`
	Authenticated bool                `json:"authenticated"`
	SubjectID     string              `json:"subject_id"`
	Username      string              `json:"username"`
	Email         string              `json:"email"`
	Roles         []string            `json:"roles"`
	Attributes    map[string][]string `json:"attributes,omitempty"`
	Ref           ProtocolSessionRef  `json:"ref"`
	CreatedAt     time.Time           `json:"created_at"`
	ExpiresAt     time.Time           `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at the given time.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
