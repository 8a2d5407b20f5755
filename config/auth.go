package config

import (
	"fmt"
	"strings"
	"time"
)

// Protocol selects which IdP protocol the gateway speaks.
type Protocol string

const (
	// ProtocolSAML runs the SAML 2.0 Web Browser SSO pipeline.
	ProtocolSAML Protocol = "saml"
	// ProtocolOIDC runs the OpenID Connect Authorization Code pipeline.
	ProtocolOIDC Protocol = "oidc"
)

// UnmarshalText implements encoding.TextUnmarshaler for Protocol.
func (p *Protocol) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "saml", "oidc":
		*p = Protocol(v)
		return nil
	default:
		return fmt.Errorf("invalid Protocol: %q (valid options: saml, oidc)", v)
	}
}

// SAMLConfig contains SAML service-provider configuration.
type SAMLConfig struct {
	EntityID    string `env:"ENTITY_ID"     envDefault:"http://localhost:8080/saml/metadata"`
	ACSURL      string `env:"ACS_URL"       envDefault:"http://localhost:8080/saml/callback"`
	SLOURL      string `env:"SLO_URL"       envDefault:"http://localhost:8080/saml/sls"`
	MetadataURL string `env:"IDP_METADATA_URL"`
	// MetadataFile points at a local IdP metadata XML; used when the
	// metadata URL is unset.
	MetadataFile string `env:"IDP_METADATA_FILE"`
	CertFile     string `env:"SP_CERT_FILE"`
	KeyFile      string `env:"SP_KEY_FILE"`
	// AllowIDPInitiated permits unsolicited assertions.
	AllowIDPInitiated bool `env:"ALLOW_IDP_INITIATED" envDefault:"true"`
}

// OIDCConfig contains OIDC relying-party configuration.
type OIDCConfig struct {
	ClientID     string `env:"CLIENT_ID"     envDefault:"authgate"`
	ClientSecret string `env:"CLIENT_SECRET" envDefault:""`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/oidc/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid email profile roles"`

	// Issuer is the issuer URL reachable from this process. IssuerPublic is
	// the browser-facing value appearing in the iss claim; defaults to
	// Issuer when empty.
	Issuer       string `env:"ISSUER"`
	IssuerPublic string `env:"ISSUER_PUBLIC"`

	// DiscoveryURL switches endpoint resolution to the .well-known document
	// instead of Keycloak-style paths derived from the issuer.
	DiscoveryURL string `env:"DISCOVERY_URL"`

	AuthURL       string `env:"AUTH_URL"`
	TokenURL      string `env:"TOKEN_URL"`
	JWKSURL       string `env:"JWKS_URL"`
	EndSessionURL string `env:"END_SESSION_URL"`

	// JWKSCacheTTL bounds signing-key reuse. Zero re-fetches per validation.
	JWKSCacheTTL time.Duration `env:"JWKS_CACHE_TTL" envDefault:"5m"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Protocol determines which IdP pipeline this instance runs.
	Protocol Protocol `env:"AUTH_PROTOCOL" envDefault:"saml"`

	// SAML configuration (used when Protocol=saml).
	SAML SAMLConfig `envPrefix:"SAML_"`

	// OIDC configuration (used when Protocol=oidc).
	OIDC OIDCConfig `envPrefix:"OIDC_"`

	// SessionTTL is the lifetime of an established session.
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"1h"`
}

// Sanitize applies guardrails to authentication configuration values.
func (a *AuthConfig) Sanitize() {
	if a.SessionTTL <= 0 {
		a.SessionTTL = time.Hour
	}
	if a.OIDC.JWKSCacheTTL < 0 {
		a.OIDC.JWKSCacheTTL = 0
	}
}
