package oidc

// Package oidc adapts an OAuth2 client plus ID-token validation to the
// gateway's OpenID Connect Authorization Code flow: authorization redirect,
// code exchange, claim extraction, and RP-initiated logout.

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	domainauth "github.com/ssopoc/authgate/internal/domain/auth"
	apperrors "github.com/ssopoc/authgate/internal/errors"
	"github.com/ssopoc/authgate/internal/ports"
)

// DefaultScope requests the claims the gateway consumes. The roles scope is
// a Keycloak client-scope convention that releases realm and client roles.
const DefaultScope = "openid email profile roles"

// Keycloak realm endpoint paths, used when no discovery document is
// configured.
const (
	pathAuthorize  = "/protocol/openid-connect/auth"
	pathToken      = "/protocol/openid-connect/token"
	pathJWKS       = "/protocol/openid-connect/certs"
	pathEndSession = "/protocol/openid-connect/logout"
)

// Config holds configuration for the OIDC relying party.
type Config struct {
	ClientID     string
	ClientSecret string
	// RedirectURL is the registered callback (the /oidc/callback endpoint).
	RedirectURL string
	// Scope is a space-separated scope list. Defaults to DefaultScope.
	Scope string

	// Issuer is the issuer URL the gateway can reach directly. In container
	// setups this is an internal address.
	Issuer string
	// PublicIssuer is the issuer URL as the browser sees it and as it
	// appears in the iss claim of issued tokens. Defaults to Issuer.
	PublicIssuer string

	// DiscoveryURL optionally points at the .well-known configuration
	// document. When set, endpoints come from discovery; otherwise they are
	// derived from Issuer using Keycloak realm paths. Explicit endpoint
	// fields below override either source.
	DiscoveryURL string

	AuthURL       string
	TokenURL      string
	JWKSURL       string
	EndSessionURL string

	// PostLogoutRedirectURI is where the IdP sends the browser after
	// end-session completes. Usually the frontend URL.
	PostLogoutRedirectURI string

	// JWKSCacheTTL bounds how long fetched signing keys are reused. Zero
	// re-fetches the JWKS on every validation.
	JWKSCacheTTL time.Duration

	// HTTPClient is used for all IdP calls (discovery, token, JWKS). Optional.
	HTTPClient *http.Client
}

// Provider implements the OIDC relying-party side of the gateway.
type Provider struct {
	oauth         *oauth2.Config
	validator     *Validator
	client        *http.Client
	endSessionURL string
	postLogoutURI string
}

var _ ports.OIDCProvider = (*Provider)(nil)

// NewProvider resolves the IdP endpoints and builds the relying party.
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if cfg.RedirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	publicIssuer := cfg.PublicIssuer
	if publicIssuer == "" {
		publicIssuer = cfg.Issuer
	}

	endpoints, err := resolveEndpoints(ctx, cfg, client, publicIssuer)
	if err != nil {
		return nil, err
	}

	scope := cfg.Scope
	if scope == "" {
		scope = DefaultScope
	}

	keys := NewJWKSCache(endpoints.jwks, client, cfg.JWKSCacheTTL)

	return &Provider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       strings.Fields(scope),
			Endpoint: oauth2.Endpoint{
				AuthURL:  endpoints.authorize,
				TokenURL: endpoints.token,
			},
		},
		validator:     NewValidator(keys, cfg.ClientID, publicIssuer),
		client:        client,
		endSessionURL: endpoints.endSession,
		postLogoutURI: cfg.PostLogoutRedirectURI,
	}, nil
}

type endpointSet struct {
	authorize  string
	token      string
	jwks       string
	endSession string
}

// resolveEndpoints produces the final endpoint set: discovery when
// configured, Keycloak realm paths otherwise, with explicit config fields
// overriding both. The browser-facing endpoints (authorize, end-session)
// use the public issuer; server-to-server ones (token, JWKS) use the
// internal issuer.
func resolveEndpoints(ctx context.Context, cfg Config, client *http.Client, publicIssuer string) (endpointSet, error) {
	var eps endpointSet

	switch {
	case cfg.DiscoveryURL != "":
		discovered, err := discoverEndpoints(ctx, cfg.DiscoveryURL, client, publicIssuer)
		if err != nil {
			return endpointSet{}, err
		}
		eps = discovered
	case cfg.Issuer != "":
		internal := strings.TrimSuffix(cfg.Issuer, "/")
		public := strings.TrimSuffix(publicIssuer, "/")
		eps = endpointSet{
			authorize:  public + pathAuthorize,
			token:      internal + pathToken,
			jwks:       internal + pathJWKS,
			endSession: public + pathEndSession,
		}
	}

	if cfg.AuthURL != "" {
		eps.authorize = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		eps.token = cfg.TokenURL
	}
	if cfg.JWKSURL != "" {
		eps.jwks = cfg.JWKSURL
	}
	if cfg.EndSessionURL != "" {
		eps.endSession = cfg.EndSessionURL
	}

	if eps.authorize == "" || eps.token == "" || eps.jwks == "" {
		return endpointSet{}, errors.New("issuer, discovery URL, or explicit endpoints are required")
	}
	return eps, nil
}

func discoverEndpoints(ctx context.Context, discoveryURL string, client *http.Client, publicIssuer string) (endpointSet, error) {
	issuer := strings.TrimSuffix(discoveryURL, "/.well-known/openid-configuration")

	ctx = gooidc.ClientContext(ctx, client)
	if publicIssuer != "" && publicIssuer != issuer {
		// The document is fetched over the internal address but declares the
		// public issuer; skip the library's issuer-match check and validate
		// the iss claim against the public value ourselves.
		ctx = gooidc.InsecureIssuerURLContext(ctx, publicIssuer)
	}

	op, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return endpointSet{}, apperrors.Wrap(err, apperrors.ErrCodeUpstream, "fetch OIDC discovery document")
	}

	var doc struct {
		JWKSURI            string `json:"jwks_uri"`
		EndSessionEndpoint string `json:"end_session_endpoint"`
	}
	if err := op.Claims(&doc); err != nil {
		return endpointSet{}, apperrors.Wrap(err, apperrors.ErrCodeUpstream, "decode OIDC discovery document")
	}

	ep := op.Endpoint()
	return endpointSet{
		authorize:  ep.AuthURL,
		token:      ep.TokenURL,
		jwks:       doc.JWKSURI,
		endSession: doc.EndSessionEndpoint,
	}, nil
}

// AuthCodeURL builds the authorization redirect carrying state and nonce.
func (p *Provider) AuthCodeURL(state, nonce string) string {
	return p.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("nonce", nonce))
}

// Authenticate exchanges the authorization code at the token endpoint,
// validates the returned ID token, and maps its claims to the domain
// identity. The raw claims are returned alongside for callers that surface
// them.
func (p *Provider) Authenticate(ctx context.Context, code string) (domainauth.Identity, map[string]any, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)

	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return domainauth.Identity{}, nil, apperrors.Wrap(err, apperrors.ErrCodeAuth, "exchange authorization code")
	}

	rawID, _ := token.Extra("id_token").(string)
	if rawID == "" {
		return domainauth.Identity{}, nil, apperrors.Auth("token response missing id_token")
	}

	claims, err := p.validator.Validate(ctx, rawID)
	if err != nil {
		return domainauth.Identity{}, nil, err
	}

	roles := domainauth.RolesFromClaims(claims, p.oauth.ClientID)

	username := claimString(claims, "preferred_username")
	if username == "" {
		username = claimString(claims, "email")
	}

	identity := domainauth.Identity{
		SubjectID:  claimString(claims, "sub"),
		Username:   username,
		Email:      claimString(claims, "email"),
		Roles:      roles,
		Attributes: attributeSnapshot(claims, roles),
		Ref: domainauth.ProtocolSessionRef{
			IDToken:      rawID,
			AccessToken:  token.AccessToken,
			RefreshToken: token.RefreshToken,
		},
	}
	return identity, claims, nil
}

// LogoutURL builds the RP-initiated logout redirect. Returns empty when no
// end-session endpoint is known; callers fall back to a local-only logout.
func (p *Provider) LogoutURL(idToken string) string {
	if p.endSessionURL == "" {
		return ""
	}
	u, err := url.Parse(p.endSessionURL)
	if err != nil {
		return ""
	}
	q := u.Query()
	if idToken != "" {
		q.Set("id_token_hint", idToken)
	}
	if p.postLogoutURI != "" {
		q.Set("post_logout_redirect_uri", p.postLogoutURI)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func claimString(claims map[string]any, key string) string {
	v, _ := claims[key].(string)
	return v
}

// attributeSnapshot records the identity-bearing claims in the session's
// attribute map so /api/user can surface them uniformly across protocols.
func attributeSnapshot(claims map[string]any, roles []string) map[string][]string {
	attrs := make(map[string][]string)
	for _, key := range []string{"sub", "email", "preferred_username", "name"} {
		if v := claimString(claims, key); v != "" {
			attrs[key] = []string{v}
		}
	}
	if len(roles) > 0 {
		attrs["roles"] = roles
	}
	return attrs
}
