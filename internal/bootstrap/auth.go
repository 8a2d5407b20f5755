package bootstrap

import (
	"context"
	"fmt"

	"github.com/ssopoc/authgate/config"
	oidcadapter "github.com/ssopoc/authgate/internal/adapters/oidc"
	samladapter "github.com/ssopoc/authgate/internal/adapters/saml"
	"github.com/ssopoc/authgate/internal/ports"
)

// AuthProviders holds the protocol adapters for the configured mode. Only
// the one matching cfg.Auth.Protocol is non-nil.
type AuthProviders struct {
	SAML ports.SAMLProvider
	OIDC ports.OIDCProvider
}

// BuildAuthProviders constructs the IdP adapter for the configured protocol.
// SAML fetches IdP metadata here, so startup fails fast on a bad IdP address.
func BuildAuthProviders(ctx context.Context, cfg *config.AppConfig) (AuthProviders, error) {
	switch cfg.Auth.Protocol {
	case config.ProtocolSAML:
		provider, err := samladapter.NewProvider(ctx, samladapter.Config{
			EntityID:          cfg.Auth.SAML.EntityID,
			ACSURL:            cfg.Auth.SAML.ACSURL,
			SLOURL:            cfg.Auth.SAML.SLOURL,
			MetadataURL:       cfg.Auth.SAML.MetadataURL,
			MetadataFile:      cfg.Auth.SAML.MetadataFile,
			CertFile:          cfg.Auth.SAML.CertFile,
			KeyFile:           cfg.Auth.SAML.KeyFile,
			AllowIDPInitiated: cfg.Auth.SAML.AllowIDPInitiated,
		})
		if err != nil {
			return AuthProviders{}, fmt.Errorf("configure SAML provider: %w", err)
		}
		return AuthProviders{SAML: provider}, nil

	case config.ProtocolOIDC:
		provider, err := oidcadapter.NewProvider(ctx, oidcadapter.Config{
			ClientID:              cfg.Auth.OIDC.ClientID,
			ClientSecret:          cfg.Auth.OIDC.ClientSecret,
			RedirectURL:           cfg.Auth.OIDC.RedirectURL,
			Scope:                 cfg.Auth.OIDC.Scope,
			Issuer:                cfg.Auth.OIDC.Issuer,
			PublicIssuer:          cfg.Auth.OIDC.IssuerPublic,
			DiscoveryURL:          cfg.Auth.OIDC.DiscoveryURL,
			AuthURL:               cfg.Auth.OIDC.AuthURL,
			TokenURL:              cfg.Auth.OIDC.TokenURL,
			JWKSURL:               cfg.Auth.OIDC.JWKSURL,
			EndSessionURL:         cfg.Auth.OIDC.EndSessionURL,
			PostLogoutRedirectURI: cfg.HTTP.FrontendURL,
			JWKSCacheTTL:          cfg.Auth.OIDC.JWKSCacheTTL,
		})
		if err != nil {
			return AuthProviders{}, fmt.Errorf("configure OIDC provider: %w", err)
		}
		return AuthProviders{OIDC: provider}, nil

	default:
		return AuthProviders{}, fmt.Errorf("unsupported auth protocol %q", cfg.Auth.Protocol)
	}
}
