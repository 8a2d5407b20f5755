package saml

// Package saml adapts the crewjam/saml toolkit to the gateway's SAML 2.0
// Web Browser SSO profile: login redirect, assertion consumption, and
// Single Logout coordination with the IdP.

import (
	"context"
	"crypto"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/crewjam/saml"
	"github.com/crewjam/saml/samlsp"

	domainauth "github.com/ssopoc/authgate/internal/domain/auth"
	apperrors "github.com/ssopoc/authgate/internal/errors"
	"github.com/ssopoc/authgate/internal/ports"
)

// Config holds configuration for the SAML service provider.
type Config struct {
	// EntityID is the SP entity ID presented to the IdP.
	EntityID string
	// ACSURL is the assertion consumer service URL (the callback endpoint).
	ACSURL string
	// SLOURL is the single logout service URL (the /saml/sls endpoint).
	SLOURL string
	// MetadataURL points at the IdP metadata document. One of MetadataURL
	// or MetadataFile is required.
	MetadataURL  string
	MetadataFile string
	// CertFile/KeyFile optionally hold the SP keypair used to sign requests.
	CertFile string
	KeyFile  string
	// AllowIDPInitiated permits unsolicited assertions. The gateway does
	// not track outstanding request IDs, so this is normally on.
	AllowIDPInitiated bool
	// HTTPClient is used for metadata retrieval. Optional.
	HTTPClient *http.Client
}

// Provider wraps a configured saml.ServiceProvider.
type Provider struct {
	sp *saml.ServiceProvider
}

var _ ports.SAMLProvider = (*Provider)(nil)

// NewProvider builds a SAML service provider from IdP metadata.
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.EntityID == "" {
		return nil, errors.New("entity ID is required")
	}
	if cfg.ACSURL == "" {
		return nil, errors.New("ACS URL is required")
	}

	acsURL, err := url.Parse(cfg.ACSURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ACS URL: %w", err)
	}
	sloURL := &url.URL{}
	if cfg.SLOURL != "" {
		if sloURL, err = url.Parse(cfg.SLOURL); err != nil {
			return nil, fmt.Errorf("invalid SLO URL: %w", err)
		}
	}

	idpMetadata, err := loadIDPMetadata(ctx, cfg)
	if err != nil {
		return nil, err
	}

	sp := &saml.ServiceProvider{
		EntityID:          cfg.EntityID,
		MetadataURL:       *acsURL,
		AcsURL:            *acsURL,
		SloURL:            *sloURL,
		IDPMetadata:       idpMetadata,
		AllowIDPInitiated: cfg.AllowIDPInitiated,
	}

	if cfg.CertFile != "" && cfg.KeyFile != "" {
		keyPair, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("load SP keypair: %w", err)
		}
		signer, ok := keyPair.PrivateKey.(crypto.Signer)
		if !ok {
			return nil, fmt.Errorf("SP private key does not implement crypto.Signer, got %T", keyPair.PrivateKey)
		}
		leaf, err := x509.ParseCertificate(keyPair.Certificate[0])
		if err != nil {
			return nil, fmt.Errorf("parse SP certificate: %w", err)
		}
		sp.Key = signer
		sp.Certificate = leaf
	}

	return &Provider{sp: sp}, nil
}

// loadIDPMetadata reads the IdP metadata from a URL or a local file.
func loadIDPMetadata(ctx context.Context, cfg Config) (*saml.EntityDescriptor, error) {
	if cfg.MetadataFile != "" {
		data, err := os.ReadFile(cfg.MetadataFile)
		if err != nil {
			return nil, fmt.Errorf("read IdP metadata file: %w", err)
		}
		md, err := samlsp.ParseMetadata(data)
		if err != nil {
			return nil, fmt.Errorf("parse IdP metadata: %w", err)
		}
		return md, nil
	}

	if cfg.MetadataURL == "" {
		return nil, errors.New("IdP metadata URL or file is required")
	}
	mdURL, err := url.Parse(cfg.MetadataURL)
	if err != nil {
		return nil, fmt.Errorf("invalid IdP metadata URL: %w", err)
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	md, err := samlsp.FetchMetadata(ctx, client, *mdURL)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeUpstream, "fetch IdP metadata")
	}
	return md, nil
}

// LoginURL builds the redirect that sends the browser to the IdP for
// authentication.
func (p *Provider) LoginURL(relayState string) (string, error) {
	u, err := p.sp.MakeRedirectAuthenticationRequest(relayState)
	if err != nil {
		return "", fmt.Errorf("build authentication request: %w", err)
	}
	return u.String(), nil
}

// LogoutURL builds the IdP Single Logout redirect for the given session ref.
// The toolkit fills in NameID format and qualifiers from SP/IdP metadata.
func (p *Provider) LogoutURL(ref domainauth.ProtocolSessionRef, relayState string) (string, error) {
	if ref.NameID == "" {
		return "", errors.New("no NameID recorded for session")
	}
	u, err := p.sp.MakeRedirectLogoutRequest(ref.NameID, relayState)
	if err != nil {
		return "", fmt.Errorf("build logout request: %w", err)
	}
	return u.String(), nil
}

// ConsumeLogoutCallback validates an SLS callback. A logout response from
// the IdP is verified through the toolkit; an incoming logout request
// (IdP-initiated) is accepted as-is since the only local action is clearing
// the session, which the caller performs unconditionally.
func (p *Provider) ConsumeLogoutCallback(r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeValidation, "parse logout callback")
	}
	if r.Form.Get("SAMLResponse") == "" {
		return nil
	}
	if err := p.sp.ValidateLogoutResponseRequest(r); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeAuth, "validate logout response")
	}
	return nil
}
