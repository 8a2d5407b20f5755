package oidc

import (
	"context"
	"errors"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	apperrors "github.com/ssopoc/authgate/internal/errors"
)

// Validator verifies ID tokens against the IdP's JWKS. The signing
// algorithm is pinned to RS256 before any key lookup happens; algorithm
// confusion is a known JWT attack and must fail closed.
type Validator struct {
	keys     *JWKSCache
	clientID string
	// issuer is the PUBLIC issuer URL. Behind a reverse proxy the token is
	// signed with the public value even though token/JWKS retrieval uses
	// the internal address, so validation must use the public one.
	issuer string
}

// NewValidator creates a Validator for the given client ID and public
// issuer URL.
func NewValidator(keys *JWKSCache, clientID, issuer string) *Validator {
	return &Validator{keys: keys, clientID: clientID, issuer: issuer}
}

// Validate verifies signature, expiry, audience, and issuer of a compact
// JWS ID token and returns its claims. Any failure yields an error and no
// claims; callers must treat that as an authentication failure.
func (v *Validator) Validate(ctx context.Context, raw string) (map[string]any, error) {
	msg, err := jws.Parse([]byte(raw))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeAuth, "malformed token")
	}
	sigs := msg.Signatures()
	if len(sigs) == 0 {
		return nil, apperrors.Auth("token carries no signature")
	}

	headers := sigs[0].ProtectedHeaders()
	if alg := headers.Algorithm(); alg != jwa.RS256 {
		return nil, apperrors.Authf("unexpected signing algorithm %q: only RS256 is accepted", alg)
	}
	kid := headers.KeyID()
	if kid == "" {
		return nil, apperrors.Auth("token missing kid header")
	}

	key, err := v.keys.Key(ctx, kid)
	if err != nil {
		return nil, err
	}

	tok, err := jwt.Parse([]byte(raw),
		jwt.WithKey(jwa.RS256, key),
		jwt.WithValidate(true),
		jwt.WithAudience(v.clientID),
		jwt.WithIssuer(v.issuer),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired()) {
			return nil, apperrors.Auth("token expired")
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeAuth, "validate ID token")
	}

	claims, err := tok.AsMap(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "decode token claims")
	}
	return claims, nil
}
