package oidc

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ssopoc/authgate/internal/errors"
)

const (
	testClientID = "demo-client"
	testIssuer   = "https://idp.example.com/realms/demo"
)

// signerFixture holds an RSA signing key and an httptest server publishing
// its public half as a JWKS document.
type signerFixture struct {
	priv jwk.Key
	srv  *httptest.Server
}

func newSignerFixture(t *testing.T, kid string) *signerFixture {
	t.Helper()

	raw, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	priv, err := jwk.FromRaw(raw)
	require.NoError(t, err)
	require.NoError(t, priv.Set(jwk.KeyIDKey, kid))

	pub, err := priv.PublicKey()
	require.NoError(t, err)
	set := jwk.NewSet()
	require.NoError(t, set.AddKey(pub))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(set)
	}))
	t.Cleanup(srv.Close)

	return &signerFixture{priv: priv, srv: srv}
}

func (f *signerFixture) validator() *Validator {
	keys := NewJWKSCache(f.srv.URL, f.srv.Client(), time.Minute)
	return NewValidator(keys, testClientID, testIssuer)
}

func (f *signerFixture) buildToken(t *testing.T, mutate func(b *jwt.Builder)) jwt.Token {
	t.Helper()
	now := time.Now()
	b := jwt.NewBuilder().
		Issuer(testIssuer).
		Audience([]string{testClientID}).
		Subject("user-1").
		IssuedAt(now).
		Expiration(now.Add(time.Hour))
	if mutate != nil {
		mutate(b)
	}
	tok, err := b.Build()
	require.NoError(t, err)
	return tok
}

func (f *signerFixture) sign(t *testing.T, mutate func(b *jwt.Builder)) string {
	t.Helper()
	signed, err := jwt.Sign(f.buildToken(t, mutate), jwt.WithKey(jwa.RS256, f.priv))
	require.NoError(t, err)
	return string(signed)
}

func TestValidatorAcceptsValidToken(t *testing.T) {
	fix := newSignerFixture(t, "kid-1")
	v := fix.validator()

	claims, err := v.Validate(context.Background(), fix.sign(t, nil))
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims["sub"])
	assert.Equal(t, testIssuer, claims["iss"])
}

func TestValidatorRejectsExpiredToken(t *testing.T) {
	fix := newSignerFixture(t, "kid-1")
	v := fix.validator()

	raw := fix.sign(t, func(b *jwt.Builder) {
		b.IssuedAt(time.Now().Add(-2 * time.Hour))
		b.Expiration(time.Now().Add(-time.Hour))
	})

	_, err := v.Validate(context.Background(), raw)
	require.Error(t, err)
	assert.True(t, apperrors.IsAuth(err))
	assert.Contains(t, err.Error(), "expired")
}

func TestValidatorRejectsWrongAudience(t *testing.T) {
	fix := newSignerFixture(t, "kid-1")
	v := fix.validator()

	raw := fix.sign(t, func(b *jwt.Builder) {
		b.Audience([]string{"someone-else"})
	})

	_, err := v.Validate(context.Background(), raw)
	require.Error(t, err)
	assert.True(t, apperrors.IsAuth(err))
}

func TestValidatorRejectsWrongIssuer(t *testing.T) {
	fix := newSignerFixture(t, "kid-1")
	v := fix.validator()

	raw := fix.sign(t, func(b *jwt.Builder) {
		b.Issuer("https://evil.example.com")
	})

	_, err := v.Validate(context.Background(), raw)
	require.Error(t, err)
	assert.True(t, apperrors.IsAuth(err))
}

func TestValidatorRejectsNonRS256(t *testing.T) {
	fix := newSignerFixture(t, "kid-1")
	v := fix.validator()

	sym, err := jwk.FromRaw([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	require.NoError(t, sym.Set(jwk.KeyIDKey, "kid-1"))

	signed, err := jwt.Sign(fix.buildToken(t, nil), jwt.WithKey(jwa.HS256, sym))
	require.NoError(t, err)

	_, err = v.Validate(context.Background(), string(signed))
	require.Error(t, err)
	assert.True(t, apperrors.IsAuth(err))
	assert.Contains(t, err.Error(), "RS256")
}

func TestValidatorRejectsUnknownKeyID(t *testing.T) {
	// Token signed by a key the published JWKS does not contain.
	serving := newSignerFixture(t, "kid-1")
	rogue := newSignerFixture(t, "kid-2")

	v := serving.validator()
	_, err := v.Validate(context.Background(), rogue.sign(t, nil))
	require.Error(t, err)
	assert.True(t, apperrors.IsAuth(err))
	assert.Contains(t, err.Error(), "not found in JWKS")
}

func TestValidatorRejectsMalformedToken(t *testing.T) {
	fix := newSignerFixture(t, "kid-1")
	v := fix.validator()

	_, err := v.Validate(context.Background(), "not-a-token")
	require.Error(t, err)
	assert.True(t, apperrors.IsAuth(err))
}

func TestJWKSCacheReportsUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	keys := NewJWKSCache(srv.URL, srv.Client(), time.Minute)
	_, err := keys.Key(context.Background(), "kid-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsUpstream(err))
}

func TestJWKSCacheRefreshesOnUnknownKeyID(t *testing.T) {
	fix := newSignerFixture(t, "kid-1")
	keys := NewJWKSCache(fix.srv.URL, fix.srv.Client(), time.Minute)

	// First lookup populates the cache.
	_, err := keys.Key(context.Background(), "kid-1")
	require.NoError(t, err)

	// A kid the cached set lacks forces a refresh, then fails as auth.
	_, err = keys.Key(context.Background(), "kid-9")
	require.Error(t, err)
	assert.True(t, apperrors.IsAuth(err))
}
