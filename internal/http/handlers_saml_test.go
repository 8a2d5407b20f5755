package httpx

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/ssopoc/authgate/internal/domain/auth"
	apperrors "github.com/ssopoc/authgate/internal/errors"
	authmocks "github.com/ssopoc/authgate/internal/mocks/auth"
	"github.com/ssopoc/authgate/internal/service"
)

func newSAMLRouter(sessions *service.SessionManager, provider *authmocks.SAMLProvider) http.Handler {
	return NewRouter(RouterServices{
		Sessions:    sessions,
		SAML:        provider,
		FrontendURL: testFrontendURL,
	})
}

func sessionCookieFrom(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	return nil
}

func TestSAMLLoginRedirectsToIdP(t *testing.T) {
	var gotRelayState string
	provider := &authmocks.SAMLProvider{
		LoginURLFn: func(relayState string) (string, error) {
			gotRelayState = relayState
			return "https://idp.example.com/sso?SAMLRequest=abc", nil
		},
	}
	router := newSAMLRouter(newTestSessions(t), provider)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/saml/login", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://idp.example.com/sso?SAMLRequest=abc", rec.Header().Get("Location"))
	assert.Equal(t, testFrontendURL, gotRelayState)
}

func TestSAMLLoginUpstreamFailure(t *testing.T) {
	provider := &authmocks.SAMLProvider{
		LoginURLFn: func(string) (string, error) {
			return "", errors.New("idp metadata missing")
		},
	}
	router := newSAMLRouter(newTestSessions(t), provider)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/saml/login", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "initiate SAML login")
}

func TestSAMLCallbackEstablishesSession(t *testing.T) {
	sessions := newTestSessions(t)
	provider := &authmocks.SAMLProvider{
		ParseCallbackFn: func(*http.Request) (domainauth.Identity, error) {
			return domainauth.Identity{
				SubjectID: "user-1",
				Username:  "alice",
				Roles:     []string{"admin"},
				Ref:       domainauth.ProtocolSessionRef{NameID: "user-1"},
			}, nil
		},
	}
	router := newSAMLRouter(sessions, provider)

	form := url.Values{"SAMLResponse": {"ignored"}, "RelayState": {testFrontendURL + "/app"}}
	req := httptest.NewRequest(http.MethodPost, "/saml/callback", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, testFrontendURL+"/app", rec.Header().Get("Location"))

	cookie := sessionCookieFrom(t, rec)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	sess, ok := sessions.Current(req.Context(), cookie.Value)
	require.True(t, ok)
	assert.Equal(t, []string{"admin"}, sess.Roles)
}

func TestSAMLCallbackRejectsInvalidResponse(t *testing.T) {
	provider := &authmocks.SAMLProvider{
		ParseCallbackFn: func(*http.Request) (domainauth.Identity, error) {
			return domainauth.Identity{}, apperrors.Auth("cannot validate signature on Response")
		},
	}
	router := newSAMLRouter(newTestSessions(t), provider)

	req := httptest.NewRequest(http.MethodPost, "/saml/callback", strings.NewReader("SAMLResponse=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "cannot validate signature on Response", decodeBody(t, rec)["error"])
}

func TestSAMLLogoutWithSession(t *testing.T) {
	sessions := newTestSessions(t)
	provider := &authmocks.SAMLProvider{
		LogoutURLFn: func(ref domainauth.ProtocolSessionRef, relayState string) (string, error) {
			assert.Equal(t, "user-1", ref.NameID)
			return "https://idp.example.com/slo?SAMLRequest=xyz", nil
		},
	}
	router := newSAMLRouter(sessions, provider)
	sess := establishSession(t, sessions, []string{"viewer"})

	req := withSessionCookie(httptest.NewRequest(http.MethodGet, "/saml/logout", nil), sess.ID)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://idp.example.com/slo?SAMLRequest=xyz", rec.Header().Get("Location"))

	// Local session is gone even though IdP logout is still in flight.
	_, ok := sessions.Current(req.Context(), sess.ID)
	assert.False(t, ok)

	cookie := sessionCookieFrom(t, rec)
	require.NotNil(t, cookie)
	assert.Less(t, cookie.MaxAge, 0)
}

func TestSAMLLogoutWithoutSession(t *testing.T) {
	router := newSAMLRouter(newTestSessions(t), &authmocks.SAMLProvider{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/saml/logout", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, testFrontendURL, rec.Header().Get("Location"))
}

func TestSAMLLogoutIdPFailureStillClearsLocally(t *testing.T) {
	sessions := newTestSessions(t)
	provider := &authmocks.SAMLProvider{
		LogoutURLFn: func(domainauth.ProtocolSessionRef, string) (string, error) {
			return "", errors.New("idp has no SLO endpoint")
		},
	}
	router := newSAMLRouter(sessions, provider)
	sess := establishSession(t, sessions, []string{"viewer"})

	req := withSessionCookie(httptest.NewRequest(http.MethodGet, "/saml/logout", nil), sess.ID)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, testFrontendURL, rec.Header().Get("Location"))
	_, ok := sessions.Current(req.Context(), sess.ID)
	assert.False(t, ok)
}

func TestSAMLSingleLogoutLocalOnly(t *testing.T) {
	sessions := newTestSessions(t)
	router := newSAMLRouter(sessions, &authmocks.SAMLProvider{})
	sess := establishSession(t, sessions, []string{"viewer"})

	req := withSessionCookie(httptest.NewRequest(http.MethodGet, "/saml/sls", nil), sess.ID)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, testFrontendURL, rec.Header().Get("Location"))
	_, ok := sessions.Current(req.Context(), sess.ID)
	assert.False(t, ok)
}

func TestSAMLSingleLogoutAbsorbsValidationError(t *testing.T) {
	sessions := newTestSessions(t)
	provider := &authmocks.SAMLProvider{
		ConsumeLogoutCallbackFn: func(*http.Request) error {
			return apperrors.Auth("invalid logout response")
		},
	}
	router := newSAMLRouter(sessions, provider)
	sess := establishSession(t, sessions, []string{"viewer"})

	req := withSessionCookie(
		httptest.NewRequest(http.MethodGet, "/saml/sls?SAMLResponse=abc", nil), sess.ID)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// Validation failed but the user still ends up logged out locally.
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, testFrontendURL, rec.Header().Get("Location"))
	_, ok := sessions.Current(req.Context(), sess.ID)
	assert.False(t, ok)
}
