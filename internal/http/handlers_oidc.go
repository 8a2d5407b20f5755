package httpx

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	apperrors "github.com/ssopoc/authgate/internal/errors"
	"github.com/ssopoc/authgate/internal/ports"
)

// OIDCHandlers serves the OpenID Connect Authorization Code endpoints.
type OIDCHandlers struct {
	Provider     ports.OIDCProvider
	Sessions     SessionService
	FrontendURL  string
	CookieDomain string
	Logger       *slog.Logger
}

func (h *OIDCHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Login generates state and nonce, stores them in short-lived cookies, and
// redirects the browser to the IdP's authorization endpoint.
// GET /oidc/login.
func (h *OIDCHandlers) Login(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	nonce := uuid.NewString()

	setTempCookie(w, r, h.CookieDomain, oauthStateCookie, state)
	setTempCookie(w, r, h.CookieDomain, oauthNonceCookie, nonce)

	http.Redirect(w, r, h.Provider.AuthCodeURL(state, nonce), http.StatusFound)
}

// Callback exchanges the authorization code, validates the ID token, and
// establishes the session. State and nonce from the login cookies must match
// what comes back.
// GET /oidc/callback?code=<code>&state=<state>.
func (h *OIDCHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if errCode := q.Get("error"); errCode != "" {
		message := errCode
		if desc := q.Get("error_description"); desc != "" {
			message += ": " + desc
		}
		WriteError(w, apperrors.Authf("identity provider error: %s", message))
		return
	}

	code := q.Get("code")
	if code == "" {
		WriteError(w, apperrors.Auth("authorization code is required"))
		return
	}

	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != q.Get("state") {
		WriteError(w, apperrors.Auth("invalid or missing state parameter"))
		return
	}

	identity, claims, err := h.Provider.Authenticate(r.Context(), code)
	if err != nil {
		h.logger().WarnContext(r.Context(), "oidc authentication failed", "error", err)
		WriteError(w, err)
		return
	}

	if nonceCookie, err := r.Cookie(oauthNonceCookie); err == nil && nonceCookie.Value != "" {
		if nonce, _ := claims["nonce"].(string); nonce != nonceCookie.Value {
			WriteError(w, apperrors.Auth("nonce mismatch"))
			return
		}
	}

	session, err := h.Sessions.Establish(r.Context(), identity)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "session establish failed", "error", err)
		WriteError(w, apperrors.Wrap(err, apperrors.ErrCodeInternal, "establish session"))
		return
	}

	setSessionCookie(w, r, h.CookieDomain, session.ID, session.ExpiresAt)
	clearCookie(w, r, h.CookieDomain, oauthStateCookie)
	clearCookie(w, r, h.CookieDomain, oauthNonceCookie)

	http.Redirect(w, r, h.FrontendURL, http.StatusFound)
}

// Logout clears the local session and redirects to the IdP's end-session
// endpoint with the stored ID token as logout hint. Without a session or
// end-session endpoint the browser goes straight back to the frontend.
// GET /oidc/logout.
func (h *OIDCHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromRequest(r, h.Sessions)

	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		_ = h.Sessions.Terminate(r.Context(), cookie.Value)
	}
	clearCookie(w, r, h.CookieDomain, sessionCookieName)

	target := h.FrontendURL
	if ok && session.Ref.IDToken != "" {
		if logoutURL := h.Provider.LogoutURL(session.Ref.IDToken); logoutURL != "" {
			target = logoutURL
		}
	}

	http.Redirect(w, r, target, http.StatusFound)
}
