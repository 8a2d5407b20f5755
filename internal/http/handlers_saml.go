package httpx

import (
	"log/slog"
	"net/http"

	apperrors "github.com/ssopoc/authgate/internal/errors"
	"github.com/ssopoc/authgate/internal/ports"
)

// SAMLHandlers serves the SAML Web Browser SSO endpoints.
type SAMLHandlers struct {
	Provider     ports.SAMLProvider
	Sessions     SessionService
	FrontendURL  string
	CookieDomain string
	Logger       *slog.Logger
}

func (h *SAMLHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Login redirects the browser to the IdP. The optional next parameter is
// carried through as relay state and honored on callback.
// GET /saml/login?next=<optional_redirect>.
func (h *SAMLHandlers) Login(w http.ResponseWriter, r *http.Request) {
	relayState := safeRedirectTarget(r.URL.Query().Get("next"), h.FrontendURL)

	loginURL, err := h.Provider.LoginURL(relayState)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "saml login initiation failed", "error", err)
		WriteError(w, apperrors.Wrap(err, apperrors.ErrCodeUpstream, "initiate SAML login"))
		return
	}

	http.Redirect(w, r, loginURL, http.StatusFound)
}

// Callback consumes the posted SAML response, establishes the session, and
// redirects to the frontend. Validation failures surface as 400 with the
// toolkit's reason.
// POST /saml/callback.
func (h *SAMLHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	identity, err := h.Provider.ParseCallback(r)
	if err != nil {
		h.logger().WarnContext(r.Context(), "saml callback rejected", "error", err)
		WriteError(w, err)
		return
	}

	session, err := h.Sessions.Establish(r.Context(), identity)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "session establish failed", "error", err)
		WriteError(w, apperrors.Wrap(err, apperrors.ErrCodeInternal, "establish session"))
		return
	}

	setSessionCookie(w, r, h.CookieDomain, session.ID, session.ExpiresAt)

	target := safeRedirectTarget(r.PostFormValue("RelayState"), h.FrontendURL)
	http.Redirect(w, r, target, http.StatusFound)
}

// Logout clears the local session and, when the session carries a NameID,
// redirects to the IdP's Single Logout service. The local session is cleared
// first; an IdP-side failure never leaves the user locally authenticated.
// GET /saml/logout.
func (h *SAMLHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromRequest(r, h.Sessions)

	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		_ = h.Sessions.Terminate(r.Context(), cookie.Value)
	}
	clearCookie(w, r, h.CookieDomain, sessionCookieName)

	target := h.FrontendURL
	if ok && session.Ref.NameID != "" {
		logoutURL, err := h.Provider.LogoutURL(session.Ref, h.FrontendURL)
		if err != nil {
			h.logger().WarnContext(r.Context(), "saml logout request failed", "error", err)
		} else {
			target = logoutURL
		}
	}

	http.Redirect(w, r, target, http.StatusFound)
}

// SingleLogout handles the SLS callback from the IdP, carrying either a
// LogoutResponse (answering our request) or a LogoutRequest (IdP-initiated).
// The local session is cleared regardless of validation outcome so logout
// never leaves the user stuck authenticated.
// GET|POST /saml/sls.
func (h *SAMLHandlers) SingleLogout(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err == nil &&
		(r.Form.Get("SAMLResponse") != "" || r.Form.Get("SAMLRequest") != "") {
		if err := h.Provider.ConsumeLogoutCallback(r); err != nil {
			h.logger().WarnContext(r.Context(), "single logout validation failed", "error", err)
		}
	}

	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		_ = h.Sessions.Terminate(r.Context(), cookie.Value)
	}
	clearCookie(w, r, h.CookieDomain, sessionCookieName)

	http.Redirect(w, r, h.FrontendURL, http.StatusFound)
}
