package httpx

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	sessionCookieName = "session_id"
	oauthStateCookie  = "oauth_state"
	oauthNonceCookie  = "oauth_nonce"

	// oauthCookieTTL bounds how long a login attempt may sit between the
	// authorization redirect and the callback.
	oauthCookieTTL = 10 * time.Minute
)

// isSecureRequest reports whether the request arrived over HTTPS, directly
// or via a reverse proxy setting X-Forwarded-Proto.
func isSecureRequest(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

func setSessionCookie(w http.ResponseWriter, r *http.Request, domain, value string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    value,
		Path:     "/",
		Domain:   domain,
		Expires:  expires,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	})
}

func setTempCookie(w http.ResponseWriter, r *http.Request, domain, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   domain,
		MaxAge:   int(oauthCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	})
}

// clearCookie expires a cookie on the client. It mirrors the attributes used
// when setting cookies so browsers match and drop the right one.
func clearCookie(w http.ResponseWriter, r *http.Request, domain, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	})
}

// safeRedirectTarget validates a post-login redirect. Relative paths are
// allowed as-is; absolute URLs must share the fallback's origin. Anything
// else falls back, so an IdP-controlled RelayState cannot send the browser
// to an arbitrary site.
func safeRedirectTarget(raw, fallback string) string {
	if raw == "" {
		return fallback
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fallback
	}
	if !u.IsAbs() {
		if u.Host == "" && strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
			return raw
		}
		return fallback
	}
	base, err := url.Parse(fallback)
	if err != nil || u.Scheme != base.Scheme || u.Host != base.Host {
		return fallback
	}
	return raw
}
