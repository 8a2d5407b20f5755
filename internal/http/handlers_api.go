package httpx

import (
	"net/http"
)

// APIHandlers serves the JSON API consumed by the frontend SPA.
type APIHandlers struct {
	Sessions SessionService
}

// User returns the current identity, or {"authenticated": false} for
// anonymous callers. Anonymous is not an error here; the SPA polls this
// endpoint to decide whether to show the login button.
// GET /api/user.
func (h *APIHandlers) User(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromRequest(r, h.Sessions)
	if !ok {
		WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"username":      session.Username,
		"email":         session.Email,
		"roles":         session.Roles,
		"attributes":    session.Attributes,
	})
}

// Protected is reachable by any authenticated user.
// GET /api/protected.
func (h *APIHandlers) Protected(w http.ResponseWriter, r *http.Request) {
	session, _ := SessionFromContext(r.Context())
	WriteJSON(w, http.StatusOK, map[string]any{
		"message":  "This is a protected resource",
		"username": session.Username,
	})
}

// Admin requires the admin role.
// GET /api/admin.
func (h *APIHandlers) Admin(w http.ResponseWriter, r *http.Request) {
	session, _ := SessionFromContext(r.Context())
	WriteJSON(w, http.StatusOK, map[string]any{
		"message":  "Admin access granted",
		"username": session.Username,
		"roles":    session.Roles,
	})
}

// Editor requires the editor role (held directly or implied by admin).
// GET /api/editor.
func (h *APIHandlers) Editor(w http.ResponseWriter, r *http.Request) {
	session, _ := SessionFromContext(r.Context())
	WriteJSON(w, http.StatusOK, map[string]any{
		"message":  "Editor access granted",
		"username": session.Username,
		"roles":    session.Roles,
	})
}

// healthHandler reports liveness.
// GET /healthz.
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
