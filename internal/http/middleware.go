package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	domainauth "github.com/ssopoc/authgate/internal/domain/auth"
	apperrors "github.com/ssopoc/authgate/internal/errors"
)

// SessionService is the session lifecycle surface the HTTP layer depends on.
type SessionService interface {
	Establish(ctx context.Context, identity domainauth.Identity) (domainauth.Session, error)
	Current(ctx context.Context, id string) (domainauth.Session, bool)
	Terminate(ctx context.Context, id string) error
}

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that converts panics into a 500 response.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					WriteError(w, apperrors.Internal("internal server error"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth returns a middleware that requires a live session.
// Unauthenticated requests get a 401 response.
func RequireAuth(sessions SessionService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := sessionFromRequest(r, sessions)
			if !ok {
				WriteError(w, apperrors.Unauthenticated("authentication required"))
				return
			}

			ctx := SetSessionInContext(r.Context(), session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole returns a middleware that requires the given role, directly or
// through the role hierarchy. Unauthenticated requests get 401, authenticated
// requests lacking the role get 403.
func RequireRole(sessions SessionService, requiredRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := sessionFromRequest(r, sessions)
			if !ok {
				WriteError(w, apperrors.Unauthenticated("authentication required"))
				return
			}

			if !domainauth.Allowed(session.Roles, requiredRole) {
				WriteError(w, apperrors.Forbiddenf(
					"Role %s required. User has roles: %v", requiredRole, session.Roles))
				return
			}

			ctx := SetSessionInContext(r.Context(), session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// sessionFromRequest resolves the session cookie to a live session.
func sessionFromRequest(r *http.Request, sessions SessionService) (domainauth.Session, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return domainauth.Session{}, false
	}
	return sessions.Current(r.Context(), cookie.Value)
}
