package httpx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	domainauth "github.com/ssopoc/authgate/internal/domain/auth"
	"github.com/ssopoc/authgate/internal/ports"
)

// RouterServices holds everything the HTTP router needs. Exactly one of
// SAML or OIDC is set in normal operation; routes for the nil one are not
// registered.
type RouterServices struct {
	Sessions       SessionService
	SAML           ports.SAMLProvider
	OIDC           ports.OIDCProvider
	FrontendURL    string
	CookieDomain   string
	AllowedOrigins []string
	Logger         *slog.Logger
}

// NewRouter creates and configures the HTTP router.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(Recover(logger))
	r.Use(Logging(logger))

	if len(services.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   services.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", healthHandler)
	r.Head("/healthz", healthHandler)

	api := &APIHandlers{Sessions: services.Sessions}
	r.Route("/api", func(r chi.Router) {
		r.Get("/user", api.User)
		r.With(RequireAuth(services.Sessions)).Get("/protected", api.Protected)
		r.With(RequireRole(services.Sessions, domainauth.RoleAdmin)).Get("/admin", api.Admin)
		r.With(RequireRole(services.Sessions, domainauth.RoleEditor)).Get("/editor", api.Editor)
	})

	if services.SAML != nil {
		saml := &SAMLHandlers{
			Provider:     services.SAML,
			Sessions:     services.Sessions,
			FrontendURL:  services.FrontendURL,
			CookieDomain: services.CookieDomain,
			Logger:       logger,
		}
		r.Route("/saml", func(r chi.Router) {
			r.Get("/login", saml.Login)
			r.Post("/callback", saml.Callback)
			r.Get("/logout", saml.Logout)
			r.Get("/sls", saml.SingleLogout)
			r.Post("/sls", saml.SingleLogout)
		})
	}

	if services.OIDC != nil {
		oidc := &OIDCHandlers{
			Provider:     services.OIDC,
			Sessions:     services.Sessions,
			FrontendURL:  services.FrontendURL,
			CookieDomain: services.CookieDomain,
			Logger:       logger,
		}
		r.Route("/oidc", func(r chi.Router) {
			r.Get("/login", oidc.Login)
			r.Get("/callback", oidc.Callback)
			r.Get("/logout", oidc.Logout)
		})
	}

	return r
}
