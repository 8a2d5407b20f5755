package bootstrap

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ssopoc/authgate/config"
	httpx "github.com/ssopoc/authgate/internal/http"
	"github.com/ssopoc/authgate/internal/service"
)

const shutdownTimeout = 10 * time.Second

// HTTPServerDeps contains everything the HTTP server needs.
type HTTPServerDeps struct {
	Config    *config.AppConfig
	Sessions  *service.SessionManager
	Providers AuthProviders
	Logger    *slog.Logger
}

// StartHTTPServer creates and starts the HTTP server.
// Returns the server instance for graceful shutdown.
func StartHTTPServer(deps *HTTPServerDeps) *http.Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	handler := httpx.NewRouter(httpx.RouterServices{
		Sessions:       deps.Sessions,
		SAML:           deps.Providers.SAML,
		OIDC:           deps.Providers.OIDC,
		FrontendURL:    deps.Config.HTTP.FrontendURL,
		CookieDomain:   deps.Config.HTTP.CookieDomain,
		AllowedOrigins: deps.Config.HTTP.AllowedOrigins,
		Logger:         logger,
	})

	return startServer(logger, handler, deps.Config.HTTP.Addr)
}

func startServer(logger *slog.Logger, handler http.Handler, addr string) *http.Server {
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}

	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
		}
	}()

	return server
}

// ShutdownHTTPServer drains in-flight requests before stopping the server.
func ShutdownHTTPServer(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	if server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	logger.Info("shutting down HTTP server")
	return server.Shutdown(ctx)
}
