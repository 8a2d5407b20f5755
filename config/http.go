package config

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// FrontendURL is where browsers land after login and logout.
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`

	// AllowedOrigins lists the origins permitted to call the API with
	// credentials. Defaults to the usual SPA dev server origin.
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`

	// CookieDomain is the domain for session cookies.
	// Leave empty to use the request domain.
	CookieDomain string `env:"APP_COOKIE_DOMAIN" envDefault:""`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	if h.Addr == "" {
		h.Addr = ":8080"
	}
	if h.FrontendURL == "" {
		h.FrontendURL = "http://localhost:3000"
	}
}
