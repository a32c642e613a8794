// Package app wires the gateway's HTTP surface: middleware stack, API
// passthrough, and guarded pages. Kept separate from main so the full stack
// can be exercised in-process by tests.
package app

import (
	"context"
	"net/http"

	"galeri-gateway/internal/backend"
	"galeri-gateway/internal/config"
	"galeri-gateway/internal/handler"
	"galeri-gateway/internal/middleware"
	"galeri-gateway/internal/proxy"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options carries the pieces main assembles before building the router.
type Options struct {
	Config *config.Config
	Client *backend.Client
	Proxy  *proxy.Proxy
	Pages  *handler.Pages

	// ValidatorConfig overrides the OpenAPI validator setup; nil uses the
	// environment-driven default.
	ValidatorConfig *middleware.OpenAPIValidatorConfig
}

// NewRouter builds the complete gateway router. The context bounds the
// lifetime of background work started by middleware (rate limiter cleanup).
func NewRouter(ctx context.Context, opts Options) chi.Router {
	cfg := opts.Config

	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.CORS(middleware.ParseOrigins(cfg.AllowedOrigins)))
	r.Use(middleware.Metrics())
	r.Use(middleware.OpenAPIValidator(opts.ValidatorConfig))

	r.Get("/health", handler.Health)
	r.Get("/health/ready", handler.Ready(opts.Client))
	r.Handle("/metrics", promhttp.Handler())

	authLimiter := middleware.NewRateLimiter(ctx, 5, 10)
	apiLimiter := middleware.NewRateLimiter(ctx, 20, 50)

	// API passthrough. Login and register get the stricter limiter; the 401
	// interceptor inside the proxy covers everything that flows through here.
	r.Group(func(r chi.Router) {
		r.Use(authLimiter.Middleware())
		r.Handle("/api/login", opts.Proxy)
		r.Handle("/api/register", opts.Proxy)
	})
	r.Group(func(r chi.Router) {
		r.Use(apiLimiter.Middleware())
		r.Handle("/api/*", opts.Proxy)
		r.Handle("/sanctum/csrf-cookie", opts.Proxy)
	})

	// Pages, behind the edge guard. Protected screens additionally re-check
	// the password flag through the client guard (defense in depth).
	edgeGuard := middleware.EdgeGuard(cfg.SessionCookie, opts.Client)
	clientGuard := middleware.ClientGuard(cfg.SessionCookie, opts.Client)

	r.Group(func(r chi.Router) {
		r.Use(edgeGuard)
		opts.Pages.Mount(r, clientGuard)
	})

	// Unregistered paths are still protected navigations: run them through
	// the guard so a logged-out visit redirects instead of leaking a 404.
	r.NotFound(edgeGuard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})).ServeHTTP)

	return r
}
