package handler

import (
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"galeri-gateway/internal/guard"
)

// Pages serves the application screens. The gateway only ships static shells;
// everything dynamic comes from the backend through the proxy.
type Pages struct {
	staticDir string
}

// NewPages creates a page handler rooted at the given static directory.
func NewPages(staticDir string) *Pages {
	return &Pages{staticDir: staticDir}
}

func (p *Pages) serve(name string) http.HandlerFunc {
	file := filepath.Join(p.staticDir, name)
	return func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, file)
	}
}

// Mount registers all page routes on the router. Guard classification relies
// on these exact paths, so they live in one place. Protected screens are
// wrapped in the given middleware (the client-side password guard).
func (p *Pages) Mount(r chi.Router, protect func(http.Handler) http.Handler) {
	r.Get("/", p.serve("index.html"))
	r.Get(guard.PathLogin, p.serve("login.html"))
	r.Get(guard.PathRegister, p.serve("register.html"))
	r.Get(guard.PathChangePassword, p.serve("change-password.html"))

	r.Group(func(r chi.Router) {
		r.Use(protect)
		r.Get(guard.PathDashboard, p.serve("dashboard.html"))
		r.Get("/projects", p.serve("projects.html"))
		r.Get("/admin", p.serve("admin.html"))
	})

	r.Get("/login.html", redirectTo(guard.PathLogin))
	r.Get("/register.html", redirectTo(guard.PathRegister))
	r.Get("/index.html", redirectTo("/"))

	fileServer := http.FileServer(http.Dir(p.staticDir))
	r.Handle("/static/*", http.StripPrefix("/static/", fileServer))
}

func redirectTo(target string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target, http.StatusMovedPermanently)
	}
}
