// Package proxy forwards API traffic to the gallery backend and applies the
// one cross-cutting rule every call site relies on: an upstream 401 clears
// the credential cookie and, for page navigations, forces the login screen.
package proxy

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"galeri-gateway/internal/guard"
	"galeri-gateway/internal/observability"
)

// publicPages are locations where a 401 must not trigger a login redirect,
// otherwise an expired session on the login page would loop forever.
var publicPages = map[string]bool{
	"/":                true,
	guard.PathLogin:    true,
	guard.PathRegister: true,
}

// Proxy is the /api/* passthrough to the backend.
type Proxy struct {
	cookieName string
	reverse    *httputil.ReverseProxy
}

// New builds a proxy for the given backend origin.
func New(backendURL, cookieName string) (*Proxy, error) {
	target, err := url.Parse(backendURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL %q: %w", backendURL, err)
	}

	p := &Proxy{cookieName: cookieName}

	reverse := httputil.NewSingleHostReverseProxy(target)
	reverse.ModifyResponse = p.interceptUnauthorized
	reverse.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		slog.Error("backend unreachable",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, `{"message":"could not reach the server, please try again"}`)
	}
	p.reverse = reverse

	return p, nil
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.reverse.ServeHTTP(w, r)
}

// interceptUnauthorized normalizes upstream 401s. The credential cookie is
// expired in every case (idempotent, safe to race with the edge guard's own
// deletion). Browser navigations from non-public pages are additionally
// rewritten into a redirect to the login page; API callers on public pages
// see the raw 401 and no redirect.
func (p *Proxy) interceptUnauthorized(resp *http.Response) error {
	if resp.StatusCode != http.StatusUnauthorized {
		return nil
	}

	observability.ProxyUnauthorized.Inc()

	expired := &http.Cookie{
		Name:     p.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	resp.Header.Add("Set-Cookie", expired.String())

	req := resp.Request
	if req == nil || !isBrowserNavigation(req) || onPublicPage(req) {
		return nil
	}

	resp.Body.Close()
	resp.StatusCode = http.StatusSeeOther
	resp.Status = http.StatusText(http.StatusSeeOther)
	resp.Header.Set("Location", guard.PathLogin)
	resp.Header.Del("Content-Length")
	resp.Header.Set("Content-Type", "text/plain; charset=utf-8")
	resp.Body = io.NopCloser(strings.NewReader("redirecting to login"))
	return nil
}

// isBrowserNavigation distinguishes a page load from an XHR/fetch call.
func isBrowserNavigation(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// onPublicPage inspects the Referer to decide where the navigation came from.
// An unparseable or absent Referer counts as public: better a visible 401
// than a surprise redirect.
func onPublicPage(r *http.Request) bool {
	referer := r.Header.Get("Referer")
	if referer == "" {
		return true
	}
	u, err := url.Parse(referer)
	if err != nil {
		return true
	}
	return publicPages[u.Path]
}
