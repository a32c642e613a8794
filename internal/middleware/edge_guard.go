package middleware

import (
	"context"
	"net/http"

	"galeri-gateway/internal/backend"
	"galeri-gateway/internal/domain"
	"galeri-gateway/internal/guard"
	"galeri-gateway/internal/observability"
)

// PasswordChecker resolves a credential to its forced-password-change status.
// Implemented by the backend client; tests swap in func-field mocks.
type PasswordChecker interface {
	PasswordCheckForToken(ctx context.Context, token string) (*domain.PasswordCheck, error)
}

// EdgeGuard evaluates every navigation before any page handler runs. It is
// stateless across requests: everything is recomputed from the credential
// cookie and at most one backend call per navigation.
//
// Policy, in order:
//   - excluded paths pass through untouched
//   - auth pages redirect to the dashboard when already logged in
//   - protected paths without a credential redirect to login, carrying the
//     original path in a "redirect" query parameter
//   - protected paths with a credential consult the password-check endpoint;
//     a confirmed 401 deletes the cookie and redirects to login, a transient
//     failure fails open
func EdgeGuard(cookieName string, checker PasswordChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			class := guard.Classify(path)

			token := credentialFrom(r, cookieName)
			decision, needsCheck := guard.Evaluate(class, path, token != "")

			if needsCheck {
				decision = guard.Resolve(path, checkPassword(r.Context(), checker, token))
			}

			observability.GuardDecisions.WithLabelValues(class.String(), actionLabel(decision)).Inc()

			if decision.ClearCredential {
				clearCredentialCookie(w, cookieName)
			}

			if decision.Action == guard.ActionRedirect {
				observability.FromContext(r.Context()).Debug("edge guard redirect",
					"path", path, "target", decision.Target, "class", class.String())
				http.Redirect(w, r, decision.Target, http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// checkPassword performs the single backend check for one navigation and
// types the result so fail-open is an explicit branch, not a dropped error.
func checkPassword(ctx context.Context, checker PasswordChecker, token string) guard.CheckOutcome {
	check, err := checker.PasswordCheckForToken(ctx, token)
	switch {
	case err == nil:
		return guard.CheckOK(*check)
	case backend.IsUnauthorized(err):
		return guard.CheckUnauthorized()
	default:
		observability.GuardCheckFailures.WithLabelValues("edge").Inc()
		return guard.CheckUnavailable()
	}
}

func credentialFrom(r *http.Request, cookieName string) string {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// clearCredentialCookie expires the session cookie. Safe to call on requests
// that never carried one; deletions are idempotent and safe to race.
func clearCredentialCookie(w http.ResponseWriter, cookieName string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func actionLabel(d guard.Decision) string {
	if d.Action == guard.ActionRedirect {
		if d.ClearCredential {
			return "redirect_clear"
		}
		return "redirect"
	}
	return "pass"
}
