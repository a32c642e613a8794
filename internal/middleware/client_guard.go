package middleware

import (
	"net/http"

	"galeri-gateway/internal/backend"
	"galeri-gateway/internal/guard"
	"galeri-gateway/internal/observability"
)

const redirectingBody = `<!DOCTYPE html>
<html><head><meta http-equiv="refresh" content="0;url=` + guard.PathChangePassword + `"></head>
<body>Redirecting to password change...</body></html>`

// ClientGuard is the second guard layer, wrapped around protected page
// handlers. It re-checks the forced-password-change requirement even though
// the edge guard already did, to catch navigations where the edge failed
// open. It drives the password state machine explicitly:
//
//	Unknown -> Checking -> NeedsChange | Clear
//
// NeedsChange serves a redirecting placeholder instead of the page; Clear
// and a failed check both render the page (this layer also fails open).
func ClientGuard(cookieName string, checker PasswordChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == guard.PathChangePassword {
				// The change page itself is the destination; gating it here
				// would loop. The edge guard owns its idempotence.
				next.ServeHTTP(w, r)
				return
			}

			token := credentialFrom(r, cookieName)
			if token == "" {
				// Not this layer's concern; the edge guard redirects
				// unauthenticated navigations.
				next.ServeHTTP(w, r)
				return
			}

			state := guard.Next(guard.StateUnknown, guard.EventCheckStarted)

			check, err := checker.PasswordCheckForToken(r.Context(), token)
			switch {
			case err != nil:
				observability.GuardCheckFailures.WithLabelValues("client").Inc()
				state = guard.Next(state, guard.EventCheckFailed)
				if backend.IsUnauthorized(err) {
					// Confirmed-invalid credentials are the edge guard's and
					// proxy's job; rendering is still allowed here.
					observability.FromContext(r.Context()).Debug("client guard saw invalid credential",
						"path", r.URL.Path)
				}
			case check.NeedsPasswordChange:
				state = guard.Next(state, guard.EventCheckNeedsChange)
			default:
				state = guard.Next(state, guard.EventCheckClear)
			}

			if state == guard.StateNeedsChange {
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				w.WriteHeader(http.StatusOK)
				w.Write([]byte(redirectingBody))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
