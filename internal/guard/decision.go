// Package guard holds the pure navigation-decision logic shared by the edge
// middleware and the client-side wrapper. Both layers feed it the same inputs
// and execute whatever it returns, so the two copies cannot drift.
package guard

import (
	"net/url"

	"galeri-gateway/internal/domain"
)

// Action is what a guard layer must do with a navigation.
type Action int

const (
	ActionPass Action = iota
	ActionRedirect
)

// Decision is the outcome of evaluating one navigation.
type Decision struct {
	Action Action
	// Target is the redirect destination, including any query string.
	// Meaningful only when Action is ActionRedirect.
	Target string
	// ClearCredential is set when the credential was confirmed invalid and
	// must be deleted before redirecting. Deletion is idempotent.
	ClearCredential bool
}

type outcomeKind int

const (
	outcomeOK outcomeKind = iota
	outcomeUnauthorized
	outcomeUnavailable
)

// CheckOutcome is the typed result of the backend password-check call.
// Failing open on transient errors is an explicit policy, so a network
// failure is a distinct value rather than a swallowed exception.
type CheckOutcome struct {
	kind  outcomeKind
	check domain.PasswordCheck
}

// CheckOK wraps a successful password-check response.
func CheckOK(check domain.PasswordCheck) CheckOutcome {
	return CheckOutcome{kind: outcomeOK, check: check}
}

// CheckUnauthorized marks the credential as confirmed invalid.
func CheckUnauthorized() CheckOutcome {
	return CheckOutcome{kind: outcomeUnauthorized}
}

// CheckUnavailable marks a transient failure (network error, 5xx, timeout).
func CheckUnavailable() CheckOutcome {
	return CheckOutcome{kind: outcomeUnavailable}
}

// Evaluate decides navigations that need no backend round-trip. When the
// decision depends on the password-check endpoint it returns needsCheck=true
// and the caller must follow up with Resolve.
func Evaluate(class PathClass, path string, hasCredential bool) (Decision, bool) {
	switch class {
	case ClassExcluded:
		return Decision{Action: ActionPass}, false

	case ClassAuth:
		if hasCredential {
			return Decision{Action: ActionRedirect, Target: PathDashboard}, false
		}
		return Decision{Action: ActionPass}, false

	default: // ClassProtected, including the password-change page
		if !hasCredential {
			return Decision{Action: ActionRedirect, Target: LoginRedirect(path)}, false
		}
		return Decision{}, true
	}
}

// Resolve turns a password-check outcome into the final decision for a
// protected path. The change-password page is handled so that re-visiting it
// after a successful change redirects away instead of looping.
func Resolve(path string, outcome CheckOutcome) Decision {
	switch outcome.kind {
	case outcomeUnauthorized:
		return Decision{
			Action:          ActionRedirect,
			Target:          LoginRedirect(path),
			ClearCredential: true,
		}

	case outcomeUnavailable:
		// Fail open: enforcement falls to the client guard and the backend's
		// own endpoint authorization.
		return Decision{Action: ActionPass}

	default:
		onChangePage := path == PathChangePassword
		switch {
		case outcome.check.NeedsPasswordChange && !onChangePage:
			return Decision{Action: ActionRedirect, Target: PathChangePassword}
		case !outcome.check.NeedsPasswordChange && onChangePage:
			return Decision{Action: ActionRedirect, Target: PathDashboard}
		default:
			return Decision{Action: ActionPass}
		}
	}
}

// LoginRedirect builds the login URL that returns the user to the originally
// requested path after authentication.
func LoginRedirect(path string) string {
	return PathLogin + "?redirect=" + url.QueryEscape(path)
}
