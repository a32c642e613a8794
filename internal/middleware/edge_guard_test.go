package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"galeri-gateway/internal/backend"
	"galeri-gateway/internal/domain"
	"galeri-gateway/internal/testutil"
)

const testCookie = "token"

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("page"))
	})
}

func checkerReturning(check *domain.PasswordCheck, err error) *testutil.MockPasswordChecker {
	return &testutil.MockPasswordChecker{
		PasswordCheckForTokenFunc: func(ctx context.Context, token string) (*domain.PasswordCheck, error) {
			return check, err
		},
	}
}

func serveGuarded(t *testing.T, checker *testutil.MockPasswordChecker, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	handler := EdgeGuard(testCookie, checker)(okHandler())
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestEdgeGuard_ProtectedWithoutCredential(t *testing.T) {
	checker := checkerReturning(nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)

	w := serveGuarded(t, checker, req)

	testutil.AssertStatusCode(t, w, http.StatusSeeOther)
	testutil.AssertHeader(t, w, "Location", "/login?redirect=%2Fdashboard")
	testutil.AssertEqual(t, checker.CallCount(), 0)
}

func TestEdgeGuard_ProtectedWithValidCredential(t *testing.T) {
	checker := checkerReturning(&domain.PasswordCheck{NeedsPasswordChange: false, UserRole: domain.RoleStudent}, nil)
	req := testutil.NewRequestWithCookie(t, http.MethodGet, "/dashboard", testCookie, "valid-token")

	w := serveGuarded(t, checker, req)

	testutil.AssertStatusCode(t, w, http.StatusOK)
	testutil.AssertEqual(t, checker.CallCount(), 1)
	testutil.AssertEqual(t, checker.Calls[0], "valid-token")
	testutil.AssertNoCookie(t, w, testCookie)
}

func TestEdgeGuard_NeedsPasswordChange(t *testing.T) {
	checker := checkerReturning(&domain.PasswordCheck{NeedsPasswordChange: true, UserRole: domain.RoleTeacher}, nil)
	req := testutil.NewRequestWithCookie(t, http.MethodGet, "/dashboard", testCookie, "t")

	w := serveGuarded(t, checker, req)

	testutil.AssertStatusCode(t, w, http.StatusSeeOther)
	testutil.AssertHeader(t, w, "Location", "/change-password")
	testutil.AssertNoCookie(t, w, testCookie)
}

func TestEdgeGuard_NeedsChangeAlreadyOnChangePage(t *testing.T) {
	checker := checkerReturning(&domain.PasswordCheck{NeedsPasswordChange: true, UserRole: domain.RoleTeacher}, nil)
	req := testutil.NewRequestWithCookie(t, http.MethodGet, "/change-password", testCookie, "t")

	w := serveGuarded(t, checker, req)

	testutil.AssertStatusCode(t, w, http.StatusOK)
}

func TestEdgeGuard_ClearOnChangePageGoesToDashboard(t *testing.T) {
	checker := checkerReturning(&domain.PasswordCheck{NeedsPasswordChange: false, UserRole: domain.RoleStudent}, nil)
	req := testutil.NewRequestWithCookie(t, http.MethodGet, "/change-password", testCookie, "t")

	w := serveGuarded(t, checker, req)

	testutil.AssertStatusCode(t, w, http.StatusSeeOther)
	testutil.AssertHeader(t, w, "Location", "/dashboard")
}

func TestEdgeGuard_InvalidCredentialClearsCookie(t *testing.T) {
	checker := checkerReturning(nil, &backend.APIError{Status: http.StatusUnauthorized, Message: "Unauthenticated."})
	req := testutil.NewRequestWithCookie(t, http.MethodGet, "/projects", testCookie, "revoked")

	w := serveGuarded(t, checker, req)

	testutil.AssertStatusCode(t, w, http.StatusSeeOther)
	testutil.AssertHeader(t, w, "Location", "/login?redirect=%2Fprojects")
	testutil.AssertCookieExpired(t, w, testCookie)
}

func TestEdgeGuard_CheckFailureFailsOpen(t *testing.T) {
	checker := checkerReturning(nil, &backend.APIError{Message: "could not reach the server, please try again"})
	req := testutil.NewRequestWithCookie(t, http.MethodGet, "/dashboard", testCookie, "t")

	w := serveGuarded(t, checker, req)

	testutil.AssertStatusCode(t, w, http.StatusOK)
	testutil.AssertNoCookie(t, w, testCookie)
}

func TestEdgeGuard_AuthPageWithCredential(t *testing.T) {
	checker := checkerReturning(nil, nil)

	for _, path := range []string{"/login", "/register"} {
		req := testutil.NewRequestWithCookie(t, http.MethodGet, path, testCookie, "t")
		w := serveGuarded(t, checker, req)

		testutil.AssertStatusCode(t, w, http.StatusSeeOther)
		testutil.AssertHeader(t, w, "Location", "/dashboard")
	}
	testutil.AssertEqual(t, checker.CallCount(), 0)
}

func TestEdgeGuard_AuthPageWithoutCredential(t *testing.T) {
	checker := checkerReturning(nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/login", nil)

	w := serveGuarded(t, checker, req)

	testutil.AssertStatusCode(t, w, http.StatusOK)
	testutil.AssertEqual(t, checker.CallCount(), 0)
}

func TestEdgeGuard_ExcludedPathsPassThrough(t *testing.T) {
	checker := checkerReturning(nil, nil)

	for _, path := range []string{"/", "/health", "/metrics", "/api/login", "/sanctum/csrf-cookie", "/static/app.css", "/favicon.ico"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := serveGuarded(t, checker, req)

		testutil.AssertStatusCode(t, w, http.StatusOK)
	}
	testutil.AssertEqual(t, checker.CallCount(), 0)
}

func TestEdgeGuard_OneCheckPerNavigation(t *testing.T) {
	checker := checkerReturning(&domain.PasswordCheck{NeedsPasswordChange: false}, nil)

	for i := 0; i < 3; i++ {
		req := testutil.NewRequestWithCookie(t, http.MethodGet, "/dashboard", testCookie, "t")
		serveGuarded(t, checker, req)
	}

	testutil.AssertEqual(t, checker.CallCount(), 3)
}
