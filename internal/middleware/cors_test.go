package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"galeri-gateway/internal/testutil"
)

func serveCORS(t *testing.T, allowedOrigins []string, method, origin string) (*httptest.ResponseRecorder, *bool) {
	t.Helper()

	nextCalled := false
	handler := CORS(allowedOrigins)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(method, "/api/login", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w, &nextCalled
}

func TestCORS_AllowedOrigin(t *testing.T) {
	tests := []struct {
		name           string
		allowedOrigins []string
		requestOrigin  string
		shouldAllow    bool
	}{
		{
			name:           "allowed origin",
			allowedOrigins: []string{"http://localhost:3000", "https://galeri.sekolah.id"},
			requestOrigin:  "http://localhost:3000",
			shouldAllow:    true,
		},
		{
			name:           "allowed second origin",
			allowedOrigins: []string{"http://localhost:3000", "https://galeri.sekolah.id"},
			requestOrigin:  "https://galeri.sekolah.id",
			shouldAllow:    true,
		},
		{
			name:           "wildcard",
			allowedOrigins: []string{"*"},
			requestOrigin:  "http://any-origin.test",
			shouldAllow:    true,
		},
		{
			name:           "disallowed origin",
			allowedOrigins: []string{"http://localhost:3000"},
			requestOrigin:  "http://malicious.com",
			shouldAllow:    false,
		},
		{
			name:           "no origin header",
			allowedOrigins: []string{"http://localhost:3000"},
			requestOrigin:  "",
			shouldAllow:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, nextCalled := serveCORS(t, tt.allowedOrigins, http.MethodGet, tt.requestOrigin)

			testutil.AssertTrue(t, *nextCalled, "non-preflight request should reach the handler")
			if tt.shouldAllow {
				testutil.AssertHeader(t, w, "Access-Control-Allow-Origin", tt.requestOrigin)
				testutil.AssertHeader(t, w, "Access-Control-Allow-Credentials", "true")
			} else {
				testutil.AssertHeader(t, w, "Access-Control-Allow-Origin", "")
				testutil.AssertHeader(t, w, "Access-Control-Allow-Credentials", "")
			}
		})
	}
}

func TestCORS_CSRFHeaderAllowed(t *testing.T) {
	// Browsers strip X-XSRF-TOKEN from credential submissions unless the
	// preflight response lists it.
	w, _ := serveCORS(t, []string{"http://localhost:3000"}, http.MethodGet, "http://localhost:3000")

	headers := w.Header().Get("Access-Control-Allow-Headers")
	testutil.AssertContains(t, headers, "Content-Type")
	testutil.AssertContains(t, headers, "X-XSRF-TOKEN")
}

func TestCORS_PreflightRequest(t *testing.T) {
	w, nextCalled := serveCORS(t, []string{"http://localhost:3000"}, http.MethodOptions, "http://localhost:3000")

	testutil.AssertStatusCode(t, w, http.StatusOK)
	testutil.AssertFalse(t, *nextCalled, "preflight should not call next handler")
	testutil.AssertHeader(t, w, "Access-Control-Allow-Origin", "http://localhost:3000")
}

func TestCORS_PreflightWithDisallowedOrigin(t *testing.T) {
	w, nextCalled := serveCORS(t, []string{"http://localhost:3000"}, http.MethodOptions, "http://malicious.com")

	testutil.AssertStatusCode(t, w, http.StatusOK)
	testutil.AssertFalse(t, *nextCalled, "preflight should not call next handler")
	testutil.AssertHeader(t, w, "Access-Control-Allow-Origin", "")
}

func TestParseOrigins(t *testing.T) {
	origins := ParseOrigins("http://localhost:3000, https://galeri.sekolah.id ,http://test.com")

	testutil.AssertLen(t, origins, 3)
	testutil.AssertEqual(t, origins[0], "http://localhost:3000")
	testutil.AssertEqual(t, origins[1], "https://galeri.sekolah.id")
	testutil.AssertEqual(t, origins[2], "http://test.com")
}

func TestParseOrigins_Wildcard(t *testing.T) {
	origins := ParseOrigins("*")

	testutil.AssertLen(t, origins, 1)
	testutil.AssertEqual(t, origins[0], "*")
}
