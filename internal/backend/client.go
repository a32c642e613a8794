package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"galeri-gateway/internal/domain"
	"galeri-gateway/internal/observability"
)

const (
	csrfCookieName = "XSRF-TOKEN"
	csrfHeaderName = "X-XSRF-TOKEN"
)

// Client talks to the gallery backend. It attaches the session credential to
// every request so call sites never manage cookies or headers themselves.
//
// The credential state is mutex-guarded: session operations and the
// unauthorized hook may touch it from different goroutines. Per-request
// callers (the edge guard) should use WithCredential instead, which returns
// an independent copy.
type Client struct {
	backendURL string // origin, for the CSRF cookie handshake
	apiBaseURL string
	cookieName string
	httpClient *http.Client

	mu         sync.Mutex
	credential string // session token, empty when logged out
	csrfToken  string // value of the XSRF-TOKEN cookie after a handshake

	// OnUnauthorized, when set, is invoked once per request that the backend
	// rejects with 401. Used by the session layer to force logout globally.
	OnUnauthorized func()
}

// NewClient creates a backend client.
func NewClient(backendURL, apiBaseURL, cookieName string) *Client {
	return &Client{
		backendURL: backendURL,
		apiBaseURL: apiBaseURL,
		cookieName: cookieName,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// WithCredential returns a copy of the client carrying the given session
// token. The copy shares the underlying HTTP client but none of the mutable
// state, so it is safe to use per request.
func (c *Client) WithCredential(token string) *Client {
	return &Client{
		backendURL: c.backendURL,
		apiBaseURL: c.apiBaseURL,
		cookieName: c.cookieName,
		httpClient: c.httpClient,
		credential: token,
	}
}

// SetCredential replaces the ambient session token.
func (c *Client) SetCredential(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.credential = token
}

// ClearCredential drops the ambient session token. Safe to call repeatedly.
func (c *Client) ClearCredential() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.credential = ""
}

// Credential returns the ambient session token, empty when logged out.
func (c *Client) Credential() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.credential
}

// CSRFHandshake primes the client with an anti-forgery token. It must
// complete before any credential submission is issued.
func (c *Client) CSRFHandshake(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.backendURL+"/sanctum/csrf-cookie", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Message: genericNetworkError}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	for _, ck := range resp.Cookies() {
		if ck.Name == csrfCookieName {
			// Laravel URL-encodes the cookie value
			token := ck.Value
			if decoded, err := url.QueryUnescape(ck.Value); err == nil {
				token = decoded
			}
			c.mu.Lock()
			c.csrfToken = token
			c.mu.Unlock()
			return nil
		}
	}

	return &APIError{Status: resp.StatusCode, Message: "backend did not issue a CSRF cookie"}
}

type loginResponse struct {
	User *domain.User `json:"user"`
}

// Login submits credentials and stores the session token the backend sets.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.User, error) {
	body := map[string]string{"email": email, "password": password}

	var out loginResponse
	resp, err := c.do(ctx, "login", http.MethodPost, c.apiBaseURL+"/login", body, &out)
	if err != nil {
		return nil, err
	}

	c.captureCredential(resp)

	if out.User == nil {
		return nil, &APIError{Status: resp.StatusCode, Message: "backend login response had no user"}
	}
	return out.User, nil
}

// RegisterParams are the fields the registration endpoint accepts.
type RegisterParams struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	ClassName            string `json:"class_name,omitempty"`
}

// Register creates an account and stores the session token the backend sets.
func (c *Client) Register(ctx context.Context, params RegisterParams) (*domain.User, error) {
	var out loginResponse
	resp, err := c.do(ctx, "register", http.MethodPost, c.apiBaseURL+"/register", params, &out)
	if err != nil {
		return nil, err
	}

	c.captureCredential(resp)

	if out.User == nil {
		return nil, &APIError{Status: resp.StatusCode, Message: "backend register response had no user"}
	}
	return out.User, nil
}

// Logout invalidates the session server-side. The caller is expected to clear
// local state regardless of the outcome.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, "logout", http.MethodPost, c.apiBaseURL+"/logout", nil, nil)
	if err != nil {
		return err
	}
	c.ClearCredential()
	return nil
}

// CurrentUser asks the backend who the ambient credential belongs to.
func (c *Client) CurrentUser(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if _, err := c.do(ctx, "current_user", http.MethodGet, c.apiBaseURL+"/user", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// PasswordCheck fetches the forced-password-change status for the ambient
// credential. Exactly one attempt; guard layers decide what a failure means.
func (c *Client) PasswordCheck(ctx context.Context) (*domain.PasswordCheck, error) {
	var check domain.PasswordCheck
	if _, err := c.do(ctx, "password_check", http.MethodGet, c.apiBaseURL+"/auth/password-check", nil, &check); err != nil {
		return nil, err
	}
	return &check, nil
}

// PasswordCheckForToken runs PasswordCheck on behalf of an arbitrary
// credential, leaving the ambient one untouched. Used by the guard layers,
// which see a different token on every request.
func (c *Client) PasswordCheckForToken(ctx context.Context, token string) (*domain.PasswordCheck, error) {
	return c.WithCredential(token).PasswordCheck(ctx)
}

// PasswordRequirements fetches the public password policy for form display.
func (c *Client) PasswordRequirements(ctx context.Context) (*domain.PasswordRequirements, error) {
	var reqs domain.PasswordRequirements
	if _, err := c.do(ctx, "password_requirements", http.MethodGet, c.apiBaseURL+"/auth/password-requirements", nil, &reqs); err != nil {
		return nil, err
	}
	return &reqs, nil
}

// ChangePassword submits a password change for the current account.
func (c *Client) ChangePassword(ctx context.Context, current, newPassword, confirmation string) error {
	body := map[string]string{
		"current_password":          current,
		"new_password":              newPassword,
		"new_password_confirmation": confirmation,
	}
	_, err := c.do(ctx, "change_password", http.MethodPost, c.apiBaseURL+"/auth/change-password", body, nil)
	return err
}

// captureCredential stores the session cookie from a login-style response.
func (c *Client) captureCredential(resp *http.Response) {
	for _, ck := range resp.Cookies() {
		if ck.Name == c.cookieName && ck.Value != "" {
			c.SetCredential(ck.Value)
		}
	}
}

// do performs one request and normalizes every failure into *APIError.
// No retries: guard layers get exactly one backend check per navigation.
func (c *Client) do(ctx context.Context, op, method, target string, body, out any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.mu.Lock()
	credential, csrfToken := c.credential, c.csrfToken
	c.mu.Unlock()
	if credential != "" {
		req.AddCookie(&http.Cookie{Name: c.cookieName, Value: credential})
	}
	if csrfToken != "" && method != http.MethodGet && method != http.MethodHead {
		req.Header.Set(csrfHeaderName, csrfToken)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		observability.BackendRequestDuration.WithLabelValues(op, "error").Observe(time.Since(start).Seconds())
		return nil, &APIError{Message: genericNetworkError}
	}
	defer resp.Body.Close()
	observability.BackendRequestDuration.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &APIError{Message: genericNetworkError}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newAPIError(resp.StatusCode, payload)
		if resp.StatusCode == http.StatusUnauthorized && c.OnUnauthorized != nil {
			c.OnUnauthorized()
		}
		return resp, apiErr
	}

	if out != nil && len(payload) > 0 {
		if err := json.Unmarshal(payload, out); err != nil {
			return resp, &APIError{Status: resp.StatusCode, Message: "invalid response from backend", Payload: payload}
		}
	}

	return resp, nil
}
