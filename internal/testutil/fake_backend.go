// Package testutil provides shared test utilities, mocks, and fixtures for
// testing galeri-gateway against a scriptable in-process backend.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"galeri-gateway/internal/domain"
)

// Account is one provisioned backend account.
type Account struct {
	User                domain.User
	PasswordHash        []byte
	NeedsPasswordChange bool
}

// FakeBackend is an in-process stand-in for the gallery REST backend. It
// implements the exact wire contract the gateway consumes: Sanctum-style
// CSRF handshake, cookie credential, and the auth/password endpoints.
//
// Failure modes are scriptable per path through ForceStatus, and the whole
// backend can be taken down with Close to simulate network failure.
type FakeBackend struct {
	Server *httptest.Server

	// RequireCSRF makes unsafe-method endpoints reject requests whose
	// X-XSRF-TOKEN header was not issued by a prior handshake.
	RequireCSRF bool

	mu         sync.Mutex
	accounts   map[string]*Account // keyed by email
	sessions   map[string]string   // token -> email
	csrfIssued map[string]bool

	// ForceStatus overrides the response for a given path with a bare
	// status code, e.g. {"/api/auth/password-check": 500}.
	ForceStatus map[string]int

	// DelayFor holds back responses for a given path, for ordering tests.
	DelayFor map[string]time.Duration

	passwordCheckCalls atomic.Int64
}

// NewFakeBackend starts a fake backend with no accounts.
func NewFakeBackend() *FakeBackend {
	fb := &FakeBackend{
		accounts:    make(map[string]*Account),
		sessions:    make(map[string]string),
		csrfIssued:  make(map[string]bool),
		ForceStatus: make(map[string]int),
		DelayFor:    make(map[string]time.Duration),
	}

	// Go 1.21's ServeMux has no method patterns, so each route checks its
	// method by hand and answers 405 otherwise, matching the 1.22+ mux.
	requireMethod := func(method string, h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Method != method {
				http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
				return
			}
			h(w, r)
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/sanctum/csrf-cookie", requireMethod(http.MethodGet, fb.handleCSRFCookie))
	mux.HandleFunc("/api/login", requireMethod(http.MethodPost, fb.handleLogin))
	mux.HandleFunc("/api/register", requireMethod(http.MethodPost, fb.handleRegister))
	mux.HandleFunc("/api/logout", requireMethod(http.MethodPost, fb.handleLogout))
	mux.HandleFunc("/api/user", requireMethod(http.MethodGet, fb.handleCurrentUser))
	mux.HandleFunc("/api/auth/password-check", requireMethod(http.MethodGet, fb.handlePasswordCheck))
	mux.HandleFunc("/api/auth/password-requirements", requireMethod(http.MethodGet, fb.handlePasswordRequirements))
	mux.HandleFunc("/api/auth/change-password", requireMethod(http.MethodPost, fb.handleChangePassword))

	fb.Server = httptest.NewServer(fb.withOverrides(mux))
	return fb
}

// URL returns the backend origin.
func (fb *FakeBackend) URL() string { return fb.Server.URL }

// APIURL returns the API base.
func (fb *FakeBackend) APIURL() string { return fb.Server.URL + "/api" }

// Close shuts the backend down; subsequent calls fail at the transport level.
func (fb *FakeBackend) Close() { fb.Server.Close() }

// AddAccount provisions an account with a bcrypt-hashed password.
func (fb *FakeBackend) AddAccount(user domain.User, password string, needsChange bool) *Account {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic("testutil: bcrypt failed: " + err.Error())
	}

	account := &Account{User: user, PasswordHash: hash, NeedsPasswordChange: needsChange}

	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.accounts[user.Email] = account
	return account
}

// IssueToken creates a live session for the account without going through
// the login endpoint. Used by guard tests that only need a credential.
func (fb *FakeBackend) IssueToken(email string) string {
	token := uuid.New().String()
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.sessions[token] = email
	return token
}

// PasswordCheckCalls reports how many times the password-check endpoint ran.
func (fb *FakeBackend) PasswordCheckCalls() int64 {
	return fb.passwordCheckCalls.Load()
}

func (fb *FakeBackend) withOverrides(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		status, forced := fb.ForceStatus[r.URL.Path]
		delay := fb.DelayFor[r.URL.Path]
		fb.mu.Unlock()

		if delay > 0 {
			time.Sleep(delay)
		}
		if forced {
			writeJSON(w, status, map[string]string{"message": http.StatusText(status)})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (fb *FakeBackend) handleCSRFCookie(w http.ResponseWriter, r *http.Request) {
	token := uuid.New().String()

	fb.mu.Lock()
	fb.csrfIssued[token] = true
	fb.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: "XSRF-TOKEN", Value: token, Path: "/"})
	w.WriteHeader(http.StatusNoContent)
}

func (fb *FakeBackend) checkCSRF(r *http.Request) bool {
	if !fb.RequireCSRF {
		return true
	}
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.csrfIssued[r.Header.Get("X-XSRF-TOKEN")]
}

func (fb *FakeBackend) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !fb.checkCSRF(r) {
		writeJSON(w, 419, map[string]string{"message": "CSRF token mismatch"})
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return
	}

	fb.mu.Lock()
	account := fb.accounts[req.Email]
	fb.mu.Unlock()

	if account == nil || bcrypt.CompareHashAndPassword(account.PasswordHash, []byte(req.Password)) != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "Invalid credentials"})
		return
	}

	token := fb.IssueToken(req.Email)
	http.SetCookie(w, &http.Cookie{Name: "token", Value: token, Path: "/", HttpOnly: true})
	writeJSON(w, http.StatusOK, map[string]any{"user": account.User})
}

func (fb *FakeBackend) handleRegister(w http.ResponseWriter, r *http.Request) {
	if !fb.checkCSRF(r) {
		writeJSON(w, 419, map[string]string{"message": "CSRF token mismatch"})
		return
	}

	var req struct {
		Name                 string `json:"name"`
		Email                string `json:"email"`
		Password             string `json:"password"`
		PasswordConfirmation string `json:"password_confirmation"`
		ClassName            string `json:"class_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return
	}
	if req.Password != req.PasswordConfirmation {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "Password confirmation does not match"})
		return
	}

	fb.mu.Lock()
	_, exists := fb.accounts[req.Email]
	nextID := int64(len(fb.accounts) + 1)
	fb.mu.Unlock()
	if exists {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "Email already taken"})
		return
	}

	user := domain.User{
		ID:        nextID,
		Name:      req.Name,
		Email:     req.Email,
		Role:      domain.RoleStudent,
		ClassName: req.ClassName,
	}
	fb.AddAccount(user, req.Password, false)

	token := fb.IssueToken(req.Email)
	http.SetCookie(w, &http.Cookie{Name: "token", Value: token, Path: "/", HttpOnly: true})
	writeJSON(w, http.StatusCreated, map[string]any{"user": user})
}

func (fb *FakeBackend) handleLogout(w http.ResponseWriter, r *http.Request) {
	account, token := fb.authenticate(r)
	if account == nil {
		writeUnauthenticated(w)
		return
	}

	fb.mu.Lock()
	delete(fb.sessions, token)
	fb.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (fb *FakeBackend) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	account, _ := fb.authenticate(r)
	if account == nil {
		writeUnauthenticated(w)
		return
	}
	writeJSON(w, http.StatusOK, account.User)
}

func (fb *FakeBackend) handlePasswordCheck(w http.ResponseWriter, r *http.Request) {
	fb.passwordCheckCalls.Add(1)

	account, _ := fb.authenticate(r)
	if account == nil {
		writeUnauthenticated(w)
		return
	}
	writeJSON(w, http.StatusOK, domain.PasswordCheck{
		NeedsPasswordChange: account.NeedsPasswordChange,
		UserRole:            account.User.Role,
	})
}

func (fb *FakeBackend) handlePasswordRequirements(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, domain.PasswordRequirements{
		MinLength:           8,
		RequireConfirmation: true,
	})
}

func (fb *FakeBackend) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	account, _ := fb.authenticate(r)
	if account == nil {
		writeUnauthenticated(w)
		return
	}

	var req struct {
		CurrentPassword         string `json:"current_password"`
		NewPassword             string `json:"new_password"`
		NewPasswordConfirmation string `json:"new_password_confirmation"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return
	}

	if bcrypt.CompareHashAndPassword(account.PasswordHash, []byte(req.CurrentPassword)) != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "Current password is incorrect"})
		return
	}
	if len(req.NewPassword) < 8 || req.NewPassword != req.NewPasswordConfirmation {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "New password does not meet requirements"})
		return
	}

	hash, _ := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.MinCost)

	fb.mu.Lock()
	account.PasswordHash = hash
	account.NeedsPasswordChange = false
	fb.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// authenticate resolves the token cookie to an account, or nil.
func (fb *FakeBackend) authenticate(r *http.Request) (*Account, string) {
	cookie, err := r.Cookie("token")
	if err != nil || cookie.Value == "" {
		return nil, ""
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()
	email, ok := fb.sessions[cookie.Value]
	if !ok {
		return nil, ""
	}
	return fb.accounts[email], cookie.Value
}

func writeUnauthenticated(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthenticated."})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
