// Package session owns the client-side "who is logged in" state. All reads
// go through Snapshot and all writes go through the lifecycle operations, so
// there is exactly one owner and no ambient mutable globals.
package session

import (
	"context"
	"errors"
	"sync"

	"galeri-gateway/internal/backend"
	"galeri-gateway/internal/guard"
	"galeri-gateway/internal/observability"
)

// Navigator is the redirect sink. The real app navigates the browser; the
// CLI rewrites its prompt; tests record calls.
type Navigator interface {
	Navigate(path string)
	Location() string
}

// State is a point-in-time copy of the session.
type State struct {
	User    *User
	Loading bool
	Err     string
}

// Store is the single source of truth for the current identity.
type Store struct {
	client *backend.Client
	nav    Navigator

	mu      sync.Mutex
	user    *User
	loading bool
	err     string

	initOnce sync.Once

	// Epoch stamps defend against a stale response landing after a newer
	// operation already resolved (e.g. Initialize racing a quick Login).
	nextEpoch    uint64
	appliedEpoch uint64
}

// NewStore creates a session store. The session starts empty and loading:
// user == nil means "unknown", not "logged out", until Initialize resolves.
func NewStore(client *backend.Client, nav Navigator) *Store {
	s := &Store{
		client:  client,
		nav:     nav,
		loading: true,
	}
	client.OnUnauthorized = s.handleUnauthorized
	return s
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{User: s.user, Loading: s.loading, Err: s.err}
}

// Initialize restores the session from the ambient credential. It runs at
// most once; every failure, including 401, silently resolves to logged-out.
// Failing to restore a session is expected and never user-visible.
func (s *Store) Initialize(ctx context.Context) {
	s.initOnce.Do(func() {
		epoch := s.beginEpoch()

		user, err := s.client.CurrentUser(ctx)

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.stale(epoch) {
			s.loading = false
			return
		}
		if err != nil {
			s.user = nil
		} else {
			s.user = newUser(user)
		}
		s.loading = false
	})
}

// Login authenticates with the backend. The anti-forgery handshake completes
// before the credential submission is issued. On failure the error message is
// recorded for the form and the error is returned; the user stays logged out.
func (s *Store) Login(ctx context.Context, email, password string) error {
	epoch := s.startOperation()
	defer s.endOperation()

	if err := s.client.CSRFHandshake(ctx); err != nil {
		return s.recordError(err)
	}

	user, err := s.client.Login(ctx, email, password)
	if err != nil {
		return s.recordError(err)
	}

	s.applyUser(epoch, newUser(user))
	observability.SessionOperations.WithLabelValues("login", "ok").Inc()
	s.nav.Navigate(guard.PathDashboard)
	return nil
}

// Register creates an account, then behaves exactly like Login.
func (s *Store) Register(ctx context.Context, params backend.RegisterParams) error {
	epoch := s.startOperation()
	defer s.endOperation()

	if err := s.client.CSRFHandshake(ctx); err != nil {
		return s.recordError(err)
	}

	user, err := s.client.Register(ctx, params)
	if err != nil {
		return s.recordError(err)
	}

	s.applyUser(epoch, newUser(user))
	observability.SessionOperations.WithLabelValues("register", "ok").Inc()
	s.nav.Navigate(guard.PathDashboard)
	return nil
}

// Logout clears the session. The backend call is best effort: its failure is
// swallowed so the user can always leave an authenticated state locally.
// Idempotent, never returns an error.
func (s *Store) Logout(ctx context.Context) {
	epoch := s.startOperation()
	defer s.endOperation()

	if err := s.client.Logout(ctx); err != nil {
		observability.SessionOperations.WithLabelValues("logout", "backend_failed").Inc()
	} else {
		observability.SessionOperations.WithLabelValues("logout", "ok").Inc()
	}

	s.client.ClearCredential()
	s.applyUser(epoch, nil)
	s.nav.Navigate(guard.PathLogin)
}

// handleUnauthorized reacts to a 401 from any backend call: clear the local
// identity and force the user to the login page, unless they are already on a
// public page (avoids redirect loops).
func (s *Store) handleUnauthorized() {
	switch s.nav.Location() {
	case "/", guard.PathLogin, guard.PathRegister:
		return
	}

	epoch := s.beginEpoch()
	s.client.ClearCredential()
	s.applyUser(epoch, nil)
	s.nav.Navigate(guard.PathLogin)
}

func (s *Store) beginEpoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextEpoch++
	return s.nextEpoch
}

// stale reports whether a result from the given epoch has been superseded.
// Callers must hold s.mu.
func (s *Store) stale(epoch uint64) bool {
	return epoch < s.appliedEpoch
}

func (s *Store) startOperation() uint64 {
	epoch := s.beginEpoch()
	s.mu.Lock()
	s.loading = true
	s.err = ""
	s.mu.Unlock()
	return epoch
}

func (s *Store) endOperation() {
	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
}

func (s *Store) applyUser(epoch uint64, user *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stale(epoch) {
		return
	}
	s.appliedEpoch = epoch
	s.user = user
}

// recordError stores a human-readable message for the form and returns the
// original error so the caller can react.
func (s *Store) recordError(err error) error {
	message := err.Error()
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		message = apiErr.Message
	}

	s.mu.Lock()
	s.err = message
	s.mu.Unlock()
	return err
}
