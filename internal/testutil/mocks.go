package testutil

import (
	"context"
	"errors"
	"sync"

	"galeri-gateway/internal/domain"
)

// Common test errors
var ErrMockNotImplemented = errors.New("mock function not implemented")

// MockPasswordChecker implements middleware.PasswordChecker for testing
type MockPasswordChecker struct {
	mu sync.Mutex

	// Function override - set this to customize behavior
	PasswordCheckForTokenFunc func(ctx context.Context, token string) (*domain.PasswordCheck, error)

	// Calls records every token the checker was asked about
	Calls []string
}

func (m *MockPasswordChecker) PasswordCheckForToken(ctx context.Context, token string) (*domain.PasswordCheck, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, token)
	m.mu.Unlock()

	if m.PasswordCheckForTokenFunc != nil {
		return m.PasswordCheckForTokenFunc(ctx, token)
	}
	return nil, ErrMockNotImplemented
}

// CallCount returns how many checks were performed.
func (m *MockPasswordChecker) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// RecordingNavigator implements session.Navigator and records every
// navigation for assertion.
type RecordingNavigator struct {
	mu       sync.Mutex
	location string
	History  []string
}

// NewRecordingNavigator starts at the given location.
func NewRecordingNavigator(location string) *RecordingNavigator {
	return &RecordingNavigator{location: location}
}

func (n *RecordingNavigator) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.History = append(n.History, path)
	n.location = path
}

func (n *RecordingNavigator) Location() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.location
}

// SetLocation moves the navigator without recording a redirect.
func (n *RecordingNavigator) SetLocation(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.location = path
}

// Navigations returns a copy of the recorded history.
func (n *RecordingNavigator) Navigations() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.History))
	copy(out, n.History)
	return out
}
