package guard

import "testing"

func TestNext_Transitions(t *testing.T) {
	tests := []struct {
		name     string
		state    PasswordState
		event    PasswordEvent
		expected PasswordState
	}{
		{"unknown starts checking", StateUnknown, EventCheckStarted, StateChecking},
		{"checking resolves needs change", StateChecking, EventCheckNeedsChange, StateNeedsChange},
		{"checking resolves clear", StateChecking, EventCheckClear, StateClear},
		{"checking fails open to clear", StateChecking, EventCheckFailed, StateClear},
		{"unknown ignores stray results", StateUnknown, EventCheckClear, StateUnknown},
		{"needs change is terminal", StateNeedsChange, EventCheckStarted, StateNeedsChange},
		{"needs change ignores clear", StateNeedsChange, EventCheckClear, StateNeedsChange},
		{"clear is terminal", StateClear, EventCheckStarted, StateClear},
		{"clear ignores needs change", StateClear, EventCheckNeedsChange, StateClear},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Next(tt.state, tt.event); got != tt.expected {
				t.Errorf("Next(%v, %v) = %v, want %v", tt.state, tt.event, got, tt.expected)
			}
		})
	}
}

// Exhaustively verify that no event sequence can leave a terminal state:
// once a navigation has resolved, nothing can re-trigger a redirect.
func TestNext_TerminalStatesAbsorb(t *testing.T) {
	events := []PasswordEvent{EventCheckStarted, EventCheckNeedsChange, EventCheckClear, EventCheckFailed}

	for _, terminal := range []PasswordState{StateNeedsChange, StateClear} {
		for _, event := range events {
			if got := Next(terminal, event); got != terminal {
				t.Errorf("Next(%v, %v) = %v, terminal state must absorb", terminal, event, got)
			}
		}
	}
}
