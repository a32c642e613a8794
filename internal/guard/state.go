package guard

// PasswordState tracks where one navigation stands with respect to the
// forced-password-change requirement. The transition table below is the whole
// protocol; there is no path from NeedsChange back to Checking within a
// single navigation, which is what makes a redirect loop impossible.
type PasswordState int

const (
	StateUnknown PasswordState = iota
	StateChecking
	StateNeedsChange
	StateClear
)

func (s PasswordState) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateChecking:
		return "checking"
	case StateNeedsChange:
		return "needs_change"
	case StateClear:
		return "clear"
	default:
		return "invalid"
	}
}

// PasswordEvent drives the state machine.
type PasswordEvent int

const (
	EventCheckStarted PasswordEvent = iota
	EventCheckNeedsChange
	EventCheckClear
	EventCheckFailed
)

var passwordTransitions = map[PasswordState]map[PasswordEvent]PasswordState{
	StateUnknown: {
		EventCheckStarted: StateChecking,
	},
	StateChecking: {
		EventCheckNeedsChange: StateNeedsChange,
		EventCheckClear:       StateClear,
		// A failed check resolves to Clear: guards fail open.
		EventCheckFailed: StateClear,
	},
	// Terminal states: once resolved, further events do not move the machine.
	StateNeedsChange: {},
	StateClear:       {},
}

// Next applies one event. Events with no transition from the current state
// are ignored and the state is returned unchanged.
func Next(state PasswordState, event PasswordEvent) PasswordState {
	if next, ok := passwordTransitions[state][event]; ok {
		return next
	}
	return state
}
