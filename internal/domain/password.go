package domain

// PasswordCheck is the backend's answer to "does this account still need to
// change its provisioned password". It is re-derived on every navigation and
// never cached, so a completed change takes effect on the next request.
type PasswordCheck struct {
	NeedsPasswordChange bool `json:"needs_password_change"`
	UserRole            Role `json:"user_role"`
}

// PasswordRequirements is the public password policy used for form display.
type PasswordRequirements struct {
	MinLength           int  `json:"min_length"`
	RequireConfirmation bool `json:"require_confirmation"`
}
