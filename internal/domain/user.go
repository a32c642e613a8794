package domain

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("not authenticated")
	ErrInvalidInput       = errors.New("invalid input")
)

// Role is the backend-assigned account role.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "guru"
	RoleStudent Role = "siswa"
)

// User represents the authenticated identity returned by the backend.
type User struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       Role   `json:"role"`
	ClassName  string `json:"class_name,omitempty"`
	Department string `json:"department,omitempty"`
}

// IsAdmin reports whether the role grants administrator access.
func IsAdmin(r Role) bool {
	return r == RoleAdmin
}

// IsTeacher reports whether the role is a teaching account.
func IsTeacher(r Role) bool {
	return r == RoleTeacher
}

// IsStudent reports whether the role is a student account.
func IsStudent(r Role) bool {
	return r == RoleStudent
}
