package session

import "galeri-gateway/internal/domain"

// User is the identity as the session exposes it: the backend record plus
// role predicates. The predicates delegate to pure functions on the role, so
// no behavior is attached to deserialized data.
type User struct {
	domain.User
}

func newUser(u *domain.User) *User {
	if u == nil {
		return nil
	}
	return &User{User: *u}
}

// IsAdmin reports whether the session belongs to an administrator.
func (u *User) IsAdmin() bool { return domain.IsAdmin(u.Role) }

// IsTeacher reports whether the session belongs to a teacher.
func (u *User) IsTeacher() bool { return domain.IsTeacher(u.Role) }

// IsStudent reports whether the session belongs to a student.
func (u *User) IsStudent() bool { return domain.IsStudent(u.Role) }
