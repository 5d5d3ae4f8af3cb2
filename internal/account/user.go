// Package account is the credential store: users, their role and login handles.
package account

// Role determines which operations a user may call.
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleParent  Role = "parent"
	RoleStudent Role = "student"
)

// Valid returns true when the role is a supported value.
func (r Role) Valid() bool {
	switch r {
	case RoleTeacher, RoleParent, RoleStudent:
		return true
	default:
		return false
	}
}

// User is a stored account. At least one of Phone and RegistrationNumber is set.
type User struct {
	ID                 int64
	Name               string
	Role               Role
	Phone              *string
	RegistrationNumber *string
	PasswordHash       string
}
