package core

// RoleAdmin is the role required for the admin dashboard.
const RoleAdmin = "admin"

// User is the authenticated dashboard user.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Session is created on login and destroyed on logout or auth failure.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// IsAdmin reports whether the session belongs to an admin.
func (s *Session) IsAdmin() bool {
	return s != nil && s.User.Role == RoleAdmin
}
