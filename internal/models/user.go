package models

// User is the identity returned by the backend at login.
type User struct {
	ID    int64  `json:"id"`
	Role  string `json:"role"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Session pairs the authenticated user with the bearer token.
type Session struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// Authenticated reports whether the session carries a token.
// A session without a token is treated as logged out.
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != ""
}

// DisplayName returns the user's name or "Guest".
func (s *Session) DisplayName() string {
	if s == nil || s.User == nil || s.User.Name == "" {
		return "Guest"
	}
	return s.User.Name
}
