package core

import "errors"

const (
	Employee UserType = "Employee"
	Admin    UserType = "Admin"

	// StatusConnected is the only status a persisted session carries.
	StatusConnected = "connected"
)

// UserType is the role of the authenticated user.
type UserType string

// Session identifies the authenticated user. Field order matches the serialized record.
type Session struct {
	Type     UserType `json:"type"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Status   string   `json:"status"`
}

var ErrInvalidUserType = errors.New("invalid user type")

func (u UserType) IsValid() bool {
	return u == Employee || u == Admin
}

// NewSession returns a connected session for the given credentials.
func NewSession(t UserType, email, password string) Session {
	return Session{Type: t, Email: email, Password: password, Status: StatusConnected}
}

func (s Session) IsConnected() bool {
	return s.Status == StatusConnected && s.Type.IsValid()
}
