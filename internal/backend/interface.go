package backend

import (
	"context"

	"billed/internal/core"
	"billed/internal/session"
	"billed/internal/store"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// UserRegistrar is implemented by backends that keep their own accounts.
type UserRegistrar interface {
	AddUser(ctx context.Context, email string, userType core.UserType, password string) error
}

// Result bundles everything the client needs from a backend.
type Result struct {
	Bills   store.Bills
	Auth    store.Authenticator
	Session *session.Store
	// Users is nil when accounts live on the remote API.
	Users   UserRegistrar
	Cleanup CleanupFunc
}

// Close runs Cleanup if there is one.
func (r *Result) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// DemoUser is an account seeded into the in-memory backend.
type DemoUser struct {
	Email    string
	Type     core.UserType
	Password string
}

// DemoUsers are available on every fresh memory backend.
var DemoUsers = []DemoUser{
	{Email: "employee@test.tld", Type: core.Employee, Password: "employee"},
	{Email: "admin@test.tld", Type: core.Admin, Password: "admin"},
}
