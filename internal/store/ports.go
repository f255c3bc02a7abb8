// Package store defines the Remote Bill Store contract consumed by the client.
package store

import (
	"context"

	"billed/internal/core"
)

// Ports for outbound adapters.
type (
	// Bills is the collection-style access to bill records.
	Bills interface {
		// List returns every bill visible to the caller, in no particular order.
		List(ctx context.Context) ([]core.Bill, error)
		// Create uploads a receipt and creates the record that carries it.
		// The returned key identifies that record for Update.
		Create(ctx context.Context, u Upload) (Receipt, error)
		// Update replaces the employee-supplied fields of the record with the given id.
		Update(ctx context.Context, id string, b core.Bill) (core.Bill, error)
	}

	// Authenticator checks credentials against the remote and returns a bearer token.
	Authenticator interface {
		Login(ctx context.Context, c Credentials) (token string, err error)
	}
)

// Upload is a receipt file sent to Create.
type Upload struct {
	Email       string
	FileName    string
	ContentType string
	Content     []byte
}

// Receipt is the result of a successful upload. FileURL and FileName are only
// meaningful together.
type Receipt struct {
	FileURL  string `json:"fileUrl"`
	FileName string `json:"fileName"`
	Key      string `json:"key"`
}

// Credentials are submitted by the login forms.
type Credentials struct {
	Type     core.UserType `json:"type,omitempty"`
	Email    string        `json:"email"`
	Password string        `json:"password"`
}
