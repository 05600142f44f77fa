// Package users manages accounts: registration, credential verification and
// bearer token issuing.
package users

import (
	"context"
)

type Repository interface {
	// Create inserts a new user and fills in its generated id. A duplicate
	// email returns common.ErrorAlreadyExists.
	Create(ctx context.Context, user *User) (*User, error)

	// GetByEmail returns a user by email, or common.ErrorNotFound.
	GetByEmail(ctx context.Context, email string) (*User, error)
}
