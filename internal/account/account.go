// Package account provides player account storage and authentication.
package account

import (
	"context"
	"errors"
)

// Account represents a player account. Names are unique, case-sensitive keys.
type Account struct {
	Name     string
	Password string
}

// ErrAccountExists is returned when attempting to create a duplicate name.
var ErrAccountExists = errors.New("account already exists")

// ErrAccountNotFound is returned when an account lookup yields no results.
var ErrAccountNotFound = errors.New("account not found")

// ErrInvalidCredentials is returned when authentication fails.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Store defines the account operations required by the dispatcher.
// Implementations must be safe for concurrent use.
type Store interface {
	// Create registers a new account and persists it durably before returning.
	// Returns ErrAccountExists if the name is taken.
	Create(ctx context.Context, name, password string) (Account, error)

	// Authenticate verifies credentials. Returns ErrAccountNotFound if the
	// name is unknown, or ErrInvalidCredentials if the password is wrong.
	Authenticate(ctx context.Context, name, password string) (Account, error)
}
