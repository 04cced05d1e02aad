package accounts

import (
	"context"
	"errors"
)

var (
	ErrEmailTaken     = errors.New("email already registered")
	ErrBadCredentials = errors.New("invalid credentials")
)

// RoleStaff is the role granted to accounts that may administer the
// catalog through the gateway.
const RoleStaff = "staff"

type Account struct {
	ID    string
	Email string
	Hash  []byte
	Role  string
}

type Store interface {
	Register(ctx context.Context, acct Account, password string) error
	Authenticate(ctx context.Context, email, password string) (Account, error)
	Ping(ctx context.Context) error
}
