package account

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a user or admin record is not found.
var ErrNotFound = errors.New("account not found")

// ErrDuplicateEmail is returned when an account with the same email already
// exists.
var ErrDuplicateEmail = errors.New("email already registered")

// Credential is the hashed-credential view of an account, read only by the
// login paths.
type Credential struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
}

// UserRepository provides operations on the users table. Every read that
// returns a User projects the password hash out; CredentialByEmail is the
// only path that sees it.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	CredentialByEmail(ctx context.Context, email string) (*Credential, error)
	Update(ctx context.Context, id uuid.UUID, fields UpdateFields) (*User, error)
	DeleteByEmail(ctx context.Context, email string) error
	ListCompanies(ctx context.Context) ([]User, error)
	CompanyCount(ctx context.Context) (int, error)
	CompanyInfo(ctx context.Context, email string) (*CompanyInfo, error)
	CountAll(ctx context.Context) (int, error)
}

// AdminRepository provides operations on the admins table.
type AdminRepository interface {
	Create(ctx context.Context, a *Admin) error
	GetByID(ctx context.Context, id uuid.UUID) (*Admin, error)
	CredentialByEmail(ctx context.Context, email string) (*Credential, error)
}
