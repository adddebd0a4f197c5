package account

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/vendhub/vendhub/internal/session"
)

// ErrBadCredentials is returned on any login mismatch. A missing account and
// a wrong password produce the same error so the login path cannot be used
// to probe for registered emails.
var ErrBadCredentials = errors.New("email or password is wrong")

// ErrAlreadyLogin is returned when a login is attempted on a connection that
// already has an identity of the same class, or any identity for user login.
var ErrAlreadyLogin = errors.New("already logged in")

// ErrAlreadyLoginAsUser is returned when an admin login is attempted while a
// user identity is active on the connection.
var ErrAlreadyLoginAsUser = errors.New("already logged in as user")

// ErrAlreadyLoginAsAdmin is returned when a user login is attempted while an
// admin identity is active on the connection.
var ErrAlreadyLoginAsAdmin = errors.New("already logged in as admin")

// ErrAlreadyLogout is returned when logging out a connection with no active
// identity. Callers should treat it as a signal, not a failure.
var ErrAlreadyLogout = errors.New("already logged out")

// Service orchestrates registration, login, and logout over the credential
// and record stores plus the session authority.
type Service struct {
	users      UserRepository
	admins     AdminRepository
	authority  *session.Authority
	bcryptCost int
}

// NewService creates a new account Service.
func NewService(users UserRepository, admins AdminRepository, authority *session.Authority, bcryptCost int) *Service {
	return &Service{
		users:      users,
		admins:     admins,
		authority:  authority,
		bcryptCost: bcryptCost,
	}
}

// RegisterParams holds the fields of a new user registration.
type RegisterParams struct {
	Email            string
	Password         string
	Name             string
	Role             string
	SubscriptionTier string
	Description      string
}

// Register creates a user account with a hashed credential. Returns
// ErrDuplicateEmail if the email is already registered.
func (s *Service) Register(ctx context.Context, p RegisterParams) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	u := &User{
		Email:            p.Email,
		PasswordHash:     string(hash),
		Name:             p.Name,
		Role:             p.Role,
		SubscriptionTier: p.SubscriptionTier,
		Description:      p.Description,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	u.PasswordHash = ""
	return u, nil
}

// Login checks a user credential and establishes a user session, returning
// its token and the established identity. An admin identity on the
// connection fails with ErrAlreadyLoginAsAdmin, a user identity with
// ErrAlreadyLogin. The existing session is left untouched either way.
func (s *Service) Login(ctx context.Context, current session.Session, email, password string) (string, session.Session, error) {
	switch current.Kind {
	case session.KindAdmin:
		return "", session.Anonymous(), ErrAlreadyLoginAsAdmin
	case session.KindUser:
		return "", session.Anonymous(), ErrAlreadyLogin
	}

	cred, err := s.users.CredentialByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", session.Anonymous(), ErrBadCredentials
		}
		return "", session.Anonymous(), err
	}
	if bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)) != nil {
		return "", session.Anonymous(), ErrBadCredentials
	}

	token, err := s.authority.Establish(current, session.KindUser, cred.ID, cred.Email)
	if err != nil {
		return "", session.Anonymous(), err
	}
	return token, session.Session{Kind: session.KindUser, ID: cred.ID, Email: cred.Email}, nil
}

// LoginAdmin checks an admin credential and establishes an admin session.
// A user identity on the connection fails with ErrAlreadyLoginAsUser, an
// admin identity with ErrAlreadyLogin. The existing session is left
// untouched either way.
func (s *Service) LoginAdmin(ctx context.Context, current session.Session, email, password string) (string, session.Session, error) {
	switch current.Kind {
	case session.KindUser:
		return "", session.Anonymous(), ErrAlreadyLoginAsUser
	case session.KindAdmin:
		return "", session.Anonymous(), ErrAlreadyLogin
	}

	cred, err := s.admins.CredentialByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", session.Anonymous(), ErrBadCredentials
		}
		return "", session.Anonymous(), err
	}
	if bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)) != nil {
		return "", session.Anonymous(), ErrBadCredentials
	}

	token, err := s.authority.Establish(current, session.KindAdmin, cred.ID, cred.Email)
	if err != nil {
		return "", session.Anonymous(), err
	}
	return token, session.Session{Kind: session.KindAdmin, ID: cred.ID, Email: cred.Email}, nil
}

// Logout clears the session behind token. Returns ErrAlreadyLogout if no
// identity was active; double logout is safe.
func (s *Service) Logout(token string) error {
	if err := s.authority.Clear(token); err != nil {
		return ErrAlreadyLogout
	}
	return nil
}

// CreateAdmin creates an administrator account with a hashed credential.
func (s *Service) CreateAdmin(ctx context.Context, email, password, position string) (*Admin, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	a := &Admin{
		Email:        email,
		PasswordHash: string(hash),
		Position:     position,
	}
	if err := s.admins.Create(ctx, a); err != nil {
		return nil, err
	}

	a.PasswordHash = ""
	return a, nil
}
