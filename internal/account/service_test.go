package account

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vendhub/vendhub/internal/session"
)

// --- Mock repositories ---

type mockUserRepo struct {
	createFn        func(ctx context.Context, u *User) error
	credentialFn    func(ctx context.Context, email string) (*Credential, error)
	getByIDFn       func(ctx context.Context, id uuid.UUID) (*User, error)
	getByEmailFn    func(ctx context.Context, email string) (*User, error)
	updateFn        func(ctx context.Context, id uuid.UUID, fields UpdateFields) (*User, error)
	deleteByEmailFn func(ctx context.Context, email string) error
}

func (m *mockUserRepo) Create(ctx context.Context, u *User) error {
	if m.createFn != nil {
		return m.createFn(ctx, u)
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now().UTC()
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, ErrNotFound
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, ErrNotFound
}

func (m *mockUserRepo) CredentialByEmail(ctx context.Context, email string) (*Credential, error) {
	if m.credentialFn != nil {
		return m.credentialFn(ctx, email)
	}
	return nil, ErrNotFound
}

func (m *mockUserRepo) Update(ctx context.Context, id uuid.UUID, fields UpdateFields) (*User, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, fields)
	}
	return nil, ErrNotFound
}

func (m *mockUserRepo) DeleteByEmail(ctx context.Context, email string) error {
	if m.deleteByEmailFn != nil {
		return m.deleteByEmailFn(ctx, email)
	}
	return nil
}

func (m *mockUserRepo) ListCompanies(ctx context.Context) ([]User, error) { return []User{}, nil }
func (m *mockUserRepo) CompanyCount(ctx context.Context) (int, error)     { return 0, nil }
func (m *mockUserRepo) CompanyInfo(ctx context.Context, email string) (*CompanyInfo, error) {
	return nil, ErrNotFound
}
func (m *mockUserRepo) CountAll(ctx context.Context) (int, error) { return 0, nil }

type mockAdminRepo struct {
	createFn     func(ctx context.Context, a *Admin) error
	credentialFn func(ctx context.Context, email string) (*Credential, error)
	getByIDFn    func(ctx context.Context, id uuid.UUID) (*Admin, error)
}

func (m *mockAdminRepo) Create(ctx context.Context, a *Admin) error {
	if m.createFn != nil {
		return m.createFn(ctx, a)
	}
	a.ID = uuid.New()
	a.CreatedAt = time.Now().UTC()
	return nil
}

func (m *mockAdminRepo) GetByID(ctx context.Context, id uuid.UUID) (*Admin, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, ErrNotFound
}

func (m *mockAdminRepo) CredentialByEmail(ctx context.Context, email string) (*Credential, error) {
	if m.credentialFn != nil {
		return m.credentialFn(ctx, email)
	}
	return nil, ErrNotFound
}

func newTestService(users UserRepository, admins AdminRepository) *Service {
	return NewService(users, admins, session.NewAuthority(time.Minute), bcrypt.MinCost)
}

func storedCredential(t *testing.T, email, password string) *Credential {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &Credential{ID: uuid.New(), Email: email, PasswordHash: string(hash)}
}

// --- Register ---

func TestRegister_HashesPasswordAndStripsIt(t *testing.T) {
	t.Parallel()

	var captured *User
	users := &mockUserRepo{
		createFn: func(_ context.Context, u *User) error {
			captured = u
			u.ID = uuid.New()
			return nil
		},
	}
	svc := newTestService(users, &mockAdminRepo{})

	u, err := svc.Register(context.Background(), RegisterParams{
		Email:    "co@example.com",
		Password: "hunter2hunter2",
		Name:     "Co",
		Role:     "company",
	})
	require.NoError(t, err)

	require.NotNil(t, captured)
	assert.NotEqual(t, "hunter2hunter2", captured.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(captured.PasswordHash), []byte("hunter2hunter2")))

	// The returned record never carries the hash.
	assert.Empty(t, u.PasswordHash)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	t.Parallel()

	users := &mockUserRepo{
		createFn: func(_ context.Context, _ *User) error { return ErrDuplicateEmail },
	}
	svc := newTestService(users, &mockAdminRepo{})

	_, err := svc.Register(context.Background(), RegisterParams{Email: "dup@example.com", Password: "hunter2hunter2"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

// --- Login ---

func TestLogin_Succeeds(t *testing.T) {
	t.Parallel()

	cred := storedCredential(t, "co@example.com", "hunter2hunter2")
	users := &mockUserRepo{
		credentialFn: func(_ context.Context, email string) (*Credential, error) {
			if email == cred.Email {
				return cred, nil
			}
			return nil, ErrNotFound
		},
	}
	svc := newTestService(users, &mockAdminRepo{})

	token, sess, err := svc.Login(context.Background(), session.Anonymous(), "co@example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, session.KindUser, sess.Kind)
	assert.Equal(t, cred.ID, sess.ID)
}

func TestLogin_WrongPasswordAndUnknownEmailLookAlike(t *testing.T) {
	t.Parallel()

	cred := storedCredential(t, "co@example.com", "hunter2hunter2")
	users := &mockUserRepo{
		credentialFn: func(_ context.Context, email string) (*Credential, error) {
			if email == cred.Email {
				return cred, nil
			}
			return nil, ErrNotFound
		},
	}
	svc := newTestService(users, &mockAdminRepo{})

	_, _, errWrongPass := svc.Login(context.Background(), session.Anonymous(), "co@example.com", "not-it")
	_, _, errNoUser := svc.Login(context.Background(), session.Anonymous(), "ghost@example.com", "whatever")

	assert.ErrorIs(t, errWrongPass, ErrBadCredentials)
	assert.ErrorIs(t, errNoUser, ErrBadCredentials)
	// An unknown email and a wrong password fail the same way.
	assert.Equal(t, errWrongPass, errNoUser)
}

func TestLogin_ActiveSessionRejected(t *testing.T) {
	t.Parallel()

	svc := newTestService(&mockUserRepo{}, &mockAdminRepo{})

	active := session.Session{Kind: session.KindUser, ID: uuid.New(), Email: "co@example.com"}
	_, _, err := svc.Login(context.Background(), active, "co@example.com", "hunter2hunter2")
	assert.ErrorIs(t, err, ErrAlreadyLogin)

	asAdmin := session.Session{Kind: session.KindAdmin, ID: uuid.New(), Email: "root@example.com"}
	_, _, err = svc.Login(context.Background(), asAdmin, "co@example.com", "hunter2hunter2")
	assert.ErrorIs(t, err, ErrAlreadyLoginAsAdmin)
}

// --- LoginAdmin ---

func TestLoginAdmin_Succeeds(t *testing.T) {
	t.Parallel()

	cred := storedCredential(t, "root@example.com", "sup3rsecret!")
	admins := &mockAdminRepo{
		credentialFn: func(_ context.Context, email string) (*Credential, error) {
			if email == cred.Email {
				return cred, nil
			}
			return nil, ErrNotFound
		},
	}
	svc := newTestService(&mockUserRepo{}, admins)

	token, sess, err := svc.LoginAdmin(context.Background(), session.Anonymous(), "root@example.com", "sup3rsecret!")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, session.KindAdmin, sess.Kind)
}

func TestLoginAdmin_UserSessionIsConflict(t *testing.T) {
	t.Parallel()

	credentialCalled := false
	admins := &mockAdminRepo{
		credentialFn: func(_ context.Context, _ string) (*Credential, error) {
			credentialCalled = true
			return nil, ErrNotFound
		},
	}
	svc := newTestService(&mockUserRepo{}, admins)

	asUser := session.Session{Kind: session.KindUser, ID: uuid.New(), Email: "co@example.com"}
	_, _, err := svc.LoginAdmin(context.Background(), asUser, "root@example.com", "sup3rsecret!")

	assert.ErrorIs(t, err, ErrAlreadyLoginAsUser)
	// The conflict is reported before any credential is read.
	assert.False(t, credentialCalled)
}

func TestLoginAdmin_AdminSessionAlreadyLogin(t *testing.T) {
	t.Parallel()

	svc := newTestService(&mockUserRepo{}, &mockAdminRepo{})

	asAdmin := session.Session{Kind: session.KindAdmin, ID: uuid.New(), Email: "root@example.com"}
	_, _, err := svc.LoginAdmin(context.Background(), asAdmin, "root@example.com", "sup3rsecret!")
	assert.ErrorIs(t, err, ErrAlreadyLogin)
}

// --- Logout ---

func TestLogout_DoubleLogoutSignals(t *testing.T) {
	t.Parallel()

	cred := storedCredential(t, "co@example.com", "hunter2hunter2")
	users := &mockUserRepo{
		credentialFn: func(_ context.Context, _ string) (*Credential, error) { return cred, nil },
	}
	svc := newTestService(users, &mockAdminRepo{})

	token, _, err := svc.Login(context.Background(), session.Anonymous(), "co@example.com", "hunter2hunter2")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(token))
	assert.ErrorIs(t, svc.Logout(token), ErrAlreadyLogout)
}

// --- CreateAdmin ---

func TestCreateAdmin_HashesPassword(t *testing.T) {
	t.Parallel()

	var captured *Admin
	admins := &mockAdminRepo{
		createFn: func(_ context.Context, a *Admin) error {
			captured = a
			a.ID = uuid.New()
			return nil
		},
	}
	svc := newTestService(&mockUserRepo{}, admins)

	a, err := svc.CreateAdmin(context.Background(), "root@example.com", "sup3rsecret!", "ops")
	require.NoError(t, err)

	require.NotNil(t, captured)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(captured.PasswordHash), []byte("sup3rsecret!")))
	assert.Empty(t, a.PasswordHash)
	assert.Equal(t, "ops", a.Position)
}
