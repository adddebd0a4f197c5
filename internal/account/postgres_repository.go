package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresUserRepository implements UserRepository using pgxpool.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository backed by the given
// connection pool.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create inserts a new user record with its hashed credential.
func (r *PostgresUserRepository) Create(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (email, password_hash, name, role, subscription_tier, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		u.Email,
		u.PasswordHash,
		u.Name,
		u.Role,
		u.SubscriptionTier,
		u.Description,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	return nil
}

// GetByID retrieves a single user by its UUID, hash excluded.
func (r *PostgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `
		SELECT id, email, name, role, subscription_tier, description, created_at
		FROM users
		WHERE id = $1`

	return r.scanOne(ctx, query, id)
}

// GetByEmail retrieves a single user by email, hash excluded.
func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, email, name, role, subscription_tier, description, created_at
		FROM users
		WHERE email = $1`

	return r.scanOne(ctx, query, email)
}

// CredentialByEmail retrieves the hashed credential for a user. This is the
// only read path that touches password_hash.
func (r *PostgresUserRepository) CredentialByEmail(ctx context.Context, email string) (*Credential, error) {
	var c Credential
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, password_hash FROM users WHERE email = $1`,
		email,
	).Scan(&c.ID, &c.Email, &c.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying user credential: %w", err)
	}
	return &c, nil
}

// Update modifies user-updatable profile fields.
func (r *PostgresUserRepository) Update(ctx context.Context, id uuid.UUID, fields UpdateFields) (*User, error) {
	var setClauses []string
	var args []any
	argIdx := 1

	if fields.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", argIdx))
		args = append(args, *fields.Name)
		argIdx++
	}
	if fields.SubscriptionTier != nil {
		setClauses = append(setClauses, fmt.Sprintf("subscription_tier = $%d", argIdx))
		args = append(args, *fields.SubscriptionTier)
		argIdx++
	}
	if fields.Description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", argIdx))
		args = append(args, *fields.Description)
		argIdx++
	}

	if len(setClauses) == 0 {
		return r.GetByID(ctx, id)
	}

	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE users
		SET %s
		WHERE id = $%d
		RETURNING id, email, name, role, subscription_tier, description, created_at`,
		strings.Join(setClauses, ", "), argIdx)

	return r.scanOne(ctx, query, args...)
}

// DeleteByEmail removes a user record. Returns ErrNotFound if no row
// matched.
func (r *PostgresUserRepository) DeleteByEmail(ctx context.Context, email string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM users WHERE email = $1`, email)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListCompanies retrieves all company accounts, ordered by creation time.
func (r *PostgresUserRepository) ListCompanies(ctx context.Context) ([]User, error) {
	query := `
		SELECT id, email, name, role, subscription_tier, description, created_at
		FROM users
		WHERE role = 'company'
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing companies: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.SubscriptionTier, &u.Description, &u.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user rows: %w", err)
	}

	if users == nil {
		users = []User{}
	}

	return users, nil
}

// CompanyCount returns the number of company accounts.
func (r *PostgresUserRepository) CompanyCount(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role = 'company'`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting companies: %w", err)
	}
	return count, nil
}

// CompanyInfo retrieves the public profile of a company account with its
// bound machine count.
func (r *PostgresUserRepository) CompanyInfo(ctx context.Context, email string) (*CompanyInfo, error) {
	query := `
		SELECT u.id, u.email, u.name, u.role, u.description, u.created_at,
		       COUNT(um.machine_id)
		FROM users u
		LEFT JOIN user_machines um ON um.user_id = u.id
		WHERE u.email = $1 AND u.role = 'company'
		GROUP BY u.id`

	var info CompanyInfo
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&info.ID, &info.Email, &info.Name, &info.Role,
		&info.Description, &info.CreatedAt, &info.MachineCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying company info: %w", err)
	}
	return &info, nil
}

// CountAll returns the total number of users.
func (r *PostgresUserRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}

// scanOne scans a single User row from a query. Returns ErrNotFound if no
// rows.
func (r *PostgresUserRepository) scanOne(ctx context.Context, query string, args ...any) (*User, error) {
	var u User
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&u.ID, &u.Email, &u.Name, &u.Role, &u.SubscriptionTier, &u.Description, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return &u, nil
}

// PostgresAdminRepository implements AdminRepository using pgxpool.
type PostgresAdminRepository struct {
	pool *pgxpool.Pool
}

// NewAdminRepository creates a new AdminRepository backed by the given
// connection pool.
func NewAdminRepository(pool *pgxpool.Pool) AdminRepository {
	return &PostgresAdminRepository{pool: pool}
}

// Create inserts a new admin record.
func (r *PostgresAdminRepository) Create(ctx context.Context, a *Admin) error {
	query := `
		INSERT INTO admins (email, password_hash, position)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query, a.Email, a.PasswordHash, a.Position).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("inserting admin: %w", err)
	}

	return nil
}

// GetByID retrieves a single admin by its UUID, hash excluded.
func (r *PostgresAdminRepository) GetByID(ctx context.Context, id uuid.UUID) (*Admin, error) {
	var a Admin
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, position, created_at FROM admins WHERE id = $1`,
		id,
	).Scan(&a.ID, &a.Email, &a.Position, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying admin: %w", err)
	}
	return &a, nil
}

// CredentialByEmail retrieves the hashed credential for an admin.
func (r *PostgresAdminRepository) CredentialByEmail(ctx context.Context, email string) (*Credential, error) {
	var c Credential
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, password_hash FROM admins WHERE email = $1`,
		email,
	).Scan(&c.ID, &c.Email, &c.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying admin credential: %w", err)
	}
	return &c, nil
}
