package machine

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

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection
// pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a new machine record.
func (r *PostgresRepository) Create(ctx context.Context, m *Machine) error {
	if m.Products == nil {
		m.Products = []byte("[]")
	}

	query := `
		INSERT INTO machines (mac_id, secret_code, state, prod_state, products, owner_id, name)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		m.MacID,
		m.SecretCode,
		m.State,
		m.ProdState,
		m.Products,
		m.OwnerID,
		m.Name,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateMacID
		}
		return fmt.Errorf("inserting machine: %w", err)
	}

	return nil
}

// GetByMacID retrieves a machine by its external identifier, secret
// excluded, with owner name and email joined in.
func (r *PostgresRepository) GetByMacID(ctx context.Context, macID string) (*Machine, error) {
	query := `
		SELECT m.id, m.mac_id, m.state, m.prod_state, m.products, m.owner_id,
		       m.name, m.created_at, u.name, u.email
		FROM machines m
		LEFT JOIN users u ON m.owner_id = u.id
		WHERE m.mac_id = $1`

	var m Machine
	err := r.pool.QueryRow(ctx, query, macID).Scan(
		&m.ID, &m.MacID, &m.State, &m.ProdState, &m.Products,
		&m.OwnerID, &m.Name, &m.CreatedAt, &m.OwnerName, &m.OwnerEmail,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying machine: %w", err)
	}
	return &m, nil
}

// GetWithSecret retrieves a machine including its shared-secret code. Only
// the binding service reads through this path.
func (r *PostgresRepository) GetWithSecret(ctx context.Context, macID string) (*Machine, error) {
	query := `
		SELECT id, mac_id, secret_code, state, prod_state, products, owner_id, name, created_at
		FROM machines
		WHERE mac_id = $1`

	var m Machine
	err := r.pool.QueryRow(ctx, query, macID).Scan(
		&m.ID, &m.MacID, &m.SecretCode, &m.State, &m.ProdState,
		&m.Products, &m.OwnerID, &m.Name, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying machine: %w", err)
	}
	return &m, nil
}

// Update modifies admin-updatable machine fields.
func (r *PostgresRepository) Update(ctx context.Context, macID string, fields UpdateFields) (*Machine, error) {
	var setClauses []string
	var args []any
	argIdx := 1

	if fields.State != nil {
		setClauses = append(setClauses, fmt.Sprintf("state = $%d", argIdx))
		args = append(args, *fields.State)
		argIdx++
	}
	if fields.ProdState != nil {
		setClauses = append(setClauses, fmt.Sprintf("prod_state = $%d", argIdx))
		args = append(args, *fields.ProdState)
		argIdx++
	}
	if fields.Products != nil {
		setClauses = append(setClauses, fmt.Sprintf("products = $%d", argIdx))
		args = append(args, fields.Products)
		argIdx++
	}
	if fields.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", argIdx))
		args = append(args, *fields.Name)
		argIdx++
	}

	if len(setClauses) == 0 {
		return r.GetByMacID(ctx, macID)
	}

	args = append(args, macID)

	query := fmt.Sprintf(`
		UPDATE machines
		SET %s
		WHERE mac_id = $%d
		RETURNING id, mac_id, state, prod_state, products, owner_id, name, created_at`,
		strings.Join(setClauses, ", "), argIdx)

	var m Machine
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&m.ID, &m.MacID, &m.State, &m.ProdState, &m.Products,
		&m.OwnerID, &m.Name, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("updating machine: %w", err)
	}
	return &m, nil
}

// DeleteByMacID removes a machine record. Returns ErrNotFound if no row
// matched.
func (r *PostgresRepository) DeleteByMacID(ctx context.Context, macID string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM machines WHERE mac_id = $1`, macID)
	if err != nil {
		return fmt.Errorf("deleting machine: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountAll returns the total number of machines.
func (r *PostgresRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM machines`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting machines: %w", err)
	}
	return count, nil
}

// AddReference inserts a machine into a user's reference set. Inserting an
// existing member is a no-op, which makes bind idempotent.
func (r *PostgresRepository) AddReference(ctx context.Context, userID, machineID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_machines (user_id, machine_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, machine_id) DO NOTHING`,
		userID, machineID)
	if err != nil {
		return fmt.Errorf("adding machine reference: %w", err)
	}
	return nil
}

// RemoveReference removes a machine from a user's reference set. Removing a
// non-member is a no-op.
func (r *PostgresRepository) RemoveReference(ctx context.Context, userID, machineID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM user_machines
		WHERE user_id = $1 AND machine_id = $2`,
		userID, machineID)
	if err != nil {
		return fmt.Errorf("removing machine reference: %w", err)
	}
	return nil
}

// HasReference reports whether a machine is in a user's reference set.
func (r *PostgresRepository) HasReference(ctx context.Context, userID, machineID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM user_machines WHERE user_id = $1 AND machine_id = $2)`,
		userID, machineID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking machine reference: %w", err)
	}
	return exists, nil
}

// ListBoundTo retrieves the machines in a user's reference set, ordered by
// bind time.
func (r *PostgresRepository) ListBoundTo(ctx context.Context, userID uuid.UUID) ([]Machine, error) {
	query := `
		SELECT m.id, m.mac_id, m.state, m.prod_state, m.products, m.owner_id, m.name, m.created_at
		FROM machines m
		JOIN user_machines um ON um.machine_id = m.id
		WHERE um.user_id = $1
		ORDER BY um.bound_at ASC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing bound machines: %w", err)
	}
	defer rows.Close()

	var machines []Machine
	for rows.Next() {
		var m Machine
		err := rows.Scan(
			&m.ID, &m.MacID, &m.State, &m.ProdState, &m.Products,
			&m.OwnerID, &m.Name, &m.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning machine row: %w", err)
		}
		machines = append(machines, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating machine rows: %w", err)
	}

	if machines == nil {
		machines = []Machine{}
	}

	return machines, nil
}

// SetOwner sets the ownership reference of a machine.
func (r *PostgresRepository) SetOwner(ctx context.Context, machineID, ownerID uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE machines SET owner_id = $1 WHERE id = $2`,
		ownerID, machineID)
	if err != nil {
		return fmt.Errorf("setting machine owner: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearOwnerIf clears the ownership reference of a machine only when it
// still points at ownerID. A machine rebound by someone else in the
// meantime is left alone.
func (r *PostgresRepository) ClearOwnerIf(ctx context.Context, machineID, ownerID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE machines SET owner_id = NULL WHERE id = $1 AND owner_id = $2`,
		machineID, ownerID)
	if err != nil {
		return fmt.Errorf("clearing machine owner: %w", err)
	}
	return nil
}
