package machinelog

import (
	"context"
	"errors"
	"fmt"

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

// Append inserts a new log record.
func (r *PostgresRepository) Append(ctx context.Context, l *Log) error {
	if l.Payload == nil {
		l.Payload = []byte("{}")
	}

	query := `
		INSERT INTO machine_logs (mac_id, machine_id, op_type, priority, resolved, description, payload, dedup_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		l.MacID,
		l.MachineID,
		l.OpType,
		l.Priority,
		l.Resolved,
		l.Description,
		l.Payload,
		l.DedupKey,
	).Scan(&l.ID, &l.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEvent
		}
		return fmt.Errorf("inserting machine log: %w", err)
	}

	return nil
}

// GetByID retrieves a single log by its UUID.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Log, error) {
	query := `
		SELECT id, mac_id, machine_id, op_type, priority, resolved, description, payload, dedup_key, created_at
		FROM machine_logs
		WHERE id = $1`

	var l Log
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&l.ID, &l.MacID, &l.MachineID, &l.OpType, &l.Priority,
		&l.Resolved, &l.Description, &l.Payload, &l.DedupKey, &l.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying machine log: %w", err)
	}
	return &l, nil
}

// ListByMacID retrieves all logs of a machine, newest first.
func (r *PostgresRepository) ListByMacID(ctx context.Context, macID string) ([]Log, error) {
	query := `
		SELECT id, mac_id, machine_id, op_type, priority, resolved, description, payload, dedup_key, created_at
		FROM machine_logs
		WHERE mac_id = $1
		ORDER BY created_at DESC`

	return r.list(ctx, query, macID)
}

// ListWarnings retrieves the warning-priority logs of a machine, newest
// first.
func (r *PostgresRepository) ListWarnings(ctx context.Context, macID string) ([]Log, error) {
	query := `
		SELECT id, mac_id, machine_id, op_type, priority, resolved, description, payload, dedup_key, created_at
		FROM machine_logs
		WHERE mac_id = $1 AND priority = 'warning'
		ORDER BY created_at DESC`

	return r.list(ctx, query, macID)
}

// SetResolved flips the resolution flag, the only permitted mutation on a
// log.
func (r *PostgresRepository) SetResolved(ctx context.Context, id uuid.UUID, resolved bool) (*Log, error) {
	query := `
		UPDATE machine_logs
		SET resolved = $1
		WHERE id = $2
		RETURNING id, mac_id, machine_id, op_type, priority, resolved, description, payload, dedup_key, created_at`

	var l Log
	err := r.pool.QueryRow(ctx, query, resolved, id).Scan(
		&l.ID, &l.MacID, &l.MachineID, &l.OpType, &l.Priority,
		&l.Resolved, &l.Description, &l.Payload, &l.DedupKey, &l.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("updating machine log: %w", err)
	}
	return &l, nil
}

// DeleteByMacID removes all logs of a machine and returns how many rows
// went. Zero deletions is a valid outcome, not an error.
func (r *PostgresRepository) DeleteByMacID(ctx context.Context, macID string) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM machine_logs WHERE mac_id = $1`, macID)
	if err != nil {
		return 0, fmt.Errorf("deleting machine logs: %w", err)
	}
	return result.RowsAffected(), nil
}

// CountAll returns the total number of logs.
func (r *PostgresRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM machine_logs`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting machine logs: %w", err)
	}
	return count, nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]Log, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing machine logs: %w", err)
	}
	defer rows.Close()

	var logs []Log
	for rows.Next() {
		var l Log
		err := rows.Scan(
			&l.ID, &l.MacID, &l.MachineID, &l.OpType, &l.Priority,
			&l.Resolved, &l.Description, &l.Payload, &l.DedupKey, &l.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning machine log row: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating machine log rows: %w", err)
	}

	if logs == nil {
		logs = []Log{}
	}

	return logs, nil
}
