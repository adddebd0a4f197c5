package report

import (
	"context"
	"fmt"

	"github.com/google/uuid"
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

// StatsByMonth groups a machine's sale logs by calendar month of their
// timestamp.
func (r *PostgresRepository) StatsByMonth(ctx context.Context, macID string) ([]MonthlyStat, error) {
	query := `
		SELECT EXTRACT(MONTH FROM created_at)::int AS month,
		       AVG((payload->>'price')::numeric)::float8,
		       SUM((payload->>'price')::numeric)::float8
		FROM machine_logs
		WHERE mac_id = $1
		  AND op_type = 'sell'
		  AND jsonb_typeof(payload->'price') = 'number'
		GROUP BY month
		ORDER BY month ASC`

	rows, err := r.pool.Query(ctx, query, macID)
	if err != nil {
		return nil, fmt.Errorf("querying monthly stats: %w", err)
	}
	defer rows.Close()

	stats := []MonthlyStat{}
	for rows.Next() {
		var s MonthlyStat
		if err := rows.Scan(&s.Month, &s.Average, &s.Sum); err != nil {
			return nil, fmt.Errorf("scanning monthly stat row: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating monthly stat rows: %w", err)
	}

	return stats, nil
}

// StatsByHour groups a machine's sale logs by hour of day of their
// timestamp.
func (r *PostgresRepository) StatsByHour(ctx context.Context, macID string) ([]HourlyStat, error) {
	query := `
		SELECT EXTRACT(HOUR FROM created_at)::int AS hour,
		       AVG((payload->>'price')::numeric)::float8,
		       SUM((payload->>'price')::numeric)::float8
		FROM machine_logs
		WHERE mac_id = $1
		  AND op_type = 'sell'
		  AND jsonb_typeof(payload->'price') = 'number'
		GROUP BY hour
		ORDER BY hour ASC`

	rows, err := r.pool.Query(ctx, query, macID)
	if err != nil {
		return nil, fmt.Errorf("querying hourly stats: %w", err)
	}
	defer rows.Close()

	stats := []HourlyStat{}
	for rows.Next() {
		var s HourlyStat
		if err := rows.Scan(&s.Hour, &s.Average, &s.Sum); err != nil {
			return nil, fmt.Errorf("scanning hourly stat row: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating hourly stat rows: %w", err)
	}

	return stats, nil
}

// StatsAcrossMachines rolls up sale logs per machine for the given internal
// references, one row per machine with at least one matching log, sorted
// ascending by external identifier.
func (r *PostgresRepository) StatsAcrossMachines(ctx context.Context, machineIDs []uuid.UUID) ([]MachineStat, error) {
	if len(machineIDs) == 0 {
		return []MachineStat{}, nil
	}

	query := `
		SELECT mac_id,
		       AVG((payload->>'price')::numeric)::float8,
		       SUM((payload->>'price')::numeric)::float8,
		       COUNT(*)::int
		FROM machine_logs
		WHERE machine_id = ANY($1)
		  AND op_type = 'sell'
		  AND jsonb_typeof(payload->'price') = 'number'
		GROUP BY mac_id
		ORDER BY mac_id ASC`

	rows, err := r.pool.Query(ctx, query, machineIDs)
	if err != nil {
		return nil, fmt.Errorf("querying fleet stats: %w", err)
	}
	defer rows.Close()

	stats := []MachineStat{}
	for rows.Next() {
		var s MachineStat
		if err := rows.Scan(&s.MacID, &s.Average, &s.Sum, &s.Count); err != nil {
			return nil, fmt.Errorf("scanning fleet stat row: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating fleet stat rows: %w", err)
	}

	return stats, nil
}
