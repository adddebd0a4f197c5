// Package report computes sale statistics over machine logs. All rollups
// are scoped to op_type "sell", bucket over the log timestamp or the
// machine, and only aggregate rows whose payload carries a numeric price;
// a missing or non-numeric price excludes the row rather than counting as
// zero. A machine with no matching logs yields an empty result, never an
// error.
package report

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the reporting engine's read interface over machine logs.
type Repository interface {
	StatsByMonth(ctx context.Context, macID string) ([]MonthlyStat, error)
	StatsByHour(ctx context.Context, macID string) ([]HourlyStat, error)
	StatsAcrossMachines(ctx context.Context, machineIDs []uuid.UUID) ([]MachineStat, error)
}
