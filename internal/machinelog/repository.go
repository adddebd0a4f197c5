package machinelog

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a log record is not found.
var ErrNotFound = errors.New("machine log not found")

// ErrDuplicateEvent is returned when an append carries a dedup key that was
// already used for the same machine. Retried ingests hit this instead of
// writing a second row.
var ErrDuplicateEvent = errors.New("event already recorded")

// Repository provides operations on the machine_logs table.
type Repository interface {
	Append(ctx context.Context, l *Log) error
	GetByID(ctx context.Context, id uuid.UUID) (*Log, error)
	ListByMacID(ctx context.Context, macID string) ([]Log, error)
	ListWarnings(ctx context.Context, macID string) ([]Log, error)
	SetResolved(ctx context.Context, id uuid.UUID, resolved bool) (*Log, error)
	DeleteByMacID(ctx context.Context, macID string) (int64, error)
	CountAll(ctx context.Context) (int, error)
}
