package machine

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a machine record is not found.
var ErrNotFound = errors.New("machine not found")

// ErrDuplicateMacID is returned when a machine with the same mac_id already
// exists.
var ErrDuplicateMacID = errors.New("machine identifier already registered")

// Repository provides operations on the machines table and the
// user_machines reference set.
type Repository interface {
	Create(ctx context.Context, m *Machine) error
	GetByMacID(ctx context.Context, macID string) (*Machine, error)
	GetWithSecret(ctx context.Context, macID string) (*Machine, error)
	Update(ctx context.Context, macID string, fields UpdateFields) (*Machine, error)
	DeleteByMacID(ctx context.Context, macID string) error
	CountAll(ctx context.Context) (int, error)

	// Reference-set operations. AddReference is a set insert: adding a
	// member twice leaves a single entry. RemoveReference on a non-member
	// is a no-op.
	AddReference(ctx context.Context, userID, machineID uuid.UUID) error
	RemoveReference(ctx context.Context, userID, machineID uuid.UUID) error
	HasReference(ctx context.Context, userID, machineID uuid.UUID) (bool, error)
	ListBoundTo(ctx context.Context, userID uuid.UUID) ([]Machine, error)

	SetOwner(ctx context.Context, machineID, ownerID uuid.UUID) error
	ClearOwnerIf(ctx context.Context, machineID, ownerID uuid.UUID) error
}
