package account

import (
	"time"

	"github.com/google/uuid"
)

// User represents a row in the users table. PasswordHash is populated only
// by the credential read path and must never reach a caller.
type User struct {
	ID               uuid.UUID
	Email            string
	PasswordHash     string
	Name             string
	Role             string // "user" or "company"
	SubscriptionTier string
	Description      string
	CreatedAt        time.Time
}

// Admin represents a row in the admins table.
type Admin struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Position     string
	CreatedAt    time.Time
}

// CompanyInfo is the public profile of a company account, with its machine
// count in place of the raw reference set.
type CompanyInfo struct {
	ID           uuid.UUID
	Email        string
	Name         string
	Role         string
	Description  string
	CreatedAt    time.Time
	MachineCount int
}

// UpdateFields holds user-updatable profile fields. Nil fields are not
// updated.
type UpdateFields struct {
	Name             *string
	SubscriptionTier *string
	Description      *string
}
