package machine

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Machine represents a row in the machines table. MacID is the stable
// client-facing identifier; ID is the store-internal reference used for
// joins. SecretCode is read only at bind time and never serialized to
// clients.
type Machine struct {
	ID         uuid.UUID
	MacID      string
	SecretCode string
	State      string
	ProdState  string
	Products   json.RawMessage
	OwnerID    *uuid.UUID
	Name       string
	CreatedAt  time.Time

	// Populated by owner-joined reads.
	OwnerName  *string
	OwnerEmail *string
}

// UpdateFields holds admin-updatable machine fields. Nil fields are not
// updated.
type UpdateFields struct {
	State     *string
	ProdState *string
	Products  json.RawMessage
	Name      *string
}
