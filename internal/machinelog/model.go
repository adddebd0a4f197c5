package machinelog

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Log is an append-only machine event. It references its machine twice on
// purpose: MacID is the external identifier and survives deletion of the
// machine row, MachineID is the store-internal reference used for joins.
// A log is immutable once written except for the Resolved flag.
type Log struct {
	ID          uuid.UUID
	MacID       string
	MachineID   *uuid.UUID
	OpType      string // e.g. "sell"
	Priority    string // e.g. "warning"
	Resolved    bool
	Description string
	Payload     json.RawMessage // sale events carry a numeric "price"
	DedupKey    *string
	CreatedAt   time.Time
}
