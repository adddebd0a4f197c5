package machine

import (
	"context"
	"crypto/subtle"
	"log/slog"

	"github.com/vendhub/vendhub/internal/authz"
	"github.com/vendhub/vendhub/internal/machinelog"
	"github.com/vendhub/vendhub/internal/session"
)

// BindingService handles ownership transfer between users and machines.
// Every operation takes the caller's session; binding is non-atomic
// (read secret, insert reference, set owner) and safe to retry because the
// reference insert has set semantics.
type BindingService struct {
	machines Repository
	logs     machinelog.Repository
}

// NewBindingService creates a new BindingService.
func NewBindingService(machines Repository, logs machinelog.Repository) *BindingService {
	return &BindingService{machines: machines, logs: logs}
}

// Bind claims a machine for the session user. The claimed code must match
// the machine's shared-secret code or the call fails with
// authz.ErrAccessDenied and the reference set is left untouched. Binding an
// already-bound machine again is a no-op.
func (s *BindingService) Bind(ctx context.Context, sess session.Session, macID, claimedCode string) error {
	if err := authz.UserAction(sess); err != nil {
		return err
	}

	m, err := s.machines.GetWithSecret(ctx, macID)
	if err != nil {
		return err
	}

	if subtle.ConstantTimeCompare([]byte(m.SecretCode), []byte(claimedCode)) != 1 {
		slog.Warn("machine bind rejected", "macId", macID, "userId", sess.ID)
		return authz.ErrAccessDenied
	}

	if err := s.machines.AddReference(ctx, sess.ID, m.ID); err != nil {
		return err
	}
	if err := s.machines.SetOwner(ctx, m.ID, sess.ID); err != nil {
		return err
	}

	slog.Info("machine bound", "macId", macID, "userId", sess.ID)
	return nil
}

// Unbind removes a machine from the session user's reference set and clears
// the ownership reference if it points at the caller. Unbinding a machine
// the user never bound is a no-op, not an error.
func (s *BindingService) Unbind(ctx context.Context, sess session.Session, macID string) error {
	if err := authz.UserAction(sess); err != nil {
		return err
	}

	m, err := s.machines.GetByMacID(ctx, macID)
	if err != nil {
		return err
	}

	if err := s.machines.RemoveReference(ctx, sess.ID, m.ID); err != nil {
		return err
	}
	return s.machines.ClearOwnerIf(ctx, m.ID, sess.ID)
}

// DeleteHistory deletes all logs of a machine the session user owns. The
// machine is fetched first, then ownership is checked against its recorded
// owner, so a missing machine reports not-found and a foreign machine
// reports access-denied.
func (s *BindingService) DeleteHistory(ctx context.Context, sess session.Session, macID string) error {
	m, err := s.machines.GetByMacID(ctx, macID)
	if err != nil {
		return err
	}

	if err := authz.OwnedResource(sess, m.OwnerID); err != nil {
		return err
	}

	deleted, err := s.logs.DeleteByMacID(ctx, m.MacID)
	if err != nil {
		return err
	}

	slog.Info("machine history deleted", "macId", macID, "logs", deleted)
	return nil
}
