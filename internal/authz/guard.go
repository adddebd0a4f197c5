// Package authz is the single place role and ownership checks live. Every
// guarded operation follows the same two-step protocol: fetch the candidate
// resource, then ask the guard, then act. Fetch failures (not found) are
// reported by the repositories and stay distinct from authorization failures.
package authz

import (
	"errors"

	"github.com/google/uuid"

	"github.com/vendhub/vendhub/internal/session"
)

// ErrUnauthorized is returned when an operation requires an identity and
// none is active.
var ErrUnauthorized = errors.New("no identity is active")

// ErrAlreadyLoginAsUser is returned when an admin-only operation is
// attempted while a user identity is active.
var ErrAlreadyLoginAsUser = errors.New("a user identity is active")

// ErrAccessDenied is returned when the active identity does not own the
// resource it is acting on.
var ErrAccessDenied = errors.New("access denied")

// AdminAction allows the operation only for admin sessions. An anonymous
// session is unauthorized; a user session is a privilege conflict, not a
// plain denial.
func AdminAction(sess session.Session) error {
	switch sess.Kind {
	case session.KindAdmin:
		return nil
	case session.KindUser:
		return ErrAlreadyLoginAsUser
	default:
		return ErrUnauthorized
	}
}

// UserAction allows the operation only for user sessions.
func UserAction(sess session.Session) error {
	if sess.Kind != session.KindUser {
		return ErrUnauthorized
	}
	return nil
}

// OwnedResource allows the operation for admins, or for the user that owns
// the resource. ownerID is the owner recorded on the already-fetched
// candidate resource; a nil owner denies every user.
func OwnedResource(sess session.Session, ownerID *uuid.UUID) error {
	if sess.Kind == session.KindAdmin {
		return nil
	}
	if sess.Kind == session.KindUser && ownerID != nil && *ownerID == sess.ID {
		return nil
	}
	return ErrAccessDenied
}
