// Package session holds the transient per-connection identity and the
// authority that creates and destroys it. Sessions live only in process
// memory and are never persisted.
package session

import (
	"github.com/google/uuid"
)

// Kind is the identity class a session resolves to.
type Kind string

const (
	// KindNone is an anonymous connection.
	KindNone Kind = "none"
	// KindUser is an authenticated company account.
	KindUser Kind = "user"
	// KindAdmin is an authenticated administrator.
	KindAdmin Kind = "admin"
)

// Session is the identity attached to a single connection. The zero value
// is an anonymous session.
type Session struct {
	Kind  Kind
	ID    uuid.UUID
	Email string
}

// Anonymous returns the identity of an unauthenticated connection.
func Anonymous() Session {
	return Session{Kind: KindNone}
}

// Active reports whether the session carries an identity.
func (s Session) Active() bool {
	return s.Kind == KindUser || s.Kind == KindAdmin
}
