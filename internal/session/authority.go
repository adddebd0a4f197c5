package session

import (
	"errors"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// ErrAlreadyActive is returned when establishing an identity on a connection
// that already has one. The caller must clear the existing identity first;
// it is never silently overwritten.
var ErrAlreadyActive = errors.New("an identity is already active on this session")

// ErrNotActive is returned when clearing a session that has no identity.
var ErrNotActive = errors.New("no identity is active on this session")

// Authority issues and resolves session tokens. Sessions expire after an
// idle TTL; resolving a session refreshes its expiry.
type Authority struct {
	sessions *gocache.Cache
}

// NewAuthority creates an Authority whose sessions expire after ttl of
// inactivity.
func NewAuthority(ttl time.Duration) *Authority {
	return &Authority{
		sessions: gocache.New(ttl, 2*ttl),
	}
}

// Current resolves a token to its session. An unknown, expired, or empty
// token resolves to the anonymous session.
func (a *Authority) Current(token string) Session {
	if token == "" {
		return Anonymous()
	}
	v, ok := a.sessions.Get(token)
	if !ok {
		return Anonymous()
	}
	sess := v.(Session)
	a.sessions.SetDefault(token, sess)
	return sess
}

// Establish creates a new session for the given identity and returns its
// token. current is the identity already resolved for the connection; if it
// is active the call fails with ErrAlreadyActive regardless of kind, so a
// connection can never escalate or swap privilege without an explicit clear.
func (a *Authority) Establish(current Session, kind Kind, id uuid.UUID, email string) (string, error) {
	if current.Active() {
		return "", ErrAlreadyActive
	}
	if kind != KindUser && kind != KindAdmin {
		return "", errors.New("cannot establish an anonymous identity")
	}

	token := uuid.New().String()
	a.sessions.SetDefault(token, Session{Kind: kind, ID: id, Email: email})
	return token, nil
}

// Clear destroys the session behind token. Clearing an unknown or expired
// token returns ErrNotActive so callers can signal "already logged out".
func (a *Authority) Clear(token string) error {
	if token == "" {
		return ErrNotActive
	}
	if _, ok := a.sessions.Get(token); !ok {
		return ErrNotActive
	}
	a.sessions.Delete(token)
	return nil
}
