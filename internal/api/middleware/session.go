package middleware

import (
	"context"
	"net/http"

	"github.com/vendhub/vendhub/internal/api/response"
	"github.com/vendhub/vendhub/internal/authz"
	"github.com/vendhub/vendhub/internal/session"
)

const (
	sessionKey contextKey = "session"
	tokenKey   contextKey = "sessionToken"
)

// Resolve is middleware that reads the session cookie, resolves it to an
// identity through the authority, and stores both the session and its token
// in the request context. A missing or expired cookie resolves to the
// anonymous session; nothing is rejected here.
func Resolve(authority *session.Authority, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var token string
			if c, err := r.Cookie(cookieName); err == nil {
				token = c.Value
			}

			sess := authority.Current(token)

			ctx := context.WithValue(r.Context(), sessionKey, sess)
			ctx = context.WithValue(ctx, tokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSession retrieves the resolved session from the request context.
func GetSession(ctx context.Context) session.Session {
	if s, ok := ctx.Value(sessionKey).(session.Session); ok {
		return s
	}
	return session.Anonymous()
}

// GetToken retrieves the raw session token from the request context.
func GetToken(ctx context.Context) string {
	if t, ok := ctx.Value(tokenKey).(string); ok {
		return t
	}
	return ""
}

// WithSession returns a context carrying the given session. Test helper.
func WithSession(ctx context.Context, sess session.Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

// RequireUser returns middleware that rejects connections without a user
// identity.
func RequireUser() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			if err := authz.UserAction(GetSession(r.Context())); err != nil {
				response.Err(w, http.StatusUnauthorized, response.CodeUnauthorized, "A user session is required", requestID)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin returns middleware that rejects connections without an admin
// identity. An active user session is reported as a privilege conflict,
// distinct from a plain missing identity.
func RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			switch authz.AdminAction(GetSession(r.Context())) {
			case nil:
				next.ServeHTTP(w, r)
			case authz.ErrAlreadyLoginAsUser:
				response.Err(w, http.StatusForbidden, response.CodeAlreadyLoginAsUser, "An admin session is required, but a user session is active", requestID)
			default:
				response.Err(w, http.StatusUnauthorized, response.CodeUnauthorized, "An admin session is required", requestID)
			}
		})
	}
}
