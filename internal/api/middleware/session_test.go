package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendhub/vendhub/internal/session"
)

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func errCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error *struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	require.NotNil(t, env.Error)
	return env.Error.Code
}

func TestResolve_CookieToContext(t *testing.T) {
	t.Parallel()

	authority := session.NewAuthority(time.Minute)
	userID := uuid.New()
	token, err := authority.Establish(session.Anonymous(), session.KindUser, userID, "co@example.com")
	require.NoError(t, err)

	var got session.Session
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetSession(r.Context())
		assert.Equal(t, token, GetToken(r.Context()))
	})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "sid", Value: token})
	Resolve(authority, "sid")(inner).ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, session.KindUser, got.Kind)
	assert.Equal(t, userID, got.ID)
}

func TestResolve_MissingCookieIsAnonymous(t *testing.T) {
	t.Parallel()

	var got session.Session
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetSession(r.Context())
	})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	Resolve(session.NewAuthority(time.Minute), "sid")(inner).ServeHTTP(httptest.NewRecorder(), r)

	assert.False(t, got.Active())
}

func TestRequireUser_RejectsAnonymous(t *testing.T) {
	t.Parallel()

	called := false
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	RequireUser()(okHandler(&called)).ServeHTTP(rec, r)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", errCode(t, rec))
}

func TestRequireUser_AdmitsUserSession(t *testing.T) {
	t.Parallel()

	sess := session.Session{Kind: session.KindUser, ID: uuid.New()}
	called := false
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(WithSession(r.Context(), sess))
	RequireUser()(okHandler(&called)).ServeHTTP(rec, r)

	assert.True(t, called)
}

func TestRequireAdmin_UserSessionIsAConflictNotAMissingIdentity(t *testing.T) {
	t.Parallel()

	sess := session.Session{Kind: session.KindUser, ID: uuid.New()}
	called := false
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(WithSession(r.Context(), sess))
	RequireAdmin()(okHandler(&called)).ServeHTTP(rec, r)

	assert.False(t, called)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "ALREADY_LOGIN_AS_USER", errCode(t, rec))
}

func TestRequireAdmin_RejectsAnonymous(t *testing.T) {
	t.Parallel()

	called := false
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	RequireAdmin()(okHandler(&called)).ServeHTTP(rec, r)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAdmin_AdmitsAdminSession(t *testing.T) {
	t.Parallel()

	sess := session.Session{Kind: session.KindAdmin, ID: uuid.New()}
	called := false
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(WithSession(r.Context(), sess))
	RequireAdmin()(okHandler(&called)).ServeHTTP(rec, r)

	assert.True(t, called)
}
