package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/vendhub/vendhub/internal/account"
	"github.com/vendhub/vendhub/internal/api/middleware"
	"github.com/vendhub/vendhub/internal/api/response"
	"github.com/vendhub/vendhub/internal/machine"
	"github.com/vendhub/vendhub/internal/machinelog"
	"github.com/vendhub/vendhub/internal/report"
	"github.com/vendhub/vendhub/internal/session"
)

// --- Repository mocks. Function fields override just what a test needs;
// anything else falls through to the embedded nil interface and panics,
// which is the test's way of saying the handler touched something it
// should not have.

type mockUserRepo struct {
	account.UserRepository

	createFn            func(ctx context.Context, u *account.User) error
	getByIDFn           func(ctx context.Context, id uuid.UUID) (*account.User, error)
	credentialByEmailFn func(ctx context.Context, email string) (*account.Credential, error)
	countAllFn          func(ctx context.Context) (int, error)
}

func (m *mockUserRepo) Create(ctx context.Context, u *account.User) error {
	return m.createFn(ctx, u)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*account.User, error) {
	return m.getByIDFn(ctx, id)
}

func (m *mockUserRepo) CredentialByEmail(ctx context.Context, email string) (*account.Credential, error) {
	return m.credentialByEmailFn(ctx, email)
}

func (m *mockUserRepo) CountAll(ctx context.Context) (int, error) {
	if m.countAllFn != nil {
		return m.countAllFn(ctx)
	}
	return 0, nil
}

type mockMachineRepo struct {
	machine.Repository

	createFn        func(ctx context.Context, m *machine.Machine) error
	getByMacIDFn    func(ctx context.Context, macID string) (*machine.Machine, error)
	getWithSecretFn func(ctx context.Context, macID string) (*machine.Machine, error)
	hasReferenceFn  func(ctx context.Context, userID, machineID uuid.UUID) (bool, error)
	listBoundToFn   func(ctx context.Context, userID uuid.UUID) ([]machine.Machine, error)
	countAllFn      func(ctx context.Context) (int, error)

	addedRefs   []uuid.UUID
	removedRefs []uuid.UUID
	ownerSets   []uuid.UUID
	ownerClears []uuid.UUID
}

func (m *mockMachineRepo) Create(ctx context.Context, mc *machine.Machine) error {
	return m.createFn(ctx, mc)
}

func (m *mockMachineRepo) GetByMacID(ctx context.Context, macID string) (*machine.Machine, error) {
	return m.getByMacIDFn(ctx, macID)
}

func (m *mockMachineRepo) GetWithSecret(ctx context.Context, macID string) (*machine.Machine, error) {
	return m.getWithSecretFn(ctx, macID)
}

func (m *mockMachineRepo) HasReference(ctx context.Context, userID, machineID uuid.UUID) (bool, error) {
	return m.hasReferenceFn(ctx, userID, machineID)
}

func (m *mockMachineRepo) ListBoundTo(ctx context.Context, userID uuid.UUID) ([]machine.Machine, error) {
	return m.listBoundToFn(ctx, userID)
}

func (m *mockMachineRepo) AddReference(_ context.Context, _, machineID uuid.UUID) error {
	m.addedRefs = append(m.addedRefs, machineID)
	return nil
}

func (m *mockMachineRepo) RemoveReference(_ context.Context, _, machineID uuid.UUID) error {
	m.removedRefs = append(m.removedRefs, machineID)
	return nil
}

func (m *mockMachineRepo) SetOwner(_ context.Context, machineID, _ uuid.UUID) error {
	m.ownerSets = append(m.ownerSets, machineID)
	return nil
}

func (m *mockMachineRepo) ClearOwnerIf(_ context.Context, machineID, _ uuid.UUID) error {
	m.ownerClears = append(m.ownerClears, machineID)
	return nil
}

func (m *mockMachineRepo) CountAll(ctx context.Context) (int, error) {
	if m.countAllFn != nil {
		return m.countAllFn(ctx)
	}
	return 0, nil
}

type mockLogRepo struct {
	machinelog.Repository

	appendFn        func(ctx context.Context, l *machinelog.Log) error
	getByIDFn       func(ctx context.Context, id uuid.UUID) (*machinelog.Log, error)
	listByMacIDFn   func(ctx context.Context, macID string) ([]machinelog.Log, error)
	setResolvedFn   func(ctx context.Context, id uuid.UUID, resolved bool) (*machinelog.Log, error)
	deleteByMacIDFn func(ctx context.Context, macID string) (int64, error)
	countAllFn      func(ctx context.Context) (int, error)
}

func (m *mockLogRepo) Append(ctx context.Context, l *machinelog.Log) error {
	return m.appendFn(ctx, l)
}

func (m *mockLogRepo) GetByID(ctx context.Context, id uuid.UUID) (*machinelog.Log, error) {
	return m.getByIDFn(ctx, id)
}

func (m *mockLogRepo) ListByMacID(ctx context.Context, macID string) ([]machinelog.Log, error) {
	return m.listByMacIDFn(ctx, macID)
}

func (m *mockLogRepo) SetResolved(ctx context.Context, id uuid.UUID, resolved bool) (*machinelog.Log, error) {
	return m.setResolvedFn(ctx, id, resolved)
}

func (m *mockLogRepo) DeleteByMacID(ctx context.Context, macID string) (int64, error) {
	return m.deleteByMacIDFn(ctx, macID)
}

func (m *mockLogRepo) CountAll(ctx context.Context) (int, error) {
	if m.countAllFn != nil {
		return m.countAllFn(ctx)
	}
	return 0, nil
}

type mockStatsRepo struct {
	report.Repository

	statsByMonthFn        func(ctx context.Context, macID string) ([]report.MonthlyStat, error)
	statsByHourFn         func(ctx context.Context, macID string) ([]report.HourlyStat, error)
	statsAcrossMachinesFn func(ctx context.Context, machineIDs []uuid.UUID) ([]report.MachineStat, error)
}

func (m *mockStatsRepo) StatsByMonth(ctx context.Context, macID string) ([]report.MonthlyStat, error) {
	return m.statsByMonthFn(ctx, macID)
}

func (m *mockStatsRepo) StatsByHour(ctx context.Context, macID string) ([]report.HourlyStat, error) {
	return m.statsByHourFn(ctx, macID)
}

func (m *mockStatsRepo) StatsAcrossMachines(ctx context.Context, machineIDs []uuid.UUID) ([]report.MachineStat, error) {
	return m.statsAcrossMachinesFn(ctx, machineIDs)
}

// --- Request helpers ---

func userSession() session.Session {
	return session.Session{Kind: session.KindUser, ID: uuid.New(), Email: "co@example.com"}
}

func adminSession() session.Session {
	return session.Session{Kind: session.KindAdmin, ID: uuid.New(), Email: "root@example.com"}
}

// newRequest builds a request carrying the given session and chi URL
// params, the way the router middleware would have prepared it.
func newRequest(t *testing.T, method, target string, body string, sess session.Session, params map[string]string) *http.Request {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, target, reader)

	ctx := middleware.WithSession(r.Context(), sess)
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return r.WithContext(ctx)
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) (json.RawMessage, *response.Error) {
	t.Helper()

	var env struct {
		Data  json.RawMessage `json:"data"`
		Error *response.Error `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env.Data, env.Error
}
