package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendhub/vendhub/internal/api/response"
	"github.com/vendhub/vendhub/internal/machine"
	"github.com/vendhub/vendhub/internal/machinelog"
	"github.com/vendhub/vendhub/internal/session"
)

func TestAppendLog_RecordsEvent(t *testing.T) {
	t.Parallel()

	m := testMachine("VM-0001", "secret-code", nil)
	machines := &mockMachineRepo{
		getWithSecretFn: func(_ context.Context, _ string) (*machine.Machine, error) { return m, nil },
	}

	var appended *machinelog.Log
	logs := &mockLogRepo{
		appendFn: func(_ context.Context, l *machinelog.Log) error {
			appended = l
			return nil
		},
	}
	h := NewIngestHandler(machines, logs)

	body := `{"macId":"VM-0001","code":"secret-code","opType":"sell","payload":{"price":2.5},"dedupKey":"evt-17"}`
	rec := httptest.NewRecorder()
	h.AppendLog(rec, newRequest(t, http.MethodPost, "/ingest/logs", body, session.Anonymous(), nil))

	_, apiErr := decodeEnvelope(t, rec)
	require.Nil(t, apiErr)
	assert.Equal(t, http.StatusCreated, rec.Code)

	require.NotNil(t, appended)
	assert.Equal(t, "VM-0001", appended.MacID)
	require.NotNil(t, appended.MachineID)
	assert.Equal(t, m.ID, *appended.MachineID)
	assert.Equal(t, "info", appended.Priority)
	require.NotNil(t, appended.DedupKey)
	assert.Equal(t, "evt-17", *appended.DedupKey)
}

func TestAppendLog_WrongCodeIsAccessDenied(t *testing.T) {
	t.Parallel()

	m := testMachine("VM-0001", "secret-code", nil)
	machines := &mockMachineRepo{
		getWithSecretFn: func(_ context.Context, _ string) (*machine.Machine, error) { return m, nil },
	}
	h := NewIngestHandler(machines, &mockLogRepo{})

	body := `{"macId":"VM-0001","code":"wrong","opType":"sell"}`
	rec := httptest.NewRecorder()
	h.AppendLog(rec, newRequest(t, http.MethodPost, "/ingest/logs", body, session.Anonymous(), nil))

	_, apiErr := decodeEnvelope(t, rec)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	require.NotNil(t, apiErr)
	assert.Equal(t, response.CodeAccessDenied, apiErr.Code)
}

func TestAppendLog_ReplayedDedupKeyConflicts(t *testing.T) {
	t.Parallel()

	m := testMachine("VM-0001", "secret-code", nil)
	machines := &mockMachineRepo{
		getWithSecretFn: func(_ context.Context, _ string) (*machine.Machine, error) { return m, nil },
	}
	logs := &mockLogRepo{
		appendFn: func(_ context.Context, _ *machinelog.Log) error {
			return machinelog.ErrDuplicateEvent
		},
	}
	h := NewIngestHandler(machines, logs)

	body := `{"macId":"VM-0001","code":"secret-code","opType":"sell","dedupKey":"evt-17"}`
	rec := httptest.NewRecorder()
	h.AppendLog(rec, newRequest(t, http.MethodPost, "/ingest/logs", body, session.Anonymous(), nil))

	_, apiErr := decodeEnvelope(t, rec)
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, apiErr)
	assert.Equal(t, response.CodeOperationDenied, apiErr.Code)
}

func TestAppendLog_MissingOpTypeFailsValidation(t *testing.T) {
	t.Parallel()

	h := NewIngestHandler(&mockMachineRepo{}, &mockLogRepo{})

	body := `{"macId":"VM-0001","code":"secret-code"}`
	rec := httptest.NewRecorder()
	h.AppendLog(rec, newRequest(t, http.MethodPost, "/ingest/logs", body, session.Anonymous(), nil))

	_, apiErr := decodeEnvelope(t, rec)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, apiErr)
	assert.Equal(t, response.CodeValidationError, apiErr.Code)
}
