package handler

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/vendhub/vendhub/internal/api/middleware"
	"github.com/vendhub/vendhub/internal/api/response"
	"github.com/vendhub/vendhub/internal/api/validation"
	"github.com/vendhub/vendhub/internal/machine"
	"github.com/vendhub/vendhub/internal/machinelog"
)

type appendLogRequest struct {
	MacID       string          `json:"macId"`
	Code        string          `json:"code"`
	OpType      string          `json:"opType"`
	Priority    string          `json:"priority"`
	Description string          `json:"description"`
	Payload     json.RawMessage `json:"payload"`
	DedupKey    string          `json:"dedupKey"`
}

// IngestHandler handles machine-reported events. Machines authenticate
// with their mac_id and shared-secret code, not a session.
type IngestHandler struct {
	machines machine.Repository
	logs     machinelog.Repository
}

// NewIngestHandler creates a new IngestHandler.
func NewIngestHandler(machines machine.Repository, logs machinelog.Repository) *IngestHandler {
	return &IngestHandler{machines: machines, logs: logs}
}

// AppendLog handles POST /ingest/logs. A dedup key makes retried appends
// safe: the second write is rejected instead of duplicated.
func (h *IngestHandler) AppendLog(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req appendLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, response.CodeInvalidJSON, "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateAppendLogRequest(validation.AppendLogRequest{
		MacID:  req.MacID,
		Code:   req.Code,
		OpType: req.OpType,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, response.CodeValidationError, "Input validation failed", fieldErrors, requestID)
		return
	}

	m, err := h.machines.GetWithSecret(r.Context(), req.MacID)
	if err != nil {
		writeDomainErr(w, err, requestID)
		return
	}
	if subtle.ConstantTimeCompare([]byte(m.SecretCode), []byte(req.Code)) != 1 {
		response.Err(w, http.StatusForbidden, response.CodeAccessDenied, "Access denied", requestID)
		return
	}

	priority := req.Priority
	if priority == "" {
		priority = "info"
	}

	l := &machinelog.Log{
		MacID:       m.MacID,
		MachineID:   &m.ID,
		OpType:      req.OpType,
		Priority:    priority,
		Description: req.Description,
		Payload:     req.Payload,
	}
	if req.DedupKey != "" {
		l.DedupKey = &req.DedupKey
	}

	if err := h.logs.Append(r.Context(), l); err != nil {
		writeDomainErr(w, err, requestID)
		return
	}

	response.Success(w, http.StatusCreated, toLogResponse(l), requestID)
}
