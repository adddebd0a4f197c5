package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vendhub/vendhub/internal/api/middleware"
	"github.com/vendhub/vendhub/internal/api/response"
	"github.com/vendhub/vendhub/internal/api/validation"
	"github.com/vendhub/vendhub/internal/authz"
	"github.com/vendhub/vendhub/internal/machine"
	"github.com/vendhub/vendhub/internal/machinelog"
	"github.com/vendhub/vendhub/internal/session"
)

type machineResponse struct {
	ID        string          `json:"id"`
	MacID     string          `json:"macId"`
	State     string          `json:"state"`
	ProdState string          `json:"prodState"`
	Products  json.RawMessage `json:"products"`
	Name      string          `json:"name"`
	OwnerName *string         `json:"ownerName,omitempty"`
	IsOwner   bool            `json:"isOwner"`
	CreatedAt string          `json:"createdAt"`
}

// toMachineResponse converts a machine to its API representation. The
// secret code never appears here.
func toMachineResponse(m *machine.Machine, isOwner bool) machineResponse {
	return machineResponse{
		ID:        m.ID.String(),
		MacID:     m.MacID,
		State:     m.State,
		ProdState: m.ProdState,
		Products:  m.Products,
		Name:      m.Name,
		OwnerName: m.OwnerName,
		IsOwner:   isOwner,
		CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type logResponse struct {
	ID          string          `json:"id"`
	MacID       string          `json:"macId"`
	OpType      string          `json:"opType"`
	Priority    string          `json:"priority"`
	Resolved    bool            `json:"resolved"`
	Description string          `json:"description"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   string          `json:"createdAt"`
}

func toLogResponse(l *machinelog.Log) logResponse {
	return logResponse{
		ID:          l.ID.String(),
		MacID:       l.MacID,
		OpType:      l.OpType,
		Priority:    l.Priority,
		Resolved:    l.Resolved,
		Description: l.Description,
		Payload:     l.Payload,
		CreatedAt:   l.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toLogResponses(logs []machinelog.Log) []logResponse {
	out := make([]logResponse, 0, len(logs))
	for i := range logs {
		out = append(out, toLogResponse(&logs[i]))
	}
	return out
}

type bindRequest struct {
	MacID string `json:"macId"`
	Code  string `json:"code"`
}

type unbindRequest struct {
	MacID string `json:"macId"`
}

// MachineHandler handles the user-facing machine endpoints.
type MachineHandler struct {
	machines machine.Repository
	logs     machinelog.Repository
	binding  *machine.BindingService
}

// NewMachineHandler creates a new MachineHandler.
func NewMachineHandler(machines machine.Repository, logs machinelog.Repository, binding *machine.BindingService) *MachineHandler {
	return &MachineHandler{machines: machines, logs: logs, binding: binding}
}

// List handles GET /machines: the session user's bound machines.
func (h *MachineHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	sess := middleware.GetSession(r.Context())

	machines, err := h.machines.ListBoundTo(r.Context(), sess.ID)
	if err != nil {
		writeDomainErr(w, err, requestID)
		return
	}

	out := make([]machineResponse, 0, len(machines))
	for i := range machines {
		m := &machines[i]
		isOwner := m.OwnerID != nil && *m.OwnerID == sess.ID
		out = append(out, toMachineResponse(m, isOwner))
	}

	response.Success(w, http.StatusOK, out, requestID)
}

// Bind handles POST /machines/bind.
func (h *MachineHandler) Bind(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req bindRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, response.CodeInvalidJSON, "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateBindRequest(validation.BindRequest{MacID: req.MacID, Code: req.Code})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, response.CodeValidationError, "Input validation failed", fieldErrors, requestID)
		return
	}

	sess := middleware.GetSession(r.Context())
	if err := h.binding.Bind(r.Context(), sess, req.MacID, req.Code); err != nil {
		writeDomainErr(w, err, requestID)
		return
	}

	response.Success(w, http.StatusOK, map[string]bool{"bound": true}, requestID)
}

// Unbind handles POST /machines/unbind. Unbinding a machine the user never
// bound succeeds as a no-op.
func (h *MachineHandler) Unbind(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req unbindRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, response.CodeInvalidJSON, "Request body must be valid JSON", requestID)
		return
	}

	sess := middleware.GetSession(r.Context())
	if err := h.binding.Unbind(r.Context(), sess, req.MacID); err != nil {
		writeDomainErr(w, err, requestID)
		return
	}

	response.Success(w, http.StatusOK, map[string]bool{"unbound": true}, requestID)
}

// DeleteHistory handles DELETE /machines/{macID}/history.
func (h *MachineHandler) DeleteHistory(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	sess := middleware.GetSession(r.Context())

	if err := h.binding.DeleteHistory(r.Context(), sess, chi.URLParam(r, "macID")); err != nil {
		writeDomainErr(w, err, requestID)
		return
	}

	response.NoContent(w)
}

// Logs handles GET /machines/{macID}/logs.
func (h *MachineHandler) Logs(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	sess := middleware.GetSession(r.Context())

	m, err := h.guardBound(r, sess)
	if err != nil {
		writeDomainErr(w, err, requestID)
		return
	}

	logs, err := h.logs.ListByMacID(r.Context(), m.MacID)
	if err != nil {
		writeDomainErr(w, err, requestID)
		return
	}

	response.Success(w, http.StatusOK, toLogResponses(logs), requestID)
}

// Warnings handles GET /machines/{macID}/warnings.
func (h *MachineHandler) Warnings(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	sess := middleware.GetSession(r.Context())

	m, err := h.guardBound(r, sess)
	if err != nil {
		writeDomainErr(w, err, requestID)
		return
	}

	logs, err := h.logs.ListWarnings(r.Context(), m.MacID)
	if err != nil {
		writeDomainErr(w, err, requestID)
		return
	}

	response.Success(w, http.StatusOK, toLogResponses(logs), requestID)
}

// Resolve handles POST /machines/logs/{id}/resolve and .../unresolve.
func (h *MachineHandler) Resolve(resolved bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetRequestID(r.Context())
		sess := middleware.GetSession(r.Context())

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			response.Err(w, http.StatusBadRequest, response.CodeValidationError, "id must be a valid UUID", requestID)
			return
		}

		l, err := h.logs.GetByID(r.Context(), id)
		if err != nil {
			writeDomainErr(w, err, requestID)
			return
		}

		if err := h.guardLogAccess(r, sess, l); err != nil {
			writeDomainErr(w, err, requestID)
			return
		}

		updated, err := h.logs.SetResolved(r.Context(), id, resolved)
		if err != nil {
			writeDomainErr(w, err, requestID)
			return
		}

		response.Success(w, http.StatusOK, toLogResponse(updated), requestID)
	}
}

// guardBound fetches the machine in the URL and checks the session user has
// it in their reference set. Admin sessions pass unconditionally. The fetch
// runs first so a missing machine reports not-found, not access-denied.
func (h *MachineHandler) guardBound(r *http.Request, sess session.Session) (*machine.Machine, error) {
	m, err := h.machines.GetByMacID(r.Context(), chi.URLParam(r, "macID"))
	if err != nil {
		return nil, err
	}

	if sess.Kind == session.KindAdmin {
		return m, nil
	}

	bound, err := h.machines.HasReference(r.Context(), sess.ID, m.ID)
	if err != nil {
		return nil, err
	}
	if !bound {
		return nil, authz.ErrAccessDenied
	}
	return m, nil
}

// guardLogAccess checks the session may touch the given log: admins always,
// users only when the log's machine is in their reference set. Logs whose
// machine row is gone are admin-only.
func (h *MachineHandler) guardLogAccess(r *http.Request, sess session.Session, l *machinelog.Log) error {
	if sess.Kind == session.KindAdmin {
		return nil
	}
	if l.MachineID == nil {
		return authz.ErrAccessDenied
	}

	bound, err := h.machines.HasReference(r.Context(), sess.ID, *l.MachineID)
	if err != nil {
		return err
	}
	if !bound {
		return authz.ErrAccessDenied
	}
	return nil
}
