package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vendhub/vendhub/internal/api/middleware"
	"github.com/vendhub/vendhub/internal/api/response"
	"github.com/vendhub/vendhub/internal/authz"
	"github.com/vendhub/vendhub/internal/machine"
	"github.com/vendhub/vendhub/internal/report"
)

// ReportHandler handles the statistics endpoints. Every per-machine rollup
// follows the fetch-then-authorize protocol: the machine is loaded first,
// then its recorded owner is checked against the session.
type ReportHandler struct {
	machines machine.Repository
	stats    report.Repository
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(machines machine.Repository, stats report.Repository) *ReportHandler {
	return &ReportHandler{machines: machines, stats: stats}
}

// Monthly handles GET /machines/{macID}/stats/monthly.
func (h *ReportHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	m, err := h.guardOwned(r)
	if err != nil {
		writeDomainErr(w, err, requestID)
		return
	}

	stats, err := h.stats.StatsByMonth(r.Context(), m.MacID)
	if err != nil {
		writeDomainErr(w, err, requestID)
		return
	}

	response.Success(w, http.StatusOK, stats, requestID)
}

// Hourly handles GET /machines/{macID}/stats/hourly. The buckets are hours
// of the day, not products.
func (h *ReportHandler) Hourly(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	m, err := h.guardOwned(r)
	if err != nil {
		writeDomainErr(w, err, requestID)
		return
	}

	stats, err := h.stats.StatsByHour(r.Context(), m.MacID)
	if err != nil {
		writeDomainErr(w, err, requestID)
		return
	}

	response.Success(w, http.StatusOK, stats, requestID)
}

// Fleet handles GET /machines/stats: one rollup row per machine in the
// session user's reference set that has sale logs.
func (h *ReportHandler) Fleet(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	sess := middleware.GetSession(r.Context())

	machines, err := h.machines.ListBoundTo(r.Context(), sess.ID)
	if err != nil {
		writeDomainErr(w, err, requestID)
		return
	}

	ids := make([]uuid.UUID, 0, len(machines))
	for _, m := range machines {
		ids = append(ids, m.ID)
	}

	stats, err := h.stats.StatsAcrossMachines(r.Context(), ids)
	if err != nil {
		writeDomainErr(w, err, requestID)
		return
	}

	response.Success(w, http.StatusOK, stats, requestID)
}

func (h *ReportHandler) guardOwned(r *http.Request) (*machine.Machine, error) {
	m, err := h.machines.GetByMacID(r.Context(), chi.URLParam(r, "macID"))
	if err != nil {
		return nil, err
	}
	if err := authz.OwnedResource(middleware.GetSession(r.Context()), m.OwnerID); err != nil {
		return nil, err
	}
	return m, nil
}
