package handler

import (
	"context"
	"net/http"

	"github.com/vendhub/vendhub/internal/api/middleware"
	"github.com/vendhub/vendhub/internal/api/response"
)

// DBPinger reports whether the backing store is reachable.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles the GET /health endpoint.
type HealthHandler struct {
	db      DBPinger
	version string
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db DBPinger, version string) *HealthHandler {
	return &HealthHandler{db: db, version: version}
}

type healthData struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Database bool   `json:"database"`
}

// ServeHTTP handles the health check request.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	data := healthData{Status: "healthy", Version: h.version, Database: true}
	if err := h.db.Ping(r.Context()); err != nil {
		data.Status = "degraded"
		data.Database = false
	}

	response.Success(w, http.StatusOK, data, requestID)
}
