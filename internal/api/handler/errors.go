package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/vendhub/vendhub/internal/account"
	"github.com/vendhub/vendhub/internal/api/response"
	"github.com/vendhub/vendhub/internal/authz"
	"github.com/vendhub/vendhub/internal/machine"
	"github.com/vendhub/vendhub/internal/machinelog"
)

// writeDomainErr translates a domain sentinel into its envelope error code.
// Not-found stays distinct from access-denied. Anything unrecognized is a
// store-level failure, surfaced as DATABASE_FAIL.
func writeDomainErr(w http.ResponseWriter, err error, requestID string) {
	switch {
	case errors.Is(err, account.ErrDuplicateEmail):
		response.Err(w, http.StatusConflict, response.CodeDuplicateEmail, "Email is already registered", requestID)
	case errors.Is(err, machine.ErrDuplicateMacID):
		response.Err(w, http.StatusConflict, response.CodeDuplicateMac, "Machine identifier is already registered", requestID)
	case errors.Is(err, account.ErrBadCredentials):
		response.Err(w, http.StatusUnauthorized, response.CodeUserDataWrong, "Email or password is wrong", requestID)
	case errors.Is(err, account.ErrAlreadyLogin):
		response.Err(w, http.StatusConflict, response.CodeAlreadyLogin, "A session is already active", requestID)
	case errors.Is(err, account.ErrAlreadyLoginAsUser):
		response.Err(w, http.StatusConflict, response.CodeAlreadyLoginAsUser, "A user session is already active", requestID)
	case errors.Is(err, account.ErrAlreadyLoginAsAdmin):
		response.Err(w, http.StatusConflict, response.CodeAlreadyLoginAsAdmin, "An admin session is already active", requestID)
	case errors.Is(err, account.ErrAlreadyLogout):
		response.Err(w, http.StatusConflict, response.CodeOperationDenied, "Already logged out", requestID)
	case errors.Is(err, authz.ErrAlreadyLoginAsUser):
		response.Err(w, http.StatusForbidden, response.CodeAlreadyLoginAsUser, "A user session is active", requestID)
	case errors.Is(err, authz.ErrUnauthorized):
		response.Err(w, http.StatusUnauthorized, response.CodeUnauthorized, "No session is active", requestID)
	case errors.Is(err, authz.ErrAccessDenied):
		response.Err(w, http.StatusForbidden, response.CodeAccessDenied, "Access denied", requestID)
	case errors.Is(err, account.ErrNotFound),
		errors.Is(err, machine.ErrNotFound),
		errors.Is(err, machinelog.ErrNotFound):
		response.Err(w, http.StatusNotFound, response.CodeNotFound, "Resource not found", requestID)
	case errors.Is(err, machinelog.ErrDuplicateEvent):
		response.Err(w, http.StatusConflict, response.CodeOperationDenied, "Event already recorded", requestID)
	default:
		slog.Error("store operation failed", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, response.CodeDatabaseFail, "Store operation failed", requestID)
	}
}
