package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vendhub/vendhub/internal/account"
	"github.com/vendhub/vendhub/internal/admin"
	"github.com/vendhub/vendhub/internal/api/middleware"
	"github.com/vendhub/vendhub/internal/api/response"
	"github.com/vendhub/vendhub/internal/api/validation"
	"github.com/vendhub/vendhub/internal/machine"
	"github.com/vendhub/vendhub/internal/machinelog"
)

type createAdminRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Position string `json:"position"`
}

type adminResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Position string `json:"position"`
}

type createMachineRequest struct {
	MacID    string          `json:"macId"`
	Code     string          `json:"code"`
	State    string          `json:"state"`
	Products json.RawMessage `json:"products"`
	Name     string          `json:"name"`
}

// AdminHandler handles administrator login and oversight endpoints.
type AdminHandler struct {
	accounts  *account.Service
	admins    account.AdminRepository
	users     account.UserRepository
	machines  machine.Repository
	logs      machinelog.Repository
	oversight *admin.Service
	cookie    CookieConfig
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	accounts *account.Service,
	admins account.AdminRepository,
	users account.UserRepository,
	machines machine.Repository,
	logs machinelog.Repository,
	oversight *admin.Service,
	cookie CookieConfig,
) *AdminHandler {
	return &AdminHandler{
		accounts:  accounts,
		admins:    admins,
		users:     users,
		machines:  machines,
		logs:      logs,
		oversight: oversight,
		cookie:    cookie,
	}
}

// Login handles POST /admin/login.
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, response.CodeInvalidJSON, "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateLoginRequest(validation.LoginRequest{Email: req.Email, Password: req.Password})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, response.CodeValidationError, "Input validation failed", fieldErrors, requestID)
		return
	}

	current := middleware.GetSession(r.Context())
	token, established, err := h.accounts.LoginAdmin(r.Context(), current, req.Email, req.Password)
	if err != nil {
		writeDomainErr(w, err, requestID)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cookie.TTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	response.Success(w, http.StatusOK, toSessionResponse(established), requestID)
}

// Create handles POST /admin/create.
func (h *AdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req createAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, response.CodeInvalidJSON, "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateLoginRequest(validation.LoginRequest{Email: req.Email, Password: req.Password})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, response.CodeValidationError, "Input validation failed", fieldErrors, requestID)
		return
	}

	position := req.Position
	if position == "" {
		position = "default"
	}

	a, err := h.accounts.CreateAdmin(r.Context(), req.Email, req.Password, position)
	if err != nil {
		writeDomainErr(w, err, requestID)
		return
	}

	response.Success(w, http.StatusCreated, adminResponse{
		ID:       a.ID.String(),
		Email:    a.Email,
		Position: a.Position,
	}, requestID)
}

// Me handles GET /admin/me.
func (h *AdminHandler) Me(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	sess := middleware.GetSession(r.Context())

	a, err := h.admins.GetByID(r.Context(), sess.ID)
	if err != nil {
		writeDomainErr(w, err, requestID)
		return
	}

	response.Success(w, http.StatusOK, adminResponse{
		ID:       a.ID.String(),
		Email:    a.Email,
		Position: a.Position,
	}, requestID)
}

// Statistic handles GET /admin/statistic.
func (h *AdminHandler) Statistic(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	stat, err := h.oversight.GetStatistic(r.Context())
	if err != nil {
		writeDomainErr(w, err, requestID)
		return
	}

	response.Success(w, http.StatusOK, stat, requestID)
}

// GetUser handles GET /admin/users?email=.
func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	email := r.URL.Query().Get("email")
	if email == "" {
		response.Err(w, http.StatusBadRequest, response.CodeValidationError, "email query parameter is required", requestID)
		return
	}

	u, err := h.users.GetByEmail(r.Context(), email)
	if err != nil {
		writeDomainErr(w, err, requestID)
		return
	}

	response.Success(w, http.StatusOK, toUserResponse(u), requestID)
}

// DeleteUser handles DELETE /admin/users?email=.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	email := r.URL.Query().Get("email")
	if email == "" {
		response.Err(w, http.StatusBadRequest, response.CodeValidationError, "email query parameter is required", requestID)
		return
	}

	if err := h.oversight.DeleteUser(r.Context(), email); err != nil {
		writeDomainErr(w, err, requestID)
		return
	}

	response.NoContent(w)
}

// CreateMachine handles POST /admin/machines.
func (h *AdminHandler) CreateMachine(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req createMachineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, response.CodeInvalidJSON, "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateCreateMachineRequest(validation.CreateMachineRequest{
		MacID: req.MacID,
		Code:  req.Code,
		Name:  req.Name,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, response.CodeValidationError, "Input validation failed", fieldErrors, requestID)
		return
	}

	state := req.State
	if state == "" {
		state = "offline"
	}

	m := &machine.Machine{
		MacID:      req.MacID,
		SecretCode: req.Code,
		State:      state,
		ProdState:  "idle",
		Products:   req.Products,
		Name:       req.Name,
	}
	if err := h.machines.Create(r.Context(), m); err != nil {
		writeDomainErr(w, err, requestID)
		return
	}

	response.Success(w, http.StatusCreated, toMachineResponse(m, false), requestID)
}

// GetMachine handles GET /admin/machines/{macID}.
func (h *AdminHandler) GetMachine(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	m, err := h.machines.GetByMacID(r.Context(), chi.URLParam(r, "macID"))
	if err != nil {
		writeDomainErr(w, err, requestID)
		return
	}

	response.Success(w, http.StatusOK, toMachineResponse(m, false), requestID)
}

type updateMachineRequest struct {
	State     *string         `json:"state,omitempty"`
	ProdState *string         `json:"prodState,omitempty"`
	Products  json.RawMessage `json:"products,omitempty"`
	Name      *string         `json:"name,omitempty"`
}

// UpdateMachine handles PATCH /admin/machines/{macID}.
func (h *AdminHandler) UpdateMachine(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req updateMachineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, response.CodeInvalidJSON, "Request body must be valid JSON", requestID)
		return
	}

	m, err := h.machines.Update(r.Context(), chi.URLParam(r, "macID"), machine.UpdateFields{
		State:     req.State,
		ProdState: req.ProdState,
		Products:  req.Products,
		Name:      req.Name,
	})
	if err != nil {
		writeDomainErr(w, err, requestID)
		return
	}

	response.Success(w, http.StatusOK, toMachineResponse(m, false), requestID)
}

// DeleteMachine handles DELETE /admin/machines/{macID}. Logs are deleted
// before the machine row.
func (h *AdminHandler) DeleteMachine(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	if err := h.oversight.DeleteMachine(r.Context(), chi.URLParam(r, "macID")); err != nil {
		writeDomainErr(w, err, requestID)
		return
	}

	response.NoContent(w)
}

// GetMachineLogs handles GET /admin/machines/{macID}/logs.
func (h *AdminHandler) GetMachineLogs(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	logs, err := h.logs.ListByMacID(r.Context(), chi.URLParam(r, "macID"))
	if err != nil {
		writeDomainErr(w, err, requestID)
		return
	}

	response.Success(w, http.StatusOK, toLogResponses(logs), requestID)
}

type companyResponse struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	CreatedAt    string `json:"createdAt"`
	MachineCount *int   `json:"machineCount,omitempty"`
}

type companyListResponse struct {
	Count     int               `json:"count"`
	Companies []companyResponse `json:"companies"`
}

// ListCompanies handles GET /admin/companies.
func (h *AdminHandler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	count, err := h.users.CompanyCount(r.Context())
	if err != nil {
		writeDomainErr(w, err, requestID)
		return
	}

	companies, err := h.users.ListCompanies(r.Context())
	if err != nil {
		writeDomainErr(w, err, requestID)
		return
	}

	out := make([]companyResponse, 0, len(companies))
	for _, c := range companies {
		out = append(out, companyResponse{
			ID:          c.ID.String(),
			Email:       c.Email,
			Name:        c.Name,
			Description: c.Description,
			CreatedAt:   c.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	response.Success(w, http.StatusOK, companyListResponse{Count: count, Companies: out}, requestID)
}

// CompanyInfo handles GET /admin/companies/info?email=.
func (h *AdminHandler) CompanyInfo(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	email := r.URL.Query().Get("email")
	if email == "" {
		response.Err(w, http.StatusBadRequest, response.CodeValidationError, "email query parameter is required", requestID)
		return
	}

	info, err := h.users.CompanyInfo(r.Context(), email)
	if err != nil {
		writeDomainErr(w, err, requestID)
		return
	}

	response.Success(w, http.StatusOK, companyResponse{
		ID:           info.ID.String(),
		Email:        info.Email,
		Name:         info.Name,
		Description:  info.Description,
		CreatedAt:    info.CreatedAt.UTC().Format(time.RFC3339),
		MachineCount: &info.MachineCount,
	}, requestID)
}
