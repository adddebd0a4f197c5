package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/vendhub/vendhub/internal/account"
	"github.com/vendhub/vendhub/internal/api/middleware"
	"github.com/vendhub/vendhub/internal/api/response"
	"github.com/vendhub/vendhub/internal/api/validation"
	"github.com/vendhub/vendhub/internal/session"
)

// CookieConfig describes the session cookie the account handlers set and
// clear.
type CookieConfig struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

type registerRequest struct {
	Email            string `json:"email"`
	Password         string `json:"password"`
	Name             string `json:"name"`
	Role             string `json:"role"`
	SubscriptionTier string `json:"subscriptionTier"`
	Description      string `json:"description"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	Name             string `json:"name"`
	Role             string `json:"role"`
	SubscriptionTier string `json:"subscriptionTier"`
	Description      string `json:"description"`
	CreatedAt        string `json:"createdAt"`
}

type sessionResponse struct {
	Kind  string `json:"kind"`
	ID    string `json:"id"`
	Email string `json:"email"`
}

func toSessionResponse(s session.Session) sessionResponse {
	return sessionResponse{
		Kind:  string(s.Kind),
		ID:    s.ID.String(),
		Email: s.Email,
	}
}

func toUserResponse(u *account.User) userResponse {
	return userResponse{
		ID:               u.ID.String(),
		Email:            u.Email,
		Name:             u.Name,
		Role:             u.Role,
		SubscriptionTier: u.SubscriptionTier,
		Description:      u.Description,
		CreatedAt:        u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// AccountHandler handles registration, login, logout, and profile
// endpoints.
type AccountHandler struct {
	svc    *account.Service
	users  account.UserRepository
	cookie CookieConfig
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(svc *account.Service, users account.UserRepository, cookie CookieConfig) *AccountHandler {
	return &AccountHandler{svc: svc, users: users, cookie: cookie}
}

// Register handles POST /account/register.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, response.CodeInvalidJSON, "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateRegisterRequest(validation.RegisterRequest{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     req.Role,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, response.CodeValidationError, "Input validation failed", fieldErrors, requestID)
		return
	}

	role := req.Role
	if role == "" {
		role = "company"
	}
	tier := req.SubscriptionTier
	if tier == "" {
		tier = "free"
	}

	u, err := h.svc.Register(r.Context(), account.RegisterParams{
		Email:            req.Email,
		Password:         req.Password,
		Name:             req.Name,
		Role:             role,
		SubscriptionTier: tier,
		Description:      req.Description,
	})
	if err != nil {
		writeDomainErr(w, err, requestID)
		return
	}

	response.Success(w, http.StatusCreated, toUserResponse(u), requestID)
}

// Login handles POST /account/login.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
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
	token, established, err := h.svc.Login(r.Context(), current, req.Email, req.Password)
	if err != nil {
		writeDomainErr(w, err, requestID)
		return
	}

	h.setCookie(w, token)
	response.Success(w, http.StatusOK, toSessionResponse(established), requestID)
}

// Logout handles POST /account/logout and POST /admin/logout. Double
// logout reports "already logged out" but the cookie is cleared either
// way.
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	err := h.svc.Logout(middleware.GetToken(r.Context()))
	h.clearCookie(w)
	if err != nil {
		writeDomainErr(w, err, requestID)
		return
	}

	response.Success(w, http.StatusOK, map[string]bool{"loggedOut": true}, requestID)
}

// Me handles GET /account/me.
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	sess := middleware.GetSession(r.Context())

	u, err := h.users.GetByID(r.Context(), sess.ID)
	if err != nil {
		writeDomainErr(w, err, requestID)
		return
	}

	response.Success(w, http.StatusOK, toUserResponse(u), requestID)
}

type updateProfileRequest struct {
	Name             *string `json:"name,omitempty"`
	SubscriptionTier *string `json:"subscriptionTier,omitempty"`
	Description      *string `json:"description,omitempty"`
}

// UpdateProfile handles PATCH /account/me.
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	sess := middleware.GetSession(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, response.CodeInvalidJSON, "Request body must be valid JSON", requestID)
		return
	}

	u, err := h.users.Update(r.Context(), sess.ID, account.UpdateFields{
		Name:             req.Name,
		SubscriptionTier: req.SubscriptionTier,
		Description:      req.Description,
	})
	if err != nil {
		writeDomainErr(w, err, requestID)
		return
	}

	response.Success(w, http.StatusOK, toUserResponse(u), requestID)
}

func (h *AccountHandler) setCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cookie.TTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AccountHandler) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
