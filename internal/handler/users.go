package handler

import (
	"net/http"

	"iptrack/internal/auth"
	"iptrack/internal/domain"
	"iptrack/internal/middleware"
	"iptrack/pkg/logger"
	"iptrack/pkg/validator"
)

// UserHandler handles signup, login and profile endpoints.
type UserHandler struct {
	service   *auth.Service
	validator *validator.Validator
	logger    logger.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service *auth.Service, val *validator.Validator, log logger.Logger) *UserHandler {
	return &UserHandler{
		service:   service,
		validator: val,
		logger:    log,
	}
}

type userResponse struct {
	User *domain.User `json:"user"`
}

// SignUp handles POST /api/users/signup.
func (h *UserHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req auth.SignUpRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}
	if msg := h.validator.FirstMessage(&req); msg != "" {
		respondError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	response, err := h.service.SignUp(r.Context(), &req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, response)
}

// Login handles POST /api/users/login.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}
	if msg := h.validator.FirstMessage(&req); msg != "" {
		respondError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	response, err := h.service.Login(r.Context(), &req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, response)
}

// GetUser handles GET /api/users/{id}.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		notFound(w, r)
		return
	}

	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, userResponse{User: user})
}

// UpdateUser handles PATCH /api/users/{id}.
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	subject, ok := middleware.SubjectFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusForbidden, "Authentication failed!")
		return
	}
	id, ok := pathID(r)
	if !ok {
		notFound(w, r)
		return
	}

	var req auth.UpdateUserRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}
	if msg := h.validator.FirstMessage(&req); msg != "" {
		respondError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	user, err := h.service.UpdateUser(r.Context(), subject, id, &req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, userResponse{User: user})
}
