package handler

import (
	"errors"
	"fmt"
	"net/http"

	"iptrack/internal/domain"
	"iptrack/internal/middleware"
	"iptrack/internal/visit"
	"iptrack/pkg/logger"
	"iptrack/pkg/validator"
)

// countryHeader is set by Cloudflare to the client's ISO country code.
const countryHeader = "CF-IPCountry"

// VisitHandler serves /api/data.
type VisitHandler struct {
	service   *visit.Service
	validator *validator.Validator
	logger    logger.Logger
}

func NewVisitHandler(service *visit.Service, val *validator.Validator, log logger.Logger) *VisitHandler {
	return &VisitHandler{service: service, validator: val, logger: log}
}

type createdVisitResponse struct {
	DataID int64 `json:"dataId"`
	*domain.Visit
}

type visitResponse struct {
	Data *domain.Visit `json:"data"`
}

// Create handles POST /api/data.
func (h *VisitHandler) Create(w http.ResponseWriter, r *http.Request) {
	subject, ok := middleware.SubjectFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusForbidden, "Authentication failed!")
		return
	}

	var req visit.SubmitRequest
	// Older clients send extra fields; unknown keys are ignored.
	if err := readJSON(w, r, &req, false); err != nil {
		h.reject(w, fmt.Errorf("malformed body: %w", err))
		return
	}
	if msg := h.validator.FirstMessage(&req); msg != "" {
		h.reject(w, errors.New(msg))
		return
	}

	v, err := h.service.Submit(r.Context(), subject, &req, visit.Client{
		UserAgent:   r.UserAgent(),
		CountryCode: countryCode(r),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, createdVisitResponse{DataID: v.ID, Visit: v})
}

func (h *VisitHandler) reject(w http.ResponseWriter, cause error) {
	h.logger.Debug("Visit submission rejected", map[string]interface{}{"reason": cause.Error()})
	writeError(w, h.logger, visit.Invalid(cause))
}

// countryCode returns the edge country header, ignoring Cloudflare's
// placeholders for unknown (XX) and Tor (T1) traffic.
func countryCode(r *http.Request) string {
	code := r.Header.Get(countryHeader)
	switch code {
	case "XX", "T1":
		return ""
	}
	return code
}

// Get handles GET /api/data/{id}.
func (h *VisitHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		notFound(w, r)
		return
	}

	v, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, visitResponse{Data: v})
}

// List handles GET /api/data?page=N.
func (h *VisitHandler) List(w http.ResponseWriter, r *http.Request) {
	page, ok := pageParam(r)
	if !ok {
		respondError(w, http.StatusUnprocessableEntity, "Page must be a positive number.")
		return
	}

	result, err := h.service.List(r.Context(), page)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Delete handles DELETE /api/data/{id}.
func (h *VisitHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		notFound(w, r)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "Deleted data."})
}
