package handler

import (
	"net/http"

	"iptrack/internal/domain"
	"iptrack/internal/domains"
	"iptrack/internal/middleware"
	"iptrack/pkg/logger"
	"iptrack/pkg/validator"
)

// DomainHandler serves /api/domains.
type DomainHandler struct {
	service   *domains.Service
	validator *validator.Validator
	logger    logger.Logger
}

func NewDomainHandler(service *domains.Service, val *validator.Validator, log logger.Logger) *DomainHandler {
	return &DomainHandler{service: service, validator: val, logger: log}
}

type domainResponse struct {
	Domain *domain.Domain `json:"domain"`
}

func (h *DomainHandler) Create(w http.ResponseWriter, r *http.Request) {
	subject, ok := middleware.SubjectFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusForbidden, "Authentication failed!")
		return
	}

	var req domains.CreateRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}
	if msg := h.validator.FirstMessage(&req); msg != "" {
		respondError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	d, err := h.service.Create(r.Context(), subject, &req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, domainResponse{Domain: d})
}

func (h *DomainHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		notFound(w, r)
		return
	}

	d, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, domainResponse{Domain: d})
}

func (h *DomainHandler) List(w http.ResponseWriter, r *http.Request) {
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

func (h *DomainHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		notFound(w, r)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "Deleted domain."})
}
