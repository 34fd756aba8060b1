// Package handler provides the HTTP handlers and router for the API.
package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	apperrors "iptrack/pkg/errors"
	"iptrack/pkg/logger"

	json "github.com/goccy/go-json"
	"github.com/gorilla/mux"
)

const (
	msgUnknown      = "An unknown error occurred"
	msgInvalidInput = "Invalid inputs passed, please check your data."
	msgNoRoute      = "Could not find this route."
)

type messageResponse struct {
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, messageResponse{Message: message})
}

// writeError maps err onto its status and client-safe message. Errors
// without a Kind count as internal.
func writeError(w http.ResponseWriter, log logger.Logger, err error) {
	kind := apperrors.KindOf(err)
	if kind == apperrors.KindInternal {
		log.Error("Request failed", map[string]interface{}{"error": err.Error()})
	}
	respondError(w, kind.Status(), apperrors.MessageOf(err, msgUnknown))
}

// readJSON reads a bounded JSON body into dst. strict rejects unknown
// fields.
func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}, strict bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit
	dec := json.NewDecoder(r.Body)
	if strict {
		dec.DisallowUnknownFields()
	}
	return dec.Decode(dst)
}

// decodeJSON is readJSON that answers malformed bodies itself.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, strict bool) bool {
	if err := readJSON(w, r, dst, strict); err != nil {
		if err == io.EOF {
			respondError(w, http.StatusUnprocessableEntity, "Request body is required")
			return false
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "Request body is too large")
			return false
		}
		respondError(w, http.StatusUnprocessableEntity, msgInvalidInput)
		return false
	}
	return true
}

// pathID parses the {id} route variable.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// pageParam reads ?page=N; a missing value means page 1.
func pageParam(r *http.Request) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("page"))
	if raw == "" {
		return 1, true
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, false
	}
	return page, true
}

func notFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusNotFound, msgNoRoute)
}
