package handler

import (
	"churchhealth/internal/service"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

const defaultListLimit = 50

// SubmissionHandler exposes stored assessments to administrators
type SubmissionHandler struct {
	submissions *service.SubmissionService
}

// NewSubmissionHandler creates a new submission handler
func NewSubmissionHandler(submissions *service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions}
}

// List handles GET /v1/assessments
func (h *SubmissionHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := int64(defaultListLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := h.submissions.List(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"assessments": records,
		"count":       len(records),
	})
}

// Get handles GET /v1/assessments/{id}
func (h *SubmissionHandler) Get(w http.ResponseWriter, r *http.Request) {
	record, err := h.submissions.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}
