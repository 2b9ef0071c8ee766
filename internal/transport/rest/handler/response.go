package handler

import (
	"churchhealth/internal/service"
	"churchhealth/internal/survey"
	"encoding/json"
	"errors"
	"log"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps a core error onto its HTTP status
func writeServiceError(w http.ResponseWriter, err error) {
	if ve, ok := survey.AsValidationErrors(err); ok {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":  "validation failed",
			"fields": ve,
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrNoQuestions),
		errors.Is(err, service.ErrAssessmentNotFound),
		errors.Is(err, service.ErrUnknownQuestion),
		errors.Is(err, survey.ErrUnknownSection),
		errors.Is(err, survey.ErrUnknownPoint),
		errors.Is(err, survey.ErrUnknownSubQuestion),
		errors.Is(err, survey.ErrUnknownOption):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrSectionLocked),
		errors.Is(err, service.ErrNotHydrated),
		errors.Is(err, survey.ErrLastSubQuestion):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, survey.ErrUnknownEdit):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("Request failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
