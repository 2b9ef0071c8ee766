package handler

import (
	"churchhealth/internal/model"
	"churchhealth/internal/service"
	"churchhealth/internal/survey"
	"encoding/json"
	"net/http"
)

// QuestionHandler handles the admin-editable question bank
type QuestionHandler struct {
	questions *service.QuestionService
}

// NewQuestionHandler creates a new question handler
func NewQuestionHandler(questions *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questions: questions}
}

// Get handles GET /v1/questions
func (h *QuestionHandler) Get(w http.ResponseWriter, r *http.Request) {
	q, err := h.questions.Get(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// Replace handles PUT /v1/questions
func (h *QuestionHandler) Replace(w http.ResponseWriter, r *http.Request) {
	var q model.QuestionsData
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.questions.Replace(r.Context(), &q); err != nil {
		writeServiceError(w, err)
		return
	}

	fresh, err := h.questions.Get(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fresh)
}

// Edit handles POST /v1/questions/edit
func (h *QuestionHandler) Edit(w http.ResponseWriter, r *http.Request) {
	var req survey.EditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	q, err := h.questions.Edit(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}
