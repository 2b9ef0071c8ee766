package handler

import (
	"churchhealth/internal/model"
	"churchhealth/internal/service"
	"churchhealth/internal/transport/rest/middleware"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

// AssessmentHandler handles a respondent's live assessment
type AssessmentHandler struct {
	sessions    *service.SessionService
	identitySvc *service.IdentityService
}

// NewAssessmentHandler creates a new assessment handler
func NewAssessmentHandler(sessions *service.SessionService, identitySvc *service.IdentityService) *AssessmentHandler {
	return &AssessmentHandler{
		sessions:    sessions,
		identitySvc: identitySvc,
	}
}

// AnswerRequest is the request body for answering a sub-question
type AnswerRequest struct {
	Score int `json:"score"`
}

// ReflectionRequest is the request body for a reflection note
type ReflectionRequest struct {
	Text string `json:"text"`
}

// Start handles POST /v1/assessment/start
func (h *AssessmentHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req model.StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	clientID := strings.TrimSpace(req.ClientID)
	if clientID == "" {
		clientID = h.identitySvc.NewClientID()
	}
	id := model.Identity{ClientID: clientID, User: req.UserInfo}

	view, err := h.sessions.Start(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	token, err := h.identitySvc.IssueToken(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	writeJSON(w, http.StatusOK, model.StartResponse{
		Token:    token,
		ClientID: clientID,
		View:     view,
	})
}

// Get handles GET /v1/assessment
func (h *AssessmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(w, r)
	if !ok {
		return
	}
	h.respond(w, func() (*model.SessionView, error) {
		return h.sessions.View(r.Context(), id)
	})
}

// Answer handles PUT /v1/assessment/answers/{id}
func (h *AssessmentHandler) Answer(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(w, r)
	if !ok {
		return
	}

	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	subID := mux.Vars(r)["id"]
	h.respond(w, func() (*model.SessionView, error) {
		return h.sessions.Answer(r.Context(), id, subID, req.Score)
	})
}

// Reflect handles PUT /v1/assessment/reflections/{id}
func (h *AssessmentHandler) Reflect(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(w, r)
	if !ok {
		return
	}

	var req ReflectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	subID := mux.Vars(r)["id"]
	h.respond(w, func() (*model.SessionView, error) {
		return h.sessions.Reflect(r.Context(), id, subID, req.Text)
	})
}

// Next handles POST /v1/assessment/next
func (h *AssessmentHandler) Next(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(w, r)
	if !ok {
		return
	}
	h.respond(w, func() (*model.SessionView, error) {
		return h.sessions.Next(r.Context(), id)
	})
}

// Prev handles POST /v1/assessment/prev
func (h *AssessmentHandler) Prev(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(w, r)
	if !ok {
		return
	}
	h.respond(w, func() (*model.SessionView, error) {
		return h.sessions.Prev(r.Context(), id)
	})
}

// JumpQuestion handles POST /v1/assessment/jump/question/{id}
func (h *AssessmentHandler) JumpQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(w, r)
	if !ok {
		return
	}
	subID := mux.Vars(r)["id"]
	h.respond(w, func() (*model.SessionView, error) {
		return h.sessions.JumpToQuestion(r.Context(), id, subID)
	})
}

// JumpSection handles POST /v1/assessment/jump/section/{section}
func (h *AssessmentHandler) JumpSection(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(w, r)
	if !ok {
		return
	}
	section := model.SectionID(mux.Vars(r)["section"])
	h.respond(w, func() (*model.SessionView, error) {
		return h.sessions.JumpToSection(r.Context(), id, section)
	})
}

// Review handles GET /v1/assessment/review
func (h *AssessmentHandler) Review(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(w, r)
	if !ok {
		return
	}

	items, err := h.sessions.Review(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

// Submit handles POST /v1/assessment/submit
func (h *AssessmentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(w, r)
	if !ok {
		return
	}

	resp, err := h.sessions.Submit(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// End handles DELETE /v1/assessment
func (h *AssessmentHandler) End(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(w, r)
	if !ok {
		return
	}

	h.sessions.End(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AssessmentHandler) respond(w http.ResponseWriter, fn func() (*model.SessionView, error)) {
	view, err := fn()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func identityFrom(w http.ResponseWriter, r *http.Request) (model.Identity, bool) {
	id, ok := middleware.GetIdentity(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing identity")
	}
	return id, ok
}
