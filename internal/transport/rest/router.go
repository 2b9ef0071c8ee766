package rest

import (
	"churchhealth/internal/service"
	"churchhealth/internal/transport/rest/handler"
	"churchhealth/internal/transport/rest/middleware"
	"churchhealth/internal/transport/ws"
	"net/http"
	"os"

	"github.com/gorilla/mux"
)

// Container holds all dependencies for the router
type Container struct {
	IdentityService   *service.IdentityService
	SessionService    *service.SessionService
	QuestionService   *service.QuestionService
	SubmissionService *service.SubmissionService
	WSHub             *ws.Hub
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	assessmentHandler := handler.NewAssessmentHandler(c.SessionService, c.IdentityService)
	questionHandler := handler.NewQuestionHandler(c.QuestionService)
	submissionHandler := handler.NewSubmissionHandler(c.SubmissionService)
	wsHandler := ws.NewHandler(c.WSHub, c.IdentityService, c.SessionService)

	// Initialize middleware
	identityMW := middleware.NewIdentityMiddleware(c.IdentityService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware)

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/assessment/start", assessmentHandler.Start).Methods("POST", "OPTIONS")
	v1.HandleFunc("/questions", questionHandler.Get).Methods("GET", "OPTIONS")

	// WebSocket route (token in query param)
	v1.HandleFunc("/ws/assessment", wsHandler.AssessmentWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Admin routes
	v1.HandleFunc("/questions", questionHandler.Replace).Methods("PUT", "OPTIONS")
	v1.HandleFunc("/questions/edit", questionHandler.Edit).Methods("POST", "OPTIONS")
	v1.HandleFunc("/assessments", submissionHandler.List).Methods("GET", "OPTIONS")
	v1.HandleFunc("/assessments/{id}", submissionHandler.Get).Methods("GET", "OPTIONS")

	// Respondent routes (require identity token)
	respondent := v1.NewRoute().Subrouter()
	respondent.Use(identityMW.RequireIdentity)

	respondent.HandleFunc("/assessment", assessmentHandler.Get).Methods("GET", "OPTIONS")
	respondent.HandleFunc("/assessment", assessmentHandler.End).Methods("DELETE", "OPTIONS")
	respondent.HandleFunc("/assessment/answers/{id}", assessmentHandler.Answer).Methods("PUT", "OPTIONS")
	respondent.HandleFunc("/assessment/reflections/{id}", assessmentHandler.Reflect).Methods("PUT", "OPTIONS")
	respondent.HandleFunc("/assessment/next", assessmentHandler.Next).Methods("POST", "OPTIONS")
	respondent.HandleFunc("/assessment/prev", assessmentHandler.Prev).Methods("POST", "OPTIONS")
	respondent.HandleFunc("/assessment/jump/question/{id}", assessmentHandler.JumpQuestion).Methods("POST", "OPTIONS")
	respondent.HandleFunc("/assessment/jump/section/{section}", assessmentHandler.JumpSection).Methods("POST", "OPTIONS")
	respondent.HandleFunc("/assessment/review", assessmentHandler.Review).Methods("GET", "OPTIONS")
	respondent.HandleFunc("/assessment/submit", assessmentHandler.Submit).Methods("POST", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		allowedMethods := os.Getenv("CORS_ALLOWED_METHODS")
		if allowedMethods == "" {
			allowedMethods = "GET, POST, PUT, DELETE, OPTIONS"
		}

		allowedHeaders := os.Getenv("CORS_ALLOWED_HEADERS")
		if allowedHeaders == "" {
			allowedHeaders = "Content-Type, Authorization"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
		w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
