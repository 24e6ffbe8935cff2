package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"tech-quiz-service/internal/app"
	"tech-quiz-service/internal/domain"
)

const (
	intakePath = "/"
	resultPath = "/result"
)

// APIHandler serves the intake, result and restart endpoints around the live quiz.
type APIHandler struct {
	service *app.QuizService
}

func NewAPIHandler(service *app.QuizService) *APIHandler {
	return &APIHandler{service: service}
}

// Register mounts the API routes on mux.
func (h *APIHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/technologies", h.Technologies)
	mux.HandleFunc("/api/intake", h.Intake)
	mux.HandleFunc("/api/result", h.Result)
	mux.HandleFunc("/api/restart", h.Restart)
}

type intakeRequest struct {
	AttemptID  string `json:"attemptId"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Technology string `json:"technology"`
}

type intakeResponse struct {
	AttemptID string `json:"attemptId"`
}

type technologiesResponse struct {
	Technologies []string `json:"technologies"`
}

type apiError struct {
	Error    string `json:"error"`
	Detail   string `json:"detail,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

func (h *APIHandler) Technologies(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	techs, err := h.service.Technologies(r.Context())
	if err != nil {
		log.Printf("load technologies: %v", err)
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "catalog unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, technologiesResponse{Technologies: techs})
}

func (h *APIHandler) Intake(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req intakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid intake payload"})
		return
	}

	attemptID, err := h.service.Intake(r.Context(), req.AttemptID, domain.UserProfile{
		Name:       req.Name,
		Email:      req.Email,
		Technology: req.Technology,
	})
	if errors.Is(err, domain.ErrInvalidIntake) {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "Please fill all fields!", Detail: err.Error()})
		return
	}
	if err != nil {
		log.Printf("intake: %v", err)
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "could not start quiz"})
		return
	}
	writeJSON(w, http.StatusCreated, intakeResponse{AttemptID: attemptID})
}

// Result returns the stored result, or the review with ?review=true.
func (h *APIHandler) Result(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	attemptID := r.URL.Query().Get("attemptId")
	if attemptID == "" {
		writeJSON(w, http.StatusNotFound, apiError{Error: domain.ErrMissingResult.Error(), Redirect: intakePath})
		return
	}

	var (
		body any
		err  error
	)
	if r.URL.Query().Get("review") == "true" {
		body, err = h.service.Review(r.Context(), attemptID)
	} else {
		body, err = h.service.Result(r.Context(), attemptID)
	}
	if errors.Is(err, domain.ErrMissingResult) {
		writeJSON(w, http.StatusNotFound, apiError{Error: err.Error(), Redirect: intakePath})
		return
	}
	if err != nil {
		log.Printf("result %s: %v", attemptID, err)
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "could not load result"})
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *APIHandler) Restart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	attemptID := r.URL.Query().Get("attemptId")
	if attemptID != "" {
		if err := h.service.Restart(r.Context(), attemptID); err != nil {
			log.Printf("restart %s: %v", attemptID, err)
			writeJSON(w, http.StatusInternalServerError, apiError{Error: "could not restart"})
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	writeJSON(w, http.StatusMethodNotAllowed, apiError{Error: "method not allowed"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("write response: %v", err)
	}
}
