package rest

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Srivastava-Shrestha/AIDeployer/internal/core/domain"
	"github.com/Srivastava-Shrestha/AIDeployer/internal/logger"
)

// serviceName identifies the service in health responses.
const serviceName = "LLM Code Deployment"

// buildRequest is the wire format of an inbound build request.
type buildRequest struct {
	Email         string          `json:"email"`
	Secret        string          `json:"secret"`
	Task          string          `json:"task"`
	Round         int             `json:"round"`
	Nonce         string          `json:"nonce"`
	Brief         string          `json:"brief"`
	Checks        []string        `json:"checks"`
	EvaluationURL string          `json:"evaluation_url"`
	Attachments   []attachmentRef `json:"attachments"`
}

type attachmentRef struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type buildResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// validate checks the request shape before the secret is even looked
// at, mirroring schema validation running ahead of the handler.
func (r buildRequest) validate() error {
	switch {
	case r.Email == "" || !strings.Contains(r.Email, "@"):
		return errors.New("a valid email is required")
	case r.Task == "":
		return errors.New("task is required")
	case r.Round < 1:
		return errors.New("round must be >= 1")
	case r.Nonce == "":
		return errors.New("nonce is required")
	case r.Brief == "":
		return errors.New("brief is required")
	case r.EvaluationURL == "":
		return errors.New("evaluation_url is required")
	}
	return nil
}

// toTask converts the wire request into the domain task. The secret is
// an admission concern and does not travel further.
func (r buildRequest) toTask() domain.BuildTask {
	refs := make([]domain.AttachmentRef, 0, len(r.Attachments))
	for _, att := range r.Attachments {
		refs = append(refs, domain.AttachmentRef{Name: att.Name, URL: att.URL})
	}
	return domain.BuildTask{
		Task:          r.Task,
		Email:         r.Email,
		Round:         r.Round,
		Nonce:         r.Nonce,
		Brief:         r.Brief,
		Checks:        r.Checks,
		EvaluationURL: r.EvaluationURL,
		Attachments:   refs,
	}
}

func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	var req buildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.Secret), []byte(s.config.SecretToken)) != 1 {
		writeError(w, http.StatusForbidden, "Invalid secret")
		return
	}

	if _, err := s.orchestrator.Submit(r.Context(), req.toTask()); err != nil {
		switch {
		case errors.Is(err, domain.ErrPipelineClosed):
			writeError(w, http.StatusServiceUnavailable, "Server is shutting down")
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			logger.Error("Submit build request for task %s: %v", req.Task, err)
			writeError(w, http.StatusInternalServerError, "Internal server error occurred")
		}
		return
	}

	writeJSON(w, http.StatusOK, buildResponse{
		Status:  "success",
		Message: fmt.Sprintf("Build request received for task %s, round %d. Processing in background.", req.Task, req.Round),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "healthy", Service: serviceName})
}

// handleEvaluate is a local stand-in for the evaluator: it logs the
// callback payload and acknowledges, so a full pipeline run can be
// exercised without an external endpoint.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	logger.Info("Evaluation callback received: %v", payload)
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
