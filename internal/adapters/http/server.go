// Package http exposes the operator API over HTTP: starting, inspecting,
// approving, cancelling and resuming executions.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/espalier/internal/engine"
	"github.com/aretw0/espalier/internal/loader"
	"github.com/aretw0/espalier/internal/logging"
	"github.com/aretw0/espalier/pkg/domain"
)

// Engine defines the interface the server needs from the workflow core.
type Engine interface {
	Start(ctx context.Context, wf *domain.Workflow, input string) (string, <-chan domain.RuntimeState, error)
	Resume(ctx context.Context, executionID string) (<-chan domain.RuntimeState, error)
	Approve(executionID string, decision domain.Decision) error
	Cancel(executionID string) error
	GetState(executionID string) (domain.RuntimeState, error)
	ListActive() []engine.Summary
}

// Server handles the operator API routes.
type Server struct {
	engine Engine
	logger *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets a structured logger for request handling.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// NewHandler creates the HTTP handler for the operator API.
func NewHandler(eng Engine, opts ...Option) http.Handler {
	s := &Server{engine: eng, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/healthz", s.health)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/executions", s.start)
	r.Get("/executions", s.list)
	r.Get("/executions/{id}", s.getState)
	r.Post("/executions/{id}/approve", s.approve)
	r.Post("/executions/{id}/cancel", s.cancel)
	r.Post("/executions/{id}/resume", s.resume)
	return r
}

type startRequest struct {
	Workflow string `json:"workflow"`
	Input    string `json:"input,omitempty"`
}

type approveRequest struct {
	Approved bool   `json:"approved"`
	Feedback string `json:"feedback,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// start loads, validates and launches a workflow. The snapshot stream is
// drained server-side; clients poll GET /executions/{id} for progress.
func (s *Server) start(w http.ResponseWriter, r *http.Request) {
	var body startRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	wf, err := loader.Load([]byte(body.Workflow))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	executionID, snapshots, err := s.engine.Start(context.WithoutCancel(r.Context()), wf, body.Input)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}
	go s.drain(executionID, snapshots)

	writeJSON(w, http.StatusCreated, map[string]string{"execution_id": executionID})
}

func (s *Server) resume(w http.ResponseWriter, r *http.Request) {
	executionID := chi.URLParam(r, "id")
	snapshots, err := s.engine.Resume(context.WithoutCancel(r.Context()), executionID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	go s.drain(executionID, snapshots)

	writeJSON(w, http.StatusAccepted, map[string]string{"execution_id": executionID})
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.ListActive())
}

func (s *Server) getState(w http.ResponseWriter, r *http.Request) {
	state, err := s.engine.GetState(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) approve(w http.ResponseWriter, r *http.Request) {
	var body approveRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	err := s.engine.Approve(chi.URLParam(r, "id"), domain.Decision{
		Approved: body.Approved,
		Feedback: body.Feedback,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "delivered"})
}

func (s *Server) cancel(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Cancel(chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelling"})
}

// drain consumes an execution's snapshot stream so the loop never blocks
// on an absent HTTP client.
func (s *Server) drain(executionID string, snapshots <-chan domain.RuntimeState) {
	var last domain.RuntimeState
	for snapshot := range snapshots {
		last = snapshot
	}
	s.logger.Info("execution finished",
		"execution_id", executionID,
		"status", last.Status,
		"state", last.CurrentStateID,
		"err", last.ErrorMessage,
	)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrExecutionNotFound), errors.Is(err, domain.ErrCheckpointNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrNotWaitingForApproval), errors.Is(err, domain.ErrExecutionActive):
		status = http.StatusConflict
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
