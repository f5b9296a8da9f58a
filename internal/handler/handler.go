// Package handler exposes a leaderboard session as a small JSON HTTP API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/naka-gawa/pr-leaderboard/internal/domain"
	"github.com/naka-gawa/pr-leaderboard/internal/usecase"
)

// SessionService is the part of *usecase.Session the handlers use.
type SessionService interface {
	Repositories() domain.Repositories
	Select(name string) error
	UpdateRange(from, to *string)
	Begin(ctx context.Context) (string, <-chan usecase.CycleResult, error)
	Reset()
	Snapshot() usecase.SessionSnapshot
}

// Handler serves the session endpoints.
type Handler struct {
	session SessionService
	// baseCtx bounds background cycles; it is cancelled on shutdown.
	baseCtx context.Context
	logger  *log.Logger
}

// NewHandler creates a Handler. Cycles started over HTTP run under baseCtx.
func NewHandler(baseCtx context.Context, session SessionService, logger *log.Logger) *Handler {
	return &Handler{
		session: session,
		baseCtx: baseCtx,
		logger:  logger,
	}
}

const (
	ErrorCodeBadRequest       = "BAD_REQUEST"
	ErrorCodeIncomplete       = "INCOMPLETE_SELECTION"
	ErrorCodeUnknownRepo      = "UNKNOWN_REPOSITORY"
	ErrorCodeInvalidRange     = "INVALID_RANGE"
	ErrorCodeNotFound         = "NOT_FOUND"
	ErrorCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	ErrorCodeInternal         = "INTERNAL"
)

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SelectionRequest updates the selection. Omitted fields are left unchanged.
type SelectionRequest struct {
	Repository *string `json:"repository"`
	From       *string `json:"from"`
	To         *string `json:"to"`
}

type StartResponse struct {
	CycleID string `json:"cycle_id"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Printf("failed to encode response: %v\n", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, code string, message string, httpStatus int) {
	h.writeJSON(w, httpStatus, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// writeDomainError maps selection errors to 400 and everything else to 500.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrIncompleteSelection):
		h.writeError(w, ErrorCodeIncomplete, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrUnknownRepository):
		h.writeError(w, ErrorCodeUnknownRepo, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrInvalidRange):
		h.writeError(w, ErrorCodeInvalidRange, err.Error(), http.StatusBadRequest)
	default:
		h.writeError(w, ErrorCodeInternal, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetRepositories(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]domain.Repositories{"repositories": h.session.Repositories()})
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.session.Snapshot())
}

func (h *Handler) UpdateSelection(w http.ResponseWriter, r *http.Request) {
	var req SelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, ErrorCodeBadRequest, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Repository != nil {
		if err := h.session.Select(*req.Repository); err != nil {
			h.writeDomainError(w, err)
			return
		}
	}
	h.session.UpdateRange(req.From, req.To)

	h.writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// StartCycle begins a fetch cycle and returns immediately; clients poll GetSession.
func (h *Handler) StartCycle(w http.ResponseWriter, r *http.Request) {
	cycleID, results, err := h.session.Begin(h.baseCtx)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	go func() {
		res := <-results
		switch {
		case res.Err == nil:
			h.logger.Printf("cycle %s finished\n", res.ID)
		case errors.Is(res.Err, domain.ErrSuperseded):
			h.logger.Printf("cycle %s superseded\n", res.ID)
		default:
			h.logger.Printf("cycle %s failed: %v\n", res.ID, res.Err)
		}
	}()

	h.writeJSON(w, http.StatusAccepted, StartResponse{CycleID: cycleID})
}

func (h *Handler) ResetSession(w http.ResponseWriter, r *http.Request) {
	h.session.Reset()
	h.writeJSON(w, http.StatusOK, h.session.Snapshot())
}
