// Package handler exposes the airline registry over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"

	"aircover/internal/platform/middleware"
	"aircover/internal/registry/models"
	"aircover/pkg/domain"
	dErrors "aircover/pkg/domain-errors"
	"aircover/pkg/platform/httputil"
	"aircover/pkg/requestcontext"
)

// Service is the registry surface the handler drives.
type Service interface {
	RegisterOrVote(ctx context.Context, candidate domain.Address) (models.StatusSnapshot, error)
	Verify(ctx context.Context) (domain.Units, error)
	Status(ctx context.Context, address domain.Address) (models.StatusSnapshot, error)
	List(ctx context.Context) ([]models.StatusSnapshot, error)
}

// Handler handles airline admission endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
	tokens  middleware.TokenValidator
}

// New creates a registry Handler.
func New(service Service, tokens middleware.TokenValidator, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
		tokens:  tokens,
	}
}

// Register mounts the registry routes. Mutations require an authenticated
// participant; status queries are public.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireParticipant(h.tokens, h.logger))
		r.Use(middleware.PaymentUnits)
		r.Post("/airlines", h.handleRegisterOrVote)
		r.Post("/airlines/verify", h.handleVerify)
	})

	r.Get("/airlines", h.handleList)
	r.Get("/airlines/{address}", h.handleStatus)
}

type registerOrVoteRequest struct {
	Candidate string `json:"candidate"`

	candidate domain.Address
}

// Validate parses and normalizes the candidate address.
func (req *registerOrVoteRequest) Validate() error {
	if !govalidator.StringLength(req.Candidate, "1", "64") {
		return dErrors.New(dErrors.CodeInvalidArgument, "candidate address is required")
	}
	candidate, err := domain.ParseAddress(req.Candidate)
	if err != nil {
		return err
	}
	req.candidate = candidate
	return nil
}

type verifyResponse struct {
	Verified  bool         `json:"verified"`
	ChangeDue domain.Units `json:"change_due"`
}

type listResponse struct {
	Airlines []models.StatusSnapshot `json:"airlines"`
}

func (h *Handler) handleRegisterOrVote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[registerOrVoteRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	snapshot, err := h.service.RegisterOrVote(ctx, req.candidate)
	if err != nil {
		h.writeServiceError(ctx, w, "register or vote failed", requestID, err)
		return
	}

	status := http.StatusOK
	if snapshot.Registered {
		status = http.StatusCreated
	}
	httputil.WriteJSON(w, status, snapshot)
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	change, err := h.service.Verify(ctx)
	if err != nil {
		h.writeServiceError(ctx, w, "verification failed", requestID, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, verifyResponse{Verified: true, ChangeDue: change})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	airlines, err := h.service.List(ctx)
	if err != nil {
		h.writeServiceError(ctx, w, "airline list failed", requestcontext.RequestID(ctx), err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, listResponse{Airlines: airlines})
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	address, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	snapshot, err := h.service.Status(ctx, address)
	if err != nil {
		h.writeServiceError(ctx, w, "airline status failed", requestID, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, snapshot)
}

// writeServiceError logs and translates a service error. Coded errors pass
// through to the standard mapping; anything uncoded is an internal fault and
// its detail stays out of the response.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, msg, requestID string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, msg))
		return
	}

	h.logger.WarnContext(ctx, msg,
		"request_id", requestID,
		"error", err,
	)
	httputil.WriteError(w, err)
}
