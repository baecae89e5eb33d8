// Package handler exposes policy purchase, passenger balances and
// withdrawals over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"

	"aircover/internal/insurance/models"
	"aircover/internal/platform/middleware"
	"aircover/pkg/domain"
	dErrors "aircover/pkg/domain-errors"
	"aircover/pkg/platform/httputil"
	"aircover/pkg/requestcontext"
)

// Service is the escrow ledger surface the handler drives.
type Service interface {
	Buy(ctx context.Context, airline domain.Address) (models.Policy, domain.Units, error)
	Withdraw(ctx context.Context, amount domain.Units) (domain.Units, error)
	Balance(ctx context.Context) (domain.Units, error)
	PolicyFor(ctx context.Context, airline domain.Address) (models.Policy, error)
	Treasury(ctx context.Context) (domain.Units, error)
}

// Handler handles insurance endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
	tokens  middleware.TokenValidator
}

// New creates an insurance Handler.
func New(service Service, tokens middleware.TokenValidator, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
		tokens:  tokens,
	}
}

// Register mounts the insurance routes. Everything except the treasury
// balance acts on behalf of the caller and requires authentication.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireParticipant(h.tokens, h.logger))
		r.Use(middleware.PaymentUnits)
		r.Post("/policies", h.handleBuy)
		r.Post("/withdrawals", h.handleWithdraw)
		r.Get("/passengers/balance", h.handleBalance)
		r.Get("/policies/{airline}", h.handlePolicy)
	})

	r.Get("/treasury", h.handleTreasury)
}

type buyRequest struct {
	Airline string `json:"airline"`

	airline domain.Address
}

// Validate parses and normalizes the airline address.
func (req *buyRequest) Validate() error {
	if !govalidator.StringLength(req.Airline, "1", "64") {
		return dErrors.New(dErrors.CodeInvalidArgument, "airline address is required")
	}
	airline, err := domain.ParseAddress(req.Airline)
	if err != nil {
		return err
	}
	req.airline = airline
	return nil
}

type buyResponse struct {
	Policy    models.Policy `json:"policy"`
	ChangeDue domain.Units  `json:"change_due"`
}

type withdrawRequest struct {
	Amount domain.Units `json:"amount"`
}

// Validate rejects zero-amount withdrawals before they reach the ledger.
func (req *withdrawRequest) Validate() error {
	if req.Amount == 0 {
		return dErrors.New(dErrors.CodeInvalidArgument, "withdrawal amount must be positive")
	}
	return nil
}

type withdrawResponse struct {
	PaidOut domain.Units `json:"paid_out"`
}

type balanceResponse struct {
	Balance domain.Units `json:"balance"`
}

type treasuryResponse struct {
	Treasury domain.Units `json:"treasury"`
}

func (h *Handler) handleBuy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[buyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	policy, change, err := h.service.Buy(ctx, req.airline)
	if err != nil {
		h.writeServiceError(ctx, w, "policy purchase failed", requestID, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, buyResponse{Policy: policy, ChangeDue: change})
}

func (h *Handler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[withdrawRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	paidOut, err := h.service.Withdraw(ctx, req.Amount)
	if err != nil {
		h.writeServiceError(ctx, w, "withdrawal failed", requestID, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, withdrawResponse{PaidOut: paidOut})
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	balance, err := h.service.Balance(ctx)
	if err != nil {
		h.writeServiceError(ctx, w, "balance lookup failed", requestcontext.RequestID(ctx), err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, balanceResponse{Balance: balance})
}

func (h *Handler) handlePolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	airline, err := domain.ParseAddress(chi.URLParam(r, "airline"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	policy, err := h.service.PolicyFor(ctx, airline)
	if err != nil {
		h.writeServiceError(ctx, w, "policy lookup failed", requestID, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, policy)
}

func (h *Handler) handleTreasury(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	treasury, err := h.service.Treasury(ctx)
	if err != nil {
		h.writeServiceError(ctx, w, "treasury lookup failed", requestcontext.RequestID(ctx), err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, treasuryResponse{Treasury: treasury})
}

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
