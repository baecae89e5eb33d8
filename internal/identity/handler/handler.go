// Package handler exposes the identity edge over HTTP: operator-guarded
// participant provisioning and public token issuance.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"

	"aircover/internal/identity/models"
	"aircover/internal/platform/middleware"
	"aircover/pkg/domain"
	dErrors "aircover/pkg/domain-errors"
	"aircover/pkg/platform/httputil"
	"aircover/pkg/requestcontext"
)

// Service is the identity surface the handler drives.
type Service interface {
	ProvisionParticipant(ctx context.Context, address domain.Address) (*models.Participant, string, error)
	IssueToken(ctx context.Context, address domain.Address, secret string) (models.TokenGrant, error)
}

// Handler handles identity endpoints.
type Handler struct {
	logger   *slog.Logger
	service  Service
	adminKey string
}

// New creates an identity Handler. adminKey guards provisioning.
func New(service Service, adminKey string, logger *slog.Logger) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		adminKey: adminKey,
	}
}

// Register mounts the identity routes. Provisioning is an operator
// action; token issuance is the public entry point for participants.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdminKey(h.adminKey, h.logger))
		r.Post("/participants", h.handleProvision)
	})

	r.Post("/token", h.handleToken)
}

type provisionRequest struct {
	Address string `json:"address"`

	address domain.Address
}

// Validate parses and normalizes the participant address.
func (req *provisionRequest) Validate() error {
	if !govalidator.StringLength(req.Address, "1", "64") {
		return dErrors.New(dErrors.CodeInvalidArgument, "participant address is required")
	}
	address, err := domain.ParseAddress(req.Address)
	if err != nil {
		return err
	}
	req.address = address
	return nil
}

type provisionResponse struct {
	Address   domain.Address `json:"address"`
	Secret    string         `json:"secret"`
	CreatedAt time.Time      `json:"created_at"`
}

type tokenRequest struct {
	Address string `json:"address"`
	Secret  string `json:"secret"`

	address domain.Address
}

// Validate checks both credentials are present and the address parses.
func (req *tokenRequest) Validate() error {
	if !govalidator.StringLength(req.Address, "1", "64") {
		return dErrors.New(dErrors.CodeInvalidArgument, "address is required")
	}
	if !govalidator.StringLength(req.Secret, "1", "128") {
		return dErrors.New(dErrors.CodeInvalidArgument, "secret is required")
	}
	address, err := domain.ParseAddress(req.Address)
	if err != nil {
		return err
	}
	req.address = address
	return nil
}

func (h *Handler) handleProvision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[provisionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	participant, secret, err := h.service.ProvisionParticipant(ctx, req.address)
	if err != nil {
		h.writeServiceError(ctx, w, "participant provisioning failed", requestID, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, provisionResponse{
		Address:   participant.Address,
		Secret:    secret,
		CreatedAt: participant.CreatedAt,
	})
}

func (h *Handler) handleToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[tokenRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	grant, err := h.service.IssueToken(ctx, req.address, req.Secret)
	if err != nil {
		h.writeServiceError(ctx, w, "token issuance failed", requestID, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, grant)
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
