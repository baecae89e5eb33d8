// Package handler exposes oracle registration and the flight status
// request/response protocol over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"

	"aircover/internal/oracle/models"
	"aircover/internal/platform/middleware"
	"aircover/pkg/domain"
	dErrors "aircover/pkg/domain-errors"
	"aircover/pkg/platform/httputil"
	"aircover/pkg/requestcontext"
)

// Service is the oracle pipeline surface the handler drives.
type Service interface {
	Register(ctx context.Context) ([models.IndexCount]uint8, error)
	RequestStatus(ctx context.Context, airline domain.Address, flight domain.FlightNumber, timestamp time.Time) (models.Snapshot, error)
	SubmitResponse(ctx context.Context, index uint8, airline domain.Address, flight domain.FlightNumber, timestamp time.Time, status domain.StatusCode) (models.Snapshot, error)
	Indexes(ctx context.Context) ([models.IndexCount]uint8, error)
	Request(ctx context.Context, key domain.RequestKey) (models.Snapshot, error)
}

// Handler handles oracle endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
	tokens  middleware.TokenValidator
}

// New creates an oracle Handler.
func New(service Service, tokens middleware.TokenValidator, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
		tokens:  tokens,
	}
}

// Register mounts the oracle routes. Request snapshots are public; everything
// else identifies the caller.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireParticipant(h.tokens, h.logger))
		r.Use(middleware.PaymentUnits)
		r.Post("/oracles", h.handleRegister)
		r.Post("/oracles/responses", h.handleSubmitResponse)
		r.Get("/oracles/me", h.handleIndexes)
		r.Post("/flights/status-requests", h.handleRequestStatus)
	})

	r.Get("/flights/status-requests/{key}", h.handleRequest)
}

// flightCoordinates is the shared validation for requests addressing one
// flight: airline, flight number, scheduled departure as unix seconds.
type flightCoordinates struct {
	Airline   string `json:"airline"`
	Flight    string `json:"flight"`
	Timestamp int64  `json:"timestamp"`

	airline   domain.Address
	flight    domain.FlightNumber
	departure time.Time
}

func (c *flightCoordinates) validate() error {
	if !govalidator.StringLength(c.Airline, "1", "64") {
		return dErrors.New(dErrors.CodeInvalidArgument, "airline address is required")
	}
	airline, err := domain.ParseAddress(c.Airline)
	if err != nil {
		return err
	}
	flight, err := domain.ParseFlightNumber(c.Flight)
	if err != nil {
		return err
	}
	if c.Timestamp <= 0 {
		return dErrors.New(dErrors.CodeInvalidArgument, "timestamp must be positive unix seconds")
	}

	c.airline = airline
	c.flight = flight
	c.departure = time.Unix(c.Timestamp, 0).UTC()
	return nil
}

type requestStatusRequest struct {
	flightCoordinates
}

// Validate parses the flight coordinates.
func (req *requestStatusRequest) Validate() error {
	return req.validate()
}

type submitResponseRequest struct {
	flightCoordinates
	Index      uint8 `json:"index"`
	StatusCode uint8 `json:"status_code"`

	status domain.StatusCode
}

// Validate parses the flight coordinates and checks the reported status is a
// known code. The index is validated against the caller's assignment by the
// service.
func (req *submitResponseRequest) Validate() error {
	if err := req.validate(); err != nil {
		return err
	}
	status := domain.StatusCode(req.StatusCode)
	if !status.IsValid() {
		return dErrors.New(dErrors.CodeInvalidArgument, "unknown flight status code")
	}
	req.status = status
	return nil
}

type indexesResponse struct {
	Indexes [models.IndexCount]uint8 `json:"indexes"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	indexes, err := h.service.Register(ctx)
	if err != nil {
		h.writeServiceError(ctx, w, "oracle registration failed", requestID, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, indexesResponse{Indexes: indexes})
}

func (h *Handler) handleRequestStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[requestStatusRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	snapshot, err := h.service.RequestStatus(ctx, req.airline, req.flight, req.departure)
	if err != nil {
		h.writeServiceError(ctx, w, "status request failed", requestID, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, snapshot)
}

func (h *Handler) handleSubmitResponse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[submitResponseRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	snapshot, err := h.service.SubmitResponse(ctx, req.Index, req.airline, req.flight, req.departure, req.status)
	if err != nil {
		h.writeServiceError(ctx, w, "oracle response failed", requestID, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) handleIndexes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	indexes, err := h.service.Indexes(ctx)
	if err != nil {
		h.writeServiceError(ctx, w, "oracle index lookup failed", requestcontext.RequestID(ctx), err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, indexesResponse{Indexes: indexes})
}

func (h *Handler) handleRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	key, err := domain.ParseRequestKey(chi.URLParam(r, "key"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	snapshot, err := h.service.Request(ctx, key)
	if err != nil {
		h.writeServiceError(ctx, w, "status request lookup failed", requestID, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, snapshot)
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
