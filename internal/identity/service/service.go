// Package service implements the identity edge: participant provisioning
// and access token issuance. Participants live outside the ledger; the
// consensus core only ever sees the caller address this edge authenticated.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"aircover/internal/identity/device"
	"aircover/internal/identity/models"
	"aircover/internal/identity/secrets"
	"aircover/pkg/domain"
	dErrors "aircover/pkg/domain-errors"
	"aircover/pkg/platform/sentinel"
	"aircover/pkg/requestcontext"
)

// ParticipantStore persists participant credential records.
type ParticipantStore interface {
	Create(ctx context.Context, participant *models.Participant) error
	FindByAddress(ctx context.Context, address domain.Address) (*models.Participant, error)
	Update(ctx context.Context, participant *models.Participant) error
}

// TokenIssuer signs access tokens bound to a participant address.
type TokenIssuer interface {
	Issue(address domain.Address, now time.Time) (string, time.Time, error)
}

// Service provisions participants and issues their access tokens.
type Service struct {
	store   ParticipantStore
	tokens  TokenIssuer
	devices *device.Service
	logger  *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New constructs the identity service.
func New(store ParticipantStore, tokens TokenIssuer, devices *device.Service, opts ...Option) *Service {
	s := &Service{
		store:   store,
		tokens:  tokens,
		devices: devices,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProvisionParticipant registers an address with the identity edge and
// returns its one-time secret. The plaintext secret exists only in this
// response; the store keeps a bcrypt hash.
func (s *Service) ProvisionParticipant(ctx context.Context, address domain.Address) (*models.Participant, string, error) {
	if address.IsZero() {
		return nil, "", dErrors.New(dErrors.CodeInvalidArgument, "participant address must not be zero")
	}

	secret, err := secrets.Generate()
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "could not generate participant secret")
	}
	hash, err := secrets.Hash(secret)
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "could not hash participant secret")
	}

	participant := models.NewParticipant(address, hash, requestcontext.Now(ctx))
	if err := s.store.Create(ctx, participant); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, "", dErrors.New(dErrors.CodeAlreadyExists, "participant is already provisioned")
		}
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "could not store participant")
	}

	s.logger.InfoContext(ctx, "participant provisioned",
		"address", address,
		"request_id", requestcontext.RequestID(ctx),
	)
	return participant, secret, nil
}

// IssueToken exchanges an address and its secret for a signed access
// token. Unknown addresses and wrong secrets both come back as
// unauthenticated so the endpoint cannot be used to enumerate
// provisioned addresses.
func (s *Service) IssueToken(ctx context.Context, address domain.Address, secret string) (models.TokenGrant, error) {
	if address.IsZero() || secret == "" {
		return models.TokenGrant{}, dErrors.New(dErrors.CodeInvalidArgument, "address and secret are required")
	}

	participant, err := s.store.FindByAddress(ctx, address)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.TokenGrant{}, dErrors.New(dErrors.CodeUnauthenticated, "invalid address or secret")
		}
		return models.TokenGrant{}, dErrors.Wrap(err, dErrors.CodeInternal, "could not load participant")
	}

	if err := secrets.Verify(secret, participant.SecretHash); err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthenticated) {
			return models.TokenGrant{}, dErrors.New(dErrors.CodeUnauthenticated, "invalid address or secret")
		}
		return models.TokenGrant{}, dErrors.Wrap(err, dErrors.CodeInternal, "could not verify participant secret")
	}

	now := requestcontext.Now(ctx)
	userAgent := requestcontext.UserAgent(ctx)
	deviceName := device.ParseUserAgent(userAgent)
	fingerprint := s.devices.ComputeFingerprint(userAgent)

	if _, drift := s.devices.CompareFingerprints(participant.LastFingerprint, fingerprint); drift {
		s.logger.WarnContext(ctx, "participant token issued from an unrecognized device",
			"address", address,
			"device", deviceName,
			"previous_device", participant.LastDevice,
			"request_id", requestcontext.RequestID(ctx),
		)
	}

	signed, expiresAt, err := s.tokens.Issue(address, now)
	if err != nil {
		return models.TokenGrant{}, dErrors.Wrap(err, dErrors.CodeInternal, "could not sign access token")
	}

	// Device binding is advisory. A failed update must not invalidate the
	// token that was already signed.
	participant.ApplyTokenIssuance(deviceName, fingerprint, now)
	if err := s.store.Update(ctx, participant); err != nil {
		s.logger.ErrorContext(ctx, "could not record token issuance",
			"address", address,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}

	return models.TokenGrant{Token: signed, ExpiresAt: expiresAt, Device: deviceName}, nil
}
