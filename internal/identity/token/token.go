// Package token issues and validates participant access tokens.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"aircover/pkg/domain"
	dErrors "aircover/pkg/domain-errors"
)

// Claims carries the participant address inside an access token.
type Claims struct {
	Address string `json:"address"`
	jwt.RegisteredClaims
}

// Issuer signs and validates HS256 access tokens bound to a
// participant address. It satisfies middleware.TokenValidator.
type Issuer struct {
	signingKey []byte
	issuer     string
	audience   string
	ttl        time.Duration
}

func NewIssuer(signingKey string, issuer string, audience string, ttl time.Duration) *Issuer {
	return &Issuer{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
		ttl:        ttl,
	}
}

// TTL reports how long issued tokens stay valid.
func (s *Issuer) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for the given address and returns it with its expiry.
func (s *Issuer) Issue(address domain.Address, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(s.ttl)
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Address: address.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        uuid.NewString(),
		},
	})

	signedToken, err := newToken.SignedString(s.signingKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signedToken, expiresAt, nil
}

// Validate parses the token and returns the participant address it was
// issued to.
func (s *Issuer) Validate(tokenString string) (domain.Address, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", dErrors.New(dErrors.CodeUnauthenticated, "token has expired")
		}
		return "", dErrors.New(dErrors.CodeUnauthenticated, "invalid token")
	}

	if !parsed.Valid {
		return "", dErrors.New(dErrors.CodeUnauthenticated, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return "", dErrors.New(dErrors.CodeUnauthenticated, "invalid token claims")
	}

	address, err := domain.ParseAddress(claims.Address)
	if err != nil {
		return "", dErrors.New(dErrors.CodeUnauthenticated, "invalid token claims")
	}
	return address, nil
}
