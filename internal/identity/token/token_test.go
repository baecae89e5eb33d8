package token

import (
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aircover/pkg/domain"
	dErrors "aircover/pkg/domain-errors"
)

const testSigningKey = "test-signing-key-at-least-32-bytes!!"

func testAddress(n byte) domain.Address {
	addr, err := domain.ParseAddress(fmt.Sprintf("0x%040x", n))
	if err != nil {
		panic(err)
	}
	return addr
}

func TestIssueAndValidate(t *testing.T) {
	issuer := NewIssuer(testSigningKey, "aircover", "aircover-ledger", time.Hour)
	now := time.Now()

	signed, expiresAt, err := issuer.Issue(testAddress(0x10), now)
	require.NoError(t, err)
	assert.NotEmpty(t, signed)
	assert.WithinDuration(t, now.Add(time.Hour), expiresAt, time.Second)

	address, err := issuer.Validate(signed)
	require.NoError(t, err)
	assert.Equal(t, testAddress(0x10), address)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	issuer := NewIssuer(testSigningKey, "aircover", "aircover-ledger", time.Minute)

	signed, _, err := issuer.Issue(testAddress(0x10), time.Now().Add(-time.Hour))
	require.NoError(t, err)

	_, err = issuer.Validate(signed)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthenticated))
	assert.Contains(t, dErrors.MessageOf(err), "expired")
}

func TestValidateRejectsWrongKey(t *testing.T) {
	issuer := NewIssuer(testSigningKey, "aircover", "aircover-ledger", time.Hour)
	other := NewIssuer("a-completely-different-signing-key!!", "aircover", "aircover-ledger", time.Hour)

	signed, _, err := other.Issue(testAddress(0x10), time.Now())
	require.NoError(t, err)

	_, err = issuer.Validate(signed)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthenticated))
}

func TestValidateRejectsGarbage(t *testing.T) {
	issuer := NewIssuer(testSigningKey, "aircover", "aircover-ledger", time.Hour)

	_, err := issuer.Validate("not-a-jwt")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthenticated))
}

func TestValidateRejectsUnsignedAlgorithm(t *testing.T) {
	issuer := NewIssuer(testSigningKey, "aircover", "aircover-ledger", time.Hour)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Address: testAddress(0x10).String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = issuer.Validate(signed)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthenticated))
}

func TestValidateRejectsMalformedAddressClaim(t *testing.T) {
	issuer := NewIssuer(testSigningKey, "aircover", "aircover-ledger", time.Hour)

	bad := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Address: "not-an-address",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := bad.SignedString([]byte(testSigningKey))
	require.NoError(t, err)

	_, err = issuer.Validate(signed)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthenticated))
}
