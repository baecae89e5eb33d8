package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aircover/pkg/domain"
	dErrors "aircover/pkg/domain-errors"
)

func mustAddress(t *testing.T, s string) domain.Address {
	t.Helper()
	addr, err := domain.ParseAddress(s)
	require.NoError(t, err)
	return addr
}

func TestAirlineAdmission(t *testing.T) {
	now := time.Now()
	address := mustAddress(t, "0x00000000000000000000000000000000000000aa")

	t.Run("new airline is a candidate", func(t *testing.T) {
		airline := NewAirline(address, now)
		assert.False(t, airline.Registered)
		assert.False(t, airline.Verified)
		assert.NoError(t, airline.CanAdmit())
	})

	t.Run("admission is one-way", func(t *testing.T) {
		airline := NewAirline(address, now)
		airline.ApplyAdmission(now)

		require.True(t, airline.Registered)
		err := airline.CanAdmit()
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyExists))
	})
}

func TestAirlineVoting(t *testing.T) {
	now := time.Now()
	candidate := NewAirline(mustAddress(t, "0x00000000000000000000000000000000000000bb"), now)
	voter1 := mustAddress(t, "0x0000000000000000000000000000000000000001")
	voter2 := mustAddress(t, "0x0000000000000000000000000000000000000002")

	t.Run("distinct voters accumulate", func(t *testing.T) {
		require.NoError(t, candidate.CanAcceptVote(voter1))
		candidate.ApplyVote(voter1)

		require.NoError(t, candidate.CanAcceptVote(voter2))
		candidate.ApplyVote(voter2)

		assert.Equal(t, 2, candidate.VoteCount())
	})

	t.Run("repeat voter is rejected", func(t *testing.T) {
		err := candidate.CanAcceptVote(voter1)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyExists))
		assert.Equal(t, 2, candidate.VoteCount())
	})

	t.Run("registered candidate accepts no votes", func(t *testing.T) {
		candidate.ApplyAdmission(now)
		err := candidate.CanAcceptVote(mustAddress(t, "0x0000000000000000000000000000000000000003"))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyExists))
	})
}

func TestAirlineVerification(t *testing.T) {
	now := time.Now()
	fee := domain.Units(1000)

	t.Run("unregistered airline cannot verify", func(t *testing.T) {
		airline := NewAirline(mustAddress(t, "0x00000000000000000000000000000000000000cc"), now)
		err := airline.CanVerify(fee, fee)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodePermissionDenied))
	})

	t.Run("underpayment is rejected", func(t *testing.T) {
		airline := NewAirline(mustAddress(t, "0x00000000000000000000000000000000000000cc"), now)
		airline.ApplyAdmission(now)

		err := airline.CanVerify(fee-1, fee)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodePreconditionFailed))
	})

	t.Run("verification credits exactly the fee", func(t *testing.T) {
		airline := NewAirline(mustAddress(t, "0x00000000000000000000000000000000000000cc"), now)
		airline.ApplyAdmission(now)

		require.NoError(t, airline.CanVerify(fee+500, fee))
		airline.ApplyVerification(fee, now)

		assert.True(t, airline.Verified)
		assert.Equal(t, fee, airline.EscrowBalance)
		assert.True(t, airline.Eligible())
	})

	t.Run("second verification is rejected", func(t *testing.T) {
		airline := NewAirline(mustAddress(t, "0x00000000000000000000000000000000000000cc"), now)
		airline.ApplyAdmission(now)
		airline.ApplyVerification(fee, now)

		err := airline.CanVerify(fee, fee)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyExists))
	})
}

func TestAirlineSnapshot(t *testing.T) {
	now := time.Now()
	airline := NewAirline(mustAddress(t, "0x00000000000000000000000000000000000000dd"), now)
	airline.ApplyVote(mustAddress(t, "0x0000000000000000000000000000000000000001"))
	airline.EscrowBalance = 42
	airline.Passengers = append(airline.Passengers, mustAddress(t, "0x0000000000000000000000000000000000000009"))

	snapshot := airline.Snapshot()
	assert.Equal(t, airline.Address, snapshot.Airline)
	assert.False(t, snapshot.Registered)
	assert.Equal(t, 1, snapshot.Votes)
	assert.Equal(t, domain.Units(42), snapshot.Escrow)
	assert.Equal(t, 1, snapshot.Passengers)
}
