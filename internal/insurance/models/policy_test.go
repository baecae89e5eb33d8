package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aircover/pkg/domain"
)

func mustAddress(t *testing.T, raw string) domain.Address {
	t.Helper()
	addr, err := domain.ParseAddress(raw)
	require.NoError(t, err)
	return addr
}

func TestPolicyPayout(t *testing.T) {
	airline := mustAddress(t, "0x00000000000000000000000000000000000000a1")
	passenger := mustAddress(t, "0x00000000000000000000000000000000000000b1")

	tests := []struct {
		name    string
		premium domain.Units
		want    domain.Units
	}{
		{name: "even premium", premium: 1000, want: 1500},
		{name: "odd premium truncates", premium: 333, want: 499},
		{name: "single unit", premium: 1, want: 1},
		{name: "zero premium", premium: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPolicy(airline, passenger, tt.premium, time.Now())
			assert.Equal(t, tt.want, p.Payout())
		})
	}
}

func TestPolicyLifecycle(t *testing.T) {
	airline := mustAddress(t, "0x00000000000000000000000000000000000000a1")
	passenger := mustAddress(t, "0x00000000000000000000000000000000000000b1")
	now := time.Now()

	p := NewPolicy(airline, passenger, 500, now)
	require.True(t, p.Active())
	assert.Equal(t, PolicyKey{Airline: airline, Passenger: passenger}, p.Key())
	assert.False(t, p.Settled)
	assert.True(t, p.SettledAt.IsZero())

	settledAt := now.Add(time.Hour)
	p.ApplySettlement(settledAt)
	assert.False(t, p.Active(), "settled policies are inactive")
	assert.True(t, p.Settled)
	assert.Equal(t, settledAt, p.SettledAt)
}

func TestPolicyActive(t *testing.T) {
	airline := mustAddress(t, "0x00000000000000000000000000000000000000a1")
	passenger := mustAddress(t, "0x00000000000000000000000000000000000000b1")

	var missing *Policy
	assert.False(t, missing.Active(), "nil policy is inactive")

	zero := NewPolicy(airline, passenger, 0, time.Now())
	assert.False(t, zero.Active(), "zero-premium policy pays nothing and is inactive")
}

func TestSweepPlanEmpty(t *testing.T) {
	airline := mustAddress(t, "0x00000000000000000000000000000000000000a1")
	passenger := mustAddress(t, "0x00000000000000000000000000000000000000b1")

	empty := &SweepPlan{Airline: airline, Status: domain.StatusLateAirline}
	assert.True(t, empty.Empty())

	funded := &SweepPlan{
		Airline: airline,
		Status:  domain.StatusLateAirline,
		Total:   150,
		Credits: []PayoutCredit{{Passenger: passenger, Amount: 150}},
	}
	assert.False(t, funded.Empty())
}
