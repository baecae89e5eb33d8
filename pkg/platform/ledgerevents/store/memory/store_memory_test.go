package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aircover/pkg/domain"
	"aircover/pkg/platform/ledgerevents"
)

func TestInMemoryStore_AppendAndQuery(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	airlineA := domain.Address("0x00000000000000000000000000000000000000aa")
	airlineB := domain.Address("0x00000000000000000000000000000000000000bb")

	require.NoError(t, store.Append(ctx, ledgerevents.Event{Airline: airlineA, Action: ledgerevents.ActionAirlineRegistered}))
	require.NoError(t, store.Append(ctx, ledgerevents.Event{Airline: airlineA, Action: ledgerevents.ActionAirlineVerified}))
	require.NoError(t, store.Append(ctx, ledgerevents.Event{Airline: airlineB, Action: ledgerevents.ActionAirlineRegistered}))

	byAirline, err := store.ListByAirline(ctx, airlineA)
	require.NoError(t, err)
	assert.Len(t, byAirline, 2)

	byAction, err := store.ListByAction(ctx, ledgerevents.ActionAirlineRegistered)
	require.NoError(t, err)
	assert.Len(t, byAction, 2)

	all, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestInMemoryStore_ListRecent(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	airline := domain.Address("0x00000000000000000000000000000000000000aa")
	actions := []ledgerevents.Action{
		ledgerevents.ActionAirlineProposed,
		ledgerevents.ActionVoteCast,
		ledgerevents.ActionAirlineRegistered,
	}
	for _, action := range actions {
		require.NoError(t, store.Append(ctx, ledgerevents.Event{Airline: airline, Action: action}))
	}

	recent, err := store.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, ledgerevents.ActionVoteCast, recent[0].Action)
	assert.Equal(t, ledgerevents.ActionAirlineRegistered, recent[1].Action)

	// Limit larger than stored events returns everything
	recent, err = store.ListRecent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 3)
}

func TestInMemoryStore_QueryIsolation(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	airline := domain.Address("0x00000000000000000000000000000000000000aa")
	require.NoError(t, store.Append(ctx, ledgerevents.Event{Airline: airline, Action: ledgerevents.ActionVoteCast}))

	// Mutating a returned slice must not affect the store
	events, err := store.ListByAirline(ctx, airline)
	require.NoError(t, err)
	events[0].Action = ledgerevents.ActionFundsWithdrawn

	again, err := store.ListByAirline(ctx, airline)
	require.NoError(t, err)
	assert.Equal(t, ledgerevents.ActionVoteCast, again[0].Action)
}

func TestInMemoryStore_Clear(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	airline := domain.Address("0x00000000000000000000000000000000000000aa")
	require.NoError(t, store.Append(ctx, ledgerevents.Event{Airline: airline, Action: ledgerevents.ActionVoteCast}))

	store.Clear()

	all, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
