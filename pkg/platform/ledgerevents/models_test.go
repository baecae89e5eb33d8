package ledgerevents

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAction_Category(t *testing.T) {
	tests := []struct {
		action   Action
		category Category
	}{
		{ActionAirlineProposed, CategoryAdmission},
		{ActionVoteCast, CategoryAdmission},
		{ActionAirlineRegistered, CategoryAdmission},
		{ActionAirlineVerified, CategoryAdmission},
		{ActionPolicyPurchased, CategoryFunds},
		{ActionPayoutCredited, CategoryFunds},
		{ActionFundsWithdrawn, CategoryFunds},
		{ActionOracleRegistered, CategoryOracle},
		{ActionStatusRequestOpened, CategoryOracle},
		{ActionOracleResponseRecorded, CategoryOracle},
		{ActionFlightStatusResolved, CategoryOracle},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			assert.Equal(t, tt.category, tt.action.Category())
		})
	}
}

func TestAction_Category_UnknownDefaultsToOracle(t *testing.T) {
	assert.Equal(t, CategoryOracle, Action("never_defined").Category())
}
