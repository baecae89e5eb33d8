package domain

import (
	"strconv"

	dErrors "aircover/pkg/domain-errors"
)

// Units is the ledger's internal value type: an unsigned integer count of
// abstract payment units. All escrow balances, premiums, payouts, and
// withdrawable balances are Units. There is no fractional representation
// and no real currency movement; the payment rail is modeled at the edge.
type Units uint64

// ParseUnits parses a decimal unit amount from request input.
func ParseUnits(s string) (Units, error) {
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidArgument, "amount cannot be empty")
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidArgument, "amount must be an unsigned decimal integer")
	}
	return Units(v), nil
}

// Min returns the smaller of a and b.
func (u Units) Min(b Units) Units {
	if u < b {
		return u
	}
	return b
}

func (u Units) String() string {
	return strconv.FormatUint(uint64(u), 10)
}
