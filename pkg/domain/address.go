package domain

import (
	"strings"

	dErrors "aircover/pkg/domain-errors"
)

// Address identifies a ledger participant (airline, passenger, or oracle).
// This is a domain primitive that enforces validity at parse time: a
// 20-byte identifier rendered as 0x-prefixed lowercase hex. Identity is
// supplied by the authentication edge; the ledger core never mints one.
type Address string

// ZeroAddress is the null identity. It is never a valid participant and
// operations that receive it as a candidate or target must reject it.
const ZeroAddress Address = "0x0000000000000000000000000000000000000000"

const addressHexLen = 40

// ParseAddress validates and normalizes an address string.
// Accepts 0x-prefixed hex of exactly 20 bytes, case-insensitive.
// The zero address parses successfully; callers that must reject the
// null identity check IsZero explicitly so the error can carry the
// operation's own message.
func ParseAddress(s string) (Address, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidArgument, "address cannot be empty")
	}
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return "", dErrors.New(dErrors.CodeInvalidArgument, "address must be 0x-prefixed")
	}
	hexPart := s[2:]
	if len(hexPart) != addressHexLen {
		return "", dErrors.New(dErrors.CodeInvalidArgument, "address must encode exactly 20 bytes")
	}
	for _, r := range hexPart {
		if !isHexRune(r) {
			return "", dErrors.New(dErrors.CodeInvalidArgument, "address contains non-hex characters")
		}
	}
	return Address("0x" + strings.ToLower(hexPart)), nil
}

func isHexRune(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// IsZero reports whether the address is unset or the null identity.
func (a Address) IsZero() bool {
	return a == "" || a == ZeroAddress
}

// String returns the canonical lowercase form.
func (a Address) String() string {
	return string(a)
}
