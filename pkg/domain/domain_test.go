package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "aircover/pkg/domain-errors"
)

// TestParseAddress_Invariants validates the parsing invariant: addresses
// are 0x-prefixed 20-byte hex, normalized to lowercase at the trust
// boundary so map lookups never depend on caller casing.
func TestParseAddress_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseAddress("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidArgument))
	})

	t.Run("rejects missing prefix", func(t *testing.T) {
		_, err := ParseAddress(strings.Repeat("ab", 20))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidArgument))
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		_, err := ParseAddress("0xabcdef")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidArgument))
	})

	t.Run("rejects non-hex characters", func(t *testing.T) {
		_, err := ParseAddress("0x" + strings.Repeat("zz", 20))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidArgument))
	})

	t.Run("normalizes to lowercase", func(t *testing.T) {
		upper := "0x" + strings.Repeat("AB", 20)
		addr, err := ParseAddress(upper)
		require.NoError(t, err)
		assert.Equal(t, Address("0x"+strings.Repeat("ab", 20)), addr)
	})

	t.Run("zero address parses but reports IsZero", func(t *testing.T) {
		addr, err := ParseAddress(string(ZeroAddress))
		require.NoError(t, err)
		assert.True(t, addr.IsZero())
	})

	t.Run("empty address reports IsZero", func(t *testing.T) {
		assert.True(t, Address("").IsZero())
	})
}

func TestParseFlightNumber(t *testing.T) {
	t.Run("trims whitespace", func(t *testing.T) {
		f, err := ParseFlightNumber("  ND1309 ")
		require.NoError(t, err)
		assert.Equal(t, FlightNumber("ND1309"), f)
	})

	t.Run("rejects empty", func(t *testing.T) {
		_, err := ParseFlightNumber("   ")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidArgument))
	})

	t.Run("rejects overlong", func(t *testing.T) {
		_, err := ParseFlightNumber(strings.Repeat("A", 65))
		require.Error(t, err)
	})
}

func TestParseRequestKey(t *testing.T) {
	t.Run("accepts a 64-char hex digest", func(t *testing.T) {
		key, err := ParseRequestKey(strings.Repeat("Ab", 32))
		require.NoError(t, err)
		assert.Equal(t, RequestKey(strings.Repeat("ab", 32)), key)
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		_, err := ParseRequestKey("abcd")
		require.Error(t, err)
	})

	t.Run("rejects non-hex", func(t *testing.T) {
		_, err := ParseRequestKey(strings.Repeat("zz", 32))
		require.Error(t, err)
	})
}

func TestStatusCode(t *testing.T) {
	t.Run("known codes are valid", func(t *testing.T) {
		for _, c := range []StatusCode{StatusUnknown, StatusOnTime, StatusLateAirline, StatusLateWeather, StatusLateTechnical, StatusLateOther} {
			assert.True(t, c.IsValid(), "code %d", c)
		}
	})

	t.Run("other values are invalid", func(t *testing.T) {
		assert.False(t, StatusCode(15).IsValid())
		assert.False(t, StatusCode(255).IsValid())
	})

	t.Run("only airline and technical delays are airline fault", func(t *testing.T) {
		assert.True(t, StatusLateAirline.IsAirlineFault())
		assert.True(t, StatusLateTechnical.IsAirlineFault())
		assert.False(t, StatusLateWeather.IsAirlineFault())
		assert.False(t, StatusOnTime.IsAirlineFault())
		assert.False(t, StatusLateOther.IsAirlineFault())
		assert.False(t, StatusUnknown.IsAirlineFault())
	})
}

func TestParseUnits(t *testing.T) {
	t.Run("parses decimal", func(t *testing.T) {
		u, err := ParseUnits("1500000")
		require.NoError(t, err)
		assert.Equal(t, Units(1_500_000), u)
	})

	t.Run("rejects negatives and garbage", func(t *testing.T) {
		for _, in := range []string{"", "-5", "1.5", "abc"} {
			_, err := ParseUnits(in)
			assert.Error(t, err, "input %q", in)
		}
	})

	t.Run("min picks the smaller operand", func(t *testing.T) {
		assert.Equal(t, Units(3), Units(3).Min(7))
		assert.Equal(t, Units(3), Units(7).Min(3))
	})
}
