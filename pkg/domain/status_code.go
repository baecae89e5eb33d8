package domain

// StatusCode is a flight status reported by oracles. The code space is
// fixed; oracles reporting anything else are rejected at the edge.
type StatusCode uint8

const (
	StatusUnknown       StatusCode = 0
	StatusOnTime        StatusCode = 10
	StatusLateAirline   StatusCode = 20
	StatusLateWeather   StatusCode = 30
	StatusLateTechnical StatusCode = 40
	StatusLateOther     StatusCode = 50
)

// IsValid reports whether the code is one of the known status codes.
func (c StatusCode) IsValid() bool {
	switch c {
	case StatusUnknown, StatusOnTime, StatusLateAirline, StatusLateWeather, StatusLateTechnical, StatusLateOther:
		return true
	}
	return false
}

// IsAirlineFault reports whether a resolved status obliges the airline to
// pay out insured passengers: delays the airline caused directly and
// technical delays both count against the airline's escrow.
func (c StatusCode) IsAirlineFault() bool {
	return c == StatusLateAirline || c == StatusLateTechnical
}

// String returns a stable label used in logs, metrics, and events.
func (c StatusCode) String() string {
	switch c {
	case StatusUnknown:
		return "unknown"
	case StatusOnTime:
		return "on_time"
	case StatusLateAirline:
		return "late_airline"
	case StatusLateWeather:
		return "late_weather"
	case StatusLateTechnical:
		return "late_technical"
	case StatusLateOther:
		return "late_other"
	}
	return "invalid"
}
