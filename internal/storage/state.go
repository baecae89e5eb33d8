package storage

import (
	"time"

	insurancemodels "aircover/internal/insurance/models"
	oraclemodels "aircover/internal/oracle/models"
	registrymodels "aircover/internal/registry/models"
	"aircover/pkg/domain"
)

// State is the whole ledger: every airline, policy, passenger balance,
// oracle, and open status request, plus the protocol treasury. All access
// goes through the Ledger's lock; callbacks receive the live state and must
// not retain references past the callback.
//
// Entities are never destroyed. The registry is append-only; policies and
// requests stay in place after settlement and resolution.
type State struct {
	Airlines          map[domain.Address]*registrymodels.Airline
	Policies          map[insurancemodels.PolicyKey]*insurancemodels.Policy
	PassengerBalances map[domain.Address]domain.Units
	Oracles           map[domain.Address]*oraclemodels.Oracle
	Requests          map[domain.RequestKey]*oraclemodels.StatusRequest

	// Treasury accumulates retained protocol fees (oracle registration).
	Treasury domain.Units
}

func newState() *State {
	return &State{
		Airlines:          make(map[domain.Address]*registrymodels.Airline),
		Policies:          make(map[insurancemodels.PolicyKey]*insurancemodels.Policy),
		PassengerBalances: make(map[domain.Address]domain.Units),
		Oracles:           make(map[domain.Address]*oraclemodels.Oracle),
		Requests:          make(map[domain.RequestKey]*oraclemodels.StatusRequest),
	}
}

// Airline returns the airline record, or nil when the address has never been
// proposed.
func (s *State) Airline(address domain.Address) *registrymodels.Airline {
	return s.Airlines[address]
}

// GetOrCreateAirline returns the airline record, creating a candidate entry
// on first sight. Only apply callbacks may call it; validate callbacks must
// use Airline and tolerate nil.
func (s *State) GetOrCreateAirline(address domain.Address, now time.Time) *registrymodels.Airline {
	if airline, ok := s.Airlines[address]; ok {
		return airline
	}
	airline := registrymodels.NewAirline(address, now)
	s.Airlines[address] = airline
	return airline
}

// RegisteredCount returns the number of admitted airlines. Candidates with
// pending votes do not count.
func (s *State) RegisteredCount() int {
	count := 0
	for _, airline := range s.Airlines {
		if airline.Registered {
			count++
		}
	}
	return count
}

// Policy returns the policy for the (airline, passenger) pair, or nil.
func (s *State) Policy(key insurancemodels.PolicyKey) *insurancemodels.Policy {
	return s.Policies[key]
}

// Oracle returns the oracle record, or nil when the address never registered.
func (s *State) Oracle(address domain.Address) *oraclemodels.Oracle {
	return s.Oracles[address]
}

// Request returns the status request for the key, or nil.
func (s *State) Request(key domain.RequestKey) *oraclemodels.StatusRequest {
	return s.Requests[key]
}
