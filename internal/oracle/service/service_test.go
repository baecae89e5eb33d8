package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	insurancemodels "aircover/internal/insurance/models"
	insuranceservice "aircover/internal/insurance/service"
	"aircover/internal/oracle/models"
	"aircover/internal/oracle/service/mocks"
	"aircover/internal/storage"
	"aircover/pkg/domain"
	dErrors "aircover/pkg/domain-errors"
	"aircover/pkg/platform/ledgerevents"
	"aircover/pkg/platform/ledgerevents/publisher"
	"aircover/pkg/platform/ledgerevents/store/memory"
	"aircover/pkg/testutil"
)

const (
	testOracleFee  = domain.Units(1_000_000)
	testMaxPremium = domain.Units(1_000_000)

	// Every test oracle is assigned {7, 8, 9}; every request draws 7.
	assignedIndex = uint8(7)
)

func testAddress(n byte) domain.Address {
	addr, err := domain.ParseAddress(fmt.Sprintf("0x%040x", n))
	if err != nil {
		panic(err)
	}
	return addr
}

type OracleServiceSuite struct {
	suite.Suite
	ledger    *storage.Ledger
	events    *memory.InMemoryStore
	insurance *insuranceservice.Service
	service   *Service
	dice      *mocks.MockIndexSource
	airline   domain.Address
	departure time.Time
	ctx       context.Context
}

func TestOracleServiceSuite(t *testing.T) {
	suite.Run(t, new(OracleServiceSuite))
}

func (s *OracleServiceSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.ledger = storage.NewLedger()
	s.events = memory.NewInMemoryStore()
	s.ctx = context.Background()
	s.airline = testAddress(0xa1)
	s.departure = time.Unix(1_700_000_000, 0)

	s.dice = mocks.NewMockIndexSource(ctrl)
	s.dice.EXPECT().Roll(gomock.Any()).Return(assignedIndex).AnyTimes()
	s.dice.EXPECT().RollTriple(gomock.Any()).Return([models.IndexCount]uint8{7, 8, 9}).AnyTimes()

	s.insurance = insuranceservice.New(s.ledger, testMaxPremium,
		insuranceservice.WithLogger(logger),
		insuranceservice.WithEventPublisher(publisher.NewPublisher(s.events)),
	)
	s.service = New(s.ledger, s.dice, testOracleFee, s.insurance,
		WithLogger(logger),
		WithEventPublisher(publisher.NewPublisher(s.events)),
	)

	// Seed a verified airline so policies can be bought against it.
	s.Require().NoError(s.ledger.Execute(s.ctx, nil, func(st *storage.State) {
		now := time.Now()
		a := st.GetOrCreateAirline(s.airline, now)
		a.ApplyAdmission(now)
		a.ApplyVerification(0, now)
	}))
}

func (s *OracleServiceSuite) callerCtx(caller domain.Address, payment domain.Units) context.Context {
	return testutil.PayingContext(s.ctx, caller, payment)
}

// registerOracle admits an oracle paying exactly the fee.
func (s *OracleServiceSuite) registerOracle(oracle domain.Address) {
	s.T().Helper()
	_, err := s.service.Register(s.callerCtx(oracle, testOracleFee))
	s.Require().NoError(err)
}

// buyPolicy purchases insurance against the seeded airline.
func (s *OracleServiceSuite) buyPolicy(passenger domain.Address, premium domain.Units) {
	s.T().Helper()
	_, _, err := s.insurance.Buy(s.callerCtx(passenger, premium), s.airline)
	s.Require().NoError(err)
}

// fundEscrow tops up the seeded airline's escrow directly.
func (s *OracleServiceSuite) fundEscrow(amount domain.Units) {
	s.T().Helper()
	s.Require().NoError(s.ledger.Execute(s.ctx, nil, func(st *storage.State) {
		st.Airline(s.airline).EscrowBalance += amount
	}))
}

// openRequest opens a status request for the seeded airline's flight.
func (s *OracleServiceSuite) openRequest(requester domain.Address, flight domain.FlightNumber) models.Snapshot {
	s.T().Helper()
	snapshot, err := s.service.RequestStatus(s.callerCtx(requester, 0), s.airline, flight, s.departure)
	s.Require().NoError(err)
	return snapshot
}

func (s *OracleServiceSuite) submit(oracle domain.Address, flight domain.FlightNumber, status domain.StatusCode) (models.Snapshot, error) {
	return s.service.SubmitResponse(s.callerCtx(oracle, 0), assignedIndex, s.airline, flight, s.departure, status)
}

func (s *OracleServiceSuite) balanceOf(passenger domain.Address) domain.Units {
	var balance domain.Units
	s.Require().NoError(s.ledger.View(s.ctx, func(st *storage.State) {
		balance = st.PassengerBalances[passenger]
	}))
	return balance
}

func (s *OracleServiceSuite) escrow() domain.Units {
	var escrow domain.Units
	s.Require().NoError(s.ledger.View(s.ctx, func(st *storage.State) {
		escrow = st.Airline(s.airline).EscrowBalance
	}))
	return escrow
}

// ---------------------------------------------------------------------------
// Registration
// ---------------------------------------------------------------------------

func (s *OracleServiceSuite) TestRegister() {
	oracle := testAddress(0x30)

	s.Run("underpayment is rejected", func() {
		_, err := s.service.Register(s.callerCtx(oracle, testOracleFee-1))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))
	})

	s.Run("registration assigns indexes and retains the full payment", func() {
		indexes, err := s.service.Register(s.callerCtx(oracle, testOracleFee+500))
		s.Require().NoError(err)
		s.Equal([models.IndexCount]uint8{7, 8, 9}, indexes)

		s.Require().NoError(s.ledger.View(s.ctx, func(st *storage.State) {
			s.Equal(testOracleFee+500, st.Treasury, "overpayment stays in the treasury, no change due")
			s.Require().NotNil(st.Oracle(oracle))
		}))
	})

	s.Run("second registration is rejected", func() {
		_, err := s.service.Register(s.callerCtx(oracle, testOracleFee))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyExists))
	})

	s.Run("emits a registration event", func() {
		registered, err := s.events.ListByAction(s.ctx, ledgerevents.ActionOracleRegistered)
		s.Require().NoError(err)
		s.Require().Len(registered, 1)
		s.Equal(oracle, registered[0].Actor)
	})
}

// ---------------------------------------------------------------------------
// Status requests
// ---------------------------------------------------------------------------

func (s *OracleServiceSuite) TestRequestStatus() {
	requester := testAddress(0x40)

	s.Run("rejects a zero airline", func() {
		_, err := s.service.RequestStatus(s.callerCtx(requester, 0), domain.ZeroAddress, "ND1309", s.departure)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidArgument))
	})

	s.Run("rejects an empty flight", func() {
		_, err := s.service.RequestStatus(s.callerCtx(requester, 0), s.airline, "", s.departure)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidArgument))
	})

	s.Run("opens a request keyed by the drawn index", func() {
		snapshot := s.openRequest(requester, "ND1309")
		s.Equal(assignedIndex, snapshot.Index)
		s.Equal(domain.DeriveRequestKey(assignedIndex, s.airline, "ND1309", s.departure), snapshot.Key)
		s.False(snapshot.Resolved)

		got, err := s.service.Request(s.ctx, snapshot.Key)
		s.Require().NoError(err)
		s.Equal(snapshot.Key, got.Key)
	})

	s.Run("an identical request overwrites the record", func() {
		s.registerOracle(testAddress(0x31))
		_, err := s.submit(testAddress(0x31), "ND1309", domain.StatusOnTime)
		s.Require().NoError(err)

		snapshot := s.openRequest(testAddress(0x41), "ND1309")
		s.Empty(snapshot.Responses, "overwrite resets collected responses")
	})

	s.Run("emits an opened event carrying the key", func() {
		opened, err := s.events.ListByAction(s.ctx, ledgerevents.ActionStatusRequestOpened)
		s.Require().NoError(err)
		s.Require().Len(opened, 2)
		s.Equal(domain.DeriveRequestKey(assignedIndex, s.airline, "ND1309", s.departure), opened[0].RequestKey)
	})
}

// ---------------------------------------------------------------------------
// Response submission and resolution
// ---------------------------------------------------------------------------

func (s *OracleServiceSuite) TestSubmitResponseRejections() {
	oracle := testAddress(0x30)
	s.registerOracle(oracle)
	s.openRequest(testAddress(0x40), "ND1309")

	s.Run("unregistered caller", func() {
		_, err := s.submit(testAddress(0x99), "ND1309", domain.StatusOnTime)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("index not assigned to the caller", func() {
		_, err := s.service.SubmitResponse(s.callerCtx(oracle, 0), 5, s.airline, "ND1309", s.departure, domain.StatusOnTime)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))
	})

	s.Run("unknown request key", func() {
		_, err := s.submit(oracle, "XX0000", domain.StatusOnTime)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("unknown status code", func() {
		_, err := s.service.SubmitResponse(s.callerCtx(oracle, 0), assignedIndex, s.airline, "ND1309", s.departure, domain.StatusCode(99))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidArgument))
	})
}

func (s *OracleServiceSuite) TestSubmitResponseDeduplication() {
	oracle := testAddress(0x30)
	s.registerOracle(oracle)
	s.openRequest(testAddress(0x40), "ND1309")

	first, err := s.submit(oracle, "ND1309", domain.StatusOnTime)
	s.Require().NoError(err)
	s.Equal(1, first.Responses["on_time"])

	// The repeat is a silent no-op: same snapshot, no new event.
	second, err := s.submit(oracle, "ND1309", domain.StatusLateWeather)
	s.Require().NoError(err)
	s.Equal(1, second.Responses["on_time"])
	s.Zero(second.Responses["late_weather"])

	recorded, err := s.events.ListByAction(s.ctx, ledgerevents.ActionOracleResponseRecorded)
	s.Require().NoError(err)
	s.Len(recorded, 1)
}

func (s *OracleServiceSuite) TestMajorityResolution() {
	oracles := []domain.Address{testAddress(0x30), testAddress(0x31), testAddress(0x32), testAddress(0x33)}
	for _, o := range oracles {
		s.registerOracle(o)
	}
	s.openRequest(testAddress(0x40), "ND1309")

	s.Run("two matching responses leave the request open", func() {
		for _, o := range oracles[:2] {
			snapshot, err := s.submit(o, "ND1309", domain.StatusOnTime)
			s.Require().NoError(err)
			s.False(snapshot.Resolved)
		}
	})

	s.Run("a dissenting response does not resolve", func() {
		snapshot, err := s.submit(oracles[2], "ND1309", domain.StatusLateWeather)
		s.Require().NoError(err)
		s.False(snapshot.Resolved)
		s.Equal(2, snapshot.Responses["on_time"])
		s.Equal(1, snapshot.Responses["late_weather"])
	})

	s.Run("the third matching response resolves", func() {
		snapshot, err := s.submit(oracles[3], "ND1309", domain.StatusOnTime)
		s.Require().NoError(err)
		s.True(snapshot.Resolved)
		s.Equal("on_time", snapshot.ResolvedStatus.String())

		resolved, err := s.events.ListByAction(s.ctx, ledgerevents.ActionFlightStatusResolved)
		s.Require().NoError(err)
		s.Require().Len(resolved, 1)
		s.Equal(domain.StatusOnTime, resolved[0].StatusCode)
	})

	s.Run("an on-time resolution pays nobody", func() {
		payouts, err := s.events.ListByAction(s.ctx, ledgerevents.ActionPayoutCredited)
		s.Require().NoError(err)
		s.Empty(payouts)
	})
}

func (s *OracleServiceSuite) TestAirlineFaultResolutionPaysOut() {
	oracles := []domain.Address{testAddress(0x30), testAddress(0x31), testAddress(0x32)}
	for _, o := range oracles {
		s.registerOracle(o)
	}

	first, second := testAddress(0x50), testAddress(0x51)
	s.buyPolicy(first, 1000)
	s.buyPolicy(second, 333)
	s.fundEscrow(5000) // premiums alone cannot cover the 3/2 payouts

	s.openRequest(testAddress(0x40), "ND1309")
	escrowBefore := s.escrow()

	for _, o := range oracles[:2] {
		_, err := s.submit(o, "ND1309", domain.StatusLateAirline)
		s.Require().NoError(err)
	}
	s.Zero(s.balanceOf(first), "no payout before the majority")

	snapshot, err := s.submit(oracles[2], "ND1309", domain.StatusLateAirline)
	s.Require().NoError(err)
	s.Require().True(snapshot.Resolved)

	s.Run("passenger balances are credited three halves of the premium", func() {
		s.Equal(domain.Units(1500), s.balanceOf(first))
		s.Equal(domain.Units(499), s.balanceOf(second), "odd premium truncates")
	})

	s.Run("the escrow decrease equals the credited sum", func() {
		s.Equal(escrowBefore-1999, s.escrow())
	})

	s.Run("policies are settled", func() {
		s.Require().NoError(s.ledger.View(s.ctx, func(st *storage.State) {
			s.True(st.Policy(insurancemodels.PolicyKey{Airline: s.airline, Passenger: first}).Settled)
			s.True(st.Policy(insurancemodels.PolicyKey{Airline: s.airline, Passenger: second}).Settled)
		}))
	})

	s.Run("one payout event per passenger", func() {
		payouts, err := s.events.ListByAction(s.ctx, ledgerevents.ActionPayoutCredited)
		s.Require().NoError(err)
		s.Len(payouts, 2)
	})
}

func (s *OracleServiceSuite) TestUnderfundedSweepFailsTheSubmission() {
	oracles := []domain.Address{testAddress(0x30), testAddress(0x31), testAddress(0x32)}
	for _, o := range oracles {
		s.registerOracle(o)
	}
	s.buyPolicy(testAddress(0x50), 1000) // escrow 1000, payout 1500

	s.openRequest(testAddress(0x40), "ND1309")

	for _, o := range oracles[:2] {
		_, err := s.submit(o, "ND1309", domain.StatusLateTechnical)
		s.Require().NoError(err)
	}

	_, err := s.submit(oracles[2], "ND1309", domain.StatusLateTechnical)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))

	s.Run("the failed response is not recorded and the request stays open", func() {
		key := domain.DeriveRequestKey(assignedIndex, s.airline, "ND1309", s.departure)
		snapshot, err := s.service.Request(s.ctx, key)
		s.Require().NoError(err)
		s.False(snapshot.Resolved)
		s.Equal(2, snapshot.Responses["late_technical"])
		s.Zero(s.balanceOf(testAddress(0x50)))
	})

	s.Run("the same oracle can resubmit once the escrow is funded", func() {
		s.fundEscrow(1000)

		snapshot, err := s.submit(oracles[2], "ND1309", domain.StatusLateTechnical)
		s.Require().NoError(err)
		s.True(snapshot.Resolved)
		s.Equal(domain.Units(1500), s.balanceOf(testAddress(0x50)))
	})
}

func (s *OracleServiceSuite) TestPostResolutionResponsesNeverRetrigger() {
	oracles := []domain.Address{testAddress(0x30), testAddress(0x31), testAddress(0x32), testAddress(0x33)}
	for _, o := range oracles {
		s.registerOracle(o)
	}
	s.buyPolicy(testAddress(0x50), 1000)
	s.fundEscrow(5000)

	s.openRequest(testAddress(0x40), "ND1309")
	for _, o := range oracles[:3] {
		_, err := s.submit(o, "ND1309", domain.StatusLateAirline)
		s.Require().NoError(err)
	}
	s.Require().Equal(domain.Units(1500), s.balanceOf(testAddress(0x50)))
	escrowAfterSweep := s.escrow()

	// A late agreeing response lands on the resolved request: recorded,
	// no second sweep.
	snapshot, err := s.submit(oracles[3], "ND1309", domain.StatusLateAirline)
	s.Require().NoError(err)
	s.True(snapshot.Resolved)
	s.Equal(4, snapshot.Responses["late_airline"])

	s.Equal(domain.Units(1500), s.balanceOf(testAddress(0x50)), "no double credit")
	s.Equal(escrowAfterSweep, s.escrow())

	resolved, err := s.events.ListByAction(s.ctx, ledgerevents.ActionFlightStatusResolved)
	s.Require().NoError(err)
	s.Len(resolved, 1)
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

func (s *OracleServiceSuite) TestQueries() {
	s.Run("indexes of an unregistered caller", func() {
		_, err := s.service.Indexes(s.callerCtx(testAddress(0x30), 0))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("indexes of a registered oracle", func() {
		s.registerOracle(testAddress(0x30))
		indexes, err := s.service.Indexes(s.callerCtx(testAddress(0x30), 0))
		s.Require().NoError(err)
		s.Equal([models.IndexCount]uint8{7, 8, 9}, indexes)
	})

	s.Run("unknown request key", func() {
		_, err := s.service.Request(s.ctx, domain.RequestKey("deadbeef"))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
