package oracle

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	SetFlight(airlineAlias, flight string, timestamp int64) error
	RequestFlightStatusAs(alias string) error
	FetchRequest() error
	RegisterHolders(n int) error
	RegisterNonHolder(alias string) error
	HoldingOracles() []string
	SubmitResponseAs(alias string, statusCode uint8) error
	Status() int
}

// RegisterSteps registers oracle and flight-status step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &oracleSteps{tc: tc}

	// Flight setup
	ctx.Step(`^the flight under test is "([^"]*)" flight "([^"]*)" departing at (\d+)$`, steps.setFlight)
	ctx.Step(`^"([^"]*)" requests the flight status$`, steps.requestStatus)

	// Oracle actions
	ctx.Step(`^oracles are registered until (\d+) hold(?:s)? the drawn index$`, steps.registerHolders)
	ctx.Step(`^an oracle not holding the drawn index is registered as "([^"]*)"$`, steps.registerNonHolder)
	ctx.Step(`^each holding oracle reports status (\d+)$`, steps.holdersReport)
	ctx.Step(`^"([^"]*)" reports status (\d+)$`, steps.report)

	// Resolution queries
	ctx.Step(`^the status request is fetched$`, steps.fetchRequest)
}

type oracleSteps struct {
	tc TestContext
}

func (s *oracleSteps) setFlight(ctx context.Context, airlineAlias, flight string, timestamp int) error {
	return s.tc.SetFlight(airlineAlias, flight, int64(timestamp))
}

func (s *oracleSteps) requestStatus(ctx context.Context, alias string) error {
	return s.tc.RequestFlightStatusAs(alias)
}

func (s *oracleSteps) registerHolders(ctx context.Context, n int) error {
	return s.tc.RegisterHolders(n)
}

func (s *oracleSteps) registerNonHolder(ctx context.Context, alias string) error {
	return s.tc.RegisterNonHolder(alias)
}

func (s *oracleSteps) holdersReport(ctx context.Context, statusCode int) error {
	holders := s.tc.HoldingOracles()
	if len(holders) == 0 {
		return fmt.Errorf("no oracles hold the drawn index")
	}
	for _, alias := range holders {
		if err := s.tc.SubmitResponseAs(alias, uint8(statusCode)); err != nil {
			return err
		}
		if got := s.tc.Status(); got != 200 {
			return fmt.Errorf("response from %q returned %d", alias, got)
		}
	}
	return nil
}

func (s *oracleSteps) report(ctx context.Context, alias string, statusCode int) error {
	return s.tc.SubmitResponseAs(alias, uint8(statusCode))
}

func (s *oracleSteps) fetchRequest(ctx context.Context) error {
	return s.tc.FetchRequest()
}
