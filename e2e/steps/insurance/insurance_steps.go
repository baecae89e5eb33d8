package insurance

import (
	"context"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	EnsureParticipant(alias string) error
	BuyPolicyAs(alias, airlineAlias string, payment uint64) error
	WithdrawAs(alias string, amount uint64) error
	NoteBalance(alias string) error
	BalanceIncreasedBy(alias string, delta uint64) error
	AddressOf(alias string) (string, error)
	GetAs(alias, path string) error
}

// RegisterSteps registers escrow and policy step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &insuranceSteps{tc: tc}

	// Policy actions
	ctx.Step(`^"([^"]*)" buys a policy on "([^"]*)" paying (\d+) units$`, steps.buyPolicy)
	ctx.Step(`^"([^"]*)" withdraws (\d+) units$`, steps.withdraw)
	ctx.Step(`^"([^"]*)" fetches their policy on "([^"]*)"$`, steps.fetchPolicy)
	ctx.Step(`^"([^"]*)" fetches their balance$`, steps.fetchBalance)

	// Balance assertions
	ctx.Step(`^the balance of "([^"]*)" is noted$`, steps.noteBalance)
	ctx.Step(`^the balance of "([^"]*)" increased by (\d+) units$`, steps.balanceIncreased)
}

type insuranceSteps struct {
	tc TestContext
}

func (s *insuranceSteps) buyPolicy(ctx context.Context, alias, airlineAlias string, payment int) error {
	if err := s.tc.EnsureParticipant(alias); err != nil {
		return err
	}
	return s.tc.BuyPolicyAs(alias, airlineAlias, uint64(payment))
}

func (s *insuranceSteps) withdraw(ctx context.Context, alias string, amount int) error {
	return s.tc.WithdrawAs(alias, uint64(amount))
}

func (s *insuranceSteps) fetchPolicy(ctx context.Context, alias, airlineAlias string) error {
	address, err := s.tc.AddressOf(airlineAlias)
	if err != nil {
		return err
	}
	return s.tc.GetAs(alias, "/v1/policies/"+address)
}

func (s *insuranceSteps) fetchBalance(ctx context.Context, alias string) error {
	return s.tc.GetAs(alias, "/v1/passengers/balance")
}

func (s *insuranceSteps) noteBalance(ctx context.Context, alias string) error {
	return s.tc.NoteBalance(alias)
}

func (s *insuranceSteps) balanceIncreased(ctx context.Context, alias string, delta int) error {
	return s.tc.BalanceIncreasedBy(alias, uint64(delta))
}
