package admission

import (
	"context"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	EnsureParticipant(alias string) error
	RegisterAirline(alias string) error
	ProposeAs(proposer, candidate string) error
	CloseFoundingWindow(pendingAlias string) error
	VoteUntilAdmitted(candidate string) error
	VerifyAirlineAs(alias string, payment uint64) error
	FetchAirlineStatus(alias string) error
	PostAnonymous(path string, body map[string]any) error
}

// RegisterSteps registers admission-related step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &admissionSteps{tc: tc}

	// Setup steps
	ctx.Step(`^"([^"]*)" is a registered airline$`, steps.registeredAirline)
	ctx.Step(`^the founding window is closed with "([^"]*)" pending$`, steps.closeFoundingWindow)

	// Admission actions
	ctx.Step(`^"([^"]*)" proposes "([^"]*)" for admission$`, steps.propose)
	ctx.Step(`^the registered airlines vote "([^"]*)" in$`, steps.voteIn)
	ctx.Step(`^"([^"]*)" pays a verification fee of (\d+) units$`, steps.verify)
	ctx.Step(`^an anonymous admission proposal is submitted$`, steps.anonymousProposal)

	// Admission queries
	ctx.Step(`^the airline status of "([^"]*)" is fetched$`, steps.fetchStatus)
}

type admissionSteps struct {
	tc TestContext
}

func (s *admissionSteps) registeredAirline(ctx context.Context, alias string) error {
	return s.tc.RegisterAirline(alias)
}

func (s *admissionSteps) closeFoundingWindow(ctx context.Context, pendingAlias string) error {
	return s.tc.CloseFoundingWindow(pendingAlias)
}

func (s *admissionSteps) propose(ctx context.Context, proposer, candidate string) error {
	if err := s.tc.EnsureParticipant(proposer); err != nil {
		return err
	}
	if err := s.tc.EnsureParticipant(candidate); err != nil {
		return err
	}
	return s.tc.ProposeAs(proposer, candidate)
}

func (s *admissionSteps) voteIn(ctx context.Context, candidate string) error {
	return s.tc.VoteUntilAdmitted(candidate)
}

func (s *admissionSteps) verify(ctx context.Context, alias string, payment int) error {
	return s.tc.VerifyAirlineAs(alias, uint64(payment))
}

func (s *admissionSteps) anonymousProposal(ctx context.Context) error {
	return s.tc.PostAnonymous("/v1/airlines", nil)
}

func (s *admissionSteps) fetchStatus(ctx context.Context, alias string) error {
	return s.tc.FetchAirlineStatus(alias)
}
