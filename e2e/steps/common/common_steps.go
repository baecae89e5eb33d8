package common

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	Healthy() error
	EnsureParticipant(alias string) error
	Get(path string) error
	Status() int
	FieldNumber(name string) (uint64, error)
	FieldBool(name string) (bool, error)
	Field(name string) (any, error)
}

// RegisterSteps registers background and generic assertion step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	// Background steps
	ctx.Step(`^the ledger service is healthy$`, steps.serviceIsHealthy)
	ctx.Step(`^a provisioned participant "([^"]*)"$`, steps.provisionedParticipant)

	// Generic request steps
	ctx.Step(`^the treasury is fetched$`, steps.fetchTreasury)

	// Response assertions
	ctx.Step(`^the response status is (\d+)$`, steps.responseStatusIs)
	ctx.Step(`^the response field "([^"]*)" is (\d+)$`, steps.responseFieldIsNumber)
	ctx.Step(`^the response field "([^"]*)" is (true|false)$`, steps.responseFieldIsBool)
	ctx.Step(`^the response has field "([^"]*)"$`, steps.responseHasField)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) serviceIsHealthy(ctx context.Context) error {
	return s.tc.Healthy()
}

func (s *commonSteps) provisionedParticipant(ctx context.Context, alias string) error {
	return s.tc.EnsureParticipant(alias)
}

func (s *commonSteps) fetchTreasury(ctx context.Context) error {
	return s.tc.Get("/v1/treasury")
}

func (s *commonSteps) responseStatusIs(ctx context.Context, expected int) error {
	if got := s.tc.Status(); got != expected {
		return fmt.Errorf("expected status %d, got %d", expected, got)
	}
	return nil
}

func (s *commonSteps) responseFieldIsNumber(ctx context.Context, name string, expected uint64) error {
	got, err := s.tc.FieldNumber(name)
	if err != nil {
		return err
	}
	if got != expected {
		return fmt.Errorf("expected field %q to be %d, got %d", name, expected, got)
	}
	return nil
}

func (s *commonSteps) responseFieldIsBool(ctx context.Context, name, expected string) error {
	got, err := s.tc.FieldBool(name)
	if err != nil {
		return err
	}
	if fmt.Sprintf("%t", got) != expected {
		return fmt.Errorf("expected field %q to be %s, got %t", name, expected, got)
	}
	return nil
}

func (s *commonSteps) responseHasField(ctx context.Context, name string) error {
	_, err := s.tc.Field(name)
	return err
}
