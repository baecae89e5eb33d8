package e2e

import (
	"github.com/cucumber/godog"

	"aircover/e2e/steps/admission"
	"aircover/e2e/steps/common"
	"aircover/e2e/steps/insurance"
	"aircover/e2e/steps/oracle"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Register common steps (background, generic requests, assertions)
	common.RegisterSteps(ctx, tc)

	// Register admission-specific steps
	admission.RegisterSteps(ctx, tc)

	// Register escrow and policy steps
	insurance.RegisterSteps(ctx, tc)

	// Register oracle and flight-status steps
	oracle.RegisterSteps(ctx, tc)
}
