// Package agent implements the six specialized mortgage processing agents.
// Each agent owns a fixed tool set, invokes its tools against the application
// in context, absorbs individual tool failures into its result and reduces
// the surviving tool scores to one domain score.
package agent

import (
	"github.com/hupe1980/mortgagemesh/core"
	"github.com/hupe1980/mortgagemesh/tool"
)

// Step identifiers of the built-in agents, in canonical sequential order.
const (
	StepDocumentProcessing = "document_processing"
	StepCreditAssessment   = "credit_assessment"
	StepIncomeVerification = "income_verification"
	StepPropertyAssessment = "property_assessment"
	StepRiskAssessment     = "risk_assessment"
	StepUnderwriting       = "underwriting"
)

// Order is the canonical sequential execution order.
var Order = []string{
	StepDocumentProcessing,
	StepCreditAssessment,
	StepIncomeVerification,
	StepPropertyAssessment,
	StepRiskAssessment,
	StepUnderwriting,
}

// Agent is one specialized assessment stage. Run executes all of the agent's
// tools, or only the named subset when tool names are given. The error return
// covers subset validation alone: naming a tool outside the agent's catalog
// yields a *core.ValidationError listing the valid names before any tool
// runs. Tool failures never surface as errors; they are recorded on the
// result, and a cancelled or expired context surfaces as a failed result with
// the matching failure kind.
type Agent interface {
	Name() string
	Description() string
	Domain() string
	Critical() bool
	Tools() []tool.Tool
	Run(runCtx *core.RunContext, tools ...string) (*core.AgentResult, error)
}

// Shared scratch-space keys through which agents hand derived data to later
// sequential stages.
const (
	SharedDocumentAnnualIncome = "document_annual_income"
	SharedQualifyingIncome     = "qualifying_monthly_income"
	SharedBackEndDTI           = "back_end_dti"
	SharedLTV                  = "ltv"
)
