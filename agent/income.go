package agent

import (
	"github.com/hupe1980/mortgagemesh/core"
	"github.com/hupe1980/mortgagemesh/tool"
	"github.com/hupe1980/mortgagemesh/tools"
)

// NewIncomeAgent builds the income_verification agent. In sequential runs it
// consumes document-evidenced income published by the document stage; in
// parallel runs that key may be absent, which the consistency checker treats
// as a moderate non-blocking signal.
func NewIncomeAgent() *DomainAgent {
	employment := tools.NewEmploymentVerificationTool()
	calculator := tools.NewSimpleIncomeCalculator()
	consistency := tools.NewIncomeConsistencyChecker()

	a := &DomainAgent{
		name:        StepIncomeVerification,
		description: "Verifies employment and derives qualifying income.",
		domain:      "income",
		tools:       []tool.Tool{employment, calculator, consistency},
	}

	a.plan = staticPlan(
		call{employment, func(rc *core.RunContext, _ *core.AgentResult) map[string]any {
			b := rc.Application().Borrower
			args := map[string]any{"employment_status": b.EmploymentStatus}
			if b.Employer != "" {
				args["employer"] = b.Employer
			}
			return args
		}},
		call{calculator, func(rc *core.RunContext, _ *core.AgentResult) map[string]any {
			return map[string]any{"annual_income": rc.Application().Borrower.AnnualIncome}
		}},
		call{consistency, func(rc *core.RunContext, _ *core.AgentResult) map[string]any {
			args := map[string]any{
				"stated_annual_income": rc.Application().Borrower.AnnualIncome,
			}
			if v, ok := rc.Shared(SharedDocumentAnnualIncome); ok {
				args["document_annual_income"] = v
			}
			return args
		}},
	)

	a.finalize = func(rc *core.RunContext, res *core.AgentResult) {
		if tr := res.Result(calculator.Name()); tr != nil && tr.Success {
			if monthly, ok := tr.Data["qualifying_monthly_income"].(float64); ok {
				rc.SetShared(SharedQualifyingIncome, monthly)
			}
		}
		if tr := res.Result(consistency.Name()); tr != nil && tr.Success {
			if documented, ok := tr.Data["documented"].(bool); ok && documented {
				if consistent, ok := tr.Data["consistent"].(bool); ok && !consistent {
					res.RedFlags = append(res.RedFlags, "stated income deviates from documented income")
					res.Conditions = append(res.Conditions, "provide additional income documentation")
				}
			}
		}
	}

	return a
}
