package agent

import (
	"fmt"

	"github.com/hupe1980/mortgagemesh/core"
	"github.com/hupe1980/mortgagemesh/tool"
	"github.com/hupe1980/mortgagemesh/tools"
)

// NewUnderwritingAgent builds the underwriting agent. The decision engine
// produces the score and recommendation; the letter generator consumes the
// recommendation of the engine call that ran before it in the same plan.
func NewUnderwritingAgent() *DomainAgent {
	engine := tools.NewLoanDecisionEngine()
	letter := tools.NewLoanLetterGenerator()

	a := &DomainAgent{
		name:        StepUnderwriting,
		description: "Applies underwriting rules and drafts the decision letter.",
		domain:      "underwriting",
		tools:       []tool.Tool{engine, letter},
	}

	a.plan = staticPlan(
		call{engine, func(rc *core.RunContext, _ *core.AgentResult) map[string]any {
			app := rc.Application()
			return map[string]any{
				"credit_score":    app.Borrower.CreditScore,
				"loan_amount":     app.Loan.LoanAmount,
				"property_value":  app.Property.PropertyValue,
				"annual_income":   app.Borrower.AnnualIncome,
				"loan_term_years": app.Loan.LoanTermYears,
				"monthly_debt":    app.Borrower.MonthlyDebt,
			}
		}},
		call{letter, func(rc *core.RunContext, sofar *core.AgentResult) map[string]any {
			b := rc.Application().Borrower
			decision := "DENIED"
			if tr := sofar.Result(engine.Name()); tr != nil && tr.Success {
				switch tr.Data["recommendation"] {
				case "approve":
					decision = "APPROVED"
				case "conditional":
					decision = "CONDITIONAL"
				}
			}
			return map[string]any{
				"decision":      decision,
				"borrower_name": fmt.Sprintf("%s %s", b.FirstName, b.LastName),
				"loan_amount":   rc.Application().Loan.LoanAmount,
			}
		}},
	)

	// The domain score is the engine verdict alone; the letter call is
	// clerical and must not dilute it.
	a.finalize = func(_ *core.RunContext, res *core.AgentResult) {
		tr := res.Result(engine.Name())
		if tr == nil || !tr.Success {
			return
		}
		res.Score = tr.Score

		if conditions, ok := tr.Data["conditions"].([]string); ok {
			res.Conditions = append(res.Conditions, conditions...)
		}
		if reasons, ok := tr.Data["denial_reasons"].([]string); ok {
			res.RedFlags = append(res.RedFlags, reasons...)
		}
	}

	return a
}
