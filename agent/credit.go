package agent

import (
	"github.com/hupe1980/mortgagemesh/core"
	"github.com/hupe1980/mortgagemesh/tool"
	"github.com/hupe1980/mortgagemesh/tools"
)

// NewCreditAgent builds the credit_assessment agent.
func NewCreditAgent() *DomainAgent {
	scoreAnalyzer := tools.NewCreditScoreAnalyzer()
	historyAnalyzer := tools.NewCreditHistoryAnalyzer()
	dtiCalc := tools.NewDebtToIncomeCalculator()

	a := &DomainAgent{
		name:        StepCreditAssessment,
		description: "Evaluates creditworthiness from score, history and debt-to-income ratio.",
		domain:      "credit",
		tools:       []tool.Tool{scoreAnalyzer, historyAnalyzer, dtiCalc},
	}

	creditArgs := func(rc *core.RunContext, _ *core.AgentResult) map[string]any {
		return map[string]any{"credit_score": rc.Application().Borrower.CreditScore}
	}

	a.plan = staticPlan(
		call{scoreAnalyzer, creditArgs},
		call{historyAnalyzer, creditArgs},
		call{dtiCalc, func(rc *core.RunContext, _ *core.AgentResult) map[string]any {
			app := rc.Application()
			return map[string]any{
				"loan_amount":     app.Loan.LoanAmount,
				"loan_term_years": app.Loan.LoanTermYears,
				"annual_income":   app.Borrower.AnnualIncome,
				"monthly_debt":    app.Borrower.MonthlyDebt,
			}
		}},
	)

	a.finalize = func(rc *core.RunContext, res *core.AgentResult) {
		if tr := res.Result(dtiCalc.Name()); tr != nil && tr.Success {
			if dti, ok := tr.Data["back_end_dti"].(float64); ok {
				rc.SetShared(SharedBackEndDTI, dti)
				if dti > 0.50 {
					res.RedFlags = append(res.RedFlags, "back-end DTI above 50%")
				} else if dti > 0.43 {
					res.Conditions = append(res.Conditions, "compensating factors required for DTI above 43%")
				}
			}
		}
		if rc.Application().Borrower.CreditScore > 0 && rc.Application().Borrower.CreditScore < 580 {
			res.RedFlags = append(res.RedFlags, "credit score below conventional minimum")
		}
	}

	return a
}
