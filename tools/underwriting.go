package tools

import (
	"fmt"

	"github.com/hupe1980/mortgagemesh/core"
	"github.com/hupe1980/mortgagemesh/tool"
)

type decisionEngineParams struct {
	CreditScore   int      `json:"credit_score" description:"FICO credit score (300-850)"`
	LoanAmount    float64  `json:"loan_amount" description:"Requested loan amount"`
	PropertyValue float64  `json:"property_value" description:"Appraised or stated property value"`
	AnnualIncome  float64  `json:"annual_income" description:"Borrower gross annual income"`
	LoanTermYears *int     `json:"loan_term_years,omitempty" description:"Loan term in years (default 30)"`
	MonthlyDebt   *float64 `json:"monthly_debt,omitempty" description:"Existing monthly debt obligations"`
}

// NewLoanDecisionEngine returns the loan_decision_engine tool. It recomputes
// DTI and LTV from first principles so it stays usable standalone, then
// applies conventional underwriting bands.
func NewLoanDecisionEngine() *tool.FunctionTool {
	const name = "loan_decision_engine"

	return tool.NewFromStruct(
		name,
		"Applies underwriting rules over credit, DTI and LTV to recommend a loan decision.",
		decisionEngineParams{},
		func(_ *core.ToolContext, args map[string]any) (map[string]any, error) {
			fico, _ := intArg(args, "credit_score")
			loan, _ := floatArg(args, "loan_amount")
			value, _ := floatArg(args, "property_value")
			income, _ := floatArg(args, "annual_income")
			termYears := 30
			if t, ok := intArg(args, "loan_term_years"); ok && t > 0 {
				termYears = t
			}
			monthlyDebt := floatArgDefault(args, "monthly_debt", 0)

			if loan <= 0 || value <= 0 || income <= 0 {
				return nil, tool.NewToolError(name,
					"loan amount, property value and annual income must be positive", tool.CodeValidation)
			}

			ltv := loan / value
			payment := MonthlyPayment(loan, 0.065, termYears)
			dti := (payment + monthlyDebt) / (income / 12)

			var (
				score          float64
				conditions     []string
				denialReasons  []string
				recommendation string
			)

			creditScore := clamp01(float64(fico-300) / 550.0)
			score = 0.5*creditScore + 0.25*ltvBand(ltv) + 0.25*dtiBand(dti)

			switch {
			case fico < 580:
				denialReasons = append(denialReasons, "credit score below minimum threshold")
			case dti > 0.50:
				denialReasons = append(denialReasons, "debt-to-income ratio exceeds maximum")
			case ltv > 0.97:
				denialReasons = append(denialReasons, "loan-to-value ratio exceeds maximum")
			}

			switch {
			case len(denialReasons) > 0:
				recommendation = "deny"
			case score >= 0.75:
				recommendation = "approve"
			default:
				recommendation = "conditional"
				if dti > 0.43 {
					conditions = append(conditions, "reduce monthly debt obligations or increase down payment")
				}
				if ltv > 0.80 {
					conditions = append(conditions, "private mortgage insurance required")
				}
				if fico < 680 {
					conditions = append(conditions, "provide 12 months of clean payment history")
				}
			}

			return map[string]any{
				"recommendation": recommendation,
				"ltv":            round2(ltv),
				"dti":            round2(dti),
				"conditions":     conditions,
				"denial_reasons": denialReasons,
				"score":          round2(score),
			}, nil
		},
	)
}

// NewLoanLetterGenerator returns the loan_letter_generator tool. The schema
// is hand-written to constrain the decision enum.
func NewLoanLetterGenerator() *tool.FunctionTool {
	return tool.New(
		"loan_letter_generator",
		"Generates the borrower-facing decision letter text.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"decision": map[string]any{
					"type":        "string",
					"description": "Final loan decision",
					"enum":        []any{"APPROVED", "CONDITIONAL", "DENIED"},
				},
				"borrower_name": map[string]any{
					"type":        "string",
					"description": "Borrower full name for the letter salutation",
				},
				"loan_amount": map[string]any{
					"type":        "number",
					"description": "Requested loan amount",
				},
			},
			"required": []string{"decision", "borrower_name"},
		},
		func(_ *core.ToolContext, args map[string]any) (map[string]any, error) {
			decision, _ := stringArg(args, "decision")
			borrower, _ := stringArg(args, "borrower_name")
			amount := floatArgDefault(args, "loan_amount", 0)

			var body string
			switch decision {
			case "APPROVED":
				body = fmt.Sprintf("Dear %s,\n\nWe are pleased to inform you that your mortgage application for $%.2f has been approved.", borrower, amount)
			case "CONDITIONAL":
				body = fmt.Sprintf("Dear %s,\n\nYour mortgage application for $%.2f has been conditionally approved. Please review the attached conditions.", borrower, amount)
			default:
				body = fmt.Sprintf("Dear %s,\n\nAfter careful review we are unable to approve your mortgage application at this time. The specific reasons are listed in the adverse action notice.", borrower)
			}

			return map[string]any{
				"letter": body,
				"score":  1.0,
			}, nil
		},
	)
}

func ltvBand(ltv float64) float64 {
	switch {
	case ltv <= 0.80:
		return 1.0
	case ltv <= 0.90:
		return 0.75
	case ltv <= 0.95:
		return 0.5
	case ltv <= 1.0:
		return 0.25
	}
	return 0
}

func dtiBand(dti float64) float64 {
	switch {
	case dti <= 0.28:
		return 1.0
	case dti <= 0.36:
		return 0.85
	case dti <= 0.43:
		return 0.6
	case dti <= 0.50:
		return 0.3
	}
	return 0.1
}
