package tools

import (
	"math"

	"github.com/hupe1980/mortgagemesh/core"
	"github.com/hupe1980/mortgagemesh/tool"
)

type creditScoreParams struct {
	CreditScore int `json:"credit_score" description:"FICO credit score (300-850)"`
}

// NewCreditScoreAnalyzer returns the credit_score_analyzer tool. The score is
// the FICO value normalized onto [0,1] with tier labels matching standard
// lender bands.
func NewCreditScoreAnalyzer() *tool.FunctionTool {
	const name = "credit_score_analyzer"

	return tool.NewFromStruct(
		name,
		"Analyzes a FICO credit score and derives a normalized creditworthiness score and tier.",
		creditScoreParams{},
		func(_ *core.ToolContext, args map[string]any) (map[string]any, error) {
			fico, _ := intArg(args, "credit_score")
			if fico < 300 || fico > 850 {
				return nil, tool.NewToolError(name, "credit score out of range (300-850)", tool.CodeValidation)
			}

			score := clamp01(float64(fico-300) / 550.0)

			tier := "poor"
			switch {
			case fico >= 760:
				tier = "excellent"
			case fico >= 700:
				tier = "good"
			case fico >= 640:
				tier = "fair"
			}

			recommendations := []string{}
			if fico < 640 {
				recommendations = append(recommendations, "consider manual underwriting review")
			}
			if fico < 580 {
				recommendations = append(recommendations, "score below conventional minimum")
			}

			return map[string]any{
				"credit_score":    fico,
				"tier":            tier,
				"recommendations": recommendations,
				"score":           round2(score),
			}, nil
		},
	)
}

type creditHistoryParams struct {
	CreditScore  int  `json:"credit_score" description:"FICO credit score (300-850)"`
	LatePayments *int `json:"late_payments,omitempty" description:"Number of late payments in the last 24 months"`
	Utilization  *int `json:"utilization_percent,omitempty" description:"Revolving credit utilization percentage"`
}

// NewCreditHistoryAnalyzer returns the credit_history_analyzer tool.
func NewCreditHistoryAnalyzer() *tool.FunctionTool {
	return tool.NewFromStruct(
		"credit_history_analyzer",
		"Evaluates payment history and credit utilization patterns.",
		creditHistoryParams{},
		func(_ *core.ToolContext, args map[string]any) (map[string]any, error) {
			fico, _ := intArg(args, "credit_score")
			late, _ := intArg(args, "late_payments")
			utilization := floatArgDefault(args, "utilization_percent", 30)

			historyScore := clamp01(float64(fico-300) / 550.0)
			historyScore -= 0.1 * float64(late)
			if utilization > 50 {
				historyScore -= 0.1
			}
			historyScore = clamp01(historyScore)

			flags := []string{}
			if late > 2 {
				flags = append(flags, "repeated late payments in last 24 months")
			}
			if utilization > 80 {
				flags = append(flags, "very high revolving utilization")
			}

			return map[string]any{
				"late_payments":       late,
				"utilization_percent": utilization,
				"flags":               flags,
				"score":               round2(historyScore),
			}, nil
		},
	)
}

type dtiParams struct {
	LoanAmount    float64  `json:"loan_amount" description:"Requested loan amount"`
	LoanTermYears int      `json:"loan_term_years" description:"Loan term in years"`
	AnnualIncome  float64  `json:"annual_income" description:"Borrower gross annual income"`
	MonthlyDebt   *float64 `json:"monthly_debt,omitempty" description:"Existing monthly debt obligations"`
	AnnualRate    *float64 `json:"annual_rate,omitempty" description:"Assumed annual interest rate (default 0.065)"`
}

// NewDebtToIncomeCalculator returns the debt_to_income_calculator tool. It
// amortizes the requested loan at the assumed rate and reports front- and
// back-end DTI ratios.
func NewDebtToIncomeCalculator() *tool.FunctionTool {
	const name = "debt_to_income_calculator"

	return tool.NewFromStruct(
		name,
		"Computes front-end and back-end debt-to-income ratios for the requested loan.",
		dtiParams{},
		func(_ *core.ToolContext, args map[string]any) (map[string]any, error) {
			loanAmount, _ := floatArg(args, "loan_amount")
			termYears, _ := intArg(args, "loan_term_years")
			annualIncome, _ := floatArg(args, "annual_income")
			monthlyDebt := floatArgDefault(args, "monthly_debt", 0)
			rate := floatArgDefault(args, "annual_rate", 0.065)

			if annualIncome <= 0 {
				return nil, tool.NewToolError(name, "annual income must be positive", tool.CodeValidation)
			}
			if loanAmount <= 0 || termYears <= 0 {
				return nil, tool.NewToolError(name, "loan amount and term must be positive", tool.CodeValidation)
			}

			payment := MonthlyPayment(loanAmount, rate, termYears)
			monthlyIncome := annualIncome / 12

			frontDTI := payment / monthlyIncome
			backDTI := (payment + monthlyDebt) / monthlyIncome

			var score float64
			switch {
			case backDTI <= 0.28:
				score = 1.0
			case backDTI <= 0.36:
				score = 0.85
			case backDTI <= 0.43:
				score = 0.6
			case backDTI <= 0.50:
				score = 0.3
			default:
				score = 0.1
			}

			return map[string]any{
				"monthly_payment": round2(payment),
				"front_end_dti":   round2(frontDTI),
				"back_end_dti":    round2(backDTI),
				"score":           score,
			}, nil
		},
	)
}

// MonthlyPayment computes the fixed monthly payment for a fully amortizing
// loan. Exposed so the underwriting engine reuses the identical amortization.
func MonthlyPayment(principal, annualRate float64, termYears int) float64 {
	n := float64(termYears * 12)
	if annualRate <= 0 {
		return principal / n
	}
	r := annualRate / 12
	return principal * r * math.Pow(1+r, n) / (math.Pow(1+r, n) - 1)
}
