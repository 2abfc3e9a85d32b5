package tools

import (
	"math"
	"strings"

	"github.com/hupe1980/mortgagemesh/core"
	"github.com/hupe1980/mortgagemesh/tool"
)

// NewEmploymentVerificationTool returns the employment_verification_tool. The
// schema is hand-written to carry the employment status enum.
func NewEmploymentVerificationTool() *tool.FunctionTool {
	return tool.New(
		"employment_verification_tool",
		"Verifies borrower employment status and employer information.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"employment_status": map[string]any{
					"type":        "string",
					"description": "Borrower employment status",
					"enum":        []any{"employed", "self_employed", "retired", "unemployed"},
				},
				"employer": map[string]any{
					"type":        "string",
					"description": "Employer name, if any",
				},
			},
			"required": []string{"employment_status"},
		},
		func(_ *core.ToolContext, args map[string]any) (map[string]any, error) {
			status, _ := stringArg(args, "employment_status")
			employer, _ := stringArg(args, "employer")

			var score float64
			switch status {
			case "employed":
				score = 0.95
			case "self_employed":
				score = 0.8
			case "retired":
				score = 0.75
			case "unemployed":
				score = 0.1
			}
			if status != "unemployed" && status != "retired" && strings.TrimSpace(employer) == "" {
				score -= 0.2
			}
			score = clamp01(score)

			return map[string]any{
				"verified":          score >= 0.5,
				"employment_status": status,
				"employer":          employer,
				"score":             round2(score),
			}, nil
		},
	)
}

type incomeCalculatorParams struct {
	AnnualIncome float64  `json:"annual_income" description:"Stated gross annual income"`
	BonusIncome  *float64 `json:"bonus_income,omitempty" description:"Annual bonus or variable income"`
}

// NewSimpleIncomeCalculator returns the simple_income_calculator tool.
// Variable income is discounted to 75% of stated, a common qualifying rule.
func NewSimpleIncomeCalculator() *tool.FunctionTool {
	const name = "simple_income_calculator"

	return tool.NewFromStruct(
		name,
		"Derives qualifying monthly income from stated annual and bonus income.",
		incomeCalculatorParams{},
		func(_ *core.ToolContext, args map[string]any) (map[string]any, error) {
			annual, _ := floatArg(args, "annual_income")
			bonus := floatArgDefault(args, "bonus_income", 0)

			if annual <= 0 {
				return nil, tool.NewToolError(name, "annual income must be positive", tool.CodeValidation)
			}

			qualifyingAnnual := annual + 0.75*bonus
			monthly := qualifyingAnnual / 12

			var score float64
			switch {
			case monthly >= 8000:
				score = 1.0
			case monthly >= 5000:
				score = 0.85
			case monthly >= 3000:
				score = 0.6
			default:
				score = 0.35
			}

			return map[string]any{
				"qualifying_annual_income":  round2(qualifyingAnnual),
				"qualifying_monthly_income": round2(monthly),
				"score":                     score,
			}, nil
		},
	)
}

type consistencyParams struct {
	StatedAnnualIncome   float64  `json:"stated_annual_income" description:"Income stated on the application"`
	DocumentAnnualIncome *float64 `json:"document_annual_income,omitempty" description:"Annualized income evidenced by documents"`
}

// NewIncomeConsistencyChecker returns the income_consistency_checker tool. It
// compares stated income against document-evidenced income; absent documents
// it reports a moderate, non-blocking score.
func NewIncomeConsistencyChecker() *tool.FunctionTool {
	const name = "income_consistency_checker"

	return tool.NewFromStruct(
		name,
		"Checks stated income against income evidenced by attached documents.",
		consistencyParams{},
		func(_ *core.ToolContext, args map[string]any) (map[string]any, error) {
			stated, _ := floatArg(args, "stated_annual_income")
			if stated <= 0 {
				return nil, tool.NewToolError(name, "stated annual income must be positive", tool.CodeValidation)
			}

			documented, hasDocs := floatArg(args, "document_annual_income")
			if !hasDocs || documented <= 0 {
				return map[string]any{
					"consistent": false,
					"documented": false,
					"score":      0.7,
					"note":       "no document-evidenced income available",
				}, nil
			}

			deviation := math.Abs(stated-documented) / stated
			score := clamp01(1 - 2*deviation)

			return map[string]any{
				"consistent":        deviation <= 0.10,
				"documented":        true,
				"deviation_percent": round2(deviation * 100),
				"score":             round2(score),
			}, nil
		},
	)
}
