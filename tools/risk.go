package tools

import (
	"strings"

	"github.com/hupe1980/mortgagemesh/core"
	"github.com/hupe1980/mortgagemesh/tool"
)

type kycParams struct {
	FullName    string  `json:"full_name" description:"Borrower full legal name"`
	SSN         *string `json:"ssn,omitempty" description:"Borrower SSN"`
	DateOfBirth *string `json:"date_of_birth,omitempty" description:"Borrower date of birth (YYYY-MM-DD)"`
	Email       *string `json:"email,omitempty" description:"Borrower email address"`
}

// NewKYCRiskScorer returns the kyc_risk_scorer tool. The score reflects
// identity data completeness; missing core identifiers lower it.
func NewKYCRiskScorer() *tool.FunctionTool {
	const name = "kyc_risk_scorer"

	return tool.NewFromStruct(
		name,
		"Scores know-your-customer identity completeness and risk.",
		kycParams{},
		func(_ *core.ToolContext, args map[string]any) (map[string]any, error) {
			fullName, _ := stringArg(args, "full_name")
			if strings.TrimSpace(fullName) == "" {
				return nil, tool.NewToolError(name, "full name is required", tool.CodeValidation)
			}

			score := 0.5
			missing := []string{}
			if ssn, _ := stringArg(args, "ssn"); strings.TrimSpace(ssn) != "" {
				score += 0.25
			} else {
				missing = append(missing, "ssn")
			}
			if dob, _ := stringArg(args, "date_of_birth"); dob != "" {
				score += 0.15
			} else {
				missing = append(missing, "date_of_birth")
			}
			if email, _ := stringArg(args, "email"); email != "" {
				score += 0.10
			} else {
				missing = append(missing, "email")
			}

			return map[string]any{
				"missing_identifiers": missing,
				"score":               round2(clamp01(score)),
			}, nil
		},
	)
}

type pepParams struct {
	FirstName string `json:"first_name" description:"Borrower first name"`
	LastName  string `json:"last_name" description:"Borrower last name"`
}

// watchlist holds the surnames treated as confirmed PEP or sanctions hits.
// A real deployment replaces this with a screening provider.
var watchlist = map[string]string{
	"sanctioned": "OFAC SDN list",
	"embargo":    "OFAC SDN list",
	"pepperton":  "PEP registry",
}

// NewPEPSanctionsChecker returns the pep_sanctions_checker tool. A hit sets
// hard_fail, which the risk agent propagates as a mandatory denial.
func NewPEPSanctionsChecker() *tool.FunctionTool {
	return tool.NewFromStruct(
		"pep_sanctions_checker",
		"Screens the borrower against PEP and sanctions watchlists.",
		pepParams{},
		func(_ *core.ToolContext, args map[string]any) (map[string]any, error) {
			last, _ := stringArg(args, "last_name")

			source, hit := watchlist[strings.ToLower(strings.TrimSpace(last))]

			out := map[string]any{
				"hit":       hit,
				"hard_fail": hit,
			}
			if hit {
				out["source"] = source
				out["score"] = 0.0
			} else {
				out["score"] = 1.0
			}
			return out, nil
		},
	)
}
