package agent

import (
	"fmt"

	"github.com/hupe1980/mortgagemesh/core"
	"github.com/hupe1980/mortgagemesh/tool"
	"github.com/hupe1980/mortgagemesh/tools"
)

// NewRiskAgent builds the risk_assessment agent. Its domain score is the
// minimum of its tool scores because one bad compliance signal dominates, and
// a watchlist hit raises the hard-fail flag that mandates denial regardless
// of the weighted score.
func NewRiskAgent() *DomainAgent {
	kyc := tools.NewKYCRiskScorer()
	pep := tools.NewPEPSanctionsChecker()

	a := &DomainAgent{
		name:        StepRiskAssessment,
		description: "Performs KYC completeness checks and PEP/sanctions screening.",
		domain:      "risk",
		tools:       []tool.Tool{kyc, pep},
		reduce:      minScore,
	}

	a.plan = staticPlan(
		call{kyc, func(rc *core.RunContext, _ *core.AgentResult) map[string]any {
			b := rc.Application().Borrower
			args := map[string]any{
				"full_name": fmt.Sprintf("%s %s", b.FirstName, b.LastName),
			}
			if b.SSN != "" {
				args["ssn"] = b.SSN
			}
			if b.DateOfBirth != "" {
				args["date_of_birth"] = b.DateOfBirth
			}
			if b.Email != "" {
				args["email"] = b.Email
			}
			return args
		}},
		call{pep, func(rc *core.RunContext, _ *core.AgentResult) map[string]any {
			b := rc.Application().Borrower
			return map[string]any{
				"first_name": b.FirstName,
				"last_name":  b.LastName,
			}
		}},
	)

	a.finalize = func(_ *core.RunContext, res *core.AgentResult) {
		if tr := res.Result(pep.Name()); tr != nil && tr.Success {
			if hit, ok := tr.Data["hard_fail"].(bool); ok && hit {
				res.HardFail = true
				source, _ := tr.Data["source"].(string)
				res.RedFlags = append(res.RedFlags, fmt.Sprintf("borrower matched %s", source))
			}
		}
	}

	return a
}
