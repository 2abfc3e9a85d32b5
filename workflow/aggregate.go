package workflow

import (
	"fmt"
	"sort"
	"time"

	"github.com/hupe1980/mortgagemesh/core"
	"github.com/hupe1980/mortgagemesh/tools"
)

// decide folds the agent results into the final loan decision. Only domains
// that actually ran participate: their weights are renormalized so skipped
// steps neither help nor hurt the score. The computation depends only on the
// set of results, not on their arrival order.
func (o *Orchestrator) decide(app *core.Application, results []core.AgentResult) *core.LoanDecision {
	weights := o.cfg.Weights.ByDomain()

	decision := &core.LoanDecision{
		ApplicationID: app.ID,
		DomainScores:  make(map[string]float64, len(results)),
		DecidedAt:     time.Now(),
	}

	var (
		weightSum  float64
		scoreSum   float64
		hardFail   bool
		conditions []string
	)

	for _, res := range results {
		domain := o.domainOf(res.Agent)

		decision.DomainScores[domain] = res.Score

		w := weights[domain]
		weightSum += w
		scoreSum += w * res.Score

		if res.HardFail {
			hardFail = true
		}
		conditions = append(conditions, res.Conditions...)

		for _, flag := range res.RedFlags {
			decision.AdverseActions = append(decision.AdverseActions, core.AdverseAction{
				ReasonCode:  reasonCode(domain),
				Description: flag,
				Category:    domain,
			})
		}
		if !res.Success {
			decision.AdverseActions = append(decision.AdverseActions, core.AdverseAction{
				ReasonCode:  "STEP001",
				Description: fmt.Sprintf("assessment step %s did not complete: %s", res.Agent, res.Error),
				Category:    domain,
			})
		}
	}

	if weightSum > 0 {
		decision.OverallScore = scoreSum / weightSum
	}

	switch {
	case hardFail:
		decision.Decision = core.DecisionDenied
		decision.Rationale = "mandatory denial: compliance screening hit"
	case decision.OverallScore >= o.cfg.Thresholds.Approve:
		decision.Decision = core.DecisionApproved
		decision.Rationale = fmt.Sprintf("overall score %.2f meets approval threshold %.2f",
			decision.OverallScore, o.cfg.Thresholds.Approve)
	case decision.OverallScore >= o.cfg.Thresholds.Conditional:
		decision.Decision = core.DecisionConditional
		decision.Rationale = fmt.Sprintf("overall score %.2f qualifies for conditional approval",
			decision.OverallScore)
	default:
		decision.Decision = core.DecisionDenied
		decision.Rationale = fmt.Sprintf("overall score %.2f below conditional threshold %.2f",
			decision.OverallScore, o.cfg.Thresholds.Conditional)
	}

	decision.Conditions = dedupe(conditions)
	sortAdverseActions(decision.AdverseActions)

	// Adverse actions accompany denials only; conditions carry the caveats
	// for conditional approvals.
	if decision.Decision != core.DecisionDenied {
		decision.AdverseActions = nil
	}
	if decision.Decision == core.DecisionApproved {
		decision.LoanTerms = o.loanTerms(app, decision.OverallScore)
	}

	return decision
}

// loanTerms derives indicative terms for an approved loan. The rate starts
// from a base and improves with the overall score.
func (o *Orchestrator) loanTerms(app *core.Application, overall float64) *core.LoanTerms {
	rate := 0.075 - 0.02*overall
	payment := tools.MonthlyPayment(app.Loan.LoanAmount, rate, app.Loan.LoanTermYears)

	ltv := 0.0
	if app.Property.PropertyValue > 0 {
		ltv = app.Loan.LoanAmount / app.Property.PropertyValue
	}

	terms := &core.LoanTerms{
		LoanAmount:     app.Loan.LoanAmount,
		InterestRate:   rate,
		TermYears:      app.Loan.LoanTermYears,
		MonthlyPayment: payment,
		DownPayment:    app.Loan.DownPayment,
		PMIRequired:    ltv > 0.80,
		APR:            rate + 0.0025,
	}
	if terms.PMIRequired {
		// Standard annual PMI of 0.5% of the loan amount.
		terms.PMIMonthly = app.Loan.LoanAmount * 0.005 / 12
	}
	return terms
}

func (o *Orchestrator) domainOf(agentName string) string {
	a, err := o.registry.Agent(agentName)
	if err != nil {
		return agentName
	}
	return a.Domain()
}

var domainReasonCodes = map[string]string{
	"document":     "DOC001",
	"credit":       "CRD001",
	"income":       "INC001",
	"property":     "PRP001",
	"risk":         "RSK001",
	"underwriting": "UW001",
}

func reasonCode(domain string) string {
	if code, ok := domainReasonCodes[domain]; ok {
		return code
	}
	return "GEN001"
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func sortAdverseActions(actions []core.AdverseAction) {
	sort.Slice(actions, func(i, j int) bool {
		if actions[i].Category != actions[j].Category {
			return actions[i].Category < actions[j].Category
		}
		return actions[i].Description < actions[j].Description
	})
}
