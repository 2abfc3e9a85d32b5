package core

import "time"

// Decision is the terminal verdict of a completed workflow run.
type Decision string

const (
	DecisionApproved    Decision = "APPROVED"
	DecisionConditional Decision = "CONDITIONAL"
	DecisionDenied      Decision = "DENIED"
)

// AdverseAction is one reason a loan was denied, in adverse-action-notice
// form (reason code + description + originating category).
type AdverseAction struct {
	ReasonCode  string `json:"reason_code"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// LoanTerms carries the indicative terms computed for an approved loan.
type LoanTerms struct {
	LoanAmount     float64 `json:"loan_amount"`
	InterestRate   float64 `json:"interest_rate"`
	TermYears      int     `json:"term_years"`
	MonthlyPayment float64 `json:"monthly_payment"`
	DownPayment    float64 `json:"down_payment"`
	PMIRequired    bool    `json:"pmi_required"`
	PMIMonthly     float64 `json:"pmi_monthly,omitempty"`
	APR            float64 `json:"apr,omitempty"`
}

// LoanDecision is computed exactly once, by the orchestrator's aggregation
// step, from the complete set of agent results. OverallScore is in [0,1] and
// DomainScores holds the per-domain aggregate scores that fed the weighted
// combination (skipped domains are absent, never zero-filled).
type LoanDecision struct {
	ApplicationID  string             `json:"application_id"`
	Decision       Decision           `json:"decision"`
	OverallScore   float64            `json:"overall_score"`
	DomainScores   map[string]float64 `json:"domain_scores"`
	Conditions     []string           `json:"conditions,omitempty"`
	AdverseActions []AdverseAction    `json:"adverse_actions,omitempty"`
	LoanTerms      *LoanTerms         `json:"loan_terms,omitempty"`
	Rationale      string             `json:"rationale,omitempty"`
	DecidedAt      time.Time          `json:"decided_at"`
}

// Clone returns a deep copy of the decision.
func (d *LoanDecision) Clone() *LoanDecision {
	if d == nil {
		return nil
	}
	cp := *d
	cp.DomainScores = make(map[string]float64, len(d.DomainScores))
	for k, v := range d.DomainScores {
		cp.DomainScores[k] = v
	}
	cp.Conditions = append([]string(nil), d.Conditions...)
	cp.AdverseActions = append([]AdverseAction(nil), d.AdverseActions...)
	if d.LoanTerms != nil {
		lt := *d.LoanTerms
		cp.LoanTerms = &lt
	}
	return &cp
}
