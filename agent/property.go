package agent

import (
	"github.com/hupe1980/mortgagemesh/core"
	"github.com/hupe1980/mortgagemesh/tool"
	"github.com/hupe1980/mortgagemesh/tools"
)

// NewPropertyAgent builds the property_assessment agent.
func NewPropertyAgent() *DomainAgent {
	valuation := tools.NewPropertyValuationTool()
	ltv := tools.NewLTVCalculator()
	risk := tools.NewPropertyRiskAnalyzer()

	a := &DomainAgent{
		name:        StepPropertyAssessment,
		description: "Values the subject property and assesses collateral risk.",
		domain:      "property",
		tools:       []tool.Tool{valuation, ltv, risk},
	}

	a.plan = staticPlan(
		call{valuation, func(rc *core.RunContext, _ *core.AgentResult) map[string]any {
			app := rc.Application()
			args := map[string]any{
				"property_value": app.Property.PropertyValue,
				"address":        app.Property.Address,
			}
			if app.Property.PropertyType != "" {
				args["property_type"] = app.Property.PropertyType
			}
			return args
		}},
		call{ltv, func(rc *core.RunContext, _ *core.AgentResult) map[string]any {
			app := rc.Application()
			return map[string]any{
				"loan_amount":    app.Loan.LoanAmount,
				"property_value": app.Property.PropertyValue,
			}
		}},
		call{risk, func(rc *core.RunContext, _ *core.AgentResult) map[string]any {
			p := rc.Application().Property
			args := map[string]any{}
			if p.PropertyType != "" {
				args["property_type"] = p.PropertyType
			}
			if p.YearBuilt > 0 {
				args["year_built"] = p.YearBuilt
			}
			if p.FloodZone {
				args["flood_zone"] = true
			}
			return args
		}},
	)

	a.finalize = func(rc *core.RunContext, res *core.AgentResult) {
		if tr := res.Result(ltv.Name()); tr != nil && tr.Success {
			if v, ok := tr.Data["ltv"].(float64); ok {
				rc.SetShared(SharedLTV, v)
				if v > 0.97 {
					res.RedFlags = append(res.RedFlags, "loan-to-value ratio above 97%")
				}
			}
			if pmi, ok := tr.Data["pmi_required"].(bool); ok && pmi {
				res.Conditions = append(res.Conditions, "private mortgage insurance required")
			}
		}
		if tr := res.Result(risk.Name()); tr != nil && tr.Success {
			if factors, ok := tr.Data["risk_factors"].([]string); ok && len(factors) > 0 {
				res.RedFlags = append(res.RedFlags, factors...)
			}
		}
	}

	return a
}
