package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/mortgagemesh/core"
	"github.com/hupe1980/mortgagemesh/extract"
	"github.com/hupe1980/mortgagemesh/tool"
)

func toolCtx(app *core.Application) *core.ToolContext {
	if app == nil {
		app = &core.Application{ID: "app-test"}
	}
	rc := core.NewRunContext(context.Background(), "exec-test", app, nil)
	return core.NewToolContext(rc, "call-test")
}

func TestAllCatalog(t *testing.T) {
	catalog := All(extract.NewStaticExtractor())
	assert.Len(t, catalog, 18)

	seen := map[string]bool{}
	for _, tl := range catalog {
		assert.NotEmpty(t, tl.Name())
		assert.NotEmpty(t, tl.Description())
		assert.False(t, seen[tl.Name()], "duplicate tool name %s", tl.Name())
		seen[tl.Name()] = true
	}
}

func TestCreditScoreAnalyzer(t *testing.T) {
	analyzer := NewCreditScoreAnalyzer()

	out, err := analyzer.Call(toolCtx(nil), map[string]any{"credit_score": 780})
	require.NoError(t, err)
	assert.Equal(t, "excellent", out["tier"])
	assert.InDelta(t, 0.87, out["score"].(float64), 0.01)

	out, err = analyzer.Call(toolCtx(nil), map[string]any{"credit_score": 560})
	require.NoError(t, err)
	assert.Equal(t, "poor", out["tier"])

	_, err = analyzer.Call(toolCtx(nil), map[string]any{"credit_score": 900})
	var te *tool.ToolError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, tool.CodeValidation, te.Code)
}

func TestDebtToIncomeCalculator(t *testing.T) {
	calc := NewDebtToIncomeCalculator()

	out, err := calc.Call(toolCtx(nil), map[string]any{
		"loan_amount":     300000.0,
		"loan_term_years": 30,
		"annual_income":   120000.0,
		"monthly_debt":    500.0,
	})
	require.NoError(t, err)

	payment := out["monthly_payment"].(float64)
	assert.InDelta(t, 1896.20, payment, 1.0)

	back := out["back_end_dti"].(float64)
	assert.InDelta(t, (payment+500)/10000, back, 0.01)
	assert.Equal(t, 1.0, out["score"])

	_, err = calc.Call(toolCtx(nil), map[string]any{
		"loan_amount":     300000.0,
		"loan_term_years": 30,
		"annual_income":   0.0,
	})
	assert.Error(t, err)
}

func TestLTVCalculator(t *testing.T) {
	calc := NewLTVCalculator()

	out, err := calc.Call(toolCtx(nil), map[string]any{
		"loan_amount":    240000.0,
		"property_value": 300000.0,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.8, out["ltv"])
	assert.Equal(t, false, out["pmi_required"])
	assert.Equal(t, 1.0, out["score"])

	out, err = calc.Call(toolCtx(nil), map[string]any{
		"loan_amount":    285000.0,
		"property_value": 300000.0,
	})
	require.NoError(t, err)
	assert.Equal(t, true, out["pmi_required"])
}

func TestPEPSanctionsChecker(t *testing.T) {
	checker := NewPEPSanctionsChecker()

	out, err := checker.Call(toolCtx(nil), map[string]any{
		"first_name": "Jane",
		"last_name":  "Homeowner",
	})
	require.NoError(t, err)
	assert.Equal(t, false, out["hit"])
	assert.Equal(t, 1.0, out["score"])

	out, err = checker.Call(toolCtx(nil), map[string]any{
		"first_name": "Sam",
		"last_name":  "Sanctioned",
	})
	require.NoError(t, err)
	assert.Equal(t, true, out["hit"])
	assert.Equal(t, true, out["hard_fail"])
	assert.Equal(t, 0.0, out["score"])
}

func TestEmploymentVerificationEnum(t *testing.T) {
	verifier := NewEmploymentVerificationTool()

	out, err := verifier.Call(toolCtx(nil), map[string]any{
		"employment_status": "employed",
		"employer":          "Acme Corp",
	})
	require.NoError(t, err)
	assert.Equal(t, true, out["verified"])

	_, err = verifier.Call(toolCtx(nil), map[string]any{"employment_status": "freelancing"})
	var te *tool.ToolError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, tool.CodeValidation, te.Code)
}

func TestIncomeConsistencyChecker(t *testing.T) {
	checker := NewIncomeConsistencyChecker()

	out, err := checker.Call(toolCtx(nil), map[string]any{
		"stated_annual_income":   100000.0,
		"document_annual_income": 98000.0,
	})
	require.NoError(t, err)
	assert.Equal(t, true, out["consistent"])

	out, err = checker.Call(toolCtx(nil), map[string]any{
		"stated_annual_income":   100000.0,
		"document_annual_income": 60000.0,
	})
	require.NoError(t, err)
	assert.Equal(t, false, out["consistent"])
	assert.Equal(t, 0.2, out["score"])

	out, err = checker.Call(toolCtx(nil), map[string]any{"stated_annual_income": 100000.0})
	require.NoError(t, err)
	assert.Equal(t, false, out["documented"])
	assert.Equal(t, 0.7, out["score"])
}

func TestOCRExtractor(t *testing.T) {
	ocr := NewOCRExtractor(extract.NewStaticExtractor())

	app := &core.Application{
		ID: "app-1",
		Documents: []core.Document{
			{ID: "doc-1", Type: core.DocumentPayStub, FileName: "paystub.pdf"},
		},
	}

	out, err := ocr.Call(toolCtx(app), map[string]any{"document_id": "doc-1"})
	require.NoError(t, err)
	assert.Equal(t, "pay_stub", out["document_type"])
	fields := out["fields"].(map[string]any)
	assert.Equal(t, 6250.0, fields["gross_monthly_income"])

	_, err = ocr.Call(toolCtx(app), map[string]any{"document_id": "missing"})
	var te *tool.ToolError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, tool.CodeExecution, te.Code)
}

type failingExtractor struct{}

func (failingExtractor) Extract(context.Context, core.Document) (*extract.Extraction, error) {
	return nil, errors.New("extraction backend down")
}

func TestOCRExtractorBackendFailure(t *testing.T) {
	ocr := NewOCRExtractor(failingExtractor{})

	app := &core.Application{
		ID:        "app-1",
		Documents: []core.Document{{ID: "doc-1", Type: core.DocumentIdentity}},
	}

	_, err := ocr.Call(toolCtx(app), map[string]any{"document_id": "doc-1"})
	var te *tool.ToolError
	require.ErrorAs(t, err, &te)
	assert.Contains(t, te.Message, "extraction backend down")
}

func TestLoanDecisionEngine(t *testing.T) {
	engine := NewLoanDecisionEngine()

	out, err := engine.Call(toolCtx(nil), map[string]any{
		"credit_score":    780,
		"loan_amount":     240000.0,
		"property_value":  400000.0,
		"annual_income":   150000.0,
		"loan_term_years": 30,
	})
	require.NoError(t, err)
	assert.Equal(t, "approve", out["recommendation"])

	out, err = engine.Call(toolCtx(nil), map[string]any{
		"credit_score":   540,
		"loan_amount":    240000.0,
		"property_value": 250000.0,
		"annual_income":  40000.0,
	})
	require.NoError(t, err)
	assert.Equal(t, "deny", out["recommendation"])
	assert.NotEmpty(t, out["denial_reasons"])
}

func TestLoanLetterGenerator(t *testing.T) {
	letter := NewLoanLetterGenerator()

	out, err := letter.Call(toolCtx(nil), map[string]any{
		"decision":      "APPROVED",
		"borrower_name": "Jane Homeowner",
		"loan_amount":   308000.0,
	})
	require.NoError(t, err)
	assert.Contains(t, out["letter"], "Jane Homeowner")
	assert.Contains(t, out["letter"], "approved")

	_, err = letter.Call(toolCtx(nil), map[string]any{
		"decision":      "MAYBE",
		"borrower_name": "Jane Homeowner",
	})
	assert.Error(t, err)
}
