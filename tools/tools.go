// Package tools provides the built-in mortgage processing tool catalog. Every
// tool is a deterministic function of its arguments (plus, for document
// tools, the attached documents on the application in context) and reports a
// normalized quality score under the "score" key so agents can aggregate
// heterogeneous tool outputs uniformly.
package tools

import (
	"math"

	"github.com/hupe1980/mortgagemesh/extract"
	"github.com/hupe1980/mortgagemesh/tool"
)

// All returns the complete built-in catalog, keyed by construction order. The
// extractor backs the document intelligence tools; pass a
// extract.NewStaticExtractor() for offline operation.
func All(ex extract.DocumentExtractor) []tool.Tool {
	return []tool.Tool{
		// document_processing
		NewOCRExtractor(ex),
		NewDocumentClassifier(),
		NewIdentityDocumentValidator(),
		NewDocumentExtractor(ex),
		NewAddressProofValidator(),
		// credit_assessment
		NewCreditScoreAnalyzer(),
		NewCreditHistoryAnalyzer(),
		NewDebtToIncomeCalculator(),
		// income_verification
		NewEmploymentVerificationTool(),
		NewSimpleIncomeCalculator(),
		NewIncomeConsistencyChecker(),
		// property_assessment
		NewPropertyValuationTool(),
		NewLTVCalculator(),
		NewPropertyRiskAnalyzer(),
		// risk_assessment
		NewKYCRiskScorer(),
		NewPEPSanctionsChecker(),
		// underwriting
		NewLoanDecisionEngine(),
		NewLoanLetterGenerator(),
	}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func floatArg(args map[string]any, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func floatArgDefault(args map[string]any, key string, def float64) float64 {
	if v, ok := floatArg(args, key); ok {
		return v
	}
	return def
}

func intArg(args map[string]any, key string) (int, bool) {
	if v, ok := floatArg(args, key); ok {
		return int(v), true
	}
	return 0, false
}

func stringArg(args map[string]any, key string) (string, bool) {
	v, ok := args[key].(string)
	return v, ok
}

func boolArg(args map[string]any, key string) (bool, bool) {
	v, ok := args[key].(bool)
	return v, ok
}
