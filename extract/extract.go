// Package extract defines the narrow interface through which the document
// agent reaches a document-intelligence backend, plus a deterministic static
// backend that needs no network. SDK-backed implementations live in the
// anthropic and openai subpackages.
package extract

import (
	"context"
	"strings"

	"github.com/hupe1980/mortgagemesh/core"
)

// Extraction is the structured output of one document extraction call.
type Extraction struct {
	DocumentType core.DocumentType `json:"document_type"`
	Fields       map[string]any    `json:"fields"`
	Confidence   float64           `json:"confidence"`
}

// DocumentExtractor extracts structured data from an attached document. It is
// the only external capability the core depends on; implementations must not
// mutate shared orchestrator state.
type DocumentExtractor interface {
	Extract(ctx context.Context, doc core.Document) (*Extraction, error)
}

// StaticExtractor is a deterministic in-process extractor. It classifies by
// document type and file name heuristics and returns canned field sets, which
// is sufficient for tests and offline runs.
type StaticExtractor struct{}

// NewStaticExtractor returns a ready-to-use static extractor.
func NewStaticExtractor() *StaticExtractor { return &StaticExtractor{} }

// Extract implements DocumentExtractor.
func (e *StaticExtractor) Extract(_ context.Context, doc core.Document) (*Extraction, error) {
	docType := doc.Type
	if docType == "" {
		docType = classifyByName(doc.FileName)
	}

	fields := map[string]any{"source": "static"}
	switch docType {
	case core.DocumentPayStub, core.DocumentIncome:
		fields["gross_monthly_income"] = 6250.0
		fields["pay_frequency"] = "monthly"
	case core.DocumentBankStatement:
		fields["average_balance"] = 18500.0
		fields["months_covered"] = 3
	case core.DocumentIdentity:
		fields["id_verified"] = true
	case core.DocumentAddressProof:
		fields["address_verified"] = true
	case core.DocumentTaxDocument:
		fields["reported_annual_income"] = 75000.0
	}

	return &Extraction{
		DocumentType: docType,
		Fields:       fields,
		Confidence:   0.92,
	}, nil
}

func classifyByName(name string) core.DocumentType {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "paystub"), strings.Contains(lower, "pay_stub"):
		return core.DocumentPayStub
	case strings.Contains(lower, "bank"):
		return core.DocumentBankStatement
	case strings.Contains(lower, "tax"), strings.Contains(lower, "w2"), strings.Contains(lower, "1099"):
		return core.DocumentTaxDocument
	case strings.Contains(lower, "license"), strings.Contains(lower, "passport"), strings.Contains(lower, "id"):
		return core.DocumentIdentity
	case strings.Contains(lower, "utility"), strings.Contains(lower, "lease"):
		return core.DocumentAddressProof
	default:
		return core.DocumentIncome
	}
}
