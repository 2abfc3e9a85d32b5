package agent

import (
	"fmt"

	"github.com/hupe1980/mortgagemesh/core"
	"github.com/hupe1980/mortgagemesh/extract"
	"github.com/hupe1980/mortgagemesh/tool"
	"github.com/hupe1980/mortgagemesh/tools"
)

// NewDocumentAgent builds the document_processing agent. It is the critical
// first stage: it extracts and validates every attached document and seeds
// the shared scratch space with document-evidenced income for the income
// verification stage.
func NewDocumentAgent(ex extract.DocumentExtractor) *DomainAgent {
	ocr := tools.NewOCRExtractor(ex)
	classifier := tools.NewDocumentClassifier()
	identity := tools.NewIdentityDocumentValidator()
	extractor := tools.NewDocumentExtractor(ex)
	addressProof := tools.NewAddressProofValidator()

	a := &DomainAgent{
		name:        StepDocumentProcessing,
		description: "Extracts, classifies and validates all attached borrower documents.",
		domain:      "document",
		critical:    true,
		tools:       []tool.Tool{ocr, classifier, identity, extractor, addressProof},
	}

	a.plan = func(rc *core.RunContext) []call {
		app := rc.Application()
		var calls []call

		for _, doc := range app.Documents {
			docID := doc.ID
			calls = append(calls, call{ocr, func(*core.RunContext, *core.AgentResult) map[string]any {
				return map[string]any{"document_id": docID}
			}})
		}
		for _, doc := range app.Documents {
			if doc.FileName == "" {
				continue
			}
			fileName := doc.FileName
			calls = append(calls, call{classifier, func(*core.RunContext, *core.AgentResult) map[string]any {
				return map[string]any{"file_name": fileName}
			}})
		}
		for _, doc := range incomeDocuments(app) {
			docID := doc.ID
			calls = append(calls, call{extractor, func(*core.RunContext, *core.AgentResult) map[string]any {
				return map[string]any{"document_id": docID}
			}})
		}

		calls = append(calls,
			call{identity, func(rc *core.RunContext, _ *core.AgentResult) map[string]any {
				b := rc.Application().Borrower
				return map[string]any{
					"full_name":     fmt.Sprintf("%s %s", b.FirstName, b.LastName),
					"date_of_birth": b.DateOfBirth,
				}
			}},
			call{addressProof, func(rc *core.RunContext, _ *core.AgentResult) map[string]any {
				return map[string]any{"address": rc.Application().Borrower.CurrentAddress}
			}},
		)

		return calls
	}

	a.finalize = func(rc *core.RunContext, res *core.AgentResult) {
		if len(rc.Application().Documents) == 0 {
			res.RedFlags = append(res.RedFlags, "no documents attached to application")
			res.Conditions = append(res.Conditions, "submit identity and income documentation")
		}

		for _, tr := range res.ToolResults {
			if tr.Tool != ocr.Name() || !tr.Success {
				continue
			}
			docID, _ := tr.Data["document_id"].(string)
			fields, _ := tr.Data["fields"].(map[string]any)
			if docID == "" || fields == nil {
				continue
			}
			rc.SetDocumentExtracted(docID, fields)

			if monthly, ok := fields["gross_monthly_income"].(float64); ok {
				rc.SetShared(SharedDocumentAnnualIncome, monthly*12)
			} else if annual, ok := fields["reported_annual_income"].(float64); ok {
				rc.SetShared(SharedDocumentAnnualIncome, annual)
			}
		}
	}

	return a
}

func incomeDocuments(app *core.Application) []core.Document {
	var out []core.Document
	for _, t := range []core.DocumentType{core.DocumentIncome, core.DocumentPayStub, core.DocumentTaxDocument} {
		out = append(out, app.DocumentsOfType(t)...)
	}
	return out
}
