package tools

import (
	"fmt"
	"strings"

	"github.com/hupe1980/mortgagemesh/core"
	"github.com/hupe1980/mortgagemesh/extract"
	"github.com/hupe1980/mortgagemesh/tool"
)

type ocrExtractorParams struct {
	DocumentID string `json:"document_id" description:"ID of an attached document to run OCR extraction on"`
}

// NewOCRExtractor returns the document_ocr_extractor tool. It resolves the
// referenced document on the in-context application and runs it through the
// configured extraction backend.
func NewOCRExtractor(ex extract.DocumentExtractor) *tool.FunctionTool {
	const name = "document_ocr_extractor"

	return tool.NewFromStruct(
		name,
		"Runs OCR-style extraction on an attached document and returns the raw extracted fields.",
		ocrExtractorParams{},
		func(toolCtx *core.ToolContext, args map[string]any) (map[string]any, error) {
			docID, _ := stringArg(args, "document_id")
			doc, ok := findDocument(toolCtx.Application(), docID)
			if !ok {
				return nil, tool.NewToolError(name,
					fmt.Sprintf("document %q not attached to application", docID),
					tool.CodeExecution)
			}

			res, err := ex.Extract(toolCtx.Context(), doc)
			if err != nil {
				return nil, tool.NewToolError(name, err.Error(), tool.CodeExecution)
			}

			return map[string]any{
				"document_id":   doc.ID,
				"document_type": string(res.DocumentType),
				"fields":        res.Fields,
				"confidence":    res.Confidence,
				"score":         clamp01(res.Confidence),
			}, nil
		},
	)
}

type documentClassifierParams struct {
	FileName    string  `json:"file_name" description:"File name of the document to classify"`
	ContentHint *string `json:"content_hint,omitempty" description:"Optional free-text hint about the document content"`
}

// NewDocumentClassifier returns the document_classifier tool. Classification
// is heuristic over file name and hint, with confidence reflecting signal
// strength.
func NewDocumentClassifier() *tool.FunctionTool {
	return tool.NewFromStruct(
		"document_classifier",
		"Classifies a document into a known mortgage document type.",
		documentClassifierParams{},
		func(_ *core.ToolContext, args map[string]any) (map[string]any, error) {
			fileName, _ := stringArg(args, "file_name")
			hint, _ := stringArg(args, "content_hint")

			docType, confidence := classifyDocument(fileName, hint)
			return map[string]any{
				"document_type": string(docType),
				"confidence":    confidence,
				"score":         confidence,
			}, nil
		},
	)
}

type identityValidatorParams struct {
	FullName    string  `json:"full_name" description:"Borrower full legal name to validate against identity documents"`
	DateOfBirth *string `json:"date_of_birth,omitempty" description:"Borrower date of birth (YYYY-MM-DD)"`
}

// NewIdentityDocumentValidator returns the identity_document_validator tool.
func NewIdentityDocumentValidator() *tool.FunctionTool {
	return tool.NewFromStruct(
		"identity_document_validator",
		"Validates that the application carries a usable identity document for the named borrower.",
		identityValidatorParams{},
		func(toolCtx *core.ToolContext, args map[string]any) (map[string]any, error) {
			fullName, _ := stringArg(args, "full_name")
			dob, _ := stringArg(args, "date_of_birth")

			idDocs := toolCtx.Application().DocumentsOfType(core.DocumentIdentity)

			score := 0.0
			issues := []string{}
			if len(idDocs) == 0 {
				issues = append(issues, "no identity document attached")
			} else {
				score = 0.6
				if strings.TrimSpace(fullName) != "" {
					score += 0.25
				} else {
					issues = append(issues, "borrower name missing")
				}
				if dob != "" {
					score += 0.15
				}
			}

			return map[string]any{
				"valid":          score >= 0.6,
				"documents_seen": len(idDocs),
				"issues":         issues,
				"score":          round2(score),
				"confidence":     round2(score),
			}, nil
		},
	)
}

type documentExtractorParams struct {
	DocumentID string `json:"document_id" description:"ID of an attached document to extract normalized fields from"`
}

// NewDocumentExtractor returns the document_extractor tool. Unlike the OCR
// tool it prefers fields already attached to the document (from an earlier
// extraction pass) and only falls back to the backend when none exist.
func NewDocumentExtractor(ex extract.DocumentExtractor) *tool.FunctionTool {
	const name = "document_extractor"

	return tool.NewFromStruct(
		name,
		"Returns normalized structured fields for an attached document, extracting on demand.",
		documentExtractorParams{},
		func(toolCtx *core.ToolContext, args map[string]any) (map[string]any, error) {
			docID, _ := stringArg(args, "document_id")
			doc, ok := findDocument(toolCtx.Application(), docID)
			if !ok {
				return nil, tool.NewToolError(name,
					fmt.Sprintf("document %q not attached to application", docID),
					tool.CodeExecution)
			}

			if len(doc.Extracted) > 0 {
				return map[string]any{
					"document_id":   doc.ID,
					"document_type": string(doc.Type),
					"fields":        doc.Extracted,
					"cached":        true,
					"score":         0.95,
				}, nil
			}

			res, err := ex.Extract(toolCtx.Context(), doc)
			if err != nil {
				return nil, tool.NewToolError(name, err.Error(), tool.CodeExecution)
			}

			return map[string]any{
				"document_id":   doc.ID,
				"document_type": string(res.DocumentType),
				"fields":        res.Fields,
				"cached":        false,
				"score":         clamp01(res.Confidence),
			}, nil
		},
	)
}

type addressProofParams struct {
	Address string `json:"address" description:"Borrower current address to verify"`
}

// NewAddressProofValidator returns the address_proof_validator tool.
func NewAddressProofValidator() *tool.FunctionTool {
	return tool.NewFromStruct(
		"address_proof_validator",
		"Checks that address proof documentation supports the stated borrower address.",
		addressProofParams{},
		func(toolCtx *core.ToolContext, args map[string]any) (map[string]any, error) {
			address, _ := stringArg(args, "address")

			app := toolCtx.Application()
			proofs := len(app.DocumentsOfType(core.DocumentAddressProof)) +
				len(app.DocumentsOfType(core.DocumentBankStatement))

			score := 0.0
			verified := false
			switch {
			case strings.TrimSpace(address) == "":
				// unverifiable, keep score at zero
			case proofs > 0:
				verified = true
				score = 0.9
			default:
				score = 0.4
			}

			return map[string]any{
				"verified":        verified,
				"proof_documents": proofs,
				"score":           score,
				"confidence":      score,
			}, nil
		},
	)
}

func findDocument(app *core.Application, id string) (core.Document, bool) {
	for _, d := range app.Documents {
		if d.ID == id {
			return d, true
		}
	}
	return core.Document{}, false
}

func classifyDocument(fileName, hint string) (core.DocumentType, float64) {
	text := strings.ToLower(fileName + " " + hint)
	switch {
	case strings.Contains(text, "paystub"), strings.Contains(text, "pay_stub"), strings.Contains(text, "pay stub"):
		return core.DocumentPayStub, 0.95
	case strings.Contains(text, "bank"):
		return core.DocumentBankStatement, 0.9
	case strings.Contains(text, "tax"), strings.Contains(text, "w2"), strings.Contains(text, "1099"):
		return core.DocumentTaxDocument, 0.9
	case strings.Contains(text, "license"), strings.Contains(text, "passport"), strings.Contains(text, "id"):
		return core.DocumentIdentity, 0.85
	case strings.Contains(text, "utility"), strings.Contains(text, "lease"):
		return core.DocumentAddressProof, 0.85
	case strings.Contains(text, "appraisal"), strings.Contains(text, "deed"):
		return core.DocumentProperty, 0.85
	default:
		return core.DocumentIncome, 0.5
	}
}
