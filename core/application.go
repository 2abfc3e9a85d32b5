package core

import (
	"fmt"
	"strings"
	"time"
)

// ProcessingStatus tags an application with its position in the pipeline.
type ProcessingStatus string

const (
	ProcessingPending        ProcessingStatus = "pending"
	ProcessingInProgress     ProcessingStatus = "in_progress"
	ProcessingApproved       ProcessingStatus = "approved"
	ProcessingDenied         ProcessingStatus = "denied"
	ProcessingRequiresReview ProcessingStatus = "requires_review"
	ProcessingFailed         ProcessingStatus = "failed"
)

// DocumentType classifies an attached document.
type DocumentType string

const (
	DocumentIdentity      DocumentType = "identity"
	DocumentIncome        DocumentType = "income"
	DocumentEmployment    DocumentType = "employment"
	DocumentCredit        DocumentType = "credit"
	DocumentProperty      DocumentType = "property"
	DocumentAddressProof  DocumentType = "address_proof"
	DocumentBankStatement DocumentType = "bank_statement"
	DocumentPayStub       DocumentType = "pay_stub"
	DocumentTaxDocument   DocumentType = "tax_document"
)

// Document is a reference to an attached borrower document plus whatever
// structured data extraction has produced for it so far.
type Document struct {
	ID        string         `json:"id"`
	Type      DocumentType   `json:"type"`
	FileName  string         `json:"file_name,omitempty"`
	Extracted map[string]any `json:"extracted,omitempty"`
}

// Borrower holds the applicant identity and stated financials.
type Borrower struct {
	FirstName        string  `json:"first_name"`
	LastName         string  `json:"last_name"`
	SSN              string  `json:"ssn"`
	DateOfBirth      string  `json:"date_of_birth"`
	Email            string  `json:"email"`
	Phone            string  `json:"phone"`
	CurrentAddress   string  `json:"current_address,omitempty"`
	EmploymentStatus string  `json:"employment_status,omitempty"`
	Employer         string  `json:"employer,omitempty"`
	AnnualIncome     float64 `json:"annual_income"`
	MonthlyDebt      float64 `json:"monthly_debt,omitempty"`
	CreditScore      int     `json:"credit_score,omitempty"`
}

// Property describes the subject property.
type Property struct {
	Address       string  `json:"address"`
	PropertyType  string  `json:"property_type"`
	PropertyValue float64 `json:"property_value"`
	YearBuilt     int     `json:"year_built,omitempty"`
	FloodZone     bool    `json:"flood_zone,omitempty"`
}

// LoanRequest captures the requested loan terms.
type LoanRequest struct {
	LoanAmount    float64 `json:"loan_amount"`
	LoanType      string  `json:"loan_type"`
	LoanTermYears int     `json:"loan_term_years"`
	DownPayment   float64 `json:"down_payment"`
	Purpose       string  `json:"purpose"`
}

// Application is one mortgage application. It is immutable once a workflow
// run starts, except that the document agent may append extraction results to
// Documents mid-run (consumed by later stages in sequential mode only).
type Application struct {
	ID        string           `json:"application_id"`
	Borrower  Borrower         `json:"borrower"`
	Property  Property         `json:"property"`
	Loan      LoanRequest      `json:"loan"`
	Documents []Document       `json:"documents,omitempty"`
	Status    ProcessingStatus `json:"processing_status"`
	CreatedAt time.Time        `json:"created_at,omitempty"`
}

// Validate performs the structural checks that must pass before any agent is
// dispatched. It returns a *ValidationError naming the first offending field.
func (a *Application) Validate() error {
	switch {
	case strings.TrimSpace(a.ID) == "":
		return NewValidationError("application_id", "application id is required")
	case strings.TrimSpace(a.Borrower.FirstName) == "" || strings.TrimSpace(a.Borrower.LastName) == "":
		return NewValidationError("borrower", "borrower first and last name are required")
	case strings.TrimSpace(a.Property.Address) == "":
		return NewValidationError("property.address", "property address is required")
	case a.Property.PropertyValue <= 0:
		return NewValidationError("property.property_value", "property value must be positive")
	case a.Loan.LoanAmount <= 0:
		return NewValidationError("loan.loan_amount", "loan amount must be positive")
	case a.Loan.LoanTermYears <= 0 || a.Loan.LoanTermYears > 50:
		return NewValidationError("loan.loan_term_years", fmt.Sprintf("loan term %d out of range (1-50 years)", a.Loan.LoanTermYears))
	case a.Loan.DownPayment < 0:
		return NewValidationError("loan.down_payment", "down payment cannot be negative")
	}
	return nil
}

// Clone returns a deep copy safe for concurrent readers.
func (a *Application) Clone() *Application {
	cp := *a
	cp.Documents = make([]Document, len(a.Documents))
	for i, d := range a.Documents {
		dc := d
		if d.Extracted != nil {
			dc.Extracted = make(map[string]any, len(d.Extracted))
			for k, v := range d.Extracted {
				dc.Extracted[k] = v
			}
		}
		cp.Documents[i] = dc
	}
	return &cp
}

// DocumentsOfType filters the attached documents by type.
func (a *Application) DocumentsOfType(t DocumentType) []Document {
	var out []Document
	for _, d := range a.Documents {
		if d.Type == t {
			out = append(out, d)
		}
	}
	return out
}
