package customer

import (
	"slices"
	"time"

	"github.com/bizconsult/crm/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// YearlySales is one year's revenue figure in 억원
type YearlySales struct {
	Year      int             `json:"year"`
	AmountEok decimal.Decimal `json:"amount_eok"`
}

func sortSales(sales []YearlySales) []YearlySales {
	out := slices.Clone(sales)
	slices.SortFunc(out, func(a, b YearlySales) int { return a.Year - b.Year })
	return out
}

// ProcessingOrg is a financial institution the application is routed through
type ProcessingOrg struct {
	Org             string          `json:"org"`
	Status          string          `json:"status"`
	AppliedAt       *time.Time      `json:"applied_at,omitempty"`
	ApprovedAt      *time.Time      `json:"approved_at,omitempty"`
	ExecutedAt      *time.Time      `json:"executed_at,omitempty"`
	RequestedAmount decimal.Decimal `json:"requested_amount"`
	ApprovedAmount  decimal.Decimal `json:"approved_amount"`
}

// Processing org statuses
const (
	OrgStatusApplied  = "신청"
	OrgStatusApproved = "승인"
	OrgStatusExecuted = "집행"
	OrgStatusRejected = "부결"
)

// PrimaryProcessingOrg returns the most relevant processing org name: the
// executed one when present, otherwise the most recently added.
func (c *Customer) PrimaryProcessingOrg() string {
	if len(c.ProcessingOrgs) == 0 {
		return ""
	}
	for _, o := range c.ProcessingOrgs {
		if o.Status == OrgStatusExecuted {
			return o.Org
		}
	}
	return c.ProcessingOrgs[len(c.ProcessingOrgs)-1].Org
}

// SetProcessingOrgs replaces the processing org list
func (c *Customer) SetProcessingOrgs(orgs []ProcessingOrg) error {
	seen := make(map[string]struct{}, len(orgs))
	for _, o := range orgs {
		if o.Org == "" {
			return shared.NewDomainError("INVALID_PROCESSING_ORG", "Processing org name is required")
		}
		if _, dup := seen[o.Org]; dup {
			return shared.NewDomainError("DUPLICATE_PROCESSING_ORG", "Processing org appears twice: "+o.Org)
		}
		seen[o.Org] = struct{}{}
	}
	c.ProcessingOrgs = orgs
	c.touch()
	return nil
}

func (c *Customer) upsertExecutedOrg(org string, executedAt *time.Time, amount decimal.Decimal, executed bool) {
	for i := range c.ProcessingOrgs {
		if c.ProcessingOrgs[i].Org == org {
			if executed {
				c.ProcessingOrgs[i].Status = OrgStatusExecuted
				c.ProcessingOrgs[i].ExecutedAt = executedAt
				c.ProcessingOrgs[i].ApprovedAmount = amount
			}
			return
		}
	}
	entry := ProcessingOrg{Org: org, Status: OrgStatusApplied}
	if executed {
		entry.Status = OrgStatusExecuted
		entry.ExecutedAt = executedAt
		entry.ApprovedAmount = amount
	}
	c.ProcessingOrgs = append(c.ProcessingOrgs, entry)
}

// Memo is one free-text note in the memo history
type Memo struct {
	ID         uuid.UUID `json:"id"`
	Content    string    `json:"content"`
	AuthorID   uuid.UUID `json:"author_id"`
	AuthorName string    `json:"author_name"`
	CreatedAt  time.Time `json:"created_at"`
}

// DocumentKind classifies uploaded documents for OCR routing
type DocumentKind string

const (
	DocumentKindBusinessRegistration DocumentKind = "business_registration"
	DocumentKindVATCertificate       DocumentKind = "vat_certificate"
	DocumentKindCreditReport         DocumentKind = "credit_report"
	DocumentKindOther                DocumentKind = "other"
)

// IsValid reports whether the kind is known
func (k DocumentKind) IsValid() bool {
	switch k {
	case DocumentKindBusinessRegistration, DocumentKindVATCertificate, DocumentKindCreditReport, DocumentKindOther:
		return true
	}
	return false
}

// Extractable reports whether OCR extraction applies to the kind
func (k DocumentKind) Extractable() bool {
	return k != DocumentKindOther && k.IsValid()
}

// OCRStatus tracks extraction progress of a document
type OCRStatus string

const (
	OCRStatusPending   OCRStatus = "pending"
	OCRStatusExtracted OCRStatus = "extracted"
	OCRStatusFailed    OCRStatus = "failed"
	OCRStatusSkipped   OCRStatus = "skipped"
)

// Document is a reference to an uploaded file in object storage
type Document struct {
	ID          uuid.UUID    `json:"id"`
	Kind        DocumentKind `json:"kind"`
	FileName    string       `json:"file_name"`
	ObjectKey   string       `json:"object_key"`
	ContentType string       `json:"content_type"`
	Size        int64        `json:"size"`
	UploadedAt  time.Time    `json:"uploaded_at"`
	OCRStatus   OCRStatus    `json:"ocr_status"`
}

// ObligationKind distinguishes loans from guarantees
type ObligationKind string

const (
	ObligationKindLoan      ObligationKind = "loan"
	ObligationKindGuarantee ObligationKind = "guarantee"
)

// FinancialObligation is one loan or guarantee line from the credit report
type FinancialObligation struct {
	Institution string          `json:"institution"`
	Kind        ObligationKind  `json:"kind"`
	Balance     decimal.Decimal `json:"balance"`
	OpenedAt    *time.Time      `json:"opened_at,omitempty"`
	MaturityAt  *time.Time      `json:"maturity_at,omitempty"`
}

// Validate checks an obligation line
func (o FinancialObligation) Validate() error {
	if o.Institution == "" {
		return shared.NewDomainError("INVALID_OBLIGATION", "Obligation institution is required")
	}
	if o.Kind != ObligationKindLoan && o.Kind != ObligationKindGuarantee {
		return shared.NewDomainError("INVALID_OBLIGATION", "Obligation kind must be loan or guarantee")
	}
	if o.Balance.IsNegative() {
		return shared.NewDomainError("INVALID_OBLIGATION", "Obligation balance cannot be negative")
	}
	return nil
}
