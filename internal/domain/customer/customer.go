package customer

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bizconsult/crm/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Customer is the aggregate root of the consulting funnel. It holds the
// company identity, the funnel stage, contract and execution figures, and the
// embedded lists (processing orgs, memos, documents, obligations) that are
// stored with the record.
type Customer struct {
	shared.BaseAggregateRoot
	Name               string
	CompanyName        string
	RegistrationNumber string
	CorporateNumber    string
	Representative     string
	Phone              string
	Email              string
	Address            string
	Industry           string
	InflowSource       string
	FoundingDate       *time.Time
	Over7Years         bool

	Status      Status
	ManagerID   *uuid.UUID
	ManagerName string
	TeamID      *uuid.UUID

	CreditScore   int
	YearlySales   []YearlySales
	DesiredAmount decimal.Decimal // 만원

	ContractType    ContractType
	ContractDate    *time.Time
	ContractAmount  decimal.Decimal
	ExecutionDate   *time.Time
	ExecutionAmount decimal.Decimal
	FeeRate         decimal.Decimal
	ClawbackDate    *time.Time

	ProcessingOrgs []ProcessingOrg
	Memos          []Memo
	Documents      []Document
	Obligations    []FinancialObligation
}

// FieldChange records one field's old and new rendered value
type FieldChange struct {
	Field    string
	OldValue string
	NewValue string
}

var (
	phonePattern        = regexp.MustCompile(`^[0-9+\-\s()]{7,20}$`)
	emailPattern        = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	registrationPattern = regexp.MustCompile(`^\d{3}-?\d{2}-?\d{5}$`)
)

// NewCustomer creates a customer at intake in the awaiting-consultation stage
func NewCustomer(name, companyName, phone string) (*Customer, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if phone != "" {
		if err := validatePhone(phone); err != nil {
			return nil, err
		}
	}
	if utf8.RuneCountInString(companyName) > 200 {
		return nil, shared.NewDomainError("INVALID_COMPANY_NAME", "Company name cannot exceed 200 characters")
	}

	c := &Customer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              strings.TrimSpace(name),
		CompanyName:       strings.TrimSpace(companyName),
		Phone:             phone,
		Status:            StatusAwaiting,
		ContractAmount:    decimal.Zero,
		ExecutionAmount:   decimal.Zero,
		FeeRate:           decimal.Zero,
		DesiredAmount:     decimal.Zero,
	}
	c.AddDomainEvent(NewCustomerCreatedEvent(c))
	return c, nil
}

// AssignManager sets the responsible manager and team
func (c *Customer) AssignManager(managerID uuid.UUID, managerName string, teamID *uuid.UUID) {
	c.ManagerID = &managerID
	c.ManagerName = managerName
	c.TeamID = teamID
	c.touch()
}

// SetFoundingDate sets the founding date and recomputes the 7-year flag
func (c *Customer) SetFoundingDate(founding *time.Time, now time.Time) {
	c.FoundingDate = founding
	c.Over7Years = founding != nil && IsOver7Years(*founding, now)
	c.touch()
}

// SetRegistrationNumber validates and stores the business registration number
func (c *Customer) SetRegistrationNumber(number string) error {
	number = strings.TrimSpace(number)
	if number != "" && !registrationPattern.MatchString(number) {
		return shared.NewDomainError("INVALID_REGISTRATION_NUMBER", "Business registration number must be 10 digits (XXX-XX-XXXXX)")
	}
	c.RegistrationNumber = NormalizeRegistrationNumber(number)
	c.touch()
	return nil
}

// SetCreditScore stores the credit bureau score (0-1000)
func (c *Customer) SetCreditScore(score int) error {
	if score < 0 || score > 1000 {
		return shared.NewDomainError("INVALID_CREDIT_SCORE", "Credit score must be between 0 and 1000")
	}
	c.CreditScore = score
	c.touch()
	return nil
}

// SetYearlySales replaces the multi-year sales figures (억원)
func (c *Customer) SetYearlySales(sales []YearlySales) error {
	seen := make(map[int]struct{}, len(sales))
	for _, s := range sales {
		if s.Year < 1900 || s.Year > 2200 {
			return shared.NewDomainError("INVALID_SALES_YEAR", fmt.Sprintf("Invalid sales year: %d", s.Year))
		}
		if s.AmountEok.IsNegative() {
			return shared.NewDomainError("INVALID_SALES_AMOUNT", "Sales amount cannot be negative")
		}
		if _, dup := seen[s.Year]; dup {
			return shared.NewDomainError("DUPLICATE_SALES_YEAR", fmt.Sprintf("Sales year %d appears twice", s.Year))
		}
		seen[s.Year] = struct{}{}
	}
	c.YearlySales = sortSales(sales)
	c.touch()
	return nil
}

// SetDesiredAmount stores the funding amount the customer wants (만원)
func (c *Customer) SetDesiredAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Desired amount cannot be negative")
	}
	c.DesiredAmount = amount
	c.touch()
	return nil
}

// textFields maps editable free-text field names to their accessors.
var textFields = map[string]func(c *Customer) *string{
	"name":                func(c *Customer) *string { return &c.Name },
	"company_name":        func(c *Customer) *string { return &c.CompanyName },
	"representative":      func(c *Customer) *string { return &c.Representative },
	"phone":               func(c *Customer) *string { return &c.Phone },
	"email":               func(c *Customer) *string { return &c.Email },
	"address":             func(c *Customer) *string { return &c.Address },
	"industry":            func(c *Customer) *string { return &c.Industry },
	"inflow_source":       func(c *Customer) *string { return &c.InflowSource },
	"corporate_number":    func(c *Customer) *string { return &c.CorporateNumber },
	"registration_number": func(c *Customer) *string { return &c.RegistrationNumber },
}

// IsTextField reports whether field can be edited as free text
func IsTextField(field string) bool {
	_, ok := textFields[field]
	return ok
}

// SetTextField edits one free-text field and reports the change
func (c *Customer) SetTextField(field, value string) (FieldChange, error) {
	accessor, ok := textFields[field]
	if !ok {
		return FieldChange{}, shared.NewDomainError("INVALID_FIELD", fmt.Sprintf("Field %q is not editable", field))
	}
	value = strings.TrimSpace(value)
	switch field {
	case "name":
		if err := validateName(value); err != nil {
			return FieldChange{}, err
		}
	case "phone":
		if value != "" {
			if err := validatePhone(value); err != nil {
				return FieldChange{}, err
			}
		}
	case "email":
		if value != "" && !emailPattern.MatchString(value) {
			return FieldChange{}, shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
		}
	case "registration_number":
		if value != "" && !registrationPattern.MatchString(value) {
			return FieldChange{}, shared.NewDomainError("INVALID_REGISTRATION_NUMBER", "Business registration number must be 10 digits (XXX-XX-XXXXX)")
		}
		value = NormalizeRegistrationNumber(value)
	}
	if utf8.RuneCountInString(value) > 500 {
		return FieldChange{}, shared.NewDomainError("INVALID_FIELD", fmt.Sprintf("Field %q cannot exceed 500 characters", field))
	}

	ptr := accessor(c)
	change := FieldChange{Field: field, OldValue: *ptr, NewValue: value}
	*ptr = value
	c.touch()
	return change, nil
}

// ChangeStatus applies a status transition together with its supplementary
// fields. It returns the plan (for side-effect dispatch) and the list of
// changed fields. Nothing is modified when confirmation is still required.
func (c *Customer) ChangeStatus(target Status, s Supplement, actorID uuid.UUID) (TransitionPlan, []FieldChange, error) {
	if !target.IsValid() {
		return TransitionPlan{}, nil, ErrUnknownStatus
	}
	if target == c.Status {
		return TransitionPlan{}, nil, shared.NewDomainError("STATUS_UNCHANGED", "Customer is already in this status")
	}

	plan := PlanTransition(c, target, s)
	if plan.RequiresConfirmation() {
		missing := make([]string, len(plan.MissingFields))
		for i, f := range plan.MissingFields {
			missing[i] = string(f)
		}
		return plan, nil, shared.ErrConfirmationRequired.WithDetails(map[string]any{
			"target_status":  string(target),
			"missing_fields": missing,
		})
	}

	changes := []FieldChange{{Field: "status_code", OldValue: string(c.Status), NewValue: string(target)}}
	changes = append(changes, c.applySupplement(target, s)...)

	old := c.Status
	c.Status = target
	c.touch()
	c.AddDomainEvent(NewCustomerStatusChangedEvent(c, old, target, actorID))
	return plan, changes, nil
}

func (c *Customer) applySupplement(target Status, s Supplement) []FieldChange {
	var changes []FieldChange
	setDate := func(field string, dst **time.Time, v *time.Time) {
		if v == nil {
			return
		}
		changes = append(changes, FieldChange{Field: field, OldValue: formatDate(*dst), NewValue: formatDate(v)})
		d := *v
		*dst = &d
	}
	setAmount := func(field string, dst *decimal.Decimal, v decimal.Decimal) {
		if !v.IsPositive() {
			return
		}
		changes = append(changes, FieldChange{Field: field, OldValue: dst.String(), NewValue: v.String()})
		*dst = v
	}

	setDate(string(FieldContractDate), &c.ContractDate, s.ContractDate)
	setAmount(string(FieldContractAmount), &c.ContractAmount, s.ContractAmount)
	setDate(string(FieldExecutionDate), &c.ExecutionDate, s.ExecutionDate)
	setAmount(string(FieldExecutionAmount), &c.ExecutionAmount, s.ExecutionAmount)
	setAmount(string(FieldFeeRate), &c.FeeRate, s.FeeRate)
	setDate(string(FieldClawbackDate), &c.ClawbackDate, s.ClawbackDate)

	if ct := target.ContractType(); ct != ContractTypeNone && ct != c.ContractType {
		changes = append(changes, FieldChange{Field: "contract_type", OldValue: string(c.ContractType), NewValue: string(ct)})
		c.ContractType = ct
	}

	if s.ProcessingOrg != "" {
		old := c.PrimaryProcessingOrg()
		c.upsertExecutedOrg(s.ProcessingOrg, c.ExecutionDate, c.ExecutionAmount, target.IsExecuted())
		changes = append(changes, FieldChange{Field: string(FieldProcessingOrg), OldValue: old, NewValue: s.ProcessingOrg})
	}
	return changes
}

// AddMemo appends a free-text note to the memo history
func (c *Customer) AddMemo(content string, authorID uuid.UUID, authorName string) (*Memo, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, shared.NewDomainError("INVALID_MEMO", "Memo content cannot be empty")
	}
	if utf8.RuneCountInString(content) > 5000 {
		return nil, shared.NewDomainError("INVALID_MEMO", "Memo cannot exceed 5000 characters")
	}
	memo := Memo{
		ID:         uuid.New(),
		Content:    content,
		AuthorID:   authorID,
		AuthorName: authorName,
		CreatedAt:  time.Now(),
	}
	c.Memos = append(c.Memos, memo)
	c.touch()
	c.AddDomainEvent(NewCustomerMemoAddedEvent(c, memo))
	return &memo, nil
}

// AttachDocument appends an uploaded file reference
func (c *Customer) AttachDocument(doc Document) error {
	if doc.ObjectKey == "" {
		return shared.NewDomainError("INVALID_DOCUMENT", "Document object key is required")
	}
	if !doc.Kind.IsValid() {
		return shared.NewDomainError("INVALID_DOCUMENT_KIND", fmt.Sprintf("Unknown document kind: %s", doc.Kind))
	}
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now()
	}
	if doc.OCRStatus == "" {
		doc.OCRStatus = OCRStatusPending
	}
	c.Documents = append(c.Documents, doc)
	c.touch()
	c.AddDomainEvent(NewCustomerDocumentAttachedEvent(c, doc))
	return nil
}

// FindDocument returns the document with the given id
func (c *Customer) FindDocument(id uuid.UUID) (*Document, error) {
	for i := range c.Documents {
		if c.Documents[i].ID == id {
			return &c.Documents[i], nil
		}
	}
	return nil, ErrDocumentNotFound
}

// DetachDocument removes a document reference and returns it
func (c *Customer) DetachDocument(id uuid.UUID) (Document, error) {
	for i, d := range c.Documents {
		if d.ID == id {
			c.Documents = append(c.Documents[:i], c.Documents[i+1:]...)
			c.touch()
			return d, nil
		}
	}
	return Document{}, ErrDocumentNotFound
}

// MarkDocumentExtracted records the OCR outcome on a document
func (c *Customer) MarkDocumentExtracted(id uuid.UUID, status OCRStatus) error {
	doc, err := c.FindDocument(id)
	if err != nil {
		return err
	}
	doc.OCRStatus = status
	c.touch()
	return nil
}

// ReplaceObligations replaces the financial obligation list
func (c *Customer) ReplaceObligations(obligations []FinancialObligation) error {
	for _, o := range obligations {
		if err := o.Validate(); err != nil {
			return err
		}
	}
	c.Obligations = obligations
	c.touch()
	return nil
}

// TotalObligationBalance sums the outstanding balance of every obligation (won)
func (c *Customer) TotalObligationBalance() decimal.Decimal {
	total := decimal.Zero
	for _, o := range c.Obligations {
		total = total.Add(o.Balance)
	}
	return total
}

// LatestSales returns the most recent yearly sales figure (억원)
func (c *Customer) LatestSales() (YearlySales, bool) {
	if len(c.YearlySales) == 0 {
		return YearlySales{}, false
	}
	latest := c.YearlySales[0]
	for _, s := range c.YearlySales[1:] {
		if s.Year > latest.Year {
			latest = s
		}
	}
	return latest, true
}

// IsManagedBy reports whether userID is the assigned manager
func (c *Customer) IsManagedBy(userID uuid.UUID) bool {
	return c.ManagerID != nil && *c.ManagerID == userID
}

// touch stamps the modification time; the version is bumped by the
// repository when the write is accepted.
func (c *Customer) touch() {
	c.UpdatedAt = time.Now()
}

// NormalizeRegistrationNumber renders a 10-digit number as XXX-XX-XXXXX
func NormalizeRegistrationNumber(number string) string {
	digits := strings.ReplaceAll(number, "-", "")
	if len(digits) != 10 {
		return number
	}
	return digits[:3] + "-" + digits[3:5] + "-" + digits[5:]
}

func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Customer name cannot be empty")
	}
	if utf8.RuneCountInString(name) > 100 {
		return shared.NewDomainError("INVALID_NAME", "Customer name cannot exceed 100 characters")
	}
	return nil
}

func validatePhone(phone string) error {
	if !phonePattern.MatchString(phone) {
		return shared.NewDomainError("INVALID_PHONE", "Invalid phone number format")
	}
	return nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
