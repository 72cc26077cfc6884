package customer

import (
	"time"

	"github.com/bizconsult/crm/internal/domain/activity"
	"github.com/bizconsult/crm/internal/domain/customer"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateCustomerInput represents input for taking in a customer
type CreateCustomerInput struct {
	Name               string           `json:"name" binding:"required,max=100"`
	CompanyName        string           `json:"company_name" binding:"max=200"`
	Phone              string           `json:"phone" binding:"omitempty,max=20"`
	Email              string           `json:"email" binding:"omitempty,email"`
	RegistrationNumber string           `json:"registration_number"`
	Representative     string           `json:"representative"`
	Address            string           `json:"address"`
	Industry           string           `json:"industry"`
	InflowSource       string           `json:"inflow_source"`
	FoundingDate       *time.Time       `json:"founding_date"`
	DesiredAmount      *decimal.Decimal `json:"desired_amount"`
	ManagerID          *uuid.UUID       `json:"manager_id"`
}

// UpdateCustomerInput represents a partial customer update. Nil fields are
// left unchanged; Text holds free-text fields keyed by field name.
type UpdateCustomerInput struct {
	Text           map[string]string        `json:"text"`
	FoundingDate   *time.Time               `json:"founding_date"`
	ClearFounding  bool                     `json:"clear_founding_date"`
	CreditScore    *int                     `json:"credit_score"`
	YearlySales    []customer.YearlySales   `json:"yearly_sales"`
	DesiredAmount  *decimal.Decimal         `json:"desired_amount"`
	ProcessingOrgs []customer.ProcessingOrg `json:"processing_orgs"`
	ManagerID      *uuid.UUID               `json:"manager_id"`
}

// ListCustomersInput represents the list query
type ListCustomersInput struct {
	Page        int        `form:"page" binding:"omitempty,min=1"`
	PageSize    int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy     string     `form:"order_by"`
	OrderDir    string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Search      string     `form:"search"`
	Status      string     `form:"status"`
	ManagerID   *uuid.UUID `form:"manager_id"`
	TeamID      *uuid.UUID `form:"team_id"`
	CreatedFrom *time.Time `form:"created_from" time_format:"2006-01-02"`
	CreatedTo   *time.Time `form:"created_to" time_format:"2006-01-02"`
}

// CustomerDTO is the full customer record
type CustomerDTO struct {
	ID                 uuid.UUID                      `json:"id"`
	Name               string                         `json:"name"`
	CompanyName        string                         `json:"company_name"`
	RegistrationNumber string                         `json:"registration_number,omitempty"`
	CorporateNumber    string                         `json:"corporate_number,omitempty"`
	Representative     string                         `json:"representative,omitempty"`
	Phone              string                         `json:"phone,omitempty"`
	Email              string                         `json:"email,omitempty"`
	Address            string                         `json:"address,omitempty"`
	Industry           string                         `json:"industry,omitempty"`
	InflowSource       string                         `json:"inflow_source,omitempty"`
	FoundingDate       *time.Time                     `json:"founding_date,omitempty"`
	Over7Years         bool                           `json:"over_7_years"`
	StatusCode         string                         `json:"status_code"`
	ManagerID          *uuid.UUID                     `json:"manager_id,omitempty"`
	ManagerName        string                         `json:"manager_name,omitempty"`
	TeamID             *uuid.UUID                     `json:"team_id,omitempty"`
	CreditScore        int                            `json:"credit_score"`
	YearlySales        []customer.YearlySales         `json:"yearly_sales"`
	DesiredAmount      decimal.Decimal                `json:"desired_amount"`
	ContractType       string                         `json:"contract_type,omitempty"`
	ContractDate       *time.Time                     `json:"contract_date,omitempty"`
	ContractAmount     decimal.Decimal                `json:"contract_amount"`
	ExecutionDate      *time.Time                     `json:"execution_date,omitempty"`
	ExecutionAmount    decimal.Decimal                `json:"execution_amount"`
	FeeRate            decimal.Decimal                `json:"fee_rate"`
	ClawbackDate       *time.Time                     `json:"clawback_date,omitempty"`
	ProcessingOrgs     []customer.ProcessingOrg       `json:"processing_orgs"`
	MemoHistory        []customer.Memo                `json:"memo_history"`
	Documents          []customer.Document            `json:"documents"`
	Obligations        []customer.FinancialObligation `json:"financial_obligations"`
	Version            int                            `json:"version"`
	CreatedAt          time.Time                      `json:"created_at"`
	UpdatedAt          time.Time                      `json:"updated_at"`
}

// ToCustomerDTO converts a domain customer
func ToCustomerDTO(c *customer.Customer) CustomerDTO {
	return CustomerDTO{
		ID:                 c.ID,
		Name:               c.Name,
		CompanyName:        c.CompanyName,
		RegistrationNumber: c.RegistrationNumber,
		CorporateNumber:    c.CorporateNumber,
		Representative:     c.Representative,
		Phone:              c.Phone,
		Email:              c.Email,
		Address:            c.Address,
		Industry:           c.Industry,
		InflowSource:       c.InflowSource,
		FoundingDate:       c.FoundingDate,
		Over7Years:         c.Over7Years,
		StatusCode:         string(c.Status),
		ManagerID:          c.ManagerID,
		ManagerName:        c.ManagerName,
		TeamID:             c.TeamID,
		CreditScore:        c.CreditScore,
		YearlySales:        nonNil(c.YearlySales),
		DesiredAmount:      c.DesiredAmount,
		ContractType:       string(c.ContractType),
		ContractDate:       c.ContractDate,
		ContractAmount:     c.ContractAmount,
		ExecutionDate:      c.ExecutionDate,
		ExecutionAmount:    c.ExecutionAmount,
		FeeRate:            c.FeeRate,
		ClawbackDate:       c.ClawbackDate,
		ProcessingOrgs:     nonNil(c.ProcessingOrgs),
		MemoHistory:        nonNil(c.Memos),
		Documents:          nonNil(c.Documents),
		Obligations:        nonNil(c.Obligations),
		Version:            c.GetVersion(),
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}

// CustomerListItemDTO is the row shown in the customer table
type CustomerListItemDTO struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	CompanyName string     `json:"company_name"`
	Phone       string     `json:"phone,omitempty"`
	StatusCode  string     `json:"status_code"`
	ManagerID   *uuid.UUID `json:"manager_id,omitempty"`
	ManagerName string     `json:"manager_name,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ToCustomerListItemDTO converts a domain customer to a table row
func ToCustomerListItemDTO(c *customer.Customer) CustomerListItemDTO {
	return CustomerListItemDTO{
		ID:          c.ID,
		Name:        c.Name,
		CompanyName: c.CompanyName,
		Phone:       c.Phone,
		StatusCode:  string(c.Status),
		ManagerID:   c.ManagerID,
		ManagerName: c.ManagerName,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// MemoInput appends a memo
type MemoInput struct {
	Content string `json:"content" binding:"required,max=5000"`
}

// CounselingInput appends a counseling note
type CounselingInput struct {
	Channel string `json:"channel" binding:"omitempty,oneof=phone visit message email"`
	Content string `json:"content" binding:"required"`
}

// CounselingDTO is a counseling note
type CounselingDTO struct {
	ID            uuid.UUID `json:"id"`
	Channel       string    `json:"channel"`
	Content       string    `json:"content"`
	CounselorID   uuid.UUID `json:"counselor_id"`
	CounselorName string    `json:"counselor_name"`
	CreatedAt     time.Time `json:"created_at"`
}

func toCounselingDTO(l *activity.CounselingLog) CounselingDTO {
	return CounselingDTO{
		ID:            l.ID,
		Channel:       string(l.Channel),
		Content:       l.Content,
		CounselorID:   l.CounselorID,
		CounselorName: l.CounselorName,
		CreatedAt:     l.CreatedAt,
	}
}

// HistoryDTO is one audit entry
type HistoryDTO struct {
	ID        uuid.UUID `json:"id"`
	Action    string    `json:"action"`
	Field     string    `json:"field,omitempty"`
	OldValue  string    `json:"old_value,omitempty"`
	NewValue  string    `json:"new_value,omitempty"`
	ActorID   uuid.UUID `json:"actor_id"`
	ActorName string    `json:"actor_name"`
	CreatedAt time.Time `json:"created_at"`
}

// StatusLogDTO is one funnel transition
type StatusLogDTO struct {
	ID         uuid.UUID `json:"id"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	ActorID    uuid.UUID `json:"actor_id"`
	ActorName  string    `json:"actor_name"`
	Note       string    `json:"note,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ActivityDTO bundles the audit trail of a customer
type ActivityDTO struct {
	History    []HistoryDTO    `json:"history"`
	Status     []StatusLogDTO  `json:"status"`
	Counseling []CounselingDTO `json:"counseling"`
}

// ChangeStatusInput requests a funnel transition with its supplementary fields
type ChangeStatusInput struct {
	Status          string           `json:"status" binding:"required"`
	ContractDate    *time.Time       `json:"contract_date"`
	ContractAmount  *decimal.Decimal `json:"contract_amount"`
	ExecutionDate   *time.Time       `json:"execution_date"`
	ExecutionAmount *decimal.Decimal `json:"execution_amount"`
	FeeRate         *decimal.Decimal `json:"fee_rate"`
	ProcessingOrg   string           `json:"processing_org"`
	ClawbackDate    *time.Time       `json:"clawback_date"`
	Note            string           `json:"note" binding:"max=1000"`
}

// Supplement converts the request into the domain supplement
func (in ChangeStatusInput) Supplement() customer.Supplement {
	s := customer.Supplement{
		ContractDate:  in.ContractDate,
		ExecutionDate: in.ExecutionDate,
		ProcessingOrg: in.ProcessingOrg,
		ClawbackDate:  in.ClawbackDate,
		Note:          in.Note,
	}
	if in.ContractAmount != nil {
		s.ContractAmount = *in.ContractAmount
	}
	if in.ExecutionAmount != nil {
		s.ExecutionAmount = *in.ExecutionAmount
	}
	if in.FeeRate != nil {
		s.FeeRate = *in.FeeRate
	}
	return s
}

// TransitionPlanDTO tells the client which fields the confirmation modal must collect
type TransitionPlanDTO struct {
	From                 string   `json:"from"`
	To                   string   `json:"to"`
	RequiredFields       []string `json:"required_fields"`
	MissingFields        []string `json:"missing_fields"`
	SideEffects          []string `json:"side_effects"`
	RequiresConfirmation bool     `json:"requires_confirmation"`
}

func toTransitionPlanDTO(p customer.TransitionPlan) TransitionPlanDTO {
	dto := TransitionPlanDTO{
		From:                 string(p.From),
		To:                   string(p.To),
		RequiredFields:       make([]string, 0, len(p.Rule.RequiredFields)),
		MissingFields:        make([]string, 0, len(p.MissingFields)),
		SideEffects:          make([]string, 0, len(p.Rule.SideEffects)),
		RequiresConfirmation: p.RequiresConfirmation(),
	}
	for _, f := range p.Rule.RequiredFields {
		dto.RequiredFields = append(dto.RequiredFields, string(f))
	}
	for _, f := range p.MissingFields {
		dto.MissingFields = append(dto.MissingFields, string(f))
	}
	for _, e := range p.Rule.SideEffects {
		dto.SideEffects = append(dto.SideEffects, string(e))
	}
	return dto
}

// SideEffectOutcome reports what happened to one triggered side effect
type SideEffectOutcome struct {
	Effect  string `json:"effect"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// StatusChangeResult is returned after a transition was persisted
type StatusChangeResult struct {
	Customer    CustomerDTO         `json:"customer"`
	From        string              `json:"from"`
	To          string              `json:"to"`
	SideEffects []SideEffectOutcome `json:"side_effects"`
}

// DraftInput is one autosaved field edit
type DraftInput struct {
	Field string `json:"field" binding:"required"`
	Value string `json:"value"`
}

// DraftFlushInput flushes pending edits; an empty field flushes every field of the customer
type DraftFlushInput struct {
	Field string `json:"field"`
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
