package settlement

import (
	"time"

	"github.com/bizconsult/crm/internal/domain/settlement"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PeriodQuery selects a settlement period and optionally one manager or team
type PeriodQuery struct {
	Period    string     `form:"period" binding:"required"`
	ManagerID *uuid.UUID `form:"manager_id"`
	TeamID    *uuid.UUID `form:"team_id"`
}

// TeamSummaryDTO is the roll-up of one team's managers
type TeamSummaryDTO struct {
	TeamID   *uuid.UUID                            `json:"team_id"`
	TeamName string                                `json:"team_name"`
	Total    settlement.MonthlySettlementSummary   `json:"total"`
	Managers []settlement.MonthlySettlementSummary `json:"managers"`
}

// SummaryDTO is the settlement view of a period
type SummaryDTO struct {
	Period   string                                `json:"period"`
	Scope    string                                `json:"scope"`
	Months   []string                              `json:"months"`
	Managers []settlement.MonthlySettlementSummary `json:"managers"`
	Teams    []TeamSummaryDTO                      `json:"teams"`
	Total    settlement.MonthlySettlementSummary   `json:"total"`
}

// ItemDTO is one row of the settlement detail listing
type ItemDTO struct {
	ID              uuid.UUID       `json:"id"`
	Kind            string          `json:"kind"`
	Period          string          `json:"period"`
	CustomerID      uuid.UUID       `json:"customer_id"`
	CustomerName    string          `json:"customer_name"`
	CompanyName     string          `json:"company_name"`
	ManagerID       uuid.UUID       `json:"manager_id"`
	ManagerName     string          `json:"manager_name"`
	TeamID          *uuid.UUID      `json:"team_id,omitempty"`
	ContractType    string          `json:"contract_type"`
	ContractDate    *time.Time      `json:"contract_date,omitempty"`
	ContractAmount  decimal.Decimal `json:"contract_amount"`
	CommissionRate  decimal.Decimal `json:"commission_rate"`
	ExecutionDate   *time.Time      `json:"execution_date,omitempty"`
	ExecutionAmount decimal.Decimal `json:"execution_amount"`
	FeeRate         decimal.Decimal `json:"fee_rate"`
	ProcessingOrg   string          `json:"processing_org"`
	GrossCommission decimal.Decimal `json:"gross_commission"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	NetCommission   decimal.Decimal `json:"net_commission"`
	IsClawback      bool            `json:"is_clawback"`
	ReversalOf      *uuid.UUID      `json:"reversal_of,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ToItemDTO converts a domain item
func ToItemDTO(it settlement.Item) ItemDTO {
	return ItemDTO{
		ID:              it.ID,
		Kind:            string(it.Kind),
		Period:          it.Period,
		CustomerID:      it.CustomerID,
		CustomerName:    it.CustomerName,
		CompanyName:     it.CompanyName,
		ManagerID:       it.ManagerID,
		ManagerName:     it.ManagerName,
		TeamID:          it.TeamID,
		ContractType:    it.ContractType,
		ContractDate:    it.ContractDate,
		ContractAmount:  it.ContractAmount,
		CommissionRate:  it.CommissionRate,
		ExecutionDate:   it.ExecutionDate,
		ExecutionAmount: it.ExecutionAmount,
		FeeRate:         it.FeeRate,
		ProcessingOrg:   it.ProcessingOrg,
		GrossCommission: it.GrossCommission,
		TaxAmount:       it.TaxAmount,
		NetCommission:   it.NetCommission,
		IsClawback:      it.IsClawback,
		ReversalOf:      it.ReversalOf,
		CreatedAt:       it.CreatedAt,
	}
}

// SyncResultDTO reports the writes of a manual sync
type SyncResultDTO struct {
	CustomerID uuid.UUID `json:"customer_id"`
	Upserted   int       `json:"upserted"`
	Deleted    int       `json:"deleted"`
	Periods    []string  `json:"periods"`
}

// ClawbackInput requests reversal of a customer's paid items
type ClawbackInput struct {
	ClawbackDate time.Time `json:"clawback_date" binding:"required"`
}

// ClawbackResultDTO reports the reversal items created
type ClawbackResultDTO struct {
	CustomerID uuid.UUID `json:"customer_id"`
	Period     string    `json:"period"`
	Items      []ItemDTO `json:"items"`
}
