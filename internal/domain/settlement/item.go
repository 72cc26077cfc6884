package settlement

import (
	"time"

	"github.com/bizconsult/crm/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemKind is the event that produced a settlement item
type ItemKind string

const (
	KindContract  ItemKind = "contract"
	KindExecution ItemKind = "execution"
	KindClawback  ItemKind = "clawback"
)

// WithholdingRate is the business-income withholding tax applied to commissions (3.3%)
var WithholdingRate = decimal.RequireFromString("0.033")

var hundred = decimal.NewFromInt(100)

// Item is one commission-bearing event for a customer. Items are produced by
// the settlement sync and read by the aggregator.
type Item struct {
	ID           uuid.UUID
	Kind         ItemKind
	Period       string // YYYY-MM
	CustomerID   uuid.UUID
	CustomerName string
	CompanyName  string
	ManagerID    uuid.UUID
	ManagerName  string
	TeamID       *uuid.UUID
	ContractType string

	ContractDate    *time.Time
	ContractAmount  decimal.Decimal
	CommissionRate  decimal.Decimal // percent
	ExecutionDate   *time.Time
	ExecutionAmount decimal.Decimal
	FeeRate         decimal.Decimal // percent of execution
	ProcessingOrg   string

	GrossCommission decimal.Decimal
	TaxAmount       decimal.Decimal
	NetCommission   decimal.Decimal

	IsClawback bool
	ReversalOf *uuid.UUID
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ComputeCommission fills gross, tax and net from the item's amounts and rates.
// Contract items earn commission on the contract amount; execution items earn
// commission on the fee revenue (execution amount x fee rate).
func (it *Item) ComputeCommission() {
	var gross decimal.Decimal
	switch it.Kind {
	case KindContract:
		gross = it.ContractAmount.Mul(it.CommissionRate).Div(hundred)
	case KindExecution:
		revenue := it.ExecutionAmount.Mul(it.FeeRate).Div(hundred)
		gross = revenue.Mul(it.CommissionRate).Div(hundred)
	default:
		return
	}
	it.GrossCommission = gross.Round(0)
	it.TaxAmount = it.GrossCommission.Mul(WithholdingRate).Round(0)
	it.NetCommission = it.GrossCommission.Sub(it.TaxAmount)
}

// FeeRevenue is the firm's revenue from the item before commission
func (it *Item) FeeRevenue() decimal.Decimal {
	switch it.Kind {
	case KindContract:
		return it.ContractAmount
	case KindExecution:
		return it.ExecutionAmount.Mul(it.FeeRate).Div(hundred).Round(0)
	}
	return decimal.Zero
}

// NewContractItem creates a contract-signing item for period
func NewContractItem(src Source, commissionRate decimal.Decimal) (*Item, error) {
	if src.ContractDate == nil {
		return nil, shared.NewDomainError("INVALID_SETTLEMENT", "Contract date is required for a contract item")
	}
	it := src.newItem(KindContract, PeriodOf(*src.ContractDate))
	it.CommissionRate = commissionRate
	it.ComputeCommission()
	return it, nil
}

// NewExecutionItem creates a fund-execution item
func NewExecutionItem(src Source, commissionRate decimal.Decimal) (*Item, error) {
	if src.ExecutionDate == nil {
		return nil, shared.NewDomainError("INVALID_SETTLEMENT", "Execution date is required for an execution item")
	}
	it := src.newItem(KindExecution, PeriodOf(*src.ExecutionDate))
	it.CommissionRate = commissionRate
	it.ComputeCommission()
	return it, nil
}

// NewClawbackItem creates the reversal of original, booked in the clawback date's period
func NewClawbackItem(original *Item, clawbackDate time.Time) (*Item, error) {
	if original.IsClawback {
		return nil, shared.NewDomainError("INVALID_CLAWBACK", "A clawback item cannot itself be clawed back")
	}
	now := time.Now()
	origID := original.ID
	return &Item{
		ID:              uuid.New(),
		Kind:            KindClawback,
		Period:          PeriodOf(clawbackDate),
		CustomerID:      original.CustomerID,
		CustomerName:    original.CustomerName,
		CompanyName:     original.CompanyName,
		ManagerID:       original.ManagerID,
		ManagerName:     original.ManagerName,
		TeamID:          original.TeamID,
		ContractType:    original.ContractType,
		ContractDate:    original.ContractDate,
		ContractAmount:  original.ContractAmount,
		CommissionRate:  original.CommissionRate,
		ExecutionDate:   original.ExecutionDate,
		ExecutionAmount: original.ExecutionAmount,
		FeeRate:         original.FeeRate,
		ProcessingOrg:   original.ProcessingOrg,
		GrossCommission: original.GrossCommission.Neg(),
		TaxAmount:       original.TaxAmount.Neg(),
		NetCommission:   original.NetCommission.Neg(),
		IsClawback:      true,
		ReversalOf:      &origID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// Source is the customer snapshot a settlement item is derived from
type Source struct {
	CustomerID      uuid.UUID
	CustomerName    string
	CompanyName     string
	ManagerID       uuid.UUID
	ManagerName     string
	TeamID          *uuid.UUID
	ContractType    string
	ContractDate    *time.Time
	ContractAmount  decimal.Decimal
	ExecutionDate   *time.Time
	ExecutionAmount decimal.Decimal
	FeeRate         decimal.Decimal
	ProcessingOrg   string
}

func (s Source) newItem(kind ItemKind, period string) *Item {
	now := time.Now()
	return &Item{
		ID:              uuid.New(),
		Kind:            kind,
		Period:          period,
		CustomerID:      s.CustomerID,
		CustomerName:    s.CustomerName,
		CompanyName:     s.CompanyName,
		ManagerID:       s.ManagerID,
		ManagerName:     s.ManagerName,
		TeamID:          s.TeamID,
		ContractType:    s.ContractType,
		ContractDate:    s.ContractDate,
		ContractAmount:  s.ContractAmount,
		ExecutionDate:   s.ExecutionDate,
		ExecutionAmount: s.ExecutionAmount,
		FeeRate:         s.FeeRate,
		ProcessingOrg:   s.ProcessingOrg,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// RefreshFrom updates an existing item in place from a newer snapshot while
// keeping its identity, recomputing the commission.
func (it *Item) RefreshFrom(fresh *Item) {
	id, created := it.ID, it.CreatedAt
	*it = *fresh
	it.ID = id
	it.CreatedAt = created
	it.UpdatedAt = time.Now()
}
