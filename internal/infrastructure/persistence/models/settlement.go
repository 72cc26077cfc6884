package models

import (
	"time"

	"github.com/bizconsult/crm/internal/domain/settlement"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SettlementItemModel is the persistence model for settlement_items
type SettlementItemModel struct {
	ID           uuid.UUID  `gorm:"type:uuid;primary_key"`
	Kind         string     `gorm:"type:varchar(20);not null"`
	Period       string     `gorm:"type:varchar(7);not null;index:idx_settlement_period_manager,priority:1"`
	CustomerID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	CustomerName string     `gorm:"type:varchar(100)"`
	CompanyName  string     `gorm:"type:varchar(200)"`
	ManagerID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_settlement_period_manager,priority:2"`
	ManagerName  string     `gorm:"type:varchar(50)"`
	TeamID       *uuid.UUID `gorm:"type:uuid;index"`
	ContractType string     `gorm:"type:varchar(10)"`

	ContractDate    *time.Time      `gorm:"type:date"`
	ContractAmount  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	CommissionRate  decimal.Decimal `gorm:"type:decimal(6,3);not null;default:0"`
	ExecutionDate   *time.Time      `gorm:"type:date"`
	ExecutionAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	FeeRate         decimal.Decimal `gorm:"type:decimal(6,3);not null;default:0"`
	ProcessingOrg   string          `gorm:"type:varchar(100)"`

	GrossCommission decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	TaxAmount       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	NetCommission   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`

	IsClawback bool       `gorm:"not null;default:false"`
	ReversalOf *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt  time.Time  `gorm:"not null"`
	UpdatedAt  time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SettlementItemModel) TableName() string {
	return "settlement_items"
}

// ToDomain converts to the domain settlement Item
func (m *SettlementItemModel) ToDomain() settlement.Item {
	return settlement.Item{
		ID:              m.ID,
		Kind:            settlement.ItemKind(m.Kind),
		Period:          m.Period,
		CustomerID:      m.CustomerID,
		CustomerName:    m.CustomerName,
		CompanyName:     m.CompanyName,
		ManagerID:       m.ManagerID,
		ManagerName:     m.ManagerName,
		TeamID:          m.TeamID,
		ContractType:    m.ContractType,
		ContractDate:    m.ContractDate,
		ContractAmount:  m.ContractAmount,
		CommissionRate:  m.CommissionRate,
		ExecutionDate:   m.ExecutionDate,
		ExecutionAmount: m.ExecutionAmount,
		FeeRate:         m.FeeRate,
		ProcessingOrg:   m.ProcessingOrg,
		GrossCommission: m.GrossCommission,
		TaxAmount:       m.TaxAmount,
		NetCommission:   m.NetCommission,
		IsClawback:      m.IsClawback,
		ReversalOf:      m.ReversalOf,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// SettlementItemModelFromDomain creates a persistence model from a settlement Item
func SettlementItemModelFromDomain(it *settlement.Item) *SettlementItemModel {
	return &SettlementItemModel{
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
		UpdatedAt:       it.UpdatedAt,
	}
}
