package models

import (
	"time"

	"github.com/bizconsult/crm/internal/domain/identity"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UserModel is the persistence model for users
type UserModel struct {
	AggregateModel
	Email           string          `gorm:"type:varchar(200);not null;uniqueIndex"`
	Name            string          `gorm:"type:varchar(50);not null"`
	Phone           string          `gorm:"type:varchar(30)"`
	PasswordHash    string          `gorm:"type:varchar(100);not null"`
	Role            string          `gorm:"type:varchar(20);not null;default:'staff'"`
	TeamID          *uuid.UUID      `gorm:"type:uuid;index"`
	CommissionRate  decimal.Decimal `gorm:"type:decimal(6,3);not null;default:0"`
	ExecutionRate   decimal.Decimal `gorm:"type:decimal(6,3);not null;default:0"`
	OutsourcingRate decimal.Decimal `gorm:"type:decimal(6,3);not null;default:0"`
	Active          bool            `gorm:"not null;default:true"`
	LastLoginAt     *time.Time
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts to the domain User
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Email:             m.Email,
		Name:              m.Name,
		Phone:             m.Phone,
		PasswordHash:      m.PasswordHash,
		Role:              identity.Role(m.Role),
		TeamID:            m.TeamID,
		CommissionRate:    m.CommissionRate,
		ExecutionRate:     m.ExecutionRate,
		OutsourcingRate:   m.OutsourcingRate,
		Active:            m.Active,
		LastLoginAt:       m.LastLoginAt,
	}
}

// UserModelFromDomain creates a persistence model from a domain User
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{
		Email:           u.Email,
		Name:            u.Name,
		Phone:           u.Phone,
		PasswordHash:    u.PasswordHash,
		Role:            string(u.Role),
		TeamID:          u.TeamID,
		CommissionRate:  u.CommissionRate,
		ExecutionRate:   u.ExecutionRate,
		OutsourcingRate: u.OutsourcingRate,
		Active:          u.Active,
		LastLoginAt:     u.LastLoginAt,
	}
	m.FromDomainAggregateRoot(u.BaseAggregateRoot)
	return m
}

// TeamModel is the persistence model for teams
type TeamModel struct {
	AggregateModel
	Name     string     `gorm:"type:varchar(50);not null;uniqueIndex"`
	LeaderID *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (TeamModel) TableName() string {
	return "teams"
}

// ToDomain converts to the domain Team
func (m *TeamModel) ToDomain() *identity.Team {
	return &identity.Team{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		LeaderID:          m.LeaderID,
	}
}

// TeamModelFromDomain creates a persistence model from a domain Team
func TeamModelFromDomain(t *identity.Team) *TeamModel {
	m := &TeamModel{Name: t.Name, LeaderID: t.LeaderID}
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	return m
}
