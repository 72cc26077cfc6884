package models

import (
	"time"

	"github.com/bizconsult/crm/internal/domain/customer"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CustomerModel is the persistence model for the Customer aggregate.
// The processing_org/processing_status/processing_date/processing_amount and
// memo columns belong to the older single-org record shape; they are read
// for migration and cleared on write.
type CustomerModel struct {
	AggregateModel
	Name               string     `gorm:"type:varchar(100);not null;index"`
	CompanyName        string     `gorm:"type:varchar(200);index"`
	RegistrationNumber string     `gorm:"type:varchar(20);index"`
	CorporateNumber    string     `gorm:"type:varchar(20)"`
	Representative     string     `gorm:"type:varchar(100)"`
	Phone              string     `gorm:"type:varchar(30);index"`
	Email              string     `gorm:"type:varchar(200)"`
	Address            string     `gorm:"type:text"`
	Industry           string     `gorm:"type:varchar(100)"`
	InflowSource       string     `gorm:"type:varchar(100)"`
	FoundingDate       *time.Time `gorm:"type:date"`
	Over7Years         bool       `gorm:"column:over_7_years;not null;default:false"`

	StatusCode  string     `gorm:"column:status_code;type:varchar(30);not null;index"`
	ManagerID   *uuid.UUID `gorm:"type:uuid;index"`
	ManagerName string     `gorm:"type:varchar(50)"`
	TeamID      *uuid.UUID `gorm:"type:uuid;index"`

	CreditScore   int             `gorm:"not null;default:0"`
	YearlySales   string          `gorm:"type:jsonb;default:'[]'"`
	DesiredAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`

	ContractType    string          `gorm:"type:varchar(10)"`
	ContractDate    *time.Time      `gorm:"type:date"`
	ContractAmount  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	ExecutionDate   *time.Time      `gorm:"type:date"`
	ExecutionAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	FeeRate         decimal.Decimal `gorm:"type:decimal(6,3);not null;default:0"`
	ClawbackDate    *time.Time      `gorm:"type:date"`

	ProcessingOrgs       string `gorm:"type:jsonb;default:'[]'"`
	MemoHistory          string `gorm:"type:jsonb;default:'[]'"`
	Documents            string `gorm:"type:jsonb;default:'[]'"`
	FinancialObligations string `gorm:"type:jsonb;default:'[]'"`

	ProcessingOrg    string          `gorm:"type:varchar(100)"`
	ProcessingStatus string          `gorm:"type:varchar(20)"`
	ProcessingDate   *time.Time      `gorm:"type:date"`
	ProcessingAmount decimal.Decimal `gorm:"type:decimal(18,2);default:0"`
	Memo             string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer. Legacy
// columns are folded into the lists here and nowhere else.
func (m *CustomerModel) ToDomain() *customer.Customer {
	c := &customer.Customer{
		BaseAggregateRoot:  m.ToDomainAggregateRoot(),
		Name:               m.Name,
		CompanyName:        m.CompanyName,
		RegistrationNumber: m.RegistrationNumber,
		CorporateNumber:    m.CorporateNumber,
		Representative:     m.Representative,
		Phone:              m.Phone,
		Email:              m.Email,
		Address:            m.Address,
		Industry:           m.Industry,
		InflowSource:       m.InflowSource,
		FoundingDate:       m.FoundingDate,
		Over7Years:         m.Over7Years,
		Status:             customer.Status(m.StatusCode),
		ManagerID:          m.ManagerID,
		ManagerName:        m.ManagerName,
		TeamID:             m.TeamID,
		CreditScore:        m.CreditScore,
		YearlySales:        decodeList[customer.YearlySales](m.YearlySales, "yearly_sales"),
		DesiredAmount:      m.DesiredAmount,
		ContractType:       customer.ContractType(m.ContractType),
		ContractDate:       m.ContractDate,
		ContractAmount:     m.ContractAmount,
		ExecutionDate:      m.ExecutionDate,
		ExecutionAmount:    m.ExecutionAmount,
		FeeRate:            m.FeeRate,
		ClawbackDate:       m.ClawbackDate,
		ProcessingOrgs:     decodeList[customer.ProcessingOrg](m.ProcessingOrgs, "processing_orgs"),
		Memos:              decodeList[customer.Memo](m.MemoHistory, "memo_history"),
		Documents:          decodeList[customer.Document](m.Documents, "documents"),
		Obligations:        decodeList[customer.FinancialObligation](m.FinancialObligations, "financial_obligations"),
	}
	if c.Status == "" {
		c.Status = customer.StatusAwaiting
	}

	customer.MigrateLegacy(c, customer.LegacyFields{
		ProcessingOrg:    m.ProcessingOrg,
		ProcessingStatus: m.ProcessingStatus,
		ProcessingDate:   m.ProcessingDate,
		ProcessingAmount: m.ProcessingAmount,
		Memo:             m.Memo,
	})
	return c
}

// FromDomain populates the persistence model from a domain Customer. The
// legacy columns are cleared since their content now lives in the lists.
func (m *CustomerModel) FromDomain(c *customer.Customer) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.Name = c.Name
	m.CompanyName = c.CompanyName
	m.RegistrationNumber = c.RegistrationNumber
	m.CorporateNumber = c.CorporateNumber
	m.Representative = c.Representative
	m.Phone = c.Phone
	m.Email = c.Email
	m.Address = c.Address
	m.Industry = c.Industry
	m.InflowSource = c.InflowSource
	m.FoundingDate = c.FoundingDate
	m.Over7Years = c.Over7Years
	m.StatusCode = string(c.Status)
	m.ManagerID = c.ManagerID
	m.ManagerName = c.ManagerName
	m.TeamID = c.TeamID
	m.CreditScore = c.CreditScore
	m.YearlySales = encodeList(c.YearlySales)
	m.DesiredAmount = c.DesiredAmount
	m.ContractType = string(c.ContractType)
	m.ContractDate = c.ContractDate
	m.ContractAmount = c.ContractAmount
	m.ExecutionDate = c.ExecutionDate
	m.ExecutionAmount = c.ExecutionAmount
	m.FeeRate = c.FeeRate
	m.ClawbackDate = c.ClawbackDate
	m.ProcessingOrgs = encodeList(c.ProcessingOrgs)
	m.MemoHistory = encodeList(c.Memos)
	m.Documents = encodeList(c.Documents)
	m.FinancialObligations = encodeList(c.Obligations)

	m.ProcessingOrg = ""
	m.ProcessingStatus = ""
	m.ProcessingDate = nil
	m.ProcessingAmount = decimal.Zero
	m.Memo = ""
}

// CustomerModelFromDomain creates a new persistence model from a domain Customer
func CustomerModelFromDomain(c *customer.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}
