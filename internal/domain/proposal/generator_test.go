package proposal

import (
	"testing"
	"time"

	"github.com/bizconsult/crm/internal/domain/customer"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCustomer(t *testing.T, issued time.Time) *customer.Customer {
	t.Helper()
	c, err := customer.NewCustomer("김대표", "한빛산업", "010-2222-3333")
	require.NoError(t, err)
	c.Representative = "김대표"
	c.Industry = "제조업"
	founding := issued.AddDate(-9, 0, 0)
	c.SetFoundingDate(&founding, issued)
	require.NoError(t, c.SetCreditScore(850))
	require.NoError(t, c.SetYearlySales([]customer.YearlySales{
		{Year: 2023, AmountEok: decimal.NewFromInt(8)},
		{Year: 2024, AmountEok: decimal.NewFromInt(10)},
	}))
	require.NoError(t, c.ReplaceObligations([]customer.FinancialObligation{
		{Institution: "기업은행", Kind: customer.ObligationKindLoan, Balance: decimal.NewFromInt(200_000_000)},
		{Institution: "신용보증기금", Kind: customer.ObligationKindGuarantee, Balance: decimal.NewFromInt(100_000_000)},
	}))
	require.NoError(t, c.SetDesiredAmount(decimal.NewFromInt(30000)))
	return c
}

func TestGenerate(t *testing.T) {
	issued := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	c := sampleCustomer(t, issued)

	p, err := Generate(Input{
		Customer: c,
		Agencies: []Agency{
			{Name: "중소벤처기업진흥공단", Program: "혁신성장지원자금", Amount: decimal.NewFromInt(20000)},
			{Name: "신용보증기금", Program: "일반보증", Amount: decimal.NewFromInt(5000)},
		},
		Manager:  Manager{Name: "홍길동", Phone: "010-1111-2222"},
		IssuedAt: issued,
	})
	require.NoError(t, err)

	assert.Equal(t, "한빛산업", p.Cover.CompanyName)
	assert.Equal(t, "2025년 06월 01일", p.Cover.IssuedAt)

	assert.Equal(t, 9, p.Summary.BusinessAgeYears)
	assert.True(t, p.Summary.Over7Years)
	assert.Equal(t, Amount{"10", UnitEok}, p.Summary.LatestSales)
	assert.Equal(t, Amount{"3", UnitEok}, p.Summary.DesiredAmount)
	assert.Equal(t, 3, p.Summary.Credit.Grade)
	require.Len(t, p.Summary.SalesHistory, 2)

	assert.Equal(t, 30, p.RiskAnalysis.DTI)
	assert.Equal(t, "안정", p.RiskAnalysis.DTILevel)
	assert.Equal(t, Amount{"3", UnitEok}, p.RiskAnalysis.TotalObligation)
	assert.Equal(t, Amount{"1", UnitEok}, p.RiskAnalysis.GuaranteeTotal)
	assert.Len(t, p.RiskAnalysis.Obligations, 2)
	assert.Len(t, p.RiskAnalysis.Findings, 3)

	require.Len(t, p.AgencyListing.Agencies, 2)
	assert.Equal(t, 2, p.AgencyListing.Agencies[1].Order)
	assert.Equal(t, Amount{"2.5", UnitEok}, p.AgencyListing.TotalAmount)

	assert.Len(t, p.Timeline.Steps, 6)
	assert.Equal(t, "2025-06-01", p.Timeline.Steps[0].StartDate)

	assert.Equal(t, Amount{"2.5", UnitEok}, p.Conclusion.ExpectedAmount)
	assert.NotEmpty(t, p.Conclusion.Points)
	assert.Equal(t, "홍길동", p.ThankYou.ManagerName)
}

func TestGenerate_IsDeterministic(t *testing.T) {
	issued := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	c := sampleCustomer(t, issued)
	in := Input{Customer: c, IssuedAt: issued}

	a, err := Generate(in)
	require.NoError(t, err)
	b, err := Generate(in)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGenerate_FallsBackToDesiredAmount(t *testing.T) {
	issued := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	c := sampleCustomer(t, issued)

	p, err := Generate(Input{Customer: c, IssuedAt: issued})
	require.NoError(t, err)
	assert.Equal(t, Amount{"3", UnitEok}, p.Conclusion.ExpectedAmount)
	assert.Empty(t, p.AgencyListing.Agencies)
}

func TestGenerate_Validation(t *testing.T) {
	_, err := Generate(Input{})
	assert.Error(t, err)

	c := sampleCustomer(t, time.Now())
	_, err = Generate(Input{Customer: c, Agencies: []Agency{{Name: " "}}})
	assert.Error(t, err)
	_, err = Generate(Input{Customer: c, Agencies: []Agency{{Name: "x", Amount: decimal.NewFromInt(-1)}}})
	assert.Error(t, err)
}

func TestBuildTimeline_ExtendsForMoreAgencies(t *testing.T) {
	issued := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	one := BuildTimeline(issued, 1)
	three := BuildTimeline(issued, 3)

	assert.Equal(t, one.Steps[2].EndDate, three.Steps[2].EndDate)
	assert.Equal(t, "2025-03-02", one.Steps[5].EndDate)
	assert.Equal(t, "2025-03-16", three.Steps[5].EndDate)
	assert.Greater(t, three.ExpectedWeeks, one.ExpectedWeeks)
}
