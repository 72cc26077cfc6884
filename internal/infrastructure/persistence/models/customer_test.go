package models

import (
	"testing"
	"time"

	"github.com/bizconsult/crm/internal/domain/customer"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerModel_ToDomain_MigratesLegacyColumns(t *testing.T) {
	processed := time.Date(2023, 3, 2, 0, 0, 0, 0, time.UTC)
	m := &CustomerModel{
		AggregateModel:   AggregateModel{BaseModel: BaseModel{ID: uuid.New(), CreatedAt: processed}, Version: 3},
		Name:             "홍길동",
		StatusCode:       string(customer.StatusUnderReview),
		ProcessingOrg:    "신용보증기금",
		ProcessingDate:   &processed,
		ProcessingAmount: decimal.NewFromInt(50_000_000),
		Memo:             "기존 메모",
		ProcessingOrgs:   "[]",
	}

	c := m.ToDomain()

	require.Len(t, c.ProcessingOrgs, 1)
	assert.Equal(t, "신용보증기금", c.ProcessingOrgs[0].Org)
	assert.Equal(t, customer.OrgStatusApplied, c.ProcessingOrgs[0].Status)
	require.Len(t, c.Memos, 1)
	assert.Equal(t, "기존 메모", c.Memos[0].Content)
	assert.Equal(t, 3, c.Version)

	// A second read of the same row yields the same memo identity.
	again := m.ToDomain()
	assert.Equal(t, c.Memos[0].ID, again.Memos[0].ID)
}

func TestCustomerModel_ListsWinOverLegacyColumns(t *testing.T) {
	m := &CustomerModel{
		AggregateModel: AggregateModel{BaseModel: BaseModel{ID: uuid.New()}},
		Name:           "홍길동",
		StatusCode:     string(customer.StatusApplied),
		ProcessingOrgs: `[{"org":"기술보증기금","status":"승인","requested_amount":"0","approved_amount":"0"}]`,
		ProcessingOrg:  "신용보증기금",
	}

	c := m.ToDomain()
	require.Len(t, c.ProcessingOrgs, 1)
	assert.Equal(t, "기술보증기금", c.ProcessingOrgs[0].Org)
}

func TestCustomerModel_RoundTrip(t *testing.T) {
	c, err := customer.NewCustomer("김대표", "주식회사 테스트", "010-1234-5678")
	require.NoError(t, err)
	require.NoError(t, c.SetYearlySales([]customer.YearlySales{{Year: 2024, AmountEok: decimal.NewFromInt(12)}}))
	_, err = c.AddMemo("첫 상담", uuid.New(), "담당자")
	require.NoError(t, err)

	m := CustomerModelFromDomain(c)
	assert.Equal(t, string(customer.StatusAwaiting), m.StatusCode)
	assert.Empty(t, m.ProcessingOrg)
	assert.Empty(t, m.Memo)
	assert.Equal(t, "[]", m.Documents)

	back := m.ToDomain()
	assert.Equal(t, c.ID, back.ID)
	require.Len(t, back.YearlySales, 1)
	assert.True(t, back.YearlySales[0].AmountEok.Equal(decimal.NewFromInt(12)))
	require.Len(t, back.Memos, 1)
	assert.Equal(t, "첫 상담", back.Memos[0].Content)
}

func TestDecodeList_Malformed(t *testing.T) {
	assert.Nil(t, decodeList[customer.Memo]("{not json", "memo_history"))
	assert.Nil(t, decodeList[customer.Memo]("", "memo_history"))
}
