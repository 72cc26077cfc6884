package settlement

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItem_ComputeCommission(t *testing.T) {
	t.Run("contract earns on contract amount", func(t *testing.T) {
		it := Item{Kind: KindContract, ContractAmount: d(5_000_000), CommissionRate: d(10)}
		it.ComputeCommission()

		assert.True(t, it.GrossCommission.Equal(d(500_000)))
		assert.True(t, it.TaxAmount.Equal(d(16_500)))
		assert.True(t, it.NetCommission.Equal(d(483_500)))
	})

	t.Run("execution earns on fee revenue", func(t *testing.T) {
		it := Item{Kind: KindExecution, ExecutionAmount: d(200_000_000), FeeRate: d(3), CommissionRate: d(20)}
		it.ComputeCommission()

		assert.True(t, it.FeeRevenue().Equal(d(6_000_000)))
		assert.True(t, it.GrossCommission.Equal(d(1_200_000)))
		assert.True(t, it.TaxAmount.Equal(d(39_600)))
		assert.True(t, it.NetCommission.Equal(d(1_160_400)))
	})

	t.Run("net is gross minus tax", func(t *testing.T) {
		it := Item{Kind: KindContract, ContractAmount: d(1_234_567), CommissionRate: d(7)}
		it.ComputeCommission()
		assert.True(t, it.NetCommission.Equal(it.GrossCommission.Sub(it.TaxAmount)))
	})
}

func TestNewClawbackItem(t *testing.T) {
	date := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)
	orig, err := NewContractItem(Source{
		CustomerID:     uuid.New(),
		ManagerID:      uuid.New(),
		ContractDate:   &date,
		ContractAmount: d(5_000_000),
	}, d(10))
	require.NoError(t, err)
	assert.Equal(t, "2025-02", orig.Period)

	cb, err := NewClawbackItem(orig, time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.True(t, cb.IsClawback)
	assert.Equal(t, KindClawback, cb.Kind)
	assert.Equal(t, "2025-06", cb.Period)
	assert.Equal(t, orig.ID, *cb.ReversalOf)
	assert.True(t, cb.NetCommission.Equal(orig.NetCommission.Neg()))

	_, err = NewClawbackItem(cb, date)
	assert.Error(t, err)
}

func TestNewContractItem_RequiresDate(t *testing.T) {
	_, err := NewContractItem(Source{ContractAmount: d(1)}, d(10))
	assert.Error(t, err)
	_, err = NewExecutionItem(Source{ExecutionAmount: d(1)}, d(10))
	assert.Error(t, err)
}
