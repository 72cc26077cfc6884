package settlement

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func contractItem(amount, gross, tax int64) Item {
	return Item{
		ID:              uuid.New(),
		Kind:            KindContract,
		ContractAmount:  d(amount),
		GrossCommission: d(gross),
		TaxAmount:       d(tax),
		NetCommission:   d(gross - tax),
	}
}

func executionItem(amount, gross, tax int64) Item {
	return Item{
		ID:              uuid.New(),
		Kind:            KindExecution,
		ExecutionAmount: d(amount),
		GrossCommission: d(gross),
		TaxAmount:       d(tax),
		NetCommission:   d(gross - tax),
	}
}

func clawbackItem(net int64) Item {
	return Item{
		ID:              uuid.New(),
		Kind:            KindClawback,
		IsClawback:      true,
		ContractAmount:  d(9_999_999),
		GrossCommission: d(-net),
		NetCommission:   d(-net),
	}
}

func TestAggregate_NoClawbacks(t *testing.T) {
	manager := uuid.New()
	items := []Item{
		contractItem(5_000_000, 500_000, 16_500),
		contractItem(3_000_000, 300_000, 9_900),
		executionItem(200_000_000, 1_200_000, 39_600),
	}

	s := Aggregate(items, manager, "홍길동", "2025-03")

	assert.Equal(t, manager, s.ManagerID)
	assert.Equal(t, "2025-03", s.Period)
	assert.Equal(t, 2, s.ContractCount)
	assert.Equal(t, 1, s.ExecutionCount)
	assert.True(t, s.ContractAmountSum.Equal(d(8_000_000)))
	assert.True(t, s.ExecutionAmountSum.Equal(d(200_000_000)))
	assert.True(t, s.GrossCommissionSum.Equal(d(2_000_000)))
	assert.True(t, s.TaxAmountSum.Equal(d(66_000)))
	assert.True(t, s.NetCommissionSum.Equal(d(1_934_000)))
	assert.Zero(t, s.ClawbackCount)
	assert.True(t, s.FinalPayment.Equal(s.NetCommissionSum), "final payment equals net sum without clawbacks")
}

func TestAggregate_WithClawbacks(t *testing.T) {
	items := []Item{
		contractItem(5_000_000, 500_000, 16_500),
		clawbackItem(483_500),
		clawbackItem(100_000),
	}

	s := Aggregate(items, uuid.New(), "홍길동", "2025-04")

	assert.Equal(t, 1, s.ContractCount, "clawbacks are not counted as contracts")
	assert.True(t, s.ContractAmountSum.Equal(d(5_000_000)), "clawback contract amounts stay out of sums")
	assert.True(t, s.GrossCommissionSum.Equal(d(500_000)))
	assert.True(t, s.NetCommissionSum.Equal(d(483_500)))
	assert.Equal(t, 2, s.ClawbackCount)
	assert.True(t, s.ClawbackAmountSum.Equal(d(583_500)))
	assert.True(t, s.FinalPayment.Equal(d(-100_000)))
	assert.True(t, s.FinalPayment.Equal(s.NetCommissionSum.Sub(s.ClawbackAmountSum)))
}

func TestAggregate_ClawbackSignIsIgnored(t *testing.T) {
	positive := clawbackItem(-50_000) // stored with a positive net by mistake
	s := Aggregate([]Item{positive}, uuid.New(), "", "2025-04")
	assert.True(t, s.ClawbackAmountSum.Equal(d(50_000)))
	assert.True(t, s.FinalPayment.Equal(d(-50_000)))
}

func TestAggregate_MissingValuesCoalesceToZero(t *testing.T) {
	items := []Item{
		{Kind: KindContract},
		{Kind: KindExecution},
		{Kind: KindClawback, IsClawback: true},
	}

	s := Aggregate(items, uuid.New(), "", "2025-05")

	assert.Equal(t, 1, s.ContractCount)
	assert.Equal(t, 1, s.ExecutionCount)
	assert.Equal(t, 1, s.ClawbackCount)
	assert.True(t, s.FinalPayment.IsZero())
	assert.True(t, s.NetCommissionSum.IsZero())
}

func TestAggregate_Empty(t *testing.T) {
	s := Aggregate(nil, uuid.New(), "홍길동", "2025-05")
	assert.True(t, s.FinalPayment.IsZero())
	assert.Zero(t, s.ContractCount)
}

func TestAggregate_PropertyFinalPayment(t *testing.T) {
	// final = net - sum(|clawback net|) for arbitrary mixes
	mixes := [][]Item{
		{contractItem(1, 10, 1)},
		{contractItem(1, 10, 1), clawbackItem(3)},
		{executionItem(1, 1000, 33), clawbackItem(967), clawbackItem(-5), contractItem(1, 77, 2)},
	}
	for _, items := range mixes {
		s := Aggregate(items, uuid.New(), "", "2025-01")
		clawbacks := decimal.Zero
		for _, it := range items {
			if it.IsClawback {
				clawbacks = clawbacks.Add(it.NetCommission.Abs())
			}
		}
		require.True(t, s.ClawbackAmountSum.Equal(clawbacks))
		assert.True(t, s.FinalPayment.Equal(s.NetCommissionSum.Sub(clawbacks)))
	}
}

func TestAggregateByManager(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	itemA := contractItem(1_000_000, 100_000, 3_300)
	itemA.ManagerID, itemA.ManagerName = a, "나과장"
	itemB := executionItem(100_000_000, 600_000, 19_800)
	itemB.ManagerID, itemB.ManagerName = b, "가대리"
	itemB2 := clawbackItem(50_000)
	itemB2.ManagerID, itemB2.ManagerName = b, "가대리"

	out := AggregateByManager([]Item{itemA, itemB, itemB2}, "2025-H1")

	require.Len(t, out, 2)
	assert.Equal(t, "가대리", out[0].ManagerName)
	assert.Equal(t, 1, out[0].ClawbackCount)
	assert.Equal(t, "나과장", out[1].ManagerName)

	total := Total(out, "합계", "2025-H1")
	assert.True(t, total.FinalPayment.Equal(out[0].FinalPayment.Add(out[1].FinalPayment)))
	assert.Equal(t, 1, total.ContractCount)
	assert.Equal(t, 1, total.ExecutionCount)
}
