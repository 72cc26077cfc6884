package settlement

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPolicy() CommissionPolicy {
	return CommissionPolicy{ContractRate: d(10), ExecutionRate: d(20), OutsourcingRate: d(5)}
}

func TestPlanSync(t *testing.T) {
	contractDate := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)
	execDate := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)
	src := Source{
		CustomerID:      uuid.New(),
		CustomerName:    "김대표",
		ManagerID:       uuid.New(),
		ContractDate:    &contractDate,
		ContractAmount:  d(5_000_000),
		ExecutionDate:   &execDate,
		ExecutionAmount: d(200_000_000),
		FeeRate:         d(3),
	}

	t.Run("creates contract and execution items", func(t *testing.T) {
		plan := PlanSync(src, testPolicy(), nil)

		require.Len(t, plan.Upserts, 2)
		assert.Empty(t, plan.Deletes)
		assert.Equal(t, KindContract, plan.Upserts[0].Kind)
		assert.Equal(t, "2025-03", plan.Upserts[0].Period)
		assert.True(t, plan.Upserts[0].NetCommission.Equal(d(483_500)))
		assert.Equal(t, KindExecution, plan.Upserts[1].Kind)
		assert.Equal(t, "2025-05", plan.Upserts[1].Period)
	})

	t.Run("is idempotent", func(t *testing.T) {
		first := PlanSync(src, testPolicy(), nil)
		existing := []Item{*first.Upserts[0], *first.Upserts[1]}

		second := PlanSync(src, testPolicy(), existing)
		assert.True(t, second.IsEmpty())
	})

	t.Run("refreshes changed figures keeping ids", func(t *testing.T) {
		first := PlanSync(src, testPolicy(), nil)
		existing := []Item{*first.Upserts[0]}

		changed := src
		changed.ExecutionDate = nil
		changed.ContractAmount = d(6_000_000)
		plan := PlanSync(changed, testPolicy(), existing)

		require.Len(t, plan.Upserts, 1)
		assert.Equal(t, existing[0].ID, plan.Upserts[0].ID)
		assert.True(t, plan.Upserts[0].GrossCommission.Equal(d(600_000)))
	})

	t.Run("deletes items no longer backed by the customer", func(t *testing.T) {
		first := PlanSync(src, testPolicy(), nil)
		existing := []Item{*first.Upserts[0], *first.Upserts[1]}

		cleared := src
		cleared.ExecutionDate = nil
		cleared.ExecutionAmount = d(0)
		plan := PlanSync(cleared, testPolicy(), existing)

		assert.Equal(t, []uuid.UUID{existing[1].ID}, plan.Deletes)
	})

	t.Run("outsourced contracts use the outsourcing rate", func(t *testing.T) {
		out := src
		out.ContractType = ContractTypeOutsourced
		out.ExecutionDate = nil
		plan := PlanSync(out, testPolicy(), nil)

		require.Len(t, plan.Upserts, 1)
		assert.True(t, plan.Upserts[0].CommissionRate.Equal(d(5)))
	})

	t.Run("reversed items are left alone", func(t *testing.T) {
		first := PlanSync(src, testPolicy(), nil)
		contract := *first.Upserts[0]
		cb, err := NewClawbackItem(&contract, time.Now())
		require.NoError(t, err)

		changed := src
		changed.ExecutionDate = nil
		changed.ContractAmount = d(9_000_000)
		plan := PlanSync(changed, testPolicy(), []Item{contract, *cb})
		assert.True(t, plan.IsEmpty())
	})

	t.Run("new contract after clawback creates a fresh item", func(t *testing.T) {
		first := PlanSync(src, testPolicy(), nil)
		contract := *first.Upserts[0]
		cb, err := NewClawbackItem(&contract, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		existing := []Item{contract, *cb}

		recontract := time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC)
		again := src
		again.ExecutionDate = nil
		again.ContractDate = &recontract
		again.ContractAmount = d(2_000_000)
		plan := PlanSync(again, testPolicy(), existing)

		require.Len(t, plan.Upserts, 1)
		assert.Empty(t, plan.Deletes)
		fresh := plan.Upserts[0]
		assert.NotEqual(t, contract.ID, fresh.ID)
		assert.Equal(t, KindContract, fresh.Kind)
		assert.Equal(t, "2025-06", fresh.Period)
		assert.True(t, fresh.GrossCommission.Equal(d(200_000)))

		existing = append(existing, *fresh)
		assert.True(t, PlanSync(again, testPolicy(), existing).IsEmpty())
	})
}

func TestPlanClawback(t *testing.T) {
	contractDate := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)
	src := Source{CustomerID: uuid.New(), ManagerID: uuid.New(), ContractDate: &contractDate, ContractAmount: d(5_000_000)}
	plan := PlanSync(src, testPolicy(), nil)
	existing := []Item{*plan.Upserts[0]}

	clawbackDate := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	cbs := PlanClawback(existing, clawbackDate)

	require.Len(t, cbs, 1)
	assert.Equal(t, "2025-08", cbs[0].Period)

	again := PlanClawback(append(existing, *cbs[0]), clawbackDate)
	assert.Empty(t, again, "each item is reversed once")
}
