package settlement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ContractTypeOutsourced marks outsourced contracts, which use the outsourcing rate
const ContractTypeOutsourced = "외주"

// CommissionPolicy holds a manager's commission rates in percent
type CommissionPolicy struct {
	ContractRate    decimal.Decimal
	ExecutionRate   decimal.Decimal
	OutsourcingRate decimal.Decimal
}

func (p CommissionPolicy) rateFor(kind ItemKind, contractType string) decimal.Decimal {
	if contractType == ContractTypeOutsourced {
		return p.OutsourcingRate
	}
	if kind == KindExecution {
		return p.ExecutionRate
	}
	return p.ContractRate
}

// SyncPlan is the set of writes that brings stored items in line with a customer
type SyncPlan struct {
	Upserts []*Item
	Deletes []uuid.UUID
}

// IsEmpty reports whether the plan has nothing to write
func (p SyncPlan) IsEmpty() bool {
	return len(p.Upserts) == 0 && len(p.Deletes) == 0
}

// PlanSync derives the expected contract and execution items for a customer
// and diffs them against the stored ones. Stored items keep their IDs.
// Clawback items are never touched, and neither are items already reversed.
// A reversed item only suppresses the expected item it originally booked.
func PlanSync(src Source, policy CommissionPolicy, existing []Item) SyncPlan {
	expected := map[ItemKind]*Item{}
	if src.ContractDate != nil && src.ContractAmount.IsPositive() {
		it, _ := NewContractItem(src, policy.rateFor(KindContract, src.ContractType))
		expected[KindContract] = it
	}
	if src.ExecutionDate != nil && src.ExecutionAmount.IsPositive() {
		it, _ := NewExecutionItem(src, policy.rateFor(KindExecution, src.ContractType))
		expected[KindExecution] = it
	}

	reversed := reversedIDs(existing)
	var plan SyncPlan
	for i := range existing {
		cur := existing[i]
		if cur.IsClawback {
			continue
		}
		if reversed[cur.ID] {
			// a reversed item still stands for its own contract or execution;
			// a later one with a different date is a new item
			if want, ok := expected[cur.Kind]; ok && sameOrigin(&cur, want) {
				delete(expected, cur.Kind)
			}
			continue
		}
		want, ok := expected[cur.Kind]
		if !ok {
			plan.Deletes = append(plan.Deletes, cur.ID)
			continue
		}
		delete(expected, cur.Kind)
		if sameFigures(&cur, want) {
			continue
		}
		cur.RefreshFrom(want)
		plan.Upserts = append(plan.Upserts, &cur)
	}
	for _, kind := range []ItemKind{KindContract, KindExecution} {
		if it, ok := expected[kind]; ok {
			plan.Upserts = append(plan.Upserts, it)
		}
	}
	return plan
}

// PlanClawback creates one reversal for every paid item of the customer that
// has not been reversed yet, booked in the clawback date's period.
func PlanClawback(existing []Item, clawbackDate time.Time) []*Item {
	reversed := reversedIDs(existing)
	var out []*Item
	for i := range existing {
		it := &existing[i]
		if it.IsClawback || reversed[it.ID] {
			continue
		}
		if it.NetCommission.IsZero() {
			continue
		}
		cb, err := NewClawbackItem(it, clawbackDate)
		if err != nil {
			continue
		}
		out = append(out, cb)
	}
	return out
}

func reversedIDs(items []Item) map[uuid.UUID]bool {
	out := make(map[uuid.UUID]bool)
	for _, it := range items {
		if it.IsClawback && it.ReversalOf != nil {
			out[*it.ReversalOf] = true
		}
	}
	return out
}

// sameOrigin reports whether two items of a kind book the same event: the
// same contract or execution date, or the same period when a date is missing.
func sameOrigin(a, b *Item) bool {
	var x, y *time.Time
	switch a.Kind {
	case KindContract:
		x, y = a.ContractDate, b.ContractDate
	case KindExecution:
		x, y = a.ExecutionDate, b.ExecutionDate
	}
	if x == nil || y == nil {
		return a.Period == b.Period
	}
	return x.Format("2006-01-02") == y.Format("2006-01-02")
}

func sameFigures(a, b *Item) bool {
	return a.Period == b.Period &&
		a.ManagerID == b.ManagerID &&
		a.ContractAmount.Equal(b.ContractAmount) &&
		a.ExecutionAmount.Equal(b.ExecutionAmount) &&
		a.CommissionRate.Equal(b.CommissionRate) &&
		a.FeeRate.Equal(b.FeeRate) &&
		a.ProcessingOrg == b.ProcessingOrg &&
		a.CustomerName == b.CustomerName &&
		a.CompanyName == b.CompanyName
}
