package settlement

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MonthlySettlementSummary is the per-manager roll-up of one settlement
// period. Despite the name it is also used for half-year and year views,
// whose items are flattened before aggregation.
type MonthlySettlementSummary struct {
	ManagerID   uuid.UUID `json:"manager_id"`
	ManagerName string    `json:"manager_name"`
	Period      string    `json:"period"`

	ContractCount      int             `json:"contract_count"`
	ContractAmountSum  decimal.Decimal `json:"contract_amount_sum"`
	ExecutionCount     int             `json:"execution_count"`
	ExecutionAmountSum decimal.Decimal `json:"execution_amount_sum"`

	GrossCommissionSum decimal.Decimal `json:"gross_commission_sum"`
	TaxAmountSum       decimal.Decimal `json:"tax_amount_sum"`
	NetCommissionSum   decimal.Decimal `json:"net_commission_sum"`

	ClawbackCount     int             `json:"clawback_count"`
	ClawbackAmountSum decimal.Decimal `json:"clawback_amount_sum"`

	FinalPayment decimal.Decimal `json:"final_payment"`
}

// Aggregate reduces a manager's items for one period into a summary.
//
// Clawback items never enter the contract/execution/commission sums. Their
// absolute net commission is collected separately and subtracted once from
// the net sum, so a reversal is counted exactly one time.
func Aggregate(items []Item, managerID uuid.UUID, managerName, period string) MonthlySettlementSummary {
	s := MonthlySettlementSummary{
		ManagerID:          managerID,
		ManagerName:        managerName,
		Period:             period,
		ContractAmountSum:  decimal.Zero,
		ExecutionAmountSum: decimal.Zero,
		GrossCommissionSum: decimal.Zero,
		TaxAmountSum:       decimal.Zero,
		NetCommissionSum:   decimal.Zero,
		ClawbackAmountSum:  decimal.Zero,
	}

	for i := range items {
		it := &items[i]
		if it.IsClawback {
			s.ClawbackCount++
			s.ClawbackAmountSum = s.ClawbackAmountSum.Add(it.NetCommission.Abs())
			continue
		}

		switch it.Kind {
		case KindContract:
			s.ContractCount++
			s.ContractAmountSum = s.ContractAmountSum.Add(it.ContractAmount)
		case KindExecution:
			s.ExecutionCount++
			s.ExecutionAmountSum = s.ExecutionAmountSum.Add(it.ExecutionAmount)
		}
		s.GrossCommissionSum = s.GrossCommissionSum.Add(it.GrossCommission)
		s.TaxAmountSum = s.TaxAmountSum.Add(it.TaxAmount)
		s.NetCommissionSum = s.NetCommissionSum.Add(it.NetCommission)
	}

	s.FinalPayment = s.NetCommissionSum.Sub(s.ClawbackAmountSum)
	return s
}

// AggregateByManager groups items by manager and aggregates each group.
// Results are ordered by manager name.
func AggregateByManager(items []Item, period string) []MonthlySettlementSummary {
	type group struct {
		name  string
		items []Item
	}
	groups := make(map[uuid.UUID]*group)
	for _, it := range items {
		g, ok := groups[it.ManagerID]
		if !ok {
			g = &group{name: it.ManagerName}
			groups[it.ManagerID] = g
		}
		g.items = append(g.items, it)
	}

	out := make([]MonthlySettlementSummary, 0, len(groups))
	for id, g := range groups {
		out = append(out, Aggregate(g.items, id, g.name, period))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ManagerName == out[j].ManagerName {
			return out[i].ManagerID.String() < out[j].ManagerID.String()
		}
		return out[i].ManagerName < out[j].ManagerName
	})
	return out
}

// Total sums several summaries into one (team or company roll-up)
func Total(summaries []MonthlySettlementSummary, label, period string) MonthlySettlementSummary {
	t := MonthlySettlementSummary{
		ManagerName:        label,
		Period:             period,
		ContractAmountSum:  decimal.Zero,
		ExecutionAmountSum: decimal.Zero,
		GrossCommissionSum: decimal.Zero,
		TaxAmountSum:       decimal.Zero,
		NetCommissionSum:   decimal.Zero,
		ClawbackAmountSum:  decimal.Zero,
		FinalPayment:       decimal.Zero,
	}
	for _, s := range summaries {
		t.ContractCount += s.ContractCount
		t.ContractAmountSum = t.ContractAmountSum.Add(s.ContractAmountSum)
		t.ExecutionCount += s.ExecutionCount
		t.ExecutionAmountSum = t.ExecutionAmountSum.Add(s.ExecutionAmountSum)
		t.GrossCommissionSum = t.GrossCommissionSum.Add(s.GrossCommissionSum)
		t.TaxAmountSum = t.TaxAmountSum.Add(s.TaxAmountSum)
		t.NetCommissionSum = t.NetCommissionSum.Add(s.NetCommissionSum)
		t.ClawbackCount += s.ClawbackCount
		t.ClawbackAmountSum = t.ClawbackAmountSum.Add(s.ClawbackAmountSum)
		t.FinalPayment = t.FinalPayment.Add(s.FinalPayment)
	}
	return t
}
