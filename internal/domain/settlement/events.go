package settlement

import (
	"time"

	"github.com/bizconsult/crm/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeSettlement is the aggregate type for settlement events.
// Settlement events use the customer ID as aggregate ID.
const AggregateTypeSettlement = "Settlement"

const (
	EventTypeSettlementSynced  = "SettlementSynced"
	EventTypeClawbackProcessed = "ClawbackProcessed"
)

// SyncedEvent is published after a customer's items were brought up to date
type SyncedEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID   `json:"customer_id"`
	Upserted   int         `json:"upserted"`
	Deleted    int         `json:"deleted"`
	Periods    []string    `json:"periods"`
	ItemIDs    []uuid.UUID `json:"item_ids"`
}

// NewSyncedEvent creates a SyncedEvent from an applied plan
func NewSyncedEvent(customerID, actorID uuid.UUID, plan SyncPlan) *SyncedEvent {
	e := &SyncedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSettlementSynced, AggregateTypeSettlement, customerID, actorID),
		CustomerID:      customerID,
		Upserted:        len(plan.Upserts),
		Deleted:         len(plan.Deletes),
	}
	seen := map[string]bool{}
	for _, it := range plan.Upserts {
		e.ItemIDs = append(e.ItemIDs, it.ID)
		if !seen[it.Period] {
			seen[it.Period] = true
			e.Periods = append(e.Periods, it.Period)
		}
	}
	return e
}

// ClawbackProcessedEvent is published after reversal items were created
type ClawbackProcessedEvent struct {
	shared.BaseDomainEvent
	CustomerID   uuid.UUID       `json:"customer_id"`
	ClawbackDate time.Time       `json:"clawback_date"`
	Period       string          `json:"period"`
	Count        int             `json:"count"`
	Amount       decimal.Decimal `json:"amount"` // sum of |net_commission|
}

// NewClawbackProcessedEvent creates a ClawbackProcessedEvent
func NewClawbackProcessedEvent(customerID, actorID uuid.UUID, clawbackDate time.Time, items []*Item) *ClawbackProcessedEvent {
	amount := decimal.Zero
	for _, it := range items {
		amount = amount.Add(it.NetCommission.Abs())
	}
	return &ClawbackProcessedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeClawbackProcessed, AggregateTypeSettlement, customerID, actorID),
		CustomerID:      customerID,
		ClawbackDate:    clawbackDate,
		Period:          PeriodOf(clawbackDate),
		Count:           len(items),
		Amount:          amount,
	}
}
