package settlement

import (
	"context"

	"github.com/google/uuid"
)

// ItemFilter narrows settlement item queries
type ItemFilter struct {
	Periods   []string
	ManagerID *uuid.UUID
	TeamID    *uuid.UUID
}

// ItemRepository defines persistence for settlement items
type ItemRepository interface {
	// FindByCustomer returns every item of a customer, clawbacks included
	FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]Item, error)

	// FindByPeriods returns items in the given periods, optionally scoped to a manager or team
	FindByPeriods(ctx context.Context, filter ItemFilter) ([]Item, error)

	// SaveAll upserts items by ID
	SaveAll(ctx context.Context, items []*Item) error

	// ApplySync writes a sync plan atomically: upserts and deletions of
	// stale non-clawback items commit together or not at all
	ApplySync(ctx context.Context, plan SyncPlan) error
}
