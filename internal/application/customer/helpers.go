package customer

import (
	"context"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/bizconsult/crm/internal/domain/activity"
	"github.com/bizconsult/crm/internal/domain/customer"
	"github.com/bizconsult/crm/internal/domain/shared"
	"go.uber.org/zap"
)

// recordChanges appends one history entry per changed field, then publishes
// an update event naming the fields. The status field is logged as a status
// change so the feed can tell the two apart.
func recordChanges(
	ctx context.Context,
	logs activity.LogRepository,
	bus shared.EventPublisher,
	logger *zap.Logger,
	c *customer.Customer,
	changes []customer.FieldChange,
	actor activity.Actor,
) {
	if len(changes) == 0 {
		return
	}
	entries := make([]*activity.HistoryLog, 0, len(changes))
	fields := make([]string, 0, len(changes))
	for _, ch := range changes {
		action := activity.ActionFieldUpdated
		if ch.Field == "status_code" {
			action = activity.ActionStatusChanged
		}
		entries = append(entries, activity.NewHistoryLog(c.ID, action, ch.Field, ch.OldValue, ch.NewValue, actor))
		fields = append(fields, ch.Field)
	}
	if err := logs.AppendHistory(ctx, entries...); err != nil {
		logger.Error("Failed to append history",
			zap.String("customer_id", c.ID.String()),
			zap.Int("entries", len(entries)),
			zap.Error(err))
	}
	c.AddDomainEvent(customer.NewCustomerUpdatedEvent(c, actor.ID, fields))
	publishEvents(ctx, bus, logger, c)
}

// publishEvents drains the aggregate's pending events onto the bus.
// Publish failures never fail the request.
func publishEvents(ctx context.Context, bus shared.EventPublisher, logger *zap.Logger, agg shared.AggregateRoot) {
	events := agg.GetDomainEvents()
	agg.ClearDomainEvents()
	if len(events) == 0 || bus == nil {
		return
	}
	if err := bus.Publish(ctx, events...); err != nil {
		logger.Warn("Failed to publish domain events", zap.Int("count", len(events)), zap.Error(err))
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max]) + "…"
}
