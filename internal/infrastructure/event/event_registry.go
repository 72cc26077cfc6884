package event

import (
	"github.com/bizconsult/crm/internal/domain/customer"
	"github.com/bizconsult/crm/internal/domain/settlement"
)

// RegisterAllEvents registers every domain event type with the serializer
func RegisterAllEvents(serializer *EventSerializer) {
	serializer.Register(customer.EventTypeCustomerCreated, &customer.CustomerCreatedEvent{})
	serializer.Register(customer.EventTypeCustomerUpdated, &customer.CustomerUpdatedEvent{})
	serializer.Register(customer.EventTypeCustomerStatusChanged, &customer.CustomerStatusChangedEvent{})
	serializer.Register(customer.EventTypeCustomerMemoAdded, &customer.CustomerMemoAddedEvent{})
	serializer.Register(customer.EventTypeCustomerDocumentAttached, &customer.CustomerDocumentAttachedEvent{})
	serializer.Register(customer.EventTypeCustomerDeleted, &customer.CustomerDeletedEvent{})

	serializer.Register(settlement.EventTypeSettlementSynced, &settlement.SyncedEvent{})
	serializer.Register(settlement.EventTypeClawbackProcessed, &settlement.ClawbackProcessedEvent{})
}
