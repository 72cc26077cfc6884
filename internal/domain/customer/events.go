package customer

import (
	"github.com/bizconsult/crm/internal/domain/shared"
	"github.com/google/uuid"
)

// AggregateTypeCustomer is the aggregate type for customer events
const AggregateTypeCustomer = "Customer"

// Event type constants
const (
	EventTypeCustomerCreated          = "CustomerCreated"
	EventTypeCustomerUpdated          = "CustomerUpdated"
	EventTypeCustomerStatusChanged    = "CustomerStatusChanged"
	EventTypeCustomerMemoAdded        = "CustomerMemoAdded"
	EventTypeCustomerDocumentAttached = "CustomerDocumentAttached"
	EventTypeCustomerDeleted          = "CustomerDeleted"
)

// CustomerCreatedEvent is published when a customer is taken in
type CustomerCreatedEvent struct {
	shared.BaseDomainEvent
	CustomerID  uuid.UUID `json:"customer_id"`
	Name        string    `json:"name"`
	CompanyName string    `json:"company_name"`
}

// NewCustomerCreatedEvent creates a new CustomerCreatedEvent
func NewCustomerCreatedEvent(c *Customer) *CustomerCreatedEvent {
	return &CustomerCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerCreated, AggregateTypeCustomer, c.ID, uuid.Nil),
		CustomerID:      c.ID,
		Name:            c.Name,
		CompanyName:     c.CompanyName,
	}
}

// CustomerUpdatedEvent is published when fields of a customer are edited
type CustomerUpdatedEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID `json:"customer_id"`
	Fields     []string  `json:"fields"`
}

// NewCustomerUpdatedEvent creates a new CustomerUpdatedEvent
func NewCustomerUpdatedEvent(c *Customer, actorID uuid.UUID, fields []string) *CustomerUpdatedEvent {
	return &CustomerUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerUpdated, AggregateTypeCustomer, c.ID, actorID),
		CustomerID:      c.ID,
		Fields:          fields,
	}
}

// CustomerStatusChangedEvent is published when the funnel stage changes
type CustomerStatusChangedEvent struct {
	shared.BaseDomainEvent
	CustomerID  uuid.UUID  `json:"customer_id"`
	Name        string     `json:"name"`
	CompanyName string     `json:"company_name"`
	ManagerID   *uuid.UUID `json:"manager_id,omitempty"`
	OldStatus   Status     `json:"old_status"`
	NewStatus   Status     `json:"new_status"`
}

// NewCustomerStatusChangedEvent creates a new CustomerStatusChangedEvent
func NewCustomerStatusChangedEvent(c *Customer, oldStatus, newStatus Status, actorID uuid.UUID) *CustomerStatusChangedEvent {
	return &CustomerStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerStatusChanged, AggregateTypeCustomer, c.ID, actorID),
		CustomerID:      c.ID,
		Name:            c.Name,
		CompanyName:     c.CompanyName,
		ManagerID:       c.ManagerID,
		OldStatus:       oldStatus,
		NewStatus:       newStatus,
	}
}

// CustomerMemoAddedEvent is published when a memo is appended
type CustomerMemoAddedEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID `json:"customer_id"`
	Memo       Memo      `json:"memo"`
}

// NewCustomerMemoAddedEvent creates a new CustomerMemoAddedEvent
func NewCustomerMemoAddedEvent(c *Customer, memo Memo) *CustomerMemoAddedEvent {
	return &CustomerMemoAddedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerMemoAdded, AggregateTypeCustomer, c.ID, memo.AuthorID),
		CustomerID:      c.ID,
		Memo:            memo,
	}
}

// CustomerDocumentAttachedEvent is published when a file reference is added
type CustomerDocumentAttachedEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID `json:"customer_id"`
	Document   Document  `json:"document"`
}

// NewCustomerDocumentAttachedEvent creates a new CustomerDocumentAttachedEvent
func NewCustomerDocumentAttachedEvent(c *Customer, doc Document) *CustomerDocumentAttachedEvent {
	return &CustomerDocumentAttachedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerDocumentAttached, AggregateTypeCustomer, c.ID, uuid.Nil),
		CustomerID:      c.ID,
		Document:        doc,
	}
}

// CustomerDeletedEvent is published when an admin removes a customer
type CustomerDeletedEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID `json:"customer_id"`
}

// NewCustomerDeletedEvent creates a new CustomerDeletedEvent
func NewCustomerDeletedEvent(id, actorID uuid.UUID) *CustomerDeletedEvent {
	return &CustomerDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerDeleted, AggregateTypeCustomer, id, actorID),
		CustomerID:      id,
	}
}
