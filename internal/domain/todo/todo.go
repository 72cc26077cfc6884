package todo

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bizconsult/crm/internal/domain/shared"
	"github.com/google/uuid"
)

// Priority orders todo items
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// IsValid reports whether the priority is known
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Item is a task assigned to a user, optionally linked to a customer
type Item struct {
	shared.BaseEntity
	Title       string
	Description string
	DueDate     *time.Time
	Priority    Priority
	CustomerID  *uuid.UUID
	AssigneeID  uuid.UUID
	Done        bool
	DoneAt      *time.Time
}

// NewItem creates an open todo item
func NewItem(title string, assigneeID uuid.UUID, priority Priority) (*Item, error) {
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if assigneeID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ASSIGNEE", "Assignee is required")
	}
	if priority == "" {
		priority = PriorityNormal
	}
	if !priority.IsValid() {
		return nil, shared.NewDomainError("INVALID_PRIORITY", "Unknown priority: "+string(priority))
	}
	return &Item{
		BaseEntity: shared.NewBaseEntity(),
		Title:      strings.TrimSpace(title),
		Priority:   priority,
		AssigneeID: assigneeID,
	}, nil
}

// Update edits the descriptive fields
func (i *Item) Update(title, description string, due *time.Time, priority Priority, customerID *uuid.UUID) error {
	if err := validateTitle(title); err != nil {
		return err
	}
	if !priority.IsValid() {
		return shared.NewDomainError("INVALID_PRIORITY", "Unknown priority: "+string(priority))
	}
	i.Title = strings.TrimSpace(title)
	i.Description = description
	i.DueDate = due
	i.Priority = priority
	i.CustomerID = customerID
	i.Touch()
	return nil
}

// Complete marks the item done
func (i *Item) Complete(at time.Time) {
	if i.Done {
		return
	}
	i.Done = true
	i.DoneAt = &at
	i.Touch()
}

// Reopen marks the item open again
func (i *Item) Reopen() {
	i.Done = false
	i.DoneAt = nil
	i.Touch()
}

// IsOverdue reports whether an open item is past its due date
func (i *Item) IsOverdue(now time.Time) bool {
	return !i.Done && i.DueDate != nil && i.DueDate.Before(now)
}

func validateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return shared.NewDomainError("INVALID_TITLE", "Todo title cannot be empty")
	}
	if utf8.RuneCountInString(title) > 200 {
		return shared.NewDomainError("INVALID_TITLE", "Todo title cannot exceed 200 characters")
	}
	return nil
}

// ListFilter narrows todo queries
type ListFilter struct {
	AssigneeID *uuid.UUID
	CustomerID *uuid.UUID
	DueFrom    *time.Time
	DueTo      *time.Time
	Done       *bool
}

// Repository defines persistence for todo items
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Item, error)
	FindAll(ctx context.Context, filter ListFilter) ([]Item, error)
	Save(ctx context.Context, item *Item) error
	Delete(ctx context.Context, id uuid.UUID) error
}
