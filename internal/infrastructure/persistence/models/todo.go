package models

import (
	"time"

	"github.com/bizconsult/crm/internal/domain/todo"
	"github.com/google/uuid"
)

// TodoModel is the persistence model for todos
type TodoModel struct {
	BaseModel
	Title       string     `gorm:"type:varchar(200);not null"`
	Description string     `gorm:"type:text"`
	DueDate     *time.Time `gorm:"index"`
	Priority    string     `gorm:"type:varchar(10);not null;default:'normal'"`
	CustomerID  *uuid.UUID `gorm:"type:uuid;index"`
	AssigneeID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	Done        bool       `gorm:"not null;default:false"`
	DoneAt      *time.Time
}

// TableName returns the table name for GORM
func (TodoModel) TableName() string {
	return "todos"
}

// ToDomain converts to the domain todo Item
func (m *TodoModel) ToDomain() *todo.Item {
	return &todo.Item{
		BaseEntity:  m.BaseModel.ToDomain(),
		Title:       m.Title,
		Description: m.Description,
		DueDate:     m.DueDate,
		Priority:    todo.Priority(m.Priority),
		CustomerID:  m.CustomerID,
		AssigneeID:  m.AssigneeID,
		Done:        m.Done,
		DoneAt:      m.DoneAt,
	}
}

// TodoModelFromDomain creates a persistence model from a todo Item
func TodoModelFromDomain(i *todo.Item) *TodoModel {
	m := &TodoModel{
		Title:       i.Title,
		Description: i.Description,
		DueDate:     i.DueDate,
		Priority:    string(i.Priority),
		CustomerID:  i.CustomerID,
		AssigneeID:  i.AssigneeID,
		Done:        i.Done,
		DoneAt:      i.DoneAt,
	}
	m.FromDomainBaseEntity(i.BaseEntity)
	return m
}
