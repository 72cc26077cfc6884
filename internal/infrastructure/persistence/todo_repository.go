package persistence

import (
	"context"
	"errors"

	"github.com/bizconsult/crm/internal/domain/shared"
	"github.com/bizconsult/crm/internal/domain/todo"
	"github.com/bizconsult/crm/internal/infrastructure/persistence/datascope"
	"github.com/bizconsult/crm/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormTodoRepository implements todo.Repository using GORM
type GormTodoRepository struct {
	db *gorm.DB
}

// NewGormTodoRepository creates a new GormTodoRepository
func NewGormTodoRepository(db *gorm.DB) *GormTodoRepository {
	return &GormTodoRepository{db: db}
}

// FindByID finds a todo by ID
func (r *GormTodoRepository) FindByID(ctx context.Context, id uuid.UUID) (*todo.Item, error) {
	var model models.TodoModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists todos visible to the caller, open items first then by due date
func (r *GormTodoRepository) FindAll(ctx context.Context, filter todo.ListFilter) ([]todo.Item, error) {
	query := r.db.WithContext(ctx).Model(&models.TodoModel{})
	query = datascope.FromContext(ctx).Apply(query, datascope.Todos)

	if filter.AssigneeID != nil {
		query = query.Where("assignee_id = ?", *filter.AssigneeID)
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.DueFrom != nil {
		query = query.Where("due_date >= ?", *filter.DueFrom)
	}
	if filter.DueTo != nil {
		query = query.Where("due_date < ?", *filter.DueTo)
	}
	if filter.Done != nil {
		query = query.Where("done = ?", *filter.Done)
	}

	var rows []models.TodoModel
	if err := query.Order("done ASC, due_date ASC, created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]todo.Item, len(rows))
	for i := range rows {
		items[i] = *rows[i].ToDomain()
	}
	return items, nil
}

// Save creates or updates a todo
func (r *GormTodoRepository) Save(ctx context.Context, item *todo.Item) error {
	return r.db.WithContext(ctx).Save(models.TodoModelFromDomain(item)).Error
}

// Delete removes a todo
func (r *GormTodoRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.TodoModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ todo.Repository = (*GormTodoRepository)(nil)
