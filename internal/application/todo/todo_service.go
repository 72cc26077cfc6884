package todo

import (
	"context"
	"time"

	"github.com/bizconsult/crm/internal/domain/identity"
	"github.com/bizconsult/crm/internal/domain/shared"
	"github.com/bizconsult/crm/internal/domain/todo"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TodoDTO represents a todo in API responses
type TodoDTO struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Priority    string     `json:"priority"`
	CustomerID  *uuid.UUID `json:"customer_id,omitempty"`
	AssigneeID  uuid.UUID  `json:"assignee_id"`
	Done        bool       `json:"done"`
	DoneAt      *time.Time `json:"done_at,omitempty"`
	Overdue     bool       `json:"overdue"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toTodoDTO(i *todo.Item, now time.Time) TodoDTO {
	return TodoDTO{
		ID:          i.ID,
		Title:       i.Title,
		Description: i.Description,
		DueDate:     i.DueDate,
		Priority:    string(i.Priority),
		CustomerID:  i.CustomerID,
		AssigneeID:  i.AssigneeID,
		Done:        i.Done,
		DoneAt:      i.DoneAt,
		Overdue:     i.IsOverdue(now),
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
}

// TodoInput creates or replaces a todo
type TodoInput struct {
	Title       string     `json:"title" binding:"required,max=200"`
	Description string     `json:"description" binding:"max=2000"`
	DueDate     *time.Time `json:"due_date"`
	Priority    string     `json:"priority" binding:"omitempty,oneof=low normal high urgent"`
	CustomerID  *uuid.UUID `json:"customer_id"`
	AssigneeID  *uuid.UUID `json:"assignee_id"`
}

// ListTodosInput filters the todo list
type ListTodosInput struct {
	AssigneeID *uuid.UUID `form:"assignee_id"`
	CustomerID *uuid.UUID `form:"customer_id"`
	DueFrom    *time.Time `form:"due_from" time_format:"2006-01-02"`
	DueTo      *time.Time `form:"due_to" time_format:"2006-01-02"`
	Done       *bool      `form:"done"`
}

// TodoService manages the personal task list
type TodoService struct {
	repo   todo.Repository
	users  identity.UserRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewTodoService creates a new TodoService
func NewTodoService(repo todo.Repository, users identity.UserRepository, logger *zap.Logger) *TodoService {
	return &TodoService{repo: repo, users: users, logger: logger, now: time.Now}
}

// Create adds a todo. Without an assignee it is assigned to the caller.
func (s *TodoService) Create(ctx context.Context, input TodoInput) (*TodoDTO, error) {
	scope, ok := identity.ScopeFromContext(ctx)
	if !ok {
		return nil, shared.ErrForbidden
	}
	assignee := scope.UserID
	if input.AssigneeID != nil {
		assignee = *input.AssigneeID
	}
	if err := s.checkAssignee(ctx, scope, assignee); err != nil {
		return nil, err
	}

	item, err := todo.NewItem(input.Title, assignee, todo.Priority(input.Priority))
	if err != nil {
		return nil, err
	}
	if err := item.Update(item.Title, input.Description, input.DueDate, item.Priority, input.CustomerID); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, item); err != nil {
		return nil, err
	}
	s.logger.Debug("Todo created", zap.String("todo_id", item.ID.String()), zap.String("assignee_id", assignee.String()))
	dto := toTodoDTO(item, s.now())
	return &dto, nil
}

// GetByID returns a visible todo
func (s *TodoService) GetByID(ctx context.Context, id uuid.UUID) (*TodoDTO, error) {
	item, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toTodoDTO(item, s.now())
	return &dto, nil
}

// List returns todos ordered by due date. Staff only see their own list.
func (s *TodoService) List(ctx context.Context, input ListTodosInput) ([]TodoDTO, error) {
	scope, ok := identity.ScopeFromContext(ctx)
	if !ok {
		return nil, shared.ErrForbidden
	}
	filter := todo.ListFilter{
		AssigneeID: input.AssigneeID,
		CustomerID: input.CustomerID,
		DueFrom:    input.DueFrom,
		DueTo:      input.DueTo,
		Done:       input.Done,
	}
	if filter.AssigneeID == nil {
		filter.AssigneeID = &scope.UserID
	} else if err := s.checkAssignee(ctx, scope, *filter.AssigneeID); err != nil {
		return nil, err
	}

	items, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]TodoDTO, len(items))
	for i := range items {
		out[i] = toTodoDTO(&items[i], now)
	}
	return out, nil
}

// Update replaces the editable fields of a todo
func (s *TodoService) Update(ctx context.Context, id uuid.UUID, input TodoInput) (*TodoDTO, error) {
	item, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	priority := todo.Priority(input.Priority)
	if priority == "" {
		priority = item.Priority
	}
	if input.AssigneeID != nil && *input.AssigneeID != item.AssigneeID {
		scope, _ := identity.ScopeFromContext(ctx)
		if err := s.checkAssignee(ctx, scope, *input.AssigneeID); err != nil {
			return nil, err
		}
		item.AssigneeID = *input.AssigneeID
	}
	if err := item.Update(input.Title, input.Description, input.DueDate, priority, input.CustomerID); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, item); err != nil {
		return nil, err
	}
	dto := toTodoDTO(item, s.now())
	return &dto, nil
}

// Complete marks a todo done
func (s *TodoService) Complete(ctx context.Context, id uuid.UUID) (*TodoDTO, error) {
	return s.mutate(ctx, id, func(i *todo.Item) { i.Complete(s.now()) })
}

// Reopen marks a todo open again
func (s *TodoService) Reopen(ctx context.Context, id uuid.UUID) (*TodoDTO, error) {
	return s.mutate(ctx, id, func(i *todo.Item) { i.Reopen() })
}

// Delete removes a todo
func (s *TodoService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *TodoService) mutate(ctx context.Context, id uuid.UUID, fn func(*todo.Item)) (*TodoDTO, error) {
	item, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	fn(item)
	if err := s.repo.Save(ctx, item); err != nil {
		return nil, err
	}
	dto := toTodoDTO(item, s.now())
	return &dto, nil
}

func (s *TodoService) load(ctx context.Context, id uuid.UUID) (*todo.Item, error) {
	scope, ok := identity.ScopeFromContext(ctx)
	if !ok {
		return nil, shared.ErrForbidden
	}
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkAssignee(ctx, scope, item.AssigneeID); err != nil {
		return nil, shared.ErrNotFound
	}
	return item, nil
}

// checkAssignee allows the caller themself, team leaders their team members,
// and super admins anyone.
func (s *TodoService) checkAssignee(ctx context.Context, scope identity.AccessScope, assignee uuid.UUID) error {
	if assignee == scope.UserID || scope.IsUnrestricted() {
		return nil
	}
	if scope.Role != identity.RoleTeamLeader {
		return shared.ErrForbidden
	}
	u, err := s.users.FindByID(ctx, assignee)
	if err != nil {
		return err
	}
	if !scope.CanAccess(nil, u.TeamID) {
		return shared.ErrForbidden
	}
	return nil
}
