package todo

import (
	"context"
	"testing"
	"time"

	"github.com/bizconsult/crm/internal/domain/identity"
	"github.com/bizconsult/crm/internal/domain/shared"
	"github.com/bizconsult/crm/internal/domain/todo"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockTodoRepository struct {
	mock.Mock
}

func (m *MockTodoRepository) FindByID(ctx context.Context, id uuid.UUID) (*todo.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*todo.Item), args.Error(1)
}

func (m *MockTodoRepository) FindAll(ctx context.Context, filter todo.ListFilter) ([]todo.Item, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]todo.Item), args.Error(1)
}

func (m *MockTodoRepository) Save(ctx context.Context, item *todo.Item) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockTodoRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockUserRepository struct {
	mock.Mock
	identity.UserRepository
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

var today = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func newService() (*TodoService, *MockTodoRepository, *MockUserRepository) {
	repo := new(MockTodoRepository)
	users := new(MockUserRepository)
	svc := NewTodoService(repo, users, zap.NewNop())
	svc.now = func() time.Time { return today }
	return svc, repo, users
}

func scoped(role identity.Role, teamID *uuid.UUID) (context.Context, identity.AccessScope) {
	scope := identity.AccessScope{UserID: uuid.New(), Role: role, TeamID: teamID}
	return identity.WithScope(context.Background(), scope), scope
}

func TestTodoService_CreateDefaultsToCaller(t *testing.T) {
	svc, repo, _ := newService()
	ctx, scope := scoped(identity.RoleStaff, nil)
	repo.On("Save", ctx, mock.MatchedBy(func(i *todo.Item) bool {
		return i.AssigneeID == scope.UserID && i.Priority == todo.PriorityNormal
	})).Return(nil)

	due := today.AddDate(0, 0, -1)
	dto, err := svc.Create(ctx, TodoInput{Title: "사업자등록증 회수", DueDate: &due})
	require.NoError(t, err)
	assert.True(t, dto.Overdue)
	repo.AssertExpectations(t)
}

func TestTodoService_StaffCannotAssignOthers(t *testing.T) {
	svc, repo, _ := newService()
	ctx, _ := scoped(identity.RoleStaff, nil)
	other := uuid.New()

	_, err := svc.Create(ctx, TodoInput{Title: "x", AssigneeID: &other})
	assert.ErrorIs(t, err, shared.ErrForbidden)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestTodoService_TeamLeaderAssignsTeamMember(t *testing.T) {
	svc, repo, users := newService()
	teamID := uuid.New()
	ctx, _ := scoped(identity.RoleTeamLeader, &teamID)
	member := &identity.User{BaseAggregateRoot: shared.NewBaseAggregateRoot(), TeamID: &teamID}
	outsider := &identity.User{BaseAggregateRoot: shared.NewBaseAggregateRoot()}
	users.On("FindByID", ctx, member.ID).Return(member, nil)
	users.On("FindByID", ctx, outsider.ID).Return(outsider, nil)
	repo.On("Save", ctx, mock.Anything).Return(nil)

	_, err := svc.Create(ctx, TodoInput{Title: "재상담 연락", AssigneeID: &member.ID})
	require.NoError(t, err)

	_, err = svc.Create(ctx, TodoInput{Title: "재상담 연락", AssigneeID: &outsider.ID})
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestTodoService_ListPinsStaffToOwnItems(t *testing.T) {
	svc, repo, _ := newService()
	ctx, scope := scoped(identity.RoleStaff, nil)
	done := false
	repo.On("FindAll", ctx, todo.ListFilter{AssigneeID: &scope.UserID, Done: &done}).Return([]todo.Item{}, nil)

	items, err := svc.List(ctx, ListTodosInput{Done: &done})
	require.NoError(t, err)
	assert.Empty(t, items)
	repo.AssertExpectations(t)
}

func TestTodoService_CompleteReopenDelete(t *testing.T) {
	svc, repo, _ := newService()
	ctx, scope := scoped(identity.RoleStaff, nil)
	item, err := todo.NewItem("서류 회수", scope.UserID, todo.PriorityHigh)
	require.NoError(t, err)
	repo.On("FindByID", ctx, item.ID).Return(item, nil)
	repo.On("Save", ctx, item).Return(nil)
	repo.On("Delete", ctx, item.ID).Return(nil)

	dto, err := svc.Complete(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, dto.Done)
	assert.Equal(t, today, *dto.DoneAt)

	dto, err = svc.Reopen(ctx, item.ID)
	require.NoError(t, err)
	assert.False(t, dto.Done)

	require.NoError(t, svc.Delete(ctx, item.ID))
}

func TestTodoService_OtherStaffSeeNotFound(t *testing.T) {
	svc, repo, _ := newService()
	ctx, _ := scoped(identity.RoleStaff, nil)
	item, err := todo.NewItem("남의 할일", uuid.New(), "")
	require.NoError(t, err)
	repo.On("FindByID", ctx, item.ID).Return(item, nil)

	_, err = svc.GetByID(ctx, item.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
