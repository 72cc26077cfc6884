package identity

import (
	"context"
	"testing"
	"time"

	"github.com/bizconsult/crm/internal/domain/identity"
	"github.com/bizconsult/crm/internal/domain/shared"
	"github.com/bizconsult/crm/internal/infrastructure/auth"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newUserService() (*UserService, *MockUserRepository, *MockTeamRepository, *auth.InMemoryTokenBlacklist) {
	users := new(MockUserRepository)
	teams := new(MockTeamRepository)
	blacklist := auth.NewInMemoryTokenBlacklist()
	return NewUserService(users, teams, blacklist, time.Hour, zap.NewNop()), users, teams, blacklist
}

func TestUserService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a user in a team", func(t *testing.T) {
		svc, users, teams, _ := newUserService()
		team, _ := identity.NewTeam("영업1팀")
		users.On("ExistsByEmail", ctx, "park@example.com").Return(false, nil)
		teams.On("FindByID", ctx, team.ID).Return(team, nil)
		users.On("Save", ctx, mock.AnythingOfType("*identity.User")).Return(nil)

		dto, err := svc.Create(ctx, CreateUserInput{
			Email:    "park@example.com",
			Name:     "박사원",
			Phone:    "010-1234-5678",
			Password: "password123",
			Role:     "staff",
			TeamID:   &team.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, "staff", dto.Role)
		assert.Equal(t, "010-1234-5678", dto.Phone)
		require.NotNil(t, dto.TeamID)
		assert.Equal(t, team.ID, *dto.TeamID)
		users.AssertExpectations(t)
	})

	t.Run("duplicate email", func(t *testing.T) {
		svc, users, _, _ := newUserService()
		users.On("ExistsByEmail", ctx, "park@example.com").Return(true, nil)

		_, err := svc.Create(ctx, CreateUserInput{Email: "park@example.com", Name: "박사원", Password: "password123", Role: "staff"})
		de, ok := shared.AsDomainError(err)
		require.True(t, ok)
		assert.Equal(t, "EMAIL_EXISTS", de.Code)
	})

	t.Run("unknown team", func(t *testing.T) {
		svc, users, teams, _ := newUserService()
		teamID := uuid.New()
		users.On("ExistsByEmail", ctx, "park@example.com").Return(false, nil)
		teams.On("FindByID", ctx, teamID).Return(nil, shared.ErrNotFound)

		_, err := svc.Create(ctx, CreateUserInput{Email: "park@example.com", Name: "박사원", Password: "password123", Role: "staff", TeamID: &teamID})
		de, ok := shared.AsDomainError(err)
		require.True(t, ok)
		assert.Equal(t, "TEAM_NOT_FOUND", de.Code)
	})
}

func TestUserService_EnsureSuperAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("creates when missing", func(t *testing.T) {
		svc, users, _, _ := newUserService()
		users.On("ExistsByEmail", ctx, "admin@example.com").Return(false, nil)
		users.On("Save", ctx, mock.MatchedBy(func(u *identity.User) bool {
			return u.Role == identity.RoleSuperAdmin && u.Email == "admin@example.com"
		})).Return(nil)

		created, err := svc.EnsureSuperAdmin(ctx, " Admin@Example.com ", "관리자", "password123")
		require.NoError(t, err)
		assert.True(t, created)
		users.AssertExpectations(t)
	})

	t.Run("leaves an existing account alone", func(t *testing.T) {
		svc, users, _, _ := newUserService()
		users.On("ExistsByEmail", ctx, "admin@example.com").Return(true, nil)

		created, err := svc.EnsureSuperAdmin(ctx, "admin@example.com", "관리자", "password123")
		require.NoError(t, err)
		assert.False(t, created)
		users.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestUserService_UpdateCommissionPolicy(t *testing.T) {
	ctx := context.Background()
	svc, users, _, _ := newUserService()
	user := newTestUser(t, "password123")
	users.On("FindByID", ctx, user.ID).Return(user, nil)
	users.On("Save", ctx, user).Return(nil)

	dto, err := svc.UpdateCommissionPolicy(ctx, user.ID, CommissionPolicyInput{
		ContractRate:    decimal.NewFromInt(10),
		ExecutionRate:   decimal.NewFromInt(20),
		OutsourcingRate: decimal.NewFromInt(5),
	})
	require.NoError(t, err)
	assert.True(t, dto.ExecutionRate.Equal(decimal.NewFromInt(20)))
	assert.True(t, user.CommissionPolicy().OutsourcingRate.Equal(decimal.NewFromInt(5)))

	_, err = svc.UpdateCommissionPolicy(ctx, user.ID, CommissionPolicyInput{ContractRate: decimal.NewFromInt(101)})
	de, ok := shared.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, "INVALID_COMMISSION_RATE", de.Code)
}

func TestUserService_Deactivate_RevokesTokens(t *testing.T) {
	ctx := context.Background()
	svc, users, _, blacklist := newUserService()
	user := newTestUser(t, "password123")
	users.On("FindByID", ctx, user.ID).Return(user, nil)
	users.On("Save", ctx, user).Return(nil).Once()

	require.NoError(t, svc.Deactivate(ctx, user.ID))
	assert.False(t, user.Active)

	revoked, err := blacklist.IsUserRevoked(ctx, user.ID.String(), time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.True(t, revoked)

	// already inactive: no second write
	require.NoError(t, svc.Deactivate(ctx, user.ID))
	users.AssertNumberOfCalls(t, "Save", 1)
}

func TestUserService_Update_RoleChangeRevokes(t *testing.T) {
	ctx := context.Background()
	svc, users, _, blacklist := newUserService()
	user := newTestUser(t, "password123")
	users.On("FindByID", ctx, user.ID).Return(user, nil)
	users.On("Save", ctx, user).Return(nil)

	name := "김팀장"
	role := "team_leader"
	dto, err := svc.Update(ctx, user.ID, UpdateUserInput{Name: &name, Role: &role})
	require.NoError(t, err)
	assert.Equal(t, "김팀장", dto.Name)
	assert.Equal(t, "team_leader", dto.Role)

	revoked, err := blacklist.IsUserRevoked(ctx, user.ID.String(), time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestTeamService(t *testing.T) {
	ctx := context.Background()

	t.Run("create", func(t *testing.T) {
		teams := new(MockTeamRepository)
		svc := NewTeamService(teams, new(MockUserRepository), zap.NewNop())
		teams.On("Save", ctx, mock.AnythingOfType("*identity.Team")).Return(nil)

		dto, err := svc.Create(ctx, TeamInput{Name: "영업2팀"})
		require.NoError(t, err)
		assert.Equal(t, "영업2팀", dto.Name)
	})

	t.Run("leader must be a member", func(t *testing.T) {
		teams := new(MockTeamRepository)
		users := new(MockUserRepository)
		svc := NewTeamService(teams, users, zap.NewNop())
		team, _ := identity.NewTeam("영업2팀")
		outsider := newTestUser(t, "password123")
		teams.On("FindByID", ctx, team.ID).Return(team, nil)
		users.On("FindByID", ctx, outsider.ID).Return(outsider, nil)

		_, err := svc.Update(ctx, team.ID, TeamInput{Name: "영업2팀", LeaderID: &outsider.ID})
		de, ok := shared.AsDomainError(err)
		require.True(t, ok)
		assert.Equal(t, "LEADER_NOT_IN_TEAM", de.Code)
		teams.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("delete refuses teams with members", func(t *testing.T) {
		teams := new(MockTeamRepository)
		users := new(MockUserRepository)
		svc := NewTeamService(teams, users, zap.NewNop())
		teamID := uuid.New()
		users.On("FindAll", ctx, &teamID).Return([]identity.User{*newTestUser(t, "password123")}, nil)

		err := svc.Delete(ctx, teamID)
		de, ok := shared.AsDomainError(err)
		require.True(t, ok)
		assert.Equal(t, "TEAM_NOT_EMPTY", de.Code)
	})
}
