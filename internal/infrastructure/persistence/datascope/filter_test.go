package datascope

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/bizconsult/crm/internal/domain/identity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type row struct {
	ID        uuid.UUID
	ManagerID *uuid.UUID
	TeamID    *uuid.UUID
}

func (row) TableName() string { return "customers" }

func dryRun(t *testing.T) *gorm.DB {
	t.Helper()
	mockDB, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db.Session(&gorm.Session{DryRun: true})
}

func renderSQL(t *testing.T, f *Filter, r Resource) (string, []any) {
	t.Helper()
	var rows []row
	stmt := f.Apply(dryRun(t).Model(&row{}), r).Find(&rows).Statement
	return stmt.SQL.String(), stmt.Vars
}

func TestFilter_Apply(t *testing.T) {
	userID := uuid.New()
	teamID := uuid.New()

	t.Run("super admin is unrestricted", func(t *testing.T) {
		sql, _ := renderSQL(t, New(identity.AccessScope{UserID: userID, Role: identity.RoleSuperAdmin}), Customers)
		assert.NotContains(t, sql, "WHERE")
	})

	t.Run("staff sees own rows", func(t *testing.T) {
		sql, vars := renderSQL(t, New(identity.AccessScope{UserID: userID, Role: identity.RoleStaff, TeamID: &teamID}), Customers)
		assert.Contains(t, sql, "customers.manager_id = $1")
		assert.NotContains(t, sql, "team_id")
		assert.Equal(t, []any{userID}, vars)
	})

	t.Run("team leader sees team rows", func(t *testing.T) {
		sql, vars := renderSQL(t, New(identity.AccessScope{UserID: userID, Role: identity.RoleTeamLeader, TeamID: &teamID}), Customers)
		assert.Contains(t, sql, "(customers.manager_id = $1 OR customers.team_id = $2)")
		assert.Equal(t, []any{userID, teamID}, vars)
	})

	t.Run("team leader on resource without team column", func(t *testing.T) {
		sql, _ := renderSQL(t, New(identity.AccessScope{UserID: userID, Role: identity.RoleTeamLeader, TeamID: &teamID}), Todos)
		assert.Contains(t, sql, "todos.assignee_id = $1")
	})

	t.Run("missing scope matches nothing", func(t *testing.T) {
		sql, _ := renderSQL(t, FromContext(context.Background()), Customers)
		assert.Contains(t, sql, "1 = 0")
	})

	t.Run("scope without user matches nothing", func(t *testing.T) {
		sql, _ := renderSQL(t, New(identity.AccessScope{Role: identity.RoleStaff}), Customers)
		assert.Contains(t, sql, "1 = 0")
	})

	t.Run("unknown column matches nothing", func(t *testing.T) {
		bad := Resource{Table: "customers", OwnerColumn: "1=1; --"}
		sql, _ := renderSQL(t, New(identity.AccessScope{UserID: userID, Role: identity.RoleStaff}), bad)
		assert.Contains(t, sql, "1 = 0")
	})
}

func TestFilter_FromContext(t *testing.T) {
	userID := uuid.New()
	ctx := identity.WithScope(context.Background(), identity.AccessScope{UserID: userID, Role: identity.RoleStaff})

	f := FromContext(ctx)
	assert.False(t, f.CanAccessAll())
	assert.True(t, f.CanAccess(&userID, nil))
	assert.False(t, f.CanAccess(nil, nil))

	assert.True(t, New(identity.SystemScope()).CanAccessAll())
	assert.False(t, FromContext(context.Background()).CanAccess(&userID, nil))
}
