package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/bizconsult/crm/internal/domain/customer"
	"github.com/bizconsult/crm/internal/domain/identity"
	"github.com/bizconsult/crm/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockCustomerRepository creates a GormCustomerRepository with a mocked SQL connection
func newMockCustomerRepository(t *testing.T) (*GormCustomerRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormCustomerRepository(gormDB), mock, mockDB
}

func staffContext(userID uuid.UUID) context.Context {
	return identity.WithScope(context.Background(), identity.AccessScope{UserID: userID, Role: identity.RoleStaff})
}

func adminContext() context.Context {
	return identity.WithScope(context.Background(), identity.SystemScope())
}

func TestGormCustomerRepository_FindByID(t *testing.T) {
	t.Run("finds existing customer and migrates legacy columns", func(t *testing.T) {
		repo, mock, mockDB := newMockCustomerRepository(t)
		defer mockDB.Close()

		customerID := uuid.New()
		rows := sqlmock.NewRows([]string{"id", "version", "name", "status_code", "processing_orgs", "memo_history", "processing_org", "memo"}).
			AddRow(customerID, 2, "홍길동", "심사중", "[]", "[]", "신용보증기금", "예전 메모")

		mock.ExpectQuery(`SELECT \* FROM "customers" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(customerID, 1).
			WillReturnRows(rows)

		c, err := repo.FindByID(context.Background(), customerID)

		require.NoError(t, err)
		assert.Equal(t, customerID, c.ID)
		assert.Equal(t, customer.StatusUnderReview, c.Status)
		assert.Equal(t, 2, c.Version)
		require.Len(t, c.ProcessingOrgs, 1)
		assert.Equal(t, "신용보증기금", c.ProcessingOrgs[0].Org)
		require.Len(t, c.Memos, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for missing customer", func(t *testing.T) {
		repo, mock, mockDB := newMockCustomerRepository(t)
		defer mockDB.Close()

		customerID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "customers" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(customerID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		c, err := repo.FindByID(context.Background(), customerID)

		assert.Nil(t, c)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormCustomerRepository_FindAll(t *testing.T) {
	t.Run("staff only sees managed customers", func(t *testing.T) {
		repo, mock, mockDB := newMockCustomerRepository(t)
		defer mockDB.Close()

		userID := uuid.New()
		rows := sqlmock.NewRows([]string{"id", "name", "status_code"}).
			AddRow(uuid.New(), "고객1", "상담중")

		mock.ExpectQuery(`SELECT \* FROM "customers" WHERE customers.manager_id = \$1 AND status_code = \$2 ORDER BY created_at DESC LIMIT \$3`).
			WithArgs(userID, "상담중", 20).
			WillReturnRows(rows)

		filter := shared.DefaultFilter()
		filter.Filters[customer.FilterStatus] = "상담중"

		result, err := repo.FindAll(staffContext(userID), filter)

		require.NoError(t, err)
		require.Len(t, result, 1)
		assert.Equal(t, customer.StatusCounseling, result[0].Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid sort field falls back to created_at", func(t *testing.T) {
		repo, mock, mockDB := newMockCustomerRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "customers" ORDER BY created_at ASC LIMIT \$1`).
			WithArgs(20).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		filter := shared.DefaultFilter()
		filter.OrderBy = "name; DROP TABLE customers"
		filter.OrderDir = "asc"

		result, err := repo.FindAll(adminContext(), filter)

		require.NoError(t, err)
		assert.Empty(t, result)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no scope in context matches nothing", func(t *testing.T) {
		repo, mock, mockDB := newMockCustomerRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "customers" WHERE 1 = 0`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		result, err := repo.FindAll(context.Background(), shared.DefaultFilter())

		require.NoError(t, err)
		assert.Empty(t, result)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormCustomerRepository_Count(t *testing.T) {
	t.Run("team leader counts team and managed customers", func(t *testing.T) {
		repo, mock, mockDB := newMockCustomerRepository(t)
		defer mockDB.Close()

		userID := uuid.New()
		teamID := uuid.New()
		ctx := identity.WithScope(context.Background(), identity.AccessScope{UserID: userID, Role: identity.RoleTeamLeader, TeamID: &teamID})

		mock.ExpectQuery(`SELECT count\(\*\) FROM "customers" WHERE \(customers.manager_id = \$1 OR customers.team_id = \$2\)`).
			WithArgs(userID, teamID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

		count, err := repo.Count(ctx, shared.Filter{})

		require.NoError(t, err)
		assert.Equal(t, int64(7), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormCustomerRepository_CountByStatus(t *testing.T) {
	repo, mock, mockDB := newMockCustomerRepository(t)
	defer mockDB.Close()

	rows := sqlmock.NewRows([]string{"status_code", "count"}).
		AddRow("상담대기", 4).
		AddRow("집행완료", 2)

	mock.ExpectQuery(`SELECT status_code, COUNT\(\*\) AS count FROM "customers" GROUP BY .*status_code`).
		WillReturnRows(rows)

	counts, err := repo.CountByStatus(adminContext(), shared.Filter{})

	require.NoError(t, err)
	assert.Equal(t, int64(4), counts[customer.StatusAwaiting])
	assert.Equal(t, int64(2), counts[customer.StatusExecuted])
	assert.Zero(t, counts[customer.StatusDeclined])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormCustomerRepository_SaveWithLock(t *testing.T) {
	newCustomer := func(t *testing.T) *customer.Customer {
		c, err := customer.NewCustomer("홍길동", "테스트상사", "010-0000-0000")
		require.NoError(t, err)
		return c
	}

	t.Run("advances version when stored version matches", func(t *testing.T) {
		repo, mock, mockDB := newMockCustomerRepository(t)
		defer mockDB.Close()

		c := newCustomer(t)
		c.Version = 3

		mock.ExpectExec(`UPDATE "customers" SET .* WHERE .*id = \$\d+ AND version = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.SaveWithLock(context.Background(), c)

		require.NoError(t, err)
		assert.Equal(t, 4, c.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports conflict and keeps version when row changed", func(t *testing.T) {
		repo, mock, mockDB := newMockCustomerRepository(t)
		defer mockDB.Close()

		c := newCustomer(t)
		c.Version = 3

		mock.ExpectExec(`UPDATE "customers" SET .* WHERE .*id = \$\d+ AND version = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SaveWithLock(context.Background(), c)

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.Equal(t, 3, c.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormCustomerRepository_Delete(t *testing.T) {
	t.Run("deletes existing customer", func(t *testing.T) {
		repo, mock, mockDB := newMockCustomerRepository(t)
		defer mockDB.Close()

		id := uuid.New()
		mock.ExpectExec(`DELETE FROM "customers" WHERE id = \$1`).
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Delete(context.Background(), id))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound when nothing deleted", func(t *testing.T) {
		repo, mock, mockDB := newMockCustomerRepository(t)
		defer mockDB.Close()

		id := uuid.New()
		mock.ExpectExec(`DELETE FROM "customers" WHERE id = \$1`).
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.Equal(t, shared.ErrNotFound, repo.Delete(context.Background(), id))
	})
}

func TestGormCustomerRepository_ExistsByRegistrationNumber(t *testing.T) {
	t.Run("normalizes number and excludes self", func(t *testing.T) {
		repo, mock, mockDB := newMockCustomerRepository(t)
		defer mockDB.Close()

		self := uuid.New()
		mock.ExpectQuery(`SELECT count\(\*\) FROM "customers" WHERE registration_number = \$1 AND id <> \$2`).
			WithArgs("123-45-67890", self).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		exists, err := repo.ExistsByRegistrationNumber(context.Background(), "1234567890", self)

		require.NoError(t, err)
		assert.True(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty number never exists", func(t *testing.T) {
		repo, _, mockDB := newMockCustomerRepository(t)
		defer mockDB.Close()

		exists, err := repo.ExistsByRegistrationNumber(context.Background(), "", uuid.Nil)
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestGormCustomerRepository_InterfaceCompliance(t *testing.T) {
	var _ customer.CustomerRepository = (*GormCustomerRepository)(nil)
}
