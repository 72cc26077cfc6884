package settlement

import (
	"context"
	"io"
	"time"

	"github.com/bizconsult/crm/internal/domain/activity"
	"github.com/bizconsult/crm/internal/domain/customer"
	"github.com/bizconsult/crm/internal/domain/identity"
	"github.com/bizconsult/crm/internal/domain/settlement"
	"github.com/bizconsult/crm/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockItemRepository is a mock implementation of settlement.ItemRepository
type MockItemRepository struct {
	mock.Mock
}

func (m *MockItemRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]settlement.Item, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).([]settlement.Item), args.Error(1)
}

func (m *MockItemRepository) FindByPeriods(ctx context.Context, filter settlement.ItemFilter) ([]settlement.Item, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]settlement.Item), args.Error(1)
}

func (m *MockItemRepository) SaveAll(ctx context.Context, items []*settlement.Item) error {
	args := m.Called(ctx, items)
	return args.Error(0)
}

func (m *MockItemRepository) ApplySync(ctx context.Context, plan settlement.SyncPlan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

// MockCustomerRepository is a mock implementation of customer.CustomerRepository
type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindAll(ctx context.Context, filter shared.Filter) ([]customer.Customer, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]customer.Customer), args.Error(1)
}

func (m *MockCustomerRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCustomerRepository) CountByStatus(ctx context.Context, filter shared.Filter) (map[customer.Status]int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(map[customer.Status]int64), args.Error(1)
}

func (m *MockCustomerRepository) Save(ctx context.Context, c *customer.Customer) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCustomerRepository) SaveWithLock(ctx context.Context, c *customer.Customer) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCustomerRepository) ExistsByRegistrationNumber(ctx context.Context, number string, excludeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, number, excludeID)
	return args.Bool(0), args.Error(1)
}

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindAll(ctx context.Context, teamID *uuid.UUID) ([]identity.User, error) {
	args := m.Called(ctx, teamID)
	return args.Get(0).([]identity.User), args.Error(1)
}

func (m *MockUserRepository) Save(ctx context.Context, u *identity.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

// MockTeamRepository is a mock implementation of identity.TeamRepository
type MockTeamRepository struct {
	mock.Mock
}

func (m *MockTeamRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Team, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Team), args.Error(1)
}

func (m *MockTeamRepository) FindAll(ctx context.Context) ([]identity.Team, error) {
	args := m.Called(ctx)
	return args.Get(0).([]identity.Team), args.Error(1)
}

func (m *MockTeamRepository) Save(ctx context.Context, t *identity.Team) error {
	return m.Called(ctx, t).Error(0)
}

func (m *MockTeamRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockLogRepository is a mock implementation of activity.LogRepository
type MockLogRepository struct {
	mock.Mock
}

func (m *MockLogRepository) AppendHistory(ctx context.Context, logs ...*activity.HistoryLog) error {
	return m.Called(ctx, logs).Error(0)
}

func (m *MockLogRepository) ListHistory(ctx context.Context, customerID uuid.UUID, limit int) ([]activity.HistoryLog, error) {
	args := m.Called(ctx, customerID, limit)
	return args.Get(0).([]activity.HistoryLog), args.Error(1)
}

func (m *MockLogRepository) AppendStatus(ctx context.Context, log *activity.StatusLog) error {
	return m.Called(ctx, log).Error(0)
}

func (m *MockLogRepository) ListStatus(ctx context.Context, customerID uuid.UUID, limit int) ([]activity.StatusLog, error) {
	args := m.Called(ctx, customerID, limit)
	return args.Get(0).([]activity.StatusLog), args.Error(1)
}

func (m *MockLogRepository) AppendCounseling(ctx context.Context, log *activity.CounselingLog) error {
	return m.Called(ctx, log).Error(0)
}

func (m *MockLogRepository) ListCounseling(ctx context.Context, customerID uuid.UUID, limit int) ([]activity.CounselingLog, error) {
	args := m.Called(ctx, customerID, limit)
	return args.Get(0).([]activity.CounselingLog), args.Error(1)
}

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	return m.Called(ctx, events).Error(0)
}

// MockLocker is a mock implementation of Locker
type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error) {
	args := m.Called(ctx, key, ttl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(Lock), args.Error(1)
}

// MockLock is a mock implementation of Lock
type MockLock struct {
	mock.Mock
}

func (m *MockLock) Release(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockExporter is a mock implementation of Exporter
type MockExporter struct {
	mock.Mock
}

func (m *MockExporter) Write(w io.Writer, period string, items []settlement.Item, summaries []settlement.MonthlySettlementSummary) error {
	return m.Called(w, period, items, summaries).Error(0)
}
