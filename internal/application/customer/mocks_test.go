package customer

import (
	"context"
	"time"

	"github.com/bizconsult/crm/internal/domain/activity"
	"github.com/bizconsult/crm/internal/domain/customer"
	"github.com/bizconsult/crm/internal/domain/identity"
	"github.com/bizconsult/crm/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

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
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCustomerRepository) SaveWithLock(ctx context.Context, c *customer.Customer) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCustomerRepository) ExistsByRegistrationNumber(ctx context.Context, number string, excludeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, number, excludeID)
	return args.Bool(0), args.Error(1)
}

// MockLogRepository is a mock implementation of activity.LogRepository
type MockLogRepository struct {
	mock.Mock
}

func (m *MockLogRepository) AppendHistory(ctx context.Context, logs ...*activity.HistoryLog) error {
	args := m.Called(ctx, logs)
	return args.Error(0)
}

func (m *MockLogRepository) ListHistory(ctx context.Context, customerID uuid.UUID, limit int) ([]activity.HistoryLog, error) {
	args := m.Called(ctx, customerID, limit)
	return args.Get(0).([]activity.HistoryLog), args.Error(1)
}

func (m *MockLogRepository) AppendStatus(ctx context.Context, log *activity.StatusLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockLogRepository) ListStatus(ctx context.Context, customerID uuid.UUID, limit int) ([]activity.StatusLog, error) {
	args := m.Called(ctx, customerID, limit)
	return args.Get(0).([]activity.StatusLog), args.Error(1)
}

func (m *MockLogRepository) AppendCounseling(ctx context.Context, log *activity.CounselingLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockLogRepository) ListCounseling(ctx context.Context, customerID uuid.UUID, limit int) ([]activity.CounselingLog, error) {
	args := m.Called(ctx, customerID, limit)
	return args.Get(0).([]activity.CounselingLog), args.Error(1)
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
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// publishedTypes returns the event types of every Publish call
func (m *MockEventPublisher) publishedTypes() []string {
	var types []string
	for _, call := range m.Calls {
		if call.Method != "Publish" {
			continue
		}
		for _, e := range call.Arguments.Get(1).([]shared.DomainEvent) {
			types = append(types, e.EventType())
		}
	}
	return types
}

// MockSettlementSyncer is a mock implementation of SettlementSyncer
type MockSettlementSyncer struct {
	mock.Mock
}

func (m *MockSettlementSyncer) SyncFromCustomer(ctx context.Context, c *customer.Customer, actor activity.Actor) error {
	args := m.Called(ctx, c, actor)
	return args.Error(0)
}

func (m *MockSettlementSyncer) ClawbackFromCustomer(ctx context.Context, c *customer.Customer, clawbackDate time.Time, actor activity.Actor) error {
	args := m.Called(ctx, c, clawbackDate, actor)
	return args.Error(0)
}

// MockLongAbsenceNotifier is a mock implementation of LongAbsenceNotifier
type MockLongAbsenceNotifier struct {
	mock.Mock
}

func (m *MockLongAbsenceNotifier) NotifyCustomerLongAbsence(ctx context.Context, c *customer.Customer) (string, error) {
	args := m.Called(ctx, c)
	return args.String(0), args.Error(1)
}
