package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bizconsult/crm/internal/domain/activity"
	"github.com/bizconsult/crm/internal/domain/customer"
	"github.com/bizconsult/crm/internal/domain/identity"
	"github.com/bizconsult/crm/internal/domain/shared"
	"github.com/bizconsult/crm/internal/infrastructure/auth"
	"github.com/bizconsult/crm/internal/interfaces/http/dto"
	"github.com/bizconsult/crm/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
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

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	return m.Called(ctx, events).Error(0)
}

func newUser(role identity.Role, teamID *uuid.UUID) *identity.User {
	return &identity.User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Email:             "user@example.com",
		Name:              "김상담",
		Role:              role,
		TeamID:            teamID,
		Active:            true,
	}
}

func newManagedCustomer(t *testing.T, manager *identity.User) *customer.Customer {
	t.Helper()
	c, err := customer.NewCustomer("홍길동", "길동상사", "010-1111-2222")
	require.NoError(t, err)
	c.AssignManager(manager.ID, manager.Name, manager.TeamID)
	c.ClearDomainEvents()
	return c
}

// asUser installs the caller's scope and actor the way the JWT middleware does
func asUser(u *identity.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		if u == nil {
			return
		}
		c.Set(middleware.JWTClaimsKey, &auth.Claims{UserID: u.ID.String(), Name: u.Name, Role: string(u.Role)})
		c.Set(middleware.JWTUserIDKey, u.ID.String())
		c.Request = c.Request.WithContext(identity.WithScope(c.Request.Context(), u.Scope()))
	}
}

func newRouter(u *identity.User) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID(), asUser(u))
	return router
}

func doJSON(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}
