package settlement

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bizconsult/crm/internal/domain/activity"
	"github.com/bizconsult/crm/internal/domain/customer"
	"github.com/bizconsult/crm/internal/domain/identity"
	"github.com/bizconsult/crm/internal/domain/settlement"
	"github.com/bizconsult/crm/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	items     *MockItemRepository
	customers *MockCustomerRepository
	users     *MockUserRepository
	teams     *MockTeamRepository
	logs      *MockLogRepository
	bus       *MockEventPublisher
	locker    *MockLocker
	lock      *MockLock
	exporter  *MockExporter
	svc       *SettlementService
}

func newFixture() *fixture {
	f := &fixture{
		items:     new(MockItemRepository),
		customers: new(MockCustomerRepository),
		users:     new(MockUserRepository),
		teams:     new(MockTeamRepository),
		logs:      new(MockLogRepository),
		bus:       new(MockEventPublisher),
		locker:    new(MockLocker),
		lock:      new(MockLock),
		exporter:  new(MockExporter),
	}
	f.logs.On("AppendHistory", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.bus.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.lock.On("Release", mock.Anything).Return(nil).Maybe()
	f.svc = NewSettlementService(f.items, f.customers, f.users, f.teams, f.logs, f.bus, f.locker, f.exporter,
		Options{LockTTL: time.Second, DefaultRate: decimal.NewFromInt(5)}, nil, zap.NewNop())
	return f
}

func (f *fixture) grantLock(customerID uuid.UUID) {
	f.locker.On("Obtain", mock.Anything, "settlement:customer:"+customerID.String(), time.Second).Return(f.lock, nil)
}

func (f *fixture) publishedTypes() []string {
	var types []string
	for _, call := range f.bus.Calls {
		for _, e := range call.Arguments.Get(1).([]shared.DomainEvent) {
			types = append(types, e.EventType())
		}
	}
	return types
}

func newManager(rate int64) *identity.User {
	return &identity.User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              "김매니저",
		Role:              identity.RoleStaff,
		CommissionRate:    decimal.NewFromInt(rate),
		ExecutionRate:     decimal.NewFromInt(rate),
		OutsourcingRate:   decimal.NewFromInt(rate),
		Active:            true,
	}
}

func contractedCustomer(t *testing.T, manager *identity.User, amount int64) *customer.Customer {
	t.Helper()
	c, err := customer.NewCustomer("홍길동", "길동상사", "010-1111-2222")
	require.NoError(t, err)
	c.AssignManager(manager.ID, manager.Name, manager.TeamID)
	date := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	c.ContractDate = &date
	c.ContractAmount = decimal.NewFromInt(amount)
	c.ContractType = customer.ContractTypePrepaid
	c.ClearDomainEvents()
	return c
}

var actor = activity.Actor{ID: uuid.New(), Name: "김매니저"}

func TestSettlementService_SyncFromCustomer_CreatesContractItem(t *testing.T) {
	f := newFixture()
	manager := newManager(10)
	c := contractedCustomer(t, manager, 10_000_000)
	f.grantLock(c.ID)
	f.users.On("FindByID", mock.Anything, manager.ID).Return(manager, nil)
	f.items.On("FindByCustomer", mock.Anything, c.ID).Return([]settlement.Item{}, nil)
	f.items.On("ApplySync", mock.Anything, mock.MatchedBy(func(plan settlement.SyncPlan) bool {
		if len(plan.Upserts) != 1 || len(plan.Deletes) != 0 {
			return false
		}
		it := plan.Upserts[0]
		return it.Kind == settlement.KindContract &&
			it.Period == "2026-09" &&
			it.GrossCommission.Equal(decimal.NewFromInt(1_000_000)) &&
			it.TaxAmount.Equal(decimal.NewFromInt(33_000)) &&
			it.NetCommission.Equal(decimal.NewFromInt(967_000))
	})).Return(nil)

	require.NoError(t, f.svc.SyncFromCustomer(context.Background(), c, actor))

	f.items.AssertExpectations(t)
	f.lock.AssertCalled(t, "Release", mock.Anything)
	assert.Equal(t, []string{settlement.EventTypeSettlementSynced}, f.publishedTypes())
	f.logs.AssertCalled(t, "AppendHistory", mock.Anything, mock.MatchedBy(func(logs []*activity.HistoryLog) bool {
		return len(logs) == 1 && logs[0].Action == activity.ActionSettlement
	}))
}

func TestSettlementService_SyncFromCustomer_DefaultRate(t *testing.T) {
	f := newFixture()
	manager := newManager(0)
	c := contractedCustomer(t, manager, 10_000_000)
	f.grantLock(c.ID)
	f.users.On("FindByID", mock.Anything, manager.ID).Return(manager, nil)
	f.items.On("FindByCustomer", mock.Anything, c.ID).Return([]settlement.Item{}, nil)
	f.items.On("ApplySync", mock.Anything, mock.MatchedBy(func(plan settlement.SyncPlan) bool {
		return len(plan.Upserts) == 1 && plan.Upserts[0].CommissionRate.Equal(decimal.NewFromInt(5))
	})).Return(nil)

	require.NoError(t, f.svc.SyncFromCustomer(context.Background(), c, actor))
	f.items.AssertExpectations(t)
}

func TestSettlementService_SyncFromCustomer_AlreadyInSync(t *testing.T) {
	f := newFixture()
	manager := newManager(10)
	c := contractedCustomer(t, manager, 10_000_000)
	f.grantLock(c.ID)
	f.users.On("FindByID", mock.Anything, manager.ID).Return(manager, nil)

	src := sourceOf(c, manager.Name)
	stored, err := settlement.NewContractItem(src, decimal.NewFromInt(10))
	require.NoError(t, err)
	f.items.On("FindByCustomer", mock.Anything, c.ID).Return([]settlement.Item{*stored}, nil)

	require.NoError(t, f.svc.SyncFromCustomer(context.Background(), c, actor))

	f.items.AssertNotCalled(t, "ApplySync", mock.Anything, mock.Anything)
	assert.Empty(t, f.publishedTypes())
}

func TestSettlementService_SyncFromCustomer_LockHeld(t *testing.T) {
	f := newFixture()
	manager := newManager(10)
	c := contractedCustomer(t, manager, 10_000_000)
	f.locker.On("Obtain", mock.Anything, mock.Anything, mock.Anything).Return(nil, ErrLockNotObtained)

	err := f.svc.SyncFromCustomer(context.Background(), c, actor)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	f.items.AssertNotCalled(t, "FindByCustomer", mock.Anything, mock.Anything)
}

func TestSettlementService_SyncFromCustomer_SaveFailureReleasesLock(t *testing.T) {
	f := newFixture()
	manager := newManager(10)
	c := contractedCustomer(t, manager, 10_000_000)
	f.grantLock(c.ID)
	f.users.On("FindByID", mock.Anything, manager.ID).Return(manager, nil)
	f.items.On("FindByCustomer", mock.Anything, c.ID).Return([]settlement.Item{}, nil)
	f.items.On("ApplySync", mock.Anything, mock.Anything).Return(errors.New("db down"))

	err := f.svc.SyncFromCustomer(context.Background(), c, actor)
	require.Error(t, err)
	f.lock.AssertCalled(t, "Release", mock.Anything)
	assert.Empty(t, f.publishedTypes())
}

func TestSettlementService_ClawbackFromCustomer(t *testing.T) {
	f := newFixture()
	manager := newManager(10)
	c := contractedCustomer(t, manager, 10_000_000)
	f.grantLock(c.ID)

	paid, err := settlement.NewContractItem(sourceOf(c, manager.Name), decimal.NewFromInt(10))
	require.NoError(t, err)
	f.items.On("FindByCustomer", mock.Anything, c.ID).Return([]settlement.Item{*paid}, nil)
	f.items.On("SaveAll", mock.Anything, mock.MatchedBy(func(items []*settlement.Item) bool {
		return len(items) == 1 &&
			items[0].IsClawback &&
			items[0].Period == "2026-11" &&
			*items[0].ReversalOf == paid.ID &&
			items[0].NetCommission.Equal(decimal.NewFromInt(-967_000))
	})).Return(nil)

	clawbackDate := time.Date(2026, 11, 3, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.svc.ClawbackFromCustomer(context.Background(), c, clawbackDate, actor))

	f.items.AssertExpectations(t)
	assert.Equal(t, []string{settlement.EventTypeClawbackProcessed}, f.publishedTypes())
}

func TestSettlementService_ProcessClawback_ScopeCheck(t *testing.T) {
	f := newFixture()
	manager := newManager(10)
	c := contractedCustomer(t, manager, 10_000_000)
	f.customers.On("FindByID", mock.Anything, c.ID).Return(c, nil)

	stranger := identity.AccessScope{UserID: uuid.New(), Role: identity.RoleStaff}
	ctx := identity.WithScope(context.Background(), stranger)
	_, err := f.svc.ProcessClawback(ctx, c.ID, ClawbackInput{ClawbackDate: time.Now()}, actor)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	f.locker.AssertNotCalled(t, "Obtain", mock.Anything, mock.Anything, mock.Anything)
}

func item(managerID uuid.UUID, managerName string, teamID *uuid.UUID, period string, kind settlement.ItemKind, net int64) settlement.Item {
	it := settlement.Item{
		ID:              uuid.New(),
		Kind:            kind,
		Period:          period,
		ManagerID:       managerID,
		ManagerName:     managerName,
		TeamID:          teamID,
		ContractAmount:  decimal.NewFromInt(net * 10),
		GrossCommission: decimal.NewFromInt(net),
		NetCommission:   decimal.NewFromInt(net),
		TaxAmount:       decimal.Zero,
	}
	if kind == settlement.KindClawback {
		it.IsClawback = true
	}
	return it
}

func TestSettlementService_Summary_HalfYearForStaff(t *testing.T) {
	f := newFixture()
	teamID := uuid.New()
	staff := identity.AccessScope{UserID: uuid.New(), Role: identity.RoleStaff, TeamID: &teamID}
	ctx := identity.WithScope(context.Background(), staff)

	items := []settlement.Item{
		item(staff.UserID, "김사원", &teamID, "2026-02", settlement.KindContract, 1_000_000),
		item(staff.UserID, "김사원", &teamID, "2026-05", settlement.KindExecution, 500_000),
		item(staff.UserID, "김사원", &teamID, "2026-06", settlement.KindClawback, -300_000),
	}
	f.items.On("FindByPeriods", mock.Anything, mock.MatchedBy(func(filter settlement.ItemFilter) bool {
		return len(filter.Periods) == 6 && filter.Periods[0] == "2026-01" &&
			filter.ManagerID != nil && *filter.ManagerID == staff.UserID
	})).Return(items, nil)
	f.teams.On("FindAll", mock.Anything).Return([]identity.Team{{BaseAggregateRoot: shared.BaseAggregateRoot{BaseEntity: shared.BaseEntity{ID: teamID}}, Name: "영업1팀"}}, nil)

	// a staff member cannot widen the query to another manager
	other := uuid.New()
	summary, err := f.svc.Summary(ctx, PeriodQuery{Period: "2026-H1", ManagerID: &other})
	require.NoError(t, err)

	assert.Equal(t, "half", summary.Scope)
	require.Len(t, summary.Managers, 1)
	m := summary.Managers[0]
	assert.Equal(t, 1, m.ContractCount)
	assert.Equal(t, 1, m.ExecutionCount)
	assert.Equal(t, 1, m.ClawbackCount)
	assert.True(t, m.NetCommissionSum.Equal(decimal.NewFromInt(1_500_000)))
	assert.True(t, m.FinalPayment.Equal(decimal.NewFromInt(1_200_000)))
	assert.True(t, summary.Total.FinalPayment.Equal(m.FinalPayment))

	require.Len(t, summary.Teams, 1)
	assert.Equal(t, "영업1팀", summary.Teams[0].TeamName)
	assert.True(t, summary.Teams[0].Total.FinalPayment.Equal(decimal.NewFromInt(1_200_000)))
}

func TestSettlementService_Summary_TeamLeaderPinnedToTeam(t *testing.T) {
	f := newFixture()
	teamID := uuid.New()
	leader := identity.AccessScope{UserID: uuid.New(), Role: identity.RoleTeamLeader, TeamID: &teamID}
	ctx := identity.WithScope(context.Background(), leader)

	f.items.On("FindByPeriods", mock.Anything, mock.MatchedBy(func(filter settlement.ItemFilter) bool {
		return filter.TeamID != nil && *filter.TeamID == teamID && filter.ManagerID == nil
	})).Return([]settlement.Item{}, nil)

	other := uuid.New()
	summary, err := f.svc.Summary(ctx, PeriodQuery{Period: "2026-03", TeamID: &other})
	require.NoError(t, err)
	assert.Empty(t, summary.Managers)
	assert.Empty(t, summary.Teams)
	assert.True(t, summary.Total.FinalPayment.IsZero())
}

func TestSettlementService_Summary_Errors(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Summary(context.Background(), PeriodQuery{Period: "2026-03"})
	assert.ErrorIs(t, err, shared.ErrForbidden)

	ctx := identity.WithScope(context.Background(), identity.SystemScope())
	_, err = f.svc.Summary(ctx, PeriodQuery{Period: "2026-H3"})
	de, ok := shared.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, "INVALID_PERIOD", de.Code)
}

func TestSettlementService_Export(t *testing.T) {
	f := newFixture()
	ctx := identity.WithScope(context.Background(), identity.SystemScope())
	a, b := uuid.New(), uuid.New()
	items := []settlement.Item{
		item(a, "가매니저", nil, "2026-03", settlement.KindContract, 100_000),
		item(b, "나매니저", nil, "2026-03", settlement.KindContract, 200_000),
	}
	f.items.On("FindByPeriods", mock.Anything, mock.Anything).Return(items, nil)

	var buf bytes.Buffer
	f.exporter.On("Write", &buf, "2026-03", items, mock.MatchedBy(func(s []settlement.MonthlySettlementSummary) bool {
		return len(s) == 3 &&
			s[0].ManagerName == "가매니저" &&
			s[2].ManagerName == "합계" &&
			s[2].FinalPayment.Equal(decimal.NewFromInt(300_000))
	})).Return(nil)

	require.NoError(t, f.svc.Export(ctx, &buf, PeriodQuery{Period: "2026-03"}))
	f.exporter.AssertExpectations(t)
}
