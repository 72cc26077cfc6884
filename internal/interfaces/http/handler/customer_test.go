package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	appcustomer "github.com/bizconsult/crm/internal/application/customer"
	"github.com/bizconsult/crm/internal/domain/customer"
	"github.com/bizconsult/crm/internal/domain/identity"
	"github.com/bizconsult/crm/internal/domain/shared"
	"github.com/bizconsult/crm/internal/infrastructure/debounce"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type customerFixture struct {
	repo      *MockCustomerRepository
	logs      *MockLogRepository
	users     *MockUserRepository
	bus       *MockEventPublisher
	customers *appcustomer.CustomerService
	funnel    *appcustomer.FunnelService
	drafts    *appcustomer.DraftService
}

func newCustomerFixture(t *testing.T) *customerFixture {
	t.Helper()
	f := &customerFixture{
		repo:  new(MockCustomerRepository),
		logs:  new(MockLogRepository),
		users: new(MockUserRepository),
		bus:   new(MockEventPublisher),
	}
	f.logs.On("AppendHistory", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.logs.On("AppendStatus", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.logs.On("AppendCounseling", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.bus.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()

	f.customers = appcustomer.NewCustomerService(f.repo, f.logs, f.users, f.bus, zap.NewNop())
	f.funnel = appcustomer.NewFunnelService(f.customers, f.repo, f.logs, f.bus, nil, nil, nil, zap.NewNop())
	d := debounce.New(debounce.Config{Delay: time.Hour, TaskTimeout: 5 * time.Second}, zap.NewNop())
	t.Cleanup(func() { _ = d.Stop(context.Background()) })
	f.drafts = appcustomer.NewDraftService(f.repo, f.logs, f.bus, d, zap.NewNop())
	return f
}

func (f *customerFixture) router(u *identity.User) *gin.Engine {
	ch := NewCustomerHandler(f.customers)
	fh := NewFunnelHandler(f.customers, f.funnel, f.drafts)

	r := newRouter(u)
	r.GET("/customers", ch.List)
	r.POST("/customers", ch.Create)
	r.GET("/customers/counts", ch.CountByStatus)
	r.GET("/customers/:id", ch.GetByID)
	r.PUT("/customers/:id", ch.Update)
	r.DELETE("/customers/:id", ch.Delete)
	r.POST("/customers/:id/memos", ch.AddMemo)
	r.GET("/customers/:id/history", ch.History)
	r.POST("/customers/:id/status", fh.ChangeStatus)
	r.GET("/customers/:id/transitions/:status", fh.PlanTransition)
	r.GET("/customers/:id/draft", fh.PendingDrafts)
	r.PATCH("/customers/:id/draft", fh.EditDraft)
	r.POST("/customers/:id/draft/flush", fh.FlushDraft)
	r.DELETE("/customers/:id/draft", fh.DiscardDraft)
	return r
}

func TestCustomerHandler_GetByID(t *testing.T) {
	f := newCustomerFixture(t)
	teamID := uuid.New()
	owner := newUser(identity.RoleStaff, &teamID)
	c := newManagedCustomer(t, owner)
	f.repo.On("FindByID", mock.Anything, c.ID).Return(c, nil)

	t.Run("owner sees the record", func(t *testing.T) {
		w := doJSON(f.router(owner), http.MethodGet, "/customers/"+c.ID.String(), "")
		require.Equal(t, http.StatusOK, w.Code)
		data := decodeResponse(t, w).Data.(map[string]any)
		assert.Equal(t, "길동상사", data["company_name"])
		assert.Equal(t, string(customer.StatusAwaiting), data["status_code"])
	})

	t.Run("team leader of the team sees the record", func(t *testing.T) {
		leader := newUser(identity.RoleTeamLeader, &teamID)
		w := doJSON(f.router(leader), http.MethodGet, "/customers/"+c.ID.String(), "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("other staff get not found", func(t *testing.T) {
		other := newUser(identity.RoleStaff, &teamID)
		w := doJSON(f.router(other), http.MethodGet, "/customers/"+c.ID.String(), "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "NOT_FOUND", decodeResponse(t, w).Error.Code)
	})

	t.Run("missing scope is forbidden", func(t *testing.T) {
		w := doJSON(f.router(nil), http.MethodGet, "/customers/"+c.ID.String(), "")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestCustomerHandler_Create(t *testing.T) {
	f := newCustomerFixture(t)
	owner := newUser(identity.RoleStaff, nil)
	f.users.On("FindByID", mock.Anything, owner.ID).Return(owner, nil)
	f.repo.On("Save", mock.Anything, mock.AnythingOfType("*customer.Customer")).Return(nil)

	w := doJSON(f.router(owner), http.MethodPost, "/customers",
		`{"name":"이영희","company_name":"영희식품","phone":"010-2222-3333"}`)

	require.Equal(t, http.StatusCreated, w.Code)
	data := decodeResponse(t, w).Data.(map[string]any)
	assert.Equal(t, "영희식품", data["company_name"])
	assert.Equal(t, owner.ID.String(), data["manager_id"])
	assert.Equal(t, "김상담", data["manager_name"])
}

func TestCustomerHandler_CreateValidation(t *testing.T) {
	f := newCustomerFixture(t)
	owner := newUser(identity.RoleStaff, nil)

	w := doJSON(f.router(owner), http.MethodPost, "/customers", `{"company_name":"영희식품","email":"nope"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	fields := resp.Error.Details["fields"].([]any)
	assert.Len(t, fields, 2)
	f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCustomerHandler_List(t *testing.T) {
	f := newCustomerFixture(t)
	owner := newUser(identity.RoleStaff, nil)
	c := newManagedCustomer(t, owner)
	f.repo.On("FindAll", mock.Anything, mock.AnythingOfType("shared.Filter")).Return([]customer.Customer{*c}, nil)
	f.repo.On("Count", mock.Anything, mock.AnythingOfType("shared.Filter")).Return(int64(21), nil)

	w := doJSON(f.router(owner), http.MethodGet, "/customers?page=2&page_size=20", "")

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.Len(t, resp.Data.([]any), 1)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(21), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.Page)
	assert.Equal(t, 2, resp.Meta.TotalPages)
}

func TestCustomerHandler_ListRejectsUnknownStatus(t *testing.T) {
	f := newCustomerFixture(t)
	owner := newUser(identity.RoleStaff, nil)

	w := doJSON(f.router(owner), http.MethodGet, "/customers?status=unknown", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCustomerHandler_CountByStatus(t *testing.T) {
	f := newCustomerFixture(t)
	owner := newUser(identity.RoleStaff, nil)
	f.repo.On("CountByStatus", mock.Anything, mock.Anything).Return(map[customer.Status]int64{
		customer.StatusAwaiting:   3,
		customer.StatusCounseling: 1,
	}, nil)

	w := doJSON(f.router(owner), http.MethodGet, "/customers/counts", "")

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w).Data.(map[string]any)
	assert.Equal(t, float64(3), data[string(customer.StatusAwaiting)])
}

func TestCustomerHandler_AddMemo(t *testing.T) {
	f := newCustomerFixture(t)
	owner := newUser(identity.RoleStaff, nil)
	c := newManagedCustomer(t, owner)
	f.repo.On("FindByID", mock.Anything, c.ID).Return(c, nil)
	f.repo.On("SaveWithLock", mock.Anything, c).Return(nil)
	r := f.router(owner)

	w := doJSON(r, http.MethodPost, "/customers/"+c.ID.String()+"/memos", `{"content":"대표 통화, 다음주 방문"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	memo := decodeResponse(t, w).Data.(map[string]any)
	assert.Equal(t, "대표 통화, 다음주 방문", memo["content"])
	assert.Equal(t, "김상담", memo["author_name"])

	w = doJSON(r, http.MethodPost, "/customers/"+c.ID.String()+"/memos", `{"content":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCustomerHandler_Delete(t *testing.T) {
	f := newCustomerFixture(t)
	id := uuid.New()
	f.repo.On("Delete", mock.Anything, id).Return(nil)

	w := doJSON(f.router(newUser(identity.RoleStaff, nil)), http.MethodDelete, "/customers/"+id.String(), "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	f.repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)

	w = doJSON(f.router(newUser(identity.RoleSuperAdmin, nil)), http.MethodDelete, "/customers/"+id.String(), "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	f.repo.AssertCalled(t, "Delete", mock.Anything, id)
}

func TestCustomerHandler_UnknownCustomer(t *testing.T) {
	f := newCustomerFixture(t)
	id := uuid.New()
	f.repo.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

	w := doJSON(f.router(newUser(identity.RoleSuperAdmin, nil)), http.MethodGet, "/customers/"+id.String()+"/history", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}
