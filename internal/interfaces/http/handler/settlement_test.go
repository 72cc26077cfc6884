package handler

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	appsettlement "github.com/bizconsult/crm/internal/application/settlement"
	"github.com/bizconsult/crm/internal/domain/identity"
	"github.com/bizconsult/crm/internal/domain/settlement"
	"github.com/bizconsult/crm/internal/infrastructure/export"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

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
	return m.Called(ctx, items).Error(0)
}

func (m *MockItemRepository) ApplySync(ctx context.Context, plan settlement.SyncPlan) error {
	return m.Called(ctx, plan).Error(0)
}

func settlementRouter(t *testing.T, u *identity.User, items *MockItemRepository) *gin.Engine {
	t.Helper()
	svc := appsettlement.NewSettlementService(items, nil, nil, nil, nil, nil, nil,
		export.NewSettlementWorkbook(""), appsettlement.Options{}, nil, zap.NewNop())
	h := NewSettlementHandler(svc)

	r := newRouter(u)
	r.GET("/settlements/summary", h.Summary)
	r.GET("/settlements/items", h.Items)
	r.GET("/settlements/export", h.Export)
	return r
}

func TestSettlementHandler_PeriodValidation(t *testing.T) {
	r := settlementRouter(t, newUser(identity.RoleStaff, nil), new(MockItemRepository))

	tests := []struct {
		name string
		path string
		code string
	}{
		{"missing period", "/settlements/summary", "VALIDATION_ERROR"},
		{"malformed period", "/settlements/summary?period=2026-13", "INVALID_PERIOD"},
		{"export with bad half", "/settlements/export?period=2026-H3", "INVALID_PERIOD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(r, http.MethodGet, tt.path, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.code, decodeResponse(t, w).Error.Code)
		})
	}
}

func TestSettlementHandler_SummaryPinsStaffToOwnItems(t *testing.T) {
	staff := newUser(identity.RoleStaff, nil)
	items := new(MockItemRepository)
	items.On("FindByPeriods", mock.Anything, mock.MatchedBy(func(f settlement.ItemFilter) bool {
		return f.ManagerID != nil && *f.ManagerID == staff.ID && len(f.Periods) == 6
	})).Return([]settlement.Item{}, nil)

	w := doJSON(settlementRouter(t, staff, items), http.MethodGet, "/settlements/summary?period=2026-H2", "")

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w).Data.(map[string]any)
	assert.Equal(t, "2026-H2", data["period"])
	items.AssertExpectations(t)
}

func TestSettlementHandler_Export(t *testing.T) {
	admin := newUser(identity.RoleSuperAdmin, nil)
	items := new(MockItemRepository)
	items.On("FindByPeriods", mock.Anything, mock.Anything).Return([]settlement.Item{}, nil)

	w := doJSON(settlementRouter(t, admin, items), http.MethodGet, "/settlements/export?period=2026-10", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	disposition := w.Header().Get("Content-Disposition")
	assert.Contains(t, disposition, `filename="settlement_2026-10.xlsx"`)
	assert.Contains(t, disposition, "filename*=UTF-8''%EC%A0%95%EC%82%B0_2026-10.xlsx")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")), "xlsx is a zip archive")
}
