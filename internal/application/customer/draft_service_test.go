package customer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bizconsult/crm/internal/domain/customer"
	"github.com/bizconsult/crm/internal/domain/shared"
	"github.com/bizconsult/crm/internal/infrastructure/debounce"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newDraftFixture(t *testing.T) (*DraftService, *customerFixture) {
	t.Helper()
	f := newCustomerFixture()
	// long enough that only Flush triggers a write during the test
	d := debounce.New(debounce.Config{Delay: time.Hour, TaskTimeout: 5 * time.Second}, zap.NewNop())
	t.Cleanup(func() { _ = d.Stop(context.Background()) })
	return NewDraftService(f.repo, f.logs, f.bus, d, zap.NewNop()), f
}

func TestDraftService_EditThenFlushWritesLatestValue(t *testing.T) {
	owner := staffUser(nil)
	ctx := scopedContext(owner)
	svc, f := newDraftFixture(t)
	c := managedCustomer(t, owner)
	f.repo.On("FindByID", mock.Anything, c.ID).Return(c, nil)
	f.repo.On("SaveWithLock", mock.Anything, c).Return(nil).Once()

	require.NoError(t, svc.Edit(ctx, c.ID, DraftInput{Field: "address", Value: "서울시 강"}, actorOf(owner)))
	require.NoError(t, svc.Edit(ctx, c.ID, DraftInput{Field: "address", Value: "서울시 강남구"}, actorOf(owner)))
	assert.Equal(t, []string{"address"}, svc.Pending(c.ID))

	require.NoError(t, svc.Flush(ctx, c.ID, "address"))

	assert.Equal(t, "서울시 강남구", c.Address)
	assert.Empty(t, svc.Pending(c.ID))
	f.repo.AssertNumberOfCalls(t, "SaveWithLock", 1)
	assert.Contains(t, f.bus.publishedTypes(), customer.EventTypeCustomerUpdated)
}

func TestDraftService_FlushAllFieldsOfCustomer(t *testing.T) {
	owner := staffUser(nil)
	ctx := scopedContext(owner)
	svc, f := newDraftFixture(t)
	c := managedCustomer(t, owner)
	f.repo.On("FindByID", mock.Anything, c.ID).Return(c, nil)
	f.repo.On("SaveWithLock", mock.Anything, c).Return(nil)

	require.NoError(t, svc.Edit(ctx, c.ID, DraftInput{Field: "email", Value: "gildong@example.com"}, actorOf(owner)))
	require.NoError(t, svc.Edit(ctx, c.ID, DraftInput{Field: "industry", Value: "제조업"}, actorOf(owner)))

	require.NoError(t, svc.Flush(ctx, c.ID, ""))
	assert.Equal(t, "gildong@example.com", c.Email)
	assert.Equal(t, "제조업", c.Industry)
	f.repo.AssertNumberOfCalls(t, "SaveWithLock", 2)
}

func TestDraftService_DiscardDropsPendingEdit(t *testing.T) {
	owner := staffUser(nil)
	ctx := scopedContext(owner)
	svc, f := newDraftFixture(t)
	c := managedCustomer(t, owner)
	f.repo.On("FindByID", mock.Anything, c.ID).Return(c, nil)

	require.NoError(t, svc.Edit(ctx, c.ID, DraftInput{Field: "address", Value: "부산시"}, actorOf(owner)))

	assert.Equal(t, []string{"address"}, svc.Discard(c.ID, "address"))
	assert.Empty(t, svc.Discard(c.ID, "address"))
	require.NoError(t, svc.Flush(ctx, c.ID, "address"))

	assert.Empty(t, c.Address)
	f.repo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}

func TestDraftService_FoundingDateRecomputesOver7Years(t *testing.T) {
	owner := staffUser(nil)
	ctx := scopedContext(owner)
	svc, f := newDraftFixture(t)
	svc.now = func() time.Time { return time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC) }
	c := managedCustomer(t, owner)
	f.repo.On("FindByID", mock.Anything, c.ID).Return(c, nil)
	f.repo.On("SaveWithLock", mock.Anything, c).Return(nil)

	require.NoError(t, svc.Edit(ctx, c.ID, DraftInput{Field: "founding_date", Value: "2015-03-02"}, actorOf(owner)))
	require.NoError(t, svc.Flush(ctx, c.ID, "founding_date"))
	require.NotNil(t, c.FoundingDate)
	assert.True(t, c.Over7Years)

	require.NoError(t, svc.Edit(ctx, c.ID, DraftInput{Field: "founding_date", Value: ""}, actorOf(owner)))
	require.NoError(t, svc.Flush(ctx, c.ID, "founding_date"))
	assert.Nil(t, c.FoundingDate)
	assert.False(t, c.Over7Years)
}

func TestDraftService_RetriesOnceOnConflict(t *testing.T) {
	owner := staffUser(nil)
	ctx := scopedContext(owner)
	svc, f := newDraftFixture(t)
	c := managedCustomer(t, owner)
	f.repo.On("FindByID", mock.Anything, c.ID).Return(c, nil)
	f.repo.On("SaveWithLock", mock.Anything, c).Return(shared.ErrConcurrencyConflict).Once()
	f.repo.On("SaveWithLock", mock.Anything, c).Return(nil).Once()

	require.NoError(t, svc.Edit(ctx, c.ID, DraftInput{Field: "address", Value: "대구시"}, actorOf(owner)))
	// the first attempt already set the field, so the retry sees no change
	err := svc.Flush(ctx, c.ID, "address")
	require.NoError(t, err)
	f.repo.AssertNumberOfCalls(t, "SaveWithLock", 1)
}

func TestDraftService_EditRejections(t *testing.T) {
	owner := staffUser(nil)
	ctx := scopedContext(owner)
	svc, f := newDraftFixture(t)
	c := managedCustomer(t, owner)
	f.repo.On("FindByID", mock.Anything, c.ID).Return(c, nil)

	tests := []struct {
		name  string
		ctx   context.Context
		input DraftInput
		code  string
	}{
		{"status is not a draft field", ctx, DraftInput{Field: "status_code", Value: "상담중"}, "INVALID_FIELD"},
		{"malformed founding date", ctx, DraftInput{Field: "founding_date", Value: "2015/03/02"}, "INVALID_DATE"},
		{"no scope", context.Background(), DraftInput{Field: "address", Value: "x"}, shared.ErrForbidden.Code},
		{"other staff", scopedContext(staffUser(nil)), DraftInput{Field: "address", Value: "x"}, shared.ErrNotFound.Code},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Edit(tt.ctx, c.ID, tt.input, actorOf(owner))
			var de *shared.DomainError
			require.True(t, errors.As(err, &de), "got %v", err)
			assert.Equal(t, tt.code, de.Code)
		})
	}
	assert.Empty(t, svc.Pending(c.ID))
}
