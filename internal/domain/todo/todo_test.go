package todo

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewItem(t *testing.T) {
	assignee := uuid.New()

	item, err := NewItem(" 서류 회수 ", assignee, "")
	require.NoError(t, err)
	assert.Equal(t, "서류 회수", item.Title)
	assert.Equal(t, PriorityNormal, item.Priority)

	_, err = NewItem("", assignee, PriorityHigh)
	assert.Error(t, err)
	_, err = NewItem("x", uuid.Nil, PriorityHigh)
	assert.Error(t, err)
	_, err = NewItem("x", assignee, "critical")
	assert.Error(t, err)
}

func TestItem_CompleteAndReopen(t *testing.T) {
	item, err := NewItem("전화", uuid.New(), PriorityUrgent)
	require.NoError(t, err)
	now := time.Now()
	yesterday := now.Add(-24 * time.Hour)
	item.DueDate = &yesterday

	assert.True(t, item.IsOverdue(now))

	item.Complete(now)
	assert.True(t, item.Done)
	assert.False(t, item.IsOverdue(now))
	first := *item.DoneAt

	item.Complete(now.Add(time.Hour))
	assert.Equal(t, first, *item.DoneAt, "completing twice keeps the first timestamp")

	item.Reopen()
	assert.False(t, item.Done)
	assert.Nil(t, item.DoneAt)
}
