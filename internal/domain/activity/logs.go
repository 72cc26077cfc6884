// Package activity holds the append-only audit trail of customer records:
// field history, funnel status changes and counseling notes.
package activity

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bizconsult/crm/internal/domain/shared"
	"github.com/google/uuid"
)

// Actor identifies who performed an action
type Actor struct {
	ID   uuid.UUID
	Name string
}

// SystemActor is used for changes made by background processes
var SystemActor = Actor{Name: "system"}

// HistoryAction classifies a history entry
type HistoryAction string

const (
	ActionCreated        HistoryAction = "created"
	ActionFieldUpdated   HistoryAction = "field_updated"
	ActionStatusChanged  HistoryAction = "status_changed"
	ActionMemoAdded      HistoryAction = "memo_added"
	ActionDocumentAdded  HistoryAction = "document_added"
	ActionDocumentRemove HistoryAction = "document_removed"
	ActionOCRApplied     HistoryAction = "ocr_applied"
	ActionNotification   HistoryAction = "notification_sent"
	ActionSettlement     HistoryAction = "settlement_synced"
	ActionClawback       HistoryAction = "clawback_processed"
)

// HistoryLog is one audit entry for a mutating action on a customer
type HistoryLog struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
	Action     HistoryAction
	Field      string
	OldValue   string
	NewValue   string
	ActorID    uuid.UUID
	ActorName  string
	CreatedAt  time.Time
}

// NewHistoryLog creates a history entry
func NewHistoryLog(customerID uuid.UUID, action HistoryAction, field, oldValue, newValue string, actor Actor) *HistoryLog {
	return &HistoryLog{
		ID:         uuid.New(),
		CustomerID: customerID,
		Action:     action,
		Field:      field,
		OldValue:   oldValue,
		NewValue:   newValue,
		ActorID:    actor.ID,
		ActorName:  actor.Name,
		CreatedAt:  time.Now(),
	}
}

// StatusLog records a funnel stage transition
type StatusLog struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
	FromStatus string
	ToStatus   string
	ActorID    uuid.UUID
	ActorName  string
	Note       string
	CreatedAt  time.Time
}

// NewStatusLog creates a status log entry
func NewStatusLog(customerID uuid.UUID, from, to, note string, actor Actor) *StatusLog {
	return &StatusLog{
		ID:         uuid.New(),
		CustomerID: customerID,
		FromStatus: from,
		ToStatus:   to,
		ActorID:    actor.ID,
		ActorName:  actor.Name,
		Note:       note,
		CreatedAt:  time.Now(),
	}
}

// CounselingChannel is how a counseling session took place
type CounselingChannel string

const (
	ChannelPhone   CounselingChannel = "phone"
	ChannelVisit   CounselingChannel = "visit"
	ChannelMessage CounselingChannel = "message"
	ChannelEmail   CounselingChannel = "email"
)

// CounselingLog is a note taken during a counseling session
type CounselingLog struct {
	ID            uuid.UUID
	CustomerID    uuid.UUID
	Channel       CounselingChannel
	Content       string
	CounselorID   uuid.UUID
	CounselorName string
	CreatedAt     time.Time
}

// NewCounselingLog validates and creates a counseling note
func NewCounselingLog(customerID uuid.UUID, channel CounselingChannel, content string, counselor Actor) (*CounselingLog, error) {
	switch channel {
	case ChannelPhone, ChannelVisit, ChannelMessage, ChannelEmail:
	case "":
		channel = ChannelPhone
	default:
		return nil, shared.NewDomainError("INVALID_CHANNEL", "Unknown counseling channel: "+string(channel))
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, shared.NewDomainError("INVALID_CONTENT", "Counseling content cannot be empty")
	}
	if utf8.RuneCountInString(content) > 10000 {
		return nil, shared.NewDomainError("INVALID_CONTENT", "Counseling content cannot exceed 10000 characters")
	}
	return &CounselingLog{
		ID:            uuid.New(),
		CustomerID:    customerID,
		Channel:       channel,
		Content:       content,
		CounselorID:   counselor.ID,
		CounselorName: counselor.Name,
		CreatedAt:     time.Now(),
	}, nil
}
