package models

import (
	"time"

	"github.com/bizconsult/crm/internal/domain/activity"
	"github.com/google/uuid"
)

// HistoryLogModel is the persistence model for history_logs
type HistoryLogModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	CustomerID uuid.UUID `gorm:"type:uuid;not null;index:idx_history_customer_created,priority:1"`
	Action     string    `gorm:"type:varchar(30);not null"`
	Field      string    `gorm:"type:varchar(50)"`
	OldValue   string    `gorm:"type:text"`
	NewValue   string    `gorm:"type:text"`
	ActorID    uuid.UUID `gorm:"type:uuid"`
	ActorName  string    `gorm:"type:varchar(50)"`
	CreatedAt  time.Time `gorm:"not null;index:idx_history_customer_created,priority:2"`
}

// TableName returns the table name for GORM
func (HistoryLogModel) TableName() string {
	return "history_logs"
}

// ToDomain converts to the domain HistoryLog
func (m *HistoryLogModel) ToDomain() activity.HistoryLog {
	return activity.HistoryLog{
		ID:         m.ID,
		CustomerID: m.CustomerID,
		Action:     activity.HistoryAction(m.Action),
		Field:      m.Field,
		OldValue:   m.OldValue,
		NewValue:   m.NewValue,
		ActorID:    m.ActorID,
		ActorName:  m.ActorName,
		CreatedAt:  m.CreatedAt,
	}
}

// HistoryLogModelFromDomain creates a persistence model from a HistoryLog
func HistoryLogModelFromDomain(l *activity.HistoryLog) *HistoryLogModel {
	return &HistoryLogModel{
		ID:         l.ID,
		CustomerID: l.CustomerID,
		Action:     string(l.Action),
		Field:      l.Field,
		OldValue:   l.OldValue,
		NewValue:   l.NewValue,
		ActorID:    l.ActorID,
		ActorName:  l.ActorName,
		CreatedAt:  l.CreatedAt,
	}
}

// StatusLogModel is the persistence model for status_logs
type StatusLogModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	CustomerID uuid.UUID `gorm:"type:uuid;not null;index"`
	FromStatus string    `gorm:"type:varchar(30)"`
	ToStatus   string    `gorm:"type:varchar(30);not null"`
	ActorID    uuid.UUID `gorm:"type:uuid"`
	ActorName  string    `gorm:"type:varchar(50)"`
	Note       string    `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StatusLogModel) TableName() string {
	return "status_logs"
}

// ToDomain converts to the domain StatusLog
func (m *StatusLogModel) ToDomain() activity.StatusLog {
	return activity.StatusLog{
		ID:         m.ID,
		CustomerID: m.CustomerID,
		FromStatus: m.FromStatus,
		ToStatus:   m.ToStatus,
		ActorID:    m.ActorID,
		ActorName:  m.ActorName,
		Note:       m.Note,
		CreatedAt:  m.CreatedAt,
	}
}

// StatusLogModelFromDomain creates a persistence model from a StatusLog
func StatusLogModelFromDomain(l *activity.StatusLog) *StatusLogModel {
	return &StatusLogModel{
		ID:         l.ID,
		CustomerID: l.CustomerID,
		FromStatus: l.FromStatus,
		ToStatus:   l.ToStatus,
		ActorID:    l.ActorID,
		ActorName:  l.ActorName,
		Note:       l.Note,
		CreatedAt:  l.CreatedAt,
	}
}

// CounselingLogModel is the persistence model for counseling_logs
type CounselingLogModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key"`
	CustomerID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Channel       string    `gorm:"type:varchar(20);not null"`
	Content       string    `gorm:"type:text;not null"`
	CounselorID   uuid.UUID `gorm:"type:uuid"`
	CounselorName string    `gorm:"type:varchar(50)"`
	CreatedAt     time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CounselingLogModel) TableName() string {
	return "counseling_logs"
}

// ToDomain converts to the domain CounselingLog
func (m *CounselingLogModel) ToDomain() activity.CounselingLog {
	return activity.CounselingLog{
		ID:            m.ID,
		CustomerID:    m.CustomerID,
		Channel:       activity.CounselingChannel(m.Channel),
		Content:       m.Content,
		CounselorID:   m.CounselorID,
		CounselorName: m.CounselorName,
		CreatedAt:     m.CreatedAt,
	}
}

// CounselingLogModelFromDomain creates a persistence model from a CounselingLog
func CounselingLogModelFromDomain(l *activity.CounselingLog) *CounselingLogModel {
	return &CounselingLogModel{
		ID:            l.ID,
		CustomerID:    l.CustomerID,
		Channel:       string(l.Channel),
		Content:       l.Content,
		CounselorID:   l.CounselorID,
		CounselorName: l.CounselorName,
		CreatedAt:     l.CreatedAt,
	}
}
