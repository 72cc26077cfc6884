package activity

import (
	"context"

	"github.com/google/uuid"
)

// LogRepository appends and reads audit trail entries. Entries are never
// updated or deleted.
type LogRepository interface {
	AppendHistory(ctx context.Context, logs ...*HistoryLog) error
	ListHistory(ctx context.Context, customerID uuid.UUID, limit int) ([]HistoryLog, error)

	AppendStatus(ctx context.Context, log *StatusLog) error
	ListStatus(ctx context.Context, customerID uuid.UUID, limit int) ([]StatusLog, error)

	AppendCounseling(ctx context.Context, log *CounselingLog) error
	ListCounseling(ctx context.Context, customerID uuid.UUID, limit int) ([]CounselingLog, error)
}
