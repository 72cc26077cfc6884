package persistence

import (
	"context"

	"github.com/bizconsult/crm/internal/domain/activity"
	"github.com/bizconsult/crm/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const defaultLogLimit = 100

// GormLogRepository implements activity.LogRepository using GORM.
// Log tables are append-only.
type GormLogRepository struct {
	db *gorm.DB
}

// NewGormLogRepository creates a new GormLogRepository
func NewGormLogRepository(db *gorm.DB) *GormLogRepository {
	return &GormLogRepository{db: db}
}

// AppendHistory inserts history entries in one statement
func (r *GormLogRepository) AppendHistory(ctx context.Context, logs ...*activity.HistoryLog) error {
	if len(logs) == 0 {
		return nil
	}
	rows := make([]*models.HistoryLogModel, len(logs))
	for i, l := range logs {
		rows[i] = models.HistoryLogModelFromDomain(l)
	}
	return r.db.WithContext(ctx).Create(rows).Error
}

// ListHistory returns the most recent history entries of a customer, newest first
func (r *GormLogRepository) ListHistory(ctx context.Context, customerID uuid.UUID, limit int) ([]activity.HistoryLog, error) {
	var rows []models.HistoryLogModel
	if err := r.recent(ctx, customerID, limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	logs := make([]activity.HistoryLog, len(rows))
	for i := range rows {
		logs[i] = rows[i].ToDomain()
	}
	return logs, nil
}

// AppendStatus inserts a status change entry
func (r *GormLogRepository) AppendStatus(ctx context.Context, log *activity.StatusLog) error {
	return r.db.WithContext(ctx).Create(models.StatusLogModelFromDomain(log)).Error
}

// ListStatus returns the status timeline of a customer, newest first
func (r *GormLogRepository) ListStatus(ctx context.Context, customerID uuid.UUID, limit int) ([]activity.StatusLog, error) {
	var rows []models.StatusLogModel
	if err := r.recent(ctx, customerID, limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	logs := make([]activity.StatusLog, len(rows))
	for i := range rows {
		logs[i] = rows[i].ToDomain()
	}
	return logs, nil
}

// AppendCounseling inserts a counseling entry
func (r *GormLogRepository) AppendCounseling(ctx context.Context, log *activity.CounselingLog) error {
	return r.db.WithContext(ctx).Create(models.CounselingLogModelFromDomain(log)).Error
}

// ListCounseling returns counseling entries of a customer, newest first
func (r *GormLogRepository) ListCounseling(ctx context.Context, customerID uuid.UUID, limit int) ([]activity.CounselingLog, error) {
	var rows []models.CounselingLogModel
	if err := r.recent(ctx, customerID, limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	logs := make([]activity.CounselingLog, len(rows))
	for i := range rows {
		logs[i] = rows[i].ToDomain()
	}
	return logs, nil
}

func (r *GormLogRepository) recent(ctx context.Context, customerID uuid.UUID, limit int) *gorm.DB {
	if limit <= 0 || limit > 1000 {
		limit = defaultLogLimit
	}
	return r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Limit(limit)
}

var _ activity.LogRepository = (*GormLogRepository)(nil)
