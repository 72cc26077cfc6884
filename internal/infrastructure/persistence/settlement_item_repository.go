package persistence

import (
	"context"

	"github.com/bizconsult/crm/internal/domain/settlement"
	"github.com/bizconsult/crm/internal/infrastructure/persistence/datascope"
	"github.com/bizconsult/crm/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSettlementItemRepository implements settlement.ItemRepository using GORM
type GormSettlementItemRepository struct {
	db *gorm.DB
}

// NewGormSettlementItemRepository creates a new GormSettlementItemRepository
func NewGormSettlementItemRepository(db *gorm.DB) *GormSettlementItemRepository {
	return &GormSettlementItemRepository{db: db}
}

// FindByCustomer returns every item of a customer, clawbacks included
func (r *GormSettlementItemRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]settlement.Item, error) {
	var rows []models.SettlementItemModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toSettlementItems(rows), nil
}

// FindByPeriods returns items in the given periods visible to the caller
func (r *GormSettlementItemRepository) FindByPeriods(ctx context.Context, filter settlement.ItemFilter) ([]settlement.Item, error) {
	if len(filter.Periods) == 0 {
		return []settlement.Item{}, nil
	}

	query := r.db.WithContext(ctx).Model(&models.SettlementItemModel{})
	query = datascope.FromContext(ctx).Apply(query, datascope.SettlementItems)
	query = query.Where("period IN ?", filter.Periods)
	if filter.ManagerID != nil {
		query = query.Where("manager_id = ?", *filter.ManagerID)
	}
	if filter.TeamID != nil {
		query = query.Where("team_id = ?", *filter.TeamID)
	}

	var rows []models.SettlementItemModel
	if err := query.Order("period ASC, created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toSettlementItems(rows), nil
}

// SaveAll upserts items by ID
func (r *GormSettlementItemRepository) SaveAll(ctx context.Context, items []*settlement.Item) error {
	return saveItems(r.db.WithContext(ctx), items)
}

// ApplySync upserts and deletes a sync plan in one transaction
func (r *GormSettlementItemRepository) ApplySync(ctx context.Context, plan settlement.SyncPlan) error {
	if plan.IsEmpty() {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveItems(tx, plan.Upserts); err != nil {
			return err
		}
		return deleteStaleItems(tx, plan.Deletes)
	})
}

func saveItems(db *gorm.DB, items []*settlement.Item) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]*models.SettlementItemModel, len(items))
	for i, it := range items {
		rows[i] = models.SettlementItemModelFromDomain(it)
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(rows).Error
}

// deleteStaleItems removes items no longer backed by the customer record.
// Clawback rows are never removed.
func deleteStaleItems(db *gorm.DB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return db.Where("id IN ? AND is_clawback = ?", ids, false).
		Delete(&models.SettlementItemModel{}).Error
}

func toSettlementItems(rows []models.SettlementItemModel) []settlement.Item {
	items := make([]settlement.Item, len(rows))
	for i := range rows {
		items[i] = rows[i].ToDomain()
	}
	return items
}

var _ settlement.ItemRepository = (*GormSettlementItemRepository)(nil)
