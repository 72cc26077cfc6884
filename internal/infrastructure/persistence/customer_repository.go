package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bizconsult/crm/internal/domain/customer"
	"github.com/bizconsult/crm/internal/domain/shared"
	"github.com/bizconsult/crm/internal/infrastructure/persistence/datascope"
	"github.com/bizconsult/crm/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCustomerRepository implements CustomerRepository using GORM.
// List and count queries are restricted to the caller's access scope;
// single-record lookups are checked by the application layer.
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// FindByID finds a customer by its ID
func (r *GormCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds all customers matching the filter
func (r *GormCustomerRepository) FindAll(ctx context.Context, filter shared.Filter) ([]customer.Customer, error) {
	var customerModels []models.CustomerModel
	query := r.scoped(ctx)
	query = r.applyFilter(query, filter)

	if err := query.Find(&customerModels).Error; err != nil {
		return nil, err
	}

	customers := make([]customer.Customer, len(customerModels))
	for i, model := range customerModels {
		customers[i] = *model.ToDomain()
	}
	return customers, nil
}

// Count counts customers matching the filter
func (r *GormCustomerRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.scoped(ctx), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

type statusCount struct {
	StatusCode string
	Count      int64
}

// CountByStatus returns customer counts per funnel status
func (r *GormCustomerRepository) CountByStatus(ctx context.Context, filter shared.Filter) (map[customer.Status]int64, error) {
	var rows []statusCount
	query := r.applyFilterWithoutPagination(r.scoped(ctx), filter)

	if err := query.
		Select("status_code, COUNT(*) AS count").
		Group("status_code").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[customer.Status]int64, len(rows))
	for _, row := range rows {
		counts[customer.Status(row.StatusCode)] = row.Count
	}
	return counts, nil
}

// Save creates or updates a customer without a version check
func (r *GormCustomerRepository) Save(ctx context.Context, c *customer.Customer) error {
	model := models.CustomerModelFromDomain(c)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock updates a customer only when the stored version still matches
// the version it was loaded with. On success the version is advanced.
func (r *GormCustomerRepository) SaveWithLock(ctx context.Context, c *customer.Customer) error {
	expected := c.Version
	c.IncrementVersion()

	model := models.CustomerModelFromDomain(c)
	result := r.db.WithContext(ctx).
		Model(&models.CustomerModel{}).
		Where("id = ? AND version = ?", c.ID, expected).
		Select("*").
		Updates(model)

	if result.Error != nil {
		c.Version = expected
		return result.Error
	}
	if result.RowsAffected == 0 {
		c.Version = expected
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Delete deletes a customer
func (r *GormCustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.CustomerModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ExistsByRegistrationNumber checks whether another customer already uses the
// registration number. Numbers are compared in their normalized 000-00-00000 form.
func (r *GormCustomerRepository) ExistsByRegistrationNumber(ctx context.Context, number string, excludeID uuid.UUID) (bool, error) {
	normalized := customer.NormalizeRegistrationNumber(number)
	if normalized == "" {
		return false, nil
	}
	var count int64
	query := r.db.WithContext(ctx).
		Model(&models.CustomerModel{}).
		Where("registration_number = ?", normalized)
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormCustomerRepository) scoped(ctx context.Context) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.CustomerModel{})
	return datascope.FromContext(ctx).Apply(query, datascope.Customers)
}

// applyFilter applies filter options to the query
func (r *GormCustomerRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	return query.Order(orderClause(filter, customerSortColumns, "created_at"))
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormCustomerRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if search := strings.TrimSpace(filter.Search); search != "" {
		searchPattern := "%" + search + "%"
		query = query.Where("name ILIKE ? OR company_name ILIKE ? OR phone ILIKE ? OR registration_number ILIKE ?",
			searchPattern, searchPattern, searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case customer.FilterStatus:
			switch v := value.(type) {
			case []string:
				if len(v) > 0 {
					query = query.Where("status_code IN ?", v)
				}
			case string:
				if v != "" {
					query = query.Where("status_code = ?", v)
				}
			case customer.Status:
				query = query.Where("status_code = ?", string(v))
			}
		case customer.FilterManagerID:
			if id, ok := asUUID(value); ok {
				query = query.Where("manager_id = ?", id)
			}
		case customer.FilterTeamID:
			if id, ok := asUUID(value); ok {
				query = query.Where("team_id = ?", id)
			}
		case customer.FilterFrom:
			if t, ok := value.(time.Time); ok {
				query = query.Where("created_at >= ?", t)
			}
		case customer.FilterTo:
			if t, ok := value.(time.Time); ok {
				query = query.Where("created_at < ?", t)
			}
		}
	}

	return query
}

func asUUID(value any) (uuid.UUID, bool) {
	switch v := value.(type) {
	case uuid.UUID:
		return v, v != uuid.Nil
	case *uuid.UUID:
		if v == nil {
			return uuid.Nil, false
		}
		return *v, *v != uuid.Nil
	case string:
		id, err := uuid.Parse(v)
		return id, err == nil
	}
	return uuid.Nil, false
}

// Ensure GormCustomerRepository implements CustomerRepository
var _ customer.CustomerRepository = (*GormCustomerRepository)(nil)
