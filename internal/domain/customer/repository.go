package customer

import (
	"context"

	"github.com/bizconsult/crm/internal/domain/shared"
	"github.com/google/uuid"
)

// Filter keys understood by CustomerRepository.FindAll and Count
const (
	FilterStatus    = "status"
	FilterManagerID = "manager_id"
	FilterTeamID    = "team_id"
	FilterFrom      = "created_from"
	FilterTo        = "created_to"
)

// CustomerRepository defines persistence operations for customers
type CustomerRepository interface {
	// FindByID finds a customer by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)

	// FindAll lists customers matching the filter (search, status, manager, team, date range)
	FindAll(ctx context.Context, filter shared.Filter) ([]Customer, error)

	// Count counts customers matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// CountByStatus returns customer counts per funnel status within the filter scope
	CountByStatus(ctx context.Context, filter shared.Filter) (map[Status]int64, error)

	// Save creates or updates a customer (last write wins)
	Save(ctx context.Context, c *Customer) error

	// SaveWithLock updates a customer only if the stored version is the one it was loaded with
	SaveWithLock(ctx context.Context, c *Customer) error

	// Delete hard-deletes a customer
	Delete(ctx context.Context, id uuid.UUID) error

	// ExistsByRegistrationNumber checks for another customer with the same registration number
	ExistsByRegistrationNumber(ctx context.Context, number string, excludeID uuid.UUID) (bool, error)
}
