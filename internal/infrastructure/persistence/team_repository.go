package persistence

import (
	"context"
	"errors"

	"github.com/bizconsult/crm/internal/domain/identity"
	"github.com/bizconsult/crm/internal/domain/shared"
	"github.com/bizconsult/crm/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormTeamRepository implements TeamRepository using GORM
type GormTeamRepository struct {
	db *gorm.DB
}

// NewGormTeamRepository creates a new GormTeamRepository
func NewGormTeamRepository(db *gorm.DB) *GormTeamRepository {
	return &GormTeamRepository{db: db}
}

// FindByID finds a team by ID
func (r *GormTeamRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Team, error) {
	var model models.TeamModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists all teams by name
func (r *GormTeamRepository) FindAll(ctx context.Context) ([]identity.Team, error) {
	var rows []models.TeamModel
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	teams := make([]identity.Team, len(rows))
	for i := range rows {
		teams[i] = *rows[i].ToDomain()
	}
	return teams, nil
}

// Save creates or updates a team
func (r *GormTeamRepository) Save(ctx context.Context, t *identity.Team) error {
	return r.db.WithContext(ctx).Save(models.TeamModelFromDomain(t)).Error
}

// Delete removes a team. Members keep their records with the team cleared.
func (r *GormTeamRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.UserModel{}).
			Where("team_id = ?", id).
			Update("team_id", nil).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.TeamModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

var _ identity.TeamRepository = (*GormTeamRepository)(nil)
