package identity

import (
	"context"

	"github.com/bizconsult/crm/internal/domain/identity"
	"github.com/bizconsult/crm/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TeamService manages sales teams
type TeamService struct {
	teamRepo identity.TeamRepository
	userRepo identity.UserRepository
	logger   *zap.Logger
}

// NewTeamService creates a new team service
func NewTeamService(teamRepo identity.TeamRepository, userRepo identity.UserRepository, logger *zap.Logger) *TeamService {
	return &TeamService{teamRepo: teamRepo, userRepo: userRepo, logger: logger}
}

// Create creates a team. A leader can only be set once members exist.
func (s *TeamService) Create(ctx context.Context, input TeamInput) (*TeamDTO, error) {
	team, err := identity.NewTeam(input.Name)
	if err != nil {
		return nil, err
	}
	if input.LeaderID != nil {
		return nil, shared.NewDomainError("LEADER_NOT_IN_TEAM", "Team leader must be a member of the team")
	}
	if err := s.teamRepo.Save(ctx, team); err != nil {
		s.logger.Error("Failed to save team", zap.Error(err))
		return nil, err
	}
	s.logger.Info("Team created", zap.String("team_id", team.ID.String()), zap.String("name", team.Name))
	dto := ToTeamDTO(team)
	return &dto, nil
}

// GetByID returns a team
func (s *TeamService) GetByID(ctx context.Context, id uuid.UUID) (*TeamDTO, error) {
	team, err := s.teamRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := ToTeamDTO(team)
	return &dto, nil
}

// List returns all teams
func (s *TeamService) List(ctx context.Context) ([]TeamDTO, error) {
	teams, err := s.teamRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]TeamDTO, len(teams))
	for i := range teams {
		out[i] = ToTeamDTO(&teams[i])
	}
	return out, nil
}

// Update renames the team and sets or clears its leader
func (s *TeamService) Update(ctx context.Context, id uuid.UUID, input TeamInput) (*TeamDTO, error) {
	team, err := s.teamRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := team.Rename(input.Name); err != nil {
		return nil, err
	}

	var leader *identity.User
	if input.LeaderID != nil {
		leader, err = s.userRepo.FindByID(ctx, *input.LeaderID)
		if err != nil {
			return nil, err
		}
	}
	if err := team.SetLeader(leader); err != nil {
		return nil, err
	}

	if err := s.teamRepo.Save(ctx, team); err != nil {
		s.logger.Error("Failed to update team", zap.String("team_id", id.String()), zap.Error(err))
		return nil, err
	}
	dto := ToTeamDTO(team)
	return &dto, nil
}

// Delete removes a team that has no members
func (s *TeamService) Delete(ctx context.Context, id uuid.UUID) error {
	members, err := s.userRepo.FindAll(ctx, &id)
	if err != nil {
		return err
	}
	if len(members) > 0 {
		return shared.NewDomainError("TEAM_NOT_EMPTY", "Team still has members")
	}
	if err := s.teamRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Team deleted", zap.String("team_id", id.String()))
	return nil
}
