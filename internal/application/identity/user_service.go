package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bizconsult/crm/internal/domain/identity"
	"github.com/bizconsult/crm/internal/domain/shared"
	"github.com/bizconsult/crm/internal/infrastructure/auth"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserService handles user management operations
type UserService struct {
	userRepo  identity.UserRepository
	teamRepo  identity.TeamRepository
	blacklist auth.TokenBlacklist
	tokenTTL  time.Duration
	logger    *zap.Logger
}

// NewUserService creates a new user service. tokenTTL is the access token
// lifetime; revocations on deactivation are kept that long.
func NewUserService(
	userRepo identity.UserRepository,
	teamRepo identity.TeamRepository,
	blacklist auth.TokenBlacklist,
	tokenTTL time.Duration,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		userRepo:  userRepo,
		teamRepo:  teamRepo,
		blacklist: blacklist,
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
}

// Create creates a new user
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*UserDTO, error) {
	s.logger.Info("Creating new user", zap.String("email", input.Email), zap.String("role", input.Role))

	exists, err := s.userRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		s.logger.Error("Failed to check email existence", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to check email availability")
	}
	if exists {
		return nil, shared.NewDomainError("EMAIL_EXISTS", "Email already exists")
	}

	user, err := identity.NewUser(input.Email, input.Name, input.Password, identity.Role(input.Role))
	if err != nil {
		return nil, err
	}
	if input.Phone != "" {
		if err := user.SetProfile(user.Name, input.Phone); err != nil {
			return nil, err
		}
	}
	if input.TeamID != nil {
		if err := s.ensureTeam(ctx, *input.TeamID); err != nil {
			return nil, err
		}
		user.AssignTeam(input.TeamID)
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		s.logger.Error("Failed to save user", zap.Error(err))
		return nil, err
	}

	s.logger.Info("User created", zap.String("user_id", user.ID.String()))
	dto := ToUserDTO(user)
	return &dto, nil
}

// EnsureSuperAdmin creates a super admin with the given credentials unless
// an account with that email already exists. It reports whether one was created.
func (s *UserService) EnsureSuperAdmin(ctx context.Context, email, name, password string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	user, err := identity.NewUser(email, name, password, identity.RoleSuperAdmin)
	if err != nil {
		return false, err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return false, err
	}
	s.logger.Info("Super admin seeded", zap.String("user_id", user.ID.String()), zap.String("email", email))
	return true, nil
}

// GetByID returns a user
func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := ToUserDTO(user)
	return &dto, nil
}

// List returns users, optionally restricted to one team
func (s *UserService) List(ctx context.Context, teamID *uuid.UUID) ([]UserDTO, error) {
	users, err := s.userRepo.FindAll(ctx, teamID)
	if err != nil {
		return nil, err
	}
	out := make([]UserDTO, len(users))
	for i := range users {
		out[i] = ToUserDTO(&users[i])
	}
	return out, nil
}

// Update changes profile, role, team or password. A role, team or password
// change revokes the user's outstanding tokens so the new scope applies at once.
func (s *UserService) Update(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil || input.Phone != nil {
		name, phone := user.Name, user.Phone
		if input.Name != nil {
			name = *input.Name
		}
		if input.Phone != nil {
			phone = *input.Phone
		}
		if err := user.SetProfile(name, phone); err != nil {
			return nil, err
		}
	}

	revoke := false
	if input.Role != nil && identity.Role(*input.Role) != user.Role {
		if err := user.SetRole(identity.Role(*input.Role)); err != nil {
			return nil, err
		}
		revoke = true
	}
	if input.TeamID != nil && (user.TeamID == nil || *user.TeamID != *input.TeamID) {
		if err := s.ensureTeam(ctx, *input.TeamID); err != nil {
			return nil, err
		}
		user.AssignTeam(input.TeamID)
		revoke = true
	}
	if input.Password != nil {
		if err := user.SetPassword(*input.Password); err != nil {
			return nil, err
		}
		revoke = true
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		s.logger.Error("Failed to update user", zap.String("user_id", id.String()), zap.Error(err))
		return nil, err
	}
	if revoke {
		s.revokeTokens(ctx, user.ID)
	}

	dto := ToUserDTO(user)
	return &dto, nil
}

// UpdateCommissionPolicy sets the rates used for the manager's settlements
func (s *UserService) UpdateCommissionPolicy(ctx context.Context, id uuid.UUID, input CommissionPolicyInput) (*UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := user.SetCommissionPolicy(input.ContractRate, input.ExecutionRate, input.OutsourcingRate); err != nil {
		return nil, err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		s.logger.Error("Failed to save commission policy", zap.String("user_id", id.String()), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Commission policy updated",
		zap.String("user_id", id.String()),
		zap.String("contract_rate", input.ContractRate.String()),
		zap.String("execution_rate", input.ExecutionRate.String()),
		zap.String("outsourcing_rate", input.OutsourcingRate.String()))
	dto := ToUserDTO(user)
	return &dto, nil
}

// Deactivate blocks login and revokes every token the user holds
func (s *UserService) Deactivate(ctx context.Context, id uuid.UUID) error {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !user.Active {
		return nil
	}
	user.Deactivate()
	if err := s.userRepo.Save(ctx, user); err != nil {
		return err
	}
	s.revokeTokens(ctx, user.ID)
	s.logger.Info("User deactivated", zap.String("user_id", id.String()))
	return nil
}

// Activate allows the user to log in again
func (s *UserService) Activate(ctx context.Context, id uuid.UUID) error {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if user.Active {
		return nil
	}
	user.Activate()
	return s.userRepo.Save(ctx, user)
}

func (s *UserService) ensureTeam(ctx context.Context, teamID uuid.UUID) error {
	if _, err := s.teamRepo.FindByID(ctx, teamID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("TEAM_NOT_FOUND", "Team not found")
		}
		return err
	}
	return nil
}

func (s *UserService) revokeTokens(ctx context.Context, userID uuid.UUID) {
	if err := s.blacklist.RevokeUser(ctx, userID.String(), s.tokenTTL); err != nil {
		s.logger.Warn("Failed to revoke user tokens", zap.String("user_id", userID.String()), zap.Error(err))
	}
}
