package identity

import (
	"time"

	"github.com/bizconsult/crm/internal/domain/identity"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoginInput contains the input for user login
type LoginInput struct {
	Email    string
	Password string
	IP       string // Client IP for login tracking
}

// LoginResult contains the result of a successful login
type LoginResult struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	TokenType   string    `json:"token_type"`
	User        UserDTO   `json:"user"`
}

// LogoutInput identifies the token being revoked
type LogoutInput struct {
	UserID    uuid.UUID
	TokenJTI  string
	ExpiresAt time.Time
}

// UserDTO represents user data transfer object
type UserDTO struct {
	ID              uuid.UUID       `json:"id"`
	Email           string          `json:"email"`
	Name            string          `json:"name"`
	Phone           string          `json:"phone,omitempty"`
	Role            string          `json:"role"`
	TeamID          *uuid.UUID      `json:"team_id,omitempty"`
	CommissionRate  decimal.Decimal `json:"commission_rate"`
	ExecutionRate   decimal.Decimal `json:"execution_rate"`
	OutsourcingRate decimal.Decimal `json:"outsourcing_rate"`
	Active          bool            `json:"active"`
	LastLoginAt     *time.Time      `json:"last_login_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ToUserDTO converts a domain user
func ToUserDTO(u *identity.User) UserDTO {
	return UserDTO{
		ID:              u.ID,
		Email:           u.Email,
		Name:            u.Name,
		Phone:           u.Phone,
		Role:            string(u.Role),
		TeamID:          u.TeamID,
		CommissionRate:  u.CommissionRate,
		ExecutionRate:   u.ExecutionRate,
		OutsourcingRate: u.OutsourcingRate,
		Active:          u.Active,
		LastLoginAt:     u.LastLoginAt,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

// CreateUserInput contains input for creating a user
type CreateUserInput struct {
	Email    string     `json:"email" binding:"required,email"`
	Name     string     `json:"name" binding:"required,max=50"`
	Phone    string     `json:"phone" binding:"omitempty,max=20"`
	Password string     `json:"password" binding:"required,min=8,max=72"`
	Role     string     `json:"role" binding:"required,oneof=staff team_leader super_admin"`
	TeamID   *uuid.UUID `json:"team_id"`
}

// UpdateUserInput contains input for updating a user. Nil fields are left as is.
type UpdateUserInput struct {
	Name     *string    `json:"name" binding:"omitempty,max=50"`
	Phone    *string    `json:"phone" binding:"omitempty,max=20"`
	Role     *string    `json:"role" binding:"omitempty,oneof=staff team_leader super_admin"`
	TeamID   *uuid.UUID `json:"team_id"`
	Password *string    `json:"password" binding:"omitempty,min=8,max=72"`
}

// CommissionPolicyInput sets a manager's commission rates in percent
type CommissionPolicyInput struct {
	ContractRate    decimal.Decimal `json:"contract_rate"`
	ExecutionRate   decimal.Decimal `json:"execution_rate"`
	OutsourcingRate decimal.Decimal `json:"outsourcing_rate"`
}

// TeamDTO represents team data transfer object
type TeamDTO struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	LeaderID  *uuid.UUID `json:"leader_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ToTeamDTO converts a domain team
func ToTeamDTO(t *identity.Team) TeamDTO {
	return TeamDTO{
		ID:        t.ID,
		Name:      t.Name,
		LeaderID:  t.LeaderID,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

// TeamInput contains input for creating or renaming a team
type TeamInput struct {
	Name     string     `json:"name" binding:"required,max=50"`
	LeaderID *uuid.UUID `json:"leader_id"`
}
