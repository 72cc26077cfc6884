package identity

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bizconsult/crm/internal/domain/settlement"
	"github.com/bizconsult/crm/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// Role is a user's access level
type Role string

const (
	RoleStaff      Role = "staff"
	RoleTeamLeader Role = "team_leader"
	RoleSuperAdmin Role = "super_admin"
)

// IsValid reports whether the role is known
func (r Role) IsValid() bool {
	return r == RoleStaff || r == RoleTeamLeader || r == RoleSuperAdmin
}

// Password cost for bcrypt
const bcryptCost = 12

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// User is an employee of the firm. Managers earn commission according to the
// rate fields.
type User struct {
	shared.BaseAggregateRoot
	Email           string
	Name            string
	Phone           string
	PasswordHash    string
	Role            Role
	TeamID          *uuid.UUID
	CommissionRate  decimal.Decimal // percent, contract items
	ExecutionRate   decimal.Decimal // percent, execution items
	OutsourcingRate decimal.Decimal // percent, outsourced contracts
	Active          bool
	LastLoginAt     *time.Time
}

// NewUser creates an active staff user
func NewUser(email, name, password string, role Role) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailRegex.MatchString(email) {
		return nil, shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > 50 {
		return nil, shared.NewDomainError("INVALID_NAME", "User name must be 1-50 characters")
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Unknown role: "+string(role))
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	return &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Email:             email,
		Name:              name,
		PasswordHash:      hash,
		Role:              role,
		CommissionRate:    decimal.Zero,
		ExecutionRate:     decimal.Zero,
		OutsourcingRate:   decimal.Zero,
		Active:            true,
	}, nil
}

// SetPassword replaces the password hash
func (u *User) SetPassword(password string) error {
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.touch()
	return nil
}

// VerifyPassword checks a plaintext password against the stored hash
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// SetProfile updates the display name and phone
func (u *User) SetProfile(name, phone string) error {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > 50 {
		return shared.NewDomainError("INVALID_NAME", "User name must be 1-50 characters")
	}
	u.Name = name
	u.Phone = strings.TrimSpace(phone)
	u.touch()
	return nil
}

// SetRole changes the access level
func (u *User) SetRole(role Role) error {
	if !role.IsValid() {
		return shared.NewDomainError("INVALID_ROLE", "Unknown role: "+string(role))
	}
	u.Role = role
	u.touch()
	return nil
}

// AssignTeam moves the user to a team (nil removes the assignment)
func (u *User) AssignTeam(teamID *uuid.UUID) {
	u.TeamID = teamID
	u.touch()
}

// SetCommissionPolicy updates the commission rates (percent, 0-100)
func (u *User) SetCommissionPolicy(contract, execution, outsourcing decimal.Decimal) error {
	for _, r := range []decimal.Decimal{contract, execution, outsourcing} {
		if r.IsNegative() || r.GreaterThan(decimal.NewFromInt(100)) {
			return shared.NewDomainError("INVALID_COMMISSION_RATE", "Commission rate must be between 0 and 100")
		}
	}
	u.CommissionRate = contract
	u.ExecutionRate = execution
	u.OutsourcingRate = outsourcing
	u.touch()
	return nil
}

// CommissionPolicy returns the rates used by settlement sync
func (u *User) CommissionPolicy() settlement.CommissionPolicy {
	return settlement.CommissionPolicy{
		ContractRate:    u.CommissionRate,
		ExecutionRate:   u.ExecutionRate,
		OutsourcingRate: u.OutsourcingRate,
	}
}

// Deactivate blocks login
func (u *User) Deactivate() {
	u.Active = false
	u.touch()
}

// Activate allows login again
func (u *User) Activate() {
	u.Active = true
	u.touch()
}

// RecordLogin stamps a successful login
func (u *User) RecordLogin(at time.Time) {
	u.LastLoginAt = &at
}

func (u *User) touch() {
	u.UpdatedAt = time.Now()
}

func hashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > 72 {
		return "", shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 72 bytes")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	return string(hash), nil
}
