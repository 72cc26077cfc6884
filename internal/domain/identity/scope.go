package identity

import (
	"context"

	"github.com/google/uuid"
)

// AccessScope is the slice of customers and settlements a user may see:
// staff see their own, team leaders their team, super admins everything.
type AccessScope struct {
	UserID uuid.UUID
	Role   Role
	TeamID *uuid.UUID
}

// Scope returns the user's access scope
func (u *User) Scope() AccessScope {
	return AccessScope{UserID: u.ID, Role: u.Role, TeamID: u.TeamID}
}

// SystemScope is used by background work that is not bound to a user
func SystemScope() AccessScope {
	return AccessScope{Role: RoleSuperAdmin}
}

// IsUnrestricted reports whether the scope covers every record
func (s AccessScope) IsUnrestricted() bool {
	return s.Role == RoleSuperAdmin
}

// CanAccess reports whether a record with the given manager and team is visible
func (s AccessScope) CanAccess(managerID, teamID *uuid.UUID) bool {
	switch s.Role {
	case RoleSuperAdmin:
		return true
	case RoleTeamLeader:
		if s.TeamID != nil && teamID != nil && *s.TeamID == *teamID {
			return true
		}
	}
	return managerID != nil && *managerID == s.UserID
}

type scopeKey struct{}

// WithScope stores the access scope in ctx
func WithScope(ctx context.Context, s AccessScope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

// ScopeFromContext returns the stored access scope. The zero scope (staff
// with no user) sees nothing, so a missing scope fails closed.
func ScopeFromContext(ctx context.Context) (AccessScope, bool) {
	s, ok := ctx.Value(scopeKey{}).(AccessScope)
	return s, ok
}
