// Package datascope restricts GORM queries to the rows the acting user may
// see. The scope is read from the request context:
//   - super_admin: every row
//   - team_leader: rows of the leader's team, plus rows the leader manages
//   - staff: rows the user manages
//
// Usage:
//
//	scoped := datascope.FromContext(ctx).Apply(db, datascope.Customers)
//	scoped.Find(&customers) // WHERE (manager_id = ? OR team_id = ?) for a team leader
package datascope

import (
	"context"

	"github.com/bizconsult/crm/internal/domain/identity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Resource names the ownership columns of a scoped table
type Resource struct {
	Table       string
	OwnerColumn string
	TeamColumn  string // empty when the table has no team column
}

// Scoped resources
var (
	Customers       = Resource{Table: "customers", OwnerColumn: "manager_id", TeamColumn: "team_id"}
	SettlementItems = Resource{Table: "settlement_items", OwnerColumn: "manager_id", TeamColumn: "team_id"}
	Todos           = Resource{Table: "todos", OwnerColumn: "assignee_id"}
)

// allowedColumns whitelists the column names that may be interpolated
var allowedColumns = map[string]bool{
	"manager_id":  true,
	"team_id":     true,
	"assignee_id": true,
}

// Filter applies an access scope to queries
type Filter struct {
	scope   identity.AccessScope
	present bool
}

// New creates a Filter for an explicit scope
func New(scope identity.AccessScope) *Filter {
	return &Filter{scope: scope, present: true}
}

// FromContext creates a Filter from the scope stored by the auth middleware.
// Without a stored scope the filter matches nothing.
func FromContext(ctx context.Context) *Filter {
	s, ok := identity.ScopeFromContext(ctx)
	return &Filter{scope: s, present: ok}
}

// Apply adds the scope condition for resource to db
func (f *Filter) Apply(db *gorm.DB, r Resource) *gorm.DB {
	if !f.present {
		return db.Where("1 = 0")
	}
	if f.scope.IsUnrestricted() {
		return db
	}
	if !allowedColumns[r.OwnerColumn] || (r.TeamColumn != "" && !allowedColumns[r.TeamColumn]) {
		return db.Where("1 = 0")
	}
	if f.scope.UserID == uuid.Nil {
		return db.Where("1 = 0")
	}

	owner := qualify(r, r.OwnerColumn)
	if f.scope.Role == identity.RoleTeamLeader && f.scope.TeamID != nil && r.TeamColumn != "" {
		return db.Where("("+owner+" = ? OR "+qualify(r, r.TeamColumn)+" = ?)", f.scope.UserID, *f.scope.TeamID)
	}
	return db.Where(owner+" = ?", f.scope.UserID)
}

// Scope returns Apply as a GORM scope function
func (f *Filter) Scope(r Resource) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return f.Apply(db, r)
	}
}

// CanAccessAll reports whether the filter is a no-op
func (f *Filter) CanAccessAll() bool {
	return f.present && f.scope.IsUnrestricted()
}

// CanAccess reports whether a single row with the given owner and team is visible
func (f *Filter) CanAccess(ownerID, teamID *uuid.UUID) bool {
	return f.present && f.scope.CanAccess(ownerID, teamID)
}

func qualify(r Resource, column string) string {
	if r.Table == "" {
		return column
	}
	return r.Table + "." + column
}
