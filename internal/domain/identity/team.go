package identity

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bizconsult/crm/internal/domain/shared"
	"github.com/google/uuid"
)

// Team groups users under a leader
type Team struct {
	shared.BaseAggregateRoot
	Name     string
	LeaderID *uuid.UUID
}

// NewTeam creates a team
func NewTeam(name string) (*Team, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > 50 {
		return nil, shared.NewDomainError("INVALID_TEAM_NAME", "Team name must be 1-50 characters")
	}
	return &Team{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
	}, nil
}

// Rename changes the team name
func (t *Team) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > 50 {
		return shared.NewDomainError("INVALID_TEAM_NAME", "Team name must be 1-50 characters")
	}
	t.Name = name
	t.UpdatedAt = time.Now()
	return nil
}

// SetLeader sets the team leader; the user must belong to the team
func (t *Team) SetLeader(leader *User) error {
	if leader == nil {
		t.LeaderID = nil
		t.UpdatedAt = time.Now()
		return nil
	}
	if leader.TeamID == nil || *leader.TeamID != t.ID {
		return shared.NewDomainError("LEADER_NOT_IN_TEAM", "Team leader must be a member of the team")
	}
	id := leader.ID
	t.LeaderID = &id
	t.UpdatedAt = time.Now()
	return nil
}
