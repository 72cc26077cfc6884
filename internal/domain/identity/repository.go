package identity

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository defines persistence for users
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindAll(ctx context.Context, teamID *uuid.UUID) ([]User, error)
	Save(ctx context.Context, u *User) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// TeamRepository defines persistence for teams
type TeamRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Team, error)
	FindAll(ctx context.Context) ([]Team, error)
	Save(ctx context.Context, t *Team) error
	Delete(ctx context.Context, id uuid.UUID) error
}
