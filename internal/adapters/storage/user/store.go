package user

import (
	"context"
	"time"

	domain "glp/internal/domain/user"
)

// Store persists User state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByLogin(ctx context.Context, login string) (domain.User, error)
	Save(ctx context.Context, value domain.User) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	UsernameTaken(ctx context.Context, username, excludeID string) (bool, error)
	EmailTaken(ctx context.Context, email, excludeID string) (bool, error)
	List(ctx context.Context, filter ListFilter) ([]domain.User, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	CountByRole(ctx context.Context) (map[string]int, error)
	CountAll(ctx context.Context) (int, error)
}

// ListFilter carries filtering parameters for List and Count.
// Roles restricts to any of the given roles; Active nil means both.
type ListFilter struct {
	Limit  int
	Offset int
	Search string
	Role   string
	Roles  []string
	Active *bool
}
