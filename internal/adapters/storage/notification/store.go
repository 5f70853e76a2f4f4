package notification

import (
	"context"

	domain "glp/internal/domain/notification"
)

// Store persists per-user notifications.
type Store interface {
	Save(ctx context.Context, n domain.Notification) error
	List(ctx context.Context, filter ListFilter) ([]domain.Notification, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	MarkRead(ctx context.Context, id, userID string) (bool, error)
	MarkAllRead(ctx context.Context, userID string) (int, error)
}

// ListFilter carries filtering parameters for List and Count.
type ListFilter struct {
	UserID     string
	UnreadOnly bool
	Limit      int
	Offset     int
}
