package orchestrators

import (
	"context"
	"log/slog"
)

// NotificationStoreForOrchestrator defines the store interface needed to mark notifications read.
type NotificationStoreForOrchestrator interface {
	MarkRead(ctx context.Context, id, userID string) (bool, error)
	MarkAllRead(ctx context.Context, userID string) (int, error)
}

// MarkNotificationsInput carries input for mark_read and mark_all_read.
// An empty NotificationID marks every unread notification of the user.
type MarkNotificationsInput struct {
	UserID         string
	NotificationID string
}

// MarkNotificationsDeps holds dependencies for MarkNotifications.
type MarkNotificationsDeps struct {
	NotificationStore NotificationStoreForOrchestrator
}

// ExecuteMarkNotifications marks one or all of the user's notifications as read.
// PRE: UserID is the logged-in user
// POST: Returns the number of notifications changed; other users' notifications are never touched
func ExecuteMarkNotifications(ctx context.Context, input MarkNotificationsInput, deps MarkNotificationsDeps) (int, error) {
	if input.NotificationID == "" {
		n, err := deps.NotificationStore.MarkAllRead(ctx, input.UserID)
		if err != nil {
			return 0, err
		}
		slog.Info("notification_event", "event", "all_marked_read", "user_id", input.UserID, "count", n)
		return n, nil
	}
	ok, err := deps.NotificationStore.MarkRead(ctx, input.NotificationID, input.UserID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	slog.Info("notification_event", "event", "marked_read", "user_id", input.UserID, "notification_id", input.NotificationID)
	return 1, nil
}
