package projections

import (
	"context"

	notificationStore "glp/internal/adapters/storage/notification"
	"glp/internal/application/listutil"
	"glp/internal/domain/notification"
)

// NotificationListQuery carries query parameters for the notification page.
type NotificationListQuery struct {
	UserID     string
	Page       int
	UnreadOnly bool
}

// NotificationListResult carries one page of the user's notifications.
type NotificationListResult struct {
	Notifications []notification.Notification
	Page          listutil.PageInfo
	Unread        int
}

// NotificationListDeps holds dependencies for NotificationList.
type NotificationListDeps struct {
	NotificationStore NotificationStore
}

// QueryNotificationList returns a page of the user's own notifications, newest first.
// PRE: UserID is the logged-in user
// POST: Never returns another user's notifications
func QueryNotificationList(ctx context.Context, q NotificationListQuery, deps NotificationListDeps) (NotificationListResult, error) {
	filter := notificationStore.ListFilter{UserID: q.UserID, UnreadOnly: q.UnreadOnly}
	total, err := deps.NotificationStore.Count(ctx, filter)
	if err != nil {
		return NotificationListResult{}, err
	}
	page := listutil.NewPageInfo(q.Page, listutil.DefaultPerPage, total)
	filter.Limit = page.PerPage
	filter.Offset = page.Offset()
	rows, err := deps.NotificationStore.List(ctx, filter)
	if err != nil {
		return NotificationListResult{}, err
	}
	unread, err := QueryUnreadCount(ctx, q.UserID, deps.NotificationStore)
	if err != nil {
		return NotificationListResult{}, err
	}
	return NotificationListResult{Notifications: rows, Page: page, Unread: unread}, nil
}

// QueryUnreadCount returns the badge count shown in the layout.
func QueryUnreadCount(ctx context.Context, userID string, store NotificationStore) (int, error) {
	return store.Count(ctx, notificationStore.ListFilter{UserID: userID, UnreadOnly: true})
}
