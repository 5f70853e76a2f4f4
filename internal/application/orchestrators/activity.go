package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"glp/internal/domain/activity"
)

// ActivityStoreForLogger defines the store interface needed by ActivityLogger.
type ActivityStoreForLogger interface {
	Save(ctx context.Context, entry activity.Entry) error
}

// ActivityLogger records user actions to the activity log.
// A nil *ActivityLogger only writes the slog line.
type ActivityLogger struct {
	Store      ActivityStoreForLogger
	GenerateID func() string
	Now        func() time.Time
}

// LogActivity records message against userID.
// PRE: message is non-empty
// POST: An activity row is written when possible; failures are logged, never returned
func (l *ActivityLogger) LogActivity(ctx context.Context, message, userID string) {
	ip := ClientIP(ctx)
	slog.Info("activity_event", "event", "activity_logged", "user_id", userID, "message", message, "ip", ip)
	if l == nil || l.Store == nil {
		return
	}
	entry := activity.NewEntry(userID, message, ip, l.Now())
	entry.ID = l.GenerateID()
	if err := l.Store.Save(ctx, entry); err != nil {
		slog.Error("activity_log_failed", "user_id", userID, "error", err)
	}
}
