package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"glp/internal/adapters/email"
	"glp/internal/domain/notification"
	"glp/internal/domain/project"
	"glp/internal/domain/user"
)

// NotificationStoreForNotifier defines the store interface needed by Notifier.
type NotificationStoreForNotifier interface {
	Save(ctx context.Context, n notification.Notification) error
}

// UserLookup resolves a user for email copies.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

// Notifier creates in-app notifications and optionally copies them by email.
// Every method is best effort: failures are logged and counted, never returned.
// A nil *Notifier drops every notification.
type Notifier struct {
	Store      NotificationStoreForNotifier
	Users      UserLookup   // required for email copies
	Email      email.Sender // nil disables email copies
	BaseURL    string
	GenerateID func() string
	Now        func() time.Time
}

// CreateNotification stores one notification for userID.
// PRE: userID and title are non-empty
// POST: Returns true when the notification was stored
func (n *Notifier) CreateNotification(ctx context.Context, userID, title, message, typ, link string) bool {
	return n.NotifyMany(ctx, []string{userID}, title, message, typ, link) == 1
}

// NotifyMany stores the same notification for each recipient, skipping duplicates and empty IDs.
// PRE: none
// POST: Returns the number of notifications stored
func (n *Notifier) NotifyMany(ctx context.Context, userIDs []string, title, message, typ, link string) int {
	if n == nil || n.Store == nil {
		return 0
	}
	seen := make(map[string]bool, len(userIDs))
	var stored []notification.Notification
	for _, id := range userIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		note := notification.Notification{
			ID:        n.GenerateID(),
			UserID:    id,
			Title:     title,
			Message:   message,
			Type:      typ,
			Link:      link,
			CreatedAt: n.Now(),
		}
		if err := note.Validate(); err != nil {
			slog.Warn("notification_rejected", "user_id", id, "title", title, "error", err)
			continue
		}
		if err := n.Store.Save(ctx, note); err != nil {
			slog.Error("notification_save_failed", "user_id", id, "error", err)
			continue
		}
		stored = append(stored, note)
	}
	if len(stored) > 0 {
		slog.Info("notification_event", "event", "notifications_created", "count", len(stored), "title", title)
		n.sendEmails(ctx, stored)
	}
	return len(stored)
}

// sendEmails copies stored notifications to each recipient's address.
func (n *Notifier) sendEmails(ctx context.Context, notes []notification.Notification) {
	if n.Email == nil || n.Users == nil {
		return
	}
	mails := make([]email.Mail, 0, len(notes))
	for _, note := range notes {
		u, err := n.Users.GetByID(ctx, note.UserID)
		if err != nil || u.Email == "" || !u.IsActive {
			continue
		}
		mail, err := email.NotificationMessage{
			To:      u.Email,
			Title:   note.Title,
			Message: note.Message,
			Type:    note.Type,
			Link:    note.Link,
			BaseURL: n.BaseURL,
		}.Render()
		if err != nil {
			slog.Error("notification_email_render_failed", "user_id", note.UserID, "error", err)
			continue
		}
		mails = append(mails, mail)
	}
	if len(mails) == 0 {
		return
	}
	if _, err := n.Email.Deliver(ctx, mails); err != nil {
		slog.Error("notification_email_failed", "count", len(mails), "error", err)
	}
}

// NotifyProjectJoined tells the project's leaders that someone joined.
// PRE: leaderIDs lists the project's leaders
// POST: Returns the number of notifications stored; the joiner is never notified
func (n *Notifier) NotifyProjectJoined(ctx context.Context, p project.Project, leaderIDs []string, joinerID, joinerName string) int {
	return n.NotifyMany(ctx, without(leaderIDs, joinerID),
		"New project participant",
		fmt.Sprintf("%s joined the project \"%s\".", joinerName, p.Title),
		notification.TypeInfo,
		"/projects/"+p.ID)
}

// NotifyProjectLeft tells the project's leaders that someone left.
// PRE: leaderIDs lists the project's leaders
// POST: Returns the number of notifications stored
func (n *Notifier) NotifyProjectLeft(ctx context.Context, p project.Project, leaderIDs []string, leaverID, leaverName string) int {
	return n.NotifyMany(ctx, without(leaderIDs, leaverID),
		"Participant left project",
		fmt.Sprintf("%s left the project \"%s\".", leaverName, p.Title),
		notification.TypeWarning,
		"/projects/"+p.ID)
}

// NotifyProjectStatusChanged tells every participant except the actor about a status change.
// PRE: p.Status holds the new status
// POST: Returns the number of notifications stored
func (n *Notifier) NotifyProjectStatusChanged(ctx context.Context, p project.Project, participantIDs []string, actorID string) int {
	typ := notification.TypeInfo
	switch p.Status {
	case project.StatusCompleted:
		typ = notification.TypeSuccess
	case project.StatusCancelled, project.StatusOnHold:
		typ = notification.TypeWarning
	}
	return n.NotifyMany(ctx, without(participantIDs, actorID),
		"Project status updated",
		fmt.Sprintf("The project \"%s\" is now %s.", p.Title, project.StatusLabel(p.Status)),
		typ,
		"/projects/"+p.ID)
}

func without(ids []string, exclude string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != exclude {
			out = append(out, id)
		}
	}
	return out
}
