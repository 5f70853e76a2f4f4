package orchestrators

import (
	"context"
	"testing"

	"glp/internal/adapters/email"
	"glp/internal/domain/notification"
	"glp/internal/domain/user"
)

// TestNotifier_NotifyManyDedupes verifies duplicate and empty recipients are skipped.
func TestNotifier_NotifyManyDedupes(t *testing.T) {
	store := &mockNotificationStore{}
	n := newNotifier(store)
	got := n.NotifyMany(context.Background(), []string{"a", "", "b", "a"}, "Hello", "msg", "", "/dashboard")
	if got != 2 || len(store.saved) != 2 {
		t.Fatalf("stored %d (%d rows), want 2", got, len(store.saved))
	}
	if store.saved[0].Type != notification.TypeInfo {
		t.Errorf("type = %s, want info default", store.saved[0].Type)
	}
}

// TestNotifier_RejectsInvalid verifies invalid notifications are dropped, not returned as errors.
func TestNotifier_RejectsInvalid(t *testing.T) {
	store := &mockNotificationStore{}
	if newNotifier(store).CreateNotification(context.Background(), "a", "  ", "msg", notification.TypeInfo, "") {
		t.Error("empty title must not be stored")
	}
	if len(store.saved) != 0 {
		t.Error("nothing may be stored")
	}
}

// TestNotifier_Nil verifies a nil notifier is a no-op.
func TestNotifier_Nil(t *testing.T) {
	var n *Notifier
	if n.CreateNotification(context.Background(), "a", "t", "m", "", "") {
		t.Error("nil notifier must report false")
	}
	var l *ActivityLogger
	l.LogActivity(context.Background(), "nothing", "a")
}

// TestNotifier_EmailCopies verifies active recipients receive an email copy.
func TestNotifier_EmailCopies(t *testing.T) {
	inactive := testUser("b", user.RoleParticipant)
	inactive.IsActive = false
	sender := email.NewLogSender()
	n := newNotifier(&mockNotificationStore{})
	n.Users = newMockUserStore(testUser("a", user.RoleParticipant), inactive)
	n.Email = sender
	n.BaseURL = "https://glp.example.org"

	n.NotifyMany(context.Background(), []string{"a", "b"}, "Session moved", "Now at 5pm", notification.TypeWarning, "/sessions/1")
	sent := sender.Delivered()
	if len(sent) != 1 || sent[0].To != "a@example.org" || sent[0].Subject != "Session moved" || sent[0].Category != notification.TypeWarning {
		t.Errorf("sent = %+v", sent)
	}
}

// TestActivityLogger_RecordsIP verifies the client address travels through the context.
func TestActivityLogger_RecordsIP(t *testing.T) {
	store := &mockActivityStore{}
	ctx := WithClientIP(context.Background(), "203.0.113.7")
	newActivityLogger(store).LogActivity(ctx, "Did a thing", "u1")
	if len(store.entries) != 1 || store.entries[0].IPAddress != "203.0.113.7" || store.entries[0].ID == "" {
		t.Errorf("entries = %+v", store.entries)
	}
}
