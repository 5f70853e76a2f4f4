package notification

import (
	"context"
	"testing"
	"time"

	"glp/internal/adapters/storage/storagetest"
	domain "glp/internal/domain/notification"
)

// TestMarkRead verifies users can only mark their own notifications.
func TestMarkRead(t *testing.T) {
	ctx := context.Background()
	db := storagetest.Open(t)
	storagetest.SeedUser(t, db, "u1", "participant")
	storagetest.SeedUser(t, db, "u2", "participant")
	s := NewSQLiteStore(db)

	base := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	for i, id := range []string{"n1", "n2", "n3"} {
		if err := s.Save(ctx, domain.Notification{ID: id, UserID: "u1", Title: "Hello", Type: domain.TypeInfo, CreatedAt: base.Add(time.Duration(i) * time.Minute)}); err != nil {
			t.Fatal(err)
		}
	}

	if ok, _ := s.MarkRead(ctx, "n1", "u2"); ok {
		t.Error("another user marked n1 read")
	}
	if ok, _ := s.MarkRead(ctx, "n1", "u1"); !ok {
		t.Error("owner could not mark n1 read")
	}
	if n, _ := s.Count(ctx, ListFilter{UserID: "u1", UnreadOnly: true}); n != 2 {
		t.Errorf("unread = %d, want 2", n)
	}
	if n, _ := s.MarkAllRead(ctx, "u1"); n != 2 {
		t.Errorf("MarkAllRead changed %d, want 2", n)
	}

	list, _ := s.List(ctx, ListFilter{UserID: "u1", Limit: 2})
	if len(list) != 2 || list[0].ID != "n3" || !list[0].IsRead {
		t.Errorf("unexpected list %+v", list)
	}
}
