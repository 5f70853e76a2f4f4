package email

import (
	"context"
	"strings"
	"testing"
)

// TestNotificationMessage_Request verifies escaping and link handling.
func TestNotificationMessage_Request(t *testing.T) {
	req, err := NotificationMessage{
		To:      "amara@example.org",
		Title:   "New session: <Public speaking>",
		Message: "Join us on Tuesday.\n\nBring a notebook.",
		Type:    "info",
		Link:    "/sessions/abc",
		BaseURL: "https://glp.example.org/",
	}.Render()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.To != "amara@example.org" || req.Category != "info" {
		t.Errorf("to = %q, category = %q", req.To, req.Category)
	}
	if !strings.HasSuffix(req.Text, "https://glp.example.org/sessions/abc") || strings.Contains(req.Text, "<p>") {
		t.Errorf("text body = %q", req.Text)
	}
	if strings.Contains(req.HTML, "<Public speaking>") {
		t.Error("title must be HTML-escaped")
	}
	if !strings.Contains(req.HTML, "https://glp.example.org/sessions/abc") {
		t.Error("expected absolute link")
	}
	if strings.Count(req.HTML, "<p>") < 3 {
		t.Errorf("expected one paragraph per line plus the link, got %s", req.HTML)
	}
}

// TestNotificationMessage_NoBaseURL verifies the link is dropped without a base URL.
func TestNotificationMessage_NoBaseURL(t *testing.T) {
	req, err := NotificationMessage{To: "a@example.org", Title: "Hi", Link: "/projects/1"}.Render()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(req.HTML, "href") {
		t.Error("link should be omitted without a base URL")
	}
}

// TestLogSender_RecordsMail verifies the log sender keeps what it was given in order.
func TestLogSender_RecordsMail(t *testing.T) {
	s := NewLogSender()
	receipts, err := s.Deliver(context.Background(), []Mail{
		{To: "a@example.org", Subject: "one"},
		{To: "b@example.org", Subject: "two"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(receipts) != 2 || receipts[0].ID == receipts[1].ID {
		t.Errorf("receipts = %+v", receipts)
	}
	got := s.Delivered()
	if len(got) != 2 || got[1].Subject != "two" {
		t.Errorf("delivered = %+v", got)
	}
}
