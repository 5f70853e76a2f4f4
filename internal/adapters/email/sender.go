// Package email copies in-app notifications to members' inboxes.
package email

import (
	"context"
	"time"
)

// Mail is one rendered notification addressed to a single member.
type Mail struct {
	To       string
	Subject  string
	HTML     string
	Text     string
	Category string // notification type, used as a provider tag
}

// Receipt records that the provider accepted a Mail.
type Receipt struct {
	ID       string
	Accepted time.Time
}

// Sender delivers mail. Receipts are returned in the order of the input.
type Sender interface {
	Deliver(ctx context.Context, mails []Mail) ([]Receipt, error)
}
