package activity

import (
	"strings"
	"time"
)

// MaxMessageLength bounds stored activity messages.
const MaxMessageLength = 500

// Entry is one line of the activity log: who did what, from where.
type Entry struct {
	ID        string
	UserID    string // empty for system activity
	Message   string
	IPAddress string
	CreatedAt time.Time
}

// NewEntry builds an Entry with a trimmed, bounded message.
// PRE: message is non-empty
// POST: Returns an Entry stamped with now; ID is left for the caller
func NewEntry(userID, message, ip string, now time.Time) Entry {
	message = strings.TrimSpace(message)
	if len(message) > MaxMessageLength {
		message = message[:MaxMessageLength]
	}
	return Entry{
		UserID:    userID,
		Message:   message,
		IPAddress: ip,
		CreatedAt: now,
	}
}
