package notification

import (
	"errors"
	"strings"
	"time"
)

// Notification types
const (
	TypeInfo    = "info"
	TypeSuccess = "success"
	TypeWarning = "warning"
	TypeError   = "error"
)

// ValidTypes lists notification types.
var ValidTypes = []string{TypeInfo, TypeSuccess, TypeWarning, TypeError}

// Length limits
const (
	MaxTitleLength   = 200
	MaxMessageLength = 2000
)

// Domain errors
var (
	ErrEmptyUser    = errors.New("notification user is required")
	ErrEmptyTitle   = errors.New("notification title cannot be empty")
	ErrTitleTooLong = errors.New("notification title cannot exceed 200 characters")
	ErrInvalidType  = errors.New("notification type must be one of: info, success, warning, error")
)

// Notification is an in-app message addressed to one user.
type Notification struct {
	ID        string
	UserID    string
	Title     string
	Message   string
	Type      string
	Link      string // relative URL, may be empty
	IsRead    bool
	CreatedAt time.Time
}

// Validate checks if the Notification has valid data.
// PRE: Notification struct is populated
// POST: Returns nil if valid, error otherwise; an empty Type defaults to info and Message is truncated
func (n *Notification) Validate() error {
	n.Title = strings.TrimSpace(n.Title)
	if n.UserID == "" {
		return ErrEmptyUser
	}
	if n.Title == "" {
		return ErrEmptyTitle
	}
	if len(n.Title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if n.Type == "" {
		n.Type = TypeInfo
	}
	if !isValidType(n.Type) {
		return ErrInvalidType
	}
	if len(n.Message) > MaxMessageLength {
		n.Message = n.Message[:MaxMessageLength]
	}
	if !strings.HasPrefix(n.Link, "/") {
		n.Link = ""
	}
	return nil
}

func isValidType(t string) bool {
	for _, v := range ValidTypes {
		if v == t {
			return true
		}
	}
	return false
}
