package assignment

import "time"

// Assignment statuses
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusOverdue    = "overdue"
)

// ValidStatuses lists assignment statuses in display order.
var ValidStatuses = []string{StatusPending, StatusInProgress, StatusCompleted, StatusOverdue}

// Assignment is a task handed to a user, optionally within a project.
// Assignments are read-only in this application; they are shown on project and profile pages.
type Assignment struct {
	ID          string
	ProjectID   string // empty when not tied to a project
	AssignedBy  string
	AssignedTo  string
	Title       string
	Description string
	Status      string
	DueDate     time.Time
	CreatedAt   time.Time
}

// IsOverdue reports whether the assignment is past due and not completed.
func (a *Assignment) IsOverdue(now time.Time) bool {
	if a.Status == StatusOverdue {
		return true
	}
	if a.Status == StatusCompleted || a.DueDate.IsZero() {
		return false
	}
	return now.Format("2006-01-02") > a.DueDate.Format("2006-01-02")
}
