package training

import (
	"context"
	"time"

	domain "glp/internal/domain/training"
)

// Store persists training sessions and attendance.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Session, error)
	Save(ctx context.Context, s domain.Session) error
	List(ctx context.Context, filter ListFilter) ([]Summary, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	CountByStatus(ctx context.Context) (map[string]int, error)

	GetAttendance(ctx context.Context, sessionID, userID string) (domain.Attendance, error)
	SaveAttendance(ctx context.Context, rows []domain.Attendance) error
	RegisterMany(ctx context.Context, rows []domain.Attendance) (int, error)
	ListAttendance(ctx context.Context, sessionID string) ([]Attendee, error)
	CountTaken(ctx context.Context, sessionID string) (int, error)
}

// ListFilter carries filtering parameters for List and Count.
// From and To bound session_date as [From, To); zero values are open.
// AttendeeID restricts to sessions the user is registered for.
type ListFilter struct {
	Limit        int
	Offset       int
	Search       string
	Status       string
	InstructorID string
	AttendeeID   string
	From         time.Time
	To           time.Time
	Descending   bool
}

// Summary is a session row for list and calendar views.
type Summary struct {
	domain.Session
	InstructorName string
	Taken          int // registered or attended rows
}

// Attendee is an attendance row joined with the user's display fields.
type Attendee struct {
	domain.Attendance
	Username  string
	FirstName string
	LastName  string
	Role      string
}

// FullName returns "First Last".
func (a Attendee) FullName() string {
	return a.FirstName + " " + a.LastName
}
