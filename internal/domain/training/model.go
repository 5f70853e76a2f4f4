package training

import (
	"errors"
	"strings"
	"time"

	"glp/internal/domain/validation"
)

// Session statuses
const (
	StatusScheduled = "scheduled"
	StatusOngoing   = "ongoing"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// ValidStatuses lists session statuses in display order.
var ValidStatuses = []string{StatusScheduled, StatusOngoing, StatusCompleted, StatusCancelled}

// Attendance statuses
const (
	AttendanceRegistered = "registered"
	AttendanceAttended   = "attended"
	AttendanceMissed     = "missed"
	AttendanceCancelled  = "cancelled"
)

// ValidAttendanceStatuses lists attendance statuses in display order.
var ValidAttendanceStatuses = []string{AttendanceRegistered, AttendanceAttended, AttendanceMissed, AttendanceCancelled}

// Session transition actions
const (
	ActionStart    = "start_session"
	ActionComplete = "complete_session"
	ActionCancel   = "cancel_session"
)

var transitions = map[string]struct {
	to   string
	from []string
}{
	ActionStart:    {to: StatusOngoing, from: []string{StatusScheduled}},
	ActionComplete: {to: StatusCompleted, from: []string{StatusOngoing}},
	ActionCancel:   {to: StatusCancelled, from: []string{StatusScheduled, StatusOngoing}},
}

// Form layouts
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02T15:04"
)

// Domain errors
var (
	ErrInvalidAction     = errors.New("invalid action")
	ErrInvalidTransition = errors.New("that status change is not allowed")
	ErrInvalidAttendance = errors.New("attendance status must be one of: registered, attended, missed, cancelled")
	ErrSessionFull       = errors.New("this session is full")
	ErrNotOpenForSignup  = errors.New("registration is only open for scheduled sessions")
	ErrAlreadyRegistered = errors.New("you are already registered for this session")
	ErrNotRegistered     = errors.New("you are not registered for this session")
)

// Session is a scheduled training event led by an instructor.
type Session struct {
	ID              string
	Title           string `validate:"required,min=3,max=200" label:"Title"`
	Description     string `validate:"max=5000" label:"Description"`
	SessionDate     time.Time
	DurationMinutes int    `validate:"min=15,max=480" label:"Duration"`
	Location        string `validate:"max=200" label:"Location"`
	InstructorID    string `validate:"required" label:"Instructor"`
	MaxParticipants int    `validate:"min=0,max=1000" label:"Maximum participants"` // 0 = unlimited
	Status          string `validate:"oneof=scheduled ongoing completed cancelled" label:"Status"`
	CreatedBy       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Attendance is one user's registration for a session.
// INVARIANT: at most one Attendance per (SessionID, UserID)
// INVARIANT: AttendanceDate is set once the status has been attended and never cleared
type Attendance struct {
	ID               string
	SessionID        string
	UserID           string
	Status           string
	Notes            string
	RegistrationDate time.Time
	AttendanceDate   time.Time
}

// Validate checks if the Session has valid data.
// PRE: Session struct is populated
// POST: Returns nil if valid, validation.Errors otherwise
func (s *Session) Validate() error {
	s.Title = strings.TrimSpace(s.Title)
	s.Description = strings.TrimSpace(s.Description)
	s.Location = strings.TrimSpace(s.Location)
	errs := validation.Struct(s)
	if s.SessionDate.IsZero() {
		errs.Add("Session date is required")
	}
	return errs.Err()
}

// ApplyAction moves the session to the action's target status.
// PRE: none
// POST: Status and UpdatedAt changed, or an error with the session unchanged
func (s *Session) ApplyAction(action string, now time.Time) error {
	t, ok := transitions[action]
	if !ok {
		return ErrInvalidAction
	}
	allowed := false
	for _, f := range t.from {
		if f == s.Status {
			allowed = true
		}
	}
	if !allowed {
		return ErrInvalidTransition
	}
	s.Status = t.to
	s.UpdatedAt = now
	return nil
}

// AvailableActions returns the actions that may be applied from status.
func AvailableActions(status string) []string {
	var out []string
	for _, a := range []string{ActionStart, ActionComplete, ActionCancel} {
		for _, f := range transitions[a].from {
			if f == status {
				out = append(out, a)
			}
		}
	}
	return out
}

// EndsAt returns the scheduled end time.
func (s *Session) EndsAt() time.Time {
	return s.SessionDate.Add(time.Duration(s.DurationMinutes) * time.Minute)
}

// HasCapacity reports whether another registration fits.
// taken is the number of registered or attended rows.
func (s *Session) HasCapacity(taken int) bool {
	return s.MaxParticipants == 0 || taken < s.MaxParticipants
}

// IsValidAttendanceStatus reports whether status is a known attendance status.
func IsValidAttendanceStatus(status string) bool {
	for _, v := range ValidAttendanceStatuses {
		if v == status {
			return true
		}
	}
	return false
}

// Mark sets the attendance status and notes.
// PRE: status is a valid attendance status
// POST: AttendanceDate is stamped the first time the status becomes attended
func (a *Attendance) Mark(status, notes string, now time.Time) error {
	if !IsValidAttendanceStatus(status) {
		return ErrInvalidAttendance
	}
	a.Status = status
	a.Notes = strings.TrimSpace(notes)
	if status == AttendanceAttended && a.AttendanceDate.IsZero() {
		a.AttendanceDate = now
	}
	return nil
}

// CountsTowardCapacity reports whether the row occupies a seat.
func (a *Attendance) CountsTowardCapacity() bool {
	return a.Status == AttendanceRegistered || a.Status == AttendanceAttended
}

// ParseDateTime parses the datetime-local form value.
func ParseDateTime(s string) (time.Time, error) {
	return time.ParseInLocation(DateTimeLayout, strings.TrimSpace(s), time.Local)
}
