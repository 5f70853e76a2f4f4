package project

import (
	"errors"
	"strings"
	"time"

	"glp/internal/domain/validation"
)

// Status constants
const (
	StatusPlanning  = "planning"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusOnHold    = "on_hold"
	StatusCancelled = "cancelled"
)

// ValidStatuses lists statuses in display order.
var ValidStatuses = []string{StatusPlanning, StatusActive, StatusCompleted, StatusOnHold, StatusCancelled}

// Priority constants
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// ValidPriorities lists priorities in display order.
var ValidPriorities = []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// Participant roles
const (
	RoleLeader   = "leader"
	RoleMember   = "member"
	RoleObserver = "observer"
)

// ValidParticipantRoles lists roles a participant may hold in a project.
var ValidParticipantRoles = []string{RoleLeader, RoleMember, RoleObserver}

// Status transition actions
const (
	ActionActivate = "activate"
	ActionComplete = "complete"
	ActionPause    = "pause"
	ActionCancel   = "cancel"
)

// transition describes the target status of an action and the statuses it may leave.
type transition struct {
	to   string
	from []string
}

var transitions = map[string]transition{
	ActionActivate: {to: StatusActive, from: []string{StatusPlanning, StatusOnHold}},
	ActionComplete: {to: StatusCompleted, from: []string{StatusActive}},
	ActionPause:    {to: StatusOnHold, from: []string{StatusActive}},
	ActionCancel:   {to: StatusCancelled, from: []string{StatusPlanning, StatusActive, StatusOnHold}},
}

// Domain errors
var (
	ErrInvalidAction      = errors.New("invalid action")
	ErrInvalidTransition  = errors.New("that status change is not allowed")
	ErrNotJoinable        = errors.New("only planning or active projects can be joined")
	ErrAlreadyMember      = errors.New("you are already a participant in this project")
	ErrNotMember          = errors.New("you are not a participant in this project")
	ErrCreatorCannotLeave = errors.New("the project creator cannot leave the project")
)

// DateLayout is the storage and form layout for project dates.
const DateLayout = "2006-01-02"

// Project is a program initiative run by a group of participants.
// INVARIANT: EndDate is strictly after StartDate when both are set
type Project struct {
	ID          string
	Title       string `validate:"required,min=3,max=200" label:"Title"`
	Description string `validate:"required,min=10" label:"Description"`
	Status      string `validate:"oneof=planning active completed on_hold cancelled" label:"Status"`
	Priority    string `validate:"oneof=low medium high urgent" label:"Priority"`
	StartDate   time.Time // zero = not set
	EndDate     time.Time // zero = not set
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Participant links a user to a project.
type Participant struct {
	ProjectID     string
	UserID        string
	RoleInProject string
	JoinedDate    time.Time
}

// Validate checks if the Project has valid data.
// PRE: Project struct is populated
// POST: Returns nil if valid, validation.Errors with every failure otherwise
func (p *Project) Validate() error {
	p.Title = strings.TrimSpace(p.Title)
	p.Description = strings.TrimSpace(p.Description)
	errs := validation.Struct(p)
	errs.Merge(CheckDates(p.StartDate, p.EndDate))
	return errs.Err()
}

// CheckDates enforces the end-after-start rule when both dates are present.
func CheckDates(start, end time.Time) validation.Errors {
	var errs validation.Errors
	if !start.IsZero() && !end.IsZero() && !end.After(start) {
		errs.Add("End date must be after start date")
	}
	return errs
}

// ApplyAction moves the project to the action's target status.
// PRE: action is a status transition action
// POST: Status changed and UpdatedAt set, or an error with the project unchanged
func (p *Project) ApplyAction(action string, now time.Time) error {
	t, ok := transitions[action]
	if !ok {
		return ErrInvalidAction
	}
	if !contains(t.from, p.Status) {
		return ErrInvalidTransition
	}
	p.Status = t.to
	p.UpdatedAt = now
	return nil
}

// actionOrder fixes the display order of status actions.
var actionOrder = []string{ActionActivate, ActionComplete, ActionPause, ActionCancel}

// AvailableActions returns the actions that may be applied from status, in display order.
func AvailableActions(status string) []string {
	var out []string
	for _, a := range actionOrder {
		if contains(transitions[a].from, status) {
			out = append(out, a)
		}
	}
	return out
}

// IsJoinable reports whether new participants may join.
func (p *Project) IsJoinable() bool {
	return p.Status == StatusPlanning || p.Status == StatusActive
}

// DaysRunning returns whole days from StartDate to now, or 0 when no start date is set.
// The value is not capped and may be negative for projects that have not started.
func (p *Project) DaysRunning(now time.Time) int {
	if p.StartDate.IsZero() {
		return 0
	}
	start := time.Date(p.StartDate.Year(), p.StartDate.Month(), p.StartDate.Day(), 0, 0, 0, 0, time.UTC)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(today.Sub(start).Hours() / 24)
}

// StatusLabel renders a status for people, e.g. "on hold".
func StatusLabel(status string) string {
	return strings.ReplaceAll(status, "_", " ")
}

// ParseDate parses an optional YYYY-MM-DD form value. Empty input yields the zero time.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(DateLayout, s)
}

// FormatDate formats an optional date, returning "" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
