package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"glp/internal/domain/notification"
	"glp/internal/domain/training"
	"glp/internal/domain/user"
	"glp/internal/domain/validation"
)

// TrainingStoreForOrchestrator defines the store interface needed by session orchestrators.
type TrainingStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (training.Session, error)
	Save(ctx context.Context, s training.Session) error
	GetAttendance(ctx context.Context, sessionID, userID string) (training.Attendance, error)
	SaveAttendance(ctx context.Context, rows []training.Attendance) error
	RegisterMany(ctx context.Context, rows []training.Attendance) (int, error)
	CountTaken(ctx context.Context, sessionID string) (int, error)
}

// SessionUserStore resolves instructors and attendees.
type SessionUserStore interface {
	UserLookup
	UserListerForCohort
}

// SessionDeps holds dependencies shared by session orchestrators.
type SessionDeps struct {
	TrainingStore TrainingStoreForOrchestrator
	UserStore     SessionUserStore
	Activity      *ActivityLogger
	Notifier      *Notifier
	GenerateID    func() string
	Now           func() time.Time
}

// --- Save Session ---

// SaveSessionInput carries input for creating or editing a training session.
// An empty SessionID creates a scheduled session. A nil MaxParticipants means unlimited.
type SaveSessionInput struct {
	SessionID       string
	Title           string
	Description     string
	SessionDate     time.Time
	DurationMinutes int
	Location        string
	InstructorID    string
	MaxParticipants *int
	ActorID         string
}

// ExecuteSaveSession creates or updates a training session.
// PRE: caller holds training_management
// POST: Session persisted, or validation.Errors and nothing persisted
// POST: A new session notifies every active participant and volunteer
// INVARIANT: the instructor is an active user
func ExecuteSaveSession(ctx context.Context, input SaveSessionInput, deps SessionDeps) (training.Session, error) {
	now := deps.Now()
	creating := input.SessionID == ""
	var s training.Session
	if creating {
		s = training.Session{
			ID:        deps.GenerateID(),
			Status:    training.StatusScheduled,
			CreatedBy: input.ActorID,
			CreatedAt: now,
		}
	} else {
		existing, err := deps.TrainingStore.GetByID(ctx, input.SessionID)
		if err != nil {
			return training.Session{}, notFound(err)
		}
		s = existing
	}

	s.Title = input.Title
	s.Description = input.Description
	s.SessionDate = input.SessionDate
	s.DurationMinutes = input.DurationMinutes
	s.Location = input.Location
	s.InstructorID = input.InstructorID
	s.MaxParticipants = 0
	if input.MaxParticipants != nil {
		s.MaxParticipants = *input.MaxParticipants
	}
	s.UpdatedAt = now

	errs := validation.Messages(s.Validate())
	if input.MaxParticipants != nil && *input.MaxParticipants < 1 {
		errs = append(errs, "Maximum participants must be at least 1")
	}
	if s.InstructorID != "" {
		inst, err := deps.UserStore.GetByID(ctx, s.InstructorID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return training.Session{}, err
		}
		if err != nil || !inst.IsActive {
			errs = append(errs, "Instructor must be an active user")
		}
	}
	if len(errs) > 0 {
		return training.Session{}, validation.Errors(errs)
	}

	if err := deps.TrainingStore.Save(ctx, s); err != nil {
		return training.Session{}, err
	}

	event, verb := "session_updated", "Updated"
	if creating {
		event, verb = "session_created", "Created"
	}
	deps.Activity.LogActivity(ctx, fmt.Sprintf("%s training session: %s", verb, s.Title), input.ActorID)
	slog.Info("session_event", "event", event, "session_id", s.ID, "instructor_id", s.InstructorID, "actor_id", input.ActorID)

	if creating {
		ids := cohortIDs(ctx, deps.UserStore, []string{user.RoleParticipant, user.RoleVolunteer}, input.ActorID)
		deps.Notifier.NotifyMany(ctx, ids,
			"New training session",
			fmt.Sprintf("\"%s\" is scheduled for %s.", s.Title, s.SessionDate.Format("Mon 2 Jan 2006 15:04")),
			notification.TypeInfo,
			"/sessions/"+s.ID)
	}
	return s, nil
}

// --- Status Actions ---

// SessionActionInput carries input for a session status action.
type SessionActionInput struct {
	SessionID string
	Action    string
	ActorID   string
}

// ExecuteSessionAction applies start_session, complete_session or cancel_session.
// PRE: caller holds training_management
// POST: Status changed, or an error with the session unchanged
func ExecuteSessionAction(ctx context.Context, input SessionActionInput, deps SessionDeps) (training.Session, error) {
	s, err := deps.TrainingStore.GetByID(ctx, input.SessionID)
	if err != nil {
		return training.Session{}, notFound(err)
	}
	from := s.Status
	if err := s.ApplyAction(input.Action, deps.Now()); err != nil {
		return training.Session{}, err
	}
	if err := deps.TrainingStore.Save(ctx, s); err != nil {
		return training.Session{}, err
	}
	deps.Activity.LogActivity(ctx, fmt.Sprintf("Changed session status: %s (%s → %s)", s.Title, from, s.Status), input.ActorID)
	slog.Info("session_event", "event", "session_status_changed", "session_id", s.ID, "from", from, "to", s.Status, "actor_id", input.ActorID)
	return s, nil
}

// --- Attendance ---

// AttendanceMark is one posted attendance[<user_id>] pair.
type AttendanceMark struct {
	UserID string
	Status string
	Notes  string
}

// MarkAttendanceInput carries the posted attendance sheet.
type MarkAttendanceInput struct {
	SessionID string
	Marks     []AttendanceMark
	ActorID   string
}

// ExecuteMarkAttendance upserts one attendance row per mark.
// PRE: caller holds training_management
// POST: Every row saved, or validation.Errors and none saved
// INVARIANT: attendance_date is stamped on the first attended mark and never cleared
func ExecuteMarkAttendance(ctx context.Context, input MarkAttendanceInput, deps SessionDeps) (int, error) {
	s, err := deps.TrainingStore.GetByID(ctx, input.SessionID)
	if err != nil {
		return 0, notFound(err)
	}
	now := deps.Now()
	var errs validation.Errors
	rows := make([]training.Attendance, 0, len(input.Marks))
	for _, m := range input.Marks {
		a, err := deps.TrainingStore.GetAttendance(ctx, s.ID, m.UserID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			a = training.Attendance{
				ID:               deps.GenerateID(),
				SessionID:        s.ID,
				UserID:           m.UserID,
				RegistrationDate: now,
			}
		case err != nil:
			return 0, err
		}
		if err := a.Mark(m.Status, m.Notes, now); err != nil {
			errs.Addf("Invalid attendance status %q", m.Status)
			continue
		}
		rows = append(rows, a)
	}
	if err := errs.Err(); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	if err := deps.TrainingStore.SaveAttendance(ctx, rows); err != nil {
		return 0, err
	}
	deps.Activity.LogActivity(ctx, fmt.Sprintf("Marked attendance for %d participants: %s", len(rows), s.Title), input.ActorID)
	slog.Info("session_event", "event", "attendance_marked", "session_id", s.ID, "count", len(rows), "actor_id", input.ActorID)
	return len(rows), nil
}

// BulkRegisterInput carries the posted user_ids[].
type BulkRegisterInput struct {
	SessionID string
	UserIDs   []string
	ActorID   string
}

// ExecuteBulkRegister registers users for a session, skipping existing registrations.
// PRE: caller holds training_management
// POST: Returns the number of rows inserted; repeating the call inserts nothing
func ExecuteBulkRegister(ctx context.Context, input BulkRegisterInput, deps SessionDeps) (int, error) {
	s, err := deps.TrainingStore.GetByID(ctx, input.SessionID)
	if err != nil {
		return 0, notFound(err)
	}
	now := deps.Now()
	seen := make(map[string]bool, len(input.UserIDs))
	var rows []training.Attendance
	for _, id := range input.UserIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		if _, err := deps.UserStore.GetByID(ctx, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				slog.Warn("bulk_register_unknown_user", "session_id", s.ID, "user_id", id)
				continue
			}
			return 0, err
		}
		rows = append(rows, training.Attendance{
			ID:               deps.GenerateID(),
			SessionID:        s.ID,
			UserID:           id,
			Status:           training.AttendanceRegistered,
			RegistrationDate: now,
		})
	}
	if len(rows) == 0 {
		return 0, nil
	}
	n, err := deps.TrainingStore.RegisterMany(ctx, rows)
	if err != nil {
		return 0, err
	}
	deps.Activity.LogActivity(ctx, fmt.Sprintf("Registered %d participants for session: %s", n, s.Title), input.ActorID)
	slog.Info("session_event", "event", "bulk_registered", "session_id", s.ID, "inserted", n, "actor_id", input.ActorID)
	return n, nil
}

// SelfRegistrationInput carries input for registering or cancelling oneself.
type SelfRegistrationInput struct {
	SessionID string
	UserID    string
}

// ExecuteRegisterSelf registers the current user for a scheduled session.
// PRE: caller holds view_training
// POST: Attendance row is registered
// INVARIANT: registered plus attended rows never exceed max_participants
func ExecuteRegisterSelf(ctx context.Context, input SelfRegistrationInput, deps SessionDeps) (training.Session, error) {
	s, err := deps.TrainingStore.GetByID(ctx, input.SessionID)
	if err != nil {
		return training.Session{}, notFound(err)
	}
	if s.Status != training.StatusScheduled {
		return training.Session{}, training.ErrNotOpenForSignup
	}
	now := deps.Now()
	a, err := deps.TrainingStore.GetAttendance(ctx, s.ID, input.UserID)
	switch {
	case err == nil && a.CountsTowardCapacity():
		return training.Session{}, training.ErrAlreadyRegistered
	case errors.Is(err, sql.ErrNoRows):
		a = training.Attendance{
			ID:        deps.GenerateID(),
			SessionID: s.ID,
			UserID:    input.UserID,
		}
	case err != nil:
		return training.Session{}, err
	}

	taken, err := deps.TrainingStore.CountTaken(ctx, s.ID)
	if err != nil {
		return training.Session{}, err
	}
	if !s.HasCapacity(taken) {
		return training.Session{}, training.ErrSessionFull
	}

	a.Status = training.AttendanceRegistered
	a.RegistrationDate = now
	if err := deps.TrainingStore.SaveAttendance(ctx, []training.Attendance{a}); err != nil {
		return training.Session{}, err
	}
	deps.Activity.LogActivity(ctx, "Registered for session: "+s.Title, input.UserID)
	slog.Info("session_event", "event", "self_registered", "session_id", s.ID, "user_id", input.UserID)
	return s, nil
}

// ExecuteCancelRegistration cancels the current user's registration.
// PRE: caller holds view_training
// POST: Attendance row status is cancelled
func ExecuteCancelRegistration(ctx context.Context, input SelfRegistrationInput, deps SessionDeps) (training.Session, error) {
	s, err := deps.TrainingStore.GetByID(ctx, input.SessionID)
	if err != nil {
		return training.Session{}, notFound(err)
	}
	if s.Status != training.StatusScheduled {
		return training.Session{}, training.ErrNotOpenForSignup
	}
	a, err := deps.TrainingStore.GetAttendance(ctx, s.ID, input.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return training.Session{}, training.ErrNotRegistered
	}
	if err != nil {
		return training.Session{}, err
	}
	if a.Status != training.AttendanceRegistered {
		return training.Session{}, training.ErrNotRegistered
	}
	a.Status = training.AttendanceCancelled
	if err := deps.TrainingStore.SaveAttendance(ctx, []training.Attendance{a}); err != nil {
		return training.Session{}, err
	}
	deps.Activity.LogActivity(ctx, "Cancelled registration for session: "+s.Title, input.UserID)
	slog.Info("session_event", "event", "registration_cancelled", "session_id", s.ID, "user_id", input.UserID)
	return s, nil
}
