package orchestrators

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"glp/internal/domain/training"
	"glp/internal/domain/user"
	"glp/internal/domain/validation"
)

func scheduledSession(capacity int) training.Session {
	return training.Session{
		ID:              "sess-1",
		Title:           "Public speaking basics",
		SessionDate:     fixedTime.Add(72 * time.Hour),
		DurationMinutes: 90,
		InstructorID:    "mentor-1",
		MaxParticipants: capacity,
		Status:          training.StatusScheduled,
	}
}

type sessionFixture struct {
	store *mockTrainingStore
	users *mockUserStore
	notes *mockNotificationStore
	deps  SessionDeps
}

func newSessionFixture(sessions ...training.Session) *sessionFixture {
	inactive := testUser("gone", user.RoleMentor)
	inactive.IsActive = false
	f := &sessionFixture{
		store: newMockTrainingStore(sessions...),
		users: newMockUserStore(
			testUser("mentor-1", user.RoleMentor),
			testUser("vol-1", user.RoleVolunteer),
			testUser("p-1", user.RoleParticipant),
			testUser("p-2", user.RoleParticipant),
			inactive,
		),
		notes: &mockNotificationStore{},
	}
	f.deps = SessionDeps{
		TrainingStore: f.store,
		UserStore:     f.users,
		Notifier:      newNotifier(f.notes),
		GenerateID:    sequentialIDs(),
		Now:           fixedNow,
	}
	return f
}

func sessionInput() SaveSessionInput {
	return SaveSessionInput{
		Title:           "Budgeting for beginners",
		SessionDate:     fixedTime.Add(48 * time.Hour),
		DurationMinutes: 60,
		Location:        "Library",
		InstructorID:    "mentor-1",
		ActorID:         "mentor-1",
	}
}

// TestExecuteSaveSession_CreateNotifiesCohort verifies participants and volunteers are told about new sessions.
func TestExecuteSaveSession_CreateNotifiesCohort(t *testing.T) {
	f := newSessionFixture()
	s, err := ExecuteSaveSession(context.Background(), sessionInput(), f.deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Status != training.StatusScheduled || s.MaxParticipants != 0 {
		t.Errorf("session = %+v", s)
	}
	recips := f.notes.recipients()
	if len(recips) != 3 || containsString(recips, "mentor-1") || containsString(recips, "gone") {
		t.Errorf("recipients = %v, want vol-1, p-1, p-2", recips)
	}
}

// TestExecuteSaveSession_Validation verifies instructor and capacity rules.
func TestExecuteSaveSession_Validation(t *testing.T) {
	zero := 0
	tests := []struct {
		name   string
		mutate func(in *SaveSessionInput)
		want   string
	}{
		{"inactive instructor", func(in *SaveSessionInput) { in.InstructorID = "gone" }, "Instructor must be an active user"},
		{"unknown instructor", func(in *SaveSessionInput) { in.InstructorID = "nobody" }, "Instructor must be an active user"},
		{"zero capacity", func(in *SaveSessionInput) { in.MaxParticipants = &zero }, "Maximum participants must be at least 1"},
		{"short duration", func(in *SaveSessionInput) { in.DurationMinutes = 5 }, "Duration must be at least 15"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSessionFixture()
			in := sessionInput()
			tt.mutate(&in)
			_, err := ExecuteSaveSession(context.Background(), in, f.deps)
			if !strings.Contains(strings.Join(validation.Messages(err), "|"), tt.want) {
				t.Fatalf("got %v, want %q", err, tt.want)
			}
			if len(f.store.sessions) != 0 {
				t.Error("nothing may be stored")
			}
		})
	}
}

// TestExecuteSessionAction verifies the session workflow through the orchestrator.
func TestExecuteSessionAction(t *testing.T) {
	f := newSessionFixture(scheduledSession(0))
	s, err := ExecuteSessionAction(context.Background(), SessionActionInput{SessionID: "sess-1", Action: training.ActionStart}, f.deps)
	if err != nil || s.Status != training.StatusOngoing {
		t.Fatalf("start: %v %s", err, s.Status)
	}
	if _, err := ExecuteSessionAction(context.Background(), SessionActionInput{SessionID: "sess-1", Action: training.ActionStart}, f.deps); err != training.ErrInvalidTransition {
		t.Errorf("got %v, want ErrInvalidTransition", err)
	}
	if f.store.sessions["sess-1"].Status != training.StatusOngoing {
		t.Error("status must be unchanged after a rejected action")
	}
}

// TestExecuteMarkAttendance_StampsDate verifies attended stamps attendance_date once and never clears it.
func TestExecuteMarkAttendance_StampsDate(t *testing.T) {
	f := newSessionFixture(scheduledSession(0))
	ctx := context.Background()

	n, err := ExecuteMarkAttendance(ctx, MarkAttendanceInput{SessionID: "sess-1", Marks: []AttendanceMark{
		{UserID: "p-1", Status: training.AttendanceAttended, Notes: "early"},
		{UserID: "p-2", Status: training.AttendanceMissed},
	}}, f.deps)
	if err != nil || n != 2 {
		t.Fatalf("mark: %d %v", n, err)
	}
	a := f.store.attendance["sess-1|p-1"]
	if !a.AttendanceDate.Equal(fixedTime) || a.Notes != "early" {
		t.Errorf("p-1 = %+v", a)
	}
	if !f.store.attendance["sess-1|p-2"].AttendanceDate.IsZero() {
		t.Error("missed must not stamp a date")
	}

	f.deps.Now = func() time.Time { return fixedTime.Add(time.Hour) }
	if _, err := ExecuteMarkAttendance(ctx, MarkAttendanceInput{SessionID: "sess-1", Marks: []AttendanceMark{
		{UserID: "p-1", Status: training.AttendanceMissed},
	}}, f.deps); err != nil {
		t.Fatal(err)
	}
	a = f.store.attendance["sess-1|p-1"]
	if a.Status != training.AttendanceMissed || !a.AttendanceDate.Equal(fixedTime) {
		t.Errorf("after re-mark: %+v", a)
	}
}

// TestExecuteMarkAttendance_InvalidStatus verifies one bad status saves nothing.
func TestExecuteMarkAttendance_InvalidStatus(t *testing.T) {
	f := newSessionFixture(scheduledSession(0))
	_, err := ExecuteMarkAttendance(context.Background(), MarkAttendanceInput{SessionID: "sess-1", Marks: []AttendanceMark{
		{UserID: "p-1", Status: training.AttendanceAttended},
		{UserID: "p-2", Status: "late"},
	}}, f.deps)
	if !validation.IsValidation(err) {
		t.Fatalf("got %v, want validation error", err)
	}
	if len(f.store.attendance) != 0 {
		t.Error("nothing may be saved")
	}
}

// TestExecuteBulkRegister_Idempotent verifies repeated registration inserts nothing new.
func TestExecuteBulkRegister_Idempotent(t *testing.T) {
	f := newSessionFixture(scheduledSession(0))
	in := BulkRegisterInput{SessionID: "sess-1", UserIDs: []string{"p-1", "p-2", "p-1", "nobody"}}

	n, err := ExecuteBulkRegister(context.Background(), in, f.deps)
	if err != nil || n != 2 {
		t.Fatalf("first: %d %v", n, err)
	}
	n, err = ExecuteBulkRegister(context.Background(), in, f.deps)
	if err != nil || n != 0 {
		t.Fatalf("second: %d %v", n, err)
	}
	if len(f.store.attendance) != 2 {
		t.Errorf("rows = %d", len(f.store.attendance))
	}
}

// TestExecuteRegisterSelf_Capacity verifies full sessions reject registrations.
func TestExecuteRegisterSelf_Capacity(t *testing.T) {
	f := newSessionFixture(scheduledSession(1))
	ctx := context.Background()
	if _, err := ExecuteRegisterSelf(ctx, SelfRegistrationInput{SessionID: "sess-1", UserID: "p-1"}, f.deps); err != nil {
		t.Fatal(err)
	}
	if _, err := ExecuteRegisterSelf(ctx, SelfRegistrationInput{SessionID: "sess-1", UserID: "p-1"}, f.deps); err != training.ErrAlreadyRegistered {
		t.Errorf("got %v, want ErrAlreadyRegistered", err)
	}
	if _, err := ExecuteRegisterSelf(ctx, SelfRegistrationInput{SessionID: "sess-1", UserID: "p-2"}, f.deps); err != training.ErrSessionFull {
		t.Errorf("got %v, want ErrSessionFull", err)
	}

	if _, err := ExecuteCancelRegistration(ctx, SelfRegistrationInput{SessionID: "sess-1", UserID: "p-1"}, f.deps); err != nil {
		t.Fatal(err)
	}
	if f.store.attendance["sess-1|p-1"].Status != training.AttendanceCancelled {
		t.Error("registration not cancelled")
	}
	if _, err := ExecuteRegisterSelf(ctx, SelfRegistrationInput{SessionID: "sess-1", UserID: "p-2"}, f.deps); err != nil {
		t.Errorf("seat should be free after cancellation: %v", err)
	}
}

// TestExecuteRegisterSelf_OnlyScheduled verifies ongoing sessions are closed for signup.
func TestExecuteRegisterSelf_OnlyScheduled(t *testing.T) {
	s := scheduledSession(0)
	s.Status = training.StatusOngoing
	f := newSessionFixture(s)
	if _, err := ExecuteRegisterSelf(context.Background(), SelfRegistrationInput{SessionID: "sess-1", UserID: "p-1"}, f.deps); err != training.ErrNotOpenForSignup {
		t.Errorf("got %v, want ErrNotOpenForSignup", err)
	}
	if _, err := ExecuteCancelRegistration(context.Background(), SelfRegistrationInput{SessionID: "missing", UserID: "p-1"}, f.deps); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}
