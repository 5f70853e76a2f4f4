package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"glp/internal/domain/assignment"
	"glp/internal/domain/project"
	"glp/internal/domain/survey"
	"glp/internal/domain/training"
	"glp/internal/domain/user"
)

// --- Seed Admin ---

type seedAdminUserStore interface {
	CountAll(ctx context.Context) (int, error)
	Save(ctx context.Context, u user.User) error
}

// SeedAdminInput carries the initial administrator's credentials.
type SeedAdminInput struct {
	Username string
	Email    string
	Password string
}

// SeedAdminDeps holds dependencies for SeedAdmin.
type SeedAdminDeps struct {
	UserStore seedAdminUserStore
	Now       func() time.Time
}

// ExecuteSeedAdmin creates the first administrator when the users table is empty.
// PRE: Database is migrated
// POST: Returns true when an admin was created; an existing user base is left untouched
func ExecuteSeedAdmin(ctx context.Context, input SeedAdminInput, deps SeedAdminDeps) (bool, error) {
	n, err := deps.UserStore.CountAll(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if input.Username == "" || input.Email == "" || input.Password == "" {
		return false, errors.New("admin seed requires username, email and password")
	}
	u := user.User{
		ID:        uuid.New().String(),
		Username:  input.Username,
		Email:     input.Email,
		FirstName: "Program",
		LastName:  "Administrator",
		Role:      user.RoleAdmin,
		IsActive:  true,
		CreatedAt: deps.Now(),
	}
	if err := u.Validate(); err != nil {
		return false, fmt.Errorf("admin seed: %w", err)
	}
	if err := u.SetPassword(input.Password); err != nil {
		return false, fmt.Errorf("admin seed: %w", err)
	}
	if err := deps.UserStore.Save(ctx, u); err != nil {
		return false, err
	}
	slog.Info("seed_event", "event", "admin_seeded", "username", u.Username)
	return true, nil
}

// --- Seed Demo ---

type seedDemoUserStore interface {
	GetByLogin(ctx context.Context, login string) (user.User, error)
	Save(ctx context.Context, u user.User) error
}

type seedDemoProjectStore interface {
	Create(ctx context.Context, p project.Project, leader project.Participant) error
	AddParticipant(ctx context.Context, p project.Participant) error
}

type seedDemoSurveyStore interface {
	Save(ctx context.Context, s survey.Survey) error
}

type seedDemoTrainingStore interface {
	Save(ctx context.Context, s training.Session) error
	RegisterMany(ctx context.Context, rows []training.Attendance) (int, error)
}

type seedDemoAssignmentStore interface {
	Save(ctx context.Context, a assignment.Assignment) error
}

// SeedDemoDeps holds dependencies for SeedDemo.
type SeedDemoDeps struct {
	UserStore       seedDemoUserStore
	ProjectStore    seedDemoProjectStore
	SurveyStore     seedDemoSurveyStore
	TrainingStore   seedDemoTrainingStore
	AssignmentStore seedDemoAssignmentStore
	Now             func() time.Time
}

// demoPassword is shared by every demo account.
const demoPassword = "leadership2026"

type demoUserDef struct {
	Username, First, Last, Role string
}

func demoUsers() []demoUserDef {
	return []demoUserDef{
		{"grace_mentor", "Grace", "Mwangi", user.RoleMentor},
		{"hana_volunteer", "Hana", "Okafor", user.RoleVolunteer},
		{"amara_k", "Amara", "Kone", user.RoleParticipant},
		{"zainab_a", "Zainab", "Ali", user.RoleParticipant},
		{"lina_p", "Lina", "Park", user.RoleParticipant},
	}
}

// ExecuteSeedDemo populates a development database with a small program.
// It is idempotent: nothing is written when the demo mentor already exists.
// PRE: Database is migrated
// POST: Demo users, a project with participants and assignments, an open survey and an upcoming session exist
func ExecuteSeedDemo(ctx context.Context, deps SeedDemoDeps) error {
	if _, err := deps.UserStore.GetByLogin(ctx, demoUsers()[0].Username); err == nil {
		return nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	now := deps.Now()
	ids := map[string]string{}
	for _, def := range demoUsers() {
		u := user.User{
			ID:        uuid.New().String(),
			Username:  def.Username,
			Email:     def.Username + "@example.org",
			FirstName: def.First,
			LastName:  def.Last,
			Role:      def.Role,
			IsActive:  true,
			CreatedAt: now,
		}
		if err := u.SetPassword(demoPassword); err != nil {
			return err
		}
		if err := deps.UserStore.Save(ctx, u); err != nil {
			return fmt.Errorf("seed user %s: %w", def.Username, err)
		}
		ids[def.Username] = u.ID
	}
	mentor := ids["grace_mentor"]

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	p := project.Project{
		ID:          uuid.New().String(),
		Title:       "Community Garden",
		Description: "Plan, build and run a vegetable garden at the community centre.",
		Status:      project.StatusActive,
		Priority:    project.PriorityHigh,
		StartDate:   today.AddDate(0, 0, -14),
		EndDate:     today.AddDate(0, 2, 0),
		CreatedBy:   mentor,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := deps.ProjectStore.Create(ctx, p, project.Participant{
		ProjectID: p.ID, UserID: mentor, RoleInProject: project.RoleLeader, JoinedDate: now,
	}); err != nil {
		return fmt.Errorf("seed project: %w", err)
	}
	for _, name := range []string{"amara_k", "zainab_a"} {
		if err := deps.ProjectStore.AddParticipant(ctx, project.Participant{
			ProjectID: p.ID, UserID: ids[name], RoleInProject: project.RoleMember, JoinedDate: now,
		}); err != nil {
			return fmt.Errorf("seed participant %s: %w", name, err)
		}
	}

	tasks := []assignment.Assignment{
		{Title: "Draw the garden layout", AssignedTo: ids["amara_k"], Status: assignment.StatusInProgress, DueDate: today.AddDate(0, 0, 7)},
		{Title: "Price seeds and tools", AssignedTo: ids["zainab_a"], Status: assignment.StatusPending, DueDate: today.AddDate(0, 0, 10)},
	}
	for _, a := range tasks {
		a.ID = uuid.New().String()
		a.ProjectID = p.ID
		a.AssignedBy = mentor
		a.CreatedAt = now
		if err := deps.AssignmentStore.Save(ctx, a); err != nil {
			return fmt.Errorf("seed assignment: %w", err)
		}
	}

	sv := survey.Survey{
		ID:          uuid.New().String(),
		Title:       "Program check-in",
		Description: "Tell us how the program is going for you.",
		IsActive:    true,
		CreatedBy:   mentor,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	sv.Questions = []survey.Question{
		{Text: "How confident do you feel leading a group?", Type: survey.TypeRating, IsRequired: true},
		{Text: "Which workshop did you enjoy most?", Type: survey.TypeRadio, Options: []string{"Public speaking", "Budgeting", "Team building"}},
		{Text: "What should we do differently?", Type: survey.TypeTextarea},
	}
	for i := range sv.Questions {
		sv.Questions[i].ID = uuid.New().String()
		sv.Questions[i].SurveyID = sv.ID
		sv.Questions[i].OrderIndex = i
	}
	if err := deps.SurveyStore.Save(ctx, sv); err != nil {
		return fmt.Errorf("seed survey: %w", err)
	}

	sess := training.Session{
		ID:              uuid.New().String(),
		Title:           "Public speaking basics",
		Description:     "Short talks, feedback and breathing exercises.",
		SessionDate:     today.AddDate(0, 0, 3).Add(16 * time.Hour),
		DurationMinutes: 90,
		Location:        "Community centre, room 2",
		InstructorID:    mentor,
		MaxParticipants: 12,
		Status:          training.StatusScheduled,
		CreatedBy:       mentor,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := deps.TrainingStore.Save(ctx, sess); err != nil {
		return fmt.Errorf("seed session: %w", err)
	}
	var regs []training.Attendance
	for _, name := range []string{"amara_k", "lina_p"} {
		regs = append(regs, training.Attendance{
			ID: uuid.New().String(), SessionID: sess.ID, UserID: ids[name],
			Status: training.AttendanceRegistered, RegistrationDate: now,
		})
	}
	if _, err := deps.TrainingStore.RegisterMany(ctx, regs); err != nil {
		return fmt.Errorf("seed registrations: %w", err)
	}

	slog.Info("seed_event", "event", "demo_seeded", "users", len(ids))
	return nil
}
