package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	projectStore "glp/internal/adapters/storage/project"
	"glp/internal/domain/project"
)

// ProjectStoreForOrchestrator defines the store interface needed by project orchestrators.
type ProjectStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (project.Project, error)
	Create(ctx context.Context, p project.Project, leader project.Participant) error
	Save(ctx context.Context, p project.Project) error
	GetParticipant(ctx context.Context, projectID, userID string) (project.Participant, error)
	AddParticipant(ctx context.Context, p project.Participant) error
	RemoveParticipant(ctx context.Context, projectID, userID string) error
	ListParticipants(ctx context.Context, projectID string) ([]projectStore.Member, error)
}

// ProjectInput carries the editable project fields.
type ProjectInput struct {
	Title       string
	Description string
	Status      string
	Priority    string
	StartDate   time.Time
	EndDate     time.Time
}

// --- Create Project ---

// CreateProjectInput carries input for the create project orchestrator.
type CreateProjectInput struct {
	ProjectInput
	ActorID string
}

// ProjectDeps holds dependencies shared by project orchestrators.
type ProjectDeps struct {
	ProjectStore ProjectStoreForOrchestrator
	Activity     *ActivityLogger
	Notifier     *Notifier
	GenerateID   func() string
	Now          func() time.Time
}

// ExecuteCreateProject creates a project and makes its creator the leader.
// PRE: caller holds project_management
// POST: Project and leader participant row persisted together, or validation.Errors and nothing persisted
func ExecuteCreateProject(ctx context.Context, input CreateProjectInput, deps ProjectDeps) (project.Project, error) {
	now := deps.Now()
	p := project.Project{
		ID:        deps.GenerateID(),
		CreatedBy: input.ActorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyProjectInput(&p, input.ProjectInput)
	if p.Status == "" {
		p.Status = project.StatusPlanning
	}
	if p.Priority == "" {
		p.Priority = project.PriorityMedium
	}
	if err := p.Validate(); err != nil {
		return project.Project{}, err
	}

	leader := project.Participant{
		ProjectID:     p.ID,
		UserID:        input.ActorID,
		RoleInProject: project.RoleLeader,
		JoinedDate:    now,
	}
	if err := deps.ProjectStore.Create(ctx, p, leader); err != nil {
		return project.Project{}, err
	}

	deps.Activity.LogActivity(ctx, "Created project: "+p.Title, input.ActorID)
	slog.Info("project_event", "event", "project_created", "project_id", p.ID, "created_by", input.ActorID)
	return p, nil
}

// --- Update Project ---

// UpdateProjectInput carries input for the update project orchestrator.
// CanManage is true when the actor holds project_management.
type UpdateProjectInput struct {
	ProjectID string
	ProjectInput
	ActorID   string
	CanManage bool
}

// ExecuteUpdateProject edits a project's fields.
// PRE: project exists
// POST: Project updated with UpdatedAt, or ErrForbidden / validation.Errors with nothing changed
// INVARIANT: only the creator or a project manager may edit
func ExecuteUpdateProject(ctx context.Context, input UpdateProjectInput, deps ProjectDeps) (project.Project, error) {
	p, err := deps.ProjectStore.GetByID(ctx, input.ProjectID)
	if err != nil {
		return project.Project{}, notFound(err)
	}
	if p.CreatedBy != input.ActorID && !input.CanManage {
		return project.Project{}, ErrForbidden
	}
	oldStatus := p.Status
	applyProjectInput(&p, input.ProjectInput)
	p.UpdatedAt = deps.Now()
	if err := p.Validate(); err != nil {
		return project.Project{}, err
	}
	if err := deps.ProjectStore.Save(ctx, p); err != nil {
		return project.Project{}, err
	}

	deps.Activity.LogActivity(ctx, "Updated project: "+p.Title, input.ActorID)
	slog.Info("project_event", "event", "project_updated", "project_id", p.ID, "actor_id", input.ActorID)
	if p.Status != oldStatus {
		notifyStatusChange(ctx, p, input.ActorID, deps)
	}
	return p, nil
}

func applyProjectInput(p *project.Project, in ProjectInput) {
	p.Title = in.Title
	p.Description = in.Description
	p.Status = in.Status
	p.Priority = in.Priority
	p.StartDate = in.StartDate
	p.EndDate = in.EndDate
}

// --- Status Actions ---

// ProjectActionInput carries input for a project status action.
type ProjectActionInput struct {
	ProjectID string
	Action    string
	ActorID   string
	CanManage bool
}

// ExecuteProjectAction applies activate, complete, pause or cancel.
// PRE: project exists
// POST: Status changed and participants except the actor notified, or an error with nothing changed
func ExecuteProjectAction(ctx context.Context, input ProjectActionInput, deps ProjectDeps) (project.Project, error) {
	p, err := deps.ProjectStore.GetByID(ctx, input.ProjectID)
	if err != nil {
		return project.Project{}, notFound(err)
	}
	if p.CreatedBy != input.ActorID && !input.CanManage {
		return project.Project{}, ErrForbidden
	}
	from := p.Status
	if err := p.ApplyAction(input.Action, deps.Now()); err != nil {
		return project.Project{}, err
	}
	if err := deps.ProjectStore.Save(ctx, p); err != nil {
		return project.Project{}, err
	}

	deps.Activity.LogActivity(ctx, fmt.Sprintf("Changed project status: %s (%s → %s)", p.Title, from, p.Status), input.ActorID)
	slog.Info("project_event", "event", "project_status_changed", "project_id", p.ID, "from", from, "to", p.Status, "actor_id", input.ActorID)
	notifyStatusChange(ctx, p, input.ActorID, deps)
	return p, nil
}

func notifyStatusChange(ctx context.Context, p project.Project, actorID string, deps ProjectDeps) {
	members, err := deps.ProjectStore.ListParticipants(ctx, p.ID)
	if err != nil {
		slog.Error("project_participants_lookup_failed", "project_id", p.ID, "error", err)
		return
	}
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	deps.Notifier.NotifyProjectStatusChanged(ctx, p, ids, actorID)
}

// --- Join / Leave ---

// MembershipInput carries input for joining or leaving a project.
type MembershipInput struct {
	ProjectID string
	UserID    string
	UserName  string // display name used in notifications
}

// ExecuteJoinProject adds the user as a member.
// PRE: project exists
// POST: Participant row added and leaders notified
// INVARIANT: only planning or active projects can be joined
func ExecuteJoinProject(ctx context.Context, input MembershipInput, deps ProjectDeps) (project.Project, error) {
	p, err := deps.ProjectStore.GetByID(ctx, input.ProjectID)
	if err != nil {
		return project.Project{}, notFound(err)
	}
	if !p.IsJoinable() {
		return project.Project{}, project.ErrNotJoinable
	}
	_, err = deps.ProjectStore.GetParticipant(ctx, p.ID, input.UserID)
	if err == nil {
		return project.Project{}, project.ErrAlreadyMember
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return project.Project{}, err
	}

	err = deps.ProjectStore.AddParticipant(ctx, project.Participant{
		ProjectID:     p.ID,
		UserID:        input.UserID,
		RoleInProject: project.RoleMember,
		JoinedDate:    deps.Now(),
	})
	if err != nil {
		return project.Project{}, err
	}

	deps.Activity.LogActivity(ctx, "Joined project: "+p.Title, input.UserID)
	slog.Info("project_event", "event", "project_joined", "project_id", p.ID, "user_id", input.UserID)
	if leaders, err := leaderIDs(ctx, p, deps); err == nil {
		deps.Notifier.NotifyProjectJoined(ctx, p, leaders, input.UserID, input.UserName)
	}
	return p, nil
}

// ExecuteLeaveProject removes the user from the project.
// PRE: project exists
// POST: Participant row removed and leaders notified
// INVARIANT: the creator cannot leave their own project
func ExecuteLeaveProject(ctx context.Context, input MembershipInput, deps ProjectDeps) (project.Project, error) {
	p, err := deps.ProjectStore.GetByID(ctx, input.ProjectID)
	if err != nil {
		return project.Project{}, notFound(err)
	}
	part, err := deps.ProjectStore.GetParticipant(ctx, p.ID, input.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return project.Project{}, project.ErrNotMember
	}
	if err != nil {
		return project.Project{}, err
	}
	if part.RoleInProject == project.RoleLeader && p.CreatedBy == input.UserID {
		return project.Project{}, project.ErrCreatorCannotLeave
	}
	if err := deps.ProjectStore.RemoveParticipant(ctx, p.ID, input.UserID); err != nil {
		return project.Project{}, err
	}

	deps.Activity.LogActivity(ctx, "Left project: "+p.Title, input.UserID)
	slog.Info("project_event", "event", "project_left", "project_id", p.ID, "user_id", input.UserID)
	if leaders, err := leaderIDs(ctx, p, deps); err == nil {
		deps.Notifier.NotifyProjectLeft(ctx, p, leaders, input.UserID, input.UserName)
	}
	return p, nil
}

// leaderIDs returns the project's leaders, always including its creator.
func leaderIDs(ctx context.Context, p project.Project, deps ProjectDeps) ([]string, error) {
	members, err := deps.ProjectStore.ListParticipants(ctx, p.ID)
	if err != nil {
		slog.Error("project_participants_lookup_failed", "project_id", p.ID, "error", err)
		return nil, err
	}
	ids := []string{p.CreatedBy}
	for _, m := range members {
		if m.RoleInProject == project.RoleLeader && m.UserID != p.CreatedBy {
			ids = append(ids, m.UserID)
		}
	}
	return ids, nil
}
