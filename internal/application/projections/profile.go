package projections

import (
	"context"
	"time"

	assignmentStore "glp/internal/adapters/storage/assignment"
	projectStore "glp/internal/adapters/storage/project"
	trainingStore "glp/internal/adapters/storage/training"
	"glp/internal/domain/user"
)

// ProfileQuery carries input for the profile page.
type ProfileQuery struct {
	UserID string
	Now    time.Time
}

// ProfileResult carries the profile page model.
type ProfileResult struct {
	User        user.User
	Projects    []projectStore.Summary
	Assignments []assignmentStore.Row
	Sessions    []trainingStore.Summary // upcoming sessions the user is registered for
}

// ProfileDeps holds dependencies for Profile.
type ProfileDeps struct {
	UserStore       UserStore
	ProjectStore    ProjectStore
	AssignmentStore AssignmentStore
	TrainingStore   TrainingStore
}

// QueryProfile loads the user's own profile with their projects and assignments.
// PRE: UserID is the logged-in user
// POST: Returns sql.ErrNoRows (wrapped) when the user does not exist
func QueryProfile(ctx context.Context, q ProfileQuery, deps ProfileDeps) (ProfileResult, error) {
	u, err := deps.UserStore.GetByID(ctx, q.UserID)
	if err != nil {
		return ProfileResult{}, err
	}
	projects, err := deps.ProjectStore.List(ctx, projectStore.ListFilter{MemberID: u.ID})
	if err != nil {
		return ProfileResult{}, err
	}
	tasks, err := deps.AssignmentStore.List(ctx, assignmentStore.ListFilter{AssignedTo: u.ID})
	if err != nil {
		return ProfileResult{}, err
	}
	sessions, err := deps.TrainingStore.List(ctx, trainingStore.ListFilter{AttendeeID: u.ID, From: q.Now})
	if err != nil {
		return ProfileResult{}, err
	}
	return ProfileResult{User: u, Projects: projects, Assignments: tasks, Sessions: sessions}, nil
}
