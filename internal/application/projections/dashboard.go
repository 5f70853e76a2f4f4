package projections

import (
	"context"
	"time"

	activityStore "glp/internal/adapters/storage/activity"
	assignmentStore "glp/internal/adapters/storage/assignment"
	notificationStore "glp/internal/adapters/storage/notification"
	projectStore "glp/internal/adapters/storage/project"
	surveyStore "glp/internal/adapters/storage/survey"
	trainingStore "glp/internal/adapters/storage/training"
	"glp/internal/domain/project"
	"glp/internal/domain/training"
)

// Dashboard list sizes.
const (
	DashboardUpcoming = 5
	DashboardProjects = 5
	DashboardActivity = 10
)

// DashboardQuery carries input for the dashboard projection.
type DashboardQuery struct {
	ViewerID       string
	CanViewReports bool
	Now            time.Time
}

// DashboardResult carries the dashboard page model.
type DashboardResult struct {
	ActiveProjects   int
	UpcomingCount    int
	ActiveSurveys    int
	PendingSurveys   int // active surveys the viewer has not answered
	Unread           int
	UpcomingSessions []trainingStore.Summary
	MyProjects       []projectStore.Summary
	MyAssignments    []assignmentStore.Row
	RecentActivity   []activityStore.Row // only with view_reports
}

// DashboardDeps holds dependencies for the dashboard projection.
type DashboardDeps struct {
	ProjectStore      ProjectStore
	TrainingStore     TrainingStore
	SurveyStore       SurveyStore
	NotificationStore NotificationStore
	AssignmentStore   AssignmentStore
	ActivityStore     ActivityStore
}

// QueryDashboard builds the landing page for the viewer.
// PRE: ViewerID is the logged-in user
// POST: Recent activity is only loaded when CanViewReports
func QueryDashboard(ctx context.Context, q DashboardQuery, deps DashboardDeps) (DashboardResult, error) {
	var res DashboardResult
	var err error

	res.ActiveProjects, err = deps.ProjectStore.Count(ctx, projectStore.ListFilter{Status: project.StatusActive})
	if err != nil {
		return DashboardResult{}, err
	}

	upcoming := trainingStore.ListFilter{Status: training.StatusScheduled, From: q.Now}
	res.UpcomingCount, err = deps.TrainingStore.Count(ctx, upcoming)
	if err != nil {
		return DashboardResult{}, err
	}
	upcoming.Limit = DashboardUpcoming
	res.UpcomingSessions, err = deps.TrainingStore.List(ctx, upcoming)
	if err != nil {
		return DashboardResult{}, err
	}

	active := true
	surveys, err := deps.SurveyStore.List(ctx, surveyStore.ListFilter{Active: &active})
	if err != nil {
		return DashboardResult{}, err
	}
	done, err := deps.SurveyStore.RespondedSurveyIDs(ctx, q.ViewerID)
	if err != nil {
		return DashboardResult{}, err
	}
	for _, s := range surveys {
		if !s.IsOpen(q.Now) {
			continue
		}
		res.ActiveSurveys++
		if s.IsAnonymous || !done[s.ID] {
			res.PendingSurveys++
		}
	}

	res.Unread, err = deps.NotificationStore.Count(ctx, notificationStore.ListFilter{UserID: q.ViewerID, UnreadOnly: true})
	if err != nil {
		return DashboardResult{}, err
	}
	res.MyProjects, err = deps.ProjectStore.List(ctx, projectStore.ListFilter{MemberID: q.ViewerID, Limit: DashboardProjects})
	if err != nil {
		return DashboardResult{}, err
	}
	res.MyAssignments, err = deps.AssignmentStore.List(ctx, assignmentStore.ListFilter{AssignedTo: q.ViewerID, Limit: DashboardProjects})
	if err != nil {
		return DashboardResult{}, err
	}
	if q.CanViewReports {
		res.RecentActivity, err = deps.ActivityStore.ListRecent(ctx, DashboardActivity)
		if err != nil {
			return DashboardResult{}, err
		}
	}
	return res, nil
}
