package projections

import (
	"context"

	activityStore "glp/internal/adapters/storage/activity"
	assignmentStore "glp/internal/adapters/storage/assignment"
	notificationStore "glp/internal/adapters/storage/notification"
	projectStore "glp/internal/adapters/storage/project"
	surveyStore "glp/internal/adapters/storage/survey"
	trainingStore "glp/internal/adapters/storage/training"
	userStore "glp/internal/adapters/storage/user"
	"glp/internal/domain/notification"
	"glp/internal/domain/project"
	"glp/internal/domain/survey"
	"glp/internal/domain/training"
	"glp/internal/domain/user"
)

// UserStore interface for user queries.
type UserStore interface {
	GetByID(ctx context.Context, id string) (user.User, error)
	List(ctx context.Context, filter userStore.ListFilter) ([]user.User, error)
	Count(ctx context.Context, filter userStore.ListFilter) (int, error)
	CountByRole(ctx context.Context) (map[string]int, error)
}

// ProjectStore interface for project queries.
type ProjectStore interface {
	GetByID(ctx context.Context, id string) (project.Project, error)
	List(ctx context.Context, filter projectStore.ListFilter) ([]projectStore.Summary, error)
	Count(ctx context.Context, filter projectStore.ListFilter) (int, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
	ListParticipants(ctx context.Context, projectID string) ([]projectStore.Member, error)
}

// SurveyStore interface for survey queries.
type SurveyStore interface {
	GetByID(ctx context.Context, id string) (survey.Survey, error)
	List(ctx context.Context, filter surveyStore.ListFilter) ([]surveyStore.Summary, error)
	Count(ctx context.Context, filter surveyStore.ListFilter) (int, error)
	HasResponded(ctx context.Context, surveyID, userID string) (bool, error)
	RespondedSurveyIDs(ctx context.Context, userID string) (map[string]bool, error)
	ListResponses(ctx context.Context, surveyID string) ([]survey.Response, error)
	CountRespondents(ctx context.Context, surveyID string) (int, error)
}

// TrainingStore interface for session queries.
type TrainingStore interface {
	GetByID(ctx context.Context, id string) (training.Session, error)
	List(ctx context.Context, filter trainingStore.ListFilter) ([]trainingStore.Summary, error)
	Count(ctx context.Context, filter trainingStore.ListFilter) (int, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
	ListAttendance(ctx context.Context, sessionID string) ([]trainingStore.Attendee, error)
}

// AssignmentStore interface for assignment queries.
type AssignmentStore interface {
	List(ctx context.Context, filter assignmentStore.ListFilter) ([]assignmentStore.Row, error)
}

// NotificationStore interface for notification queries.
type NotificationStore interface {
	List(ctx context.Context, filter notificationStore.ListFilter) ([]notification.Notification, error)
	Count(ctx context.Context, filter notificationStore.ListFilter) (int, error)
}

// ActivityStore interface for activity log queries.
type ActivityStore interface {
	ListRecent(ctx context.Context, limit int) ([]activityStore.Row, error)
}
