package survey

import (
	"context"

	domain "glp/internal/domain/survey"
)

// Store persists surveys, their questions and responses.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Survey, error)
	Save(ctx context.Context, s domain.Survey) error
	List(ctx context.Context, filter ListFilter) ([]Summary, error)
	Count(ctx context.Context, filter ListFilter) (int, error)

	HasResponded(ctx context.Context, surveyID, userID string) (bool, error)
	RespondedSurveyIDs(ctx context.Context, userID string) (map[string]bool, error)
	SaveResponses(ctx context.Context, rows []domain.Response) error
	ListResponses(ctx context.Context, surveyID string) ([]domain.Response, error)
	CountRespondents(ctx context.Context, surveyID string) (int, error)
}

// ListFilter carries filtering parameters for List and Count.
// Active nil means both.
type ListFilter struct {
	Limit     int
	Offset    int
	Search    string
	Active    *bool
	CreatedBy string
}

// Summary is a survey row for list views.
type Summary struct {
	domain.Survey
	CreatorName     string
	QuestionCount   int
	RespondentCount int
}
