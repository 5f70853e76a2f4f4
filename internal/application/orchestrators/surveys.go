package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"glp/internal/domain/notification"
	"glp/internal/domain/survey"
	"glp/internal/domain/user"
)

// SurveyStoreForOrchestrator defines the store interface needed by survey orchestrators.
type SurveyStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (survey.Survey, error)
	Save(ctx context.Context, s survey.Survey) error
	SaveResponses(ctx context.Context, rows []survey.Response) error
}

// SurveyDeps holds dependencies shared by survey orchestrators.
type SurveyDeps struct {
	SurveyStore SurveyStoreForOrchestrator
	Users       UserListerForCohort
	Activity    *ActivityLogger
	Notifier    *Notifier
	GenerateID  func() string
	Now         func() time.Time
}

// --- Save Survey ---

// QuestionInput carries one question of the survey builder form.
type QuestionInput struct {
	Text       string
	Type       string
	Options    []string
	IsRequired bool
}

// SaveSurveyInput carries input for creating or editing a survey.
// An empty SurveyID creates a new survey.
type SaveSurveyInput struct {
	SurveyID    string
	Title       string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	IsActive    bool
	IsAnonymous bool
	Questions   []QuestionInput
	ActorID     string
}

// ExecuteSaveSurvey creates a survey or replaces an existing survey and its questions.
// PRE: caller holds survey_management
// POST: Survey and questions persisted atomically with fresh question IDs, or validation.Errors and nothing persisted
// POST: A newly created active survey notifies every active participant
func ExecuteSaveSurvey(ctx context.Context, input SaveSurveyInput, deps SurveyDeps) (survey.Survey, error) {
	now := deps.Now()
	creating := input.SurveyID == ""
	var s survey.Survey
	if creating {
		s = survey.Survey{
			ID:        deps.GenerateID(),
			CreatedBy: input.ActorID,
			CreatedAt: now,
		}
	} else {
		existing, err := deps.SurveyStore.GetByID(ctx, input.SurveyID)
		if err != nil {
			return survey.Survey{}, notFound(err)
		}
		s = existing
	}

	s.Title = input.Title
	s.Description = input.Description
	s.StartDate = input.StartDate
	s.EndDate = input.EndDate
	s.IsActive = input.IsActive
	s.IsAnonymous = input.IsAnonymous
	s.UpdatedAt = now
	s.Questions = make([]survey.Question, 0, len(input.Questions))
	for _, q := range input.Questions {
		s.Questions = append(s.Questions, survey.Question{
			ID:         deps.GenerateID(),
			SurveyID:   s.ID,
			Text:       q.Text,
			Type:       q.Type,
			Options:    q.Options,
			IsRequired: q.IsRequired,
		})
	}
	if err := s.Validate(); err != nil {
		return survey.Survey{}, err
	}

	if err := deps.SurveyStore.Save(ctx, s); err != nil {
		return survey.Survey{}, err
	}

	event, verb := "survey_updated", "Updated"
	if creating {
		event, verb = "survey_created", "Created"
	}
	deps.Activity.LogActivity(ctx, fmt.Sprintf("%s survey: %s", verb, s.Title), input.ActorID)
	slog.Info("survey_event", "event", event, "survey_id", s.ID, "questions", len(s.Questions), "actor_id", input.ActorID)

	if creating && s.IsActive {
		ids := cohortIDs(ctx, deps.Users, []string{user.RoleParticipant}, input.ActorID)
		deps.Notifier.NotifyMany(ctx, ids,
			"New survey available",
			fmt.Sprintf("Please take a moment to complete \"%s\".", s.Title),
			notification.TypeInfo,
			"/surveys/"+s.ID+"/take")
	}
	return s, nil
}

// --- Submit Survey ---

// SubmitSurveyInput carries a user's answers, keyed by question ID.
type SubmitSurveyInput struct {
	SurveyID string
	UserID   string
	Answers  map[string][]string
}

// SubmitSurveyResult reports what was stored.
type SubmitSurveyResult struct {
	Survey    survey.Survey
	Answered  int
	Anonymous bool
}

// ExecuteSubmitSurvey validates and stores one submission.
// PRE: caller holds take_surveys
// POST: One response row per answered question inserted in a single transaction, or none at all
// INVARIANT: a user submits a non-anonymous survey at most once
func ExecuteSubmitSurvey(ctx context.Context, input SubmitSurveyInput, deps SurveyDeps) (SubmitSurveyResult, error) {
	s, err := deps.SurveyStore.GetByID(ctx, input.SurveyID)
	if err != nil {
		return SubmitSurveyResult{}, notFound(err)
	}
	now := deps.Now()
	if !s.IsOpen(now) {
		return SubmitSurveyResult{}, survey.ErrNotOpen
	}
	rows, err := s.BuildResponses(input.Answers, input.UserID, now)
	if err != nil {
		return SubmitSurveyResult{}, err
	}
	submission := deps.GenerateID()
	for i := range rows {
		rows[i].ID = deps.GenerateID()
		rows[i].SubmissionID = submission
	}
	// The store rejects a second named submission inside its insert transaction.
	if err := deps.SurveyStore.SaveResponses(ctx, rows); err != nil {
		return SubmitSurveyResult{}, err
	}

	deps.Activity.LogActivity(ctx, "Submitted survey: "+s.Title, input.UserID)
	slog.Info("survey_event", "event", "survey_submitted", "survey_id", s.ID, "answers", len(rows), "anonymous", s.IsAnonymous)

	if s.CreatedBy != input.UserID {
		deps.Notifier.CreateNotification(ctx, s.CreatedBy,
			"New survey response",
			fmt.Sprintf("Someone completed your survey \"%s\".", s.Title),
			notification.TypeInfo,
			"/surveys/"+s.ID+"/results")
	}
	return SubmitSurveyResult{Survey: s, Answered: len(rows), Anonymous: s.IsAnonymous}, nil
}
