package projections

import (
	"context"
	"database/sql"
	"fmt"

	assignmentStore "glp/internal/adapters/storage/assignment"
	projectStore "glp/internal/adapters/storage/project"
	surveyStore "glp/internal/adapters/storage/survey"
	trainingStore "glp/internal/adapters/storage/training"
	userStore "glp/internal/adapters/storage/user"
	"glp/internal/domain/project"
	"glp/internal/domain/survey"
	"glp/internal/domain/training"
	"glp/internal/domain/user"
)

type mockUserStore struct {
	users []user.User
}

func (m *mockUserStore) GetByID(_ context.Context, id string) (user.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return user.User{}, fmt.Errorf("user not found: %w", sql.ErrNoRows)
}

func (m *mockUserStore) List(_ context.Context, f userStore.ListFilter) ([]user.User, error) {
	var out []user.User
	for _, u := range m.users {
		if f.Active != nil && u.IsActive != *f.Active {
			continue
		}
		if len(f.Roles) > 0 && !contains(f.Roles, u.Role) {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func (m *mockUserStore) Count(ctx context.Context, f userStore.ListFilter) (int, error) {
	list, _ := m.List(ctx, f)
	return len(list), nil
}

func (m *mockUserStore) CountByRole(_ context.Context) (map[string]int, error) {
	out := map[string]int{}
	for _, u := range m.users {
		if u.IsActive {
			out[u.Role]++
		}
	}
	return out, nil
}

type mockProjectStore struct {
	projects   map[string]project.Project
	members    map[string][]projectStore.Member
	total      int
	lastFilter projectStore.ListFilter
}

func (m *mockProjectStore) GetByID(_ context.Context, id string) (project.Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return project.Project{}, fmt.Errorf("project not found: %w", sql.ErrNoRows)
	}
	return p, nil
}

func (m *mockProjectStore) List(_ context.Context, f projectStore.ListFilter) ([]projectStore.Summary, error) {
	m.lastFilter = f
	return nil, nil
}

func (m *mockProjectStore) Count(_ context.Context, _ projectStore.ListFilter) (int, error) {
	return m.total, nil
}

func (m *mockProjectStore) CountByStatus(_ context.Context) (map[string]int, error) {
	return map[string]int{project.StatusActive: 2, project.StatusPlanning: 1}, nil
}

func (m *mockProjectStore) ListParticipants(_ context.Context, projectID string) ([]projectStore.Member, error) {
	return m.members[projectID], nil
}

type mockAssignmentStore struct {
	rows []assignmentStore.Row
}

func (m *mockAssignmentStore) List(_ context.Context, f assignmentStore.ListFilter) ([]assignmentStore.Row, error) {
	var out []assignmentStore.Row
	for _, r := range m.rows {
		if f.ProjectID != "" && r.ProjectID != f.ProjectID {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

type mockSurveyStore struct {
	surveys   map[string]survey.Survey
	responses []survey.Response
	done      map[string]bool
}

func (m *mockSurveyStore) GetByID(_ context.Context, id string) (survey.Survey, error) {
	s, ok := m.surveys[id]
	if !ok {
		return survey.Survey{}, fmt.Errorf("survey not found: %w", sql.ErrNoRows)
	}
	return s, nil
}

func (m *mockSurveyStore) List(_ context.Context, _ surveyStore.ListFilter) ([]surveyStore.Summary, error) {
	var out []surveyStore.Summary
	for _, s := range m.surveys {
		out = append(out, surveyStore.Summary{Survey: s})
	}
	return out, nil
}

func (m *mockSurveyStore) Count(_ context.Context, _ surveyStore.ListFilter) (int, error) {
	return len(m.surveys), nil
}

func (m *mockSurveyStore) HasResponded(_ context.Context, surveyID, _ string) (bool, error) {
	return m.done[surveyID], nil
}

func (m *mockSurveyStore) RespondedSurveyIDs(_ context.Context, _ string) (map[string]bool, error) {
	return m.done, nil
}

func (m *mockSurveyStore) ListResponses(_ context.Context, surveyID string) ([]survey.Response, error) {
	var out []survey.Response
	for _, r := range m.responses {
		if r.SurveyID == surveyID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockSurveyStore) CountRespondents(_ context.Context, _ string) (int, error) {
	seen := map[string]bool{}
	for _, r := range m.responses {
		key := r.SubmissionID
		if key == "" {
			key = r.UserID + "|" + r.SubmittedAt.String()
		}
		seen[key] = true
	}
	return len(seen), nil
}

type mockTrainingStore struct {
	sessions   []trainingStore.Summary
	attendance map[string][]trainingStore.Attendee
	lastFilter trainingStore.ListFilter
}

func (m *mockTrainingStore) GetByID(_ context.Context, id string) (training.Session, error) {
	for _, s := range m.sessions {
		if s.ID == id {
			return s.Session, nil
		}
	}
	return training.Session{}, fmt.Errorf("session not found: %w", sql.ErrNoRows)
}

func (m *mockTrainingStore) List(_ context.Context, f trainingStore.ListFilter) ([]trainingStore.Summary, error) {
	m.lastFilter = f
	var out []trainingStore.Summary
	for _, s := range m.sessions {
		if !f.From.IsZero() && s.SessionDate.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !s.SessionDate.Before(f.To) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (m *mockTrainingStore) Count(ctx context.Context, f trainingStore.ListFilter) (int, error) {
	rows, _ := m.List(ctx, f)
	return len(rows), nil
}

func (m *mockTrainingStore) CountByStatus(_ context.Context) (map[string]int, error) {
	return map[string]int{}, nil
}

func (m *mockTrainingStore) ListAttendance(_ context.Context, sessionID string) ([]trainingStore.Attendee, error) {
	return m.attendance[sessionID], nil
}
