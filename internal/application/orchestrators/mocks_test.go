package orchestrators

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"

	projectStore "glp/internal/adapters/storage/project"
	userStore "glp/internal/adapters/storage/user"
	"glp/internal/domain/activity"
	"glp/internal/domain/notification"
	"glp/internal/domain/project"
	"glp/internal/domain/survey"
	"glp/internal/domain/training"
	"glp/internal/domain/user"
)

func TestMain(m *testing.M) {
	user.UseMinHashCost()
	goleak.VerifyTestMain(m)
}

var fixedTime = time.Date(2026, 6, 2, 9, 30, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

// sequentialIDs returns a generator yielding id-1, id-2, ...
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

// --- users ---

type mockUserStore struct {
	users   map[string]user.User
	touched map[string]time.Time
}

func newMockUserStore(users ...user.User) *mockUserStore {
	m := &mockUserStore{users: map[string]user.User{}, touched: map[string]time.Time{}}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockUserStore) GetByID(_ context.Context, id string) (user.User, error) {
	u, ok := m.users[id]
	if !ok {
		return user.User{}, fmt.Errorf("user not found: %w", sql.ErrNoRows)
	}
	return u, nil
}

func (m *mockUserStore) GetByLogin(_ context.Context, login string) (user.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Username, login) || strings.EqualFold(u.Email, login) {
			return u, nil
		}
	}
	return user.User{}, fmt.Errorf("user not found: %w", sql.ErrNoRows)
}

func (m *mockUserStore) Save(_ context.Context, u user.User) error {
	m.users[u.ID] = u
	return nil
}

func (m *mockUserStore) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	m.touched[id] = at
	return nil
}

func (m *mockUserStore) UsernameTaken(_ context.Context, username, excludeID string) (bool, error) {
	for _, u := range m.users {
		if u.ID != excludeID && strings.EqualFold(u.Username, username) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserStore) EmailTaken(_ context.Context, email, excludeID string) (bool, error) {
	for _, u := range m.users {
		if u.ID != excludeID && strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserStore) List(_ context.Context, f userStore.ListFilter) ([]user.User, error) {
	var out []user.User
	for _, u := range m.users {
		if f.Active != nil && u.IsActive != *f.Active {
			continue
		}
		if len(f.Roles) > 0 && !containsString(f.Roles, u.Role) {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func (m *mockUserStore) CountAll(_ context.Context) (int, error) {
	return len(m.users), nil
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func testUser(id, role string) user.User {
	return user.User{
		ID:        id,
		Username:  "user_" + id,
		Email:     id + "@example.org",
		FirstName: "First",
		LastName:  "Last",
		Role:      role,
		IsActive:  true,
	}
}

// --- projects ---

type mockProjectStore struct {
	projects     map[string]project.Project
	participants map[string][]project.Participant
}

func newMockProjectStore() *mockProjectStore {
	return &mockProjectStore{projects: map[string]project.Project{}, participants: map[string][]project.Participant{}}
}

func (m *mockProjectStore) GetByID(_ context.Context, id string) (project.Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return project.Project{}, fmt.Errorf("project not found: %w", sql.ErrNoRows)
	}
	return p, nil
}

func (m *mockProjectStore) Create(_ context.Context, p project.Project, leader project.Participant) error {
	m.projects[p.ID] = p
	m.participants[p.ID] = append(m.participants[p.ID], leader)
	return nil
}

func (m *mockProjectStore) Save(_ context.Context, p project.Project) error {
	if _, ok := m.projects[p.ID]; !ok {
		return fmt.Errorf("project not found: %w", sql.ErrNoRows)
	}
	m.projects[p.ID] = p
	return nil
}

func (m *mockProjectStore) GetParticipant(_ context.Context, projectID, userID string) (project.Participant, error) {
	for _, p := range m.participants[projectID] {
		if p.UserID == userID {
			return p, nil
		}
	}
	return project.Participant{}, fmt.Errorf("participant not found: %w", sql.ErrNoRows)
}

func (m *mockProjectStore) AddParticipant(_ context.Context, p project.Participant) error {
	m.participants[p.ProjectID] = append(m.participants[p.ProjectID], p)
	return nil
}

func (m *mockProjectStore) RemoveParticipant(_ context.Context, projectID, userID string) error {
	var keep []project.Participant
	for _, p := range m.participants[projectID] {
		if p.UserID != userID {
			keep = append(keep, p)
		}
	}
	m.participants[projectID] = keep
	return nil
}

func (m *mockProjectStore) ListParticipants(_ context.Context, projectID string) ([]projectStore.Member, error) {
	var out []projectStore.Member
	for _, p := range m.participants[projectID] {
		out = append(out, projectStore.Member{Participant: p})
	}
	return out, nil
}

// --- surveys ---

type mockSurveyStore struct {
	surveys   map[string]survey.Survey
	responses []survey.Response
	failSave  error
}

func newMockSurveyStore(surveys ...survey.Survey) *mockSurveyStore {
	m := &mockSurveyStore{surveys: map[string]survey.Survey{}}
	for _, s := range surveys {
		m.surveys[s.ID] = s
	}
	return m
}

func (m *mockSurveyStore) GetByID(_ context.Context, id string) (survey.Survey, error) {
	s, ok := m.surveys[id]
	if !ok {
		return survey.Survey{}, fmt.Errorf("survey not found: %w", sql.ErrNoRows)
	}
	return s, nil
}

func (m *mockSurveyStore) Save(_ context.Context, s survey.Survey) error {
	m.surveys[s.ID] = s
	return nil
}

func (m *mockSurveyStore) SaveResponses(_ context.Context, rows []survey.Response) error {
	if m.failSave != nil {
		return m.failSave
	}
	if len(rows) > 0 && rows[0].UserID != "" {
		for _, r := range m.responses {
			if r.SurveyID == rows[0].SurveyID && r.UserID == rows[0].UserID {
				return survey.ErrAlreadySubmitted
			}
		}
	}
	m.responses = append(m.responses, rows...)
	return nil
}

// --- training ---

type mockTrainingStore struct {
	sessions   map[string]training.Session
	attendance map[string]training.Attendance // key: session|user
}

func newMockTrainingStore(sessions ...training.Session) *mockTrainingStore {
	m := &mockTrainingStore{sessions: map[string]training.Session{}, attendance: map[string]training.Attendance{}}
	for _, s := range sessions {
		m.sessions[s.ID] = s
	}
	return m
}

func (m *mockTrainingStore) GetByID(_ context.Context, id string) (training.Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return training.Session{}, fmt.Errorf("session not found: %w", sql.ErrNoRows)
	}
	return s, nil
}

func (m *mockTrainingStore) Save(_ context.Context, s training.Session) error {
	m.sessions[s.ID] = s
	return nil
}

func (m *mockTrainingStore) GetAttendance(_ context.Context, sessionID, userID string) (training.Attendance, error) {
	a, ok := m.attendance[sessionID+"|"+userID]
	if !ok {
		return training.Attendance{}, fmt.Errorf("attendance not found: %w", sql.ErrNoRows)
	}
	return a, nil
}

func (m *mockTrainingStore) SaveAttendance(_ context.Context, rows []training.Attendance) error {
	for _, a := range rows {
		key := a.SessionID + "|" + a.UserID
		if old, ok := m.attendance[key]; ok && !old.AttendanceDate.IsZero() {
			a.AttendanceDate = old.AttendanceDate
		}
		m.attendance[key] = a
	}
	return nil
}

func (m *mockTrainingStore) RegisterMany(_ context.Context, rows []training.Attendance) (int, error) {
	n := 0
	for _, a := range rows {
		key := a.SessionID + "|" + a.UserID
		if _, ok := m.attendance[key]; ok {
			continue
		}
		m.attendance[key] = a
		n++
	}
	return n, nil
}

func (m *mockTrainingStore) CountTaken(_ context.Context, sessionID string) (int, error) {
	n := 0
	for _, a := range m.attendance {
		if a.SessionID == sessionID && a.CountsTowardCapacity() {
			n++
		}
	}
	return n, nil
}

// --- notifications & activity ---

type mockNotificationStore struct {
	saved []notification.Notification
}

func (m *mockNotificationStore) Save(_ context.Context, n notification.Notification) error {
	m.saved = append(m.saved, n)
	return nil
}

func (m *mockNotificationStore) recipients() []string {
	var out []string
	for _, n := range m.saved {
		out = append(out, n.UserID)
	}
	return out
}

type mockActivityStore struct {
	entries []activity.Entry
}

func (m *mockActivityStore) Save(_ context.Context, e activity.Entry) error {
	m.entries = append(m.entries, e)
	return nil
}

func newNotifier(store *mockNotificationStore) *Notifier {
	return &Notifier{Store: store, GenerateID: sequentialIDs(), Now: fixedNow}
}

func newActivityLogger(store *mockActivityStore) *ActivityLogger {
	return &ActivityLogger{Store: store, GenerateID: sequentialIDs(), Now: fixedNow}
}
