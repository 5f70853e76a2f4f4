package survey

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"glp/internal/adapters/storage/storagetest"
	domain "glp/internal/domain/survey"
)

var now = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

func newSurvey() domain.Survey {
	return domain.Survey{
		ID:        "s1",
		Title:     "Program feedback",
		IsActive:  true,
		CreatedBy: "u1",
		CreatedAt: now,
		UpdatedAt: now,
		Questions: []domain.Question{
			{ID: "q1", Text: "Rate us", Type: domain.TypeRating, IsRequired: true},
			{ID: "q2", Text: "Pick one", Type: domain.TypeRadio, Options: []string{"A", "B"}},
		},
	}
}

func setup(t *testing.T) *SQLiteStore {
	t.Helper()
	db := storagetest.Open(t)
	storagetest.SeedUser(t, db, "u1", "admin")
	storagetest.SeedUser(t, db, "u2", "participant")
	return NewSQLiteStore(db)
}

// TestSave_RoundTrip verifies questions keep order and options.
func TestSave_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := setup(t)
	if err := s.Save(ctx, newSurvey()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.GetByID(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Questions) != 2 || got.Questions[1].Options[1] != "B" || !got.Questions[0].IsRequired {
		t.Errorf("unexpected questions %+v", got.Questions)
	}
	if got.Questions[0].Options != nil && len(got.Questions[0].Options) != 0 {
		t.Errorf("rating question has options %v", got.Questions[0].Options)
	}
}

// TestSave_ReplacesQuestions verifies the question set is replaced and old responses go with it.
func TestSave_ReplacesQuestions(t *testing.T) {
	ctx := context.Background()
	s := setup(t)
	sv := newSurvey()
	s.Save(ctx, sv)
	if err := s.SaveResponses(ctx, []domain.Response{
		{ID: "r1", SurveyID: "s1", QuestionID: "q1", UserID: "u2", Value: 4, SubmittedAt: now},
	}); err != nil {
		t.Fatal(err)
	}

	sv.Title = "Program feedback v2"
	sv.Questions = []domain.Question{{ID: "q9", Text: "Anything else?", Type: domain.TypeTextarea}}
	if err := s.Save(ctx, sv); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetByID(ctx, "s1")
	if got.Title != "Program feedback v2" || len(got.Questions) != 1 || got.Questions[0].ID != "q9" {
		t.Errorf("unexpected survey %+v", got)
	}
	rows, _ := s.ListResponses(ctx, "s1")
	if len(rows) != 0 {
		t.Errorf("%d responses survived question replacement", len(rows))
	}
}

// TestSaveResponses_AllOrNothing verifies one bad row rolls back the submission.
func TestSaveResponses_AllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := setup(t)
	s.Save(ctx, newSurvey())

	err := s.SaveResponses(ctx, []domain.Response{
		{ID: "r1", SurveyID: "s1", QuestionID: "q1", UserID: "u2", Value: 5, SubmittedAt: now},
		{ID: "r2", SurveyID: "s1", QuestionID: "missing", UserID: "u2", Text: "x", SubmittedAt: now},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	rows, _ := s.ListResponses(ctx, "s1")
	if len(rows) != 0 {
		t.Errorf("%d rows stored, want 0", len(rows))
	}
	if done, _ := s.HasResponded(ctx, "s1", "u2"); done {
		t.Error("user should not be marked as responded")
	}
}

// TestRespondents verifies named and anonymous submissions are counted once each.
func TestRespondents(t *testing.T) {
	ctx := context.Background()
	s := setup(t)
	s.Save(ctx, newSurvey())

	s.SaveResponses(ctx, []domain.Response{
		{ID: "r1", SurveyID: "s1", QuestionID: "q1", UserID: "u2", Value: 5, SubmittedAt: now},
		{ID: "r2", SurveyID: "s1", QuestionID: "q2", UserID: "u2", Text: "A", SubmittedAt: now},
	})
	s.SaveResponses(ctx, []domain.Response{
		{ID: "r3", SurveyID: "s1", QuestionID: "q1", Value: 3, SubmittedAt: now.Add(time.Minute)},
	})

	if n, _ := s.CountRespondents(ctx, "s1"); n != 2 {
		t.Errorf("respondents = %d, want 2", n)
	}
	if done, _ := s.HasResponded(ctx, "s1", "u2"); !done {
		t.Error("u2 should have responded")
	}
	ids, _ := s.RespondedSurveyIDs(ctx, "u2")
	if !ids["s1"] {
		t.Errorf("RespondedSurveyIDs = %v", ids)
	}

	rows, _ := s.ListResponses(ctx, "s1")
	if len(rows) != 3 || rows[0].UserID != "" || rows[0].Value != 3 {
		t.Errorf("unexpected rows %+v", rows)
	}

	list, _ := s.List(ctx, ListFilter{})
	if len(list) != 1 || list[0].QuestionCount != 2 || list[0].RespondentCount != 2 {
		t.Errorf("unexpected summary %+v", list)
	}
}

// TestRespondents_SameSecondAnonymous verifies anonymous submissions in the same second count separately.
func TestRespondents_SameSecondAnonymous(t *testing.T) {
	ctx := context.Background()
	s := setup(t)
	s.Save(ctx, newSurvey())

	for i, id := range []string{"sub-a", "sub-b"} {
		if err := s.SaveResponses(ctx, []domain.Response{
			{ID: fmt.Sprintf("r%d", i), SurveyID: "s1", QuestionID: "q1", SubmissionID: id, Value: 4, SubmittedAt: now},
		}); err != nil {
			t.Fatalf("SaveResponses %s: %v", id, err)
		}
	}

	if n, _ := s.CountRespondents(ctx, "s1"); n != 2 {
		t.Errorf("respondents = %d, want 2", n)
	}
	rows, _ := s.ListResponses(ctx, "s1")
	if len(rows) != 2 || rows[0].SubmissionID == rows[1].SubmissionID {
		t.Errorf("unexpected rows %+v", rows)
	}
}

// TestSaveResponses_RejectsSecondNamedSubmission verifies the once-per-user check runs inside the insert.
func TestSaveResponses_RejectsSecondNamedSubmission(t *testing.T) {
	ctx := context.Background()
	s := setup(t)
	s.Save(ctx, newSurvey())

	first := []domain.Response{{ID: "r1", SurveyID: "s1", QuestionID: "q1", UserID: "u2", Value: 5, SubmittedAt: now}}
	if err := s.SaveResponses(ctx, first); err != nil {
		t.Fatal(err)
	}
	err := s.SaveResponses(ctx, []domain.Response{
		{ID: "r2", SurveyID: "s1", QuestionID: "q2", UserID: "u2", Text: "A", SubmittedAt: now.Add(time.Minute)},
	})
	if !errors.Is(err, domain.ErrAlreadySubmitted) {
		t.Fatalf("got %v, want ErrAlreadySubmitted", err)
	}
	if rows, _ := s.ListResponses(ctx, "s1"); len(rows) != 1 {
		t.Errorf("%d rows stored, want 1", len(rows))
	}
}
