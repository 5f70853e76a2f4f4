package projections

import (
	"context"
	"fmt"
	"testing"
	"time"

	"glp/internal/domain/survey"
)

func resultsFixture() *mockSurveyStore {
	s := survey.Survey{
		ID:    "s1",
		Title: "Program check-in",
		Questions: []survey.Question{
			{ID: "q-rate", Text: "How confident do you feel?", Type: survey.TypeRating},
			{ID: "q-pick", Text: "Which skills?", Type: survey.TypeCheckbox, Options: []string{"Speaking", "Writing", "Budgeting"}},
			{ID: "q-one", Text: "Favourite day?", Type: survey.TypeRadio, Options: []string{"Monday", "Monday club"}},
			{ID: "q-text", Text: "Anything else?", Type: survey.TypeTextarea},
		},
	}
	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	var rows []survey.Response
	add := func(user, q, text string, value int, i int) {
		rows = append(rows, survey.Response{SurveyID: "s1", QuestionID: q, UserID: user, Text: text, Value: value, SubmittedAt: base.Add(time.Duration(i) * time.Minute)})
	}
	add("a", "q-rate", "5", 5, 0)
	add("b", "q-rate", "4", 4, 1)
	add("c", "q-rate", "3", 3, 2)
	add("a", "q-pick", survey.EncodeChoices([]string{"Speaking", "Writing"}), 0, 0)
	add("b", "q-pick", survey.EncodeChoices([]string{"Writing"}), 0, 1)
	add("a", "q-one", "Monday club", 0, 0)
	for i := 0; i < 12; i++ {
		add(fmt.Sprintf("u%d", i), "q-text", fmt.Sprintf("note %d", i), 0, i)
	}
	return &mockSurveyStore{surveys: map[string]survey.Survey{"s1": s}, responses: rows}
}

// TestQuerySurveyResults verifies per-question aggregation.
func TestQuerySurveyResults(t *testing.T) {
	res, err := QuerySurveyResults(context.Background(), "s1", SurveyResultsDeps{SurveyStore: resultsFixture()})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Questions) != 4 {
		t.Fatalf("questions = %d", len(res.Questions))
	}

	rating := res.Questions[0]
	if rating.Answered != 3 || rating.RatingAverage != 4 {
		t.Errorf("rating answered = %d avg = %v", rating.Answered, rating.RatingAverage)
	}
	if rating.RatingCounts[5] != 1 || rating.RatingCounts[1] != 0 {
		t.Errorf("rating counts = %v", rating.RatingCounts)
	}

	pick := res.Questions[1]
	want := []OptionTally{{"Writing", 2, 100}, {"Speaking", 1, 50}, {"Budgeting", 0, 0}}
	if len(pick.Tallies) != len(want) {
		t.Fatalf("tallies = %+v", pick.Tallies)
	}
	for i, w := range want {
		if pick.Tallies[i] != w {
			t.Errorf("tally %d = %+v, want %+v", i, pick.Tallies[i], w)
		}
	}

	one := res.Questions[2]
	for _, tally := range one.Tallies {
		if tally.Option == "Monday" && tally.Count != 0 {
			t.Error("radio answers must match whole options only")
		}
	}

	text := res.Questions[3]
	if text.Answered != 12 || len(text.RecentText) != RecentAnswerLimit {
		t.Errorf("text answered = %d recent = %d", text.Answered, len(text.RecentText))
	}
}

// TestChose verifies checkbox answers match whole options only.
func TestChose(t *testing.T) {
	pick := func(opts ...string) survey.Response { return survey.Response{Text: survey.EncodeChoices(opts)} }
	tests := []struct {
		name  string
		r     survey.Response
		opt   string
		multi bool
		want  bool
	}{
		{"single exact", survey.Response{Text: "Writing"}, "Writing", false, true},
		{"single partial", survey.Response{Text: "Speaking practice"}, "Speaking", false, false},
		{"multi member", pick("Speaking", "Writing"), "Writing", true, true},
		{"multi middle", pick("Art", "Speaking", "Writing"), "Speaking", true, true},
		{"multi absent", pick("Art"), "Speaking", true, false},
		{"multi empty", survey.Response{}, "Speaking", true, false},
		{"comma option whole", pick("Art, Music"), "Art, Music", true, true},
		{"comma option part", pick("Art, Music"), "Art", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := chose(tt.r, tt.opt, tt.multi); got != tt.want {
				t.Errorf("chose(%q, %q, %v) = %v", tt.r.Text, tt.opt, tt.multi, got)
			}
		})
	}
}

// TestQuerySurveyResults_CommaOption verifies an option containing a comma is tallied once.
func TestQuerySurveyResults_CommaOption(t *testing.T) {
	s := survey.Survey{ID: "s2", Questions: []survey.Question{
		{ID: "q", Text: "Interests", Type: survey.TypeCheckbox, Options: []string{"Art, Music", "Art", "Music"}},
	}}
	store := &mockSurveyStore{
		surveys: map[string]survey.Survey{"s2": s},
		responses: []survey.Response{
			{SurveyID: "s2", QuestionID: "q", UserID: "a", Text: survey.EncodeChoices([]string{"Art, Music"})},
		},
	}
	res, err := QuerySurveyResults(context.Background(), "s2", SurveyResultsDeps{SurveyStore: store})
	if err != nil {
		t.Fatal(err)
	}
	for _, tally := range res.Questions[0].Tallies {
		want := 0
		if tally.Option == "Art, Music" {
			want = 1
		}
		if tally.Count != want {
			t.Errorf("%q count = %d, want %d", tally.Option, tally.Count, want)
		}
	}
}

// TestQuerySurveyTake_Anonymous verifies anonymous surveys never report a prior submission.
func TestQuerySurveyTake_Anonymous(t *testing.T) {
	store := &mockSurveyStore{
		surveys: map[string]survey.Survey{
			"anon":  {ID: "anon", IsActive: true, IsAnonymous: true},
			"named": {ID: "named", IsActive: true},
		},
		done: map[string]bool{"anon": true, "named": true},
	}
	deps := SurveyTakeDeps{SurveyStore: store}
	anon, err := QuerySurveyTake(context.Background(), SurveyTakeQuery{SurveyID: "anon", ViewerID: "a", Now: now}, deps)
	if err != nil {
		t.Fatal(err)
	}
	named, err := QuerySurveyTake(context.Background(), SurveyTakeQuery{SurveyID: "named", ViewerID: "a", Now: now}, deps)
	if err != nil {
		t.Fatal(err)
	}
	if anon.AlreadySubmitted || !named.AlreadySubmitted {
		t.Errorf("anon = %v, named = %v", anon.AlreadySubmitted, named.AlreadySubmitted)
	}
}
