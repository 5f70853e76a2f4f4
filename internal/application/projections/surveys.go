package projections

import (
	"context"
	"sort"
	"time"

	surveyStore "glp/internal/adapters/storage/survey"
	"glp/internal/application/listutil"
	"glp/internal/domain/survey"
)

// SurveyListQuery carries query parameters for the survey list.
// Managers see every survey and may filter by active ("1" or "0"); everyone else sees active surveys only.
type SurveyListQuery struct {
	listutil.ListParams
	ViewerID string
	Manage   bool
	Now      time.Time
}

// SurveyRow is one survey in the list with the viewer's state.
type SurveyRow struct {
	surveyStore.Summary
	IsOpen    bool
	Responded bool
}

// SurveyListResult carries one page of surveys.
type SurveyListResult struct {
	Surveys []SurveyRow
	Page    listutil.PageInfo
	Filter  listutil.FilterParams
}

// SurveyListDeps holds dependencies for SurveyList.
type SurveyListDeps struct {
	SurveyStore SurveyStore
}

// QuerySurveyList returns a filtered page of surveys.
// PRE: caller holds take_surveys or survey_management
// POST: At most listutil.DefaultPerPage surveys, newest first
func QuerySurveyList(ctx context.Context, q SurveyListQuery, deps SurveyListDeps) (SurveyListResult, error) {
	filter := surveyStore.ListFilter{Search: q.Search}
	active := true
	switch {
	case !q.Manage:
		filter.Active = &active
	case q.Filters["active"] == "1":
		filter.Active = &active
	case q.Filters["active"] == "0":
		inactive := false
		filter.Active = &inactive
	}

	total, err := deps.SurveyStore.Count(ctx, filter)
	if err != nil {
		return SurveyListResult{}, err
	}
	page := listutil.NewPageInfo(q.Page, listutil.DefaultPerPage, total)
	filter.Limit = page.PerPage
	filter.Offset = page.Offset()
	rows, err := deps.SurveyStore.List(ctx, filter)
	if err != nil {
		return SurveyListResult{}, err
	}
	done, err := deps.SurveyStore.RespondedSurveyIDs(ctx, q.ViewerID)
	if err != nil {
		return SurveyListResult{}, err
	}

	out := make([]SurveyRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, SurveyRow{
			Summary:   r,
			IsOpen:    r.IsOpen(q.Now),
			Responded: !r.IsAnonymous && done[r.ID],
		})
	}
	return SurveyListResult{Surveys: out, Page: page, Filter: q.FilterParams}, nil
}

// SurveyTakeQuery carries input for the survey-taking page.
type SurveyTakeQuery struct {
	SurveyID string
	ViewerID string
	Now      time.Time
}

// SurveyTakeResult carries the form model.
type SurveyTakeResult struct {
	Survey           survey.Survey
	IsOpen           bool
	AlreadySubmitted bool
}

// SurveyTakeDeps holds dependencies for SurveyTake.
type SurveyTakeDeps struct {
	SurveyStore SurveyStore
}

// QuerySurveyTake loads a survey with its questions and the viewer's submission state.
// PRE: caller holds take_surveys
// POST: AlreadySubmitted is only ever true for non-anonymous surveys
func QuerySurveyTake(ctx context.Context, q SurveyTakeQuery, deps SurveyTakeDeps) (SurveyTakeResult, error) {
	s, err := deps.SurveyStore.GetByID(ctx, q.SurveyID)
	if err != nil {
		return SurveyTakeResult{}, err
	}
	res := SurveyTakeResult{Survey: s, IsOpen: s.IsOpen(q.Now)}
	if !s.IsAnonymous {
		res.AlreadySubmitted, err = deps.SurveyStore.HasResponded(ctx, s.ID, q.ViewerID)
		if err != nil {
			return SurveyTakeResult{}, err
		}
	}
	return res, nil
}

// RecentAnswerLimit bounds the free-text answers shown per question.
const RecentAnswerLimit = 10

// OptionTally counts how often an option was chosen.
type OptionTally struct {
	Option  string
	Count   int
	Percent int // of respondents who answered the question
}

// QuestionResult aggregates the answers to one question.
type QuestionResult struct {
	Question      survey.Question
	Answered      int
	Tallies       []OptionTally
	RatingCounts  [survey.MaxRating + 1]int // index = rating value; index 0 unused
	RatingAverage float64
	RecentText    []string
}

// SurveyResultsResult carries the results page model.
type SurveyResultsResult struct {
	Survey      survey.Survey
	Respondents int
	Questions   []QuestionResult
}

// SurveyResultsDeps holds dependencies for SurveyResults.
type SurveyResultsDeps struct {
	SurveyStore SurveyStore
}

// QuerySurveyResults aggregates every response of a survey.
// PRE: caller holds survey_management or view_reports
// POST: One QuestionResult per question in survey order; recent text newest first
func QuerySurveyResults(ctx context.Context, surveyID string, deps SurveyResultsDeps) (SurveyResultsResult, error) {
	s, err := deps.SurveyStore.GetByID(ctx, surveyID)
	if err != nil {
		return SurveyResultsResult{}, err
	}
	respondents, err := deps.SurveyStore.CountRespondents(ctx, s.ID)
	if err != nil {
		return SurveyResultsResult{}, err
	}
	responses, err := deps.SurveyStore.ListResponses(ctx, s.ID)
	if err != nil {
		return SurveyResultsResult{}, err
	}

	byQuestion := make(map[string][]survey.Response, len(s.Questions))
	for _, r := range responses {
		byQuestion[r.QuestionID] = append(byQuestion[r.QuestionID], r)
	}

	res := SurveyResultsResult{Survey: s, Respondents: respondents}
	for _, q := range s.Questions {
		res.Questions = append(res.Questions, aggregate(q, byQuestion[q.ID]))
	}
	return res, nil
}

// aggregate builds the result of one question from its responses (newest first).
func aggregate(q survey.Question, rows []survey.Response) QuestionResult {
	qr := QuestionResult{Question: q, Answered: len(rows)}
	switch {
	case q.Type == survey.TypeRating:
		sum := 0
		n := 0
		for _, r := range rows {
			if r.Value >= survey.MinRating && r.Value <= survey.MaxRating {
				qr.RatingCounts[r.Value]++
				sum += r.Value
				n++
			}
		}
		if n > 0 {
			qr.RatingAverage = float64(sum) / float64(n)
		}
	case q.HasOptions():
		counts := make(map[string]int, len(q.Options))
		for _, r := range rows {
			for _, opt := range q.Options {
				if chose(r, opt, q.Type == survey.TypeCheckbox) {
					counts[opt]++
				}
			}
		}
		for _, opt := range q.Options {
			t := OptionTally{Option: opt, Count: counts[opt]}
			if qr.Answered > 0 {
				t.Percent = t.Count * 100 / qr.Answered
			}
			qr.Tallies = append(qr.Tallies, t)
		}
		sort.SliceStable(qr.Tallies, func(i, j int) bool { return qr.Tallies[i].Count > qr.Tallies[j].Count })
	default:
		for _, r := range rows {
			if len(qr.RecentText) == RecentAnswerLimit {
				break
			}
			qr.RecentText = append(qr.RecentText, r.Text)
		}
	}
	return qr
}

// chose reports whether an answer selected opt.
func chose(r survey.Response, opt string, multi bool) bool {
	if !multi {
		return r.Text == opt
	}
	for _, c := range r.Choices() {
		if c == opt {
			return true
		}
	}
	return false
}
