package survey

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"glp/internal/domain/validation"
)

// Question types
const (
	TypeText     = "text"
	TypeTextarea = "textarea"
	TypeRadio    = "radio"
	TypeCheckbox = "checkbox"
	TypeSelect   = "select"
	TypeRating   = "rating"
)

// ValidTypes lists question types in display order.
var ValidTypes = []string{TypeText, TypeTextarea, TypeRadio, TypeCheckbox, TypeSelect, TypeRating}

// Rating bounds (inclusive).
const (
	MinRating = 1
	MaxRating = 5
)

// MaxAnswerLength bounds free-text answers.
const MaxAnswerLength = 5000

// DateLayout is the storage and form layout for survey dates.
const DateLayout = "2006-01-02"

// Domain errors
var (
	ErrNotOpen          = errors.New("this survey is not currently open")
	ErrAlreadySubmitted = errors.New("you have already submitted this survey")
)

// Survey is a questionnaire distributed to program members.
type Survey struct {
	ID          string
	Title       string `validate:"required,min=3,max=200" label:"Title"`
	Description string `validate:"max=5000" label:"Description"`
	StartDate   time.Time
	EndDate     time.Time
	IsActive    bool
	IsAnonymous bool
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Questions   []Question
}

// Question is one ordered item of a survey.
type Question struct {
	ID         string
	SurveyID   string
	Text       string `validate:"required,max=1000" label:"Question text"`
	Type       string `validate:"oneof=text textarea radio checkbox select rating" label:"Question type"`
	Options    []string
	IsRequired bool
	OrderIndex int
}

// Response is one answer row. UserID is empty for anonymous surveys.
// Rows written by one submission share SubmissionID.
type Response struct {
	ID           string
	SurveyID     string
	QuestionID   string
	UserID       string
	SubmissionID string
	Text         string // checkbox answers hold a JSON array of options
	Value        int    // rating value; 0 when not a rating answer
	SubmittedAt  time.Time
}

// EncodeChoices stores the options picked for a checkbox question.
func EncodeChoices(values []string) string {
	b, err := json.Marshal(values)
	if err != nil {
		return ""
	}
	return string(b)
}

// Choices returns the options an answer picked. Text that is not a JSON
// array counts as a single option.
func (r Response) Choices() []string {
	if strings.HasPrefix(r.Text, "[") {
		var out []string
		if err := json.Unmarshal([]byte(r.Text), &out); err == nil {
			return out
		}
	}
	if r.Text == "" {
		return nil
	}
	return []string{r.Text}
}

// HasOptions reports whether the question type is answered by picking options.
func (q *Question) HasOptions() bool {
	return q.Type == TypeRadio || q.Type == TypeCheckbox || q.Type == TypeSelect
}

// Validate checks the survey and each of its questions.
// PRE: Survey struct is populated, question order follows slice order
// POST: Returns nil if valid, validation.Errors with every failure otherwise
func (s *Survey) Validate() error {
	s.Title = strings.TrimSpace(s.Title)
	s.Description = strings.TrimSpace(s.Description)
	errs := validation.Struct(s)
	if !s.StartDate.IsZero() && !s.EndDate.IsZero() && !s.EndDate.After(s.StartDate) {
		errs.Add("End date must be after start date")
	}
	if len(s.Questions) == 0 {
		errs.Add("At least one question is required")
	}
	for i := range s.Questions {
		q := &s.Questions[i]
		q.Text = strings.TrimSpace(q.Text)
		q.Options = cleanOptions(q.Options)
		if !q.HasOptions() {
			q.Options = nil
		}
		for _, msg := range validation.Struct(q) {
			errs.Addf("Question %d: %s", i+1, msg)
		}
		if q.HasOptions() && len(q.Options) == 0 {
			errs.Addf("Question %d: at least one option is required", i+1)
		}
		q.OrderIndex = i
	}
	return errs.Err()
}

// IsOpen reports whether the survey accepts responses on the given day.
func (s *Survey) IsOpen(now time.Time) bool {
	if !s.IsActive {
		return false
	}
	today := now.Format(DateLayout)
	if !s.StartDate.IsZero() && today < s.StartDate.Format(DateLayout) {
		return false
	}
	if !s.EndDate.IsZero() && today > s.EndDate.Format(DateLayout) {
		return false
	}
	return true
}

// BuildResponses validates a submission and turns it into response rows.
// answers maps question ID to the submitted values (several for checkboxes).
// PRE: s.Questions is loaded
// POST: Returns one row per answered question, or validation.Errors and no rows
// INVARIANT: all-or-nothing; a single failure yields no rows
func (s *Survey) BuildResponses(answers map[string][]string, userID string, now time.Time) ([]Response, error) {
	var errs validation.Errors
	var out []Response
	for i, q := range s.Questions {
		values := nonEmpty(answers[q.ID])
		if len(values) == 0 {
			if q.IsRequired {
				errs.Addf("Question %d is required", i+1)
			}
			continue
		}
		r := Response{
			SurveyID:    s.ID,
			QuestionID:  q.ID,
			SubmittedAt: now,
		}
		if !s.IsAnonymous {
			r.UserID = userID
		}
		switch q.Type {
		case TypeRating:
			v, err := strconv.Atoi(values[0])
			if err != nil || v < MinRating || v > MaxRating {
				errs.Addf("Question %d: rating must be between %d and %d", i+1, MinRating, MaxRating)
				continue
			}
			r.Value = v
		case TypeRadio, TypeSelect:
			if len(values) > 1 || !contains(q.Options, values[0]) {
				errs.Addf("Question %d: please choose one of the listed options", i+1)
				continue
			}
			r.Text = values[0]
		case TypeCheckbox:
			bad := false
			for _, v := range values {
				if !contains(q.Options, v) {
					bad = true
				}
			}
			if bad {
				errs.Addf("Question %d: please choose from the listed options", i+1)
				continue
			}
			r.Text = EncodeChoices(values)
		default:
			if len(values[0]) > MaxAnswerLength {
				errs.Addf("Question %d: answer must not exceed %d characters", i+1, MaxAnswerLength)
				continue
			}
			r.Text = values[0]
		}
		out = append(out, r)
	}
	if len(errs) == 0 && len(out) == 0 {
		errs.Add("Please answer at least one question")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ParseOptions splits a textarea of options, one per line.
func ParseOptions(raw string) []string {
	return cleanOptions(strings.Split(raw, "\n"))
}

func cleanOptions(opts []string) []string {
	var out []string
	for _, o := range opts {
		o = strings.TrimSpace(o)
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
