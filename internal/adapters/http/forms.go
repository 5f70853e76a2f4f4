package web

import (
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"glp/internal/application/orchestrators"
	"glp/internal/domain/project"
	"glp/internal/domain/survey"
	"glp/internal/domain/training"
	"glp/internal/domain/user"
	"glp/internal/domain/validation"
)

// Form values are kept as submitted strings so a failed form re-renders exactly what was typed.

func field(form url.Values, name string) string {
	return strings.TrimSpace(form.Get(name))
}

func checked(form url.Values, name string) bool {
	v := form.Get(name)
	return v == "1" || v == "on" || v == "true"
}

func parseDateField(value, label string, errs *validation.Errors) time.Time {
	t, err := project.ParseDate(value)
	if err != nil {
		errs.Addf("%s must be a valid date (YYYY-MM-DD)", label)
	}
	return t
}

// --- Projects ---

type projectForm struct {
	Title       string
	Description string
	Status      string
	Priority    string
	StartDate   string
	EndDate     string
}

func projectFormFrom(p project.Project) projectForm {
	return projectForm{
		Title:       p.Title,
		Description: p.Description,
		Status:      p.Status,
		Priority:    p.Priority,
		StartDate:   project.FormatDate(p.StartDate),
		EndDate:     project.FormatDate(p.EndDate),
	}
}

func parseProjectForm(form url.Values) projectForm {
	return projectForm{
		Title:       field(form, "title"),
		Description: field(form, "description"),
		Status:      field(form, "status"),
		Priority:    field(form, "priority"),
		StartDate:   field(form, "start_date"),
		EndDate:     field(form, "end_date"),
	}
}

func (f projectForm) input() (orchestrators.ProjectInput, validation.Errors) {
	var errs validation.Errors
	in := orchestrators.ProjectInput{
		Title:       f.Title,
		Description: f.Description,
		Status:      f.Status,
		Priority:    f.Priority,
		StartDate:   parseDateField(f.StartDate, "Start date", &errs),
		EndDate:     parseDateField(f.EndDate, "End date", &errs),
	}
	return in, errs
}

// --- Users ---

type userForm struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Role      string
	IsActive  bool
	Bio       string
	Phone     string
}

func userFormFrom(u user.User) userForm {
	return userForm{
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		IsActive:  u.IsActive,
		Bio:       u.Bio,
		Phone:     u.Phone,
	}
}

func parseUserForm(form url.Values) userForm {
	return userForm{
		Username:  field(form, "username"),
		Email:     field(form, "email"),
		FirstName: field(form, "first_name"),
		LastName:  field(form, "last_name"),
		Role:      field(form, "role"),
		IsActive:  checked(form, "is_active"),
		Bio:       field(form, "bio"),
		Phone:     field(form, "phone"),
	}
}

// --- Surveys ---

type questionForm struct {
	Text       string
	Type       string
	Options    string // one option per line
	IsRequired bool
}

type surveyForm struct {
	Title       string
	Description string
	StartDate   string
	EndDate     string
	IsActive    bool
	IsAnonymous bool
	Questions   []questionForm
}

func surveyFormFrom(s survey.Survey) surveyForm {
	f := surveyForm{
		Title:       s.Title,
		Description: s.Description,
		StartDate:   project.FormatDate(s.StartDate),
		EndDate:     project.FormatDate(s.EndDate),
		IsActive:    s.IsActive,
		IsAnonymous: s.IsAnonymous,
	}
	for _, q := range s.Questions {
		f.Questions = append(f.Questions, questionForm{
			Text:       q.Text,
			Type:       q.Type,
			Options:    strings.Join(q.Options, "\n"),
			IsRequired: q.IsRequired,
		})
	}
	return f
}

var questionFieldRe = regexp.MustCompile(`^questions\[(\d+)\]\[(text|type|options|required)\]$`)

// parseSurveyForm reads questions[<n>][text|type|options|required] fields.
// Indexes may have gaps after rows are removed in the browser; order follows the index.
func parseSurveyForm(form url.Values) surveyForm {
	f := surveyForm{
		Title:       field(form, "title"),
		Description: field(form, "description"),
		StartDate:   field(form, "start_date"),
		EndDate:     field(form, "end_date"),
		IsActive:    checked(form, "is_active"),
		IsAnonymous: checked(form, "is_anonymous"),
	}
	byIndex := make(map[int]*questionForm)
	for key := range form {
		m := questionFieldRe.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		i, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		q, ok := byIndex[i]
		if !ok {
			q = &questionForm{}
			byIndex[i] = q
		}
		switch m[2] {
		case "text":
			q.Text = field(form, key)
		case "type":
			q.Type = field(form, key)
		case "options":
			q.Options = form.Get(key)
		case "required":
			q.IsRequired = checked(form, key)
		}
	}
	indexes := make([]int, 0, len(byIndex))
	for i := range byIndex {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)
	for _, i := range indexes {
		q := byIndex[i]
		// Rows left completely blank are ignored rather than reported.
		if q.Text == "" && strings.TrimSpace(q.Options) == "" {
			continue
		}
		f.Questions = append(f.Questions, *q)
	}
	return f
}

func (f surveyForm) input() (orchestrators.SaveSurveyInput, validation.Errors) {
	var errs validation.Errors
	in := orchestrators.SaveSurveyInput{
		Title:       f.Title,
		Description: f.Description,
		StartDate:   parseDateField(f.StartDate, "Start date", &errs),
		EndDate:     parseDateField(f.EndDate, "End date", &errs),
		IsActive:    f.IsActive,
		IsAnonymous: f.IsAnonymous,
	}
	for _, q := range f.Questions {
		in.Questions = append(in.Questions, orchestrators.QuestionInput{
			Text:       q.Text,
			Type:       q.Type,
			Options:    survey.ParseOptions(q.Options),
			IsRequired: q.IsRequired,
		})
	}
	return in, errs
}

// parseAnswers reads answers[<question_id>] fields; checkbox questions post several values.
func parseAnswers(form url.Values) map[string][]string {
	out := make(map[string][]string)
	for key, values := range form {
		if !strings.HasPrefix(key, "answers[") || !strings.HasSuffix(key, "]") {
			continue
		}
		id := strings.TrimSuffix(strings.TrimPrefix(key, "answers["), "]")
		if id != "" {
			out[id] = values
		}
	}
	return out
}

// --- Training sessions ---

type sessionForm struct {
	Title           string
	Description     string
	SessionDate     string // datetime-local value
	DurationMinutes string
	Location        string
	InstructorID    string
	MaxParticipants string // empty = unlimited
}

func sessionFormFrom(s training.Session) sessionForm {
	f := sessionForm{
		Title:           s.Title,
		Description:     s.Description,
		DurationMinutes: strconv.Itoa(s.DurationMinutes),
		Location:        s.Location,
		InstructorID:    s.InstructorID,
	}
	if !s.SessionDate.IsZero() {
		f.SessionDate = s.SessionDate.Local().Format(training.DateTimeLayout)
	}
	if s.MaxParticipants > 0 {
		f.MaxParticipants = strconv.Itoa(s.MaxParticipants)
	}
	return f
}

func parseSessionForm(form url.Values) sessionForm {
	return sessionForm{
		Title:           field(form, "title"),
		Description:     field(form, "description"),
		SessionDate:     field(form, "session_date"),
		DurationMinutes: field(form, "duration_minutes"),
		Location:        field(form, "location"),
		InstructorID:    field(form, "instructor_id"),
		MaxParticipants: field(form, "max_participants"),
	}
}

func (f sessionForm) input() (orchestrators.SaveSessionInput, validation.Errors) {
	var errs validation.Errors
	in := orchestrators.SaveSessionInput{
		Title:        f.Title,
		Description:  f.Description,
		Location:     f.Location,
		InstructorID: f.InstructorID,
	}
	if f.SessionDate != "" {
		t, err := training.ParseDateTime(f.SessionDate)
		if err != nil {
			errs.Add("Session date must be a valid date and time")
		}
		in.SessionDate = t
	}
	if f.DurationMinutes != "" {
		n, err := strconv.Atoi(f.DurationMinutes)
		if err != nil {
			errs.Add("Duration must be a whole number of minutes")
		}
		in.DurationMinutes = n
	}
	if f.MaxParticipants != "" {
		n, err := strconv.Atoi(f.MaxParticipants)
		if err != nil {
			errs.Add("Maximum participants must be a whole number")
		}
		in.MaxParticipants = &n
	}
	return in, errs
}

var attendanceFieldRe = regexp.MustCompile(`^attendance\[([^\]]+)\]\[status\]$`)

// parseAttendance reads attendance[<user_id>][status] and attendance[<user_id>][notes] pairs.
func parseAttendance(form url.Values) []orchestrators.AttendanceMark {
	var marks []orchestrators.AttendanceMark
	for key := range form {
		m := attendanceFieldRe.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		marks = append(marks, orchestrators.AttendanceMark{
			UserID: m[1],
			Status: field(form, key),
			Notes:  field(form, "attendance["+m[1]+"][notes]"),
		})
	}
	sort.Slice(marks, func(i, j int) bool { return marks[i].UserID < marks[j].UserID })
	return marks
}

// --- Profile ---

type profileForm struct {
	FirstName string
	LastName  string
	Email     string
	Bio       string
	Phone     string
}

func profileFormFrom(u user.User) profileForm {
	return profileForm{FirstName: u.FirstName, LastName: u.LastName, Email: u.Email, Bio: u.Bio, Phone: u.Phone}
}

func parseProfileForm(form url.Values) profileForm {
	return profileForm{
		FirstName: field(form, "first_name"),
		LastName:  field(form, "last_name"),
		Email:     field(form, "email"),
		Bio:       field(form, "bio"),
		Phone:     field(form, "phone"),
	}
}
