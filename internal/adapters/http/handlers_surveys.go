package web

import (
	"net/http"

	"glp/internal/adapters/http/middleware"
	"glp/internal/application/listutil"
	"glp/internal/application/orchestrators"
	"glp/internal/application/projections"
	"glp/internal/domain/permission"
	"glp/internal/domain/survey"
	"glp/internal/domain/validation"
)

var surveyFilterKeys = []string{"active"}

func (s *Server) surveyDeps() orchestrators.SurveyDeps {
	return orchestrators.SurveyDeps{
		SurveyStore: s.stores.Surveys,
		Users:       s.stores.Users,
		Activity:    s.activity,
		Notifier:    s.notifier,
		GenerateID:  s.generateID,
		Now:         s.now,
	}
}

func (s *Server) handleSurveyList(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	res, err := projections.QuerySurveyList(r.Context(), projections.SurveyListQuery{
		ListParams: listutil.ParseListParams(r.URL.Query(), surveyFilterKeys),
		ViewerID:   sess.UserID,
		Manage:     s.perms.Has(sess.Role, permission.SurveyManagement),
		Now:        s.now(),
	}, projections.SurveyListDeps{SurveyStore: s.stores.Surveys})
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	// Anonymous submissions are not linked to the user; the session remembers them for display.
	for i := range res.Surveys {
		if res.Surveys[i].IsAnonymous && sess.SubmittedAnonymously(res.Surveys[i].ID) {
			res.Surveys[i].Responded = true
		}
	}
	v := s.page(w, r, "Surveys", "surveys")
	v.Data = res
	s.render(w, http.StatusOK, "surveys_list.html", v)
}

type surveyFormData struct {
	ID    string
	Form  surveyForm
	Types []string
}

func (s *Server) renderSurveyForm(w http.ResponseWriter, r *http.Request, status int, data surveyFormData, errs []string) {
	title := "New survey"
	if data.ID != "" {
		title = "Edit survey"
	}
	if len(data.Form.Questions) == 0 {
		data.Form.Questions = []questionForm{{Type: survey.TypeText}}
	}
	data.Types = survey.ValidTypes
	v := s.page(w, r, title, "surveys")
	v.Errors = errs
	v.Data = data
	s.render(w, status, "surveys_form.html", v)
}

func (s *Server) handleSurveyNew(w http.ResponseWriter, r *http.Request) {
	s.renderSurveyForm(w, r, http.StatusOK, surveyFormData{Form: surveyForm{IsActive: true}}, nil)
}

func (s *Server) handleSurveyEdit(w http.ResponseWriter, r *http.Request) {
	sv, err := s.stores.Surveys.GetByID(r.Context(), pathID(r))
	if isNotFound(err) {
		s.redirect(w, r, "/surveys", middleware.FlashError, "Survey not found")
		return
	}
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	s.renderSurveyForm(w, r, http.StatusOK, surveyFormData{ID: sv.ID, Form: surveyFormFrom(sv)}, nil)
}

func (s *Server) handleSurveyCreate(w http.ResponseWriter, r *http.Request) {
	s.saveSurvey(w, r, "")
}

func (s *Server) handleSurveyUpdate(w http.ResponseWriter, r *http.Request) {
	s.saveSurvey(w, r, pathID(r))
}

// saveSurvey replaces the survey and all of its questions in one transaction.
func (s *Server) saveSurvey(w http.ResponseWriter, r *http.Request, id string) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	form := parseSurveyForm(r.PostForm)
	in, errs := form.input()
	if len(errs) > 0 {
		s.renderSurveyForm(w, r, http.StatusUnprocessableEntity, surveyFormData{ID: id, Form: form}, errs)
		return
	}
	in.SurveyID = id
	in.ActorID = currentSession(r).UserID
	_, err := orchestrators.ExecuteSaveSurvey(r.Context(), in, s.surveyDeps())
	if msgs := validation.Messages(err); msgs != nil {
		s.renderSurveyForm(w, r, http.StatusUnprocessableEntity, surveyFormData{ID: id, Form: form}, msgs)
		return
	}
	if err != nil {
		back := "/surveys/new"
		if id != "" {
			back = "/surveys/" + id + "/edit"
		}
		s.actionFailed(w, r, err, back, "/surveys", "Survey")
		return
	}
	msg := "Survey updated successfully"
	if id == "" {
		msg = "Survey created successfully"
	}
	s.redirect(w, r, "/surveys", middleware.FlashSuccess, msg)
}

type surveyTakeData struct {
	projections.SurveyTakeResult
	Answers map[string][]string
}

func (s *Server) loadSurveyTake(w http.ResponseWriter, r *http.Request) (projections.SurveyTakeResult, bool) {
	sess := currentSession(r)
	res, err := projections.QuerySurveyTake(r.Context(), projections.SurveyTakeQuery{
		SurveyID: pathID(r),
		ViewerID: sess.UserID,
		Now:      s.now(),
	}, projections.SurveyTakeDeps{SurveyStore: s.stores.Surveys})
	if isNotFound(err) {
		s.redirect(w, r, "/surveys", middleware.FlashError, "Survey not found")
		return res, false
	}
	if err != nil {
		s.internalError(w, r, err)
		return res, false
	}
	if res.Survey.IsAnonymous && sess.SubmittedAnonymously(res.Survey.ID) {
		res.AlreadySubmitted = true
	}
	return res, true
}

func (s *Server) handleSurveyTake(w http.ResponseWriter, r *http.Request) {
	res, ok := s.loadSurveyTake(w, r)
	if !ok {
		return
	}
	if !res.IsOpen {
		s.redirect(w, r, "/surveys", middleware.FlashError, "This survey is not currently open")
		return
	}
	if res.AlreadySubmitted {
		s.redirect(w, r, "/surveys", middleware.FlashInfo, "You have already submitted this survey")
		return
	}
	v := s.page(w, r, res.Survey.Title, "surveys")
	v.Data = surveyTakeData{SurveyTakeResult: res, Answers: map[string][]string{}}
	s.render(w, http.StatusOK, "surveys_take.html", v)
}

func (s *Server) handleSurveySubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	sess := currentSession(r)
	id := pathID(r)
	answers := parseAnswers(r.PostForm)
	res, err := orchestrators.ExecuteSubmitSurvey(r.Context(), orchestrators.SubmitSurveyInput{
		SurveyID: id,
		UserID:   sess.UserID,
		Answers:  answers,
	}, s.surveyDeps())
	if msgs := validation.Messages(err); msgs != nil {
		take, ok := s.loadSurveyTake(w, r)
		if !ok {
			return
		}
		v := s.page(w, r, take.Survey.Title, "surveys")
		v.Errors = msgs
		v.Data = surveyTakeData{SurveyTakeResult: take, Answers: answers}
		s.render(w, http.StatusUnprocessableEntity, "surveys_take.html", v)
		return
	}
	if err != nil {
		s.actionFailed(w, r, err, "/surveys", "/surveys", "Survey")
		return
	}
	if res.Anonymous {
		s.sessions.MarkAnonymousSubmission(sess.Token, id)
	}
	s.redirect(w, r, "/surveys", middleware.FlashSuccess, "Thank you for completing "+res.Survey.Title)
}

func (s *Server) handleSurveyResults(w http.ResponseWriter, r *http.Request) {
	res, err := projections.QuerySurveyResults(r.Context(), pathID(r),
		projections.SurveyResultsDeps{SurveyStore: s.stores.Surveys})
	if isNotFound(err) {
		s.redirect(w, r, "/surveys", middleware.FlashError, "Survey not found")
		return
	}
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	v := s.page(w, r, "Results: "+res.Survey.Title, "surveys")
	v.Data = res
	s.render(w, http.StatusOK, "surveys_results.html", v)
}
