package web

import (
	"fmt"
	"net/http"
	"strconv"

	"glp/internal/adapters/http/middleware"
	"glp/internal/application/listutil"
	"glp/internal/application/orchestrators"
	"glp/internal/application/projections"
	"glp/internal/domain/permission"
	"glp/internal/domain/training"
	"glp/internal/domain/user"
	"glp/internal/domain/validation"
)

var sessionFilterKeys = []string{"status", "instructor_id", "date_filter", "mine"}

func (s *Server) sessionDeps() orchestrators.SessionDeps {
	return orchestrators.SessionDeps{
		TrainingStore: s.stores.Training,
		UserStore:     s.stores.Users,
		Activity:      s.activity,
		Notifier:      s.notifier,
		GenerateID:    s.generateID,
		Now:           s.now,
	}
}

func (s *Server) handleSessionList(w http.ResponseWriter, r *http.Request) {
	res, err := projections.QuerySessionList(r.Context(), projections.SessionListQuery{
		ListParams: listutil.ParseListParams(r.URL.Query(), sessionFilterKeys),
		ViewerID:   currentSession(r).UserID,
		Now:        s.now(),
	}, projections.SessionListDeps{TrainingStore: s.stores.Training, UserStore: s.stores.Users})
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	v := s.page(w, r, "Training sessions", "sessions")
	v.Data = struct {
		projections.SessionListResult
		Statuses []string
	}{res, training.ValidStatuses}
	s.render(w, http.StatusOK, "sessions_list.html", v)
}

func (s *Server) handleSessionDetail(w http.ResponseWriter, r *http.Request) {
	res, err := projections.QuerySessionDetail(r.Context(), projections.SessionDetailQuery{
		SessionID: pathID(r),
		ViewerID:  currentSession(r).UserID,
	}, projections.SessionDetailDeps{TrainingStore: s.stores.Training, UserStore: s.stores.Users})
	if isNotFound(err) {
		s.redirect(w, r, "/sessions", middleware.FlashError, "Training session not found")
		return
	}
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	v := s.page(w, r, res.Session.Title, "sessions")
	v.Data = struct {
		projections.SessionDetailResult
		AttendanceStatuses []string
	}{res, training.ValidAttendanceStatuses}
	s.render(w, http.StatusOK, "sessions_detail.html", v)
}

type sessionFormData struct {
	ID          string
	Form        sessionForm
	Instructors []user.User
}

func (s *Server) renderSessionForm(w http.ResponseWriter, r *http.Request, status int, data sessionFormData, errs []string) {
	staff, err := projections.ListStaff(r.Context(), s.stores.Users)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	title := "New training session"
	if data.ID != "" {
		title = "Edit training session"
	}
	data.Instructors = staff
	v := s.page(w, r, title, "sessions")
	v.Errors = errs
	v.Data = data
	s.render(w, status, "sessions_form.html", v)
}

func (s *Server) handleSessionNew(w http.ResponseWriter, r *http.Request) {
	s.renderSessionForm(w, r, http.StatusOK, sessionFormData{
		Form: sessionForm{DurationMinutes: "60", InstructorID: currentSession(r).UserID},
	}, nil)
}

func (s *Server) handleSessionEdit(w http.ResponseWriter, r *http.Request) {
	ts, err := s.stores.Training.GetByID(r.Context(), pathID(r))
	if isNotFound(err) {
		s.redirect(w, r, "/sessions", middleware.FlashError, "Training session not found")
		return
	}
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	s.renderSessionForm(w, r, http.StatusOK, sessionFormData{ID: ts.ID, Form: sessionFormFrom(ts)}, nil)
}

func (s *Server) handleSessionCreate(w http.ResponseWriter, r *http.Request) {
	s.saveSession(w, r, "")
}

func (s *Server) handleSessionUpdate(w http.ResponseWriter, r *http.Request) {
	s.saveSession(w, r, pathID(r))
}

func (s *Server) saveSession(w http.ResponseWriter, r *http.Request, id string) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	form := parseSessionForm(r.PostForm)
	in, errs := form.input()
	if len(errs) > 0 {
		s.renderSessionForm(w, r, http.StatusUnprocessableEntity, sessionFormData{ID: id, Form: form}, errs)
		return
	}
	in.SessionID = id
	in.ActorID = currentSession(r).UserID
	ts, err := orchestrators.ExecuteSaveSession(r.Context(), in, s.sessionDeps())
	if msgs := validation.Messages(err); msgs != nil {
		s.renderSessionForm(w, r, http.StatusUnprocessableEntity, sessionFormData{ID: id, Form: form}, msgs)
		return
	}
	if err != nil {
		back := "/sessions/new"
		if id != "" {
			back = "/sessions/" + id + "/edit"
		}
		s.actionFailed(w, r, err, back, "/sessions", "Training session")
		return
	}
	msg := "Training session updated successfully"
	if id == "" {
		msg = "Training session created successfully"
	}
	s.redirect(w, r, "/sessions/"+ts.ID, middleware.FlashSuccess, msg)
}

// handleSessionAction handles status changes, attendance marking, bulk registration
// and self registration. Everything except register/cancel_registration needs training_management.
func (s *Server) handleSessionAction(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	id := pathID(r)
	back := "/sessions/" + id
	sess := currentSession(r)
	action := r.PostFormValue("action")
	deps := s.sessionDeps()

	if action == "register" || action == "cancel_registration" {
		in := orchestrators.SelfRegistrationInput{SessionID: id, UserID: sess.UserID}
		var ts training.Session
		var err error
		msg := ""
		if action == "register" {
			ts, err = orchestrators.ExecuteRegisterSelf(ctx, in, deps)
			msg = "You are registered for " + ts.Title
		} else {
			ts, err = orchestrators.ExecuteCancelRegistration(ctx, in, deps)
			msg = "Your registration for " + ts.Title + " has been cancelled"
		}
		if err != nil {
			s.actionFailed(w, r, err, back, "/sessions", "Training session")
			return
		}
		s.redirect(w, r, back, middleware.FlashSuccess, msg)
		return
	}

	if !s.perms.Has(sess.Role, permission.TrainingManagement) {
		s.redirect(w, r, back, middleware.FlashError, middleware.MsgPermissionDenied)
		return
	}

	var msg string
	var err error
	switch action {
	case "mark_attendance":
		var n int
		n, err = orchestrators.ExecuteMarkAttendance(ctx, orchestrators.MarkAttendanceInput{
			SessionID: id,
			Marks:     parseAttendance(r.PostForm),
			ActorID:   sess.UserID,
		}, deps)
		msg = fmt.Sprintf("Attendance updated for %d participants", n)
	case "bulk_register":
		var n int
		n, err = orchestrators.ExecuteBulkRegister(ctx, orchestrators.BulkRegisterInput{
			SessionID: id,
			UserIDs:   r.PostForm["user_ids[]"],
			ActorID:   sess.UserID,
		}, deps)
		msg = fmt.Sprintf("%d participants registered", n)
	default:
		var ts training.Session
		ts, err = orchestrators.ExecuteSessionAction(ctx, orchestrators.SessionActionInput{
			SessionID: id,
			Action:    action,
			ActorID:   sess.UserID,
		}, deps)
		msg = "Session status changed to " + ts.Status
	}
	if err != nil {
		s.actionFailed(w, r, err, back, "/sessions", "Training session")
		return
	}
	s.redirect(w, r, back, middleware.FlashSuccess, msg)
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, _ := strconv.Atoi(q.Get("year"))
	month, _ := strconv.Atoi(q.Get("month"))
	res, err := projections.QueryCalendar(r.Context(), projections.CalendarQuery{
		Year:  year,
		Month: month,
		Now:   s.now(),
	}, projections.CalendarDeps{TrainingStore: s.stores.Training})
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	v := s.page(w, r, "Training calendar", "sessions")
	v.Data = res
	s.render(w, http.StatusOK, "calendar.html", v)
}
