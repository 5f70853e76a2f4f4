package web

import (
	"fmt"
	"net/http"

	"glp/internal/adapters/http/middleware"
	"glp/internal/application/listutil"
	"glp/internal/application/orchestrators"
	"glp/internal/application/projections"
	"glp/internal/domain/permission"
	"glp/internal/domain/validation"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	res, err := projections.QueryDashboard(r.Context(), projections.DashboardQuery{
		ViewerID:       sess.UserID,
		CanViewReports: s.perms.Has(sess.Role, permission.ViewReports),
		Now:            s.now(),
	}, projections.DashboardDeps{
		ProjectStore:      s.stores.Projects,
		TrainingStore:     s.stores.Training,
		SurveyStore:       s.stores.Surveys,
		NotificationStore: s.stores.Notifications,
		AssignmentStore:   s.stores.Assignments,
		ActivityStore:     s.stores.Activity,
	})
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	v := s.page(w, r, "Dashboard", "dashboard")
	v.Data = res
	s.render(w, http.StatusOK, "dashboard.html", v)
}

// --- Profile ---

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	res, err := projections.QueryProfile(r.Context(), projections.ProfileQuery{
		UserID: sess.UserID,
		Now:    s.now(),
	}, projections.ProfileDeps{
		UserStore:       s.stores.Users,
		ProjectStore:    s.stores.Projects,
		AssignmentStore: s.stores.Assignments,
		TrainingStore:   s.stores.Training,
	})
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	v := s.page(w, r, "My profile", "profile")
	v.Data = res
	s.render(w, http.StatusOK, "profile.html", v)
}

type profileEditData struct {
	Form     profileForm
	Username string
}

func (s *Server) handleProfileEdit(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	u, err := s.stores.Users.GetByID(r.Context(), sess.UserID)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	v := s.page(w, r, "Edit profile", "profile")
	v.Data = profileEditData{Form: profileFormFrom(u), Username: u.Username}
	s.render(w, http.StatusOK, "profile_edit.html", v)
}

// handleProfileUpdate handles action=update_profile and action=change_password.
func (s *Server) handleProfileUpdate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	sess := currentSession(r)
	ctx := r.Context()
	form := parseProfileForm(r.PostForm)

	var err error
	var success string
	switch r.PostFormValue("action") {
	case "update_profile":
		_, err = orchestrators.ExecuteUpdateProfile(ctx, orchestrators.UpdateProfileInput{
			UserID:    sess.UserID,
			FirstName: form.FirstName,
			LastName:  form.LastName,
			Email:     form.Email,
			Bio:       form.Bio,
			Phone:     form.Phone,
		}, orchestrators.UpdateProfileDeps{UserStore: s.stores.Users, Activity: s.activity})
		success = "Profile updated successfully"
	case "change_password":
		err = orchestrators.ExecuteChangePassword(ctx, orchestrators.ChangePasswordInput{
			UserID:          sess.UserID,
			CurrentPassword: r.PostFormValue("current_password"),
			NewPassword:     r.PostFormValue("new_password"),
			ConfirmPassword: r.PostFormValue("confirm_password"),
		}, orchestrators.ChangePasswordDeps{UserStore: s.stores.Users, Activity: s.activity})
		success = "Password changed successfully"
		if err != nil {
			// Password fields are never echoed; show the stored profile instead.
			if u, lookupErr := s.stores.Users.GetByID(ctx, sess.UserID); lookupErr == nil {
				form = profileFormFrom(u)
			}
		}
	default:
		s.redirect(w, r, "/profile/edit", middleware.FlashError, "Invalid action")
		return
	}

	if err == nil {
		s.redirect(w, r, "/profile", middleware.FlashSuccess, success)
		return
	}
	msgs := validation.Messages(err)
	if msgs == nil {
		msg, ok := userMessage(err)
		if !ok {
			s.saveFailed(w, r, err, "/profile/edit")
			return
		}
		msgs = []string{msg}
	}
	v := s.page(w, r, "Edit profile", "profile")
	v.Errors = msgs
	v.Data = profileEditData{Form: form, Username: sess.Username}
	s.render(w, http.StatusUnprocessableEntity, "profile_edit.html", v)
}

// --- Notifications ---

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	q := r.URL.Query()
	unreadOnly := q.Get("unread") == "1"
	res, err := projections.QueryNotificationList(r.Context(), projections.NotificationListQuery{
		UserID:     sess.UserID,
		Page:       listutil.ParsePage(q),
		UnreadOnly: unreadOnly,
	}, projections.NotificationListDeps{NotificationStore: s.stores.Notifications})
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	filter := listutil.FilterParams{Filters: map[string]string{}}
	if unreadOnly {
		filter.Filters["unread"] = "1"
	}
	v := s.page(w, r, "Notifications", "notifications")
	v.Data = struct {
		projections.NotificationListResult
		Filter     listutil.FilterParams
		UnreadOnly bool
	}{res, filter, unreadOnly}
	s.render(w, http.StatusOK, "notifications.html", v)
}

// handleNotificationAction handles action=mark_read (with notification_id) and action=mark_all_read.
func (s *Server) handleNotificationAction(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	sess := currentSession(r)
	input := orchestrators.MarkNotificationsInput{UserID: sess.UserID}
	switch r.PostFormValue("action") {
	case "mark_read":
		input.NotificationID = r.PostFormValue("notification_id")
		if input.NotificationID == "" {
			s.redirect(w, r, "/notifications", middleware.FlashError, "Invalid action")
			return
		}
	case "mark_all_read":
	default:
		s.redirect(w, r, "/notifications", middleware.FlashError, "Invalid action")
		return
	}
	n, err := orchestrators.ExecuteMarkNotifications(r.Context(), input,
		orchestrators.MarkNotificationsDeps{NotificationStore: s.stores.Notifications})
	if err != nil {
		s.saveFailed(w, r, err, "/notifications")
		return
	}
	msg := "Notification marked as read"
	if input.NotificationID == "" {
		msg = fmt.Sprintf("%d notifications marked as read", n)
	}
	s.redirect(w, r, "/notifications", middleware.FlashSuccess, msg)
}
