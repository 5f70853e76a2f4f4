package web

import (
	"net/http"

	"glp/internal/adapters/http/middleware"
	"glp/internal/application/listutil"
	"glp/internal/application/orchestrators"
	"glp/internal/application/projections"
	"glp/internal/domain/user"
	"glp/internal/domain/validation"
)

var userFilterKeys = []string{"role", "active"}

func (s *Server) userDeps() orchestrators.SaveUserDeps {
	return orchestrators.SaveUserDeps{
		UserStore:  s.stores.Users,
		Activity:   s.activity,
		GenerateID: s.generateID,
		Now:        s.now,
	}
}

func (s *Server) handleUserList(w http.ResponseWriter, r *http.Request) {
	res, err := projections.QueryUserList(r.Context(), projections.UserListQuery{
		ListParams: listutil.ParseListParams(r.URL.Query(), userFilterKeys),
	}, projections.UserListDeps{UserStore: s.stores.Users})
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	v := s.page(w, r, "Users", "users")
	v.Data = struct {
		projections.UserListResult
		Roles []string
	}{res, user.ValidRoles}
	s.render(w, http.StatusOK, "users_list.html", v)
}

func (s *Server) handleUserDetail(w http.ResponseWriter, r *http.Request) {
	res, err := projections.QueryProfile(r.Context(), projections.ProfileQuery{
		UserID: pathID(r),
		Now:    s.now(),
	}, projections.ProfileDeps{
		UserStore:       s.stores.Users,
		ProjectStore:    s.stores.Projects,
		AssignmentStore: s.stores.Assignments,
		TrainingStore:   s.stores.Training,
	})
	if isNotFound(err) {
		s.redirect(w, r, "/users", middleware.FlashError, "User not found")
		return
	}
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	v := s.page(w, r, res.User.FullName(), "users")
	v.Data = res
	s.render(w, http.StatusOK, "users_detail.html", v)
}

type userFormData struct {
	ID    string // empty when creating
	Form  userForm
	Roles []string
}

func (s *Server) renderUserForm(w http.ResponseWriter, r *http.Request, status int, data userFormData, errs []string) {
	title := "New user"
	if data.ID != "" {
		title = "Edit user"
	}
	v := s.page(w, r, title, "users")
	v.Errors = errs
	data.Roles = user.ValidRoles
	v.Data = data
	s.render(w, status, "users_form.html", v)
}

func (s *Server) handleUserNew(w http.ResponseWriter, r *http.Request) {
	s.renderUserForm(w, r, http.StatusOK, userFormData{
		Form: userForm{Role: user.RoleParticipant, IsActive: true},
	}, nil)
}

func (s *Server) handleUserEdit(w http.ResponseWriter, r *http.Request) {
	u, err := s.stores.Users.GetByID(r.Context(), pathID(r))
	if isNotFound(err) {
		s.redirect(w, r, "/users", middleware.FlashError, "User not found")
		return
	}
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	s.renderUserForm(w, r, http.StatusOK, userFormData{ID: u.ID, Form: userFormFrom(u)}, nil)
}

func (s *Server) handleUserCreate(w http.ResponseWriter, r *http.Request) {
	s.saveUser(w, r, "")
}

func (s *Server) handleUserUpdate(w http.ResponseWriter, r *http.Request) {
	s.saveUser(w, r, pathID(r))
}

func (s *Server) saveUser(w http.ResponseWriter, r *http.Request, id string) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	form := parseUserForm(r.PostForm)
	u, err := orchestrators.ExecuteSaveUser(r.Context(), orchestrators.SaveUserInput{
		UserID:          id,
		Username:        form.Username,
		Email:           form.Email,
		FirstName:       form.FirstName,
		LastName:        form.LastName,
		Role:            form.Role,
		IsActive:        form.IsActive,
		Bio:             form.Bio,
		Phone:           form.Phone,
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
		ActorID:         currentSession(r).UserID,
	}, s.userDeps())
	if msgs := validation.Messages(err); msgs != nil {
		s.renderUserForm(w, r, http.StatusUnprocessableEntity, userFormData{ID: id, Form: form}, msgs)
		return
	}
	if err != nil {
		back := "/users/new"
		if id != "" {
			back = "/users/" + id + "/edit"
		}
		s.actionFailed(w, r, err, back, "/users", "User")
		return
	}
	msg := "User updated successfully"
	if id == "" {
		msg = "User created successfully"
	}
	s.redirect(w, r, "/users/"+u.ID, middleware.FlashSuccess, msg)
}

// handleUserAction handles action=activate and action=deactivate.
func (s *Server) handleUserAction(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	id := pathID(r)
	back := "/users/" + id
	var active bool
	switch r.PostFormValue("action") {
	case "activate":
		active = true
	case "deactivate":
		active = false
	default:
		s.redirect(w, r, back, middleware.FlashError, "Invalid action")
		return
	}
	u, err := orchestrators.ExecuteSetUserActive(r.Context(), orchestrators.SetUserActiveInput{
		UserID:  id,
		Active:  active,
		ActorID: currentSession(r).UserID,
	}, orchestrators.SetUserActiveDeps{UserStore: s.stores.Users, Activity: s.activity})
	if err != nil {
		s.actionFailed(w, r, err, back, "/users", "User")
		return
	}
	msg := u.Username + " has been deactivated"
	if active {
		msg = u.Username + " has been activated"
	}
	s.redirect(w, r, back, middleware.FlashSuccess, msg)
}
