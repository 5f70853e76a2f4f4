package web

import (
	"errors"
	"net/http"

	"glp/internal/adapters/http/middleware"
	"glp/internal/application/listutil"
	"glp/internal/application/orchestrators"
	"glp/internal/application/projections"
	"glp/internal/domain/permission"
	"glp/internal/domain/project"
	"glp/internal/domain/validation"
)

var projectFilterKeys = []string{"status", "priority", "my_projects"}

func (s *Server) projectDeps() orchestrators.ProjectDeps {
	return orchestrators.ProjectDeps{
		ProjectStore: s.stores.Projects,
		Activity:     s.activity,
		Notifier:     s.notifier,
		GenerateID:   s.generateID,
		Now:          s.now,
	}
}

func (s *Server) handleProjectList(w http.ResponseWriter, r *http.Request) {
	res, err := projections.QueryProjectList(r.Context(), projections.ProjectListQuery{
		ListParams: listutil.ParseListParams(r.URL.Query(), projectFilterKeys),
		ViewerID:   currentSession(r).UserID,
	}, projections.ProjectListDeps{ProjectStore: s.stores.Projects})
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	v := s.page(w, r, "Projects", "projects")
	v.Data = struct {
		projections.ProjectListResult
		Statuses   []string
		Priorities []string
	}{res, project.ValidStatuses, project.ValidPriorities}
	s.render(w, http.StatusOK, "projects_list.html", v)
}

func (s *Server) handleProjectDetail(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	res, err := projections.QueryProjectDetail(r.Context(), projections.ProjectDetailQuery{
		ProjectID: pathID(r),
		ViewerID:  sess.UserID,
		Now:       s.now(),
	}, projections.ProjectDetailDeps{
		ProjectStore:    s.stores.Projects,
		UserStore:       s.stores.Users,
		AssignmentStore: s.stores.Assignments,
	})
	if isNotFound(err) {
		s.redirect(w, r, "/projects", middleware.FlashError, "Project not found")
		return
	}
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	v := s.page(w, r, res.Project.Title, "projects")
	v.Data = struct {
		projections.ProjectDetailResult
		CanManage bool
	}{res, s.canEditProject(sess, res.Project)}
	s.render(w, http.StatusOK, "projects_detail.html", v)
}

type projectFormData struct {
	ID         string
	Form       projectForm
	Statuses   []string
	Priorities []string
}

func (s *Server) renderProjectForm(w http.ResponseWriter, r *http.Request, status int, data projectFormData, errs []string) {
	title := "New project"
	if data.ID != "" {
		title = "Edit project"
	}
	v := s.page(w, r, title, "projects")
	v.Errors = errs
	data.Statuses = project.ValidStatuses
	data.Priorities = project.ValidPriorities
	v.Data = data
	s.render(w, status, "projects_form.html", v)
}

func (s *Server) handleProjectNew(w http.ResponseWriter, r *http.Request) {
	s.renderProjectForm(w, r, http.StatusOK, projectFormData{
		Form: projectForm{Status: project.StatusPlanning, Priority: project.PriorityMedium},
	}, nil)
}

func (s *Server) handleProjectCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	form := parseProjectForm(r.PostForm)
	in, errs := form.input()
	if len(errs) > 0 {
		s.renderProjectForm(w, r, http.StatusUnprocessableEntity, projectFormData{Form: form}, errs)
		return
	}
	p, err := orchestrators.ExecuteCreateProject(r.Context(), orchestrators.CreateProjectInput{
		ProjectInput: in,
		ActorID:      currentSession(r).UserID,
	}, s.projectDeps())
	if msgs := validation.Messages(err); msgs != nil {
		s.renderProjectForm(w, r, http.StatusUnprocessableEntity, projectFormData{Form: form}, msgs)
		return
	}
	if err != nil {
		s.saveFailed(w, r, err, "/projects/new")
		return
	}
	s.redirect(w, r, "/projects/"+p.ID, middleware.FlashSuccess, "Project created successfully")
}

// canEditProject reports whether the viewer created the project or manages projects.
func (s *Server) canEditProject(sess middleware.Session, p project.Project) bool {
	return p.CreatedBy == sess.UserID || s.perms.Has(sess.Role, permission.ProjectManagement)
}

func (s *Server) handleProjectEdit(w http.ResponseWriter, r *http.Request) {
	p, err := s.stores.Projects.GetByID(r.Context(), pathID(r))
	if isNotFound(err) {
		s.redirect(w, r, "/projects", middleware.FlashError, "Project not found")
		return
	}
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if !s.canEditProject(currentSession(r), p) {
		s.redirect(w, r, "/projects/"+p.ID, middleware.FlashError, middleware.MsgPermissionDenied)
		return
	}
	s.renderProjectForm(w, r, http.StatusOK, projectFormData{ID: p.ID, Form: projectFormFrom(p)}, nil)
}

func (s *Server) handleProjectUpdate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	id := pathID(r)
	sess := currentSession(r)
	form := parseProjectForm(r.PostForm)
	in, errs := form.input()
	if len(errs) > 0 {
		s.renderProjectForm(w, r, http.StatusUnprocessableEntity, projectFormData{ID: id, Form: form}, errs)
		return
	}
	p, err := orchestrators.ExecuteUpdateProject(r.Context(), orchestrators.UpdateProjectInput{
		ProjectID:    id,
		ProjectInput: in,
		ActorID:      sess.UserID,
		CanManage:    s.perms.Has(sess.Role, permission.ProjectManagement),
	}, s.projectDeps())
	if msgs := validation.Messages(err); msgs != nil {
		s.renderProjectForm(w, r, http.StatusUnprocessableEntity, projectFormData{ID: id, Form: form}, msgs)
		return
	}
	if err != nil {
		s.actionFailed(w, r, err, "/projects/"+id, "/projects", "Project")
		return
	}
	s.redirect(w, r, "/projects/"+p.ID, middleware.FlashSuccess, "Project updated successfully")
}

// handleProjectAction handles the status actions plus join_project and leave_project.
func (s *Server) handleProjectAction(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	id := pathID(r)
	back := "/projects/" + id
	sess := currentSession(r)
	action := r.PostFormValue("action")

	var p project.Project
	var err error
	var msg string
	switch action {
	case "join_project", "leave_project":
		in := orchestrators.MembershipInput{ProjectID: id, UserID: sess.UserID, UserName: s.displayName(r, sess)}
		if action == "join_project" {
			p, err = orchestrators.ExecuteJoinProject(ctx, in, s.projectDeps())
			msg = "You have joined " + p.Title
		} else {
			p, err = orchestrators.ExecuteLeaveProject(ctx, in, s.projectDeps())
			msg = "You have left " + p.Title
		}
	default:
		p, err = orchestrators.ExecuteProjectAction(ctx, orchestrators.ProjectActionInput{
			ProjectID: id,
			Action:    action,
			ActorID:   sess.UserID,
			CanManage: s.perms.Has(sess.Role, permission.ProjectManagement),
		}, s.projectDeps())
		msg = "Project status changed to " + project.StatusLabel(p.Status)
	}
	if errors.Is(err, orchestrators.ErrForbidden) {
		s.redirect(w, r, back, middleware.FlashError, middleware.MsgPermissionDenied)
		return
	}
	if err != nil {
		s.actionFailed(w, r, err, back, "/projects", "Project")
		return
	}
	s.redirect(w, r, back, middleware.FlashSuccess, msg)
}

// displayName returns the viewer's full name, falling back to the username.
func (s *Server) displayName(r *http.Request, sess middleware.Session) string {
	u, err := s.stores.Users.GetByID(r.Context(), sess.UserID)
	if err != nil {
		return sess.Username
	}
	if name := u.FullName(); name != "" {
		return name
	}
	return sess.Username
}
