package web

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"

	"glp/internal/adapters/http/middleware"
	"glp/internal/application/orchestrators"
	"glp/internal/domain/project"
	"glp/internal/domain/survey"
	"glp/internal/domain/training"
	"glp/internal/domain/user"
	"glp/internal/domain/validation"
)

// User-facing messages for unexpected failures. Details only go to the log.
const (
	msgSaveFailed = "An error occurred while saving data. Please try again."
	msgLoadFailed = "An error occurred while loading data. Please try again."
	msgCSRFFailed = "Security token mismatch. Please reload the page and try again."
)

// expectedErrors are outcomes shown to the user as they are.
var expectedErrors = []error{
	orchestrators.ErrForbidden,
	orchestrators.ErrCannotDeactivateSelf,
	orchestrators.ErrCurrentPasswordWrong,
	project.ErrInvalidAction,
	project.ErrInvalidTransition,
	project.ErrNotJoinable,
	project.ErrAlreadyMember,
	project.ErrNotMember,
	project.ErrCreatorCannotLeave,
	training.ErrInvalidAction,
	training.ErrInvalidTransition,
	training.ErrInvalidAttendance,
	training.ErrSessionFull,
	training.ErrNotOpenForSignup,
	training.ErrAlreadyRegistered,
	training.ErrNotRegistered,
	survey.ErrNotOpen,
	survey.ErrAlreadySubmitted,
	user.ErrInactive,
}

// userMessage returns the capitalised message of an expected error.
func userMessage(err error) (string, bool) {
	for _, e := range expectedErrors {
		if errors.Is(err, e) {
			return capitalise(e.Error()), true
		}
	}
	return "", false
}

func capitalise(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// isNotFound matches both orchestrator and store not-found errors.
func isNotFound(err error) bool {
	return errors.Is(err, orchestrators.ErrNotFound) || errors.Is(err, sql.ErrNoRows)
}

// currentSession returns the session of a request that passed RequireLogin or RequirePermission.
func currentSession(r *http.Request) middleware.Session {
	sess, _ := middleware.SessionFrom(r.Context())
	return sess
}

func pathID(r *http.Request) string {
	return mux.Vars(r)["id"]
}

// redirect sets a flash message and sends a 303 to url.
func (s *Server) redirect(w http.ResponseWriter, r *http.Request, url, kind, message string) {
	if message != "" {
		s.flash.Set(w, kind, message)
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// internalError logs the real error and renders a generic page.
func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("internal_error", "request_id", middleware.RequestID(r.Context()), "method", r.Method, "path", r.URL.Path, "error", err.Error())
	s.renderError(w, r, http.StatusInternalServerError, msgLoadFailed)
}

// saveFailed logs a persistence failure and sends the user back with a generic message.
func (s *Server) saveFailed(w http.ResponseWriter, r *http.Request, err error, back string) {
	slog.Error("save_failed", "request_id", middleware.RequestID(r.Context()), "method", r.Method, "path", r.URL.Path, "error", err.Error())
	s.redirect(w, r, back, middleware.FlashError, msgSaveFailed)
}

// actionFailed maps an orchestrator error from a POST action to a redirect:
// not found goes to list, validation and expected errors go back with their message.
// Anything else is logged and reported generically.
func (s *Server) actionFailed(w http.ResponseWriter, r *http.Request, err error, back, list, what string) {
	if isNotFound(err) {
		s.redirect(w, r, list, middleware.FlashError, what+" not found")
		return
	}
	if msgs := validation.Messages(err); msgs != nil {
		s.redirect(w, r, back, middleware.FlashError, strings.Join(msgs, " "))
		return
	}
	if msg, ok := userMessage(err); ok {
		s.redirect(w, r, back, middleware.FlashError, msg)
		return
	}
	s.saveFailed(w, r, err, back)
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	v := s.page(w, r, http.StatusText(status), "")
	v.Data = struct {
		Status  int
		Message string
	}{status, message}
	s.render(w, status, "error.html", v)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.renderError(w, r, http.StatusNotFound, "The page you were looking for does not exist.")
}

// handleCSRFFailure runs instead of the handler when the token is missing or wrong.
func (s *Server) handleCSRFFailure(w http.ResponseWriter, r *http.Request) {
	slog.Warn("csrf_rejected", "method", r.Method, "path", r.URL.Path, "reason", csrf.FailureReason(r))
	s.renderError(w, r, http.StatusForbidden, msgCSRFFailed)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.SessionFrom(r.Context()); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// --- Login / Logout ---

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.SessionFrom(r.Context()); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	v := s.page(w, r, "Log in", "")
	v.Data = struct{ Login string }{}
	s.render(w, http.StatusOK, "login.html", v)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	login := strings.TrimSpace(r.PostFormValue("login"))
	result, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{
		Login:    login,
		Password: r.PostFormValue("password"),
	}, orchestrators.LoginDeps{
		UserStore: s.stores.Users,
		Activity:  s.activity,
		Now:       s.now,
	})
	if err != nil {
		status := http.StatusInternalServerError
		msg := msgLoadFailed
		if errors.Is(err, orchestrators.ErrInvalidCredentials) {
			status, msg = http.StatusUnauthorized, "Invalid username or password"
		} else {
			slog.Error("login_failed", "error", err)
		}
		v := s.page(w, r, "Log in", "")
		v.Errors = []string{msg}
		v.Data = struct{ Login string }{login}
		s.render(w, status, "login.html", v)
		return
	}

	// A fresh token on every login; any previous session is dropped.
	if c, err := r.Cookie(middleware.SessionCookieName); err == nil {
		s.sessions.Delete(c.Value)
	}
	token, err := s.sessions.Create(result.UserID, result.Username, result.Role)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	middleware.IssueSessionCookie(w, token, s.sessions.Lifetime(), s.secure)
	s.redirect(w, r, "/dashboard", middleware.FlashSuccess, "Welcome back, "+result.Username)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(middleware.SessionCookieName); err == nil {
		s.sessions.Delete(c.Value)
	}
	if sess, ok := middleware.SessionFrom(r.Context()); ok {
		slog.Info("auth_event", "event", "logout", "user_id", sess.UserID)
	}
	middleware.ExpireSessionCookie(w, s.secure)
	s.redirect(w, r, "/login", middleware.FlashInfo, "You have been logged out")
}
