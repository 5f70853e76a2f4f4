package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/securecookie"

	"glp/internal/adapters/email"
	"glp/internal/adapters/http/middleware"
	"glp/internal/adapters/http/perf"
	"glp/internal/adapters/storage"
	activityStore "glp/internal/adapters/storage/activity"
	assignmentStore "glp/internal/adapters/storage/assignment"
	notificationStore "glp/internal/adapters/storage/notification"
	projectStore "glp/internal/adapters/storage/project"
	surveyStore "glp/internal/adapters/storage/survey"
	trainingStore "glp/internal/adapters/storage/training"
	userStore "glp/internal/adapters/storage/user"
	"glp/internal/application/orchestrators"
	"glp/internal/domain/permission"
)

// Stores holds all storage dependencies.
type Stores struct {
	Users         userStore.Store
	Projects      projectStore.Store
	Surveys       surveyStore.Store
	Training      trainingStore.Store
	Assignments   assignmentStore.Store
	Notifications notificationStore.Store
	Activity      activityStore.Store
}

// Options configures a Server. Zero values fall back to development defaults.
type Options struct {
	CSRFKey            []byte // 32 bytes
	Secure             bool   // HTTPS-only cookies
	SessionLifetime    time.Duration
	RateLimitPerSecond int
	SlowRequest        time.Duration
	Email              email.Sender // nil disables email copies of notifications
	BaseURL            string
	Permissions        *permission.Table
	Collector          *perf.Collector
	Now                func() time.Time
	GenerateID         func() string
}

// Server serves the administration pages.
type Server struct {
	stores     Stores
	perms      *permission.Table
	sessions   *middleware.SessionStore
	flash      *middleware.FlashStore
	limiter    *middleware.RateLimiter
	collector  *perf.Collector
	views      *renderer
	notifier   *orchestrators.Notifier
	activity   *orchestrators.ActivityLogger
	secure     bool
	now        func() time.Time
	generateID func() string
	handler    http.Handler
}

// NewServer wires handlers, middleware and templates.
// PRE: every store in s is set; opts.CSRFKey is 32 bytes
// POST: Returns a ready Server; Close releases its background goroutine
func NewServer(s Stores, opts Options) (*Server, error) {
	if len(opts.CSRFKey) != 32 {
		return nil, fmt.Errorf("csrf key must be 32 bytes, got %d", len(opts.CSRFKey))
	}
	if opts.Permissions == nil {
		opts.Permissions = permission.DefaultTable()
	}
	if opts.Collector == nil {
		opts.Collector = perf.NewCollector(perf.DefaultWindow)
	}
	if opts.RateLimitPerSecond <= 0 {
		opts.RateLimitPerSecond = 10
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.GenerateID == nil {
		opts.GenerateID = func() string { return uuid.New().String() }
	}

	views, err := newRenderer()
	if err != nil {
		return nil, err
	}
	// Flash messages are short-lived, so a per-process signing key is enough.
	flashKey := securecookie.GenerateRandomKey(32)
	if flashKey == nil {
		return nil, errors.New("generate flash key")
	}

	srv := &Server{
		stores:     s,
		perms:      opts.Permissions,
		sessions:   middleware.NewSessionStore(opts.SessionLifetime),
		flash:      middleware.NewFlashStore(flashKey, opts.Secure),
		limiter:    middleware.NewRateLimiter(opts.RateLimitPerSecond, time.Second),
		collector:  opts.Collector,
		views:      views,
		secure:     opts.Secure,
		now:        opts.Now,
		generateID: opts.GenerateID,
	}
	srv.activity = &orchestrators.ActivityLogger{
		Store:      s.Activity,
		GenerateID: opts.GenerateID,
		Now:        opts.Now,
	}
	srv.notifier = &orchestrators.Notifier{
		Store:      s.Notifications,
		Users:      s.Users,
		Email:      opts.Email,
		BaseURL:    opts.BaseURL,
		GenerateID: opts.GenerateID,
		Now:        opts.Now,
	}

	// Apply middleware: ClientIP -> Timing -> RateLimit -> SecurityHeaders -> CSRF -> Auth -> router
	srv.handler = middleware.Chain(srv.routes(),
		middleware.Auth(srv.sessions),
		middleware.CSRF(opts.CSRFKey, opts.Secure, http.HandlerFunc(srv.handleCSRFFailure)),
		middleware.SecurityHeaders,
		middleware.RateLimit(srv.limiter),
		middleware.Timing(opts.SlowRequest, opts.Collector),
		middleware.ClientIP,
	)
	return srv, nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Close stops the rate limiter's cleanup goroutine.
func (s *Server) Close() {
	s.limiter.Close()
}

// routes builds the route table. Literal paths are registered before their {id} siblings.
func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(s.handleNotFound)

	login := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireLogin(s.flash)(h)
	}
	perm := func(h http.HandlerFunc, perms ...string) http.Handler {
		return middleware.RequirePermission(s.perms, s.flash, perms...)(h)
	}
	get, post := http.MethodGet, http.MethodPost

	r.HandleFunc("/", s.handleRoot).Methods(get)
	r.HandleFunc("/healthz", s.handleHealthz).Methods(get)
	r.HandleFunc("/login", s.handleLoginPage).Methods(get)
	r.HandleFunc("/login", s.handleLogin).Methods(post)
	r.HandleFunc("/logout", s.handleLogout).Methods(post)

	r.Handle("/dashboard", login(s.handleDashboard)).Methods(get)
	r.Handle("/profile", login(s.handleProfile)).Methods(get)
	r.Handle("/profile/edit", login(s.handleProfileEdit)).Methods(get)
	r.Handle("/profile/edit", login(s.handleProfileUpdate)).Methods(post)
	r.Handle("/notifications", login(s.handleNotifications)).Methods(get)
	r.Handle("/notifications", login(s.handleNotificationAction)).Methods(post)

	r.Handle("/users", perm(s.handleUserList, permission.UserManagement)).Methods(get)
	r.Handle("/users/new", perm(s.handleUserNew, permission.UserManagement)).Methods(get)
	r.Handle("/users/new", perm(s.handleUserCreate, permission.UserManagement)).Methods(post)
	r.Handle("/users/{id}", perm(s.handleUserDetail, permission.UserManagement)).Methods(get)
	r.Handle("/users/{id}", perm(s.handleUserAction, permission.UserManagement)).Methods(post)
	r.Handle("/users/{id}/edit", perm(s.handleUserEdit, permission.UserManagement)).Methods(get)
	r.Handle("/users/{id}/edit", perm(s.handleUserUpdate, permission.UserManagement)).Methods(post)

	r.Handle("/projects", perm(s.handleProjectList, permission.ViewProjects)).Methods(get)
	r.Handle("/projects/new", perm(s.handleProjectNew, permission.ProjectManagement)).Methods(get)
	r.Handle("/projects/new", perm(s.handleProjectCreate, permission.ProjectManagement)).Methods(post)
	r.Handle("/projects/{id}", perm(s.handleProjectDetail, permission.ViewProjects)).Methods(get)
	r.Handle("/projects/{id}", perm(s.handleProjectAction, permission.ViewProjects)).Methods(post)
	r.Handle("/projects/{id}/edit", perm(s.handleProjectEdit, permission.ViewProjects)).Methods(get)
	r.Handle("/projects/{id}/edit", perm(s.handleProjectUpdate, permission.ViewProjects)).Methods(post)

	r.Handle("/surveys", perm(s.handleSurveyList, permission.TakeSurveys, permission.SurveyManagement)).Methods(get)
	r.Handle("/surveys/new", perm(s.handleSurveyNew, permission.SurveyManagement)).Methods(get)
	r.Handle("/surveys/new", perm(s.handleSurveyCreate, permission.SurveyManagement)).Methods(post)
	r.Handle("/surveys/{id}/edit", perm(s.handleSurveyEdit, permission.SurveyManagement)).Methods(get)
	r.Handle("/surveys/{id}/edit", perm(s.handleSurveyUpdate, permission.SurveyManagement)).Methods(post)
	r.Handle("/surveys/{id}/take", perm(s.handleSurveyTake, permission.TakeSurveys)).Methods(get)
	r.Handle("/surveys/{id}/take", perm(s.handleSurveySubmit, permission.TakeSurveys)).Methods(post)
	r.Handle("/surveys/{id}/results", perm(s.handleSurveyResults, permission.SurveyManagement, permission.ViewReports)).Methods(get)

	r.Handle("/sessions", perm(s.handleSessionList, permission.ViewTraining)).Methods(get)
	r.Handle("/sessions/new", perm(s.handleSessionNew, permission.TrainingManagement)).Methods(get)
	r.Handle("/sessions/new", perm(s.handleSessionCreate, permission.TrainingManagement)).Methods(post)
	r.Handle("/sessions/calendar", perm(s.handleCalendar, permission.ViewTraining)).Methods(get)
	r.Handle("/sessions/{id}", perm(s.handleSessionDetail, permission.ViewTraining)).Methods(get)
	r.Handle("/sessions/{id}", perm(s.handleSessionAction, permission.ViewTraining)).Methods(post)
	r.Handle("/sessions/{id}/edit", perm(s.handleSessionEdit, permission.TrainingManagement)).Methods(get)
	r.Handle("/sessions/{id}/edit", perm(s.handleSessionUpdate, permission.TrainingManagement)).Methods(post)

	return r
}

// handleHealthz reports liveness, the schema version and recent timings.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(struct {
		Status        string        `json:"status"`
		SchemaVersion int           `json:"schema_version"`
		Perf          perf.Snapshot `json:"perf"`
	}{"ok", storage.LatestSchemaVersion(), s.collector.Snapshot(5)})
}
