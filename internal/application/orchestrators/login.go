package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"glp/internal/domain/user"
)

// UserStoreForLogin defines the store interface needed by Login.
type UserStoreForLogin interface {
	GetByLogin(ctx context.Context, login string) (user.User, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

// LoginInput carries input for the login orchestrator.
// Login is a username or an email address.
type LoginInput struct {
	Login    string
	Password string
}

// LoginResult carries the result of a successful login.
type LoginResult struct {
	UserID   string
	Username string
	Role     string
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	UserStore UserStoreForLogin
	Activity  *ActivityLogger
	Now       func() time.Time
}

// ErrInvalidCredentials is returned for unknown users, wrong passwords and deactivated accounts alike.
var ErrInvalidCredentials = errors.New("invalid username or password")

// ExecuteLogin validates credentials and returns user info for session creation.
// PRE: none
// POST: On success last_login_at is stamped and the login is written to the activity log
// INVARIANT: Deactivated users cannot log in
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (LoginResult, error) {
	login := strings.TrimSpace(input.Login)
	if login == "" || input.Password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}

	u, err := deps.UserStore.GetByLogin(ctx, login)
	if err != nil {
		slog.Info("auth_event", "event", "login_failed", "login", login, "reason", "not_found")
		return LoginResult{}, ErrInvalidCredentials
	}

	if !u.IsActive {
		slog.Info("auth_event", "event", "login_blocked", "login", login, "reason", "inactive")
		return LoginResult{}, ErrInvalidCredentials
	}

	if err := u.CheckPassword(input.Password); err != nil {
		slog.Info("auth_event", "event", "login_failed", "login", login, "reason", "wrong_password")
		return LoginResult{}, ErrInvalidCredentials
	}

	if err := deps.UserStore.TouchLastLogin(ctx, u.ID, deps.Now()); err != nil {
		slog.Error("last_login_update_failed", "user_id", u.ID, "error", err)
	}
	deps.Activity.LogActivity(ctx, "Logged in", u.ID)

	slog.Info("auth_event", "event", "login_success", "user_id", u.ID, "role", u.Role)
	return LoginResult{UserID: u.ID, Username: u.Username, Role: u.Role}, nil
}
