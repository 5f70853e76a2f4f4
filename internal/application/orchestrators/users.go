package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"glp/internal/domain/user"
	"glp/internal/domain/validation"
)

// UserStoreForOrchestrator defines the store interface needed by user orchestrators.
type UserStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (user.User, error)
	Save(ctx context.Context, u user.User) error
	UsernameTaken(ctx context.Context, username, excludeID string) (bool, error)
	EmailTaken(ctx context.Context, email, excludeID string) (bool, error)
}

// User errors
var (
	ErrCannotDeactivateSelf = errors.New("you cannot deactivate your own account")
	ErrCurrentPasswordWrong = errors.New("current password is incorrect")
)

// --- Save User ---

// SaveUserInput carries input for creating or editing a user.
// An empty UserID creates a new user. On edit an empty Password keeps the current one.
type SaveUserInput struct {
	UserID          string
	Username        string
	Email           string
	FirstName       string
	LastName        string
	Role            string
	IsActive        bool
	Bio             string
	Phone           string
	Password        string
	ConfirmPassword string
	ActorID         string
}

// SaveUserDeps holds dependencies for SaveUser.
type SaveUserDeps struct {
	UserStore  UserStoreForOrchestrator
	Activity   *ActivityLogger
	GenerateID func() string
	Now        func() time.Time
}

// ExecuteSaveUser creates or updates a user account.
// PRE: caller holds user_management
// POST: User persisted, or validation.Errors listing every failure with nothing persisted
// INVARIANT: username and email stay unique
func ExecuteSaveUser(ctx context.Context, input SaveUserInput, deps SaveUserDeps) (user.User, error) {
	creating := input.UserID == ""
	var u user.User
	if creating {
		u = user.User{
			ID:        deps.GenerateID(),
			CreatedAt: deps.Now(),
		}
	} else {
		existing, err := deps.UserStore.GetByID(ctx, input.UserID)
		if err != nil {
			return user.User{}, notFound(err)
		}
		u = existing
	}

	u.Username = input.Username
	u.Email = input.Email
	u.FirstName = input.FirstName
	u.LastName = input.LastName
	u.Role = input.Role
	u.Bio = strings.TrimSpace(input.Bio)
	u.Phone = strings.TrimSpace(input.Phone)
	u.IsActive = input.IsActive
	if !creating && u.ID == input.ActorID {
		// An admin editing themselves keeps their account active.
		u.IsActive = true
	}

	errs := validation.Messages(u.Validate())
	errs = append(errs, user.CheckNewPassword(input.Password, input.ConfirmPassword, creating)...)
	uniq, err := checkUnique(ctx, deps.UserStore, u.Username, u.Email, u.ID)
	if err != nil {
		return user.User{}, err
	}
	errs = append(errs, uniq...)
	if len(errs) > 0 {
		return user.User{}, validation.Errors(errs)
	}

	if input.Password != "" {
		if err := u.SetPassword(input.Password); err != nil {
			return user.User{}, err
		}
	}

	if err := deps.UserStore.Save(ctx, u); err != nil {
		return user.User{}, err
	}

	event, verb := "user_updated", "Updated"
	if creating {
		event, verb = "user_created", "Created"
	}
	deps.Activity.LogActivity(ctx, fmt.Sprintf("%s user: %s", verb, u.Username), input.ActorID)
	slog.Info("user_event", "event", event, "user_id", u.ID, "role", u.Role, "actor_id", input.ActorID)
	return u, nil
}

// checkUnique reports username/email collisions with other users.
func checkUnique(ctx context.Context, store UserStoreForOrchestrator, username, email, excludeID string) (validation.Errors, error) {
	var errs validation.Errors
	if username != "" {
		taken, err := store.UsernameTaken(ctx, username, excludeID)
		if err != nil {
			return nil, err
		}
		if taken {
			errs.Add("Username is already taken")
		}
	}
	if email != "" {
		taken, err := store.EmailTaken(ctx, email, excludeID)
		if err != nil {
			return nil, err
		}
		if taken {
			errs.Add("Email is already registered")
		}
	}
	return errs, nil
}

// --- Activate / Deactivate ---

// SetUserActiveInput carries input for the activate/deactivate actions.
type SetUserActiveInput struct {
	UserID  string
	Active  bool
	ActorID string
}

// SetUserActiveDeps holds dependencies for SetUserActive.
type SetUserActiveDeps struct {
	UserStore UserStoreForOrchestrator
	Activity  *ActivityLogger
}

// ExecuteSetUserActive soft-deletes or restores a user.
// PRE: caller holds user_management
// POST: is_active updated; users are never hard-deleted
// INVARIANT: an actor cannot deactivate their own account
func ExecuteSetUserActive(ctx context.Context, input SetUserActiveInput, deps SetUserActiveDeps) (user.User, error) {
	if !input.Active && input.UserID == input.ActorID {
		return user.User{}, ErrCannotDeactivateSelf
	}
	u, err := deps.UserStore.GetByID(ctx, input.UserID)
	if err != nil {
		return user.User{}, notFound(err)
	}
	if u.IsActive == input.Active {
		return u, nil
	}
	u.IsActive = input.Active
	if err := deps.UserStore.Save(ctx, u); err != nil {
		return user.User{}, err
	}

	event, verb := "user_activated", "Activated"
	if !input.Active {
		event, verb = "user_deactivated", "Deactivated"
	}
	deps.Activity.LogActivity(ctx, fmt.Sprintf("%s user: %s", verb, u.Username), input.ActorID)
	slog.Info("user_event", "event", event, "user_id", u.ID, "actor_id", input.ActorID)
	return u, nil
}

// --- Profile ---

// UpdateProfileInput carries the fields a user may change on their own profile.
type UpdateProfileInput struct {
	UserID    string
	FirstName string
	LastName  string
	Email     string
	Bio       string
	Phone     string
}

// UpdateProfileDeps holds dependencies for UpdateProfile.
type UpdateProfileDeps struct {
	UserStore UserStoreForOrchestrator
	Activity  *ActivityLogger
}

// ExecuteUpdateProfile updates the caller's own profile.
// PRE: UserID is the logged-in user
// POST: Name, email, bio and phone updated; role and username unchanged
func ExecuteUpdateProfile(ctx context.Context, input UpdateProfileInput, deps UpdateProfileDeps) (user.User, error) {
	u, err := deps.UserStore.GetByID(ctx, input.UserID)
	if err != nil {
		return user.User{}, notFound(err)
	}
	u.FirstName = input.FirstName
	u.LastName = input.LastName
	u.Email = input.Email
	u.Bio = strings.TrimSpace(input.Bio)
	u.Phone = strings.TrimSpace(input.Phone)

	errs := validation.Messages(u.Validate())
	taken, err := deps.UserStore.EmailTaken(ctx, u.Email, u.ID)
	if err != nil {
		return user.User{}, err
	}
	if taken {
		errs = append(errs, "Email is already registered")
	}
	if len(errs) > 0 {
		return user.User{}, validation.Errors(errs)
	}

	if err := deps.UserStore.Save(ctx, u); err != nil {
		return user.User{}, err
	}
	deps.Activity.LogActivity(ctx, "Updated profile", u.ID)
	slog.Info("user_event", "event", "profile_updated", "user_id", u.ID)
	return u, nil
}

// ChangePasswordInput carries input for the change-password orchestrator.
type ChangePasswordInput struct {
	UserID          string
	CurrentPassword string
	NewPassword     string
	ConfirmPassword string
}

// ChangePasswordDeps holds dependencies for ChangePassword.
type ChangePasswordDeps struct {
	UserStore UserStoreForOrchestrator
	Activity  *ActivityLogger
}

// ExecuteChangePassword verifies the current password and sets a new one.
// PRE: UserID is the logged-in user
// POST: Password hash replaced
func ExecuteChangePassword(ctx context.Context, input ChangePasswordInput, deps ChangePasswordDeps) error {
	u, err := deps.UserStore.GetByID(ctx, input.UserID)
	if err != nil {
		return notFound(err)
	}
	if input.CurrentPassword == "" || u.CheckPassword(input.CurrentPassword) != nil {
		return ErrCurrentPasswordWrong
	}
	if errs := user.CheckNewPassword(input.NewPassword, input.ConfirmPassword, true); len(errs) > 0 {
		return errs
	}
	if err := u.SetPassword(input.NewPassword); err != nil {
		return err
	}
	if err := deps.UserStore.Save(ctx, u); err != nil {
		return err
	}
	deps.Activity.LogActivity(ctx, "Changed password", u.ID)
	slog.Info("auth_event", "event", "password_changed", "user_id", u.ID)
	return nil
}
