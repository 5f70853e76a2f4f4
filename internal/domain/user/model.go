package user

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"glp/internal/domain/validation"
)

// Role constants
const (
	RoleAdmin       = "admin"
	RoleMentor      = "mentor"
	RoleParticipant = "participant"
	RoleVolunteer   = "volunteer"
)

// ValidRoles contains all valid role values.
var ValidRoles = []string{RoleAdmin, RoleMentor, RoleParticipant, RoleVolunteer}

// Password length bounds. bcrypt rejects input longer than MaxPasswordBytes.
const (
	MinPasswordLength = 8
	MaxPasswordBytes  = 72
)

// bcryptCost is a variable so tests can lower it.
var bcryptCost = 12

// UseMinHashCost lowers the bcrypt cost for the rest of the process.
// Only tests call this.
func UseMinHashCost() {
	bcryptCost = bcrypt.MinCost
}

// Domain errors
var (
	ErrEmptyPassword    = errors.New("password is required")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong  = errors.New("password must be at most 72 bytes")
	ErrPasswordMismatch = errors.New("password confirmation does not match")
	ErrWrongPassword    = errors.New("incorrect password")
	ErrInactive         = errors.New("account is inactive")
)

// User is a program member able to sign in.
// INVARIANT: users are never hard-deleted; IsActive=false is the soft delete
type User struct {
	ID           string
	Username     string `validate:"required,min=3,max=50,username" label:"Username"`
	Email        string `validate:"required,email,max=254" label:"Email"`
	FirstName    string `validate:"required,max=100" label:"First name"`
	LastName     string `validate:"required,max=100" label:"Last name"`
	Role         string `validate:"oneof=admin mentor participant volunteer" label:"Role"`
	IsActive     bool
	Bio          string `validate:"max=2000" label:"Bio"`
	Phone        string `validate:"max=30" label:"Phone"`
	PasswordHash string
	CreatedAt    time.Time
	LastLoginAt  time.Time
}

// Validate checks if the User has valid data.
// PRE: User struct is populated
// POST: Returns nil if valid, validation.Errors otherwise
func (u *User) Validate() error {
	u.Username = strings.TrimSpace(u.Username)
	u.Email = strings.TrimSpace(u.Email)
	u.FirstName = strings.TrimSpace(u.FirstName)
	u.LastName = strings.TrimSpace(u.LastName)
	return validation.Struct(u).Err()
}

// FullName returns "First Last".
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// CheckNewPassword validates a password and its confirmation.
// Required when creating an account; on edit an empty password means "unchanged".
// PRE: none
// POST: Returns the collected messages (possibly empty)
func CheckNewPassword(password, confirm string, required bool) validation.Errors {
	var errs validation.Errors
	if password == "" {
		if required {
			errs.Add(ErrEmptyPassword.Error())
		}
		return errs
	}
	if len(password) < MinPasswordLength {
		errs.Add(ErrPasswordTooShort.Error())
	}
	if len(password) > MaxPasswordBytes {
		errs.Add(ErrPasswordTooLong.Error())
	}
	if password != confirm {
		errs.Add(ErrPasswordMismatch.Error())
	}
	return errs
}

// SetPassword hashes and stores a password using bcrypt.
// PRE: plaintext is at least MinPasswordLength characters
// POST: PasswordHash is set to bcrypt hash
func (u *User) SetPassword(plaintext string) error {
	if plaintext == "" {
		return ErrEmptyPassword
	}
	if len(plaintext) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(plaintext) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword verifies a plaintext password against the stored hash.
// INVARIANT: User fields are not mutated
func (u *User) CheckPassword(plaintext string) error {
	if u.PasswordHash == "" {
		return ErrWrongPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plaintext)); err != nil {
		return ErrWrongPassword
	}
	return nil
}

// IsAdmin returns true if the user has admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsValidRole reports whether role is a known role.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}
