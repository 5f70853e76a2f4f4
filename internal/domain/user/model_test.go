package user

import (
	"strings"
	"testing"

	"glp/internal/domain/validation"
)

func init() {
	bcryptCost = 4
}

func validUser() User {
	return User{
		Username:  "amara_k",
		Email:     "amara@example.org",
		FirstName: "Amara",
		LastName:  "Kone",
		Role:      RoleParticipant,
		IsActive:  true,
	}
}

// TestValidate_Valid verifies a well-formed user passes.
func TestValidate_Valid(t *testing.T) {
	u := validUser()
	if err := u.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestValidate_Accumulates verifies every failing field is reported.
func TestValidate_Accumulates(t *testing.T) {
	u := User{Username: "a!", Email: "bad", Role: "queen"}
	err := u.Validate()
	msgs := validation.Messages(err)
	if len(msgs) < 4 {
		t.Fatalf("expected at least 4 messages, got %v", msgs)
	}
	joined := strings.Join(msgs, "|")
	for _, want := range []string{"Email must be a valid email address", "First name is required", "Role must be one of"} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing %q in %v", want, msgs)
		}
	}
}

// TestValidate_TrimsWhitespace verifies names are trimmed before checking.
func TestValidate_TrimsWhitespace(t *testing.T) {
	u := validUser()
	u.FirstName = "   "
	if err := u.Validate(); err == nil {
		t.Fatal("expected whitespace-only first name to fail")
	}
}

// TestCheckNewPassword covers create and edit rules.
func TestCheckNewPassword(t *testing.T) {
	tests := []struct {
		name     string
		pw, conf string
		required bool
		wantErrs int
	}{
		{"create empty", "", "", true, 1},
		{"edit empty", "", "", false, 0},
		{"too short", "short", "short", true, 1},
		{"mismatch", "longenough1", "longenough2", false, 1},
		{"short and mismatch", "abc", "abd", true, 2},
		{"ok", "longenough1", "longenough1", true, 0},
		{"at byte limit", strings.Repeat("a", 72), strings.Repeat("a", 72), true, 0},
		{"over byte limit", strings.Repeat("a", 73), strings.Repeat("a", 73), true, 1},
		{"multibyte over limit", strings.Repeat("é", 40), strings.Repeat("é", 40), true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := CheckNewPassword(tt.pw, tt.conf, tt.required)
			if len(errs) != tt.wantErrs {
				t.Errorf("got %v, want %d errors", errs, tt.wantErrs)
			}
		})
	}
}

// TestSetAndCheckPassword verifies hashing round trip.
func TestSetAndCheckPassword(t *testing.T) {
	u := validUser()
	if err := u.SetPassword("correct horse"); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	if u.PasswordHash == "correct horse" {
		t.Fatal("password stored in plain text")
	}
	if err := u.CheckPassword("correct horse"); err != nil {
		t.Errorf("expected password to match: %v", err)
	}
	if err := u.CheckPassword("wrong"); err != ErrWrongPassword {
		t.Errorf("expected ErrWrongPassword, got %v", err)
	}
}

// TestSetPassword_TooShort verifies the minimum length.
func TestSetPassword_TooShort(t *testing.T) {
	u := validUser()
	if err := u.SetPassword("1234567"); err != ErrPasswordTooShort {
		t.Errorf("expected ErrPasswordTooShort, got %v", err)
	}
}

// TestSetPassword_TooLong verifies input bcrypt cannot hash is refused up front.
func TestSetPassword_TooLong(t *testing.T) {
	u := validUser()
	if err := u.SetPassword(strings.Repeat("x", 100)); err != ErrPasswordTooLong {
		t.Errorf("expected ErrPasswordTooLong, got %v", err)
	}
}

// TestFullName verifies name formatting.
func TestFullName(t *testing.T) {
	u := validUser()
	if got := u.FullName(); got != "Amara Kone" {
		t.Errorf("got %q", got)
	}
}
