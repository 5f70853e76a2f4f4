package orchestrators

import (
	"context"
	"testing"

	"glp/internal/domain/user"
)

func loginFixture(t *testing.T, active bool) (*mockUserStore, *mockActivityStore, LoginDeps) {
	t.Helper()
	u := testUser("u1", user.RoleMentor)
	u.Username = "grace"
	u.Email = "grace@example.org"
	u.IsActive = active
	if err := u.SetPassword("correct-horse"); err != nil {
		t.Fatal(err)
	}
	users := newMockUserStore(u)
	acts := &mockActivityStore{}
	return users, acts, LoginDeps{UserStore: users, Activity: newActivityLogger(acts), Now: fixedNow}
}

// TestExecuteLogin_ByUsernameOrEmail verifies both login forms succeed and stamp last login.
func TestExecuteLogin_ByUsernameOrEmail(t *testing.T) {
	for _, login := range []string{"grace", "GRACE@example.org"} {
		users, acts, deps := loginFixture(t, true)
		res, err := ExecuteLogin(context.Background(), LoginInput{Login: login, Password: "correct-horse"}, deps)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", login, err)
		}
		if res.UserID != "u1" || res.Role != user.RoleMentor || res.Username != "grace" {
			t.Errorf("%s: unexpected result %+v", login, res)
		}
		if !users.touched["u1"].Equal(fixedTime) {
			t.Errorf("%s: last login not stamped", login)
		}
		if len(acts.entries) != 1 || acts.entries[0].Message != "Logged in" {
			t.Errorf("%s: expected one activity entry, got %+v", login, acts.entries)
		}
	}
}

// TestExecuteLogin_Rejections verifies failures share one error and leave no trace.
func TestExecuteLogin_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		active   bool
		login    string
		password string
	}{
		{"wrong password", true, "grace", "nope-nope"},
		{"unknown user", true, "nobody", "correct-horse"},
		{"inactive", false, "grace", "correct-horse"},
		{"empty", true, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, acts, deps := loginFixture(t, tt.active)
			_, err := ExecuteLogin(context.Background(), LoginInput{Login: tt.login, Password: tt.password}, deps)
			if err != ErrInvalidCredentials {
				t.Fatalf("got %v, want ErrInvalidCredentials", err)
			}
			if len(users.touched) != 0 || len(acts.entries) != 0 {
				t.Error("failed login must not stamp or log activity")
			}
		})
	}
}
