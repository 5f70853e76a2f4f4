package orchestrators

import (
	"context"
	"testing"

	"glp/internal/domain/user"
)

// TestExecuteSeedAdmin verifies the admin is created only for an empty user table.
func TestExecuteSeedAdmin(t *testing.T) {
	users := newMockUserStore()
	deps := SeedAdminDeps{UserStore: users, Now: fixedNow}
	in := SeedAdminInput{Username: "admin", Email: "admin@example.org", Password: "change-me-now"}

	created, err := ExecuteSeedAdmin(context.Background(), in, deps)
	if err != nil || !created {
		t.Fatalf("first seed: %v %v", created, err)
	}
	var admin user.User
	for _, u := range users.users {
		admin = u
	}
	if admin.Role != user.RoleAdmin || !admin.IsActive || admin.CheckPassword("change-me-now") != nil {
		t.Errorf("admin = %+v", admin)
	}

	created, err = ExecuteSeedAdmin(context.Background(), in, deps)
	if err != nil || created {
		t.Errorf("second seed: %v %v", created, err)
	}
	if len(users.users) != 1 {
		t.Errorf("users = %d", len(users.users))
	}
}

// TestExecuteSeedAdmin_RequiresCredentials verifies a missing password is an error.
func TestExecuteSeedAdmin_RequiresCredentials(t *testing.T) {
	_, err := ExecuteSeedAdmin(context.Background(), SeedAdminInput{Username: "admin", Email: "admin@example.org"},
		SeedAdminDeps{UserStore: newMockUserStore(), Now: fixedNow})
	if err == nil {
		t.Error("expected error")
	}
}
